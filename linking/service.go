package linking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"nearlink/discourse"
	"nearlink/models"
	"nearlink/nearauth"
	"nearlink/utils"
)

var (
	ErrInvalidNonce     = errors.New("nonce is invalid, expired, or already used")
	ErrForumResolution  = errors.New("failed to resolve forum identity")
	ErrIdentityInvalid  = errors.New("identity assertion rejected")
	ErrNoLinkage        = errors.New("no linkage exists for this account")
	ErrPostRejected     = errors.New("forum rejected the post")
	ErrForumUnavailable = errors.New("forum request failed")
)

// Service drives the linking protocol end to end: issue a keypair and nonce,
// complete the challenge, and act on established linkages. Collaborators are
// injected once at startup; the service holds no state of its own.
type Service struct {
	Registry *Registry
	Forum    *discourse.Client
	Verifier *nearauth.Verifier
	DB       *gorm.DB
}

func NewService(registry *Registry, forum *discourse.Client, verifier *nearauth.Verifier, db *gorm.DB) *Service {
	return &Service{
		Registry: registry,
		Forum:    forum,
		Verifier: verifier,
		DB:       db,
	}
}

// AuthStart is the result of RequestAuthURL: the URL the user visits to
// approve the key grant, plus the nonce the client echoes back on completion.
type AuthStart struct {
	AuthURL   string
	Nonce     string
	AttemptID string
}

func (s *Service) RequestAuthURL(clientID, applicationName string) (*AuthStart, error) {
	key, publicPEM, err := GenerateLinkKeypair()
	if err != nil {
		return nil, err
	}

	nonce, attemptID, err := s.Registry.Create(clientID, key)
	if err != nil {
		return nil, err
	}

	return &AuthStart{
		AuthURL:   s.Forum.AuthorizeURL(clientID, applicationName, publicPEM, nonce),
		Nonce:     nonce,
		AttemptID: attemptID,
	}, nil
}

// LinkResult reports a committed linkage. It never carries the credential.
type LinkResult struct {
	ExternalAccountID string
	ForumUsername     string
	ForumUserID       int
	AttemptID         string
}

// CompleteLink walks one attempt through nonce verification, credential
// decryption, forum resolution, and identity verification, committing the
// linkage only when every step has passed. The nonce is consumed strictly
// after the linkage write: a crash between the two wastes one attempt but
// never leaves a corrupt linkage or a replayable nonce.
func (s *Service) CompleteLink(ctx context.Context, nonce, payload, assertion string) (*LinkResult, error) {
	rec, ok := s.Registry.Lookup(nonce)
	if !ok {
		return nil, ErrInvalidNonce
	}
	if !s.Registry.Verify(nonce, rec.ClientID) {
		return nil, ErrInvalidNonce
	}

	privateKey, ok := s.Registry.PrivateKey(nonce)
	if !ok {
		return nil, ErrInvalidNonce
	}

	plaintext, err := DecryptPayload(privateKey, payload)
	if err != nil {
		return nil, err
	}

	credential, err := ParseCredential(plaintext, nonce)
	if err != nil {
		return nil, err
	}

	user, err := s.Forum.ResolveUser(ctx, credential)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrForumResolution, err)
	}

	accountID, err := s.Verifier.Verify(ctx, assertion)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityInvalid, err)
	}

	encrypted, err := utils.Encrypt(credential)
	if err != nil {
		return nil, fmt.Errorf("failed to protect credential: %w", err)
	}

	linkage := models.Linkage{
		ExternalAccountID: accountID,
		ForumUsername:     user.Username,
		ForumUserID:       user.ID,
		ActingCredential:  encrypted,
		VerifiedAt:        time.Now(),
	}
	if err := s.DB.WithContext(ctx).Save(&linkage).Error; err != nil {
		return nil, fmt.Errorf("failed to store linkage: %w", err)
	}

	// Only now is the nonce burned; reaching here means the write committed.
	s.Registry.Consume(nonce)

	return &LinkResult{
		ExternalAccountID: accountID,
		ForumUsername:     user.Username,
		ForumUserID:       user.ID,
		AttemptID:         rec.AttemptID,
	}, nil
}

// PostResult is the successful outcome of a post creation.
type PostResult struct {
	AccountID string
	PostID    int
	TopicID   int
	PostURL   string
}

// CreatePost proves account ownership via the assertion, loads the linkage,
// and creates the post as the linked forum user.
func (s *Service) CreatePost(ctx context.Context, assertion, title, body string, category int) (*PostResult, error) {
	accountID, err := s.Verifier.Verify(ctx, assertion)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIdentityInvalid, err)
	}

	linkage, err := s.Linkage(accountID)
	if err != nil {
		return nil, err
	}

	credential, err := utils.Decrypt(linkage.ActingCredential)
	if err != nil {
		return nil, fmt.Errorf("failed to recover credential: %w", err)
	}

	post, err := s.Forum.CreatePost(ctx, credential, title, body, category)
	if err != nil {
		if discourse.IsValidation(err) {
			return nil, fmt.Errorf("%w: %s", ErrPostRejected, friendlyPostError(err))
		}
		return nil, fmt.Errorf("%w: %v", ErrForumUnavailable, err)
	}

	return &PostResult{
		AccountID: accountID,
		PostID:    post.ID,
		TopicID:   post.TopicID,
		PostURL:   s.Forum.PostURL(post),
	}, nil
}

// Linkage returns the stored row for an account. Callers surface it without
// the acting credential.
func (s *Service) Linkage(accountID string) (*models.Linkage, error) {
	var linkage models.Linkage
	if err := s.DB.First(&linkage, "external_account_id = ?", accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoLinkage
		}
		return nil, fmt.Errorf("failed to load linkage: %w", err)
	}
	return &linkage, nil
}

// postErrorPatterns maps known forum rejection texts to friendlier messages.
// Best effort; unmatched errors pass through verbatim.
var postErrorPatterns = []struct {
	substring string
	message   string
}{
	{"title is too short", "The post title is too short for the forum's rules"},
	{"title seems unclear", "The forum flagged the title as unclear"},
	{"body is too short", "The post body is too short for the forum's rules"},
	{"post is too short", "The post body is too short for the forum's rules"},
	{"not permitted", "You are not permitted to post in that category"},
	{"title has already been used", "A topic with this title already exists"},
}

func friendlyPostError(err error) string {
	var apiError *discourse.APIError
	if !errors.As(err, &apiError) {
		return err.Error()
	}

	upstream := apiError.Message
	if len(apiError.Errors) > 0 {
		upstream = strings.Join(apiError.Errors, "; ")
	}

	lower := strings.ToLower(upstream)
	for _, pattern := range postErrorPatterns {
		if strings.Contains(lower, pattern.substring) {
			return pattern.message
		}
	}
	return upstream
}
