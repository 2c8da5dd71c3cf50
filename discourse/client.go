package discourse

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// Scope requested for issued user API keys. Posting on behalf of the
	// linked user needs write, nothing more.
	KeyScopes = "write"

	userAgent        = "Nearlink/1.0"
	maxErrorBodySize = 16 * 1024
)

// APIError represents a non-2xx response from the Discourse REST API.
// Discourse returns {"errors": ["..."], "error_type": "..."} bodies for
// rejected requests.
type APIError struct {
	StatusCode int
	Message    string
	Errors     []string
}

func (e *APIError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("discourse: HTTP %d: %s", e.StatusCode, strings.Join(e.Errors, "; "))
	}
	return fmt.Sprintf("discourse: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is a Discourse 404 response.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusNotFound
}

// IsValidation reports whether err is a Discourse 422 rejection, the status
// used for content rules (title length, category permissions, duplicates).
func IsValidation(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == http.StatusUnprocessableEntity
}

// IsUnauthorized reports whether err indicates a bad or revoked user API key.
func IsUnauthorized(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) &&
		(apiError.StatusCode == http.StatusUnauthorized || apiError.StatusCode == http.StatusForbidden)
}

// User is the forum account a credential resolves to.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Post is the forum's record of a created post.
type Post struct {
	ID        int    `json:"id"`
	TopicID   int    `json:"topic_id"`
	TopicSlug string `json:"topic_slug"`
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Limiter    *RateLimiter
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Limiter:    NewRateLimiter(0, 0),
	}
}

// AuthorizeURL builds the user-api-keys authorization URL the end user visits
// to approve the key grant. The nonce and the PEM public key ride along as
// query parameters; Discourse encrypts the issued key against that public key
// and echoes the nonce inside the encrypted payload.
func (c *Client) AuthorizeURL(clientID, applicationName, publicPEM, nonce string) string {
	params := url.Values{}
	params.Set("application_name", applicationName)
	params.Set("client_id", clientID)
	params.Set("scopes", KeyScopes)
	params.Set("nonce", nonce)
	params.Set("public_key", publicPEM)

	return c.BaseURL + "/user-api-keys/new?" + params.Encode()
}

// ResolveUser looks up the forum account behind a user API key.
func (c *Client) ResolveUser(ctx context.Context, userAPIKey string) (*User, error) {
	var payload struct {
		CurrentUser User `json:"current_user"`
	}
	if err := c.do(ctx, http.MethodGet, "/session/current.json", userAPIKey, nil, &payload); err != nil {
		return nil, err
	}

	if payload.CurrentUser.ID == 0 || payload.CurrentUser.Username == "" {
		return nil, fmt.Errorf("discourse returned no current user")
	}

	return &payload.CurrentUser, nil
}

// CreatePost creates a new topic as the key's owner. A zero category lets the
// forum pick its default.
func (c *Client) CreatePost(ctx context.Context, userAPIKey, title, raw string, category int) (*Post, error) {
	body := map[string]interface{}{
		"title": title,
		"raw":   raw,
	}
	if category > 0 {
		body["category"] = category
	}

	var post Post
	if err := c.do(ctx, http.MethodPost, "/posts.json", userAPIKey, body, &post); err != nil {
		return nil, err
	}

	return &post, nil
}

// PostURL renders the canonical topic URL for a created post.
func (c *Client) PostURL(post *Post) string {
	return fmt.Sprintf("%s/t/%s/%d", c.BaseURL, post.TopicSlug, post.TopicID)
}

func (c *Client) do(ctx context.Context, method, path, userAPIKey string, body, out interface{}) error {
	if err := c.Limiter.Wait(ctx); err != nil {
		return fmt.Errorf("discourse rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userAPIKey != "" {
		req.Header.Set("User-Api-Key", userAPIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("discourse request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return parseAPIError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode discourse response: %w", err)
		}
	}

	return nil
}

func parseAPIError(resp *http.Response) error {
	apiError := &APIError{StatusCode: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil {
		apiError.Message = resp.Status
		return apiError
	}

	var body struct {
		Errors    []string `json:"errors"`
		ErrorType string   `json:"error_type"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && (len(body.Errors) > 0 || body.ErrorType != "") {
		apiError.Errors = body.Errors
		apiError.Message = body.ErrorType
		return apiError
	}

	apiError.Message = strings.TrimSpace(string(raw))
	if apiError.Message == "" {
		apiError.Message = resp.Status
	}
	return apiError
}
