package controllers

import (
	"errors"
	"log"
	"net/http"

	"nearlink/linking"
	"nearlink/metrics"
	"nearlink/models"
	"nearlink/utils"

	"github.com/gin-gonic/gin"
)

type LinkController struct {
	service *linking.Service
}

func NewLinkController(service *linking.Service) *LinkController {
	return &LinkController{service: service}
}

type requestAuthURLRequest struct {
	ClientID        string `json:"client_id"`
	ApplicationName string `json:"application_name"`
}

// RequestAuthURL starts a linking attempt: fresh keypair, registered nonce,
// and the forum authorization URL the user must visit.
func (c *LinkController) RequestAuthURL(ctx *gin.Context) {
	var req requestAuthURLRequest
	if !utils.BindAndValidate(ctx, &req) {
		return
	}
	if !utils.ValidateRequest(ctx,
		utils.ValidateStringNotEmpty(req.ClientID, "client_id"),
		utils.ValidateStringNotEmpty(req.ApplicationName, "application_name"),
	) {
		return
	}

	start, err := c.service.RequestAuthURL(req.ClientID, req.ApplicationName)
	if err != nil {
		// Key generation failures stay generic to the caller.
		log.Printf("Auth URL request failed: %v", err)
		utils.InternalError(ctx, "Failed to start linking attempt")
		return
	}

	metrics.AuthURLsIssued.Inc()
	utils.LogLinkEvent(models.AuditActionAuthURLIssued, "", start.AttemptID, ctx.ClientIP(), ctx.GetHeader("User-Agent"), true, "")
	log.Printf("Issued auth URL for linking attempt %s", start.AttemptID)

	ctx.JSON(http.StatusOK, gin.H{
		"auth_url": start.AuthURL,
		"nonce":    start.Nonce,
	})
}

type completeLinkRequest struct {
	Payload           string `json:"payload"`
	Nonce             string `json:"nonce"`
	IdentityAssertion string `json:"identity_assertion"`
}

// CompleteLink finishes the challenge: decrypts the forum's payload with the
// nonce-bound key, resolves the forum user, verifies the account assertion,
// and commits the linkage.
func (c *LinkController) CompleteLink(ctx *gin.Context) {
	var req completeLinkRequest
	if !utils.BindAndValidate(ctx, &req) {
		return
	}
	if !utils.ValidateRequest(ctx,
		utils.ValidateStringNotEmpty(req.Payload, "payload"),
		utils.ValidateStringNotEmpty(req.Nonce, "nonce"),
		utils.ValidateStringNotEmpty(req.IdentityAssertion, "identity_assertion"),
	) {
		return
	}

	result, err := c.service.CompleteLink(ctx.Request.Context(), req.Nonce, req.Payload, req.IdentityAssertion)
	if err != nil {
		c.completeFailed(ctx, err)
		return
	}

	metrics.LinkAttempts.WithLabelValues(metrics.OutcomeSuccess).Inc()
	utils.LogLinkEvent(models.AuditActionLinkCompleted, result.ExternalAccountID, result.AttemptID, ctx.ClientIP(), ctx.GetHeader("User-Agent"), true, "")
	log.Printf("Linked account %s to forum user %s (attempt %s)", result.ExternalAccountID, result.ForumUsername, result.AttemptID)

	ctx.JSON(http.StatusOK, gin.H{
		"success":             true,
		"external_account_id": result.ExternalAccountID,
		"forum_username":      result.ForumUsername,
		"message":             "Account linked successfully",
	})
}

func (c *LinkController) completeFailed(ctx *gin.Context, err error) {
	metrics.LinkAttempts.WithLabelValues(metrics.OutcomeFailure).Inc()
	utils.LogLinkEvent(models.AuditActionLinkRejected, "", "", ctx.ClientIP(), ctx.GetHeader("User-Agent"), false, err.Error())

	switch {
	case errors.Is(err, linking.ErrInvalidNonce):
		utils.BadRequest(ctx, "Nonce is invalid, expired, or already used")
	case errors.Is(err, linking.ErrDecryptionFailed):
		utils.BadRequest(ctx, "Could not decrypt the credential payload")
	case errors.Is(err, linking.ErrCredentialFormat):
		utils.BadRequest(ctx, "Credential payload has an unexpected format")
	case errors.Is(err, linking.ErrIdentityInvalid):
		utils.Unauthorized(ctx, "Identity assertion rejected")
	case errors.Is(err, linking.ErrForumResolution):
		utils.BadGateway(ctx, "Could not resolve the forum account")
	default:
		log.Printf("Link completion failed: %v", err)
		utils.InternalError(ctx, "Failed to complete linking")
	}
}

// GetLinkage returns the public half of a linkage. The acting credential
// never leaves the store.
func (c *LinkController) GetLinkage(ctx *gin.Context) {
	accountID := ctx.Param("account_id")
	if !utils.ValidateRequest(ctx, utils.ValidateAccountID(accountID)) {
		return
	}

	linkage, err := c.service.Linkage(accountID)
	if err != nil {
		if errors.Is(err, linking.ErrNoLinkage) {
			utils.NotFound(ctx, "No linkage exists for this account")
			return
		}
		log.Printf("Linkage lookup failed: %v", err)
		utils.InternalError(ctx, "Failed to load linkage")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"external_account_id": linkage.ExternalAccountID,
		"forum_username":      linkage.ForumUsername,
		"verified_at":         linkage.VerifiedAt,
	})
}
