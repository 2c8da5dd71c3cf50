package controllers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"nearlink/linking"
	"nearlink/metrics"
	"nearlink/models"
	"nearlink/utils"

	"github.com/gin-gonic/gin"
)

// Forum content rules enforced locally so obviously invalid posts never
// reach the gateway.
const (
	minTitleLength = 15
	maxTitleLength = 255
	minBodyLength  = 20
)

type PostController struct {
	service *linking.Service
}

func NewPostController(service *linking.Service) *PostController {
	return &PostController{service: service}
}

type createPostRequest struct {
	IdentityAssertion string `json:"identity_assertion"`
	Title             string `json:"title"`
	Body              string `json:"body"`
	Category          int    `json:"category"`
}

// CreatePost creates a forum topic as the linked user behind the assertion.
func (c *PostController) CreatePost(ctx *gin.Context) {
	var req createPostRequest
	if !utils.BindAndValidate(ctx, &req) {
		return
	}
	if !utils.ValidateRequest(ctx,
		utils.ValidateStringNotEmpty(req.IdentityAssertion, "identity_assertion"),
		utils.ValidateStringLength(req.Title, "title", minTitleLength, maxTitleLength),
		utils.ValidateStringLength(req.Body, "body", minBodyLength, 0),
	) {
		return
	}

	result, err := c.service.CreatePost(ctx.Request.Context(), req.IdentityAssertion, req.Title, req.Body, req.Category)
	if err != nil {
		c.createFailed(ctx, err)
		return
	}

	metrics.ForumPosts.WithLabelValues(metrics.OutcomeSuccess).Inc()
	utils.LogPostEvent(models.AuditActionPostCreated, result.AccountID, ctx.ClientIP(), ctx.GetHeader("User-Agent"), true, map[string]interface{}{
		"post_id":  result.PostID,
		"topic_id": result.TopicID,
	}, "")

	ctx.JSON(http.StatusOK, gin.H{
		"success":  true,
		"post_url": result.PostURL,
		"post_id":  result.PostID,
		"topic_id": result.TopicID,
	})
}

func (c *PostController) createFailed(ctx *gin.Context, err error) {
	metrics.ForumPosts.WithLabelValues(metrics.OutcomeFailure).Inc()
	utils.LogPostEvent(models.AuditActionPostRejected, "", ctx.ClientIP(), ctx.GetHeader("User-Agent"), false, nil, err.Error())

	switch {
	case errors.Is(err, linking.ErrIdentityInvalid):
		utils.Unauthorized(ctx, "Identity assertion rejected")
	case errors.Is(err, linking.ErrNoLinkage):
		utils.NotFound(ctx, "No linkage exists for this account")
	case errors.Is(err, linking.ErrPostRejected):
		utils.ErrorWithDetails(ctx, http.StatusUnprocessableEntity, "Forum rejected the post", postRejectionReason(err))
	case errors.Is(err, linking.ErrForumUnavailable):
		utils.BadGateway(ctx, "Forum request failed")
	default:
		log.Printf("Post creation failed: %v", err)
		utils.InternalError(ctx, "Failed to create post")
	}
}

func postRejectionReason(err error) string {
	return strings.TrimPrefix(err.Error(), linking.ErrPostRejected.Error()+": ")
}
