package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/service"
)

const communityListLimit = 50

// CommunityHandler handles community submissions and reports
type CommunityHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommunityHandler creates a new CommunityHandler
func NewCommunityHandler(services *service.Services, log zerolog.Logger) *CommunityHandler {
	return &CommunityHandler{
		services: services,
		log:      log.With().Str("handler", "community").Logger(),
	}
}

type postForm struct {
	Thread     string `form:"thread" json:"thread"`
	AuthorName string `form:"author_name" json:"author_name"`
	Body       string `form:"body" json:"body"`
}

// ListPosts handles GET /community/
func (h *CommunityHandler) ListPosts(c *gin.Context) {
	posts, err := h.services.Community.ListPosts(c.Request.Context(), models.PostStatusApproved, communityListLimit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// SubmitPost handles POST /community/posts. Posts are queued for moderation.
func (h *CommunityHandler) SubmitPost(c *gin.Context) {
	var form postForm
	if err := c.ShouldBind(&form); err != nil {
		h.log.Debug().Err(err).Msg("Unreadable community post")
	}

	post, err := h.services.Community.SubmitPost(c.Request.Context(), service.PostSubmission{
		ThreadSlug: form.Thread,
		AuthorName: form.AuthorName,
		Body:       form.Body,
		IP:         c.ClientIP(),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"id": post.ID, "status": post.Status})
}

// ReportThread handles GET|POST /community/t/:slug/report/
func (h *CommunityHandler) ReportThread(c *gin.Context) {
	slug := c.Param("slug")
	h.report(c, models.TargetThread, slug, "/community/t/"+slug+"/")
}

// ReportPost handles GET|POST /community/p/:id/report/
func (h *CommunityHandler) ReportPost(c *gin.Context) {
	h.report(c, models.TargetPost, c.Param("id"), "/community/")
}

func (h *CommunityHandler) report(c *gin.Context, targetType, targetID, fallback string) {
	reason := c.PostForm("reason")
	if reason == "" {
		reason = c.Query("reason")
	}
	if err := h.services.Community.Report(c.Request.Context(), targetType, targetID, reason, c.ClientIP()); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Redirect(http.StatusFound, localPath(c.Request.Referer(), fallback))
}
