package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/service"
	"github.com/technofatty/technofatty/internal/validation"
)

const (
	defaultModerator = "admin"
	defaultListLimit = 50
	maxListLimit     = 200
)

// AdminHandler handles operator endpoints: content editing, moderation and
// on-demand scheduled publishing
type AdminHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(services *service.Services, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		services: services,
		log:      log.With().Str("handler", "admin").Logger(),
	}
}

// Editors send publish times as ISO 8601 strings so that values without an
// offset reach validation instead of failing to decode.
type articleRequest struct {
	models.KnowledgeArticle
	PublishedAt string `json:"published_at"`
}

type blogPostRequest struct {
	models.BlogPost
	PublishedAt string `json:"published_at"`
}

// SaveArticle handles POST /admin/knowledge/articles
func (h *AdminHandler) SaveArticle(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	article := req.KnowledgeArticle
	publishedAt, err := parsePublishedAt(req.PublishedAt)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	article.PublishedAt = publishedAt

	if err := h.services.Knowledge.SaveArticle(c.Request.Context(), &article); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"article": article})
}

// SaveCategory handles POST /admin/knowledge/categories
func (h *AdminHandler) SaveCategory(c *gin.Context) {
	var category models.KnowledgeCategory
	if err := c.ShouldBindJSON(&category); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.services.Knowledge.SaveCategory(c.Request.Context(), &category); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

// SaveBlogPost handles POST /admin/blog/posts
func (h *AdminHandler) SaveBlogPost(c *gin.Context) {
	var req blogPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	post := req.BlogPost
	publishedAt, err := parsePublishedAt(req.PublishedAt)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	post.PublishedAt = publishedAt

	if err := h.services.Blog.Save(c.Request.Context(), &post); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// SaveTool handles POST /admin/tools
func (h *AdminHandler) SaveTool(c *gin.Context) {
	var tool models.Tool
	if err := c.ShouldBindJSON(&tool); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.services.Catalog.SaveTool(c.Request.Context(), &tool); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tool": tool})
}

// SaveCaseStudy handles POST /admin/case-studies
func (h *AdminHandler) SaveCaseStudy(c *gin.Context) {
	var cs models.CaseStudy
	if err := c.ShouldBindJSON(&cs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.services.Catalog.SaveCaseStudy(c.Request.Context(), &cs); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"case_study": cs})
}

// PublishScheduled handles POST /admin/publish-scheduled
func (h *AdminHandler) PublishScheduled(c *gin.Context) {
	n, err := h.services.Scheduler.RunOnce(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"published": n})
}

// ListReports handles GET /admin/reports?status=pending&limit=50
func (h *AdminHandler) ListReports(c *gin.Context) {
	status := models.ReportStatus(c.DefaultQuery("status", string(models.ReportStatusPending)))
	reports, err := h.services.Community.ListReports(c.Request.Context(), status, listLimit(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// ClaimReport handles POST /admin/reports/claim
func (h *AdminHandler) ClaimReport(c *gin.Context) {
	report, err := h.services.Community.ClaimNextReport(c.Request.Context(), moderator(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if report == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// ResolveReport handles POST /admin/reports/:id/resolve
func (h *AdminHandler) ResolveReport(c *gin.Context) {
	var req struct {
		Status models.ReportStatus `json:"status" form:"status"`
	}
	if !validID(c) {
		return
	}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := h.services.Community.ResolveReport(c.Request.Context(), c.Param("id"), req.Status, moderator(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": req.Status})
}

// ListPosts handles GET /admin/posts?status=pending
func (h *AdminHandler) ListPosts(c *gin.Context) {
	status := models.PostStatus(c.DefaultQuery("status", string(models.PostStatusPending)))
	posts, err := h.services.Community.ListPosts(c.Request.Context(), status, listLimit(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// ApprovePost handles POST /admin/posts/:id/approve
func (h *AdminHandler) ApprovePost(c *gin.Context) {
	h.review(c, true)
}

// RejectPost handles POST /admin/posts/:id/reject
func (h *AdminHandler) RejectPost(c *gin.Context) {
	h.review(c, false)
}

func (h *AdminHandler) review(c *gin.Context, approve bool) {
	if !validID(c) {
		return
	}
	if err := h.services.Community.ReviewPost(c.Request.Context(), c.Param("id"), approve, moderator(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	status := models.PostStatusRejected
	if approve {
		status = models.PostStatusApproved
	}
	c.JSON(http.StatusOK, gin.H{"id": c.Param("id"), "status": status})
}

func parsePublishedAt(raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := validation.ParseTimestamp(raw)
	if err != nil {
		return nil, validation.Errors{{Field: "published_at", Message: err.Error(), Value: raw}}
	}
	return &t, nil
}

// validID rejects non-UUID path ids before they reach the database
func validID(c *gin.Context) bool {
	if validation.IsValidUUID(c.Param("id")) {
		return true
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id format"})
	return false
}

func moderator(c *gin.Context) string {
	if m := strings.TrimSpace(c.GetHeader("X-Moderator")); m != "" {
		return m
	}
	return defaultModerator
}

func listLimit(c *gin.Context) int {
	limit := queryInt(c, "limit")
	if limit < 1 {
		return defaultListLimit
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
