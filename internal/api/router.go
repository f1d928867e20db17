package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/config"
	"github.com/technofatty/technofatty/internal/consent"
	"github.com/technofatty/technofatty/internal/seo"
	"github.com/technofatty/technofatty/internal/service"
	"github.com/technofatty/technofatty/internal/sitecontent"
)

// Gin context keys set by middleware
const (
	ctxConsentGranted  = "consent_granted"
	ctxConsentRequired = "consent_required"
	ctxUser            = "user"
)

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	if !cfg.Server.Debug && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	consents := consent.NewManager(cfg.Consent, cfg.Auth.SecretKey)

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())
	router.Use(consentMiddleware(consents))

	// Handlers
	contentHandler := NewContentHandler(services, cfg, log)
	submissionHandler := NewSubmissionHandler(services, cfg, log)
	communityHandler := NewCommunityHandler(services, log)
	siteHandler := NewSiteHandler(services, cfg, consents, sitecontent.NewFooterLoader(cfg.Site.FooterPath), log)
	accountHandler := NewAccountHandler(services, cfg, log)
	adminHandler := NewAdminHandler(services, log)
	exportHandler := NewExportHandler(services, log)

	// Site surfaces
	router.GET("/", siteHandler.Home)
	router.GET("/robots.txt", siteHandler.Robots)
	router.GET("/sitemap.xml", siteHandler.Sitemap)
	router.GET("/footer.json", siteHandler.Footer)
	router.GET("/support/", siteHandler.Support)
	router.POST("/consent/accept", siteHandler.AcceptConsent)
	router.POST("/consent/decline", siteHandler.DeclineConsent)

	// Health checks
	health := router.Group("/health", noStore())
	{
		health.GET("/live", siteHandler.Live)
		health.GET("/db", siteHandler.HealthDB)
		health.GET("/cache", siteHandler.HealthCache)
	}

	// Legacy paths
	router.GET("/signup/", siteHandler.LegacySignup)
	router.GET("/services/", permanentRedirect(seo.AbsoluteURL(cfg.Site.BaseURL, "/about/")))
	router.GET("/signals/:slug/", siteHandler.LegacySignal)
	router.GET("/community/join/", permanentRedirect(seo.AbsoluteURL(cfg.Site.BaseURL, "/community/")))

	// Blog
	blog := router.Group("/blog")
	{
		blog.GET("/", contentHandler.ListBlog)
		blog.GET("/rss/", siteHandler.FeedHandler(feedBlog, service.FeedRSS))
		blog.GET("/atom/", siteHandler.FeedHandler(feedBlog, service.FeedAtom))
		blog.GET("/feed.json", siteHandler.FeedHandler(feedBlog, service.FeedJSON))
		blog.GET("/:slug/", contentHandler.GetBlogPost)
	}

	// Knowledge base
	knowledge := router.Group("/knowledge")
	{
		knowledge.GET("/", contentHandler.ListKnowledge)
		knowledge.GET("/rss/", siteHandler.FeedHandler(feedKnowledge, service.FeedRSS))
		knowledge.GET("/atom/", siteHandler.FeedHandler(feedKnowledge, service.FeedAtom))
		knowledge.GET("/feed.json", siteHandler.FeedHandler(feedKnowledge, service.FeedJSON))
		knowledge.GET("/:category/", contentHandler.GetKnowledgeCategory)
		knowledge.GET("/:category/:slug/", contentHandler.GetKnowledgeArticle)
	}

	// Catalog
	tools := router.Group("/tools", robotsTag(cfg.Site.ToolsIndexable))
	{
		tools.GET("/", contentHandler.ListTools)
		tools.GET("/:slug/", contentHandler.GetTool)
	}
	caseStudies := router.Group("/case-studies", robotsTag(cfg.Site.CaseStudiesIndexable))
	{
		caseStudies.GET("/", contentHandler.ListCaseStudies)
		caseStudies.GET("/:slug/", contentHandler.GetCaseStudy)
	}

	// Submissions
	router.GET("/contact/", submissionHandler.ContactPage)
	router.POST("/contact/", submissionHandler.Contact)
	newsletter := router.Group("/newsletter", noIndex())
	{
		newsletter.POST("/subscribe/", submissionHandler.Subscribe)
		newsletter.GET("/block-view", submissionHandler.BlockView)
	}

	// Community
	community := router.Group("/community")
	{
		community.GET("/", communityHandler.ListPosts)
		community.POST("/posts", communityHandler.SubmitPost)
		community.GET("/t/:slug/report/", communityHandler.ReportThread)
		community.POST("/t/:slug/report/", communityHandler.ReportThread)
		community.GET("/p/:id/report/", communityHandler.ReportPost)
		community.POST("/p/:id/report/", communityHandler.ReportPost)
	}

	// Accounts
	router.GET("/activate/:uid/:token/", accountHandler.Activate)
	accounts := router.Group("/account")
	{
		accounts.POST("/signup/", accountHandler.Signup)
		accounts.GET("/login/", accountHandler.LoginPage)
		accounts.POST("/login/", accountHandler.Login)
		accounts.GET("/logout/", accountHandler.Logout)
		accounts.POST("/password-reset/", accountHandler.RequestPasswordReset)
		accounts.GET("/reset/:uid/:token/", accountHandler.CheckReset)
		accounts.POST("/reset/:uid/:token/", accountHandler.ResetPassword)
		accounts.GET("/", requireLogin(services.Account), accountHandler.Profile)
	}

	// Operator endpoints
	admin := router.Group("/admin", adminAuth(cfg.Admin.Token))
	{
		admin.GET("/metrics", exportHandler.Metrics)
		admin.GET("/exports/newsletter-leads", exportHandler.StreamLeads)
		admin.POST("/publish-scheduled", adminHandler.PublishScheduled)

		admin.GET("/reports", adminHandler.ListReports)
		admin.POST("/reports/claim", adminHandler.ClaimReport)
		admin.POST("/reports/:id/resolve", adminHandler.ResolveReport)
		admin.GET("/posts", adminHandler.ListPosts)
		admin.POST("/posts/:id/approve", adminHandler.ApprovePost)
		admin.POST("/posts/:id/reject", adminHandler.RejectPost)

		admin.POST("/blog/posts", adminHandler.SaveBlogPost)
		admin.POST("/knowledge/categories", adminHandler.SaveCategory)
		admin.POST("/knowledge/articles", adminHandler.SaveArticle)
		admin.POST("/tools", adminHandler.SaveTool)
		admin.POST("/case-studies", adminHandler.SaveCaseStudy)
	}

	return router
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// consentMiddleware exposes the visitor's analytics decision to handlers
func consentMiddleware(m *consent.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		state := m.Read(c.Request)
		c.Set(ctxConsentGranted, state.Granted)
		c.Set(ctxConsentRequired, state.Required && !state.Decided)
		c.Next()
	}
}

// adminAuth requires "Authorization: Bearer <ADMIN_TOKEN>". An unset token
// disables the operator endpoints.
func adminAuth(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		got := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// requireLogin resolves the session cookie or redirects to the login page
func requireLogin(accounts service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session, err := c.Cookie(sessionCookie); err == nil {
			if user, err := accounts.Authenticate(c.Request.Context(), session); err == nil {
				c.Set(ctxUser, user)
				c.Next()
				return
			}
		}
		c.Redirect(http.StatusFound, "/account/login/?next="+c.Request.URL.Path)
		c.Abort()
	}
}

func noStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}

func noIndex() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Robots-Tag", "noindex")
		c.Next()
	}
}

// robotsTag marks a section indexable or not
func robotsTag(indexable bool) gin.HandlerFunc {
	value := "noindex,nofollow"
	if indexable {
		value = "index,follow"
	}
	return func(c *gin.Context) {
		c.Header("X-Robots-Tag", value)
		c.Next()
	}
}

func permanentRedirect(target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, target)
	}
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), timeout)
}
