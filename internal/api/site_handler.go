package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/config"
	"github.com/technofatty/technofatty/internal/consent"
	"github.com/technofatty/technofatty/internal/flash"
	"github.com/technofatty/technofatty/internal/seo"
	"github.com/technofatty/technofatty/internal/service"
	"github.com/technofatty/technofatty/internal/sitecontent"
)

const (
	homeRecentItems = 3
	healthTimeout   = 3 * time.Second
)

type feedSource int

const (
	feedBlog feedSource = iota
	feedKnowledge
)

// SiteHandler serves site-wide surfaces: home, robots, sitemap, feeds,
// health probes, consent and legacy redirects
type SiteHandler struct {
	services *service.Services
	cfg      *config.Config
	consents *consent.Manager
	footer   *sitecontent.FooterLoader
	log      zerolog.Logger
}

// NewSiteHandler creates a new SiteHandler
func NewSiteHandler(services *service.Services, cfg *config.Config, consents *consent.Manager, footer *sitecontent.FooterLoader, log zerolog.Logger) *SiteHandler {
	return &SiteHandler{
		services: services,
		cfg:      cfg,
		consents: consents,
		footer:   footer,
		log:      log.With().Str("handler", "site").Logger(),
	}
}

// Home handles GET /
func (h *SiteHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	posts, err := h.services.Blog.Recent(ctx, homeRecentItems)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	articles, err := h.services.Knowledge.Recent(ctx, homeRecentItems)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	body := gin.H{
		"blog":             posts,
		"knowledge":        articles,
		"consent_granted":  c.GetBool(ctxConsentGranted),
		"consent_required": c.GetBool(ctxConsentRequired),
		"nav":              navigation(c.Request.URL.Path),
	}
	if notice, ok := flash.ReadAndClear(c.Writer, c.Request); ok {
		body["flash"] = notice
	}
	jsonld, err := seo.RenderJSONLD(seo.Graph(seo.Organization(organizationName, h.cfg.Site.BaseURL, "")))
	if err == nil {
		body["jsonld"] = jsonld
	}
	c.JSON(http.StatusOK, body)
}

// Support handles GET /support/
func (h *SiteHandler) Support(c *gin.Context) {
	pageURL := seo.AbsoluteURL(h.cfg.Site.BaseURL, "/support/")
	jsonld, err := seo.RenderJSONLD(seo.FAQPage(pageURL, supportFAQ))
	if err != nil {
		h.log.Warn().Err(err).Msg("FAQ JSON-LD omitted")
	}
	c.JSON(http.StatusOK, gin.H{
		"faq":           supportFAQ,
		"canonical_url": pageURL,
		"jsonld":        jsonld,
		"nav":           navigation(c.Request.URL.Path),
	})
}

// Robots handles GET /robots.txt
func (h *SiteHandler) Robots(c *gin.Context) {
	c.String(http.StatusOK, h.services.Sitemap.Robots(c.Request.Host))
}

// Sitemap handles GET /sitemap.xml
func (h *SiteHandler) Sitemap(c *gin.Context) {
	body, err := h.services.Sitemap.Sitemap(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}

// Footer handles GET /footer.json
func (h *SiteHandler) Footer(c *gin.Context) {
	footer, err := h.footer.Footer()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, footer)
}

// FeedHandler serves one syndication feed
func (h *SiteHandler) FeedHandler(source feedSource, format service.FeedFormat) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			body string
			err  error
		)
		switch source {
		case feedKnowledge:
			body, err = h.services.Feed.KnowledgeFeed(c.Request.Context(), format)
		default:
			body, err = h.services.Feed.BlogFeed(c.Request.Context(), format)
		}
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.Data(http.StatusOK, format.ContentType(), []byte(body))
	}
}

// Live handles GET /health/live
func (h *SiteHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HealthDB handles GET /health/db
func (h *SiteHandler) HealthDB(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, healthTimeout)
	defer cancel()
	h.probe(c, "db", h.services.Health.CheckDB(ctx))
}

// HealthCache handles GET /health/cache
func (h *SiteHandler) HealthCache(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, healthTimeout)
	defer cancel()
	h.probe(c, "cache", h.services.Health.CheckCache(ctx))
}

func (h *SiteHandler) probe(c *gin.Context, name string, err error) {
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}
	h.log.Error().Err(err).Str("probe", name).Msg("Health check failed")
	body := gin.H{"status": "error"}
	if h.cfg.Server.Debug {
		body["detail"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

// AcceptConsent handles POST /consent/accept
func (h *SiteHandler) AcceptConsent(c *gin.Context) {
	h.consents.Write(c.Writer, true)
	c.Redirect(http.StatusSeeOther, localPath(c.Request.Referer(), "/"))
}

// DeclineConsent handles POST /consent/decline
func (h *SiteHandler) DeclineConsent(c *gin.Context) {
	h.consents.Write(c.Writer, false)
	c.Redirect(http.StatusSeeOther, localPath(c.Request.Referer(), "/"))
}

// LegacySignup handles GET /signup/, keeping the query string
func (h *SiteHandler) LegacySignup(c *gin.Context) {
	target := h.cfg.Site.BaseURL + "/"
	if q := c.Request.URL.RawQuery; q != "" {
		target += "?" + q
	}
	c.Redirect(http.StatusMovedPermanently, target+signupAnchor)
}

// LegacySignal handles GET /signals/:slug/
func (h *SiteHandler) LegacySignal(c *gin.Context) {
	target := seo.AbsoluteURL(h.cfg.Site.BaseURL, "/knowledge/signals/") + "#signal-" + c.Param("slug")
	c.Redirect(http.StatusMovedPermanently, target)
}
