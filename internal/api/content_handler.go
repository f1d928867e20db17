package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/config"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/repository"
	"github.com/technofatty/technofatty/internal/seo"
	"github.com/technofatty/technofatty/internal/service"
	"github.com/technofatty/technofatty/internal/slug"
	"github.com/technofatty/technofatty/internal/validation"
)

const (
	organizationName    = "Technofatty"
	relatedArticleCount = 5
)

// ContentHandler serves blog, knowledge and catalog pages
type ContentHandler struct {
	services *service.Services
	site     config.SiteConfig
	log      zerolog.Logger
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ContentHandler {
	return &ContentHandler{
		services: services,
		site:     cfg.Site,
		log:      log.With().Str("handler", "content").Logger(),
	}
}

// ListBlog handles GET /blog/?category=&tag=&q=&year=&page=
func (h *ContentHandler) ListBlog(c *gin.Context) {
	page, err := h.services.Blog.List(c.Request.Context(), service.BlogQuery{
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Query:    c.Query("q"),
		Year:     queryInt(c, "year"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if page.NoIndex {
		c.Header("X-Robots-Tag", "noindex,follow")
	}
	c.JSON(http.StatusOK, page)
}

// GetBlogPost handles GET /blog/:slug/
func (h *ContentHandler) GetBlogPost(c *gin.Context) {
	post, err := h.services.Blog.Get(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	pageURL := seo.AbsoluteURL(h.site.BaseURL, post.Path())
	var published time.Time
	if post.PublishedAt != nil {
		published = *post.PublishedAt
	}
	headline := post.MetaTitle
	if headline == "" {
		headline = post.Title
	}
	graph := seo.Graph(
		seo.WithPublisher(seo.BlogPosting(pageURL, headline, post.OGImageURL, published, post.UpdatedAt), h.organization()),
		seo.Breadcrumbs(pageURL, []seo.Crumb{
			{Name: "Blog", URL: seo.AbsoluteURL(h.site.BaseURL, "/blog/")},
			{Name: post.Title, URL: pageURL},
		}),
	)
	h.render(c, gin.H{"post": post, "canonical_url": h.canonical(post.CanonicalURL, pageURL)}, graph)
}

// ListKnowledge handles GET /knowledge/?category=&tag=&q=&max_time=&subtype=&page=
func (h *ContentHandler) ListKnowledge(c *gin.Context) {
	page, err := h.services.Knowledge.ListArticles(c.Request.Context(), service.KnowledgeQuery{
		Category: c.Query("category"),
		Tag:      c.Query("tag"),
		Query:    c.Query("q"),
		MaxTime:  queryInt(c, "max_time"),
		Subtype:  c.Query("subtype"),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if page.NoIndex {
		c.Header("X-Robots-Tag", "noindex,follow")
	}
	c.JSON(http.StatusOK, page)
}

// GetKnowledgeCategory handles GET /knowledge/:category/
func (h *ContentHandler) GetKnowledgeCategory(c *gin.Context) {
	category, err := h.services.Knowledge.GetCategory(c.Request.Context(), c.Param("category"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	page, err := h.services.Knowledge.ListArticles(c.Request.Context(), service.KnowledgeQuery{
		Category: category.Slug,
		Page:     queryInt(c, "page"),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	pageURL := seo.AbsoluteURL(h.site.BaseURL, "/knowledge/"+category.Slug+"/")
	entries := make([]seo.Crumb, 0, len(page.Articles))
	for _, a := range page.Articles {
		entries = append(entries, seo.Crumb{Name: a.Title, URL: seo.AbsoluteURL(h.site.BaseURL, a.Path())})
	}
	graph := seo.Graph(
		seo.CollectionPage(pageURL, category.Title, category.Description),
		seo.ItemList(pageURL, entries),
	)
	h.render(c, gin.H{"category": category, "articles": page}, graph)
}

// GetKnowledgeArticle handles GET /knowledge/:category/:slug/
func (h *ContentHandler) GetKnowledgeArticle(c *gin.Context) {
	article, err := h.services.Knowledge.GetArticle(c.Request.Context(), c.Param("category"), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	pageURL := seo.AbsoluteURL(h.site.BaseURL, article.Path())
	var published time.Time
	if article.PublishedAt != nil {
		published = *article.PublishedAt
	}
	image := article.OGImageURL
	if image == "" && article.Image != "" {
		image = seo.AbsoluteURL(h.site.BaseURL, article.Image)
	}
	crumbs := []seo.Crumb{{Name: "Knowledge", URL: seo.AbsoluteURL(h.site.BaseURL, "/knowledge/")}}
	if article.Category != nil {
		crumbs = append(crumbs, seo.Crumb{
			Name: article.Category.Title,
			URL:  seo.AbsoluteURL(h.site.BaseURL, "/knowledge/"+article.Category.Slug+"/"),
		})
	}
	crumbs = append(crumbs, seo.Crumb{Name: article.Title, URL: pageURL})

	graph := seo.Graph(
		seo.WithPublisher(seo.Article(pageURL, article.Title, image, published, article.UpdatedAt), h.organization()),
		seo.Breadcrumbs(pageURL, crumbs),
	)
	related, err := h.services.Knowledge.Related(c.Request.Context(), article, relatedArticleCount)
	if err != nil {
		h.log.Warn().Err(err).Str("article_id", article.ID).Msg("Failed to load related articles")
	}
	if related == nil {
		related = []*models.KnowledgeArticle{}
	}

	h.render(c, gin.H{
		"article":          article,
		"related_articles": related,
		"canonical_url":    h.canonical(article.CanonicalURL, pageURL),
	}, graph)
}

// ListTools handles GET /tools/
func (h *ContentHandler) ListTools(c *gin.Context) {
	tools, err := h.services.Catalog.ListTools(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tools": tools})
}

// GetTool handles GET /tools/:slug/
func (h *ContentHandler) GetTool(c *gin.Context) {
	tool, err := h.services.Catalog.GetTool(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tool": tool})
}

// ListCaseStudies handles GET /case-studies/
func (h *ContentHandler) ListCaseStudies(c *gin.Context) {
	studies, err := h.services.Catalog.ListCaseStudies(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"case_studies": studies})
}

// GetCaseStudy handles GET /case-studies/:slug/
func (h *ContentHandler) GetCaseStudy(c *gin.Context) {
	cs, err := h.services.Catalog.GetCaseStudy(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	pageURL := seo.AbsoluteURL(h.site.BaseURL, cs.Path())
	image := ""
	if cs.Image != "" {
		image = seo.AbsoluteURL(h.site.BaseURL, cs.Image)
	}
	graph := seo.Graph(
		seo.WithPublisher(seo.Article(pageURL, cs.Title, image, cs.CreatedAt, cs.UpdatedAt), h.organization()),
	)
	h.render(c, gin.H{"case_study": cs}, graph)
}

// canonical prefers an editor-set canonical URL over the page's own
func (h *ContentHandler) canonical(raw, pageURL string) string {
	if raw == "" {
		return pageURL
	}
	return seo.CanonicalURL(raw, h.site.BaseURL+"/")
}

func (h *ContentHandler) organization() seo.Node {
	return seo.Organization(organizationName, h.site.BaseURL, "")
}

// render adds the JSON-LD script element to a detail payload
func (h *ContentHandler) render(c *gin.Context, body gin.H, graph seo.Node) {
	if graph != nil && !seo.AbsolutizeURLs(graph, h.site.BaseURL) {
		h.log.Warn().Str("path", c.Request.URL.Path).Msg("JSON-LD dropped: url cannot be made absolute")
		graph = nil
	}
	jsonld, err := seo.RenderJSONLD(graph)
	if err != nil {
		h.log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("JSON-LD omitted")
	}
	body["jsonld"] = jsonld
	body["nav"] = navigation(c.Request.URL.Path)
	c.JSON(http.StatusOK, body)
}

// respondError maps service errors onto HTTP responses
func respondError(c *gin.Context, log zerolog.Logger, err error) {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":     "validation failed",
			"errors":    verrs.Fields(),
			"autofocus": verrs.First(),
		})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, repository.ErrSlugTaken), errors.Is(err, slug.ErrConflict), errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrThrottled):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}
