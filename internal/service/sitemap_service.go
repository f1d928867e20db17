package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/cache"
	"github.com/technofatty/technofatty/internal/config"
	"github.com/technofatty/technofatty/internal/publish"
	"github.com/technofatty/technofatty/internal/repository"
	"github.com/technofatty/technofatty/internal/seo"
)

// SitemapCacheKey is the cache entry holding the rendered sitemap
const SitemapCacheKey = "sitemap_xml"

// StaticPages are always listed in the sitemap
var StaticPages = []string{
	"/",
	"/about/",
	"/blog/",
	"/knowledge/",
	"/community/",
	"/contact/",
	"/support/",
	"/legal/",
}

// sitemapService is the concrete implementation of SitemapService
type sitemapService struct {
	repos *repository.Repositories
	cache cache.Store
	cfg   config.SiteConfig
	now   func() time.Time
	log   zerolog.Logger
}

func newSitemapService(repos *repository.Repositories, store cache.Store, cfg config.SiteConfig, now func() time.Time, log zerolog.Logger) *sitemapService {
	return &sitemapService{
		repos: repos,
		cache: store,
		cfg:   cfg,
		now:   now,
		log:   log.With().Str("service", "sitemap").Logger(),
	}
}

// Sitemap returns the cached sitemap, rebuilding it on a miss
func (s *sitemapService) Sitemap(ctx context.Context) ([]byte, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, SitemapCacheKey)
		if err == nil {
			return []byte(cached), nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn().Err(err).Msg("Sitemap cache read failed")
		}
	}

	doc, err := s.build(ctx)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, SitemapCacheKey, string(doc), s.cfg.SitemapCacheTTL); err != nil {
			s.log.Warn().Err(err).Msg("Sitemap cache write failed")
		}
	}
	return doc, nil
}

func (s *sitemapService) build(ctx context.Context) ([]byte, error) {
	base := s.cfg.BaseURL
	vis := publish.Public(s.now())

	var urls []seo.SitemapURL
	for _, p := range StaticPages {
		urls = append(urls, seo.SitemapURL{Loc: seo.SitemapLoc(base, p)})
	}

	posts, _, err := s.repos.Blog.List(ctx, vis, repository.BlogFilter{})
	if err != nil {
		return nil, fmt.Errorf("sitemap posts: %w", err)
	}
	for _, p := range posts {
		mod := p.UpdatedAt
		urls = append(urls, seo.SitemapURL{Loc: seo.SitemapLoc(base, p.Path()), LastMod: &mod})
	}

	categories, err := s.repos.Knowledge.ListCategories(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("sitemap categories: %w", err)
	}
	for _, c := range categories {
		mod := c.UpdatedAt
		urls = append(urls, seo.SitemapURL{Loc: seo.SitemapLoc(base, "/knowledge/"+c.Slug+"/"), LastMod: &mod})
	}

	articles, _, err := s.repos.Knowledge.ListArticles(ctx, vis, repository.KnowledgeFilter{})
	if err != nil {
		return nil, fmt.Errorf("sitemap articles: %w", err)
	}
	for _, a := range articles {
		mod := a.UpdatedAt
		urls = append(urls, seo.SitemapURL{Loc: seo.SitemapLoc(base, a.Path()), LastMod: &mod})
	}

	if s.cfg.CaseStudiesIndexable {
		urls = append(urls, seo.SitemapURL{Loc: seo.SitemapLoc(base, "/case-studies/")})
		studies, err := s.repos.CaseStudy.ListPublished(ctx)
		if err != nil {
			return nil, fmt.Errorf("sitemap case studies: %w", err)
		}
		for _, c := range studies {
			mod := c.UpdatedAt
			urls = append(urls, seo.SitemapURL{Loc: seo.SitemapLoc(base, c.Path()), LastMod: &mod})
		}
	}

	if s.cfg.ToolsIndexable {
		urls = append(urls, seo.SitemapURL{Loc: seo.SitemapLoc(base, "/tools/")})
		tools, err := s.repos.Tool.ListPublished(ctx)
		if err != nil {
			return nil, fmt.Errorf("sitemap tools: %w", err)
		}
		for _, t := range tools {
			mod := t.UpdatedAt
			urls = append(urls, seo.SitemapURL{Loc: seo.SitemapLoc(base, t.Path()), LastMod: &mod})
		}
	}

	return seo.BuildSitemap(urls)
}

// Invalidate drops the cached sitemap so the next request rebuilds it
func (s *sitemapService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, SitemapCacheKey); err != nil {
		s.log.Warn().Err(err).Msg("Sitemap cache invalidation failed")
		return
	}
	s.log.Debug().Msg("Sitemap cache invalidated")
}

// Robots renders robots.txt for the requesting host
func (s *sitemapService) Robots(host string) string {
	return seo.Robots(seo.RobotsOptions{
		Host:                 host,
		CanonicalHost:        s.cfg.CanonicalHost,
		BaseURL:              s.cfg.BaseURL,
		CaseStudiesIndexable: s.cfg.CaseStudiesIndexable,
		ToolsIndexable:       s.cfg.ToolsIndexable,
	})
}
