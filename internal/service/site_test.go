package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/technofatty/technofatty/internal/cache"
	"github.com/technofatty/technofatty/internal/config"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/service"
)

func (h *harness) addPost(slug string, status models.Status, publishedAt *time.Time) *models.BlogPost {
	p := &models.BlogPost{
		ID:          "post-" + slug,
		Title:       "Post " + slug,
		Slug:        slug,
		Status:      status,
		Excerpt:     "Excerpt for " + slug,
		PublishedAt: publishedAt,
		CreatedAt:   h.now,
		UpdatedAt:   h.now,
	}
	h.blog.Posts[p.ID] = p
	return p
}

func TestSitemap_ListsPublicURLs(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cat := h.category(t, "Guides")

	h.addPost("visible", models.StatusPublished, ptr(h.now.Add(-time.Hour)))
	h.addPost("scheduled", models.StatusPublished, ptr(h.now.Add(time.Hour)))
	h.addPost("draft", models.StatusDraft, nil)
	a := &models.KnowledgeArticle{Title: "Indexed", CategoryID: cat.ID, Status: models.StatusPublished}
	if err := h.svc.Knowledge.SaveArticle(ctx, a); err != nil {
		t.Fatalf("SaveArticle failed: %v", err)
	}
	if err := h.svc.Catalog.SaveCaseStudy(ctx, &models.CaseStudy{Title: "Acme", IsPublished: true}); err != nil {
		t.Fatalf("SaveCaseStudy failed: %v", err)
	}

	doc, err := h.svc.Sitemap.Sitemap(ctx)
	if err != nil {
		t.Fatalf("Sitemap failed: %v", err)
	}
	xml := string(doc)

	for _, want := range []string{
		"<loc>https://technofatty.com/</loc>",
		"<loc>https://technofatty.com/blog/visible/</loc>",
		"<loc>https://technofatty.com/knowledge/guides/</loc>",
		"<loc>https://technofatty.com/knowledge/guides/indexed/</loc>",
		"<lastmod>2025-03-14T12:00:00Z</lastmod>",
	} {
		if !strings.Contains(xml, want) {
			t.Errorf("Sitemap missing %s", want)
		}
	}
	for _, unwanted := range []string{"/blog/scheduled/", "/blog/draft/", "/case-studies/"} {
		if strings.Contains(xml, unwanted) {
			t.Errorf("Sitemap should not contain %s", unwanted)
		}
	}
}

func TestSitemap_IndexableCatalog(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.Site.CaseStudiesIndexable = true
		c.Site.ToolsIndexable = true
	})
	ctx := context.Background()
	if err := h.svc.Catalog.SaveCaseStudy(ctx, &models.CaseStudy{Title: "Acme", IsPublished: true}); err != nil {
		t.Fatalf("SaveCaseStudy failed: %v", err)
	}
	if err := h.svc.Catalog.SaveTool(ctx, &models.Tool{Title: "Calculator", IsPublished: true}); err != nil {
		t.Fatalf("SaveTool failed: %v", err)
	}

	doc, err := h.svc.Sitemap.Sitemap(ctx)
	if err != nil {
		t.Fatalf("Sitemap failed: %v", err)
	}
	for _, want := range []string{"/case-studies/</loc>", "/case-studies/acme/</loc>", "/tools/</loc>", "/tools/calculator/</loc>"} {
		if !strings.Contains(string(doc), want) {
			t.Errorf("Sitemap missing %s", want)
		}
	}
}

func TestSitemap_CachedUntilContentSaved(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.svc.Sitemap.Sitemap(ctx)
	if err != nil {
		t.Fatalf("Sitemap failed: %v", err)
	}
	if cached, err := h.cache.Get(ctx, service.SitemapCacheKey); err != nil || cached != string(first) {
		t.Fatalf("Expected sitemap cached under %s, got err %v", service.SitemapCacheKey, err)
	}

	h.addPost("sneaky", models.StatusPublished, ptr(h.now.Add(-time.Hour)))
	again, _ := h.svc.Sitemap.Sitemap(ctx)
	if strings.Contains(string(again), "/blog/sneaky/") {
		t.Error("Cached sitemap should be served until invalidated")
	}

	p := &models.BlogPost{Title: "Fresh"}
	if err := h.svc.Blog.Save(ctx, p); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if _, err := h.cache.Get(ctx, service.SitemapCacheKey); !errors.Is(err, cache.ErrMiss) {
		t.Errorf("Expected cache miss after blog save, got %v", err)
	}

	rebuilt, _ := h.svc.Sitemap.Sitemap(ctx)
	if !strings.Contains(string(rebuilt), "/blog/sneaky/") {
		t.Error("Rebuilt sitemap should include new posts")
	}
}

func TestRobots(t *testing.T) {
	h := newHarness(t)

	canonical := h.svc.Sitemap.Robots("technofatty.com:443")
	for _, want := range []string{"Allow: /", "Disallow: /case-studies/", "Disallow: /tools/", "Sitemap: https://technofatty.com/sitemap.xml"} {
		if !strings.Contains(canonical, want) {
			t.Errorf("robots.txt missing %q:\n%s", want, canonical)
		}
	}

	staging := h.svc.Sitemap.Robots("staging.technofatty.com")
	if staging != "User-agent: *\nDisallow: /\n" {
		t.Errorf("Unexpected robots.txt for non-canonical host:\n%s", staging)
	}
}

func TestFeeds_Blog(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 12; i++ {
		h.addPost(fmt.Sprintf("post-%02d", i), models.StatusPublished, ptr(h.now.Add(-time.Duration(i+1)*time.Hour)))
	}
	h.addPost("future", models.StatusPublished, ptr(h.now.Add(time.Hour)))

	parser := gofeed.NewParser()
	for _, format := range []service.FeedFormat{service.FeedRSS, service.FeedAtom} {
		t.Run(string(format), func(t *testing.T) {
			out, err := h.svc.Feed.BlogFeed(context.Background(), format)
			if err != nil {
				t.Fatalf("BlogFeed failed: %v", err)
			}
			feed, err := parser.ParseString(out)
			if err != nil {
				t.Fatalf("Feed does not parse: %v", err)
			}
			if feed.Title != "Technofatty Blog" {
				t.Errorf("Unexpected title %q", feed.Title)
			}
			if len(feed.Items) != 10 {
				t.Fatalf("Expected 10 items, got %d", len(feed.Items))
			}
			first := feed.Items[0]
			if first.Link != "https://technofatty.com/blog/post-00/" {
				t.Errorf("Expected newest absolute link first, got %q", first.Link)
			}
			if first.Description != "Excerpt for post-00" {
				t.Errorf("Unexpected description %q", first.Description)
			}
			if first.PublishedParsed == nil && first.UpdatedParsed == nil {
				t.Error("Expected item date")
			}
		})
	}
}

func TestFeeds_KnowledgeJSON(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cat := h.category(t, "Guides")
	a := &models.KnowledgeArticle{Title: "Feedable", CategoryID: cat.ID, Status: models.StatusPublished, Content: "Short blurb."}
	if err := h.svc.Knowledge.SaveArticle(ctx, a); err != nil {
		t.Fatalf("SaveArticle failed: %v", err)
	}

	out, err := h.svc.Feed.KnowledgeFeed(ctx, service.FeedJSON)
	if err != nil {
		t.Fatalf("KnowledgeFeed failed: %v", err)
	}
	var feed struct {
		Title string `json:"title"`
		Items []struct {
			URL     string `json:"url"`
			Summary string `json:"summary"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(out), &feed); err != nil {
		t.Fatalf("Invalid JSON feed: %v", err)
	}
	if feed.Title != "Technofatty Knowledge" || len(feed.Items) != 1 {
		t.Fatalf("Unexpected feed: %+v", feed)
	}
	if feed.Items[0].URL != "https://technofatty.com/knowledge/guides/feedable/" {
		t.Errorf("Unexpected item url %q", feed.Items[0].URL)
	}
	if feed.Items[0].Summary != "Short blurb." {
		t.Errorf("Unexpected summary %q", feed.Items[0].Summary)
	}
}

func TestFeedFormat_ContentType(t *testing.T) {
	tests := map[service.FeedFormat]string{
		service.FeedRSS:  "application/rss+xml; charset=utf-8",
		service.FeedAtom: "application/atom+xml; charset=utf-8",
		service.FeedJSON: "application/feed+json; charset=utf-8",
	}
	for format, want := range tests {
		if got := format.ContentType(); got != want {
			t.Errorf("%s: expected %q, got %q", format, want, got)
		}
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if err := h.svc.Health.CheckDB(ctx); err != nil {
		t.Errorf("CheckDB failed: %v", err)
	}
	if err := h.svc.Health.CheckCache(ctx); err != nil {
		t.Errorf("CheckCache failed: %v", err)
	}
	if _, err := h.cache.Get(ctx, "__healthcheck__"); !errors.Is(err, cache.ErrMiss) {
		t.Error("Health probe key should be removed")
	}

	h.db.Err = errors.New("connection refused")
	if err := h.svc.Health.CheckDB(ctx); err == nil {
		t.Error("Expected CheckDB to report the ping failure")
	}
}

func TestExport_Leads(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i, email := range []string{"a@example.com", "b@example.com"} {
		h.leads.Leads[email] = &models.NewsletterLead{
			ID:        fmt.Sprintf("lead-%d", i),
			Email:     email,
			Source:    "signup",
			Status:    models.LeadStatusSubscribed,
			CreatedAt: h.now.Add(time.Duration(i) * time.Minute),
		}
	}

	count, err := h.svc.Export.CountLeads(ctx)
	if err != nil || count != 2 {
		t.Errorf("Expected 2 leads, got %d (%v)", count, err)
	}

	tests := []struct {
		format      string
		contentType string
		lines       int
	}{
		{"csv", "text/csv", 3},
		{"ndjson", "application/x-ndjson", 2},
		{"json", "application/json", 1},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := h.svc.Export.StreamLeads(ctx, rec, tt.format); err != nil {
				t.Fatalf("StreamLeads failed: %v", err)
			}
			if ct := rec.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("Expected Content-Type %s, got %s", tt.contentType, ct)
			}
			body := strings.TrimSpace(rec.Body.String())
			if got := len(strings.Split(body, "\n")); got != tt.lines {
				t.Errorf("Expected %d lines, got %d:\n%s", tt.lines, got, body)
			}
			if !strings.Contains(body, "a@example.com") {
				t.Error("Export missing lead email")
			}
		})
	}

	if err := h.svc.Export.StreamLeads(ctx, httptest.NewRecorder(), "xml"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestScheduler_DisabledReturnsImmediately(t *testing.T) {
	h := newHarness(t)

	done := make(chan struct{})
	go func() {
		h.svc.Scheduler.StartProcessor(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("StartProcessor with zero interval should return immediately")
	}
	h.svc.Scheduler.StopProcessor()
}

func TestScheduler_PublishesOnTick(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Scheduler.PublishInterval = 10 * time.Millisecond })
	cat := h.category(t, "Guides")
	a := &models.KnowledgeArticle{Title: "Queued", CategoryID: cat.ID, PublishedAt: ptr(h.now.Add(-time.Minute))}
	if err := h.svc.Knowledge.SaveArticle(context.Background(), a); err != nil {
		t.Fatalf("SaveArticle failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.svc.Scheduler.StartProcessor(ctx)
		close(done)
	}()
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if h.knowledge.Articles[a.ID].Status != models.StatusPublished {
		t.Error("Scheduled article should be published by the processor")
	}
}

func TestScheduler_RestartsAfterContextCancelled(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.Scheduler.PublishInterval = 10 * time.Millisecond })
	cat := h.category(t, "Guides")

	run := func() {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			h.svc.Scheduler.StartProcessor(ctx)
			close(done)
		}()
		time.Sleep(100 * time.Millisecond)
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("StartProcessor should return once its context is cancelled")
		}
	}

	run()

	a := &models.KnowledgeArticle{Title: "Queued Later", CategoryID: cat.ID, PublishedAt: ptr(h.now.Add(-time.Minute))}
	if err := h.svc.Knowledge.SaveArticle(context.Background(), a); err != nil {
		t.Fatalf("SaveArticle failed: %v", err)
	}

	run()

	if h.knowledge.Articles[a.ID].Status != models.StatusPublished {
		t.Error("Processor should run again after a cancelled start")
	}
	// Nothing is running, so this must return without blocking.
	h.svc.Scheduler.StopProcessor()
}

func TestSitemap_InvalidatedByKnowledgeAndToolSaves(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		save func(t *testing.T, h *harness) error
	}{
		{
			name: "knowledge category",
			save: func(t *testing.T, h *harness) error {
				return h.svc.Knowledge.SaveCategory(ctx, &models.KnowledgeCategory{Title: "Signals"})
			},
		},
		{
			name: "knowledge article",
			save: func(t *testing.T, h *harness) error {
				cat := h.category(t, "Guides")
				if _, err := h.svc.Sitemap.Sitemap(ctx); err != nil {
					t.Fatalf("Sitemap failed: %v", err)
				}
				return h.svc.Knowledge.SaveArticle(ctx, &models.KnowledgeArticle{Title: "New Guide", CategoryID: cat.ID})
			},
		},
		{
			name: "tool",
			save: func(t *testing.T, h *harness) error {
				return h.svc.Catalog.SaveTool(ctx, &models.Tool{Title: "Planner", ExternalURL: "https://example.com/planner"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if _, err := h.svc.Sitemap.Sitemap(ctx); err != nil {
				t.Fatalf("Sitemap failed: %v", err)
			}
			if err := tt.save(t, h); err != nil {
				t.Fatalf("Save failed: %v", err)
			}
			if _, err := h.cache.Get(ctx, service.SitemapCacheKey); !errors.Is(err, cache.ErrMiss) {
				t.Errorf("Expected cached sitemap to be dropped, got %v", err)
			}
		})
	}
}

func TestBlog_RegenerateSocialImages(t *testing.T) {
	ctx := context.Background()

	t.Run("fills blank and skips hand-set", func(t *testing.T) {
		h := newHarness(t)
		blank := h.addPost("blank", models.StatusPublished, ptr(h.now.Add(-time.Hour)))
		manual := h.addPost("manual", models.StatusDraft, nil)
		manual.OGImageURL = "https://images.example.org/og.png"
		manual.TwitterImageURL = "https://images.example.org/tw.png"

		n, err := h.svc.Blog.RegenerateSocialImages(ctx, "", false)
		if err != nil {
			t.Fatalf("RegenerateSocialImages failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected 1 post updated, got %d", n)
		}
		if got := h.blog.Posts[blank.ID]; !strings.HasPrefix(got.OGImageURL, "https://cdn.example.com/social/blank-") || got.TwitterImageURL == "" {
			t.Errorf("Expected generated URLs to be stored, got %q / %q", got.OGImageURL, got.TwitterImageURL)
		}
		if got := h.blog.Posts[manual.ID]; got.OGImageURL != "https://images.example.org/og.png" {
			t.Errorf("Hand-set URL should survive, got %q", got.OGImageURL)
		}
	})

	t.Run("force replaces hand-set", func(t *testing.T) {
		h := newHarness(t)
		manual := h.addPost("manual", models.StatusPublished, ptr(h.now.Add(-time.Hour)))
		manual.OGImageURL = "https://images.example.org/og.png"
		h.addPost("other", models.StatusPublished, ptr(h.now.Add(-time.Hour)))

		n, err := h.svc.Blog.RegenerateSocialImages(ctx, "manual", true)
		if err != nil {
			t.Fatalf("RegenerateSocialImages failed: %v", err)
		}
		if n != 1 {
			t.Errorf("Expected only the named post, got %d", n)
		}
		if got := h.blog.Posts[manual.ID].OGImageURL; !strings.HasPrefix(got, "https://cdn.example.com/social/manual-") {
			t.Errorf("Expected forced regeneration, got %q", got)
		}
		if got := h.blog.Posts["post-other"].OGImageURL; got != "" {
			t.Errorf("Other posts should be untouched, got %q", got)
		}
	})

	t.Run("unknown slug", func(t *testing.T) {
		h := newHarness(t)
		if _, err := h.svc.Blog.RegenerateSocialImages(ctx, "missing", false); !errors.Is(err, service.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})
}
