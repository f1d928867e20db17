package api_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/api"
	"github.com/technofatty/technofatty/internal/cache"
	"github.com/technofatty/technofatty/internal/config"
	"github.com/technofatty/technofatty/internal/mocks"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/newsletter"
	"github.com/technofatty/technofatty/internal/notify"
	"github.com/technofatty/technofatty/internal/service"
	"github.com/technofatty/technofatty/internal/socialimage"
)

const adminToken = "admin-token"

type testServer struct {
	router     *gin.Engine
	cfg        *config.Config
	services   *service.Services
	blog       *mocks.MockBlogRepository
	leads      *mocks.MockLeadRepository
	moderation *mocks.MockModerationRepository
	notifier   *mocks.RecordingNotifier
	mailer     *notify.MemoryMailer
	provider   *mocks.MockProvider
}

func testConfig(t *testing.T) *config.Config {
	footer := filepath.Join(t.TempDir(), "footer.json")
	if err := os.WriteFile(footer, []byte(`{"copyright":"© {{year}} Technofatty"}`), 0o644); err != nil {
		t.Fatalf("Failed to write footer: %v", err)
	}
	return &config.Config{
		Server: config.ServerConfig{Port: "8080", Env: "test"},
		Site: config.SiteConfig{
			BaseURL:         "https://technofatty.com",
			CanonicalHost:   "technofatty.com",
			FooterPath:      footer,
			SitemapCacheTTL: time.Hour,
		},
		Newsletter: config.NewsletterConfig{
			OptInMode:       config.OptInSingle,
			IPPerHour:       10,
			EmailPerHour:    5,
			ProviderTimeout: time.Second,
		},
		Contact: config.ContactConfig{
			RateLimit:  1,
			RateWindow: time.Minute,
			Recipient:  "hello@technofatty.com",
		},
		Community: config.CommunityConfig{
			PostRateLimit:  5,
			PostRateWindow: time.Hour,
		},
		Email: config.EmailConfig{Backend: "memory", From: "no-reply@technofatty.com"},
		Consent: config.ConsentConfig{
			CookieName: "tf_consent",
			MaxAge:     24 * time.Hour,
			Required:   true,
		},
		Auth: config.AuthConfig{
			SecretKey:          "test-secret",
			ActivationTokenTTL: 72 * time.Hour,
			ResetTokenTTL:      24 * time.Hour,
			SessionTTL:         24 * time.Hour,
		},
		Admin: config.AdminConfig{Token: adminToken},
	}
}

func setupTestServer(t *testing.T, opts ...func(*config.Config, *service.Services)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := testConfig(t)
	repos := mocks.NewRepositories()
	s := &testServer{
		cfg:        cfg,
		blog:       repos.Blog.(*mocks.MockBlogRepository),
		leads:      repos.Lead.(*mocks.MockLeadRepository),
		moderation: repos.Moderation.(*mocks.MockModerationRepository),
		notifier:   mocks.NewRecordingNotifier(),
		mailer:     notify.NewMemoryMailer(),
		provider:   mocks.NewMockProvider(),
	}

	s.services = service.NewServices(repos, service.Dependencies{
		DB:       mocks.Pinger{},
		Cache:    cache.NewMemoryStore(),
		Notifier: s.notifier,
		Mailer:   s.mailer,
		Provider: s.provider,
		Images:   socialimage.NewGenerator(mocks.NewMemoryImageStore(), zerolog.Nop()),
	}, cfg, zerolog.Nop())

	for _, opt := range opts {
		opt(cfg, s.services)
	}

	s.router = api.NewRouter(s.services, cfg, zerolog.Nop())
	return s
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *testServer) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *testServer) admin(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+adminToken)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.do(req)
}

func (s *testServer) addPost(slug string, status models.Status, publishedAt time.Time) {
	s.blog.Posts["post-"+slug] = &models.BlogPost{
		ID:          "post-" + slug,
		Title:       "Post " + slug,
		Slug:        slug,
		Status:      status,
		Excerpt:     "Excerpt for " + slug,
		PublishedAt: &publishedAt,
		CreatedAt:   publishedAt,
		UpdatedAt:   publishedAt,
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
	return body
}

func cookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestHealthEndpoints(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		debug      bool
		health     *mocks.MockHealthService
		wantStatus int
		wantBody   string
		wantDetail bool
	}{
		{name: "live", path: "/health/live", health: &mocks.MockHealthService{}, wantStatus: http.StatusOK, wantBody: "ok"},
		{name: "db ok", path: "/health/db", health: &mocks.MockHealthService{}, wantStatus: http.StatusOK, wantBody: "ok"},
		{name: "db down", path: "/health/db", health: &mocks.MockHealthService{DBErr: errors.New("connection refused")}, wantStatus: http.StatusInternalServerError, wantBody: "error"},
		{name: "cache down with debug", path: "/health/cache", debug: true, health: &mocks.MockHealthService{CacheErr: errors.New("redis gone")}, wantStatus: http.StatusInternalServerError, wantBody: "error", wantDetail: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestServer(t, func(cfg *config.Config, svc *service.Services) {
				cfg.Server.Debug = tt.debug
				svc.Health = tt.health
			})

			w := s.get(tt.path)
			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if got := w.Header().Get("Cache-Control"); got != "no-store" {
				t.Errorf("Expected Cache-Control no-store, got %q", got)
			}
			body := decode(t, w)
			if body["status"] != tt.wantBody {
				t.Errorf("Expected status %q, got %v", tt.wantBody, body["status"])
			}
			if _, ok := body["detail"]; ok != tt.wantDetail {
				t.Errorf("Expected detail present=%v, got %v", tt.wantDetail, body)
			}
		})
	}
}

func TestHealthCache_RealStore(t *testing.T) {
	s := setupTestServer(t)
	if w := s.get("/health/cache"); w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestContact_RedirectsAndThrottles(t *testing.T) {
	s := setupTestServer(t)
	form := url.Values{
		"name":    {"A"},
		"email":   {"a@example.com"},
		"subject": {"Hello"},
		"message": {"Hi"},
		"website": {""},
	}

	for i := 1; i <= 2; i++ {
		w := s.postForm("/contact/", form)
		if w.Code != http.StatusFound {
			t.Fatalf("POST %d: expected status 302, got %d", i, w.Code)
		}
		if loc := w.Header().Get("Location"); loc != "/contact/?sent=1" {
			t.Errorf("POST %d: expected redirect to /contact/?sent=1, got %q", i, loc)
		}
	}

	if s.notifier.Calls() != 1 {
		t.Fatalf("Expected 1 notification, got %d", s.notifier.Calls())
	}
	got := s.notifier.Messages[0]
	if got.Name != "A" || got.Email != "a@example.com" || got.Subject != "Hello" || got.Message != "Hi" {
		t.Errorf("Unexpected notification %+v", got)
	}
}

func TestContact_Honeypot(t *testing.T) {
	s := setupTestServer(t)
	w := s.postForm("/contact/", url.Values{
		"name":    {"Bot"},
		"email":   {"bot@example.com"},
		"subject": {"Buy"},
		"message": {"Spam"},
		"website": {"http://spam.example"},
	})

	if w.Code != http.StatusFound || w.Header().Get("Location") != "/contact/?sent=1" {
		t.Errorf("Expected 302 to /contact/?sent=1, got %d %q", w.Code, w.Header().Get("Location"))
	}
	if s.notifier.Calls() != 0 {
		t.Errorf("Expected no notification for honeypot, got %d", s.notifier.Calls())
	}
}

func TestContact_InvalidInput(t *testing.T) {
	s := setupTestServer(t)
	w := s.postForm("/contact/", url.Values{"email": {"not-an-email"}})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["autofocus"] != "name" {
		t.Errorf("Expected autofocus on name, got %v", body["autofocus"])
	}
	errs, _ := body["errors"].(map[string]interface{})
	for _, field := range []string{"name", "email", "subject", "message"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("Expected error for %s, got %v", field, errs)
		}
	}
	if s.notifier.Calls() != 0 {
		t.Errorf("Expected no notification, got %d", s.notifier.Calls())
	}
}

func TestContactPage_SentBanner(t *testing.T) {
	s := setupTestServer(t)

	body := decode(t, s.get("/contact/?sent=1"))
	if body["message"] != "Your message has been sent." {
		t.Errorf("Expected sent banner, got %v", body["message"])
	}
	body = decode(t, s.get("/contact/"))
	if body["sent"] != false {
		t.Errorf("Expected sent=false, got %v", body["sent"])
	}
}

func TestNewsletter_InlineJSON(t *testing.T) {
	tests := []struct {
		name        string
		email       string
		wantStatus  int
		wantMessage string
	}{
		{name: "success", email: "Reader@Example.com", wantStatus: http.StatusOK, wantMessage: newsletter.MsgSuccessSingle},
		{name: "invalid", email: "nope", wantStatus: http.StatusBadRequest, wantMessage: newsletter.MsgInvalidEmail},
		{name: "missing", email: "", wantStatus: http.StatusBadRequest, wantMessage: newsletter.MsgRequiredEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestServer(t)
			req := httptest.NewRequest(http.MethodPost, "/newsletter/subscribe/", strings.NewReader(`{"email":"`+tt.email+`"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json")
			w := s.do(req)

			if w.Code != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if got := w.Header().Get("X-Robots-Tag"); got != "noindex" {
				t.Errorf("Expected X-Robots-Tag noindex, got %q", got)
			}
			body := decode(t, w)
			if body["message"] != tt.wantMessage {
				t.Errorf("Expected message %q, got %v", tt.wantMessage, body["message"])
			}
		})
	}
}

func TestNewsletter_RedirectWithFlash(t *testing.T) {
	s := setupTestServer(t, func(cfg *config.Config, _ *service.Services) {
		cfg.Newsletter.Redirect = true
	})

	req := httptest.NewRequest(http.MethodPost, "/newsletter/subscribe/", strings.NewReader(url.Values{"email": {"reader@example.com"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "https://technofatty.com/blog/?page=2#top")
	w := s.do(req)

	if w.Code != http.StatusSeeOther {
		t.Fatalf("Expected status 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/blog/?page=2#signup" {
		t.Errorf("Expected redirect to /blog/?page=2#signup, got %q", loc)
	}
	if len(s.provider.Emails) != 1 || s.provider.Emails[0] != "reader@example.com" {
		t.Errorf("Expected provider called with reader@example.com, got %v", s.provider.Emails)
	}
	notice := cookie(w, "tf_flash")
	if notice == nil {
		t.Fatal("Expected flash cookie")
	}

	// The next page render shows the notice once
	home := httptest.NewRequest(http.MethodGet, "/", nil)
	home.AddCookie(notice)
	hw := s.do(home)
	body := decode(t, hw)
	flashBody, ok := body["flash"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected flash in home response, got %v", body)
	}
	if flashBody["kind"] != "success" || flashBody["message"] != newsletter.MsgSuccessSingle {
		t.Errorf("Unexpected flash %v", flashBody)
	}
	if cleared := cookie(hw, "tf_flash"); cleared == nil || cleared.MaxAge >= 0 {
		t.Errorf("Expected flash cookie to be expired, got %+v", cleared)
	}
}

func TestNewsletter_FormPostWithoutRedirectSettingStillRedirects(t *testing.T) {
	s := setupTestServer(t)
	w := s.postForm("/newsletter/subscribe/", url.Values{"email": {"reader@example.com"}})

	if w.Code != http.StatusSeeOther {
		t.Fatalf("Expected status 303, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/#signup" {
		t.Errorf("Expected redirect to /#signup, got %q", loc)
	}
}

func TestNewsletter_BlockView(t *testing.T) {
	s := setupTestServer(t)
	w := s.get("/newsletter/block-view?path=/blog/")
	if w.Code != http.StatusNoContent {
		t.Errorf("Expected status 204, got %d", w.Code)
	}
}

func TestRobots(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		want     []string
		dontWant []string
	}{
		{
			name:     "canonical host",
			host:     "technofatty.com",
			want:     []string{"User-agent: *", "Allow: /", "Disallow: /case-studies/", "Disallow: /tools/", "Sitemap: https://technofatty.com/sitemap.xml"},
			dontWant: []string{"Disallow: /\n"},
		},
		{
			name:     "other host",
			host:     "staging.technofatty.com",
			want:     []string{"User-agent: *", "Disallow: /\n"},
			dontWant: []string{"Sitemap:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestServer(t)
			req := httptest.NewRequest(http.MethodGet, "/robots.txt", nil)
			req.Host = tt.host
			w := s.do(req)

			if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/plain") {
				t.Errorf("Expected text/plain, got %q", w.Header().Get("Content-Type"))
			}
			for _, line := range tt.want {
				if !strings.Contains(w.Body.String(), line) {
					t.Errorf("Expected robots.txt to contain %q, got:\n%s", line, w.Body.String())
				}
			}
			for _, line := range tt.dontWant {
				if strings.Contains(w.Body.String(), line) {
					t.Errorf("Expected robots.txt not to contain %q, got:\n%s", line, w.Body.String())
				}
			}
		})
	}
}

func TestSitemap(t *testing.T) {
	s := setupTestServer(t)
	s.addPost("hello-world", models.StatusPublished, time.Now().Add(-time.Hour))
	s.addPost("draft-post", models.StatusDraft, time.Now().Add(-time.Hour))

	w := s.get("/sitemap.xml")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "application/xml") {
		t.Errorf("Expected application/xml, got %q", w.Header().Get("Content-Type"))
	}
	if !strings.Contains(w.Body.String(), "<loc>https://technofatty.com/blog/hello-world/</loc>") {
		t.Errorf("Expected published post in sitemap:\n%s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "draft-post") {
		t.Errorf("Draft post leaked into sitemap:\n%s", w.Body.String())
	}
}

func TestFeeds(t *testing.T) {
	s := setupTestServer(t)
	s.addPost("first", models.StatusPublished, time.Now().Add(-2*time.Hour))
	s.addPost("second", models.StatusPublished, time.Now().Add(-time.Hour))

	tests := []struct {
		path        string
		contentType string
	}{
		{"/blog/rss/", "application/rss+xml"},
		{"/blog/atom/", "application/atom+xml"},
		{"/blog/feed.json", "application/feed+json"},
		{"/knowledge/rss/", "application/rss+xml"},
		{"/knowledge/atom/", "application/atom+xml"},
		{"/knowledge/feed.json", "application/feed+json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := s.get(tt.path)
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, tt.contentType) {
				t.Errorf("Expected content type %s, got %q", tt.contentType, got)
			}
		})
	}

	feed, err := gofeed.NewParser().ParseString(s.get("/blog/rss/").Body.String())
	if err != nil {
		t.Fatalf("Failed to parse blog RSS: %v", err)
	}
	if feed.Title != "Technofatty Blog" {
		t.Errorf("Expected title Technofatty Blog, got %q", feed.Title)
	}
	if len(feed.Items) != 2 || feed.Items[0].Link != "https://technofatty.com/blog/second/" {
		t.Errorf("Expected newest post first, got %d items", len(feed.Items))
	}
}

func TestBlogEndpoints(t *testing.T) {
	s := setupTestServer(t)
	s.addPost("live", models.StatusPublished, time.Now().Add(-time.Hour))
	s.addPost("later", models.StatusPublished, time.Now().Add(time.Hour))
	s.addPost("hidden", models.StatusDraft, time.Now().Add(-time.Hour))

	w := s.get("/blog/")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := decode(t, w)
	if posts, _ := body["posts"].([]interface{}); len(posts) != 1 {
		t.Errorf("Expected 1 visible post, got %d", len(posts))
	}
	if w.Header().Get("X-Robots-Tag") != "" {
		t.Errorf("Unfiltered listing should be indexable")
	}

	if w := s.get("/blog/?q=live"); w.Header().Get("X-Robots-Tag") != "noindex,follow" {
		t.Errorf("Expected filtered listing to be noindex, got %q", w.Header().Get("X-Robots-Tag"))
	}

	for _, slug := range []string{"later", "hidden", "missing"} {
		if w := s.get("/blog/" + slug + "/"); w.Code != http.StatusNotFound {
			t.Errorf("GET /blog/%s/: expected 404, got %d", slug, w.Code)
		}
	}
	w = s.get("/blog/live/")
	if w.Code != http.StatusOK {
		t.Fatalf("GET /blog/live/: expected 200, got %d", w.Code)
	}
	active := map[string]bool{}
	for _, item := range decode(t, w)["nav"].([]interface{}) {
		link := item.(map[string]interface{})
		active[link["href"].(string)] = link["active"].(bool)
	}
	if !active["/blog/"] || active["/"] || active["/knowledge/"] {
		t.Errorf("Expected only the blog link active, got %v", active)
	}
}

func TestSupportFAQ(t *testing.T) {
	s := setupTestServer(t)
	w := s.get("/support/")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := decode(t, w)
	if body["canonical_url"] != "https://technofatty.com/support/" {
		t.Errorf("Unexpected canonical URL %v", body["canonical_url"])
	}
	jsonld, _ := body["jsonld"].(string)
	for _, want := range []string{`"@type":"FAQPage"`, `"@id":"https://technofatty.com/support/#webpage"`, `"acceptedAnswer"`} {
		if !strings.Contains(jsonld, want) {
			t.Errorf("JSON-LD missing %s: %s", want, jsonld)
		}
	}
}

func TestAdminAuth(t *testing.T) {
	s := setupTestServer(t)

	if w := s.get("/admin/metrics"); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/admin/metrics", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if w := s.do(req); w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with wrong token, got %d", w.Code)
	}
	if w := s.admin(http.MethodGet, "/admin/metrics", ""); w.Code != http.StatusOK {
		t.Errorf("Expected 200 with token, got %d", w.Code)
	}

	disabled := setupTestServer(t, func(cfg *config.Config, _ *service.Services) {
		cfg.Admin.Token = ""
	})
	if w := disabled.admin(http.MethodGet, "/admin/metrics", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 when admin is disabled, got %d", w.Code)
	}
}

func TestAdmin_SaveAndPublishBlogPost(t *testing.T) {
	s := setupTestServer(t)

	naive := `{"title":"Launch notes","status":"published","meta_title":"Launch","meta_description":"What shipped","published_at":"2025-01-02T10:00:00"}`
	w := s.admin(http.MethodPost, "/admin/blog/posts", naive)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for naive publish time, got %d: %s", w.Code, w.Body.String())
	}
	errs, _ := decode(t, w)["errors"].(map[string]interface{})
	if _, ok := errs["published_at"]; !ok {
		t.Errorf("Expected published_at error, got %v", errs)
	}

	aware := strings.Replace(naive, `10:00:00"`, `10:00:00Z"`, 1)
	w = s.admin(http.MethodPost, "/admin/blog/posts", aware)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	post, _ := decode(t, w)["post"].(map[string]interface{})
	if post["slug"] != "launch-notes" {
		t.Errorf("Expected slug launch-notes, got %v", post["slug"])
	}
	if og, _ := post["og_image_url"].(string); !strings.HasSuffix(og, "_og.png") {
		t.Errorf("Expected generated og image, got %q", og)
	}

	w = s.get("/blog/launch-notes/")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := decode(t, w)
	jsonld, _ := body["jsonld"].(string)
	if !strings.HasPrefix(jsonld, `<script type="application/ld+json">`) || !strings.Contains(jsonld, `"BlogPosting"`) {
		t.Errorf("Expected BlogPosting JSON-LD, got %q", jsonld)
	}
	if body["canonical_url"] != "https://technofatty.com/blog/launch-notes/" {
		t.Errorf("Unexpected canonical URL %v", body["canonical_url"])
	}
}

func TestAdmin_SaveBlogPostRequiresSEO(t *testing.T) {
	s := setupTestServer(t)
	w := s.admin(http.MethodPost, "/admin/blog/posts", `{"title":"Bare","status":"published","published_at":"2025-01-02T10:00:00Z"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
	}
	errs, _ := decode(t, w)["errors"].(map[string]interface{})
	for _, field := range []string{"meta_title", "meta_description"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("Expected error for %s, got %v", field, errs)
		}
	}
}

func TestAdmin_KnowledgeArticleFlow(t *testing.T) {
	s := setupTestServer(t)

	w := s.admin(http.MethodPost, "/admin/knowledge/categories", `{"title":"Guides","status":"published"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("SaveCategory: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	category, _ := decode(t, w)["category"].(map[string]interface{})

	w = s.admin(http.MethodPost, "/admin/knowledge/articles", `{"title":"Getting started","category_id":"`+category["id"].(string)+`","status":"published","content":"First paragraph.\n\nSecond."}`)
	if w.Code != http.StatusOK {
		t.Fatalf("SaveArticle: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	article, _ := decode(t, w)["article"].(map[string]interface{})
	if article["blurb"] != "First paragraph." {
		t.Errorf("Expected derived blurb, got %v", article["blurb"])
	}

	if w := s.get("/knowledge/guides/getting-started/"); w.Code != http.StatusOK {
		t.Errorf("Expected article page 200, got %d", w.Code)
	}
	w = s.get("/knowledge/guides/")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected category page 200, got %d", w.Code)
	}
	if jsonld, _ := decode(t, w)["jsonld"].(string); !strings.Contains(jsonld, "CollectionPage") {
		t.Errorf("Expected CollectionPage JSON-LD, got %q", jsonld)
	}
	if w := s.get("/knowledge/?subtype=guide"); w.Header().Get("X-Robots-Tag") != "noindex,follow" {
		t.Errorf("Expected filtered knowledge listing to be noindex")
	}
}

func TestKnowledgeArticle_ListsRelatedArticles(t *testing.T) {
	s := setupTestServer(t)

	w := s.admin(http.MethodPost, "/admin/knowledge/categories", `{"title":"Guides","status":"published"}`)
	category, _ := decode(t, w)["category"].(map[string]interface{})
	id := category["id"].(string)
	for _, title := range []string{"First Guide", "Second Guide"} {
		w = s.admin(http.MethodPost, "/admin/knowledge/articles", `{"title":"`+title+`","category_id":"`+id+`","status":"published","content":"Body."}`)
		if w.Code != http.StatusOK {
			t.Fatalf("SaveArticle(%q): expected 200, got %d: %s", title, w.Code, w.Body.String())
		}
	}

	w = s.get("/knowledge/guides/first-guide/")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	related, _ := decode(t, w)["related_articles"].([]interface{})
	if len(related) != 1 {
		t.Fatalf("Expected one related article, got %v", related)
	}
	if got := related[0].(map[string]interface{})["slug"]; got != "second-guide" {
		t.Errorf("Expected second-guide, got %v", got)
	}
}

func TestAdmin_PublishScheduled(t *testing.T) {
	scheduler := mocks.NewMockSchedulerService()
	scheduler.Published = 2
	s := setupTestServer(t, func(_ *config.Config, svc *service.Services) {
		svc.Scheduler = scheduler
	})

	w := s.admin(http.MethodPost, "/admin/publish-scheduled", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got := decode(t, w)["published"]; got != float64(2) {
		t.Errorf("Expected published 2, got %v", got)
	}
	if scheduler.Runs != 1 {
		t.Errorf("Expected 1 run, got %d", scheduler.Runs)
	}
}

func TestAdmin_ExportLeads(t *testing.T) {
	export := mocks.NewMockExportService()
	export.Count = 42
	s := setupTestServer(t, func(_ *config.Config, svc *service.Services) {
		svc.Export = export
	})

	if w := s.admin(http.MethodGet, "/admin/exports/newsletter-leads?format=xml", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for unsupported format, got %d", w.Code)
	}

	w := s.admin(http.MethodGet, "/admin/exports/newsletter-leads", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	s.admin(http.MethodGet, "/admin/exports/newsletter-leads?format=csv", "")
	if len(export.Formats) != 2 || export.Formats[0] != "ndjson" || export.Formats[1] != "csv" {
		t.Errorf("Expected formats [ndjson csv], got %v", export.Formats)
	}

	metrics := decode(t, s.admin(http.MethodGet, "/admin/metrics", ""))
	db, _ := metrics["database"].(map[string]interface{})
	if db["newsletter_leads"] != float64(42) {
		t.Errorf("Expected 42 leads, got %v", db["newsletter_leads"])
	}
}

func TestAdmin_ExportLeadsStreamsSubscribers(t *testing.T) {
	s := setupTestServer(t)
	s.provider.SubscribeFunc = newsletter.NewStubProvider(s.leads, config.OptInSingle).Subscribe
	for _, email := range []string{"a@example.com", "b@example.com"} {
		req := httptest.NewRequest(http.MethodPost, "/newsletter/subscribe/", strings.NewReader(`{"email":"`+email+`"}`))
		req.Header.Set("Content-Type", "application/json")
		s.do(req)
	}

	w := s.admin(http.MethodGet, "/admin/exports/newsletter-leads?format=csv", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Header().Get("Content-Type"), "text/csv") {
		t.Errorf("Expected text/csv, got %q", w.Header().Get("Content-Type"))
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if lines[0] != "id,email,source,status,created_at" {
		t.Errorf("Unexpected CSV header %q", lines[0])
	}
	if len(lines) != 3 {
		t.Errorf("Expected header and 2 leads, got %d lines:\n%s", len(lines), w.Body.String())
	}
}

func TestCommunity_SubmitAndModerate(t *testing.T) {
	s := setupTestServer(t)

	w := s.postForm("/community/posts", url.Values{"thread": {"intro"}, "author_name": {"Sam"}, "body": {"Hello all"}})
	if w.Code != http.StatusAccepted {
		t.Fatalf("SubmitPost: expected 202, got %d: %s", w.Code, w.Body.String())
	}
	postID, _ := decode(t, w)["id"].(string)

	if w := s.postForm("/community/posts", url.Values{"author_name": {"Sam"}}); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty body, got %d", w.Code)
	}

	pending := decode(t, s.admin(http.MethodGet, "/admin/posts", ""))
	if posts, _ := pending["posts"].([]interface{}); len(posts) != 1 {
		t.Errorf("Expected 1 pending post, got %v", pending["posts"])
	}
	if w := s.admin(http.MethodPost, "/admin/posts/"+postID+"/approve", ""); w.Code != http.StatusOK {
		t.Errorf("Approve: expected 200, got %d", w.Code)
	}
	if w := s.admin(http.MethodPost, "/admin/posts/00000000-0000-4000-8000-000000000000/reject", ""); w.Code != http.StatusNotFound {
		t.Errorf("Reject unknown: expected 404, got %d", w.Code)
	}
	if w := s.admin(http.MethodPost, "/admin/posts/unknown/reject", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Reject malformed id: expected 400, got %d", w.Code)
	}

	public := decode(t, s.get("/community/"))
	if posts, _ := public["posts"].([]interface{}); len(posts) != 1 {
		t.Errorf("Expected approved post to be listed, got %v", public["posts"])
	}
}

func TestCommunity_ReportQueue(t *testing.T) {
	s := setupTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/community/t/intro/report/", strings.NewReader("reason=spam"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "https://technofatty.com/community/t/intro/")
	w := s.do(req)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/community/t/intro/" {
		t.Fatalf("Expected 302 back to thread, got %d %q", w.Code, w.Header().Get("Location"))
	}
	if w := s.get("/community/p/42/report/"); w.Code != http.StatusFound || w.Header().Get("Location") != "/community/" {
		t.Errorf("Expected 302 to /community/, got %d %q", w.Code, w.Header().Get("Location"))
	}

	w = s.admin(http.MethodPost, "/admin/reports/claim", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Claim: expected 200, got %d", w.Code)
	}
	report, _ := decode(t, w)["report"].(map[string]interface{})
	if report["target_type"] != "thread" || report["status"] != "reviewing" {
		t.Errorf("Unexpected claimed report %v", report)
	}

	if w := s.admin(http.MethodPost, "/admin/reports/"+report["id"].(string)+"/resolve", `{"status":"resolved"}`); w.Code != http.StatusOK {
		t.Errorf("Resolve: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := s.admin(http.MethodPost, "/admin/reports/"+report["id"].(string)+"/resolve", `{"status":"bogus"}`); w.Code != http.StatusBadRequest {
		t.Errorf("Resolve with bad status: expected 400, got %d", w.Code)
	}

	s.admin(http.MethodPost, "/admin/reports/claim", "")
	if w := s.admin(http.MethodPost, "/admin/reports/claim", ""); w.Code != http.StatusNoContent {
		t.Errorf("Empty queue: expected 204, got %d", w.Code)
	}
}

var activationPath = regexp.MustCompile(`/activate/[^/\s]+/[^/\s]+/`)

func TestAccount_SignupActivateLogin(t *testing.T) {
	s := setupTestServer(t)

	w := s.postForm("/account/signup/", url.Values{
		"username":  {"sam"},
		"email":     {"sam@example.com"},
		"password1": {"correct-horse"},
		"password2": {"correct-horse"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Signup: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	outbox := s.mailer.Outbox()
	if len(outbox) != 1 || outbox[0].Subject != "Activate your account" {
		t.Fatalf("Expected activation email, got %+v", outbox)
	}
	link := activationPath.FindString(outbox[0].Body)
	if link == "" {
		t.Fatalf("No activation link in %q", outbox[0].Body)
	}

	login := url.Values{"username": {"sam"}, "password": {"correct-horse"}}
	if w := s.postForm("/account/login/", login); w.Code != http.StatusUnauthorized {
		t.Errorf("Login before activation: expected 401, got %d", w.Code)
	}

	if w := s.get("/activate/bad/token/"); w.Code != http.StatusBadRequest {
		t.Errorf("Bad activation: expected 400, got %d", w.Code)
	}
	if w := s.get(link); w.Code != http.StatusOK {
		t.Fatalf("Activation: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = s.postForm("/account/login/", login)
	if w.Code != http.StatusFound || w.Header().Get("Location") != "/account/" {
		t.Fatalf("Login: expected 302 to /account/, got %d %q", w.Code, w.Header().Get("Location"))
	}
	session := cookie(w, "tf_session")
	if session == nil || session.Value == "" || !session.HttpOnly {
		t.Fatalf("Expected HttpOnly session cookie, got %+v", session)
	}

	req := httptest.NewRequest(http.MethodGet, "/account/", nil)
	req.AddCookie(session)
	w = s.do(req)
	if w.Code != http.StatusOK {
		t.Fatalf("Account page: expected 200, got %d", w.Code)
	}
	user, _ := decode(t, w)["user"].(map[string]interface{})
	if user["username"] != "sam" {
		t.Errorf("Expected user sam, got %v", user)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Error("Password hash must not be serialized")
	}

	w = s.get("/account/logout/")
	if cleared := cookie(w, "tf_session"); cleared == nil || cleared.MaxAge >= 0 {
		t.Errorf("Expected logout to expire the session cookie, got %+v", cleared)
	}
}

func TestAccount_RequiresLogin(t *testing.T) {
	s := setupTestServer(t)

	w := s.get("/account/")
	if w.Code != http.StatusFound {
		t.Fatalf("Expected 302, got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/account/login/?next=/account/" {
		t.Errorf("Expected redirect to login, got %q", loc)
	}

	req := httptest.NewRequest(http.MethodGet, "/account/", nil)
	req.AddCookie(&http.Cookie{Name: "tf_session", Value: "forged"})
	if w := s.do(req); w.Code != http.StatusFound {
		t.Errorf("Forged session: expected 302, got %d", w.Code)
	}
}

func TestAccount_SignupValidation(t *testing.T) {
	s := setupTestServer(t)
	w := s.postForm("/account/signup/", url.Values{
		"username":  {"sam"},
		"email":     {"sam@example.com"},
		"password1": {"short"},
		"password2": {"short"},
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", w.Code)
	}
	errs, _ := decode(t, w)["errors"].(map[string]interface{})
	if _, ok := errs["password1"]; !ok {
		t.Errorf("Expected password1 error, got %v", errs)
	}
}

func TestAccount_PasswordReset(t *testing.T) {
	s := setupTestServer(t)
	s.postForm("/account/signup/", url.Values{
		"username":  {"sam"},
		"email":     {"sam@example.com"},
		"password1": {"correct-horse"},
		"password2": {"correct-horse"},
	})
	s.get(activationPath.FindString(s.mailer.Outbox()[0].Body))

	if w := s.postForm("/account/password-reset/", url.Values{"email": {"nobody@example.com"}}); w.Code != http.StatusOK {
		t.Errorf("Unknown email: expected 200, got %d", w.Code)
	}
	if w := s.postForm("/account/password-reset/", url.Values{"email": {"sam@example.com"}}); w.Code != http.StatusOK {
		t.Fatalf("Reset request: expected 200, got %d", w.Code)
	}
	outbox := s.mailer.Outbox()
	if len(outbox) != 2 {
		t.Fatalf("Expected 2 emails, got %d", len(outbox))
	}
	link := regexp.MustCompile(`/account/reset/[^/\s]+/[^/\s]+/`).FindString(outbox[1].Body)
	if link == "" {
		t.Fatalf("No reset link in %q", outbox[1].Body)
	}

	if w := s.get(link); w.Code != http.StatusOK {
		t.Errorf("Check reset link: expected 200, got %d", w.Code)
	}
	if w := s.postForm(link, url.Values{"new_password1": {"new-password"}, "new_password2": {"other-password"}}); w.Code != http.StatusBadRequest {
		t.Errorf("Mismatched passwords: expected 400, got %d", w.Code)
	}
	if w := s.postForm(link, url.Values{"new_password1": {"new-password"}, "new_password2": {"new-password"}}); w.Code != http.StatusOK {
		t.Fatalf("Reset: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := s.get(link); w.Code != http.StatusBadRequest {
		t.Errorf("Used reset link: expected 400, got %d", w.Code)
	}

	w := s.postForm("/account/login/", url.Values{"username": {"sam"}, "password": {"new-password"}})
	if w.Code != http.StatusFound {
		t.Errorf("Login with new password: expected 302, got %d", w.Code)
	}
}

func TestConsent(t *testing.T) {
	s := setupTestServer(t)

	body := decode(t, s.get("/"))
	if body["consent_required"] != true || body["consent_granted"] != false {
		t.Errorf("Expected undecided visitor, got %v", body)
	}

	req := httptest.NewRequest(http.MethodPost, "/consent/accept", nil)
	req.Header.Set("Referer", "https://technofatty.com/about/")
	w := s.do(req)
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/about/" {
		t.Fatalf("Expected 303 to /about/, got %d %q", w.Code, w.Header().Get("Location"))
	}
	granted := cookie(w, "tf_consent")
	if granted == nil || !strings.HasPrefix(granted.Value, "true.") {
		t.Fatalf("Expected signed consent cookie, got %+v", granted)
	}

	home := httptest.NewRequest(http.MethodGet, "/", nil)
	home.AddCookie(granted)
	body = decode(t, s.do(home))
	if body["consent_granted"] != true || body["consent_required"] != false {
		t.Errorf("Expected granted consent, got %v", body)
	}

	tampered := httptest.NewRequest(http.MethodGet, "/", nil)
	tampered.AddCookie(&http.Cookie{Name: "tf_consent", Value: "true.forged"})
	body = decode(t, s.do(tampered))
	if body["consent_granted"] != false || body["consent_required"] != true {
		t.Errorf("Expected tampered cookie to be ignored, got %v", body)
	}

	w = s.do(httptest.NewRequest(http.MethodPost, "/consent/decline", nil))
	if declined := cookie(w, "tf_consent"); declined == nil || !strings.HasPrefix(declined.Value, "false.") {
		t.Errorf("Expected declined cookie, got %+v", declined)
	}
}

func TestLegacyRedirects(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/signup/", "https://technofatty.com/#signup"},
		{"/signup/?ref=newsletter", "https://technofatty.com/?ref=newsletter#signup"},
		{"/services/", "https://technofatty.com/about/"},
		{"/signals/alpha/", "https://technofatty.com/knowledge/signals/#signal-alpha"},
		{"/community/join/", "https://technofatty.com/community/"},
	}

	s := setupTestServer(t)
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := s.get(tt.path)
			if w.Code != http.StatusMovedPermanently {
				t.Errorf("Expected 301, got %d", w.Code)
			}
			if loc := w.Header().Get("Location"); loc != tt.want {
				t.Errorf("Expected Location %q, got %q", tt.want, loc)
			}
		})
	}
}

func TestCatalogRobotsTag(t *testing.T) {
	tests := []struct {
		indexable bool
		want      string
	}{
		{false, "noindex,nofollow"},
		{true, "index,follow"},
	}

	for _, tt := range tests {
		t.Run(strconv.FormatBool(tt.indexable), func(t *testing.T) {
			s := setupTestServer(t, func(cfg *config.Config, _ *service.Services) {
				cfg.Site.ToolsIndexable = tt.indexable
				cfg.Site.CaseStudiesIndexable = tt.indexable
			})
			for _, path := range []string{"/tools/", "/case-studies/"} {
				w := s.get(path)
				if w.Code != http.StatusOK {
					t.Errorf("GET %s: expected 200, got %d", path, w.Code)
				}
				if got := w.Header().Get("X-Robots-Tag"); got != tt.want {
					t.Errorf("GET %s: expected X-Robots-Tag %q, got %q", path, tt.want, got)
				}
			}
		})
	}
}

func TestCatalog_SaveAndList(t *testing.T) {
	s := setupTestServer(t)

	if w := s.admin(http.MethodPost, "/admin/tools", `{"title":"Calorie Counter","is_published":true,"external_url":"not a url"}`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for relative external_url, got %d", w.Code)
	}
	if w := s.admin(http.MethodPost, "/admin/tools", `{"title":"Calorie Counter","is_published":true}`); w.Code != http.StatusOK {
		t.Fatalf("SaveTool: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := s.get("/tools/calorie-counter/"); w.Code != http.StatusOK {
		t.Errorf("Expected tool page 200, got %d", w.Code)
	}

	if w := s.admin(http.MethodPost, "/admin/case-studies", `{"title":"Gym Chain","is_published":false}`); w.Code != http.StatusOK {
		t.Fatalf("SaveCaseStudy: expected 200, got %d", w.Code)
	}
	if w := s.get("/case-studies/gym-chain/"); w.Code != http.StatusNotFound {
		t.Errorf("Unpublished case study: expected 404, got %d", w.Code)
	}
}

func TestFooter(t *testing.T) {
	s := setupTestServer(t)
	body := decode(t, s.get("/footer.json"))

	want := "© " + strconv.Itoa(time.Now().Year()) + " Technofatty"
	if body["copyright"] != want {
		t.Errorf("Expected %q, got %v", want, body["copyright"])
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	s := setupTestServer(t, func(_ *config.Config, svc *service.Services) {
		svc.Health = nil
	})

	w := s.get("/health/db")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500 after panic, got %d", w.Code)
	}
	if body := decode(t, w); body["error"] != "Internal server error" {
		t.Errorf("Unexpected body %v", body)
	}
}
