package service

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/cache"
	"github.com/technofatty/technofatty/internal/config"
	"github.com/technofatty/technofatty/internal/events"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/newsletter"
	"github.com/technofatty/technofatty/internal/notify"
	"github.com/technofatty/technofatty/internal/ratelimit"
	"github.com/technofatty/technofatty/internal/repository"
	"github.com/technofatty/technofatty/internal/socialimage"
	"github.com/technofatty/technofatty/internal/validation"
)

var (
	// ErrNotFound is returned for missing or non-public content
	ErrNotFound = errors.New("not found")
	// ErrInvalidToken is returned for malformed, expired or reused account tokens
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrInvalidCredentials is returned by Login for an unknown user or wrong password
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInactive is returned by Login before the account is activated
	ErrInactive = errors.New("account is not active")
	// ErrThrottled is returned when a community submission exceeds its rate limit
	ErrThrottled = errors.New("too many submissions, try again later")
)

// KnowledgeService defines the interface for knowledge base operations
type KnowledgeService interface {
	SaveArticle(ctx context.Context, article *models.KnowledgeArticle) error
	SaveCategory(ctx context.Context, category *models.KnowledgeCategory) error
	GetArticle(ctx context.Context, categorySlug, slug string) (*models.KnowledgeArticle, error)
	GetCategory(ctx context.Context, slug string) (*models.KnowledgeCategory, error)
	ListCategories(ctx context.Context) ([]*models.KnowledgeCategory, error)
	ListArticles(ctx context.Context, q KnowledgeQuery) (*KnowledgePage, error)
	Recent(ctx context.Context, n int) ([]*models.KnowledgeArticle, error)
	Related(ctx context.Context, article *models.KnowledgeArticle, n int) ([]*models.KnowledgeArticle, error)
	PublishScheduled(ctx context.Context) (int, error)
}

// BlogService defines the interface for blog operations
type BlogService interface {
	Save(ctx context.Context, post *models.BlogPost) error
	Get(ctx context.Context, slug string) (*models.BlogPost, error)
	List(ctx context.Context, q BlogQuery) (*BlogPage, error)
	Recent(ctx context.Context, n int) ([]*models.BlogPost, error)
	RegenerateSocialImages(ctx context.Context, slug string, force bool) (int, error)
}

// CatalogService defines the interface for tools and case studies
type CatalogService interface {
	SaveTool(ctx context.Context, tool *models.Tool) error
	SaveCaseStudy(ctx context.Context, cs *models.CaseStudy) error
	GetTool(ctx context.Context, slug string) (*models.Tool, error)
	GetCaseStudy(ctx context.Context, slug string) (*models.CaseStudy, error)
	ListTools(ctx context.Context) ([]*models.Tool, error)
	ListCaseStudies(ctx context.Context) ([]*models.CaseStudy, error)
}

// ContactService defines the contact form pipeline
type ContactService interface {
	// Submit returns field errors for invalid input. A nil result means the
	// caller shows the sent confirmation, whether or not a message went out.
	Submit(ctx context.Context, sub ContactSubmission) validation.Errors
}

// NewsletterService defines the newsletter signup pipeline
type NewsletterService interface {
	Subscribe(ctx context.Context, signup NewsletterSignup) NewsletterOutcome
	RecordBlockView(ctx context.Context, ip, ua, path string)
}

// CommunityService defines community submissions and moderation
type CommunityService interface {
	SubmitPost(ctx context.Context, sub PostSubmission) (*models.CommunityPost, error)
	Report(ctx context.Context, targetType, targetID, reason, ip string) error
	ListReports(ctx context.Context, status models.ReportStatus, limit int) ([]*models.ModerationReport, error)
	ClaimNextReport(ctx context.Context, moderator string) (*models.ModerationReport, error)
	ResolveReport(ctx context.Context, id string, status models.ReportStatus, moderator string) error
	ListPosts(ctx context.Context, status models.PostStatus, limit int) ([]*models.CommunityPost, error)
	ReviewPost(ctx context.Context, id string, approve bool, moderator string) error
}

// SitemapService defines sitemap.xml and robots.txt generation
type SitemapService interface {
	Sitemap(ctx context.Context) ([]byte, error)
	Invalidate(ctx context.Context)
	Robots(host string) string
}

// FeedService defines syndication feed generation
type FeedService interface {
	BlogFeed(ctx context.Context, format FeedFormat) (string, error)
	KnowledgeFeed(ctx context.Context, format FeedFormat) (string, error)
}

// HealthService defines dependency probes
type HealthService interface {
	CheckDB(ctx context.Context) error
	CheckCache(ctx context.Context) error
}

// AccountService defines signup, activation, login and password reset
type AccountService interface {
	Signup(ctx context.Context, req SignupRequest) (*models.User, error)
	Activate(ctx context.Context, uidb64, token string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, *models.User, error)
	Authenticate(ctx context.Context, session string) (*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	CheckResetToken(ctx context.Context, uidb64, token string) (*models.User, error)
	ResetPassword(ctx context.Context, uidb64, token, password1, password2 string) error
}

// ExportService defines the newsletter lead export
type ExportService interface {
	StreamLeads(ctx context.Context, w http.ResponseWriter, format string) error
	CountLeads(ctx context.Context) (int, error)
}

// SchedulerService defines the background scheduled-publish processor
type SchedulerService interface {
	StartProcessor(ctx context.Context)
	StopProcessor()
	RunOnce(ctx context.Context) (int, error)
}

// HealthChecker is satisfied by *database.DB
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies are the infrastructure collaborators shared by services.
type Dependencies struct {
	DB        HealthChecker
	Cache     cache.Store
	Limiter   ratelimit.Limiter
	Notifier  notify.Notifier
	Mailer    notify.Mailer
	Provider  newsletter.Provider
	Publisher events.Publisher
	// Images is optional; without it blog posts keep whatever image URLs they carry.
	Images *socialimage.Generator
	// Now defaults to time.Now.
	Now func() time.Time
}

// Services holds all service interfaces
type Services struct {
	Knowledge  KnowledgeService
	Blog       BlogService
	Catalog    CatalogService
	Contact    ContactService
	Newsletter NewsletterService
	Community  CommunityService
	Sitemap    SitemapService
	Feed       FeedService
	Health     HealthService
	Account    AccountService
	Export     ExportService
	Scheduler  SchedulerService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, deps Dependencies, cfg *config.Config, log zerolog.Logger) *Services {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if deps.Limiter == nil && deps.Cache != nil {
		deps.Limiter = ratelimit.New(deps.Cache)
	}

	sitemapSvc := newSitemapService(repos, deps.Cache, cfg.Site, deps.Now, log)
	knowledgeSvc := newKnowledgeService(repos.Knowledge, sitemapSvc, deps.Publisher, deps.Now, log)
	blogSvc := newBlogService(repos.Blog, sitemapSvc, deps.Images, deps.Publisher, deps.Now, log)

	return &Services{
		Knowledge:  knowledgeSvc,
		Blog:       blogSvc,
		Catalog:    newCatalogService(repos.Tool, repos.CaseStudy, sitemapSvc, deps.Publisher, deps.Now, log),
		Contact:    newContactService(repos.ContactEvent, deps.Limiter, deps.Notifier, cfg.Contact, deps.Now, log),
		Newsletter: newNewsletterService(deps.Provider, deps.Limiter, cfg.Newsletter, log),
		Community:  newCommunityService(repos.Moderation, deps.Limiter, cfg.Community, deps.Now, log),
		Sitemap:    sitemapSvc,
		Feed:       newFeedService(blogSvc, knowledgeSvc, cfg.Site, log),
		Health:     newHealthService(deps.DB, deps.Cache),
		Account:    newAccountService(repos.User, deps.Mailer, cfg.Auth, cfg.Site.BaseURL, cfg.Email.From, deps.Now, log),
		Export:     newExportService(repos.Lead, log),
		Scheduler:  newSchedulerService(knowledgeSvc, cfg.Scheduler.PublishInterval, log),
	}
}
