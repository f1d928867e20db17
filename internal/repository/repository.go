package repository

import (
	"context"
	"errors"
	"time"

	"github.com/technofatty/technofatty/internal/database"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/publish"
)

var (
	// ErrSlugTaken is returned when an insert or update hits a slug unique index.
	ErrSlugTaken = errors.New("repository: slug already taken")
	// ErrDuplicate is returned for any other unique index violation.
	ErrDuplicate = errors.New("repository: duplicate record")
)

// KnowledgeFilter narrows a knowledge article listing. Zero values are ignored.
type KnowledgeFilter struct {
	Category string
	Tag      string
	Query    string
	MaxTime  int
	Subtype  models.Subtype
	Limit    int
	Offset   int
}

// BlogFilter narrows a blog listing. Zero values are ignored.
type BlogFilter struct {
	Category string
	Tag      string
	Query    string
	Year     int
	Limit    int
	Offset   int
}

// KnowledgeRepository defines the interface for knowledge base data operations
type KnowledgeRepository interface {
	CreateArticle(ctx context.Context, article *models.KnowledgeArticle) error
	UpdateArticle(ctx context.Context, article *models.KnowledgeArticle) error
	GetArticleByID(ctx context.Context, id string) (*models.KnowledgeArticle, error)
	GetArticleBySlug(ctx context.Context, categorySlug, slug string) (*models.KnowledgeArticle, error)
	ArticleSlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	ListArticles(ctx context.Context, vis publish.Visibility, filter KnowledgeFilter) ([]*models.KnowledgeArticle, int, error)
	RelatedArticles(ctx context.Context, vis publish.Visibility, article *models.KnowledgeArticle, limit int) ([]*models.KnowledgeArticle, error)
	PublishDue(ctx context.Context, now time.Time) ([]*models.KnowledgeArticle, error)

	CreateCategory(ctx context.Context, category *models.KnowledgeCategory) error
	GetCategoryByID(ctx context.Context, id string) (*models.KnowledgeCategory, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.KnowledgeCategory, error)
	CategorySlugExists(ctx context.Context, slug string) (bool, error)
	ListCategories(ctx context.Context, publishedOnly bool) ([]*models.KnowledgeCategory, error)

	CreateTag(ctx context.Context, tag *models.KnowledgeTag) error
	GetTagBySlug(ctx context.Context, slug string) (*models.KnowledgeTag, error)
	TagSlugExists(ctx context.Context, slug string) (bool, error)
	SetArticleTags(ctx context.Context, articleID string, tagIDs []string) error
}

// BlogRepository defines the interface for blog post data operations
type BlogRepository interface {
	Create(ctx context.Context, post *models.BlogPost) error
	Update(ctx context.Context, post *models.BlogPost) error
	GetByID(ctx context.Context, id string) (*models.BlogPost, error)
	GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	List(ctx context.Context, vis publish.Visibility, filter BlogFilter) ([]*models.BlogPost, int, error)
}

// ToolRepository defines the interface for tools directory data operations
type ToolRepository interface {
	Create(ctx context.Context, tool *models.Tool) error
	Update(ctx context.Context, tool *models.Tool) error
	GetByID(ctx context.Context, id string) (*models.Tool, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tool, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	ListPublished(ctx context.Context) ([]*models.Tool, error)
}

// CaseStudyRepository defines the interface for case study data operations
type CaseStudyRepository interface {
	Create(ctx context.Context, cs *models.CaseStudy) error
	Update(ctx context.Context, cs *models.CaseStudy) error
	GetByID(ctx context.Context, id string) (*models.CaseStudy, error)
	GetBySlug(ctx context.Context, slug string) (*models.CaseStudy, error)
	SlugExists(ctx context.Context, slug, excludeID string) (bool, error)
	ListPublished(ctx context.Context) ([]*models.CaseStudy, error)
}

// ContactEventRepository persists contact form events
type ContactEventRepository interface {
	Create(ctx context.Context, event *models.ContactEvent) error
	ListRecent(ctx context.Context, limit int) ([]*models.ContactEvent, error)
}

// LeadRepository persists newsletter leads
type LeadRepository interface {
	Create(ctx context.Context, lead *models.NewsletterLead) error
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, callback func(*models.NewsletterLead) error) error
}

// UserRepository defines the interface for account data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// ModerationRepository persists community reports and queued posts
type ModerationRepository interface {
	CreateReport(ctx context.Context, report *models.ModerationReport) error
	ListReports(ctx context.Context, status models.ReportStatus, limit int) ([]*models.ModerationReport, error)
	ClaimNextReport(ctx context.Context, now time.Time) (*models.ModerationReport, error)
	ResolveReport(ctx context.Context, id string, status models.ReportStatus, now time.Time) (bool, error)

	CreatePost(ctx context.Context, post *models.CommunityPost) error
	ListPosts(ctx context.Context, status models.PostStatus, limit int) ([]*models.CommunityPost, error)
	ReviewPost(ctx context.Context, id string, status models.PostStatus, now time.Time) (bool, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Knowledge    KnowledgeRepository
	Blog         BlogRepository
	Tool         ToolRepository
	CaseStudy    CaseStudyRepository
	ContactEvent ContactEventRepository
	Lead         LeadRepository
	User         UserRepository
	Moderation   ModerationRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Knowledge:    NewKnowledgeRepo(db),
		Blog:         NewBlogRepo(db),
		Tool:         NewToolRepo(db),
		CaseStudy:    NewCaseStudyRepo(db),
		ContactEvent: NewContactEventRepo(db),
		Lead:         NewLeadRepo(db),
		User:         NewUserRepo(db),
		Moderation:   NewModerationRepo(db),
	}
}
