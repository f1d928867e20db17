package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/events"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/publish"
	"github.com/technofatty/technofatty/internal/repository"
	"github.com/technofatty/technofatty/internal/slug"
	"github.com/technofatty/technofatty/internal/validation"
)

const kindKnowledgeArticle = "knowledge_article"

// KnowledgeQuery holds the knowledge listing filters
type KnowledgeQuery struct {
	Category string
	Tag      string
	Query    string
	MaxTime  int
	Subtype  string
	Page     int
	PageSize int
}

// Filtered reports whether any filter other than paging is set.
func (q KnowledgeQuery) Filtered() bool {
	return q.Category != "" || q.Tag != "" || strings.TrimSpace(q.Query) != "" || q.MaxTime > 0 || q.Subtype != ""
}

// KnowledgePage is one page of the knowledge listing
type KnowledgePage struct {
	Articles []*models.KnowledgeArticle `json:"articles"`
	Pagination
	// NoIndex is set for filtered listings so crawlers skip them
	NoIndex bool `json:"noindex"`
}

// knowledgeService is the concrete implementation of KnowledgeService
type knowledgeService struct {
	repo      repository.KnowledgeRepository
	sitemap   SitemapService
	publisher events.Publisher
	now       func() time.Time
	log       zerolog.Logger
}

func newKnowledgeService(repo repository.KnowledgeRepository, sitemap SitemapService, publisher events.Publisher, now func() time.Time, log zerolog.Logger) *knowledgeService {
	return &knowledgeService{
		repo:      repo,
		sitemap:   sitemap,
		publisher: publisher,
		now:       now,
		log:       log.With().Str("service", "knowledge").Logger(),
	}
}

// SaveArticle creates or updates an article. Field problems are returned as
// validation.Errors and nothing is written.
func (s *knowledgeService) SaveArticle(ctx context.Context, a *models.KnowledgeArticle) error {
	now := s.now()

	var original *publish.Snapshot
	var existing *models.KnowledgeArticle
	if a.ID != "" {
		var err error
		existing, err = s.repo.GetArticleByID(ctx, a.ID)
		if err != nil {
			return fmt.Errorf("load article: %w", err)
		}
		if existing == nil {
			return ErrNotFound
		}
		original = &publish.Snapshot{Status: existing.Status, PublishedAt: existing.PublishedAt}
		a.CreatedAt = existing.CreatedAt
		// The slug is fixed at first save; only an explicit value replaces it.
		if strings.TrimSpace(a.Slug) == "" {
			a.Slug = existing.Slug
		}
	}

	if a.Status == "" {
		a.Status = models.StatusDraft
	}
	if a.Subtype == "" {
		a.Subtype = models.SubtypeGuide
	}
	if strings.TrimSpace(a.Blurb) == "" {
		a.Blurb = FirstParagraph(a.Content)
	}
	a.ReadingTime = ReadingTime(a.Content)
	a.PublishedAt = publish.Prepare(original, a.Status, a.PublishedAt, now)

	errs := publish.Validate(original, a.Status, a.PublishedAt)
	errs = append(errs, validation.ValidateArticle(a)...)
	if a.CategoryID != "" {
		category, err := s.repo.GetCategoryByID(ctx, a.CategoryID)
		if err != nil {
			return fmt.Errorf("load category: %w", err)
		}
		if category == nil {
			errs.Add("category_id", "Select a valid category.")
		}
		a.Category = category
	}
	if len(errs) > 0 {
		return errs
	}

	isNew := existing == nil
	if isNew {
		a.ID = uuid.New().String()
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	exists := func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.ArticleSlugExists(ctx, candidate, a.ID)
	}
	save := func(ctx context.Context, candidate string) error {
		a.Slug = candidate
		if isNew {
			return s.repo.CreateArticle(ctx, a)
		}
		return s.repo.UpdateArticle(ctx, a)
	}
	if _, err := saveWithSlug(ctx, a.Slug, a.Title, "article", exists, save); err != nil {
		if isNew {
			a.ID = ""
		}
		return err
	}

	if err := s.saveTags(ctx, a); err != nil {
		return fmt.Errorf("save tags: %w", err)
	}
	s.sitemap.Invalidate(ctx)

	newlyPublished := a.Status == models.StatusPublished && (original == nil || original.Status != models.StatusPublished)
	publishSaved(ctx, s.publisher, s.log, kindKnowledgeArticle, a.ID, a.Slug, a.Path(), string(a.Status), newlyPublished)

	s.log.Info().Str("id", a.ID).Str("slug", a.Slug).Str("status", string(a.Status)).Msg("Knowledge article saved")
	return nil
}

// saveTags resolves tags by id, slug or name, creating missing ones.
func (s *knowledgeService) saveTags(ctx context.Context, a *models.KnowledgeArticle) error {
	seen := make(map[string]bool)
	ids := make([]string, 0, len(a.Tags))
	resolved := make([]models.KnowledgeTag, 0, len(a.Tags))

	for _, t := range a.Tags {
		if t.ID == "" {
			tagSlug := t.Slug
			if tagSlug == "" {
				tagSlug = slug.Slugify(t.Name)
			}
			if tagSlug == "" {
				continue
			}
			found, err := s.repo.GetTagBySlug(ctx, tagSlug)
			if err != nil {
				return err
			}
			if found == nil {
				name := strings.TrimSpace(t.Name)
				if name == "" {
					name = tagSlug
				}
				found = &models.KnowledgeTag{ID: uuid.New().String(), Name: name, Slug: tagSlug}
				if err := s.repo.CreateTag(ctx, found); err != nil {
					return err
				}
			}
			t = *found
		}
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		ids = append(ids, t.ID)
		resolved = append(resolved, t)
	}

	a.Tags = resolved
	return s.repo.SetArticleTags(ctx, a.ID, ids)
}

// SaveCategory creates a category, allocating its slug from the title when blank.
func (s *knowledgeService) SaveCategory(ctx context.Context, c *models.KnowledgeCategory) error {
	var errs validation.Errors
	if strings.TrimSpace(c.Title) == "" {
		errs.Add("title", validation.MsgRequired)
	}
	if c.Slug != "" && !validation.IsValidSlug(c.Slug) {
		errs.Add("slug", "slug must be kebab-case (lowercase letters, numbers, hyphens)")
	}
	if c.Status == "" {
		c.Status = models.StatusPublished
	}
	if !models.ValidStatuses[c.Status] {
		errs.Add("status", "invalid status, must be one of: draft, published, archived")
	}
	if len(errs) > 0 {
		return errs
	}

	now := s.now()
	c.ID = uuid.New().String()
	c.CreatedAt = now
	c.UpdatedAt = now

	exists := func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.CategorySlugExists(ctx, candidate)
	}
	save := func(ctx context.Context, candidate string) error {
		c.Slug = candidate
		return s.repo.CreateCategory(ctx, c)
	}
	if _, err := saveWithSlug(ctx, c.Slug, c.Title, "category", exists, save); err != nil {
		c.ID = ""
		return err
	}
	s.sitemap.Invalidate(ctx)
	return nil
}

// GetArticle returns a publicly visible article
func (s *knowledgeService) GetArticle(ctx context.Context, categorySlug, articleSlug string) (*models.KnowledgeArticle, error) {
	a, err := s.repo.GetArticleBySlug(ctx, categorySlug, articleSlug)
	if err != nil {
		return nil, err
	}
	if a == nil || !publish.IsVisible(a.Status, a.PublishedAt, s.now()) {
		return nil, ErrNotFound
	}
	return a, nil
}

// GetCategory returns a published category
func (s *knowledgeService) GetCategory(ctx context.Context, categorySlug string) (*models.KnowledgeCategory, error) {
	c, err := s.repo.GetCategoryBySlug(ctx, categorySlug)
	if err != nil {
		return nil, err
	}
	if c == nil || c.Status != models.StatusPublished {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *knowledgeService) ListCategories(ctx context.Context) ([]*models.KnowledgeCategory, error) {
	return s.repo.ListCategories(ctx, true)
}

// ListArticles returns visible articles matching q, newest first. A page
// past the end is clamped to the last page.
func (s *knowledgeService) ListArticles(ctx context.Context, q KnowledgeQuery) (*KnowledgePage, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)
	filter := repository.KnowledgeFilter{
		Category: q.Category,
		Tag:      q.Tag,
		Query:    strings.TrimSpace(q.Query),
		MaxTime:  q.MaxTime,
		Subtype:  models.Subtype(q.Subtype),
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}
	vis := publish.Public(s.now())

	articles, total, err := s.repo.ListArticles(ctx, vis, filter)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}

	p := newPagination(page, pageSize, total)
	if p.TotalPages > 0 && page > p.TotalPages {
		filter.Offset = (p.TotalPages - 1) * pageSize
		if articles, total, err = s.repo.ListArticles(ctx, vis, filter); err != nil {
			return nil, fmt.Errorf("list articles: %w", err)
		}
		p = newPagination(p.TotalPages, pageSize, total)
	}

	return &KnowledgePage{Articles: articles, Pagination: p, NoIndex: q.Filtered()}, nil
}

// Recent returns the n newest visible articles
func (s *knowledgeService) Recent(ctx context.Context, n int) ([]*models.KnowledgeArticle, error) {
	articles, _, err := s.repo.ListArticles(ctx, publish.Public(s.now()), repository.KnowledgeFilter{Limit: n})
	return articles, err
}

// Related returns up to n visible articles from the same category or
// sharing a tag with a.
func (s *knowledgeService) Related(ctx context.Context, a *models.KnowledgeArticle, n int) ([]*models.KnowledgeArticle, error) {
	related, err := s.repo.RelatedArticles(ctx, publish.Public(s.now()), a, n)
	if err != nil {
		return nil, fmt.Errorf("related articles: %w", err)
	}
	return related, nil
}

// PublishScheduled publishes drafts whose publish time has passed and
// returns how many were published.
func (s *knowledgeService) PublishScheduled(ctx context.Context) (int, error) {
	published, err := s.repo.PublishDue(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("publish scheduled articles: %w", err)
	}

	for _, a := range published {
		if a.Category == nil && a.CategoryID != "" {
			if c, err := s.repo.GetCategoryByID(ctx, a.CategoryID); err == nil {
				a.Category = c
			}
		}
		publishSaved(ctx, s.publisher, s.log, kindKnowledgeArticle, a.ID, a.Slug, a.Path(), string(a.Status), true)
	}

	if len(published) > 0 {
		s.sitemap.Invalidate(ctx)
		s.log.Info().Int("count", len(published)).Msg("Scheduled articles published")
	}
	return len(published), nil
}
