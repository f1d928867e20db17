package service

import (
	"context"
	"errors"
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
	"github.com/technofatty/technofatty/internal/socialimage"
	"github.com/technofatty/technofatty/internal/validation"
)

const kindBlogPost = "blog_post"

// BlogQuery holds the blog listing filters
type BlogQuery struct {
	Category string
	Tag      string
	Query    string
	Year     int
	Page     int
	PageSize int
}

// Filtered reports whether any filter other than paging is set.
func (q BlogQuery) Filtered() bool {
	return q.Category != "" || q.Tag != "" || strings.TrimSpace(q.Query) != "" || q.Year > 0
}

// BlogPage is one page of the blog listing
type BlogPage struct {
	Posts []*models.BlogPost `json:"posts"`
	Pagination
	NoIndex bool `json:"noindex"`
}

// blogService is the concrete implementation of BlogService
type blogService struct {
	repo      repository.BlogRepository
	sitemap   SitemapService
	images    *socialimage.Generator
	publisher events.Publisher
	now       func() time.Time
	log       zerolog.Logger
}

func newBlogService(
	repo repository.BlogRepository,
	sitemap SitemapService,
	images *socialimage.Generator,
	publisher events.Publisher,
	now func() time.Time,
	log zerolog.Logger,
) *blogService {
	return &blogService{
		repo:      repo,
		sitemap:   sitemap,
		images:    images,
		publisher: publisher,
		now:       now,
		log:       log.With().Str("service", "blog").Logger(),
	}
}

// Save creates or updates a post. A supplied slug is normalised and then
// made unique like a generated one.
func (s *blogService) Save(ctx context.Context, p *models.BlogPost) error {
	now := s.now()

	var original *publish.Snapshot
	var existing *models.BlogPost
	if p.ID != "" {
		var err error
		existing, err = s.repo.GetByID(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("load post: %w", err)
		}
		if existing == nil {
			return ErrNotFound
		}
		original = &publish.Snapshot{Status: existing.Status, PublishedAt: existing.PublishedAt}
		p.CreatedAt = existing.CreatedAt
	}

	if p.Status == "" {
		p.Status = models.StatusDraft
	}
	if strings.TrimSpace(p.Excerpt) == "" {
		p.Excerpt = FirstParagraph(p.Content)
	}
	p.PublishedAt = publish.Prepare(original, p.Status, p.PublishedAt, now)

	isNew := existing == nil
	if isNew {
		p.ID = uuid.New().String()
	}

	base := p.Title
	switch {
	case p.Slug != "":
		base = p.Slug
	case existing != nil:
		// Keep the published URL when an update omits the slug.
		base = existing.Slug
	}
	exists := func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, candidate, p.ID)
	}
	candidate, err := slug.Allocate(ctx, base, "blog-post", exists)
	if err != nil {
		return s.abort(isNew, p, err)
	}
	s.fillSocialImages(ctx, p, candidate)

	errs := publish.Validate(original, p.Status, p.PublishedAt)
	errs = append(errs, validation.ValidateBlogPost(p)...)
	errs = append(errs, validation.ValidateSEOURLs(p.SEO)...)
	errs = append(errs, publish.RequireSEO(p.Status, p.SEO)...)
	if len(errs) > 0 {
		return s.abort(isNew, p, errs)
	}

	if isNew {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	save := func(ctx context.Context, candidate string) error {
		p.Slug = candidate
		if isNew {
			return s.repo.Create(ctx, p)
		}
		return s.repo.Update(ctx, p)
	}
	p.Slug = ""
	if _, err := saveWithSlug(ctx, "", base, "blog-post", exists, save); err != nil {
		return s.abort(isNew, p, err)
	}

	s.sitemap.Invalidate(ctx)
	newlyPublished := p.Status == models.StatusPublished && (original == nil || original.Status != models.StatusPublished)
	publishSaved(ctx, s.publisher, s.log, kindBlogPost, p.ID, p.Slug, p.Path(), string(p.Status), newlyPublished)

	s.log.Info().Str("id", p.ID).Str("slug", p.Slug).Str("status", string(p.Status)).Msg("Blog post saved")
	return nil
}

func (s *blogService) abort(isNew bool, p *models.BlogPost, err error) error {
	if isNew {
		p.ID = ""
	}
	return err
}

// fillSocialImages generates cards for blank image URLs and for URLs this
// generator produced earlier, so a changed meta title gets a fresh card.
// Hand-set URLs are left alone.
func (s *blogService) fillSocialImages(ctx context.Context, p *models.BlogPost, postSlug string) {
	if _, err := s.renderSocialImages(ctx, p, postSlug, false); err != nil {
		s.log.Warn().Err(err).Str("slug", postSlug).Msg("Social image generation failed")
	}
}

// renderSocialImages reports whether it replaced any image URL. force also
// replaces hand-set URLs.
func (s *blogService) renderSocialImages(ctx context.Context, p *models.BlogPost, postSlug string, force bool) (bool, error) {
	if s.images == nil {
		return false, nil
	}
	ogAuto := force || p.OGImageURL == "" || s.images.Owns(p.OGImageURL)
	twitterAuto := force || p.TwitterImageURL == "" || s.images.Owns(p.TwitterImageURL)
	if !ogAuto && !twitterAuto {
		return false, nil
	}

	text := strings.TrimSpace(p.MetaTitle)
	if text == "" {
		text = p.Title
	}
	imgs, err := s.images.Generate(ctx, text, postSlug)
	if err != nil {
		return false, err
	}
	if ogAuto {
		p.OGImageURL = imgs.OG
	}
	if twitterAuto {
		p.TwitterImageURL = imgs.Twitter
	}
	return true, nil
}

// RegenerateSocialImages re-renders social cards for one post, or for every
// post when postSlug is blank, and stores the new URLs. Without force, posts
// whose image URLs were both set by hand are skipped.
func (s *blogService) RegenerateSocialImages(ctx context.Context, postSlug string, force bool) (int, error) {
	if s.images == nil {
		return 0, errors.New("social image generation is not configured")
	}

	var posts []*models.BlogPost
	if postSlug != "" {
		p, err := s.repo.GetBySlug(ctx, postSlug)
		if err != nil {
			return 0, err
		}
		if p == nil {
			return 0, ErrNotFound
		}
		posts = append(posts, p)
	} else {
		all, _, err := s.repo.List(ctx, nil, repository.BlogFilter{})
		if err != nil {
			return 0, fmt.Errorf("list blog posts: %w", err)
		}
		posts = all
	}

	updated := 0
	for _, p := range posts {
		changed, err := s.renderSocialImages(ctx, p, p.Slug, force)
		if err != nil {
			return updated, fmt.Errorf("social images for %s: %w", p.Slug, err)
		}
		if !changed {
			continue
		}
		if err := s.repo.Update(ctx, p); err != nil {
			return updated, fmt.Errorf("save blog post %s: %w", p.Slug, err)
		}
		updated++
		s.log.Info().Str("slug", p.Slug).Msg("Social images regenerated")
	}
	return updated, nil
}

// Get returns a publicly visible post
func (s *blogService) Get(ctx context.Context, postSlug string) (*models.BlogPost, error) {
	p, err := s.repo.GetBySlug(ctx, postSlug)
	if err != nil {
		return nil, err
	}
	if p == nil || !publish.IsVisible(p.Status, p.PublishedAt, s.now()) {
		return nil, ErrNotFound
	}
	return p, nil
}

// List returns visible posts matching q, newest first
func (s *blogService) List(ctx context.Context, q BlogQuery) (*BlogPage, error) {
	page, pageSize := normalizePage(q.Page, q.PageSize)
	filter := repository.BlogFilter{
		Category: q.Category,
		Tag:      q.Tag,
		Query:    strings.TrimSpace(q.Query),
		Year:     q.Year,
		Limit:    pageSize,
		Offset:   (page - 1) * pageSize,
	}
	vis := publish.Public(s.now())

	posts, total, err := s.repo.List(ctx, vis, filter)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	p := newPagination(page, pageSize, total)
	if p.TotalPages > 0 && page > p.TotalPages {
		filter.Offset = (p.TotalPages - 1) * pageSize
		if posts, total, err = s.repo.List(ctx, vis, filter); err != nil {
			return nil, fmt.Errorf("list posts: %w", err)
		}
		p = newPagination(p.TotalPages, pageSize, total)
	}

	return &BlogPage{Posts: posts, Pagination: p, NoIndex: q.Filtered()}, nil
}

// Recent returns the n newest visible posts
func (s *blogService) Recent(ctx context.Context, n int) ([]*models.BlogPost, error) {
	posts, _, err := s.repo.List(ctx, publish.Public(s.now()), repository.BlogFilter{Limit: n})
	return posts, err
}
