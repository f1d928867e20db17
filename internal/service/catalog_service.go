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
	"github.com/technofatty/technofatty/internal/repository"
	"github.com/technofatty/technofatty/internal/validation"
)

const (
	kindTool      = "tool"
	kindCaseStudy = "case_study"
)

// catalogService is the concrete implementation of CatalogService
type catalogService struct {
	tools       repository.ToolRepository
	caseStudies repository.CaseStudyRepository
	sitemap     SitemapService
	publisher   events.Publisher
	now         func() time.Time
	log         zerolog.Logger
}

func newCatalogService(
	tools repository.ToolRepository,
	caseStudies repository.CaseStudyRepository,
	sitemap SitemapService,
	publisher events.Publisher,
	now func() time.Time,
	log zerolog.Logger,
) *catalogService {
	return &catalogService{
		tools:       tools,
		caseStudies: caseStudies,
		sitemap:     sitemap,
		publisher:   publisher,
		now:         now,
		log:         log.With().Str("service", "catalog").Logger(),
	}
}

func publishedStatus(published bool) string {
	if published {
		return string(models.StatusPublished)
	}
	return string(models.StatusDraft)
}

// SaveTool creates or updates a tools directory entry and clears the sitemap cache
func (s *catalogService) SaveTool(ctx context.Context, t *models.Tool) error {
	if errs := validation.ValidateTool(t); len(errs) > 0 {
		return errs
	}

	now := s.now()
	isNew := t.ID == ""
	wasPublished := false
	if isNew {
		t.ID = uuid.New().String()
		t.CreatedAt = now
	} else {
		existing, err := s.tools.GetByID(ctx, t.ID)
		if err != nil {
			return fmt.Errorf("load tool: %w", err)
		}
		if existing == nil {
			return ErrNotFound
		}
		t.CreatedAt = existing.CreatedAt
		wasPublished = existing.IsPublished
		if strings.TrimSpace(t.Slug) == "" {
			t.Slug = existing.Slug
		}
	}
	t.UpdatedAt = now

	exists := func(ctx context.Context, candidate string) (bool, error) {
		return s.tools.SlugExists(ctx, candidate, t.ID)
	}
	save := func(ctx context.Context, candidate string) error {
		t.Slug = candidate
		if isNew {
			return s.tools.Create(ctx, t)
		}
		return s.tools.Update(ctx, t)
	}
	if _, err := saveWithSlug(ctx, t.Slug, t.Title, "tool", exists, save); err != nil {
		if isNew {
			t.ID = ""
		}
		return err
	}

	s.sitemap.Invalidate(ctx)
	publishSaved(ctx, s.publisher, s.log, kindTool, t.ID, t.Slug, t.Path(), publishedStatus(t.IsPublished), t.IsPublished && !wasPublished)
	return nil
}

// SaveCaseStudy creates or updates a case study and clears the sitemap cache
func (s *catalogService) SaveCaseStudy(ctx context.Context, c *models.CaseStudy) error {
	if errs := validation.ValidateCaseStudy(c); len(errs) > 0 {
		return errs
	}

	now := s.now()
	isNew := c.ID == ""
	wasPublished := false
	if isNew {
		c.ID = uuid.New().String()
		c.CreatedAt = now
	} else {
		existing, err := s.caseStudies.GetByID(ctx, c.ID)
		if err != nil {
			return fmt.Errorf("load case study: %w", err)
		}
		if existing == nil {
			return ErrNotFound
		}
		c.CreatedAt = existing.CreatedAt
		wasPublished = existing.IsPublished
		if strings.TrimSpace(c.Slug) == "" {
			c.Slug = existing.Slug
		}
	}
	c.UpdatedAt = now

	exists := func(ctx context.Context, candidate string) (bool, error) {
		return s.caseStudies.SlugExists(ctx, candidate, c.ID)
	}
	save := func(ctx context.Context, candidate string) error {
		c.Slug = candidate
		if isNew {
			return s.caseStudies.Create(ctx, c)
		}
		return s.caseStudies.Update(ctx, c)
	}
	if _, err := saveWithSlug(ctx, c.Slug, c.Title, "case-study", exists, save); err != nil {
		if isNew {
			c.ID = ""
		}
		return err
	}

	s.sitemap.Invalidate(ctx)
	publishSaved(ctx, s.publisher, s.log, kindCaseStudy, c.ID, c.Slug, c.Path(), publishedStatus(c.IsPublished), c.IsPublished && !wasPublished)
	return nil
}

// GetTool returns a published tool
func (s *catalogService) GetTool(ctx context.Context, toolSlug string) (*models.Tool, error) {
	t, err := s.tools.GetBySlug(ctx, toolSlug)
	if err != nil {
		return nil, err
	}
	if t == nil || !t.IsPublished {
		return nil, ErrNotFound
	}
	return t, nil
}

// GetCaseStudy returns a published case study
func (s *catalogService) GetCaseStudy(ctx context.Context, csSlug string) (*models.CaseStudy, error) {
	c, err := s.caseStudies.GetBySlug(ctx, csSlug)
	if err != nil {
		return nil, err
	}
	if c == nil || !c.IsPublished {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *catalogService) ListTools(ctx context.Context) ([]*models.Tool, error) {
	return s.tools.ListPublished(ctx)
}

func (s *catalogService) ListCaseStudies(ctx context.Context) ([]*models.CaseStudy, error) {
	return s.caseStudies.ListPublished(ctx)
}
