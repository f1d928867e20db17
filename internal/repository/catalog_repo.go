package repository

import (
	"context"
	"database/sql"

	"github.com/technofatty/technofatty/internal/database"
	"github.com/technofatty/technofatty/internal/models"
)

const toolColumns = `id, title, slug, description, image, external_url, schema_kind, is_published,
	is_premium, display_order, created_at, updated_at`

// toolRepo is the concrete implementation of ToolRepository
type toolRepo struct {
	db *database.DB
}

// NewToolRepo creates a new tool repository
func NewToolRepo(db *database.DB) ToolRepository {
	return &toolRepo{db: db}
}

func (r *toolRepo) Create(ctx context.Context, t *models.Tool) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tools (`+toolColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, t.ID, t.Title, t.Slug, t.Description, t.Image, t.ExternalURL, t.SchemaKind, t.IsPublished,
		t.IsPremium, t.DisplayOrder, t.CreatedAt, t.UpdatedAt)
	return translate(err, "tools_slug_key")
}

func (r *toolRepo) Update(ctx context.Context, t *models.Tool) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE tools SET title = $1, slug = $2, description = $3, image = $4, external_url = $5,
			schema_kind = $6, is_published = $7, is_premium = $8, display_order = $9, updated_at = $10
		WHERE id = $11
	`, t.Title, t.Slug, t.Description, t.Image, t.ExternalURL, t.SchemaKind, t.IsPublished,
		t.IsPremium, t.DisplayOrder, t.UpdatedAt, t.ID)
	return translate(err, "tools_slug_key")
}

func scanTool(s scanner) (*models.Tool, error) {
	var t models.Tool
	err := s.Scan(&t.ID, &t.Title, &t.Slug, &t.Description, &t.Image, &t.ExternalURL, &t.SchemaKind,
		&t.IsPublished, &t.IsPremium, &t.DisplayOrder, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *toolRepo) getOne(ctx context.Context, column, value string) (*models.Tool, error) {
	t, err := scanTool(r.db.QueryRowContext(ctx, `SELECT `+toolColumns+` FROM tools WHERE `+column+` = $1`, value))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return t, err
}

func (r *toolRepo) GetByID(ctx context.Context, id string) (*models.Tool, error) {
	return r.getOne(ctx, "id", id)
}

func (r *toolRepo) GetBySlug(ctx context.Context, slug string) (*models.Tool, error) {
	return r.getOne(ctx, "slug", slug)
}

func (r *toolRepo) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM tools WHERE slug = $1 AND id::text <> $2)", slug, excludeID,
	).Scan(&exists)
	return exists, err
}

// ListPublished returns published tools ordered by display order then title
func (r *toolRepo) ListPublished(ctx context.Context) ([]*models.Tool, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+toolColumns+` FROM tools WHERE is_published ORDER BY display_order, title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tools []*models.Tool
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, err
		}
		tools = append(tools, t)
	}
	return tools, rows.Err()
}

const caseStudyColumns = `id, title, slug, summary, body, image, display_order, is_published, created_at, updated_at`

// caseStudyRepo is the concrete implementation of CaseStudyRepository
type caseStudyRepo struct {
	db *database.DB
}

// NewCaseStudyRepo creates a new case study repository
func NewCaseStudyRepo(db *database.DB) CaseStudyRepository {
	return &caseStudyRepo{db: db}
}

func (r *caseStudyRepo) Create(ctx context.Context, c *models.CaseStudy) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO case_studies (`+caseStudyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, c.ID, c.Title, c.Slug, c.Summary, c.Body, c.Image, c.DisplayOrder, c.IsPublished, c.CreatedAt, c.UpdatedAt)
	return translate(err, "case_studies_slug_key")
}

func (r *caseStudyRepo) Update(ctx context.Context, c *models.CaseStudy) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE case_studies SET title = $1, slug = $2, summary = $3, body = $4, image = $5,
			display_order = $6, is_published = $7, updated_at = $8
		WHERE id = $9
	`, c.Title, c.Slug, c.Summary, c.Body, c.Image, c.DisplayOrder, c.IsPublished, c.UpdatedAt, c.ID)
	return translate(err, "case_studies_slug_key")
}

func scanCaseStudy(s scanner) (*models.CaseStudy, error) {
	var c models.CaseStudy
	err := s.Scan(&c.ID, &c.Title, &c.Slug, &c.Summary, &c.Body, &c.Image, &c.DisplayOrder,
		&c.IsPublished, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *caseStudyRepo) getOne(ctx context.Context, column, value string) (*models.CaseStudy, error) {
	c, err := scanCaseStudy(r.db.QueryRowContext(ctx, `SELECT `+caseStudyColumns+` FROM case_studies WHERE `+column+` = $1`, value))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

func (r *caseStudyRepo) GetByID(ctx context.Context, id string) (*models.CaseStudy, error) {
	return r.getOne(ctx, "id", id)
}

func (r *caseStudyRepo) GetBySlug(ctx context.Context, slug string) (*models.CaseStudy, error) {
	return r.getOne(ctx, "slug", slug)
}

func (r *caseStudyRepo) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM case_studies WHERE slug = $1 AND id::text <> $2)", slug, excludeID,
	).Scan(&exists)
	return exists, err
}

// ListPublished returns published case studies ordered by display order then title
func (r *caseStudyRepo) ListPublished(ctx context.Context) ([]*models.CaseStudy, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+caseStudyColumns+` FROM case_studies WHERE is_published ORDER BY display_order, title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var studies []*models.CaseStudy
	for rows.Next() {
		c, err := scanCaseStudy(rows)
		if err != nil {
			return nil, err
		}
		studies = append(studies, c)
	}
	return studies, rows.Err()
}
