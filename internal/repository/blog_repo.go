package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/technofatty/technofatty/internal/database"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/publish"
)

const blogColumns = `id, title, slug, status, excerpt, content, published_at, category_slug, category_title,
	tags, primary_goal, meta_title, meta_description, canonical_url, og_title, og_description,
	og_image_url, twitter_title, twitter_description, twitter_image_url, created_at, updated_at`

// blogRepo is the concrete implementation of BlogRepository
type blogRepo struct {
	db *database.DB
}

// NewBlogRepo creates a new blog repository
func NewBlogRepo(db *database.DB) BlogRepository {
	return &blogRepo{db: db}
}

func tagsJSON(tags []models.BlogTag) []byte {
	if tags == nil {
		return []byte("[]")
	}
	raw, _ := json.Marshal(tags)
	return raw
}

// Create inserts a new post
func (r *blogRepo) Create(ctx context.Context, p *models.BlogPost) error {
	query := `
		INSERT INTO blog_posts (` + blogColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.Title, p.Slug, p.Status, p.Excerpt, p.Content, p.PublishedAt, p.CategorySlug, p.CategoryTitle,
		tagsJSON(p.Tags), p.PrimaryGoal, p.MetaTitle, p.MetaDescription, p.CanonicalURL, p.OGTitle, p.OGDescription,
		p.OGImageURL, p.TwitterTitle, p.TwitterDescription, p.TwitterImageURL, p.CreatedAt, p.UpdatedAt,
	)
	return translate(err, "blog_posts_slug_key")
}

// Update overwrites every editable column
func (r *blogRepo) Update(ctx context.Context, p *models.BlogPost) error {
	query := `
		UPDATE blog_posts SET
			title = $1, slug = $2, status = $3, excerpt = $4, content = $5, published_at = $6,
			category_slug = $7, category_title = $8, tags = $9, primary_goal = $10,
			meta_title = $11, meta_description = $12, canonical_url = $13, og_title = $14,
			og_description = $15, og_image_url = $16, twitter_title = $17, twitter_description = $18,
			twitter_image_url = $19, updated_at = $20
		WHERE id = $21
	`
	_, err := r.db.ExecContext(ctx, query,
		p.Title, p.Slug, p.Status, p.Excerpt, p.Content, p.PublishedAt,
		p.CategorySlug, p.CategoryTitle, tagsJSON(p.Tags), p.PrimaryGoal,
		p.MetaTitle, p.MetaDescription, p.CanonicalURL, p.OGTitle,
		p.OGDescription, p.OGImageURL, p.TwitterTitle, p.TwitterDescription,
		p.TwitterImageURL, p.UpdatedAt, p.ID,
	)
	return translate(err, "blog_posts_slug_key")
}

func scanPost(s scanner) (*models.BlogPost, error) {
	var p models.BlogPost
	var tags []byte
	var publishedAt sql.NullTime

	err := s.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Status, &p.Excerpt, &p.Content, &publishedAt, &p.CategorySlug, &p.CategoryTitle,
		&tags, &p.PrimaryGoal, &p.MetaTitle, &p.MetaDescription, &p.CanonicalURL, &p.OGTitle, &p.OGDescription,
		&p.OGImageURL, &p.TwitterTitle, &p.TwitterDescription, &p.TwitterImageURL, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	json.Unmarshal(tags, &p.Tags)
	p.PublishedAt = timePtr(publishedAt)
	return &p, nil
}

func (r *blogRepo) getOne(ctx context.Context, column, value string) (*models.BlogPost, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, `SELECT `+blogColumns+` FROM blog_posts WHERE `+column+` = $1`, value))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// GetByID retrieves a post regardless of status
func (r *blogRepo) GetByID(ctx context.Context, id string) (*models.BlogPost, error) {
	return r.getOne(ctx, "id", id)
}

// GetBySlug retrieves a post regardless of status
func (r *blogRepo) GetBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	return r.getOne(ctx, "slug", slug)
}

// SlugExists checks if another post already uses slug
func (r *blogRepo) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM blog_posts WHERE slug = $1 AND id::text <> $2)",
		slug, excludeID,
	).Scan(&exists)
	return exists, err
}

// List returns one page of matching posts, newest first, and the total match count
func (r *blogRepo) List(ctx context.Context, vis publish.Visibility, f BlogFilter) ([]*models.BlogPost, int, error) {
	w := &where{}
	w.visibility(vis, "")
	if f.Category != "" {
		w.add("category_slug = ?", f.Category)
	}
	if f.Tag != "" {
		containment, _ := json.Marshal([]map[string]string{{"slug": f.Tag}})
		w.add("tags @> ?::jsonb", string(containment))
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		w.add(`(title ILIKE ? OR excerpt ILIKE ? OR EXISTS (
			SELECT 1 FROM jsonb_array_elements(tags) tag WHERE tag->>'title' ILIKE ?))`, p, p, p)
	}
	if f.Year > 0 {
		w.add("EXTRACT(YEAR FROM published_at) = ?", f.Year)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM blog_posts"+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + blogColumns + ` FROM blog_posts` + w.String() +
		` ORDER BY published_at DESC NULLS LAST, id` + w.page(f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var posts []*models.BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, p)
	}
	return posts, total, rows.Err()
}
