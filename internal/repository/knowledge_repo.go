package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/technofatty/technofatty/internal/database"
	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/publish"
)

const articleColumns = `a.id, a.category_id, a.author_id, a.title, a.slug, a.status, a.subtype, a.blurb,
	a.content, a.published_at, a.reading_time, a.attribution, a.image, a.image_alt, a.motif,
	a.meta_title, a.meta_description, a.canonical_url, a.og_title, a.og_description, a.og_image_url,
	a.twitter_title, a.twitter_description, a.twitter_image_url, a.created_at, a.updated_at,
	c.id, c.title, c.slug, c.status`

const articleFrom = ` FROM knowledge_articles a JOIN knowledge_categories c ON c.id = a.category_id`

// knowledgeRepo is the concrete implementation of KnowledgeRepository
type knowledgeRepo struct {
	db *database.DB
}

// NewKnowledgeRepo creates a new knowledge repository
func NewKnowledgeRepo(db *database.DB) KnowledgeRepository {
	return &knowledgeRepo{db: db}
}

// CreateArticle inserts a new article
func (r *knowledgeRepo) CreateArticle(ctx context.Context, a *models.KnowledgeArticle) error {
	query := `
		INSERT INTO knowledge_articles (id, category_id, author_id, title, slug, status, subtype, blurb,
			content, published_at, reading_time, attribution, image, image_alt, motif,
			meta_title, meta_description, canonical_url, og_title, og_description, og_image_url,
			twitter_title, twitter_description, twitter_image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)
	`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.CategoryID, nullString(a.AuthorID), a.Title, a.Slug, a.Status, a.Subtype, a.Blurb,
		a.Content, a.PublishedAt, a.ReadingTime, a.Attribution, a.Image, a.ImageAlt, a.Motif,
		a.MetaTitle, a.MetaDescription, a.CanonicalURL, a.OGTitle, a.OGDescription, a.OGImageURL,
		a.TwitterTitle, a.TwitterDescription, a.TwitterImageURL, a.CreatedAt, a.UpdatedAt,
	)
	return translate(err, "knowledge_articles_slug_key")
}

// UpdateArticle overwrites every editable column
func (r *knowledgeRepo) UpdateArticle(ctx context.Context, a *models.KnowledgeArticle) error {
	query := `
		UPDATE knowledge_articles SET
			category_id = $1, author_id = $2, title = $3, slug = $4, status = $5, subtype = $6,
			blurb = $7, content = $8, published_at = $9, reading_time = $10, attribution = $11,
			image = $12, image_alt = $13, motif = $14, meta_title = $15, meta_description = $16,
			canonical_url = $17, og_title = $18, og_description = $19, og_image_url = $20,
			twitter_title = $21, twitter_description = $22, twitter_image_url = $23, updated_at = $24
		WHERE id = $25
	`
	_, err := r.db.ExecContext(ctx, query,
		a.CategoryID, nullString(a.AuthorID), a.Title, a.Slug, a.Status, a.Subtype,
		a.Blurb, a.Content, a.PublishedAt, a.ReadingTime, a.Attribution,
		a.Image, a.ImageAlt, a.Motif, a.MetaTitle, a.MetaDescription,
		a.CanonicalURL, a.OGTitle, a.OGDescription, a.OGImageURL,
		a.TwitterTitle, a.TwitterDescription, a.TwitterImageURL, a.UpdatedAt, a.ID,
	)
	return translate(err, "knowledge_articles_slug_key")
}

func scanArticle(s scanner) (*models.KnowledgeArticle, error) {
	var a models.KnowledgeArticle
	var c models.KnowledgeCategory
	var authorID sql.NullString
	var publishedAt sql.NullTime
	var readingTime sql.NullInt64

	err := s.Scan(
		&a.ID, &a.CategoryID, &authorID, &a.Title, &a.Slug, &a.Status, &a.Subtype, &a.Blurb,
		&a.Content, &publishedAt, &readingTime, &a.Attribution, &a.Image, &a.ImageAlt, &a.Motif,
		&a.MetaTitle, &a.MetaDescription, &a.CanonicalURL, &a.OGTitle, &a.OGDescription, &a.OGImageURL,
		&a.TwitterTitle, &a.TwitterDescription, &a.TwitterImageURL, &a.CreatedAt, &a.UpdatedAt,
		&c.ID, &c.Title, &c.Slug, &c.Status,
	)
	if err != nil {
		return nil, err
	}

	a.AuthorID = authorID.String
	a.PublishedAt = timePtr(publishedAt)
	a.ReadingTime = intPtr(readingTime)
	a.Category = &c
	return &a, nil
}

func (r *knowledgeRepo) getOne(ctx context.Context, w *where) (*models.KnowledgeArticle, error) {
	query := `SELECT ` + articleColumns + articleFrom + w.String()
	a, err := scanArticle(r.db.QueryRowContext(ctx, query, w.args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadTags(ctx, []*models.KnowledgeArticle{a}); err != nil {
		return nil, err
	}
	return a, nil
}

// GetArticleByID retrieves an article regardless of status
func (r *knowledgeRepo) GetArticleByID(ctx context.Context, id string) (*models.KnowledgeArticle, error) {
	w := &where{}
	w.add("a.id = ?", id)
	return r.getOne(ctx, w)
}

// GetArticleBySlug retrieves an article by category and article slug
func (r *knowledgeRepo) GetArticleBySlug(ctx context.Context, categorySlug, slug string) (*models.KnowledgeArticle, error) {
	w := &where{}
	w.add("c.slug = ?", categorySlug)
	w.add("a.slug = ?", slug)
	return r.getOne(ctx, w)
}

// ArticleSlugExists checks if another article already uses slug
func (r *knowledgeRepo) ArticleSlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM knowledge_articles WHERE slug = $1 AND id::text <> $2)",
		slug, excludeID,
	).Scan(&exists)
	return exists, err
}

func knowledgeWhere(vis publish.Visibility, f KnowledgeFilter) *where {
	w := &where{}
	w.visibility(vis, "a")
	if f.Category != "" {
		w.add("c.slug = ?", f.Category)
	}
	if f.Tag != "" {
		w.add(`EXISTS (SELECT 1 FROM knowledge_article_tags kat JOIN knowledge_tags t ON t.id = kat.tag_id
			WHERE kat.article_id = a.id AND t.slug = ?)`, f.Tag)
	}
	if f.Query != "" {
		p := likePattern(f.Query)
		w.add(`(a.title ILIKE ? OR a.blurb ILIKE ? OR EXISTS (SELECT 1 FROM knowledge_article_tags kat
			JOIN knowledge_tags t ON t.id = kat.tag_id WHERE kat.article_id = a.id AND t.name ILIKE ?))`, p, p, p)
	}
	if f.MaxTime > 0 {
		w.add("a.reading_time <= ?", f.MaxTime)
	}
	if f.Subtype != "" {
		w.add("a.subtype = ?", f.Subtype)
	}
	return w
}

// ListArticles returns one page of matching articles, newest first, and the total match count
func (r *knowledgeRepo) ListArticles(ctx context.Context, vis publish.Visibility, f KnowledgeFilter) ([]*models.KnowledgeArticle, int, error) {
	w := knowledgeWhere(vis, f)

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*)"+articleFrom+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + articleColumns + articleFrom + w.String() +
		` ORDER BY a.published_at DESC NULLS LAST, a.id` + w.page(f.Limit, f.Offset)
	articles, err := r.queryArticles(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	return articles, total, nil
}

// RelatedArticles returns visible articles other than article that share its
// category or at least one of its tags, newest first.
func (r *knowledgeRepo) RelatedArticles(ctx context.Context, vis publish.Visibility, article *models.KnowledgeArticle, limit int) ([]*models.KnowledgeArticle, error) {
	tagIDs := make([]string, 0, len(article.Tags))
	for _, t := range article.Tags {
		tagIDs = append(tagIDs, t.ID)
	}

	w := &where{}
	w.visibility(vis, "a")
	w.add("a.id <> ?", article.ID)
	w.add(`(a.category_id = ? OR EXISTS (SELECT 1 FROM knowledge_article_tags kat
		WHERE kat.article_id = a.id AND kat.tag_id::text = ANY(?)))`, article.CategoryID, pq.Array(tagIDs))

	query := `SELECT ` + articleColumns + articleFrom + w.String() +
		` ORDER BY a.published_at DESC NULLS LAST, a.id` + w.page(limit, 0)
	return r.queryArticles(ctx, query, w.args...)
}

func (r *knowledgeRepo) queryArticles(ctx context.Context, query string, args ...interface{}) ([]*models.KnowledgeArticle, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var articles []*models.KnowledgeArticle
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.loadTags(ctx, articles); err != nil {
		return nil, err
	}
	return articles, nil
}

// loadTags fills Tags for every article in one query
func (r *knowledgeRepo) loadTags(ctx context.Context, articles []*models.KnowledgeArticle) error {
	if len(articles) == 0 {
		return nil
	}
	byID := make(map[string]*models.KnowledgeArticle, len(articles))
	ids := make([]string, 0, len(articles))
	for _, a := range articles {
		byID[a.ID] = a
		ids = append(ids, a.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT kat.article_id, t.id, t.name, t.slug
		FROM knowledge_article_tags kat JOIN knowledge_tags t ON t.id = kat.tag_id
		WHERE kat.article_id::text = ANY($1)
		ORDER BY t.name
	`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var articleID string
		var t models.KnowledgeTag
		if err := rows.Scan(&articleID, &t.ID, &t.Name, &t.Slug); err != nil {
			return err
		}
		if a, ok := byID[articleID]; ok {
			a.Tags = append(a.Tags, t)
		}
	}
	return rows.Err()
}

// PublishDue flips scheduled drafts whose publish time has arrived. Rows are
// claimed in a single UPDATE so concurrent runners never publish one twice.
func (r *knowledgeRepo) PublishDue(ctx context.Context, now time.Time) ([]*models.KnowledgeArticle, error) {
	rows, err := r.db.QueryContext(ctx, `
		UPDATE knowledge_articles SET status = 'published', updated_at = $1
		WHERE status = 'draft' AND published_at IS NOT NULL AND published_at <= $1
		RETURNING id, slug, category_id, published_at
	`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var published []*models.KnowledgeArticle
	for rows.Next() {
		var a models.KnowledgeArticle
		var publishedAt sql.NullTime
		if err := rows.Scan(&a.ID, &a.Slug, &a.CategoryID, &publishedAt); err != nil {
			return nil, err
		}
		a.Status = models.StatusPublished
		a.PublishedAt = timePtr(publishedAt)
		published = append(published, &a)
	}
	return published, rows.Err()
}

// CreateCategory inserts a new category
func (r *knowledgeRepo) CreateCategory(ctx context.Context, c *models.KnowledgeCategory) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO knowledge_categories (id, title, slug, status, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Title, c.Slug, c.Status, c.Description, c.CreatedAt, c.UpdatedAt)
	return translate(err, "knowledge_categories_slug_key")
}

func (r *knowledgeRepo) getCategory(ctx context.Context, column, value string) (*models.KnowledgeCategory, error) {
	var c models.KnowledgeCategory
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, slug, status, description, created_at, updated_at
		FROM knowledge_categories WHERE `+column+` = $1
	`, value).Scan(&c.ID, &c.Title, &c.Slug, &c.Status, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetCategoryByID retrieves a category by ID
func (r *knowledgeRepo) GetCategoryByID(ctx context.Context, id string) (*models.KnowledgeCategory, error) {
	return r.getCategory(ctx, "id", id)
}

// GetCategoryBySlug retrieves a category by slug
func (r *knowledgeRepo) GetCategoryBySlug(ctx context.Context, slug string) (*models.KnowledgeCategory, error) {
	return r.getCategory(ctx, "slug", slug)
}

// CategorySlugExists checks if a category with the given slug exists
func (r *knowledgeRepo) CategorySlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM knowledge_categories WHERE slug = $1)", slug).Scan(&exists)
	return exists, err
}

// ListCategories returns categories ordered by title
func (r *knowledgeRepo) ListCategories(ctx context.Context, publishedOnly bool) ([]*models.KnowledgeCategory, error) {
	query := `SELECT id, title, slug, status, description, created_at, updated_at FROM knowledge_categories`
	if publishedOnly {
		query += ` WHERE status = 'published'`
	}
	query += ` ORDER BY title`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []*models.KnowledgeCategory
	for rows.Next() {
		var c models.KnowledgeCategory
		if err := rows.Scan(&c.ID, &c.Title, &c.Slug, &c.Status, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// CreateTag inserts a new tag
func (r *knowledgeRepo) CreateTag(ctx context.Context, t *models.KnowledgeTag) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO knowledge_tags (id, name, slug) VALUES ($1, $2, $3)`, t.ID, t.Name, t.Slug)
	return translate(err, "knowledge_tags_slug_key")
}

// GetTagBySlug retrieves a tag by slug
func (r *knowledgeRepo) GetTagBySlug(ctx context.Context, slug string) (*models.KnowledgeTag, error) {
	var t models.KnowledgeTag
	err := r.db.QueryRowContext(ctx, `SELECT id, name, slug FROM knowledge_tags WHERE slug = $1`, slug).Scan(&t.ID, &t.Name, &t.Slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// TagSlugExists checks if a tag with the given slug exists
func (r *knowledgeRepo) TagSlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM knowledge_tags WHERE slug = $1)", slug).Scan(&exists)
	return exists, err
}

// SetArticleTags replaces an article's tag set in one transaction
func (r *knowledgeRepo) SetArticleTags(ctx context.Context, articleID string, tagIDs []string) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM knowledge_article_tags WHERE article_id = $1`, articleID); err != nil {
			return err
		}
		if len(tagIDs) == 0 {
			return nil
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO knowledge_article_tags (article_id, tag_id)
			SELECT $1, unnest($2::uuid[])
			ON CONFLICT DO NOTHING
		`, articleID, pq.Array(tagIDs))
		return err
	})
}
