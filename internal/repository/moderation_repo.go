package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/technofatty/technofatty/internal/database"
	"github.com/technofatty/technofatty/internal/models"
)

const reportColumns = `id, target_type, target_id, reason, ip_hash, status, created_at, claimed_at, resolved_at`

// moderationRepo is the concrete implementation of ModerationRepository
type moderationRepo struct {
	db *database.DB
}

// NewModerationRepo creates a new moderation repository
func NewModerationRepo(db *database.DB) ModerationRepository {
	return &moderationRepo{db: db}
}

// CreateReport appends a report to the queue
func (r *moderationRepo) CreateReport(ctx context.Context, m *models.ModerationReport) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO moderation_reports (id, target_type, target_id, reason, ip_hash, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, m.ID, m.TargetType, m.TargetID, m.Reason, m.IPHash, m.Status, m.CreatedAt)
	return err
}

func scanReport(s scanner) (*models.ModerationReport, error) {
	var m models.ModerationReport
	var claimedAt, resolvedAt sql.NullTime
	err := s.Scan(&m.ID, &m.TargetType, &m.TargetID, &m.Reason, &m.IPHash, &m.Status,
		&m.CreatedAt, &claimedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}
	m.ClaimedAt = timePtr(claimedAt)
	m.ResolvedAt = timePtr(resolvedAt)
	return &m, nil
}

// ListReports returns reports in a status, oldest first. An empty status lists all.
func (r *moderationRepo) ListReports(ctx context.Context, status models.ReportStatus, limit int) ([]*models.ModerationReport, error) {
	w := &where{}
	if status != "" {
		w.add("status = ?", status)
	}
	query := `SELECT ` + reportColumns + ` FROM moderation_reports` + w.String() + ` ORDER BY created_at` + w.page(limit, 0)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*models.ModerationReport
	for rows.Next() {
		m, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, m)
	}
	return reports, rows.Err()
}

// ClaimNextReport atomically moves the oldest pending report to reviewing.
// SKIP LOCKED lets several moderators claim concurrently without blocking.
func (r *moderationRepo) ClaimNextReport(ctx context.Context, now time.Time) (*models.ModerationReport, error) {
	query := `
		UPDATE moderation_reports SET status = 'reviewing', claimed_at = $1
		WHERE id = (
			SELECT id FROM moderation_reports WHERE status = 'pending'
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		) AND status = 'pending'
		RETURNING ` + reportColumns
	m, err := scanReport(r.db.QueryRowContext(ctx, query, now))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return m, err
}

// ResolveReport closes a report that is not already closed
func (r *moderationRepo) ResolveReport(ctx context.Context, id string, status models.ReportStatus, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE moderation_reports SET status = $1, resolved_at = $2
		WHERE id = $3 AND status IN ('pending', 'reviewing')
	`, status, now, id)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

// CreatePost queues a community post for review
func (r *moderationRepo) CreatePost(ctx context.Context, p *models.CommunityPost) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO community_posts (id, thread_slug, author_name, body, ip_hash, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.ThreadSlug, p.AuthorName, p.Body, p.IPHash, p.Status, p.CreatedAt)
	return err
}

// ListPosts returns posts in a status, oldest first. An empty status lists all.
func (r *moderationRepo) ListPosts(ctx context.Context, status models.PostStatus, limit int) ([]*models.CommunityPost, error) {
	w := &where{}
	if status != "" {
		w.add("status = ?", status)
	}
	query := `SELECT id, thread_slug, author_name, body, ip_hash, status, created_at, reviewed_at
		FROM community_posts` + w.String() + ` ORDER BY created_at` + w.page(limit, 0)

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*models.CommunityPost
	for rows.Next() {
		var p models.CommunityPost
		var reviewedAt sql.NullTime
		if err := rows.Scan(&p.ID, &p.ThreadSlug, &p.AuthorName, &p.Body, &p.IPHash, &p.Status,
			&p.CreatedAt, &reviewedAt); err != nil {
			return nil, err
		}
		p.ReviewedAt = timePtr(reviewedAt)
		posts = append(posts, &p)
	}
	return posts, rows.Err()
}

// ReviewPost approves or rejects a pending post
func (r *moderationRepo) ReviewPost(ctx context.Context, id string, status models.PostStatus, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE community_posts SET status = $1, reviewed_at = $2
		WHERE id = $3 AND status = 'pending'
	`, status, now, id)
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}
