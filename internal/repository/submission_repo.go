package repository

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/technofatty/technofatty/internal/database"
	"github.com/technofatty/technofatty/internal/models"
)

// contactEventRepo is the concrete implementation of ContactEventRepository
type contactEventRepo struct {
	db *database.DB
}

// NewContactEventRepo creates a new contact event repository
func NewContactEventRepo(db *database.DB) ContactEventRepository {
	return &contactEventRepo{db: db}
}

// Create inserts one event; meta is stored as JSONB
func (r *contactEventRepo) Create(ctx context.Context, e *models.ContactEvent) error {
	meta, err := json.Marshal(e.Meta)
	if err != nil {
		return err
	}
	if e.Meta == nil {
		meta = []byte("{}")
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO contact_events (id, event_type, meta, ip_hash, timestamp)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.EventType, meta, e.IPHash, e.Timestamp)
	return err
}

// ListRecent returns the newest events first
func (r *contactEventRepo) ListRecent(ctx context.Context, limit int) ([]*models.ContactEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, event_type, meta, ip_hash, timestamp
		FROM contact_events ORDER BY timestamp DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.ContactEvent
	for rows.Next() {
		var e models.ContactEvent
		var meta []byte
		if err := rows.Scan(&e.ID, &e.EventType, &meta, &e.IPHash, &e.Timestamp); err != nil {
			return nil, err
		}
		json.Unmarshal(meta, &e.Meta)
		events = append(events, &e)
	}
	return events, rows.Err()
}

// leadRepo is the concrete implementation of LeadRepository
type leadRepo struct {
	db *database.DB
}

// NewLeadRepo creates a new newsletter lead repository
func NewLeadRepo(db *database.DB) LeadRepository {
	return &leadRepo{db: db}
}

// Create inserts a lead. A second signup for the same email returns ErrDuplicate.
func (r *leadRepo) Create(ctx context.Context, l *models.NewsletterLead) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO newsletter_leads (id, email, ip, ua, source, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, l.ID, l.Email, nullString(l.IP), nullString(l.UA), l.Source, l.Status, l.CreatedAt)
	return translate(err, "")
}

// Count returns the total number of leads
func (r *leadRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM newsletter_leads").Scan(&count)
	return count, err
}

// StreamAll streams all leads for export
func (r *leadRepo) StreamAll(ctx context.Context, callback func(*models.NewsletterLead) error) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, email, ip, ua, source, status, created_at
		FROM newsletter_leads ORDER BY created_at
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l models.NewsletterLead
		var ip, ua sql.NullString
		if err := rows.Scan(&l.ID, &l.Email, &ip, &ua, &l.Source, &l.Status, &l.CreatedAt); err != nil {
			return err
		}
		l.IP = ip.String
		l.UA = ua.String

		if err := callback(&l); err != nil {
			return err
		}
	}

	return rows.Err()
}
