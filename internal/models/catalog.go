package models

import (
	"time"
)

// Tool is an entry in the tools directory.
type Tool struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Slug         string    `json:"slug" db:"slug"`
	Description  string    `json:"description" db:"description"`
	Image        string    `json:"image" db:"image"`
	ExternalURL  string    `json:"external_url" db:"external_url"`
	SchemaKind   string    `json:"schema_kind" db:"schema_kind"`
	IsPublished  bool      `json:"is_published" db:"is_published"`
	IsPremium    bool      `json:"is_premium" db:"is_premium"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Path returns the tool's public path.
func (t *Tool) Path() string {
	return "/tools/" + t.Slug + "/"
}

// CaseStudy is a customer story.
type CaseStudy struct {
	ID           string    `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Slug         string    `json:"slug" db:"slug"`
	Summary      string    `json:"summary" db:"summary"`
	Body         string    `json:"body" db:"body"`
	Image        string    `json:"image" db:"image"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
	IsPublished  bool      `json:"is_published" db:"is_published"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Path returns the case study's public path.
func (c *CaseStudy) Path() string {
	return "/case-studies/" + c.Slug + "/"
}
