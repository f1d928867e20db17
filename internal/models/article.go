package models

import (
	"time"
)

// Subtype classifies knowledge articles.
type Subtype string

const (
	SubtypeGuide    Subtype = "guide"
	SubtypeGlossary Subtype = "glossary"
	SubtypeSignal   Subtype = "signal"
	SubtypeQuickWin Subtype = "quick_win"
)

// ValidSubtypes defines allowed article subtypes
var ValidSubtypes = map[Subtype]bool{
	SubtypeGuide:    true,
	SubtypeGlossary: true,
	SubtypeSignal:   true,
	SubtypeQuickWin: true,
}

// KnowledgeCategory groups knowledge articles.
type KnowledgeCategory struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Slug        string    `json:"slug" db:"slug"`
	Status      Status    `json:"status" db:"status"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// KnowledgeTag is a free-form label on knowledge articles.
type KnowledgeTag struct {
	ID   string `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
	Slug string `json:"slug" db:"slug"`
}

// KnowledgeArticle is the main knowledge base content item.
type KnowledgeArticle struct {
	ID          string             `json:"id" db:"id"`
	CategoryID  string             `json:"category_id" db:"category_id"`
	Category    *KnowledgeCategory `json:"category,omitempty" db:"-"`
	AuthorID    string             `json:"author_id,omitempty" db:"author_id"`
	Title       string             `json:"title" db:"title"`
	Slug        string             `json:"slug" db:"slug"`
	Status      Status             `json:"status" db:"status"`
	Subtype     Subtype            `json:"subtype" db:"subtype"`
	Blurb       string             `json:"blurb" db:"blurb"`
	Content     string             `json:"content" db:"content"`
	PublishedAt *time.Time         `json:"published_at,omitempty" db:"published_at"`
	ReadingTime *int               `json:"reading_time,omitempty" db:"reading_time"`
	Attribution string             `json:"attribution" db:"attribution"`
	Tags        []KnowledgeTag     `json:"tags" db:"-"`
	Image       string             `json:"image" db:"image"`
	ImageAlt    string             `json:"image_alt" db:"image_alt"`
	Motif       string             `json:"motif" db:"motif"`
	SEO
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Path returns the article's public path.
func (a *KnowledgeArticle) Path() string {
	if a.Category == nil {
		return "/knowledge/" + a.Slug + "/"
	}
	return "/knowledge/" + a.Category.Slug + "/" + a.Slug + "/"
}

// TagNames returns the names of the article's tags.
func (a *KnowledgeArticle) TagNames() []string {
	names := make([]string, 0, len(a.Tags))
	for _, t := range a.Tags {
		names = append(names, t.Name)
	}
	return names
}
