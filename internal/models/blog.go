package models

import (
	"time"
)

// PrimaryGoal is the conversion goal a blog post is written for.
type PrimaryGoal string

const (
	PrimaryGoalNewsletter PrimaryGoal = "newsletter"
	PrimaryGoalCommunity  PrimaryGoal = "community"
	PrimaryGoalContact    PrimaryGoal = "contact"
)

// BlogTag is stored inline on a blog post.
type BlogTag struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// BlogPost is a dated blog entry. It carries SEO metadata that must be
// complete before publication.
type BlogPost struct {
	ID            string      `json:"id" db:"id"`
	Title         string      `json:"title" db:"title"`
	Slug          string      `json:"slug" db:"slug"`
	Status        Status      `json:"status" db:"status"`
	Excerpt       string      `json:"excerpt" db:"excerpt"`
	Content       string      `json:"content" db:"content"`
	PublishedAt   *time.Time  `json:"published_at,omitempty" db:"published_at"`
	CategorySlug  string      `json:"category_slug" db:"category_slug"`
	CategoryTitle string      `json:"category_title" db:"category_title"`
	Tags          []BlogTag   `json:"tags" db:"-"`
	PrimaryGoal   PrimaryGoal `json:"primary_goal" db:"primary_goal"`
	SEO
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Path returns the post's public path.
func (p *BlogPost) Path() string {
	return "/blog/" + p.Slug + "/"
}
