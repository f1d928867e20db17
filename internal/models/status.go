package models

import (
	"time"
)

// Status is the publish lifecycle stage of a content item.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
	StatusArchived  Status = "archived"
)

// ValidStatuses defines allowed content statuses
var ValidStatuses = map[Status]bool{
	StatusDraft:     true,
	StatusPublished: true,
	StatusArchived:  true,
}

// NaiveZone marks a wall-clock time entered without a UTC offset. Times in
// this location are rejected wherever a timezone-aware instant is required.
var NaiveZone = time.FixedZone("naive", 0)

// IsNaive reports whether t was supplied without zone information.
func IsNaive(t time.Time) bool {
	return t.Location() == NaiveZone
}

// SEO groups the search and social metadata shared by SEO-bearing content.
type SEO struct {
	MetaTitle          string `json:"meta_title"`
	MetaDescription    string `json:"meta_description"`
	CanonicalURL       string `json:"canonical_url"`
	OGTitle            string `json:"og_title"`
	OGDescription      string `json:"og_description"`
	OGImageURL         string `json:"og_image_url"`
	TwitterTitle       string `json:"twitter_title"`
	TwitterDescription string `json:"twitter_description"`
	TwitterImageURL    string `json:"twitter_image_url"`
}
