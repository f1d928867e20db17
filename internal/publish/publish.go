// Package publish holds the draft/published/archived lifecycle rules shared
// by every content variant.
package publish

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/technofatty/technofatty/internal/models"
	"github.com/technofatty/technofatty/internal/validation"
)

// ErrInvalidTransition is reported when a status change is not allowed.
var ErrInvalidTransition = errors.New("publish: invalid status transition")

var transitions = map[models.Status]map[models.Status]bool{
	models.StatusDraft: {
		models.StatusPublished: true,
		models.StatusArchived:  true,
	},
	models.StatusPublished: {
		models.StatusArchived: true,
	},
	models.StatusArchived: {},
}

// Snapshot is the persisted publish state of an item before a save.
type Snapshot struct {
	Status      models.Status
	PublishedAt *time.Time
}

// CanTransition reports whether an item may move from one status to another.
// Saving without a status change is always allowed.
func CanTransition(from, to models.Status) bool {
	if from == to {
		return models.ValidStatuses[to]
	}
	return transitions[from][to]
}

// Transition returns ErrInvalidTransition when from -> to is not allowed.
func Transition(from, to models.Status) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Prepare returns the published_at value to persist. The first save into
// published keeps a supplied timestamp or defaults to now; once an item has
// been published, its original timestamp wins over anything the caller sends.
func Prepare(original *Snapshot, status models.Status, publishedAt *time.Time, now time.Time) *time.Time {
	if status != models.StatusPublished {
		return publishedAt
	}
	if original != nil && original.Status == models.StatusPublished && original.PublishedAt != nil {
		t := *original.PublishedAt
		return &t
	}
	if publishedAt == nil {
		t := now
		return &t
	}
	return publishedAt
}

// Validate checks the status value, the transition from original and the
// published_at requirements. original is nil for new items.
func Validate(original *Snapshot, status models.Status, publishedAt *time.Time) validation.Errors {
	var errs validation.Errors

	if !models.ValidStatuses[status] {
		errs = append(errs, validation.ValidationError{
			Field:   "status",
			Message: "invalid status, must be one of: draft, published, archived",
			Value:   status,
		})
		return errs
	}

	if original != nil {
		if err := Transition(original.Status, status); err != nil {
			errs = append(errs, validation.ValidationError{
				Field:   "status",
				Message: fmt.Sprintf("cannot change status from %s to %s", original.Status, status),
				Value:   status,
			})
		}
	}

	if status == models.StatusPublished {
		switch {
		case publishedAt == nil:
			errs.Add("published_at", "Published articles must have a publish date.")
		case models.IsNaive(*publishedAt):
			errs.Add("published_at", "published_at must be timezone-aware.")
		}
	}
	return errs
}

// RequireSEO reports blank SEO fields that must be filled before an item
// carrying SEO metadata is published.
func RequireSEO(status models.Status, seo models.SEO) validation.Errors {
	if status != models.StatusPublished {
		return nil
	}
	var errs validation.Errors
	required := []struct {
		field, value string
	}{
		{"meta_title", seo.MetaTitle},
		{"meta_description", seo.MetaDescription},
		{"og_image_url", seo.OGImageURL},
		{"twitter_image_url", seo.TwitterImageURL},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs.Add(r.field, "This field is required when publishing.")
		}
	}
	return errs
}

// IsVisible is the public visibility rule: published, dated and not in the future.
func IsVisible(status models.Status, publishedAt *time.Time, now time.Time) bool {
	return status == models.StatusPublished && publishedAt != nil && !publishedAt.After(now)
}
