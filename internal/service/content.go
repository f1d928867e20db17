package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/technofatty/technofatty/internal/events"
	"github.com/technofatty/technofatty/internal/repository"
	"github.com/technofatty/technofatty/internal/slug"
	"github.com/technofatty/technofatty/internal/validation"
)

// Listing page sizes
const (
	DefaultPageSize = 12
	MaxPageSize     = 50
	wordsPerMinute  = 200
	slugAttempts    = 3
)

// Pagination describes one page of a listing
type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func newPagination(page, pageSize, total int) Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// FirstParagraph returns the text before the first blank line, trimmed.
func FirstParagraph(content string) string {
	content = strings.ReplaceAll(strings.TrimSpace(content), "\r\n", "\n")
	if i := strings.Index(content, "\n\n"); i >= 0 {
		content = content[:i]
	}
	return strings.TrimSpace(content)
}

// ReadingTime is minutes at 200 words per minute, at least 1. Content with
// no words has no reading time.
func ReadingTime(content string) *int {
	words := len(strings.Fields(content))
	if words == 0 {
		return nil
	}
	minutes := int(math.Ceil(float64(words) / wordsPerMinute))
	if minutes < 1 {
		minutes = 1
	}
	return &minutes
}

func isSlugConflict(err error) bool {
	return errors.Is(err, repository.ErrSlugTaken)
}

// saveWithSlug persists a content row, allocating a slug from title when
// current is blank. A blank slug is allocated with RetryInsert so a lost race
// on the unique index probes again; a caller-supplied slug that collides
// becomes a field error.
func saveWithSlug(
	ctx context.Context,
	current, title, fallback string,
	exists slug.ExistsFunc,
	save func(ctx context.Context, slug string) error,
) (string, error) {
	if current != "" {
		if err := save(ctx, current); err != nil {
			if isSlugConflict(err) {
				var errs validation.Errors
				errs.Add("slug", "This slug is already in use.")
				return "", errs
			}
			return "", err
		}
		return current, nil
	}
	s, err := slug.RetryInsert(ctx, title, fallback, exists, save, isSlugConflict, slugAttempts)
	if errors.Is(err, slug.ErrConflict) || errors.Is(err, slug.ErrExhausted) {
		var errs validation.Errors
		errs.Add("slug", "Could not allocate a unique slug, please supply one.")
		return "", errs
	}
	return s, err
}

// publishSaved emits a content.saved event, plus content.published on the
// first transition into published. Delivery failures are logged only.
func publishSaved(ctx context.Context, pub events.Publisher, log zerolog.Logger, kind, id, slug, path, status string, newlyPublished bool) {
	types := []string{events.TypeContentSaved}
	if newlyPublished {
		types = append(types, events.TypeContentPublished)
	}
	for _, t := range types {
		if err := pub.Publish(ctx, events.NewEvent(t, kind, id, slug, path, status)); err != nil {
			log.Warn().Err(err).Str("kind", kind).Str("id", id).Str("type", t).Msg("Failed to publish content event")
		}
	}
}
