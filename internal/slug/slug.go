// Package slug derives URL-safe identifiers from titles and disambiguates
// collisions within a uniqueness scope.
package slug

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultFallback is used when neither the title nor the caller's fallback
// produce any slug characters.
const DefaultFallback = "item"

// MaxProbes bounds the suffix search for one allocation.
const MaxProbes = 10000

var (
	// ErrExhausted is returned when MaxProbes candidates are all taken.
	ErrExhausted = errors.New("slug: no free candidate")
	// ErrConflict is returned by RetryInsert when every attempt hit the unique index.
	ErrConflict = errors.New("slug: unique constraint kept failing")
)

// ExistsFunc reports whether candidate is already used within the scope.
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Slugify folds s to lowercase ASCII letters, digits and single hyphens.
// Accented letters lose their marks; other characters are dropped and
// whitespace, hyphens and underscores collapse to one hyphen.
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		case r == '-', r == '_', unicode.IsSpace(r):
			pendingDash = true
		}
	}
	return b.String()
}

// Base returns the first candidate for title: its slug, else the slug of
// fallback, else DefaultFallback.
func Base(title, fallback string) string {
	if s := Slugify(title); s != "" {
		return s
	}
	if s := Slugify(fallback); s != "" {
		return s
	}
	return DefaultFallback
}

// Allocate probes base, base-1, base-2, ... and returns the first candidate
// that exists reports as free.
func Allocate(ctx context.Context, title, fallback string, exists ExistsFunc) (string, error) {
	base := Base(title, fallback)
	candidate := base
	for counter := 1; counter <= MaxProbes; counter++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = base + "-" + strconv.Itoa(counter)
	}
	return "", ErrExhausted
}

// RetryInsert allocates a slug and passes it to insert. When insert fails
// with an error isConflict recognises as a unique violation, the probe is
// repeated against the new state of the store, up to attempts times.
func RetryInsert(
	ctx context.Context,
	title, fallback string,
	exists ExistsFunc,
	insert func(ctx context.Context, slug string) error,
	isConflict func(error) bool,
	attempts int,
) (string, error) {
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		s, err := Allocate(ctx, title, fallback, exists)
		if err != nil {
			return "", err
		}
		err = insert(ctx, s)
		if err == nil {
			return s, nil
		}
		if !isConflict(err) {
			return "", err
		}
	}
	return "", ErrConflict
}

// InSet adapts a fixed set of taken slugs to an ExistsFunc.
func InSet(taken map[string]bool) ExistsFunc {
	return func(_ context.Context, candidate string) (bool, error) {
		return taken[candidate], nil
	}
}
