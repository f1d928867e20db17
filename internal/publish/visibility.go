package publish

import (
	"fmt"
	"time"

	"github.com/technofatty/technofatty/internal/models"
)

// Visibility is a composable predicate over content items, expressed both
// in memory and as a SQL fragment so repositories and callers agree.
type Visibility interface {
	// Visible applies the predicate to one item.
	Visible(status models.Status, publishedAt *time.Time) bool
	// SQL renders the predicate for a table alias, using the given
	// placeholder index for the reference time. It returns the fragment
	// and its single argument.
	SQL(alias string, placeholder int) (string, interface{})
}

// Public returns the visibility predicate for anonymous visitors at now.
func Public(now time.Time) Visibility {
	return publicVisibility{now: now}
}

type publicVisibility struct {
	now time.Time
}

func (v publicVisibility) Visible(status models.Status, publishedAt *time.Time) bool {
	return IsVisible(status, publishedAt, v.now)
}

func (v publicVisibility) SQL(alias string, placeholder int) (string, interface{}) {
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	return fmt.Sprintf("%sstatus = 'published' AND %spublished_at IS NOT NULL AND %spublished_at <= $%d",
		prefix, prefix, prefix, placeholder), v.now
}
