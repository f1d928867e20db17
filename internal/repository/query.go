package repository

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/technofatty/technofatty/internal/database"
	"github.com/technofatty/technofatty/internal/publish"
)

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// where accumulates AND-ed predicates with positional arguments.
type where struct {
	clauses []string
	args    []interface{}
}

// add appends a clause; each "?" in clause becomes the next placeholder.
func (w *where) add(clause string, args ...interface{}) {
	for _, arg := range args {
		w.args = append(w.args, arg)
		clause = strings.Replace(clause, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.clauses = append(w.clauses, clause)
}

func (w *where) visibility(vis publish.Visibility, alias string) {
	if vis == nil {
		return
	}
	clause, arg := vis.SQL(alias, len(w.args)+1)
	w.clauses = append(w.clauses, clause)
	w.args = append(w.args, arg)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// page appends LIMIT/OFFSET placeholders when limit is positive.
func (w *where) page(limit, offset int) string {
	if limit <= 0 {
		return ""
	}
	w.args = append(w.args, limit, offset)
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(w.args)-1, len(w.args))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds a case-insensitive substring pattern for ILIKE.
func likePattern(q string) string {
	return "%" + likeEscaper.Replace(q) + "%"
}

// translate maps unique violations onto ErrSlugTaken / ErrDuplicate.
func translate(err error, slugConstraint string) error {
	if err == nil || !database.IsUniqueViolation(err) {
		return err
	}
	if slugConstraint != "" && database.ConstraintName(err) == slugConstraint {
		return fmt.Errorf("%w: %v", ErrSlugTaken, err)
	}
	return fmt.Errorf("%w: %v", ErrDuplicate, err)
}

// helper to convert empty string to NULL
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
