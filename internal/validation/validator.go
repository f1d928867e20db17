package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/technofatty/technofatty/internal/models"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	slugRegex     = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	usernameRegex = regexp.MustCompile(`^[\w.@+-]{1,150}$`)
)

// Common field messages
const (
	MsgRequired     = "This field is required."
	MsgInvalidEmail = "Enter a valid email address."
	MsgHoneypot     = "Invalid submission."
	MinPasswordLen  = 8
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors is a list of field-level validation failures. A nil or empty
// Errors means the input is valid.
type Errors []ValidationError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, v := range e {
		parts = append(parts, v.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends an error for field.
func (e *Errors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// Has reports whether field has at least one error.
func (e Errors) Has(field string) bool {
	for _, v := range e {
		if v.Field == field {
			return true
		}
	}
	return false
}

// Fields returns a field -> messages map for rendering.
func (e Errors) Fields() map[string][]string {
	out := make(map[string][]string, len(e))
	for _, v := range e {
		out[v.Field] = append(out[v.Field], v.Message)
	}
	return out
}

// First returns the first errored field, used to place autofocus.
func (e Errors) First() string {
	if len(e) == 0 {
		return ""
	}
	return e[0].Field
}

// Err returns e as an error, or nil when empty.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail checks the address format.
func IsValidEmail(email string) bool {
	return len(email) <= 254 && emailRegex.MatchString(email)
}

// IsValidSlug checks kebab-case slugs.
func IsValidSlug(s string) bool {
	return slugRegex.MatchString(s)
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// ParseTimestamp parses an editor-supplied publish time. RFC 3339 input
// keeps its offset; input without an offset is returned in models.NaiveZone
// so later validation can reject it.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, models.NaiveZone); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO 8601 timestamp %q", s)
}

// ValidateContact checks the contact form fields.
func ValidateContact(name, email, subject, message string) Errors {
	var errs Errors
	if strings.TrimSpace(name) == "" {
		errs.Add("name", MsgRequired)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", MsgRequired)
	} else if !IsValidEmail(email) {
		errs.Add("email", MsgInvalidEmail)
	}
	if strings.TrimSpace(subject) == "" {
		errs.Add("subject", MsgRequired)
	}
	if strings.TrimSpace(message) == "" {
		errs.Add("message", MsgRequired)
	}
	return errs
}

// ValidateSignup checks the account signup form. Uniqueness is checked by the caller.
func ValidateSignup(username, email, password1, password2 string) Errors {
	var errs Errors
	if username == "" {
		errs.Add("username", MsgRequired)
	} else if !usernameRegex.MatchString(username) {
		errs.Add("username", "Enter a valid username. Letters, digits and @/./+/-/_ only.")
	}
	if email == "" {
		errs.Add("email", MsgRequired)
	} else if !IsValidEmail(email) {
		errs.Add("email", MsgInvalidEmail)
	}
	errs = append(errs, ValidatePasswordPair("password1", "password2", password1, password2)...)
	return errs
}

// ValidatePasswordPair checks a new password and its confirmation.
func ValidatePasswordPair(field1, field2, password1, password2 string) Errors {
	var errs Errors
	switch {
	case password1 == "":
		errs.Add(field1, MsgRequired)
	case len(password1) < MinPasswordLen:
		errs.Add(field1, fmt.Sprintf("This password is too short. It must contain at least %d characters.", MinPasswordLen))
	case password1 != password2:
		errs.Add(field2, "The two password fields didn’t match.")
	}
	return errs
}

// ValidateCommunityPost checks a queued community post.
func ValidateCommunityPost(author, body string) Errors {
	var errs Errors
	if strings.TrimSpace(author) == "" {
		errs.Add("author_name", MsgRequired)
	}
	if strings.TrimSpace(body) == "" {
		errs.Add("body", MsgRequired)
	} else if words := len(strings.Fields(body)); words > models.MaxPostWords {
		errs.Add("body", fmt.Sprintf("body exceeds maximum of %d words (has %d)", models.MaxPostWords, words))
	}
	return errs
}

// ValidateArticle checks knowledge article fields that do not depend on status.
func ValidateArticle(a *models.KnowledgeArticle) Errors {
	var errs Errors
	if strings.TrimSpace(a.Title) == "" {
		errs.Add("title", MsgRequired)
	}
	if a.CategoryID == "" {
		errs.Add("category_id", MsgRequired)
	}
	if a.Subtype != "" && !models.ValidSubtypes[a.Subtype] {
		errs = append(errs, ValidationError{Field: "subtype", Message: "invalid subtype", Value: a.Subtype})
	}
	if a.Image != "" && strings.TrimSpace(a.ImageAlt) == "" {
		errs.Add("image_alt", "Alt text is required when an image is set.")
	}
	errs = append(errs, validateSlugField(a.Slug)...)
	return errs
}

// ValidateBlogPost checks blog post fields that do not depend on status.
func ValidateBlogPost(p *models.BlogPost) Errors {
	var errs Errors
	if strings.TrimSpace(p.Title) == "" {
		errs.Add("title", MsgRequired)
	}
	if p.CategorySlug != "" && !IsValidSlug(p.CategorySlug) {
		errs = append(errs, ValidationError{Field: "category_slug", Message: "slug must be kebab-case (lowercase letters, numbers, hyphens)", Value: p.CategorySlug})
	}
	for _, tag := range p.Tags {
		if !IsValidSlug(tag.Slug) {
			errs = append(errs, ValidationError{Field: "tags", Message: "tag slug must be kebab-case", Value: tag.Slug})
		}
	}
	return errs
}

// ValidateTool checks a tools directory entry.
func ValidateTool(t *models.Tool) Errors {
	var errs Errors
	if strings.TrimSpace(t.Title) == "" {
		errs.Add("title", MsgRequired)
	}
	if t.ExternalURL != "" && !isAbsoluteURL(t.ExternalURL) {
		errs = append(errs, ValidationError{Field: "external_url", Message: "Enter a valid URL.", Value: t.ExternalURL})
	}
	if t.DisplayOrder < 0 {
		errs.Add("display_order", "Ensure this value is greater than or equal to 0.")
	}
	errs = append(errs, validateSlugField(t.Slug)...)
	return errs
}

// ValidateCaseStudy checks a case study.
func ValidateCaseStudy(c *models.CaseStudy) Errors {
	var errs Errors
	if strings.TrimSpace(c.Title) == "" {
		errs.Add("title", MsgRequired)
	}
	if c.DisplayOrder < 0 {
		errs.Add("display_order", "Ensure this value is greater than or equal to 0.")
	}
	errs = append(errs, validateSlugField(c.Slug)...)
	return errs
}

// ValidateSEOURLs checks that any social image or canonical URLs are absolute.
func ValidateSEOURLs(seo models.SEO) Errors {
	var errs Errors
	for field, value := range map[string]string{
		"canonical_url":     seo.CanonicalURL,
		"og_image_url":      seo.OGImageURL,
		"twitter_image_url": seo.TwitterImageURL,
	} {
		if value != "" && !isAbsoluteURL(value) {
			errs = append(errs, ValidationError{Field: field, Message: "Enter a valid URL.", Value: value})
		}
	}
	return errs
}

func validateSlugField(s string) Errors {
	if s != "" && !IsValidSlug(s) {
		return Errors{{Field: "slug", Message: "slug must be kebab-case (lowercase letters, numbers, hyphens)", Value: s}}
	}
	return nil
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
