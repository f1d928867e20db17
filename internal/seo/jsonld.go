// Package seo holds the pure helpers behind structured data, canonical URLs,
// navigation state, robots.txt and sitemap.xml.
package seo

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/technofatty/technofatty/internal/models"
)

const schemaContext = "https://schema.org"

// ErrNaiveTime is returned when a timestamp carries no offset.
var ErrNaiveTime = errors.New("datetime must be timezone-aware")

// Node is one JSON-LD object. Maps marshal with sorted keys.
type Node map[string]interface{}

// RenderJSONLD returns a compact ld+json script element for data, or "" when
// there is nothing to render. encoding/json escapes <, > and & so the payload
// cannot close the script element early.
func RenderJSONLD(data interface{}) (string, error) {
	if isEmpty(data) {
		return "", nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode json-ld: %w", err)
	}
	return `<script type="application/ld+json">` + string(raw) + `</script>`, nil
}

func isEmpty(data interface{}) bool {
	if data == nil {
		return true
	}
	v := reflect.ValueOf(data)
	switch v.Kind() {
	case reflect.Map, reflect.Slice:
		return v.IsNil() || v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// ToISO8601 formats an aware timestamp. Naive timestamps are rejected.
func ToISO8601(t time.Time) (string, error) {
	if models.IsNaive(t) {
		return "", ErrNaiveTime
	}
	return t.Format(time.RFC3339), nil
}

// AbsolutizeURLs rewrites every "url" string in data against base, in place.
// It returns false if any url cannot be made absolute; callers then drop the block.
func AbsolutizeURLs(data interface{}, base string) bool {
	switch v := data.(type) {
	case Node:
		return absolutizeMap(v, base)
	case map[string]interface{}:
		return absolutizeMap(v, base)
	case []Node:
		for _, item := range v {
			if !absolutizeMap(item, base) {
				return false
			}
		}
	case []interface{}:
		for _, item := range v {
			if !AbsolutizeURLs(item, base) {
				return false
			}
		}
	}
	return true
}

func absolutizeMap(m map[string]interface{}, base string) bool {
	for key, val := range m {
		if s, ok := val.(string); ok && key == "url" {
			abs, ok := EnsureAbsolute(s, base)
			if !ok {
				return false
			}
			m[key] = abs
			continue
		}
		if !AbsolutizeURLs(val, base) {
			return false
		}
	}
	return true
}
