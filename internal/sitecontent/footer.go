// Package sitecontent loads static site copy such as the footer.
package sitecontent

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

const yearToken = "{{year}}"

// FooterLoader reads the footer JSON once and serves fresh copies.
type FooterLoader struct {
	path string
	now  func() time.Time

	once sync.Once
	data map[string]interface{}
	err  error
}

func NewFooterLoader(path string) *FooterLoader {
	return &FooterLoader{path: path, now: time.Now}
}

// Footer returns the footer content with {{year}} replaced in every string.
func (l *FooterLoader) Footer() (map[string]interface{}, error) {
	l.once.Do(func() {
		raw, err := os.ReadFile(l.path)
		if err != nil {
			l.err = fmt.Errorf("failed to read footer: %w", err)
			return
		}
		if err := json.Unmarshal(raw, &l.data); err != nil {
			l.err = fmt.Errorf("failed to parse footer: %w", err)
		}
	})
	if l.err != nil {
		return nil, l.err
	}

	year := strconv.Itoa(l.now().Year())
	return substitute(l.data, year).(map[string]interface{}), nil
}

// substitute deep-copies v so callers never mutate the cached document.
func substitute(v interface{}, year string) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[k] = substitute(val, year)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			out[i] = substitute(val, year)
		}
		return out
	case string:
		return strings.ReplaceAll(t, yearToken, year)
	default:
		return v
	}
}
