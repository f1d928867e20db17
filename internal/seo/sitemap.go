package seo

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// SitemapURL is one <url> entry.
type SitemapURL struct {
	Loc     string
	LastMod *time.Time
}

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// SitemapLoc builds an absolute location with a trailing slash.
func SitemapLoc(base, path string) string {
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return AbsoluteURL(base, path)
}

// BuildSitemap renders a urlset document. Duplicate locations are dropped.
func BuildSitemap(urls []SitemapURL) ([]byte, error) {
	doc := urlset{XMLNS: sitemapNS}
	seen := make(map[string]bool, len(urls))
	for _, u := range urls {
		if seen[u.Loc] {
			continue
		}
		seen[u.Loc] = true

		entry := sitemapURL{Loc: u.Loc}
		if u.LastMod != nil && !u.LastMod.IsZero() {
			entry.LastMod = u.LastMod.UTC().Format(time.RFC3339)
		}
		doc.URLs = append(doc.URLs, entry)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode sitemap: %w", err)
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}
