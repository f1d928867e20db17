package seo

import (
	"net"
	"strings"
)

// RobotsOptions controls robots.txt output.
type RobotsOptions struct {
	Host                 string
	CanonicalHost        string
	BaseURL              string
	CaseStudiesIndexable bool
	ToolsIndexable       bool
}

// Robots renders robots.txt. Requests on any host other than the canonical
// one disallow everything.
func Robots(opts RobotsOptions) string {
	lines := []string{"User-agent: *"}
	if !IsCanonicalHost(opts.Host, opts.CanonicalHost) {
		lines = append(lines, "Disallow: /")
		return strings.Join(lines, "\n") + "\n"
	}

	lines = append(lines, "Allow: /")
	if !opts.CaseStudiesIndexable {
		lines = append(lines, "Disallow: /case-studies/")
	}
	if !opts.ToolsIndexable {
		lines = append(lines, "Disallow: /tools/")
	}
	lines = append(lines, "Sitemap: "+strings.TrimRight(opts.BaseURL, "/")+"/sitemap.xml")
	return strings.Join(lines, "\n") + "\n"
}

// IsCanonicalHost compares host names ignoring case and port. An empty
// canonical host accepts every host.
func IsCanonicalHost(host, canonical string) bool {
	if canonical == "" {
		return true
	}
	return strings.EqualFold(stripPort(host), stripPort(canonical))
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
