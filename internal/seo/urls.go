package seo

import (
	"net/url"
	"strings"
)

// EnsureAbsolute resolves raw against base. Already absolute URLs are returned
// unchanged and protocol-relative ones get https. ok is false when no
// absolute URL can be formed.
func EnsureAbsolute(raw, base string) (string, bool) {
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if u.Scheme != "" && u.Host != "" {
		return raw, true
	}
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw, true
	}
	if base == "" {
		return "", false
	}
	b, err := url.Parse(base)
	if err != nil || b.Scheme == "" || b.Host == "" {
		return "", false
	}
	if b.Path == "" {
		b.Path = "/"
	}
	return b.ResolveReference(u).String(), true
}

// AbsoluteURL joins a site-relative path onto base.
func AbsoluteURL(base, path string) string {
	if abs, ok := EnsureAbsolute(path, strings.TrimRight(base, "/")+"/"); ok {
		return abs
	}
	return path
}

// CanonicalURL makes raw absolute and strips a redundant page=1 query.
func CanonicalURL(raw, base string) string {
	abs, ok := EnsureAbsolute(raw, base)
	if !ok {
		return raw
	}
	u, err := url.Parse(abs)
	if err != nil {
		return abs
	}
	q := u.Query()
	if q.Get("page") == "1" {
		q.Del("page")
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// IsActive reports whether the nav link target should be highlighted for the
// current path. Both are normalised to a leading and trailing slash; "/" only
// matches itself, everything else matches by prefix.
func IsActive(current, target string) bool {
	cur := normalizePath(current)
	tgt := normalizePath(target)
	if tgt == "/" {
		return cur == "/"
	}
	return strings.HasPrefix(cur, tgt)
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}
