package urlutil

import (
	"errors"
	"net/url"
	"sort"
	"strings"
)

// Normalize defaults the scheme to https, lower-cases the host, drops the
// fragment and tracking query parameters. It returns the normalized URL and
// its host.
func Normalize(raw string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", "", err
	}
	if u.Scheme == "" && u.Host != "" {
		u.Scheme = "https"
	}
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	u.RawQuery = normalizeQuery(u.RawQuery)
	return u.String(), u.Hostname(), nil
}

// Resolve resolves ref against base. An absolute ref is returned normalized
// and base is ignored.
func Resolve(base, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", errors.New("empty reference")
	}
	if strings.HasPrefix(ref, "mailto:") || strings.HasPrefix(ref, "tel:") || strings.HasPrefix(ref, "javascript:") {
		return "", errors.New("not a web link")
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if !r.IsAbs() && base != "" {
		b, err := url.Parse(strings.TrimSpace(base))
		if err != nil {
			return "", err
		}
		r = b.ResolveReference(r)
	}
	if !r.IsAbs() {
		return "", errors.New("cannot resolve relative reference without a base")
	}
	normalized, _, err := Normalize(r.String())
	return normalized, err
}

// Join appends a board-relative path to a base URL prefix, the way boards
// that return "/job/Austin/Engineer_R123" expect it. Absolute paths pass
// through unchanged.
func Join(base, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return strings.TrimSpace(base)
	}
	if u, err := url.Parse(p); err == nil && u.IsAbs() {
		return p
	}
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return p
	}
	return base + "/" + strings.TrimLeft(p, "/")
}

// ToggleTrailingSlash adds a trailing slash to the URL path if it has none and
// removes it otherwise. Query and fragment are preserved.
func ToggleTrailingSlash(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		if strings.HasSuffix(raw, "/") {
			return strings.TrimSuffix(raw, "/")
		}
		return raw + "/"
	}
	switch {
	case u.Path == "" || u.Path == "/":
		u.Path = "/"
	case strings.HasSuffix(u.Path, "/"):
		u.Path = strings.TrimSuffix(u.Path, "/")
	default:
		u.Path += "/"
	}
	u.RawPath = ""
	return u.String()
}

// PathKey returns the path (with query, if any) of an absolute URL. It is a
// stable identifier for postings whose board exposes no explicit id.
func PathKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	key := u.EscapedPath()
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}

func normalizeQuery(raw string) string {
	if raw == "" {
		return ""
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return raw
	}
	for key := range values {
		lk := strings.ToLower(key)
		if strings.HasPrefix(lk, "utm_") || lk == "gclid" || lk == "fbclid" || lk == "ref" || lk == "source" {
			delete(values, key)
		}
	}
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	normalized := url.Values{}
	for _, k := range keys {
		normalized[k] = values[k]
	}
	return normalized.Encode()
}
