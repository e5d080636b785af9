package scraper

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/baxromumarov/job-aggregator/internal/model"
	"github.com/baxromumarov/job-aggregator/internal/postdate"
	"github.com/baxromumarov/job-aggregator/internal/urlutil"
)

const jsonLDSelector = `script[type="application/ld+json"]`

// jsonLDPostings reads schema.org JobPosting objects out of ld+json script
// bodies. Malformed scripts are skipped.
func jsonLDPostings(site model.Site, scripts []string, base string, now time.Time) []model.Posting {
	var postings []model.Posting
	for _, raw := range scripts {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		var payload any
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			slog.Debug("skipping malformed ld+json", "site_id", site.ID, "error", err)
			continue
		}
		for _, obj := range collectJobPostings(payload, nil) {
			if p, ok := jsonLDPosting(site, obj, base, now); ok {
				postings = append(postings, p)
			}
		}
	}
	return postings
}

func collectJobPostings(payload any, acc []map[string]any) []map[string]any {
	switch t := payload.(type) {
	case map[string]any:
		if isJobPostingType(t["@type"]) {
			acc = append(acc, t)
		}
		if graph, ok := t["@graph"].([]any); ok {
			for _, item := range graph {
				acc = collectJobPostings(item, acc)
			}
		}
	case []any:
		for _, item := range t {
			acc = collectJobPostings(item, acc)
		}
	}
	return acc
}

func isJobPostingType(t any) bool {
	switch v := t.(type) {
	case string:
		return v == "JobPosting"
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s == "JobPosting" {
				return true
			}
		}
	}
	return false
}

func jsonLDPosting(site model.Site, obj map[string]any, base string, now time.Time) (model.Posting, bool) {
	link, err := urlutil.Resolve(base, ldString(obj["url"]))
	if err != nil {
		link = ""
	}
	id := ldIdentifier(obj["identifier"])
	if id == "" && link != "" {
		id = urlutil.PathKey(link)
	}
	if id == "" {
		slog.Warn("dropping ld+json posting without id or link", "site_id", site.ID)
		return model.Posting{}, false
	}

	return model.Posting{
		JobID:      id,
		Title:      CleanText(ldString(obj["title"])),
		Company:    site.Name,
		Location:   ldLocation(obj["jobLocation"]),
		URL:        link,
		DatePosted: postdate.Normalize(ldString(obj["datePosted"]), now),
	}, true
}

// ldIdentifier accepts a bare string or number, or a PropertyValue object.
func ldIdentifier(v any) string {
	if m, ok := v.(map[string]any); ok {
		return ldString(m["value"])
	}
	return ldString(v)
}

func ldLocation(v any) string {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if loc := ldLocation(item); loc != "" {
				return loc
			}
		}
	case map[string]any:
		addr, ok := t["address"].(map[string]any)
		if !ok {
			return ldString(t["name"])
		}
		var parts []string
		for _, key := range []string{"addressLocality", "addressRegion", "addressCountry"} {
			if s := ldString(addr[key]); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case string:
		return collapse(t)
	}
	return ""
}

func ldString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strings.TrimSpace(fmt.Sprintf("%.0f", t))
	case map[string]any:
		return ldString(t["name"])
	}
	return ""
}
