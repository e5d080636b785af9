package core

import (
	"strings"

	"github.com/baxromumarov/job-aggregator/internal/model"
	"golang.org/x/text/cases"
)

// ParseTerms splits a comma-separated filter list into trimmed, case-folded
// terms. Empty entries are dropped.
func ParseTerms(raw string) []string {
	return NormalizeTerms(strings.Split(raw, ","))
}

func NormalizeTerms(terms []string) []string {
	fold := cases.Fold()
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		out = append(out, fold.String(t))
	}
	return out
}

// MatchesKeywords reports whether text contains any of the keywords,
// ignoring case.
func MatchesKeywords(text string, keywords []string) bool {
	fold := cases.Fold()
	folded := fold.String(text)
	for _, k := range keywords {
		if k == "" {
			continue
		}
		if strings.Contains(folded, fold.String(k)) {
			return true
		}
	}
	return false
}

// FilterByTitle keeps postings whose title contains at least one term. An
// empty term set keeps everything. Order is preserved.
func FilterByTitle(postings []model.Posting, terms []string) []model.Posting {
	terms = NormalizeTerms(terms)
	if len(terms) == 0 {
		return postings
	}
	out := make([]model.Posting, 0, len(postings))
	for _, p := range postings {
		if MatchesKeywords(p.Title, terms) {
			out = append(out, p)
		}
	}
	return out
}
