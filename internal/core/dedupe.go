package core

import "github.com/baxromumarov/job-aggregator/internal/model"

// Dedupe drops postings whose JobID was already seen, keeping the first
// occurrence and the original order.
func Dedupe(postings []model.Posting) []model.Posting {
	seen := make(map[string]struct{}, len(postings))
	out := make([]model.Posting, 0, len(postings))
	for _, p := range postings {
		if _, ok := seen[p.JobID]; ok {
			continue
		}
		seen[p.JobID] = struct{}{}
		out = append(out, p)
	}
	return out
}
