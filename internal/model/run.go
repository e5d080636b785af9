package model

import "time"

// SiteStatus is the pipeline state of one site within a run.
type SiteStatus string

const (
	StatusPending    SiteStatus = "pending"
	StatusFetching   SiteStatus = "fetching"
	StatusFiltering  SiteStatus = "filtering"
	StatusDeduping   SiteStatus = "deduping"
	StatusPersisting SiteStatus = "persisting"
	StatusDone       SiteStatus = "done"
	StatusErrored    SiteStatus = "errored"
)

// SiteOutcome records what happened to one site during a run.
type SiteOutcome struct {
	SiteID       string        `json:"site_id"`
	SiteName     string        `json:"site_name"`
	Status       SiteStatus    `json:"status"`
	Fetched      int           `json:"fetched"`
	Filtered     int           `json:"filtered"`
	Deduped      int           `json:"deduped"`
	Written      int           `json:"written"`
	FailedWrites int           `json:"failed_writes"`
	ErrorKind    ErrorKind     `json:"error_kind,omitempty"`
	Error        string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration_ns"`
}

// PostingCount is the number of postings handed to the store.
func (o SiteOutcome) PostingCount() int {
	return o.Deduped
}

// RunSummary is the ordered list of site outcomes for one pass.
type RunSummary struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Sites      []SiteOutcome `json:"sites"`
}

// Totals aggregates counts across all sites.
type Totals struct {
	Sites    int `json:"sites"`
	Done     int `json:"done"`
	Errored  int `json:"errored"`
	Pending  int `json:"pending"`
	Fetched  int `json:"fetched"`
	Written  int `json:"written"`
	Failures int `json:"failed_writes"`
}

func (r RunSummary) Totals() Totals {
	t := Totals{Sites: len(r.Sites)}
	for _, s := range r.Sites {
		switch s.Status {
		case StatusDone:
			t.Done++
		case StatusErrored:
			t.Errored++
		default:
			t.Pending++
		}
		t.Fetched += s.Fetched
		t.Written += s.Written
		t.Failures += s.FailedWrites
	}
	return t
}
