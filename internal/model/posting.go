package model

import "time"

// Posting is the normalized job record every adapter produces.
type Posting struct {
	JobID      string     `json:"job_id"`
	Title      string     `json:"title"`
	Company    string     `json:"company"`
	Location   string     `json:"location"`
	URL        string     `json:"url"`
	DatePosted *time.Time `json:"date_posted,omitempty"`
}

// DateString renders DatePosted as YYYY-MM-DD, or nil when unknown.
func (p Posting) DateString() *string {
	if p.DatePosted == nil {
		return nil
	}
	s := p.DatePosted.Format(time.DateOnly)
	return &s
}
