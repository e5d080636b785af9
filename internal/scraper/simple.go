package scraper

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/baxromumarov/job-aggregator/internal/model"
	"github.com/baxromumarov/job-aggregator/internal/observability"
	"github.com/baxromumarov/job-aggregator/internal/postdate"
	"github.com/baxromumarov/job-aggregator/internal/urlutil"
)

type boardResponse struct {
	Jobs []boardJob `json:"jobs"`
}

type boardJob struct {
	ID             flexString   `json:"id"`
	Title          string       `json:"title"`
	AbsoluteURL    string       `json:"absolute_url"`
	Location       flexLocation `json:"location"`
	UpdatedAt      string       `json:"updated_at"`
	FirstPublished string       `json:"first_published"`
}

// SimpleAdapter reads job boards that return every posting in one GET
// (Greenhouse-style board APIs).
type SimpleAdapter struct {
	client JSONClient
	clock  Clock
}

func NewSimpleAdapter(client JSONClient, clock Clock) *SimpleAdapter {
	return &SimpleAdapter{client: client, clock: clock}
}

func (a *SimpleAdapter) Fetch(ctx context.Context, site model.Site) ([]model.Posting, error) {
	now := a.clock.now()

	var resp boardResponse
	if err := a.client.JSON(ctx, http.MethodGet, site.Endpoint, nil, &resp); err != nil {
		return nil, classify(site, "fetch board", err)
	}
	observability.IncPagesFetched(string(model.KindSimpleAPI))

	base := site.BaseURL
	if base == "" {
		base = site.Endpoint
	}

	postings := make([]model.Posting, 0, len(resp.Jobs))
	for _, job := range resp.Jobs {
		link, err := urlutil.Resolve(base, job.AbsoluteURL)
		if err != nil {
			link = ""
		}
		jobID := string(job.ID)
		if jobID == "" && link != "" {
			jobID = urlutil.PathKey(link)
		}
		if jobID == "" {
			slog.Warn("dropping posting without id or url",
				"site_id", site.ID,
				"title", job.Title,
			)
			continue
		}

		date := postdate.Normalize(job.UpdatedAt, now)
		if date == nil {
			date = postdate.Normalize(job.FirstPublished, now)
		}

		postings = append(postings, model.Posting{
			JobID:      jobID,
			Title:      CleanText(job.Title),
			Company:    site.Name,
			Location:   CleanText(string(job.Location)),
			URL:        link,
			DatePosted: date,
		})
	}
	return postings, nil
}
