package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/baxromumarov/job-aggregator/internal/httpx"
	"github.com/baxromumarov/job-aggregator/internal/model"
	"github.com/baxromumarov/job-aggregator/internal/observability"
	"github.com/baxromumarov/job-aggregator/internal/postdate"
	"github.com/baxromumarov/job-aggregator/internal/urlutil"
)

const DefaultPageSize = 20

type pageRequest struct {
	AppliedFacets map[string]any `json:"appliedFacets"`
	Limit         int            `json:"limit"`
	Offset        *int           `json:"offset,omitempty"`
	SearchText    string         `json:"searchText"`
}

type pageResponse struct {
	Total       *int              `json:"total"`
	JobPostings []paginatedRecord `json:"jobPostings"`
}

type paginatedRecord struct {
	Title         string       `json:"title"`
	JobTitle      string       `json:"jobTitle"`
	ExternalPath  string       `json:"externalPath"`
	LocationsText string       `json:"locationsText"`
	Location      flexLocation `json:"location"`
	PostedOn      string       `json:"postedOn"`
	BulletFields  []flexString `json:"bulletFields"`
}

// PaginatedAdapter drives offset-paginated POST search endpoints
// (Workday-style career sites).
type PaginatedAdapter struct {
	client   JSONClient
	pageSize int
	clock    Clock
}

func NewPaginatedAdapter(client JSONClient, pageSize int, clock Clock) *PaginatedAdapter {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &PaginatedAdapter{client: client, pageSize: pageSize, clock: clock}
}

func (a *PaginatedAdapter) Fetch(ctx context.Context, site model.Site) ([]model.Posting, error) {
	now := a.clock.now()

	page, endpoint, err := a.firstPage(ctx, site)
	if err != nil {
		return nil, err
	}

	total := len(page.JobPostings)
	if page.Total != nil {
		total = *page.Total
	}

	var (
		postings []model.Posting
		seen     int
		batch    = page.JobPostings
	)
	for {
		postings = append(postings, a.convert(site, batch, now)...)
		seen += len(batch)
		if len(batch) == 0 || seen >= total {
			break
		}

		// Stop between pages once the run is cancelled.
		if err := ctx.Err(); err != nil {
			return postings, classify(site, "fetch page", err)
		}

		offset := seen
		var next pageResponse
		if err := a.client.JSON(ctx, http.MethodPost, endpoint, a.request(&offset), &next); err != nil {
			return postings, classify(site, "fetch page", err)
		}
		observability.IncPagesFetched(string(model.KindPaginatedAPI))
		batch = next.JobPostings
	}

	slog.Debug("paginated fetch complete",
		"site_id", site.ID,
		"total", total,
		"seen", seen,
		"postings", len(postings),
	)
	return postings, nil
}

// firstPage issues the initial request. Boards answer a path with the wrong
// trailing slash with 400/404/405, so the first request is retried exactly
// once against the toggled URL, which is then kept for later pages.
func (a *PaginatedAdapter) firstPage(ctx context.Context, site model.Site) (pageResponse, string, error) {
	endpoint := site.Endpoint

	var page pageResponse
	err := a.client.JSON(ctx, http.MethodPost, endpoint, a.request(nil), &page)
	if err == nil {
		observability.IncPagesFetched(string(model.KindPaginatedAPI))
		return page, endpoint, nil
	}
	if !malformedPath(err) {
		return page, endpoint, classify(site, "fetch first page", err)
	}

	retryURL := urlutil.ToggleTrailingSlash(endpoint)
	slog.Warn("initial page rejected, retrying with toggled trailing slash",
		"site_id", site.ID,
		"endpoint", endpoint,
		"retry", retryURL,
		"error", err,
	)

	page = pageResponse{}
	if err := a.client.JSON(ctx, http.MethodPost, retryURL, a.request(nil), &page); err != nil {
		return page, retryURL, classify(site, "fetch first page after retry", err)
	}
	observability.IncPagesFetched(string(model.KindPaginatedAPI))
	return page, retryURL, nil
}

func (a *PaginatedAdapter) request(offset *int) pageRequest {
	return pageRequest{
		AppliedFacets: map[string]any{},
		Limit:         a.pageSize,
		Offset:        offset,
	}
}

func (a *PaginatedAdapter) convert(site model.Site, batch []paginatedRecord, now time.Time) []model.Posting {
	out := make([]model.Posting, 0, len(batch))
	base := site.BaseURL
	if base == "" {
		base = origin(site.Endpoint)
	}
	for _, rec := range batch {
		var bullet string
		if len(rec.BulletFields) > 0 {
			bullet = string(rec.BulletFields[0])
		}
		jobID := firstNonEmpty(bullet, rec.ExternalPath)
		if jobID == "" {
			slog.Warn("dropping posting without id or path",
				"site_id", site.ID,
				"title", firstNonEmpty(rec.Title, rec.JobTitle),
			)
			continue
		}
		out = append(out, model.Posting{
			JobID:      jobID,
			Title:      CleanText(firstNonEmpty(rec.Title, rec.JobTitle)),
			Company:    site.Name,
			Location:   CleanText(firstNonEmpty(rec.LocationsText, string(rec.Location))),
			URL:        urlutil.Join(base, rec.ExternalPath),
			DatePosted: postdate.Normalize(rec.PostedOn, now),
		})
	}
	return out
}

func malformedPath(err error) bool {
	var fe *httpx.FetchError
	if !errors.As(err, &fe) {
		return false
	}
	switch fe.Status {
	case http.StatusBadRequest, http.StatusNotFound, http.StatusMethodNotAllowed:
		return true
	}
	return false
}

// origin returns scheme://host of raw, used when a site has no base URL.
func origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host
}
