package scraper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/baxromumarov/job-aggregator/internal/model"
	"github.com/baxromumarov/job-aggregator/internal/observability"
	"github.com/baxromumarov/job-aggregator/internal/postdate"
	"github.com/baxromumarov/job-aggregator/internal/urlutil"
	"github.com/gocolly/colly/v2"
)

const listingSelector = ".job-listing"

// PageFetcher loads one HTML page and runs the registered callbacks against
// it. *httpx.CollyFetcher satisfies it.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string, register func(*colly.Collector)) (int, error)
}

// HTMLAdapter extracts postings from a static listing page where every job is
// a .job-listing container. Pages without listings fall back to schema.org
// JobPosting ld+json blocks.
type HTMLAdapter struct {
	fetcher PageFetcher
	clock   Clock
}

func NewHTMLAdapter(fetcher PageFetcher, clock Clock) *HTMLAdapter {
	return &HTMLAdapter{fetcher: fetcher, clock: clock}
}

func (a *HTMLAdapter) Fetch(ctx context.Context, site model.Site) ([]model.Posting, error) {
	now := a.clock.now()

	var (
		postings []model.Posting
		scripts  []string
		pageURL  = site.Endpoint
		listings int
	)
	_, err := a.fetcher.Fetch(ctx, site.Endpoint, func(c *colly.Collector) {
		c.OnResponse(func(r *colly.Response) {
			pageURL = r.Request.URL.String()
		})
		c.OnHTML(listingSelector, func(e *colly.HTMLElement) {
			listings++
			if p, ok := listingPosting(site, e.DOM, firstNonEmpty(site.BaseURL, e.Request.URL.String()), now); ok {
				postings = append(postings, p)
			}
		})
		c.OnHTML(jsonLDSelector, func(e *colly.HTMLElement) {
			scripts = append(scripts, e.Text)
		})
	})
	if err != nil {
		return postings, classify(site, "fetch listing page", err)
	}
	observability.IncPagesFetched(string(model.KindHTML))

	if listings == 0 && len(scripts) > 0 {
		postings = jsonLDPostings(site, scripts, firstNonEmpty(site.BaseURL, pageURL), now)
	}
	return postings, nil
}

func listingPosting(site model.Site, sel *goquery.Selection, base string, now time.Time) (model.Posting, bool) {
	id := firstNonEmpty(sel.AttrOr("data-id", ""), sel.AttrOr("data-job-id", ""))

	var href string
	if goquery.NodeName(sel) == "a" {
		href = sel.AttrOr("href", "")
	}
	if href == "" {
		href = sel.Find("a[href]").First().AttrOr("href", "")
	}
	link, err := urlutil.Resolve(base, href)
	if err != nil {
		link = ""
	}

	if id == "" && link != "" {
		id = urlutil.PathKey(link)
	}
	if id == "" {
		slog.Warn("dropping listing without id or link", "site_id", site.ID)
		return model.Posting{}, false
	}

	return model.Posting{
		JobID:      id,
		Title:      collapse(sel.Find(".job-title").First().Text()),
		Company:    site.Name,
		Location:   collapse(sel.Find(".location").First().Text()),
		URL:        link,
		DatePosted: postdate.Normalize(listingDate(sel), now),
	}, true
}

func listingDate(sel *goquery.Selection) string {
	if raw := strings.TrimSpace(sel.Find(".date-posted").First().Text()); raw != "" {
		return raw
	}
	t := sel.Find("time").First()
	if dt := strings.TrimSpace(t.AttrOr("datetime", "")); dt != "" {
		return dt
	}
	return strings.TrimSpace(t.Text())
}
