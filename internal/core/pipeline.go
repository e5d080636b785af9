package core

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/baxromumarov/job-aggregator/internal/model"
	"github.com/baxromumarov/job-aggregator/internal/observability"
	"github.com/baxromumarov/job-aggregator/internal/scraper"
	"github.com/baxromumarov/job-aggregator/internal/store"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 4

type SiteLister interface {
	ListSites(ctx context.Context) ([]model.Site, error)
}

type JobWriter interface {
	UpsertBatch(ctx context.Context, siteID string, postings []model.Posting) (store.WriteResult, error)
}

type AdapterResolver interface {
	Resolve(kind model.AdapterKind) (scraper.Adapter, error)
}

type PipelineConfig struct {
	Concurrency  int
	TitleFilters []string
	Now          func() time.Time
}

// Pipeline runs one aggregation pass over every registered site: fetch,
// filter, dedupe, persist. Sites are isolated from each other; only an
// unreachable site registry stops a run.
type Pipeline struct {
	sites    SiteLister
	adapters AdapterResolver
	writer   JobWriter
	cfg      PipelineConfig

	running sync.Mutex // one run at a time
	mu      sync.Mutex
	current *model.RunSummary
	latest  *model.RunSummary
}

func NewPipeline(sites SiteLister, adapters AdapterResolver, writer JobWriter, cfg PipelineConfig) *Pipeline {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	cfg.TitleFilters = NormalizeTerms(cfg.TitleFilters)
	return &Pipeline{sites: sites, adapters: adapters, writer: writer, cfg: cfg}
}

// Run executes one pass. The summary lists every site in registry order. The
// error is non-nil only when the site registry cannot be read; per-site
// failures, store write failures included, are reported in the summary.
func (p *Pipeline) Run(ctx context.Context) (model.RunSummary, error) {
	p.running.Lock()
	defer p.running.Unlock()

	summary := model.RunSummary{ID: uuid.NewString(), StartedAt: p.cfg.Now()}
	observability.IncRuns()

	sites, err := p.sites.ListSites(ctx)
	if err != nil {
		summary.FinishedAt = p.cfg.Now()
		p.finish(summary)
		observability.IncError(observability.ErrorStore, "registry")
		if !model.IsKind(err, model.ErrStoreUnavailable) {
			err = model.NewError(model.ErrStoreUnavailable, "", "list sites", err)
		}
		slog.Error("run aborted: site registry unavailable", "run_id", summary.ID, "error", err)
		return summary, err
	}

	summary.Sites = make([]model.SiteOutcome, len(sites))
	for i, site := range sites {
		summary.Sites[i] = model.SiteOutcome{SiteID: site.ID, SiteName: site.Name, Status: model.StatusPending}
	}
	p.mu.Lock()
	p.current = &summary
	p.mu.Unlock()

	slog.Info("run started", "run_id", summary.ID, "sites", len(sites), "concurrency", p.cfg.Concurrency)

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)

	for i, site := range sites {
		if err := ctx.Err(); err != nil {
			p.markPending(i, err)
			continue
		}
		g.Go(func() error {
			// The slot may have been granted after cancellation.
			if err := ctx.Err(); err != nil {
				p.markPending(i, err)
				return nil
			}
			p.runSite(ctx, i, site)
			return nil
		})
	}
	_ = g.Wait()

	p.mu.Lock()
	summary.FinishedAt = p.cfg.Now()
	p.current = nil
	p.mu.Unlock()
	p.finish(summary)

	totals := summary.Totals()
	slog.Info("run finished",
		"run_id", summary.ID,
		"sites", totals.Sites,
		"done", totals.Done,
		"errored", totals.Errored,
		"pending", totals.Pending,
		"fetched", totals.Fetched,
		"written", totals.Written,
		"failed_writes", totals.Failures,
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)

	return summary, nil
}

// runSite drives one site through its stages and records the outcome. The
// adapter sees cancellation between requests; postings it already returned
// are persisted regardless.
func (p *Pipeline) runSite(ctx context.Context, idx int, site model.Site) {
	started := p.cfg.Now()
	logger := slog.With("site_id", site.ID, "site", site.Name, "kind", string(site.Kind))
	out := model.SiteOutcome{SiteID: site.ID, SiteName: site.Name}

	finish := func(status model.SiteStatus, err error) {
		out.Status = status
		if err != nil {
			out.ErrorKind = model.KindOf(err)
			out.Error = err.Error()
		}
		out.Duration = p.cfg.Now().Sub(started)
		observability.ObserveSiteDuration(out.Duration)
		p.setOutcome(idx, out)
	}

	p.setStatus(idx, model.StatusFetching)
	if err := site.Validate(); err != nil {
		logger.Warn("skipping site with invalid config", "error", err)
		observability.IncError(observability.ErrorConfig, "pipeline")
		finish(model.StatusErrored, err)
		return
	}
	adapter, err := p.adapters.Resolve(site.Kind)
	if err != nil {
		err = withSite(err, site.ID)
		logger.Warn("skipping site with unknown adapter kind", "error", err)
		observability.IncError(observability.ErrorConfig, "pipeline")
		finish(model.StatusErrored, err)
		return
	}

	postings, fetchErr := adapter.Fetch(ctx, site)
	out.Fetched = len(postings)
	observability.AddPostingsScraped(len(postings))
	if fetchErr != nil {
		fetchErr = withSite(fetchErr, site.ID)
		logger.Warn("fetch failed, keeping partial results", "postings", len(postings), "error", fetchErr)
	}

	p.setStatus(idx, model.StatusFiltering)
	filtered := FilterByTitle(postings, p.cfg.TitleFilters)
	out.Filtered = len(filtered)

	p.setStatus(idx, model.StatusDeduping)
	deduped := Dedupe(filtered)
	out.Deduped = len(deduped)

	p.setStatus(idx, model.StatusPersisting)
	if len(deduped) > 0 {
		res, err := p.writer.UpsertBatch(context.WithoutCancel(ctx), site.ID, deduped)
		out.Written = res.Written
		out.FailedWrites = res.Failed
		observability.AddPostingsWritten(res.Written)
		if err != nil {
			observability.IncError(observability.ErrorStore, "store")
			if res.Written == 0 {
				// A rejected batch is terminal for this site only.
				if !model.IsKind(err, model.ErrStoreWrite) {
					err = model.NewError(model.ErrStoreWrite, site.ID, "upsert jobs", err)
				}
				logger.Error("store rejected batch", "postings", len(deduped), "error", err)
				finish(model.StatusErrored, err)
				return
			}
			logger.Warn("some postings failed to persist", "written", res.Written, "failed", res.Failed, "error", err)
		}
	}

	if fetchErr != nil {
		finish(model.StatusErrored, fetchErr)
		return
	}

	logger.Info("site done",
		"fetched", out.Fetched,
		"filtered", out.Filtered,
		"deduped", out.Deduped,
		"written", out.Written,
		"failed_writes", out.FailedWrites,
	)
	finish(model.StatusDone, nil)
}

func (p *Pipeline) setStatus(idx int, status model.SiteStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.Sites[idx].Status = status
	}
}

func (p *Pipeline) setOutcome(idx int, out model.SiteOutcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.Sites[idx] = out
	}
}

func (p *Pipeline) markPending(idx int, reason error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return
	}
	site := &p.current.Sites[idx]
	site.Status = model.StatusPending
	site.Error = reason.Error()
	site.ErrorKind = model.KindOf(reason)
}

func (p *Pipeline) finish(summary model.RunSummary) {
	p.mu.Lock()
	defer p.mu.Unlock()
	latest := cloneSummary(summary)
	p.latest = &latest
}

// Latest returns the most recently finished run.
func (p *Pipeline) Latest() (model.RunSummary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.latest == nil {
		return model.RunSummary{}, false
	}
	return cloneSummary(*p.latest), true
}

// Current returns a snapshot of the run in progress, if any.
func (p *Pipeline) Current() (model.RunSummary, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return model.RunSummary{}, false
	}
	return cloneSummary(*p.current), true
}

func cloneSummary(s model.RunSummary) model.RunSummary {
	s.Sites = append([]model.SiteOutcome(nil), s.Sites...)
	return s
}

// withSite stamps the site id on a classified error that lacks one.
func withSite(err error, siteID string) error {
	var me *model.Error
	if errors.As(err, &me) {
		if me.SiteID == "" {
			cp := *me
			cp.SiteID = siteID
			return &cp
		}
		return err
	}
	return model.NewError(model.ErrTransport, siteID, "fetch", err)
}
