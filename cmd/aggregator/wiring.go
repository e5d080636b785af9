package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/baxromumarov/job-aggregator/internal/core"
	"github.com/baxromumarov/job-aggregator/internal/httpx"
	"github.com/baxromumarov/job-aggregator/internal/scraper"
	"github.com/baxromumarov/job-aggregator/internal/store"
)

func initStore(ctx context.Context) (*store.Store, error) {
	st, err := store.NewStore(cfg.Store.Driver, cfg.Store.DatabaseURL)
	if err != nil {
		return nil, err
	}
	st.SetChunkSize(cfg.Store.ChunkSize)
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// siteSource picks the site registry: a YAML file when configured, else the
// sites table.
func siteSource(st *store.Store) core.SiteLister {
	if cfg.Sites.File != "" {
		return store.NewFileSites(cfg.Sites.File)
	}
	return st
}

func newPipeline(st *store.Store) *core.Pipeline {
	registry := scraper.NewRegistry(scraper.Options{
		HTTP: httpx.Options{
			UserAgent:     cfg.Scrape.UserAgent,
			Timeout:       cfg.Scrape.Timeout(),
			RatePerSec:    cfg.Scrape.RatePerSec,
			Burst:         cfg.Scrape.Burst,
			RespectRobots: cfg.Scrape.RespectRobots,
		},
		PageSize: cfg.Scrape.PageSize,
	})
	return core.NewPipeline(siteSource(st), registry, st, core.PipelineConfig{
		Concurrency:  cfg.Scrape.Concurrency,
		TitleFilters: cfg.Filters.Titles,
	})
}
