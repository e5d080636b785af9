package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/baxromumarov/job-aggregator/internal/model"
)

type Runner interface {
	Run(ctx context.Context) (model.RunSummary, error)
}

type JobCleaner interface {
	DeleteStaleJobs(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SchedulerService repeats aggregation runs on an interval and on demand.
// Runs never overlap.
type SchedulerService struct {
	runner   Runner
	interval time.Duration
	trigger  chan struct{}

	cleaner   JobCleaner
	retention time.Duration
}

func NewSchedulerService(runner Runner, interval time.Duration) *SchedulerService {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &SchedulerService{
		runner:   runner,
		interval: interval,
		trigger:  make(chan struct{}, 1),
	}
}

// WithRetention enables a daily purge of jobs no run has refreshed within
// olderThan.
func (s *SchedulerService) WithRetention(cleaner JobCleaner, olderThan time.Duration) *SchedulerService {
	s.cleaner = cleaner
	s.retention = olderThan
	return s
}

func (s *SchedulerService) Start(ctx context.Context) {
	go s.runLoop(ctx)
	if s.cleaner != nil && s.retention > 0 {
		go s.runRetentionPolicy(ctx)
	}
}

// Trigger queues an immediate run. It reports false when one is already
// queued.
func (s *SchedulerService) Trigger() bool {
	select {
	case s.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}

func (s *SchedulerService) runLoop(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.trigger:
			s.runOnce(ctx)
		}
	}
}

func (s *SchedulerService) runOnce(ctx context.Context) {
	summary, err := s.runner.Run(ctx)
	if err != nil {
		slog.Error("Scheduler: run aborted", "run_id", summary.ID, "error", err)
		return
	}
	totals := summary.Totals()
	slog.Info("Scheduler: run complete",
		"run_id", summary.ID,
		"done", totals.Done,
		"errored", totals.Errored,
		"written", totals.Written,
	)
}

func (s *SchedulerService) runRetentionPolicy(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	s.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cleanup(ctx)
		}
	}
}

func (s *SchedulerService) cleanup(ctx context.Context) {
	count, err := s.cleaner.DeleteStaleJobs(ctx, s.retention)
	if err != nil {
		slog.Error("Retention Policy: failed to cleanup stale jobs", "error", err)
		return
	}
	if count > 0 {
		slog.Info("Retention Policy: deleted stale jobs", "count", count)
	}
}
