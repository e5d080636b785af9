package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/baxromumarov/job-aggregator/internal/api"
	"github.com/baxromumarov/job-aggregator/internal/core"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run aggregation on a schedule and serve the status API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		pipeline := newPipeline(st)
		scheduler := core.NewSchedulerService(pipeline, time.Duration(cfg.Server.IntervalMins)*time.Minute)
		if cfg.Server.RetentionDays > 0 {
			scheduler.WithRetention(st, time.Duration(cfg.Server.RetentionDays)*24*time.Hour)
		}
		scheduler.Start(ctx)

		srv := api.NewServer(siteSource(st), st, pipeline, scheduler)
		httpSrv := &http.Server{
			Addr:              ":" + strconv.Itoa(cfg.Server.Port),
			Handler:           srv.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = httpSrv.Shutdown(shutdownCtx)
		}()

		slog.Info("starting server", "port", cfg.Server.Port, "interval_mins", cfg.Server.IntervalMins)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			return err
		}
		return nil
	},
}
