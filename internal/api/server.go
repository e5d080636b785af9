package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/baxromumarov/job-aggregator/internal/model"
	"github.com/baxromumarov/job-aggregator/internal/store"
)

type SiteLister interface {
	ListSites(ctx context.Context) ([]model.Site, error)
}

type JobReader interface {
	ListJobs(ctx context.Context, q store.JobQuery) ([]store.JobRecord, error)
	CountJobs(ctx context.Context) (int, error)
}

type RunTracker interface {
	Latest() (model.RunSummary, bool)
	Current() (model.RunSummary, bool)
}

type RunTrigger interface {
	Trigger() bool
}

type Server struct {
	router  *chi.Mux
	sites   SiteLister
	jobs    JobReader
	runs    RunTracker
	trigger RunTrigger
}

func NewServer(sites SiteLister, jobs JobReader, runs RunTracker, trigger RunTrigger) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		sites:   sites,
		jobs:    jobs,
		runs:    runs,
		trigger: trigger,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/stats", s.handleStats)
	s.router.Get("/sites", s.handleListSites)
	s.router.Get("/jobs", s.handleListJobs)
	s.router.Get("/runs/latest", s.handleLatestRun)
	s.router.Post("/runs", s.handleTriggerRun)
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
