package api

import (
	"net/http"
	"strconv"

	"github.com/baxromumarov/job-aggregator/internal/observability"
	"github.com/baxromumarov/job-aggregator/internal/store"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	total, err := s.jobs.CountJobs(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "Failed to count jobs: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs_total": total,
		"counters":   observability.Snapshot(),
	})
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.sites.ListSites(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "Failed to list sites: "+err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items": sites,
		"total": len(sites),
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r, 20)

	jobs, err := s.jobs.ListJobs(r.Context(), store.JobQuery{
		SiteID: r.URL.Query().Get("site_id"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch jobs: "+err.Error())
		return
	}
	if jobs == nil {
		jobs = []store.JobRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":  jobs,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) handleLatestRun(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{}
	if latest, ok := s.runs.Latest(); ok {
		resp["latest"] = latest
		resp["totals"] = latest.Totals()
	}
	if current, ok := s.runs.Current(); ok {
		resp["current"] = current
	}
	if len(resp) == 0 {
		respondError(w, http.StatusNotFound, "No run has finished yet")
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	if !s.trigger.Trigger() {
		respondError(w, http.StatusConflict, "A run is already queued")
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func parsePagination(r *http.Request, defaultLimit int) (int, int) {
	q := r.URL.Query()
	limit := defaultLimit
	offset := 0

	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}

	if v := q.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}

	if limit <= 0 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
