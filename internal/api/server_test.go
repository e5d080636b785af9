package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/baxromumarov/job-aggregator/internal/model"
	"github.com/baxromumarov/job-aggregator/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuns struct {
	latest  *model.RunSummary
	current *model.RunSummary
}

func (f *fakeRuns) Latest() (model.RunSummary, bool) {
	if f.latest == nil {
		return model.RunSummary{}, false
	}
	return *f.latest, true
}

func (f *fakeRuns) Current() (model.RunSummary, bool) {
	if f.current == nil {
		return model.RunSummary{}, false
	}
	return *f.current, true
}

type fakeTrigger struct{ queued bool }

func (f *fakeTrigger) Trigger() bool {
	if f.queued {
		return false
	}
	f.queued = true
	return true
}

func newTestServer(t *testing.T, runs *fakeRuns) (*Server, *store.Store) {
	t.Helper()
	st, err := store.NewStore(store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))
	return NewServer(st, st, runs, &fakeTrigger{}), st
}

func do(t *testing.T, s *Server, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, &fakeRuns{})
	rec, _ := do(t, s, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestListJobsAndSites(t *testing.T) {
	s, st := newTestServer(t, &fakeRuns{})
	ctx := context.Background()

	require.NoError(t, st.SaveSite(ctx, model.Site{ID: "acme", Name: "Acme", Kind: model.KindHTML, Endpoint: "https://acme.example/careers"}))
	_, err := st.UpsertBatch(ctx, "acme", []model.Posting{{JobID: "1", Title: "Engineer"}, {JobID: "2", Title: "Designer"}})
	require.NoError(t, err)
	_, err = st.UpsertBatch(ctx, "globex", []model.Posting{{JobID: "9", Title: "Analyst"}})
	require.NoError(t, err)

	rec, body := do(t, s, http.MethodGet, "/jobs?site_id=acme&limit=500")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["items"], 2)
	assert.Equal(t, float64(500), body["limit"])

	rec, body = do(t, s, http.MethodGet, "/jobs?limit=-3&offset=-1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["items"], 3)
	assert.Equal(t, float64(20), body["limit"])
	assert.Equal(t, float64(0), body["offset"])

	rec, body = do(t, s, http.MethodGet, "/sites")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total"])

	rec, body = do(t, s, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["jobs_total"])
	assert.Contains(t, body, "counters")
}

func TestLatestRun(t *testing.T) {
	runs := &fakeRuns{}
	s, _ := newTestServer(t, runs)

	rec, _ := do(t, s, http.MethodGet, "/runs/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	runs.latest = &model.RunSummary{ID: "r1", Sites: []model.SiteOutcome{
		{SiteID: "a", Status: model.StatusDone, Written: 4},
		{SiteID: "b", Status: model.StatusErrored, ErrorKind: model.ErrTransport},
	}}
	rec, body := do(t, s, http.MethodGet, "/runs/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	latest := body["latest"].(map[string]any)
	assert.Equal(t, "r1", latest["id"])
	totals := body["totals"].(map[string]any)
	assert.Equal(t, float64(1), totals["errored"])
	assert.Equal(t, float64(4), totals["written"])
}

func TestTriggerRun(t *testing.T) {
	s, _ := newTestServer(t, &fakeRuns{})

	rec, body := do(t, s, http.MethodPost, "/runs")
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "queued", body["status"])

	rec, _ = do(t, s, http.MethodPost, "/runs")
	assert.Equal(t, http.StatusConflict, rec.Code)
}
