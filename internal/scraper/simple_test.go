package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/baxromumarov/job-aggregator/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func simpleSite(endpoint string) model.Site {
	return model.Site{ID: "globex", Name: "Globex", Kind: model.KindSimpleAPI, Endpoint: endpoint}
}

func TestSimpleAdapter_MapsJobs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"jobs": [
			{"id": 4001, "title": "Senior &amp; <b>Staff</b> Engineer", "absolute_url": "https://boards.example.com/globex/jobs/4001", "location": {"name": "New York"}, "updated_at": "2024-03-10T09:30:00-04:00"},
			{"id": "abc", "title": "Designer", "absolute_url": "/globex/jobs/abc", "location": "Remote", "first_published": "2024-01-02T00:00:00Z"},
			{"title": "Unkeyed", "absolute_url": "https://boards.example.com/globex/jobs/77?gh_src=x&utm_source=li"},
			{"title": "Nothing"}
		]}`))
	}))
	defer srv.Close()

	a := NewSimpleAdapter(testClient(), fixedClock)
	postings, err := a.Fetch(context.Background(), simpleSite(srv.URL+"/v1/boards/globex/jobs"))
	require.NoError(t, err)
	require.Len(t, postings, 3)

	assert.Equal(t, "4001", postings[0].JobID)
	assert.Equal(t, "Senior & Staff Engineer", postings[0].Title)
	assert.Equal(t, "Globex", postings[0].Company)
	assert.Equal(t, "New York", postings[0].Location)
	assert.Equal(t, "https://boards.example.com/globex/jobs/4001", postings[0].URL)
	assert.Equal(t, "2024-03-10", *postings[0].DateString())

	assert.Equal(t, "abc", postings[1].JobID)
	assert.Equal(t, "Remote", postings[1].Location)
	assert.Equal(t, srv.URL+"/globex/jobs/abc", postings[1].URL)
	assert.Equal(t, "2024-01-02", *postings[1].DateString())

	assert.Equal(t, "/globex/jobs/77?gh_src=x", postings[2].JobID)
	assert.Nil(t, postings[2].DatePosted)
}

func TestSimpleAdapter_EmptyOrMissingJobs(t *testing.T) {
	for _, body := range []string{`{}`, `{"jobs": []}`, `{"jobs": null}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		a := NewSimpleAdapter(testClient(), fixedClock)
		postings, err := a.Fetch(context.Background(), simpleSite(srv.URL))
		require.NoError(t, err, body)
		assert.Empty(t, postings, body)
		srv.Close()
	}
}

func TestSimpleAdapter_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/down":
			w.WriteHeader(http.StatusServiceUnavailable)
		case "/truncated":
			w.Write([]byte(`{"jobs": [{"id": 1, "title": "Eng`))
		}
	}))
	defer srv.Close()

	a := NewSimpleAdapter(testClient(), fixedClock)

	postings, err := a.Fetch(context.Background(), simpleSite(srv.URL+"/down"))
	assert.Empty(t, postings)
	assert.Equal(t, model.ErrTransport, model.KindOf(err))

	_, err = a.Fetch(context.Background(), simpleSite(srv.URL+"/truncated"))
	assert.Equal(t, model.ErrParse, model.KindOf(err))
}

func TestSimpleAdapter_OddFieldShapesDoNotFailPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jobs": [
			{"id": {"nested": true}, "title": "Object id", "absolute_url": "/jobs/obj", "location": ["Berlin", "Remote"]},
			{"id": true, "title": "No usable id or url"},
			{"id": 7, "title": "Fine", "absolute_url": "/jobs/7", "location": {"name": 42}}
		]}`))
	}))
	defer srv.Close()

	a := NewSimpleAdapter(testClient(), fixedClock)
	postings, err := a.Fetch(context.Background(), simpleSite(srv.URL))
	require.NoError(t, err)
	require.Len(t, postings, 2)

	assert.Equal(t, "/jobs/obj", postings[0].JobID)
	assert.Empty(t, postings[0].Location)
	assert.Equal(t, "7", postings[1].JobID)
	assert.Equal(t, "42", postings[1].Location)
}
