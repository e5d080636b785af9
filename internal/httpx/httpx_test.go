package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{UserAgent: "test-agent", Timeout: 5 * time.Second}
}

func TestPoliteClientJSON_PostsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total": 3}`))
	}))
	defer srv.Close()

	c := NewPoliteClient(testOptions())
	var out struct {
		Total int `json:"total"`
	}
	err := c.JSON(context.Background(), http.MethodPost, srv.URL+"/jobs", map[string]int{"limit": 20}, &out)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Total)
}

func TestPoliteClientJSON_StatusIsFetchError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such board", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewPoliteClient(testOptions())
	var out map[string]any
	err := c.JSON(context.Background(), http.MethodGet, srv.URL+"/missing", nil, &out)
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.Status)
	assert.True(t, fe.IsClientError())
	assert.Contains(t, fe.Error(), "no such board")
	assert.Equal(t, int32(1), calls.Load(), "server errors are not retried")
}

func TestPoliteClientJSON_ServerErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewPoliteClient(testOptions())
	var out map[string]any
	err := c.JSON(context.Background(), http.MethodGet, srv.URL, nil, &out)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.False(t, fe.IsClientError())
	assert.Equal(t, int32(1), calls.Load())
}

func TestPoliteClientJSON_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer srv.Close()

	c := NewPoliteClient(testOptions())
	var out map[string]any
	err := c.JSON(context.Background(), http.MethodGet, srv.URL, nil, &out)

	var de *DecodeError
	require.True(t, errors.As(err, &de))
}

func TestPoliteClient_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	opts := testOptions()
	opts.Timeout = 20 * time.Millisecond
	c := NewPoliteClient(opts)
	var out map[string]any
	err := c.JSON(context.Background(), http.MethodGet, srv.URL, nil, &out)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 0, fe.Status)
}

func TestPoliteClient_RobotsDisallow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	opts := testOptions()
	opts.RespectRobots = true
	c := NewPoliteClient(opts)

	var out map[string]any
	err := c.JSON(context.Background(), http.MethodGet, srv.URL+"/private/jobs", nil, &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRobotsDisallowed))

	require.NoError(t, c.JSON(context.Background(), http.MethodGet, srv.URL+"/public/jobs", nil, &out))
	// POST API calls are not subject to robots rules.
	require.NoError(t, c.JSON(context.Background(), http.MethodPost, srv.URL+"/private/jobs", struct{}{}, &out))
}

func TestCollyFetcher_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><div class="job-listing"><span class="job-title">Engineer</span></div></body></html>`))
	}))
	defer srv.Close()

	f := NewCollyFetcher(testOptions())
	var titles []string
	status, err := f.Fetch(context.Background(), srv.URL+"/careers", func(c *colly.Collector) {
		c.OnHTML(".job-title", func(e *colly.HTMLElement) {
			titles = append(titles, strings.TrimSpace(e.Text))
		})
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Engineer"}, titles)
}

func TestCollyFetcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	f := NewCollyFetcher(testOptions())
	status, err := f.Fetch(context.Background(), srv.URL, nil)
	require.Error(t, err)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, http.StatusInternalServerError, fe.Status)
}

func TestCollyFetcher_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewCollyFetcher(testOptions())
	_, err := f.Fetch(ctx, "https://example.invalid/jobs", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
