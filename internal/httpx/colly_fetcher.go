package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/gocolly/colly/v2"
	"golang.org/x/time/rate"
)

// CollyFetcher wraps Colly for HTML fetching and CSS-based parsing. Each
// Fetch is a single attempt against a fresh collector.
type CollyFetcher struct {
	opts  Options
	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

func NewCollyFetcher(opts Options) *CollyFetcher {
	return &CollyFetcher{
		opts:  opts.withDefaults(),
		hosts: make(map[string]*rate.Limiter),
	}
}

// Fetch requests rawURL and runs the callbacks that register installs. It
// returns the response status.
func (f *CollyFetcher) Fetch(ctx context.Context, rawURL string, register func(*colly.Collector)) (int, error) {
	target, err := normalizeURL(rawURL)
	if err != nil {
		return 0, &FetchError{URL: rawURL, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return 0, &FetchError{URL: target, Err: err}
	}
	if err := f.limiterFor(hostKey(target)).Wait(ctx); err != nil {
		return 0, &FetchError{URL: target, Err: err}
	}
	status, err := f.fetchOnce(ctx, target, register)
	if err != nil {
		return status, &FetchError{URL: target, Status: status, Err: err}
	}
	return status, nil
}

func (f *CollyFetcher) fetchOnce(ctx context.Context, target string, register func(*colly.Collector)) (int, error) {
	c := f.newCollector()
	if register != nil {
		register(c)
	}

	status := 0
	var reqErr error
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		reqErr = err
	})

	collyCtx := colly.NewContext()
	collyCtx.Put("ctx", ctx)

	if err := c.Request(http.MethodGet, target, nil, collyCtx, nil); err != nil {
		if errors.Is(err, colly.ErrRobotsTxtBlocked) {
			return status, ErrRobotsDisallowed
		}
		return status, err
	}
	if reqErr != nil {
		return status, reqErr
	}
	if status == 0 && ctx.Err() != nil {
		return status, ctx.Err()
	}
	if status >= 400 {
		return status, errors.New(http.StatusText(status))
	}
	if status == 0 {
		status = http.StatusOK
	}
	return status, nil
}

func (f *CollyFetcher) newCollector() *colly.Collector {
	c := colly.NewCollector(colly.UserAgent(f.opts.UserAgent))
	c.IgnoreRobotsTxt = !f.opts.RespectRobots
	c.SetRequestTimeout(f.opts.Timeout)

	c.OnRequest(func(r *colly.Request) {
		ctx := context.Background()
		if v := r.Ctx.GetAny("ctx"); v != nil {
			if reqCtx, ok := v.(context.Context); ok {
				ctx = reqCtx
			}
		}
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	return c
}

func (f *CollyFetcher) limiterFor(host string) *rate.Limiter {
	if host == "" {
		host = "default"
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if l, ok := f.hosts[host]; ok {
		return l
	}
	l := rate.NewLimiter(f.opts.limit(), f.opts.Burst)
	f.hosts[host] = l
	return l
}

func normalizeURL(rawURL string) (string, error) {
	if rawURL == "" {
		return "", errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u.String(), nil
}

func normalizeHost(host string) string {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "www.")
	return host
}

func hostKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "default"
	}
	return normalizeHost(u.Hostname())
}
