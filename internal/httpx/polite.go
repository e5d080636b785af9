package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 10 << 20

// Options configures both transports.
type Options struct {
	UserAgent     string
	Timeout       time.Duration
	RatePerSec    float64
	Burst         int
	RespectRobots bool
}

func (o Options) withDefaults() Options {
	if o.UserAgent == "" {
		o.UserAgent = "job-aggregator/1.0"
	}
	if o.Timeout <= 0 {
		o.Timeout = 15 * time.Second
	}
	if o.Burst <= 0 {
		o.Burst = 2
	}
	return o
}

func (o Options) limit() rate.Limit {
	if o.RatePerSec <= 0 {
		return rate.Inf
	}
	return rate.Limit(o.RatePerSec)
}

// PoliteClient issues JSON API requests with per-host rate limits and, for
// reads, robots.txt rules. Each call is a single attempt.
type PoliteClient struct {
	client      *http.Client
	opts        Options
	limiters    map[string]*rate.Limiter
	robotsCache map[string]*robotstxt.RobotsData
	mu          sync.Mutex
}

func NewPoliteClient(opts Options) *PoliteClient {
	opts = opts.withDefaults()
	return &PoliteClient{
		client:      &http.Client{Timeout: opts.Timeout},
		opts:        opts,
		limiters:    map[string]*rate.Limiter{},
		robotsCache: map[string]*robotstxt.RobotsData{},
	}
}

func (p *PoliteClient) limiterFor(host string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	if l, ok := p.limiters[host]; ok {
		return l
	}
	l := rate.NewLimiter(p.opts.limit(), p.opts.Burst)
	p.limiters[host] = l
	return l
}

// NewRequest builds a request with context and a URL defaulting to https.
func NewRequest(ctx context.Context, method, rawURL string, body io.Reader) (*http.Request, error) {
	if rawURL == "" {
		return nil, errors.New("empty url")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" {
		u.Scheme = "https"
	}
	return http.NewRequestWithContext(ctx, method, u.String(), body)
}

func (p *PoliteClient) robotsFor(ctx context.Context, u *url.URL) (*robotstxt.RobotsData, error) {
	host := u.Host
	p.mu.Lock()
	if data, ok := p.robotsCache[host]; ok {
		p.mu.Unlock()
		return data, nil
	}
	p.mu.Unlock()

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", p.opts.UserAgent)

	if err := p.limiterFor(u.Hostname()).Wait(ctx); err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.robotsCache[host] = data
	p.mu.Unlock()
	return data, nil
}

// Do executes the request once. Non-2xx responses are returned as a
// *FetchError with the body already closed.
func (p *PoliteClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", p.opts.UserAgent)
	}
	u := req.URL
	target := u.String()

	if p.opts.RespectRobots && !p.allowed(ctx, u, req.Method) {
		return nil, &FetchError{URL: target, Err: ErrRobotsDisallowed}
	}

	if err := p.limiterFor(u.Hostname()).Wait(ctx); err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: target, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		fe := &FetchError{URL: target, Status: resp.StatusCode}
		if msg := strings.TrimSpace(string(snippet)); msg != "" {
			fe.Err = errors.New(msg)
		}
		return nil, fe
	}
	return resp, nil
}

// JSON sends payload (if non-nil) as a JSON body and decodes the response
// into out.
func (p *PoliteClient) JSON(ctx context.Context, method, rawURL string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := NewRequest(ctx, method, rawURL, body)
	if err != nil {
		return &FetchError{URL: rawURL, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(out); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return &FetchError{URL: req.URL.String(), Status: resp.StatusCode, Err: err}
		}
		return &DecodeError{URL: req.URL.String(), Err: err}
	}
	return nil
}

func (p *PoliteClient) allowed(ctx context.Context, u *url.URL, method string) bool {
	// Robots rules only govern crawling; API writes are not checked.
	if !strings.EqualFold(method, http.MethodGet) && !strings.EqualFold(method, http.MethodHead) {
		return true
	}
	data, err := p.robotsFor(ctx, u)
	if err != nil {
		return true // fail open to avoid blocking everything
	}
	group := data.FindGroup(p.opts.UserAgent)
	if group == nil {
		return true
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}
