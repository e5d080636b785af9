package scraper

import (
	"sync"

	"github.com/baxromumarov/job-aggregator/internal/httpx"
	"github.com/baxromumarov/job-aggregator/internal/model"
	"github.com/rotisserie/eris"
)

// Options configures the default adapters.
type Options struct {
	HTTP     httpx.Options
	PageSize int
	Clock    Clock
}

// Registry maps an adapter kind to its implementation.
type Registry struct {
	mu       sync.RWMutex
	adapters map[model.AdapterKind]Adapter
}

// NewRegistry returns a registry with the paginated, simple and HTML
// adapters wired to shared transports.
func NewRegistry(opts Options) *Registry {
	client := httpx.NewPoliteClient(opts.HTTP)
	fetcher := httpx.NewCollyFetcher(opts.HTTP)

	r := &Registry{adapters: map[model.AdapterKind]Adapter{}}
	r.Register(model.KindPaginatedAPI, NewPaginatedAdapter(client, opts.PageSize, opts.Clock))
	r.Register(model.KindSimpleAPI, NewSimpleAdapter(client, opts.Clock))
	r.Register(model.KindHTML, NewHTMLAdapter(fetcher, opts.Clock))
	return r
}

// NewEmptyRegistry returns a registry with nothing registered.
func NewEmptyRegistry() *Registry {
	return &Registry{adapters: map[model.AdapterKind]Adapter{}}
}

func (r *Registry) Register(kind model.AdapterKind, a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[kind] = a
}

func (r *Registry) Resolve(kind model.AdapterKind) (Adapter, error) {
	r.mu.RLock()
	a, ok := r.adapters[model.ParseAdapterKind(string(kind))]
	r.mu.RUnlock()
	if !ok {
		return nil, model.NewError(model.ErrUnknownAdapter, "", "resolve adapter",
			eris.Errorf("no adapter for kind %q", kind))
	}
	return a, nil
}
