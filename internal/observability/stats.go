package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

type StatsSnapshot struct {
	Runs              uint64            `json:"runs"`
	PagesFetched      uint64            `json:"pages_fetched"`
	PostingsScraped   uint64            `json:"postings_scraped"`
	PostingsWritten   uint64            `json:"postings_written"`
	ErrorsTotal       uint64            `json:"errors_total"`
	SiteSecondsAvg    float64           `json:"site_seconds_avg"`
	PagesByKind       map[string]uint64 `json:"pages_by_kind,omitempty"`
	ErrorsByType      map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByComponent map[string]uint64 `json:"errors_by_component,omitempty"`
}

var (
	runs            uint64
	pagesFetched    uint64
	postingsScraped uint64
	postingsWritten uint64
	errorsTotal     uint64

	siteCount uint64
	siteNanos uint64

	statsMu           sync.Mutex
	pagesByKind       = map[string]uint64{}
	errorsByType      = map[string]uint64{}
	errorsByComponent = map[string]uint64{}
)

func IncRuns() {
	atomic.AddUint64(&runs, 1)
}

// IncPagesFetched counts one upstream response handled by an adapter of the
// given kind.
func IncPagesFetched(kind string) {
	if kind == "" {
		kind = "unknown"
	}
	atomic.AddUint64(&pagesFetched, 1)
	statsMu.Lock()
	pagesByKind[kind]++
	statsMu.Unlock()
}

func AddPostingsScraped(n int) {
	if n > 0 {
		atomic.AddUint64(&postingsScraped, uint64(n))
	}
}

func AddPostingsWritten(n int) {
	if n > 0 {
		atomic.AddUint64(&postingsWritten, uint64(n))
	}
}

func ObserveSiteDuration(d time.Duration) {
	if d <= 0 {
		return
	}
	atomic.AddUint64(&siteCount, 1)
	atomic.AddUint64(&siteNanos, uint64(d.Nanoseconds()))
}

func IncError(errType, component string) {
	if errType == "" {
		errType = ErrorUnknown
	}
	if component == "" {
		component = "unknown"
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsByType[errType]++
	errorsByComponent[component]++
	statsMu.Unlock()
}

func Snapshot() StatsSnapshot {
	statsMu.Lock()
	pagesCopy := copyMap(pagesByKind)
	errorsTypeCopy := copyMap(errorsByType)
	errorsComponentCopy := copyMap(errorsByComponent)
	statsMu.Unlock()

	count := atomic.LoadUint64(&siteCount)
	avg := 0.0
	if count > 0 {
		avg = float64(atomic.LoadUint64(&siteNanos)) / float64(count) / 1e9
	}

	return StatsSnapshot{
		Runs:              atomic.LoadUint64(&runs),
		PagesFetched:      atomic.LoadUint64(&pagesFetched),
		PostingsScraped:   atomic.LoadUint64(&postingsScraped),
		PostingsWritten:   atomic.LoadUint64(&postingsWritten),
		ErrorsTotal:       atomic.LoadUint64(&errorsTotal),
		SiteSecondsAvg:    avg,
		PagesByKind:       pagesCopy,
		ErrorsByType:      errorsTypeCopy,
		ErrorsByComponent: errorsComponentCopy,
	}
}

// Reset zeroes every counter. Used by tests and by long-lived processes that
// export deltas.
func Reset() {
	for _, p := range []*uint64{&runs, &pagesFetched, &postingsScraped, &postingsWritten, &errorsTotal, &siteCount, &siteNanos} {
		atomic.StoreUint64(p, 0)
	}
	statsMu.Lock()
	pagesByKind = map[string]uint64{}
	errorsByType = map[string]uint64{}
	errorsByComponent = map[string]uint64{}
	statsMu.Unlock()
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
