package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/baxromumarov/job-aggregator/internal/httpx"
	"github.com/baxromumarov/job-aggregator/internal/model"
	"github.com/baxromumarov/job-aggregator/internal/observability"
)

// Adapter fetches every current posting of one site and maps it to the
// normalized shape. Each call starts from scratch. On failure the returned
// slice holds whatever was accumulated before the error, and the error is a
// *model.Error.
type Adapter interface {
	Fetch(ctx context.Context, site model.Site) ([]model.Posting, error)
}

// JSONClient is the transport the API adapters need. *httpx.PoliteClient
// satisfies it.
type JSONClient interface {
	JSON(ctx context.Context, method, rawURL string, payload, out any) error
}

// Clock returns the reference time for relative posting dates.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// classify wraps a transport failure in the taxonomy: bodies that did not
// decode are parse errors, everything else is a transport error.
func classify(site model.Site, op string, err error) error {
	var classified *model.Error
	if errors.As(err, &classified) {
		return err
	}
	kind := model.ErrTransport
	var de *httpx.DecodeError
	if errors.As(err, &de) {
		kind = model.ErrParse
	}
	observability.IncError(observability.Classify(err), "scraper")
	return model.NewError(kind, site.ID, op, err)
}
