package observability

import (
	"context"
	"errors"
	"net/http"

	"github.com/baxromumarov/job-aggregator/internal/httpx"
	"github.com/baxromumarov/job-aggregator/internal/model"
)

const (
	ErrorNetwork   = "network"
	ErrorParsing   = "parsing"
	ErrorRateLimit = "rate_limit"
	ErrorRobots    = "robots"
	ErrorStore     = "store"
	ErrorConfig    = "config"
	ErrorUnknown   = "unknown"
)

func ClassifyFetchError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	if errors.Is(err, httpx.ErrRobotsDisallowed) {
		return ErrorRobots
	}
	var fe *httpx.FetchError
	if errors.As(err, &fe) {
		if fe.Status == http.StatusTooManyRequests {
			return ErrorRateLimit
		}
		return ErrorNetwork
	}
	var de *httpx.DecodeError
	if errors.As(err, &de) {
		return ErrorParsing
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorNetwork
	}
	return ErrorUnknown
}

// Classify maps a pipeline error to a metrics label. Transport detail wins
// over the coarse model kind so 429s and robots blocks stay visible.
func Classify(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	if kind := ClassifyFetchError(err); kind != ErrorUnknown {
		return kind
	}
	switch model.KindOf(err) {
	case model.ErrTransport:
		return ErrorNetwork
	case model.ErrParse:
		return ErrorParsing
	case model.ErrStoreWrite, model.ErrStoreUnavailable:
		return ErrorStore
	case model.ErrConfig, model.ErrUnknownAdapter:
		return ErrorConfig
	}
	return ErrorUnknown
}
