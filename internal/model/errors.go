package model

import (
	"errors"

	"github.com/rotisserie/eris"
)

// ErrorKind classifies a failure for the run summary.
type ErrorKind string

const (
	ErrConfig           ErrorKind = "config_error"
	ErrUnknownAdapter   ErrorKind = "unknown_adapter_kind"
	ErrTransport        ErrorKind = "transport_error"
	ErrParse            ErrorKind = "parse_error"
	ErrStoreWrite       ErrorKind = "store_write_error"
	ErrStoreUnavailable ErrorKind = "store_unavailable"
)

// Error is a classified failure scoped to one site (or to the run, for
// ErrStoreUnavailable, which is raised only when the site registry cannot
// be read).
type Error struct {
	Kind   ErrorKind
	SiteID string
	Op     string
	Err    error
}

func NewError(kind ErrorKind, siteID, op string, err error) *Error {
	return &Error{Kind: kind, SiteID: siteID, Op: op, Err: err}
}

func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.SiteID != "" {
		prefix += " [site " + e.SiteID + "]"
	}
	if e.Op != "" {
		prefix += " " + e.Op
	}
	if e.Err == nil {
		return prefix
	}
	return prefix + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

func errMissing(field string) error {
	return eris.Errorf("missing required field %q", field)
}
