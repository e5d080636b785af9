package httpx

import (
	"errors"
	"fmt"
)

// ErrRobotsDisallowed is returned when robots.txt forbids the request.
var ErrRobotsDisallowed = errors.New("blocked by robots.txt")

// FetchError is a transport failure: the request could not complete or the
// server answered with a non-success status.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	if e.Status == 0 {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.Status, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsClientError reports a 4xx status.
func (e *FetchError) IsClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

// DecodeError means the response arrived but its body was not the expected
// shape.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
