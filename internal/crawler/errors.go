package crawler

import (
	"errors"
	"fmt"
)

// ErrMissingTitle is returned by extraction when a detail page carries no
// usable title. It is the only hard extraction failure; every other absent
// field degrades to a sentinel value.
var ErrMissingTitle = errors.New("detail page is missing its title")

// FetchErrorKind classifies fetch failures.
type FetchErrorKind int

// Fetch error kinds.
const (
	FetchTimeout FetchErrorKind = iota
	FetchConnection
	FetchHTTPStatus
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchTimeout:
		return "timeout"
	case FetchConnection:
		return "connection"
	case FetchHTTPStatus:
		return "http_status"
	default:
		return "unknown"
	}
}

// FetchError describes a failed page fetch. StatusCode is only set for
// FetchHTTPStatus.
type FetchError struct {
	URL        string
	Kind       FetchErrorKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchHTTPStatus {
		return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient: timeouts, connection
// failures, rate limiting (429), and server errors (5xx). Other client
// errors fail immediately.
func (e *FetchError) Retryable() bool {
	switch e.Kind {
	case FetchTimeout, FetchConnection:
		return true
	case FetchHTTPStatus:
		return e.StatusCode == 429 || e.StatusCode >= 500
	default:
		return false
	}
}

// ValidationError marks a record field that violated its domain constraint
// after parsing. Records failing validation are counted as failed, distinct
// from skipped, so operators can tell malformed data from absent data.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}
