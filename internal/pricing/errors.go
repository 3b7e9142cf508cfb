// internal/pricing/errors.go
package pricing

import (
	"fmt"
	"time"
)

// Per-source failures are captured into the source's PriceQuote and are
// never raised past the collector. Only token resolution failures abort
// a collection call.

// SourceTimeoutError records a per-source deadline miss.
type SourceTimeoutError struct {
	Source  string
	Timeout time.Duration
}

func (e *SourceTimeoutError) Error() string {
	return fmt.Sprintf("source %s timed out after %s", e.Source, e.Timeout)
}

// SourceNetworkError records a transport-level failure.
type SourceNetworkError struct {
	Source string
	Err    error
}

func (e *SourceNetworkError) Error() string {
	return fmt.Sprintf("source %s network error: %v", e.Source, e.Err)
}

func (e *SourceNetworkError) Unwrap() error { return e.Err }

// SourceParseError records a malformed provider response.
type SourceParseError struct {
	Source string
	Err    error
}

func (e *SourceParseError) Error() string {
	return fmt.Sprintf("source %s returned malformed response: %v", e.Source, e.Err)
}

func (e *SourceParseError) Unwrap() error { return e.Err }
