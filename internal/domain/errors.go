package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors
var (
	// ErrEmptyDomain indicates an empty or whitespace-only domain was passed
	ErrEmptyDomain = errors.New("domain must not be empty")

	// ErrNilDocument indicates a nil document was passed where one is required
	ErrNilDocument = errors.New("document must not be nil")

	// ErrCacheMiss indicates the key is absent from the cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrEntryCorrupt indicates a persisted cache entry could not be decoded
	ErrEntryCorrupt = errors.New("cache entry corrupt")

	// ErrStoreClosed indicates the backing store was already closed
	ErrStoreClosed = errors.New("store closed")

	// ErrInvalidURL indicates an invalid URL was provided
	ErrInvalidURL = errors.New("invalid URL")

	// ErrBodyTooLarge indicates a response body exceeded the configured ceiling
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout indicates a request deadline elapsed
	ErrTimeout = errors.New("timeout")

	// ErrRateLimited indicates rate limiting was encountered
	ErrRateLimited = errors.New("rate limited")
)

// FetchError represents an HTTP-level failure while fetching content
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchError creates a new FetchError
func NewFetchError(url string, statusCode int, err error) *FetchError {
	return &FetchError{URL: url, StatusCode: statusCode, Err: err}
}

// RetryableError marks an error as safe to retry
type RetryableError struct {
	Err        error
	RetryAfter int // seconds to wait before retry, 0 if unknown
}

func (e *RetryableError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("retryable error (retry after %ds): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("retryable error: %v", e.Err)
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// IsRetryable checks if an error should be retried. Only timeouts,
// transport failures, and 5xx responses qualify; everything else is a
// stable outcome the caller must handle.
func IsRetryable(err error) bool {
	var retryable *RetryableError
	if errors.As(err, &retryable) {
		return true
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		if fetchErr.StatusCode >= 500 && fetchErr.StatusCode <= 599 {
			return true
		}
		// Transport-level failure without a response
		if fetchErr.StatusCode == 0 {
			return true
		}
	}

	return errors.Is(err, ErrTimeout)
}

// StoreError wraps a backing-store failure with the key involved
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed for %q: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
