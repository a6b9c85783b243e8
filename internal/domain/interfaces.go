package domain

import (
	"context"
	"net/http"
)

// Store is the contract between the cache and any durable storage tier.
// A file-backed store, an embedded key-value store, and a remote
// key-value store are all conforming implementations.
type Store interface {
	// Save persists an entry under the given key
	Save(ctx context.Context, key string, entry *CacheEntry) error
	// Load retrieves an entry, returning ErrCacheMiss when absent and
	// ErrEntryCorrupt when the persisted form cannot be decoded
	Load(ctx context.Context, key string) (*CacheEntry, error)
	// Remove deletes the entry for the key
	Remove(ctx context.Context, key string) error
	// Clear deletes every entry
	Clear(ctx context.Context) error
	// Close releases store resources
	Close() error
}

// Response is a raw HTTP response captured for linked-content fetches
// and URL probes
type Response struct {
	StatusCode  int
	Body        []byte
	Headers     http.Header
	ContentType string
	URL         string
}

// ContentFetcher is the shared fetching capability the context generator
// and network-dependent validation rules consume. Implementations reuse
// one HTTP client so connection pooling and retry semantics stay
// consistent across components.
type ContentFetcher interface {
	// Get retrieves a URL body with the toolkit's retry and size limits
	Get(ctx context.Context, url string) (*Response, error)
	// Head issues a HEAD probe without following redirects
	Head(ctx context.Context, url string) (*Response, error)
}

// TokenEstimator maps a string to an approximate token count. The
// default is a word-count heuristic; callers may plug in a
// model-specific tokenizer.
type TokenEstimator func(s string) int
