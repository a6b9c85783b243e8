package domain

import "time"

// Default option values shared across components
const (
	DefaultFetchTimeout          = 15 * time.Second
	DefaultMaxRetries            = 2
	DefaultRetryDelay            = 1 * time.Second
	DefaultMaxResponseSize int64 = 5 * 1024 * 1024
	DefaultURLCheckTimeout       = 10 * time.Second
	DefaultCacheTTL              = 1 * time.Hour
	DefaultMaxEntries            = 100
	DefaultConcurrency           = 4
	DefaultMaxInputSize          = 5 * 1024 * 1024
)

// ParserOptions bounds parser resource usage
type ParserOptions struct {
	// MaxInputSize rejects larger inputs with a single fatal diagnostic
	MaxInputSize int
}

// DefaultParserOptions returns default parser options
func DefaultParserOptions() ParserOptions {
	return ParserOptions{MaxInputSize: DefaultMaxInputSize}
}

// FetchOptions configures the llms.txt fetcher and the shared HTTP client
type FetchOptions struct {
	// UserAgent identifies the toolkit honestly; never a browser string
	UserAgent string
	// Timeout bounds each individual attempt
	Timeout time.Duration
	// MaxRetries is the number of additional attempts beyond the first
	MaxRetries int
	// RetryDelay is the base for exponential backoff with jitter
	RetryDelay time.Duration
	// AcceptHeader overrides the Accept header when non-empty
	AcceptHeader string
	// MaxResponseSize is a hard ceiling on response bodies
	MaxResponseSize int64
}

// DefaultFetchOptions returns default fetch options
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		Timeout:         DefaultFetchTimeout,
		MaxRetries:      DefaultMaxRetries,
		RetryDelay:      DefaultRetryDelay,
		MaxResponseSize: DefaultMaxResponseSize,
	}
}

// ValidateOptions configures a validation run
type ValidateOptions struct {
	// CheckLinkedURLs enables the HEAD-probe rules
	CheckLinkedURLs bool
	// CheckFreshness enables Last-Modified comparison against ReferenceTime
	CheckFreshness bool
	// URLCheckTimeout bounds each HEAD probe
	URLCheckTimeout time.Duration
	// Concurrency bounds parallel probes
	Concurrency int
	// ReferenceTime is the llms.txt file's own Last-Modified timestamp;
	// freshness checks are skipped when zero
	ReferenceTime time.Time
}

// DefaultValidateOptions returns default validation options
func DefaultValidateOptions() ValidateOptions {
	return ValidateOptions{
		URLCheckTimeout: DefaultURLCheckTimeout,
		Concurrency:     DefaultConcurrency,
	}
}

// CacheOptions configures the domain-keyed cache
type CacheOptions struct {
	// TTL is applied to every entry at Set time
	TTL time.Duration
	// MaxEntries bounds the in-memory tier; oldest access evicted first
	MaxEntries int
	// StaleWhileRevalidate returns expired entries flagged as expired
	// instead of treating them as misses
	StaleWhileRevalidate bool
	// Store is the optional persistent backing tier
	Store Store
}

// DefaultCacheOptions returns default cache options
func DefaultCacheOptions() CacheOptions {
	return CacheOptions{
		TTL:                  DefaultCacheTTL,
		MaxEntries:           DefaultMaxEntries,
		StaleWhileRevalidate: true,
	}
}

// ContextOptions configures context generation
type ContextOptions struct {
	// MaxTokens caps the estimated output size; 0 means unbounded
	MaxTokens int
	// IncludeOptional includes sections marked Optional
	IncludeOptional bool
	// WrapSections wraps each section block in <section name="..."> tags
	WrapSections bool
	// TokenEstimator replaces the default word-count heuristic
	TokenEstimator TokenEstimator
	// Concurrency bounds parallel linked-content fetches
	Concurrency int
}

// DefaultContextOptions returns default context options
func DefaultContextOptions() ContextOptions {
	return ContextOptions{
		WrapSections: true,
		Concurrency:  DefaultConcurrency,
	}
}
