// Package app wires the toolkit's components into the high-level
// operations the CLI and embedders call.
package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/llmstxt-kit/llmstxt-go/internal/cache"
	"github.com/llmstxt-kit/llmstxt-go/internal/config"
	"github.com/llmstxt-kit/llmstxt-go/internal/contextgen"
	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
	"github.com/llmstxt-kit/llmstxt-go/internal/fetcher"
	"github.com/llmstxt-kit/llmstxt-go/internal/utils"
	"github.com/llmstxt-kit/llmstxt-go/internal/validator"
)

// Toolkit coordinates fetching, caching, validation, and context
// generation for llms.txt files. One HTTP client is shared by every
// component so connection pooling and retry semantics stay uniform.
type Toolkit struct {
	cfg       *config.Config
	fetcher   *fetcher.Client
	validator *validator.Validator
	cache     *cache.Cache
	generator *contextgen.Generator
	logger    *utils.Logger

	mu         sync.Mutex
	refreshing map[string]struct{}
}

// ToolkitOptions configures toolkit construction
type ToolkitOptions struct {
	Config  *config.Config
	Logger  *utils.Logger
	Verbose bool
}

// NewToolkit builds a toolkit from configuration
func NewToolkit(opts ToolkitOptions) (*Toolkit, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		level := cfg.Logging.Level
		if opts.Verbose {
			level = "debug"
		}
		logger = utils.NewLogger(utils.LoggerOptions{
			Level:   level,
			Format:  cfg.Logging.Format,
			Verbose: opts.Verbose,
		})
	}

	client := fetcher.NewClient(cfg.FetchOptions(), logger)

	cacheOpts := cfg.CacheOptions()
	if cfg.Cache.Enabled {
		store, err := openStore(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("opening cache store: %w", err)
		}
		cacheOpts.Store = store
	}

	return &Toolkit{
		cfg:        cfg,
		fetcher:    client,
		validator:  validator.New(client, logger),
		cache:      cache.New(cacheOpts, logger),
		generator:  contextgen.New(client, logger),
		logger:     logger.WithComponent("toolkit"),
		refreshing: make(map[string]struct{}),
	}, nil
}

// openStore builds the configured persistent tier
func openStore(cfg *config.Config, logger *utils.Logger) (domain.Store, error) {
	switch cfg.Cache.Backend {
	case "file":
		return cache.NewFileStore(cfg.Cache.Directory, logger)
	case "badger":
		return cache.NewBadgerStore(cache.BadgerStoreOptions{Directory: cfg.Cache.Directory}, logger)
	default:
		return nil, nil
	}
}

// Fetcher exposes the shared content fetcher
func (t *Toolkit) Fetcher() *fetcher.Client {
	return t.fetcher
}

// CheckDomain fetches a domain's llms.txt directly, bypassing the
// cache, and returns the classified result
func (t *Toolkit) CheckDomain(ctx context.Context, domainName string) (*domain.FetchResult, error) {
	return t.fetcher.Fetch(ctx, domainName)
}

// GetDocument returns the cached entry for a domain, fetching on a
// miss. With stale-while-revalidate, an expired hit is returned
// immediately and refreshed in the background.
func (t *Toolkit) GetDocument(ctx context.Context, domainName string) (*domain.CacheEntry, error) {
	if entry, ok := t.cache.Get(ctx, domainName); ok {
		if entry.IsExpired() {
			t.refreshAsync(domainName)
		}
		return entry, nil
	}

	return t.fetchAndStore(ctx, domainName)
}

// refreshAsync refreshes a stale entry once, regardless of how many
// callers observed it stale
func (t *Toolkit) refreshAsync(domainName string) {
	key := cache.Key(domainName)

	t.mu.Lock()
	if _, busy := t.refreshing[key]; busy {
		t.mu.Unlock()
		return
	}
	t.refreshing[key] = struct{}{}
	t.mu.Unlock()

	go func() {
		defer func() {
			t.mu.Lock()
			delete(t.refreshing, key)
			t.mu.Unlock()
		}()

		budget := time.Duration(1+t.cfg.Fetch.MaxRetries) * t.cfg.Fetch.Timeout * 2
		ctx, cancel := context.WithTimeout(context.Background(), budget)
		defer cancel()

		if _, err := t.fetchAndStore(ctx, key); err != nil {
			t.logger.Warn().Err(err).Str("domain", key).Msg("background refresh failed")
		}
	}()
}

func (t *Toolkit) fetchAndStore(ctx context.Context, domainName string) (*domain.CacheEntry, error) {
	result, err := t.fetcher.Fetch(ctx, domainName)
	if err != nil {
		return nil, err
	}

	entry := &domain.CacheEntry{
		Domain:      cache.Key(domainName),
		Document:    result.Document,
		FetchResult: result,
		Headers:     result.Headers,
	}
	if err := t.cache.Set(ctx, domainName, entry); err != nil {
		// The caller still gets the fresh result; persistence failure
		// is logged, not fatal
		t.logger.Warn().Err(err).Str("domain", domainName).Msg("cache write failed")
	}

	stored, ok := t.cache.Get(ctx, domainName)
	if ok {
		return stored, nil
	}
	return entry, nil
}

// ValidateDomain fetches (through the cache) and validates a domain's
// llms.txt
func (t *Toolkit) ValidateDomain(ctx context.Context, domainName string, opts domain.ValidateOptions) (*domain.ValidationReport, *domain.CacheEntry, error) {
	entry, err := t.GetDocument(ctx, domainName)
	if err != nil {
		return nil, nil, err
	}
	if entry.Document == nil {
		return nil, entry, fmt.Errorf("no document available for %s: fetch status %s", domainName, entry.FetchResult.Status)
	}

	// Freshness compares linked pages against the llms.txt file's own
	// Last-Modified; fall back to the fetch time when the server sent none
	if opts.CheckFreshness && opts.ReferenceTime.IsZero() {
		if ts, err := http.ParseTime(entry.Headers["last-modified"]); err == nil {
			opts.ReferenceTime = ts
		} else {
			opts.ReferenceTime = entry.FetchedAt
		}
	}

	report, err := t.validator.Validate(ctx, entry.Document, opts)
	if err != nil {
		return nil, entry, err
	}
	return report, entry, nil
}

// GenerateContext fetches (through the cache) a domain's llms.txt and
// expands it into a context document
func (t *Toolkit) GenerateContext(ctx context.Context, domainName string, opts domain.ContextOptions) (*domain.ContextResult, error) {
	entry, err := t.GetDocument(ctx, domainName)
	if err != nil {
		return nil, err
	}
	if entry.Document == nil {
		return nil, fmt.Errorf("no document available for %s: fetch status %s", domainName, entry.FetchResult.Status)
	}

	return t.generator.Generate(ctx, entry.Document, opts)
}

// InvalidateDomain drops a domain from the cache
func (t *Toolkit) InvalidateDomain(ctx context.Context, domainName string) error {
	return t.cache.Invalidate(ctx, domainName)
}

// ClearCache empties the cache, both tiers
func (t *Toolkit) ClearCache(ctx context.Context) error {
	return t.cache.Clear(ctx)
}

// Close releases toolkit resources
func (t *Toolkit) Close() error {
	return t.cache.Close()
}
