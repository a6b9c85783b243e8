// Package cache provides the domain-keyed cache of fetched llms.txt
// documents: TTL-bounded, LRU-evicted, safe for concurrent use, with
// an optional persistent backing store.
package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
	"github.com/llmstxt-kit/llmstxt-go/internal/utils"
)

// cacheItem wraps an entry with its access clock. The atomic keeps
// concurrent Gets from blocking each other while still feeding LRU
// eviction.
type cacheItem struct {
	entry      *domain.CacheEntry
	lastAccess atomic.Int64 // unix nanoseconds
}

// Cache is a thread-safe, domain-keyed store of fetched documents.
// Entries are immutable once stored; only the access timestamp moves.
type Cache struct {
	mu     sync.RWMutex
	items  map[string]*cacheItem
	opts   domain.CacheOptions
	store  domain.Store
	logger *utils.Logger
}

// New creates a cache with the given options
func New(opts domain.CacheOptions, logger *utils.Logger) *Cache {
	if opts.TTL <= 0 {
		opts.TTL = domain.DefaultCacheTTL
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = domain.DefaultMaxEntries
	}
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Cache{
		items:  make(map[string]*cacheItem),
		opts:   opts,
		store:  opts.Store,
		logger: logger.WithComponent("cache"),
	}
}

// Key normalizes a domain for cache identity: comparison is
// case-insensitive.
func Key(domainName string) string {
	return strings.ToLower(strings.TrimSpace(domainName))
}

// Get returns the entry for a domain. With stale-while-revalidate
// enabled, expired entries are returned and the caller decides whether
// to refresh; otherwise an expired entry is a miss. A hit bumps the
// entry's access time, stale hits included.
func (c *Cache) Get(ctx context.Context, domainName string) (*domain.CacheEntry, bool) {
	key := Key(domainName)
	now := time.Now()

	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		promoted := c.promoteFromStore(ctx, key)
		if promoted == nil {
			return nil, false
		}
		item = promoted
	}

	if item.entry.IsExpired() && !c.opts.StaleWhileRevalidate {
		return nil, false
	}

	item.lastAccess.Store(now.UnixNano())

	out := *item.entry
	out.LastAccessedAt = now
	return &out, true
}

// promoteFromStore consults the backing store on an in-memory miss and
// promotes a hit into the in-memory tier
func (c *Cache) promoteFromStore(ctx context.Context, key string) *cacheItem {
	if c.store == nil {
		return nil
	}

	entry, err := c.store.Load(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("key", key).Msg("backing store load failed; treating as miss")
		}
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Another goroutine may have promoted while we were loading
	if existing, ok := c.items[key]; ok {
		return existing
	}

	item := &cacheItem{entry: entry}
	item.lastAccess.Store(entry.LastAccessedAt.UnixNano())
	c.items[key] = item
	c.evictLocked()
	return item
}

// Set stores an entry for a domain, stamping its lifecycle timestamps
// from the configured TTL, and writes through to the backing store.
func (c *Cache) Set(ctx context.Context, domainName string, entry *domain.CacheEntry) error {
	if entry == nil {
		return domain.ErrNilDocument
	}
	key := Key(domainName)
	now := time.Now()

	stored := *entry
	stored.Domain = key
	if stored.FetchedAt.IsZero() {
		stored.FetchedAt = now
	}
	stored.ExpiresAt = stored.FetchedAt.Add(c.opts.TTL)
	stored.LastAccessedAt = now

	item := &cacheItem{entry: &stored}
	item.lastAccess.Store(now.UnixNano())

	c.mu.Lock()
	c.items[key] = item
	c.evictLocked()
	c.mu.Unlock()

	// Backing-store I/O happens outside the in-memory lock
	if c.store != nil {
		if err := c.store.Save(ctx, key, &stored); err != nil {
			return &domain.StoreError{Op: "save", Key: key, Err: err}
		}
	}
	return nil
}

// evictLocked removes least-recently-accessed items until the size
// bound holds. Evicted entries stay in the backing store.
func (c *Cache) evictLocked() {
	for len(c.items) > c.opts.MaxEntries {
		var victim string
		var oldest int64
		for key, item := range c.items {
			access := item.lastAccess.Load()
			if victim == "" || access < oldest {
				victim = key
				oldest = access
			}
		}
		if victim == "" {
			return
		}
		delete(c.items, victim)
		c.logger.Debug().Str("key", victim).Msg("evicted LRU entry")
	}
}

// Invalidate removes a domain from both tiers
func (c *Cache) Invalidate(ctx context.Context, domainName string) error {
	key := Key(domainName)

	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Remove(ctx, key); err != nil {
			return &domain.StoreError{Op: "remove", Key: key, Err: err}
		}
	}
	return nil
}

// Clear empties both tiers
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.items = make(map[string]*cacheItem)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Clear(ctx); err != nil {
			return &domain.StoreError{Op: "clear", Key: "*", Err: err}
		}
	}
	return nil
}

// Len returns the number of in-memory entries
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close releases the backing store, if any
func (c *Cache) Close() error {
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
