package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
	"github.com/llmstxt-kit/llmstxt-go/internal/parser"
	"github.com/llmstxt-kit/llmstxt-go/internal/utils"
)

// BadgerStoreOptions configures the BadgerDB-backed store
type BadgerStoreOptions struct {
	Directory string
	InMemory  bool
	// GCInterval controls value-log garbage collection; zero uses the
	// default of five minutes
	GCInterval time.Duration
}

// BadgerStore is an embedded key-value variant of the backing store.
// Entries carry a Badger TTL matching their expiry so the database
// reclaims stale documents on its own.
type BadgerStore struct {
	db     *badger.DB
	parser *parser.Parser
	logger *utils.Logger

	stopGC    chan struct{}
	closeOnce sync.Once
}

var _ domain.Store = (*BadgerStore)(nil)

// NewBadgerStore opens (or creates) a Badger database for cache entries
func NewBadgerStore(opts BadgerStoreOptions, logger *utils.Logger) (*BadgerStore, error) {
	if logger == nil {
		logger = utils.NewNopLogger()
	}

	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Directory == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			opts.Directory = filepath.Join(homeDir, ".llmstxt", "cache")
		}
		if err := os.MkdirAll(opts.Directory, 0o755); err != nil {
			return nil, err
		}
		badgerOpts = badger.DefaultOptions(opts.Directory)
	}
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}

	s := &BadgerStore{
		db:     db,
		parser: parser.NewDefault(),
		logger: logger.WithComponent("badgerstore"),
		stopGC: make(chan struct{}),
	}

	interval := opts.GCInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go s.runGC(interval)

	return s, nil
}

func (s *BadgerStore) runGC(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = s.db.RunValueLogGC(0.5)
		case <-s.stopGC:
			return
		}
	}
}

func badgerKey(key string) []byte {
	return []byte("entry:" + strings.ToLower(key))
}

// Save persists an entry, expiring it from the database alongside its
// cache TTL
func (s *BadgerStore) Save(_ context.Context, key string, entry *domain.CacheEntry) error {
	data, err := EncodeEntry(entry)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(badgerKey(key), data)
		if ttl := entry.TTL(); ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// Load reads an entry, re-parsing its raw content
func (s *BadgerStore) Load(_ context.Context, key string) (*domain.CacheEntry, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrCacheMiss
			}
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	entry, err := DecodeEntry(data, s.parser)
	if err != nil {
		s.logger.Warn().Str("key", key).Msg("corrupt cache record; treating as miss")
		return nil, err
	}
	return entry, nil
}

// Remove deletes an entry
func (s *BadgerStore) Remove(_ context.Context, key string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(key))
	})
}

// Clear drops every entry in the database
func (s *BadgerStore) Clear(_ context.Context) error {
	return s.db.DropAll()
}

// Close stops garbage collection and closes the database
func (s *BadgerStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopGC)
		err = s.db.Close()
	})
	return err
}
