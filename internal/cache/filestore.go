package cache

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
	"github.com/llmstxt-kit/llmstxt-go/internal/parser"
	"github.com/llmstxt-kit/llmstxt-go/internal/utils"
)

// FileStore persists one JSON file per domain. Writes are atomic
// (temp file + rename); concurrent writers to the same key resolve
// last-writer-wins at the file level.
type FileStore struct {
	dir    string
	parser *parser.Parser
	logger *utils.Logger
}

var _ domain.Store = (*FileStore)(nil)

// NewFileStore creates a file-backed store rooted at dir
func NewFileStore(dir string, logger *utils.Logger) (*FileStore, error) {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{
		dir:    dir,
		parser: parser.NewDefault(),
		logger: logger.WithComponent("filestore"),
	}, nil
}

// fileName maps a cache key to a filename: lowercased, with
// filesystem-unsafe characters percent-escaped
func (s *FileStore) fileName(key string) string {
	escaped := url.PathEscape(strings.ToLower(key))
	return filepath.Join(s.dir, escaped+".json")
}

// Save persists an entry atomically
func (s *FileStore) Save(_ context.Context, key string, entry *domain.CacheEntry) error {
	data, err := EncodeEntry(entry)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".entry-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}

	return os.Rename(tmpName, s.fileName(key))
}

// Load reads an entry, re-parsing its raw content. A corrupt file is
// reported as ErrEntryCorrupt and left in place for inspection.
func (s *FileStore) Load(_ context.Context, key string) (*domain.CacheEntry, error) {
	data, err := os.ReadFile(s.fileName(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrCacheMiss
		}
		return nil, err
	}

	entry, err := DecodeEntry(data, s.parser)
	if err != nil {
		s.logger.Warn().Str("key", key).Msg("corrupt cache file; treating as miss")
		return nil, err
	}
	return entry, nil
}

// Remove deletes the entry file for a key
func (s *FileStore) Remove(_ context.Context, key string) error {
	err := os.Remove(s.fileName(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear deletes every entry file in the store directory
func (s *FileStore) Clear(_ context.Context) error {
	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Close is a no-op for the file store
func (s *FileStore) Close() error {
	return nil
}

// Dir returns the store directory
func (s *FileStore) Dir() string {
	return s.dir
}
