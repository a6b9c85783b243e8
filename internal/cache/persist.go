package cache

import (
	"encoding/json"
	"time"

	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
	"github.com/llmstxt-kit/llmstxt-go/internal/parser"
)

// persistedEntry is the durable JSON form of a cache entry. The raw
// content is re-parsed on load so the materialized document always
// reflects the current parser, not the one that wrote the file.
type persistedEntry struct {
	Domain         string               `json:"domain"`
	RawContent     string               `json:"rawContent"`
	FetchedAt      time.Time            `json:"fetchedAt"`
	ExpiresAt      time.Time            `json:"expiresAt"`
	LastAccessedAt time.Time            `json:"lastAccessedAt"`
	HTTPHeaders    map[string]string    `json:"httpHeaders,omitempty"`
	FetchResult    persistedFetchResult `json:"fetchResult"`
}

type persistedFetchResult struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode,omitempty"`
	DurationMs int64  `json:"durationMs"`
	Domain     string `json:"domain"`
}

// EncodeEntry serializes an entry for the backing store. Timestamps
// are stored as RFC 3339 UTC at second precision.
func EncodeEntry(entry *domain.CacheEntry) ([]byte, error) {
	pe := persistedEntry{
		Domain:         entry.Domain,
		FetchedAt:      entry.FetchedAt.UTC().Truncate(time.Second),
		ExpiresAt:      entry.ExpiresAt.UTC().Truncate(time.Second),
		LastAccessedAt: entry.LastAccessedAt.UTC().Truncate(time.Second),
		HTTPHeaders:    entry.Headers,
	}
	if entry.Document != nil {
		pe.RawContent = entry.Document.RawContent
	}
	if entry.FetchResult != nil {
		pe.FetchResult = persistedFetchResult{
			Status:     string(entry.FetchResult.Status),
			StatusCode: entry.FetchResult.StatusCode,
			DurationMs: entry.FetchResult.Duration.Milliseconds(),
			Domain:     entry.FetchResult.Domain,
		}
		if pe.RawContent == "" {
			pe.RawContent = entry.FetchResult.RawContent
		}
	}
	return json.MarshalIndent(pe, "", "  ")
}

// DecodeEntry deserializes a persisted entry, running the raw content
// back through the parser
func DecodeEntry(data []byte, p *parser.Parser) (*domain.CacheEntry, error) {
	var pe persistedEntry
	if err := json.Unmarshal(data, &pe); err != nil {
		return nil, domain.ErrEntryCorrupt
	}

	result := &domain.FetchResult{
		Status:     domain.FetchStatus(pe.FetchResult.Status),
		StatusCode: pe.FetchResult.StatusCode,
		Duration:   time.Duration(pe.FetchResult.DurationMs) * time.Millisecond,
		Domain:     pe.FetchResult.Domain,
		Headers:    pe.HTTPHeaders,
		RawContent: pe.RawContent,
	}

	entry := &domain.CacheEntry{
		Domain:         pe.Domain,
		FetchResult:    result,
		Headers:        pe.HTTPHeaders,
		FetchedAt:      pe.FetchedAt,
		ExpiresAt:      pe.ExpiresAt,
		LastAccessedAt: pe.LastAccessedAt,
	}

	// Only successful fetches carried a document; re-parsing an empty
	// body for a cached 404 would invent one
	if result.Status == domain.StatusSuccess {
		doc := p.Parse(pe.RawContent)
		result.Document = doc
		entry.Document = doc
	}

	return entry, nil
}
