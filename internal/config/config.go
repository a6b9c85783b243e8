package config

import (
	"fmt"
	"time"

	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Fetch      FetchConfig    `mapstructure:"fetch" yaml:"fetch"`
	Cache      CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Validation ValidateConfig `mapstructure:"validate" yaml:"validate"`
	Context    ContextConfig  `mapstructure:"context" yaml:"context"`
	Logging    LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// FetchConfig contains HTTP fetching settings
type FetchConfig struct {
	UserAgent       string        `mapstructure:"user_agent" yaml:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
	MaxResponseSize int64         `mapstructure:"max_response_size" yaml:"max_response_size"`
}

// CacheConfig contains cache settings
type CacheConfig struct {
	Enabled              bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL                  time.Duration `mapstructure:"ttl" yaml:"ttl"`
	MaxEntries           int           `mapstructure:"max_entries" yaml:"max_entries"`
	StaleWhileRevalidate bool          `mapstructure:"stale_while_revalidate" yaml:"stale_while_revalidate"`
	// Backend selects the persistent tier: "none", "file", or "badger"
	Backend   string `mapstructure:"backend" yaml:"backend"`
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// ValidateConfig contains validation settings
type ValidateConfig struct {
	CheckLinkedURLs bool          `mapstructure:"check_linked_urls" yaml:"check_linked_urls"`
	CheckFreshness  bool          `mapstructure:"check_freshness" yaml:"check_freshness"`
	URLCheckTimeout time.Duration `mapstructure:"url_check_timeout" yaml:"url_check_timeout"`
	Concurrency     int           `mapstructure:"concurrency" yaml:"concurrency"`
}

// ContextConfig contains context generation settings
type ContextConfig struct {
	MaxTokens       int  `mapstructure:"max_tokens" yaml:"max_tokens"`
	IncludeOptional bool `mapstructure:"include_optional" yaml:"include_optional"`
	WrapSections    bool `mapstructure:"wrap_sections" yaml:"wrap_sections"`
	Concurrency     int  `mapstructure:"concurrency" yaml:"concurrency"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate checks the configuration and replaces out-of-range values
// with defaults
func (c *Config) Validate() error {
	if c.Fetch.Timeout < time.Second {
		c.Fetch.Timeout = domain.DefaultFetchTimeout
	}
	if c.Fetch.MaxRetries < 0 {
		c.Fetch.MaxRetries = domain.DefaultMaxRetries
	}
	if c.Fetch.RetryDelay <= 0 {
		c.Fetch.RetryDelay = domain.DefaultRetryDelay
	}
	if c.Fetch.MaxResponseSize <= 0 {
		c.Fetch.MaxResponseSize = domain.DefaultMaxResponseSize
	}
	if c.Cache.TTL < time.Minute {
		c.Cache.TTL = domain.DefaultCacheTTL
	}
	if c.Cache.MaxEntries < 1 {
		c.Cache.MaxEntries = domain.DefaultMaxEntries
	}
	switch c.Cache.Backend {
	case "", "none", "file", "badger":
	default:
		return fmt.Errorf("invalid cache backend %q (expected none, file, or badger)", c.Cache.Backend)
	}
	if c.Validation.URLCheckTimeout < time.Second {
		c.Validation.URLCheckTimeout = domain.DefaultURLCheckTimeout
	}
	if c.Validation.Concurrency < 1 {
		c.Validation.Concurrency = domain.DefaultConcurrency
	}
	if c.Context.MaxTokens < 0 {
		c.Context.MaxTokens = 0
	}
	if c.Context.Concurrency < 1 {
		c.Context.Concurrency = domain.DefaultConcurrency
	}
	return nil
}

// FetchOptions converts the fetch section to component options
func (c *Config) FetchOptions() domain.FetchOptions {
	return domain.FetchOptions{
		UserAgent:       c.Fetch.UserAgent,
		Timeout:         c.Fetch.Timeout,
		MaxRetries:      c.Fetch.MaxRetries,
		RetryDelay:      c.Fetch.RetryDelay,
		MaxResponseSize: c.Fetch.MaxResponseSize,
	}
}

// CacheOptions converts the cache section to component options. The
// backing store is attached by the caller.
func (c *Config) CacheOptions() domain.CacheOptions {
	return domain.CacheOptions{
		TTL:                  c.Cache.TTL,
		MaxEntries:           c.Cache.MaxEntries,
		StaleWhileRevalidate: c.Cache.StaleWhileRevalidate,
	}
}

// ValidateOptions converts the validate section to component options
func (c *Config) ValidateOptions() domain.ValidateOptions {
	return domain.ValidateOptions{
		CheckLinkedURLs: c.Validation.CheckLinkedURLs,
		CheckFreshness:  c.Validation.CheckFreshness,
		URLCheckTimeout: c.Validation.URLCheckTimeout,
		Concurrency:     c.Validation.Concurrency,
	}
}

// ContextOptions converts the context section to component options
func (c *Config) ContextOptions() domain.ContextOptions {
	return domain.ContextOptions{
		MaxTokens:       c.Context.MaxTokens,
		IncludeOptional: c.Context.IncludeOptional,
		WrapSections:    c.Context.WrapSections,
		Concurrency:     c.Context.Concurrency,
	}
}
