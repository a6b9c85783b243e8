package config

import (
	"os"
	"path/filepath"

	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
)

// Default values for settings without a domain-level constant
const (
	DefaultCacheEnabled = true
	DefaultCacheBackend = "file"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "pretty"
	DefaultWrapSections = true
)

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".llmstxt"
	}
	return filepath.Join(home, ".llmstxt")
}

// CacheDir returns the cache directory path
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Fetch: FetchConfig{
			Timeout:         domain.DefaultFetchTimeout,
			MaxRetries:      domain.DefaultMaxRetries,
			RetryDelay:      domain.DefaultRetryDelay,
			MaxResponseSize: domain.DefaultMaxResponseSize,
		},
		Cache: CacheConfig{
			Enabled:              DefaultCacheEnabled,
			TTL:                  domain.DefaultCacheTTL,
			MaxEntries:           domain.DefaultMaxEntries,
			StaleWhileRevalidate: true,
			Backend:              DefaultCacheBackend,
			Directory:            CacheDir(),
		},
		Validation: ValidateConfig{
			URLCheckTimeout: domain.DefaultURLCheckTimeout,
			Concurrency:     domain.DefaultConcurrency,
		},
		Context: ContextConfig{
			WrapSections: DefaultWrapSections,
			Concurrency:  domain.DefaultConcurrency,
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
