package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadFrom loads configuration into an existing viper instance so CLI
// flag bindings and an explicit --config file survive the merge
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	// An explicit config file set by the caller wins over the search path
	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
	}

	// A missing config file is fine; defaults, env, and flags apply
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	v.SetEnvPrefix("LLMSTXT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Load loads configuration from a fresh viper instance
func Load() (*Config, error) {
	return LoadFrom(viper.New())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("fetch.timeout", Default().Fetch.Timeout)
	v.SetDefault("fetch.max_retries", Default().Fetch.MaxRetries)
	v.SetDefault("fetch.retry_delay", Default().Fetch.RetryDelay)
	v.SetDefault("fetch.max_response_size", Default().Fetch.MaxResponseSize)

	v.SetDefault("cache.enabled", DefaultCacheEnabled)
	v.SetDefault("cache.ttl", Default().Cache.TTL)
	v.SetDefault("cache.max_entries", Default().Cache.MaxEntries)
	v.SetDefault("cache.stale_while_revalidate", true)
	v.SetDefault("cache.backend", DefaultCacheBackend)
	v.SetDefault("cache.directory", CacheDir())

	v.SetDefault("validate.check_linked_urls", false)
	v.SetDefault("validate.check_freshness", false)
	v.SetDefault("validate.url_check_timeout", Default().Validation.URLCheckTimeout)
	v.SetDefault("validate.concurrency", Default().Validation.Concurrency)

	v.SetDefault("context.max_tokens", 0)
	v.SetDefault("context.include_optional", false)
	v.SetDefault("context.wrap_sections", DefaultWrapSections)
	v.SetDefault("context.concurrency", Default().Context.Concurrency)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.format", DefaultLogFormat)
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	return os.MkdirAll(ConfigDir(), 0o755)
}

// EnsureCacheDir creates the cache directory if it doesn't exist
func EnsureCacheDir() error {
	return os.MkdirAll(CacheDir(), 0o755)
}
