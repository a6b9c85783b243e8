package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/llmstxt-kit/llmstxt-go/internal/app"
	"github.com/llmstxt-kit/llmstxt-go/internal/config"
	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
	"github.com/llmstxt-kit/llmstxt-go/pkg/version"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "llmstxt",
	Short: "Work with llms.txt files",
	Long: `llmstxt is a toolkit for consuming llms.txt files: fetch them with
infrastructure-aware status classification, validate their structure,
and expand them into token-budgeted context documents.`,
	Version:       version.Short(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.llmstxt/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("user-agent", "", "Custom User-Agent")
	rootCmd.PersistentFlags().Duration("timeout", domain.DefaultFetchTimeout, "Per-attempt request timeout")
	rootCmd.PersistentFlags().Int("max-retries", domain.DefaultMaxRetries, "Retries after the first attempt")
	rootCmd.PersistentFlags().Duration("cache-ttl", domain.DefaultCacheTTL, "Cache TTL")
	rootCmd.PersistentFlags().String("cache-dir", "", "Cache directory")
	rootCmd.PersistentFlags().String("cache-backend", config.DefaultCacheBackend, "Cache backend: none, file, or badger")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Disable the persistent cache")

	_ = viper.BindPFlag("fetch.user_agent", rootCmd.PersistentFlags().Lookup("user-agent"))
	_ = viper.BindPFlag("fetch.timeout", rootCmd.PersistentFlags().Lookup("timeout"))
	_ = viper.BindPFlag("fetch.max_retries", rootCmd.PersistentFlags().Lookup("max-retries"))
	_ = viper.BindPFlag("cache.ttl", rootCmd.PersistentFlags().Lookup("cache-ttl"))
	_ = viper.BindPFlag("cache.backend", rootCmd.PersistentFlags().Lookup("cache-backend"))

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(contextCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// commandContext returns a context cancelled by SIGINT or SIGTERM
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// newToolkit loads configuration, applies command-line overrides, and
// builds the toolkit
func newToolkit(cmd *cobra.Command) (*app.Toolkit, *config.Config, error) {
	cfg, err := config.LoadFrom(viper.GetViper())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	if dir, _ := cmd.Flags().GetString("cache-dir"); dir != "" {
		cfg.Cache.Directory = dir
	}

	toolkit, err := app.NewToolkit(app.ToolkitOptions{
		Config:  cfg,
		Verbose: verbose,
	})
	if err != nil {
		return nil, nil, err
	}
	return toolkit, cfg, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
