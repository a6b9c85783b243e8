// Package version exposes build metadata injected at link time.
package version

import "fmt"

// Populated via -ldflags at build time
var (
	Version = "0.3.0"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns the bare version string
func Short() string {
	return Version
}

// Full returns version, commit, and build date
func Full() string {
	return fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date)
}

// UserAgent returns the default User-Agent for outbound requests. It
// identifies the toolkit honestly and never impersonates a browser.
func UserAgent() string {
	return fmt.Sprintf("LlmsTxtKit/%s (+https://github.com/llmstxt-kit/llmstxt-go)", Version)
}
