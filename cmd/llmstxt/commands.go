package main

import (
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
)

var checkCmd = &cobra.Command{
	Use:   "check <domain>",
	Short: "Fetch a domain's llms.txt and report the classified outcome",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		toolkit, _, err := newToolkit(cmd)
		if err != nil {
			return err
		}
		defer toolkit.Close()

		result, err := toolkit.CheckDomain(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("domain:   %s\n", result.Domain)
		fmt.Printf("status:   %s\n", result.Status)
		if result.StatusCode != 0 {
			fmt.Printf("http:     %d\n", result.StatusCode)
		}
		fmt.Printf("duration: %s\n", formatDuration(result.Duration))
		if result.BlockReason != "" {
			fmt.Printf("blocked:  %s\n", result.BlockReason)
		}
		if result.RetryAfter > 0 {
			fmt.Printf("retry-after: %s\n", result.RetryAfter)
		}
		if result.ErrorMessage != "" {
			fmt.Printf("error:    %s\n", result.ErrorMessage)
		}

		if doc := result.Document; doc != nil {
			fmt.Printf("title:    %s\n", doc.Title)
			if doc.Summary != "" {
				fmt.Printf("summary:  %s\n", doc.Summary)
			}
			fmt.Printf("sections: %d\n", len(doc.Sections))
			for _, diag := range doc.Diagnostics {
				fmt.Printf("  %s %s: %s\n", diag.Severity, diag.Code, diag.Message)
			}
		}

		if !result.IsSuccess() {
			os.Exit(1)
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <domain>",
	Short: "Validate a domain's llms.txt against the rule set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		toolkit, cfg, err := newToolkit(cmd)
		if err != nil {
			return err
		}
		defer toolkit.Close()

		opts := cfg.ValidateOptions()
		if checkURLs, _ := cmd.Flags().GetBool("check-urls"); checkURLs {
			opts.CheckLinkedURLs = true
		}
		if checkFreshness, _ := cmd.Flags().GetBool("check-freshness"); checkFreshness {
			opts.CheckFreshness = true
		}

		report, entry, err := toolkit.ValidateDomain(ctx, args[0], opts)
		if err != nil {
			return err
		}

		fmt.Printf("domain: %s\n", entry.Domain)
		for _, issue := range report.AllIssues() {
			if issue.Location != "" {
				fmt.Printf("  %s %s (%s): %s\n", issue.Severity, issue.Rule, issue.Location, issue.Message)
			} else {
				fmt.Printf("  %s %s: %s\n", issue.Severity, issue.Rule, issue.Message)
			}
		}
		fmt.Printf("errors: %d, warnings: %d\n", len(report.Errors), len(report.Warnings))

		if !report.IsValid() {
			os.Exit(1)
		}
		return nil
	},
}

var contextCmd = &cobra.Command{
	Use:   "context <domain>",
	Short: "Expand a domain's llms.txt into a context document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		toolkit, cfg, err := newToolkit(cmd)
		if err != nil {
			return err
		}
		defer toolkit.Close()

		opts := cfg.ContextOptions()
		if maxTokens, _ := cmd.Flags().GetInt("max-tokens"); cmd.Flags().Changed("max-tokens") {
			opts.MaxTokens = maxTokens
		}
		if includeOptional, _ := cmd.Flags().GetBool("include-optional"); includeOptional {
			opts.IncludeOptional = true
		}
		if noWrap, _ := cmd.Flags().GetBool("no-wrap"); noWrap {
			opts.WrapSections = false
		}

		bar := progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("expanding linked content"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
		done := make(chan struct{})
		go func() {
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					_ = bar.Add(1)
				}
			}
		}()

		result, err := toolkit.GenerateContext(ctx, args[0], opts)
		close(done)
		_ = bar.Finish()
		if err != nil {
			return err
		}

		if err := writeContextResult(cmd, result); err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "sections: %d included, %d omitted, %d truncated; ~%d tokens\n",
			len(result.SectionsIncluded), len(result.SectionsOmitted),
			len(result.SectionsTruncated), result.ApproxTokenCount)
		for _, issue := range result.FetchErrors {
			fmt.Fprintf(os.Stderr, "  fetch failed: %s: %s\n", issue.URL, issue.Message)
		}
		return nil
	},
}

func writeContextResult(cmd *cobra.Command, result *domain.ContextResult) error {
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		fmt.Println(result.Content)
		return nil
	}
	return os.WriteFile(out, []byte(result.Content+"\n"), 0o644)
}

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the document cache",
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		toolkit, _, err := newToolkit(cmd)
		if err != nil {
			return err
		}
		defer toolkit.Close()

		if err := toolkit.ClearCache(ctx); err != nil {
			return err
		}
		fmt.Println("cache cleared")
		return nil
	},
}

var cacheRemoveCmd = &cobra.Command{
	Use:   "rm <domain>",
	Short: "Remove one domain from the cache",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		toolkit, _, err := newToolkit(cmd)
		if err != nil {
			return err
		}
		defer toolkit.Close()

		if err := toolkit.InvalidateDomain(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("removed %s\n", args[0])
		return nil
	},
}

func init() {
	validateCmd.Flags().Bool("check-urls", false, "Probe linked URLs with HEAD requests")
	validateCmd.Flags().Bool("check-freshness", false, "Compare linked content against Last-Modified")

	contextCmd.Flags().Int("max-tokens", 0, "Token budget for the output (0 = unbounded)")
	contextCmd.Flags().Bool("include-optional", false, "Include sections marked Optional")
	contextCmd.Flags().Bool("no-wrap", false, "Do not wrap sections in <section> tags")
	contextCmd.Flags().StringP("out", "o", "", "Write the context to a file instead of stdout")

	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheRemoveCmd)
}
