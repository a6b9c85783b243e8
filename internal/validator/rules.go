package validator

import (
	"context"
	"fmt"
	"net/url"

	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
)

// builtinRules returns the standard rule set. Each rule is a plain
// value; callers extend the set through Validator.Register.
func builtinRules() []Rule {
	return []Rule{
		{ID: RuleRequiredH1Missing, Check: checkRequiredH1},
		{ID: RuleMultipleH1Found, Check: checkMultipleH1},
		{ID: RuleBlockquoteMalformed, Check: checkBlockquote},
		{ID: RuleSectionEmpty, Check: checkSectionEmpty},
		{ID: RuleEntryURLInvalid, Check: checkEntryURLs},
		{ID: RuleUnexpectedHeading, Check: checkHeadingLevels},
		{ID: RuleContentOutside, Check: checkOrphanContent},
		{ID: RuleEntryURLUnreachable, Network: true, Check: checkURLsReachable},
		{ID: RuleEntryURLRedirected, Network: true, Check: checkURLsRedirected},
		{ID: RuleContentStale, Network: true, Check: checkFreshness},
	}
}

func checkRequiredH1(_ context.Context, in *RuleInput) []domain.ValidationIssue {
	if !isBlank(in.Document.Title) {
		return nil
	}
	return []domain.ValidationIssue{{
		Severity: domain.SeverityError,
		Rule:     RuleRequiredH1Missing,
		Message:  "document has no H1 title",
	}}
}

func checkMultipleH1(_ context.Context, in *RuleInput) []domain.ValidationIssue {
	var issues []domain.ValidationIssue
	for _, diag := range in.Document.DiagnosticsByCode(domain.DiagMultipleH1Found) {
		issues = append(issues, domain.ValidationIssue{
			Severity: domain.SeverityError,
			Rule:     RuleMultipleH1Found,
			Message:  diag.Message,
			Location: lineLocation(diag),
		})
	}
	return issues
}

func checkBlockquote(_ context.Context, in *RuleInput) []domain.ValidationIssue {
	var issues []domain.ValidationIssue
	for _, diag := range in.Document.DiagnosticsByCode(domain.DiagBlockquoteMalformed) {
		issues = append(issues, domain.ValidationIssue{
			Severity: domain.SeverityWarning,
			Rule:     RuleBlockquoteMalformed,
			Message:  diag.Message,
			Location: lineLocation(diag),
		})
	}
	return issues
}

func checkSectionEmpty(_ context.Context, in *RuleInput) []domain.ValidationIssue {
	var issues []domain.ValidationIssue
	for _, section := range in.Document.Sections {
		if len(section.Entries) == 0 {
			issues = append(issues, domain.ValidationIssue{
				Severity: domain.SeverityWarning,
				Rule:     RuleSectionEmpty,
				Message:  fmt.Sprintf("section %q has no entries", section.Name),
				Location: section.Name,
			})
		}
	}
	return issues
}

// checkEntryURLs reports URLs the parser rejected (keyed off the
// structured diagnostic code, not message text) and upgrades the
// parse-time relative-URL warning to an error. Entries that survived
// parsing are re-checked for a non-HTTP scheme as a safety net.
func checkEntryURLs(_ context.Context, in *RuleInput) []domain.ValidationIssue {
	var issues []domain.ValidationIssue

	for _, diag := range in.Document.DiagnosticsByCode(domain.DiagEntryURLInvalid) {
		issues = append(issues, domain.ValidationIssue{
			Severity: domain.SeverityError,
			Rule:     RuleEntryURLInvalid,
			Message:  diag.Message,
			Location: lineLocation(diag),
		})
	}
	for _, diag := range in.Document.DiagnosticsByCode(domain.DiagEntryURLRelative) {
		issues = append(issues, domain.ValidationIssue{
			Severity: domain.SeverityError,
			Rule:     RuleEntryURLInvalid,
			Message:  diag.Message + " (relative URLs are not allowed)",
			Location: lineLocation(diag),
		})
	}

	for _, section := range in.Document.Sections {
		for _, entry := range section.Entries {
			u, err := url.Parse(entry.URL)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				issues = append(issues, domain.ValidationIssue{
					Severity: domain.SeverityError,
					Rule:     RuleEntryURLInvalid,
					Message:  fmt.Sprintf("entry URL %q does not use http or https", entry.URL),
					Location: entryLocation(section, entry),
				})
			}
		}
	}

	return issues
}

func checkHeadingLevels(_ context.Context, in *RuleInput) []domain.ValidationIssue {
	var issues []domain.ValidationIssue
	for _, diag := range in.Document.DiagnosticsByCode(domain.DiagUnexpectedHeading) {
		issues = append(issues, domain.ValidationIssue{
			Severity: domain.SeverityWarning,
			Rule:     RuleUnexpectedHeading,
			Message:  diag.Message,
			Location: lineLocation(diag),
		})
	}
	return issues
}

func checkOrphanContent(_ context.Context, in *RuleInput) []domain.ValidationIssue {
	var issues []domain.ValidationIssue
	for _, diag := range in.Document.DiagnosticsByCode(domain.DiagContentOutside) {
		issues = append(issues, domain.ValidationIssue{
			Severity: domain.SeverityWarning,
			Rule:     RuleContentOutside,
			Message:  diag.Message,
			Location: lineLocation(diag),
		})
	}
	return issues
}

// checkURLsReachable probes every entry URL with HEAD. A failed probe
// classifies that URL as unreachable; it never fails the run.
func checkURLsReachable(ctx context.Context, in *RuleInput) []domain.ValidationIssue {
	probes := in.Probes(ctx)

	var issues []domain.ValidationIssue
	for _, section := range in.Document.Sections {
		for _, entry := range section.Entries {
			probe, ok := probes[entry.URL]
			if !ok {
				continue
			}
			switch {
			case probe.err != nil:
				issues = append(issues, domain.ValidationIssue{
					Severity: domain.SeverityWarning,
					Rule:     RuleEntryURLUnreachable,
					Message:  fmt.Sprintf("HEAD %s failed: %v", entry.URL, probe.err),
					Location: entryLocation(section, entry),
				})
			case probe.statusCode >= 300 && probe.statusCode < 400:
				// Redirects belong to ENTRY_URL_REDIRECTED
			case probe.statusCode < 200 || probe.statusCode >= 400:
				issues = append(issues, domain.ValidationIssue{
					Severity: domain.SeverityWarning,
					Rule:     RuleEntryURLUnreachable,
					Message:  fmt.Sprintf("HEAD %s returned HTTP %d", entry.URL, probe.statusCode),
					Location: entryLocation(section, entry),
				})
			}
		}
	}
	return issues
}

func checkURLsRedirected(ctx context.Context, in *RuleInput) []domain.ValidationIssue {
	probes := in.Probes(ctx)

	var issues []domain.ValidationIssue
	for _, section := range in.Document.Sections {
		for _, entry := range section.Entries {
			probe, ok := probes[entry.URL]
			if !ok || probe.err != nil {
				continue
			}
			if probe.statusCode >= 300 && probe.statusCode < 400 {
				issues = append(issues, domain.ValidationIssue{
					Severity: domain.SeverityWarning,
					Rule:     RuleEntryURLRedirected,
					Message:  fmt.Sprintf("HEAD %s returned redirect HTTP %d", entry.URL, probe.statusCode),
					Location: entryLocation(section, entry),
				})
			}
		}
	}
	return issues
}

// checkFreshness warns when a linked page changed after the llms.txt
// file itself was last modified
func checkFreshness(ctx context.Context, in *RuleInput) []domain.ValidationIssue {
	reference := in.Options.ReferenceTime
	if reference.IsZero() {
		return nil
	}
	probes := in.Probes(ctx)

	var issues []domain.ValidationIssue
	for _, section := range in.Document.Sections {
		for _, entry := range section.Entries {
			probe, ok := probes[entry.URL]
			if !ok || probe.err != nil || probe.lastModified.IsZero() {
				continue
			}
			if probe.lastModified.After(reference) {
				issues = append(issues, domain.ValidationIssue{
					Severity: domain.SeverityWarning,
					Rule:     RuleContentStale,
					Message: fmt.Sprintf("%s was modified %s, after the llms.txt file (%s)",
						entry.URL,
						probe.lastModified.UTC().Format("2006-01-02"),
						reference.UTC().Format("2006-01-02")),
					Location: entryLocation(section, entry),
				})
			}
		}
	}
	return issues
}

func lineLocation(diag domain.Diagnostic) string {
	if diag.Line <= 0 {
		return ""
	}
	return fmt.Sprintf("line %d", diag.Line)
}
