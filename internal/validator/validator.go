package validator

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
	"github.com/llmstxt-kit/llmstxt-go/internal/utils"
)

// Rule IDs for the builtin rule set
const (
	RuleRequiredH1Missing   = "REQUIRED_H1_MISSING"
	RuleMultipleH1Found     = "MULTIPLE_H1_FOUND"
	RuleBlockquoteMalformed = "BLOCKQUOTE_MALFORMED"
	RuleSectionEmpty        = "SECTION_EMPTY"
	RuleEntryURLInvalid     = "ENTRY_URL_INVALID"
	RuleEntryURLUnreachable = "ENTRY_URL_UNREACHABLE"
	RuleEntryURLRedirected  = "ENTRY_URL_REDIRECTED"
	RuleContentStale        = "CONTENT_STALE"
	RuleUnexpectedHeading   = "UNEXPECTED_HEADING_LEVEL"
	RuleContentOutside      = "CONTENT_OUTSIDE_STRUCTURE"
)

// RuleFunc evaluates one rule against a document. Rules must be
// order-independent: outputs are aggregated and re-sorted by severity.
type RuleFunc func(ctx context.Context, in *RuleInput) []domain.ValidationIssue

// Rule pairs a stable identifier with its evaluator. Network rules run
// only when the matching option enables them.
type Rule struct {
	ID      string
	Network bool
	Check   RuleFunc
}

// probeResult is the outcome of one HEAD probe against an entry URL
type probeResult struct {
	statusCode   int
	lastModified time.Time
	err          error
}

// RuleInput carries everything a rule may need. Probe results are
// shared across network rules so each entry URL is probed once.
type RuleInput struct {
	Document *domain.Document
	Options  domain.ValidateOptions

	fetcher   domain.ContentFetcher
	logger    *utils.Logger
	probeOnce sync.Once
	probes    map[string]*probeResult
}

// Probes lazily issues one HEAD probe per entry URL, bounded by the
// configured concurrency, and memoizes the results
func (in *RuleInput) Probes(ctx context.Context) map[string]*probeResult {
	in.probeOnce.Do(func() {
		in.probes = runProbes(ctx, in)
	})
	return in.probes
}

func runProbes(ctx context.Context, in *RuleInput) map[string]*probeResult {
	results := make(map[string]*probeResult)
	if in.fetcher == nil {
		return results
	}

	var urls []string
	for _, section := range in.Document.Sections {
		for _, entry := range section.Entries {
			if _, seen := results[entry.URL]; !seen {
				results[entry.URL] = &probeResult{}
				urls = append(urls, entry.URL)
			}
		}
	}

	timeout := in.Options.URLCheckTimeout
	if timeout <= 0 {
		timeout = domain.DefaultURLCheckTimeout
	}
	workers := in.Options.Concurrency
	if workers <= 0 {
		workers = domain.DefaultConcurrency
	}

	utils.ParallelForEach(ctx, urls, workers, func(ctx context.Context, rawURL string) error {
		probeCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		res := results[rawURL]
		resp, err := in.fetcher.Head(probeCtx, rawURL)
		if err != nil {
			res.err = err
			return nil
		}
		res.statusCode = resp.StatusCode
		if lm := resp.Headers.Get("Last-Modified"); lm != "" {
			if t, err := time.Parse(time.RFC1123, lm); err == nil {
				res.lastModified = t
			}
		}
		return nil
	})

	return results
}

// Validator dispatches an extensible rule set over a parsed document
type Validator struct {
	rules   []Rule
	fetcher domain.ContentFetcher
	logger  *utils.Logger
}

// New creates a validator with the builtin rule set. The fetcher may
// be nil when network rules are never enabled.
func New(fetcher domain.ContentFetcher, logger *utils.Logger) *Validator {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Validator{
		rules:   builtinRules(),
		fetcher: fetcher,
		logger:  logger.WithComponent("validator"),
	}
}

// Register appends a rule to the set. Registration order does not
// affect the report beyond insertion order within a severity group.
func (v *Validator) Register(rule Rule) {
	v.rules = append(v.rules, rule)
}

// Rules returns the registered rule IDs
func (v *Validator) Rules() []string {
	ids := make([]string, len(v.rules))
	for i, r := range v.rules {
		ids[i] = r.ID
	}
	return ids
}

// Validate runs every applicable rule and aggregates the findings.
// A nil document is a programmer error.
func (v *Validator) Validate(ctx context.Context, doc *domain.Document, opts domain.ValidateOptions) (*domain.ValidationReport, error) {
	if doc == nil {
		return nil, domain.ErrNilDocument
	}
	if opts.URLCheckTimeout <= 0 {
		opts.URLCheckTimeout = domain.DefaultURLCheckTimeout
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = domain.DefaultConcurrency
	}

	in := &RuleInput{
		Document: doc,
		Options:  opts,
		fetcher:  v.fetcher,
		logger:   v.logger,
	}

	report := &domain.ValidationReport{}
	for _, rule := range v.rules {
		if rule.Network && !networkEnabled(rule.ID, opts) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, issue := range rule.Check(ctx, in) {
			report.Add(issue)
		}
	}

	v.logger.Debug().
		Int("errors", len(report.Errors)).
		Int("warnings", len(report.Warnings)).
		Msg("validation completed")

	return report, nil
}

func networkEnabled(ruleID string, opts domain.ValidateOptions) bool {
	switch ruleID {
	case RuleContentStale:
		return opts.CheckFreshness && !opts.ReferenceTime.IsZero()
	default:
		return opts.CheckLinkedURLs
	}
}

// entryLocation names an entry for issue locations
func entryLocation(section domain.Section, entry domain.Entry) string {
	if entry.Title != "" {
		return section.Name + " / " + entry.Title
	}
	return section.Name + " / " + entry.URL
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
