package domain

import "time"

// FetchStatus classifies the outcome of fetching an llms.txt file.
// Callers branch on these categories, never on raw HTTP status codes.
type FetchStatus string

const (
	// StatusSuccess indicates a 2xx response whose body was parsed
	StatusSuccess FetchStatus = "success"
	// StatusNotFound indicates the domain does not publish llms.txt (404)
	StatusNotFound FetchStatus = "not_found"
	// StatusBlocked indicates a 403, typically from a WAF
	StatusBlocked FetchStatus = "blocked"
	// StatusRateLimited indicates a 429
	StatusRateLimited FetchStatus = "rate_limited"
	// StatusDNSFailure indicates the host could not be resolved
	StatusDNSFailure FetchStatus = "dns_failure"
	// StatusTimeout indicates the deadline elapsed before response headers arrived
	StatusTimeout FetchStatus = "timeout"
	// StatusError covers every other failure (5xx, other 4xx, transport)
	StatusError FetchStatus = "error"
)

// DiagnosticSeverity is the severity of a parser diagnostic
type DiagnosticSeverity string

const (
	// DiagWarning marks a recoverable structural problem
	DiagWarning DiagnosticSeverity = "warning"
	// DiagError marks a spec violation
	DiagError DiagnosticSeverity = "error"
)

// Diagnostic codes produced by the parser. The validator keys off these
// codes rather than message text.
const (
	DiagRequiredH1Missing   = "REQUIRED_H1_MISSING"
	DiagMultipleH1Found     = "MULTIPLE_H1_FOUND"
	DiagBlockquoteMalformed = "BLOCKQUOTE_MALFORMED"
	DiagEntryURLRelative    = "ENTRY_URL_RELATIVE"
	DiagEntryURLInvalid     = "ENTRY_URL_INVALID"
	DiagInputTooLarge       = "INPUT_TOO_LARGE"
	DiagUnexpectedHeading   = "UNEXPECTED_HEADING_LEVEL"
	DiagContentOutside      = "CONTENT_OUTSIDE_STRUCTURE"
)

// Diagnostic reports a problem encountered while parsing
type Diagnostic struct {
	Severity DiagnosticSeverity `json:"severity"`
	Code     string             `json:"code"`
	Message  string             `json:"message"`
	Line     int                `json:"line,omitempty"` // 1-based, 0 = unknown
}

// Entry is a single `- [title](url): description` link in a section
type Entry struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// Section groups the entries under one H2 heading. IsOptional is true
// only when the heading text is exactly "Optional".
type Section struct {
	Name       string  `json:"name"`
	IsOptional bool    `json:"is_optional"`
	Entries    []Entry `json:"entries"`
}

// Document is the parsed representation of an llms.txt file. Documents
// are values once produced: nothing outside the parser mutates them.
type Document struct {
	Title       string       `json:"title"`
	Summary     string       `json:"summary,omitempty"`
	Freeform    string       `json:"freeform,omitempty"`
	Sections    []Section    `json:"sections"`
	RawContent  string       `json:"-"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// HasErrors reports whether any error-severity diagnostic was recorded
func (d *Document) HasErrors() bool {
	for _, diag := range d.Diagnostics {
		if diag.Severity == DiagError {
			return true
		}
	}
	return false
}

// DiagnosticsByCode returns the diagnostics carrying the given code
func (d *Document) DiagnosticsByCode(code string) []Diagnostic {
	var out []Diagnostic
	for _, diag := range d.Diagnostics {
		if diag.Code == code {
			out = append(out, diag)
		}
	}
	return out
}

// FetchResult is the total outcome of one llms.txt fetch. Every fetch
// produces one; operational failures are values, never errors.
type FetchResult struct {
	Status       FetchStatus       `json:"status"`
	Document     *Document         `json:"-"`
	RawContent   string            `json:"-"`
	StatusCode   int               `json:"status_code,omitempty"` // 0 when no response was received
	Headers      map[string]string `json:"headers,omitempty"`     // lowercase keys
	BlockReason  string            `json:"block_reason,omitempty"`
	RetryAfter   time.Duration     `json:"retry_after,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
	Duration     time.Duration     `json:"duration"`
	Domain       string            `json:"domain"`
}

// IsSuccess reports whether the fetch produced a parsed document
func (r *FetchResult) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// Header returns a response header by lowercase name
func (r *FetchResult) Header(name string) string {
	if r.Headers == nil {
		return ""
	}
	return r.Headers[name]
}

// Severity of a validation issue
type Severity string

const (
	// SeverityError invalidates the document
	SeverityError Severity = "error"
	// SeverityWarning does not affect validity
	SeverityWarning Severity = "warning"
)

// ValidationIssue is one finding produced by a validation rule
type ValidationIssue struct {
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
	Location string   `json:"location,omitempty"`
}

// ValidationReport aggregates the issues from a validation run.
// Insertion order is preserved within each severity group.
type ValidationReport struct {
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

// Add routes an issue into the matching severity group
func (r *ValidationReport) Add(issue ValidationIssue) {
	if issue.Severity == SeverityError {
		r.Errors = append(r.Errors, issue)
		return
	}
	r.Warnings = append(r.Warnings, issue)
}

// IsValid reports whether the document passed validation. Warnings
// alone never invalidate.
func (r *ValidationReport) IsValid() bool {
	return len(r.Errors) == 0
}

// AllIssues returns errors first, then warnings
func (r *ValidationReport) AllIssues() []ValidationIssue {
	out := make([]ValidationIssue, 0, len(r.Errors)+len(r.Warnings))
	out = append(out, r.Errors...)
	out = append(out, r.Warnings...)
	return out
}

// CacheEntry is one cached (document, fetch-metadata) pair. The entry
// is a value except for LastAccessedAt, which only the cache touches.
type CacheEntry struct {
	Domain         string            `json:"domain"`
	Document       *Document         `json:"-"`
	Report         *ValidationReport `json:"-"`
	FetchResult    *FetchResult      `json:"-"`
	Headers        map[string]string `json:"headers,omitempty"`
	FetchedAt      time.Time         `json:"fetched_at"`
	ExpiresAt      time.Time         `json:"expires_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
}

// IsExpired reports whether the entry's TTL has elapsed
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.ExpiresAt)
}

// TTL returns the remaining time-to-live
func (e *CacheEntry) TTL() time.Duration {
	remaining := time.Until(e.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FetchIssue records one failed linked-content fetch during context generation
type FetchIssue struct {
	URL     string `json:"url"`
	Message string `json:"message"`
}

// ContextResult is the assembled LLM-ready output of the context generator
type ContextResult struct {
	Content           string       `json:"content"`
	ApproxTokenCount  int          `json:"approx_token_count"`
	SectionsIncluded  []string     `json:"sections_included"`
	SectionsOmitted   []string     `json:"sections_omitted,omitempty"`
	SectionsTruncated []string     `json:"sections_truncated,omitempty"`
	FetchErrors       []FetchIssue `json:"fetch_errors,omitempty"`
}
