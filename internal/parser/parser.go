package parser

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
)

// Parser turns raw llms.txt content into a structured document. It
// never fails: whatever is recoverable is returned, and every problem
// is reported as a diagnostic on the document.
type Parser struct {
	maxInputSize int
}

// New creates a parser with the given options
func New(opts domain.ParserOptions) *Parser {
	if opts.MaxInputSize <= 0 {
		opts.MaxInputSize = domain.DefaultMaxInputSize
	}
	return &Parser{maxInputSize: opts.MaxInputSize}
}

// NewDefault creates a parser with default options
func NewDefault() *Parser {
	return New(domain.DefaultParserOptions())
}

var (
	h1Regex      = regexp.MustCompile(`^# (.+)$`)
	sectionRegex = regexp.MustCompile(`^##\s+(.*)$`)
	headingRegex = regexp.MustCompile(`^(#{1,6})\s+`)
	entryRegex   = regexp.MustCompile(`^\s*-\s+\[([^\]]+)\]\(([^)]+)\)(.*)$`)
)

// Parse parses llms.txt content. The returned document always carries
// the original input in RawContent, so Parse(Parse(s).RawContent) is
// equal to Parse(s).
func (p *Parser) Parse(content string) *domain.Document {
	doc := &domain.Document{RawContent: content}

	if len(content) > p.maxInputSize {
		doc.RawContent = ""
		doc.Diagnostics = append(doc.Diagnostics, domain.Diagnostic{
			Severity: domain.DiagError,
			Code:     domain.DiagInputTooLarge,
			Message:  fmt.Sprintf("input of %d bytes exceeds the %d byte limit", len(content), p.maxInputSize),
		})
		return doc
	}

	lines := strings.Split(content, "\n")

	var (
		section         *domain.Section
		freeform        []string
		h1Count         int
		awaitingSummary bool
		inQuote         bool
		quoteWarned     bool
		orphanWarned    bool
	)

	flushSection := func() {
		if section != nil {
			doc.Sections = append(doc.Sections, *section)
		}
	}

	for i, line := range lines {
		ln := i + 1

		// Section boundaries are defined only by H2 lines. H3 and
		// deeper stay content of the enclosing region.
		if m := sectionRegex.FindStringSubmatch(line); m != nil {
			flushSection()
			name := strings.TrimSpace(m[1])
			section = &domain.Section{
				Name:       name,
				IsOptional: name == "Optional",
			}
			orphanWarned = false
			awaitingSummary = false
			continue
		}

		if section != nil {
			p.parseSectionLine(doc, section, line, ln, &orphanWarned)
			continue
		}

		// Structural preamble: title, summary, freeform.
		if m := h1Regex.FindStringSubmatch(line); m != nil {
			h1Count++
			switch h1Count {
			case 1:
				doc.Title = strings.TrimSpace(m[1])
				awaitingSummary = true
				continue
			case 2:
				doc.Diagnostics = append(doc.Diagnostics, domain.Diagnostic{
					Severity: domain.DiagError,
					Code:     domain.DiagMultipleH1Found,
					Message:  "more than one H1 heading found; llms.txt allows a single title",
					Line:     ln,
				})
			}
			freeform = append(freeform, line)
			continue
		}

		trimmed := strings.TrimSpace(line)

		if awaitingSummary {
			if trimmed == "" {
				// Blank lines between the title and summary are allowed.
				continue
			}
			if strings.HasPrefix(line, "> ") {
				doc.Summary = strings.TrimSpace(line[2:])
				awaitingSummary = false
				inQuote = true
				continue
			}
			if strings.HasPrefix(line, ">") {
				// Tolerated deviation from the single-line `> ` form.
				doc.Summary = strings.TrimSpace(strings.TrimPrefix(line, ">"))
				awaitingSummary = false
				inQuote = true
				doc.Diagnostics = append(doc.Diagnostics, domain.Diagnostic{
					Severity: domain.DiagWarning,
					Code:     domain.DiagBlockquoteMalformed,
					Message:  "summary blockquote should use the form `> text`",
					Line:     ln,
				})
				continue
			}
			awaitingSummary = false
		}

		// Continuation lines of a multi-line blockquote become freeform;
		// only the first line is the canonical summary.
		if inQuote {
			if strings.HasPrefix(line, ">") {
				if !quoteWarned {
					doc.Diagnostics = append(doc.Diagnostics, domain.Diagnostic{
						Severity: domain.DiagWarning,
						Code:     domain.DiagBlockquoteMalformed,
						Message:  "multi-line blockquote: only the first line is used as the summary",
						Line:     ln,
					})
					quoteWarned = true
				}
			} else {
				inQuote = false
			}
		}

		if level := headingLevel(line); level >= 3 {
			doc.Diagnostics = append(doc.Diagnostics, domain.Diagnostic{
				Severity: domain.DiagWarning,
				Code:     domain.DiagUnexpectedHeading,
				Message:  fmt.Sprintf("heading level %d appears outside any section", level),
				Line:     ln,
			})
		}

		if trimmed != "" || len(freeform) > 0 {
			freeform = append(freeform, line)
		}
	}

	flushSection()

	doc.Freeform = strings.TrimSpace(strings.Join(freeform, "\n"))

	if h1Count == 0 {
		doc.Diagnostics = append(doc.Diagnostics, domain.Diagnostic{
			Severity: domain.DiagError,
			Code:     domain.DiagRequiredH1Missing,
			Message:  "llms.txt requires an H1 title as its first heading",
		})
	}

	return doc
}

// parseSectionLine handles one line inside an H2 section
func (p *Parser) parseSectionLine(doc *domain.Document, section *domain.Section, line string, ln int, orphanWarned *bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}

	m := entryRegex.FindStringSubmatch(line)
	if m == nil {
		// Headings inside a section are tolerated content; anything
		// else is orphan text, reported once per section.
		if headingLevel(line) >= 3 {
			return
		}
		if !*orphanWarned {
			doc.Diagnostics = append(doc.Diagnostics, domain.Diagnostic{
				Severity: domain.DiagWarning,
				Code:     domain.DiagContentOutside,
				Message:  fmt.Sprintf("section %q contains text that is not a link entry", section.Name),
				Line:     ln,
			})
			*orphanWarned = true
		}
		return
	}

	title := strings.TrimSpace(m[1])
	rawURL := strings.TrimSpace(m[2])
	description := parseDescription(m[3])

	switch classifyEntryURL(rawURL) {
	case urlValid:
		section.Entries = append(section.Entries, domain.Entry{
			URL:         rawURL,
			Title:       title,
			Description: description,
		})
	case urlRelative:
		doc.Diagnostics = append(doc.Diagnostics, domain.Diagnostic{
			Severity: domain.DiagWarning,
			Code:     domain.DiagEntryURLRelative,
			Message:  fmt.Sprintf("entry URL %q is not absolute", rawURL),
			Line:     ln,
		})
	case urlInvalid:
		doc.Diagnostics = append(doc.Diagnostics, domain.Diagnostic{
			Severity: domain.DiagError,
			Code:     domain.DiagEntryURLInvalid,
			Message:  fmt.Sprintf("entry URL %q is not a valid HTTP or HTTPS URL", rawURL),
			Line:     ln,
		})
	}
}

// parseDescription extracts the text after the first colon following
// the entry link
func parseDescription(rest string) string {
	rest = strings.TrimLeft(rest, " \t")
	if !strings.HasPrefix(rest, ":") {
		return ""
	}
	return strings.TrimSpace(rest[1:])
}

type urlClass int

const (
	urlValid urlClass = iota
	urlRelative
	urlInvalid
)

func classifyEntryURL(raw string) urlClass {
	u, err := url.Parse(raw)
	if err != nil {
		return urlInvalid
	}
	if u.Scheme == "" {
		return urlRelative
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return urlInvalid
	}
	if u.Host == "" {
		return urlInvalid
	}
	return urlValid
}

func headingLevel(line string) int {
	m := headingRegex.FindStringSubmatch(line)
	if m == nil {
		return 0
	}
	return len(m[1])
}
