// Package contextgen assembles expanded context documents from parsed
// llms.txt files: linked content is fetched, cleaned, grouped by
// section, and trimmed to an optional token budget.
package contextgen

import (
	"context"
	"fmt"
	"strings"

	"github.com/llmstxt-kit/llmstxt-go/internal/convert"
	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
	"github.com/llmstxt-kit/llmstxt-go/internal/utils"
)

// Generator expands documents into context strings. It consumes the
// shared content fetcher so linked-content requests carry the same
// retry, timeout, and size semantics as the primary fetch.
type Generator struct {
	fetcher domain.ContentFetcher
	html    *convert.HTMLConverter
	logger  *utils.Logger
}

// New creates a context generator
func New(fetcher domain.ContentFetcher, logger *utils.Logger) *Generator {
	if logger == nil {
		logger = utils.NewNopLogger()
	}
	return &Generator{
		fetcher: fetcher,
		html:    convert.NewHTMLConverter(),
		logger:  logger.WithComponent("contextgen"),
	}
}

// sectionBlock is one section's contribution to the output, tracked
// through budgeting
type sectionBlock struct {
	name      string
	optional  bool
	body      string
	omitted   bool
	truncated bool
}

// fetchJob addresses one entry so parallel fetches can land in
// document order
type fetchJob struct {
	section int
	entry   int
	url     string
}

// Generate fetches every linked entry of the candidate sections and
// assembles the cleaned bodies into a single context string. Fetch
// failures surface as placeholder text plus a FetchErrors record; the
// only hard failures are a nil document and cancellation.
func (g *Generator) Generate(ctx context.Context, doc *domain.Document, opts domain.ContextOptions) (*domain.ContextResult, error) {
	if doc == nil {
		return nil, domain.ErrNilDocument
	}

	estimator := opts.TokenEstimator
	if estimator == nil {
		estimator = DefaultTokenEstimator
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = domain.DefaultConcurrency
	}

	result := &domain.ContextResult{}

	var blocks []*sectionBlock
	var jobs []fetchJob
	for _, section := range doc.Sections {
		if section.IsOptional && !opts.IncludeOptional {
			result.SectionsOmitted = append(result.SectionsOmitted, section.Name)
			continue
		}
		idx := len(blocks)
		blocks = append(blocks, &sectionBlock{
			name:     section.Name,
			optional: section.IsOptional,
		})
		for i, entry := range section.Entries {
			jobs = append(jobs, fetchJob{section: idx, entry: i, url: entry.URL})
		}
	}

	// Entry bodies land in per-job slots so output order never depends
	// on fetch completion order
	bodies := make([]string, len(jobs))
	failures := make([]*domain.FetchIssue, len(jobs))

	indices := make([]int, len(jobs))
	for i := range indices {
		indices[i] = i
	}
	utils.ParallelForEach(ctx, indices, workers, func(ctx context.Context, idx int) error {
		job := jobs[idx]
		text, err := g.fetchEntry(ctx, job.url)
		if err != nil {
			failures[idx] = &domain.FetchIssue{URL: job.url, Message: err.Error()}
			text = fmt.Sprintf("[content unavailable: %s]", job.url)
		}
		bodies[idx] = text
		return nil
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for i, job := range jobs {
		if failures[i] != nil {
			result.FetchErrors = append(result.FetchErrors, *failures[i])
		}
		block := blocks[job.section]
		if block.body != "" {
			block.body += "\n\n"
		}
		block.body += bodies[i]
	}

	applyBudget(blocks, opts, estimator)

	var rendered []string
	for _, block := range blocks {
		if block.omitted {
			result.SectionsOmitted = append(result.SectionsOmitted, block.name)
			continue
		}
		result.SectionsIncluded = append(result.SectionsIncluded, block.name)
		if block.truncated {
			result.SectionsTruncated = append(result.SectionsTruncated, block.name)
		}
		rendered = append(rendered, renderBlock(block, opts.WrapSections))
	}

	result.Content = strings.Join(rendered, "\n\n")
	result.ApproxTokenCount = estimator(result.Content)

	g.logger.Debug().
		Int("sections", len(result.SectionsIncluded)).
		Int("omitted", len(result.SectionsOmitted)).
		Int("truncated", len(result.SectionsTruncated)).
		Int("fetchErrors", len(result.FetchErrors)).
		Int("approxTokens", result.ApproxTokenCount).
		Msg("context generated")

	return result, nil
}

// fetchEntry retrieves one linked URL and reduces it to clean markdown
func (g *Generator) fetchEntry(ctx context.Context, rawURL string) (string, error) {
	resp, err := g.fetcher.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}

	body, err := convert.ToUTF8(resp.Body)
	if err != nil {
		body = resp.Body
	}
	text := string(body)

	switch {
	case convert.IsMarkdownContent(resp.ContentType, rawURL):
		// Already markdown
	case convert.IsPlainTextContent(resp.ContentType, rawURL):
		// Plain text passes through the same cleaning
	case convert.IsHTMLContent(resp.ContentType):
		converted, err := g.html.Convert(text, rawURL)
		if err != nil {
			g.logger.Warn().Err(err).Str("url", rawURL).Msg("HTML conversion failed; using raw body")
		} else {
			text = converted
		}
	}

	return convert.CleanMarkdown(text), nil
}

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// renderBlock wraps a section body. Section names are attribute
// values, not element names, so arbitrary names are safe once escaped.
func renderBlock(block *sectionBlock, wrap bool) string {
	if !wrap {
		return block.body
	}
	return fmt.Sprintf("<section name=\"%s\">\n%s\n</section>", attrEscaper.Replace(block.name), block.body)
}
