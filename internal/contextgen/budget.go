package contextgen

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
)

// TruncationMarker is appended to every section cut short by the
// token budget
const TruncationMarker = "[... content truncated to fit token budget ...]"

// DefaultTokenEstimator approximates the token count of a string as
// the ceiling of its whitespace-separated word count divided by four.
// Callers wanting model-accurate budgets supply their own estimator.
func DefaultTokenEstimator(s string) int {
	words := len(strings.Fields(s))
	return (words + 3) / 4
}

// applyBudget trims blocks in place until the assembled output fits
// the token budget: whole Optional sections are dropped first, then
// remaining sections are truncated from the last candidate backward.
func applyBudget(blocks []*sectionBlock, opts domain.ContextOptions, estimator domain.TokenEstimator) {
	if opts.MaxTokens <= 0 {
		return
	}

	total := func() int {
		var rendered []string
		for _, block := range blocks {
			if block.omitted {
				continue
			}
			rendered = append(rendered, renderBlock(block, opts.WrapSections))
		}
		return estimator(strings.Join(rendered, "\n\n"))
	}

	if total() <= opts.MaxTokens {
		return
	}

	for i := len(blocks) - 1; i >= 0; i-- {
		if !blocks[i].optional || blocks[i].omitted {
			continue
		}
		blocks[i].omitted = true
		if total() <= opts.MaxTokens {
			return
		}
	}

	for i := len(blocks) - 1; i >= 0; i-- {
		if blocks[i].omitted {
			continue
		}
		if total() <= opts.MaxTokens {
			return
		}
		truncateBlock(blocks[i], opts.MaxTokens, total)
	}
}

// truncateBlock shortens one block's body until the whole output fits,
// cutting at a sentence boundary when one exists and appending the
// truncation marker. A block whose marker alone does not fit is
// dropped outright.
func truncateBlock(block *sectionBlock, maxTokens int, total func() int) {
	original := block.body

	fits := func(body string) bool {
		block.body = body
		return total() <= maxTokens
	}

	if !fits(TruncationMarker) {
		block.body = original
		block.omitted = true
		return
	}

	lo, hi := 0, len(original)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if fits(withMarker(original[:mid])) {
			lo = mid
		} else {
			hi = mid - 1
		}
	}

	cut := boundaryBefore(original, lo)
	block.body = withMarker(original[:cut])
	block.truncated = true
}

func withMarker(body string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return TruncationMarker
	}
	return body + "\n\n" + TruncationMarker
}

// boundaryBefore finds the cut point at or before limit: the end of
// the last sentence, else the last whitespace, else limit itself
// backed off to a rune boundary
func boundaryBefore(s string, limit int) int {
	if limit >= len(s) {
		return len(s)
	}

	window := s[:limit]
	best := -1
	for _, sep := range []string{". ", "? ", "! "} {
		if idx := strings.LastIndex(window, sep); idx != -1 && idx+1 > best {
			best = idx + 1
		}
	}
	if best > 0 {
		return best
	}

	if idx := strings.LastIndexFunc(window, unicode.IsSpace); idx > 0 {
		return idx
	}

	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return limit
}
