package contextgen

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llmstxt-kit/llmstxt-go/internal/domain"
)

func TestDefaultTokenEstimator(t *testing.T) {
	assert.Equal(t, 0, DefaultTokenEstimator(""))
	assert.Equal(t, 1, DefaultTokenEstimator("one"))
	assert.Equal(t, 1, DefaultTokenEstimator("one two three four"))
	assert.Equal(t, 2, DefaultTokenEstimator("one two three four five"))
	assert.Equal(t, 25, DefaultTokenEstimator(strings.Repeat("word ", 100)))
}

// longText builds a body of n sentences
func longText(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString("This sentence pads out the section body with words. ")
	}
	return strings.TrimSpace(b.String())
}

func TestBudgetUnboundedByDefault(t *testing.T) {
	fetcher := &stubFetcher{bodies: map[string]string{"https://x/a.md": longText(200)}}
	g := New(fetcher, nil)
	doc := parseDoc(t, "# T\n## Docs\n- [A](https://x/a.md)\n")

	result, err := g.Generate(context.Background(), doc, domain.DefaultContextOptions())

	require.NoError(t, err)
	assert.Empty(t, result.SectionsTruncated)
	assert.Empty(t, result.SectionsOmitted)
}

func TestBudgetDropsOptionalFirst(t *testing.T) {
	fetcher := &stubFetcher{bodies: map[string]string{
		"https://x/docs.md": longText(40),
		"https://x/opt.md":  longText(40),
	}}
	g := New(fetcher, nil)
	doc := parseDoc(t, "# T\n## Docs\n- [D](https://x/docs.md)\n## Optional\n- [O](https://x/opt.md)\n")

	// Docs alone fits; Docs + Optional does not
	opts := domain.DefaultContextOptions()
	opts.IncludeOptional = true
	opts.MaxTokens = 150
	result, err := g.Generate(context.Background(), doc, opts)

	require.NoError(t, err)
	assert.Contains(t, result.SectionsIncluded, "Docs")
	assert.Contains(t, result.SectionsOmitted, "Optional")
	assert.Empty(t, result.SectionsTruncated, "nothing is truncated when dropping Optional suffices")
	assert.LessOrEqual(t, DefaultTokenEstimator(result.Content), opts.MaxTokens)
}

func TestBudgetTruncatesLastSectionBackward(t *testing.T) {
	fetcher := &stubFetcher{bodies: map[string]string{
		"https://x/a.md": longText(20),
		"https://x/b.md": longText(200),
	}}
	g := New(fetcher, nil)
	doc := parseDoc(t, "# T\n## First\n- [A](https://x/a.md)\n## Second\n- [B](https://x/b.md)\n")

	opts := domain.DefaultContextOptions()
	opts.MaxTokens = 200
	result, err := g.Generate(context.Background(), doc, opts)

	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Second"}, result.SectionsIncluded)
	assert.Equal(t, []string{"Second"}, result.SectionsTruncated)
	assert.Empty(t, result.SectionsOmitted)
	assert.Contains(t, result.Content, TruncationMarker)
	assert.LessOrEqual(t, DefaultTokenEstimator(result.Content), opts.MaxTokens)
}

func TestBudgetLaw(t *testing.T) {
	fetcher := &stubFetcher{bodies: map[string]string{
		"https://x/a.md": longText(100),
		"https://x/b.md": longText(100),
		"https://x/c.md": longText(100),
	}}
	g := New(fetcher, nil)
	doc := parseDoc(t, "# T\n"+
		"## One\n- [A](https://x/a.md)\n"+
		"## Two\n- [B](https://x/b.md)\n"+
		"## Three\n- [C](https://x/c.md)\n")

	for _, maxTokens := range []int{20, 60, 150, 400, 5000} {
		opts := domain.DefaultContextOptions()
		opts.MaxTokens = maxTokens
		result, err := g.Generate(context.Background(), doc, opts)

		require.NoError(t, err)
		assert.LessOrEqual(t, DefaultTokenEstimator(result.Content), maxTokens,
			"budget law must hold for maxTokens=%d", maxTokens)
	}
}

func TestTruncationCutsAtSentenceBoundary(t *testing.T) {
	body := "First sentence here. Second sentence here. Third sentence follows with many more words to cut."
	blocks := []*sectionBlock{{name: "Docs", body: body}}

	opts := domain.DefaultContextOptions()
	opts.MaxTokens = 4
	applyBudget(blocks, opts, DefaultTokenEstimator)

	require.True(t, blocks[0].truncated)
	kept := strings.TrimSuffix(blocks[0].body, "\n\n"+TruncationMarker)
	assert.True(t, strings.HasSuffix(kept, "."), "cut lands at a sentence boundary, got %q", kept)
	assert.LessOrEqual(t, DefaultTokenEstimator(blocks[0].body), 4+DefaultTokenEstimator(TruncationMarker))
}

func TestTruncationFallsBackToWhitespace(t *testing.T) {
	body := strings.Repeat("word ", 100)
	blocks := []*sectionBlock{{name: "Docs", body: strings.TrimSpace(body)}}

	opts := domain.DefaultContextOptions()
	opts.MaxTokens = 15
	opts.WrapSections = false
	applyBudget(blocks, opts, DefaultTokenEstimator)

	require.True(t, blocks[0].truncated)
	kept := strings.TrimSuffix(blocks[0].body, "\n\n"+TruncationMarker)
	assert.NotContains(t, kept, "wor\n", "cut never splits a word")
	assert.LessOrEqual(t, DefaultTokenEstimator(blocks[0].body), 15)
}

func TestBudgetDropsSectionWhenMarkerDoesNotFit(t *testing.T) {
	blocks := []*sectionBlock{
		{name: "One", body: longText(40)},
		{name: "Two", body: longText(40)},
	}

	// Budget exactly covers the first section, leaving no room for
	// even the marker in the second
	opts := domain.DefaultContextOptions()
	opts.MaxTokens = DefaultTokenEstimator(longText(40))
	opts.WrapSections = false
	applyBudget(blocks, opts, DefaultTokenEstimator)

	assert.False(t, blocks[0].omitted)
	assert.False(t, blocks[0].truncated)
	assert.True(t, blocks[1].omitted, "a section that cannot even hold the marker is dropped")
}
