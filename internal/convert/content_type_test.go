package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMarkdownContent(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		url         string
		want        bool
	}{
		{"markdown content type", "text/markdown; charset=utf-8", "https://x/page", true},
		{"x-markdown content type", "text/x-markdown", "https://x/page", true},
		{"application markdown", "application/markdown", "https://x/page", true},
		{"md extension", "text/plain", "https://x/guide.md", true},
		{"mdx extension", "", "https://x/guide.MDX", true},
		{"markdown extension", "", "https://x/guide.markdown", true},
		{"extension before query", "", "https://x/guide.md?v=2", true},
		{"extension before fragment", "", "https://x/guide.md#intro", true},
		{"md in query only", "", "https://x/page?file=a.md", false},
		{"html", "text/html", "https://x/page.html", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMarkdownContent(tt.contentType, tt.url))
		})
	}
}

func TestIsPlainTextContent(t *testing.T) {
	assert.True(t, IsPlainTextContent("text/plain; charset=utf-8", "https://x/page"))
	assert.True(t, IsPlainTextContent("", "https://x/notes.txt"))
	assert.True(t, IsPlainTextContent("", "https://x/notes.txt?raw=1"))
	assert.False(t, IsPlainTextContent("text/html", "https://x/page.html"))
	assert.False(t, IsPlainTextContent("", "https://x/page"))
}

func TestIsHTMLContent(t *testing.T) {
	assert.True(t, IsHTMLContent("text/html; charset=utf-8"))
	assert.True(t, IsHTMLContent("application/xhtml+xml"))
	assert.True(t, IsHTMLContent(""), "missing content type defaults to HTML")
	assert.False(t, IsHTMLContent("text/markdown"))
	assert.False(t, IsHTMLContent("application/json"))
}
