// Package convert turns fetched linked content into clean markdown
// suitable for inclusion in a generated context document.
package convert

import "strings"

// stripURLExtras drops the query string and fragment so extension
// checks see only the path
func stripURLExtras(rawURL string) string {
	if idx := strings.IndexAny(rawURL, "?#"); idx != -1 {
		rawURL = rawURL[:idx]
	}
	return rawURL
}

// IsMarkdownContent reports whether the response should be treated as
// markdown, by content type or URL extension
func IsMarkdownContent(contentType, rawURL string) bool {
	ct := strings.ToLower(contentType)
	if strings.Contains(ct, "text/markdown") ||
		strings.Contains(ct, "text/x-markdown") ||
		strings.Contains(ct, "application/markdown") {
		return true
	}

	path := strings.ToLower(stripURLExtras(rawURL))
	for _, ext := range []string{".md", ".mdx", ".markdown", ".mdown"} {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// IsPlainTextContent reports whether the response is plain text
func IsPlainTextContent(contentType, rawURL string) bool {
	if strings.Contains(strings.ToLower(contentType), "text/plain") {
		return true
	}
	return strings.HasSuffix(strings.ToLower(stripURLExtras(rawURL)), ".txt")
}

// IsHTMLContent reports whether the content type indicates HTML. An
// empty content type is assumed to be HTML.
func IsHTMLContent(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
