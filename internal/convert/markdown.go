package convert

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	htmlCommentRegex = regexp.MustCompile(`(?s)<!--.*?-->`)
	dataURIImgRegex  = regexp.MustCompile(`!\[([^\]]*)\]\(data:[^)]*\)`)
)

// CleanMarkdown prepares markdown for inclusion in a context document:
// YAML frontmatter, HTML comments, and embedded data-URI images are
// removed, alt text of stripped images is preserved.
func CleanMarkdown(markdown string) string {
	markdown = stripFrontmatter(markdown)
	markdown = htmlCommentRegex.ReplaceAllString(markdown, "")
	markdown = dataURIImgRegex.ReplaceAllString(markdown, "$1")
	return tidyMarkdown(markdown)
}

// stripFrontmatter removes a leading YAML frontmatter block. The block
// is only dropped when it parses as YAML; anything else stays.
func stripFrontmatter(markdown string) string {
	trimmed := strings.TrimLeft(markdown, "\n\r")
	if !strings.HasPrefix(trimmed, "---") {
		return markdown
	}

	rest := strings.TrimPrefix(trimmed, "---")
	rest = strings.TrimPrefix(rest, "\r\n")
	rest = strings.TrimPrefix(rest, "\n")

	lines := strings.Split(rest, "\n")
	closing := -1
	for i, line := range lines {
		if strings.TrimRight(line, "\r") == "---" {
			closing = i
			break
		}
	}
	if closing == -1 {
		return markdown
	}

	block := strings.Join(lines[:closing], "\n")
	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(block), &parsed); err != nil {
		return markdown
	}

	return strings.Join(lines[closing+1:], "\n")
}

// tidyMarkdown collapses runs of blank lines and trims the edges
func tidyMarkdown(markdown string) string {
	for strings.Contains(markdown, "\n\n\n") {
		markdown = strings.ReplaceAll(markdown, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(markdown)
}
