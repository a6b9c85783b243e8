package convert

import (
	"fmt"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// chromeTags are elements stripped before conversion; they never carry
// documentation content
var chromeTags = []string{
	"script", "style", "noscript", "iframe", "object", "embed",
	"form", "input", "button", "select", "textarea",
	"nav", "header", "footer", "aside",
}

// HTMLConverter reduces an HTML page to the markdown of its main
// content: readability extraction first, then tag stripping, then
// markdown conversion.
type HTMLConverter struct{}

// NewHTMLConverter creates an HTML-to-markdown converter
func NewHTMLConverter() *HTMLConverter {
	return &HTMLConverter{}
}

// Convert extracts the main content of an HTML page and renders it as
// markdown. sourceURL anchors relative links.
func (c *HTMLConverter) Convert(html, sourceURL string) (string, error) {
	content := c.extractMain(html, sourceURL)
	content = c.sanitize(content)

	markdown, err := md.ConvertString(content)
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}
	return tidyMarkdown(markdown), nil
}

// extractMain runs the readability algorithm; on failure it falls back
// to the page body
func (c *HTMLConverter) extractMain(html, sourceURL string) string {
	parsedURL, err := url.Parse(sourceURL)
	if err != nil {
		parsedURL = &url.URL{Scheme: "https", Host: "localhost"}
	}

	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err == nil && strings.TrimSpace(article.Content) != "" {
		return article.Content
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	body := doc.Find("body")
	if body.Length() == 0 {
		return html
	}
	bodyHTML, err := body.Html()
	if err != nil {
		return html
	}
	return bodyHTML
}

// sanitize removes non-content elements from the extracted HTML
func (c *HTMLConverter) sanitize(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}

	for _, tag := range chromeTags {
		doc.Find(tag).Remove()
	}
	doc.Find("[hidden]").Remove()
	doc.Find("[style*='display:none']").Remove()
	doc.Find("[style*='display: none']").Remove()

	out, err := doc.Html()
	if err != nil {
		return html
	}
	return out
}

// PageTitle extracts a title from an HTML page: <title> first, then
// the first H1, then og:title
func PageTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok {
		return strings.TrimSpace(og)
	}
	return ""
}
