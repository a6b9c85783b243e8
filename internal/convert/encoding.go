package convert

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// DetectEncoding determines the character encoding of fetched content,
// preferring a charset declared in a meta tag over sniffing
func DetectEncoding(content []byte) string {
	head := string(content[:min(1024, len(content))])
	if enc := charsetFromMeta(head); enc != "" {
		return enc
	}

	_, name, _ := charset.DetermineEncoding(content, "")
	if name != "" {
		return name
	}
	return "utf-8"
}

func charsetFromMeta(head string) string {
	head = strings.ToLower(head)
	idx := strings.Index(head, "charset=")
	if idx == -1 {
		return ""
	}

	start := idx + len("charset=")
	if start < len(head) && (head[start] == '"' || head[start] == '\'') {
		start++
	}
	end := start
	for ; end < len(head); end++ {
		switch head[end] {
		case '"', '\'', ';', '>', ' ':
			return strings.TrimSpace(head[start:end])
		}
	}
	return strings.TrimSpace(head[start:end])
}

// ToUTF8 converts content from its detected encoding to UTF-8.
// Content that is already UTF-8, or whose encoding is unknown, is
// returned unchanged.
func ToUTF8(content []byte) ([]byte, error) {
	enc := DetectEncoding(content)
	if enc == "utf-8" || enc == "utf8" {
		return content, nil
	}

	e, err := htmlindex.Get(enc)
	if err != nil {
		return content, nil
	}

	reader := transform.NewReader(bytes.NewReader(content), e.NewDecoder())
	return io.ReadAll(reader)
}
