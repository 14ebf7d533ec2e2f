package parser

import (
	"bytes"

	"golang.org/x/net/html"
)

// TokenExtractor streams the body through the x/net/html tokenizer without
// building a tree.
type TokenExtractor struct{}

func (TokenExtractor) ExtractLinks(htmlBody []byte) []string {
	return scanAttr(htmlBody, "a", "href")
}

func (TokenExtractor) ExtractImageSources(htmlBody []byte) []string {
	return scanAttr(htmlBody, "img", "src")
}

func scanAttr(content []byte, tag, key string) []string {
	z := html.NewTokenizer(bytes.NewReader(content))
	out := make([]string, 0)

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return out
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		t := z.Token()
		if t.Data != tag {
			continue
		}
		for _, a := range t.Attr {
			if a.Key == key {
				out = append(out, a.Val)
				break
			}
		}
	}
}
