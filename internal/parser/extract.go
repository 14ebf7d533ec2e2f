// internal/parser/extract.go
package parser

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Extractor pulls raw href and src attribute values out of an HTML body.
// Values are returned as written in the markup; resolution happens later.
type Extractor interface {
	ExtractLinks(htmlBody []byte) []string
	ExtractImageSources(htmlBody []byte) []string
}

// NewExtractor returns the extraction engine registered under name:
// "goquery" (default) or "tokenizer".
func NewExtractor(name string) (Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "goquery":
		return GoqueryExtractor{}, nil
	case "tokenizer":
		return TokenExtractor{}, nil
	default:
		return nil, fmt.Errorf("unknown html parser %q", name)
	}
}

// GoqueryExtractor selects a[href] and img[src] from a parsed document.
type GoqueryExtractor struct{}

func (GoqueryExtractor) ExtractLinks(htmlBody []byte) []string {
	return selectAttr(htmlBody, "a[href]", "href")
}

func (GoqueryExtractor) ExtractImageSources(htmlBody []byte) []string {
	return selectAttr(htmlBody, "img[src]", "src")
}

func selectAttr(htmlBody []byte, selector, attr string) []string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBody))
	if err != nil {
		return nil
	}
	out := make([]string, 0)
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr(attr); ok {
			out = append(out, v)
		}
	})
	return out
}
