// Package extract implements HTML parsing for the catalog site: the
// goquery-backed document adapter, the pagination navigator, the listing
// harvester, and the detail-page extractor.
package extract

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/bookharvest/bookharvest/internal/crawler"
)

// HTMLParser parses page bodies with goquery. It is the only place the
// concrete HTML library appears; everything downstream works against the
// crawler.Document capability interface.
type HTMLParser struct{}

// Parse builds a Document from a raw HTML body.
func (HTMLParser) Parse(body []byte) (crawler.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &node{sel: doc.Selection}, nil
}

// node adapts a goquery selection to crawler.Document / crawler.Element.
type node struct {
	sel *goquery.Selection
}

func (n *node) SelectOne(selector string) (crawler.Element, bool) {
	s := n.sel.Find(selector).First()
	if s.Length() == 0 {
		return nil, false
	}
	return &node{sel: s}, true
}

func (n *node) Select(selector string) []crawler.Element {
	var out []crawler.Element
	n.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, &node{sel: s})
	})
	return out
}

func (n *node) Text() string {
	return n.sel.Text()
}

func (n *node) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}
