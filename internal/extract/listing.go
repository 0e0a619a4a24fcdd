package extract

import (
	"net/url"
	"strings"

	"github.com/bookharvest/bookharvest/internal/crawler"
)

const itemCardSelector = "article.product_pod"

// ListingHarvester pulls (name, detail URL) pairs off a listing page.
type ListingHarvester struct{}

// Harvest returns every item card in document order. Detail links are
// resolved to absolute URLs against the listing page's own URL. Cards
// without a link are dropped; frontier-level deduplication happens in the
// engine.
func (ListingHarvester) Harvest(doc crawler.Document, base *url.URL) []crawler.ListingEntry {
	var entries []crawler.ListingEntry
	for _, card := range doc.Select(itemCardSelector) {
		link, ok := card.SelectOne("h3 a")
		if !ok {
			continue
		}
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			continue
		}
		detailURL := resolveURL(base, strings.TrimSpace(href))
		if detailURL == "" {
			continue
		}
		// The card truncates long titles in the anchor text; the title
		// attribute carries the full name.
		name, _ := link.Attr("title")
		name = strings.TrimSpace(name)
		if name == "" {
			name = strings.TrimSpace(link.Text())
		}
		entries = append(entries, crawler.ListingEntry{Name: name, DetailURL: detailURL})
	}
	return entries
}
