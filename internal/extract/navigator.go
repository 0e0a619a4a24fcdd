package extract

import (
	"net/url"
	"strings"

	"github.com/bookharvest/bookharvest/internal/crawler"
)

const nextLinkSelector = "li.next a"

// PageNavigator resolves the next-page link on a listing page.
type PageNavigator struct{}

// NextListing returns the absolute URL of the next listing page. It returns
// false when the page has no next affordance, when the link is empty or a
// same-page fragment, or when the resolved URL was already visited. The
// visited guard keeps a malformed or circular pagination chain from looping
// the walk forever.
func (PageNavigator) NextListing(doc crawler.Document, base *url.URL, visited func(string) bool) (string, bool) {
	link, ok := doc.SelectOne(nextLinkSelector)
	if !ok {
		return "", false
	}
	href, ok := link.Attr("href")
	if !ok {
		return "", false
	}
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	resolved := resolveURL(base, href)
	if resolved == "" {
		return "", false
	}
	if visited != nil && visited(resolved) {
		return "", false
	}
	return resolved, true
}

// resolveURL makes href absolute against base and strips any fragment.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	var abs *url.URL
	if base != nil {
		abs = base.ResolveReference(ref)
	} else {
		abs = ref
	}
	abs.Fragment = ""
	return abs.String()
}
