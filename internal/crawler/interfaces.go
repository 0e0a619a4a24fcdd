package crawler

import (
	"context"
	"net/url"
)

// Fetcher retrieves a page over HTTP. Implementations own their timeout and
// retry behavior and return a *FetchError on failure.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// Document is the parser capability the extraction rules are written
// against, independent of the concrete HTML library.
type Document interface {
	SelectOne(selector string) (Element, bool)
	Select(selector string) []Element
}

// Element is a single node inside a parsed document.
type Element interface {
	Document
	Text() string
	Attr(name string) (string, bool)
}

// Parser turns a raw page body into a Document.
type Parser interface {
	Parse(body []byte) (Document, error)
}

// Navigator resolves the next listing URL from a parsed listing page.
// It returns false when no next-page affordance exists, when its target is
// empty or a same-page fragment, or when visited reports the resolved URL
// as already seen.
type Navigator interface {
	NextListing(doc Document, base *url.URL, visited func(string) bool) (string, bool)
}

// Harvester extracts item entries from one listing page in document order.
// Deduplication across pages happens in the engine; the harvester has no
// cross-page memory.
type Harvester interface {
	Harvest(doc Document, base *url.URL) []ListingEntry
}

// Extractor parses one detail page into a Record. It returns
// ErrMissingTitle when the page has no title and a *ValidationError when a
// present field cannot be parsed into its domain.
type Extractor interface {
	Extract(doc Document, pageURL *url.URL) (Record, error)
}

// RecordSink persists records idempotently on their natural key.
type RecordSink interface {
	Upsert(ctx context.Context, rec Record) error
	Close() error
}
