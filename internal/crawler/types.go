// Package crawler defines the core types and the orchestration engine for
// harvesting a paginated catalog site.
package crawler

import (
	"fmt"
	"time"
)

// Unknown is the sentinel stored for optional string fields that are absent
// from a detail page.
const Unknown = "unknown"

// RatingUnknown marks a rating that was absent or unrecognized on the page.
const RatingUnknown = 0

// PageKind distinguishes listing pages from item detail pages.
type PageKind string

// Page kinds carried on crawl targets.
const (
	PageListing PageKind = "listing"
	PageDetail  PageKind = "detail"
)

// Target is a URL queued for fetching. For detail targets, Name carries the
// item name discovered on the listing page. Targets are immutable once
// enqueued.
type Target struct {
	URL  string
	Kind PageKind
	Name string
}

// ListingEntry is one item card harvested from a listing page.
type ListingEntry struct {
	Name      string
	DetailURL string
}

// Page is the raw result of a successful fetch. FinalURL is the URL after
// server-side redirects and is the base for resolving relative links.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Body       []byte
}

// Record is the canonical output unit for one catalog item. Optional fields
// hold Unknown (or zero) sentinels when the page did not provide them.
// Records are never mutated after extraction.
type Record struct {
	Title           string
	Category        string
	Price           float64
	Currency        string
	Rating          int // 1..5, RatingUnknown when absent
	Availability    int
	ImageURL        string
	Description     string
	UPC             string
	ProductType     string
	NumberOfReviews int
}

// NaturalKey returns the deduplication key for the record: (title, upc).
// A record without a UPC carries the Unknown sentinel, so UPC-less records
// key on the title alone.
func (r Record) NaturalKey() string {
	return r.Title + "\x1f" + r.UPC
}

// Validate checks the record's domain constraints after extraction.
func (r Record) Validate() error {
	if r.Price < 0 {
		return &ValidationError{Field: "price", Value: fmt.Sprintf("%v", r.Price)}
	}
	if r.Rating < RatingUnknown || r.Rating > 5 {
		return &ValidationError{Field: "rating", Value: fmt.Sprintf("%d", r.Rating)}
	}
	if r.Availability < 0 {
		return &ValidationError{Field: "availability", Value: fmt.Sprintf("%d", r.Availability)}
	}
	if r.NumberOfReviews < 0 {
		return &ValidationError{Field: "number_of_reviews", Value: fmt.Sprintf("%d", r.NumberOfReviews)}
	}
	return nil
}

// RunState tracks where the orchestrator is in its lifecycle.
type RunState string

// Run states. StateFailed is terminal and only reachable when the seed
// listing page is unreachable.
const (
	StateInit    RunState = "init"
	StateListing RunState = "listing"
	StateHarvest RunState = "harvest"
	StateDetail  RunState = "detail"
	StateDone    RunState = "done"
	StateFailed  RunState = "failed"
)

// RunReport summarizes one crawl run for downstream consumers.
type RunReport struct {
	RunID           string    `json:"run_id"`
	State           RunState  `json:"state"`
	Succeeded       int       `json:"succeeded"`
	Skipped         int       `json:"skipped"`
	Failed          int       `json:"failed"`
	ListingPages    int       `json:"listing_pages"`
	UnreachableURLs []string  `json:"unreachable_urls,omitempty"`
	Partial         bool      `json:"partial"`
	Started         time.Time `json:"started_at"`
	Finished        time.Time `json:"finished_at"`
}

// Duration returns the wall-clock time the run took.
func (r RunReport) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}
