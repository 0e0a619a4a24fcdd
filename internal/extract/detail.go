package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/bookharvest/bookharvest/internal/crawler"
)

var (
	priceAmountRe   = regexp.MustCompile(`\d+\.\d+`)
	availableCount  = regexp.MustCompile(`\((\d+) available\)`)
	ratingFromWords = map[string]int{
		"One":   1,
		"Two":   2,
		"Three": 3,
		"Four":  4,
		"Five":  5,
	}
)

// DetailExtractor turns a parsed detail page into a canonical Record.
// Extraction is total over optional fields: anything absent degrades to the
// Unknown/zero sentinel. Only a missing title is a hard failure.
type DetailExtractor struct{}

// Extract reads the fixed attribute schema off one detail page. pageURL is
// the page's own (post-redirect) URL, used to resolve the image link.
func (DetailExtractor) Extract(doc crawler.Document, pageURL *url.URL) (crawler.Record, error) {
	title := textOf(doc, "div.product_main h1")
	if title == "" {
		return crawler.Record{}, crawler.ErrMissingTitle
	}

	rec := crawler.Record{
		Title:       title,
		Category:    crawler.Unknown,
		Currency:    crawler.Unknown,
		Rating:      crawler.RatingUnknown,
		ImageURL:    crawler.Unknown,
		Description: crawler.Unknown,
		UPC:         crawler.Unknown,
		ProductType: crawler.Unknown,
	}

	// Breadcrumb is Home > Books > <category> > <title>; the category sits
	// at index 2.
	if crumbs := doc.Select("ul.breadcrumb li a"); len(crumbs) > 2 {
		if c := strings.TrimSpace(crumbs[2].Text()); c != "" {
			rec.Category = c
		}
	}

	if raw := textOf(doc, "p.price_color"); raw != "" {
		amount, currency, err := SplitPrice(raw)
		if err != nil {
			return crawler.Record{}, &crawler.ValidationError{Field: "price", Value: raw}
		}
		rec.Price = amount
		rec.Currency = currency
	}

	if stars, ok := doc.SelectOne("p.star-rating"); ok {
		if class, ok := stars.Attr("class"); ok {
			rec.Rating = RatingFromClass(class)
		}
	}

	rec.Availability = ParseAvailability(textOf(doc, "p.availability"))

	if img, ok := doc.SelectOne("#product_gallery img"); ok {
		if src, ok := img.Attr("src"); ok && strings.TrimSpace(src) != "" {
			if abs := resolveURL(pageURL, strings.TrimSpace(src)); abs != "" {
				rec.ImageURL = abs
			}
		}
	}

	if desc := textOf(doc, "article.product_page > p"); desc != "" {
		rec.Description = desc
	}

	table := productTable(doc)
	if v, ok := table["UPC"]; ok {
		rec.UPC = v
	}
	if v, ok := table["Product Type"]; ok {
		rec.ProductType = v
	}
	if v, ok := table["Number of reviews"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return crawler.Record{}, &crawler.ValidationError{Field: "number_of_reviews", Value: v}
		}
		rec.NumberOfReviews = n
	}

	return rec, nil
}

// SplitPrice splits raw price text like "£51.77" into a non-negative amount
// and the leading currency symbol.
func SplitPrice(raw string) (float64, string, error) {
	raw = strings.TrimSpace(raw)
	loc := priceAmountRe.FindStringIndex(raw)
	if loc == nil {
		return 0, "", &crawler.ValidationError{Field: "price", Value: raw}
	}
	amount, err := strconv.ParseFloat(raw[loc[0]:loc[1]], 64)
	if err != nil || amount < 0 {
		return 0, "", &crawler.ValidationError{Field: "price", Value: raw}
	}
	currency := strings.TrimSpace(raw[:loc[0]])
	if currency == "" {
		currency = crawler.Unknown
	}
	return amount, currency, nil
}

// RatingFromClass maps a star-rating class attribute ("star-rating Three")
// to 1..5. Unrecognized or absent tokens yield RatingUnknown, never an
// error.
func RatingFromClass(classAttr string) int {
	for _, token := range strings.Fields(classAttr) {
		if n, ok := ratingFromWords[token]; ok {
			return n
		}
	}
	return crawler.RatingUnknown
}

// ParseAvailability reduces "In stock (22 available)" to 22. Any other
// phrasing, including "Out of stock", yields 0.
func ParseAvailability(text string) int {
	m := availableCount.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// productTable reads the key/value information table into a map keyed by
// row label.
func productTable(doc crawler.Document) map[string]string {
	out := make(map[string]string)
	for _, row := range doc.Select("table tr") {
		th, ok := row.SelectOne("th")
		if !ok {
			continue
		}
		td, ok := row.SelectOne("td")
		if !ok {
			continue
		}
		key := strings.TrimSpace(th.Text())
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(td.Text())
	}
	return out
}

func textOf(doc crawler.Document, selector string) string {
	el, ok := doc.SelectOne(selector)
	if !ok {
		return ""
	}
	return strings.TrimSpace(el.Text())
}
