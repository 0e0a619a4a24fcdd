package extract

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bookharvest/bookharvest/internal/crawler"
)

const detailFixture = `<html><body>
<ul class="breadcrumb">
  <li><a href="/">Home</a></li>
  <li><a href="/books">Books</a></li>
  <li><a href="/poetry">Poetry</a></li>
  <li class="active">A Light in the Attic</li>
</ul>
<article class="product_page">
  <div class="row">
    <div class="carousel"><div id="product_gallery"><img src="../../media/attic.jpg"/></div></div>
    <div class="product_main">
      <h1>A Light in the Attic</h1>
      <p class="price_color">£51.77</p>
      <p class="instock availability">In stock (22 available)</p>
      <p class="star-rating Three"></p>
    </div>
  </div>
  <div id="product_description"><h2>Product Description</h2></div>
  <p>It's hard to imagine a world without A Light in the Attic.</p>
  <table class="table table-striped">
    <tr><th>UPC</th><td>a897fe39b1053632</td></tr>
    <tr><th>Product Type</th><td>Books</td></tr>
    <tr><th>Price (excl. tax)</th><td>£51.77</td></tr>
    <tr><th>Number of reviews</th><td>0</td></tr>
  </table>
</article>
</body></html>`

func parseFixture(t *testing.T, html string) crawler.Document {
	t.Helper()
	doc, err := HTMLParser{}.Parse([]byte(html))
	require.NoError(t, err)
	return doc
}

func pageURL(t *testing.T) *url.URL {
	t.Helper()
	u, err := url.Parse("http://books.test/catalogue/a-light-in-the-attic/index.html")
	require.NoError(t, err)
	return u
}

func TestExtract_FullDetailPage(t *testing.T) {
	t.Parallel()
	rec, err := DetailExtractor{}.Extract(parseFixture(t, detailFixture), pageURL(t))
	require.NoError(t, err)

	require.Equal(t, "A Light in the Attic", rec.Title)
	require.Equal(t, "Poetry", rec.Category)
	require.Equal(t, 51.77, rec.Price)
	require.Equal(t, "£", rec.Currency)
	require.Equal(t, 3, rec.Rating)
	require.Equal(t, 22, rec.Availability)
	require.Equal(t, "http://books.test/media/attic.jpg", rec.ImageURL)
	require.Equal(t, "It's hard to imagine a world without A Light in the Attic.", rec.Description)
	require.Equal(t, "a897fe39b1053632", rec.UPC)
	require.Equal(t, "Books", rec.ProductType)
	require.Equal(t, 0, rec.NumberOfReviews)
}

func TestExtract_MissingTitleIsHardFailure(t *testing.T) {
	t.Parallel()
	html := `<html><body><article class="product_page"><div class="product_main">
		<p class="price_color">£10.00</p></div></article></body></html>`
	_, err := DetailExtractor{}.Extract(parseFixture(t, html), pageURL(t))
	require.ErrorIs(t, err, crawler.ErrMissingTitle)
}

func TestExtract_TotalOverOptionalFields(t *testing.T) {
	t.Parallel()
	html := `<html><body><article class="product_page"><div class="product_main">
		<h1>Bare Book</h1></div></article></body></html>`
	rec, err := DetailExtractor{}.Extract(parseFixture(t, html), pageURL(t))
	require.NoError(t, err)

	require.Equal(t, "Bare Book", rec.Title)
	require.Equal(t, crawler.Unknown, rec.Category)
	require.Equal(t, 0.0, rec.Price)
	require.Equal(t, crawler.Unknown, rec.Currency)
	require.Equal(t, crawler.RatingUnknown, rec.Rating)
	require.Equal(t, 0, rec.Availability)
	require.Equal(t, crawler.Unknown, rec.ImageURL)
	require.Equal(t, crawler.Unknown, rec.Description)
	require.Equal(t, crawler.Unknown, rec.UPC)
	require.Equal(t, crawler.Unknown, rec.ProductType)
	require.Equal(t, 0, rec.NumberOfReviews)
}

func TestExtract_UnparsablePriceIsValidationError(t *testing.T) {
	t.Parallel()
	html := `<html><body><article class="product_page"><div class="product_main">
		<h1>Odd Book</h1><p class="price_color">free!</p></div></article></body></html>`
	_, err := DetailExtractor{}.Extract(parseFixture(t, html), pageURL(t))
	var verr *crawler.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "price", verr.Field)
}

func TestExtract_UnparsableReviewCountIsValidationError(t *testing.T) {
	t.Parallel()
	html := `<html><body><article class="product_page"><div class="product_main">
		<h1>Odd Book</h1></div>
		<table><tr><th>Number of reviews</th><td>many</td></tr></table>
		</article></body></html>`
	_, err := DetailExtractor{}.Extract(parseFixture(t, html), pageURL(t))
	var verr *crawler.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "number_of_reviews", verr.Field)
}

func TestSplitPrice(t *testing.T) {
	t.Parallel()
	cases := []struct {
		raw      string
		amount   float64
		currency string
	}{
		{"£51.77", 51.77, "£"},
		{"$12.00", 12.00, "$"},
		{"  £0.99 ", 0.99, "£"},
		{"13.50", 13.50, crawler.Unknown},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			amount, currency, err := SplitPrice(tc.raw)
			require.NoError(t, err)
			require.Equal(t, tc.amount, amount)
			require.Equal(t, tc.currency, currency)
		})
	}

	_, _, err := SplitPrice("free")
	require.Error(t, err)
}

func TestRatingFromClass(t *testing.T) {
	t.Parallel()
	cases := []struct {
		class string
		want  int
	}{
		{"star-rating One", 1},
		{"star-rating Three", 3},
		{"star-rating Five", 5},
		{"star-rating Eleventy", crawler.RatingUnknown},
		{"star-rating", crawler.RatingUnknown},
		{"", crawler.RatingUnknown},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, RatingFromClass(tc.class), "class %q", tc.class)
	}
}

func TestParseAvailability(t *testing.T) {
	t.Parallel()
	require.Equal(t, 22, ParseAvailability("In stock (22 available)"))
	require.Equal(t, 1, ParseAvailability("  In stock (1 available)  "))
	require.Equal(t, 0, ParseAvailability("Out of stock"))
	require.Equal(t, 0, ParseAvailability(""))
	require.Equal(t, 0, ParseAvailability("In stock"))
}
