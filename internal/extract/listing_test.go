package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const listingFixture = `<html><body>
<article class="product_pod">
  <h3><a href="a-light-in-the-attic/index.html" title="A Light in the Attic">A Light in the ...</a></h3>
</article>
<article class="product_pod">
  <h3><a href="tipping-the-velvet/index.html" title="Tipping the Velvet">Tipping the Velvet</a></h3>
</article>
<article class="product_pod">
  <h3><a href="soumission/index.html">Soumission</a></h3>
</article>
</body></html>`

func TestHarvest_PageOrderAndAbsoluteURLs(t *testing.T) {
	t.Parallel()
	entries := ListingHarvester{}.Harvest(parseFixture(t, listingFixture), listingURL(t))

	require.Len(t, entries, 3)
	require.Equal(t, "A Light in the Attic", entries[0].Name)
	require.Equal(t, "http://books.test/catalogue/a-light-in-the-attic/index.html", entries[0].DetailURL)
	require.Equal(t, "Tipping the Velvet", entries[1].Name)
	// No title attribute: the anchor text is the fallback.
	require.Equal(t, "Soumission", entries[2].Name)
	require.Equal(t, "http://books.test/catalogue/soumission/index.html", entries[2].DetailURL)
}

func TestHarvest_FullTitleAttributePreferredOverTruncatedText(t *testing.T) {
	t.Parallel()
	entries := ListingHarvester{}.Harvest(parseFixture(t, listingFixture), listingURL(t))
	require.Equal(t, "A Light in the Attic", entries[0].Name)
}

func TestHarvest_SkipsCardsWithoutLinks(t *testing.T) {
	t.Parallel()
	doc := parseFixture(t, `<html><body>
		<article class="product_pod"><h3>No link here</h3></article>
		<article class="product_pod"><h3><a href="ok/index.html" title="OK">OK</a></h3></article>
	</body></html>`)

	entries := ListingHarvester{}.Harvest(doc, listingURL(t))
	require.Len(t, entries, 1)
	require.Equal(t, "OK", entries[0].Name)
}

func TestHarvest_EmptyPage(t *testing.T) {
	t.Parallel()
	entries := ListingHarvester{}.Harvest(parseFixture(t, `<html><body></body></html>`), listingURL(t))
	require.Empty(t, entries)
}
