package facet

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/dom"
)

const shopPage = `<html><body>
<section data-shop-page>
  <input type="radio" name="category" value="all" data-shop-filter="category" checked>
  <input type="radio" name="category" value="a" data-shop-filter="category">
  <input type="radio" name="category" value="b" data-shop-filter="category">
  <select data-shop-sort>
    <option value="featured">Featured</option>
    <option value="price-asc">Low</option>
    <option value="price-desc">High</option>
    <option value="newest">Newest</option>
  </select>
  <input type="number" data-shop-price-min>
  <input type="number" data-shop-price-max>
  <input type="range" min="0" max="100" data-shop-range-min>
  <input type="range" min="0" max="100" data-shop-range-max>
  <button data-shop-reset>Reset</button>
  <span data-shop-count></span>
  <div data-shop-grid>
    <article data-shop-product id="p1" data-category="a" data-price="1000"></article>
    <article data-shop-product id="p2" data-category="b" data-price="1500" data-on-sale="true"></article>
    <article data-shop-product id="p3" data-category="a" data-price="2000"></article>
    <article data-shop-product id="p4" data-category="b" data-price="2500"></article>
    <article data-shop-product id="p5" data-category="a" data-price="3000"></article>
  </div>
  <p data-shop-empty hidden>Nothing here</p>
</section>
</body></html>`

const collectionPage = `<html><body>
<section data-collection-page>
  <select data-collection-filter="vendor">
    <option value="all">All</option>
    <option value="acme">Acme</option>
    <option value="zen">Zen</option>
  </select>
  <div data-collection-chips hidden></div>
  <div data-collection-grid>
    <div data-collection-product id="c1" data-vendor="acme" data-product-type="oil" data-price="1200"></div>
    <div data-collection-product id="c2" data-vendor="zen" data-product-type="candle" data-price="800" data-is-new="true"></div>
  </div>
</section>
</body></html>`

func setup(t *testing.T, markup string, cfg PageConfig, opts ...Option) (*dom.Document, *Engine) {
	t.Helper()
	doc, err := dom.ParseString(markup)
	require.NoError(t, err)
	engine, err := Configure(doc.Node(), cfg, opts...)
	require.NoError(t, err)
	return doc, engine
}

func visibleIDs(doc *dom.Document, selector string) []string {
	out := make([]string, 0)
	for _, n := range doc.QueryAll(selector) {
		if !dom.IsHidden(n) {
			out = append(out, dom.Attr(n, "id"))
		}
	}
	return out
}

func TestConfigureErrors(t *testing.T) {
	doc, err := dom.ParseString(`<div data-shop-page><div data-shop-grid></div></div>`)
	require.NoError(t, err)

	_, err = Configure(doc.Node(), Candles)
	assert.ErrorIs(t, err, ErrNoPage)
	_, err = Configure(doc.Node(), Shop)
	assert.ErrorIs(t, err, ErrNoProducts)
}

func TestRenderCategoryPriceDesc(t *testing.T) {
	doc, engine := setup(t, shopPage, Shop)
	require.NoError(t, engine.SetAxis(AxisCategory, "a"))
	engine.SetSort(SortPriceDesc)

	result := engine.Render()
	assert.Equal(t, 3, result.Count)
	// document order follows display order
	assert.Equal(t, []string{"p5", "p3", "p1"}, visibleIDs(doc, "[data-shop-product]"))
	all := doc.QueryAll("[data-shop-product]")
	assert.Equal(t, "p5", dom.Attr(all[0], "id"))
	assert.Equal(t, "p2", dom.Attr(all[3], "id"))
	assert.Equal(t, "3", dom.Text(doc.Query("[data-shop-count]")))
	assert.True(t, dom.IsHidden(doc.Query("[data-shop-empty]")))
	assert.Equal(t, "price-desc", dom.Value(doc.Query("[data-shop-sort]")))
	assert.True(t, dom.IsChecked(doc.Query(`[data-shop-filter="category"][value="a"]`)))
}

func TestRenderEmptyState(t *testing.T) {
	doc, engine := setup(t, shopPage, Shop)
	engine.SetPrice(5000, NoMax)
	result := engine.Render()
	assert.Zero(t, result.Count)
	assert.False(t, dom.IsHidden(doc.Query("[data-shop-empty]")))
	assert.Equal(t, "50", dom.Value(doc.Query("[data-shop-price-min]")))
}

func TestResetRestoresOriginalOrder(t *testing.T) {
	doc, engine := setup(t, shopPage, Shop)
	engine.SetSort(SortPriceDesc)
	require.NoError(t, engine.SetAxis(AxisCategory, "b"))
	engine.Render()

	result := engine.Reset()
	assert.Equal(t, 5, result.Count)
	assert.Equal(t, []string{"p1", "p2", "p3", "p4", "p5"}, visibleIDs(doc, "[data-shop-product]"))
	assert.True(t, engine.State().IsDefault())
	assert.Equal(t, "", dom.Value(doc.Query("[data-shop-price-max]")))
	assert.Equal(t, "100", dom.Value(doc.Query("[data-shop-range-max]")))
}

func TestSetAxisRejectsUnknown(t *testing.T) {
	_, engine := setup(t, shopPage, Shop)
	assert.ErrorIs(t, engine.SetAxis("destination", "tokyo"), ErrUnknownAxis)
}

func TestBindRoutesControls(t *testing.T) {
	doc, engine := setup(t, shopPage, Shop)
	d := dom.NewDelegator(doc)
	engine.Bind(doc, d)
	ctx := context.Background()

	d.Dispatch(ctx, dom.Event{Type: dom.Change, Target: doc.Query(`[data-shop-filter="category"][value="b"]`), Checked: true})
	assert.Equal(t, []string{"p2", "p4"}, visibleIDs(doc, "[data-shop-product]"))

	d.Dispatch(ctx, dom.Event{Type: dom.Change, Target: doc.Query("[data-shop-sort]"), Value: "newest"})
	assert.Equal(t, SortNewest, engine.State().Sort)
	assert.Equal(t, []string{"p2", "p4"}, visibleIDs(doc, "[data-shop-product]"))

	// the typed input keeps what the user wrote
	priceMax := doc.Query("[data-shop-price-max]")
	d.Dispatch(ctx, dom.Event{Type: dom.Input, Target: priceMax, Value: "15.0"})
	assert.Equal(t, 1500, engine.State().PriceMax)
	assert.Equal(t, "15.0", dom.Value(priceMax))
	assert.Equal(t, []string{"p2"}, visibleIDs(doc, "[data-shop-product]"))

	d.Dispatch(ctx, dom.Event{Type: dom.Input, Target: doc.Query("[data-shop-range-min]"), Value: "20"})
	assert.Equal(t, "20", dom.Value(doc.Query("[data-shop-price-min]")))
	assert.Empty(t, visibleIDs(doc, "[data-shop-product]"))

	d.Dispatch(ctx, dom.Event{Type: dom.Click, Target: doc.Query("[data-shop-reset]")})
	assert.True(t, engine.State().IsDefault())
	assert.Len(t, visibleIDs(doc, "[data-shop-product]"), 5)
	assert.True(t, dom.IsChecked(doc.Query(`[data-shop-filter="category"][value="all"]`)))
}

func TestSecondaryAxisButtons(t *testing.T) {
	doc, err := dom.ParseString(`<div data-candles-page>
  <span data-candles-family-label></span>
  <button data-family="all">All</button>
  <button data-family="woody">Woody</button>
  <div data-candles-grid>
    <div data-candles-product id="k1" data-scent-family="woody" data-family="woody" data-price="100"></div>
    <div data-candles-product id="k2" data-scent-family="floral" data-price="100"></div>
  </div>
</div>`)
	require.NoError(t, err)
	engine, err := Configure(doc.Node(), Candles)
	require.NoError(t, err)
	d := dom.NewDelegator(doc)
	engine.Bind(doc, d)

	woody := doc.QueryAll("button[data-family]")[1]
	d.Dispatch(context.Background(), dom.Event{Type: dom.Click, Target: woody})
	assert.Equal(t, "woody", engine.State().Axis("family"))
	assert.Equal(t, []string{"k1"}, visibleIDs(doc, "[data-candles-product]"))
	assert.True(t, dom.HasClass(woody, "is-active"))
	assert.Equal(t, "Woody Collection", dom.Text(doc.Query("[data-candles-family-label]")))

	// clicking a product that carries the same attribute is not a facet click
	d.Dispatch(context.Background(), dom.Event{Type: dom.Click, Target: doc.Query("#k1")})
	assert.Equal(t, "woody", engine.State().Axis("family"))
}

func TestCollectionSyncsURLAndChips(t *testing.T) {
	loc, err := NewHistory("https://shop.test/collections/all?filter_vendor=acme&filter_price_max=20&page=2")
	require.NoError(t, err)

	doc, engine := setup(t, collectionPage, Collection, WithLocation(loc))
	assert.Equal(t, "acme", engine.State().Axis("vendor"))
	assert.Equal(t, 2000, engine.State().PriceMax)

	engine.Render()
	assert.Equal(t, []string{"c1"}, visibleIDs(doc, "[data-collection-product]"))
	assert.Equal(t, "acme", dom.Value(doc.Query(`[data-collection-filter="vendor"]`)))

	chips := doc.QueryAll("[data-chip]")
	require.Len(t, chips, 2)
	assert.Equal(t, "vendor:acme", dom.Attr(chips[0], "data-chip-key"))
	assert.Equal(t, "Up to $20.00", dom.Text(dom.Query(chips[1], "[data-chip-label]")))
	assert.False(t, dom.IsHidden(doc.Query("[data-collection-chips]")))

	d := dom.NewDelegator(doc)
	engine.Bind(doc, d)
	d.Dispatch(context.Background(), dom.Event{Type: dom.Click, Target: dom.Query(chips[0], "[data-chip-remove]")})
	assert.Equal(t, All, engine.State().Axis("vendor"))

	q := loc.Query()
	assert.Equal(t, "", q.Get("filter_vendor"))
	assert.Equal(t, "20", q.Get("filter_price_max"))
	assert.Equal(t, "2", q.Get("page"))
	assert.Equal(t, 1, loc.Entries(), "filter changes replace the history entry")

	remaining := doc.QueryAll("[data-chip]")
	require.Len(t, remaining, 1)
	assert.Same(t, chips[1], remaining[0])
}

func TestStateFromQueryIgnoresGarbage(t *testing.T) {
	q := url.Values{
		"filter_price_min": {"abc"},
		"filter_price_max": {"-5"},
		"filter_vendor":    {"  "},
		"sort_by":          {"price-asc"},
	}
	s := StateFromQuery(q, Collection.AxisNames(), 100)
	assert.Equal(t, 0, s.PriceMin)
	assert.Equal(t, NoMax, s.PriceMax)
	assert.Equal(t, All, s.Axis("vendor"))
	assert.Equal(t, SortPriceAsc, s.Sort)
}

func TestApplyStateRoundTrip(t *testing.T) {
	s := DefaultState().WithAxis("type", "oil")
	s.PriceMin = 1250
	s.Sort = SortNewest
	q := ApplyState(url.Values{"q": {"rose"}}, s, Collection.AxisNames(), 100)
	assert.Equal(t, "12.50", q.Get("filter_price_min"))
	assert.Equal(t, "rose", q.Get("q"))
	assert.Equal(t, s, StateFromQuery(q, Collection.AxisNames(), 100))
}

func TestProductsSnapshotIsCopy(t *testing.T) {
	_, engine := setup(t, shopPage, Shop)
	products := engine.Products()
	products[0] = (*html.Node)(nil)
	assert.NotNil(t, engine.Products()[0])
}

