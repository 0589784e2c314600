package main

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matst80/slask-theme/pkg/cart"
	"github.com/matst80/slask-theme/pkg/config"
	"github.com/matst80/slask-theme/pkg/dom"
	"github.com/matst80/slask-theme/pkg/storage"
)

const collection = `<html><body>
<section data-collection-page>
  <select data-collection-filter="vendor">
    <option value="all">All</option>
    <option value="acme">Acme</option>
    <option value="zen">Zen</option>
  </select>
  <div data-collection-grid>
    <div data-collection-product id="c1" data-vendor="acme" data-price="1200"></div>
    <div data-collection-product id="c2" data-vendor="zen" data-price="800"></div>
  </div>
</section>
</body></html>`

func TestRunAppliesQueryAndScript(t *testing.T) {
	res, err := run(context.Background(), strings.NewReader(collection), options{
		URL: "https://shop.test/collections/all?filter_vendor=acme",
		Steps: []Step{
			{Type: "change", Target: `[data-collection-filter="vendor"]`, Value: "zen"},
			{Type: "click", Target: "[data-missing]"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Played)
	assert.Contains(t, res.Location, "filter_vendor=zen")
	doc, err := dom.ParseString(res.HTML)
	require.NoError(t, err)
	assert.True(t, dom.IsHidden(doc.Query("#c1")))
	assert.False(t, dom.IsHidden(doc.Query("#c2")))
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cfg := &config.Preview{Profile: "dev", Redis: config.Redis{Addr: mr.Addr()}}
	store, closeStore, err := newStore(ctx, cfg)
	require.NoError(t, err)
	require.IsType(t, &storage.RedisStore{}, store)
	require.NoError(t, store.Set(ctx, "wishlist", []byte(`["amber-oil"]`)))
	assert.True(t, mr.Exists("theme:dev:wishlist"))
	require.NoError(t, closeStore())

	mr.Close()
	_, _, err = newStore(ctx, cfg)
	assert.Error(t, err)

	store, _, err = newStore(ctx, &config.Preview{Profile: "dev", StateDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &storage.DiskStorage{}, store)

	store, _, err = newStore(ctx, &config.Preview{})
	require.NoError(t, err)
	assert.IsType(t, &storage.MemoryStore{}, store)
}

func TestLoadScript(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"type":"click","target":"[data-cart-toggle]"},{"type":"keydown","key":"Escape"}]`), 0o644))
	steps, err := loadScript(path)
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, "Escape", steps[1].Key)

	steps, err = loadScript("")
	assert.NoError(t, err)
	assert.Nil(t, steps)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	_, err = loadScript(path)
	assert.Error(t, err)
}

func TestRunAgainstDevBackend(t *testing.T) {
	srv := httptest.NewServer((&cart.CartServer{
		Storage: cart.NewMemoryCartStorage(),
		Catalog: cart.NewCatalog(cart.Variant{ID: 7, ProductID: 1, Title: "Amber Oil", Handle: "amber-oil", Price: 2500}),
	}).Handler())
	t.Cleanup(srv.Close)
	client, err := cart.NewClient(srv.URL)
	require.NoError(t, err)

	page := `<html><body>
<button data-cart-toggle>Cart <span data-cart-count hidden>0</span></button>
<div data-cart-modal hidden><div data-cart-items></div><span data-cart-total></span></div>
<main data-product-page><form><input type="hidden" name="id" value="7"><input name="quantity" value="2"></form>
<button data-add-to-cart>Add</button></main>
</body></html>`
	store := storage.NewMemoryStore()
	res, err := run(context.Background(), strings.NewReader(page), options{
		URL:   "http://localhost/products/amber-oil",
		Steps: []Step{{Type: "click", Target: "[data-add-to-cart]"}},
		Cart:  client,
		Store: store,
	})
	require.NoError(t, err)
	doc, err := dom.ParseString(res.HTML)
	require.NoError(t, err)
	assert.Equal(t, "2", dom.Text(doc.Query("[data-cart-count]")))
	assert.False(t, dom.IsHidden(doc.Query("[data-cart-count]")))
	assert.Equal(t, "$50.00", dom.Text(doc.Query("[data-cart-total]")))
}
