package dom

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const page = `<html><body>
<div data-grid>
  <div data-product data-price="1999" data-category="oils" data-on-sale="true" class="card">A</div>
  <div data-product data-price="abc" class="card">B</div>
</div>
<form data-form>
  <input type="radio" name="category" value="all" checked data-filter>
  <input type="radio" name="category" value="oils" data-filter>
  <select name="sort" data-sort><option value="featured">Featured</option><option value="price-asc">Low</option></select>
  <input type="text" name="note" value="hi">
  <input type="checkbox" name="gift">
  <textarea name="message">hello</textarea>
</form>
</body></html>`

func parse(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseString(page)
	require.NoError(t, err)
	return doc
}

func TestAttributeReadersDefault(t *testing.T) {
	doc := parse(t)
	products := doc.QueryAll("[data-product]")
	require.Len(t, products, 2)

	assert.Equal(t, 1999, Number(products[0], "data-price"))
	assert.Equal(t, 0, Number(products[1], "data-price"))
	assert.Equal(t, "oils", Attr(products[0], "data-category"))
	assert.Equal(t, "", Attr(products[1], "data-category"))
	assert.True(t, Bool(products[0], "data-on-sale"))
	assert.False(t, Bool(products[1], "data-on-sale"))
	assert.Equal(t, "", Attr(nil, "data-category"))
	assert.Equal(t, 0, Number(nil, "data-price"))
}

func TestClassAndHidden(t *testing.T) {
	doc := parse(t)
	n := doc.Query("[data-product]")

	AddClass(n, "is-active")
	assert.True(t, HasClass(n, "is-active"))
	assert.True(t, HasClass(n, "card"))
	RemoveClass(n, "is-active")
	assert.False(t, HasClass(n, "is-active"))

	SetHidden(n, true)
	SetHidden(n, true)
	assert.True(t, IsHidden(n))
	SetHidden(n, false)
	assert.False(t, IsHidden(n))

	// nil elements are ignored
	SetHidden(nil, true)
	SetText(nil, "x")
}

func TestFormValues(t *testing.T) {
	doc := parse(t)
	form := doc.Query("[data-form]")
	values := FormValues(form)

	assert.Equal(t, "all", values.Get("category"))
	assert.Equal(t, "featured", values.Get("sort"))
	assert.Equal(t, "hi", values.Get("note"))
	assert.Equal(t, "hello", values.Get("message"))
	assert.False(t, values.Has("gift"))
}

func TestSetValueSelect(t *testing.T) {
	doc := parse(t)
	sel := doc.Query("[data-sort]")
	SetValue(sel, "price-asc")
	assert.Equal(t, "price-asc", Value(sel))
}

func TestStyle(t *testing.T) {
	n := &html.Node{Type: html.ElementNode, Data: "html"}
	SetStyle(n, "overflow", "hidden")
	SetStyle(n, "--header-height", "80px")
	assert.Equal(t, "hidden", Style(n, "overflow"))
	SetStyle(n, "overflow", "")
	assert.Equal(t, "", Style(n, "overflow"))
	assert.Equal(t, "80px", Style(n, "--header-height"))
}

func TestReplaceChildrenKeepsIdentity(t *testing.T) {
	doc := parse(t)
	grid := doc.Query("[data-grid]")
	products := doc.QueryAll("[data-product]")

	ReplaceChildren(grid, products[1], products[0])
	children := Children(grid)
	require.Len(t, children, 2)
	assert.Same(t, products[1], children[0])
	assert.Same(t, products[0], children[1])
}

func TestElement(t *testing.T) {
	n, err := Element(`<div class="row" data-key="a"><span>x</span></div>`)
	require.NoError(t, err)
	assert.Equal(t, "a", Attr(n, "data-key"))
	assert.Nil(t, n.Parent)

	_, err = Element("just text")
	assert.ErrorIs(t, err, ErrNoElement)
}

func TestSelectorLists(t *testing.T) {
	doc := parse(t)
	first := doc.Query("[data-missing], [data-product]")
	require.NotNil(t, first)
	assert.Equal(t, "1999", Attr(first, "data-price"))

	controls := doc.QueryAll("select[name], textarea[name]")
	require.Len(t, controls, 2)
	assert.Equal(t, "select", controls[0].Data, "document order, not list order")
	assert.Equal(t, "textarea", controls[1].Data)

	input := doc.Query(`input[name="note"]`)
	assert.True(t, Matches(input, "select, input[type=text]"))
	assert.Same(t, doc.Query("[data-form]"), Closest(input, "[data-grid], [data-form]"))
	assert.Len(t, doc.QueryAll("[data-product], [data-grid], [data-product]"), 3, "one node per element")
}

func TestSelectionSeesPatches(t *testing.T) {
	doc := parse(t)
	doc.Update(func() {
		SetText(doc.Query("[data-product]"), "Amber")
		SetHidden(doc.QueryAll("[data-product]")[1], true)
	})
	sel := doc.Selection()
	assert.Equal(t, "Amber", sel.Find("[data-product]").First().Text())
	assert.Equal(t, 1, sel.Find("[data-product][hidden]").Length())
}

func TestInvalidSelectorMatchesNothing(t *testing.T) {
	doc := parse(t)
	assert.Nil(t, doc.Query("[[["))
	assert.Empty(t, doc.QueryAll("[[["))
}

func TestDelegatorRoutesByClosest(t *testing.T) {
	doc := parse(t)
	d := NewDelegator(doc)

	var got []string
	d.On(Change, "[data-filter]", func(ctx context.Context, ev Event, match *html.Node) {
		got = append(got, Attr(match, "value"))
	})
	d.On(KeyDown, "", func(ctx context.Context, ev Event, match *html.Node) {
		got = append(got, "key:"+ev.Key)
	})

	radios := doc.QueryAll("[data-filter]")
	n := d.Dispatch(context.Background(), Event{Type: Change, Target: radios[1], Checked: true})
	assert.Equal(t, 1, n)
	assert.True(t, IsChecked(radios[1]))
	assert.False(t, IsChecked(radios[0]))

	d.Dispatch(context.Background(), Event{Type: KeyDown, Key: "Escape"})
	d.Dispatch(context.Background(), Event{Type: Click, Target: radios[0]})
	assert.Equal(t, []string{"oils", "key:Escape"}, got)
}

func TestFocusLostWhenDetached(t *testing.T) {
	doc := parse(t)
	n := doc.Query("[data-product]")
	doc.Focus(n)
	assert.Same(t, n, doc.Active())
	Detach(n)
	assert.Nil(t, doc.Active())
}
