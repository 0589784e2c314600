package cart

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matst80/slask-theme/pkg/dom"
	"github.com/matst80/slask-theme/pkg/events"
	"github.com/matst80/slask-theme/pkg/money"
	"github.com/matst80/slask-theme/pkg/overlay"
)

const drawerPage = `<html><body>
<button data-cart-toggle>Cart <span data-cart-count hidden>0</span></button>
<div data-cart-modal hidden>
  <button data-cart-close>Close</button>
  <div data-cart-threshold><p data-cart-threshold-message></p><div data-cart-threshold-bar></div></div>
  <div class="az-cart__empty">Your cart is empty</div>
  <div data-cart-items></div>
  <div class="az-cart__footer" hidden>
    <span data-cart-total></span>
    <span data-cart-savings hidden></span>
  </div>
</div>
<div data-product-page>
  <form><input type="hidden" name="id" value="101"><input name="quantity" value="1"></form>
  <button data-add-to-cart><span data-add-text>Add</span><span data-added-text hidden>Added</span></button>
</div>
<div data-toast hidden></div>
</body></html>`

// failing refuses every request.
type failing struct {
	fetches int
}

func (f *failing) Fetch(ctx context.Context) Result {
	f.fetches++
	return Result{Err: &Error{Kind: KindNetwork, Op: "fetch", Err: context.DeadlineExceeded}}
}

func (f *failing) Change(ctx context.Context, key string, quantity int) Result {
	return Result{Err: &Error{Kind: KindStatus, Op: "change", Status: 500, Err: ErrUnexpectedStatus}}
}

func (f *failing) Add(ctx context.Context, form url.Values) (*LineItem, error) {
	return nil, &AddError{Status: 422, Message: "Sold out"}
}

// recording passes requests through and keeps what was sent.
type recording struct {
	Backend
	changes []int
	forms   []url.Values
}

func (r *recording) Change(ctx context.Context, key string, quantity int) Result {
	r.changes = append(r.changes, quantity)
	return r.Backend.Change(ctx, key, quantity)
}

func (r *recording) Add(ctx context.Context, form url.Values) (*LineItem, error) {
	r.forms = append(r.forms, form)
	return r.Backend.Add(ctx, form)
}

func drawerFixture(t *testing.T, backend Backend, opts ...DrawerOption) (*dom.Document, *Drawer) {
	t.Helper()
	doc, err := dom.ParseString(drawerPage)
	require.NoError(t, err)
	d := NewDrawer(doc, backend, overlay.NewManager(doc.Root()), opts...)
	require.NotNil(t, d)
	return doc, d
}

func rows(doc *dom.Document) []string {
	keys := make([]string, 0)
	for _, n := range doc.QueryAll("[data-cart-item]") {
		keys = append(keys, dom.Attr(n, "data-item-key"))
	}
	return keys
}

func TestThresholdScenario(t *testing.T) {
	goal := Threshold{Amount: 5000}
	f := money.Formatter{}

	status := goal.Status(&Cart{ItemCount: 1, TotalPrice: 3000}, f)
	assert.False(t, status.Hidden)
	assert.Equal(t, 2000, status.Remaining)
	assert.Equal(t, 60, status.Progress)
	assert.Equal(t, "You're $20.00 away from free shipping", status.Message)

	status = goal.Status(&Cart{ItemCount: 2, TotalPrice: 5000}, f)
	assert.True(t, status.Reached)
	assert.Equal(t, 100, status.Progress)

	assert.True(t, goal.Status(&Cart{}, f).Hidden)
	assert.True(t, Threshold{}.Status(&Cart{ItemCount: 1, TotalPrice: 10}, f).Hidden)
}

func TestDrawerReusesRowsByKey(t *testing.T) {
	_, client := newBackend(t, NewMemoryCartStorage())
	doc, d := drawerFixture(t, client, WithThreshold(Threshold{Amount: 5000}))
	ctx := context.Background()

	a := add(t, client, "101", 1)
	res := d.Open(ctx)
	require.True(t, res.OK())
	assert.Equal(t, Open, d.State())
	assert.Equal(t, []string{a.Key}, rows(doc))
	first := doc.Query("[data-cart-item]")

	b := add(t, client, "202", 1)
	d.Open(ctx)
	require.Equal(t, []string{a.Key, b.Key}, rows(doc))
	assert.Same(t, first, doc.Query("[data-cart-item]"), "existing rows are moved, not recreated")

	count := doc.Query("[data-cart-count]")
	assert.Equal(t, "2", dom.Text(count))
	assert.False(t, dom.IsHidden(count))
	assert.Equal(t, "$30.00", dom.Text(doc.Query("[data-cart-total]")))
	assert.Equal(t, "$5.00", dom.Text(doc.Query("[data-cart-savings]")))
	assert.True(t, dom.IsHidden(doc.Query(".az-cart__empty")))
	assert.False(t, dom.IsHidden(doc.Query(".az-cart__footer")))
	assert.Equal(t, "You're $20.00 away from free shipping", dom.Text(doc.Query("[data-cart-threshold-message]")))
	assert.Equal(t, "60%", dom.Style(doc.Query("[data-cart-threshold-bar]"), "width"))

	d.Close()
	assert.Equal(t, Closed, d.State())
}

func TestDrawerQuantityProtocol(t *testing.T) {
	_, client := newBackend(t, NewMemoryCartStorage())
	bus := events.NewBus()
	doc, d := drawerFixture(t, client, WithBus(bus))
	ctx := context.Background()
	sources := make([]string, 0)
	bus.On(events.CartUpdated, func(ctx context.Context, ev events.Event) {
		sources = append(sources, ev.Source)
	})

	add(t, client, "101", 1)
	d.Open(ctx)
	row := doc.Query("[data-cart-item]")
	quantity := func() string { return dom.Value(dom.Query(row, "[data-cart-quantity]")) }

	inc := dom.Query(row, "[data-cart-increase]")
	res, sent := d.Apply(ctx, inc, Increase)
	require.True(t, sent)
	require.True(t, res.OK())
	assert.Equal(t, "2", quantity())
	assert.False(t, dom.IsDisabled(inc))

	dec := dom.Query(row, "[data-cart-decrease]")
	d.Apply(ctx, dec, Decrease)
	assert.Equal(t, "1", quantity())

	// already at the floor, nothing is sent
	_, sent = d.Apply(ctx, dec, Decrease)
	assert.False(t, sent)
	assert.Len(t, sources, 2)
	assert.Equal(t, drawerSource, sources[0])

	d.Apply(ctx, dom.Query(row, "[data-cart-remove]"), Remove)
	assert.Empty(t, rows(doc))
	assert.True(t, dom.IsHidden(doc.Query("[data-cart-items]")))
	assert.False(t, dom.IsHidden(doc.Query(".az-cart__empty")))
	assert.True(t, dom.IsHidden(doc.Query("[data-cart-count]")))
}

func TestDrawerTypedQuantity(t *testing.T) {
	_, client := newBackend(t, NewMemoryCartStorage())
	doc, d := drawerFixture(t, client)
	del := dom.NewDelegator(doc)
	d.Bind(del)
	ctx := context.Background()

	add(t, client, "101", 2)
	del.Dispatch(ctx, dom.Event{Type: dom.Click, Target: doc.Query("[data-cart-toggle]")})
	require.Equal(t, Open, d.State())

	input := doc.Query("[data-cart-quantity]")
	del.Dispatch(ctx, dom.Event{Type: dom.Change, Target: input, Value: "-4"})
	assert.Equal(t, "1", dom.Value(input))
	assert.Equal(t, 1, d.Cart().ItemCount)

	del.Dispatch(ctx, dom.Event{Type: dom.Change, Target: input, Value: "abc"})
	assert.Equal(t, "1", dom.Value(input))
	_, sent := d.SetQuantity(ctx, input)
	assert.False(t, sent, "unchanged quantity is not sent")
}

func TestParseAndNextQuantity(t *testing.T) {
	assert.Equal(t, 1, ParseQuantity(""))
	assert.Equal(t, 1, ParseQuantity("NaN"))
	assert.Equal(t, 3, ParseQuantity(" 3 "))
	assert.Equal(t, 2, ParseQuantity("2.7"))
	assert.Equal(t, 1, ParseQuantity("-3"))
	assert.Equal(t, 1, ParseQuantity("-0.5"))
	assert.Equal(t, 1, ParseQuantity("abc"))
	assert.Equal(t, 1, ParseQuantity("-Inf"))
	assert.Equal(t, maxQuantity, ParseQuantity("1e12"))

	n, ok := NextQuantity(ParseQuantity("-3"), Increase)
	assert.Equal(t, 2, n)
	assert.True(t, ok)

	n, ok = NextQuantity(1, Decrease)
	assert.Equal(t, 1, n)
	assert.False(t, ok)
	n, ok = NextQuantity(4, Remove)
	assert.Equal(t, 0, n)
	assert.True(t, ok)
}

func TestDrawerFailureKeepsStaleContent(t *testing.T) {
	backend := &failing{}
	doc, d := drawerFixture(t, backend)
	stale := &Cart{ItemCount: 1, TotalPrice: 900, Items: []LineItem{{Key: "k1", Quantity: 1, FinalLinePrice: 900, ProductTitle: "Old"}}}
	doc.Update(func() { d.Render(stale) })

	res := d.Open(context.Background())
	assert.False(t, res.OK())
	assert.Equal(t, Open, d.State())
	assert.Equal(t, []string{"k1"}, rows(doc))

	row := doc.Query("[data-cart-item]")
	inc := dom.Query(row, "[data-cart-increase]")
	res, sent := d.Apply(context.Background(), inc, Increase)
	assert.True(t, sent)
	assert.Equal(t, KindStatus, res.Err.Kind)
	assert.Equal(t, "1", dom.Value(dom.Query(row, "[data-cart-quantity]")))
	assert.False(t, dom.IsDisabled(inc))

	// typed input resyncs
	before := backend.fetches
	input := dom.Query(row, "[data-cart-quantity]")
	doc.Update(func() { dom.SetValue(input, "5") })
	d.SetQuantity(context.Background(), input)
	assert.Equal(t, before+1, backend.fetches)
	assert.False(t, dom.IsDisabled(input))
}

func TestRowMarkupEscapes(t *testing.T) {
	doc, d := drawerFixture(t, &failing{})
	doc.Update(func() {
		d.Render(&Cart{ItemCount: 1, Items: []LineItem{{
			Key: "x", Quantity: 1, ProductTitle: `<script>alert(1)</script>`, VariantTitle: "Default Title",
		}}})
	})
	row := doc.Query("[data-cart-item]")
	require.NotNil(t, row)
	assert.Nil(t, dom.Query(row, "script"))
	assert.Nil(t, dom.Query(row, ".az-cart__item-variant"))
	assert.NotNil(t, dom.Query(row, ".az-cart__placeholder"))
}

func TestNegativeRowQuantityIncreasesFromOne(t *testing.T) {
	_, client := newBackend(t, NewMemoryCartStorage())
	backend := &recording{Backend: client}
	doc, d := drawerFixture(t, backend)
	add(t, client, "101", 4)
	require.True(t, d.Open(context.Background()).OK())

	row := doc.Query("[data-cart-item]")
	doc.Update(func() { dom.SetValue(dom.Query(row, "[data-cart-quantity]"), "-3") })
	res, sent := d.Apply(context.Background(), dom.Query(row, "[data-cart-increase]"), Increase)
	require.True(t, sent)
	require.True(t, res.OK())
	assert.Equal(t, []int{2}, backend.changes)
	assert.Equal(t, 2, d.Cart().ItemCount)
}

func TestAdderOpensDrawer(t *testing.T) {
	_, client := newBackend(t, NewMemoryCartStorage())
	backend := &recording{Backend: client}
	bus := events.NewBus()
	doc, d := drawerFixture(t, backend, WithBus(bus))
	adder := NewAdder(doc, backend, WithDrawer(d), WithAdderBus(bus))
	require.NotNil(t, adder)
	adder.Feedback = time.Hour
	emitted := 0
	bus.On(events.CartUpdated, func(ctx context.Context, ev events.Event) { emitted++ })

	item, err := adder.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(101), item.VariantID)
	require.Len(t, backend.forms, 1)
	assert.Equal(t, url.Values{"id": {"101"}, "quantity": {"1"}}, backend.forms[0])
	assert.Equal(t, Open, d.State())
	assert.Equal(t, []string{item.Key}, rows(doc))
	assert.Equal(t, 1, emitted)

	btn := doc.Query("[data-add-to-cart]")
	assert.True(t, dom.HasClass(btn, "is-added"))
	assert.False(t, dom.IsDisabled(btn))
	assert.True(t, dom.IsHidden(doc.Query("[data-add-text]")))
}

func TestAdderShowsRefusal(t *testing.T) {
	doc, err := dom.ParseString(drawerPage)
	require.NoError(t, err)
	toast := overlay.NewToast(doc, doc.Query("[data-toast]"))
	toast.Duration = time.Hour
	adder := NewAdder(doc, &failing{}, WithToast(toast))
	adder.Feedback = time.Millisecond

	_, err = adder.Submit(context.Background())
	var refusal *AddError
	require.ErrorAs(t, err, &refusal)
	assert.Equal(t, "Sold out", dom.Text(doc.Query("[data-toast]")))
	assert.False(t, dom.IsHidden(doc.Query("[data-toast]")))

	assert.Eventually(t, func() bool {
		var added bool
		doc.Update(func() { added = dom.HasClass(doc.Query("[data-add-to-cart]"), "is-added") })
		return !added
	}, time.Second, 5*time.Millisecond)
}
