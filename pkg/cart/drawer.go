package cart

import (
	"context"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	xhtml "golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/dom"
	"github.com/matst80/slask-theme/pkg/events"
	"github.com/matst80/slask-theme/pkg/money"
	"github.com/matst80/slask-theme/pkg/overlay"
	"github.com/matst80/slask-theme/pkg/reconcile"
)

type DrawerState int

const (
	Closed DrawerState = iota
	Opening
	Open
)

func (s DrawerState) String() string {
	switch s {
	case Opening:
		return "opening"
	case Open:
		return "open"
	}
	return "closed"
}

const drawerSource = "cart-drawer"

// Drawer is the cart modal: it shows the backend cart, lets the shopper
// change quantities and keeps every cart aggregate on the page current.
// The cart is never changed locally; every render comes from a backend
// response.
type Drawer struct {
	doc       *dom.Document
	root      *xhtml.Node
	backend   Backend
	modal     *overlay.Modal
	bus       *events.Bus
	money     money.Formatter
	threshold Threshold
	log       *zap.Logger

	mu    sync.Mutex
	state DrawerState
	cart  *Cart
}

type DrawerOption func(*Drawer)

func WithDrawerLogger(l *zap.Logger) DrawerOption {
	return func(d *Drawer) { d.log = l }
}

func WithMoney(f money.Formatter) DrawerOption {
	return func(d *Drawer) { d.money = f }
}

func WithThreshold(t Threshold) DrawerOption {
	return func(d *Drawer) { d.threshold = t }
}

func WithBus(b *events.Bus) DrawerOption {
	return func(d *Drawer) { d.bus = b }
}

// NewDrawer binds to the first [data-cart-modal] in the document. It
// returns nil when the page has none.
func NewDrawer(doc *dom.Document, backend Backend, overlays *overlay.Manager, opts ...DrawerOption) *Drawer {
	root := doc.Query("[data-cart-modal]")
	if root == nil {
		return nil
	}
	d := &Drawer{
		doc:     doc,
		root:    root,
		backend: backend,
		log:     zap.NewNop(),
	}
	d.modal = overlay.NewModal("cart", root, overlays, doc)
	d.modal.CloseSelector = "[data-cart-close]"
	d.modal.OnClose = func() {
		d.mu.Lock()
		d.state = Closed
		d.mu.Unlock()
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.bus != nil {
		d.bus.On(events.CartUpdated, d.onCartUpdated)
	}
	return d
}

func (d *Drawer) State() DrawerState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Cart returns the cart of the last render.
func (d *Drawer) Cart() *Cart {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cart
}

func (d *Drawer) setState(s DrawerState) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Open shows the drawer and always fetches the cart. On failure the
// drawer stays open with whatever it showed before.
func (d *Drawer) Open(ctx context.Context) Result {
	d.doc.Update(func() {
		d.setState(Opening)
		d.modal.Open()
	})
	res := d.backend.Fetch(ctx)
	d.doc.Update(func() {
		if d.State() == Closed {
			// closed while the request was in flight
			if res.OK() {
				d.render(res.Cart)
			}
			return
		}
		d.setState(Open)
		if res.OK() {
			d.render(res.Cart)
		} else {
			d.log.Debug("cart fetch failed", zap.Error(res.Err))
		}
	})
	return res
}

func (d *Drawer) Close() {
	d.doc.Update(d.modal.Close)
}

// Action is a drawer quantity control.
type Action int

const (
	Increase Action = iota
	Decrease
	Remove
)

// maxQuantity caps a typed quantity before it is sent.
const maxQuantity = 9999

// ParseQuantity reads a typed quantity; anything unusable or below 1 reads
// as 1.
func ParseQuantity(v string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsNaN(f) || f < 1 {
		return 1
	}
	return int(min(f, maxQuantity))
}

// NextQuantity applies a control to the current quantity and reports
// whether a request is needed.
func NextQuantity(current int, action Action) (int, bool) {
	switch action {
	case Increase:
		return current + 1, true
	case Decrease:
		next := max(1, current-1)
		return next, next != current
	default:
		return 0, true
	}
}

// Apply runs the quantity protocol for the row containing control: read
// the row input, compute the next quantity, skip when nothing changes,
// disable control while the request is in flight and re-render from the
// response. A failed request leaves the rows as they were.
func (d *Drawer) Apply(ctx context.Context, control *xhtml.Node, action Action) (Result, bool) {
	var key string
	var next int
	send := false
	d.doc.Update(func() {
		row := dom.Closest(control, "[data-cart-item]")
		key = dom.Attr(row, "data-item-key")
		if key == "" {
			return
		}
		current := ParseQuantity(dom.Value(dom.Query(row, "[data-cart-quantity]")))
		next, send = NextQuantity(current, action)
		if send {
			dom.SetDisabled(control, true)
		}
	})
	if !send {
		return Result{}, false
	}
	return d.change(ctx, control, key, next, false), true
}

// SetQuantity handles a typed quantity. Values below 1 are clamped to 1
// and written back; a failed request resyncs the drawer from the backend.
func (d *Drawer) SetQuantity(ctx context.Context, input *xhtml.Node) (Result, bool) {
	var key string
	var next int
	send := false
	d.doc.Update(func() {
		row := dom.Closest(input, "[data-cart-item]")
		key = dom.Attr(row, "data-item-key")
		if key == "" {
			return
		}
		next = ParseQuantity(dom.Value(input))
		dom.SetValue(input, strconv.Itoa(next))
		if item, ok := d.Cart().Item(key); ok && item.Quantity == next {
			return
		}
		send = true
		dom.SetDisabled(input, true)
	})
	if !send {
		return Result{}, false
	}
	return d.change(ctx, input, key, next, true), true
}

func (d *Drawer) change(ctx context.Context, control *xhtml.Node, key string, quantity int, resync bool) Result {
	res := d.backend.Change(ctx, key, quantity)
	if !res.OK() && resync {
		d.log.Debug("cart change failed, resyncing", zap.String("key", key), zap.Error(res.Err))
		if fresh := d.backend.Fetch(ctx); fresh.OK() {
			d.doc.Update(func() {
				dom.SetDisabled(control, false)
				d.render(fresh.Cart)
			})
			return res
		}
	}
	d.doc.Update(func() {
		dom.SetDisabled(control, false)
		if res.OK() {
			d.render(res.Cart)
		}
	})
	if res.OK() {
		d.emit(ctx, res.Cart)
	}
	return res
}

func (d *Drawer) emit(ctx context.Context, c *Cart) {
	if d.bus == nil {
		return
	}
	ev, err := events.NewEvent(events.CartUpdated, drawerSource, c)
	if err != nil {
		d.log.Debug("encode cart event", zap.Error(err))
		return
	}
	d.bus.Emit(ctx, ev)
}

// onCartUpdated re-renders from the event cart when it carries one and
// refetches otherwise.
func (d *Drawer) onCartUpdated(ctx context.Context, ev events.Event) {
	if ev.Source == drawerSource && !ev.Remote {
		return
	}
	var c Cart
	if len(ev.Detail) > 0 && ev.Decode(&c) == nil && c.Items != nil {
		d.doc.Update(func() { d.render(&c) })
		return
	}
	res := d.backend.Fetch(ctx)
	if res.OK() {
		d.doc.Update(func() { d.render(res.Cart) })
	}
}

// Render shows c. The caller must hold the document lock.
func (d *Drawer) Render(c *Cart) {
	d.render(c)
}

func (d *Drawer) render(c *Cart) {
	if c == nil {
		return
	}
	d.mu.Lock()
	d.cart = c
	d.mu.Unlock()

	RenderCount(d.doc, c)
	dom.SetText(dom.Query(d.root, "[data-cart-total]"), d.money.Format(c.TotalPrice))
	if savings := dom.Query(d.root, "[data-cart-savings]"); savings != nil {
		s := c.Savings()
		dom.SetText(savings, d.money.Format(s))
		dom.SetHidden(savings, s == 0)
	}
	RenderThresholds(d.doc.Node(), d.threshold, c, d.money)

	empty := dom.Query(d.root, ".az-cart__empty, [data-cart-empty]")
	items := dom.Query(d.root, "[data-cart-items]")
	footer := dom.Query(d.root, ".az-cart__footer, [data-cart-footer]")
	if items == nil {
		return
	}
	if c.IsEmpty() {
		dom.SetHidden(empty, false)
		dom.SetHidden(items, true)
		dom.RemoveChildren(items)
		dom.SetHidden(footer, true)
		return
	}
	dom.SetHidden(empty, true)
	dom.SetHidden(items, false)
	dom.SetHidden(footer, false)

	stats, err := reconcile.Patch(items, d.rowSpec(), c.Items)
	if err != nil {
		d.log.Warn("patch cart rows", zap.Error(err))
		return
	}
	d.log.Debug("cart rendered",
		zap.Int("reused", stats.Reused),
		zap.Int("created", stats.Created),
		zap.Int("removed", stats.Removed))
}

// RenderCount writes the item count into every [data-cart-count] badge,
// hiding them for an empty cart.
func RenderCount(doc *dom.Document, c *Cart) {
	n := 0
	if c != nil {
		n = c.ItemCount
	}
	for _, el := range doc.QueryAll("[data-cart-count]") {
		dom.SetText(el, strconv.Itoa(max(n, 0)))
		dom.SetHidden(el, n <= 0)
	}
}

// RenderThresholds updates every [data-cart-threshold] bar below root. A
// bar may override the goal with data-threshold in minor units.
func RenderThresholds(root *xhtml.Node, t Threshold, c *Cart, f money.Formatter) {
	for _, bar := range dom.QueryAll(root, "[data-cart-threshold]") {
		goal := t
		if dom.HasAttr(bar, "data-threshold") {
			goal.Amount = dom.Number(bar, "data-threshold")
		}
		status := goal.Status(c, f)
		dom.SetHidden(bar, status.Hidden)
		if status.Hidden {
			continue
		}
		dom.ToggleClass(bar, "is-reached", status.Reached)
		dom.SetText(dom.Query(bar, "[data-cart-threshold-message]"), status.Message)
		if fill := dom.Query(bar, "[data-cart-threshold-bar]"); fill != nil {
			dom.SetStyle(fill, "width", strconv.Itoa(status.Progress)+"%")
			dom.SetAttr(fill, "aria-valuenow", strconv.Itoa(status.Progress))
		}
	}
}

func (d *Drawer) rowSpec() reconcile.Spec[LineItem] {
	return reconcile.Spec[LineItem]{
		ItemSelector: "[data-cart-item]",
		KeyAttr:      "data-item-key",
		Key:          func(i LineItem) string { return i.Key },
		Update: func(n *xhtml.Node, i LineItem) {
			if input := dom.Query(n, "[data-cart-quantity]"); input != nil && input != d.doc.Active() {
				dom.SetValue(input, strconv.Itoa(i.Quantity))
			}
			dom.SetText(dom.Query(n, "[data-cart-line-price]"), d.money.Format(i.FinalLinePrice))
		},
		Create: func(i LineItem) (*xhtml.Node, error) {
			return dom.Element(d.rowMarkup(i))
		},
	}
}

func (d *Drawer) rowMarkup(i LineItem) string {
	esc := html.EscapeString
	image := `<div class="az-cart__placeholder"></div>`
	if i.Image != "" {
		image = fmt.Sprintf(`<img src="%s" alt="" loading="lazy" decoding="async">`, esc(i.Image))
	}
	variant := ""
	if i.VariantTitle != "" && i.VariantTitle != "Default Title" {
		variant = fmt.Sprintf(`<div class="az-cart__item-variant">%s</div>`, esc(i.VariantTitle))
	}
	original := ""
	if i.OriginalLinePrice > i.FinalLinePrice {
		original = fmt.Sprintf(`<s class="az-cart__item-price-original">%s</s>`, esc(d.money.Format(i.OriginalLinePrice)))
	}
	return fmt.Sprintf(`<div class="az-cart__item" data-cart-item>
  <a href="%[1]s" class="az-cart__item-image" aria-label="%[2]s">%[3]s</a>
  <div class="az-cart__item-details">
    <a href="%[1]s" class="az-cart__item-title">%[2]s</a>
    %[4]s
    <div class="az-cart__item-price">
      <span class="az-cart__item-price-current" data-cart-line-price>%[5]s</span>%[6]s
    </div>
    <div class="az-cart__item-actions">
      <div class="az-cart__quantity">
        <button type="button" class="az-cart__qty-btn" data-cart-decrease aria-label="Decrease quantity">&minus;</button>
        <input type="number" class="az-cart__qty-input" value="%[7]d" min="1" data-cart-quantity aria-label="Quantity">
        <button type="button" class="az-cart__qty-btn" data-cart-increase aria-label="Increase quantity">+</button>
      </div>
      <button type="button" class="az-cart__remove" data-cart-remove aria-label="Remove item">Remove</button>
    </div>
  </div>
</div>`, esc(i.URL), esc(i.ProductTitle), image, variant, esc(d.money.Format(i.FinalLinePrice)), original, i.Quantity)
}

// Bind wires the drawer controls.
func (d *Drawer) Bind(del *dom.Delegator) {
	del.On(dom.Click, "[data-cart-toggle]", func(ctx context.Context, ev dom.Event, match *xhtml.Node) {
		d.Open(ctx)
	})
	del.On(dom.Click, "[data-cart-close]", func(ctx context.Context, ev dom.Event, match *xhtml.Node) {
		d.Close()
	})
	for selector, action := range map[string]Action{
		"[data-cart-increase]": Increase,
		"[data-cart-decrease]": Decrease,
		"[data-cart-remove]":   Remove,
	} {
		del.On(dom.Click, selector, func(ctx context.Context, ev dom.Event, match *xhtml.Node) {
			if dom.Contains(d.root, match) {
				d.Apply(ctx, match, action)
			}
		})
	}
	del.On(dom.Change, "[data-cart-quantity]", func(ctx context.Context, ev dom.Event, match *xhtml.Node) {
		if dom.Contains(d.root, match) {
			d.SetQuantity(ctx, match)
		}
	})
}
