package wishlist

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strconv"

	"go.uber.org/zap"
	xhtml "golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/cart"
	"github.com/matst80/slask-theme/pkg/dom"
	"github.com/matst80/slask-theme/pkg/events"
	"github.com/matst80/slask-theme/pkg/money"
	"github.com/matst80/slask-theme/pkg/overlay"
	"github.com/matst80/slask-theme/pkg/reconcile"
)

// View keeps the badges, toggle buttons and lists of a document in step
// with the store. It re-reads the store on every wishlist:updated event.
type View struct {
	doc     *dom.Document
	store   *Store
	bus     *events.Bus
	backend cart.Backend
	modal   *overlay.Modal
	money   money.Formatter
	log     *zap.Logger
}

type Option func(*View)

func WithLogger(l *zap.Logger) Option {
	return func(v *View) { v.log = l }
}

// WithCart enables the add to cart buttons in wishlist rows.
func WithCart(b cart.Backend) Option {
	return func(v *View) { v.backend = b }
}

func WithMoney(f money.Formatter) Option {
	return func(v *View) { v.money = f }
}

// WithOverlays makes [data-wishlist-drawer] a modal.
func WithOverlays(m *overlay.Manager) Option {
	return func(v *View) {
		if node := v.doc.Query("[data-wishlist-drawer]"); node != nil {
			v.modal = overlay.NewModal("wishlist", node, m, v.doc)
			v.modal.CloseSelector = "[data-wishlist-close]"
		}
	}
}

func NewView(doc *dom.Document, store *Store, bus *events.Bus, opts ...Option) *View {
	v := &View{doc: doc, store: store, bus: bus, log: zap.NewNop()}
	for _, opt := range opts {
		opt(v)
	}
	if bus != nil {
		bus.On(events.WishlistUpdated, func(ctx context.Context, ev events.Event) {
			v.Refresh(ctx)
		})
	}
	return v
}

// Refresh reads the store and renders every view.
func (v *View) Refresh(ctx context.Context) {
	entries := v.store.Load(ctx)
	v.doc.Update(func() { v.render(entries) })
}

func (v *View) render(entries []Entry) {
	saved := make(map[string]bool, len(entries))
	for _, e := range entries {
		saved[e.ProductID] = true
	}
	for _, badge := range v.doc.QueryAll("[data-wishlist-count]") {
		dom.SetText(badge, strconv.Itoa(len(entries)))
		dom.SetHidden(badge, len(entries) == 0)
	}
	for _, btn := range v.doc.QueryAll("[data-wishlist-toggle]") {
		active := saved[dom.Attr(btn, "data-product-id")]
		dom.ToggleClass(btn, "is-active", active)
		dom.SetAttr(btn, "aria-pressed", strconv.FormatBool(active))
	}
	for _, empty := range v.doc.QueryAll("[data-wishlist-empty]") {
		dom.SetHidden(empty, len(entries) > 0)
	}
	for _, list := range v.doc.QueryAll("[data-wishlist-items]") {
		dom.SetHidden(list, len(entries) == 0)
		if _, err := reconcile.Patch(list, v.rowSpec(), entries); err != nil {
			v.log.Warn("patch wishlist rows", zap.Error(err))
		}
	}
}

func (v *View) rowSpec() reconcile.Spec[Entry] {
	return reconcile.Spec[Entry]{
		ItemSelector: "[data-wishlist-item]",
		KeyAttr:      "data-product-id",
		Key:          func(e Entry) string { return e.ProductID },
		Update: func(n *xhtml.Node, e Entry) {
			dom.SetText(dom.Query(n, "[data-wishlist-price]"), v.money.Format(e.Price))
		},
		Create: func(e Entry) (*xhtml.Node, error) {
			return dom.Element(v.rowMarkup(e))
		},
	}
}

func (v *View) rowMarkup(e Entry) string {
	esc := html.EscapeString
	image := `<div class="az-wishlist__placeholder"></div>`
	if e.Image != "" {
		image = fmt.Sprintf(`<img src="%s" alt="%s" loading="lazy">`, esc(e.Image), esc(e.Title))
	}
	href := e.URL
	if href == "" && e.Handle != "" {
		href = "/products/" + e.Handle
	}
	return fmt.Sprintf(`<div class="az-wishlist__item" data-wishlist-item>
  <a href="%[1]s" class="az-wishlist__item-image">%[2]s</a>
  <div class="az-wishlist__item-details">
    <a href="%[1]s" class="az-wishlist__item-title">%[3]s</a>
    <span class="az-wishlist__item-price" data-wishlist-price>%[4]s</span>
    <button type="button" class="az-wishlist__add" data-wishlist-add-to-cart data-variant-id="%[5]s">Add to cart</button>
    <button type="button" class="az-wishlist__remove" data-wishlist-remove aria-label="Remove from wishlist">Remove</button>
  </div>
</div>`, esc(href), image, esc(e.Title), esc(v.money.Format(e.Price)), esc(e.VariantID))
}

// EntryFromNode reads a wishlist entry from the data attributes of a
// toggle button.
func EntryFromNode(n *xhtml.Node) Entry {
	return Entry{
		ProductID: dom.Attr(n, "data-product-id"),
		VariantID: dom.Attr(n, "data-variant-id"),
		Title:     dom.Attr(n, "data-product-title"),
		Handle:    dom.Attr(n, "data-product-handle"),
		Image:     dom.Attr(n, "data-product-image"),
		Price:     dom.Number(n, "data-product-price"),
		URL:       dom.Attr(n, "data-product-url"),
	}
}

// AddToCart adds one of the variant to the cart and announces the change.
func (v *View) AddToCart(ctx context.Context, btn *xhtml.Node) error {
	if v.backend == nil {
		return nil
	}
	var variant string
	v.doc.Update(func() {
		variant = dom.Attr(btn, "data-variant-id")
		if variant != "" {
			dom.SetDisabled(btn, true)
		}
	})
	if variant == "" {
		return nil
	}
	defer v.doc.Update(func() { dom.SetDisabled(btn, false) })
	_, err := v.backend.Add(ctx, url.Values{"id": {variant}, "quantity": {"1"}})
	if err != nil {
		v.log.Warn("wishlist add to cart failed", zap.String("variant", variant), zap.Error(err))
		return err
	}
	if v.bus != nil {
		if ev, err := events.NewEvent(events.CartUpdated, "wishlist", nil); err == nil {
			v.bus.Emit(ctx, ev)
		}
	}
	return nil
}

func (v *View) Bind(del *dom.Delegator) {
	del.On(dom.Click, "[data-wishlist-toggle]", func(ctx context.Context, ev dom.Event, match *xhtml.Node) {
		var e Entry
		v.doc.Update(func() { e = EntryFromNode(match) })
		v.store.Toggle(ctx, e)
	})
	del.On(dom.Click, "[data-wishlist-remove]", func(ctx context.Context, ev dom.Event, match *xhtml.Node) {
		var id string
		v.doc.Update(func() { id = dom.Attr(dom.Closest(match, "[data-wishlist-item]"), "data-product-id") })
		if id != "" {
			v.store.Remove(ctx, id)
		}
	})
	del.On(dom.Click, "[data-wishlist-add-to-cart]", func(ctx context.Context, ev dom.Event, match *xhtml.Node) {
		_ = v.AddToCart(ctx, match)
	})
	if v.modal == nil {
		return
	}
	del.On(dom.Click, "[data-wishlist-open]", func(ctx context.Context, ev dom.Event, match *xhtml.Node) {
		v.doc.Update(v.modal.Open)
		v.Refresh(ctx)
	})
	del.On(dom.Click, "[data-wishlist-close]", func(ctx context.Context, ev dom.Event, match *xhtml.Node) {
		v.doc.Update(v.modal.Close)
	})
}
