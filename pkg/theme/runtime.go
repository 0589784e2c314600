// Package theme boots the storefront behavior for one parsed page and
// routes the events of the host shell to it.
package theme

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/matst80/slask-theme/pkg/cart"
	"github.com/matst80/slask-theme/pkg/contact"
	"github.com/matst80/slask-theme/pkg/dom"
	"github.com/matst80/slask-theme/pkg/events"
	"github.com/matst80/slask-theme/pkg/facet"
	"github.com/matst80/slask-theme/pkg/money"
	"github.com/matst80/slask-theme/pkg/overlay"
	"github.com/matst80/slask-theme/pkg/prefs"
	"github.com/matst80/slask-theme/pkg/quiz"
	"github.com/matst80/slask-theme/pkg/storage"
	"github.com/matst80/slask-theme/pkg/wishlist"
)

var dispatched = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "slask_theme_events_total",
	Help: "The total number of dispatched page events by type and whether a handler ran",
}, []string{"type", "handled"})

// Deps are the services a page talks to. Everything is optional: a nil
// Cart disables cart features, a nil Store keeps nothing between pages.
type Deps struct {
	Cart      cart.Backend
	Store     storage.Store
	Bus       *events.Bus
	Transport events.Transport
	Location  facet.Location
	Money     money.Formatter
	Threshold cart.Threshold
	Quiz      *quiz.Scorer
	Log       *zap.Logger
}

// Runtime holds the components found in a document.
type Runtime struct {
	Doc        *dom.Document
	Delegator  *dom.Delegator
	Bus        *events.Bus
	Overlays   *overlay.Manager
	Facets     []*facet.Engine
	Drawer     *cart.Drawer
	Adder      *cart.Adder
	Wishlist   *wishlist.View
	Saved      *wishlist.Store
	Quiz       *quiz.Controller
	Contact    *contact.Form
	Product    *ProductPage
	Chrome     *Chrome
	Newsletter *NewsletterPopup
	Consent    *ConsentBanner

	cart   cart.Backend
	bridge *events.Bridge
	log    *zap.Logger
}

// Boot finds every component in doc, binds it and renders its initial
// state. Missing parts of the page are skipped.
func Boot(ctx context.Context, doc *dom.Document, deps Deps) (*Runtime, error) {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	bus := deps.Bus
	if bus == nil {
		bus = events.NewBus()
	}
	store := deps.Store
	if store == nil {
		store = storage.NewMemoryStore()
	}
	safe := storage.NewSafe(store, log.Named("storage"))
	rt := &Runtime{
		Doc:       doc,
		Delegator: dom.NewDelegator(doc),
		Bus:       bus,
		Overlays:  overlay.NewManager(doc.Root()),
		cart:      deps.Cart,
		log:       log,
	}

	rt.Chrome = NewChrome(doc, rt.Overlays)
	rt.Chrome.Bind(rt.Delegator)

	for _, cfg := range facet.Pages() {
		engine, err := facet.Configure(doc.Node(), cfg,
			facet.WithLogger(log.Named("facet")),
			facet.WithLocation(deps.Location),
			facet.WithMoney(deps.Money))
		if err != nil {
			if !errors.Is(err, facet.ErrNoPage) {
				log.Debug("facet page skipped", zap.String("page", cfg.Name), zap.Error(err))
			}
			continue
		}
		doc.Update(func() { engine.Render() })
		engine.Bind(doc, rt.Delegator)
		rt.Facets = append(rt.Facets, engine)
	}

	var toast *overlay.Toast
	if node := doc.Query("[data-toast]"); node != nil {
		toast = overlay.NewToast(doc, node)
	}
	if deps.Cart != nil {
		rt.Drawer = cart.NewDrawer(doc, deps.Cart, rt.Overlays,
			cart.WithDrawerLogger(log.Named("cart")),
			cart.WithMoney(deps.Money),
			cart.WithThreshold(deps.Threshold),
			cart.WithBus(bus))
		if rt.Drawer != nil {
			rt.Drawer.Bind(rt.Delegator)
		} else {
			bus.On(events.CartUpdated, rt.refreshCount)
		}
		rt.Adder = cart.NewAdder(doc, deps.Cart,
			cart.WithAdderLogger(log.Named("cart")),
			cart.WithAdderBus(bus),
			cart.WithDrawer(rt.Drawer),
			cart.WithToast(toast))
		if rt.Adder != nil {
			rt.Adder.Bind(rt.Delegator)
		}
	}

	rt.Saved = wishlist.NewStore(safe, bus, log.Named("wishlist"))
	opts := []wishlist.Option{
		wishlist.WithLogger(log.Named("wishlist")),
		wishlist.WithMoney(deps.Money),
		wishlist.WithOverlays(rt.Overlays),
	}
	if deps.Cart != nil {
		opts = append(opts, wishlist.WithCart(deps.Cart))
	}
	rt.Wishlist = wishlist.NewView(doc, rt.Saved, bus, opts...)
	rt.Wishlist.Bind(rt.Delegator)
	rt.Wishlist.Refresh(ctx)

	scorer := deps.Quiz
	if scorer == nil {
		scorer = quiz.DefaultScorer()
	}
	if rt.Quiz = quiz.NewController(doc, scorer, deps.Money, log.Named("quiz")); rt.Quiz != nil {
		rt.Quiz.Bind(rt.Delegator)
		doc.Update(rt.Quiz.Render)
	}
	if rt.Contact = contact.NewForm(doc, log.Named("contact")); rt.Contact != nil {
		rt.Contact.Bind(rt.Delegator)
	}
	if rt.Product = NewProductPage(doc, deps.Money, log.Named("product")); rt.Product != nil {
		rt.Product.Bind(rt.Delegator)
	}

	if rt.Newsletter = NewNewsletterPopup(doc, rt.Overlays, prefs.NewNewsletter(safe)); rt.Newsletter != nil {
		rt.Newsletter.Bind(rt.Delegator)
		rt.Newsletter.Show(ctx)
	}
	if rt.Consent = NewConsentBanner(doc, prefs.NewConsent(safe, bus)); rt.Consent != nil {
		rt.Consent.Bind(rt.Delegator)
		rt.Consent.Show(ctx)
	}

	if deps.Transport != nil {
		rt.bridge = events.NewBridge(bus, deps.Transport, log.Named("bridge"),
			events.CartUpdated, events.WishlistUpdated)
		if err := rt.bridge.Start(ctx); err != nil {
			return rt, fmt.Errorf("start event bridge: %w", err)
		}
	}

	log.Debug("theme booted",
		zap.Int("facet_pages", len(rt.Facets)),
		zap.Bool("drawer", rt.Drawer != nil),
		zap.Bool("product", rt.Product != nil))
	return rt, nil
}

// refreshCount keeps the header badges current on pages without a
// drawer.
func (rt *Runtime) refreshCount(ctx context.Context, ev events.Event) {
	var c cart.Cart
	if err := ev.Decode(&c); err == nil && c.Items != nil {
		rt.Doc.Update(func() { cart.RenderCount(rt.Doc, &c) })
		return
	}
	res := rt.cart.Fetch(ctx)
	if res.OK() {
		rt.Doc.Update(func() { cart.RenderCount(rt.Doc, res.Cart) })
	}
}

// Dispatch delivers one event from the host shell and returns how many
// handlers ran.
func (rt *Runtime) Dispatch(ctx context.Context, ev dom.Event) int {
	n := rt.Delegator.Dispatch(ctx, ev)
	dispatched.WithLabelValues(ev.Type, fmt.Sprint(n > 0)).Inc()
	return n
}

// Facet returns the engine of the named page, nil when the page is not
// in the document.
func (rt *Runtime) Facet(name string) *facet.Engine {
	for _, e := range rt.Facets {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

func (rt *Runtime) Close() error {
	if rt.bridge != nil {
		return rt.bridge.Close()
	}
	return nil
}
