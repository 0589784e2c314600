package cart

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
	xhtml "golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/dom"
	"github.com/matst80/slask-theme/pkg/events"
	"github.com/matst80/slask-theme/pkg/overlay"
)

const (
	DefaultAddedFeedback = 1800 * time.Millisecond
	addSource            = "add-to-cart"
)

// Adder submits the product form of a [data-product-page] to the cart.
type Adder struct {
	doc     *dom.Document
	page    *xhtml.Node
	backend Backend
	drawer  *Drawer
	bus     *events.Bus
	toast   *overlay.Toast
	log     *zap.Logger
	// Feedback is how long the button shows its added state.
	Feedback time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

type AdderOption func(*Adder)

func WithAdderLogger(l *zap.Logger) AdderOption {
	return func(a *Adder) { a.log = l }
}

func WithAdderBus(b *events.Bus) AdderOption {
	return func(a *Adder) { a.bus = b }
}

func WithDrawer(d *Drawer) AdderOption {
	return func(a *Adder) { a.drawer = d }
}

func WithToast(t *overlay.Toast) AdderOption {
	return func(a *Adder) { a.toast = t }
}

// NewAdder returns nil when the document has no product page.
func NewAdder(doc *dom.Document, backend Backend, opts ...AdderOption) *Adder {
	page := doc.Query("[data-product-page]")
	if page == nil {
		return nil
	}
	a := &Adder{
		doc:      doc,
		page:     page,
		backend:  backend,
		log:      zap.NewNop(),
		Feedback: DefaultAddedFeedback,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adder) button() *xhtml.Node {
	return dom.Query(a.page, "[data-add-to-cart]")
}

// showAdded flips the button into its added state and schedules the
// revert. Requires the document lock.
func (a *Adder) showAdded(btn *xhtml.Node) {
	addText := dom.Query(a.page, "[data-add-text]")
	addedText := dom.Query(a.page, "[data-added-text]")
	dom.AddClass(btn, "is-added")
	dom.SetHidden(addText, true)
	dom.SetHidden(addedText, false)

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.Feedback, func() {
		a.doc.Update(func() {
			dom.RemoveClass(btn, "is-added")
			dom.SetHidden(addText, false)
			dom.SetHidden(addedText, true)
		})
	})
}

// Submit posts the product form. On success the drawer opens with the
// fresh cart and cart:updated is emitted. A refusal carrying a message is
// shown in the toast; other failures are only logged.
func (a *Adder) Submit(ctx context.Context) (*LineItem, error) {
	var values url.Values
	btn := a.button()
	a.doc.Update(func() {
		form := dom.Query(a.page, "form")
		if form == nil {
			return
		}
		values = dom.FormValues(form)
		if btn != nil {
			a.showAdded(btn)
			dom.SetDisabled(btn, true)
		}
	})
	if values == nil {
		return nil, nil
	}
	item, err := a.backend.Add(ctx, values)
	a.doc.Update(func() {
		dom.SetDisabled(btn, false)
	})
	if err != nil {
		var refusal *AddError
		if errors.As(err, &refusal) && a.toast != nil {
			a.doc.Update(func() { a.toast.Show(refusal.Message) })
		}
		a.log.Warn("add to cart failed", zap.String("id", values.Get("id")), zap.Error(err))
		return nil, err
	}

	var detail *Cart
	if a.drawer != nil {
		if res := a.drawer.Open(ctx); res.OK() {
			detail = res.Cart
		}
	}
	if a.bus != nil {
		var payload any
		if detail != nil {
			payload = detail
		}
		ev, err := events.NewEvent(events.CartUpdated, addSource, payload)
		if err == nil {
			a.bus.Emit(ctx, ev)
		}
	}
	return item, nil
}

func (a *Adder) Bind(del *dom.Delegator) {
	submit := func(ctx context.Context, ev dom.Event, match *xhtml.Node) {
		if dom.Contains(a.page, match) {
			a.Submit(ctx)
		}
	}
	del.On(dom.Click, "[data-add-to-cart]", submit)
	del.On(dom.Click, "[data-mobile-add-to-cart]", submit)
}
