package theme

import (
	"context"

	"golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/dom"
	"github.com/matst80/slask-theme/pkg/overlay"
	"github.com/matst80/slask-theme/pkg/prefs"
)

// NewsletterPopup shows [data-newsletter-popup] until the shopper closes
// or submits it.
type NewsletterPopup struct {
	doc   *dom.Document
	modal *overlay.Modal
	seen  *prefs.Newsletter
}

func NewNewsletterPopup(doc *dom.Document, overlays *overlay.Manager, seen *prefs.Newsletter) *NewsletterPopup {
	node := doc.Query("[data-newsletter-popup]")
	if node == nil {
		return nil
	}
	m := overlay.NewModal("newsletter", node, overlays, doc)
	m.CloseSelector = "[data-newsletter-close]"
	return &NewsletterPopup{doc: doc, modal: m, seen: seen}
}

// Show opens the popup unless it was dismissed recently.
func (p *NewsletterPopup) Show(ctx context.Context) bool {
	if !p.seen.ShouldShow(ctx) {
		return false
	}
	p.doc.Update(p.modal.Open)
	return true
}

func (p *NewsletterPopup) dismiss(ctx context.Context) {
	p.doc.Update(p.modal.Close)
	p.seen.MarkSeen(ctx)
}

func (p *NewsletterPopup) Bind(del *dom.Delegator) {
	dismiss := func(ctx context.Context, ev dom.Event, match *html.Node) {
		p.dismiss(ctx)
	}
	del.On(dom.Click, "[data-newsletter-close]", dismiss)
	del.On(dom.Submit, "[data-newsletter-form]", dismiss)
}

// ConsentBanner asks for the cookie decision once.
type ConsentBanner struct {
	doc     *dom.Document
	node    *html.Node
	consent *prefs.Consent
}

func NewConsentBanner(doc *dom.Document, consent *prefs.Consent) *ConsentBanner {
	node := doc.Query("[data-cookie-banner]")
	if node == nil {
		return nil
	}
	return &ConsentBanner{doc: doc, node: node, consent: consent}
}

// Show reveals the banner when no decision is stored and reports whether
// it did.
func (b *ConsentBanner) Show(ctx context.Context) bool {
	_, decided := b.consent.Load(ctx)
	b.doc.Update(func() { dom.SetHidden(b.node, decided) })
	return !decided
}

func (b *ConsentBanner) decide(ctx context.Context, d prefs.Decision) {
	b.doc.Update(func() { dom.SetHidden(b.node, true) })
	b.consent.Save(ctx, d)
}

func (b *ConsentBanner) Bind(del *dom.Delegator) {
	del.On(dom.Click, "[data-cookie-accept]", func(ctx context.Context, ev dom.Event, match *html.Node) {
		b.decide(ctx, prefs.Decision{Analytics: true, Marketing: true})
	})
	del.On(dom.Click, "[data-cookie-decline]", func(ctx context.Context, ev dom.Event, match *html.Node) {
		b.decide(ctx, prefs.Decision{})
	})
	del.On(dom.Click, "[data-cookie-save]", func(ctx context.Context, ev dom.Event, match *html.Node) {
		var d prefs.Decision
		b.doc.Update(func() {
			d.Analytics = dom.IsChecked(dom.Query(b.node, `[data-consent="analytics"]`))
			d.Marketing = dom.IsChecked(dom.Query(b.node, `[data-consent="marketing"]`))
		})
		b.decide(ctx, d)
	})
}
