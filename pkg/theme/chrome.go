package theme

import (
	"context"
	"strconv"

	"golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/dom"
	"github.com/matst80/slask-theme/pkg/overlay"
)

// Chrome is the header behavior: search panel, mobile menu and the auth
// modal. Menus and modals register with the overlay manager so Escape and
// the scroll lock treat them like every other overlay.
type Chrome struct {
	doc      *dom.Document
	overlays *overlay.Manager
	menus    map[*html.Node]*overlay.Modal
	auth     map[*html.Node]*overlay.Modal
}

func NewChrome(doc *dom.Document, overlays *overlay.Manager) *Chrome {
	c := &Chrome{
		doc:      doc,
		overlays: overlays,
		menus:    make(map[*html.Node]*overlay.Modal),
		auth:     make(map[*html.Node]*overlay.Modal),
	}
	for i, n := range doc.QueryAll("[data-mobile-menu]") {
		m := overlay.NewModal("mobile-menu-"+strconv.Itoa(i), n, overlays, doc)
		m.CloseSelector = "[data-mobile-menu-close]"
		c.menus[n] = m
	}
	for i, n := range doc.QueryAll("[data-auth-modal]") {
		m := overlay.NewModal("auth-"+strconv.Itoa(i), n, overlays, doc)
		m.CloseSelector = "[data-auth-close]"
		c.auth[n] = m
	}
	return c
}

func header(n *html.Node) *html.Node {
	return dom.Closest(n, ".az-header")
}

// ToggleSearch shows or hides the search panel of the header holding btn
// and focuses its search input on open. Requires the document lock.
func (c *Chrome) ToggleSearch(btn *html.Node) {
	panel := dom.Query(header(btn), "[data-search-panel]")
	if panel == nil {
		return
	}
	if dom.IsHidden(panel) {
		dom.SetHidden(panel, false)
		if input := dom.Query(panel, `input[type="search"]`); input != nil {
			c.doc.Focus(input)
		}
		return
	}
	dom.SetHidden(panel, true)
}

// Escape closes every overlay and search panel. Requires the document
// lock.
func (c *Chrome) Escape() {
	for _, panel := range c.doc.QueryAll("[data-search-panel]") {
		dom.SetHidden(panel, true)
	}
	c.overlays.CloseAll()
}

func (c *Chrome) modalIn(btn *html.Node, selector string, modals map[*html.Node]*overlay.Modal) *overlay.Modal {
	return modals[dom.Query(header(btn), selector)]
}

func (c *Chrome) Bind(del *dom.Delegator) {
	locked := func(fn func(n *html.Node)) dom.Handler {
		return func(ctx context.Context, ev dom.Event, match *html.Node) {
			c.doc.Update(func() { fn(match) })
		}
	}
	del.On(dom.Click, "[data-search-toggle]", locked(c.ToggleSearch))
	del.On(dom.Click, "[data-mobile-menu-open]", locked(func(btn *html.Node) {
		c.modalIn(btn, "[data-mobile-menu]", c.menus).Open()
	}))
	del.On(dom.Click, "[data-mobile-menu-close]", locked(func(*html.Node) {
		for _, m := range c.menus {
			m.Close()
		}
	}))
	del.On(dom.Click, "[data-auth-open]", locked(func(btn *html.Node) {
		c.modalIn(btn, "[data-auth-modal]", c.auth).Open()
	}))
	del.On(dom.Click, "[data-auth-close]", locked(func(btn *html.Node) {
		c.auth[dom.Closest(btn, "[data-auth-modal]")].Close()
	}))
	del.On(dom.KeyDown, "", func(ctx context.Context, ev dom.Event, match *html.Node) {
		if ev.Key == "Escape" {
			c.doc.Update(c.Escape)
		}
	})
}
