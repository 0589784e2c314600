package facet

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/dom"
	"github.com/matst80/slask-theme/pkg/money"
)

var (
	ErrNoPage      = errors.New("facet: page not found")
	ErrNoProducts  = errors.New("facet: page has no grid or products")
	ErrUnknownAxis = errors.New("facet: unknown axis")
)

var renders = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "slask_theme_facet_renders_total",
	Help: "The total number of facet renders",
}, []string{"page"})

// Result is what one render produced.
type Result struct {
	Visible []*html.Node
	Count   int
}

// Engine owns the product nodes of one page and keeps them in sync with
// its filter state. All methods expect the caller to hold the document
// lock; Bind registers handlers that take it themselves.
type Engine struct {
	cfg      PageConfig
	compute  Config[*html.Node]
	page     *html.Node
	grid     *html.Node
	products []*html.Node
	state    State
	// source is the control that started the current change; render does
	// not write back into it while the user is typing.
	source   *html.Node
	location Location
	money    money.Formatter
	log      *zap.Logger
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithLocation enables query string sync for pages configured with SyncURL.
func WithLocation(loc Location) Option {
	return func(e *Engine) { e.location = loc }
}

func WithMoney(f money.Formatter) Option {
	return func(e *Engine) { e.money = f }
}

// Configure finds the page below root and snapshots its product nodes.
func Configure(root *html.Node, cfg PageConfig, opts ...Option) (*Engine, error) {
	page := root
	if !dom.Matches(root, cfg.sel("page")) {
		page = dom.Query(root, cfg.sel("page"))
	}
	if page == nil {
		return nil, ErrNoPage
	}
	grid := dom.Query(page, cfg.sel("grid"))
	products := dom.QueryAll(page, cfg.sel("product"))
	if grid == nil || len(products) == 0 {
		return nil, ErrNoProducts
	}
	e := &Engine{
		cfg:      cfg,
		compute:  cfg.Compute(),
		page:     page,
		grid:     grid,
		products: products,
		state:    DefaultState(),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if cfg.SyncURL && e.location != nil {
		e.state = StateFromQuery(e.location.Query(), cfg.AxisNames(), cfg.scale())
	}
	return e, nil
}

func (e *Engine) Name() string {
	return e.cfg.Name
}

func (e *Engine) Page() *html.Node {
	return e.page
}

// State returns a copy of the current selection.
func (e *Engine) State() State {
	return e.state.Clone()
}

// Products returns the product nodes in their original order.
func (e *Engine) Products() []*html.Node {
	return append([]*html.Node(nil), e.products...)
}

func (e *Engine) SetAxis(name, value string) error {
	if _, ok := e.cfg.axis(name); !ok {
		return ErrUnknownAxis
	}
	e.state = e.state.WithAxis(name, value)
	return nil
}

func (e *Engine) SetSort(key SortKey) {
	if key == "" {
		key = SortFeatured
	}
	e.state.Sort = key
}

// SetPrice sets the price range in minor units. No validation: an
// inverted range renders an empty grid.
func (e *Engine) SetPrice(min, max int) {
	e.state.PriceMin = min
	e.state.PriceMax = max
}

// SetState replaces the whole selection.
func (e *Engine) SetState(s State) {
	e.state = s.Clone()
}

// Reset restores every axis to its default and renders once.
func (e *Engine) Reset() Result {
	e.state = DefaultState()
	e.source = nil
	return e.Render()
}

// Render recomputes the visible products and patches the page.
func (e *Engine) Render() Result {
	visible := ComputeVisibleOrder(e.compute, e.state, e.products)

	for _, p := range e.products {
		dom.SetHidden(p, true)
	}
	e.reorder(visible)
	for _, p := range visible {
		dom.SetHidden(p, false)
	}

	e.renderAux(len(visible))
	e.renderControls()
	if e.cfg.Chips {
		e.renderChips()
	}
	if e.cfg.SyncURL && e.location != nil {
		e.location.Replace(ApplyState(e.location.Query(), e.state, e.cfg.AxisNames(), e.cfg.scale()))
	}
	renders.WithLabelValues(e.cfg.Name).Inc()
	e.log.Debug("facet render",
		zap.String("page", e.cfg.Name),
		zap.Int("visible", len(visible)),
		zap.Int("total", len(e.products)))
	return Result{Visible: visible, Count: len(visible)}
}

// reorder moves the product nodes so document order follows display
// order: visible products first, hidden ones after in original order.
// Other children of the containers keep their place in front.
func (e *Engine) reorder(visible []*html.Node) {
	shown := make(map[*html.Node]struct{}, len(visible))
	order := make([]*html.Node, 0, len(e.products))
	for _, p := range visible {
		shown[p] = struct{}{}
		order = append(order, p)
	}
	for _, p := range e.products {
		if _, ok := shown[p]; !ok {
			order = append(order, p)
		}
	}
	for _, p := range order {
		if parent := p.Parent; parent != nil {
			parent.RemoveChild(p)
			parent.AppendChild(p)
		}
	}
}

func (e *Engine) renderAux(count int) {
	if countEl := dom.Query(e.page, e.cfg.sel("count")); countEl != nil {
		dom.SetText(countEl, strconv.Itoa(count))
	}
	if emptyEl := dom.Query(e.page, e.cfg.sel("empty")); emptyEl != nil {
		dom.SetHidden(emptyEl, count != 0)
	}
	for _, a := range e.cfg.Axes {
		if a.LabelSelector == "" || a.Label == nil {
			continue
		}
		if label := dom.Query(e.page, a.LabelSelector); label != nil {
			dom.SetText(label, a.Label(e.state.Axis(a.Name)))
		}
	}
}

// renderControls writes the state back into the filter inputs so they
// stay a view of it.
func (e *Engine) renderControls() {
	for _, name := range e.cfg.AxisNames() {
		active := e.state.Axis(name)
		for _, ctl := range dom.QueryAll(e.page, e.cfg.filterSel(name)) {
			if ctl == e.source {
				continue
			}
			if ctl.Data == "input" && isChoice(ctl) {
				dom.SetChecked(ctl, dom.Attr(ctl, "value") == active)
			} else {
				dom.SetValue(ctl, active)
			}
		}
	}
	for _, a := range e.cfg.Axes {
		if a.Buttons == "" {
			continue
		}
		active := e.state.Axis(a.Name)
		for _, btn := range dom.QueryAll(e.page, a.Buttons) {
			value := dom.Attr(btn, a.ButtonAttr)
			if value == "" {
				value = All
			}
			on := value == active
			dom.ToggleClass(btn, "is-active", on)
			dom.SetAttr(btn, "aria-pressed", strconv.FormatBool(on))
		}
	}
	if sortEl := dom.Query(e.page, e.cfg.sel("sort")); sortEl != nil && sortEl != e.source {
		dom.SetValue(sortEl, string(e.state.Sort))
	}

	minText, maxText := "", ""
	if e.state.PriceMin > 0 {
		minText = formatMajor(e.state.PriceMin, e.cfg.scale())
	}
	if e.state.PriceMax != NoMax {
		maxText = formatMajor(e.state.PriceMax, e.cfg.scale())
	}
	e.writeInput(dom.Query(e.page, e.cfg.sel("price-min")), minText)
	e.writeInput(dom.Query(e.page, e.cfg.sel("price-max")), maxText)
	if rangeMin := dom.Query(e.page, e.cfg.sel("range-min")); rangeMin != nil {
		e.writeInput(rangeMin, orDefault(minText, dom.Attr(rangeMin, "min")))
	}
	if rangeMax := dom.Query(e.page, e.cfg.sel("range-max")); rangeMax != nil {
		e.writeInput(rangeMax, orDefault(maxText, dom.Attr(rangeMax, "max")))
	}
}

func (e *Engine) writeInput(n *html.Node, value string) {
	if n == nil || n == e.source {
		return
	}
	dom.SetValue(n, value)
}

func isChoice(n *html.Node) bool {
	t := strings.ToLower(dom.Attr(n, "type"))
	return t == "radio" || t == "checkbox"
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// parsePrice reads a typed major unit price. Empty or invalid input means
// no bound.
func (e *Engine) parsePrice(v string, fallback int) int {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fallback
	}
	return int(math.Round(f * float64(e.cfg.scale())))
}

// Bind wires the page controls. Handlers read the initiating control only
// and render under the document lock.
func (e *Engine) Bind(doc *dom.Document, d *dom.Delegator) {
	on := func(typ, selector string, fn func(ev dom.Event, match *html.Node) bool) {
		d.On(typ, selector, func(ctx context.Context, ev dom.Event, match *html.Node) {
			if !dom.Contains(e.page, match) {
				return
			}
			doc.Update(func() {
				e.source = match
				if fn(ev, match) {
					e.Render()
				}
				e.source = nil
			})
		})
	}

	for _, name := range e.cfg.AxisNames() {
		axis := name
		on(dom.Change, e.cfg.filterSel(axis), func(ev dom.Event, match *html.Node) bool {
			if match.Data == "input" && isChoice(match) {
				if !ev.Checked {
					return false
				}
				e.source = nil
				return e.SetAxis(axis, dom.Attr(match, "value")) == nil
			}
			return e.SetAxis(axis, ev.Value) == nil
		})
	}
	for _, a := range e.cfg.Axes {
		if a.Buttons == "" {
			continue
		}
		axis := a
		on(dom.Click, axis.Buttons, func(ev dom.Event, match *html.Node) bool {
			value := dom.Attr(match, axis.ButtonAttr)
			if value == "" {
				value = All
			}
			e.source = nil
			return e.SetAxis(axis.Name, value) == nil
		})
	}
	on(dom.Change, e.cfg.sel("sort"), func(ev dom.Event, match *html.Node) bool {
		e.SetSort(SortKey(ev.Value))
		return true
	})
	on(dom.Input, e.cfg.sel("price-min"), func(ev dom.Event, match *html.Node) bool {
		e.state.PriceMin = e.parsePrice(ev.Value, 0)
		return true
	})
	on(dom.Input, e.cfg.sel("price-max"), func(ev dom.Event, match *html.Node) bool {
		e.state.PriceMax = e.parsePrice(ev.Value, NoMax)
		return true
	})
	on(dom.Input, e.cfg.sel("range-min"), func(ev dom.Event, match *html.Node) bool {
		dom.SetValue(dom.Query(e.page, e.cfg.sel("price-min")), ev.Value)
		e.state.PriceMin = e.parsePrice(ev.Value, 0)
		return true
	})
	on(dom.Input, e.cfg.sel("range-max"), func(ev dom.Event, match *html.Node) bool {
		dom.SetValue(dom.Query(e.page, e.cfg.sel("price-max")), ev.Value)
		e.state.PriceMax = e.parsePrice(ev.Value, NoMax)
		return true
	})
	on(dom.Click, e.cfg.sel("reset"), func(ev dom.Event, match *html.Node) bool {
		e.state = DefaultState()
		e.source = nil
		return true
	})
	on(dom.Click, "[data-chip-remove]", func(ev dom.Event, match *html.Node) bool {
		e.source = nil
		return e.clearChip(dom.Attr(dom.Closest(match, "[data-chip]"), "data-chip-axis"))
	})

	sidebar := dom.Query(e.page, e.cfg.sel("sidebar"))
	on(dom.Click, e.cfg.sel("sidebar-toggle"), func(ev dom.Event, match *html.Node) bool {
		dom.SetHidden(sidebar, false)
		return false
	})
	on(dom.Click, e.cfg.sel("sidebar-close"), func(ev dom.Event, match *html.Node) bool {
		dom.SetHidden(sidebar, true)
		return false
	})
	if sidebar != nil {
		// a click on the backdrop itself, not on its content, closes it
		on(dom.Click, e.cfg.sel("sidebar"), func(ev dom.Event, match *html.Node) bool {
			if ev.Target == sidebar {
				dom.SetHidden(sidebar, true)
			}
			return false
		})
	}
}
