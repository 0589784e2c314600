package facet

import (
	"fmt"
	"html"

	xhtml "golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/dom"
	"github.com/matst80/slask-theme/pkg/reconcile"
)

const (
	chipPriceMin = "price-min"
	chipPriceMax = "price-max"
)

// Chip is one active filter shown above the grid.
type Chip struct {
	Key   string
	Axis  string
	Label string
}

// Chips lists the active filters of state in axis order, price last.
func (e *Engine) Chips() []Chip {
	chips := make([]Chip, 0)
	for _, name := range e.cfg.AxisNames() {
		v := e.state.Axis(name)
		if v == All {
			continue
		}
		chips = append(chips, Chip{Key: name + ":" + v, Axis: name, Label: titleWords(v)})
	}
	if e.state.PriceMin > 0 {
		chips = append(chips, Chip{Key: chipPriceMin, Axis: chipPriceMin, Label: "From " + e.money.Format(e.state.PriceMin)})
	}
	if e.state.PriceMax != NoMax {
		chips = append(chips, Chip{Key: chipPriceMax, Axis: chipPriceMax, Label: "Up to " + e.money.Format(e.state.PriceMax)})
	}
	return chips
}

func (e *Engine) chipSpec() reconcile.Spec[Chip] {
	return reconcile.Spec[Chip]{
		ItemSelector: "[data-chip]",
		KeyAttr:      "data-chip-key",
		Key:          func(c Chip) string { return c.Key },
		Update: func(n *xhtml.Node, c Chip) {
			dom.SetText(dom.Query(n, "[data-chip-label]"), c.Label)
		},
		Create: func(c Chip) (*xhtml.Node, error) {
			return dom.Element(fmt.Sprintf(
				`<span class="filter-chip" data-chip data-chip-axis="%s"><span data-chip-label>%s</span>`+
					`<button type="button" class="filter-chip__remove" data-chip-remove aria-label="Remove filter">&times;</button></span>`,
				html.EscapeString(c.Axis), html.EscapeString(c.Label)))
		},
	}
}

func (e *Engine) renderChips() {
	container := dom.Query(e.page, e.cfg.sel("chips"))
	if container == nil {
		return
	}
	chips := e.Chips()
	if _, err := reconcile.Patch(container, e.chipSpec(), chips); err != nil {
		e.log.Sugar().Warnf("render chips: %v", err)
		return
	}
	dom.SetHidden(container, len(chips) == 0)
}

// clearChip removes the filter behind a chip and reports whether the
// state changed.
func (e *Engine) clearChip(axis string) bool {
	switch axis {
	case "":
		return false
	case chipPriceMin:
		e.state.PriceMin = 0
	case chipPriceMax:
		e.state.PriceMax = NoMax
	default:
		if _, ok := e.cfg.axis(axis); !ok {
			return false
		}
		e.state = e.state.WithAxis(axis, All)
	}
	return true
}
