package theme

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/common/jsoncompat"
	"github.com/matst80/slask-theme/pkg/dom"
	"github.com/matst80/slask-theme/pkg/money"
)

const (
	MinQuantity = 1
	MaxQuantity = 99
)

// ProductData is the JSON embedded in [data-product-json].
type ProductData struct {
	Options  []ProductOption  `json:"options"`
	Variants []ProductVariant `json:"variants"`
}

type ProductOption struct {
	Name string `json:"name"`
}

type ProductVariant struct {
	ID        int64    `json:"id"`
	Options   []string `json:"options"`
	Price     int      `json:"price"`
	Available bool     `json:"available"`
}

// Match finds the variant whose options equal the selection by option
// name.
func (p ProductData) Match(selected map[string]string) (ProductVariant, bool) {
	for _, v := range p.Variants {
		ok := true
		for i, opt := range v.Options {
			name := ""
			if i < len(p.Options) {
				name = p.Options[i].Name
			}
			if selected[name] != opt {
				ok = false
				break
			}
		}
		if ok {
			return v, true
		}
	}
	return ProductVariant{}, false
}

// StepQuantity applies a stepper click to the typed value and keeps the
// result within [MinQuantity, MaxQuantity].
func StepQuantity(value string, delta int) int {
	current, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || current == 0 {
		current = 1
	}
	return max(MinQuantity, min(MaxQuantity, current+delta))
}

// optionName turns a select id like "Option-1-Scent" into the
// option name it controls: everything after the last dash.
func optionName(id string) string {
	if !strings.HasPrefix(id, "Option-") {
		return strings.ReplaceAll(id, "-", " ")
	}
	return id[strings.LastIndex(id, "-")+1:]
}

// ProductPage wires the gallery, variant pickers, quantity stepper and
// accordions of a [data-product-page].
type ProductPage struct {
	doc   *dom.Document
	page  *html.Node
	data  ProductData
	money money.Formatter
	log   *zap.Logger
}

func NewProductPage(doc *dom.Document, f money.Formatter, log *zap.Logger) *ProductPage {
	page := doc.Query("[data-product-page]")
	if page == nil {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	p := &ProductPage{doc: doc, page: page, money: f, log: log}
	if script := dom.Query(page, "[data-product-json]"); script != nil {
		if err := jsoncompat.Unmarshal([]byte(dom.Text(script)), &p.data); err != nil {
			log.Debug("product json unreadable", zap.Error(err))
		}
	}
	return p
}

func (p *ProductPage) showSlide(thumb *html.Node) {
	index := dom.Attr(thumb, "data-gallery-thumb")
	for _, item := range dom.QueryAll(p.page, "[data-gallery-index]") {
		dom.ToggleClass(item, "is-active", dom.Attr(item, "data-gallery-index") == index)
	}
	for _, t := range dom.QueryAll(p.page, "[data-gallery-thumb]") {
		dom.ToggleClass(t, "is-active", t == thumb)
	}
}

// updateVariant writes the variant matching the selects into the form.
func (p *ProductPage) updateVariant() {
	selected := make(map[string]string)
	for _, sel := range dom.QueryAll(p.page, "[data-variant-select]") {
		selected[optionName(dom.Attr(sel, "id"))] = dom.Value(sel)
	}
	v, ok := p.data.Match(selected)
	if !ok {
		return
	}
	dom.SetValue(dom.Query(p.page, "input[data-variant-id]"), strconv.FormatInt(v.ID, 10))
	if v.Price > 0 {
		dom.SetText(dom.Query(p.page, "[data-product-price]"), p.money.Format(v.Price))
	}
	dom.SetDisabled(dom.Query(p.page, "[data-add-to-cart]"), !v.Available)
}

func (p *ProductPage) pickOption(option *html.Node) {
	name := dom.Attr(option, "data-option")
	for _, o := range dom.QueryAll(p.page, "[data-option]") {
		if dom.Attr(o, "data-option") == name {
			dom.RemoveClass(o, "is-selected")
		}
	}
	dom.AddClass(option, "is-selected")
	index := dom.Attr(option, "data-option-index")
	sel := dom.Query(p.page, `[data-variant-select][id*="Option-`+index+`"]`)
	if sel != nil {
		dom.SetValue(sel, dom.Attr(option, "data-value"))
		p.updateVariant()
	}
}

func (p *ProductPage) step(delta int) {
	input := dom.Query(p.page, "[data-qty-input]")
	if input == nil {
		return
	}
	dom.SetValue(input, strconv.Itoa(StepQuantity(dom.Value(input), delta)))
}

// toggleAccordion keeps at most one accordion open.
func (p *ProductPage) toggleAccordion(header *html.Node) {
	accordion := dom.Closest(header, ".az-product__accordion")
	if accordion == nil {
		return
	}
	open := dom.HasClass(accordion, "is-open")
	for _, acc := range dom.QueryAll(p.page, ".az-product__accordion") {
		dom.RemoveClass(acc, "is-open")
	}
	if !open {
		dom.AddClass(accordion, "is-open")
	}
}

func (p *ProductPage) Bind(del *dom.Delegator) {
	inPage := func(fn func(n *html.Node)) dom.Handler {
		return func(ctx context.Context, ev dom.Event, match *html.Node) {
			if dom.Contains(p.page, match) {
				p.doc.Update(func() { fn(match) })
			}
		}
	}
	del.On(dom.Click, "[data-gallery-thumb]", inPage(p.showSlide))
	del.On(dom.Click, "[data-variant-option]", inPage(p.pickOption))
	del.On(dom.Change, "[data-variant-select]", inPage(func(*html.Node) { p.updateVariant() }))
	del.On(dom.Click, "[data-qty-decrease]", inPage(func(*html.Node) { p.step(-1) }))
	del.On(dom.Click, "[data-qty-increase]", inPage(func(*html.Node) { p.step(1) }))
	del.On(dom.Click, "[data-accordion-toggle]", inPage(p.toggleAccordion))
}
