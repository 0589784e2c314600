package facet

import (
	"golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/dom"
)

// AxisConfig declares one secondary filter axis of a page.
type AxisConfig struct {
	Name string
	// Attr is the product attribute holding the axis value.
	Attr string
	// Buttons selects the facet buttons inside the page; each carries its
	// value in ButtonAttr.
	Buttons    string
	ButtonAttr string
	// LabelSelector points at an element showing Label(active value).
	LabelSelector string
	Label         func(string) string
}

// PageConfig is the declarative description of one catalog page. All
// selectors derive from Name: [data-<name>-page], [data-<name>-grid],
// [data-<name>-product] and so on.
type PageConfig struct {
	Name string
	// NewestFlag is the boolean product attribute "newest" sorts on.
	NewestFlag string
	Axes       []AxisConfig
	SyncURL    bool
	Chips      bool
	// PriceScale converts the major units typed into inputs and written to
	// the URL into the minor units of data-price.
	PriceScale int
}

func (p PageConfig) sel(part string) string {
	return "[data-" + p.Name + "-" + part + "]"
}

func (p PageConfig) filterSel(axis string) string {
	return "[data-" + p.Name + `-filter="` + axis + `"]`
}

func (p PageConfig) scale() int {
	if p.PriceScale <= 0 {
		return 100
	}
	return p.PriceScale
}

// AxisNames lists category followed by the secondary axes.
func (p PageConfig) AxisNames() []string {
	names := []string{AxisCategory}
	for _, a := range p.Axes {
		names = append(names, a.Name)
	}
	return names
}

func (p PageConfig) axis(name string) (AxisConfig, bool) {
	if name == AxisCategory {
		return AxisConfig{Name: AxisCategory, Attr: "data-category"}, true
	}
	for _, a := range p.Axes {
		if a.Name == name {
			return a, true
		}
	}
	return AxisConfig{}, false
}

func attrReader(name string) AxisReader[*html.Node] {
	return func(n *html.Node) string {
		return dom.Attr(n, name)
	}
}

func productPrice(n *html.Node) int {
	return dom.Number(n, "data-price")
}

func productDiscount(n *html.Node) int {
	return dom.Number(n, "data-discount")
}

// Compute builds the node readers and comparators for the page.
func (p PageConfig) Compute() Config[*html.Node] {
	axes := map[string]AxisReader[*html.Node]{
		AxisCategory: attrReader("data-category"),
	}
	for _, a := range p.Axes {
		axes[a.Name] = attrReader(a.Attr)
	}
	sorts := map[SortKey]Comparator[*html.Node]{
		SortPriceAsc:     PriceAsc(productPrice),
		SortPriceDesc:    PriceDesc(productPrice),
		SortDiscountDesc: NumberDesc(productDiscount),
	}
	if p.NewestFlag != "" {
		flag := p.NewestFlag
		sorts[SortNewest] = FlagFirst(func(n *html.Node) bool {
			return dom.Bool(n, flag)
		})
	}
	return Config[*html.Node]{
		Axes:  axes,
		Price: productPrice,
		Sorts: sorts,
	}
}

var destinationLabels = map[string]string{
	"all":       "",
	"paris":     "Paris: ",
	"santorini": "Santorini: ",
	"tokyo":     "Tokyo: ",
	"bali":      "Bali: ",
	"maldives":  "Maldives: ",
}

var (
	Shop      = PageConfig{Name: "shop", NewestFlag: "data-on-sale"}
	Sale      = PageConfig{Name: "sale"}
	New       = PageConfig{Name: "new", NewestFlag: "data-is-new"}
	Oils      = PageConfig{Name: "oils", NewestFlag: "data-on-sale"}
	Diffusers = PageConfig{Name: "diffusers", NewestFlag: "data-on-sale"}
	Candles   = PageConfig{
		Name:       "candles",
		NewestFlag: "data-on-sale",
		Axes: []AxisConfig{{
			Name:          "family",
			Attr:          "data-scent-family",
			Buttons:       "[data-family]:not([data-candles-product])",
			ButtonAttr:    "data-family",
			LabelSelector: "[data-candles-family-label]",
			Label:         TitleLabel("All Candles", " Collection"),
		}},
	}
	Perfumes = PageConfig{
		Name:       "perfumes",
		NewestFlag: "data-on-sale",
		Axes: []AxisConfig{{
			Name:          "profile",
			Attr:          "data-scent-profile",
			Buttons:       "[data-profile]:not([data-perfumes-product])",
			ButtonAttr:    "data-profile",
			LabelSelector: "[data-perfumes-profile-label]",
			Label:         TitleLabel("All Fragrances", ""),
		}},
	}
	Voyage = PageConfig{
		Name:       "voyage",
		NewestFlag: "data-on-sale",
		Axes: []AxisConfig{{
			Name:          "destination",
			Attr:          "data-destination",
			Buttons:       "[data-destination]:not([data-voyage-product])",
			ButtonAttr:    "data-destination",
			LabelSelector: "[data-voyage-destination-label]",
			Label:         LookupLabel(destinationLabels),
		}},
	}
	Collection = PageConfig{
		Name:       "collection",
		NewestFlag: "data-is-new",
		Axes: []AxisConfig{
			{Name: "vendor", Attr: "data-vendor"},
			{Name: "type", Attr: "data-product-type"},
		},
		SyncURL: true,
		Chips:   true,
	}
)

// Pages returns every catalog page configuration the theme ships.
func Pages() []PageConfig {
	return []PageConfig{Shop, Sale, New, Oils, Diffusers, Candles, Perfumes, Voyage, Collection}
}
