package facet

import (
	"maps"
	"math"
)

// All is the axis value that disables an axis.
const All = "all"

// NoMax is the open upper price bound.
const NoMax = math.MaxInt

const AxisCategory = "category"

type SortKey string

const (
	SortFeatured     SortKey = "featured"
	SortPriceAsc     SortKey = "price-asc"
	SortPriceDesc    SortKey = "price-desc"
	SortNewest       SortKey = "newest"
	SortDiscountDesc SortKey = "discount-desc"
)

// State is the canonical filter and sort selection of one page. Prices are
// minor currency units. An inverted price range is allowed and simply
// matches nothing.
type State struct {
	Axes     map[string]string `json:"axes"`
	Sort     SortKey           `json:"sort"`
	PriceMin int               `json:"priceMin"`
	PriceMax int               `json:"priceMax"`
}

func DefaultState() State {
	return State{
		Axes:     map[string]string{},
		Sort:     SortFeatured,
		PriceMin: 0,
		PriceMax: NoMax,
	}
}

// Axis returns the selected value for name, All when unset.
func (s State) Axis(name string) string {
	if v, ok := s.Axes[name]; ok && v != "" {
		return v
	}
	return All
}

// Clone returns a copy that shares nothing with s.
func (s State) Clone() State {
	c := s
	c.Axes = maps.Clone(s.Axes)
	if c.Axes == nil {
		c.Axes = map[string]string{}
	}
	return c
}

// WithAxis returns a copy of s with one axis changed.
func (s State) WithAxis(name, value string) State {
	c := s.Clone()
	if value == "" || value == All {
		delete(c.Axes, name)
	} else {
		c.Axes[name] = value
	}
	return c
}

func (s State) HasPriceFilter() bool {
	return s.PriceMin > 0 || s.PriceMax != NoMax
}

// IsDefault reports whether s selects everything in featured order.
func (s State) IsDefault() bool {
	for _, v := range s.Axes {
		if v != "" && v != All {
			return false
		}
	}
	return (s.Sort == SortFeatured || s.Sort == "") && !s.HasPriceFilter()
}
