package facet

import (
	"cmp"
	"slices"
)

// AxisReader extracts the value a node carries for one filter axis.
// Missing data must read as "".
type AxisReader[N any] func(N) string

// Comparator orders two nodes; 0 keeps their current relative order.
type Comparator[N any] func(a, b N) int

// Config describes how to read and order the nodes of one page.
type Config[N any] struct {
	Axes  map[string]AxisReader[N]
	Price func(N) int
	Sorts map[SortKey]Comparator[N]
}

// Match reports whether n satisfies every active axis of state. Axes that
// have no reader are ignored.
func (c Config[N]) Match(state State, n N) bool {
	for name, read := range c.Axes {
		want := state.Axis(name)
		if want != All && read(n) != want {
			return false
		}
	}
	if c.Price != nil {
		p := c.Price(n)
		if p < state.PriceMin || p > state.PriceMax {
			return false
		}
	}
	return true
}

// ComputeVisibleOrder returns the nodes matching state in display order.
// The input slice is never modified and the result only depends on its
// arguments. Sorting is stable, so featured (or any unknown key) returns
// the matching nodes in input order.
func ComputeVisibleOrder[N any](cfg Config[N], state State, nodes []N) []N {
	visible := make([]N, 0, len(nodes))
	for _, n := range nodes {
		if cfg.Match(state, n) {
			visible = append(visible, n)
		}
	}
	if cmpFn, ok := cfg.Sorts[state.Sort]; ok && cmpFn != nil {
		slices.SortStableFunc(visible, cmpFn)
	}
	return visible
}

func PriceAsc[N any](price func(N) int) Comparator[N] {
	return func(a, b N) int {
		return cmp.Compare(price(a), price(b))
	}
}

func PriceDesc[N any](price func(N) int) Comparator[N] {
	return func(a, b N) int {
		return cmp.Compare(price(b), price(a))
	}
}

// FlagFirst puts flagged nodes before unflagged ones.
func FlagFirst[N any](flag func(N) bool) Comparator[N] {
	return func(a, b N) int {
		fa, fb := flag(a), flag(b)
		switch {
		case fa && !fb:
			return -1
		case !fa && fb:
			return 1
		}
		return 0
	}
}

// NumberDesc puts higher values first.
func NumberDesc[N any](value func(N) int) Comparator[N] {
	return func(a, b N) int {
		return cmp.Compare(value(b), value(a))
	}
}
