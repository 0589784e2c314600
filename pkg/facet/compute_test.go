package facet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct {
	id       string
	category string
	price    int
	isNew    bool
	discount int
}

var catalog = []item{
	{"p1", "a", 1000, false, 10},
	{"p2", "b", 1500, true, 0},
	{"p3", "a", 2000, false, 30},
	{"p4", "b", 2500, true, 5},
	{"p5", "a", 3000, false, 0},
}

func itemConfig() Config[item] {
	price := func(i item) int { return i.price }
	return Config[item]{
		Axes: map[string]AxisReader[item]{
			AxisCategory: func(i item) string { return i.category },
		},
		Price: price,
		Sorts: map[SortKey]Comparator[item]{
			SortPriceAsc:     PriceAsc(price),
			SortPriceDesc:    PriceDesc(price),
			SortNewest:       FlagFirst(func(i item) bool { return i.isNew }),
			SortDiscountDesc: NumberDesc(func(i item) int { return i.discount }),
		},
	}
}

func ids(items []item) []string {
	out := make([]string, 0, len(items))
	for _, i := range items {
		out = append(out, i.id)
	}
	return out
}

func TestCategoryAndPriceDesc(t *testing.T) {
	state := DefaultState().WithAxis(AxisCategory, "a")
	state.Sort = SortPriceDesc

	visible := ComputeVisibleOrder(itemConfig(), state, catalog)
	assert.Equal(t, []string{"p5", "p3", "p1"}, ids(visible))
}

func TestComputeIsDeterministic(t *testing.T) {
	cfg := itemConfig()
	states := []State{
		DefaultState(),
		DefaultState().WithAxis(AxisCategory, "b"),
		{Axes: map[string]string{}, Sort: SortNewest, PriceMin: 1200, PriceMax: NoMax},
		{Axes: map[string]string{}, Sort: SortDiscountDesc, PriceMin: 0, PriceMax: 2500},
	}
	for _, s := range states {
		first := ComputeVisibleOrder(cfg, s, catalog)
		second := ComputeVisibleOrder(cfg, s, catalog)
		assert.Equal(t, ids(first), ids(second))
	}
}

func TestComputeDoesNotModifyInput(t *testing.T) {
	input := append([]item(nil), catalog...)
	state := DefaultState()
	state.Sort = SortPriceDesc
	ComputeVisibleOrder(itemConfig(), state, input)
	assert.Equal(t, catalog, input)
}

func TestFeaturedKeepsInputOrder(t *testing.T) {
	cfg := itemConfig()
	for _, category := range []string{All, "a", "b"} {
		state := DefaultState().WithAxis(AxisCategory, category)
		visible := ComputeVisibleOrder(cfg, state, catalog)
		expected := make([]string, 0)
		for _, i := range catalog {
			if category == All || i.category == category {
				expected = append(expected, i.id)
			}
		}
		assert.Equal(t, expected, ids(visible), category)
	}
}

func TestUnknownSortBehavesAsFeatured(t *testing.T) {
	state := DefaultState()
	state.Sort = "best-selling"
	assert.Equal(t, ids(catalog), ids(ComputeVisibleOrder(itemConfig(), state, catalog)))
}

func TestNewestIsStable(t *testing.T) {
	state := DefaultState()
	state.Sort = SortNewest
	assert.Equal(t, []string{"p2", "p4", "p1", "p3", "p5"}, ids(ComputeVisibleOrder(itemConfig(), state, catalog)))
}

func TestPriceBoundsAreInclusive(t *testing.T) {
	cfg := itemConfig()
	state := DefaultState()
	state.PriceMin = 1500
	state.PriceMax = 2500
	assert.Equal(t, []string{"p2", "p3", "p4"}, ids(ComputeVisibleOrder(cfg, state, catalog)))

	state.PriceMin = 1501
	state.PriceMax = 2499
	assert.Equal(t, []string{"p3"}, ids(ComputeVisibleOrder(cfg, state, catalog)))
}

func TestInvertedPriceRangeMatchesNothing(t *testing.T) {
	state := DefaultState()
	state.PriceMin = 3000
	state.PriceMax = 1000
	assert.Empty(t, ComputeVisibleOrder(itemConfig(), state, catalog))
}

func TestResetThenReselectIsIdempotent(t *testing.T) {
	cfg := itemConfig()
	selected := DefaultState().WithAxis(AxisCategory, "a")
	selected.Sort = SortPriceAsc
	selected.PriceMin = 1000
	before := ComputeVisibleOrder(cfg, selected, catalog)

	again := DefaultState()
	again = again.WithAxis(AxisCategory, "a")
	again.Sort = SortPriceAsc
	again.PriceMin = 1000
	assert.Equal(t, ids(before), ids(ComputeVisibleOrder(cfg, again, catalog)))
}

func TestMissingAttributeNeverMatchesConcreteValue(t *testing.T) {
	cfg := itemConfig()
	state := DefaultState().WithAxis(AxisCategory, "a")
	visible := ComputeVisibleOrder(cfg, state, []item{{id: "x"}})
	assert.Empty(t, visible)
}

func TestStateHelpers(t *testing.T) {
	s := DefaultState()
	assert.True(t, s.IsDefault())
	assert.Equal(t, All, s.Axis("vendor"))

	c := s.WithAxis("vendor", "acme")
	assert.False(t, c.IsDefault())
	assert.Equal(t, All, s.Axis("vendor"), "WithAxis must not touch the original")
	assert.True(t, c.WithAxis("vendor", All).IsDefault())
}

func TestLabels(t *testing.T) {
	label := TitleLabel("All Candles", " Collection")
	assert.Equal(t, "All Candles", label(All))
	assert.Equal(t, "Fresh Citrus Collection", label("fresh-citrus"))

	lookup := LookupLabel(destinationLabels)
	assert.Equal(t, "Tokyo: ", lookup("tokyo"))
	assert.Equal(t, "", lookup("atlantis"))
}
