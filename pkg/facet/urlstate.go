package facet

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/schema"
)

const filterPrefix = "filter_"

// Location is the address bar of the page. Replace must not add a history
// entry.
type Location interface {
	Query() url.Values
	Replace(query url.Values)
}

// History is an in-memory Location. Entries only grows on Push.
type History struct {
	mu      sync.Mutex
	url     url.URL
	entries int
}

func NewHistory(raw string) (*History, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	return &History{url: *u, entries: 1}, nil
}

func (h *History) Query() url.Values {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.url.Query()
}

func (h *History) Replace(query url.Values) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.url.RawQuery = query.Encode()
}

func (h *History) Push(query url.Values) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.url.RawQuery = query.Encode()
	h.entries++
}

func (h *History) Entries() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries
}

func (h *History) String() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.url.String()
}

// queryParams holds the fixed part of the collection query string. Axis
// parameters are dynamic and handled separately.
type queryParams struct {
	PriceMin string `schema:"filter_price_min,omitempty"`
	PriceMax string `schema:"filter_price_max,omitempty"`
	Sort     string `schema:"sort_by,omitempty"`
}

var (
	decoder = newDecoder()
	encoder = schema.NewEncoder()
)

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// StateFromQuery rehydrates a state from the query string. Absent or
// malformed parameters leave the axis unfiltered.
func StateFromQuery(query url.Values, axes []string, scale int) State {
	state := DefaultState()
	var params queryParams
	if err := decoder.Decode(&params, query); err == nil {
		if v, ok := parseMajor(params.PriceMin, scale); ok {
			state.PriceMin = v
		}
		if v, ok := parseMajor(params.PriceMax, scale); ok {
			state.PriceMax = v
		}
		if params.Sort != "" {
			state.Sort = SortKey(params.Sort)
		}
	}
	for _, axis := range axes {
		if v := strings.TrimSpace(query.Get(filterPrefix + axis)); v != "" {
			state = state.WithAxis(axis, v)
		}
	}
	return state
}

// ApplyState writes state into a copy of query. Parameters that do not
// belong to the facets are kept as they are.
func ApplyState(query url.Values, state State, axes []string, scale int) url.Values {
	result := url.Values{}
	for k, v := range query {
		if strings.HasPrefix(k, filterPrefix) || k == "sort_by" {
			continue
		}
		result[k] = append([]string(nil), v...)
	}
	params := queryParams{}
	if state.PriceMin > 0 {
		params.PriceMin = formatMajor(state.PriceMin, scale)
	}
	if state.PriceMax != NoMax {
		params.PriceMax = formatMajor(state.PriceMax, scale)
	}
	if state.Sort != "" && state.Sort != SortFeatured {
		params.Sort = string(state.Sort)
	}
	encoded := map[string][]string{}
	if err := encoder.Encode(params, encoded); err == nil {
		for k, v := range encoded {
			if len(v) > 0 && v[0] != "" {
				result[k] = v
			}
		}
	}
	for _, axis := range axes {
		if v := state.Axis(axis); v != All {
			result.Set(filterPrefix+axis, v)
		}
	}
	return result
}

func parseMajor(v string, scale int) (int, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, false
	}
	return int(math.Round(f * float64(scale))), true
}

func formatMajor(minor int, scale int) string {
	if minor%scale == 0 {
		return strconv.Itoa(minor / scale)
	}
	return strconv.FormatFloat(float64(minor)/float64(scale), 'f', 2, 64)
}
