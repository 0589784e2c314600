// Package reconcile patches a rendered list in place by matching nodes to
// items through a stable key attribute. Existing nodes are updated and
// moved rather than recreated, which keeps focus and in-flight input.
package reconcile

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/dom"
)

// Plan is the difference between the rendered keys and the wanted keys.
type Plan struct {
	Insert  []string
	Update  []string
	Remove  []string
	Reorder bool
}

func (p Plan) IsEmpty() bool {
	return len(p.Insert) == 0 && len(p.Remove) == 0 && !p.Reorder
}

// Diff computes what a patch from rendered to desired has to do. Update
// lists kept keys in desired order; Reorder is set when kept keys change
// their relative order.
func Diff(rendered, desired []string) Plan {
	plan := Plan{
		Insert: make([]string, 0),
		Update: make([]string, 0),
		Remove: make([]string, 0),
	}
	have := make(map[string]int, len(rendered))
	for i, k := range rendered {
		if _, dup := have[k]; !dup {
			have[k] = i
		}
	}
	want := make(map[string]struct{}, len(desired))
	last := -1
	for _, k := range desired {
		if _, seen := want[k]; seen {
			plan.Insert = append(plan.Insert, k)
			continue
		}
		want[k] = struct{}{}
		pos, ok := have[k]
		if !ok {
			plan.Insert = append(plan.Insert, k)
			continue
		}
		plan.Update = append(plan.Update, k)
		if pos < last {
			plan.Reorder = true
		}
		last = pos
	}
	for _, k := range rendered {
		if _, ok := want[k]; !ok {
			plan.Remove = append(plan.Remove, k)
		}
	}
	return plan
}

// Spec binds an item type to its rendered rows.
type Spec[T any] struct {
	// ItemSelector finds the rows already rendered in the container.
	ItemSelector string
	// KeyAttr is the attribute holding the row key.
	KeyAttr string
	Key     func(T) string
	// Update refreshes the mutable fields of an existing row.
	Update func(n *html.Node, item T)
	// Create renders a new row. The key attribute is set afterwards.
	Create func(item T) (*html.Node, error)
}

type Stats struct {
	Plan    Plan
	Reused  int
	Created int
	Removed int
	// Nodes are the rows in their new order.
	Nodes []*html.Node
}

// RenderedKeys lists the keys of the rows currently in container.
func RenderedKeys(container *html.Node, itemSelector, keyAttr string) []string {
	keys := make([]string, 0)
	for _, n := range dom.QueryAll(container, itemSelector) {
		if k := dom.Attr(n, keyAttr); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Patch makes the children of container match items. Rows are indexed by
// key, missing rows are created first, then reused rows are updated and
// everything is moved into a fresh list, leftovers are dropped, and the
// container children are replaced by the new list. A Create failure
// aborts before any row or the container is touched.
func Patch[T any](container *html.Node, spec Spec[T], items []T) (Stats, error) {
	stats := Stats{}
	if container == nil {
		return stats, nil
	}
	existing := make(map[string]*html.Node)
	rendered := make([]string, 0)
	for _, n := range dom.QueryAll(container, spec.ItemSelector) {
		key := dom.Attr(n, spec.KeyAttr)
		if key == "" {
			continue
		}
		rendered = append(rendered, key)
		if _, dup := existing[key]; !dup {
			existing[key] = n
		}
	}

	desired := make([]string, 0, len(items))
	fragment := make([]*html.Node, 0, len(items))
	reused := make([]bool, 0, len(items))
	for _, item := range items {
		key := spec.Key(item)
		desired = append(desired, key)
		if n, ok := existing[key]; ok {
			fragment = append(fragment, n)
			reused = append(reused, true)
			delete(existing, key)
			continue
		}
		n, err := spec.Create(item)
		if err != nil {
			return Stats{}, fmt.Errorf("create row %q: %w", key, err)
		}
		dom.SetAttr(n, spec.KeyAttr, key)
		fragment = append(fragment, n)
		reused = append(reused, false)
	}
	for i, item := range items {
		if !reused[i] {
			stats.Created++
			continue
		}
		stats.Reused++
		if spec.Update != nil {
			spec.Update(fragment[i], item)
		}
	}
	stats.Removed = len(rendered) - stats.Reused
	stats.Plan = Diff(rendered, desired)
	stats.Nodes = fragment

	dom.ReplaceChildren(container, fragment...)
	return stats, nil
}
