// Package events is the in-page event bus components use to tell each
// other about state changes, plus a best-effort bridge that repeats them
// in other tabs of the same profile.
package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/matst80/slask-theme/pkg/common/jsoncompat"
)

const (
	CartUpdated     = "cart:updated"
	WishlistUpdated = "wishlist:updated"
	ConsentUpdated  = "consent:updated"
)

// Event is one notification. Detail is JSON so it can cross tabs unchanged.
type Event struct {
	Name   string
	Detail json.RawMessage
	// Source names the component that emitted the event, "" if unknown.
	Source string
	// Remote is set for events that arrived from another tab.
	Remote bool
}

// NewEvent encodes detail into an event.
func NewEvent(name, source string, detail any) (Event, error) {
	ev := Event{Name: name, Source: source}
	if detail == nil {
		return ev, nil
	}
	b, err := jsoncompat.Marshal(detail)
	if err != nil {
		return ev, err
	}
	ev.Detail = b
	return ev, nil
}

// Decode unmarshals the detail into v. An event without detail leaves v
// untouched.
func (e Event) Decode(v any) error {
	if len(e.Detail) == 0 {
		return nil
	}
	return jsoncompat.Unmarshal(e.Detail, v)
}

type Listener func(ctx context.Context, ev Event)

type subscription struct {
	id int
	fn Listener
}

type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string][]subscription
	all    []subscription
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string][]subscription)}
}

// On registers fn for name and returns a function that removes it.
func (b *Bus) On(name string, fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[name] = append(b.subs[name], subscription{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.subs[name] = remove(b.subs[name], id)
	}
}

// OnAny registers fn for every event.
func (b *Bus) OnAny(fn Listener) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, fn: fn})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = remove(b.all, id)
	}
}

func remove(subs []subscription, id int) []subscription {
	out := subs[:0:0]
	for _, s := range subs {
		if s.id != id {
			out = append(out, s)
		}
	}
	return out
}

// Emit calls the listeners synchronously in registration order. Listeners
// may emit further events.
func (b *Bus) Emit(ctx context.Context, ev Event) {
	b.mu.RLock()
	named := append([]subscription(nil), b.subs[ev.Name]...)
	all := append([]subscription(nil), b.all...)
	b.mu.RUnlock()
	for _, s := range named {
		s.fn(ctx, ev)
	}
	for _, s := range all {
		s.fn(ctx, ev)
	}
}
