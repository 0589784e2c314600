// Package wishlist keeps the shopper's saved products in the browser
// store and renders every view of them.
package wishlist

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/matst80/slask-theme/pkg/events"
	"github.com/matst80/slask-theme/pkg/storage"
)

const Key = "az-wishlist"

// Entry is one saved product. ProductID is unique within the list.
type Entry struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Title     string `json:"title"`
	Handle    string `json:"handle"`
	Image     string `json:"image"`
	Price     int    `json:"price"`
	URL       string `json:"url"`
}

// Store has no cache: every call reads the durable store again, so all
// views derive from the same persisted list.
type Store struct {
	store *storage.Safe
	bus   *events.Bus
	log   *zap.Logger
}

func NewStore(store *storage.Safe, bus *events.Bus, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{store: store, bus: bus, log: log}
}

// Load returns the saved entries; a missing or unreadable list is empty.
func (s *Store) Load(ctx context.Context) []Entry {
	entries := make([]Entry, 0)
	if !s.store.ReadJSON(ctx, Key, &entries) || entries == nil {
		return make([]Entry, 0)
	}
	return slices.DeleteFunc(entries, func(e Entry) bool { return e.ProductID == "" })
}

func (s *Store) Has(ctx context.Context, productID string) bool {
	return slices.ContainsFunc(s.Load(ctx), func(e Entry) bool { return e.ProductID == productID })
}

func (s *Store) Count(ctx context.Context) int {
	return len(s.Load(ctx))
}

// Add appends e unless its product is already saved. It reports whether
// the list changed.
func (s *Store) Add(ctx context.Context, e Entry) bool {
	if e.ProductID == "" {
		return false
	}
	entries := s.Load(ctx)
	if slices.ContainsFunc(entries, func(x Entry) bool { return x.ProductID == e.ProductID }) {
		return false
	}
	s.save(ctx, append(entries, e))
	return true
}

// Remove drops the product and reports whether it was saved.
func (s *Store) Remove(ctx context.Context, productID string) bool {
	entries := s.Load(ctx)
	n := len(entries)
	entries = slices.DeleteFunc(entries, func(x Entry) bool { return x.ProductID == productID })
	if len(entries) == n {
		return false
	}
	s.save(ctx, entries)
	return true
}

// Toggle adds e when missing and removes it otherwise. It returns whether
// the product is saved afterwards.
func (s *Store) Toggle(ctx context.Context, e Entry) bool {
	if s.Remove(ctx, e.ProductID) {
		return false
	}
	return s.Add(ctx, e)
}

func (s *Store) save(ctx context.Context, entries []Entry) {
	if !s.store.WriteJSON(ctx, Key, entries) {
		s.log.Debug("wishlist not persisted", zap.Int("entries", len(entries)))
	}
	if s.bus == nil {
		return
	}
	ev, err := events.NewEvent(events.WishlistUpdated, "wishlist", entries)
	if err != nil {
		return
	}
	s.bus.Emit(ctx, ev)
}
