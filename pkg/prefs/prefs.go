// Package prefs keeps the small per-browser decisions the theme remembers:
// whether the newsletter popup was shown and the cookie consent choice.
package prefs

import (
	"context"
	"time"

	"github.com/matst80/slask-theme/pkg/events"
	"github.com/matst80/slask-theme/pkg/storage"
)

const (
	NewsletterKey = "az-newsletter-popup"
	ConsentKey    = "az-cookie-consent"

	// DefaultNewsletterTTL is how long a dismissed popup stays away.
	DefaultNewsletterTTL = 7 * 24 * time.Hour
)

// Seen is the stored newsletter record; Exp is epoch milliseconds.
type Seen struct {
	Seen bool  `json:"seen"`
	Exp  int64 `json:"exp"`
}

type Newsletter struct {
	store *storage.Safe
	TTL   time.Duration
	Now   func() time.Time
}

func NewNewsletter(store *storage.Safe) *Newsletter {
	return &Newsletter{store: store, TTL: DefaultNewsletterTTL, Now: time.Now}
}

// ShouldShow is false while a seen record has not expired. Unreadable
// records count as absent.
func (n *Newsletter) ShouldShow(ctx context.Context) bool {
	var rec Seen
	if !n.store.ReadJSON(ctx, NewsletterKey, &rec) {
		return true
	}
	return !rec.Seen || n.Now().UnixMilli() >= rec.Exp
}

func (n *Newsletter) MarkSeen(ctx context.Context) {
	n.store.WriteJSON(ctx, NewsletterKey, Seen{
		Seen: true,
		Exp:  n.Now().Add(n.TTL).UnixMilli(),
	})
}

type Decision struct {
	Analytics bool `json:"analytics"`
	Marketing bool `json:"marketing"`
}

type Consent struct {
	store *storage.Safe
	bus   *events.Bus
}

func NewConsent(store *storage.Safe, bus *events.Bus) *Consent {
	return &Consent{store: store, bus: bus}
}

// Load returns the stored decision and whether one was made.
func (c *Consent) Load(ctx context.Context) (Decision, bool) {
	var d Decision
	ok := c.store.ReadJSON(ctx, ConsentKey, &d)
	return d, ok
}

// Save stores d and emits consent:updated, even when the write failed so
// the current page still honors the choice.
func (c *Consent) Save(ctx context.Context, d Decision) {
	c.store.WriteJSON(ctx, ConsentKey, d)
	if c.bus == nil {
		return
	}
	if ev, err := events.NewEvent(events.ConsentUpdated, "consent", d); err == nil {
		c.bus.Emit(ctx, ev)
	}
}
