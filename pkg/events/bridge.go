package events

import (
	"context"
	"encoding/json"
	"slices"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Message is the wire form of an event shared between tabs.
type Message struct {
	Origin string          `json:"origin"`
	Name   string          `json:"name"`
	Detail json.RawMessage `json:"detail,omitempty"`
}

// Transport carries messages between tabs. Delivery is best effort.
type Transport interface {
	Publish(ctx context.Context, msg Message) error
	Subscribe(fn func(Message)) error
	Close() error
}

// Bridge repeats selected local events on a transport and re-emits the
// messages of other tabs locally with Remote set.
type Bridge struct {
	Origin    string
	bus       *Bus
	transport Transport
	names     []string
	log       *zap.Logger
	stop      func()
}

func NewBridge(bus *Bus, transport Transport, log *zap.Logger, names ...string) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{
		Origin:    uuid.NewString(),
		bus:       bus,
		transport: transport,
		names:     names,
		log:       log,
	}
}

func (b *Bridge) Start(ctx context.Context) error {
	err := b.transport.Subscribe(func(msg Message) {
		if msg.Origin == b.Origin || !slices.Contains(b.names, msg.Name) {
			return
		}
		b.bus.Emit(ctx, Event{Name: msg.Name, Detail: msg.Detail, Remote: true})
	})
	if err != nil {
		return err
	}
	b.stop = b.bus.OnAny(func(ctx context.Context, ev Event) {
		if ev.Remote || !slices.Contains(b.names, ev.Name) {
			return
		}
		msg := Message{Origin: b.Origin, Name: ev.Name, Detail: ev.Detail}
		if err := b.transport.Publish(ctx, msg); err != nil {
			b.log.Debug("broadcast failed", zap.String("event", ev.Name), zap.Error(err))
		}
	})
	return nil
}

func (b *Bridge) Close() error {
	if b.stop != nil {
		b.stop()
	}
	return b.transport.Close()
}

// Hub connects LocalTransports living in the same process.
type Hub struct {
	mu    sync.RWMutex
	peers []*LocalTransport
}

func NewHub() *Hub {
	return &Hub{}
}

// Transport returns a new endpoint attached to the hub.
func (h *Hub) Transport() *LocalTransport {
	t := &LocalTransport{hub: h}
	h.mu.Lock()
	h.peers = append(h.peers, t)
	h.mu.Unlock()
	return t
}

type LocalTransport struct {
	hub      *Hub
	mu       sync.RWMutex
	handlers []func(Message)
	closed   bool
}

func (t *LocalTransport) Publish(ctx context.Context, msg Message) error {
	t.hub.mu.RLock()
	peers := append([]*LocalTransport(nil), t.hub.peers...)
	t.hub.mu.RUnlock()
	for _, p := range peers {
		p.deliver(msg)
	}
	return nil
}

func (t *LocalTransport) deliver(msg Message) {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		return
	}
	handlers := slices.Clone(t.handlers)
	t.mu.RUnlock()
	for _, fn := range handlers {
		fn(msg)
	}
}

func (t *LocalTransport) Subscribe(fn func(Message)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, fn)
	return nil
}

func (t *LocalTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}
