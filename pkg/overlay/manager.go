// Package overlay tracks which overlays (drawers, modals, menus) are open
// and keeps the page scroll lock in step with them.
package overlay

import (
	"slices"
	"sync"

	"golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/dom"
)

// Closer is called when the manager closes an overlay on its own, for
// example on Escape.
type Closer func()

type Manager struct {
	mu    sync.Mutex
	root  *html.Node
	order []string
	open  map[string]Closer
}

// NewManager locks scrolling by writing overflow on root, normally the
// <html> element.
func NewManager(root *html.Node) *Manager {
	return &Manager{root: root, open: make(map[string]Closer)}
}

// Open registers id as open and locks scrolling. close is used by
// CloseAll and may be nil.
func (m *Manager) Open(id string, close Closer) {
	m.mu.Lock()
	if _, ok := m.open[id]; !ok {
		m.order = append(m.order, id)
	}
	m.open[id] = close
	m.mu.Unlock()
	m.LockIfAny()
}

// Close unregisters id and unlocks scrolling when nothing else is open.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	delete(m.open, id)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
	m.mu.Unlock()
	m.UnlockIfNone()
}

func (m *Manager) IsOpen(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.open[id]
	return ok
}

// OpenIDs returns the ids of the open overlays, oldest first.
func (m *Manager) OpenIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.order)
}

func (m *Manager) LockIfAny() {
	m.mu.Lock()
	locked := len(m.open) > 0
	m.mu.Unlock()
	if locked {
		dom.SetStyle(m.root, "overflow", "hidden")
	}
}

func (m *Manager) UnlockIfNone() {
	m.mu.Lock()
	none := len(m.open) == 0
	m.mu.Unlock()
	if none {
		dom.SetStyle(m.root, "overflow", "")
	}
}

func (m *Manager) Locked() bool {
	return dom.Style(m.root, "overflow") == "hidden"
}

// CloseAll closes every open overlay, newest first.
func (m *Manager) CloseAll() {
	for _, id := range slices.Backward(m.OpenIDs()) {
		m.mu.Lock()
		fn := m.open[id]
		m.mu.Unlock()
		if fn != nil {
			fn()
		}
		m.Close(id)
	}
}
