package overlay

import (
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/dom"
)

const DefaultToastDuration = 3 * time.Second

// Toast shows a short message in a single [data-toast] element and hides
// it again after Duration. A new message restarts the timer.
type Toast struct {
	node     *html.Node
	doc      *dom.Document
	Duration time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewToast(doc *dom.Document, node *html.Node) *Toast {
	return &Toast{node: node, doc: doc, Duration: DefaultToastDuration}
}

// Show must be called with the document lock held.
func (t *Toast) Show(message string) {
	if t == nil || t.node == nil {
		return
	}
	dom.SetText(t.node, message)
	dom.SetHidden(t.node, false)
	dom.AddClass(t.node, "is-visible")

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.Duration, func() {
		t.doc.Update(t.hide)
	})
}

func (t *Toast) hide() {
	dom.RemoveClass(t.node, "is-visible")
	dom.SetHidden(t.node, true)
}
