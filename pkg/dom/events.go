package dom

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

const (
	Click   = "click"
	Change  = "change"
	Input   = "input"
	Blur    = "blur"
	Submit  = "submit"
	KeyDown = "keydown"
)

// Event is a user interaction delivered by the host shell. Value and
// Checked carry the control state the user produced; the dispatcher
// reflects them into the tree before handlers run, like a browser does.
type Event struct {
	Type    string
	Target  *html.Node
	Value   string
	Checked bool
	Key     string
}

// Handler receives the event and the element that matched its selector
// (nil for document level handlers).
type Handler func(ctx context.Context, ev Event, match *html.Node)

type binding struct {
	typ      string
	selector string
	handler  Handler
}

// Delegator routes events to handlers registered by selector, the same
// way delegated listeners on a container work.
type Delegator struct {
	doc      *Document
	mu       sync.RWMutex
	bindings []binding
}

func NewDelegator(doc *Document) *Delegator {
	return &Delegator{doc: doc, bindings: make([]binding, 0)}
}

// On registers h for events of typ whose target is inside an element
// matching selector. An empty selector receives every event of typ.
func (d *Delegator) On(typ, selector string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bindings = append(d.bindings, binding{typ: typ, selector: selector, handler: h})
}

type call struct {
	handler Handler
	match   *html.Node
}

// Dispatch delivers ev and returns how many handlers ran. Handlers are
// called without the document lock so they may block on the network.
func (d *Delegator) Dispatch(ctx context.Context, ev Event) int {
	d.mu.RLock()
	bindings := make([]binding, len(d.bindings))
	copy(bindings, d.bindings)
	d.mu.RUnlock()

	calls := make([]call, 0)
	d.doc.Update(func() {
		reflectControl(ev)
		for _, b := range bindings {
			if b.typ != ev.Type {
				continue
			}
			if b.selector == "" {
				calls = append(calls, call{handler: b.handler})
				continue
			}
			if m := Closest(ev.Target, b.selector); m != nil {
				calls = append(calls, call{handler: b.handler, match: m})
			}
		}
	})
	for _, c := range calls {
		c.handler(ctx, ev, c.match)
	}
	return len(calls)
}

func reflectControl(ev Event) {
	if ev.Type != Change && ev.Type != Input {
		return
	}
	n := ev.Target
	if !isElement(n) {
		return
	}
	switch n.Data {
	case "input":
		switch strings.ToLower(Attr(n, "type")) {
		case "radio":
			if ev.Checked {
				for _, other := range radioGroup(n) {
					SetChecked(other, false)
				}
			}
			SetChecked(n, ev.Checked)
		case "checkbox":
			SetChecked(n, ev.Checked)
		default:
			SetValue(n, ev.Value)
		}
	case "select", "textarea":
		SetValue(n, ev.Value)
	}
}

func radioGroup(n *html.Node) []*html.Node {
	name := Attr(n, "name")
	if name == "" {
		return nil
	}
	root := n
	if form := Closest(n, "form"); form != nil {
		root = form
	} else {
		for root.Parent != nil {
			root = root.Parent
		}
	}
	group := make([]*html.Node, 0)
	for _, r := range QueryAll(root, `input[type="radio"]`) {
		if Attr(r, "name") == name {
			group = append(group, r)
		}
	}
	return group
}
