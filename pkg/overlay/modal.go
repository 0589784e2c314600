package overlay

import (
	"golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/dom"
)

// Modal shows and hides one element through the hidden attribute.
type Modal struct {
	ID      string
	Node    *html.Node
	manager *Manager
	doc     *dom.Document
	// CloseSelector finds the control that receives focus on open.
	CloseSelector string
	// OpenClass is toggled on the node in addition to hidden, "" for none.
	OpenClass string
	// OnClose runs after the modal was hidden, also when the manager
	// closed it.
	OnClose func()
}

func NewModal(id string, node *html.Node, manager *Manager, doc *dom.Document) *Modal {
	return &Modal{
		ID:            id,
		Node:          node,
		manager:       manager,
		doc:           doc,
		CloseSelector: "[data-modal-close]",
	}
}

func (m *Modal) Open() {
	if m == nil || m.Node == nil {
		return
	}
	dom.SetHidden(m.Node, false)
	if m.OpenClass != "" {
		dom.AddClass(m.Node, m.OpenClass)
	}
	dom.SetAttr(m.Node, "aria-hidden", "false")
	m.manager.Open(m.ID, m.hide)
	if m.doc != nil {
		if btn := dom.Query(m.Node, m.CloseSelector); btn != nil {
			m.doc.Focus(btn)
		}
	}
}

func (m *Modal) hide() {
	dom.SetHidden(m.Node, true)
	if m.OpenClass != "" {
		dom.RemoveClass(m.Node, m.OpenClass)
	}
	dom.SetAttr(m.Node, "aria-hidden", "true")
	if m.OnClose != nil {
		m.OnClose()
	}
}

func (m *Modal) Close() {
	if m == nil || m.Node == nil {
		return
	}
	m.hide()
	m.manager.Close(m.ID)
}

func (m *Modal) Toggle() {
	if m.IsOpen() {
		m.Close()
	} else {
		m.Open()
	}
}

func (m *Modal) IsOpen() bool {
	return m != nil && m.manager.IsOpen(m.ID)
}
