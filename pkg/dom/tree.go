package dom

import (
	"errors"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var ErrNoElement = errors.New("markup contains no element")

// Detach removes n from its parent, if any.
func Detach(n *html.Node) {
	if n != nil && n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

func RemoveChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// Append moves each node to the end of parent, keeping node identity.
func Append(parent *html.Node, nodes ...*html.Node) {
	if parent == nil {
		return
	}
	for _, n := range nodes {
		Detach(n)
		parent.AppendChild(n)
	}
}

// ReplaceChildren empties parent and then appends nodes in order.
func ReplaceChildren(parent *html.Node, nodes ...*html.Node) {
	if parent == nil {
		return
	}
	for _, n := range nodes {
		Detach(n)
	}
	RemoveChildren(parent)
	for _, n := range nodes {
		parent.AppendChild(n)
	}
}

// Children returns the element children of n.
func Children(n *html.Node) []*html.Node {
	result := make([]*html.Node, 0)
	if n == nil {
		return result
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			result = append(result, c)
		}
	}
	return result
}

// ParseFragment parses markup in the context of a <div>.
func ParseFragment(markup string) ([]*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	return html.ParseFragment(strings.NewReader(markup), context)
}

// Element parses markup and returns its first element.
func Element(markup string) (*html.Node, error) {
	nodes, err := ParseFragment(markup)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		if n.Type == html.ElementNode {
			return n, nil
		}
	}
	return nil, ErrNoElement
}
