package dom

import (
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

var selectors sync.Map

// compile caches parsed selectors, selector lists included. An invalid
// selector compiles to nil and matches nothing.
func compile(selector string) goquery.Matcher {
	if s, ok := selectors.Load(selector); ok {
		m, _ := s.(goquery.Matcher)
		return m
	}
	var m goquery.Matcher
	if sel, err := cascadia.Compile(selector); err == nil {
		m = sel
	}
	selectors.Store(selector, m)
	return m
}

func isElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

// from wraps n in a selection without copying the tree.
func from(n *html.Node) *goquery.Selection {
	return goquery.NewDocumentFromNode(n).Selection
}

// Matches reports whether the element n matches selector.
func Matches(n *html.Node, selector string) bool {
	if !isElement(n) {
		return false
	}
	m := compile(selector)
	return m != nil && m.Match(n)
}

// Query returns the first descendant of root matching selector.
func Query(root *html.Node, selector string) *html.Node {
	m := compile(selector)
	if root == nil || m == nil {
		return nil
	}
	found := from(root).FindMatcher(goquery.SingleMatcher(m))
	if found.Length() == 0 {
		return nil
	}
	return found.Get(0)
}

// QueryAll returns every descendant of root matching selector in
// document order.
func QueryAll(root *html.Node, selector string) []*html.Node {
	m := compile(selector)
	if root == nil || m == nil {
		return make([]*html.Node, 0)
	}
	return append(make([]*html.Node, 0), from(root).FindMatcher(m).Nodes...)
}

// Closest walks from n up through its ancestors and returns the first
// element matching selector, n included.
func Closest(n *html.Node, selector string) *html.Node {
	m := compile(selector)
	if n == nil || m == nil {
		return nil
	}
	found := from(n).ClosestMatcher(m)
	if found.Length() == 0 {
		return nil
	}
	return found.Get(0)
}

// Contains reports whether n is root or one of its descendants.
func Contains(root, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == root {
			return true
		}
	}
	return false
}
