package dom

import (
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed page plus the little bit of browser state the
// behaviour layer needs (which element has focus). Every mutation of the
// node tree must happen inside Update so event handlers and network
// completions never interleave on the tree.
type Document struct {
	mu     sync.Mutex
	doc    *goquery.Document
	active *html.Node
}

func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}
	return &Document{doc: doc}, nil
}

func ParseString(markup string) (*Document, error) {
	return Parse(strings.NewReader(markup))
}

// Update runs fn with exclusive access to the tree.
func (d *Document) Update(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	fn()
}

// Selection exposes the goquery view of the document. Callers outside
// Update must treat it as read only.
func (d *Document) Selection() *goquery.Selection {
	return d.doc.Selection
}

// Node returns the document node.
func (d *Document) Node() *html.Node {
	if len(d.doc.Nodes) == 0 {
		return nil
	}
	return d.doc.Nodes[0]
}

// Root returns the <html> element.
func (d *Document) Root() *html.Node {
	return Query(d.Node(), "html")
}

func (d *Document) Query(selector string) *html.Node {
	return Query(d.Node(), selector)
}

func (d *Document) QueryAll(selector string) []*html.Node {
	return QueryAll(d.Node(), selector)
}

// Focus moves focus to n. Nil clears focus.
func (d *Document) Focus(n *html.Node) {
	d.active = n
}

// Active returns the focused element, or nil when focus was lost because
// the element left the tree.
func (d *Document) Active() *html.Node {
	if d.active != nil && !Attached(d.active) {
		return nil
	}
	return d.active
}

func (d *Document) HTML() (string, error) {
	var sb strings.Builder
	if err := html.Render(&sb, d.Node()); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// Attached reports whether n is still connected to a document node.
func Attached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.DocumentNode {
			return true
		}
	}
	return false
}
