package quiz

import (
	"context"
	"fmt"
	"html"

	"go.uber.org/zap"
	xhtml "golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/common/jsoncompat"
	"github.com/matst80/slask-theme/pkg/dom"
	"github.com/matst80/slask-theme/pkg/money"
	"github.com/matst80/slask-theme/pkg/reconcile"
)

// Controller drives a [data-quiz] block: one [data-quiz-step] per
// question, choice buttons, and a result list filled from the catalog in
// [data-quiz-products].
type Controller struct {
	doc     *dom.Document
	root    *xhtml.Node
	session *Session
	catalog []Product
	money   money.Formatter
	log     *zap.Logger
}

// NewController returns nil when the document has no quiz.
func NewController(doc *dom.Document, scorer *Scorer, f money.Formatter, log *zap.Logger) *Controller {
	root := doc.Query("[data-quiz]")
	if root == nil {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{
		doc:     doc,
		root:    root,
		session: NewSession(scorer),
		catalog: make([]Product, 0),
		money:   f,
		log:     log,
	}
	if script := dom.Query(root, "[data-quiz-products]"); script != nil {
		if err := jsoncompat.Unmarshal([]byte(dom.Text(script)), &c.catalog); err != nil {
			log.Warn("quiz catalog is not valid json", zap.Error(err))
			c.catalog = make([]Product, 0)
		}
	}
	return c
}

func (c *Controller) Session() *Session {
	return c.session
}

// Render shows the current step or the results. Requires the document
// lock.
func (c *Controller) Render() {
	current := c.session.Current()
	for _, step := range dom.QueryAll(c.root, "[data-quiz-step]") {
		dom.SetHidden(step, dom.Attr(step, "data-quiz-step") != current)
	}
	answers := map[string]string{
		QuestionAmbiance:  c.session.answers.Ambiance,
		QuestionIntensity: c.session.answers.Intensity,
		QuestionBudget:    c.session.answers.Budget,
	}
	for _, btn := range dom.QueryAll(c.root, "[data-quiz-choice]") {
		step := dom.Attr(dom.Closest(btn, "[data-quiz-step]"), "data-quiz-step")
		dom.ToggleClass(btn, "is-selected", answers[step] == dom.Attr(btn, "data-quiz-choice"))
	}
	dom.SetText(dom.Query(c.root, "[data-quiz-progress]"),
		fmt.Sprintf("%d / %d", min(c.session.step+1, len(order)), len(order)))
	dom.SetHidden(dom.Query(c.root, "[data-quiz-back]"), c.session.step == 0 || c.session.Done())

	result := dom.Query(c.root, "[data-quiz-result]")
	dom.SetHidden(result, !c.session.Done())
	list := dom.Query(c.root, "[data-quiz-results]")
	if !c.session.Done() {
		dom.RemoveChildren(list)
		return
	}
	if _, err := reconcile.Patch(list, c.resultSpec(), c.session.Results(c.catalog)); err != nil {
		c.log.Warn("patch quiz results", zap.Error(err))
	}
}

func (c *Controller) resultSpec() reconcile.Spec[Product] {
	return reconcile.Spec[Product]{
		ItemSelector: "[data-quiz-product]",
		KeyAttr:      "data-product-id",
		Key:          func(p Product) string { return p.ID },
		Create: func(p Product) (*xhtml.Node, error) {
			esc := html.EscapeString
			href := p.URL
			if href == "" {
				href = "/products/" + p.Handle
			}
			return dom.Element(fmt.Sprintf(`<a class="az-quiz__product" data-quiz-product href="%s">
  <span class="az-quiz__product-title">%s</span>
  <span class="az-quiz__product-price">%s</span>
</a>`, esc(href), esc(p.Title), esc(c.money.Format(p.Price))))
		},
	}
}

// Choose answers the step containing btn.
func (c *Controller) Choose(btn *xhtml.Node) error {
	var err error
	c.doc.Update(func() {
		step := dom.Attr(dom.Closest(btn, "[data-quiz-step]"), "data-quiz-step")
		err = c.session.Answer(step, dom.Attr(btn, "data-quiz-choice"))
		if err != nil {
			c.log.Debug("quiz answer rejected", zap.String("step", step), zap.Error(err))
			return
		}
		c.Render()
	})
	return err
}

func (c *Controller) Bind(del *dom.Delegator) {
	del.On(dom.Click, "[data-quiz-choice]", func(ctx context.Context, ev dom.Event, match *xhtml.Node) {
		if dom.Contains(c.root, match) {
			_ = c.Choose(match)
		}
	})
	del.On(dom.Click, "[data-quiz-back]", func(ctx context.Context, ev dom.Event, match *xhtml.Node) {
		c.doc.Update(func() {
			c.session.Back()
			c.Render()
		})
	})
	del.On(dom.Click, "[data-quiz-restart]", func(ctx context.Context, ev dom.Event, match *xhtml.Node) {
		c.doc.Update(func() {
			c.session.Reset()
			c.Render()
		})
	})
}

// ResultCount is the number of rendered recommendations.
func (c *Controller) ResultCount() int {
	return len(dom.QueryAll(c.root, "[data-quiz-product]"))
}

func (c *Controller) Catalog() []Product {
	return c.catalog
}
