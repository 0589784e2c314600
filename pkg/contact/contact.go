// Package contact validates the contact page form and renders the field
// errors next to the inputs.
package contact

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	xhtml "golang.org/x/net/html"

	"github.com/matst80/slask-theme/pkg/dom"
)

const (
	FieldName    = "name"
	FieldEmail   = "email"
	FieldMessage = "message"

	SendingLabel = "Sending..."
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Message is what the shopper submits.
type Message struct {
	Name    string `validate:"required"`
	Email   string `validate:"required,email"`
	Message string `validate:"required"`
}

var fieldNames = map[string]string{
	"Name":    FieldName,
	"Email":   FieldEmail,
	"Message": FieldMessage,
}

var labels = map[string]string{
	FieldName:    "Name",
	FieldEmail:   "Email",
	FieldMessage: "Message",
}

func msgForTag(field, tag string) string {
	switch tag {
	case "required":
		return labels[field] + " is required"
	case "email":
		return labels[field] + " is invalid"
	default:
		return labels[field] + " failed on '" + tag + "' validation"
	}
}

func (m Message) trimmed() Message {
	return Message{
		Name:    strings.TrimSpace(m.Name),
		Email:   strings.TrimSpace(m.Email),
		Message: strings.TrimSpace(m.Message),
	}
}

// Validate returns the error message per field; an empty map means the
// message can be sent.
func Validate(m Message) map[string]string {
	out := make(map[string]string)
	err := validate.Struct(m.trimmed())
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return out
	}
	for _, fe := range verrs {
		field := fieldNames[fe.Field()]
		if _, seen := out[field]; !seen {
			out[field] = msgForTag(field, fe.Tag())
		}
	}
	return out
}

// ValidateField checks a single value, as on blur. It returns "" when the
// value is fine.
func ValidateField(field, value string) string {
	m := Message{Name: "x", Email: "x@example.com", Message: "x"}
	switch field {
	case FieldName:
		m.Name = value
	case FieldEmail:
		m.Email = value
	case FieldMessage:
		m.Message = value
	default:
		return ""
	}
	return Validate(m)[field]
}

// Form binds to a [data-contact-page].
type Form struct {
	doc     *dom.Document
	page    *xhtml.Node
	form    *xhtml.Node
	success *xhtml.Node
	submit  *xhtml.Node
	inputs  map[string]*xhtml.Node
	label   string
	log     *zap.Logger
}

// NewForm returns nil when the page has no contact form.
func NewForm(doc *dom.Document, log *zap.Logger) *Form {
	page := doc.Query("[data-contact-page]")
	form := dom.Query(page, "[data-contact-form]")
	if form == nil {
		return nil
	}
	if log == nil {
		log = zap.NewNop()
	}
	f := &Form{
		doc:     doc,
		page:    page,
		form:    form,
		success: dom.Query(page, "[data-contact-success]"),
		submit:  dom.Query(page, "[data-contact-submit]"),
		inputs: map[string]*xhtml.Node{
			FieldName:    dom.Query(page, "[data-contact-name]"),
			FieldEmail:   dom.Query(page, "[data-contact-email]"),
			FieldMessage: dom.Query(page, "[data-contact-message]"),
		},
		log: log,
	}
	f.label = dom.Text(f.submit)
	return f
}

func (f *Form) message() Message {
	return Message{
		Name:    dom.Value(f.inputs[FieldName]),
		Email:   dom.Value(f.inputs[FieldEmail]),
		Message: dom.Value(f.inputs[FieldMessage]),
	}
}

func (f *Form) showError(input *xhtml.Node, msg string) {
	if input == nil || input.Parent == nil {
		return
	}
	dom.SetStyle(input, "border-color", "var(--color-error)")
	el := dom.Query(input.Parent, ".az-contact__error")
	if el == nil {
		var err error
		el, err = dom.Element(`<span class="az-contact__error"></span>`)
		if err != nil {
			return
		}
		dom.Append(input.Parent, el)
	}
	dom.SetText(el, msg)
}

func (f *Form) clearError(input *xhtml.Node) {
	if input == nil || input.Parent == nil {
		return
	}
	dom.SetStyle(input, "border-color", "")
	if el := dom.Query(input.Parent, ".az-contact__error"); el != nil {
		dom.Detach(el)
	}
}

// Blur validates one field. Requires the document lock.
func (f *Form) Blur(field string) {
	input := f.inputs[field]
	if input == nil {
		return
	}
	if msg := ValidateField(field, dom.Value(input)); msg != "" {
		f.showError(input, msg)
		return
	}
	f.clearError(input)
}

// Submit validates every field. When the form is valid the submit button
// is disabled and relabelled and true is returned; otherwise the errors
// are shown and the submission must be cancelled. Requires the document
// lock.
func (f *Form) Submit() bool {
	errs := Validate(f.message())
	for field, input := range f.inputs {
		if msg, bad := errs[field]; bad {
			f.showError(input, msg)
		}
	}
	if len(errs) > 0 {
		f.log.Debug("contact form invalid", zap.Int("errors", len(errs)))
		return false
	}
	dom.SetDisabled(f.submit, true)
	dom.SetText(f.submit, SendingLabel)
	return true
}

// Reset shows an empty form again. Requires the document lock.
func (f *Form) Reset() {
	dom.SetHidden(f.form, false)
	dom.SetHidden(f.success, true)
	for _, input := range f.inputs {
		dom.SetValue(input, "")
		f.clearError(input)
	}
	dom.SetDisabled(f.submit, false)
	if f.label != "" {
		dom.SetText(f.submit, f.label)
	}
}

func (f *Form) Bind(del *dom.Delegator) {
	for field, sel := range map[string]string{
		FieldName:    "[data-contact-name]",
		FieldEmail:   "[data-contact-email]",
		FieldMessage: "[data-contact-message]",
	} {
		del.On(dom.Blur, sel, func(ctx context.Context, ev dom.Event, match *xhtml.Node) {
			f.doc.Update(func() { f.Blur(field) })
		})
	}
	del.On(dom.Submit, "[data-contact-form]", func(ctx context.Context, ev dom.Event, match *xhtml.Node) {
		f.doc.Update(func() { f.Submit() })
	})
	del.On(dom.Click, "[data-contact-reset]", func(ctx context.Context, ev dom.Event, match *xhtml.Node) {
		f.doc.Update(f.Reset)
	})
}
