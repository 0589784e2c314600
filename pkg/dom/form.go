package dom

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Value reads the current value of a form control.
func Value(n *html.Node) string {
	if !isElement(n) {
		return ""
	}
	switch n.Data {
	case "textarea":
		return Text(n)
	case "select":
		options := QueryAll(n, "option")
		for _, o := range options {
			if HasAttr(o, "selected") {
				return optionValue(o)
			}
		}
		if len(options) > 0 {
			return optionValue(options[0])
		}
		return ""
	}
	return Attr(n, "value")
}

func optionValue(o *html.Node) string {
	if HasAttr(o, "value") {
		return Attr(o, "value")
	}
	return strings.TrimSpace(Text(o))
}

// SetValue writes the value of a form control. For a select the matching
// option becomes the selected one.
func SetValue(n *html.Node, value string) {
	if !isElement(n) {
		return
	}
	switch n.Data {
	case "textarea":
		SetText(n, value)
	case "select":
		for _, o := range QueryAll(n, "option") {
			if optionValue(o) == value {
				SetAttr(o, "selected", "")
			} else {
				RemoveAttr(o, "selected")
			}
		}
	default:
		SetAttr(n, "value", value)
	}
}

func SetChecked(n *html.Node, checked bool) {
	if checked {
		SetAttr(n, "checked", "")
		return
	}
	RemoveAttr(n, "checked")
}

func IsChecked(n *html.Node) bool {
	return HasAttr(n, "checked")
}

// FormValues collects the successful controls below form the way a
// browser builds FormData.
func FormValues(form *html.Node) url.Values {
	values := url.Values{}
	for _, n := range QueryAll(form, "input[name], select[name], textarea[name]") {
		if IsDisabled(n) {
			continue
		}
		name := Attr(n, "name")
		if n.Data == "input" {
			switch strings.ToLower(Attr(n, "type")) {
			case "checkbox", "radio":
				if !IsChecked(n) {
					continue
				}
				v := Attr(n, "value")
				if !HasAttr(n, "value") {
					v = "on"
				}
				values.Add(name, v)
				continue
			case "submit", "button", "reset", "file", "image":
				continue
			}
		}
		values.Add(name, Value(n))
	}
	return values
}

// SetStyle sets or, with an empty value, removes one inline style property.
func SetStyle(n *html.Node, property, value string) {
	if n == nil {
		return
	}
	decls := make([]string, 0)
	for _, decl := range strings.Split(Attr(n, "style"), ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		k, _, _ := strings.Cut(decl, ":")
		if strings.TrimSpace(k) == property {
			continue
		}
		decls = append(decls, decl)
	}
	if value != "" {
		decls = append(decls, property+": "+value)
	}
	if len(decls) == 0 {
		RemoveAttr(n, "style")
		return
	}
	SetAttr(n, "style", strings.Join(decls, "; "))
}

// Style returns the inline value of property.
func Style(n *html.Node, property string) string {
	for _, decl := range strings.Split(Attr(n, "style"), ";") {
		k, v, ok := strings.Cut(decl, ":")
		if ok && strings.TrimSpace(k) == property {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
