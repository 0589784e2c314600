// Package money formats minor currency units for display. The order of
// preference is fixed: a formatter supplied by the host page, then the
// shop's money template, then a plain symbol and two decimals.
package money

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// HostFormatter is a formatter provided by the surrounding storefront.
type HostFormatter interface {
	FormatMoney(cents int) string
}

// HostFunc adapts a function to HostFormatter.
type HostFunc func(cents int) string

func (f HostFunc) FormatMoney(cents int) string {
	return f(cents)
}

type Formatter struct {
	Host HostFormatter
	// Template is a shop money format such as "${{amount}}" or
	// "{{amount_with_comma_separator}} kr".
	Template string
	// Symbol prefixes the last resort format, "$" when empty.
	Symbol string
}

var placeholders = []struct {
	name   string
	format func(cents int) string
}{
	{"amount_no_decimals_with_comma_separator", func(c int) string { return delimit(c, 0, ".", ",") }},
	{"amount_with_comma_separator", func(c int) string { return delimit(c, 2, ".", ",") }},
	{"amount_no_decimals", func(c int) string { return delimit(c, 0, ",", ".") }},
	{"amount", func(c int) string { return delimit(c, 2, ",", ".") }},
}

func (f Formatter) Format(cents int) string {
	if f.Host != nil {
		return f.Host.FormatMoney(cents)
	}
	if out, ok := applyTemplate(f.Template, cents); ok {
		return out
	}
	symbol := f.Symbol
	if symbol == "" {
		symbol = "$"
	}
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%s%d.%02d", sign, symbol, cents/100, cents%100)
}

// applyTemplate substitutes the first placeholder found in tpl. A template
// without a known placeholder is treated as not configured.
func applyTemplate(tpl string, cents int) (string, bool) {
	if tpl == "" {
		return "", false
	}
	start := strings.Index(tpl, "{{")
	if start < 0 {
		return "", false
	}
	end := strings.Index(tpl[start:], "}}")
	if end < 0 {
		return "", false
	}
	name := strings.TrimSpace(tpl[start+2 : start+end])
	for _, p := range placeholders {
		if p.name == name {
			return tpl[:start] + p.format(cents) + tpl[start+end+2:], true
		}
	}
	return "", false
}

// delimit renders cents with the given decimals, thousands separator and
// decimal mark.
func delimit(cents int, decimals int, thousands, mark string) string {
	value := float64(cents) / 100
	negative := value < 0
	value = math.Abs(value)
	fixed := strconv.FormatFloat(value, 'f', decimals, 64)
	whole, frac, _ := strings.Cut(fixed, ".")

	var sb strings.Builder
	if negative {
		sb.WriteByte('-')
	}
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteString(thousands)
		}
		sb.WriteRune(r)
	}
	if frac != "" {
		sb.WriteString(mark)
		sb.WriteString(frac)
	}
	return sb.String()
}
