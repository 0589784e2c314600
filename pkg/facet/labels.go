package facet

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// LookupLabel maps axis values through a fixed table. Unknown values
// produce "".
func LookupLabel(table map[string]string) func(string) string {
	return func(value string) string {
		return table[value]
	}
}

// TitleLabel turns "fresh-citrus" into "Fresh Citrus" followed by suffix.
// The All value produces allLabel.
func TitleLabel(allLabel, suffix string) func(string) string {
	return func(value string) string {
		if value == "" || value == All {
			return allLabel
		}
		return titleWords(value) + suffix
	}
}

func titleWords(value string) string {
	words := strings.Split(value, "-")
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if size == 0 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}
