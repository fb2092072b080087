package tmatch

import (
	"regexp"
)

// Normalizer transforms texts before they are matched, e.g. to ignore
// formatting that is irrelevant for a test.
type Normalizer interface {
	Normalize(s string) string
}

// NormalizeFunc adapts a function to a Normalizer.
type NormalizeFunc func(string) string

func (f NormalizeFunc) Normalize(s string) string { return f(s) }

// StripPattern removes all matches of rx.
func StripPattern(rx Regexp) Normalizer {
	if rx == nil {
		panic("tmatch: nil regexp")
	}
	return stripper{rx}
}

// StripString removes all case-insensitive matches of the regular expression
// expr.
func StripString(expr string) (Normalizer, error) {
	rx, err := regexp.Compile("(?i)" + expr)
	if err != nil {
		return nil, err
	}
	return stripper{rx}, nil
}

// MustStripString is like StripString but panics on error.
func MustStripString(expr string) Normalizer {
	n, err := StripString(expr)
	if err != nil {
		panic(err)
	}
	return n
}

type stripper struct{ rx Regexp }

func (s stripper) Normalize(str string) string { return s.rx.ReplaceAllString(str, "") }

var newlineSpace = regexp.MustCompile(`\s*\n\s*`)

// NewlineSpace removes all whitespace runs that contain a line break. This
// lets one lay out the literals of a template in many lines to match a text
// that has no line breaks and vice versa.
func NewlineSpace() Normalizer { return stripper{newlineSpace} }
