package tmatch

import (
	"fmt"
	"strconv"
)

// Template is an alternating sequence of literal text and segments. The first
// literal precedes the first segment and a literal, possibly empty, always
// closes the sequence. A segment is either a matcher or an interpolated
// literal value.
type Template struct {
	literals []string
	segs     []segment
}

// segment is a literal value if m is nil
type segment struct {
	lit string
	m   *Matcher
}

// NewTemplate creates a template in the shape of a tagged template literal:
// literals[i] precedes values[i] and the last literal closes the template,
// i.e. len(literals) == len(values)+1 must hold.
//
// Values can be *Matcher, or Pattern, Regexp, MatchFunc, func(string)
// (string, error), func(string) string and func(string) any as a shorthand
// for Any. Strings, []byte and numbers are interpolated literal values. Any
// other value, including nil, is rejected with ErrValueType.
func NewTemplate(literals []string, values ...any) (*Template, error) {
	if len(literals) != len(values)+1 {
		return nil, fmt.Errorf("template needs %d literals for %d values, have %d",
			len(values)+1,
			len(values),
			len(literals),
		)
	}
	t := &Template{
		literals: literals,
		segs:     make([]segment, len(values)),
	}
	for i, v := range values {
		seg, err := valueSegment(v)
		if err != nil {
			return nil, fmt.Errorf("template value %d: %w", i, err)
		}
		t.segs[i] = seg
	}
	return t, nil
}

// Tmpl creates a template from parts in the order they appear. Adjacent
// literal parts are joined to one literal. Parts are interpreted as values
// in NewTemplate. As literal parts become part of the template's literals,
// a Checker's normalization applies to them, while it does not touch literal
// values given to NewTemplate.
func Tmpl(parts ...any) (*Template, error) {
	t := &Template{literals: []string{""}}
	for i, p := range parts {
		seg, err := valueSegment(p)
		if err != nil {
			return nil, fmt.Errorf("template part %d: %w", i, err)
		}
		if seg.m == nil {
			t.literals[len(t.literals)-1] += seg.lit
		} else {
			t.segs = append(t.segs, seg)
			t.literals = append(t.literals, "")
		}
	}
	return t, nil
}

// MustTmpl is like Tmpl but panics on error.
func MustTmpl(parts ...any) *Template {
	t, err := Tmpl(parts...)
	if err != nil {
		panic(err)
	}
	return t
}

// NumMatchers returns the number of captures a successful match returns.
func (t *Template) NumMatchers() (n int) {
	for _, s := range t.segs {
		if s.m != nil {
			n++
		}
	}
	return n
}

// Literals returns the literal texts between the segments.
func (t *Template) Literals() []string { return t.literals }

func valueSegment(v any) (segment, error) {
	switch v := v.(type) {
	case *Matcher:
		if v == nil {
			return segment{}, fmt.Errorf("%w: nil matcher", ErrValueType)
		}
		return segment{m: v}, nil
	case Pattern:
		return segment{m: Any(v)}, nil
	case Regexp:
		return segment{m: Any(Rx(v))}, nil
	case MatchFunc:
		return segment{m: Any(Func(v))}, nil
	case func(string) (string, error):
		return segment{m: Any(Func(v))}, nil
	case func(string) string:
		return segment{m: Any(Func(func(s string) (string, error) { return v(s), nil }))}, nil
	case func(string) any:
		return segment{m: Any(Loose(v))}, nil
	}
	lit, err := literal(v)
	return segment{lit: lit}, err
}

func literal(v any) (string, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "", fmt.Errorf("%w: nil", ErrValueType)
	}
	return "", fmt.Errorf("%w: %T", ErrValueType, v)
}
