package tmatch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/coregx/coregex"
)

// Regexp is the part of a compiled regular expression a matcher needs. Both
// *regexp.Regexp and *coregex.Regex implement it.
type Regexp interface {
	FindStringIndex(s string) []int
	ReplaceAllString(src, repl string) string
	String() string
}

// Pattern decides how much of the remaining reference text a matcher
// consumes. The set of patterns is closed, use Re, Fast, Rx, Func or Loose to
// create one.
type Pattern interface {
	// match returns the prefix of s that is matched.
	match(s string) (string, error)
	String() string
}

// MatchFunc gets the unconsumed rest of the reference text and returns the
// prefix it matches. Errors are passed to the caller of the template match
// unchanged.
type MatchFunc func(s string) (string, error)

// Re compiles expr with Go's regexp package. Lazy quantifiers work as known
// from Perl. Re panics if expr does not compile.
func Re(expr string) Pattern {
	return regexpPattern{regexp.MustCompile(expr)}
}

// CompileRe is like Re but returns an error instead of panicking.
func CompileRe(expr string) (Pattern, error) {
	rx, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return regexpPattern{rx}, nil
}

// Fast compiles expr with the coregex engine. coregex documents
// leftmost-longest semantics, use Re for patterns that rely on lazy
// quantifiers. Fast panics if expr does not compile.
func Fast(expr string) Pattern {
	return regexpPattern{coregex.MustCompile(expr)}
}

// CompileFast is like Fast but returns an error instead of panicking.
func CompileFast(expr string) (Pattern, error) {
	rx, err := coregex.Compile(expr)
	if err != nil {
		return nil, err
	}
	return regexpPattern{rx}, nil
}

// Rx uses an already compiled regular expression as pattern.
func Rx(rx Regexp) Pattern {
	if rx == nil {
		panic("tmatch: nil regexp")
	}
	return regexpPattern{rx}
}

// Func uses a function as pattern.
func Func(f MatchFunc) Pattern {
	if f == nil {
		panic("tmatch: nil match function")
	}
	return funcPattern(f)
}

// Loose uses a function with an untyped result as pattern. The result must be
// a string or a []byte at match time, anything else is an ErrInvalidResult.
func Loose(f func(s string) any) Pattern {
	if f == nil {
		panic("tmatch: nil match function")
	}
	return loosePattern(f)
}

type regexpPattern struct{ rx Regexp }

func (p regexpPattern) match(s string) (string, error) {
	loc := p.rx.FindStringIndex(s)
	switch {
	case loc == nil:
		return "", patternError(ErrNoMatch, s, p.String())
	case loc[0] != 0:
		return "", patternError(ErrNotAtStart, s, p.String())
	}
	return s[:loc[1]], nil
}

func (p regexpPattern) String() string { return "/" + p.rx.String() + "/" }

type funcPattern MatchFunc

func (p funcPattern) match(s string) (string, error) {
	res, err := p(s)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(s, res) {
		return "", patternError(ErrInvalidResult, strconv.Quote(res), "")
	}
	return res, nil
}

func (p funcPattern) String() string { return "func" }

type loosePattern func(string) any

func (p loosePattern) match(s string) (string, error) {
	var res string
	switch r := p(s).(type) {
	case string:
		res = r
	case []byte:
		res = string(r)
	case error:
		return "", r
	default:
		return "", patternError(ErrInvalidResult, fmt.Sprintf("%T(%v)", r, r), "")
	}
	if !strings.HasPrefix(s, res) {
		return "", patternError(ErrInvalidResult, strconv.Quote(res), "")
	}
	return res, nil
}

func (p loosePattern) String() string { return "func" }

var idSeq atomic.Uint64

// Matcher matches one variable segment of a template. Matchers carry no
// state of a specific match and can be reused in many templates and
// concurrently.
type Matcher struct {
	id     string
	pat    Pattern
	class  bool
	unique bool
}

// Option configures a matcher on creation.
type Option func(*Matcher)

// WithID sets the identity of a matcher. Class matchers with the same ID must
// capture the same text within one match. Without WithID each matcher gets
// its own identity.
func WithID(id string) Option {
	return func(m *Matcher) { m.id = id }
}

// Any creates a matcher that captures whatever its pattern matches. Repeated
// occurrences of the matcher need not capture the same text.
func Any(p Pattern, opts ...Option) *Matcher {
	return newMatcher(p, false, false, opts)
}

// Match creates a class matcher. All occurrences of matchers with the same
// identity in one template must capture exactly the same text.
func Match(p Pattern, opts ...Option) *Matcher {
	return newMatcher(p, true, false, opts)
}

// Unique creates a class matcher whose captured text must differ from the
// text captured by all other identities in the same match.
func Unique(p Pattern, opts ...Option) *Matcher {
	return newMatcher(p, true, true, opts)
}

func newMatcher(p Pattern, class, unique bool, opts []Option) *Matcher {
	if p == nil {
		panic("tmatch: nil pattern")
	}
	m := &Matcher{pat: p, class: class, unique: unique}
	for _, opt := range opts {
		opt(m)
	}
	if m.id == "" {
		m.id = p.String() + "#" + strconv.FormatUint(idSeq.Add(1), 10)
	}
	return m
}

func (m *Matcher) ID() string { return m.id }

func (m *Matcher) Pattern() Pattern { return m.pat }

// IsClass tells if occurrences of the matcher's identity must agree.
func (m *Matcher) IsClass() bool { return m.class }

func (m *Matcher) IsUnique() bool { return m.unique }

// Match runs the matcher's pattern on s and returns the matched prefix.
func (m *Matcher) Match(s string) (string, error) {
	res, err := m.pat.match(s)
	if err != nil {
		if merr, ok := err.(*MatchError); ok && merr.own && merr.Pattern == "" {
			merr.Pattern = m.String()
		}
		return "", err
	}
	return res, nil
}

// String renders regexp matchers as /expr/ and function matchers by their ID.
func (m *Matcher) String() string {
	if _, ok := m.pat.(regexpPattern); ok {
		return m.pat.String()
	}
	return m.id
}
