package tmatch

import (
	"errors"
	"fmt"
	"strings"
)

// Kinds of match failures. A *MatchError unwraps to exactly one of them, use
// errors.Is to tell them apart.
var (
	// The regexp of a matcher does not match anywhere in the remaining text.
	ErrNoMatch = errors.New("no match")
	// The regexp of a matcher matches, but not at the cursor.
	ErrNotAtStart = errors.New("no match at start")
	// A matcher function did not return a prefix of the remaining text.
	ErrInvalidResult = errors.New("invalid matcher result")
	// A literal segment differs from the text at the cursor.
	ErrLiteral = errors.New("literal mismatch")
	// The trailing literal differs from the rest of the text.
	ErrTrailing = errors.New("trailing literal mismatch")
	// Two occurrences of the same class matcher captured different text.
	ErrIdentity = errors.New("identity mismatch")
	// A unique matcher captured text already captured by another identity.
	ErrUnique = errors.New("uniqueness violation")
)

// ErrValueType is returned when a template is built from a value that is
// neither a literal nor a matcher.
var ErrValueType = errors.New("unsupported template value")

// MatchError describes why a reference text does not match a template. The
// text returned by Error is meant to be read by humans and by tools that grep
// test logs, so its layout is kept stable.
type MatchError struct {
	Kind error
	// Pos is the byte offset into the reference text where the failing
	// segment starts. It is -1 if the error was not raised while matching a
	// template.
	Pos int
	// Context is the part of the reference text consumed before Pos.
	Context  string
	Expected string
	Actual   string
	// Pattern is the text representation of the involved matcher, if any.
	Pattern string
	ID      string
	OtherID string

	// own is set on errors raised by the patterns of this package. Only
	// those get completed while matching, errors returned by match
	// functions are passed unchanged.
	own bool
}

func (e *MatchError) Error() string {
	var sb strings.Builder
	if e.Pos >= 0 {
		fmt.Fprintf(&sb, "at %s\n", e.Context)
	}
	switch e.Kind {
	case ErrNoMatch:
		fmt.Fprintf(&sb, "regex did not match %s %s", e.Actual, e.Pattern)
	case ErrNotAtStart:
		fmt.Fprintf(&sb, "regex did not match at start %s %s", e.Actual, e.Pattern)
	case ErrInvalidResult:
		fmt.Fprintf(&sb, "matching func should return the matched string (%s returned %s)",
			e.Pattern,
			e.Actual,
		)
	case ErrLiteral, ErrTrailing:
		fmt.Fprintf(&sb, "'%s' !== '%s'", e.Actual, e.Expected)
	case ErrIdentity:
		fmt.Fprintf(&sb, "match %s failed (%s vs %s)", e.Pattern, e.Expected, e.Actual)
	case ErrUnique:
		fmt.Fprintf(&sb, "expect '%s' value (id: %s) to be unique. Matched by id: %s",
			e.Actual,
			e.ID,
			e.OtherID,
		)
	default:
		fmt.Fprintf(&sb, "%s: %s", e.Kind, e.Actual)
	}
	return sb.String()
}

func (e *MatchError) Unwrap() error { return e.Kind }

func patternError(kind error, actual, pattern string) *MatchError {
	return &MatchError{
		Kind:    kind,
		Pos:     -1,
		Actual:  actual,
		Pattern: pattern,
		own:     true,
	}
}

// locate attaches the cursor position to errors that were raised by a
// matcher pattern. Other errors pass unchanged.
func locate(err error, ref string, at int) error {
	if merr, ok := err.(*MatchError); ok && merr.own && merr.Pos < 0 {
		merr.Pos = at
		merr.Context = ref[:at]
	}
	return err
}

// SyntaxError reports a problem in a template text.
type SyntaxError struct {
	Src  string
	Line int
	Col  int
	err  error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d:%s", e.Src, e.Line, e.Col, e.err)
}

func (e *SyntaxError) Unwrap() error { return e.err }
