package tmatch

import (
	"git.fractalqb.de/fractalqb/icontainer/islist"
)

// Checker asserts that a reference text matches templates. A Checker is
// immutable and can be used concurrently.
type Checker struct {
	raw  string
	ref  string
	norm Normalizer
}

// AssertMatches returns a checker for the reference text ref.
func AssertMatches(ref string) *Checker {
	return &Checker{raw: ref, ref: ref}
}

// AssertHTML returns a checker for ref that ignores whitespace around line
// breaks in the reference and in the literals of templates.
func AssertHTML(ref string) *Checker {
	return AssertMatches(ref).Ignore(NewlineSpace())
}

// Ignore returns a checker that normalizes the reference text and all
// literals of a template with n before matching. Interpolated literal values
// and matchers are not affected. With n == nil the returned checker does not
// normalize at all.
func (c *Checker) Ignore(n Normalizer) *Checker {
	res := &Checker{raw: c.raw, ref: c.raw, norm: n}
	if n != nil {
		res.ref = n.Normalize(c.raw)
	}
	return res
}

// Ref returns the reference text as it is used for matching.
func (c *Checker) Ref() string { return c.ref }

// Check matches the reference against a template given in the shape of a
// tagged template literal, see NewTemplate.
func (c *Checker) Check(literals []string, values ...any) ([]string, error) {
	t, err := NewTemplate(literals, values...)
	if err != nil {
		return nil, err
	}
	return c.Match(t)
}

// Parts matches the reference against the template built by Tmpl(parts...).
// Unlike with Check, normalization also applies to non-matcher parts.
func (c *Checker) Parts(parts ...any) ([]string, error) {
	t, err := Tmpl(parts...)
	if err != nil {
		return nil, err
	}
	return c.Match(t)
}

// Match matches the reference against t. It returns the texts captured by the
// matchers of t in the order of their occurrence. On mismatch, the error is a
// *MatchError or the unchanged error of a matcher function.
func (c *Checker) Match(t *Template) ([]string, error) {
	lits := t.literals
	if c.norm != nil {
		lits = make([]string, len(t.literals))
		for i, l := range t.literals {
			lits[i] = c.norm.Normalize(l)
		}
	}
	return match(c.ref, lits, t.segs)
}

func match(ref string, lits []string, segs []segment) (caps []string, err error) {
	var (
		ids     identities
		at, n   int
		matched string
	)
	for i, seg := range segs {
		if n, err = consume(ref, at, lits[i]); err != nil {
			return nil, err
		}
		at += n
		m := seg.m
		if m == nil {
			if n, err = consume(ref, at, seg.lit); err != nil {
				return nil, err
			}
			at += n
			continue
		}
		if matched, err = m.Match(ref[at:]); err != nil {
			return nil, locate(err, ref, at)
		}
		caps = append(caps, matched)
		if prev, ok := ids.lookup(m.id); m.class && ok {
			if prev != matched {
				return nil, &MatchError{
					Kind:     ErrIdentity,
					Pos:      at,
					Context:  ref[:at],
					Expected: prev,
					Actual:   matched,
					Pattern:  m.String(),
					ID:       m.id,
				}
			}
		} else {
			ids.bind(m.id, matched)
		}
		if m.unique {
			if other := ids.collision(m.id, matched); other != nil {
				return nil, &MatchError{
					Kind:    ErrUnique,
					Pos:     at,
					Context: ref[:at],
					Actual:  matched,
					Pattern: m.String(),
					ID:      m.id,
					OtherID: other.id,
				}
			}
		}
		at += len(matched)
	}
	if tail, rest := lits[len(lits)-1], ref[at:]; rest != tail {
		return nil, &MatchError{
			Kind:     ErrTrailing,
			Pos:      at,
			Context:  ref[:at],
			Expected: tail,
			Actual:   rest,
		}
	}
	return caps, nil
}

// consume checks that lit is a prefix of ref[at:]
func consume(ref string, at int, lit string) (int, error) {
	s := ref[at:]
	if len(s) > len(lit) {
		s = s[:len(lit)]
	}
	if s != lit {
		return 0, &MatchError{
			Kind:     ErrLiteral,
			Pos:      at,
			Context:  ref[:at],
			Expected: lit,
			Actual:   s,
		}
	}
	return len(lit), nil
}

// binding is what one identity captured. Bindings are kept in the order
// identities first appear to make uniqueness diagnostics reproducible.
type binding struct {
	id, value string
	next      *binding
}

// ListNext to implement intrusive singly linked list
func (b *binding) ListNext() islist.Node {
	if b.next == nil {
		return nil
	}
	return b.next
}

// SetListNext to implement intrusive singly linked list
func (b *binding) SetListNext(n islist.Node) {
	if n == nil {
		b.next = nil
	} else {
		b.next = n.(*binding)
	}
}

// identities is the identity→value map of one match
type identities struct {
	index map[string]*binding
	order *islist.List
}

func (ids *identities) lookup(id string) (string, bool) {
	if b := ids.index[id]; b != nil {
		return b.value, true
	}
	return "", false
}

func (ids *identities) bind(id, value string) {
	if b := ids.index[id]; b != nil {
		b.value = value
		return
	}
	b := &binding{id: id, value: value}
	if ids.order == nil {
		ids.index = make(map[string]*binding)
		ids.order = islist.New(b)
	} else {
		ids.order.PushBack(b)
	}
	ids.index[id] = b
}

// collision returns the first binding of another identity with value
func (ids *identities) collision(id, value string) *binding {
	if ids.order == nil || ids.order.Len() == 0 {
		return nil
	}
	for b := ids.order.Front().(*binding); b != nil; b = b.next {
		if b.id != id && b.value == value {
			return b
		}
	}
	return nil
}
