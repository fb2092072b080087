package tmatch

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"git.fractalqb.de/fractalqb/testerr"
	"github.com/coregx/coregex"
)

func ExampleAssertMatches() {
	A := Match(Re(`\d`))
	caps, err := AssertMatches("Draw ended as 3-3").Parts("Draw ended as ", A, "-", A)
	fmt.Println(caps, err)
	_, err = AssertMatches("Draw ended as 3-4").Parts("Draw ended as ", A, "-", A)
	fmt.Println(errors.Is(err, ErrIdentity))
	fmt.Println(err)
	// Output:
	// [3 3] <nil>
	// true
	// at Draw ended as 3-
	// match /\d/ failed (3 vs 4)
}

func expectErr(t *testing.T, err, kind error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %s", kind)
	}
	if !errors.Is(err, kind) {
		t.Fatalf("expected error %s, have: %s", kind, err)
	}
	if msg != "" && !strings.Contains(err.Error(), msg) {
		t.Errorf("error message [%s] does not contain [%s]", err, msg)
	}
}

func TestMatcher_Match(t *testing.T) {
	t.Run("whole string", func(t *testing.T) {
		m := Match(Re(`.*`))
		if res := testerr.Shall1(m.Match("test")).BeNil(t); res != "test" {
			t.Errorf("matched '%s'", res)
		}
	})
	t.Run("partial string", func(t *testing.T) {
		m := Match(Re(`[^_]+`))
		if res := testerr.Shall1(m.Match("test_noname")).BeNil(t); res != "test" {
			t.Errorf("matched '%s'", res)
		}
	})
	t.Run("no match", func(t *testing.T) {
		_, err := Match(Re(`middle`)).Match("ok?")
		expectErr(t, err, ErrNoMatch, "regex did not match ok? /middle/")
	})
	t.Run("not at start", func(t *testing.T) {
		_, err := Match(Re(`middle`)).Match("a_middle_b")
		expectErr(t, err, ErrNotAtStart, "regex did not match at start a_middle_b /middle/")
		if strings.HasPrefix(err.Error(), "at ") {
			t.Errorf("unexpected context in [%s]", err)
		}
	})
	t.Run("fast engine", func(t *testing.T) {
		m := Any(Fast(`\d+`))
		if res := testerr.Shall1(m.Match("1234 end")).BeNil(t); res != "1234" {
			t.Errorf("matched '%s'", res)
		}
		_, err := m.Match("end 1234")
		expectErr(t, err, ErrNotAtStart, "")
	})
}

func TestMatcher_identity(t *testing.T) {
	a, b := Match(Re(`\d`)), Match(Re(`\d`))
	if a.ID() == b.ID() {
		t.Errorf("independent matchers share ID '%s'", a.ID())
	}
	if !strings.HasPrefix(a.ID(), `/\d/#`) {
		t.Errorf("unexpected default ID '%s'", a.ID())
	}
	c := Unique(Re(`\d`), WithID("c"))
	if c.ID() != "c" || !c.IsClass() || !c.IsUnique() {
		t.Errorf("unexpected unique matcher %s %t %t", c.ID(), c.IsClass(), c.IsUnique())
	}
	if a := Any(Re(`x`)); a.IsClass() || a.IsUnique() {
		t.Error("any matcher is class or unique")
	}
	if s := a.String(); s != `/\d/` {
		t.Errorf("regexp matcher renders as '%s'", s)
	}
	f := Any(Func(func(s string) (string, error) { return s, nil }), WithID("rest"))
	if s := f.String(); s != "rest" {
		t.Errorf("func matcher renders as '%s'", s)
	}
}

func TestAssertMatches(t *testing.T) {
	const html = `<x class="cc2417530138_noname c2c420bfc" theme="[object Object]">test</x><style>.c2c420bfc{color:blue;}</style>`

	t.Run("whole string", func(t *testing.T) {
		caps := testerr.Shall1(AssertMatches("abc").Parts("a", Match(Re(`b`)), "c")).BeNil(t)
		if !slices.Equal(caps, []string{"b"}) {
			t.Errorf("captures %v", caps)
		}
	})
	t.Run("no match", func(t *testing.T) {
		_, err := AssertMatches("abc").Parts("a", Match(Re(`c`)), "c")
		expectErr(t, err, ErrNotAtStart, "at a\n")
	})
	t.Run("same class same value", func(t *testing.T) {
		b := Match(Re(`b`))
		testerr.Shall1(AssertMatches("abcb").Parts("a", b, "c", b)).BeNil(t)
	})
	t.Run("same class different value", func(t *testing.T) {
		b := Match(Re(`.`))
		_, err := AssertMatches("abcd").Parts("a", b, "c", b)
		expectErr(t, err, ErrIdentity, "match /./ failed (b vs d)")
		var merr *MatchError
		if !errors.As(err, &merr) || merr.Pos != 3 || merr.Context != "abc" {
			t.Errorf("wrong position in %#v", err)
		}
	})
	t.Run("rejects on last literal", func(t *testing.T) {
		_, err := AssertMatches("abcd").Check([]string{"a"})
		expectErr(t, err, ErrTrailing, "'abcd' !== 'a'")
	})
	t.Run("rejects between captures", func(t *testing.T) {
		m := Match(Re(`.`))
		_, err := AssertMatches("aXBXc").Parts("a", m, "b", m, "c")
		expectErr(t, err, ErrLiteral, "at aX\n'B' !== 'b'")
	})
	t.Run("literal values", func(t *testing.T) {
		caps := testerr.Shall1(AssertMatches("aassertOk").Check([]string{"a", ""}, "assertOk")).BeNil(t)
		if len(caps) != 0 {
			t.Errorf("literal values captured %v", caps)
		}
		testerr.Shall1(AssertMatches("a23").Check([]string{"a", ""}, 23)).BeNil(t)
		testerr.Shall1(AssertMatches("a2.5").Check([]string{"a", ""}, 2.5)).BeNil(t)
		testerr.Shall1(AssertMatches("a23").Parts("a", uint8(23))).BeNil(t)
	})
	t.Run("literal value differs", func(t *testing.T) {
		_, err := AssertMatches("a11").Check([]string{"a", ""}, 12)
		expectErr(t, err, ErrLiteral, "'11' !== '12'")
	})
	t.Run("captures only matchers", func(t *testing.T) {
		caps := testerr.Shall1(AssertMatches("x-5").Check(
			[]string{"", "-", ""},
			"x", Re(`\d`),
		)).BeNil(t)
		if !slices.Equal(caps, []string{"5"}) {
			t.Errorf("captures %v", caps)
		}
	})
	t.Run("generated markup", func(t *testing.T) {
		A := Match(Re(`[^_]+`))
		B := Match(Re(`[^"{]+`))
		caps := testerr.Shall1(AssertMatches(html).Parts(
			`<x class="`, A, `_noname `, B, `" theme="[object Object]">test</x><style>.`,
			B, `{color:blue;}</style>`,
		)).BeNil(t)
		if !slices.Equal(caps, []string{"cc2417530138", "c2c420bfc", "c2c420bfc"}) {
			t.Errorf("captures %v", caps)
		}
	})
	t.Run("same regexp different class", func(t *testing.T) {
		A := Match(Re(`[0-9a-z_-]+`))
		B := Match(Re(`[0-9a-z_]+`))
		testerr.Shall1(AssertMatches(html).Parts(
			`<x class="`, A, ` `, B, `" theme="[object Object]">test</x><style>.`,
			B, `{color:blue;}</style>`,
		)).BeNil(t)
	})
	t.Run("shared ID", func(t *testing.T) {
		n1 := Match(Re(`\d`), WithID("n"))
		n2 := Match(Re(`\d+`), WithID("n"))
		testerr.Shall1(AssertMatches("1-1").Parts(n1, "-", n2)).BeNil(t)
		_, err := AssertMatches("1-12").Parts(n1, "-", n2)
		expectErr(t, err, ErrIdentity, "(1 vs 12)")
	})
	t.Run("over-consuming matcher", func(t *testing.T) {
		A := Match(Re(`\w+`))
		_, err := AssertMatches("a_stuff").Parts(A, "_stuff")
		expectErr(t, err, ErrTrailing, "at a_stuff\n'' !== '_stuff'")
	})
	t.Run("text too short", func(t *testing.T) {
		_, err := AssertMatches("ab").Parts("abc", Any(Re(`.*`)))
		expectErr(t, err, ErrLiteral, "'ab' !== 'abc'")
	})
}

func TestUnique(t *testing.T) {
	t.Run("same value other id", func(t *testing.T) {
		A := Unique(Re(`.`), WithID("a"))
		B := Unique(Re(`.`), WithID("b"))
		_, err := AssertMatches("x B x B").Parts("x ", A, " x ", B)
		expectErr(t, err, ErrUnique, "expect 'B' value (id: b) to be unique. Matched by id: a")
	})
	t.Run("different values", func(t *testing.T) {
		A := Unique(Re(`.`), WithID("a"))
		B := Unique(Re(`.`), WithID("b"))
		caps := testerr.Shall1(AssertMatches("x A x B").Parts("x ", A, " x ", B)).BeNil(t)
		if !slices.Equal(caps, []string{"A", "B"}) {
			t.Errorf("captures %v", caps)
		}
	})
	t.Run("repeated unique", func(t *testing.T) {
		A := Unique(Re(`.`))
		testerr.Shall1(AssertMatches("1 1").Parts(A, " ", A)).BeNil(t)
	})
	t.Run("collides with any", func(t *testing.T) {
		A := Any(Re(`.`), WithID("a"))
		U := Unique(Re(`.`), WithID("u"))
		_, err := AssertMatches("B B").Parts(A, " ", U)
		expectErr(t, err, ErrUnique, "Matched by id: a")
	})
	t.Run("first collision reported", func(t *testing.T) {
		A := Any(Re(`.`), WithID("first"))
		B := Any(Re(`.`), WithID("second"))
		U := Unique(Re(`.`), WithID("u"))
		_, err := AssertMatches("xxx").Parts(A, B, U)
		expectErr(t, err, ErrUnique, "Matched by id: first")
	})
}

func TestAny(t *testing.T) {
	t.Run("different values", func(t *testing.T) {
		A := Any(Re(`.`))
		testerr.Shall1(AssertMatches("x B x C").Parts("x ", A, " x ", A)).BeNil(t)
	})
	t.Run("pattern shorthand", func(t *testing.T) {
		A := Re(`.`)
		caps := testerr.Shall1(AssertMatches("a b c d").Parts(A, " ", A, " ", A, " ", A)).BeNil(t)
		if !slices.Equal(caps, []string{"a", "b", "c", "d"}) {
			t.Errorf("captures %v", caps)
		}
	})
	t.Run("compiled regexp shorthand", func(t *testing.T) {
		caps := testerr.Shall1(AssertMatches("a1b2").Parts(
			"a", regexp.MustCompile(`\d`),
			"b", coregex.MustCompile(`\d`),
		)).BeNil(t)
		if !slices.Equal(caps, []string{"1", "2"}) {
			t.Errorf("captures %v", caps)
		}
		_, err := AssertMatches("a1bx").Parts("a", regexp.MustCompile(`\d`), "b", coregex.MustCompile(`\d`))
		expectErr(t, err, ErrNoMatch, "at a1b\nregex did not match x /\\d/")
	})
	t.Run("captures usable", func(t *testing.T) {
		A := Any(Re(`\d`))
		caps := testerr.Shall1(AssertMatches("3 = 6").Parts(A, " = ", A)).BeNil(t)
		a := testerr.Shall1(strconv.Atoi(caps[0])).BeNil(t)
		b := testerr.Shall1(strconv.Atoi(caps[1])).BeNil(t)
		if 2*a != b {
			t.Errorf("unexpected captures %v", caps)
		}
	})
}

func leadingInt(s string) (string, error) {
	end := strings.IndexFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if end < 0 {
		end = len(s)
	}
	if end == 0 {
		return "", fmt.Errorf("no number at '%s'", s)
	}
	return s[:end], nil
}

func TestCustomFunc(t *testing.T) {
	t.Run("plain function", func(t *testing.T) {
		caps := testerr.Shall1(AssertMatches("s 5 b").Parts("s ", leadingInt, " b")).BeNil(t)
		if !slices.Equal(caps, []string{"5"}) {
			t.Errorf("captures %v", caps)
		}
	})
	t.Run("wrapped matcher", func(t *testing.T) {
		A := Match(Re(`.`))
		var captured string
		logA := func(s string) (string, error) {
			res, err := A.Match(s)
			captured = res
			return res, err
		}
		testerr.Shall1(AssertMatches("s 5 b").Parts("s ", logA, " b")).BeNil(t)
		if captured != "5" {
			t.Errorf("captured '%s'", captured)
		}
	})
	t.Run("match func value", func(t *testing.T) {
		var num MatchFunc = leadingInt
		caps := testerr.Shall1(AssertMatches("s 5 b 17").Parts("s ", num, " b ", num)).BeNil(t)
		if !slices.Equal(caps, []string{"5", "17"}) {
			t.Errorf("captures %v", caps)
		}
	})
	t.Run("string function", func(t *testing.T) {
		first := func(s string) string { return s[:1] }
		caps := testerr.Shall1(AssertMatches("xy-z").Parts(first, first, "-", first)).BeNil(t)
		if !slices.Equal(caps, []string{"x", "y", "z"}) {
			t.Errorf("captures %v", caps)
		}
		_, err := AssertMatches("xy").Parts("x", func(string) string { return "z" })
		expectErr(t, err, ErrInvalidResult, `returned "z"`)
	})
	t.Run("error passes unchanged", func(t *testing.T) {
		nope := errors.New("nope")
		_, err := AssertMatches("b").Parts(func(string) (string, error) { return "", nope })
		if err != nope {
			t.Errorf("unexpected error %v", err)
		}
	})
	t.Run("match error passes unchanged", func(t *testing.T) {
		custom := &MatchError{Kind: ErrNoMatch, Pos: -1, Actual: "custom"}
		fail := func(string) (string, error) { return "", custom }
		_, err := AssertMatches("ab").Parts("a", fail)
		if err != custom {
			t.Fatalf("unexpected error %v", err)
		}
		if custom.Pos != -1 || custom.Context != "" || custom.Pattern != "" {
			t.Errorf("custom error was modified: %+v", *custom)
		}
	})
	t.Run("no string result", func(t *testing.T) {
		_, err := AssertMatches(" ").Parts(Loose(func(string) any { return 5 }))
		expectErr(t, err, ErrInvalidResult, "matching func should return the matched string")
	})
	t.Run("not a prefix", func(t *testing.T) {
		_, err := AssertMatches("abc").Parts(Func(func(string) (string, error) { return "bc", nil }))
		expectErr(t, err, ErrInvalidResult, "")
	})
	t.Run("even numbers", func(t *testing.T) {
		even := Loose(func(s string) any {
			n, err := strconv.Atoi(s)
			if err != nil || n%2 != 0 {
				return false
			}
			return strconv.Itoa(n)
		})
		testerr.Shall1(AssertMatches("3 = 6").Parts("3 = ", even)).BeNil(t)
		_, err := AssertMatches("3 = 5").Parts("3 = ", even)
		expectErr(t, err, ErrInvalidResult, "bool(false)")
	})
}

func TestIgnore(t *testing.T) {
	X := MustStripString("X")
	check := func(t *testing.T, ref string, lit string) {
		t.Helper()
		testerr.Shall1(AssertMatches(ref).Ignore(X).Parts(lit)).BeNil(t)
	}
	t.Run("left side", func(t *testing.T) {
		check(t, "XaX", "aX")
		check(t, "aX", "XaX")
	})
	t.Run("right side", func(t *testing.T) {
		check(t, "XaX", "Xa")
		check(t, "Xa", "XaX")
	})
	t.Run("both sides", func(t *testing.T) {
		check(t, "XaX", "a")
		check(t, "a", "XaX")
	})
	t.Run("case insensitive", func(t *testing.T) {
		check(t, "xaX", "a")
	})
	t.Run("function", func(t *testing.T) {
		upper := NormalizeFunc(strings.ToUpper)
		testerr.Shall1(AssertMatches("abc").Ignore(upper).Parts("A", Re(`B`), "c")).BeNil(t)
	})
	t.Run("literal values untouched", func(t *testing.T) {
		_, err := AssertMatches("aXb").Ignore(X).Check([]string{"a", "b"}, "X")
		expectErr(t, err, ErrLiteral, "")
	})
	t.Run("literal parts normalized", func(t *testing.T) {
		ones := MustStripString("1")
		testerr.Shall1(AssertMatches("a12").Ignore(ones).Parts("a", 12)).BeNil(t)
		_, err := AssertMatches("a12").Ignore(ones).Check([]string{"a", ""}, 12)
		expectErr(t, err, ErrLiteral, "'2' !== '12'")
	})
	t.Run("strip compiled pattern", func(t *testing.T) {
		dashes := StripPattern(regexp.MustCompile(`-+`))
		caps := testerr.Shall1(AssertMatches("a--b-c").Ignore(dashes).Parts("a", Re(`.`), "c")).BeNil(t)
		if !slices.Equal(caps, []string{"b"}) {
			t.Errorf("captures %v", caps)
		}
		spaces := StripPattern(coregex.MustCompile(` +`))
		testerr.Shall1(AssertMatches("a b  c").Ignore(spaces).Parts("abc")).BeNil(t)
	})
	t.Run("multiline", func(t *testing.T) {
		testerr.Shall1(AssertMatches("<a>ident me plz</a>").Ignore(NewlineSpace()).Parts(`
  <a>
    ident me plz
  </a>`)).BeNil(t)
	})
	t.Run("invalid multiline", func(t *testing.T) {
		_, err := AssertMatches("<a>ident me plz</a>").Ignore(NewlineSpace()).Parts(`
  <a>f
    ident me plz
  </a>`)
		expectErr(t, err, ErrTrailing, "'<a>ident me plz</a>' !== '<a>fident me plz</a>'")
	})
	t.Run("idempotent", func(t *testing.T) {
		n := NewlineSpace()
		for _, s := range []string{"a \n b", "\n\n", "x", " a\r\n\t<b>\n"} {
			once := n.Normalize(s)
			if twice := n.Normalize(once); twice != once {
				t.Errorf("[%q] → [%q] → [%q]", s, once, twice)
			}
		}
	})
	t.Run("invalid strip expression", func(t *testing.T) {
		if _, err := StripString("("); err == nil {
			t.Error("expected compile error")
		}
	})
}

func TestAssertHTML(t *testing.T) {
	const str = `<x class="cc1357433655_noname c39490774" mycolor="pink"><y class="cc3621825932_noname c5ac6afa3" mycolor="brown"></y><style>.c5ac6afa3{color:red;color:brown;}</style></x><style>.c39490774{color:green;color:pink;}</style>`
	t.Run("real case", func(t *testing.T) {
		A := Any(Re(`[^_]+`))
		B := Match(Re(`[^"{]+`))
		C := Match(Re(`[^"{]+`))
		caps := testerr.Shall1(AssertHTML(str).Parts(`
    <x class="`, A, `_noname `, B, `" mycolor="pink">
      <y class="`, A, `_noname `, C, `" mycolor="brown">
      </y>
      <style>.`, C, `{color:red;color:brown;}</style>
    </x>
    <style>.`, B, `{color:green;color:pink;}</style>`,
		)).BeNil(t)
		expect := []string{
			"cc1357433655", "c39490774",
			"cc3621825932", "c5ac6afa3",
			"c5ac6afa3", "c39490774",
		}
		if !slices.Equal(caps, expect) {
			t.Errorf("captures %v", caps)
		}
	})
	t.Run("symmetric", func(t *testing.T) {
		testerr.Shall1(AssertHTML("<t>\n     </t>").Parts("<t></t>")).BeNil(t)
		testerr.Shall1(AssertHTML("<t></t>").Parts("<t>\n </t>")).BeNil(t)
	})
}

func TestTemplate_values(t *testing.T) {
	if _, err := Tmpl("a", struct{}{}); !errors.Is(err, ErrValueType) {
		t.Errorf("struct value: %v", err)
	}
	if _, err := Tmpl("a", nil); !errors.Is(err, ErrValueType) {
		t.Errorf("nil value: %v", err)
	}
	var m *Matcher
	if _, err := Tmpl("a", m); !errors.Is(err, ErrValueType) {
		t.Errorf("nil matcher: %v", err)
	}
	if _, err := NewTemplate([]string{"a"}, Re(`.`)); err == nil {
		t.Error("accepted template with missing trailing literal")
	}
	tmpl := MustTmpl("a", 1, Re(`.`), "b", Any(Re(`.`)))
	if lits := tmpl.Literals(); !slices.Equal(lits, []string{"a1", "b", ""}) {
		t.Errorf("literals %q", lits)
	}
	if n := tmpl.NumMatchers(); n != 2 {
		t.Errorf("%d matchers", n)
	}
}

func TestMatch_roundTrip(t *testing.T) {
	word := Match(Re(`[a-z]+`))
	num := Unique(Re(`\d+`))
	other := Unique(Re(`\d+`))
	tmpl := MustTmpl("<", word, " n=", num, " m=", other, "/>", word)
	for _, caps := range [][3]string{
		{"a", "1", "2"},
		{"foo", "123", "12"},
		{"x", "0", "00"},
	} {
		ref := fmt.Sprintf("<%s n=%s m=%s/>%s", caps[0], caps[1], caps[2], caps[0])
		res := testerr.Shall1(AssertMatches(ref).Match(tmpl)).BeNil(t)
		expect := []string{caps[0], caps[1], caps[2], caps[0]}
		if !slices.Equal(res, expect) {
			t.Errorf("%s: captures %v", ref, res)
		}
	}
}

func TestMatch_literalOnly(t *testing.T) {
	tmpl := testerr.Shall1(NewTemplate([]string{"foo bar"})).BeNil(t)
	for _, ref := range []string{"foo bar", "foo ba", "foo bar ", ""} {
		_, err := AssertMatches(ref).Match(tmpl)
		switch {
		case ref == "foo bar" && err != nil:
			t.Errorf("'%s': %s", ref, err)
		case ref != "foo bar" && !errors.Is(err, ErrTrailing):
			t.Errorf("'%s': unexpected error %v", ref, err)
		}
	}
}

func TestMatch_concurrent(t *testing.T) {
	A := Match(Re(`\d+`))
	tmpl := MustTmpl("v", A, ".", A)
	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			n := strconv.Itoa(i)
			_, errs[i] = AssertMatches("v" + n + "." + n).Match(tmpl)
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Errorf("%d: %s", i, err)
		}
	}
}
