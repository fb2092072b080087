/*
Package tmatch asserts that a text conforms to a template. A template is a
sequence of literal text interleaved with matchers. Literals must appear
verbatim in the text while matchers consume the variable parts, e.g.
generated identifiers in markup, and capture what they consumed:

	A := tmatch.Match(tmatch.Re(`\d`))
	caps, err := tmatch.AssertMatches("Draw ended as 3-3").
		Parts("Draw ended as ", A, "-", A)
	// caps == []string{"3", "3"}, err == nil

The text is matched strictly from left to right without backtracking. Each
literal must be found exactly at the current position and each matcher must
match right there. This makes failures easy to locate but requires matchers
that stop at the right place: with

	> a_stuff

the template "{{match /\w+/}}_stuff" fails because \w+ already consumes
"_stuff". The trailing literal must be equal to the complete rest of the text.

# Matchers

There are three kinds of matchers:

	Any    captures whatever its pattern matches
	Match  all occurrences of the same identity must capture the same text
	Unique like Match, and no other identity may have captured the same text

Each matcher has its own identity unless one is set with WithID. Matchers with
the same ID share their identity in one match. Patterns are regular
expressions (Re, Fast or Rx) or functions (Func, Loose). A regular expression
pattern must match at the current position, a function must return a prefix
of the text it gets.

	A := tmatch.Unique(tmatch.Re(`\d`))
	B := tmatch.Unique(tmatch.Re(`\d`))
	tmatch.AssertMatches("3 = 6").Parts(A, " = ", B) // ok
	tmatch.AssertMatches("3 = 3").Parts(A, " = ", B) // ErrUnique

# Ignoring Layout

A checker created with Ignore normalizes the text and all literals before
matching. AssertHTML ignores whitespace around line breaks, i.e. templates can
be written in a readable layout:

	tmatch.AssertHTML(`<t></t>`).Parts("<t>\n  </t>") // ok

# Template Texts

Templates can also be written as text, see TemplateFile. This is what the
tmatch command and package tmatching use.

	%ignore html
	<x class="{{match A /[^_]+/}}_noname {{match B /[^"{]+/}}">
	  <style>.{{B}}{color:blue;}</style>
	</x>
*/
package tmatch
