package tmatch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Line tags of the template preamble
const (
	// Marks a comment line in the preamble.
	TagComment = '#'
	// Marks a directive line in the preamble. The line "%%" ends the
	// preamble explicitly.
	TagDirective = '%'
)

// Preamble directives
const (
	// Select the regexp engine for the template's matchers: "std" or "fast".
	DirEngine = "engine"
	// Set the normalization: "newline", "html" or a /regexp/ to strip.
	DirIgnore = "ignore"
)

const (
	EngineStd  = "std"
	EngineFast = "fast"
)

// Placeholder delimiters
const (
	PlaceOpen  = "{{"
	PlaceClose = "}}"
)

// TemplateFile is a template read from its text representation. The text
// starts with an optional preamble of comment and directive lines followed
// by the template body. In the body, everything outside of placeholders is
// literal text. Placeholders are:
//
//	{{match NAME /regexp/}}   define and use a named class matcher
//	{{unique NAME /regexp/}}  define and use a named unique matcher
//	{{any NAME /regexp/}}     define and use a named any matcher
//	{{match /regexp/}}        use an anonymous matcher of the given kind
//	{{/regexp/}}              use an anonymous any matcher
//	{{NAME}}                  use the matcher defined before as NAME
//	{{"text"}}                interpolate a Go-quoted literal, e.g. {{"{{"}}
//
// Inside a regexp, `\/` is a literal slash.
type TemplateFile struct {
	Name     string
	Engine   string
	Template *Template
	// Ignore is nil if the template has no ignore directive.
	Ignore Normalizer
}

// ParseTemplate parses the template text. name is only used in error
// messages.
func ParseTemplate(name, text string) (*TemplateFile, error) {
	return Loader{}.Parse(name, text)
}

func ReadTemplate(name string, r io.Reader) (*TemplateFile, error) {
	return Loader{}.Read(name, r)
}

func OpenTemplate(file string) (*TemplateFile, error) {
	return Loader{}.Open(file)
}

// Loader reads template texts with settings that an engine directive in
// the template still overrides.
type Loader struct {
	// Engine is used for templates without engine directive. The zero value
	// selects EngineStd.
	Engine string
}

func (l Loader) Parse(name, text string) (*TemplateFile, error) {
	p := templParser{
		tf:    &TemplateFile{Name: name, Engine: EngineStd},
		text:  text,
		named: make(map[string]*Matcher),
	}
	switch l.Engine {
	case "":
	case EngineStd, EngineFast:
		p.tf.Engine = l.Engine
	default:
		return nil, fmt.Errorf("unknown regexp engine '%s'", l.Engine)
	}
	if err := p.preamble(); err != nil {
		return nil, err
	}
	if err := p.body(); err != nil {
		return nil, err
	}
	return p.tf, nil
}

func (l Loader) Read(name string, r io.Reader) (*TemplateFile, error) {
	if r == nil {
		return nil, errors.New("nil reader")
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return l.Parse(name, string(text))
}

func (l Loader) Open(file string) (*TemplateFile, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return l.Read(file, r)
}

// Checker returns a checker for ref that applies the template's
// normalization.
func (tf *TemplateFile) Checker(ref string) *Checker {
	return AssertMatches(ref).Ignore(tf.Ignore)
}

// Check matches ref against the template.
func (tf *TemplateFile) Check(ref string) ([]string, error) {
	return tf.Checker(ref).Match(tf.Template)
}

type templParser struct {
	tf    *TemplateFile
	text  string
	pos   int
	named map[string]*Matcher
}

func (p *templParser) errorf(at int, format string, args ...any) error {
	head := p.text[:at]
	line := strings.Count(head, "\n") + 1
	if i := strings.LastIndexByte(head, '\n'); i >= 0 {
		head = head[i+1:]
	}
	return &SyntaxError{
		Src:  p.tf.Name,
		Line: line,
		Col:  utf8.RuneCountInString(head) + 1,
		err:  fmt.Errorf(format, args...),
	}
}

func (p *templParser) preamble() error {
	for p.pos < len(p.text) {
		line := p.text[p.pos:]
		next := len(p.text)
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
			next = p.pos + i + 1
		}
		line = strings.TrimSuffix(line, "\r")
		switch {
		case line == "":
			return nil
		case line[0] == TagComment:
		case line == "%%":
			p.pos = next
			return nil
		case line[0] == TagDirective:
			if err := p.directive(line[1:]); err != nil {
				return err
			}
		default:
			return nil
		}
		p.pos = next
	}
	return nil
}

func (p *templParser) directive(line string) error {
	dir, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)
	switch dir {
	case DirEngine:
		switch arg {
		case EngineStd, EngineFast:
			p.tf.Engine = arg
		default:
			return p.errorf(p.pos, "unknown regexp engine '%s'", arg)
		}
	case DirIgnore:
		switch {
		case arg == "newline" || arg == "html":
			p.tf.Ignore = NewlineSpace()
		case len(arg) > 1 && arg[0] == '/' && arg[len(arg)-1] == '/':
			expr := strings.ReplaceAll(arg[1:len(arg)-1], `\/`, "/")
			rx, err := regexp.Compile(expr)
			if err != nil {
				return p.errorf(p.pos, "ignore: %w", err)
			}
			p.tf.Ignore = StripPattern(rx)
		default:
			return p.errorf(p.pos, "invalid ignore argument '%s'", arg)
		}
	default:
		return p.errorf(p.pos, "unknown directive '%s'", dir)
	}
	return nil
}

func (p *templParser) body() (err error) {
	var (
		lits []string
		vals []any
		lit  strings.Builder
	)
	for {
		i := strings.Index(p.text[p.pos:], PlaceOpen)
		if i < 0 {
			lit.WriteString(p.text[p.pos:])
			break
		}
		lit.WriteString(p.text[p.pos : p.pos+i])
		p.pos += i + len(PlaceOpen)
		v, err := p.placeholder()
		if err != nil {
			return err
		}
		lits = append(lits, lit.String())
		vals = append(vals, v)
		lit.Reset()
	}
	lits = append(lits, lit.String())
	p.tf.Template, err = NewTemplate(lits, vals...)
	return err
}

func (p *templParser) placeholder() (v any, err error) {
	start := p.pos - len(PlaceOpen)
	p.skipSpace()
	if p.pos >= len(p.text) {
		return nil, p.errorf(start, "unterminated placeholder")
	}
	switch c := p.text[p.pos]; {
	case c == '"' || c == '`':
		q, err := strconv.QuotedPrefix(p.text[p.pos:])
		if err != nil {
			return nil, p.errorf(p.pos, "literal: %w", err)
		}
		p.pos += len(q)
		v, _ = strconv.Unquote(q)
	case c == '/':
		pat, err := p.regex()
		if err != nil {
			return nil, err
		}
		v = Any(pat)
	default:
		wpos := p.pos
		word := p.word()
		switch word {
		case "":
			return nil, p.errorf(wpos, "invalid placeholder")
		case "any", "match", "unique":
			if v, err = p.define(word); err != nil {
				return nil, err
			}
		default:
			m := p.named[word]
			if m == nil {
				return nil, p.errorf(wpos, "undefined matcher '%s'", word)
			}
			v = m
		}
	}
	p.skipSpace()
	if !strings.HasPrefix(p.text[p.pos:], PlaceClose) {
		return nil, p.errorf(p.pos, "expect '%s' to close placeholder", PlaceClose)
	}
	p.pos += len(PlaceClose)
	return v, nil
}

func (p *templParser) define(kind string) (*Matcher, error) {
	p.skipSpace()
	npos := p.pos
	name := p.word()
	if name != "" {
		if p.named[name] != nil {
			return nil, p.errorf(npos, "redefined matcher '%s'", name)
		}
		p.skipSpace()
	}
	if p.pos >= len(p.text) || p.text[p.pos] != '/' {
		return nil, p.errorf(p.pos, "expect /regexp/ for %s matcher", kind)
	}
	pat, err := p.regex()
	if err != nil {
		return nil, err
	}
	var opts []Option
	if name != "" {
		opts = append(opts, WithID(name))
	}
	var m *Matcher
	switch kind {
	case "any":
		m = Any(pat, opts...)
	case "match":
		m = Match(pat, opts...)
	default:
		m = Unique(pat, opts...)
	}
	if name != "" {
		p.named[name] = m
	}
	return m, nil
}

func (p *templParser) regex() (Pattern, error) {
	start := p.pos
	p.pos++
	var expr strings.Builder
	for {
		if p.pos >= len(p.text) {
			return nil, p.errorf(start, "unterminated regexp")
		}
		c := p.text[p.pos]
		switch {
		case c == '/':
			p.pos++
			var (
				pat Pattern
				err error
			)
			if p.tf.Engine == EngineFast {
				pat, err = CompileFast(expr.String())
			} else {
				pat, err = CompileRe(expr.String())
			}
			if err != nil {
				return nil, p.errorf(start, "%w", err)
			}
			return pat, nil
		case c == '\\' && p.pos+1 < len(p.text):
			if p.text[p.pos+1] != '/' {
				expr.WriteByte(c)
			}
			expr.WriteByte(p.text[p.pos+1])
			p.pos += 2
		default:
			expr.WriteByte(c)
			p.pos++
		}
	}
}

func (p *templParser) word() string {
	start := p.pos
	for p.pos < len(p.text) {
		r, sz := utf8.DecodeRuneInString(p.text[p.pos:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '-' && r != '.' {
			break
		}
		p.pos += sz
	}
	return p.text[start:p.pos]
}

func (p *templParser) skipSpace() {
	for p.pos < len(p.text) {
		r, sz := utf8.DecodeRuneInString(p.text[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += sz
	}
}
