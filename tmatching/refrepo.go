// Package tmatching supports the use of tmatch in your Go tests.
//
// Example reads the template from testdata/TestGreeting.tmatch:
//
//	func TestGreeting(t *testing.T) {
//		Error(t, "", strings.NewReader(greet("Bob")))
//	}
//
// Template:
//
//	%ignore html
//	<p id="{{match ID /[0-9a-f]+/}}">
//	  Hello {{/[A-Z][a-z]*/}}!
//	  <a href="#{{ID}}">link</a>
//	</p>
//
// For inline templates use Assert:
//
//	A := tmatch.Match(tmatch.Re(`\d`))
//	Assert(t, "Draw ended as 3-3", "Draw ended as ", A, "-", A)
package tmatching

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/fractalqb/tmatch"
)

// When this environment variable is set to a regexp and the name of the current
// test matches calls to Error or Fatal will record the subj as new template
// instead of comparing it. E.g.
//
//	TMATCH_RECORD=TestRecording go test .
const RecordEnv = "TMATCH_RECORD"

// GoTestdataDir is the name of Go's default directory for testdata (see go help
// test).
const GoTestdataDir = "testdata"

func Error(t testing.TB, hint string, subj io.Reader) ([]string, error) {
	t.Helper()
	return defaultConfig.Error(t, hint, subj)
}

func Fatal(t testing.TB, hint string, subj io.Reader) []string {
	t.Helper()
	return defaultConfig.Fatal(t, hint, subj)
}

func Record(t testing.TB, hint string, subj io.Reader) {
	t.Helper()
	defaultConfig.Record(t, hint, subj)
}

// Assert matches ref against the template made from parts with tmatch.Tmpl
// and reports a mismatch with t.Error.
func Assert(t testing.TB, ref string, parts ...any) []string {
	t.Helper()
	caps, err := tmatch.AssertMatches(ref).Parts(parts...)
	if err != nil {
		t.Error(err)
	}
	return caps
}

// AssertHTML is like Assert but ignores whitespace around line breaks.
func AssertHTML(t testing.TB, ref string, parts ...any) []string {
	t.Helper()
	caps, err := tmatch.AssertHTML(ref).Parts(parts...)
	if err != nil {
		t.Error(err)
	}
	return caps
}

type RefRepo struct {
	Dir    string
	Suffix string
}

const (
	StdSuffix = ".tmatch"
	NoSuffix  = "\x00"
)

func (rr RefRepo) Filename(t testing.TB, hint string) string {
	suffix := rr.Suffix
	switch suffix {
	case "":
		suffix = StdSuffix
	case NoSuffix:
		suffix = ""
	}
	if hint == "" {
		return filepath.Join(rr.Dir, t.Name()+suffix)
	}
	if suffix == "" || strings.HasSuffix(hint, suffix) {
		return filepath.Join(rr.Dir, t.Name(), hint)
	}
	return filepath.Join(rr.Dir, t.Name(), hint+suffix)
}

type Config struct {
	TemplateFile    func(t testing.TB, hint string) string
	RecordOverwrite bool
	// KeepSubject writes a mismatching subject next to its template file.
	KeepSubject bool
	// Ignore is used for templates that have no ignore directive.
	Ignore tmatch.Normalizer
}

var defaultConfig = Config{
	TemplateFile:    RefRepo{Dir: GoTestdataDir}.Filename,
	RecordOverwrite: false,
	KeepSubject:     true,
}

func (cfg Config) Error(t testing.TB, hint string, subj io.Reader) ([]string, error) {
	t.Helper()
	if recordTest(t) {
		cfg.Record(t, hint, subj)
		return nil, nil
	}
	caps, err := cfg.compare(t, hint, subj)
	if err != nil {
		MismatchError(t, hint, err)
	}
	return caps, err
}

func (cfg Config) Fatal(t testing.TB, hint string, subj io.Reader) []string {
	t.Helper()
	if recordTest(t) {
		cfg.Record(t, hint, subj)
		return nil
	}
	caps, err := cfg.compare(t, hint, subj)
	if err != nil {
		MismatchError(t, hint, err)
		t.FailNow()
	}
	return caps
}

func recordTest(t testing.TB) bool {
	rec := os.Getenv(RecordEnv)
	if rec == "" {
		return false
	}
	r, err := regexp.Compile(rec)
	if err != nil {
		t.Logf("tmatching: invalid regexp '%s' in %s, not recording: %s", rec, RecordEnv, err)
		return false
	}
	return r.MatchString(t.Name())
}

func (cfg *Config) compare(t testing.TB, hint string, subj io.Reader) (caps []string, err error) {
	tmplfile := cfg.TemplateFile(t, hint)
	if _, err := os.Stat(tmplfile); os.IsNotExist(err) {
		t.Logf("to record a template file run '%[1]s=%[2]s go test -run %[2]s'",
			RecordEnv,
			t.Name(),
		)
		return nil, fmt.Errorf("template file %s does not exists", tmplfile)
	}
	tf, err := tmatch.OpenTemplate(tmplfile)
	if err != nil {
		return nil, err
	}
	text, err := io.ReadAll(subj)
	if err != nil {
		return nil, err
	}
	chk := tf.Checker(string(text))
	if tf.Ignore == nil && cfg.Ignore != nil {
		chk = chk.Ignore(cfg.Ignore)
	}
	if caps, err = chk.Match(tf.Template); err == nil || !cfg.KeepSubject {
		return caps, err
	}
	keepfile := strings.TrimSuffix(tmplfile, filepath.Ext(tmplfile))
	k, kerr := os.CreateTemp(filepath.Dir(keepfile), filepath.Base(keepfile)+".")
	if kerr != nil {
		return nil, errors.Join(err, kerr)
	}
	defer k.Close()
	if _, kerr = k.Write(text); kerr != nil {
		return nil, errors.Join(err, kerr)
	}
	t.Logf("kept mismatching subject in %s", k.Name())
	return nil, err
}

func (cfg Config) Record(t testing.TB, hint string, subj io.Reader) {
	t.Helper()
	tmplfile := cfg.TemplateFile(t, hint)
	if _, err := os.Stat(tmplfile); !os.IsNotExist(err) && !cfg.RecordOverwrite {
		t.Fatalf("TestRecord: template file '%s' already exists", tmplfile)
	}
	dir := filepath.Dir(tmplfile)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err = os.MkdirAll(dir, 0777); err != nil {
			t.Fatal(err)
		}
	}
	wr, err := os.Create(tmplfile)
	if err != nil {
		t.Fatal(err)
	}
	defer wr.Close()
	if err = (tmatch.Prepare{}).Text(wr, subj); err != nil {
		t.Error(err)
	}
	t.Errorf("tmatch test-recorder wrote: %s", tmplfile)
}

// MismatchError reports err with t.Error. For a *tmatch.MatchError, the
// position and the involved matcher are logged in addition.
func MismatchError(t testing.TB, hint string, err error) {
	t.Helper()
	if hint == "" {
		hint = "subject"
	}
	var merr *tmatch.MatchError
	if !errors.As(err, &merr) {
		t.Errorf("%s: %s", hint, err)
		return
	}
	t.Errorf("%s:%d: %s", hint, merr.Pos, err)
	pad := strings.Repeat(" ", len(hint))
	if merr.Pattern != "" {
		t.Logf("%s matcher %s", pad, merr.Pattern)
	}
	if merr.Expected != "" {
		t.Logf("%s expected [%s]", pad, merr.Expected)
	}
}
