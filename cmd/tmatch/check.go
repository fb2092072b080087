package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fractalqb/tmatch"
)

func (a *app) checkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [flags] [FILE...]",
		Short: "Check subject files against a template",
		RunE: func(cmd *cobra.Command, files []string) error {
			return a.checkFiles(files)
		},
	}
	cmd.Flags().StringP("template", "t", "", "Set template file name")
	cmd.MarkFlagRequired("template")
	cmd.Flags().Bool("html", false, "Ignore whitespace around line breaks")
	cmd.Flags().String("ignore", "", "Strip all matches of this regexp before matching")
	cmd.Flags().BoolP("print", "p", false, "Print captures to stdout, one per line")
	cmd.Flags().String("engine", "",
		"Regexp engine (std or fast) for templates without engine directive")
	a.cfg.BindPFlag("template", cmd.Flags().Lookup("template"))
	a.cfg.BindPFlag("html", cmd.Flags().Lookup("html"))
	a.cfg.BindPFlag("ignore", cmd.Flags().Lookup("ignore"))
	a.cfg.BindPFlag("print", cmd.Flags().Lookup("print"))
	a.cfg.BindPFlag("check-engine", cmd.Flags().Lookup("engine"))
	return cmd
}

// normalizer returns the normalization from the settings, nil if none is set
func (a *app) normalizer() (tmatch.Normalizer, error) {
	switch ign := a.cfg.GetString("ignore"); {
	case a.cfg.GetBool("html"):
		if ign != "" {
			return nil, errors.New("cannot combine html and ignore")
		}
		return tmatch.NewlineSpace(), nil
	case ign != "":
		return tmatch.StripString(ign)
	}
	return nil, nil
}

func (a *app) checkFiles(files []string) error {
	ld := tmatch.Loader{Engine: a.cfg.GetString("check-engine")}
	tf, err := ld.Open(a.cfg.GetString("template"))
	if err != nil {
		return err
	}
	norm, err := a.normalizer()
	if err != nil {
		return err
	}
	if norm != nil {
		tf.Ignore = norm
	}
	if len(files) == 0 {
		if !a.checkReader(tf, "stdin", a.in) {
			return errors.New("stdin does not match")
		}
		return nil
	}
	failed := 0
	for _, f := range files {
		if !a.checkFile(tf, f) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d subjects do not match", failed, len(files))
	}
	return nil
}

func (a *app) checkFile(tf *tmatch.TemplateFile, subj string) bool {
	r, err := os.Open(subj)
	if err != nil {
		a.log.Error().Err(err).Str("subject", subj).Msg("cannot open")
		return false
	}
	defer r.Close()
	return a.checkReader(tf, subj, r)
}

func (a *app) checkReader(tf *tmatch.TemplateFile, sname string, subj io.Reader) bool {
	text, err := io.ReadAll(subj)
	if err != nil {
		a.log.Error().Err(err).Str("subject", sname).Msg("cannot read")
		return false
	}
	caps, err := tf.Check(string(text))
	if err != nil {
		ev := a.log.Error().
			Str("subject", sname).
			Str("template", tf.Name).
			Str("engine", tf.Engine)
		var merr *tmatch.MatchError
		if errors.As(err, &merr) {
			ev = ev.Int("pos", merr.Pos)
			if merr.Pattern != "" {
				ev = ev.Str("matcher", merr.Pattern)
			}
		}
		ev.Msg(err.Error())
		return false
	}
	a.log.Info().
		Str("subject", sname).
		Str("template", tf.Name).
		Str("engine", tf.Engine).
		Strs("captures", caps).
		Msg("subject matches")
	if a.cfg.GetBool("print") {
		io.WriteString(a.out, strings.Join(caps, "\n"))
		if len(caps) > 0 {
			io.WriteString(a.out, "\n")
		}
	}
	return true
}
