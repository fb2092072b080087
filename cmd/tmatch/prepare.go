package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fractalqb/tmatch"
	"github.com/fractalqb/tmatch/tmatching"
)

func (a *app) prepareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prepare [flags] [FILE...]",
		Short: "Prepare basic template files that match the given files",
		RunE: func(cmd *cobra.Command, files []string) error {
			return a.prepareFiles(files)
		},
	}
	cmd.Flags().StringP("suffix", "s", tmatching.StdSuffix,
		"Set file suffix for created template files")
	cmd.Flags().BoolP("force", "f", false,
		"Force to overwrite existing template files")
	cmd.Flags().String("engine", "",
		"Write engine directive (std or fast)")
	cmd.Flags().Bool("html", false,
		"Write directive to ignore whitespace around line breaks")
	a.cfg.BindPFlag("suffix", cmd.Flags().Lookup("suffix"))
	a.cfg.BindPFlag("force", cmd.Flags().Lookup("force"))
	a.cfg.BindPFlag("engine", cmd.Flags().Lookup("engine"))
	a.cfg.BindPFlag("prepare-html", cmd.Flags().Lookup("html"))
	return cmd
}

func (a *app) preparer() (prep tmatch.Prepare, err error) {
	switch eng := a.cfg.GetString("engine"); eng {
	case "", tmatch.EngineStd, tmatch.EngineFast:
		prep.Engine = eng
	default:
		return prep, fmt.Errorf("unknown regexp engine '%s'", eng)
	}
	if a.cfg.GetBool("prepare-html") {
		prep.Ignore = "html"
	}
	return prep, nil
}

func (a *app) prepareFiles(files []string) error {
	prep, err := a.preparer()
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return prep.Text(a.out, a.in)
	}
	for _, f := range files {
		if err := a.prepareFile(prep, f); err != nil {
			return err
		}
	}
	return nil
}

func (a *app) prepareFile(prep tmatch.Prepare, name string) error {
	tmplfile := name + a.cfg.GetString("suffix")
	if _, err := os.Stat(tmplfile); !os.IsNotExist(err) && !a.cfg.GetBool("force") {
		return fmt.Errorf("%s already exists", tmplfile)
	}
	rd, err := os.Open(name)
	if err != nil {
		return err
	}
	defer rd.Close()
	wr, err := os.Create(tmplfile)
	if err != nil {
		return err
	}
	defer wr.Close()
	if err = prep.Text(wr, rd); err != nil {
		return err
	}
	a.log.Info().Str("subject", name).Str("template", tmplfile).Msg("prepared")
	return nil
}
