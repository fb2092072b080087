// A command line tool to check texts against tmatch templates
package main

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const templateSyntax = `
TEMPLATE FORMAT

Preamble Lines:
   # comment
   %engine std|fast     Regexp engine for all matchers
   %ignore html|/re/    Ignore whitespace around line breaks or strip /re/
   %%                   End of preamble

Placeholders:
   {{match NAME /re/}}  Named class matcher, all NAME must be equal
   {{unique NAME /re/}} Named class matcher, must differ from all others
   {{any NAME /re/}}    Named matcher without constraints
   {{/re/}}             Anonymous any matcher
   {{NAME}}             Reuse matcher NAME
   {{"text"}}           Quoted literal text, e.g. {{"{{"}}
`

// app carries what all commands share
type app struct {
	cfg *viper.Viper
	log zerolog.Logger
	out io.Writer
	in  io.Reader
}

func main() {
	a := &app{
		cfg: viper.New(),
		log: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger(),
		out: os.Stdout,
		in:  os.Stdin,
	}
	if err := a.rootCommand().Execute(); err != nil {
		a.log.Fatal().Err(err).Msg("tmatch failed")
	}
}

func (a *app) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "tmatch",
		Short:        "Check texts against templates with literal text and matchers",
		Long:         "Check texts against templates with literal text and matchers\n" + templateSyntax,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}
	cmd.PersistentFlags().String("config", "", "Read settings from config file")
	cmd.PersistentFlags().String("log-level", "info", "Set the log level")
	cmd.PersistentFlags().String("log-format", "pretty", "Set the log format - Can be either 'json' or 'pretty'")
	a.cfg.BindPFlag("config", cmd.PersistentFlags().Lookup("config"))
	a.cfg.BindPFlag("log-level", cmd.PersistentFlags().Lookup("log-level"))
	a.cfg.BindPFlag("log-format", cmd.PersistentFlags().Lookup("log-format"))

	// Settings can also be given as environment variables, e.g. TMATCH_LOG_LEVEL
	a.cfg.SetEnvPrefix("TMATCH")
	a.cfg.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.cfg.AutomaticEnv()

	cmd.AddCommand(a.checkCommand(), a.prepareCommand())
	return cmd
}

// init must run after cobra has parsed the command line
func (a *app) init() error {
	if file := a.cfg.GetString("config"); file != "" {
		a.cfg.SetConfigFile(file)
		if err := a.cfg.ReadInConfig(); err != nil {
			return err
		}
	}
	level, err := zerolog.ParseLevel(a.cfg.GetString("log-level"))
	if err != nil {
		return err
	}
	if strings.EqualFold(a.cfg.GetString("log-format"), "json") {
		a.log = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	a.log = a.log.Level(level)
	return nil
}
