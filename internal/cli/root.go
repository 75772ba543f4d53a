// internal/cli/root.go
//
// Root command: global flags, configuration and logger setup.

package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/crossword/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Pretty   bool
	LogLevel string // overrides LOG_LEVEL when set

	cfg config.Config
}

// NewRootCommand creates the root command for the crossword CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "crossword",
		Short: "Crossword construction and live multiplayer server",
		Long: `Builds crossword grids from a tiered lexicon and serves them over HTTP,
including two-player games whose unsolved part regenerates as words are found.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.LogLevel != "" {
				cfg.LogLevel = opts.LogLevel
			}
			lvl, err := zerolog.ParseLevel(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
			}
			zerolog.SetGlobalLevel(lvl)
			if opts.Pretty {
				log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
			}
			opts.cfg = cfg
			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&opts.Pretty, "pretty", false, "human-readable logs on stderr")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewLexiconCommand(opts))

	return cmd
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
