// internal/cli/lexicon.go
//
// lexicon: validate a word list and report what it holds.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/robalobadob/crossword/internal/lexicon"
)

// NewLexiconCommand creates the lexicon command.
func NewLexiconCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		path    string
		entries bool
	)
	cmd := &cobra.Command{
		Use:   "lexicon",
		Short: "Validate a lexicon and print its word counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = rootOpts.cfg.LexiconFile
			}
			idx, err := lexicon.LoadDefault(path, lexicon.WithMinWordLength(rootOpts.cfg.MinWordLength))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if entries {
				enc := yaml.NewEncoder(out)
				defer enc.Close()
				return enc.Encode(idx.Entries())
			}
			stats := idx.Stats()
			for _, tier := range lexicon.Tiers {
				if _, err := fmt.Fprintf(out, "%-9s %d\n", tier, stats[tier]); err != nil {
					return err
				}
			}
			_, err = fmt.Fprintf(out, "lengths   %d-%d\n", idx.MinWordLength(), idx.MaxWordLength())
			return err
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "lexicon file (default LEXICON_FILE or the embedded list)")
	cmd.Flags().BoolVar(&entries, "entries", false, "print every word as YAML")
	return cmd
}
