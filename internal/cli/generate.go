// internal/cli/generate.go
//
// generate: one offline build printed as text or JSON.

package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/spf13/cobra"

	"github.com/robalobadob/crossword/internal/crossword"
	"github.com/robalobadob/crossword/internal/lexicon"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	Difficulty string
	Size       int    // 0 uses GRID_SIZE
	Seed       uint64 // 0 picks a random seed
	Format     string
	Lexicon    string // overrides LEXICON_FILE
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build one crossword and print it",
		Long: `Build one crossword offline and print it as text or JSON.

The same seed, size, difficulty and lexicon always produce the same grid.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Difficulty, "difficulty", "d", string(crossword.Normal), "easy|normal|hard")
	cmd.Flags().IntVar(&opts.Size, "size", 0, "grid size (default GRID_SIZE)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 0, "random seed (0 = random)")
	cmd.Flags().StringVar(&opts.Format, "format", "text", "output format (text|json)")
	cmd.Flags().StringVar(&opts.Lexicon, "lexicon", "", "lexicon file (.json, .yaml)")

	return cmd
}

func runGenerate(ctx context.Context, opts *GenerateOptions, cmd *cobra.Command) error {
	if !slices.Contains(ValidFormats, opts.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
	}
	d, err := crossword.ParseDifficulty(opts.Difficulty)
	if err != nil {
		return err
	}
	cfg := opts.cfg
	size := cfg.GridSize
	if opts.Size > 0 {
		size = opts.Size
	}
	path := cfg.LexiconFile
	if opts.Lexicon != "" {
		path = opts.Lexicon
	}
	idx, err := lexicon.LoadDefault(path, lexicon.WithMinWordLength(cfg.MinWordLength))
	if err != nil {
		return err
	}
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.BuildTimeout)
	defer cancel()

	b := crossword.Factory{Index: idx, Size: size}.NewSeeded(seed, seed)
	snap, stats, err := b.NewCrossword(ctx, d)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	if err := b.Grid().Render(out); err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.ErrOrStderr(), "seed %d, %d words in %d sweeps\n", seed, len(snap.Words), stats.Sweeps)
	return err
}
