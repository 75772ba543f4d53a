// internal/cli/serve.go
//
// serve: the composition root of the server.
// Responsibilities:
//   - Loading the lexicon (fatal on failure) and choosing the puzzle store.
//   - Wiring pool, daily puzzles, the session registry, mutation engine,
//     websocket hub and HTTP routes.
//   - Shutting everything down in order on SIGINT/SIGTERM.

package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/crossword/internal/config"
	"github.com/robalobadob/crossword/internal/crossword"
	"github.com/robalobadob/crossword/internal/daily"
	"github.com/robalobadob/crossword/internal/gateway"
	"github.com/robalobadob/crossword/internal/httpserver"
	"github.com/robalobadob/crossword/internal/lexicon"
	"github.com/robalobadob/crossword/internal/multiplayer"
	"github.com/robalobadob/crossword/internal/mutation"
	"github.com/robalobadob/crossword/internal/pool"
	"github.com/robalobadob/crossword/internal/session"
	"github.com/robalobadob/crossword/internal/store"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts.cfg)
		},
	}
}

func runServe(ctx context.Context, cfg config.Config) error {
	idx, err := lexicon.LoadDefault(cfg.LexiconFile, lexicon.WithMinWordLength(cfg.MinWordLength))
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.LexiconFile).Msg("failed to load lexicon")
	}
	stats := idx.Stats()
	log.Info().
		Int("common", stats[lexicon.Common]).
		Int("uncommon", stats[lexicon.Uncommon]).
		Msg("lexicon loaded")

	builders := crossword.Factory{Index: idx, Size: cfg.GridSize}
	build := func(ctx context.Context, d crossword.Difficulty) (crossword.Snapshot, error) {
		snap, _, err := builders.New().NewCrossword(ctx, d)
		return snap, err
	}

	st, closeStore, err := openStore(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	pl := pool.New(st, build, cfg.PoolSize, cfg.BuildTimeout)
	go func() {
		if err := pl.Fill(ctx); err != nil {
			log.Warn().Err(err).Msg("puzzle pool fill")
		}
	}()
	defer pl.Close()

	hub := gateway.NewHub(gateway.WithAllowedOrigins(cfg.ClientOrigin))
	defer hub.Close()
	reg := session.NewRegistry(build, multiplayer.Ticks(hub),
		session.WithCountdown(cfg.InitialCountdown, cfg.CountdownInterval))
	defer reg.Close()
	engine := mutation.NewEngine(reg, builders.New)
	hub.SetHandler(multiplayer.NewService(reg, engine, hub, cfg.BuildTimeout))

	auth, err := httpserver.NewAuth(cfg.JWTSecret, cfg.JWTExpiry(), cfg.AdminPassword, cfg.SecureCookies)
	if err != nil {
		return err
	}
	srv := httpserver.New(httpserver.Deps{
		Builders:     builders,
		Store:        st,
		Pool:         pl,
		Daily:        daily.NewService(st, builders.NewSeeded, cfg.DailySalt),
		Sessions:     reg,
		Auth:         auth,
		Live:         hub,
		ClientOrigin: cfg.ClientOrigin,
		BuildTimeout: cfg.BuildTimeout,
	})

	log.Info().Str("addr", cfg.Addr()).Int("grid", cfg.GridSize).Msg("starting crossword server")
	if err := srv.Start(ctx, cfg.Addr()); err != nil {
		log.Error().Err(err).Msg("server exited")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

// openStore picks SQLite when a path is set and memory otherwise.
func openStore(path string) (store.Store, func() error, error) {
	if path == "" {
		log.Info().Msg("using in-memory puzzle store")
		return store.NewMemoryStore(), func() error { return nil }, nil
	}
	st, closeFn, err := store.OpenSQLite(path)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Str("path", path).Msg("using sqlite puzzle store")
	return st, closeFn, nil
}
