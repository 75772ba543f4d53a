// internal/httpserver/server.go
//
// HTTP server wiring for the crossword backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", the lobby listing at /games.
//   - Puzzle endpoints: fresh, mutated, pooled and daily grids under /crosswords.
//   - Saved puzzles under /puzzles; writes require the admin token.
//   - Admin login and password change under /admin.
//   - The multiplayer websocket at /ws.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so the admin cookie works).
//   - /ws is mounted outside the request timeout; the connection lives as
//     long as the client stays.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/internal/crossword"
	"github.com/robalobadob/crossword/internal/daily"
	"github.com/robalobadob/crossword/internal/pool"
	"github.com/robalobadob/crossword/internal/session"
	"github.com/robalobadob/crossword/internal/store"
)

// Deps are the services behind the routes.
type Deps struct {
	Builders     crossword.Factory
	Store        store.Store
	Pool         *pool.Pool
	Daily        *daily.Service
	Sessions     *session.Registry
	Auth         *Auth
	Live         http.Handler // websocket endpoint
	ClientOrigin string
	BuildTimeout time.Duration
}

// Server bundles the router and its dependencies.
type Server struct {
	r    *chi.Mux
	deps Deps
	now  func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	s := &Server{r: chi.NewRouter(), deps: d, now: time.Now}

	s.r.Use(chimw.RequestID)
	s.r.Use(chimw.RealIP)
	s.r.Use(chimw.Recoverer)
	s.r.Use(cors(d.ClientOrigin))

	if d.Live != nil {
		s.r.Handle("/ws", d.Live)
	}

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(d.BuildTimeout + 5*time.Second))
		r.Use(jsonContentType)

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"crossword-go","endpoints":["/health","POST /crosswords/new","POST /crosswords/mutate","GET /crosswords/daily","/puzzles","/games","/ws"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		r.Route("/crosswords", func(r chi.Router) {
			r.Post("/new", s.handleNew)
			r.Post("/mutate", s.handleMutate)
			r.Get("/daily", s.handleDaily)
			r.Get("/{level}", s.handlePooled)
		})

		r.Route("/puzzles", func(r chi.Router) {
			r.Get("/", s.handleListPuzzles)
			r.Get("/{id}", s.handleGetPuzzle)
			r.With(d.Auth.requireAdmin).Post("/", s.handleSavePuzzle)
			r.With(d.Auth.requireAdmin).Delete("/{id}", s.handleDeletePuzzle)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.With(d.Auth.requireAdmin).Post("/password", s.handlePassword)
		})

		r.Get("/games", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, s.deps.Sessions.List())
		})
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Start begins serving HTTP on addr until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.r, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdown); err != nil {
			return err
		}
		return nil
	}
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin.
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ----------------------------- crosswords ----------------------------------

type newReq struct {
	Difficulty string `json:"difficulty"`
}

type mutateReq struct {
	Difficulty string                 `json:"difficulty"`
	Words      []crossword.PlacedWord `json:"wordsWithIndex"`
}

// handleNew builds a fresh grid for a single player.
func (s *Server) handleNew(w http.ResponseWriter, r *http.Request) {
	var req newReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	d, err := crossword.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.deps.BuildTimeout)
	defer cancel()
	snap, _, err := s.deps.Builders.New().NewCrossword(ctx, d)
	if err != nil {
		log.Error().Err(err).Str("difficulty", string(d)).Msg("build crossword")
		writeError(w, http.StatusServiceUnavailable, "build_failed")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleMutate rebuilds a grid around the words the player already has.
func (s *Server) handleMutate(w http.ResponseWriter, r *http.Request) {
	var req mutateReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	d, err := crossword.ParseDifficulty(req.Difficulty)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	for i := range req.Words {
		req.Words[i].Text = strings.ToLower(strings.TrimSpace(req.Words[i].Text))
	}
	ctx, cancel := context.WithTimeout(r.Context(), s.deps.BuildTimeout)
	defer cancel()
	snap, _, err := s.deps.Builders.New().Mutate(ctx, d, req.Words)
	if err != nil {
		log.Error().Err(err).Str("difficulty", string(d)).Msg("mutate crossword")
		writeError(w, http.StatusServiceUnavailable, "build_failed")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleDaily serves today's puzzle, or the one for ?date=YYYY-MM-DD.
func (s *Server) handleDaily(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	level := q.Get("difficulty")
	if level == "" {
		level = string(crossword.Normal)
	}
	d, err := crossword.ParseDifficulty(level)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date := s.now()
	if v := q.Get("date"); v != "" {
		if date, err = time.Parse(time.DateOnly, v); err != nil {
			writeError(w, http.StatusBadRequest, "bad_date")
			return
		}
	}
	p, err := s.deps.Daily.Get(r.Context(), date, d)
	if err != nil {
		log.Error().Err(err).Str("date", daily.DateKey(date)).Msg("daily puzzle")
		writeError(w, http.StatusServiceUnavailable, "build_failed")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handlePooled hands out a pre-generated grid.
func (s *Server) handlePooled(w http.ResponseWriter, r *http.Request) {
	d, err := crossword.ParseDifficulty(chi.URLParam(r, "level"))
	if err != nil {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	snap, err := s.deps.Pool.Take(r.Context(), d)
	if err != nil {
		log.Error().Err(err).Str("difficulty", string(d)).Msg("take pooled crossword")
		writeError(w, http.StatusServiceUnavailable, "build_failed")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ------------------------------- puzzles -----------------------------------

type savePuzzleReq struct {
	ID        string             `json:"id"`
	Crossword crossword.Snapshot `json:"crossword"`
}

// handleListPuzzles lists saved puzzles, optionally filtered by ?difficulty=.
func (s *Server) handleListPuzzles(w http.ResponseWriter, r *http.Request) {
	var d crossword.Difficulty
	if v := r.URL.Query().Get("difficulty"); v != "" {
		var err error
		if d, err = crossword.ParseDifficulty(v); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	all, err := s.deps.Store.GetAll(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list puzzles")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	out := store.Filter(all, store.KindSaved, d)
	if out == nil {
		out = []store.Puzzle{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Store.GetByID(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("get puzzle")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleSavePuzzle stores a puzzle; a missing id gets a fresh one.
func (s *Server) handleSavePuzzle(w http.ResponseWriter, r *http.Request) {
	var req savePuzzleReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	d, err := crossword.ParseDifficulty(string(req.Crossword.Difficulty))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Crossword.Grid) == 0 {
		writeError(w, http.StatusBadRequest, "empty_crossword")
		return
	}
	if req.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "id_failed")
			return
		}
		req.ID = id.String()
	}
	p := store.Puzzle{
		ID:         req.ID,
		Kind:       store.KindSaved,
		Difficulty: d,
		Crossword:  req.Crossword,
		CreatedAt:  s.now(),
	}
	if err := s.deps.Store.Save(r.Context(), p); err != nil {
		log.Error().Err(err).Str("id", p.ID).Msg("save puzzle")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleDeletePuzzle(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Store.Delete(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("delete puzzle")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// -------------------------------- admin ------------------------------------

type loginReq struct {
	Password string `json:"password"`
}

type passwordReq struct {
	Old string `json:"oldPassword"`
	New string `json:"newPassword"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	tok, exp, err := s.deps.Auth.Login(body.Password)
	if errors.Is(err, errBadCredentials) {
		log.Warn().Str("remote", r.RemoteAddr).Msg("admin login rejected")
		writeError(w, http.StatusUnauthorized, "Invalid password")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.deps.Auth.setCookie(w, tok, exp)
	writeJSON(w, http.StatusOK, map[string]any{"token": tok, "expiresAt": exp.UTC()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.deps.Auth.clearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handlePassword(w http.ResponseWriter, r *http.Request) {
	var body passwordReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	switch err := s.deps.Auth.ChangePassword(body.Old, body.New); {
	case errors.Is(err, errBadCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid password")
	case errors.Is(err, errWeakPassword):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		writeError(w, http.StatusInternalServerError, "hash_failed")
	default:
		log.Info().Msg("admin password changed")
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// ------------------------------- small util --------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
