// internal/store/sqlite.go
//
// SQLite-backed Store.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying the embedded migrations/*.sql (idempotent, recorded in _migrations).
//   - Puzzle rows with the snapshot kept as a JSON column.

package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/crossword/internal/crossword"
)

//go:embed migrations/*.sql
var migrations embed.FS

type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if missing) the database at path, applies
// migrations and returns a Store plus a close func.
func OpenSQLite(path string) (Store, func() error, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, nil, err
	}
	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return &sqliteStore{db: db}, db.Close, nil
}

// openDB ensures the parent directory exists for relative paths
// (e.g. ./data/crossword.db) and sets busy timeout and WAL journaling.
func openDB(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// migrate applies every embedded migration not yet recorded in _migrations,
// each in its own transaction, in lexical order.
func migrate(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS _migrations (name TEXT PRIMARY KEY);`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		name := filepath.Base(f)
		var done int
		err := db.QueryRow(`SELECT 1 FROM _migrations WHERE name=?`, name).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", name).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply %s: %w", name, err)
		}
		if _, err := tx.Exec(`INSERT INTO _migrations(name) VALUES (?)`, name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", name, err)
		}
		log.Info().Str("migration", name).Msg("applied")
	}
	return nil
}

func (s *sqliteStore) Save(ctx context.Context, p Puzzle) error {
	body, err := json.Marshal(p.Crossword)
	if err != nil {
		return fmt.Errorf("encode crossword: %w", err)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO puzzles (id, kind, difficulty, crossword, created_at)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            kind=excluded.kind,
            difficulty=excluded.difficulty,
            crossword=excluded.crossword,
            created_at=excluded.created_at`,
		p.ID, string(p.Kind), string(p.Difficulty), string(body), p.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (s *sqliteStore) GetAll(ctx context.Context) ([]Puzzle, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, kind, difficulty, crossword, created_at
        FROM puzzles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Puzzle
	for rows.Next() {
		p, err := scanPuzzle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// RFC3339Nano strings do not sort lexically, so order in Go.
	sortPuzzles(out)
	return out, nil
}

func (s *sqliteStore) GetByID(ctx context.Context, id string) (Puzzle, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, kind, difficulty, crossword, created_at
        FROM puzzles WHERE id=?`, id)
	p, err := scanPuzzle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Puzzle{}, ErrNotFound
	}
	return p, err
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM puzzles WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPuzzle(row scanner) (Puzzle, error) {
	var p Puzzle
	var kind, diff, body, stamp string
	if err := row.Scan(&p.ID, &kind, &diff, &body, &stamp); err != nil {
		return Puzzle{}, err
	}
	p.Kind = Kind(kind)
	p.Difficulty = crossword.Difficulty(diff)
	if err := json.NewDecoder(strings.NewReader(body)).Decode(&p.Crossword); err != nil {
		return Puzzle{}, fmt.Errorf("decode crossword %s: %w", p.ID, err)
	}
	t, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return Puzzle{}, fmt.Errorf("parse created_at %s: %w", p.ID, err)
	}
	p.CreatedAt = t
	return p, nil
}
