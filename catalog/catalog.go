// Package catalog keeps a SQLite index of rendered .vox files.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	xxhash "github.com/cespare/xxhash/v2"
	"github.com/voxelsplace/voxgen/internal/ctxlog"
	_ "modernc.org/sqlite"
)

// Entry describes one rendered file.
type Entry struct {
	Name        string
	Generations int
	// Symbols is the length of the derived command sequence.
	Symbols int
	Voxels  int
	Colors  int
	// Digest is the xxhash64 of the file bytes, see Digest.
	Digest    string
	Path      string
	CreatedAt time.Time
}

// Digest returns the hex xxhash64 of data.
func Digest(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

type Catalog struct {
	db *sql.DB
}

// Open opens or creates the catalog database at path.
func Open(path string) (*Catalog, error) {
	if path == "" {
		return nil, errors.New("catalog: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Catalog{db: db}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS renders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			generations INTEGER NOT NULL,
			symbols INTEGER NOT NULL,
			voxels INTEGER NOT NULL,
			colors INTEGER NOT NULL,
			digest TEXT NOT NULL,
			path TEXT NOT NULL UNIQUE,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS renders_name ON renders(name, generations);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("catalog: init schema: %w", err)
		}
	}
	return nil
}

// Record stores e. A second record for the same path replaces the first.
// A zero CreatedAt is set to the current time.
func (c *Catalog) Record(ctx context.Context, e Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO renders (name, generations, symbols, voxels, colors, digest, path, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			name = excluded.name,
			generations = excluded.generations,
			symbols = excluded.symbols,
			voxels = excluded.voxels,
			colors = excluded.colors,
			digest = excluded.digest,
			created_at = excluded.created_at`,
		e.Name, e.Generations, e.Symbols, e.Voxels, e.Colors, e.Digest, e.Path,
		e.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("catalog: record %s: %w", e.Path, err)
	}
	ctxlog.FromContext(ctx).Debug("Recorded render.", "name", e.Name, "path", e.Path, "digest", e.Digest)
	return nil
}

// List returns the entries for name ordered by generations then path, or
// every entry when name is empty.
func (c *Catalog) List(ctx context.Context, name string) ([]Entry, error) {
	q := `SELECT name, generations, symbols, voxels, colors, digest, path, created_at FROM renders`
	var args []any
	if name != "" {
		q += ` WHERE name = ?`
		args = append(args, name)
	}
	q += ` ORDER BY name, generations, path`

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var created string
		if err := rows.Scan(&e.Name, &e.Generations, &e.Symbols, &e.Voxels, &e.Colors, &e.Digest, &e.Path, &created); err != nil {
			return nil, fmt.Errorf("catalog: scan: %w", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("catalog: %s: bad created_at %q: %w", e.Path, created, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (c *Catalog) Close() error {
	return c.db.Close()
}
