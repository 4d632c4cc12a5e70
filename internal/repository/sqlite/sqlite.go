// Package sqlite implements the repository interfaces on an embedded SQLite
// database.
//
// The graph store (repository/neo4j) is the production backend. This one
// exists so the service can run and be tested without a Neo4j server: it
// models the same three things (users, catalog movies, HAS_FAVORITE edges)
// as three tables, and honors the same contracts: unique emails, idempotent
// favorites, NotFound for missing endpoints.
//
// modernc.org/sqlite is a pure Go translation of SQLite, so no C toolchain
// is needed. Use ":memory:" for a throwaway database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/sakif/movieflix/internal/repository"
)

const backendName = "sqlite"

// compile-time check that *DB is a complete backend
var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/movieflix.db"  → file-based database (persistent)
//   - ":memory:"           → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" gets its own empty database, so the
	// pool must never open a second one.
	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write transaction is open.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Ping verifies the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the connection pool.
func (db *DB) Close(_ context.Context) error {
	return db.conn.Close()
}

// withTx runs fn inside one transaction. The transaction is rolled back on
// every path that does not reach Commit.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			user_id    TEXT PRIMARY KEY,
			email      TEXT NOT NULL UNIQUE,
			password   TEXT NOT NULL,
			name       TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// Catalog movies. Owned by the catalog loader; read-only to the services.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS movies (
			tmdb_id     TEXT PRIMARY KEY,
			title       TEXT NOT NULL DEFAULT '',
			year        INTEGER NOT NULL DEFAULT 0,
			released    TEXT NOT NULL DEFAULT '',
			imdb_rating REAL NOT NULL DEFAULT 0,
			runtime     INTEGER NOT NULL DEFAULT 0,
			plot        TEXT NOT NULL DEFAULT '',
			poster      TEXT NOT NULL DEFAULT '',
			languages   TEXT NOT NULL DEFAULT '[]',
			countries   TEXT NOT NULL DEFAULT '[]',
			budget      INTEGER NOT NULL DEFAULT 0,
			revenue     INTEGER NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("creating movies table: %w", err)
	}

	// The composite primary key is the "at most one edge per pair" rule.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS favorites (
			user_id    TEXT NOT NULL REFERENCES users(user_id),
			tmdb_id    TEXT NOT NULL REFERENCES movies(tmdb_id),
			created_at DATETIME NOT NULL,
			PRIMARY KEY (user_id, tmdb_id)
		);
		CREATE INDEX IF NOT EXISTS idx_favorites_tmdb_id ON favorites(tmdb_id);
	`)
	if err != nil {
		return fmt.Errorf("creating favorites table: %w", err)
	}

	return nil
}
