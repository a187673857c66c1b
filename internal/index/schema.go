// Package index keeps a SQLite index of vault notes for listing, search and
// duplicate detection. FTS5 is used when built with the sqlite_fts5 tag.
package index

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const coreSchemaSQL = `
CREATE TABLE IF NOT EXISTS notes (
	path       TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	tags       TEXT NOT NULL DEFAULT '[]',
	body       TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notes_title ON notes(lower(title));
CREATE INDEX IF NOT EXISTS idx_notes_checksum ON notes(checksum);
`

// DB wraps a sql.DB with index-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database at dsn and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("index: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("index: ping: %w", err)
	}
	for _, step := range []struct {
		name string
		fn   func(*sql.DB) error
	}{
		{"core schema", applyCore},
		{"fts schema", initFTS},
	} {
		if err := step.fn(conn); err != nil {
			conn.Close()
			return nil, fmt.Errorf("index: apply %s: %w", step.name, err)
		}
	}
	return &DB{conn: conn}, nil
}

func applyCore(conn *sql.DB) error {
	_, err := conn.Exec(coreSchemaSQL)
	return err
}

// Ping checks the database connection; used by readiness probes.
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
