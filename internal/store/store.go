// Package store is the persistent KV layer (spec §6 Persistence layout):
// six SQLite tables behind small row-level upsert/select accessors, one
// per table, mirroring the teacher's internal/store package — same
// PRAGMA tuning, same embed-schema-then-migrate shape.
package store

import (
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a single-writer SQLite connection for one repo's cache +
// session + artifact data.
type Store struct {
	db *sql.DB
}

// Open creates (if needed) and opens the database at path, applying the
// same WAL/synchronous/busy-timeout/cache tuning the teacher applies.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=3000;",
		"PRAGMA cache_size=-20000;",
		"PRAGMA temp_store=MEMORY;",
		"PRAGMA mmap_size=268435456;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, err
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}
