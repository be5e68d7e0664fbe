package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"linkhive/internal/store"

	sqlite3 "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

// Store is the single-file local backend. It covers links, collections
// and keyword search; background jobs and vector search need the
// postgres deployment.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at path and bootstraps the
// schema. Use ":memory:" for an ephemeral database.
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	dsn := path + sep + "_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, err
	}
	log.Debugf("Opened sqlite database at %s", path)
	return &Store{db: db}, nil
}

func applySchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS collections (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			description TEXT,
			is_pinned INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE (user_id, name)
		);

		CREATE TABLE IF NOT EXISTS links (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			url TEXT NOT NULL,
			domain TEXT NOT NULL DEFAULT '',
			title TEXT,
			description TEXT,
			image_url TEXT,
			collection_id TEXT REFERENCES collections (id) ON DELETE SET NULL,
			saved_via TEXT NOT NULL DEFAULT 'cli',
			preview_state TEXT NOT NULL DEFAULT 'pending',
			embedding_id TEXT,
			is_embedded INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			UNIQUE (user_id, url)
		);

		CREATE INDEX IF NOT EXISTS idx_links_user_created ON links (user_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_links_collection ON links (collection_id);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply sqlite schema: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("sqlite database is not initialized")
	}
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// mapConstraintErr translates sqlite constraint failures into the
// store sentinel errors the services check for.
func mapConstraintErr(err error, wrap string) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return fmt.Errorf("%s: %w", wrap, store.ErrDuplicate)
		case sqlite3.ErrConstraintForeignKey:
			return fmt.Errorf("%s: %w", wrap, store.ErrForeignKeyViolation)
		}
	}
	return fmt.Errorf("%s: %w", wrap, err)
}
