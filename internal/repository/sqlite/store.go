// Package sqlite persists every Conductor aggregate over
// database/sql + modernc.org/sqlite, keeping the pragma-tuning and
// functional-options constructor style of
// internal/repository/sqlite/{config,options,pool_optimization}.go
// while querying directly instead of through a generated ent client:
// no generated client was checked in, so this package owns its own
// queries.
package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"go.uber.org/zap"
)

// Store is the single type implementing every repository interface in
// internal/types. One Store per process; callers wrap it per-request
// with internal/tenancy.
type Store struct {
	db     *sql.DB
	config *Config
}

// Open builds a Store, applying pragmas for SQLite's single-writer model
// (WAL journal, foreign keys, a 5s busy timeout, synchronous=NORMAL) and
// running the embedded schema.
func Open(opts ...Option) (*Store, error) {
	s := &Store{config: DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	if s.config.Logger == nil {
		s.config.Logger = zap.NewNop()
	}

	dsn := s.config.DatabasePath
	if dsn == "" {
		dsn = ":memory:"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(s.config.MaxOpenConns)
	db.SetMaxIdleConns(s.config.MaxIdleConns)
	db.SetConnMaxLifetime(s.config.ConnMaxLifetime)
	db.SetConnMaxIdleTime(s.config.ConnMaxIdleTime)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	s.db = db

	if s.config.AutoMigrate {
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate schema: %w", err)
		}
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying *sql.DB for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}
