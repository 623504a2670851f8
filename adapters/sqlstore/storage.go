// Package sqlstore is the durable Storage implementation on sqlx. The
// default backend is an embedded sqlite file (pure-Go driver); postgres is
// supported for deployments that outgrow a single file. One query text
// serves both via sqlx.Rebind.
package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"shooterstats/achievements"
	"shooterstats/challenges"
	"shooterstats/core"
)

// Driver selects the SQL backend.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Config holds store configuration.
type Config struct {
	Driver Driver `json:"driver" env:"STORAGE_DRIVER"`
	// DSN is the sqlite file path or the postgres connection string.
	DSN string `json:"dsn" env:"STORAGE_DSN"`
	// BusyTimeout bounds the wait for the exclusive write lock; on expiry
	// the write fails with core.ErrStorageBusy.
	BusyTimeout time.Duration `json:"busy_timeout" env:"STORAGE_BUSY_TIMEOUT"`
	// WinThreshold is the score from which a game counts as a win.
	WinThreshold int64 `json:"win_threshold" env:"GAME_WIN_THRESHOLD"`
}

// DefaultConfig returns sensible defaults for a driver.
func DefaultConfig(driver Driver) Config {
	cfg := Config{
		Driver:       driver,
		BusyTimeout:  5 * time.Second,
		WinThreshold: 100,
	}
	if driver == DriverSQLite {
		cfg.DSN = "./data/shooterstats.db"
	}
	return cfg
}

// Store implements the storage contract. Writers serialize through writeSem;
// reads run against the latest committed state without taking the lock.
type Store struct {
	db           *sqlx.DB
	driver       Driver
	writeSem     chan struct{}
	busyTimeout  time.Duration
	winThreshold int64
	registry     *achievements.Registry
	catalog      *challenges.Catalog
	now          func() time.Time
}

// New opens the database, applies pragmas and schema, and returns a ready
// store.
func New(cfg Config, registry *achievements.Registry, catalog *challenges.Catalog) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("sqlstore: empty DSN")
	}
	db, err := sqlx.Open(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if cfg.Driver == DriverSQLite {
		// sqlite supports one writer; a single connection avoids
		// SQLITE_BUSY surprises underneath our own lock
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("setting pragmas: %w", err)
		}
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := NewWithDB(db, cfg.Driver, registry, catalog)
	s.busyTimeout = cfg.BusyTimeout
	if cfg.WinThreshold > 0 {
		s.winThreshold = cfg.WinThreshold
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing connection (useful for testing). The caller is
// responsible for the schema.
func NewWithDB(db *sqlx.DB, driver Driver, registry *achievements.Registry, catalog *challenges.Catalog) *Store {
	return &Store{
		db:           db,
		driver:       driver,
		writeSem:     make(chan struct{}, 1),
		busyTimeout:  5 * time.Second,
		winThreshold: 100,
		registry:     registry,
		catalog:      catalog,
		now:          time.Now,
	}
}

func (s *Store) migrate() error {
	schema := schemaSQLite
	if s.driver == DriverPostgres {
		schema = schemaPostgres
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the connection.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// withTx acquires the exclusive write lock, runs fn inside a transaction,
// and commits on nil return. Any error from fn rolls the whole transaction
// back and propagates. Lock acquisition is bounded by busyTimeout.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	timer := time.NewTimer(s.busyTimeout)
	defer timer.Stop()
	select {
	case s.writeSem <- struct{}{}:
	case <-timer.C:
		return fmt.Errorf("%w: write lock not acquired within %s", core.ErrStorageBusy, s.busyTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-s.writeSem }()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

const timeLayout = time.RFC3339

func formatTime(t time.Time) string {
	// fixed-width UTC so the column sorts lexicographically
	return t.UTC().Truncate(time.Second).Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
