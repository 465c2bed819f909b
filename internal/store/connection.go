// Package store is the durable, transactional backing for the job queue:
// jobs, config, and worker registrations, all living in one SQLite file so
// the whole queue is a single path that can be copied, backed up, or
// inspected with any sqlite3 client.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure-Go sqlite driver, no cgo
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// defaultBusyRetryBudget is used by Open when the caller doesn't override
// it via OpenWithOptions.
const defaultBusyRetryBudget = 2 * time.Second

// Store wraps a *sql.DB pointed at a single SQLite file and exposes the
// atomic job, config, and worker operations spec.md §4.1 requires.
type Store struct {
	db              *sql.DB
	path            string
	busyRetryBudget time.Duration
}

// Open creates or opens the SQLite file at path, applies any pending
// migrations, and returns a ready-to-use Store with the default busy-retry
// budget. Parent directories must already exist (spec.md §6).
func Open(ctx context.Context, path string) (*Store, error) {
	return OpenWithOptions(ctx, path, defaultBusyRetryBudget)
}

// OpenWithOptions is Open with an explicit busy-retry budget, letting
// callers honor QUEUECTL_BUSY_RETRY_BUDGET from internal/config.
func OpenWithOptions(ctx context.Context, path string, busyRetryBudget time.Duration) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_txlock=immediate", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single-file SQLite database only ever wants one writer connection
	// actively writing; BEGIN IMMEDIATE already serializes writers across
	// connections, but capping pool size avoids churning connections that
	// would just queue behind the same file lock anyway.
	db.SetMaxOpenConns(8)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if busyRetryBudget <= 0 {
		busyRetryBudget = defaultBusyRetryBudget
	}

	return &Store{db: db, path: path, busyRetryBudget: busyRetryBudget}, nil
}

func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping verifies the database file is still reachable, used by `status` to
// distinguish an unavailable store from an empty queue.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
