package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const defaultIDRetries = 3

type SQLiteRepository struct {
	db        *sql.DB
	queries   *Queries
	loc       *time.Location
	idRetries int
}

type Option func(*SQLiteRepository)

// WithLocation sets the calendar used for year+month filtering and for the
// times returned to callers. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(r *SQLiteRepository) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithIDRetries sets how many fresh category ids are tried after a primary
// key collision before giving up.
func WithIDRetries(n int) Option {
	return func(r *SQLiteRepository) {
		if n >= 0 {
			r.idRetries = n
		}
	}
}

func NewSQLiteRepository(dbPath string, opts ...Option) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// Single writer: imports hold the only connection for their whole transaction.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := checkForeignKeys(db); err != nil {
		db.Close()
		return nil, err
	}

	repo := &SQLiteRepository{
		db:        db,
		queries:   New(db),
		loc:       time.Local,
		idRetries: defaultIDRetries,
	}
	for _, opt := range opts {
		opt(repo)
	}

	return repo, nil
}

// dsn enables foreign keys on every pooled connection and makes BEGIN take the
// write lock immediately, which serializes concurrent imports.
func dsn(dbPath string) string {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	return dbPath + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
}

func checkForeignKeys(db *sql.DB) error {
	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("read foreign_keys pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("foreign key enforcement is disabled")
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Location returns the calendar the repository filters months in.
func (r *SQLiteRepository) Location() *time.Location {
	return r.loc
}

// withTx runs fn in a transaction, rolling back on any error.
func (r *SQLiteRepository) withTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(r.queries.WithTx(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
