package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/xo/dburl"

	"github.com/fortuna/accolade/internal/logger"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Querier is satisfied by both *sql.DB and *sql.Tx so repositories can run
// inside or outside a transaction.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Database is the pooled PostgreSQL handle shared by all repositories.
type Database struct {
	conn *sql.DB
	log  *logger.Logger
}

// Open parses a database URL, opens the pool and verifies connectivity.
func Open(ctx context.Context, rawURL string, log *logger.Logger) (*Database, error) {
	u, err := dburl.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	if u.Driver != "postgres" {
		return nil, fmt.Errorf("unsupported database driver %q", u.Driver)
	}

	db, err := sql.Open(u.Driver, u.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewFromDB(db, log), nil
}

// NewFromDB wraps an existing pool.
func NewFromDB(db *sql.DB, log *logger.Logger) *Database {
	if log == nil {
		log = logger.Nop()
	}
	return &Database{conn: db, log: log.WithField("component", "store")}
}

// Close closes the database connection
func (db *Database) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// DB returns the underlying *sql.DB for queries
func (db *Database) DB() *sql.DB {
	return db.conn
}

// WithinTx runs fn in a transaction. The transaction commits when fn returns
// nil and rolls back otherwise.
func (db *Database) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.log.WithError(rbErr).Warn("rollback failed")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// HealthCheck performs a health check on the database
func (db *Database) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return db.conn.PingContext(ctx)
}

// RunMigrations applies every embedded migration not yet recorded in
// schema_migrations, in file name order.
func (db *Database) RunMigrations(ctx context.Context) error {
	db.log.Info("running database migrations")

	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	names, err := migrationNames()
	if err != nil {
		return err
	}

	for _, name := range names {
		if err := db.runMigration(ctx, name); err != nil {
			return fmt.Errorf("failed to run migration %s: %w", name, err)
		}
	}

	db.log.WithField("count", len(names)).Info("migrations complete")
	return nil
}

func migrationNames() ([]string, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

func (db *Database) createMigrationsTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`
	_, err := db.conn.ExecContext(ctx, query)
	return err
}

func (db *Database) runMigration(ctx context.Context, name string) error {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", name).Scan(&exists)
	if err != nil {
		return err
	}
	if exists {
		db.log.WithField("migration", name).Debug("skipping, already applied")
		return nil
	}

	content, err := migrationFiles.ReadFile("migrations/" + name)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	err = db.WithinTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", name)
		return err
	})
	if err != nil {
		return err
	}

	db.log.WithField("migration", name).Info("applied migration")
	return nil
}
