package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ErrDefaultImmutable is returned when a caller tries to hard-delete or
// rewrite default (bundled) content. Defaults can only be hidden.
var ErrDefaultImmutable = errors.New("default content is immutable")

// DB wraps a database/sql handle and provides the store methods. The backend
// is sqlite by default; postgres (via the pgx stdlib driver) works with the
// same queries because both engines accept $n placeholders.
type DB struct {
	sql    *sql.DB
	driver string
}

// Open connects to the database. driver is "sqlite" or "postgres".
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	var name string
	switch driver {
	case "sqlite":
		name = "sqlite"
	case "postgres":
		name = "pgx"
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}

	db, err := sql.Open(name, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if driver == "sqlite" {
		// Serializes writers and keeps the foreign_keys pragma (set via the
		// DSN) on every logical connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{sql: db, driver: driver}, nil
}

// Close closes the underlying handle.
func (db *DB) Close() error {
	return db.sql.Close()
}

// Migrate applies all pending migrations from the given filesystem, which
// must contain a "migrations" directory of golang-migrate SQL pairs.
func (db *DB) Migrate(fsys fs.FS) error {
	src, err := iofs.New(fsys, "migrations")
	if err != nil {
		return fmt.Errorf("loading migration source: %w", err)
	}

	var drv database.Driver
	switch db.driver {
	case "postgres":
		drv, err = migratepgx.WithInstance(db.sql, &migratepgx.Config{})
	default:
		drv, err = migratesqlite.WithInstance(db.sql, &migratesqlite.Config{})
	}
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, db.driver, drv)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction, committing on nil and rolling back on
// error. Every multi-level write goes through here.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
