// Package sqlstore implements storage.Store on a single SQL table of
// (bucket, payload) rows. SQLite, Postgres (lib/pq) and Postgres (pgx) are supported.
package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // pure go sqlite driver, registers "sqlite"

	"salgados/internal/storage"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"
)

//go:embed migrations/*/*.sql
var migrations embed.FS

var _ storage.Store = (*Store)(nil)

// goose keeps its dialect and base FS in package globals.
var gooseMu sync.Mutex

type Store struct {
	db     *sql.DB
	driver string
	getSQL string
	setSQL string
	delSQL string
}

// Open connects with the given driver, applies migrations and returns the store.
// For sqlite the dsn is a file path; an empty path defaults to salgados.db.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverSQLite:
		if dsn == "" {
			dsn = "salgados.db"
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	case DriverPostgres, DriverPGX:
		if dsn == "" {
			return nil, errors.New("postgres dsn required")
		}
	default:
		return nil, fmt.Errorf("unknown sql driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// a single connection serialises writers and keeps :memory: databases shared
		db.SetMaxOpenConns(1)
	}
	if err := Migrate(db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db, driver), nil
}

// New wraps an already migrated database.
func New(db *sql.DB, driver string) *Store {
	s := &Store{db: db, driver: driver}
	if driver == DriverSQLite {
		s.getSQL = `SELECT payload FROM records WHERE bucket = ?`
		s.setSQL = `INSERT INTO records(bucket, payload) VALUES(?, ?) ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`
		s.delSQL = `DELETE FROM records WHERE bucket = ?`
	} else {
		s.getSQL = `SELECT payload FROM records WHERE bucket = $1`
		s.setSQL = `INSERT INTO records(bucket, payload) VALUES($1, $2) ON CONFLICT(bucket) DO UPDATE SET payload = EXCLUDED.payload`
		s.delSQL = `DELETE FROM records WHERE bucket = $1`
	}
	return s
}

// Migrate applies the embedded goose migrations for the driver's dialect.
func Migrate(db *sql.DB, driver string) error {
	dialect, dir := "postgres", "migrations/postgres"
	if driver == DriverSQLite {
		dialect, dir = "sqlite3", "migrations/sqlite"
	}
	gooseMu.Lock()
	defer gooseMu.Unlock()
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.Up(db, dir); err != nil {
		return fmt.Errorf("goose up error: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, s.getSQL, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	return payload, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, s.setSQL, key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.delSQL, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// DB exposes the underlying connection pool, shared with the audit SQL processor.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Driver() string { return s.driver }

func (s *Store) Close() error { return s.db.Close() }
