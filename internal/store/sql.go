package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

type dialect struct {
	driver string
	getQ   string
	putQ   string
	delQ   string
}

var (
	postgresDialect = dialect{
		driver: "pgx",
		getQ:   `SELECT payload FROM kv_entries WHERE entry_key = $1`,
		putQ: `INSERT INTO kv_entries (entry_key, payload, updated_at) VALUES ($1, $2, CURRENT_TIMESTAMP)
			ON CONFLICT (entry_key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = CURRENT_TIMESTAMP`,
		delQ: `DELETE FROM kv_entries WHERE entry_key = $1`,
	}
	sqliteDialect = dialect{
		driver: "sqlite3",
		getQ:   `SELECT payload FROM kv_entries WHERE entry_key = ?`,
		putQ: `INSERT INTO kv_entries (entry_key, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (entry_key) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		delQ: `DELETE FROM kv_entries WHERE entry_key = ?`,
	}
)

const schema = `
CREATE TABLE IF NOT EXISTS kv_entries (
	entry_key  TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQL keeps entries in a kv_entries table on Postgres or SQLite.
type SQL struct {
	Client  *sql.DB
	dialect dialect
}

// NewPostgres opens a Postgres connection through pgx with sane pool defaults.
func NewPostgres(ctx context.Context, connString string) (*SQL, error) {
	db, err := sql.Open(postgresDialect.driver, connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return open(ctx, db, postgresDialect)
}

// NewSQLite opens (creating if needed) a SQLite database file.
func NewSQLite(ctx context.Context, path string) (*SQL, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create %s: %w", dir, err)
		}
	}
	db, err := sql.Open(sqliteDialect.driver, path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return open(ctx, db, sqliteDialect)
}

func open(ctx context.Context, db *sql.DB, d dialect) (*SQL, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", d.driver, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate %s: %w", d.driver, err)
	}
	return &SQL{Client: db, dialect: d}, nil
}

func (s *SQL) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var v string
	err := s.Client.QueryRowContext(ctx, s.dialect.getQ, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(v), true, nil
}

func (s *SQL) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.Client.ExecContext(ctx, s.dialect.putQ, key, string(value))
	return err
}

func (s *SQL) Delete(ctx context.Context, key string) error {
	_, err := s.Client.ExecContext(ctx, s.dialect.delQ, key)
	return err
}

func (s *SQL) Ping(ctx context.Context) error {
	return s.Client.PingContext(ctx)
}

// Close closes the underlying connection.
func (s *SQL) Close() error {
	if s == nil || s.Client == nil {
		return nil
	}
	return s.Client.Close()
}
