// Package store owns the local embedded database connection.
//
// The application reads and writes this store for speed and offline
// availability; a separately driven push process reconciles it against the
// shared remote spreadsheets. Each Store wraps exactly one database/sql
// connection pool over the embedded sqlite driver and is meant to be used
// from one goroutine at a time; callers that need concurrency open one Store
// per goroutine.
//
// Per-statement errors propagate unmodified to the caller. The store never
// swallows errors.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/burakseven/takip/internal/tablecfg"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Row is one result row addressed by column name.
type Row map[string]any

// Store wraps the embedded database connection.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the database file at path.
//
// The parent directory is created if missing. Construction fails if the
// backing file is unreachable; this is fatal for the application, which
// cannot run without its local store.
//
// The caller MUST call Close() when done.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// One connection per Store keeps statement ordering deterministic for
	// the single-threaded callers this core assumes.
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{conn: conn, path: path}

	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// RawDB returns the underlying sql.DB connection, for callers that manage
// their own transactions (the maintenance pass dry-run does).
func (s *Store) RawDB() *sql.DB {
	return s.conn
}

// Close checkpoints the WAL and closes the connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.conn = nil
	return nil
}

// Query runs a statement that returns rows. Each row is addressable by
// column name.
func (s *Store) Query(query string, args ...any) ([]Row, error) {
	return s.QueryContext(context.Background(), query, args...)
}

// QueryContext runs a row-returning statement with context support.
func (s *Store) QueryContext(ctx context.Context, query string, args ...any) ([]Row, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRows(rows)
}

// Exec runs a statement that returns no rows, committing immediately.
// Returns the number of affected rows.
func (s *Store) Exec(query string, args ...any) (int64, error) {
	return s.ExecContext(context.Background(), query, args...)
}

// ExecContext runs a mutating statement with context support.
func (s *Store) ExecContext(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return n, nil
}

// ExecMany runs the same statement once per argument tuple inside a single
// transaction. Either every tuple commits or none does.
func (s *Store) ExecMany(query string, argRows [][]any) error {
	return s.ExecManyContext(context.Background(), query, argRows)
}

// ExecManyContext runs a batched statement with context support.
func (s *Store) ExecManyContext(ctx context.Context, query string, argRows [][]any) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, args := range argRows {
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// EnsureTable creates the physical table for a declaration if it does not
// exist. All columns are stored as TEXT; the store mirrors spreadsheet rows,
// which are textual by nature. Idempotent.
func (s *Store) EnsureTable(t tablecfg.Table) error {
	return s.EnsureTableContext(context.Background(), t)
}

// EnsureTableContext creates a table with context support.
func (s *Store) EnsureTableContext(ctx context.Context, t tablecfg.Table) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid table declaration: %w", err)
	}

	var defs []string
	for _, c := range t.StorageColumns() {
		defs = append(defs, fmt.Sprintf("%q TEXT", c))
	}
	if t.HasPK() {
		quoted := make([]string, len(t.PK))
		for i, k := range t.PK {
			quoted[i] = fmt.Sprintf("%q", k)
		}
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (%s)", t.Name, strings.Join(defs, ", "))
	if _, err := s.conn.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", t.Name, err)
	}
	return nil
}

// EnsureSchema creates every table in the configuration set. Idempotent.
func (s *Store) EnsureSchema(cfg *tablecfg.Set) error {
	for _, name := range cfg.Names() {
		t, _ := cfg.Lookup(name)
		if err := s.EnsureTable(t); err != nil {
			return err
		}
	}
	return nil
}

// Backup copies the database file to dstPath after checkpointing the WAL,
// so the copy is a consistent snapshot.
func (s *Store) Backup(dstPath string) error {
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint before backup: %w", err)
	}

	src, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("failed to open database for backup: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to copy database: %w", err)
	}
	return nil
}

// scanRows converts sql.Rows into name-addressable rows. Byte slices are
// converted to strings so callers see plain scalar values.
func scanRows(rows *sql.Rows) ([]Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read column names: %w", err)
	}

	var out []Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
			} else {
				row[c] = values[i]
			}
		}
		out = append(out, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}
