// Package repo provides typed CRUD access to local tables with sync
// bookkeeping.
//
// A Repository is the only legal way to create, mutate, or delete rows.
// On every successful insert or update of a syncable, non-pull-only table
// the repository stamps sync_status = 'dirty' and updated_at = now, so the
// next push carries the change. Date fields are rewritten to canonical form
// before every write.
//
// Row data is a schema-validated map: writes carrying a column name the
// table does not declare are rejected at the boundary, before any SQL runs.
package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/burakseven/takip/internal/dates"
	"github.com/burakseven/takip/internal/store"
	"github.com/burakseven/takip/internal/tablecfg"
)

// Key addresses a row by its business key. Composite keys list values in
// the order the table declares its PK columns.
type Key []any

// K builds a Key from values in PK declaration order.
func K(values ...any) Key {
	return Key(values)
}

// Repository is the public per-table contract.
//
// GetByID returns (nil, nil) on a miss; a missing row is an expected
// outcome, not a failure. Every other error propagates to the caller
// unwrapped by policy: the repository adds context but never swallows.
type Repository interface {
	// Table returns the declaration this repository serves.
	Table() tablecfg.Table

	GetAll(ctx context.Context) ([]store.Row, error)
	GetByID(ctx context.Context, key Key) (store.Row, error)
	CountAll(ctx context.Context) (int, error)

	Insert(ctx context.Context, data store.Row) error
	Update(ctx context.Context, key Key, changes store.Row) error
	Delete(ctx context.Context, key Key) error

	// DirtyRows returns the rows awaiting push. Always empty for tables
	// outside the sync set.
	DirtyRows(ctx context.Context) ([]store.Row, error)

	// MarkClean clears the dirty flag after a confirmed remote write.
	// Only the push driver calls this.
	MarkClean(ctx context.Context, key Key) error
}

// Generic implements Repository for any configured table. Specializations
// embed it and add pre-joined read paths.
type Generic struct {
	st  *store.Store
	cfg tablecfg.Table
}

// NewGeneric builds a repository from a table declaration.
func NewGeneric(st *store.Store, cfg tablecfg.Table) *Generic {
	return &Generic{st: st, cfg: cfg}
}

// Table implements Repository.
func (r *Generic) Table() tablecfg.Table {
	return r.cfg
}

// Store exposes the underlying store to specializations.
func (r *Generic) Store() *store.Store {
	return r.st
}

// GetAll implements Repository.
func (r *Generic) GetAll(ctx context.Context) ([]store.Row, error) {
	return r.st.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %q", r.cfg.Name))
}

// GetByID implements Repository. Returns (nil, nil) when no row matches.
func (r *Generic) GetByID(ctx context.Context, key Key) (store.Row, error) {
	where, args, err := r.keyClause(key)
	if err != nil {
		return nil, err
	}

	rows, err := r.st.QueryContext(ctx,
		fmt.Sprintf("SELECT * FROM %q WHERE %s", r.cfg.Name, where), args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// CountAll implements Repository.
func (r *Generic) CountAll(ctx context.Context) (int, error) {
	rows, err := r.st.QueryContext(ctx, fmt.Sprintf("SELECT COUNT(*) AS n FROM %q", r.cfg.Name))
	if err != nil {
		return 0, err
	}
	n, ok := rows[0]["n"].(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected count type %T", rows[0]["n"])
	}
	return int(n), nil
}

// Insert implements Repository. Date fields are canonicalized and, for
// push-eligible tables, the row is stamped dirty.
func (r *Generic) Insert(ctx context.Context, data store.Row) error {
	prepared, err := r.prepareWrite(data)
	if err != nil {
		return err
	}

	var cols []string
	var marks []string
	var args []any
	// Iterate storage column order so statements are deterministic.
	for _, c := range r.cfg.StorageColumns() {
		v, ok := prepared[c]
		if !ok {
			continue
		}
		cols = append(cols, fmt.Sprintf("%q", c))
		marks = append(marks, "?")
		args = append(args, v)
	}
	if len(cols) == 0 {
		return fmt.Errorf("insert into %s with no columns", r.cfg.Name)
	}

	query := fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)",
		r.cfg.Name, strings.Join(cols, ", "), strings.Join(marks, ", "))
	if _, err := r.st.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", r.cfg.Name, err)
	}
	return nil
}

// Update implements Repository. Applies a partial change set to the row
// addressed by key, canonicalizing date fields and re-stamping bookkeeping.
func (r *Generic) Update(ctx context.Context, key Key, changes store.Row) error {
	where, whereArgs, err := r.keyClause(key)
	if err != nil {
		return err
	}

	prepared, err := r.prepareWrite(changes)
	if err != nil {
		return err
	}

	var sets []string
	var args []any
	for _, c := range r.cfg.StorageColumns() {
		v, ok := prepared[c]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%q = ?", c))
		args = append(args, v)
	}
	if len(sets) == 0 {
		return fmt.Errorf("update on %s with no columns", r.cfg.Name)
	}
	args = append(args, whereArgs...)

	query := fmt.Sprintf("UPDATE %q SET %s WHERE %s", r.cfg.Name, strings.Join(sets, ", "), where)
	if _, err := r.st.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update %s: %w", r.cfg.Name, err)
	}
	return nil
}

// Delete implements Repository.
func (r *Generic) Delete(ctx context.Context, key Key) error {
	where, args, err := r.keyClause(key)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("DELETE FROM %q WHERE %s", r.cfg.Name, where)
	if _, err := r.st.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", r.cfg.Name, err)
	}
	return nil
}

// DirtyRows implements Repository.
func (r *Generic) DirtyRows(ctx context.Context) ([]store.Row, error) {
	if !r.cfg.PushEligible() {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT * FROM %q WHERE %q = ?", r.cfg.Name, tablecfg.ColSyncStatus)
	return r.st.QueryContext(ctx, query, tablecfg.StatusDirty)
}

// MarkClean implements Repository.
func (r *Generic) MarkClean(ctx context.Context, key Key) error {
	if !r.cfg.InSyncSet() {
		return fmt.Errorf("table %s is not in the sync set", r.cfg.Name)
	}
	where, args, err := r.keyClause(key)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("UPDATE %q SET %q = ? WHERE %s", r.cfg.Name, tablecfg.ColSyncStatus, where)
	allArgs := append([]any{tablecfg.StatusClean}, args...)
	if _, err := r.st.ExecContext(ctx, query, allArgs...); err != nil {
		return fmt.Errorf("failed to mark %s row clean: %w", r.cfg.Name, err)
	}
	return nil
}

// RowKey extracts the business key of a row in PK declaration order.
func (r *Generic) RowKey(row store.Row) (Key, error) {
	if !r.cfg.HasPK() {
		return nil, fmt.Errorf("table %s has no primary key", r.cfg.Name)
	}
	key := make(Key, len(r.cfg.PK))
	for i, c := range r.cfg.PK {
		v, ok := row[c]
		if !ok {
			return nil, fmt.Errorf("row missing key column %s", c)
		}
		key[i] = v
	}
	return key, nil
}

// prepareWrite validates column names, canonicalizes date fields, and stamps
// sync bookkeeping. Returns a copy; the caller's map is not mutated.
func (r *Generic) prepareWrite(data store.Row) (store.Row, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty write on table %s", r.cfg.Name)
	}

	out := make(store.Row, len(data)+2)
	for c, v := range data {
		if !r.cfg.HasColumn(c) {
			return nil, fmt.Errorf("table %s has no column %q", r.cfg.Name, c)
		}
		out[c] = v
	}

	for _, d := range r.cfg.DateFields {
		v, ok := out[d]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("date field %s.%s must be text, got %T", r.cfg.Name, d, v)
		}
		canonical, err := dates.Normalize(s)
		if err != nil {
			return nil, fmt.Errorf("date field %s.%s: %w", r.cfg.Name, d, err)
		}
		out[d] = canonical
	}

	if r.cfg.PushEligible() {
		out[tablecfg.ColSyncStatus] = tablecfg.StatusDirty
		out[tablecfg.ColUpdatedAt] = time.Now().UTC().Format(time.RFC3339)
	}

	return out, nil
}

// keyClause builds the WHERE clause addressing one row by business key.
func (r *Generic) keyClause(key Key) (string, []any, error) {
	if !r.cfg.HasPK() {
		return "", nil, fmt.Errorf("table %s has no primary key and cannot be addressed by key", r.cfg.Name)
	}
	if len(key) != len(r.cfg.PK) {
		return "", nil, fmt.Errorf("table %s expects %d key values, got %d", r.cfg.Name, len(r.cfg.PK), len(key))
	}

	parts := make([]string, len(r.cfg.PK))
	args := make([]any, len(key))
	for i, c := range r.cfg.PK {
		parts[i] = fmt.Sprintf("%q = ?", c)
		args[i] = key[i]
	}
	return strings.Join(parts, " AND "), args, nil
}
