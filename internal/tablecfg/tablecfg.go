// Package tablecfg holds the declarative per-table schema and sync policy.
//
// A Table is pure data with no behavior of its own: it drives which
// bookkeeping columns the repository layer maintains, which tables the push
// driver may touch, and which columns the maintenance pass canonicalizes.
// The set of tables is immutable after load and is the source of truth for
// every other component.
package tablecfg

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// SyncMode controls the direction of replication for a syncable table.
type SyncMode string

const (
	// SyncBidirectional tables push local dirty rows and accept remote pulls.
	SyncBidirectional SyncMode = "bidirectional"

	// SyncPullOnly tables treat the remote as authoritative; local never
	// pushes. Rows in pull-only tables never enter the push set.
	SyncPullOnly SyncMode = "pull_only"
)

// Reserved bookkeeping columns appended to every syncable, keyed table by the
// repository layer. Business code never declares them.
const (
	ColSyncStatus = "sync_status"
	ColUpdatedAt  = "updated_at"
)

// Values of the sync_status bookkeeping column.
const (
	StatusClean = "clean"
	StatusDirty = "dirty"
)

// Table declares the schema and sync policy for one business table.
type Table struct {
	Name string `toml:"name"`

	// PK lists the primary key columns in declaration order. A composite
	// key is addressed by an ordered tuple matching this order. A table
	// without a PK cannot be addressed by business key anywhere in the
	// system and is excluded from the syncable set even if Syncable is set.
	PK []string `toml:"pk"`

	Columns []string `toml:"columns"`

	Syncable bool     `toml:"syncable"`
	SyncMode SyncMode `toml:"sync_mode"`

	// DateFields are rewritten through the canonical date function on every
	// insert and update, and canonicalized in bulk by the maintenance pass.
	DateFields []string `toml:"date_fields"`
}

// HasPK reports whether the table declares a business key.
func (t Table) HasPK() bool {
	return len(t.PK) > 0
}

// InSyncSet reports whether the table participates in replication at all.
// Requires both the syncable flag and a declared key.
func (t Table) InSyncSet() bool {
	return t.Syncable && t.HasPK()
}

// PushEligible reports whether local mutations on this table must be stamped
// dirty for the next push. Pull-only tables are never pushed.
func (t Table) PushEligible() bool {
	return t.InSyncSet() && t.SyncMode != SyncPullOnly
}

// StorageColumns returns the physical column list: declared columns plus the
// sync bookkeeping columns when the table participates in replication.
func (t Table) StorageColumns() []string {
	if !t.InSyncSet() {
		return t.Columns
	}
	cols := make([]string, 0, len(t.Columns)+2)
	cols = append(cols, t.Columns...)
	cols = append(cols, ColSyncStatus, ColUpdatedAt)
	return cols
}

// HasColumn reports whether name is a declared or bookkeeping column.
func (t Table) HasColumn(name string) bool {
	for _, c := range t.StorageColumns() {
		if c == name {
			return true
		}
	}
	return false
}

// Validate checks internal consistency of the declaration.
func (t Table) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("table name is required")
	}
	if len(t.Columns) == 0 {
		return fmt.Errorf("table %s declares no columns", t.Name)
	}
	declared := make(map[string]bool, len(t.Columns))
	for _, c := range t.Columns {
		if c == ColSyncStatus || c == ColUpdatedAt {
			return fmt.Errorf("table %s declares reserved column %s", t.Name, c)
		}
		declared[c] = true
	}
	for _, k := range t.PK {
		if !declared[k] {
			return fmt.Errorf("table %s: pk column %s not in columns", t.Name, k)
		}
	}
	for _, d := range t.DateFields {
		if !declared[d] {
			return fmt.Errorf("table %s: date field %s not in columns", t.Name, d)
		}
	}
	if t.SyncMode != "" && t.SyncMode != SyncBidirectional && t.SyncMode != SyncPullOnly {
		return fmt.Errorf("table %s: unknown sync_mode %q", t.Name, t.SyncMode)
	}
	return nil
}

// Set is the immutable collection of table declarations loaded at process
// start.
type Set struct {
	tables map[string]Table
	order  []string
}

// NewSet builds a Set from explicit declarations. Duplicate names and invalid
// declarations are rejected.
func NewSet(tables ...Table) (*Set, error) {
	s := &Set{tables: make(map[string]Table, len(tables))}
	for _, t := range tables {
		if err := t.Validate(); err != nil {
			return nil, err
		}
		if _, exists := s.tables[t.Name]; exists {
			return nil, fmt.Errorf("duplicate table declaration: %s", t.Name)
		}
		if t.SyncMode == "" {
			t.SyncMode = SyncBidirectional
		}
		s.tables[t.Name] = t
		s.order = append(s.order, t.Name)
	}
	return s, nil
}

// Lookup returns the declaration for name.
func (s *Set) Lookup(name string) (Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Names returns every configured table name in declaration order.
func (s *Set) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// tomlFile is the on-disk overlay format.
type tomlFile struct {
	Table []Table `toml:"table"`
}

// LoadFile reads table declarations from a TOML file and merges them over
// base. A file entry with the same name as a base entry replaces it; new
// names are appended. base may be nil.
func LoadFile(path string, base *Set) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read table config: %w", err)
	}

	var f tomlFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse table config %s: %w", path, err)
	}

	merged := []Table{}
	seen := make(map[string]Table, len(f.Table))
	for _, t := range f.Table {
		seen[t.Name] = t
	}
	if base != nil {
		for _, name := range base.order {
			if override, ok := seen[name]; ok {
				merged = append(merged, override)
				delete(seen, name)
			} else {
				merged = append(merged, base.tables[name])
			}
		}
	}
	for _, t := range f.Table {
		if _, stillNew := seen[t.Name]; stillNew {
			merged = append(merged, t)
			delete(seen, t.Name)
		}
	}

	return NewSet(merged...)
}
