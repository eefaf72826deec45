// Package maint implements the batch maintenance pass over stored dates.
//
// The pass canonicalizes every date-like column to YYYY-MM-DD, re-flags
// corrected rows on syncable tables so the next push carries the fix, and
// counts values it cannot parse without failing the row or the pass.
//
// A dry run executes the same statements inside a transaction that is rolled
// back, so the report is exact. Real runs take a timestamped backup copy of
// the store first unless explicitly suppressed.
package maint

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/burakseven/takip/internal/dates"
	"github.com/burakseven/takip/internal/store"
	"github.com/burakseven/takip/internal/tablecfg"
)

// Options configures one run of the pass.
type Options struct {
	// DryRun reports candidate changes and leaves the database unmodified.
	DryRun bool

	// SkipBackup suppresses the pre-run backup on a real run.
	SkipBackup bool

	// Tables is an explicit allowlist of table names. Empty means every
	// configured table with date-like columns, detected by declaration or
	// by name convention.
	Tables []string
}

// TableReport summarizes one table's scan.
type TableReport struct {
	Name        string
	Columns     []string
	Scanned     int
	Changed     int
	Unparseable int
}

// Report summarizes an entire run.
type Report struct {
	RunID      string
	DryRun     bool
	BackupPath string
	Tables     []TableReport
}

// TotalChanged sums changed rows across tables.
func (r *Report) TotalChanged() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Changed
	}
	return n
}

// TotalUnparseable sums unparseable diagnostics across tables.
func (r *Report) TotalUnparseable() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Unparseable
	}
	return n
}

// Pass is the maintenance job bound to one store and configuration set.
type Pass struct {
	st     *store.Store
	cfg    *tablecfg.Set
	logger *log.Logger
}

// New creates a maintenance pass.
func New(st *store.Store, cfg *tablecfg.Set, logger *log.Logger) *Pass {
	if logger == nil {
		logger = log.New(os.Stderr, "[maint] ", log.LstdFlags)
	}
	return &Pass{st: st, cfg: cfg, logger: logger}
}

// Run executes the pass and returns its report.
func (p *Pass) Run(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{
		RunID:  uuid.NewString(),
		DryRun: opts.DryRun,
	}

	targets := p.targetTables(opts.Tables)
	if len(targets) == 0 {
		p.logger.Printf("No tables with date columns to scan")
		return report, nil
	}

	if !opts.DryRun && !opts.SkipBackup {
		backupPath := fmt.Sprintf("%s.bak-%s", p.st.Path(), time.Now().Format("20060102-150405"))
		if err := p.st.Backup(backupPath); err != nil {
			return nil, fmt.Errorf("failed to back up before maintenance: %w", err)
		}
		report.BackupPath = backupPath
		p.logger.Printf("Backed up store to %s", backupPath)
	}

	tx, err := p.st.RawDB().BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin maintenance transaction: %w", err)
	}
	defer tx.Rollback()

	for _, target := range targets {
		tr, err := p.scanTable(ctx, tx, target)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", target.table.Name, err)
		}
		report.Tables = append(report.Tables, *tr)
	}

	if opts.DryRun {
		// Rollback via the deferred call; the report already reflects what
		// a real run would change.
		p.logger.Printf("Dry run: %d candidate rows across %d tables, nothing written",
			report.TotalChanged(), len(report.Tables))
		return report, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit maintenance updates: %w", err)
	}
	p.logger.Printf("Canonicalized %d rows across %d tables (run %s)",
		report.TotalChanged(), len(report.Tables), report.RunID)
	return report, nil
}

// target pairs a table with the date columns to scan in it.
type target struct {
	table   tablecfg.Table
	columns []string
}

// targetTables selects tables and their date columns. Declared date_fields
// win; otherwise columns are detected by name convention so tables whose
// declarations predate the date_fields policy are still covered.
func (p *Pass) targetTables(allow []string) []target {
	allowed := map[string]bool{}
	for _, name := range allow {
		allowed[name] = true
	}

	var out []target
	for _, name := range p.cfg.Names() {
		if len(allowed) > 0 && !allowed[name] {
			continue
		}
		t, _ := p.cfg.Lookup(name)

		cols := t.DateFields
		if len(cols) == 0 {
			for _, c := range t.Columns {
				if looksLikeDateColumn(c) {
					cols = append(cols, c)
				}
			}
		}
		if len(cols) == 0 {
			continue
		}
		out = append(out, target{table: t, columns: cols})
	}
	return out
}

// looksLikeDateColumn matches the naming convention of legacy tables.
func looksLikeDateColumn(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "tarih") || strings.Contains(n, "date")
}

// scanTable canonicalizes one table's date columns inside the transaction.
// Rows are addressed by the physical rowid so tables without a business key
// are not skipped.
func (p *Pass) scanTable(ctx context.Context, tx *sql.Tx, tg target) (*TableReport, error) {
	tr := &TableReport{Name: tg.table.Name, Columns: tg.columns}

	quoted := make([]string, len(tg.columns))
	for i, c := range tg.columns {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	query := fmt.Sprintf("SELECT rowid, %s FROM %q", strings.Join(quoted, ", "), tg.table.Name)

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	type pending struct {
		rowid int64
		sets  map[string]string
	}
	var updates []pending

	for rows.Next() {
		values := make([]any, len(tg.columns)+1)
		ptrs := make([]any, len(values))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		tr.Scanned++

		rowid, ok := values[0].(int64)
		if !ok {
			rows.Close()
			return nil, fmt.Errorf("unexpected rowid type %T", values[0])
		}

		sets := map[string]string{}
		for i, col := range tg.columns {
			stored := asString(values[i+1])
			if stored == "" {
				continue
			}
			canonical, err := dates.Normalize(stored)
			if err != nil {
				tr.Unparseable++
				continue
			}
			if canonical != stored {
				sets[col] = canonical
			}
		}
		if len(sets) > 0 {
			updates = append(updates, pending{rowid: rowid, sets: sets})
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	rows.Close()

	restamp := tg.table.PushEligible()
	now := time.Now().UTC().Format(time.RFC3339)

	for _, u := range updates {
		var sets []string
		var args []any
		for col, v := range u.sets {
			sets = append(sets, fmt.Sprintf("%q = ?", col))
			args = append(args, v)
		}
		if restamp {
			sets = append(sets, fmt.Sprintf("%q = ?", tablecfg.ColSyncStatus), fmt.Sprintf("%q = ?", tablecfg.ColUpdatedAt))
			args = append(args, tablecfg.StatusDirty, now)
		}
		args = append(args, u.rowid)

		stmt := fmt.Sprintf("UPDATE %q SET %s WHERE rowid = ?", tg.table.Name, strings.Join(sets, ", "))
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			return nil, fmt.Errorf("failed to update rowid %d: %w", u.rowid, err)
		}
		tr.Changed++
	}

	return tr, nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return ""
	}
}
