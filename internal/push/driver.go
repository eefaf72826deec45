// Package push replicates dirty local rows into the remote spreadsheets.
//
// The driver enumerates exactly the syncable, keyed tables, reads their
// dirty rows, and writes each through the active cloud adapter into the
// mapped worksheet. A row is marked clean only after the remote write
// returns success, so a batch interrupted partway leaves the unpushed rows
// dirty and the next run re-pushes them. Pushes are idempotent per row:
// re-pushing a still-dirty row overwrites the same remote row.
//
// Conflict rule: last writer wins on whole rows keyed by primary key. The
// remote cell values are replaced with the local ones; no merge.
package push

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/burakseven/takip/internal/cloud"
	"github.com/burakseven/takip/internal/repo"
	"github.com/burakseven/takip/internal/store"
	"github.com/burakseven/takip/internal/tablecfg"
)

// worksheetClient is the slice of the worksheet handle the driver needs.
// Narrowed to an interface so table pushes are testable without a remote.
type worksheetClient interface {
	ReadAll(ctx context.Context) ([][]any, error)
	AppendRow(ctx context.Context, values []any) error
	UpdateRow(ctx context.Context, rowNumber int, values []any) error
}

// Result summarizes one push run.
type Result struct {
	// Tables is how many syncable tables were examined.
	Tables int
	// Pushed counts rows confirmed on the remote and marked clean.
	Pushed int
	// Failed counts rows whose remote write failed; they stay dirty.
	Failed int
	// Skipped counts tables skipped (offline adapter, missing mapping,
	// missing remote schema).
	Skipped int
}

// Driver pushes dirty rows through a cloud adapter.
type Driver struct {
	reg     *repo.Registry
	adapter cloud.Adapter
	logger  *log.Logger
}

// New creates a push driver over the registry and the active adapter.
func New(reg *repo.Registry, adapter cloud.Adapter, logger *log.Logger) *Driver {
	if logger == nil {
		logger = log.New(os.Stderr, "[push] ", log.LstdFlags)
	}
	return &Driver{reg: reg, adapter: adapter, logger: logger}
}

// PushAll replicates every dirty row in every push-eligible table.
//
// A health check runs first; starting a batch over a connection that would
// drop mid-batch is how partial-write states happen. Per-table and per-row
// failures are logged and counted but do not stop the run.
func (d *Driver) PushAll(ctx context.Context) (*Result, error) {
	if ok, msg := d.adapter.HealthCheck(ctx); !ok {
		return nil, fmt.Errorf("health check failed before push: %s", msg)
	}

	result := &Result{}
	for _, r := range d.reg.AllSyncable() {
		cfg := r.Table()
		if !cfg.PushEligible() {
			continue // pull-only: remote is authoritative
		}
		result.Tables++

		dirty, err := r.DirtyRows(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to read dirty rows of %s: %w", cfg.Name, err)
		}
		if len(dirty) == 0 {
			continue
		}

		ws, err := d.adapter.Worksheet(ctx, cfg.Name)
		if err != nil {
			d.logger.Printf("WARNING: skipping %s: %v", cfg.Name, err)
			result.Skipped++
			continue
		}
		if ws == nil {
			// Offline adapter: skip, proceed.
			result.Skipped++
			continue
		}

		pushed, failed := d.pushTable(ctx, r, ws, dirty)
		result.Pushed += pushed
		result.Failed += failed
	}

	d.logger.Printf("Push complete: tables=%d pushed=%d failed=%d skipped=%d",
		result.Tables, result.Pushed, result.Failed, result.Skipped)
	return result, nil
}

// pushTable writes one table's dirty rows into its worksheet.
func (d *Driver) pushTable(ctx context.Context, r repo.Repository, ws worksheetClient, dirty []store.Row) (pushed, failed int) {
	cfg := r.Table()

	remote, err := ws.ReadAll(ctx)
	if err != nil {
		d.logger.Printf("WARNING: failed to read worksheet for %s: %v", cfg.Name, err)
		return 0, len(dirty)
	}

	header := headerColumns(remote, cfg)
	if len(remote) == 0 {
		hv := make([]any, len(header))
		for i, c := range header {
			hv[i] = c
		}
		if err := ws.AppendRow(ctx, hv); err != nil {
			d.logger.Printf("WARNING: failed to write header for %s: %v", cfg.Name, err)
			return 0, len(dirty)
		}
		remote = [][]any{hv}
	}

	keyIdx, ok := keyIndexes(header, cfg.PK)
	if !ok {
		d.logger.Printf("WARNING: worksheet for %s lacks key columns %v", cfg.Name, cfg.PK)
		return 0, len(dirty)
	}

	gr, isGeneric := r.(interface {
		RowKey(store.Row) (repo.Key, error)
	})
	if !isGeneric {
		d.logger.Printf("WARNING: repository for %s cannot extract row keys", cfg.Name)
		return 0, len(dirty)
	}

	for _, row := range dirty {
		key, err := gr.RowKey(row)
		if err != nil {
			d.logger.Printf("WARNING: %s row without key: %v", cfg.Name, err)
			failed++
			continue
		}

		values := make([]any, len(header))
		for i, c := range header {
			if v, ok := row[c]; ok && v != nil {
				values[i] = fmt.Sprint(v)
			} else {
				values[i] = ""
			}
		}

		rowNumber := findRemoteRow(remote, keyIdx, key)
		if rowNumber > 0 {
			err = ws.UpdateRow(ctx, rowNumber, values)
		} else {
			err = ws.AppendRow(ctx, values)
			if err == nil {
				remote = append(remote, values)
			}
		}
		if err != nil {
			d.logger.Printf("WARNING: failed to push %s row %v: %v", cfg.Name, key, err)
			failed++
			continue
		}

		if err := r.MarkClean(ctx, key); err != nil {
			// The remote write landed; the row will be re-pushed, which
			// is safe by the idempotence rule.
			d.logger.Printf("WARNING: pushed %s row %v but could not mark clean: %v", cfg.Name, key, err)
			failed++
			continue
		}
		pushed++
	}
	return pushed, failed
}

// headerColumns returns the remote column order: the sheet's own header when
// present, the declared business columns otherwise. Bookkeeping columns stay
// local; the remote carries business data only.
func headerColumns(remote [][]any, cfg tablecfg.Table) []string {
	if len(remote) > 0 && len(remote[0]) > 0 {
		header := make([]string, len(remote[0]))
		for i, v := range remote[0] {
			header[i] = fmt.Sprint(v)
		}
		return header
	}
	return cfg.Columns
}

// keyIndexes locates every PK column in the header.
func keyIndexes(header []string, pk []string) ([]int, bool) {
	idx := make([]int, len(pk))
	for i, k := range pk {
		found := -1
		for j, h := range header {
			if h == k {
				found = j
				break
			}
		}
		if found < 0 {
			return nil, false
		}
		idx[i] = found
	}
	return idx, true
}

// findRemoteRow returns the 1-based sheet row matching key, or 0. Row 1 is
// the header and never matches.
func findRemoteRow(remote [][]any, keyIdx []int, key repo.Key) int {
	for rowNo := 2; rowNo <= len(remote); rowNo++ {
		cells := remote[rowNo-1]
		match := true
		for i, idx := range keyIdx {
			var cell string
			if idx < len(cells) {
				cell = fmt.Sprint(cells[idx])
			}
			if cell != fmt.Sprint(key[i]) {
				match = false
				break
			}
		}
		if match {
			return rowNo
		}
	}
	return 0
}
