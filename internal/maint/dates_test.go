package maint

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/burakseven/takip/internal/store"
	"github.com/burakseven/takip/internal/tablecfg"
)

func setup(t *testing.T, tables ...tablecfg.Table) (*store.Store, *tablecfg.Set, *Pass) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.Open() failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg, err := tablecfg.NewSet(tables...)
	if err != nil {
		t.Fatalf("tablecfg.NewSet() failed: %v", err)
	}
	if err := st.EnsureSchema(cfg); err != nil {
		t.Fatalf("EnsureSchema() failed: %v", err)
	}
	return st, cfg, New(st, cfg, nil)
}

func recordTable() tablecfg.Table {
	return tablecfg.Table{
		Name:       "Kayitlar",
		PK:         []string{"Id"},
		Columns:    []string{"Id", "Tarih", "Not"},
		Syncable:   true,
		SyncMode:   tablecfg.SyncBidirectional,
		DateFields: []string{"Tarih"},
	}
}

// TestRun_DryRunReportsWithoutWriting covers the dry-run scenario: one
// candidate change reported, database unmodified.
func TestRun_DryRunReportsWithoutWriting(t *testing.T) {
	ctx := context.Background()
	st, _, pass := setup(t, recordTable())

	if _, err := st.Exec(`INSERT INTO "Kayitlar" ("Id", "Tarih", "sync_status") VALUES (?, ?, ?)`,
		"K1", "05/01/2024", tablecfg.StatusClean); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	report, err := pass.Run(ctx, Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run(dry) failed: %v", err)
	}
	if report.TotalChanged() != 1 {
		t.Errorf("dry run reported %d changes, want 1", report.TotalChanged())
	}
	if report.BackupPath != "" {
		t.Errorf("dry run took a backup at %s", report.BackupPath)
	}

	rows, err := st.Query(`SELECT "Tarih", "sync_status" FROM "Kayitlar" WHERE "Id" = ?`, "K1")
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if rows[0]["Tarih"] != "05/01/2024" {
		t.Errorf("dry run modified the row: Tarih = %v", rows[0]["Tarih"])
	}
	if rows[0]["sync_status"] != tablecfg.StatusClean {
		t.Errorf("dry run modified sync_status = %v", rows[0]["sync_status"])
	}
}

// TestRun_RealRunRewritesAndRestamps covers the real-run scenario: the date
// is canonicalized and the row re-flagged dirty for the next push.
func TestRun_RealRunRewritesAndRestamps(t *testing.T) {
	ctx := context.Background()
	st, _, pass := setup(t, recordTable())

	if _, err := st.Exec(`INSERT INTO "Kayitlar" ("Id", "Tarih", "sync_status") VALUES (?, ?, ?)`,
		"K1", "05/01/2024", tablecfg.StatusClean); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	report, err := pass.Run(ctx, Options{SkipBackup: true})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if report.TotalChanged() != 1 {
		t.Errorf("Run() reported %d changes, want 1", report.TotalChanged())
	}

	rows, err := st.Query(`SELECT "Tarih", "sync_status", "updated_at" FROM "Kayitlar" WHERE "Id" = ?`, "K1")
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if rows[0]["Tarih"] != "2024-01-05" {
		t.Errorf("Tarih = %v, want 2024-01-05", rows[0]["Tarih"])
	}
	if rows[0]["sync_status"] != tablecfg.StatusDirty {
		t.Errorf("sync_status = %v, want dirty", rows[0]["sync_status"])
	}
	if s, _ := rows[0]["updated_at"].(string); s == "" {
		t.Error("updated_at not stamped")
	}
}

// TestRun_NoOpLeavesCleanRowsAlone tests already-canonical rows keep their
// clean flag.
func TestRun_NoOpLeavesCleanRowsAlone(t *testing.T) {
	ctx := context.Background()
	st, _, pass := setup(t, recordTable())

	if _, err := st.Exec(`INSERT INTO "Kayitlar" ("Id", "Tarih", "sync_status") VALUES (?, ?, ?)`,
		"K1", "2024-01-05", tablecfg.StatusClean); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	report, err := pass.Run(ctx, Options{SkipBackup: true})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if report.TotalChanged() != 0 {
		t.Errorf("Run() reported %d changes, want 0", report.TotalChanged())
	}

	rows, _ := st.Query(`SELECT "sync_status" FROM "Kayitlar" WHERE "Id" = ?`, "K1")
	if rows[0]["sync_status"] != tablecfg.StatusClean {
		t.Errorf("no-op normalization dirtied the row: %v", rows[0]["sync_status"])
	}
}

// TestRun_UnparseableCountedNotFatal tests bad values surface as
// diagnostics while the rest of the table is still corrected.
func TestRun_UnparseableCountedNotFatal(t *testing.T) {
	ctx := context.Background()
	st, _, pass := setup(t, recordTable())

	seed := [][]any{
		{"K1", "bozuk veri", tablecfg.StatusClean},
		{"K2", "05/01/2024", tablecfg.StatusClean},
	}
	if err := st.ExecMany(`INSERT INTO "Kayitlar" ("Id", "Tarih", "sync_status") VALUES (?, ?, ?)`, seed); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	report, err := pass.Run(ctx, Options{SkipBackup: true})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if report.TotalUnparseable() != 1 {
		t.Errorf("unparseable = %d, want 1", report.TotalUnparseable())
	}
	if report.TotalChanged() != 1 {
		t.Errorf("changed = %d, want 1", report.TotalChanged())
	}

	rows, _ := st.Query(`SELECT "Tarih" FROM "Kayitlar" WHERE "Id" = ?`, "K1")
	if rows[0]["Tarih"] != "bozuk veri" {
		t.Errorf("unparseable value was modified: %v", rows[0]["Tarih"])
	}
}

// TestRun_KeylessTableViaRowid tests tables without a business key are
// still corrected through the physical row identifier.
func TestRun_KeylessTableViaRowid(t *testing.T) {
	ctx := context.Background()
	logTable := tablecfg.Table{
		Name:    "IslemGecmisi",
		Columns: []string{"IslemTarihi", "Aciklama"},
	}
	st, _, pass := setup(t, logTable)

	// No date_fields declared: the column is picked up by name convention.
	if _, err := st.Exec(`INSERT INTO "IslemGecmisi" ("IslemTarihi", "Aciklama") VALUES (?, ?)`,
		"15.06.2023", "bakim"); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	report, err := pass.Run(ctx, Options{SkipBackup: true})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if report.TotalChanged() != 1 {
		t.Fatalf("changed = %d, want 1", report.TotalChanged())
	}

	rows, _ := st.Query(`SELECT "IslemTarihi" FROM "IslemGecmisi"`)
	if rows[0]["IslemTarihi"] != "2023-06-15" {
		t.Errorf("IslemTarihi = %v, want 2023-06-15", rows[0]["IslemTarihi"])
	}
}

func TestRun_BackupTakenBeforeRealWrite(t *testing.T) {
	ctx := context.Background()
	st, _, pass := setup(t, recordTable())

	if _, err := st.Exec(`INSERT INTO "Kayitlar" ("Id", "Tarih") VALUES (?, ?)`, "K1", "05/01/2024"); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	report, err := pass.Run(ctx, Options{})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if report.BackupPath == "" {
		t.Fatal("real run took no backup")
	}
	if !strings.Contains(report.BackupPath, ".bak-") {
		t.Errorf("backup path %s not timestamped", report.BackupPath)
	}

	// The backup must hold the pre-correction value.
	backup, err := store.Open(report.BackupPath)
	if err != nil {
		t.Fatalf("failed to open backup: %v", err)
	}
	defer backup.Close()
	rows, err := backup.Query(`SELECT "Tarih" FROM "Kayitlar" WHERE "Id" = ?`, "K1")
	if err != nil {
		t.Fatalf("Query(backup) failed: %v", err)
	}
	if rows[0]["Tarih"] != "05/01/2024" {
		t.Errorf("backup Tarih = %v, want original value", rows[0]["Tarih"])
	}
}

func TestRun_AllowlistRestrictsTables(t *testing.T) {
	ctx := context.Background()
	other := tablecfg.Table{
		Name:       "Digerleri",
		PK:         []string{"Id"},
		Columns:    []string{"Id", "Tarih"},
		DateFields: []string{"Tarih"},
	}
	st, _, pass := setup(t, recordTable(), other)

	if _, err := st.Exec(`INSERT INTO "Kayitlar" ("Id", "Tarih") VALUES (?, ?)`, "K1", "05/01/2024"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if _, err := st.Exec(`INSERT INTO "Digerleri" ("Id", "Tarih") VALUES (?, ?)`, "D1", "05/01/2024"); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	report, err := pass.Run(ctx, Options{SkipBackup: true, Tables: []string{"Digerleri"}})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(report.Tables) != 1 || report.Tables[0].Name != "Digerleri" {
		t.Fatalf("allowlist not honored: %+v", report.Tables)
	}

	rows, _ := st.Query(`SELECT "Tarih" FROM "Kayitlar" WHERE "Id" = ?`, "K1")
	if rows[0]["Tarih"] != "05/01/2024" {
		t.Errorf("table outside allowlist was modified: %v", rows[0]["Tarih"])
	}
}
