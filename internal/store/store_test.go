package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/burakseven/takip/internal/tablecfg"
)

func testStorePath(t *testing.T) string {
	return filepath.Join(t.TempDir(), "test.db")
}

func deviceTable() tablecfg.Table {
	return tablecfg.Table{
		Name:     "Cihazlar",
		PK:       []string{"Cihazid"},
		Columns:  []string{"Cihazid", "Durum"},
		Syncable: true,
		SyncMode: tablecfg.SyncBidirectional,
	}
}

func TestOpen_Success(t *testing.T) {
	path := testStorePath(t)
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}
}

func TestOpen_UnreachableDir(t *testing.T) {
	// A file standing where the parent directory should be makes MkdirAll fail.
	tmp := t.TempDir()
	blocker := filepath.Join(tmp, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("failed to create blocker file: %v", err)
	}

	if _, err := Open(filepath.Join(blocker, "sub", "test.db")); err == nil {
		t.Error("Open() under a file succeeded, want error")
	}
}

func TestEnsureTable_Idempotent(t *testing.T) {
	s, err := Open(testStorePath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	tbl := deviceTable()
	if err := s.EnsureTable(tbl); err != nil {
		t.Fatalf("first EnsureTable() failed: %v", err)
	}
	if err := s.EnsureTable(tbl); err != nil {
		t.Errorf("second EnsureTable() failed: %v", err)
	}

	// Bookkeeping columns must exist on a syncable keyed table.
	if _, err := s.Query(`SELECT sync_status, updated_at FROM "Cihazlar"`); err != nil {
		t.Errorf("bookkeeping columns missing: %v", err)
	}
}

func TestQueryExec_RoundTrip(t *testing.T) {
	s, err := Open(testStorePath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if err := s.EnsureTable(deviceTable()); err != nil {
		t.Fatalf("EnsureTable() failed: %v", err)
	}

	n, err := s.Exec(`INSERT INTO "Cihazlar" ("Cihazid", "Durum") VALUES (?, ?)`, "C1", "Aktif")
	if err != nil {
		t.Fatalf("Exec() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Exec() affected %d rows, want 1", n)
	}

	rows, err := s.Query(`SELECT * FROM "Cihazlar" WHERE "Cihazid" = ?`, "C1")
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Query() returned %d rows, want 1", len(rows))
	}
	if rows[0]["Durum"] != "Aktif" {
		t.Errorf("row[Durum] = %v, want Aktif", rows[0]["Durum"])
	}
}

func TestExec_PrimaryKeyViolationPropagates(t *testing.T) {
	s, err := Open(testStorePath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if err := s.EnsureTable(deviceTable()); err != nil {
		t.Fatalf("EnsureTable() failed: %v", err)
	}

	insert := `INSERT INTO "Cihazlar" ("Cihazid", "Durum") VALUES (?, ?)`
	if _, err := s.Exec(insert, "C1", "Aktif"); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := s.Exec(insert, "C1", "Pasif"); err == nil {
		t.Error("duplicate primary key insert succeeded, want error")
	}
}

func TestExecMany_AllOrNothing(t *testing.T) {
	s, err := Open(testStorePath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if err := s.EnsureTable(deviceTable()); err != nil {
		t.Fatalf("EnsureTable() failed: %v", err)
	}

	insert := `INSERT INTO "Cihazlar" ("Cihazid", "Durum") VALUES (?, ?)`
	err = s.ExecMany(insert, [][]any{
		{"C1", "Aktif"},
		{"C2", "Aktif"},
		{"C1", "Pasif"}, // duplicate key, must roll back the whole batch
	})
	if err == nil {
		t.Fatal("ExecMany() with duplicate key succeeded, want error")
	}

	rows, err := s.Query(`SELECT COUNT(*) AS n FROM "Cihazlar"`)
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if n := rows[0]["n"]; n != int64(0) {
		t.Errorf("batch not rolled back, count = %v", n)
	}
}

func TestBackup_CreatesSnapshot(t *testing.T) {
	s, err := Open(testStorePath(t))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if err := s.EnsureTable(deviceTable()); err != nil {
		t.Fatalf("EnsureTable() failed: %v", err)
	}
	if _, err := s.Exec(`INSERT INTO "Cihazlar" ("Cihazid", "Durum") VALUES (?, ?)`, "C1", "Aktif"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	dst := filepath.Join(t.TempDir(), "backup", "snapshot.db")
	if err := s.Backup(dst); err != nil {
		t.Fatalf("Backup() failed: %v", err)
	}

	copy, err := Open(dst)
	if err != nil {
		t.Fatalf("Open(backup) failed: %v", err)
	}
	defer copy.Close()

	rows, err := copy.Query(`SELECT COUNT(*) AS n FROM "Cihazlar"`)
	if err != nil {
		t.Fatalf("Query(backup) failed: %v", err)
	}
	if rows[0]["n"] != int64(1) {
		t.Errorf("backup row count = %v, want 1", rows[0]["n"])
	}
}
