package tablecfg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTable_PushEligible(t *testing.T) {
	cases := []struct {
		name  string
		table Table
		want  bool
	}{
		{
			name:  "syncable keyed bidirectional",
			table: Table{Name: "Cihazlar", PK: []string{"Cihazid"}, Columns: []string{"Cihazid"}, Syncable: true, SyncMode: SyncBidirectional},
			want:  true,
		},
		{
			name:  "pull only never pushes",
			table: Table{Name: "Tatiller", PK: []string{"Tarih"}, Columns: []string{"Tarih"}, Syncable: true, SyncMode: SyncPullOnly},
			want:  false,
		},
		{
			name:  "keyless excluded even if syncable",
			table: Table{Name: "Loglar", Columns: []string{"Mesaj"}, Syncable: true},
			want:  false,
		},
		{
			name:  "not syncable",
			table: Table{Name: "Gecici", PK: []string{"Id"}, Columns: []string{"Id"}},
			want:  false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.table.PushEligible(); got != tc.want {
				t.Errorf("PushEligible() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestTable_StorageColumns(t *testing.T) {
	syncable := Table{
		Name:     "Cihazlar",
		PK:       []string{"Cihazid"},
		Columns:  []string{"Cihazid", "Durum"},
		Syncable: true,
	}
	cols := syncable.StorageColumns()
	if len(cols) != 4 || cols[2] != ColSyncStatus || cols[3] != ColUpdatedAt {
		t.Errorf("StorageColumns() = %v, want declared + bookkeeping", cols)
	}

	keyless := Table{Name: "Loglar", Columns: []string{"Mesaj"}, Syncable: true}
	if got := keyless.StorageColumns(); len(got) != 1 {
		t.Errorf("keyless table must not gain bookkeeping columns, got %v", got)
	}
}

func TestTable_Validate(t *testing.T) {
	bad := []Table{
		{Name: "", Columns: []string{"A"}},
		{Name: "T", Columns: nil},
		{Name: "T", Columns: []string{"A"}, PK: []string{"B"}},
		{Name: "T", Columns: []string{"A"}, DateFields: []string{"B"}},
		{Name: "T", Columns: []string{"A", ColSyncStatus}},
		{Name: "T", Columns: []string{"A"}, SyncMode: "sideways"},
	}
	for i, tbl := range bad {
		if err := tbl.Validate(); err == nil {
			t.Errorf("case %d: Validate() succeeded, want error", i)
		}
	}
}

func TestNewSet_Duplicate(t *testing.T) {
	a := Table{Name: "T", Columns: []string{"A"}}
	if _, err := NewSet(a, a); err == nil {
		t.Error("NewSet() with duplicate names succeeded, want error")
	}
}

func TestLoadFile_MergesOverBase(t *testing.T) {
	base, err := NewSet(
		Table{Name: "Cihazlar", PK: []string{"Cihazid"}, Columns: []string{"Cihazid", "Durum"}, Syncable: true},
		Table{Name: "Personel", PK: []string{"Sicil"}, Columns: []string{"Sicil", "Ad"}, Syncable: true},
	)
	if err != nil {
		t.Fatalf("NewSet() failed: %v", err)
	}

	overlay := `
[[table]]
name = "Cihazlar"
pk = ["Cihazid"]
columns = ["Cihazid", "Durum", "Marka"]
syncable = true
sync_mode = "bidirectional"

[[table]]
name = "Tatiller"
pk = ["Tarih"]
columns = ["Tarih", "Aciklama"]
syncable = true
sync_mode = "pull_only"
date_fields = ["Tarih"]
`
	path := filepath.Join(t.TempDir(), "tables.toml")
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatalf("failed to write overlay: %v", err)
	}

	merged, err := LoadFile(path, base)
	if err != nil {
		t.Fatalf("LoadFile() failed: %v", err)
	}

	cihaz, ok := merged.Lookup("Cihazlar")
	if !ok {
		t.Fatal("Cihazlar missing after merge")
	}
	if len(cihaz.Columns) != 3 {
		t.Errorf("overlay did not replace Cihazlar, columns = %v", cihaz.Columns)
	}

	if _, ok := merged.Lookup("Personel"); !ok {
		t.Error("base-only table Personel lost in merge")
	}

	tatil, ok := merged.Lookup("Tatiller")
	if !ok {
		t.Fatal("overlay-only table Tatiller missing")
	}
	if tatil.SyncMode != SyncPullOnly {
		t.Errorf("Tatiller sync_mode = %q, want pull_only", tatil.SyncMode)
	}
}
