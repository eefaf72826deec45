package gsheets

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/burakseven/takip/internal/errs"
	"github.com/fsnotify/fsnotify"
)

// SheetRef names the remote location of a business table: which spreadsheet
// file and which worksheet tab inside it. Intentionally decoupled from table
// configuration naming; the remote layout predates the local schema.
type SheetRef struct {
	Spreadsheet string `json:"spreadsheet"`
	Worksheet   string `json:"worksheet"`
}

// builtinRefs is the hard-coded fallback map, consulted when no JSON
// override file is present or an entry is missing from it.
var builtinRefs = map[string]SheetRef{
	"Personel":     {Spreadsheet: "TakipVeri", Worksheet: "Personel"},
	"PersonelIzin": {Spreadsheet: "TakipVeri", Worksheet: "Izinler"},
	"Cihazlar":     {Spreadsheet: "CihazTakip", Worksheet: "Cihazlar"},
	"CihazAriza":   {Spreadsheet: "CihazTakip", Worksheet: "Arizalar"},
	"Kalibrasyon":  {Spreadsheet: "CihazTakip", Worksheet: "Kalibrasyon"},
	"Tatiller":     {Spreadsheet: "TakipVeri", Worksheet: "Tatiller"},
}

// NameMap resolves business table names to remote sheet references.
//
// Resolution order: JSON override file entry, then the built-in map. The
// override file can be edited while the desktop app runs; Watch reloads it
// on change.
type NameMap struct {
	path string

	mu       sync.RWMutex
	override map[string]SheetRef

	logger *log.Logger
}

// NewNameMap creates a resolver. path may be empty, in which case only the
// built-in map is consulted. A missing file at path is not an error; the
// override is simply absent until the file appears.
func NewNameMap(path string, logger *log.Logger) (*NameMap, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "[sheets] ", log.LstdFlags)
	}
	m := &NameMap{path: path, logger: logger}
	if path != "" {
		if err := m.Reload(); err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}
	return m, nil
}

// Reload re-reads the override file. Returns the underlying error when the
// file is missing so NewNameMap can distinguish absent from malformed.
func (m *NameMap) Reload() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return err
	}

	var refs map[string]SheetRef
	if err := json.Unmarshal(data, &refs); err != nil {
		return fmt.Errorf("failed to parse sheet map %s: %w", m.path, err)
	}

	m.mu.Lock()
	m.override = refs
	m.mu.Unlock()
	return nil
}

// Resolve returns the remote reference for a business table. A name present
// in neither the override nor the built-in map returns
// errs.ErrSheetMappingNotFound, distinguishable from transport failures.
func (m *NameMap) Resolve(table string) (SheetRef, error) {
	m.mu.RLock()
	ref, ok := m.override[table]
	m.mu.RUnlock()
	if ok {
		return ref, nil
	}
	if ref, ok := builtinRefs[table]; ok {
		return ref, nil
	}
	return SheetRef{}, fmt.Errorf("%w: %s", errs.ErrSheetMappingNotFound, table)
}

// Watch reloads the override file whenever it changes on disk, until ctx is
// canceled. Intended to run on its own goroutine; reload failures are logged
// and the previous map stays in effect.
func (m *NameMap) Watch(ctx context.Context) error {
	if m.path == "" {
		return fmt.Errorf("no sheet map file configured")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files on save and
	// the watch would be lost with it.
	if err := watcher.Add(filepath.Dir(m.path)); err != nil {
		return fmt.Errorf("failed to watch sheet map directory: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != m.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if err := m.Reload(); err != nil {
				m.logger.Printf("WARNING: failed to reload sheet map: %v", err)
				continue
			}
			m.logger.Printf("Reloaded sheet map from %s", m.path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Printf("WARNING: sheet map watcher error: %v", err)
		}
	}
}
