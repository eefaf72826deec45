// Package settings persists small key/value state inside the local store.
//
// Its main customer is attachment folder resolution: logical folder names
// map to a remote folder ID when online and a local path when offline, and
// those mappings live next to the data they describe so a copied database
// file carries them along.
package settings

import (
	"context"
	"fmt"

	"github.com/burakseven/takip/internal/store"
)

// TableName is the physical settings table inside the local database.
const TableName = "Ayarlar"

// Key prefixes namespacing the folder maps.
const (
	remoteFolderPrefix = "drive_folder."
	localFolderPrefix  = "local_folder."
)

// Settings reads and writes the key/value table.
type Settings struct {
	st *store.Store
}

// New creates the settings accessor, ensuring the backing table exists.
func New(st *store.Store) (*Settings, error) {
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %q (anahtar TEXT PRIMARY KEY, deger TEXT)", TableName)
	if _, err := st.Exec(ddl); err != nil {
		return nil, fmt.Errorf("failed to create settings table: %w", err)
	}
	return &Settings{st: st}, nil
}

// Get returns the value for key, or "" when absent. Absence is expected,
// not an error.
func (s *Settings) Get(ctx context.Context, key string) (string, error) {
	rows, err := s.st.QueryContext(ctx,
		fmt.Sprintf("SELECT deger FROM %q WHERE anahtar = ?", TableName), key)
	if err != nil {
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	if len(rows) == 0 {
		return "", nil
	}
	v, _ := rows[0]["deger"].(string)
	return v, nil
}

// Set stores or replaces the value for key.
func (s *Settings) Set(ctx context.Context, key, value string) error {
	query := fmt.Sprintf(
		"INSERT INTO %q (anahtar, deger) VALUES (?, ?) ON CONFLICT(anahtar) DO UPDATE SET deger = excluded.deger",
		TableName)
	if _, err := s.st.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// RemoteFolderID resolves a logical folder name to its remote folder ID.
// Returns "" when no mapping exists.
func (s *Settings) RemoteFolderID(ctx context.Context, name string) (string, error) {
	return s.Get(ctx, remoteFolderPrefix+name)
}

// SetRemoteFolderID records a logical folder's remote ID.
func (s *Settings) SetRemoteFolderID(ctx context.Context, name, id string) error {
	return s.Set(ctx, remoteFolderPrefix+name, id)
}

// LocalFolderPath resolves a logical folder name to its offline path.
// Returns "" when no mapping exists.
func (s *Settings) LocalFolderPath(ctx context.Context, name string) (string, error) {
	return s.Get(ctx, localFolderPrefix+name)
}

// SetLocalFolderPath records a logical folder's offline path.
func (s *Settings) SetLocalFolderPath(ctx context.Context, name, path string) error {
	return s.Set(ctx, localFolderPrefix+name, path)
}
