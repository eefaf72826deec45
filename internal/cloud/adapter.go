// Package cloud abstracts file and sheet access behind one contract with an
// online and an offline implementation.
//
// Attachment-handling business code is written once against Adapter and
// behaves correctly whether or not the remote is reachable: online calls go
// to the spreadsheet and file-storage gateways, offline calls land in a
// namespaced local folder or report "skip" by returning zero values.
//
// Mode switches construct a new adapter; an adapter never mutates its mode
// in place. The Cache memoizes one adapter per mode.
package cloud

import (
	"context"
	"fmt"
	"sync"

	"github.com/burakseven/takip/internal/gsheets"
)

// Mode selects which Adapter implementation the application runs with.
type Mode string

const (
	ModeOnline  Mode = "online"
	ModeOffline Mode = "offline"
)

// UploadRequest describes one attachment upload.
type UploadRequest struct {
	// LocalPath is the source file on disk.
	LocalPath string

	// ParentFolderID is the remote parent folder. Ignored offline.
	ParentFolderID string

	// CustomName renames the stored file; empty keeps the source name.
	CustomName string

	// OfflineFolder namespaces the local copy when offline. Ignored online.
	OfflineFolder string
}

// Adapter is the uniform file/sheet access contract.
type Adapter interface {
	// Mode reports which implementation this is.
	Mode() Mode

	// HealthCheck reports whether remote writes can be attempted now.
	// Perform it before any batch of remote writes to avoid a connection
	// dropping mid-batch.
	HealthCheck(ctx context.Context) (bool, string)

	// UploadFile stores an attachment and returns its location: a share
	// link or file ID online, a local path offline.
	UploadFile(ctx context.Context, req UploadRequest) (string, error)

	// FindOrCreateFolder returns a folder ID, creating the folder when
	// absent. Offline returns "" meaning "skip, proceed".
	FindOrCreateFolder(ctx context.Context, name, parentID string) (string, error)

	// FolderID resolves a logical folder name to its remote ID. Offline
	// returns "" meaning "skip, proceed".
	FolderID(ctx context.Context, name string) (string, error)

	// Worksheet returns a handle for the business table's remote
	// worksheet. Offline returns (nil, nil) meaning "skip, proceed".
	Worksheet(ctx context.Context, table string) (*gsheets.Worksheet, error)
}

// Builder constructs the adapter for a mode.
type Builder func(mode Mode) (Adapter, error)

// Cache hands out one adapter per mode. Adapters hold no per-call mutable
// state beyond the mode flag, so sharing the cached instance is safe.
type Cache struct {
	build Builder

	mu       sync.Mutex
	adapters map[Mode]Adapter
}

// NewCache creates an adapter cache over a builder.
func NewCache(build Builder) *Cache {
	return &Cache{build: build, adapters: make(map[Mode]Adapter)}
}

// Get returns the adapter for mode, constructing it on first request.
func (c *Cache) Get(mode Mode) (Adapter, error) {
	if mode != ModeOnline && mode != ModeOffline {
		return nil, fmt.Errorf("unknown application mode %q", mode)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.adapters[mode]; ok {
		return a, nil
	}

	a, err := c.build(mode)
	if err != nil {
		return nil, err
	}
	c.adapters[mode] = a
	return a, nil
}
