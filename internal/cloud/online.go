package cloud

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/burakseven/takip/internal/gdrive"
	"github.com/burakseven/takip/internal/gsheets"
	"github.com/burakseven/takip/internal/netcheck"
	"github.com/burakseven/takip/internal/settings"
)

// Online is the Adapter used when the application has network access. The
// remote gateways are cheap to construct and defer all network traffic to
// their first real call, so building this adapter costs nothing.
type Online struct {
	sheets   *gsheets.Gateway
	drive    *gdrive.Gateway
	settings *settings.Settings
	probe    netcheck.Prober
	logger   *log.Logger
}

// NewOnline creates the online adapter. settings may be nil; probe may be
// nil for the default reachability probe.
func NewOnline(sheets *gsheets.Gateway, drive *gdrive.Gateway, st *settings.Settings, probe netcheck.Prober, logger *log.Logger) *Online {
	if probe == nil {
		probe = netcheck.Default
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[online] ", log.LstdFlags)
	}
	return &Online{sheets: sheets, drive: drive, settings: st, probe: probe, logger: logger}
}

// Mode implements Adapter.
func (o *Online) Mode() Mode {
	return ModeOnline
}

// HealthCheck implements Adapter. A failed probe means remote writes would
// begin and then drop mid-batch; the caller should not start one.
func (o *Online) HealthCheck(ctx context.Context) (bool, string) {
	if err := o.probe(); err != nil {
		return false, fmt.Sprintf("remote unreachable: %v", err)
	}
	return true, "remote reachable"
}

// UploadFile implements Adapter. Attachments are made public so the stored
// location is a shareable link; when the permission step fails the raw file
// ID is stored instead.
func (o *Online) UploadFile(ctx context.Context, req UploadRequest) (string, error) {
	res, err := o.drive.UploadFile(ctx, req.LocalPath, req.ParentFolderID, req.CustomName, true)
	if err != nil {
		return "", err
	}
	if res.Link != "" {
		return res.Link, nil
	}
	return res.ID, nil
}

// FindOrCreateFolder implements Adapter.
func (o *Online) FindOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	return o.drive.FindOrCreateFolder(ctx, name, parentID)
}

// FolderID implements Adapter. The logical name is resolved through the
// settings table first; unmapped names fall back to a remote search.
func (o *Online) FolderID(ctx context.Context, name string) (string, error) {
	if o.settings != nil {
		id, err := o.settings.RemoteFolderID(ctx, name)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}
	return o.drive.FindFolder(ctx, name, "")
}

// Worksheet implements Adapter.
func (o *Online) Worksheet(ctx context.Context, table string) (*gsheets.Worksheet, error) {
	return o.sheets.Worksheet(ctx, table)
}
