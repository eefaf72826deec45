package cloud

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/burakseven/takip/internal/gsheets"
	"github.com/burakseven/takip/internal/settings"
)

// Offline is the Adapter used when the application runs without a network.
// It never touches the network: uploads copy into a namespaced local folder
// and remote lookups answer "skip, proceed".
type Offline struct {
	baseDir  string
	settings *settings.Settings
	logger   *log.Logger
}

// NewOffline creates the offline adapter. Uploads land under baseDir unless
// the settings table maps the logical folder to another local path.
// settings may be nil.
func NewOffline(baseDir string, st *settings.Settings, logger *log.Logger) *Offline {
	if logger == nil {
		logger = log.New(os.Stderr, "[offline] ", log.LstdFlags)
	}
	return &Offline{baseDir: baseDir, settings: st, logger: logger}
}

// Mode implements Adapter.
func (o *Offline) Mode() Mode {
	return ModeOffline
}

// HealthCheck implements Adapter. Local storage is always available.
func (o *Offline) HealthCheck(ctx context.Context) (bool, string) {
	if err := os.MkdirAll(o.baseDir, 0755); err != nil {
		return false, fmt.Sprintf("attachment folder unavailable: %v", err)
	}
	return true, "offline mode: storing attachments locally"
}

// UploadFile implements Adapter. The source is copied into the offline
// folder; an existing file with the same name is never overwritten, the
// copy gains a _1, _2, ... suffix instead.
func (o *Offline) UploadFile(ctx context.Context, req UploadRequest) (string, error) {
	dir, err := o.folderPath(ctx, req.OfflineFolder)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create offline folder: %w", err)
	}

	name := req.CustomName
	if name == "" {
		name = filepath.Base(req.LocalPath)
	}

	dst, err := collisionFreePath(dir, name)
	if err != nil {
		return "", err
	}
	if err := copyFile(req.LocalPath, dst); err != nil {
		return "", err
	}

	o.logger.Printf("Stored attachment locally: %s", dst)
	return dst, nil
}

// FindOrCreateFolder implements Adapter: offline means skip.
func (o *Offline) FindOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	return "", nil
}

// FolderID implements Adapter: offline means skip.
func (o *Offline) FolderID(ctx context.Context, name string) (string, error) {
	return "", nil
}

// Worksheet implements Adapter: offline means skip.
func (o *Offline) Worksheet(ctx context.Context, table string) (*gsheets.Worksheet, error) {
	return nil, nil
}

// folderPath resolves the directory for a logical folder, preferring a
// settings-table mapping over the default baseDir layout.
func (o *Offline) folderPath(ctx context.Context, folder string) (string, error) {
	if folder == "" {
		return o.baseDir, nil
	}
	if o.settings != nil {
		path, err := o.settings.LocalFolderPath(ctx, folder)
		if err != nil {
			return "", err
		}
		if path != "" {
			return path, nil
		}
	}
	return filepath.Join(o.baseDir, folder), nil
}

// collisionFreePath returns dir/name, suffixing the stem with _1, _2, ...
// until the name is unused.
func collisionFreePath(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(dir, name)
	for i := 1; ; i++ {
		_, err := os.Stat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check %s: %w", candidate, err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open attachment source: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create local copy: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy attachment: %w", err)
	}
	return nil
}
