// Package gdrive provides remote blob storage for attachments.
//
// Row data never embeds binary content; documents and photos referenced by
// rows are mirrored here (or to a local folder when offline) and only their
// location travels with the row.
package gdrive

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/burakseven/takip/internal/errs"
	"github.com/burakseven/takip/internal/netcheck"
)

const folderMime = "application/vnd.google-apps.folder"

// ClientSource supplies an authorized HTTP client.
type ClientSource interface {
	Client(ctx context.Context) (*http.Client, error)
}

// UploadResult reports where an uploaded file landed.
type UploadResult struct {
	ID string

	// Link is the shareable URL, populated only when the make-public
	// permission step succeeded. The ID is always usable regardless.
	Link string
}

// Gateway is the remote file-storage gateway. Cheap to construct; the API
// client is built lazily on first call.
type Gateway struct {
	auth   ClientSource
	probe  netcheck.Prober
	logger *log.Logger

	mu  sync.Mutex
	svc *drive.Service
}

// NewGateway creates a file-storage gateway. probe may be nil for the
// default reachability probe.
func NewGateway(auth ClientSource, probe netcheck.Prober, logger *log.Logger) *Gateway {
	if probe == nil {
		probe = netcheck.Default
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[drive] ", log.LstdFlags)
	}
	return &Gateway{auth: auth, probe: probe, logger: logger}
}

func (g *Gateway) service(ctx context.Context) (*drive.Service, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.svc != nil {
		return g.svc, nil
	}

	client, err := g.auth.Client(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	g.svc = svc
	return svc, nil
}

// classify wraps a transport error so callers can tell transient
// connectivity loss from a rejected request. The probe decides: unreachable
// network means retrying later may work, a reachable network means it won't.
func (g *Gateway) classify(err error) error {
	if err == nil {
		return nil
	}
	if perr := g.probe(); perr != nil {
		return fmt.Errorf("%w: %v", errs.ErrNoInternet, err)
	}
	return fmt.Errorf("%w: %v", errs.ErrRemoteRejected, err)
}

// UploadFile uploads localPath using a resumable session.
//
// When makePublic is set, an anyone-with-link read permission is attempted
// after the upload; if that step fails the raw file ID is still returned
// with an empty Link rather than failing the whole upload.
func (g *Gateway) UploadFile(ctx context.Context, localPath, parentID, customName string, makePublic bool) (*UploadResult, error) {
	svc, err := g.service(ctx)
	if err != nil {
		return nil, err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open upload source: %w", err)
	}
	defer src.Close()

	name := customName
	if name == "" {
		name = filepath.Base(localPath)
	}
	meta := &drive.File{Name: name}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	created, err := svc.Files.Create(meta).
		Media(src, googleapi.ChunkSize(4*1024*1024)).
		Fields("id, webViewLink").
		Context(ctx).Do()
	if err != nil {
		return nil, g.classify(err)
	}

	result := &UploadResult{ID: created.Id}
	if !makePublic {
		return result, nil
	}

	perm := &drive.Permission{Type: "anyone", Role: "reader"}
	if _, err := svc.Permissions.Create(created.Id, perm).Context(ctx).Do(); err != nil {
		g.logger.Printf("WARNING: uploaded %s but could not make it public: %v", name, err)
		return result, nil
	}

	link := created.WebViewLink
	if link == "" {
		meta, merr := svc.Files.Get(created.Id).Fields("webViewLink").Context(ctx).Do()
		if merr == nil {
			link = meta.WebViewLink
		}
	}
	result.Link = link
	return result, nil
}

// DownloadFile fetches fileID into dstPath.
func (g *Gateway) DownloadFile(ctx context.Context, fileID, dstPath string) error {
	svc, err := g.service(ctx)
	if err != nil {
		return err
	}

	resp, err := svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return g.classify(err)
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("failed to create download target: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return fmt.Errorf("failed to write download: %w", err)
	}
	return nil
}

// DeleteFile removes a remote file.
func (g *Gateway) DeleteFile(ctx context.Context, fileID string) error {
	svc, err := g.service(ctx)
	if err != nil {
		return err
	}
	if err := svc.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return g.classify(err)
	}
	return nil
}

// FileMetadata fetches name, size, and timestamps for a remote file.
func (g *Gateway) FileMetadata(ctx context.Context, fileID string) (*drive.File, error) {
	svc, err := g.service(ctx)
	if err != nil {
		return nil, err
	}
	meta, err := svc.Files.Get(fileID).
		Fields("id, name, size, mimeType, createdTime, modifiedTime, webViewLink").
		Context(ctx).Do()
	if err != nil {
		return nil, g.classify(err)
	}
	return meta, nil
}

// FindFolder returns the ID of a folder named name under parentID (any
// parent when parentID is empty), or "" when absent.
func (g *Gateway) FindFolder(ctx context.Context, name, parentID string) (string, error) {
	svc, err := g.service(ctx)
	if err != nil {
		return "", err
	}

	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", name, folderMime)
	if parentID != "" {
		query += fmt.Sprintf(" and '%s' in parents", parentID)
	}
	list, err := svc.Files.List().Q(query).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", g.classify(err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

// FindOrCreateFolder returns the ID of the named folder, creating it when
// absent.
func (g *Gateway) FindOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	id, err := g.FindFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	if id != "" {
		return id, nil
	}

	svc, err := g.service(ctx)
	if err != nil {
		return "", err
	}
	meta := &drive.File{Name: name, MimeType: folderMime}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}
	created, err := svc.Files.Create(meta).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", g.classify(err)
	}
	return created.Id, nil
}
