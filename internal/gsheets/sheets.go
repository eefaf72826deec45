// Package gsheets provides remote spreadsheet access and the OAuth
// credential lifecycle behind it.
//
// Business tables are mapped to (spreadsheet, worksheet) pairs through a
// static map overridable by a JSON file; the gateway resolves the pair,
// locates the spreadsheet by name in the file store, and hands back a
// Worksheet handle for row I/O.
package gsheets

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/burakseven/takip/internal/errs"
)

const spreadsheetMime = "application/vnd.google-apps.spreadsheet"

// ClientSource supplies an authorized HTTP client. Satisfied by AuthManager.
type ClientSource interface {
	Client(ctx context.Context) (*http.Client, error)
}

// Gateway is the remote spreadsheet gateway.
//
// Cheap to construct: no network traffic happens until the first real call,
// when the underlying services are built once under a lock.
type Gateway struct {
	auth   ClientSource
	names  *NameMap
	logger *log.Logger

	mu        sync.Mutex
	sheetsSvc *sheets.Service
	driveSvc  *drive.Service
}

// NewGateway creates a spreadsheet gateway. names resolves business table
// names to remote references.
func NewGateway(auth ClientSource, names *NameMap, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.New(os.Stderr, "[sheets] ", log.LstdFlags)
	}
	return &Gateway{auth: auth, names: names, logger: logger}
}

// services builds the API clients on first use, sharing the handshake done
// by the auth manager.
func (g *Gateway) services(ctx context.Context) (*sheets.Service, *drive.Service, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sheetsSvc != nil && g.driveSvc != nil {
		return g.sheetsSvc, g.driveSvc, nil
	}

	client, err := g.auth.Client(ctx)
	if err != nil {
		return nil, nil, err
	}

	sheetsSvc, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	driveSvc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create drive service: %w", err)
	}

	g.sheetsSvc = sheetsSvc
	g.driveSvc = driveSvc
	return sheetsSvc, driveSvc, nil
}

// Worksheet resolves a business table name to a live worksheet handle.
//
// Returns errs.ErrSheetMappingNotFound when the table has no map entry and
// errs.ErrRemoteSchemaMissing when the mapped spreadsheet or worksheet does
// not exist remotely. Transport failures propagate as-is.
func (g *Gateway) Worksheet(ctx context.Context, table string) (*Worksheet, error) {
	ref, err := g.names.Resolve(table)
	if err != nil {
		return nil, err
	}

	sheetsSvc, driveSvc, err := g.services(ctx)
	if err != nil {
		return nil, err
	}

	spreadsheetID, err := findSpreadsheetID(ctx, driveSvc, ref.Spreadsheet)
	if err != nil {
		return nil, err
	}

	ss, err := sheetsSvc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet %s: %w", ref.Spreadsheet, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties.Title == ref.Worksheet {
			return &Worksheet{
				svc:           sheetsSvc,
				SpreadsheetID: spreadsheetID,
				Title:         ref.Worksheet,
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: worksheet %s in %s", errs.ErrRemoteSchemaMissing, ref.Worksheet, ref.Spreadsheet)
}

// findSpreadsheetID locates a spreadsheet file by name.
func findSpreadsheetID(ctx context.Context, driveSvc *drive.Service, name string) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false", name, spreadsheetMime)
	list, err := driveSvc.Files.List().Q(query).Fields("files(id, name)").PageSize(2).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to search for spreadsheet %s: %w", name, err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("%w: spreadsheet %s", errs.ErrRemoteSchemaMissing, name)
	}
	return list.Files[0].Id, nil
}

// Worksheet is a handle on one worksheet tab open for row I/O.
type Worksheet struct {
	svc           *sheets.Service
	SpreadsheetID string
	Title         string
}

// ReadAll returns every populated row, the header row included.
func (w *Worksheet) ReadAll(ctx context.Context) ([][]any, error) {
	resp, err := w.svc.Spreadsheets.Values.Get(w.SpreadsheetID, w.Title).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %s: %w", w.Title, err)
	}
	return resp.Values, nil
}

// AppendRow appends one row after the last populated row.
func (w *Worksheet) AppendRow(ctx context.Context, values []any) error {
	body := &sheets.ValueRange{Values: [][]any{values}}
	_, err := w.svc.Spreadsheets.Values.
		Append(w.SpreadsheetID, w.Title, body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append to worksheet %s: %w", w.Title, err)
	}
	return nil
}

// UpdateRow overwrites the 1-based rowNumber with values.
func (w *Worksheet) UpdateRow(ctx context.Context, rowNumber int, values []any) error {
	body := &sheets.ValueRange{Values: [][]any{values}}
	rng := fmt.Sprintf("%s!A%d", w.Title, rowNumber)
	_, err := w.svc.Spreadsheets.Values.
		Update(w.SpreadsheetID, rng, body).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update row %d in worksheet %s: %w", rowNumber, w.Title, err)
	}
	return nil
}
