// Package errs defines the error taxonomy shared by the persistence and
// replication core.
//
// Callers distinguish failure classes with errors.Is():
//
//	if errors.Is(err, errs.ErrNoInternet) {
//	    // degrade to offline behavior
//	}
//
// Core methods raise precisely and never swallow; the convention of catching
// broadly and falling back to a safe default belongs to the consuming layer.
package errs

import "errors"

var (
	// ErrTableNotConfigured is returned when a table name has no entry in
	// the table configuration map. This is a programmer error, not a
	// runtime condition to recover from.
	ErrTableNotConfigured = errors.New("table not configured")

	// ErrMissingClientSecret is returned when the interactive consent flow
	// is required but the OAuth client secret file is absent.
	ErrMissingClientSecret = errors.New("OAuth client secret file not found")

	// ErrMissingToken is returned when no usable token exists and the
	// interactive consent flow cannot run (for example, no terminal).
	ErrMissingToken = errors.New("no usable OAuth token")

	// ErrNoInternet is returned when a reachability probe fails or a call
	// times out. Recoverable; callers may degrade to offline behavior.
	ErrNoInternet = errors.New("no internet connection")

	// ErrAuthExpired is returned when a token refresh fails and interactive
	// re-consent is required. Distinguished from generic connectivity loss.
	ErrAuthExpired = errors.New("authorization expired, re-consent required")

	// ErrSheetMappingNotFound is returned when a business table name has no
	// entry in the table-to-spreadsheet map.
	ErrSheetMappingNotFound = errors.New("no spreadsheet mapping for table")

	// ErrRemoteSchemaMissing is returned when the mapped spreadsheet or
	// worksheet does not exist on the remote side. Requires operator
	// action; never auto-corrected.
	ErrRemoteSchemaMissing = errors.New("remote spreadsheet or worksheet not found")

	// ErrRemoteRejected is returned when the remote accepted the connection
	// but rejected the request. Retrying will not help, unlike ErrNoInternet.
	ErrRemoteRejected = errors.New("remote rejected the request")
)
