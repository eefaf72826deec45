// Package dates canonicalizes date values stored as text.
//
// Every date field in the local store is kept in canonical YYYY-MM-DD form.
// Historical rows written by hand or imported from spreadsheets arrive in a
// handful of regional formats; Parse tries each accepted layout in priority
// order and Normalize rewrites the value to canonical form.
//
// Normalize is idempotent: a canonical value parses against the first layout
// and rewrites to itself.
package dates

import (
	"fmt"
	"strings"
	"time"
)

// Canonical is the storage layout for all date fields.
const Canonical = "2006-01-02"

// layouts are tried in order. The canonical layout comes first so that
// already-normalized values short-circuit. Day-first layouts precede
// year-first variants because that is how the legacy rows were entered.
var layouts = []string{
	Canonical,
	"02/01/2006",
	"02.01.2006",
	"02-01-2006",
	"2006/01/02",
	"2006.01.02",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
}

// Parse interprets a textual date against the accepted layouts in priority
// order. The time portion of timestamp layouts is discarded by callers that
// only care about the calendar date.
func Parse(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date value")
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
}

// Normalize rewrites a textual date to canonical YYYY-MM-DD form.
//
// An empty or all-whitespace value normalizes to the empty string without
// error; rows with blank date cells are common and are not defects. A value
// that matches no accepted layout returns an error so the caller can count
// it as an unparseable diagnostic.
func Normalize(value string) (string, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return "", nil
	}
	t, err := Parse(v)
	if err != nil {
		return "", err
	}
	return t.Format(Canonical), nil
}

// IsCanonical reports whether the value is already in canonical form.
func IsCanonical(value string) bool {
	_, err := time.Parse(Canonical, strings.TrimSpace(value))
	return err == nil
}
