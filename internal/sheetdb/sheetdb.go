// Package sheetdb adapts a remote, spreadsheet-shaped backend into a small
// CRUD row store.
//
// Each table is a named sheet whose first row is an ordered header of
// column names; every data row below it is positional text cells. The
// backend has no row identity, no transactions and no locking, so all
// mutating operations are serialized per table and any row position
// computed inside an operation is valid only within that operation.
package sheetdb

import (
	"context"
	"errors"
)

// Sentinel errors for the row store failure taxonomy. Anything else
// returned by an operation is a remote call failure and should be treated
// the same way as ErrNotConfigured: the backend is unavailable.
var (
	// ErrNotConfigured is returned when credentials or the spreadsheet
	// identifier are missing. Operations fail fast instead of crashing the
	// process at startup.
	ErrNotConfigured = errors.New("row store backend is not configured")

	// ErrSchemaUndetermined is returned when a table has no stored header
	// row and no configured default header list.
	ErrSchemaUndetermined = errors.New("no header row and no default headers for table")
)

// Record is one logical row: a column-name to string-value mapping. Columns
// absent from a row read back as the empty string.
type Record map[string]string

// Clone returns a copy of the record.
func (r Record) Clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Predicate selects records. Predicates must be pure: they run against
// every row of a table and may run multiple times per operation.
type Predicate func(Record) bool

// FieldEquals returns a predicate matching rows whose column equals value.
func FieldEquals(column, value string) Predicate {
	return func(r Record) bool { return r[column] == value }
}

// Backend is the minimal surface sheetdb needs from the remote store.
// Row indices are 0-based and absolute: the header row is row 0, the first
// data row is row 1.
type Backend interface {
	// Values returns every row of the sheet, header included. An empty
	// sheet returns no rows.
	Values(ctx context.Context, sheet string) ([][]string, error)

	// Header returns the first row of the sheet, or nil if the sheet is
	// empty.
	Header(ctx context.Context, sheet string) ([]string, error)

	// WriteHeader overwrites the first row of the sheet.
	WriteHeader(ctx context.Context, sheet string, header []string) error

	// Append adds one row after the last non-empty row of the sheet.
	Append(ctx context.Context, sheet string, row []string) error

	// WriteRow overwrites the row at the given absolute index.
	WriteRow(ctx context.Context, sheet string, index int, row []string) error

	// DeleteRow structurally removes the row at the given absolute index,
	// shifting all subsequent rows up by one.
	DeleteRow(ctx context.Context, sheet string, index int) error
}

// project flattens a record onto the header order. Columns missing from
// the record become empty strings; record fields not in the header are
// dropped.
func project(header []string, r Record) []string {
	row := make([]string, len(header))
	for i, col := range header {
		row[i] = r[col]
	}
	return row
}

// zip builds a record from a header and a positional data row. Trailing
// cells the backend omitted default to the empty string.
func zip(header []string, row []string) Record {
	r := make(Record, len(header))
	for i, col := range header {
		if i < len(row) {
			r[col] = row[i]
		} else {
			r[col] = ""
		}
	}
	return r
}
