// Package sheetdbtest provides an in-memory sheetdb.Backend for tests.
package sheetdbtest

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Fake is an in-memory backend with the same positional semantics as the
// remote store: row 0 is the header, deletes shift subsequent rows up.
type Fake struct {
	mu     sync.Mutex
	sheets map[string][][]string

	// FailWriteHeader makes WriteHeader fail, to exercise the best-effort
	// header provisioning path.
	FailWriteHeader bool

	// ReadDelay widens the window between a locate and the following
	// write, making unserialized races observable.
	ReadDelay time.Duration
}

// NewFake returns an empty fake backend.
func NewFake() *Fake {
	return &Fake{sheets: map[string][][]string{}}
}

// Seed replaces the sheet's rows, header included.
func (f *Fake) Seed(sheet string, rows ...[]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sheets[sheet] = rows
}

// Rows returns a copy of the sheet's rows, header included.
func (f *Fake) Rows(sheet string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.copyRows(sheet)
}

func (f *Fake) copyRows(sheet string) [][]string {
	rows := make([][]string, len(f.sheets[sheet]))
	for i, r := range f.sheets[sheet] {
		rows[i] = append([]string(nil), r...)
	}
	return rows
}

// Values implements sheetdb.Backend.
func (f *Fake) Values(_ context.Context, sheet string) ([][]string, error) {
	f.mu.Lock()
	rows := f.copyRows(sheet)
	f.mu.Unlock()
	time.Sleep(f.ReadDelay)
	return rows, nil
}

// Header implements sheetdb.Backend.
func (f *Fake) Header(ctx context.Context, sheet string) ([]string, error) {
	rows, err := f.Values(ctx, sheet)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// WriteHeader implements sheetdb.Backend.
func (f *Fake) WriteHeader(_ context.Context, sheet string, header []string) error {
	if f.FailWriteHeader {
		return errors.New("write header rejected")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.sheets[sheet]
	if len(rows) == 0 {
		f.sheets[sheet] = [][]string{append([]string(nil), header...)}
	} else {
		rows[0] = append([]string(nil), header...)
	}
	return nil
}

// Append implements sheetdb.Backend.
func (f *Fake) Append(_ context.Context, sheet string, row []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sheets[sheet] = append(f.sheets[sheet], append([]string(nil), row...))
	return nil
}

// WriteRow implements sheetdb.Backend.
func (f *Fake) WriteRow(_ context.Context, sheet string, index int, row []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.sheets[sheet]
	if index < 0 || index >= len(rows) {
		return errors.New("row index out of range")
	}
	rows[index] = append([]string(nil), row...)
	return nil
}

// DeleteRow implements sheetdb.Backend.
func (f *Fake) DeleteRow(_ context.Context, sheet string, index int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := f.sheets[sheet]
	if index < 0 || index >= len(rows) {
		return errors.New("row index out of range")
	}
	f.sheets[sheet] = append(rows[:index], rows[index+1:]...)
	return nil
}
