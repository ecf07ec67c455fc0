package sheetdb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/atelierhq/atelier/internal/keylock"
)

// Client is the row store. Reads are lock-free; mutations are serialized
// per table through the lock set, substituting for the backend's absent
// transactions.
type Client struct {
	backend  Backend
	defaults map[string][]string
	locks    *keylock.Set
}

// NewClient creates a row store over backend. defaults maps table names to
// the header list provisioned when a table has no header row yet. locks
// serializes mutations; it may be shared with other per-key users.
func NewClient(backend Backend, defaults map[string][]string, locks *keylock.Set) *Client {
	return &Client{backend: backend, defaults: defaults, locks: locks}
}

// headersFor resolves the ordered column list for table. If the table has
// no header row but a default list is configured, the default is written
// back best-effort and used for this call either way.
func (c *Client) headersFor(ctx context.Context, table string) ([]string, error) {
	header, err := c.backend.Header(ctx, table)
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		return header, nil
	}
	header = c.defaults[table]
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSchemaUndetermined, table)
	}
	if err := c.backend.WriteHeader(ctx, table, header); err != nil {
		// Provisioning is best-effort; the in-memory list still serves
		// this call.
		slog.WarnContext(ctx, "Failed to provision header row", "table", table, "err", err)
	} else {
		slog.InfoContext(ctx, "Provisioned header row", "table", table)
	}
	return header, nil
}

// getAll fetches the table in one call and returns the header alongside
// the zipped records. Used internally where the header is needed again for
// a write.
func (c *Client) getAll(ctx context.Context, table string) ([]string, []Record, error) {
	rows, err := c.backend.Values(ctx, table)
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	header := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, zip(header, row))
	}
	return header, records, nil
}

// GetAll returns every data row of table in insertion order. A table with
// no data rows returns an empty slice.
func (c *Client) GetAll(ctx context.Context, table string) ([]Record, error) {
	_, records, err := c.getAll(ctx, table)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

// FindRows returns all rows of table matching pred, in insertion order.
// Filtering happens in memory; the backend offers no server-side queries.
func (c *Client) FindRows(ctx context.Context, table string, pred Predicate) ([]Record, error) {
	all, err := c.GetAll(ctx, table)
	if err != nil {
		return nil, err
	}
	matched := []Record{}
	for _, r := range all {
		if pred(r) {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// FindOne returns the first row of table matching pred, or nil if none
// does. A nil record with a nil error means not found.
func (c *Client) FindOne(ctx context.Context, table string, pred Predicate) (Record, error) {
	all, err := c.GetAll(ctx, table)
	if err != nil {
		return nil, err
	}
	for _, r := range all {
		if pred(r) {
			return r, nil
		}
	}
	return nil, nil
}

// AppendRow projects record onto the table's header order and appends it
// as a new last row. Record fields with no matching column are dropped;
// missing columns become empty strings.
func (c *Client) AppendRow(ctx context.Context, table string, record Record) error {
	return c.locks.WithLock(ctx, table, func(ctx context.Context) error {
		header, err := c.headersFor(ctx, table)
		if err != nil {
			return err
		}
		return c.backend.Append(ctx, table, project(header, record))
	})
}

// UpdateRow merges patch onto the first row matching pred and writes the
// merged row back in place. Returns false when nothing matched. The locate
// and the write share one critical section: a concurrent delete would
// otherwise shift the matched position between the read and the write and
// corrupt an unrelated row.
func (c *Client) UpdateRow(ctx context.Context, table string, pred Predicate, patch Record) (bool, error) {
	found := false
	err := c.locks.WithLock(ctx, table, func(ctx context.Context) error {
		header, records, err := c.getAll(ctx, table)
		if err != nil {
			return err
		}
		idx := indexOf(records, pred)
		if idx < 0 {
			return nil
		}
		merged := records[idx].Clone()
		for k, v := range patch {
			merged[k] = v
		}
		// +1 skips the header row. The index is only valid inside this
		// critical section.
		if err := c.backend.WriteRow(ctx, table, idx+1, project(header, merged)); err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

// DeleteRow structurally removes the first row matching pred, shifting
// subsequent rows up by one. Returns false when nothing matched. Runs as a
// single critical section for the same reason as UpdateRow, and because
// two concurrent deletes computed from stale positions could each remove
// the wrong row.
func (c *Client) DeleteRow(ctx context.Context, table string, pred Predicate) (bool, error) {
	found := false
	err := c.locks.WithLock(ctx, table, func(ctx context.Context) error {
		_, records, err := c.getAll(ctx, table)
		if err != nil {
			return err
		}
		idx := indexOf(records, pred)
		if idx < 0 {
			return nil
		}
		if err := c.backend.DeleteRow(ctx, table, idx+1); err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, err
}

func indexOf(records []Record, pred Predicate) int {
	for i, r := range records {
		if pred(r) {
			return i
		}
	}
	return -1
}
