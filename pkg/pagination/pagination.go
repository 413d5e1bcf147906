// Package pagination implements keyset pagination over collections
// ordered descending by a monotonic time key. Repositories fetch
// limit+1 rows strictly older than the cursor and hand the slice to
// NewPage, which trims the probe row and derives the next cursor.
// Cursors only move backward in time; there is no jumping to arbitrary
// pages, which keeps scan cost bounded and avoids the shifting-page
// problem of offset pagination under concurrent inserts.
package pagination

import (
	"fmt"
	"time"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Params are the caller-supplied pagination inputs. A nil Cursor means
// start from the newest row.
type Params struct {
	Limit  int
	Cursor *time.Time
}

// Normalize clamps the limit into [1, MaxLimit], applying the default
// when unset.
func (p Params) Normalize() Params {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Page is one page of a descending time-ordered listing.
type Page[T any] struct {
	Data       []T
	NextCursor *time.Time
	HasMore    bool
}

// NewPage trims a slice fetched with limit+1 rows down to limit and
// computes the continuation cursor from the key of the last returned
// row. key must return the ordering field the rows were sorted by.
func NewPage[T any](rows []T, limit int, key func(T) time.Time) Page[T] {
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	page := Page[T]{
		Data:    rows,
		HasMore: hasMore,
	}

	if hasMore && len(rows) > 0 {
		cursor := key(rows[len(rows)-1])
		page.NextCursor = &cursor
	}

	return page
}

// ParseCursor decodes a cursor query value. Cursors are RFC3339Nano
// timestamps; an empty string means no cursor.
func ParseCursor(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor %q: %w", raw, err)
	}
	return &t, nil
}

// FormatCursor encodes a cursor for transport. Returns nil for a nil
// cursor so JSON renders null.
func FormatCursor(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339Nano)
	return &s
}
