package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	id string
	at time.Time
}

func makeRows(n int) []row {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := make([]row, n)
	// Descending timestamps, newest first, the order a lister returns.
	for i := 0; i < n; i++ {
		rows[i] = row{
			id: string(rune('a' + i)),
			at: base.Add(-time.Duration(i) * time.Minute),
		}
	}
	return rows
}

func TestParams_Normalize(t *testing.T) {
	tests := []struct {
		name     string
		limit    int
		expected int
	}{
		{name: "zero gets default", limit: 0, expected: DefaultLimit},
		{name: "negative gets default", limit: -3, expected: DefaultLimit},
		{name: "within range kept", limit: 25, expected: 25},
		{name: "above max clamped", limit: 500, expected: MaxLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Params{Limit: tt.limit}.Normalize()
			assert.Equal(t, tt.expected, p.Limit)
		})
	}
}

func TestNewPage_WalksAllRows(t *testing.T) {
	all := makeRows(12)
	limit := 5
	key := func(r row) time.Time { return r.at }

	// fetch simulates a repository: limit+1 rows strictly older than cursor.
	fetch := func(cursor *time.Time) []row {
		var out []row
		for _, r := range all {
			if cursor != nil && !r.at.Before(*cursor) {
				continue
			}
			out = append(out, r)
			if len(out) == limit+1 {
				break
			}
		}
		return out
	}

	// First page: 5 rows, hasMore, cursor at the 5th row.
	page1 := NewPage(fetch(nil), limit, key)
	require.Len(t, page1.Data, 5)
	assert.True(t, page1.HasMore)
	require.NotNil(t, page1.NextCursor)
	assert.Equal(t, all[4].at, *page1.NextCursor)

	// Second page: next 5 rows.
	page2 := NewPage(fetch(page1.NextCursor), limit, key)
	require.Len(t, page2.Data, 5)
	assert.True(t, page2.HasMore)
	assert.Equal(t, all[5].id, page2.Data[0].id)

	// Final page: remaining 2 rows, no cursor.
	page3 := NewPage(fetch(page2.NextCursor), limit, key)
	require.Len(t, page3.Data, 2)
	assert.False(t, page3.HasMore)
	assert.Nil(t, page3.NextCursor)
}

func TestNewPage_ExactlyLimitRows(t *testing.T) {
	rows := makeRows(5)

	page := NewPage(rows, 5, func(r row) time.Time { return r.at })

	assert.Len(t, page.Data, 5)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
}

func TestNewPage_Empty(t *testing.T) {
	page := NewPage(nil, 5, func(r row) time.Time { return r.at })

	assert.Empty(t, page.Data)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)
}

func TestParseCursor(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	cursor, err := ParseCursor(at.Format(time.RFC3339Nano))
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.True(t, cursor.Equal(at))

	cursor, err = ParseCursor("")
	require.NoError(t, err)
	assert.Nil(t, cursor)

	_, err = ParseCursor("not-a-timestamp")
	assert.Error(t, err)
}
