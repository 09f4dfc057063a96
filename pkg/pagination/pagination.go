// Package pagination normalizes page sizes and encodes keyset cursors.
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// Params is a keyset page request.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last row of the previous page.
type Cursor struct {
	CreatedAt time.Time `json:"at"`
	ID        string    `json:"id"`
}

var errMalformedCursor = errors.New("malformed cursor")

// NormalizeLimit maps non-positive sizes to DefaultLimit and caps at MaxLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// FetchLimit is NormalizeLimit plus one row, so the caller can tell whether
// another page exists.
func FetchLimit(limit int) int {
	return NormalizeLimit(limit) + 1
}

// Take trims rows fetched with FetchLimit(limit) down to one page. more is
// true when rows held the extra probe row.
func Take[T any](rows []T, limit int) (page []T, more bool) {
	n := NormalizeLimit(limit)
	if len(rows) <= n {
		return rows, false
	}
	return rows[:n], true
}

// NormalizePage clamps a 1-based page number.
func NormalizePage(page int) int {
	return max(page, 1)
}

// Offset is the row offset of a 1-based page.
func Offset(page, size int) int {
	return (NormalizePage(page) - 1) * NormalizeLimit(size)
}

func EncodeCursor(c Cursor) string {
	c.CreatedAt = c.CreatedAt.UTC()
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor returns nil for a blank value.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedCursor, err)
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return nil, errMalformedCursor
	}
	return &c, nil
}
