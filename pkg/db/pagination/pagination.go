package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var ErrInvalidPageToken = errors.New("invalid_page_token")

// Pagination carries cursor paging inputs bound from query strings.
type Pagination struct {
	PageToken string `form:"page_token" json:"page_token"`
	PageSize  int    `form:"page_size,default=20" json:"page_size"`
}

// Cursor is the opaque position encoded into page tokens.
type Cursor struct {
	ID        snowflake.ID `json:"id"`
	CreatedAt time.Time    `json:"created_at"`
}

// PageInfo describes the page boundaries returned to callers.
type PageInfo struct {
	NextPageToken string `json:"next_page_token,omitempty"`
	HasMore       bool   `json:"has_more"`
}

// Encode serializes the cursor into an opaque token.
func (c Cursor) Encode() string {
	raw, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// Decode parses an opaque token into a cursor.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return Cursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, ErrInvalidPageToken
	}
	var cursor Cursor
	if err := json.Unmarshal(raw, &cursor); err != nil {
		return Cursor{}, ErrInvalidPageToken
	}
	return cursor, nil
}

// Normalize clamps the page size to a sane window.
func (p Pagination) Normalize() Pagination {
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
	return p
}

// BuildPageInfo trims the overflow row and derives the next token.
func BuildPageInfo[T any](items []T, pageSize int, cursorOf func(T) Cursor) ([]T, PageInfo) {
	if pageSize <= 0 || len(items) <= pageSize {
		return items, PageInfo{}
	}
	items = items[:pageSize]
	last := items[len(items)-1]
	return items, PageInfo{
		NextPageToken: cursorOf(last).Encode(),
		HasMore:       true,
	}
}
