// Package pagination normalizes page/limit query parameters and builds the
// paged envelope returned by every list endpoint.
package pagination

import (
	"net/url"
	"strconv"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
	// MaxPage keeps (Number-1)*Limit far inside int32 for the OFFSET bind.
	MaxPage = 1_000_000
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Limit  int
}

// Normalize clamps the page to sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPage {
		p.Number = MaxPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Number - 1) * n.Limit
}

// FromQuery reads `page` and `limit` (or the legacy `totalItemsByPage`).
func FromQuery(q url.Values) Page {
	p := Page{}
	p.Number, _ = strconv.Atoi(q.Get("page"))
	limit := q.Get("limit")
	if limit == "" {
		limit = q.Get("totalItemsByPage")
	}
	p.Limit, _ = strconv.Atoi(limit)
	return p.Normalize()
}

// Result is the paged response envelope.
type Result[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

// NewResult builds the envelope; a nil slice is rendered as an empty list.
func NewResult[T any](data []T, total int, p Page) Result[T] {
	p = p.Normalize()
	if data == nil {
		data = []T{}
	}
	pages := 0
	if total > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Result[T]{Data: data, Total: total, Page: p.Number, TotalPages: pages}
}
