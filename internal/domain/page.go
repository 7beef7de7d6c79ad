package domain

import "math"

// PaginationParams carries page/limit values from the HTTP layer to the repo layer.
// Page is 1-indexed. Limit is capped at 100 by NewPaginationParams.
type PaginationParams struct {
	Page  int
	Limit int
}

// NewPaginationParams builds a PaginationParams from optional query params.
// Nil pointers fall back to page=1, limit=20.
func NewPaginationParams(page, limit *int) PaginationParams {
	p := PaginationParams{Page: 1, Limit: 20}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if limit != nil && *limit >= 1 {
		p.Limit = min(*limit, 100)
	}
	return p
}

// Offset returns the zero-based row offset for a SQL OFFSET clause.
// It saturates at math.MaxInt instead of overflowing for huge page numbers.
func (p PaginationParams) Offset() int {
	page, limit := max(p.Page, 1), max(p.Limit, 1)
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// Window returns the [lo, hi) bounds of this page within a slice of length n.
// Used when paging an in-memory batch rather than a database table.
// A page past the end yields the empty window [n, n).
func (p PaginationParams) Window(n int) (lo, hi int) {
	lo = min(p.Offset(), n)
	hi = lo + min(max(p.Limit, 1), n-lo)
	return lo, hi
}

// Page is one page of results plus the total size of the underlying set.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}
