package models

import "math"

// Pagination defaults.
const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// maxOffset bounds the row offset so page arithmetic never overflows an int.
const maxOffset = math.MaxInt32 - MaxPageSize

// PageRequest selects a 1-based page of a listing.
type PageRequest struct {
	Page int
	Size int
}

// Normalize clamps the request to valid bounds.
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.Page-1 > maxOffset/p.Size {
		p.Page = maxOffset/p.Size + 1
	}
	return p
}

// Offset is the number of rows to skip.
func (p PageRequest) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Size
}

// Check reports a NotFound error when the page starts past the last row.
// The first page always exists, even for an empty listing.
func (p PageRequest) Check(total int64) error {
	n := p.Normalize()
	if n.Page > 1 && int64(n.Offset()) >= total {
		return &AppError{Code: CodeNotFound, Message: "Invalid page."}
	}
	return nil
}

// Page is one page of results together with the total count.
type Page[T any] struct {
	Count    int64 `json:"count"`
	Next     *int  `json:"next"`
	Previous *int  `json:"previous"`
	Results  []T   `json:"results"`
}

// NewPage wraps items fetched for req.
func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {
	req = req.Normalize()
	if items == nil {
		items = []T{}
	}
	page := Page[T]{Count: total, Results: items}
	if int64(req.Page)*int64(req.Size) < total {
		next := req.Page + 1
		page.Next = &next
	}
	if req.Page > 1 {
		prev := req.Page - 1
		page.Previous = &prev
	}
	return page
}

// MapPage converts the results of a page, keeping its navigation.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := Page[U]{Count: p.Count, Next: p.Next, Previous: p.Previous, Results: make([]U, 0, len(p.Results))}
	for _, item := range p.Results {
		out.Results = append(out.Results, fn(item))
	}
	return out
}
