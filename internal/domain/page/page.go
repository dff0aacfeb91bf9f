// Package page holds the pagination envelope shared by list endpoints.
package page

import "singr-service/internal/domain/constants"

// Page is one slice of a larger result set.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// New builds a Page and derives TotalPages.
func New[T any](items []T, total int64, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Page[T]{Items: items, Total: total, Page: page, Limit: limit, TotalPages: pages}
}

// Normalize applies defaults and clamps to the allowed bounds.
func Normalize(pageNum, limit *int, defaultLimit int) (int, int) {
	p, l := 1, defaultLimit
	if pageNum != nil && *pageNum >= 1 {
		p = *pageNum
	}
	if limit != nil {
		l = *limit
	}
	if l < constants.PaginationMinLimit {
		l = constants.PaginationMinLimit
	}
	if l > constants.PaginationMaxLimit {
		l = constants.PaginationMaxLimit
	}
	return p, l
}

// Offset is the number of rows to skip for page p.
func Offset(p, limit int) int {
	return (p - 1) * limit
}
