// Package pagination parses page/page_size query parameters and shapes paged
// list responses.
package pagination

import (
	"math"
	"sync/atomic"

	"gorm.io/gorm"
)

// MaxPageSize bounds page_size on every list endpoint.
const MaxPageSize = 100

var defaultPageSize atomic.Int64

func init() {
	defaultPageSize.Store(20)
}

// SetDefaultPageSize sets the page size used when a request leaves
// page_size out, clamped to [1, MaxPageSize]. Non-positive values are ignored.
func SetDefaultPageSize(n int) {
	if n <= 0 {
		return
	}
	if n > MaxPageSize {
		n = MaxPageSize
	}
	defaultPageSize.Store(int64(n))
}

// DefaultPageSize returns the configured default page size.
func DefaultPageSize() int {
	return int(defaultPageSize.Load())
}

// PageRequest holds pagination parameters parsed from query strings.
type PageRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// Defaults fills in default values when page or page_size are not provided.
func (p *PageRequest) Defaults() {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize()
	}
}

// Offset returns the number of rows before the current page.
func (p *PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Window returns the skip/take pair a store query needs for this page.
func (p *PageRequest) Window() (skip, take int) {
	return p.Offset(), p.PageSize
}

// PageResponse wraps a paginated list of items with metadata.
type PageResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// NewPageResponse creates a PageResponse from the given data and total count.
// Data is never null in the JSON output.
func NewPageResponse[T any](data []T, page, pageSize int, totalItems int64) PageResponse[T] {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(math.Ceil(float64(totalItems) / float64(pageSize)))
	}
	if data == nil {
		data = []T{}
	}
	return PageResponse[T]{
		Data:       data,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}

// Paginate returns a GORM scope that applies OFFSET and LIMIT for the given
// page request. The audit trail is the only gorm-direct list; ledger rows go
// through Window and the store gateway.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		skip, take := req.Window()
		return db.Offset(skip).Limit(take)
	}
}
