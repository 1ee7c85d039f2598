package store

import "math"

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// Page selects one page of a list query. Pages are 1-indexed.
type Page struct {
	Number int
	Size   int
}

// NormalizePage clamps page number and size into valid bounds.
func NormalizePage(number, size int) Page {
	if number < 1 {
		number = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return Page{Number: number, Size: size}
}

func (p Page) offset() int {
	return (p.Number - 1) * p.Size
}

// PageInfo describes the page returned alongside its items.
type PageInfo struct {
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	HasNext    bool  `json:"has_next"`
}

func pageInfo(total int64, p Page) PageInfo {
	totalPages := int(math.Ceil(float64(total) / float64(p.Size)))
	return PageInfo{
		Total:      total,
		TotalPages: totalPages,
		Page:       p.Number,
		PageSize:   p.Size,
		HasNext:    p.Number < totalPages,
	}
}
