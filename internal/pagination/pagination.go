// Package pagination holds the page math shared by every listing operation.
package pagination

// Page is one page of a listing plus the metadata callers need to render
// pagers deterministically.
type Page[T any] struct {
	CurrentPage     int
	PageSize        int
	TotalItems      int
	TotalPages      int
	HasPreviousPage bool
	HasNextPage     bool
	Items           []T
}

// New builds a Page from the items of the requested page and the total item
// count. TotalPages is ceil(total/size).
func New[T any](items []T, page, size, total int) Page[T] {
	page = Clamp(page)
	totalPages := 0
	if size > 0 {
		totalPages = (total + size - 1) / size
	}
	return Page[T]{
		CurrentPage:     page,
		PageSize:        size,
		TotalItems:      total,
		TotalPages:      totalPages,
		HasPreviousPage: page > 1,
		HasNextPage:     page < totalPages,
		Items:           items,
	}
}

// Clamp normalizes a 1-based page number, treating anything below 1 as 1.
func Clamp(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// Offset returns the row offset of a 1-based page.
func Offset(page, size int) int {
	return (Clamp(page) - 1) * size
}
