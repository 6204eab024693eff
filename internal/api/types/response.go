// internal/api/types/response.go
package types

// PaginatedResponse defines a generic structure for paginated API responses.
// T represents the type of data contained in the 'Data' slice.
type PaginatedResponse[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	TotalCount int64 `json:"total_count"`
}

// NewPaginatedResponse builds a page, never encoding a nil slice as null.
func NewPaginatedResponse[T any](data []T, page, size int, total int64) PaginatedResponse[T] {
	if data == nil {
		data = []T{}
	}
	return PaginatedResponse[T]{Data: data, Page: page, Size: size, TotalCount: total}
}
