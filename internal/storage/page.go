package storage

// Page is the envelope returned by every paginated listing endpoint.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Pages int   `json:"pages"`
}

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// Paginate slices an already-fetched result set. page starts at 1;
// out-of-range pages return an empty (never nil) item list.
func Paginate[T any](items []T, page, size int) Page[T] {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	total := int64(len(items))
	pages := int((total + int64(size) - 1) / int64(size))

	start := (page - 1) * size
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	window := items[start:end]
	out := make([]T, len(window))
	copy(out, window)

	return Page[T]{Items: out, Total: total, Page: page, Size: size, Pages: pages}
}
