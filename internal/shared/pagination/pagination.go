// Package pagination holds the limit/offset paging rules shared by the query services.
package pagination

// API-wide paging bounds.
const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Window is a validated limit/offset pair.
type Window struct {
	Limit  int
	Offset int
}

// DefaultWindow returns the paging applied when the caller supplies nothing.
func DefaultWindow() Window {
	return Window{Limit: DefaultLimit, Offset: 0}
}

// Valid reports whether the window respects the API bounds.
func (w Window) Valid() bool {
	return w.Limit >= 1 && w.Limit <= MaxLimit && w.Offset >= 0
}

// Page is one window of an ordered result set plus the unpaged total.
type Page[T any] struct {
	Items  []T
	Total  int64
	Limit  int
	Offset int
}

// Slice applies a window to an already-ordered, already-filtered slice.
// Used by the in-memory and redis adapters; SQL adapters page in the query.
func Slice[T any](items []T, w Window) []T {
	if w.Offset >= len(items) {
		return nil
	}
	end := w.Offset + w.Limit
	if end > len(items) {
		end = len(items)
	}
	out := make([]T, end-w.Offset)
	copy(out, items[w.Offset:end])
	return out
}
