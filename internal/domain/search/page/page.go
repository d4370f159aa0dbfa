// Package page implements the offset cursor page contract.
package page

// Page is one window of an ordered result sequence.
type Page[T any] struct {
	items      []T
	nextCursor *int
}

// New wraps items fetched at offset with page size limit.
// The next cursor is offset+limit iff the page is full. A full final page
// therefore still carries a cursor whose next page is empty.
func New[T any](items []T, offset, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	p := Page[T]{items: items}
	if limit > 0 && len(items) == limit {
		next := offset + limit
		p.nextCursor = &next
	}
	return p
}

// Items returns the page items.
func (p Page[T]) Items() []T { return p.items }

// NextCursor returns the next offset and whether one is present.
func (p Page[T]) NextCursor() (int, bool) {
	if p.nextCursor == nil {
		return 0, false
	}
	return *p.nextCursor, true
}
