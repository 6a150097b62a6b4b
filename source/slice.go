package source

import (
	"context"
	"sync"

	"github.com/phausler/seqshare/types"
)

// Slice implements a source over a fixed list of elements.
type Slice[T any] struct {
	mu    sync.Mutex
	items []T
	pos   int
}

var _ types.Source[int] = (*Slice[int])(nil)

// NewSlice creates a source that yields the given elements in order and then
// reports end of sequence.
//
// Useful for testing and for replaying known data to lockstep consumers.
//
// Parameters:
//   - items: Elements to yield; the slice is copied
//
// Returns:
//   - *Slice[T]: Initialized slice source
//
// Example:
//
//	src := source.NewSlice([]string{"a", "b", "c"})
//	seq, err := seqshare.New[string](src)
func NewSlice[T any](items []T) *Slice[T] {
	copied := make([]T, len(items))
	copy(copied, items)

	return &Slice[T]{items: copied}
}

// Next returns the next element, or end of sequence once exhausted.
func (s *Slice[T]) Next(_ context.Context) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= len(s.items) {
		var zero T
		return zero, false, nil
	}

	item := s.items[s.pos]
	s.pos++

	return item, true, nil
}
