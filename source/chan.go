package source

import (
	"context"

	"github.com/phausler/seqshare/types"
)

// Chan implements a source over a receive channel. The sequence ends when the
// channel is closed.
type Chan[T any] struct {
	ch <-chan T
}

var _ types.Source[int] = (*Chan[int])(nil)

// NewChan creates a source that yields elements received from ch.
//
// Parameters:
//   - ch: Channel to receive from; closing it ends the sequence
//
// Returns:
//   - *Chan[T]: Initialized channel source
//   - error: ErrChannelRequired if ch is nil
func NewChan[T any](ch <-chan T) (*Chan[T], error) {
	if ch == nil {
		return nil, ErrChannelRequired
	}

	return &Chan[T]{ch: ch}, nil
}

// Next blocks until an element arrives, the channel closes, or ctx is
// cancelled.
func (c *Chan[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	select {
	case v, ok := <-c.ch:
		if !ok {
			return zero, false, nil
		}

		return v, true, nil
	case <-ctx.Done():
		return zero, false, ctx.Err()
	}
}
