package types

import "context"

// Source is a single-pass asynchronous element producer.
//
// A Source yields one element per call to Next. It is driven at most once per
// lockstep round by whichever subscription currently acts as the round leader,
// and only while that leader holds exclusive access to it, so implementations
// do not need to be safe for concurrent use.
//
// Next returns (element, true, nil) for an element, (zero, false, nil) when
// the sequence is exhausted, and (zero, false, err) when production fails.
// A failure does not have to be terminal; the next round may retry Next if
// the implementation supports it.
type Source[T any] interface {
	Next(ctx context.Context) (T, bool, error)
}

// SourceFunc adapts a plain function to the Source interface.
type SourceFunc[T any] func(ctx context.Context) (T, bool, error)

// Next calls f.
func (f SourceFunc[T]) Next(ctx context.Context) (T, bool, error) {
	return f(ctx)
}

// OpenFunc lazily opens a Source. It is invoked at most once, by the leader
// of the first round, which models a producer that has not been started yet.
// An open failure is delivered to that round's subscribers like any other
// production failure, and a later round retries the open.
type OpenFunc[T any] func(ctx context.Context) (Source[T], error)
