package seqshare

import (
	"context"
	"sync/atomic"

	"github.com/phausler/seqshare/internal/arbiter"
	"github.com/phausler/seqshare/internal/logging"
	"github.com/phausler/seqshare/internal/metrics"
	"github.com/puzpuzpuz/xsync/v4"
)

// Sequence shares one single-pass producer among any number of subscribers
// advancing in lockstep rounds.
//
// Thread Safety:
//   - All methods are safe for concurrent use
//   - Each Subscription supports one outstanding Next call at a time
//
// Lifecycle:
//   - Create with New or NewLazy
//   - Obtain per-consumer handles with Subscribe
//   - Close individual subscriptions, or the whole sequence with Close
type Sequence[T any] struct {
	arb    *arbiter.Arbiter[T]
	logger Logger

	// Registry of live subscriptions, maintained outside the protocol's
	// critical region.
	subs   *xsync.Map[uint64, *Subscription[T]]
	closed atomic.Bool

	elements *xsync.Counter
	failures *xsync.Counter
}

// New creates a sequence over an already started producer.
//
// The producer is never invoked concurrently: whichever subscriber leads the
// current round holds exclusive access to it for the duration of one Next
// call.
//
// Parameters:
//   - src: Single-pass element producer
//   - opts: Optional configuration (logger, metrics)
//
// Returns:
//   - *Sequence[T]: Initialized shared sequence
//   - error: ErrSourceRequired if src is nil
//
// Example:
//
//	seq, err := seqshare.New[string](source.NewSlice(items))
func New[T any](src Source[T], opts ...Option) (*Sequence[T], error) {
	if src == nil {
		return nil, ErrSourceRequired
	}

	return newSequence(func(_ context.Context) (arbiter.NextFunc[T], error) {
		return src.Next, nil
	}, opts...), nil
}

// NewLazy creates a sequence over an unstarted producer.
//
// The opener runs at most once, invoked by the leader of the first round. If
// it fails, the failure is fanned out to that round's subscribers and a later
// round retries the open.
//
// Parameters:
//   - open: Deferred producer constructor
//   - opts: Optional configuration (logger, metrics)
//
// Returns:
//   - *Sequence[T]: Initialized shared sequence
//   - error: ErrOpenerRequired if open is nil
func NewLazy[T any](open OpenFunc[T], opts ...Option) (*Sequence[T], error) {
	if open == nil {
		return nil, ErrOpenerRequired
	}

	return newSequence(func(ctx context.Context) (arbiter.NextFunc[T], error) {
		src, err := open(ctx)
		if err != nil {
			return nil, err
		}

		return src.Next, nil
	}, opts...), nil
}

func newSequence[T any](open arbiter.OpenFunc[T], opts ...Option) *Sequence[T] {
	options := &sequenceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Safe defaults for optional dependencies to avoid nil checks everywhere
	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logging.NewNop()
	}
	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	return &Sequence[T]{
		arb:      arbiter.New(open, loggerInstance, metricsCollector),
		logger:   loggerInstance,
		subs:     xsync.NewMap[uint64, *Subscription[T]](),
		elements: xsync.NewCounter(),
		failures: xsync.NewCounter(),
	}
}

// Subscribe registers a new subscriber and returns its iteration handle.
//
// The subscription participates in rounds starting with the first one that
// closes after this call; elements delivered to earlier rounds are not
// replayed.
//
// Returns:
//   - *Subscription[T]: Fresh handle in the idle phase
func (s *Sequence[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{seq: s, id: s.arb.Register()}
	s.subs.Store(sub.id, sub)

	// Lost the race with Close: tear the handle down immediately so the
	// caller observes end of sequence rather than a hung round.
	if s.closed.Load() {
		sub.Close()
	}

	return sub
}

// Close tears down every live subscription.
//
// Outstanding Next calls resolve as end of sequence, and cancellation is
// forwarded to the in-flight production call once the last subscription is
// gone. Subscriptions obtained after Close return end of sequence from their
// first Next call. Safe to call multiple times.
func (s *Sequence[T]) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}

	s.subs.Range(func(_ uint64, sub *Subscription[T]) bool {
		sub.Close()
		return true
	})
	s.logger.Debug("sequence closed")
}

// Stats is a point-in-time snapshot of sequence activity.
type Stats struct {
	// ActiveSubscriptions is the number of live subscriptions.
	ActiveSubscriptions int

	// Rounds is the number of rounds started since creation.
	Rounds uint64

	// Elements is the total number of element deliveries across all
	// subscriptions (one element delivered to N subscribers counts N).
	Elements int64

	// Failures is the total number of failed Next calls across all
	// subscriptions.
	Failures int64
}

// Stats returns a snapshot of sequence activity. The counters are maintained
// with striped concurrent counters and are cheap to update from many
// subscriber goroutines.
func (s *Sequence[T]) Stats() Stats {
	return Stats{
		ActiveSubscriptions: s.subs.Size(),
		Rounds:              s.arb.Rounds(),
		Elements:            s.elements.Value(),
		Failures:            s.failures.Value(),
	}
}

// Subscription is one subscriber's iteration handle over a shared sequence.
//
// A Subscription is not safe for concurrent Next calls; issue at most one at
// a time and do not call Next again before the previous call has returned.
type Subscription[T any] struct {
	seq    *Sequence[T]
	id     uint64
	closed atomic.Bool
}

// Next pulls the next element of the shared sequence.
//
// The call may suspend until every other live subscriber has also asked for
// the next element (the round barrier), and then until the producer yields.
// Every subscriber of the round receives the identical outcome.
//
// Returns:
//   - T: The next element, valid only when ok is true
//   - bool: false when the sequence has ended or the subscription was closed
//   - error: A producer failure for this round, or ctx.Err() if ctx was
//     cancelled; cancellation also closes the subscription
func (sub *Subscription[T]) Next(ctx context.Context) (T, bool, error) {
	if sub.closed.Load() {
		var zero T
		return zero, false, nil
	}

	res := sub.seq.arb.Request(ctx, sub.id)
	if ctx.Err() != nil {
		// The caller's cancellation already tore the participant down; close
		// the handle too so the registry and Stats agree.
		sub.Close()
	}
	switch {
	case res.Err != nil:
		sub.seq.failures.Inc()
	case res.OK:
		sub.seq.elements.Inc()
	}

	return res.Value, res.OK, res.Err
}

// Close deregisters the subscription.
//
// Any outstanding Next call resolves promptly: this subscription observes end
// of sequence, and the remaining subscribers' round is closed without it so
// they never stall on the departure. Closing the last subscription forwards
// cancellation to the in-flight production call. Safe to call multiple times.
func (sub *Subscription[T]) Close() {
	if !sub.closed.CompareAndSwap(false, true) {
		return
	}
	sub.seq.arb.Cancel(sub.id)
	sub.seq.subs.Delete(sub.id)
}
