package arbiter

import (
	"context"
	"sync"
	"time"

	"github.com/phausler/seqshare/types"
)

// NextFunc drives one production step of the upstream producer.
type NextFunc[T any] func(ctx context.Context) (T, bool, error)

// OpenFunc starts an unstarted upstream producer. It is invoked at most once,
// by the first round's leader.
type OpenFunc[T any] func(ctx context.Context) (NextFunc[T], error)

// Result is the outcome of one round, observed identically by every
// participant of that round. OK reports whether Value holds an element;
// OK=false with a nil Err means end of sequence.
type Result[T any] struct {
	Value T
	OK    bool
	Err   error
}

// disposition is the outcome delivered to a participant's round-entry request.
type disposition int

const (
	dispositionCancelled disposition = iota
	dispositionPrimary
	dispositionDependent
)

func (d disposition) String() string {
	switch d {
	case dispositionPrimary:
		return "primary"
	case dispositionDependent:
		return "dependent"
	default:
		return "cancelled"
	}
}

// phase is a participant's position in the round lifecycle.
type phase int

const (
	// phaseIdle means no outstanding request.
	phaseIdle phase = iota

	// phaseAwaiting means the participant requested the next element and is
	// suspended on an entry waiter until its round closes.
	phaseAwaiting

	// phaseClaimed means the request was accepted into a round whose result
	// is not available yet.
	phaseClaimed

	// phaseResolved means the round's result is ready but the participant has
	// not consumed it yet.
	phaseResolved

	// phasePendingResult means the participant acknowledged its dependent
	// disposition and is suspended on a result waiter.
	phasePendingResult
)

type participant[T any] struct {
	phase   phase
	entry   chan disposition // non-nil only in phaseAwaiting
	pending chan Result[T]   // non-nil only in phasePendingResult
	result  Result[T]        // valid only in phaseResolved
}

// upstream is the producer handle slot. The round leader moves it out of the
// arbiter for the duration of its production call and moves it back at
// fan-out, so the handle is never aliased and at most one production call can
// be in flight.
type upstream[T any] struct {
	open OpenFunc[T] // non-nil until the producer has been started
	next NextFunc[T]
}

func (u *upstream[T]) produce(ctx context.Context) Result[T] {
	if u.next == nil {
		next, err := u.open(ctx)
		if err != nil {
			// The producer stays unstarted; a later round may retry the open.
			return Result[T]{Err: err}
		}
		u.next = next
		u.open = nil
	}

	value, ok, err := u.next(ctx)
	if err != nil {
		return Result[T]{Err: err}
	}

	return Result[T]{Value: value, OK: ok}
}

// Arbiter coordinates lockstep rounds over a single-pass producer.
//
// All state lives behind one mutex: the participant map, the upstream handle
// slot, and the cancellation handle of the in-flight production call.
type Arbiter[T any] struct {
	logger  types.Logger
	metrics types.MetricsCollector

	mu     sync.Mutex
	nextID uint64
	parts  map[uint64]*participant[T]

	up          *upstream[T] // nil while the round leader holds the handle
	roundActive bool
	prodCtx     context.Context
	prodCancel  context.CancelFunc
	round       uint64
}

// New creates an arbiter over the given producer opener.
//
// Parameters:
//   - open: Starts the upstream producer; invoked by the first round's leader
//   - logger: Logger for protocol events
//   - metrics: Metrics collector for rounds and membership
//
// Returns:
//   - *Arbiter[T]: A new arbiter with no registered participants
func New[T any](open OpenFunc[T], logger types.Logger, metrics types.MetricsCollector) *Arbiter[T] {
	return &Arbiter[T]{
		logger:  logger,
		metrics: metrics,
		parts:   make(map[uint64]*participant[T]),
		up:      &upstream[T]{open: open},
	}
}

// Register adds a new participant in the Idle phase and returns its
// identifier. Identifiers increase monotonically and are never reused.
func (a *Arbiter[T]) Register() uint64 {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.parts[id] = &participant[T]{phase: phaseIdle}
	count := len(a.parts)
	a.mu.Unlock()

	a.metrics.RecordParticipantCount(count)
	a.logger.Debug("participant registered", "id", id, "participants", count)

	return id
}

// Rounds returns the number of rounds started so far.
func (a *Arbiter[T]) Rounds() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.round
}

// Request performs one pull on behalf of the given participant: it enters the
// current round, suspends until the round closes, and either drives the
// upstream producer (primary) or waits for the leader's result (dependent).
//
// Cancelling ctx tears the participant down via Cancel, which guarantees any
// suspension below is resolved; in that case the call reports ctx.Err().
// A request for an unknown or removed identifier resolves as end of sequence.
//
// Callers must not issue a second Request for the same identifier before the
// previous one has returned.
func (a *Arbiter[T]) Request(ctx context.Context, id uint64) Result[T] {
	stop := context.AfterFunc(ctx, func() { a.Cancel(id) })
	defer stop()

	disp, wait, dependents := a.enter(id)
	for _, ch := range dependents {
		ch <- dispositionDependent
	}
	if wait != nil {
		disp = <-wait
	}
	a.metrics.RecordDisposition(disp.String())

	var res Result[T]
	switch disp {
	case dispositionPrimary:
		res = a.lead(id)
	case dispositionDependent:
		res = a.follow(id)
	default:
		res = Result[T]{}
	}

	// Teardown resolves waiters with end of sequence; when the caller's own
	// context caused it, surface that instead.
	if !res.OK && res.Err == nil {
		if err := ctx.Err(); err != nil {
			res.Err = err
		}
	}

	return res
}

// Cancel removes the participant from the map, resolves any waiter it held,
// and keeps the survivors live: it force-closes their round if no production
// call is in flight, or forwards cancellation to the production call when no
// participant remains to observe its result. Cancel never blocks and is safe
// to call for an already removed identifier.
func (a *Arbiter[T]) Cancel(id uint64) {
	var (
		entryWaiter   chan disposition
		pendingWaiter chan Result[T]
		elected       []chan disposition
		forward       context.CancelFunc
	)

	a.mu.Lock()
	p, ok := a.parts[id]
	if !ok {
		a.mu.Unlock()
		return
	}
	delete(a.parts, id)
	remaining := len(a.parts)

	switch p.phase {
	case phaseAwaiting:
		entryWaiter = p.entry
		p.entry = nil
	case phasePendingResult:
		pendingWaiter = p.pending
		p.pending = nil
	}

	if remaining == 0 {
		// No subscriber is left to observe the in-flight (or imminent)
		// production step.
		forward = a.prodCancel
		a.prodCancel = nil
	} else if !a.roundActive {
		// The departure must not leave the survivors' round open forever.
		elected = a.claimAwaitingLocked()
		if len(elected) > 0 {
			a.beginRoundLocked()
		}
	}
	a.mu.Unlock()

	if entryWaiter != nil {
		entryWaiter <- dispositionCancelled
	}
	if pendingWaiter != nil {
		// A torn-down participant observes end of sequence, never a
		// synthetic failure.
		pendingWaiter <- Result[T]{}
	}
	resolveElected(elected)
	if forward != nil {
		forward()
		a.metrics.RecordProductionCancelForwarded()
	}

	a.metrics.RecordParticipantCount(remaining)
	a.logger.Debug("participant cancelled",
		"id", id, "participants", remaining, "forwarded", forward != nil)
}

// enter runs the round arbitration step for id. It returns either an
// immediate disposition (wait == nil) or an entry waiter to suspend on.
// When the caller's arrival closes the round, the entry waiters of every
// other participant are returned and must be resolved dependent outside the
// lock.
func (a *Arbiter[T]) enter(id uint64) (disposition, chan disposition, []chan disposition) {
	a.mu.Lock()
	p, ok := a.parts[id]
	if !ok {
		// Removed concurrently; end of sequence, never an error.
		a.mu.Unlock()
		return dispositionCancelled, nil, nil
	}

	// A lone participant pays no barrier cost. The previous round can still
	// be draining here if all of its members departed mid-flight; in that
	// case fall through and wait for the handle to come back.
	if len(a.parts) == 1 && !a.roundActive {
		p.phase = phaseClaimed
		a.beginRoundLocked()
		a.mu.Unlock()

		return dispositionPrimary, nil, nil
	}

	entry := make(chan disposition, 1)
	p.phase = phaseAwaiting
	p.entry = entry

	if a.roundActive || !a.allAwaitingLocked() {
		a.mu.Unlock()
		return 0, entry, nil
	}

	// The last arriver completes the all-Awaiting condition, closes the
	// round, and is elected primary.
	p.phase = phaseClaimed
	p.entry = nil
	dependents := a.claimAwaitingLocked()
	a.beginRoundLocked()
	a.mu.Unlock()

	return dispositionPrimary, nil, dependents
}

// lead drives one production step as the round's leader and fans the result
// out. The leader's own call returns the result directly unless the leader
// was removed while the production was in flight.
func (a *Arbiter[T]) lead(id uint64) Result[T] {
	a.mu.Lock()
	up := a.up
	a.up = nil // exclusively owned until fan-out
	prodCtx := a.prodCtx
	round := a.round
	a.mu.Unlock()

	start := time.Now()
	res := up.produce(prodCtx)

	a.metrics.RecordRound(time.Since(start).Seconds(), roundOutcome(res))
	if res.Err != nil {
		a.logger.Warn("upstream production failed", "round", round, "error", res.Err)
	} else {
		a.logger.Debug("round complete", "round", round, "element", res.OK)
	}

	return a.fanOut(id, up, res)
}

// fanOut distributes the round's result under the lock, hands the upstream
// handle back, and closes the next round if the participants that sat out
// this one already satisfy the closure condition.
func (a *Arbiter[T]) fanOut(id uint64, up *upstream[T], res Result[T]) Result[T] {
	type resultWaiter struct {
		ch  chan Result[T]
		res Result[T]
	}

	var (
		wakes   []resultWaiter
		elected []chan disposition
	)

	a.mu.Lock()
	a.up = up
	release := a.prodCancel
	a.prodCancel = nil
	a.prodCtx = nil
	a.roundActive = false

	for pid, p := range a.parts {
		if pid == id {
			continue
		}
		switch p.phase {
		case phaseClaimed:
			p.phase = phaseResolved
			p.result = res
		case phasePendingResult:
			wakes = append(wakes, resultWaiter{ch: p.pending, res: res})
			p.phase = phaseIdle
			p.pending = nil
		}
	}

	self, present := a.parts[id]
	if present {
		self.phase = phaseIdle
	}

	// Participants that joined while the round was in flight may already all
	// be awaiting; the outgoing leader hands the next round over.
	if a.allAwaitingLocked() {
		elected = a.claimAwaitingLocked()
		a.beginRoundLocked()
	}
	a.mu.Unlock()

	if release != nil {
		release()
	}
	for _, w := range wakes {
		w.ch <- w.res
	}
	resolveElected(elected)

	if !present {
		// Removed mid-flight; the result still went to the survivors, but
		// the departing leader does not read it.
		return Result[T]{}
	}

	return res
}

// follow runs the dependent path: consume an already resolved result, or
// suspend on a result waiter until the leader (or Cancel) resolves it.
func (a *Arbiter[T]) follow(id uint64) Result[T] {
	a.mu.Lock()
	p, ok := a.parts[id]
	if !ok {
		a.mu.Unlock()
		return Result[T]{}
	}
	if p.phase == phaseResolved {
		res := p.result
		p.phase = phaseIdle
		p.result = Result[T]{}
		a.mu.Unlock()

		return res
	}

	pending := make(chan Result[T], 1)
	p.phase = phasePendingResult
	p.pending = pending
	a.mu.Unlock()

	return <-pending
}

// beginRoundLocked marks a round as in flight and arms the cancellation
// handle its production step runs under. Callers must hold the lock.
func (a *Arbiter[T]) beginRoundLocked() {
	a.roundActive = true
	a.round++
	a.prodCtx, a.prodCancel = context.WithCancel(context.Background())
}

// allAwaitingLocked reports whether every registered participant is Awaiting.
func (a *Arbiter[T]) allAwaitingLocked() bool {
	for _, p := range a.parts {
		if p.phase != phaseAwaiting {
			return false
		}
	}

	return len(a.parts) > 0
}

// claimAwaitingLocked moves every Awaiting participant to Claimed and returns
// the entry waiters taken from them. The waiters must be resolved outside the
// lock.
func (a *Arbiter[T]) claimAwaitingLocked() []chan disposition {
	var waiters []chan disposition
	for _, p := range a.parts {
		if p.phase != phaseAwaiting {
			continue
		}
		p.phase = phaseClaimed
		waiters = append(waiters, p.entry)
		p.entry = nil
	}

	return waiters
}

// resolveElected resolves a force-closed round's entry waiters: the first one
// becomes primary, the rest dependents.
func resolveElected(elected []chan disposition) {
	if len(elected) == 0 {
		return
	}
	elected[0] <- dispositionPrimary
	for _, ch := range elected[1:] {
		ch <- dispositionDependent
	}
}

func roundOutcome[T any](res Result[T]) string {
	switch {
	case res.Err != nil:
		return "failure"
	case res.OK:
		return "element"
	default:
		return "end"
	}
}
