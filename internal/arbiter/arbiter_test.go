package arbiter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/phausler/seqshare/internal/logging"
	"github.com/phausler/seqshare/internal/metrics"
)

func newTestArbiter(next NextFunc[int]) *Arbiter[int] {
	open := func(_ context.Context) (NextFunc[int], error) { return next, nil }
	return New(open, logging.NewNop(), metrics.NewNop())
}

// sliceNext yields the given items in order, then end of sequence, counting
// every invocation.
func sliceNext(calls *atomic.Int64, items ...int) NextFunc[int] {
	var mu sync.Mutex
	pos := 0

	return func(_ context.Context) (int, bool, error) {
		calls.Add(1)
		mu.Lock()
		defer mu.Unlock()

		if pos >= len(items) {
			return 0, false, nil
		}
		v := items[pos]
		pos++

		return v, true, nil
	}
}

func TestArbiter_LoneParticipantFastPath(t *testing.T) {
	var calls atomic.Int64
	a := newTestArbiter(sliceNext(&calls, 1, 2))
	id := a.Register()

	ctx := context.Background()

	res := a.Request(ctx, id)
	require.NoError(t, res.Err)
	require.True(t, res.OK)
	require.Equal(t, 1, res.Value)

	res = a.Request(ctx, id)
	require.Equal(t, 2, res.Value)

	res = a.Request(ctx, id)
	require.False(t, res.OK)
	require.NoError(t, res.Err)

	require.Equal(t, int64(3), calls.Load())
	require.Equal(t, uint64(3), a.Rounds())
}

func TestArbiter_UnknownIDResolvesAsEnd(t *testing.T) {
	a := newTestArbiter(sliceNext(new(atomic.Int64), 1))

	res := a.Request(context.Background(), 42)
	require.False(t, res.OK)
	require.NoError(t, res.Err)
}

func TestArbiter_SingleFlight(t *testing.T) {
	const n = 4

	var calls atomic.Int64
	a := newTestArbiter(sliceNext(&calls, 7))

	ids := make([]uint64, n)
	for i := range ids {
		ids[i] = a.Register()
	}

	results := make(chan Result[int], n)
	for _, id := range ids {
		go func(id uint64) {
			results <- a.Request(context.Background(), id)
		}(id)
	}

	for range n {
		select {
		case res := <-results:
			require.NoError(t, res.Err)
			require.True(t, res.OK)
			require.Equal(t, 7, res.Value)
		case <-time.After(5 * time.Second):
			t.Fatal("request did not resolve")
		}
	}

	require.Equal(t, int64(1), calls.Load(), "production step must run exactly once per round")
}

func TestArbiter_LastArriverIsPrimary(t *testing.T) {
	a := newTestArbiter(sliceNext(new(atomic.Int64), 1))
	p1 := a.Register()
	p2 := a.Register()

	// First arriver suspends; no disposition yet.
	_, wait, dependents := a.enter(p1)
	require.NotNil(t, wait)
	require.Empty(t, dependents)

	// The arrival that completes the all-Awaiting condition closes the round
	// and is elected primary.
	disp, wait, dependents := a.enter(p2)
	require.Nil(t, wait)
	require.Equal(t, dispositionPrimary, disp)
	require.Len(t, dependents, 1)
}

func TestArbiter_FailureFanOutAndRetry(t *testing.T) {
	boom := errors.New("boom")

	var attempt atomic.Int64
	next := func(_ context.Context) (int, bool, error) {
		if attempt.Add(1) == 1 {
			return 0, false, boom
		}

		return 9, true, nil
	}

	a := newTestArbiter(next)
	p1 := a.Register()
	p2 := a.Register()

	run := func() (Result[int], Result[int]) {
		results := make(chan Result[int], 2)
		go func() { results <- a.Request(context.Background(), p1) }()
		go func() { results <- a.Request(context.Background(), p2) }()

		return <-results, <-results
	}

	r1, r2 := run()
	require.ErrorIs(t, r1.Err, boom)
	require.ErrorIs(t, r2.Err, boom)

	// A failed round does not poison the sequence; the next round retries.
	r1, r2 = run()
	require.NoError(t, r1.Err)
	require.NoError(t, r2.Err)
	require.Equal(t, 9, r1.Value)
	require.Equal(t, 9, r2.Value)
}

func TestArbiter_OpenFailureRetries(t *testing.T) {
	boom := errors.New("open failed")

	var attempt atomic.Int64
	open := func(_ context.Context) (NextFunc[int], error) {
		if attempt.Add(1) == 1 {
			return nil, boom
		}

		return sliceNext(new(atomic.Int64), 5), nil
	}
	a := New(open, logging.NewNop(), metrics.NewNop())
	id := a.Register()

	res := a.Request(context.Background(), id)
	require.ErrorIs(t, res.Err, boom)

	res = a.Request(context.Background(), id)
	require.NoError(t, res.Err)
	require.Equal(t, 5, res.Value)
	require.Equal(t, int64(2), attempt.Load())
}

func TestArbiter_DepartureUnblocksSurvivors(t *testing.T) {
	a := newTestArbiter(sliceNext(new(atomic.Int64), 11))
	p1 := a.Register()
	p2 := a.Register()
	p3 := a.Register()

	results := make(chan Result[int], 2)
	go func() { results <- a.Request(context.Background(), p1) }()
	go func() { results <- a.Request(context.Background(), p2) }()

	// p3 never requests, so the round cannot close on its own.
	select {
	case <-results:
		t.Fatal("round closed before every participant arrived")
	case <-time.After(100 * time.Millisecond):
	}

	a.Cancel(p3)

	for range 2 {
		select {
		case res := <-results:
			require.NoError(t, res.Err)
			require.Equal(t, 11, res.Value)
		case <-time.After(5 * time.Second):
			t.Fatal("survivor stalled after departure")
		}
	}
}

func TestArbiter_LastParticipantForwardsCancellation(t *testing.T) {
	var sawCancel atomic.Bool
	next := func(ctx context.Context) (int, bool, error) {
		<-ctx.Done()
		sawCancel.Store(true)

		return 0, false, ctx.Err()
	}

	a := newTestArbiter(next)
	id := a.Register()

	done := make(chan Result[int], 1)
	go func() { done <- a.Request(context.Background(), id) }()

	// Let the leader reach its production call.
	time.Sleep(100 * time.Millisecond)
	a.Cancel(id)

	select {
	case res := <-done:
		// Teardown is end of sequence, never a synthetic failure.
		require.False(t, res.OK)
		require.NoError(t, res.Err)
	case <-time.After(5 * time.Second):
		t.Fatal("production cancellation was not forwarded")
	}
	require.True(t, sawCancel.Load())
}

func TestArbiter_ProductionSurvivesLeaderDeparture(t *testing.T) {
	release := make(chan struct{})
	next := func(ctx context.Context) (int, bool, error) {
		select {
		case <-release:
			return 21, true, nil
		case <-ctx.Done():
			return 0, false, ctx.Err()
		}
	}

	a := newTestArbiter(next)
	p1 := a.Register()
	p2 := a.Register()

	ctx1, cancel1 := context.WithCancel(context.Background())
	r1ch := make(chan Result[int], 1)
	r2ch := make(chan Result[int], 1)

	// Stage the arrivals so p2 is the last arriver and therefore the leader.
	go func() { r1ch <- a.Request(ctx1, p1) }()
	time.Sleep(100 * time.Millisecond)
	go func() { r2ch <- a.Request(context.Background(), p2) }()

	// Round closes and production blocks; then the dependent departs.
	time.Sleep(100 * time.Millisecond)
	cancel1()

	// The departing dependent resolves promptly with its own context error.
	select {
	case res := <-r1ch:
		require.ErrorIs(t, res.Err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("cancelled participant stalled")
	}

	// The survivor still needs the result, so production was not cancelled.
	close(release)
	select {
	case res := <-r2ch:
		require.NoError(t, res.Err)
		require.Equal(t, 21, res.Value)
	case <-time.After(5 * time.Second):
		t.Fatal("survivor never received the round result")
	}
}

func TestArbiter_NewcomerElectedAtFanOut(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	next := func(ctx context.Context) (int, bool, error) {
		n := int(calls.Add(1))
		if n == 1 {
			select {
			case <-release:
			case <-ctx.Done():
				return 0, false, ctx.Err()
			}
		}

		return n, true, nil
	}

	a := newTestArbiter(next)
	p1 := a.Register()

	r1ch := make(chan Result[int], 1)
	go func() { r1ch <- a.Request(context.Background(), p1) }()

	// p1 leads alone and blocks in its production call.
	time.Sleep(100 * time.Millisecond)

	// A newcomer joins mid-round; its arrival cannot close a round that is
	// already in flight, so it suspends.
	p2 := a.Register()
	r2ch := make(chan Result[int], 1)
	go func() { r2ch <- a.Request(context.Background(), p2) }()
	time.Sleep(100 * time.Millisecond)

	// Every member of the in-flight round departs. Production must keep
	// running for the newcomer, and the round cannot be force-closed yet.
	a.Cancel(p1)
	select {
	case <-r1ch:
		t.Fatal("leader resolved while its production call was still in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(release)

	// The departed leader observes end of sequence; the element it produced
	// has no eligible observer left and is dropped.
	select {
	case res := <-r1ch:
		require.False(t, res.OK)
		require.NoError(t, res.Err)
	case <-time.After(5 * time.Second):
		t.Fatal("departed leader stalled")
	}

	// At fan-out the outgoing leader hands the next round to the awaiting
	// newcomer, which is elected and drives the next production step.
	select {
	case res := <-r2ch:
		require.NoError(t, res.Err)
		require.True(t, res.OK)
		require.Equal(t, 2, res.Value)
	case <-time.After(5 * time.Second):
		t.Fatal("newcomer was not elected at fan-out")
	}

	require.Equal(t, int64(2), calls.Load())
	require.Equal(t, uint64(2), a.Rounds())
}

func TestArbiter_AwaitingCtxCancel(t *testing.T) {
	a := newTestArbiter(sliceNext(new(atomic.Int64), 1, 2))
	p1 := a.Register()
	p2 := a.Register()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan Result[int], 1)
	go func() { done <- a.Request(ctx, p1) }()

	// p2 never arrives, so p1 stays suspended until its context fires.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case res := <-done:
		require.ErrorIs(t, res.Err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("awaiting participant not resolved on cancellation")
	}

	// p2 is now alone and proceeds on the fast path.
	res := a.Request(context.Background(), p2)
	require.NoError(t, res.Err)
	require.Equal(t, 1, res.Value)
}
