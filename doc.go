// Package seqshare shares one single-pass asynchronous producer among an
// arbitrary, dynamically changing number of independent subscribers.
//
// The producer is driven at most once per logical step, and every subscriber
// observes the same elements in the same order. Subscribers advance in
// lockstep rounds: a round closes once every live subscriber has asked for
// the next element, exactly one of them is elected to drive the producer, and
// the produced element (or end of sequence, or failure) is fanned out to all
// of them.
//
// # Quick Start
//
//	src := source.NewSlice([]string{"a", "b", "c"})
//	seq, err := seqshare.New[string](src)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer seq.Close()
//
//	sub := seq.Subscribe()
//	defer sub.Close()
//
//	for {
//	    v, ok, err := sub.Next(ctx)
//	    if err != nil || !ok {
//	        break
//	    }
//	    fmt.Println(v)
//	}
//
// # Key Properties
//
//   - Single-flight: at most one production step is in flight at any time,
//     no matter how many subscribers pull concurrently
//   - Lockstep fan-out: all subscribers of a round receive the identical
//     element; rounds are strictly sequential
//   - No replay: a subscriber that joins late observes only elements produced
//     after it joined
//   - Departure safety: closing a subscription can never stall the remaining
//     subscribers, and closing the last subscription forwards cancellation to
//     the in-flight production call
//   - A lone subscriber pays no synchronization cost beyond a mutex
//
// # Caller Contract
//
// A subscription supports one outstanding Next call at a time; subscriptions
// themselves are independent and may pull from any goroutine. Cancelling the
// context passed to Next tears the subscription down, exactly like Close.
//
// # Observability
//
// Logging and metrics are optional and off by default:
//
//	seq, err := seqshare.New[string](src,
//	    seqshare.WithLogger(myLogger),
//	    seqshare.WithMetrics(myCollector),
//	)
package seqshare
