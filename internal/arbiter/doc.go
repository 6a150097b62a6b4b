// Package arbiter implements the round arbitration protocol behind a shared
// sequence: a barrier that admits every registered participant into lockstep
// rounds, elects exactly one of them to drive the upstream producer, and fans
// the produced result out to the rest.
//
// # Protocol
//
// Each participant cycles through a small set of phases:
//
//	Idle → Awaiting → Claimed → Resolved/PendingResult → Idle
//
// A round closes when every registered participant is Awaiting; the last
// arriver that completes the condition is elected primary and drives one
// production step while holding exclusive ownership of the upstream handle.
// Everyone else is resolved as dependent and receives the identical result.
// A lone participant skips the barrier entirely.
//
// # Locking discipline
//
// All phase and map mutations happen under a single mutex. Waiters are
// buffered channels with exactly one sender: whichever operation transitions
// a participant out of a waiting phase takes the channel under the lock and
// sends after releasing it, so no participant is ever resumed while the lock
// is held, and no waiter can be resumed twice or left dangling.
//
// # Departure
//
// Cancelling a participant removes it and resolves any waiter it held. If it
// was the last participant, cancellation is forwarded to the in-flight (or
// imminent) production call. Otherwise, if no round is in flight, a round is
// force-closed among the remaining Awaiting participants so a departure can
// never stall the survivors. Round closure of any kind is deferred while a
// production call is in flight, which keeps the production step single-flight;
// the leader re-checks the closure condition when it hands the upstream handle
// back.
package arbiter
