// Package source provides ready-made Source implementations for shared
// sequences.
//
// Available sources:
//   - Slice: fixed in-memory elements, then end of sequence
//   - Chan: elements received from a Go channel
//   - JetStream: messages pulled from a NATS JetStream durable consumer
//
// All of them satisfy types.Source and are driven by at most one round
// leader at a time, so none of them needs to be safe for concurrent Next
// calls (Slice still is, for convenience in tests).
package source
