// Package testing provides helpers for testing seqshare-dependent code:
// an embedded NATS server with JetStream enabled, stream/consumer
// provisioning shortcuts, and a types.Logger that writes to testing.T.
package testing
