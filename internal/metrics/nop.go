// Package metrics provides types.MetricsCollector implementations.
package metrics

import "github.com/phausler/seqshare/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external
// metrics collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// RoundMetrics implementation

// RecordRound discards the round metric.
func (n *NopMetrics) RecordRound(_ /* duration */ float64, _ /* outcome */ string) {
	// No-op
}

// RecordProductionCancelForwarded discards the cancellation metric.
func (n *NopMetrics) RecordProductionCancelForwarded() {
	// No-op
}

// ParticipantMetrics implementation

// RecordParticipantCount discards the participant count metric.
func (n *NopMetrics) RecordParticipantCount(_ /* count */ int) {
	// No-op
}

// RecordDisposition discards the disposition metric.
func (n *NopMetrics) RecordDisposition(_ /* disposition */ string) {
	// No-op
}
