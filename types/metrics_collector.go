package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods may be called from subscriber goroutines and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better modularity.
type MetricsCollector interface {
	RoundMetrics
	ParticipantMetrics
}

// RoundMetrics defines metrics for lockstep round execution.
type RoundMetrics interface {
	// RecordRound records one completed round.
	//
	// Parameters:
	//   - duration: Time spent driving the upstream production step, in seconds
	//   - outcome: Round outcome ("element", "end", "failure")
	RecordRound(duration float64, outcome string)

	// RecordProductionCancelForwarded records that cancellation was forwarded
	// to an in-flight (or imminent) upstream production call because the last
	// subscriber departed.
	RecordProductionCancelForwarded()
}

// ParticipantMetrics defines metrics for subscriber membership and election.
type ParticipantMetrics interface {
	// RecordParticipantCount sets the current number of registered subscribers (gauge metric).
	RecordParticipantCount(count int)

	// RecordDisposition records the outcome delivered to a subscriber's
	// round-entry request ("primary", "dependent", "cancelled").
	RecordDisposition(disposition string)
}
