package seqshare

// Option configures a Sequence with optional dependencies.
type Option func(*sequenceOptions)

// sequenceOptions holds optional Sequence configuration.
type sequenceOptions struct {
	logger  Logger
	metrics MetricsCollector
}

// WithLogger sets a logger.
//
// Parameters:
//   - logger: Logger implementation (a slog-backed one works well)
//
// Returns:
//   - Option: Functional option for New/NewLazy
//
// Example:
//
//	seq, err := seqshare.New[int](src, seqshare.WithLogger(myLogger))
func WithLogger(logger Logger) Option {
	return func(o *sequenceOptions) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics collector.
//
// Parameters:
//   - metrics: MetricsCollector implementation
//
// Returns:
//   - Option: Functional option for New/NewLazy
//
// Example:
//
//	seq, err := seqshare.New[int](src, seqshare.WithMetrics(myCollector))
func WithMetrics(metrics MetricsCollector) Option {
	return func(o *sequenceOptions) {
		o.metrics = metrics
	}
}
