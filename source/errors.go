package source

import "errors"

// Sentinel errors returned by source constructors.
var (
	// ErrJetStreamRequired is returned when the JetStream handle is nil.
	ErrJetStreamRequired = errors.New("jetstream handle is required")

	// ErrStreamRequired is returned when the stream name is empty.
	ErrStreamRequired = errors.New("stream name is required")

	// ErrConsumerRequired is returned when the consumer name is empty.
	ErrConsumerRequired = errors.New("consumer name is required")

	// ErrChannelRequired is returned when the channel is nil.
	ErrChannelRequired = errors.New("channel is required")
)
