package source

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/phausler/seqshare/internal/logging"
	"github.com/phausler/seqshare/types"
)

const defaultFetchTimeout = 5 * time.Second

// JetStreamConfig configures a JetStream-backed source.
//
// All duration fields accept standard Go duration strings like "5s" when
// unmarshalled from YAML.
type JetStreamConfig struct {
	// Stream is the JetStream stream name. Required.
	Stream string `yaml:"stream"`

	// Consumer is the durable consumer name on the stream. Required.
	// The consumer must already exist; sharing it through a Sequence gives
	// every in-process subscriber the same messages in the same order.
	Consumer string `yaml:"consumer"`

	// FetchTimeout bounds each pull request. Between expirations the source
	// polls again, so a quiet stream never wedges a round beyond one timeout
	// from a context cancellation. Default: 5s.
	FetchTimeout time.Duration `yaml:"fetchTimeout"`

	// ManualAck disables the automatic ack performed as each message is
	// handed to the sequence. Leave false unless the consuming side acks
	// after processing.
	ManualAck bool `yaml:"manualAck"`

	// Logger is an optional logger; omitted means no logging.
	Logger types.Logger `yaml:"-"`
}

// SetDefaults fills in missing configuration values.
func (c *JetStreamConfig) SetDefaults() {
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = defaultFetchTimeout
	}
	if c.Logger == nil {
		c.Logger = logging.NewNop()
	}
}

// Validate checks required fields.
//
// Returns:
//   - error: ErrStreamRequired or ErrConsumerRequired when a field is missing
func (c *JetStreamConfig) Validate() error {
	if c.Stream == "" {
		return ErrStreamRequired
	}
	if c.Consumer == "" {
		return ErrConsumerRequired
	}

	return nil
}

// JetStream implements a source over a durable JetStream pull consumer.
//
// Each production step fetches a single message, so the consumer's delivery
// order is preserved across the shared sequence's rounds. The sequence never
// ends on its own; it terminates through context cancellation or a consumer
// error (for example when the consumer is deleted).
type JetStream struct {
	cons   jetstream.Consumer
	cfg    JetStreamConfig
	logger types.Logger
}

var _ types.Source[jetstream.Msg] = (*JetStream)(nil)

// NewJetStream creates a JetStream-backed source.
//
// Parameters:
//   - ctx: Context for resolving the consumer handle
//   - js: JetStream context
//   - cfg: Source configuration (stream and consumer are required)
//
// Returns:
//   - *JetStream: Initialized source with defaults applied
//   - error: Validation error or consumer lookup failure
//
// Example:
//
//	js, _ := jetstream.New(natsConn)
//	src, err := source.NewJetStream(ctx, js, source.JetStreamConfig{
//	    Stream:   "events",
//	    Consumer: "shared-reader",
//	})
//	if err != nil { /* handle */ }
//	seq, err := seqshare.New[jetstream.Msg](src)
func NewJetStream(ctx context.Context, js jetstream.JetStream, cfg JetStreamConfig) (*JetStream, error) {
	if js == nil {
		return nil, ErrJetStreamRequired
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()

	cons, err := js.Consumer(ctx, cfg.Stream, cfg.Consumer)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve consumer %q on stream %q: %w", cfg.Consumer, cfg.Stream, err)
	}

	return &JetStream{cons: cons, cfg: cfg, logger: cfg.Logger}, nil
}

// Next fetches the next message from the consumer.
//
// Blocks until a message arrives or ctx is cancelled, re-issuing a bounded
// pull each FetchTimeout. Unless ManualAck is set, the message is acked
// before it is returned, since every subscriber of the round receives it.
func (s *JetStream) Next(ctx context.Context) (jetstream.Msg, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}

		batch, err := s.cons.Fetch(1, jetstream.FetchMaxWait(s.cfg.FetchTimeout))
		if err != nil {
			return nil, false, fmt.Errorf("fetch failed: %w", err)
		}

		for msg := range batch.Messages() {
			if !s.cfg.ManualAck {
				if err := msg.Ack(); err != nil {
					s.logger.Warn("failed to ack message", "subject", msg.Subject(), "error", err)
				}
			}

			return msg, true, nil
		}

		if err := batch.Error(); err != nil {
			return nil, false, fmt.Errorf("fetch failed: %w", err)
		}
		// Pull expired with no message; poll again.
		s.logger.Debug("fetch expired without message", "stream", s.cfg.Stream, "consumer", s.cfg.Consumer)
	}
}
