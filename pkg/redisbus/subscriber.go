package redisbus

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/streamhub/pkg/logger"
	"github.com/dmitrymomot/streamhub/pkg/stream"
)

// Sink receives decoded events. *stream.Hub implements it.
type Sink interface {
	Publish(ctx context.Context, ev *stream.Event) int
}

// IngestMetrics counts processed messages by result, "ok" or "invalid".
type IngestMetrics interface {
	MessageIngested(result string)
}

type nopIngestMetrics struct{}

func (nopIngestMetrics) MessageIngested(string) {}

// Subscriber reads event envelopes from a Redis pub/sub channel and publishes
// them into a Sink.
type Subscriber struct {
	client  redis.UniversalClient
	channel string
	sink    Sink
	metrics IngestMetrics
	logger  *slog.Logger
}

// SubscriberOption configures a Subscriber.
type SubscriberOption func(*Subscriber)

// WithChannel overrides the default "streaming:events" channel.
func WithChannel(channel string) SubscriberOption {
	return func(s *Subscriber) {
		if channel != "" {
			s.channel = channel
		}
	}
}

func WithSubscriberLogger(l *slog.Logger) SubscriberOption {
	return func(s *Subscriber) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithIngestMetrics(m IngestMetrics) SubscriberOption {
	return func(s *Subscriber) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewSubscriber creates a subscriber that forwards to sink.
func NewSubscriber(client redis.UniversalClient, sink Sink, opts ...SubscriberOption) *Subscriber {
	s := &Subscriber{
		client:  client,
		channel: DefaultChannel,
		sink:    sink,
		metrics: nopIngestMetrics{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logger.Component("redisbus"))
	return s
}

// DefaultChannel is the channel producers publish to unless configured otherwise.
const DefaultChannel = "streaming:events"

// Run subscribes and forwards messages until ctx is done. go-redis reconnects
// the subscription on its own; Run returns nil on cancellation and an error
// only when the subscription cannot be established or is closed underneath it.
func (s *Subscriber) Run(ctx context.Context) error {
	ps := s.client.Subscribe(ctx, s.channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return errors.Join(ErrSubscribeFailed, err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "subscribed to events channel", slog.String("channel", s.channel))

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return ErrSubscriptionClosed
			}
			_ = s.HandleMessage(ctx, []byte(msg.Payload))
		}
	}
}

// HandleMessage decodes one envelope and publishes it. Invalid envelopes are
// logged and dropped; they never stop the subscriber.
func (s *Subscriber) HandleMessage(ctx context.Context, payload []byte) error {
	ev, err := Decode(payload)
	if err != nil {
		s.metrics.MessageIngested("invalid")
		s.logger.LogAttrs(ctx, slog.LevelWarn, "dropping invalid event envelope",
			logger.Error(err),
			slog.Int("size", len(payload)),
		)
		return err
	}

	n := s.sink.Publish(ctx, ev)
	s.metrics.MessageIngested("ok")
	s.logger.LogAttrs(ctx, slog.LevelDebug, "event ingested",
		logger.EventKind(ev.Kind.String()),
		logger.Count(n),
	)
	return nil
}
