package redisbus

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Publisher sends event envelopes to the events channel. Producers (the API
// server and background workers) use it; the streaming server only subscribes.
type Publisher struct {
	client  redis.UniversalClient
	channel string
}

// NewPublisher creates a publisher for channel, or DefaultChannel when empty.
func NewPublisher(client redis.UniversalClient, channel string) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{client: client, channel: channel}
}

// Publish encodes env and publishes it. It returns the number of subscribers
// that received the message.
func (p *Publisher) Publish(ctx context.Context, env Envelope) (int64, error) {
	data, err := Encode(env)
	if err != nil {
		return 0, err
	}
	n, err := p.client.Publish(ctx, p.channel, data).Result()
	if err != nil {
		return 0, errors.Join(ErrPublishFailed, err)
	}
	return n, nil
}
