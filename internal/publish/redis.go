// Package publish pushes emitted signals and bar closes to downstream
// consumers over Redis pub/sub.
package publish

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"sweep-signal-lab/internal/domain"
)

// Pub/sub channels.
const (
	SignalChannel   = "trade.signal"
	BarCloseChannel = "candle.close"
)

// Envelope is the wire format for every published message.
type Envelope struct {
	Timestamp int64       `json:"timestamp"`
	Channel   string      `json:"channel"`
	Data      interface{} `json:"data"`
}

// Publisher publishes messages to Redis channels.
type Publisher struct {
	client *redis.Client
}

// PublisherConfig holds Redis connection parameters.
type PublisherConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewPublisher connects to Redis and verifies connectivity.
func NewPublisher(ctx context.Context, cfg PublisherConfig) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Publisher{client: client}, nil
}

// PublishSignal sends a signal on SignalChannel.
func (p *Publisher) PublishSignal(ctx context.Context, sig *domain.Signal) error {
	return p.publish(ctx, SignalChannel, sig.TimestampMs, sig)
}

// PublishBarClose sends a sealed bar on BarCloseChannel.
func (p *Publisher) PublishBarClose(ctx context.Context, bar domain.Bar) error {
	return p.publish(ctx, BarCloseChannel, bar.TimestampMs, bar)
}

func (p *Publisher) publish(ctx context.Context, channel string, tsMs int64, data interface{}) error {
	payload, err := MarshalEnvelope(channel, tsMs, data)
	if err != nil {
		return err
	}

	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

// Close closes the underlying Redis client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// MarshalEnvelope wraps a payload in the wire envelope and serializes it.
func MarshalEnvelope(channel string, tsMs int64, data interface{}) ([]byte, error) {
	env := Envelope{
		Timestamp: tsMs,
		Channel:   channel,
		Data:      data,
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", channel, err)
	}
	return payload, nil
}
