// Package feed streams live base bars from an upstream websocket.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"sweep-signal-lab/internal/domain"
	"sweep-signal-lab/internal/observability"
)

const (
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
)

// BarMessage is the upstream wire format for one sealed base bar.
type BarMessage struct {
	Symbol      string  `json:"symbol"`
	TimestampMs int64   `json:"timestamp"`
	Open        float64 `json:"open"`
	High        float64 `json:"high"`
	Low         float64 `json:"low"`
	Close       float64 `json:"close"`
	Volume      float64 `json:"volume"`
}

// Bar converts the wire message into a domain bar.
func (m BarMessage) Bar() domain.Bar {
	return domain.Bar{
		Symbol:      m.Symbol,
		TimestampMs: m.TimestampMs,
		Open:        m.Open,
		High:        m.High,
		Low:         m.Low,
		Close:       m.Close,
		Volume:      m.Volume,
	}
}

// Handler consumes each decoded bar. A handler error stops the feed.
type Handler func(ctx context.Context, bar domain.Bar) error

// Client maintains a websocket connection to the bar feed and
// reconnects with backoff on transport errors.
type Client struct {
	url string
	log zerolog.Logger
	met *observability.Metrics // optional
}

// NewClient creates a feed client for the given websocket URL.
func NewClient(url string, log zerolog.Logger, met *observability.Metrics) *Client {
	return &Client{
		url: url,
		log: log.With().Str("component", "feed").Logger(),
		met: met,
	}
}

// handlerError marks errors from the bar handler so the reconnect loop
// knows not to retry them.
type handlerError struct {
	err error
}

func (e *handlerError) Error() string { return e.err.Error() }
func (e *handlerError) Unwrap() error { return e.err }

// Run connects and reads bars until the context is cancelled or the
// handler returns an error. Transport failures trigger reconnects with
// exponential backoff.
func (c *Client) Run(ctx context.Context, handler Handler) error {
	backoff := initialBackoff
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		received, err := c.readOnce(ctx, handler)
		if err != nil {
			if he, ok := err.(*handlerError); ok {
				return he.err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Warn().Err(err).Dur("backoff", backoff).Msg("feed connection lost, reconnecting")
			if c.met != nil {
				c.met.FeedErrors.Inc()
			}
		}
		if received {
			backoff = initialBackoff
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// readOnce dials the feed and reads messages until the connection
// breaks. Reports whether at least one bar was delivered.
func (c *Client) readOnce(ctx context.Context, handler Handler) (bool, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return false, fmt.Errorf("dial feed: %w", err)
	}
	defer conn.Close()

	// Unblock ReadMessage when the context is cancelled.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	c.log.Info().Str("url", c.url).Msg("feed connected")

	received := false
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return received, fmt.Errorf("read feed message: %w", err)
		}

		var msg BarMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.log.Warn().Err(err).Msg("skipping malformed feed message")
			if c.met != nil {
				c.met.FeedErrors.Inc()
			}
			continue
		}

		received = true
		if c.met != nil {
			c.met.FeedMessages.Inc()
		}

		if err := handler(ctx, msg.Bar()); err != nil {
			return received, &handlerError{err: err}
		}
	}
}
