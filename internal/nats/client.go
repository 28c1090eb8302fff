// Package nats bridges the in-process event bus to a NATS server so
// external consumers (dashboards, other bots, audit pipelines) can observe
// engine activity.
package nats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/timescam/koishi/internal/events"
)

// ClientConfig holds the configuration for the NATS client.
type ClientConfig struct {
	URL           string
	Name          string // connection name for monitoring
	Token         string // auth token (optional, must match NATS server --auth flag)
	MaxReconnects int
	ReconnectWait time.Duration

	// SubjectPrefix prefixes every published subject; defaults to "koishi".
	SubjectPrefix string
}

// DefaultConfig returns a ClientConfig with sensible defaults.
func DefaultConfig(url, name string) ClientConfig {
	return ClientConfig{
		URL:           url,
		Name:          name,
		MaxReconnects: -1, // unlimited reconnects
		ReconnectWait: 2 * time.Second,
		SubjectPrefix: "koishi",
	}
}

// Client wraps a NATS connection publishing engine events.
type Client struct {
	conn   *nats.Conn
	config ClientConfig
}

// Connect establishes a connection to the NATS server.
func Connect(config ClientConfig) (*Client, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.Timeout(5 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			slog.Info("nats connection closed")
		}),
	}

	if config.Token != "" {
		opts = append(opts, nats.Token(config.Token))
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to nats %s: %w", config.URL, err)
	}

	if config.SubjectPrefix == "" {
		config.SubjectPrefix = "koishi"
	}

	slog.Info("nats connected", "url", config.URL, "name", config.Name)
	return &Client{conn: nc, config: config}, nil
}

// Publish sends an engine event to its topic subject, e.g.
// "koishi.events.command-error".
func (c *Client) Publish(event events.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	subject := fmt.Sprintf("%s.events.%s", c.config.SubjectPrefix, event.Topic)
	return c.conn.Publish(subject, data)
}

// IsConnected returns true if the client is currently connected.
func (c *Client) IsConnected() bool {
	return c.conn.IsConnected()
}

// Close flushes pending publishes and closes the connection.
func (c *Client) Close() {
	if err := c.conn.Flush(); err != nil {
		slog.Debug("nats flush failed", "error", err)
	}
	c.conn.Close()
	slog.Info("nats client closed")
}
