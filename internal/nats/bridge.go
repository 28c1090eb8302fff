package nats

import (
	"context"
	"log/slog"
	"sync"

	"github.com/timescam/koishi/internal/events"
)

// Bridge forwards events from the in-process bus to NATS. It subscribes to
// every topic and runs until its context is cancelled.
type Bridge struct {
	client *Client
	bus    *events.Bus
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewBridge creates a Bridge between bus and client.
func NewBridge(client *Client, bus *events.Bus) *Bridge {
	return &Bridge{client: client, bus: bus}
}

// Start begins forwarding events in a background goroutine.
func (b *Bridge) Start(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	ch, unsubscribe := b.bus.Subscribe()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-ch:
				if !ok {
					return
				}
				if err := b.client.Publish(event); err != nil {
					slog.Warn("failed to publish event to nats",
						"topic", event.Topic,
						"error", err,
					)
				}
			}
		}
	}()

	slog.Info("nats event bridge started")
}

// Stop cancels forwarding and waits for the goroutine to exit.
func (b *Bridge) Stop() {
	if b.cancel != nil {
		b.cancel()
	}
	b.wg.Wait()
	slog.Info("nats event bridge stopped")
}
