// Package events provides the in-process event bus connecting the dispatch
// engine to observers: the websocket activity stream, the NATS bridge, and
// anything else interested in engine activity.
package events

import (
	"sync"
	"time"
)

// Topic names a class of engine event.
type Topic string

const (
	// TopicCommandError fires when a command error is recovered by the
	// execution pipeline.
	TopicCommandError Topic = "command-error"
	// TopicCommandRemoved fires when a command is disposed.
	TopicCommandRemoved Topic = "command-removed"
	// TopicCommandExecuted fires after every completed dispatch.
	TopicCommandExecuted Topic = "command-executed"
	// TopicPermissionsChanged fires when the permission topology changes,
	// so derived caches can invalidate.
	TopicPermissionsChanged Topic = "permissions-changed"
)

// Event is one engine notification.
type Event struct {
	Topic     Topic          `json:"topic"`
	Command   string         `json:"command,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type subscriber struct {
	topics map[Topic]bool // empty means all topics
	ch     chan Event
}

// Bus is a process-wide fan-out of engine events. Publishing never blocks:
// a subscriber that falls behind loses events rather than stalling command
// dispatch.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]*subscriber
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]*subscriber)}
}

// Publish delivers an event to every matching subscriber. The timestamp is
// stamped here if the caller left it zero.
func (b *Bus) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if len(sub.topics) > 0 && !sub.topics[event.Topic] {
			continue
		}
		select {
		case sub.ch <- event:
		default:
			// Subscriber buffer full; drop rather than block dispatch.
		}
	}
}

// Subscribe returns a channel receiving events for the given topics (all
// topics when none are given) and a cancel function that closes it.
func (b *Bus) Subscribe(topics ...Topic) (<-chan Event, func()) {
	sub := &subscriber{
		topics: make(map[Topic]bool, len(topics)),
		ch:     make(chan Event, 64),
	}
	for _, topic := range topics {
		sub.topics[topic] = true
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[id] = sub
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub.ch)
		}
	}
	return sub.ch, cancel
}
