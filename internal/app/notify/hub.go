// Package notify fans player events out to subscribers, so history
// recording and other side effects can observe playback without the
// engine knowing about them.
package notify

import (
	"sync"

	"github.com/google/uuid"

	"github.com/airwavefm/airwave/internal/app/player"
)

// Notification is a player event tagged with the namespace it came from.
type Notification struct {
	Namespace string
	Event     player.Event
}

// Hub manages subscriptions and broadcasting.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]chan Notification
}

// NewHub creates a new hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string]chan Notification)}
}

// Subscribe adds a subscriber and returns its ID and receive channel.
func (h *Hub) Subscribe(buffer int) (string, <-chan Notification) {
	if buffer <= 0 {
		buffer = 16
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan Notification, buffer)
	h.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}

// Publish delivers a notification to every subscriber. A subscriber
// with a full channel misses the notification rather than blocking the
// publisher.
func (h *Hub) Publish(n Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Close removes and closes all subscriptions.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
