package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwavefm/airwave/internal/app/player"
)

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	h := NewHub()
	defer h.Close()

	_, ch1 := h.Subscribe(4)
	_, ch2 := h.Subscribe(4)

	h.Publish(Notification{Namespace: "alice", Event: player.Event{Type: player.EventTrackStarted}})

	for _, ch := range []<-chan Notification{ch1, ch2} {
		select {
		case n := <-ch:
			assert.Equal(t, "alice", n.Namespace)
			assert.Equal(t, player.EventTrackStarted, n.Event.Type)
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive notification")
		}
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub()
	defer h.Close()

	id, ch := h.Subscribe(4)
	h.Unsubscribe(id)

	// The channel is closed, so receive returns immediately.
	_, open := <-ch
	require.False(t, open)

	// Publishing after unsubscribe must not panic.
	h.Publish(Notification{Namespace: "alice"})
}

func TestHub_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	h := NewHub()
	defer h.Close()

	_, ch := h.Subscribe(1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			h.Publish(Notification{Namespace: "alice"})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber channel")
	}
	assert.Len(t, ch, 1, "overflow notifications are dropped")
}
