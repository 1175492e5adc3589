package player

import "github.com/airwavefm/airwave/internal/domain/track"

// EventType represents a player event type.
type EventType int

const (
	EventTrackStarted  EventType = iota // Current track changed and playback (re)started
	EventTrackQueued                    // Track appended to the queue
	EventTrackRemoved                   // Track removed from the queue
	EventQueueReplaced                  // Whole queue replaced by a context play
	EventQueueEnded                     // Advance requested past the last track without repeat
	EventQueueCleared                   // Queue emptied
	EventModeChanged                    // Repeat/shuffle/autoplay flag flipped
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackQueued:
		return "track_queued"
	case EventTrackRemoved:
		return "track_removed"
	case EventQueueReplaced:
		return "queue_replaced"
	case EventQueueEnded:
		return "queue_ended"
	case EventQueueCleared:
		return "queue_cleared"
	case EventModeChanged:
		return "mode_changed"
	default:
		return "unknown"
	}
}

// Event represents a player event.
type Event struct {
	Type     EventType
	Track    *track.Track // Track concerned by the event (nil for some events)
	QueueLen int          // Queue length after the mutation
}
