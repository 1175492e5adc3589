// Package track provides the Track domain entity.
package track

import (
	"strings"
	"time"
)

// Track represents a catalog track entity.
// Contains only information retrieved from the catalog API.
type Track struct {
	ID            string        // Catalog track ID
	Name          string        // Track name
	ArtistID      string        // Catalog artist ID
	ArtistName    string        // Artist name
	AlbumID       string        // Catalog album ID
	AlbumName     string        // Album name
	AlbumImageURL string        // Album art URL
	Duration      time.Duration // Track duration (zero when the catalog omits it)
	AudioURL      string        // Audio source URL
	Tags          []string      // Genre tags (passthrough metadata)
	Explicit      bool          // Explicit content flag
}

// QueueItem represents a track in the playback queue.
type QueueItem struct {
	Track   Track     // Catalog track info
	AddedAt time.Time // Time when added to queue
}

// Playable reports whether the track has a usable audio source.
// An empty or whitespace-only audio URL means the track cannot be played.
func (t *Track) Playable() bool {
	return strings.TrimSpace(t.AudioURL) != ""
}

// DurationSeconds returns the track duration in whole seconds.
func (t *Track) DurationSeconds() int64 {
	return int64(t.Duration.Seconds())
}
