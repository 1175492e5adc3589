// Package playlist provides the Playlist domain entity.
package playlist

import (
	"time"

	"github.com/airwavefm/airwave/internal/domain/track"
)

// Playlist represents a user playlist in the library.
type Playlist struct {
	ID        string        // Playlist ID
	UserID    string        // Owning user ID (empty for anonymous)
	Name      string        // Playlist name
	Tracks    []track.Track // Tracks in playlist order
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TrackIDs returns all track IDs in the playlist.
func (p *Playlist) TrackIDs() []string {
	ids := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		ids[i] = t.ID
	}
	return ids
}

// Contains reports whether the playlist holds a track with the given ID.
func (p *Playlist) Contains(trackID string) bool {
	for _, t := range p.Tracks {
		if t.ID == trackID {
			return true
		}
	}
	return false
}

// PlayableTracks returns the tracks that have a usable audio source,
// preserving playlist order.
func (p *Playlist) PlayableTracks() []track.Track {
	playable := make([]track.Track, 0, len(p.Tracks))
	for _, t := range p.Tracks {
		if t.Playable() {
			playable = append(playable, t)
		}
	}
	return playable
}

// TotalDuration returns the total duration of all tracks.
func (p *Playlist) TotalDuration() time.Duration {
	var total time.Duration
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}
