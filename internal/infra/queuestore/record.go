package queuestore

import (
	"encoding/json"
	"time"

	"github.com/airwavefm/airwave/internal/app/player"
	"github.com/airwavefm/airwave/internal/domain/track"
)

// recordVersion tags persisted payloads so incompatible data written by
// another app version is detected and discarded instead of misread.
const recordVersion = 1

type trackRecord struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	ArtistID        string   `json:"artistId,omitempty"`
	ArtistName      string   `json:"artistName,omitempty"`
	AlbumID         string   `json:"albumId,omitempty"`
	AlbumName       string   `json:"albumName,omitempty"`
	AlbumImageURL   string   `json:"albumImageUrl,omitempty"`
	DurationSeconds int64    `json:"durationSeconds,omitempty"`
	AudioURL        string   `json:"audioUrl,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Explicit        bool     `json:"explicit,omitempty"`
}

type itemRecord struct {
	Track   trackRecord `json:"track"`
	AddedAt int64       `json:"addedAt"` // Unix milliseconds
}

type queueRecord struct {
	Version int          `json:"version"`
	Items   []itemRecord `json:"items"`
}

type stateRecord struct {
	Version        int    `json:"version"`
	CurrentTrackID string `json:"currentTrackId,omitempty"`
	CurrentIndex   int    `json:"currentIndex"`
	Repeat         bool   `json:"isRepeatMode"`
	Shuffle        bool   `json:"isShuffleMode"`
	AutoPlay       bool   `json:"autoPlayEnabled"`
}

func encodeQueue(items []track.QueueItem) ([]byte, error) {
	rec := queueRecord{Version: recordVersion, Items: make([]itemRecord, len(items))}
	for i, item := range items {
		rec.Items[i] = itemRecord{
			Track: trackRecord{
				ID:              item.Track.ID,
				Name:            item.Track.Name,
				ArtistID:        item.Track.ArtistID,
				ArtistName:      item.Track.ArtistName,
				AlbumID:         item.Track.AlbumID,
				AlbumName:       item.Track.AlbumName,
				AlbumImageURL:   item.Track.AlbumImageURL,
				DurationSeconds: item.Track.DurationSeconds(),
				AudioURL:        item.Track.AudioURL,
				Tags:            item.Track.Tags,
				Explicit:        item.Track.Explicit,
			},
			AddedAt: item.AddedAt.UnixMilli(),
		}
	}
	return json.Marshal(rec)
}

// decodeQueue parses a stored queue payload. Corrupt or incompatible
// data yields (nil, false): absence, never an error.
func decodeQueue(data []byte) ([]track.QueueItem, bool) {
	var rec queueRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, false
	}
	if rec.Version != recordVersion {
		return nil, false
	}

	items := make([]track.QueueItem, len(rec.Items))
	for i, ir := range rec.Items {
		items[i] = track.QueueItem{
			Track: track.Track{
				ID:            ir.Track.ID,
				Name:          ir.Track.Name,
				ArtistID:      ir.Track.ArtistID,
				ArtistName:    ir.Track.ArtistName,
				AlbumID:       ir.Track.AlbumID,
				AlbumName:     ir.Track.AlbumName,
				AlbumImageURL: ir.Track.AlbumImageURL,
				Duration:      time.Duration(ir.Track.DurationSeconds) * time.Second,
				AudioURL:      ir.Track.AudioURL,
				Tags:          ir.Track.Tags,
				Explicit:      ir.Track.Explicit,
			},
			AddedAt: time.UnixMilli(ir.AddedAt),
		}
	}
	return items, true
}

func encodeState(state player.State) ([]byte, error) {
	return json.Marshal(stateRecord{
		Version:        recordVersion,
		CurrentTrackID: state.CurrentTrackID,
		CurrentIndex:   state.CurrentIndex,
		Repeat:         state.Repeat,
		Shuffle:        state.Shuffle,
		AutoPlay:       state.AutoPlay,
	})
}

// decodeState parses a stored state payload, degrading to the
// all-defaults state when the data is corrupt or incompatible.
func decodeState(data []byte) (player.State, bool) {
	var rec stateRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return player.State{}, false
	}
	if rec.Version != recordVersion {
		return player.State{}, false
	}
	return player.State{
		CurrentTrackID: rec.CurrentTrackID,
		CurrentIndex:   rec.CurrentIndex,
		Repeat:         rec.Repeat,
		Shuffle:        rec.Shuffle,
		AutoPlay:       rec.AutoPlay,
	}, true
}
