package httpapi

import (
	"time"

	"github.com/airwavefm/airwave/internal/app/player"
	"github.com/airwavefm/airwave/internal/domain/playlist"
	"github.com/airwavefm/airwave/internal/domain/track"
)

type trackDTO struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	ArtistID      string   `json:"artistId,omitempty"`
	ArtistName    string   `json:"artistName,omitempty"`
	AlbumID       string   `json:"albumId,omitempty"`
	AlbumName     string   `json:"albumName,omitempty"`
	AlbumImageURL string   `json:"albumImageUrl,omitempty"`
	DurationSec   int64    `json:"durationSec,omitempty"`
	AudioURL      string   `json:"audioUrl,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	Explicit      bool     `json:"explicit,omitempty"`
}

func toTrackDTO(t track.Track) trackDTO {
	return trackDTO{
		ID:            t.ID,
		Name:          t.Name,
		ArtistID:      t.ArtistID,
		ArtistName:    t.ArtistName,
		AlbumID:       t.AlbumID,
		AlbumName:     t.AlbumName,
		AlbumImageURL: t.AlbumImageURL,
		DurationSec:   t.DurationSeconds(),
		AudioURL:      t.AudioURL,
		Tags:          t.Tags,
		Explicit:      t.Explicit,
	}
}

func (d trackDTO) toTrack() track.Track {
	return track.Track{
		ID:            d.ID,
		Name:          d.Name,
		ArtistID:      d.ArtistID,
		ArtistName:    d.ArtistName,
		AlbumID:       d.AlbumID,
		AlbumName:     d.AlbumName,
		AlbumImageURL: d.AlbumImageURL,
		Duration:      time.Duration(d.DurationSec) * time.Second,
		AudioURL:      d.AudioURL,
		Tags:          d.Tags,
		Explicit:      d.Explicit,
	}
}

func toTrackDTOs(tracks []track.Track) []trackDTO {
	out := make([]trackDTO, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, toTrackDTO(t))
	}
	return out
}

func toTracks(dtos []trackDTO) []track.Track {
	out := make([]track.Track, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, d.toTrack())
	}
	return out
}

type queueItemDTO struct {
	Track   trackDTO  `json:"track"`
	AddedAt time.Time `json:"addedAt"`
}

type playerStateDTO struct {
	Current      *trackDTO      `json:"current"`
	CurrentIndex int            `json:"currentIndex"`
	Queue        []queueItemDTO `json:"queue"`
	Repeat       bool           `json:"isRepeatMode"`
	Shuffle      bool           `json:"isShuffleMode"`
	AutoPlay     bool           `json:"autoPlayEnabled"`
}

func toPlayerStateDTO(e *player.Engine) playerStateDTO {
	state := e.State()
	items := e.Queue()

	dto := playerStateDTO{
		CurrentIndex: e.CurrentIndex(),
		Queue:        make([]queueItemDTO, 0, len(items)),
		Repeat:       state.Repeat,
		Shuffle:      state.Shuffle,
		AutoPlay:     state.AutoPlay,
	}
	if cur, ok := e.CurrentTrack(); ok {
		d := toTrackDTO(*cur)
		dto.Current = &d
	}
	for _, item := range items {
		dto.Queue = append(dto.Queue, queueItemDTO{Track: toTrackDTO(item.Track), AddedAt: item.AddedAt})
	}
	return dto
}

type playlistDTO struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Tracks    []trackDTO `json:"tracks"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func toPlaylistDTO(p playlist.Playlist) playlistDTO {
	return playlistDTO{
		ID:        p.ID,
		Name:      p.Name,
		Tracks:    toTrackDTOs(p.Tracks),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
