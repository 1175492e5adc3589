package httpapi

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"

	"github.com/airwavefm/airwave/internal/domain/track"
)

type playlistCreateRequest struct {
	Name   string     `json:"name"`
	Tracks []trackDTO `json:"tracks"`
}

type playlistRenameRequest struct {
	Name string `json:"name"`
}

type playlistTracksRequest struct {
	Tracks []trackDTO `json:"tracks"`
}

type playlistListResponse struct {
	Playlists []playlistDTO `json:"playlists"`
}

type playlistPlayRequest struct {
	StartTrackID string `json:"startTrackId"`
}

func (s *Server) handlePlaylistList(w http.ResponseWriter, r *http.Request) {
	playlists, err := s.library.List(r.Context(), userID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := playlistListResponse{Playlists: make([]playlistDTO, 0, len(playlists))}
	for _, p := range playlists {
		resp.Playlists = append(resp.Playlists, toPlaylistDTO(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePlaylistCreate(w http.ResponseWriter, r *http.Request) {
	var req playlistCreateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, errors.Wrap(errBadRequest, "name is required"))
		return
	}

	p, err := s.library.Create(r.Context(), userID(r), req.Name, toTracks(req.Tracks))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlaylistDTO(*p))
}

func (s *Server) handlePlaylistGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.library.Get(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlaylistDTO(*p))
}

func (s *Server) handlePlaylistRename(w http.ResponseWriter, r *http.Request) {
	var req playlistRenameRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Name == "" {
		writeError(w, errors.Wrap(errBadRequest, "name is required"))
		return
	}

	if err := s.library.Rename(r.Context(), userID(r), mux.Vars(r)["id"], req.Name); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handlePlaylistReplaceTracks(w http.ResponseWriter, r *http.Request) {
	var req playlistTracksRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.library.ReplaceTracks(r.Context(), userID(r), mux.Vars(r)["id"], toTracks(req.Tracks)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handlePlaylistAppendTracks(w http.ResponseWriter, r *http.Request) {
	var req playlistTracksRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := s.library.AppendTracks(r.Context(), userID(r), mux.Vars(r)["id"], toTracks(req.Tracks)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handlePlaylistDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.library.Delete(r.Context(), userID(r), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// handlePlaylistPlay loads a playlist and plays it as the queue
// context, starting from the requested track or the first playable one.
func (s *Server) handlePlaylistPlay(w http.ResponseWriter, r *http.Request) {
	var req playlistPlayRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := s.library.Get(r.Context(), userID(r), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}

	start, startIndex := pickStartTrack(p.Tracks, req.StartTrackID)
	if start == nil {
		writeError(w, errors.Wrap(errBadRequest, "playlist has no playable tracks"))
		return
	}

	if err := s.sessions.PlayFromContext(r.Context(), userID(r), *start, p.Tracks, startIndex); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlayerStateDTO(s.sessions.Engine(r.Context(), userID(r))))
}

// pickStartTrack selects the requested start track, falling back to the
// first playable one.
func pickStartTrack(tracks []track.Track, startTrackID string) (*track.Track, int) {
	if startTrackID != "" {
		for i := range tracks {
			if tracks[i].ID == startTrackID {
				return &tracks[i], i
			}
		}
	}
	for i := range tracks {
		if tracks[i].Playable() {
			return &tracks[i], i
		}
	}
	return nil, 0
}
