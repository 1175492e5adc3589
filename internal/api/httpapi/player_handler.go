package httpapi

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
)

type playRequest struct {
	Track trackDTO `json:"track"`
}

type playContextRequest struct {
	Track      trackDTO   `json:"track"`
	Tracks     []trackDTO `json:"tracks"`
	StartIndex int        `json:"startIndex"`
}

type selectRequest struct {
	TrackID string `json:"trackId"`
}

type toggleResponse struct {
	Enabled bool `json:"enabled"`
}

type advanceResponse struct {
	Advanced bool `json:"advanced"`
}

func (s *Server) handlePlayerState(w http.ResponseWriter, r *http.Request) {
	e := s.sessions.Engine(r.Context(), userID(r))
	writeJSON(w, http.StatusOK, toPlayerStateDTO(e))
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Track.ID == "" {
		writeError(w, errors.Wrap(errBadRequest, "track.id is required"))
		return
	}

	if err := s.sessions.PlayTrack(r.Context(), userID(r), req.Track.toTrack()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlayerStateDTO(s.sessions.Engine(r.Context(), userID(r))))
}

func (s *Server) handlePlayContext(w http.ResponseWriter, r *http.Request) {
	var req playContextRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Track.ID == "" {
		writeError(w, errors.Wrap(errBadRequest, "track.id is required"))
		return
	}

	err := s.sessions.PlayFromContext(r.Context(), userID(r), req.Track.toTrack(), toTracks(req.Tracks), req.StartIndex)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlayerStateDTO(s.sessions.Engine(r.Context(), userID(r))))
}

func (s *Server) handleQueueAdd(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Track.ID == "" {
		writeError(w, errors.Wrap(errBadRequest, "track.id is required"))
		return
	}

	e := s.sessions.Engine(r.Context(), userID(r))
	if err := e.AddToQueue(req.Track.toTrack()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlayerStateDTO(e))
}

func (s *Server) handleQueueRemove(w http.ResponseWriter, r *http.Request) {
	e := s.sessions.Engine(r.Context(), userID(r))
	e.RemoveFromQueue(mux.Vars(r)["trackId"])
	writeJSON(w, http.StatusOK, toPlayerStateDTO(e))
}

func (s *Server) handleQueueClear(w http.ResponseWriter, r *http.Request) {
	e := s.sessions.Engine(r.Context(), userID(r))
	e.ClearQueue()
	writeJSON(w, http.StatusOK, toPlayerStateDTO(e))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	e := s.sessions.Engine(r.Context(), userID(r))
	e.SelectTrack(req.TrackID)
	writeJSON(w, http.StatusOK, toPlayerStateDTO(e))
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	e := s.sessions.Engine(r.Context(), userID(r))
	writeJSON(w, http.StatusOK, advanceResponse{Advanced: e.NextTrack()})
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	e := s.sessions.Engine(r.Context(), userID(r))
	writeJSON(w, http.StatusOK, advanceResponse{Advanced: e.PrevTrack()})
}

func (s *Server) handleToggleRepeat(w http.ResponseWriter, r *http.Request) {
	e := s.sessions.Engine(r.Context(), userID(r))
	writeJSON(w, http.StatusOK, toggleResponse{Enabled: e.ToggleRepeat()})
}

func (s *Server) handleToggleShuffle(w http.ResponseWriter, r *http.Request) {
	e := s.sessions.Engine(r.Context(), userID(r))
	writeJSON(w, http.StatusOK, toggleResponse{Enabled: e.ToggleShuffle()})
}

func (s *Server) handleToggleAutoPlay(w http.ResponseWriter, r *http.Request) {
	e := s.sessions.Engine(r.Context(), userID(r))
	writeJSON(w, http.StatusOK, toggleResponse{Enabled: e.ToggleAutoPlay()})
}
