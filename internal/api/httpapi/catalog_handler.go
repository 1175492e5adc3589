package httpapi

import (
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gorilla/mux"
)

type trackListResponse struct {
	Tracks []trackDTO `json:"tracks"`
}

func (s *Server) handleCatalogSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, errors.Wrap(errBadRequest, "q is required"))
		return
	}

	tracks, err := s.catalog.Search(r.Context(), query, queryLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trackListResponse{Tracks: toTrackDTOs(tracks)})
}

func (s *Server) handleCatalogTrack(w http.ResponseWriter, r *http.Request) {
	t, err := s.catalog.TrackByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTrackDTO(*t))
}

func (s *Server) handleCatalogChart(w http.ResponseWriter, r *http.Request) {
	tracks, err := s.catalog.ChartTracks(r.Context(), queryLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, trackListResponse{Tracks: toTrackDTOs(tracks)})
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil {
		return 0 // provider default
	}
	return limit
}
