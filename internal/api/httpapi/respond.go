package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/airwavefm/airwave/internal/app/identity"
	"github.com/airwavefm/airwave/internal/app/player"
	"github.com/airwavefm/airwave/internal/infra/library"
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			zlog.Warn().Err(err).Msg("http: failed to encode response")
		}
	}
}

// writeError maps application errors to HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, identity.ErrInvalidToken):
		status = http.StatusUnauthorized
	case errors.Is(err, library.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, player.ErrAlreadyQueued):
		status = http.StatusConflict
	case errors.Is(err, player.ErrNotPlayable), errors.Is(err, player.ErrNoPlayableTracks):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		zlog.Error().Err(err).Msg("http: request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// decodeBody parses the JSON request body into dst. An empty body
// leaves dst at its zero value.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return errors.Wrap(errBadRequest, "invalid request body")
	}
	return nil
}
