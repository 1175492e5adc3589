// Package httpapi exposes the player, catalog, and playlist operations
// over a JSON HTTP API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	zlog "github.com/rs/zerolog/log"

	"github.com/airwavefm/airwave/internal/app/catalog"
	"github.com/airwavefm/airwave/internal/app/identity"
	"github.com/airwavefm/airwave/internal/app/session"
	"github.com/airwavefm/airwave/internal/infra/library"
)

type contextKey int

const userIDKey contextKey = iota

// Server bundles the application services behind the HTTP routes.
type Server struct {
	router   *mux.Router
	sessions *session.Manager
	catalog  catalog.Provider
	library  *library.Store
	identity *identity.Resolver
}

// New creates the API server and registers its routes.
func New(sessions *session.Manager, cat catalog.Provider, lib *library.Store, resolver *identity.Resolver) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		sessions: sessions,
		catalog:  cat,
		library:  lib,
		identity: resolver,
	}
	s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/v1").Subrouter()
	api.Use(s.logRequest, s.resolveUser)

	api.HandleFunc("/catalog/search", s.handleCatalogSearch).Methods(http.MethodGet)
	api.HandleFunc("/catalog/chart", s.handleCatalogChart).Methods(http.MethodGet)
	api.HandleFunc("/catalog/tracks/{id}", s.handleCatalogTrack).Methods(http.MethodGet)

	api.HandleFunc("/player", s.handlePlayerState).Methods(http.MethodGet)
	api.HandleFunc("/player/play", s.handlePlay).Methods(http.MethodPost)
	api.HandleFunc("/player/play-context", s.handlePlayContext).Methods(http.MethodPost)
	api.HandleFunc("/player/queue", s.handleQueueAdd).Methods(http.MethodPost)
	api.HandleFunc("/player/queue", s.handleQueueClear).Methods(http.MethodDelete)
	api.HandleFunc("/player/queue/{trackId}", s.handleQueueRemove).Methods(http.MethodDelete)
	api.HandleFunc("/player/select", s.handleSelect).Methods(http.MethodPost)
	api.HandleFunc("/player/next", s.handleNext).Methods(http.MethodPost)
	api.HandleFunc("/player/previous", s.handlePrevious).Methods(http.MethodPost)
	api.HandleFunc("/player/repeat", s.handleToggleRepeat).Methods(http.MethodPost)
	api.HandleFunc("/player/shuffle", s.handleToggleShuffle).Methods(http.MethodPost)
	api.HandleFunc("/player/autoplay", s.handleToggleAutoPlay).Methods(http.MethodPost)

	api.HandleFunc("/playlists", s.handlePlaylistList).Methods(http.MethodGet)
	api.HandleFunc("/playlists", s.handlePlaylistCreate).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}", s.handlePlaylistGet).Methods(http.MethodGet)
	api.HandleFunc("/playlists/{id}", s.handlePlaylistRename).Methods(http.MethodPatch)
	api.HandleFunc("/playlists/{id}", s.handlePlaylistDelete).Methods(http.MethodDelete)
	api.HandleFunc("/playlists/{id}/tracks", s.handlePlaylistReplaceTracks).Methods(http.MethodPut)
	api.HandleFunc("/playlists/{id}/tracks", s.handlePlaylistAppendTracks).Methods(http.MethodPost)
	api.HandleFunc("/playlists/{id}/play", s.handlePlaylistPlay).Methods(http.MethodPost)

	api.HandleFunc("/auth/token", s.handleIssueToken).Methods(http.MethodPost)
	api.HandleFunc("/auth/signout", s.handleSignOut).Methods(http.MethodPost)
}

// resolveUser authenticates the request and stores the user ID in the
// request context. Requests without a token proceed as anonymous.
func (s *Server) resolveUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.identity.FromRequest(r)
		if err != nil {
			writeError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		zlog.Debug().Msgf("http: %s %s (%s)", r.Method, r.URL.Path, time.Since(start))
	})
}

// userID returns the authenticated user of the request, or the empty
// string for anonymous sessions.
func userID(r *http.Request) string {
	if v, ok := r.Context().Value(userIDKey).(string); ok {
		return v
	}
	return ""
}
