// Package session manages per-user player sessions: one queue engine
// per identity namespace, restored from durable storage on first use
// and cleared on sign-out.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/airwavefm/airwave/internal/app/notify"
	"github.com/airwavefm/airwave/internal/app/player"
	"github.com/airwavefm/airwave/internal/domain/track"
)

// AnonymousNamespace is the shared storage namespace for sessions
// without a signed-in user.
const AnonymousNamespace = "anonymous"

// Catalog is the catalog-lookup collaborator used to refresh a track's
// audio URL before playback when the cached one has gone stale.
type Catalog interface {
	TrackByID(ctx context.Context, id string) (*track.Track, error)
}

// Config holds session manager configuration.
type Config struct {
	Store          player.Store  // Durable queue/state store (nil disables persistence)
	Catalog        Catalog       // Optional audio URL refresh source
	Events         *notify.Hub   // Optional fan-out for engine events
	Shuffler       player.Shuffler
	EventBuffer    int
	PersistTimeout time.Duration
}

// Manager owns the engines of all active sessions.
type Manager struct {
	mu      sync.Mutex
	engines map[string]*player.Engine
	cfg     Config
}

// NewManager creates a new session manager.
func NewManager(cfg Config) *Manager {
	return &Manager{
		engines: make(map[string]*player.Engine),
		cfg:     cfg,
	}
}

// Namespace maps a user ID to its storage namespace. An empty user ID
// is an anonymous session.
func Namespace(userID string) string {
	if userID == "" {
		return AnonymousNamespace
	}
	return userID
}

// UserIDFromNamespace is the inverse of Namespace.
func UserIDFromNamespace(namespace string) string {
	if namespace == AnonymousNamespace {
		return ""
	}
	return namespace
}

// Engine returns the engine for the given user, creating and restoring
// it on first use. A failed restore starts the session with an empty
// queue: storage is best-effort.
func (m *Manager) Engine(ctx context.Context, userID string) *player.Engine {
	ns := Namespace(userID)

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.engines[ns]; ok {
		return e
	}

	e := player.NewEngine(player.Config{
		Namespace:      ns,
		Store:          m.cfg.Store,
		Shuffler:       m.cfg.Shuffler,
		EventBuffer:    m.cfg.EventBuffer,
		PersistTimeout: m.cfg.PersistTimeout,
	})
	if err := e.Restore(ctx); err != nil {
		zlog.Warn().Err(err).Msgf("session: failed to restore queue, starting empty: namespace=%s", ns)
	}

	if m.cfg.Events != nil {
		go m.forwardEvents(ns, e)
	}

	m.engines[ns] = e
	zlog.Debug().Msgf("session: engine created: namespace=%s queue_len=%d", ns, e.Len())
	return e
}

// PlayTrack refreshes the track's audio URL if needed and plays it.
func (m *Manager) PlayTrack(ctx context.Context, userID string, t track.Track) error {
	t = m.enrich(ctx, t)
	return m.Engine(ctx, userID).PlayTrack(t)
}

// PlayFromContext refreshes the start track's audio URL if needed and
// replaces the queue with the given context tracks.
func (m *Manager) PlayFromContext(ctx context.Context, userID string, t track.Track, contextTracks []track.Track, startIndex int) error {
	t = m.enrich(ctx, t)
	return m.Engine(ctx, userID).PlayFromContext(t, contextTracks, startIndex)
}

// SignOut closes the user's engine and erases their stored queue and
// state, so the next session on this namespace starts clean.
func (m *Manager) SignOut(ctx context.Context, userID string) error {
	ns := Namespace(userID)

	m.mu.Lock()
	if e, ok := m.engines[ns]; ok {
		delete(m.engines, ns)
		e.Close()
	}
	m.mu.Unlock()

	if m.cfg.Store == nil {
		return nil
	}
	if err := m.cfg.Store.Clear(ctx, ns); err != nil {
		return errors.Wrapf(err, "failed to clear stored session for namespace %s", ns)
	}
	return nil
}

// Close closes all engines.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for ns, e := range m.engines {
		delete(m.engines, ns)
		e.Close()
	}
}

// enrich opportunistically refreshes the audio URL of an unplayable
// track from the catalog. Lookup failures leave the track as-is; the
// engine will reject it as not playable.
func (m *Manager) enrich(ctx context.Context, t track.Track) track.Track {
	if m.cfg.Catalog == nil || t.Playable() {
		return t
	}

	fresh, err := m.cfg.Catalog.TrackByID(ctx, t.ID)
	if err != nil {
		zlog.Debug().Err(err).Msgf("session: audio URL refresh failed: track=%s", t.ID)
		return t
	}
	if fresh != nil && fresh.Playable() {
		t.AudioURL = fresh.AudioURL
	}
	return t
}

// forwardEvents relays engine events to the hub until the engine's
// event channel is closed.
func (m *Manager) forwardEvents(namespace string, e *player.Engine) {
	for ev := range e.Events() {
		m.cfg.Events.Publish(notify.Notification{Namespace: namespace, Event: ev})
	}
}
