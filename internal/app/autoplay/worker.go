// Package autoplay keeps playback going for sessions with autoplay
// enabled: when a queue runs out, a recommended track is appended and
// selected.
package autoplay

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/airwavefm/airwave/internal/app/notify"
	"github.com/airwavefm/airwave/internal/app/player"
	"github.com/airwavefm/airwave/internal/app/session"
	"github.com/airwavefm/airwave/internal/domain/track"
)

// Source provides candidate tracks for continuation.
type Source interface {
	ChartTracks(ctx context.Context, limit int) ([]track.Track, error)
}

// Config holds autoplay worker configuration.
type Config struct {
	Sessions       *session.Manager
	Source         Source
	Events         *notify.Hub
	CandidateCount int
}

// Worker listens for queue-ended events and extends the queue.
type Worker struct {
	cfg   Config
	subID string
	ch    <-chan notify.Notification
	done  chan struct{}
}

// New creates an autoplay worker.
func New(cfg Config) *Worker {
	if cfg.CandidateCount <= 0 {
		cfg.CandidateCount = 5
	}
	return &Worker{cfg: cfg}
}

// Start subscribes to player events and begins processing.
func (w *Worker) Start() {
	w.subID, w.ch = w.cfg.Events.Subscribe(16)
	w.done = make(chan struct{})
	go w.run()
}

// Stop unsubscribes and waits for in-flight work to finish.
func (w *Worker) Stop() {
	if w.subID == "" {
		return
	}
	w.cfg.Events.Unsubscribe(w.subID)
	<-w.done
}

func (w *Worker) run() {
	defer close(w.done)
	for n := range w.ch {
		if n.Event.Type != player.EventQueueEnded {
			continue
		}
		w.extend(n.Namespace)
	}
}

// extend appends the first playable candidate not already queued and
// makes it current. Sessions with autoplay off are left alone.
func (w *Worker) extend(namespace string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	e := w.cfg.Sessions.Engine(ctx, session.UserIDFromNamespace(namespace))
	if !e.State().AutoPlay {
		return
	}

	candidates, err := w.cfg.Source.ChartTracks(ctx, w.cfg.CandidateCount)
	if err != nil {
		zlog.Warn().Err(err).Msgf("autoplay: failed to fetch candidates: namespace=%s", namespace)
		return
	}

	queued := make(map[string]bool, e.Len())
	for _, item := range e.Queue() {
		queued[item.Track.ID] = true
	}

	for _, candidate := range candidates {
		if queued[candidate.ID] || !candidate.Playable() {
			continue
		}
		if err := e.AddToQueue(candidate); err != nil {
			continue
		}
		e.SelectTrack(candidate.ID)
		zlog.Info().Msgf("autoplay: queued continuation: namespace=%s track=%s name=%q",
			namespace, candidate.ID, candidate.Name)
		return
	}
	zlog.Debug().Msgf("autoplay: no fresh candidate available: namespace=%s", namespace)
}
