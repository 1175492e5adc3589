// Package player provides the playback queue engine: an ordered queue of
// tracks, a current-track pointer, repeat/shuffle/autoplay modes and
// per-mutation persistence through a Store.
package player

import (
	"context"
	"errors"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/airwavefm/airwave/internal/domain/track"
)

// Errors
var (
	ErrNotPlayable      = errors.New("track has no playable audio source")
	ErrNoPlayableTracks = errors.New("context has no playable tracks")
	ErrAlreadyQueued    = errors.New("track already in queue")
)

const (
	defaultEventBuffer    = 16
	defaultPersistTimeout = 3 * time.Second
)

// Config holds engine configuration.
type Config struct {
	Namespace      string        // Storage namespace (user ID or anonymous)
	Store          Store         // Durable queue/state store (nil disables persistence)
	Shuffler       Shuffler      // Random source for shuffle (nil selects CryptoShuffler)
	EventBuffer    int           // Event channel capacity
	PersistTimeout time.Duration // Per-save deadline for background persistence
}

// Engine manages the playback queue for a single user session. All
// mutation operations apply synchronously and leave the engine in a
// consistent state; persistence happens in the background and never
// blocks or fails a mutation.
type Engine struct {
	mu sync.RWMutex

	namespace string
	store     Store
	shuffler  Shuffler

	// Queue state
	queue        []track.QueueItem
	currentIndex int
	current      *track.Track
	repeat       bool
	shuffle      bool
	autoPlay     bool
	original     []track.QueueItem // Pre-shuffle ordering, nil while shuffle is off

	// Events
	eventCh chan Event
	closed  bool

	// Background persistence
	persistCh      chan persistSnapshot
	persistTimeout time.Duration

	// Context
	ctx    context.Context
	cancel context.CancelFunc
}

// persistSnapshot carries one consistent queue+state capture to the
// persister goroutine.
type persistSnapshot struct {
	items []track.QueueItem
	state State
	clear bool
}

// NewEngine creates a new queue engine.
func NewEngine(cfg Config) *Engine {
	if cfg.Shuffler == nil {
		cfg.Shuffler = CryptoShuffler{}
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = defaultEventBuffer
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = defaultPersistTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		namespace:      cfg.Namespace,
		store:          cfg.Store,
		shuffler:       cfg.Shuffler,
		queue:          make([]track.QueueItem, 0),
		eventCh:        make(chan Event, cfg.EventBuffer),
		persistCh:      make(chan persistSnapshot, 1),
		persistTimeout: cfg.PersistTimeout,
		ctx:            ctx,
		cancel:         cancel,
	}

	if e.store != nil {
		go e.runPersister()
	}

	return e
}

// Events returns the event channel.
func (e *Engine) Events() <-chan Event {
	return e.eventCh
}

// Namespace returns the storage namespace this engine persists under.
func (e *Engine) Namespace() string {
	return e.namespace
}

// Restore loads the persisted queue and state for the engine's
// namespace. The current track is re-resolved by ID against the loaded
// queue because the queue and state records are written independently
// and a stored index cannot be trusted across reloads.
func (e *Engine) Restore(ctx context.Context) error {
	if e.store == nil {
		return nil
	}

	items, err := e.store.LoadQueue(ctx, e.namespace)
	if err != nil {
		return err
	}
	state, err := e.store.LoadState(ctx, e.namespace)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.queue = items
	e.repeat = state.Repeat
	e.shuffle = state.Shuffle
	e.autoPlay = state.AutoPlay
	// The pre-shuffle snapshot is engine-private and not persisted, so a
	// reload mid-shuffle keeps the shuffled order as the new baseline.
	e.original = nil
	if e.shuffle && len(e.queue) > 0 {
		e.original = copyItems(e.queue)
	}

	idx := e.indexOfLocked(state.CurrentTrackID)
	if idx < 0 {
		idx = 0
	}
	e.setCurrentLocked(idx)

	return nil
}

// PlayTrack makes the given track current. A track not yet in the queue
// is inserted at the front; a track already queued just becomes current
// (no duplicate insert). Fails with ErrNotPlayable when the track has no
// usable audio source, leaving all state unchanged.
func (e *Engine) PlayTrack(t track.Track) error {
	if !t.Playable() {
		return ErrNotPlayable
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if idx := e.indexOfLocked(t.ID); idx >= 0 {
		e.setCurrentLocked(idx)
	} else {
		item := track.QueueItem{Track: t, AddedAt: time.Now()}
		e.queue = append([]track.QueueItem{item}, e.queue...)
		e.setCurrentLocked(0)
	}

	e.persistLocked()
	e.sendEventLocked(Event{Type: EventTrackStarted, Track: e.current, QueueLen: len(e.queue)})
	return nil
}

// PlayFromContext replaces the whole queue with the playable tracks of a
// playlist/album context and starts at the given track. The requested
// start position is re-resolved by track ID inside the filtered list,
// since filtering out unplayable tracks shifts positions relative to the
// caller's index; an unresolvable ID falls back to position 0.
func (e *Engine) PlayFromContext(t track.Track, contextTracks []track.Track, startIndex int) error {
	if !t.Playable() {
		return ErrNotPlayable
	}

	now := time.Now()
	items := make([]track.QueueItem, 0, len(contextTracks))
	for _, ct := range contextTracks {
		if ct.Playable() {
			items = append(items, track.QueueItem{Track: ct, AddedAt: now})
		}
	}
	if len(items) == 0 {
		return ErrNoPlayableTracks
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.queue = items
	// Replacing the queue rebaselines the shuffle snapshot: there is no
	// previous ordering to restore for a queue that never had one.
	e.original = nil
	if e.shuffle {
		e.original = copyItems(e.queue)
	}

	idx := e.indexOfLocked(t.ID)
	if idx < 0 {
		zlog.Debug().Msgf("player: context start track %s filtered out (requested index %d), starting at 0", t.ID, startIndex)
		idx = 0
	}
	e.setCurrentLocked(idx)

	e.persistLocked()
	e.sendEventLocked(Event{Type: EventQueueReplaced, Track: e.current, QueueLen: len(e.queue)})
	e.sendEventLocked(Event{Type: EventTrackStarted, Track: e.current, QueueLen: len(e.queue)})
	return nil
}

// AddToQueue appends a track to the end of the queue without touching
// the current track. Re-adding an already-queued ID is a no-op reported
// as ErrAlreadyQueued (informational, not fatal).
func (e *Engine) AddToQueue(t track.Track) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.indexOfLocked(t.ID) >= 0 {
		return ErrAlreadyQueued
	}

	item := track.QueueItem{Track: t, AddedAt: time.Now()}
	e.queue = append(e.queue, item)

	e.persistLocked()
	e.sendEventLocked(Event{Type: EventTrackQueued, Track: &item.Track, QueueLen: len(e.queue)})
	return nil
}

// RemoveFromQueue removes the track with the given ID. Removing the
// current track selects the track that followed it, or the new last
// track when the removed one was last. An unknown ID is ignored: stale
// references from UI re-renders are expected.
func (e *Engine) RemoveFromQueue(trackID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOfLocked(trackID)
	if idx < 0 {
		return
	}

	removed := e.queue[idx].Track
	e.queue = append(e.queue[:idx], e.queue[idx+1:]...)

	switch {
	case idx == e.currentIndex:
		if len(e.queue) == 0 {
			e.currentIndex = 0
			e.current = nil
		} else if idx < len(e.queue) {
			// The track that followed the removed one now occupies its slot.
			e.setCurrentLocked(idx)
		} else {
			e.setCurrentLocked(len(e.queue) - 1)
		}
	case idx < e.currentIndex:
		// Index shift compensation: keep pointing at the same track.
		e.currentIndex--
	}

	e.persistLocked()
	e.sendEventLocked(Event{Type: EventTrackRemoved, Track: &removed, QueueLen: len(e.queue)})
}

// SelectTrack jumps directly to the queue entry with the given ID.
// An ID no longer present is silently ignored.
func (e *Engine) SelectTrack(trackID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := e.indexOfLocked(trackID)
	if idx < 0 {
		return
	}

	e.setCurrentLocked(idx)
	e.persistLocked()
	e.sendEventLocked(Event{Type: EventTrackStarted, Track: e.current, QueueLen: len(e.queue)})
}

// NextTrack advances to the next queue entry, wrapping to the first one
// in repeat mode. At the end of the queue without repeat it keeps the
// current track and reports false (end of queue, informational).
func (e *Engine) NextTrack() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.queue) == 0 {
		return false
	}

	switch {
	case e.currentIndex < len(e.queue)-1:
		e.setCurrentLocked(e.currentIndex + 1)
	case e.repeat:
		e.setCurrentLocked(0)
	default:
		e.sendEventLocked(Event{Type: EventQueueEnded, Track: e.current, QueueLen: len(e.queue)})
		return false
	}

	e.persistLocked()
	e.sendEventLocked(Event{Type: EventTrackStarted, Track: e.current, QueueLen: len(e.queue)})
	return true
}

// PrevTrack moves to the previous queue entry. At the first entry it
// wraps to the last one only in repeat mode, otherwise it stays put.
func (e *Engine) PrevTrack() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.queue) == 0 {
		return false
	}

	switch {
	case e.currentIndex > 0:
		e.setCurrentLocked(e.currentIndex - 1)
	case e.repeat:
		e.setCurrentLocked(len(e.queue) - 1)
	default:
		return false
	}

	e.persistLocked()
	e.sendEventLocked(Event{Type: EventTrackStarted, Track: e.current, QueueLen: len(e.queue)})
	return true
}

// ToggleRepeat flips repeat mode and returns the new value.
func (e *Engine) ToggleRepeat() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.repeat = !e.repeat
	e.persistLocked()
	e.sendEventLocked(Event{Type: EventModeChanged, Track: e.current, QueueLen: len(e.queue)})
	return e.repeat
}

// ToggleAutoPlay flips autoplay and returns the new value.
func (e *Engine) ToggleAutoPlay() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.autoPlay = !e.autoPlay
	e.persistLocked()
	e.sendEventLocked(Event{Type: EventModeChanged, Track: e.current, QueueLen: len(e.queue)})
	return e.autoPlay
}

// ToggleShuffle flips shuffle mode and returns the new value.
//
// Turning shuffle on snapshots the current ordering, keeps the current
// track at position 0 and permutes the rest. Turning it off restores the
// snapshot and re-resolves the current position by track ID (falling
// back to 0 when the ID is gone, e.g. after a mid-shuffle reload).
func (e *Engine) ToggleShuffle() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.shuffle {
		e.shuffle = true
		e.original = copyItems(e.queue)

		if e.current != nil {
			currentID := e.current.ID
			rest := make([]track.QueueItem, 0, len(e.queue)-1)
			var currentItem track.QueueItem
			for _, item := range e.queue {
				if item.Track.ID == currentID {
					currentItem = item
					continue
				}
				rest = append(rest, item)
			}
			e.shuffler.Shuffle(rest)
			e.queue = append([]track.QueueItem{currentItem}, rest...)
			e.setCurrentLocked(0)
		} else {
			e.shuffler.Shuffle(e.queue)
		}
	} else {
		e.shuffle = false
		if e.original != nil {
			e.queue = e.original
			e.original = nil

			idx := 0
			if e.current != nil {
				if found := e.indexOfLocked(e.current.ID); found >= 0 {
					idx = found
				}
			}
			if len(e.queue) > 0 {
				e.setCurrentLocked(idx)
			} else {
				e.currentIndex = 0
				e.current = nil
			}
		}
	}

	e.persistLocked()
	e.sendEventLocked(Event{Type: EventModeChanged, Track: e.current, QueueLen: len(e.queue)})
	return e.shuffle
}

// ClearQueue empties the queue, resets all modes and erases the
// namespace's records from the store.
func (e *Engine) ClearQueue() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.queue = make([]track.QueueItem, 0)
	e.currentIndex = 0
	e.current = nil
	e.repeat = false
	e.shuffle = false
	e.original = nil

	e.enqueuePersist(persistSnapshot{clear: true})
	e.sendEventLocked(Event{Type: EventQueueCleared, QueueLen: 0})
}

// CurrentTrack returns the currently selected track.
func (e *Engine) CurrentTrack() (*track.Track, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.current == nil {
		return nil, false
	}
	t := *e.current
	return &t, true
}

// CurrentIndex returns the current queue position. Meaningless while
// the queue is empty.
func (e *Engine) CurrentIndex() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.currentIndex
}

// Queue returns a copy of the queue.
func (e *Engine) Queue() []track.QueueItem {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return copyItems(e.queue)
}

// Len returns the number of queued tracks.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.queue)
}

// State returns the persistable engine state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stateLocked()
}

// Close stops background persistence and closes the event channel.
// Safe to call more than once.
func (e *Engine) Close() {
	e.cancel()

	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.closed {
		e.closed = true
		close(e.eventCh)
	}
}

func (e *Engine) stateLocked() State {
	s := State{
		CurrentIndex: e.currentIndex,
		Repeat:       e.repeat,
		Shuffle:      e.shuffle,
		AutoPlay:     e.autoPlay,
	}
	if e.current != nil {
		s.CurrentTrackID = e.current.ID
	}
	return s
}

// indexOfLocked returns the queue position of the given track ID, or -1.
// Must be called with lock held.
func (e *Engine) indexOfLocked(trackID string) int {
	if trackID == "" {
		return -1
	}
	for i, item := range e.queue {
		if item.Track.ID == trackID {
			return i
		}
	}
	return -1
}

// setCurrentLocked points the engine at the queue entry at idx.
// Must be called with lock held and a non-empty queue.
func (e *Engine) setCurrentLocked(idx int) {
	if len(e.queue) == 0 {
		e.currentIndex = 0
		e.current = nil
		return
	}
	e.currentIndex = idx
	t := e.queue[idx].Track
	e.current = &t
}

// persistLocked hands the current queue+state to the persister without
// blocking the mutation. Must be called with lock held.
func (e *Engine) persistLocked() {
	e.enqueuePersist(persistSnapshot{
		items: copyItems(e.queue),
		state: e.stateLocked(),
	})
}

// enqueuePersist replaces any pending snapshot with the latest one;
// only the newest capture matters since each save overwrites the record.
func (e *Engine) enqueuePersist(snap persistSnapshot) {
	if e.store == nil {
		return
	}
	for {
		select {
		case e.persistCh <- snap:
			return
		default:
			select {
			case <-e.persistCh:
			default:
			}
		}
	}
}

// runPersister applies queued snapshots to the store. Failures are
// logged and dropped: storage is best-effort and must never surface
// into a queue mutation.
func (e *Engine) runPersister() {
	for {
		select {
		case <-e.ctx.Done():
			return
		case snap := <-e.persistCh:
			ctx, cancel := context.WithTimeout(context.Background(), e.persistTimeout)
			if snap.clear {
				if err := e.store.Clear(ctx, e.namespace); err != nil {
					zlog.Warn().Err(err).Msgf("player: failed to clear stored queue: namespace=%s", e.namespace)
				}
				cancel()
				continue
			}
			if err := e.store.SaveQueue(ctx, e.namespace, snap.items); err != nil {
				zlog.Warn().Err(err).Msgf("player: failed to persist queue: namespace=%s", e.namespace)
			}
			if err := e.store.SaveState(ctx, e.namespace, snap.state); err != nil {
				zlog.Warn().Err(err).Msgf("player: failed to persist state: namespace=%s", e.namespace)
			}
			cancel()
		}
	}
}

// sendEventLocked sends an event without blocking. A full channel drops
// the event rather than stalling a mutation.
// Must be called with lock held.
func (e *Engine) sendEventLocked(ev Event) {
	if e.closed {
		return
	}
	select {
	case e.eventCh <- ev:
	case <-e.ctx.Done():
	default:
	}
}

func copyItems(items []track.QueueItem) []track.QueueItem {
	out := make([]track.QueueItem, len(items))
	copy(out, items)
	return out
}
