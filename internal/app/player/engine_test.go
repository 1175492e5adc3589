package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwavefm/airwave/internal/domain/track"
)

// reverseShuffler is a deterministic Shuffler for tests.
type reverseShuffler struct{}

func (reverseShuffler) Shuffle(items []track.QueueItem) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}

// memStore is an in-memory Store fake recording saves per namespace.
type memStore struct {
	queues map[string][]track.QueueItem
	states map[string]State
}

func newMemStore() *memStore {
	return &memStore{
		queues: make(map[string][]track.QueueItem),
		states: make(map[string]State),
	}
}

func (s *memStore) SaveQueue(_ context.Context, ns string, items []track.QueueItem) error {
	s.queues[ns] = items
	return nil
}

func (s *memStore) LoadQueue(_ context.Context, ns string) ([]track.QueueItem, error) {
	return s.queues[ns], nil
}

func (s *memStore) SaveState(_ context.Context, ns string, state State) error {
	s.states[ns] = state
	return nil
}

func (s *memStore) LoadState(_ context.Context, ns string) (State, error) {
	return s.states[ns], nil
}

func (s *memStore) Clear(_ context.Context, ns string) error {
	delete(s.queues, ns)
	delete(s.states, ns)
	return nil
}

func mkTrack(id string) track.Track {
	return track.Track{
		ID:         id,
		Name:       "Track " + id,
		ArtistName: "Artist",
		AudioURL:   "https://cdn.example.com/" + id + ".mp3",
		Duration:   3 * time.Minute,
	}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := NewEngine(Config{Namespace: "test"})
	t.Cleanup(e.Close)
	return e
}

func queueIDs(e *Engine) []string {
	items := e.Queue()
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.Track.ID
	}
	return ids
}

// checkInvariants asserts the structural invariants that must hold in
// every reachable state: current is nil iff the queue is empty, the
// current index addresses the current track, and track IDs are unique.
func checkInvariants(t *testing.T, e *Engine) {
	t.Helper()

	current, ok := e.CurrentTrack()
	if e.Len() == 0 {
		assert.False(t, ok, "empty queue must have no current track")
		assert.Nil(t, current)
	} else {
		require.True(t, ok, "non-empty queue must have a current track")
		items := e.Queue()
		idx := e.CurrentIndex()
		require.Less(t, idx, len(items))
		assert.Equal(t, items[idx].Track.ID, current.ID)
	}

	seen := make(map[string]bool)
	for _, id := range queueIDs(e) {
		assert.False(t, seen[id], "duplicate track id %s in queue", id)
		seen[id] = true
	}
}

func TestEngine_PlayTrack_InsertsAtFront(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.PlayTrack(mkTrack("a")))
	require.NoError(t, e.AddToQueue(mkTrack("b")))
	require.NoError(t, e.PlayTrack(mkTrack("c")))

	assert.Equal(t, []string{"c", "a", "b"}, queueIDs(e))
	current, ok := e.CurrentTrack()
	require.True(t, ok)
	assert.Equal(t, "c", current.ID)
	assert.Equal(t, 0, e.CurrentIndex())
	checkInvariants(t, e)
}

func TestEngine_PlayTrack_ExistingTrackBecomesCurrent(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.PlayTrack(mkTrack("a")))
	require.NoError(t, e.AddToQueue(mkTrack("b")))
	require.NoError(t, e.AddToQueue(mkTrack("c")))

	// Playing an already-queued track must not insert a duplicate.
	require.NoError(t, e.PlayTrack(mkTrack("b")))

	assert.Equal(t, []string{"a", "b", "c"}, queueIDs(e))
	assert.Equal(t, 1, e.CurrentIndex())
	current, _ := e.CurrentTrack()
	assert.Equal(t, "b", current.ID)
	checkInvariants(t, e)
}

func TestEngine_PlayTrack_NotPlayable(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.PlayTrack(mkTrack("a")))

	unplayable := mkTrack("x")
	unplayable.AudioURL = "  "

	err := e.PlayTrack(unplayable)
	assert.ErrorIs(t, err, ErrNotPlayable)

	// No state change on failure.
	assert.Equal(t, []string{"a"}, queueIDs(e))
	current, _ := e.CurrentTrack()
	assert.Equal(t, "a", current.ID)
	checkInvariants(t, e)
}

func TestEngine_PlayFromContext_FiltersUnplayable(t *testing.T) {
	e := newTestEngine(t)

	d := mkTrack("d")
	d.AudioURL = ""
	ctx := []track.Track{mkTrack("a"), mkTrack("b"), mkTrack("c"), d}

	require.NoError(t, e.PlayFromContext(mkTrack("c"), ctx, 2))

	assert.Equal(t, []string{"a", "b", "c"}, queueIDs(e))
	assert.Equal(t, 2, e.CurrentIndex())
	current, _ := e.CurrentTrack()
	assert.Equal(t, "c", current.ID)
	checkInvariants(t, e)
}

func TestEngine_PlayFromContext_StartTrackFilteredOut(t *testing.T) {
	e := newTestEngine(t)

	b := mkTrack("b")
	b.AudioURL = ""
	ctx := []track.Track{mkTrack("a"), b, mkTrack("c")}

	// The start track itself is playable but absent from the filtered
	// list; position falls back to 0.
	start := mkTrack("x")
	require.NoError(t, e.PlayFromContext(start, ctx, 1))

	assert.Equal(t, []string{"a", "c"}, queueIDs(e))
	assert.Equal(t, 0, e.CurrentIndex())
	checkInvariants(t, e)
}

func TestEngine_PlayFromContext_NoPlayableTracks(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.PlayTrack(mkTrack("a")))

	empty1 := mkTrack("x")
	empty1.AudioURL = ""
	empty2 := mkTrack("y")
	empty2.AudioURL = "\t"

	err := e.PlayFromContext(mkTrack("z"), []track.Track{empty1, empty2}, 0)
	assert.ErrorIs(t, err, ErrNoPlayableTracks)

	// Existing queue untouched.
	assert.Equal(t, []string{"a"}, queueIDs(e))
	checkInvariants(t, e)
}

func TestEngine_PlayFromContext_NotPlayableStartTrack(t *testing.T) {
	e := newTestEngine(t)

	start := mkTrack("a")
	start.AudioURL = ""

	err := e.PlayFromContext(start, []track.Track{mkTrack("b")}, 0)
	assert.ErrorIs(t, err, ErrNotPlayable)
	assert.Equal(t, 0, e.Len())
}

func TestEngine_AddToQueue_Idempotent(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.AddToQueue(mkTrack("a")))

	err := e.AddToQueue(mkTrack("a"))
	assert.ErrorIs(t, err, ErrAlreadyQueued)
	assert.Equal(t, []string{"a"}, queueIDs(e))
}

func TestEngine_AddToQueue_DoesNotChangeCurrent(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.PlayTrack(mkTrack("a")))
	require.NoError(t, e.AddToQueue(mkTrack("b")))

	current, _ := e.CurrentTrack()
	assert.Equal(t, "a", current.ID)
	assert.Equal(t, 0, e.CurrentIndex())
	assert.Equal(t, []string{"a", "b"}, queueIDs(e))
}

func TestEngine_RemoveFromQueue_CurrentSelectsFollower(t *testing.T) {
	e := newTestEngine(t)

	// Queue [a,b,c] with current b.
	require.NoError(t, e.PlayTrack(mkTrack("a")))
	require.NoError(t, e.AddToQueue(mkTrack("b")))
	require.NoError(t, e.AddToQueue(mkTrack("c")))
	require.True(t, e.NextTrack())

	e.RemoveFromQueue("b")

	current, _ := e.CurrentTrack()
	assert.Equal(t, "c", current.ID)
	assert.Equal(t, []string{"a", "c"}, queueIDs(e))
	checkInvariants(t, e)
}

func TestEngine_RemoveFromQueue_CurrentAtTailSelectsPrevious(t *testing.T) {
	e := newTestEngine(t)

	// Queue [a,b] with current b.
	require.NoError(t, e.PlayTrack(mkTrack("a")))
	require.NoError(t, e.AddToQueue(mkTrack("b")))
	require.True(t, e.NextTrack())

	e.RemoveFromQueue("b")

	current, _ := e.CurrentTrack()
	assert.Equal(t, "a", current.ID)
	checkInvariants(t, e)
}

func TestEngine_RemoveFromQueue_BeforeCurrentShiftsIndex(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.PlayTrack(mkTrack("a")))
	require.NoError(t, e.AddToQueue(mkTrack("b")))
	require.NoError(t, e.AddToQueue(mkTrack("c")))
	require.True(t, e.NextTrack()) // current b at index 1

	e.RemoveFromQueue("a")

	current, _ := e.CurrentTrack()
	assert.Equal(t, "b", current.ID)
	assert.Equal(t, 0, e.CurrentIndex())
	checkInvariants(t, e)
}

func TestEngine_RemoveFromQueue_AfterCurrentKeepsIndex(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.PlayTrack(mkTrack("a")))
	require.NoError(t, e.AddToQueue(mkTrack("b")))

	e.RemoveFromQueue("b")

	current, _ := e.CurrentTrack()
	assert.Equal(t, "a", current.ID)
	assert.Equal(t, 0, e.CurrentIndex())
	checkInvariants(t, e)
}

func TestEngine_RemoveFromQueue_LastTrackEmptiesQueue(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.PlayTrack(mkTrack("a")))

	e.RemoveFromQueue("a")

	assert.Equal(t, 0, e.Len())
	_, ok := e.CurrentTrack()
	assert.False(t, ok)
	checkInvariants(t, e)
}

func TestEngine_RemoveFromQueue_UnknownIDIsNoop(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, e.PlayTrack(mkTrack("a")))

	e.RemoveFromQueue("nope")

	assert.Equal(t, []string{"a"}, queueIDs(e))
}

func TestEngine_SelectTrack(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.PlayTrack(mkTrack("a")))
	require.NoError(t, e.AddToQueue(mkTrack("b")))
	require.NoError(t, e.AddToQueue(mkTrack("c")))

	e.SelectTrack("c")

	current, _ := e.CurrentTrack()
	assert.Equal(t, "c", current.ID)
	assert.Equal(t, 2, e.CurrentIndex())

	// Stale reference is silently ignored.
	e.SelectTrack("gone")
	current, _ = e.CurrentTrack()
	assert.Equal(t, "c", current.ID)
}

func TestEngine_NextTrack_EndOfQueueWithoutRepeat(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.PlayTrack(mkTrack("a")))
	require.NoError(t, e.AddToQueue(mkTrack("b")))
	require.NoError(t, e.AddToQueue(mkTrack("c")))
	e.SelectTrack("c")

	assert.False(t, e.NextTrack())

	current, _ := e.CurrentTrack()
	assert.Equal(t, "c", current.ID, "must not wrap without repeat")
}

func TestEngine_NextTrack_EndOfQueueWithRepeat(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.PlayTrack(mkTrack("a")))
	require.NoError(t, e.AddToQueue(mkTrack("b")))
	require.NoError(t, e.AddToQueue(mkTrack("c")))
	e.SelectTrack("c")
	e.ToggleRepeat()

	assert.True(t, e.NextTrack())

	current, _ := e.CurrentTrack()
	assert.Equal(t, "a", current.ID, "repeat wraps to the first track")
}

func TestEngine_NextTrack_EmptyQueue(t *testing.T) {
	e := newTestEngine(t)
	assert.False(t, e.NextTrack())
	checkInvariants(t, e)
}

func TestEngine_PrevTrack(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.PlayTrack(mkTrack("a")))
	require.NoError(t, e.AddToQueue(mkTrack("b")))
	require.True(t, e.NextTrack())

	assert.True(t, e.PrevTrack())
	current, _ := e.CurrentTrack()
	assert.Equal(t, "a", current.ID)

	// At the start without repeat: stay put, no wrap.
	assert.False(t, e.PrevTrack())
	current, _ = e.CurrentTrack()
	assert.Equal(t, "a", current.ID)
}

func TestEngine_PrevTrack_WrapsWithRepeat(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.PlayTrack(mkTrack("a")))
	require.NoError(t, e.AddToQueue(mkTrack("b")))
	require.NoError(t, e.AddToQueue(mkTrack("c")))
	e.ToggleRepeat()

	assert.True(t, e.PrevTrack())
	current, _ := e.CurrentTrack()
	assert.Equal(t, "c", current.ID)
}

func TestEngine_ToggleShuffle_RestoresOriginalOrder(t *testing.T) {
	e := NewEngine(Config{Namespace: "test", Shuffler: reverseShuffler{}})
	defer e.Close()

	require.NoError(t, e.PlayTrack(mkTrack("a")))
	require.NoError(t, e.AddToQueue(mkTrack("b")))
	require.NoError(t, e.AddToQueue(mkTrack("c")))
	require.NoError(t, e.AddToQueue(mkTrack("d")))
	require.True(t, e.NextTrack()) // current b

	assert.True(t, e.ToggleShuffle())

	// Current track moves to the front, the rest is permuted.
	assert.Equal(t, []string{"b", "d", "c", "a"}, queueIDs(e))
	assert.Equal(t, 0, e.CurrentIndex())
	current, _ := e.CurrentTrack()
	assert.Equal(t, "b", current.ID)
	checkInvariants(t, e)

	assert.False(t, e.ToggleShuffle())

	// Exact pre-shuffle order restored, current still b.
	assert.Equal(t, []string{"a", "b", "c", "d"}, queueIDs(e))
	assert.Equal(t, 1, e.CurrentIndex())
	current, _ = e.CurrentTrack()
	assert.Equal(t, "b", current.ID)
	checkInvariants(t, e)
}

func TestEngine_ToggleShuffle_EmptyQueue(t *testing.T) {
	e := newTestEngine(t)

	assert.True(t, e.ToggleShuffle())
	assert.False(t, e.ToggleShuffle())
	checkInvariants(t, e)
}

func TestEngine_ToggleRepeatAndAutoPlay(t *testing.T) {
	e := newTestEngine(t)

	assert.True(t, e.ToggleRepeat())
	assert.False(t, e.ToggleRepeat())
	assert.True(t, e.ToggleAutoPlay())
	assert.False(t, e.ToggleAutoPlay())
}

func TestEngine_ClearQueue(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.PlayTrack(mkTrack("a")))
	require.NoError(t, e.AddToQueue(mkTrack("b")))
	e.ToggleRepeat()
	e.ToggleShuffle()

	e.ClearQueue()

	assert.Equal(t, 0, e.Len())
	_, ok := e.CurrentTrack()
	assert.False(t, ok)

	state := e.State()
	assert.False(t, state.Repeat)
	assert.False(t, state.Shuffle)
	checkInvariants(t, e)
}

func TestEngine_Events(t *testing.T) {
	e := newTestEngine(t)

	require.NoError(t, e.PlayTrack(mkTrack("a")))

	select {
	case ev := <-e.Events():
		assert.Equal(t, EventTrackStarted, ev.Type)
		require.NotNil(t, ev.Track)
		assert.Equal(t, "a", ev.Track.ID)
		assert.Equal(t, 1, ev.QueueLen)
	default:
		t.Fatal("expected a track_started event")
	}

	require.NoError(t, e.AddToQueue(mkTrack("b")))

	select {
	case ev := <-e.Events():
		assert.Equal(t, EventTrackQueued, ev.Type)
	default:
		t.Fatal("expected a track_queued event")
	}
}

func TestEngine_PersistsAfterMutation(t *testing.T) {
	store := newMemStore()
	e := NewEngine(Config{Namespace: "user-1", Store: store})
	defer e.Close()

	require.NoError(t, e.PlayTrack(mkTrack("a")))
	require.NoError(t, e.AddToQueue(mkTrack("b")))

	require.Eventually(t, func() bool {
		return len(store.queues["user-1"]) == 2
	}, time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return store.states["user-1"].CurrentTrackID == "a"
	}, time.Second, 5*time.Millisecond)
}

func TestEngine_ClearQueueErasesStore(t *testing.T) {
	store := newMemStore()
	store.queues["user-1"] = []track.QueueItem{{Track: mkTrack("a")}}
	store.states["user-1"] = State{CurrentTrackID: "a"}

	e := NewEngine(Config{Namespace: "user-1", Store: store})
	defer e.Close()

	e.ClearQueue()

	require.Eventually(t, func() bool {
		_, ok := store.queues["user-1"]
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestEngine_Restore_ResolvesCurrentByID(t *testing.T) {
	store := newMemStore()
	store.queues["user-1"] = []track.QueueItem{
		{Track: mkTrack("a")},
		{Track: mkTrack("b")},
		{Track: mkTrack("c")},
	}
	// Stored index disagrees with the stored track ID: the two records
	// are written independently. The ID wins.
	store.states["user-1"] = State{CurrentTrackID: "c", CurrentIndex: 0, Repeat: true}

	e := NewEngine(Config{Namespace: "user-1", Store: store})
	defer e.Close()
	require.NoError(t, e.Restore(context.Background()))

	current, ok := e.CurrentTrack()
	require.True(t, ok)
	assert.Equal(t, "c", current.ID)
	assert.Equal(t, 2, e.CurrentIndex())
	assert.True(t, e.State().Repeat)
	checkInvariants(t, e)
}

func TestEngine_Restore_UnknownCurrentFallsBackToFirst(t *testing.T) {
	store := newMemStore()
	store.queues["user-1"] = []track.QueueItem{
		{Track: mkTrack("a")},
		{Track: mkTrack("b")},
	}
	store.states["user-1"] = State{CurrentTrackID: "gone", CurrentIndex: 7}

	e := NewEngine(Config{Namespace: "user-1", Store: store})
	defer e.Close()
	require.NoError(t, e.Restore(context.Background()))

	current, ok := e.CurrentTrack()
	require.True(t, ok)
	assert.Equal(t, "a", current.ID)
	assert.Equal(t, 0, e.CurrentIndex())
	checkInvariants(t, e)
}

func TestEngine_Restore_EmptyStore(t *testing.T) {
	e := NewEngine(Config{Namespace: "user-1", Store: newMemStore()})
	defer e.Close()
	require.NoError(t, e.Restore(context.Background()))

	assert.Equal(t, 0, e.Len())
	_, ok := e.CurrentTrack()
	assert.False(t, ok)
	checkInvariants(t, e)
}
