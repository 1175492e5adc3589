package queuestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airwavefm/airwave/internal/app/player"
	"github.com/airwavefm/airwave/internal/domain/track"
)

func sampleItems() []track.QueueItem {
	addedAt := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return []track.QueueItem{
		{
			Track: track.Track{
				ID:            "3135556",
				Name:          "Harder, Better, Faster, Stronger",
				ArtistID:      "27",
				ArtistName:    "Daft Punk",
				AlbumID:       "302127",
				AlbumName:     "Discovery",
				AlbumImageURL: "https://cdn.example.com/cover/302127.jpg",
				Duration:      224 * time.Second,
				AudioURL:      "https://cdn.example.com/preview/3135556.mp3",
				Tags:          []string{"electronic", "house"},
			},
			AddedAt: addedAt,
		},
		{
			Track: track.Track{
				ID:       "916424",
				Name:     "One More Time",
				AudioURL: "https://cdn.example.com/preview/916424.mp3",
				Explicit: true,
			},
			AddedAt: addedAt.Add(time.Minute),
		},
	}
}

func TestMemory_QueueRoundTrip(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.SaveQueue(ctx, "user-1", sampleItems()))

	loaded, err := store.LoadQueue(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	want := sampleItems()
	for i := range want {
		assert.Equal(t, want[i].Track, loaded[i].Track)
		assert.True(t, want[i].AddedAt.Equal(loaded[i].AddedAt))
	}
}

func TestMemory_StateRoundTrip(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	state := player.State{
		CurrentTrackID: "916424",
		CurrentIndex:   1,
		Repeat:         true,
		AutoPlay:       true,
	}
	require.NoError(t, store.SaveState(ctx, "user-1", state))

	loaded, err := store.LoadState(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, state, loaded)
}

func TestMemory_LoadMissingNamespace(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	items, err := store.LoadQueue(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, items)

	state, err := store.LoadState(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, player.State{}, state)
}

func TestMemory_CorruptDataDegradesToEmpty(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	store.put("user-1", []byte("{not json"), []byte("also not json"))

	items, err := store.LoadQueue(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, items)

	state, err := store.LoadState(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, player.State{}, state)
}

func TestMemory_IncompatibleVersionDiscarded(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	store.put("user-1",
		[]byte(`{"version":99,"items":[{"track":{"id":"t1"}}]}`),
		[]byte(`{"version":99,"currentTrackId":"t1","currentIndex":3}`))

	items, err := store.LoadQueue(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, items)

	state, err := store.LoadState(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, player.State{}, state)
}

func TestMemory_SaveOverwritesSnapshot(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.SaveQueue(ctx, "user-1", sampleItems()))
	require.NoError(t, store.SaveQueue(ctx, "user-1", sampleItems()[:1]))

	loaded, err := store.LoadQueue(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, loaded, 1, "store holds exactly one snapshot per namespace")
}

func TestMemory_ClearIsNamespaceScoped(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.SaveQueue(ctx, "user-1", sampleItems()))
	require.NoError(t, store.SaveState(ctx, "user-1", player.State{CurrentTrackID: "3135556"}))
	require.NoError(t, store.SaveQueue(ctx, "user-2", sampleItems()[:1]))

	require.NoError(t, store.Clear(ctx, "user-1"))

	items, err := store.LoadQueue(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, items)

	state, err := store.LoadState(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, player.State{}, state)

	// The other namespace is untouched.
	other, err := store.LoadQueue(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestRedis_KeyNamespacing(t *testing.T) {
	s := &Redis{prefix: "airwave"}

	assert.Equal(t, "airwave:queue:user-1", s.queueKey("user-1"))
	assert.Equal(t, "airwave:state:user-1", s.stateKey("user-1"))
	assert.Equal(t, "airwave:queue:anonymous", s.queueKey("anonymous"))
}
