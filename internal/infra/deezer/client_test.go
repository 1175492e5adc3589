package deezer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTrackJSON = `{
	"id": 3135556,
	"title": "Harder, Better, Faster, Stronger",
	"duration": 224,
	"preview": "https://cdn.example.com/preview/3135556.mp3",
	"explicit_lyrics": false,
	"artist": {"id": 27, "name": "Daft Punk"},
	"album": {"id": 302127, "title": "Discovery", "cover_big": "https://cdn.example.com/cover/302127.jpg"}
}`

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := New(Config{BaseURL: server.URL, Retries: 3})
	return client, server
}

func TestSearch(t *testing.T) {
	var hits atomic.Int32
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "daft punk", r.URL.Query().Get("q"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		fmt.Fprintf(w, `{"data":[%s],"total":1}`, sampleTrackJSON)
	})
	defer server.Close()

	tracks, err := client.Search(context.Background(), "daft punk", 10)
	require.NoError(t, err)
	require.Len(t, tracks, 1)

	got := tracks[0]
	assert.Equal(t, "3135556", got.ID)
	assert.Equal(t, "Harder, Better, Faster, Stronger", got.Name)
	assert.Equal(t, "27", got.ArtistID)
	assert.Equal(t, "Daft Punk", got.ArtistName)
	assert.Equal(t, "302127", got.AlbumID)
	assert.Equal(t, "Discovery", got.AlbumName)
	assert.Equal(t, "https://cdn.example.com/cover/302127.jpg", got.AlbumImageURL)
	assert.Equal(t, 224*time.Second, got.Duration)
	assert.Equal(t, "https://cdn.example.com/preview/3135556.mp3", got.AudioURL)
	assert.True(t, got.Playable())

	// Second identical search is served from cache.
	_, err = client.Search(context.Background(), "daft punk", 10)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestSearch_EmptyQuery(t *testing.T) {
	client := New(Config{BaseURL: "http://unused.invalid"})
	_, err := client.Search(context.Background(), "", 10)
	assert.Error(t, err)
}

func TestTrackByID(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/track/3135556", r.URL.Path)
		fmt.Fprint(w, sampleTrackJSON)
	})
	defer server.Close()

	got, err := client.TrackByID(context.Background(), "3135556")
	require.NoError(t, err)
	assert.Equal(t, "3135556", got.ID)
	assert.Equal(t, "Daft Punk", got.ArtistName)
}

func TestTrackByID_NotFound(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"type":"DataException","message":"no data","code":800}}`)
	})
	defer server.Close()

	_, err := client.TrackByID(context.Background(), "999999")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "800")
}

func TestChartTracks(t *testing.T) {
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chart/0/tracks", r.URL.Path)
		fmt.Fprintf(w, `{"data":[%s]}`, sampleTrackJSON)
	})
	defer server.Close()

	tracks, err := client.ChartTracks(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, tracks, 1)
}

func TestGet_RetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, sampleTrackJSON)
	})
	defer server.Close()

	got, err := client.TrackByID(context.Background(), "3135556")
	require.NoError(t, err)
	assert.Equal(t, "3135556", got.ID)
	assert.Equal(t, int32(3), hits.Load())
}

func TestGet_GivesUpAfterMaxAttempts(t *testing.T) {
	var hits atomic.Int32
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	defer server.Close()

	_, err := client.TrackByID(context.Background(), "3135556")
	require.Error(t, err)
	assert.Equal(t, int32(3), hits.Load())
}

func TestGet_DoesNotRetryClientErrors(t *testing.T) {
	var hits atomic.Int32
	client, server := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	_, err := client.TrackByID(context.Background(), "3135556")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}
