// Package deezer provides a client for the Deezer API.
package deezer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/airwavefm/airwave/internal/domain/track"
)

const defaultBaseURL = "https://api.deezer.com"

// searchCacheEntry represents a cached search result.
type searchCacheEntry struct {
	tracks []track.Track
}

// Client is a Deezer API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	retries    int

	// Cache for search results
	searchCache map[string]*searchCacheEntry
	cacheMu     sync.RWMutex
}

// Config represents Deezer client configuration.
type Config struct {
	BaseURL string // overrides the public API endpoint, mainly for tests
	Retries int    // attempts per request, including the first
}

// apiError represents an error envelope from the Deezer API.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// trackResponse represents a track object from the Deezer API.
type trackResponse struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	Duration       int    `json:"duration"`
	Preview        string `json:"preview"`
	ExplicitLyrics bool   `json:"explicit_lyrics"`
	Artist         struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"artist"`
	Album struct {
		ID       int64  `json:"id"`
		Title    string `json:"title"`
		CoverBig string `json:"cover_big"`
	} `json:"album"`
}

// listResponse represents a track list envelope from the Deezer API.
type listResponse struct {
	Data []trackResponse `json:"data"`
}

// New creates a new Deezer client.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = 3
	}

	return &Client{
		baseURL:     baseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		retries:     retries,
		searchCache: make(map[string]*searchCacheEntry),
	}
}

// Search searches the catalog for tracks matching the query.
// Reference: https://developers.deezer.com/api/search
func (c *Client) Search(ctx context.Context, query string, limit int) ([]track.Track, error) {
	if query == "" {
		return nil, errors.New("search query is required")
	}

	if limit <= 0 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}

	cacheKey := fmt.Sprintf("search:%s:%d", query, limit)
	c.cacheMu.RLock()
	if entry, ok := c.searchCache[cacheKey]; ok {
		c.cacheMu.RUnlock()
		zlog.Debug().Msgf("using cached search result: %s", query)
		return entry.tracks, nil
	}
	c.cacheMu.RUnlock()

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	body, err := c.get(ctx, "/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var response listResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	tracks := make([]track.Track, 0, len(response.Data))
	for _, t := range response.Data {
		tracks = append(tracks, toTrack(t))
	}

	c.cacheMu.Lock()
	c.searchCache[cacheKey] = &searchCacheEntry{tracks: tracks}
	c.cacheMu.Unlock()

	return tracks, nil
}

// TrackByID retrieves a single track.
// Reference: https://developers.deezer.com/api/track
func (c *Client) TrackByID(ctx context.Context, id string) (*track.Track, error) {
	if id == "" {
		return nil, errors.New("track id is required")
	}

	body, err := c.get(ctx, "/track/"+url.PathEscape(id))
	if err != nil {
		return nil, err
	}

	var response trackResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}
	if response.ID == 0 {
		return nil, errors.Newf("track %s not found", id)
	}

	t := toTrack(response)
	return &t, nil
}

// ChartTracks retrieves the global top tracks chart.
// Reference: https://developers.deezer.com/api/chart
func (c *Client) ChartTracks(ctx context.Context, limit int) ([]track.Track, error) {
	if limit <= 0 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}

	body, err := c.get(ctx, "/chart/0/tracks?limit="+strconv.Itoa(limit))
	if err != nil {
		return nil, err
	}

	var response listResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, errors.Wrap(err, "failed to parse response")
	}

	tracks := make([]track.Track, 0, len(response.Data))
	for _, t := range response.Data {
		tracks = append(tracks, toTrack(t))
	}
	return tracks, nil
}

// get performs a GET request with bounded retries on transient failures
// (network errors, 429 and 5xx responses) and checks the Deezer error
// envelope.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), "request cancelled")
			case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
			}
			zlog.Debug().Msgf("retrying deezer request: path=%s attempt=%d", path, attempt+1)
		}

		body, retryable, err := c.doGet(ctx, path)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, errors.Wrapf(lastErr, "deezer request failed after %d attempts", c.retries)
}

func (c *Client) doGet(ctx context.Context, path string) (body []byte, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, true, errors.Newf("deezer returned status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, errors.Newf("deezer returned status %d", resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, errors.Wrap(err, "failed to read response body")
	}

	// Deezer reports API errors with HTTP 200 and an error envelope.
	var envelope apiError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Code != 0 {
		retryable := envelope.Error.Code == 4 // quota exceeded
		return nil, retryable, errors.Newf("deezer API error %d: %s", envelope.Error.Code, envelope.Error.Message)
	}

	return body, false, nil
}

// toTrack maps a Deezer track object to the domain track.
func toTrack(t trackResponse) track.Track {
	return track.Track{
		ID:            strconv.FormatInt(t.ID, 10),
		Name:          t.Title,
		ArtistID:      strconv.FormatInt(t.Artist.ID, 10),
		ArtistName:    t.Artist.Name,
		AlbumID:       strconv.FormatInt(t.Album.ID, 10),
		AlbumName:     t.Album.Title,
		AlbumImageURL: t.Album.CoverBig,
		Duration:      time.Duration(t.Duration) * time.Second,
		AudioURL:      t.Preview,
		Explicit:      t.ExplicitLyrics,
	}
}
