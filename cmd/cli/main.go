// Package main provides a command-line client for the airwave server,
// mainly for manual testing.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
)

var (
	app    = kingpin.New("airwave-cli", "airwave client for testing")
	server = app.Flag("server", "Server address").Default("http://localhost:8080").String()
	token  = app.Flag("token", "Bearer token (default: ANONYMOUS)").Envar("AIRWAVE_TOKEN").String()

	// login command
	loginCmd    = app.Command("login", "Issue a token for a user")
	loginUserID = loginCmd.Arg("user-id", "User ID").Required().String()

	// search command
	searchCmd   = app.Command("search", "Search the catalog")
	searchQuery = searchCmd.Arg("query", "Search query").Required().String()
	searchLimit = searchCmd.Flag("limit", "Max results").Default("10").Int()

	// play command
	playCmd     = app.Command("play", "Play a track by catalog ID")
	playTrackID = playCmd.Arg("track-id", "Track ID").Required().String()

	// queue command
	queueCmd     = app.Command("queue", "Add a track to the queue")
	queueTrackID = queueCmd.Arg("track-id", "Track ID").Required().String()

	// state command
	stateCmd = app.Command("state", "Show the player state")

	// next / prev commands
	nextCmd = app.Command("next", "Skip to the next track")
	prevCmd = app.Command("prev", "Go back to the previous track")
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	c := &client{
		base:  *server,
		token: *token,
		http:  &http.Client{Timeout: 15 * time.Second},
	}

	switch command {
	case loginCmd.FullCommand():
		login(c, *loginUserID)
	case searchCmd.FullCommand():
		search(c, *searchQuery, *searchLimit)
	case playCmd.FullCommand():
		play(c, *playTrackID)
	case queueCmd.FullCommand():
		queueTrack(c, *queueTrackID)
	case stateCmd.FullCommand():
		showState(c)
	case nextCmd.FullCommand():
		advance(c, "/v1/player/next")
	case prevCmd.FullCommand():
		advance(c, "/v1/player/previous")
	}
}

type client struct {
	base  string
	token string
	http  *http.Client
}

func (c *client) do(method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.base+path, reqBody)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if out != nil {
		return json.Unmarshal(data, out)
	}
	return nil
}

type trackInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ArtistName  string `json:"artistName"`
	AlbumName   string `json:"albumName"`
	DurationSec int64  `json:"durationSec"`
	AudioURL    string `json:"audioUrl"`
}

type playerState struct {
	Current      *trackInfo `json:"current"`
	CurrentIndex int        `json:"currentIndex"`
	Queue        []struct {
		Track trackInfo `json:"track"`
	} `json:"queue"`
	Repeat   bool `json:"isRepeatMode"`
	Shuffle  bool `json:"isShuffleMode"`
	AutoPlay bool `json:"autoPlayEnabled"`
}

func login(c *client, userID string) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(http.MethodPost, "/v1/auth/token", map[string]string{"userId": userID}, &resp); err != nil {
		fail(err)
	}
	fmt.Printf("Token: %s\n", resp.Token)
	fmt.Println("Export it with: export AIRWAVE_TOKEN=<token>")
}

func search(c *client, query string, limit int) {
	var resp struct {
		Tracks []trackInfo `json:"tracks"`
	}
	path := fmt.Sprintf("/v1/catalog/search?q=%s&limit=%d", url.QueryEscape(query), limit)
	if err := c.do(http.MethodGet, path, nil, &resp); err != nil {
		fail(err)
	}
	for _, t := range resp.Tracks {
		fmt.Printf("%-12s %s - %s (%ds)\n", t.ID, t.ArtistName, t.Name, t.DurationSec)
	}
}

func play(c *client, trackID string) {
	var resolved trackInfo
	if err := c.do(http.MethodGet, "/v1/catalog/tracks/"+trackID, nil, &resolved); err != nil {
		fail(err)
	}

	var state playerState
	body := map[string]any{"track": resolved}
	if err := c.do(http.MethodPost, "/v1/player/play", body, &state); err != nil {
		fail(err)
	}
	fmt.Printf("Now playing: %s - %s\n", resolved.ArtistName, resolved.Name)
}

func queueTrack(c *client, trackID string) {
	var resolved trackInfo
	if err := c.do(http.MethodGet, "/v1/catalog/tracks/"+trackID, nil, &resolved); err != nil {
		fail(err)
	}

	var state playerState
	body := map[string]any{"track": resolved}
	if err := c.do(http.MethodPost, "/v1/player/queue", body, &state); err != nil {
		fail(err)
	}
	fmt.Printf("Queued: %s - %s (queue length: %d)\n", resolved.ArtistName, resolved.Name, len(state.Queue))
}

func showState(c *client) {
	var state playerState
	if err := c.do(http.MethodGet, "/v1/player", nil, &state); err != nil {
		fail(err)
	}

	if state.Current == nil {
		fmt.Println("Nothing playing.")
		return
	}
	fmt.Printf("Current: %s - %s\n", state.Current.ArtistName, state.Current.Name)
	fmt.Printf("Modes: repeat=%v shuffle=%v autoplay=%v\n", state.Repeat, state.Shuffle, state.AutoPlay)
	fmt.Println("Queue:")
	for i, item := range state.Queue {
		marker := "  "
		if i == state.CurrentIndex {
			marker = "> "
		}
		fmt.Printf("%s%2d. %s - %s\n", marker, i+1, item.Track.ArtistName, item.Track.Name)
	}
}

func advance(c *client, path string) {
	var resp struct {
		Advanced bool `json:"advanced"`
	}
	if err := c.do(http.MethodPost, path, nil, &resp); err != nil {
		fail(err)
	}
	if !resp.Advanced {
		fmt.Println("Queue boundary reached, nothing changed.")
		return
	}
	showState(c)
}

func fail(err error) {
	fmt.Printf("Error: %v\n", err)
	os.Exit(1)
}
