// Package library persists user playlists in SQLite. Tracks are stored
// as JSON rows ordered by position, so a playlist round-trips exactly
// as it was saved.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/airwavefm/airwave/internal/domain/playlist"
	"github.com/airwavefm/airwave/internal/domain/track"
)

// ErrNotFound is returned when a playlist does not exist or belongs to
// another user.
var ErrNotFound = errors.New("playlist not found")

// Store manages playlist persistence backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open initializes or connects to the library database and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open sqlite db")
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, errors.Wrapf(execErr, "failed to apply pragma %q", pragma)
		}
	}

	store := &Store{db: db}
	if err := store.applySchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) applySchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS playlists (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			name       TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_playlists_user ON playlists (user_id)`,
		`CREATE TABLE IF NOT EXISTS playlist_tracks (
			playlist_id TEXT NOT NULL REFERENCES playlists (id) ON DELETE CASCADE,
			position    INTEGER NOT NULL,
			track_json  TEXT NOT NULL,
			PRIMARY KEY (playlist_id, position)
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "failed to apply schema")
		}
	}
	return nil
}

// Create inserts a new playlist owned by the given user.
func (s *Store) Create(ctx context.Context, userID, name string, tracks []track.Track) (*playlist.Playlist, error) {
	if name == "" {
		return nil, errors.New("playlist name is required")
	}

	now := time.Now().UTC()
	p := &playlist.Playlist{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		Tracks:    tracks,
		CreatedAt: now,
		UpdatedAt: now,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	timestamp := now.Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO playlists (id, user_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		p.ID, userID, name, timestamp, timestamp,
	); err != nil {
		return nil, errors.Wrap(err, "failed to insert playlist")
	}
	if err := insertTracks(ctx, tx, p.ID, tracks); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}
	return p, nil
}

// Get fetches a playlist with its tracks.
func (s *Store) Get(ctx context.Context, userID, id string) (*playlist.Playlist, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, created_at, updated_at FROM playlists WHERE id = ? AND user_id = ?`,
		id, userID,
	)

	p, err := scanPlaylist(row)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT track_json FROM playlist_tracks WHERE playlist_id = ? ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query playlist tracks")
	}
	defer rows.Close()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, errors.Wrap(err, "failed to scan track row")
		}
		var t track.Track
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return nil, errors.Wrap(err, "failed to decode track row")
		}
		p.Tracks = append(p.Tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate track rows")
	}
	return p, nil
}

// List returns the user's playlists, newest first, without tracks.
func (s *Store) List(ctx context.Context, userID string) ([]playlist.Playlist, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, created_at, updated_at FROM playlists
		 WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query playlists")
	}
	defer rows.Close()

	playlists := make([]playlist.Playlist, 0)
	for rows.Next() {
		p, err := scanPlaylist(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate playlist rows")
	}
	return playlists, nil
}

// Rename changes the playlist name.
func (s *Store) Rename(ctx context.Context, userID, id, name string) error {
	if name == "" {
		return errors.New("playlist name is required")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE playlists SET name = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		name, time.Now().UTC().Format(time.RFC3339Nano), id, userID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to rename playlist")
	}
	return requireRowAffected(res)
}

// ReplaceTracks overwrites the playlist's track list.
func (s *Store) ReplaceTracks(ctx context.Context, userID, id string, tracks []track.Track) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE playlists SET updated_at = ? WHERE id = ? AND user_id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano), id, userID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update playlist")
	}
	if err := requireRowAffected(res); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM playlist_tracks WHERE playlist_id = ?`, id); err != nil {
		return errors.Wrap(err, "failed to clear playlist tracks")
	}
	if err := insertTracks(ctx, tx, id, tracks); err != nil {
		return err
	}

	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}

// AppendTracks adds tracks to the end of the playlist.
func (s *Store) AppendTracks(ctx context.Context, userID, id string, tracks []track.Track) error {
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.ReplaceTracks(ctx, userID, id, append(current.Tracks, tracks...))
}

// Delete removes the playlist and its tracks.
func (s *Store) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM playlists WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to delete playlist")
	}
	return requireRowAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlaylist(row rowScanner) (*playlist.Playlist, error) {
	var p playlist.Playlist
	var createdAt, updatedAt string
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "failed to scan playlist row")
	}

	var err error
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, errors.Wrap(err, "failed to parse created_at")
	}
	if p.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, errors.Wrap(err, "failed to parse updated_at")
	}
	return &p, nil
}

func insertTracks(ctx context.Context, tx *sql.Tx, playlistID string, tracks []track.Track) error {
	for i, t := range tracks {
		data, err := json.Marshal(t)
		if err != nil {
			return errors.Wrap(err, "failed to encode track")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO playlist_tracks (playlist_id, position, track_json) VALUES (?, ?, ?)`,
			playlistID, i, string(data),
		); err != nil {
			return errors.Wrap(err, "failed to insert track row")
		}
	}
	return nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
