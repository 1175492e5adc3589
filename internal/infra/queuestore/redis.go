// Package queuestore persists the playback queue and player state per
// user namespace. Each namespace holds exactly one queue record and one
// state record, overwritten on every save; loads are fail-soft and
// treat missing or corrupt payloads as absence.
package queuestore

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	zlog "github.com/rs/zerolog/log"

	"github.com/airwavefm/airwave/internal/app/player"
	"github.com/airwavefm/airwave/internal/domain/track"
)

// RedisConfig holds Redis store configuration.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// Redis is a player.Store backed by a Redis server.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis connects to Redis and verifies the connection.
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to redis")
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "airwave"
	}

	return &Redis{client: client, prefix: prefix}, nil
}

// Close closes the underlying Redis connection.
func (s *Redis) Close() error {
	return s.client.Close()
}

func (s *Redis) queueKey(namespace string) string {
	return fmt.Sprintf("%s:queue:%s", s.prefix, namespace)
}

func (s *Redis) stateKey(namespace string) string {
	return fmt.Sprintf("%s:state:%s", s.prefix, namespace)
}

// SaveQueue overwrites the namespace's queue snapshot.
func (s *Redis) SaveQueue(ctx context.Context, namespace string, items []track.QueueItem) error {
	data, err := encodeQueue(items)
	if err != nil {
		return errors.Wrap(err, "failed to encode queue record")
	}
	if err := s.client.Set(ctx, s.queueKey(namespace), data, 0).Err(); err != nil {
		return errors.Wrapf(err, "failed to save queue for namespace %s", namespace)
	}
	return nil
}

// LoadQueue returns the stored queue, or an empty queue when nothing is
// stored or the payload cannot be parsed.
func (s *Redis) LoadQueue(ctx context.Context, namespace string) ([]track.QueueItem, error) {
	data, err := s.client.Get(ctx, s.queueKey(namespace)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []track.QueueItem{}, nil
		}
		return nil, errors.Wrapf(err, "failed to load queue for namespace %s", namespace)
	}

	items, ok := decodeQueue(data)
	if !ok {
		zlog.Warn().Msgf("queuestore: discarding corrupt queue record: namespace=%s", namespace)
		return []track.QueueItem{}, nil
	}
	return items, nil
}

// SaveState overwrites the namespace's player state snapshot.
func (s *Redis) SaveState(ctx context.Context, namespace string, state player.State) error {
	data, err := encodeState(state)
	if err != nil {
		return errors.Wrap(err, "failed to encode state record")
	}
	if err := s.client.Set(ctx, s.stateKey(namespace), data, 0).Err(); err != nil {
		return errors.Wrapf(err, "failed to save state for namespace %s", namespace)
	}
	return nil
}

// LoadState returns the stored player state, or the all-defaults state
// when nothing is stored or the payload cannot be parsed.
func (s *Redis) LoadState(ctx context.Context, namespace string) (player.State, error) {
	data, err := s.client.Get(ctx, s.stateKey(namespace)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return player.State{}, nil
		}
		return player.State{}, errors.Wrapf(err, "failed to load state for namespace %s", namespace)
	}

	state, ok := decodeState(data)
	if !ok {
		zlog.Warn().Msgf("queuestore: discarding corrupt state record: namespace=%s", namespace)
		return player.State{}, nil
	}
	return state, nil
}

// Clear erases both records for the namespace. Used on sign-out so one
// user's queue never leaks into another session.
func (s *Redis) Clear(ctx context.Context, namespace string) error {
	if err := s.client.Del(ctx, s.queueKey(namespace), s.stateKey(namespace)).Err(); err != nil {
		return errors.Wrapf(err, "failed to clear namespace %s", namespace)
	}
	return nil
}
