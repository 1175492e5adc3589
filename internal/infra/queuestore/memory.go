package queuestore

import (
	"context"
	"sync"

	zlog "github.com/rs/zerolog/log"

	"github.com/airwavefm/airwave/internal/app/player"
	"github.com/airwavefm/airwave/internal/domain/track"
)

// Memory is an in-process player.Store used for tests and deployments
// without Redis. It round-trips through the same encoded records as the
// Redis store so both backends share one serialization contract.
type Memory struct {
	mu     sync.RWMutex
	queues map[string][]byte
	states map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		queues: make(map[string][]byte),
		states: make(map[string][]byte),
	}
}

// SaveQueue overwrites the namespace's queue snapshot.
func (s *Memory) SaveQueue(_ context.Context, namespace string, items []track.QueueItem) error {
	data, err := encodeQueue(items)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[namespace] = data
	return nil
}

// LoadQueue returns the stored queue, or an empty queue when nothing is
// stored or the payload cannot be parsed.
func (s *Memory) LoadQueue(_ context.Context, namespace string) ([]track.QueueItem, error) {
	s.mu.RLock()
	data, ok := s.queues[namespace]
	s.mu.RUnlock()
	if !ok {
		return []track.QueueItem{}, nil
	}

	items, decoded := decodeQueue(data)
	if !decoded {
		zlog.Warn().Msgf("queuestore: discarding corrupt queue record: namespace=%s", namespace)
		return []track.QueueItem{}, nil
	}
	return items, nil
}

// SaveState overwrites the namespace's player state snapshot.
func (s *Memory) SaveState(_ context.Context, namespace string, state player.State) error {
	data, err := encodeState(state)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[namespace] = data
	return nil
}

// LoadState returns the stored player state, or the all-defaults state
// when nothing is stored or the payload cannot be parsed.
func (s *Memory) LoadState(_ context.Context, namespace string) (player.State, error) {
	s.mu.RLock()
	data, ok := s.states[namespace]
	s.mu.RUnlock()
	if !ok {
		return player.State{}, nil
	}

	state, decoded := decodeState(data)
	if !decoded {
		zlog.Warn().Msgf("queuestore: discarding corrupt state record: namespace=%s", namespace)
		return player.State{}, nil
	}
	return state, nil
}

// Clear erases both records for the namespace.
func (s *Memory) Clear(_ context.Context, namespace string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queues, namespace)
	delete(s.states, namespace)
	return nil
}

// put injects a raw payload for a namespace. Test hook for corrupt-data
// scenarios.
func (s *Memory) put(namespace string, queueData, stateData []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if queueData != nil {
		s.queues[namespace] = queueData
	}
	if stateData != nil {
		s.states[namespace] = stateData
	}
}
