package player

import (
	"context"

	"github.com/airwavefm/airwave/internal/domain/track"
)

// State is the persistable slice of engine state. It is stored
// independently from the queue record, so a loaded CurrentIndex may
// disagree with the loaded queue and must be re-resolved by track ID.
type State struct {
	CurrentTrackID string
	CurrentIndex   int
	Repeat         bool
	Shuffle        bool
	AutoPlay       bool
}

// Store durably saves and restores the queue and player state, keyed by
// a per-user namespace. Implementations are best-effort: loads degrade
// to empty/default on missing or corrupt data and never fail hard on it.
type Store interface {
	SaveQueue(ctx context.Context, namespace string, items []track.QueueItem) error
	LoadQueue(ctx context.Context, namespace string) ([]track.QueueItem, error)
	SaveState(ctx context.Context, namespace string, state State) error
	LoadState(ctx context.Context, namespace string) (State, error)
	Clear(ctx context.Context, namespace string) error
}
