package player

import (
	"crypto/rand"
	"math/big"

	"github.com/airwavefm/airwave/internal/domain/track"
)

// Shuffler permutes queue items in place. Implementations choose the
// random source, so tests can swap in a deterministic permutation.
type Shuffler interface {
	Shuffle(items []track.QueueItem)
}

// CryptoShuffler is a Fisher-Yates shuffle driven by crypto/rand.
type CryptoShuffler struct{}

// Shuffle permutes items in place.
func (CryptoShuffler) Shuffle(items []track.QueueItem) {
	for i := len(items) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			// A failed read leaves the element in place rather than
			// falling back to a predictable source.
			continue
		}
		j := int(n.Int64())
		items[i], items[j] = items[j], items[i]
	}
}
