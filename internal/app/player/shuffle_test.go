package player

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/airwavefm/airwave/internal/domain/track"
)

func TestCryptoShuffler_PreservesItems(t *testing.T) {
	items := []track.QueueItem{
		{Track: mkTrack("a")},
		{Track: mkTrack("b")},
		{Track: mkTrack("c")},
		{Track: mkTrack("d")},
		{Track: mkTrack("e")},
	}

	shuffled := make([]track.QueueItem, len(items))
	copy(shuffled, items)

	CryptoShuffler{}.Shuffle(shuffled)

	ids := make([]string, len(shuffled))
	for i, item := range shuffled {
		ids[i] = item.Track.ID
	}
	sort.Strings(ids)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids, "shuffle must not add or drop items")
}

func TestCryptoShuffler_SmallInputs(t *testing.T) {
	// Zero and one element inputs must not panic and stay unchanged.
	CryptoShuffler{}.Shuffle(nil)

	single := []track.QueueItem{{Track: mkTrack("a")}}
	CryptoShuffler{}.Shuffle(single)
	assert.Equal(t, "a", single[0].Track.ID)
}
