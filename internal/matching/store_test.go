package matching

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStoreArenaIntegrity runs a 10k-step randomized insert/delete sequence and
// asserts that the id-index and the free list never disagree: every live
// id resolves to a slot not on the free list, and every free slot holds no
// live id.
func TestStoreArenaIntegrity(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	s := NewStore(32)

	live := make(map[ID]Slot)
	var liveIDs []ID

	for i := 0; i < 10_000; i++ {
		if len(liveIDs) == 0 || rng.Intn(2) == 0 {
			id := ID{14: byte(i >> 8), 15: byte(i)}
			slot, err := s.Insert(LimitOrder{ID: id, Price: 100, Quantity: 1, Side: Bid})
			require.NoError(t, err)
			live[id] = slot
			liveIDs = append(liveIDs, id)
		} else {
			idx := rng.Intn(len(liveIDs))
			id := liveIDs[idx]
			ok := s.Delete(id)
			require.True(t, ok)
			delete(live, id)
			liveIDs = append(liveIDs[:idx], liveIDs[idx+1:]...)
		}

		assertArenaConsistent(t, s, live)
	}
}

func assertArenaConsistent(t *testing.T, s *Store, live map[ID]Slot) {
	t.Helper()

	freeSet := make(map[Slot]struct{}, len(s.freeList))
	for _, slot := range s.freeList {
		freeSet[slot] = struct{}{}
	}

	for id, slot := range live {
		_, onFreeList := freeSet[slot]
		assert.False(t, onFreeList, "live id %x resolves to a free slot", id)
		got, _, ok := s.Get(id)
		require.True(t, ok)
		assert.Equal(t, id, got.ID)
	}

	assert.Equal(t, len(live), len(s.idIndex))
}

func TestStoreInsertRejectsDuplicateID(t *testing.T) {
	s := NewStore(4)
	id := idN(1)
	_, err := s.Insert(LimitOrder{ID: id, Price: 10, Quantity: 5, Side: Bid})
	require.NoError(t, err)

	_, err = s.Insert(LimitOrder{ID: id, Price: 20, Quantity: 5, Side: Ask})
	assert.Error(t, err)
}

func TestStoreSlotReuseIsLIFO(t *testing.T) {
	s := NewStore(2)
	a, err := s.Insert(LimitOrder{ID: idN(1), Quantity: 1})
	require.NoError(t, err)
	b, err := s.Insert(LimitOrder{ID: idN(2), Quantity: 1})
	require.NoError(t, err)

	require.True(t, s.Delete(idN(1)))
	require.True(t, s.Delete(idN(2)))

	c, err := s.Insert(LimitOrder{ID: idN(3), Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, b, c, "most recently freed slot must be reused first")

	d, err := s.Insert(LimitOrder{ID: idN(4), Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, a, d)
}
