package matching

import "github.com/orderflow/matchbook/internal/merrors"

// Slot is an opaque handle into the Store's arena. It must never be
// captured across a call that can recycle it (see Store.Delete) and must
// never be exposed outside this package.
type Slot int

const noSlot Slot = -1

// Store is a fixed-slot arena of LimitOrder records. Live orders are
// reachable from both idIndex and exactly one PriceBook queue; free slots
// sit on freeList with Quantity zeroed.
type Store struct {
	orders   []LimitOrder
	freeList []Slot
	idIndex  map[ID]Slot
}

// NewStore pre-reserves capacity slots and pushes them all onto the free
// list, matching the arena pre-allocation the reference store performs.
func NewStore(capacity int) *Store {
	s := &Store{
		orders:   make([]LimitOrder, capacity),
		freeList: make([]Slot, 0, capacity),
		idIndex:  make(map[ID]Slot, capacity),
	}
	for i := capacity - 1; i >= 0; i-- {
		s.freeList = append(s.freeList, Slot(i))
	}
	return s
}

// Insert places order into a free (or newly appended) slot and records the
// id mapping. Unlike the reference implementation, a duplicate id is
// rejected rather than silently overwriting the existing mapping and
// leaking the slot it pointed to.
func (s *Store) Insert(order LimitOrder) (Slot, error) {
	if _, exists := s.idIndex[order.ID]; exists {
		return noSlot, merrors.New(merrors.CodeDuplicateID, "order id already resident in store")
	}

	var slot Slot
	if n := len(s.freeList); n > 0 {
		slot = s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
	} else {
		slot = Slot(len(s.orders))
		s.orders = append(s.orders, LimitOrder{})
	}

	s.orders[slot] = order
	s.idIndex[order.ID] = slot
	return slot, nil
}

// Get resolves an id to its order and slot. The returned slot must be
// re-resolved after any subsequent Delete.
func (s *Store) Get(id ID) (LimitOrder, Slot, bool) {
	slot, ok := s.idIndex[id]
	if !ok {
		return LimitOrder{}, noSlot, false
	}
	return s.orders[slot], slot, true
}

// SetQuantity updates the resident quantity of the order at slot in place,
// used by in-place modify and by partial fills at the front of a queue.
func (s *Store) SetQuantity(slot Slot, qty Quantity) {
	s.orders[slot].Quantity = qty
}

// Delete removes id from the index, frees its slot and zeroes its
// quantity. Returns false if id was not present.
func (s *Store) Delete(id ID) bool {
	slot, ok := s.idIndex[id]
	if !ok {
		return false
	}
	delete(s.idIndex, id)
	s.orders[slot].Quantity = 0
	s.freeList = append(s.freeList, slot)
	return true
}

// At returns the order resident at slot, for callers (PriceBook queues)
// that only hold slot indices.
func (s *Store) At(slot Slot) LimitOrder {
	return s.orders[slot]
}

// LiveIDs returns the set of ids currently resident in the store, for
// arena-integrity checks.
func (s *Store) LiveIDs() map[ID]struct{} {
	out := make(map[ID]struct{}, len(s.idIndex))
	for id := range s.idIndex {
		out[id] = struct{}{}
	}
	return out
}

// Clone deep-copies the store, used by the snapshot manager to publish a
// reader-visible secondary engine.
func (s *Store) Clone() *Store {
	c := &Store{
		orders:   make([]LimitOrder, len(s.orders)),
		freeList: make([]Slot, len(s.freeList)),
		idIndex:  make(map[ID]Slot, len(s.idIndex)),
	}
	copy(c.orders, s.orders)
	copy(c.freeList, s.freeList)
	for id, slot := range s.idIndex {
		c.idIndex[id] = slot
	}
	return c
}
