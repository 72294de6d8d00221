package matching

import (
	"container/list"

	"github.com/google/btree"
)

const btreeDegree = 32

// priceLevel wraps a single price and its FIFO-of-slots for use as a
// btree.Item. Queue is a doubly-linked list of Slot so front/back removal
// and mid-queue retain-the-rest (cancel) are both O(1)/O(n) without
// shifting, the same trade-off the reference's VecDeque makes.
type priceLevel struct {
	price Price
	queue *list.List
}

func (a *priceLevel) Less(than btree.Item) bool {
	return a.price < than.(*priceLevel).price
}

// PriceBook is an ordered price -> FIFO<slot> map for one side of the
// book. It tolerates sparse empty queues left behind by cancel/drain and
// caches nothing about "top" itself; the engine owns max_bid/min_ask.
type PriceBook struct {
	tree         *btree.BTree
	queueCapHint int
}

// NewPriceBook constructs an empty price book. queueCapHint is advisory
// only (Go's list.List has no capacity knob) and is kept for parity with
// the reference's per-level FIFO preallocation setting.
func NewPriceBook(queueCapHint int) *PriceBook {
	return &PriceBook{tree: btree.New(btreeDegree), queueCapHint: queueCapHint}
}

func (b *PriceBook) levelAt(price Price) *priceLevel {
	item := b.tree.Get(&priceLevel{price: price})
	if item == nil {
		return nil
	}
	return item.(*priceLevel)
}

func (b *PriceBook) getOrCreate(price Price) *priceLevel {
	if lvl := b.levelAt(price); lvl != nil {
		return lvl
	}
	lvl := &priceLevel{price: price, queue: list.New()}
	b.tree.ReplaceOrInsert(lvl)
	return lvl
}

// PushBack appends slot to the FIFO at price, creating the level if
// necessary.
func (b *PriceBook) PushBack(price Price, slot Slot) {
	lvl := b.getOrCreate(price)
	lvl.queue.PushBack(slot)
}

// Front returns the slot at the head of the FIFO at price, or false if the
// level does not exist or is empty.
func (b *PriceBook) Front(price Price) (Slot, bool) {
	lvl := b.levelAt(price)
	if lvl == nil || lvl.queue.Len() == 0 {
		return noSlot, false
	}
	return lvl.queue.Front().Value.(Slot), true
}

// PopFront removes and returns the head slot of the FIFO at price.
func (b *PriceBook) PopFront(price Price) (Slot, bool) {
	lvl := b.levelAt(price)
	if lvl == nil || lvl.queue.Len() == 0 {
		return noSlot, false
	}
	e := lvl.queue.Front()
	lvl.queue.Remove(e)
	return e.Value.(Slot), true
}

// Remove drops the first occurrence of slot from the FIFO at price,
// preserving the relative order of the remaining elements. Reports
// whether a removal happened.
func (b *PriceBook) Remove(price Price, slot Slot) bool {
	lvl := b.levelAt(price)
	if lvl == nil {
		return false
	}
	for e := lvl.queue.Front(); e != nil; e = e.Next() {
		if e.Value.(Slot) == slot {
			lvl.queue.Remove(e)
			return true
		}
	}
	return false
}

// Len reports how many slots are queued at price (0 if the level does not
// exist).
func (b *PriceBook) Len(price Price) int {
	lvl := b.levelAt(price)
	if lvl == nil {
		return 0
	}
	return lvl.queue.Len()
}

// IterAscending walks price levels from lowest to highest, skipping empty
// ones transiently left behind by drains/cancels; fn returning false
// stops iteration early.
func (b *PriceBook) IterAscending(fn func(price Price, lvl *priceLevel) bool) {
	b.tree.Ascend(func(item btree.Item) bool {
		lvl := item.(*priceLevel)
		if lvl.queue.Len() == 0 {
			return true
		}
		return fn(lvl.price, lvl)
	})
}

// IterDescending walks price levels from highest to lowest, same
// empty-skipping behaviour as IterAscending.
func (b *PriceBook) IterDescending(fn func(price Price, lvl *priceLevel) bool) {
	b.tree.Descend(func(item btree.Item) bool {
		lvl := item.(*priceLevel)
		if lvl.queue.Len() == 0 {
			return true
		}
		return fn(lvl.price, lvl)
	})
}

// BestAscending returns the lowest non-empty price level, or false if the
// book has no live orders (used to find the next min_ask after a drain).
func (b *PriceBook) BestAscending() (Price, bool) {
	var price Price
	var found bool
	b.IterAscending(func(p Price, _ *priceLevel) bool {
		price, found = p, true
		return false
	})
	return price, found
}

// BestDescending returns the highest non-empty price level, the
// max_bid counterpart of BestAscending.
func (b *PriceBook) BestDescending() (Price, bool) {
	var price Price
	var found bool
	b.IterDescending(func(p Price, _ *priceLevel) bool {
		price, found = p, true
		return false
	})
	return price, found
}

// Levels walks up to n non-empty price levels starting from the book's
// best side (ascending for asks, descending for bids) and aggregates each
// level's resident quantity via store lookups.
func (b *PriceBook) Levels(n int, descending bool, store *Store) []Level {
	out := make([]Level, 0, n)
	visit := func(price Price, lvl *priceLevel) bool {
		var qty Quantity
		for e := lvl.queue.Front(); e != nil; e = e.Next() {
			qty += store.At(e.Value.(Slot)).Quantity
		}
		out = append(out, Level{Price: price, Quantity: qty})
		return len(out) < n
	}
	if descending {
		b.IterDescending(visit)
	} else {
		b.IterAscending(visit)
	}
	return out
}

// Clone deep-copies the book, used by the snapshot manager.
func (b *PriceBook) Clone() *PriceBook {
	c := NewPriceBook(b.queueCapHint)
	b.tree.Ascend(func(item btree.Item) bool {
		src := item.(*priceLevel)
		dst := &priceLevel{price: src.price, queue: list.New()}
		for e := src.queue.Front(); e != nil; e = e.Next() {
			dst.queue.PushBack(e.Value.(Slot))
		}
		c.tree.ReplaceOrInsert(dst)
		return true
	})
	return c
}
