package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceBookFIFOOrdering(t *testing.T) {
	b := NewPriceBook(4)
	b.PushBack(100, Slot(1))
	b.PushBack(100, Slot(2))
	b.PushBack(100, Slot(3))

	front, ok := b.Front(100)
	require.True(t, ok)
	assert.Equal(t, Slot(1), front)

	s, ok := b.PopFront(100)
	require.True(t, ok)
	assert.Equal(t, Slot(1), s)

	front, ok = b.Front(100)
	require.True(t, ok)
	assert.Equal(t, Slot(2), front)
}

func TestPriceBookAscendingDescendingSkipEmpty(t *testing.T) {
	b := NewPriceBook(4)
	b.PushBack(100, Slot(1))
	b.PushBack(110, Slot(2))
	b.PushBack(120, Slot(3))

	_, _ = b.PopFront(110) // leave 110 transiently empty

	var seen []Price
	b.IterAscending(func(p Price, _ *priceLevel) bool {
		seen = append(seen, p)
		return true
	})
	assert.Equal(t, []Price{100, 120}, seen)

	seen = nil
	b.IterDescending(func(p Price, _ *priceLevel) bool {
		seen = append(seen, p)
		return true
	})
	assert.Equal(t, []Price{120, 100}, seen)
}

func TestPriceBookBestAscendingDescending(t *testing.T) {
	b := NewPriceBook(4)
	_, ok := b.BestAscending()
	assert.False(t, ok)

	b.PushBack(130, Slot(1))
	b.PushBack(120, Slot(2))

	p, ok := b.BestAscending()
	require.True(t, ok)
	assert.EqualValues(t, 120, p)

	p, ok = b.BestDescending()
	require.True(t, ok)
	assert.EqualValues(t, 130, p)
}

func TestPriceBookRemove(t *testing.T) {
	b := NewPriceBook(4)
	b.PushBack(100, Slot(1))
	b.PushBack(100, Slot(2))

	removed := b.Remove(100, Slot(1))
	assert.True(t, removed)
	assert.Equal(t, 1, b.Len(100))

	removed = b.Remove(100, Slot(99))
	assert.False(t, removed)
}

func TestPriceBookClone(t *testing.T) {
	b := NewPriceBook(4)
	b.PushBack(100, Slot(1))
	b.PushBack(100, Slot(2))

	clone := b.Clone()
	clone.PushBack(100, Slot(3))

	assert.Equal(t, 2, b.Len(100))
	assert.Equal(t, 3, clone.Len(100))
}
