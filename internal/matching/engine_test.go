package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idN(n byte) ID {
	return ID{15: n}
}

func newTestEngine() *Engine {
	return NewEngine("test", "XYZ", 64, 8)
}

func seedLadder(t *testing.T, e *Engine) {
	t.Helper()
	orders := []LimitOrder{
		{ID: idN(1), Price: 100, Quantity: 100, Side: Bid},
		{ID: idN(2), Price: 100, Quantity: 150, Side: Bid},
		{ID: idN(3), Price: 100, Quantity: 50, Side: Bid},
		{ID: idN(4), Price: 110, Quantity: 200, Side: Bid},
		{ID: idN(5), Price: 110, Quantity: 100, Side: Bid},
		{ID: idN(6), Price: 120, Quantity: 100, Side: Ask},
		{ID: idN(7), Price: 120, Quantity: 150, Side: Ask},
		{ID: idN(8), Price: 120, Quantity: 50, Side: Ask},
		{ID: idN(9), Price: 130, Quantity: 200, Side: Ask},
		{ID: idN(10), Price: 130, Quantity: 100, Side: Ask},
	}
	for _, o := range orders {
		res := e.placeLimit(o)
		require.NotEqual(t, FillFailed, res.Kind, "seed order %x failed: %s", o.ID, res.Reason)
	}
}

func TestScenario1_LadderAndCross(t *testing.T) {
	e := newTestEngine()
	seedLadder(t, e)

	depth := e.Depth(2)
	assert.Equal(t, []Level{{Price: 110, Quantity: 300}, {Price: 100, Quantity: 300}}, depth.Bids)
	assert.Equal(t, []Level{{Price: 120, Quantity: 300}, {Price: 130, Quantity: 300}}, depth.Asks)

	maxBid, ok := e.MaxBid()
	require.True(t, ok)
	assert.EqualValues(t, 110, maxBid)
	minAsk, ok := e.MinAsk()
	require.True(t, ok)
	assert.EqualValues(t, 120, minAsk)

	res := e.placeLimit(LimitOrder{ID: idN(11), Price: 130, Quantity: 400, Side: Bid})
	require.Equal(t, FillFilled, res.Kind)
	var makerIDs []ID
	for _, f := range res.Fills {
		makerIDs = append(makerIDs, f.MatchedOrderID)
	}
	assert.Equal(t, []ID{idN(6), idN(7), idN(8), idN(9)}, makerIDs)

	assert.EqualValues(t, 200, levelQuantity(e, e.askBook, 130))
	minAsk, ok = e.MinAsk()
	require.True(t, ok)
	assert.EqualValues(t, 130, minAsk)
}

func TestScenario2_PartialFillAndResidual(t *testing.T) {
	e := newTestEngine()
	seedLadder(t, e)

	res := e.placeLimit(LimitOrder{ID: idN(11), Price: 150, Quantity: 700, Side: Bid})
	require.Equal(t, FillPartiallyFilled, res.Kind)
	var makerIDs []ID
	for _, f := range res.Fills {
		makerIDs = append(makerIDs, f.MatchedOrderID)
	}
	assert.Equal(t, []ID{idN(6), idN(7), idN(8), idN(9), idN(10)}, makerIDs)
	assert.Equal(t, LimitOrder{ID: idN(11), Price: 150, Quantity: 100, Side: Bid}, res.Residual)

	maxBid, ok := e.MaxBid()
	require.True(t, ok)
	assert.EqualValues(t, 150, maxBid)

	_, hasMinAsk := e.MinAsk()
	assert.False(t, hasMinAsk, "ask book should be fully drained")
}

func TestScenario3_MarketOnEmptyOpposite(t *testing.T) {
	e := newTestEngine()
	res := e.placeMarket(MarketOrder{ID: idN(1), Quantity: 100, Side: Bid})
	require.Equal(t, FillFailed, res.Kind)
	assert.Equal(t, "placed market order on empty book", res.Reason)
}

func TestScenario4_ModifyPreservesOrLosesPriority(t *testing.T) {
	e := newTestEngine()
	seedLadder(t, e)

	mod := e.modify(LimitOrder{ID: idN(1), Price: 100, Quantity: 150, Side: Bid})
	require.Equal(t, ModifyModifiedKind, mod.Kind)
	assert.EqualValues(t, 350, levelQuantity(e, e.bidBook, 100))
	front, ok := e.bidBook.Front(100)
	require.True(t, ok)
	frontOrder := e.store.At(front)
	assert.Equal(t, idN(1), frontOrder.ID, "id=1 must remain at the front of the 100 level")

	mod = e.modify(LimitOrder{ID: idN(1), Price: 120, Quantity: 400, Side: Bid})
	require.Equal(t, ModifyCreatedKind, mod.Kind)
	assert.Equal(t, FillPartiallyFilled, mod.Created.Kind)
	assert.EqualValues(t, 100, mod.Created.Residual.Quantity)
	assert.EqualValues(t, 120, mod.Created.Residual.Price)

	assert.EqualValues(t, 200, levelQuantity(e, e.bidBook, 100))
}

func TestScenario5_CancelUpdatesTop(t *testing.T) {
	e := newTestEngine()
	seedLadder(t, e)

	res := e.placeLimit(LimitOrder{ID: idN(11), Price: 115, Quantity: 100, Side: Bid})
	require.Equal(t, FillCreated, res.Kind)
	maxBid, ok := e.MaxBid()
	require.True(t, ok)
	assert.EqualValues(t, 115, maxBid)

	ok = e.cancel(idN(11))
	require.True(t, ok)
	maxBid, ok = e.MaxBid()
	require.True(t, ok)
	assert.EqualValues(t, 110, maxBid)

	_, _, found := e.store.Get(idN(11))
	assert.False(t, found)
}

func TestScenario6_RFQ(t *testing.T) {
	e := newTestEngine()
	seedLadder(t, e)

	status := e.RFQ(MarketOrder{Quantity: 500, Side: Bid})
	require.Equal(t, RfqCompleteFill, status.Kind)
	assert.EqualValues(t, 124, status.Price)

	maxBid, _ := e.MaxBid()
	minAsk, _ := e.MinAsk()
	assert.EqualValues(t, 110, maxBid)
	assert.EqualValues(t, 120, minAsk)
	assert.EqualValues(t, 300, levelQuantity(e, e.askBook, 120))
	assert.EqualValues(t, 300, levelQuantity(e, e.askBook, 130))
}

func TestRFQPurity(t *testing.T) {
	e := newTestEngine()
	seedLadder(t, e)
	before := e.Clone()

	_ = e.RFQ(MarketOrder{Quantity: 250, Side: Ask})
	_ = e.RFQ(MarketOrder{Quantity: 10_000, Side: Bid})

	assert.Equal(t, before.maxBid, e.maxBid)
	assert.Equal(t, before.minAsk, e.minAsk)
	assert.Equal(t, before.lastTradePrice, e.lastTradePrice)
	assert.ElementsMatch(t, depthIDs(before), depthIDs(e))
}

func levelQuantity(e *Engine, book *PriceBook, price Price) Quantity {
	lvl := book.levelAt(price)
	if lvl == nil {
		return 0
	}
	var qty Quantity
	for el := lvl.queue.Front(); el != nil; el = el.Next() {
		qty += e.store.At(el.Value.(Slot)).Quantity
	}
	return qty
}

func depthIDs(e *Engine) []ID {
	var ids []ID
	for id := range e.store.LiveIDs() {
		ids = append(ids, id)
	}
	return ids
}

func TestModifyRejectsSideMismatch(t *testing.T) {
	e := newTestEngine()
	seedLadder(t, e)

	mod := e.modify(LimitOrder{ID: idN(1), Price: 100, Quantity: 50, Side: Ask})
	assert.Equal(t, ModifyFailedKind, mod.Kind)
}

func TestDuplicateOrderIDRejected(t *testing.T) {
	e := newTestEngine()
	res := e.placeLimit(LimitOrder{ID: idN(1), Price: 100, Quantity: 10, Side: Bid})
	require.Equal(t, FillCreated, res.Kind)

	res = e.placeLimit(LimitOrder{ID: idN(1), Price: 105, Quantity: 20, Side: Bid})
	assert.Equal(t, FillFailed, res.Kind)
}
