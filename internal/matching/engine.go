package matching

import "container/list"

// Engine owns one Order Store and the two per-side Price Books, and
// implements placement, modification, cancellation, depth and RFQ over
// them. An Engine is never accessed by more than one goroutine at a time;
// concurrency safety is the snapshot manager's job, not this package's.
type Engine struct {
	id     string
	symbol string

	store   *Store
	bidBook *PriceBook
	askBook *PriceBook

	hasMaxBid bool
	maxBid    Price
	hasMinAsk bool
	minAsk    Price

	lastTradePrice Price
	queueCapHint   int
}

// NewEngine constructs an empty engine. storeCapacity pre-reserves the
// order arena; queueCapHint is passed through to new price levels.
func NewEngine(id, symbol string, storeCapacity, queueCapHint int) *Engine {
	return &Engine{
		id:           id,
		symbol:       symbol,
		store:        NewStore(storeCapacity),
		bidBook:      NewPriceBook(queueCapHint),
		askBook:      NewPriceBook(queueCapHint),
		queueCapHint: queueCapHint,
	}
}

func (e *Engine) ID() string     { return e.id }
func (e *Engine) Symbol() string { return e.symbol }

// MaxBid returns the best bid price, or false if the bid side is empty.
func (e *Engine) MaxBid() (Price, bool) { return e.maxBid, e.hasMaxBid }

// MinAsk returns the best ask price, or false if the ask side is empty.
func (e *Engine) MinAsk() (Price, bool) { return e.minAsk, e.hasMinAsk }

// LastTradePrice returns the price of the last fill of the most recent
// placement that filled completely; partial fills do not update it.
func (e *Engine) LastTradePrice() Price { return e.lastTradePrice }

// OrderByID looks up a resting order by id, for read-side callers (tests,
// diagnostics) that need a single order rather than a full depth view.
func (e *Engine) OrderByID(id ID) (LimitOrder, bool) {
	order, _, ok := e.store.Get(id)
	return order, ok
}

// Clone deep-copies the engine; used by the snapshot manager to publish a
// reader-visible secondary.
func (e *Engine) Clone() *Engine {
	return &Engine{
		id:             e.id,
		symbol:         e.symbol,
		store:          e.store.Clone(),
		bidBook:        e.bidBook.Clone(),
		askBook:        e.askBook.Clone(),
		hasMaxBid:      e.hasMaxBid,
		maxBid:         e.maxBid,
		hasMinAsk:      e.hasMinAsk,
		minAsk:         e.minAsk,
		lastTradePrice: e.lastTradePrice,
		queueCapHint:   e.queueCapHint,
	}
}

func (e *Engine) bookFor(side Side) *PriceBook {
	if side == Bid {
		return e.bidBook
	}
	return e.askBook
}

func (e *Engine) refreshMaxBid() {
	if p, ok := e.bidBook.BestDescending(); ok {
		e.maxBid, e.hasMaxBid = p, true
	} else {
		e.hasMaxBid = false
	}
}

func (e *Engine) refreshMinAsk() {
	if p, ok := e.askBook.BestAscending(); ok {
		e.minAsk, e.hasMinAsk = p, true
	} else {
		e.hasMinAsk = false
	}
}

func (e *Engine) refreshTop(side Side) {
	if side == Bid {
		e.refreshMaxBid()
	} else {
		e.refreshMinAsk()
	}
}

// Execute is the single entry point for every operation the engine
// accepts. It never returns a Go error: operation-level failures are
// reported as ExecutionResult{Kind: ResultFailed}.
func (e *Engine) Execute(op Operation) ExecutionResult {
	switch op.Kind {
	case OpLimit:
		fill := e.placeLimit(op.Limit)
		if fill.Kind == FillFailed {
			return ExecutionResult{Kind: ResultFailed, Reason: fill.Reason, Symbol: e.symbol}
		}
		return ExecutionResult{Kind: ResultExecuted, Fill: fill, Symbol: e.symbol}
	case OpMarket:
		fill := e.placeMarket(op.Market)
		if fill.Kind == FillFailed {
			return ExecutionResult{Kind: ResultFailed, Reason: fill.Reason, Symbol: e.symbol}
		}
		return ExecutionResult{Kind: ResultExecuted, Fill: fill, Symbol: e.symbol}
	case OpModify:
		mod := e.modify(op.Limit)
		if mod.Kind == ModifyFailedKind {
			return ExecutionResult{Kind: ResultFailed, Reason: mod.Reason, Symbol: e.symbol}
		}
		return ExecutionResult{Kind: ResultModified, Modify: mod, Symbol: e.symbol}
	case OpCancel:
		if e.cancel(op.Cancel) {
			return ExecutionResult{Kind: ResultCancelled, Cancelled: op.Cancel, Symbol: e.symbol}
		}
		return ExecutionResult{Kind: ResultFailed, Reason: "order not found", Symbol: e.symbol}
	default:
		return ExecutionResult{Kind: ResultFailed, Reason: "unknown operation", Symbol: e.symbol}
	}
}

func (e *Engine) placeLimit(order LimitOrder) FillResult {
	if order.Side == Bid {
		return e.limitBid(order)
	}
	return e.limitAsk(order)
}

func (e *Engine) placeMarket(order MarketOrder) FillResult {
	if order.Side == Bid {
		return e.marketBid(order)
	}
	return e.marketAsk(order)
}

// limitBid matches a bid-side limit order against the ask book ascending,
// stopping once the taker's price no longer crosses the best remaining
// ask. The min_ask cache is advanced lazily: only once the next non-empty
// level is actually visited, never speculatively.
func (e *Engine) limitBid(order LimitOrder) FillResult {
	remaining := order.Quantity
	var fills []FillMetaData
	updateMinAsk := false

	e.askBook.IterAscending(func(askPrice Price, lvl *priceLevel) bool {
		if updateMinAsk {
			e.minAsk, e.hasMinAsk = askPrice, true
			updateMinAsk = false
		}
		if order.Price < askPrice {
			return false
		}
		processQueue(e.store, order.ID, askPrice, Bid, &remaining, lvl.queue, &fills)
		if remaining > 0 {
			updateMinAsk = true
		}
		return remaining > 0
	})
	if updateMinAsk || remaining == 0 {
		e.refreshMinAsk()
	}
	return e.processBidFills(order, fills, remaining)
}

// limitAsk is the mirror of limitBid: descending over the bid book.
func (e *Engine) limitAsk(order LimitOrder) FillResult {
	remaining := order.Quantity
	var fills []FillMetaData
	updateMaxBid := false

	e.bidBook.IterDescending(func(bidPrice Price, lvl *priceLevel) bool {
		if updateMaxBid {
			e.maxBid, e.hasMaxBid = bidPrice, true
			updateMaxBid = false
		}
		if order.Price > bidPrice {
			return false
		}
		processQueue(e.store, order.ID, bidPrice, Ask, &remaining, lvl.queue, &fills)
		if remaining > 0 {
			updateMaxBid = true
		}
		return remaining > 0
	})
	if updateMaxBid || remaining == 0 {
		e.refreshMaxBid()
	}
	return e.processAskFills(order, fills, remaining)
}

// marketBid is identical to limitBid but with the price-bound check
// removed: a market order crosses at any price. The unfilled residual, if
// any, becomes a resting limit at the last ask price actually visited.
func (e *Engine) marketBid(order MarketOrder) FillResult {
	if !e.hasMinAsk {
		return FillResult{Kind: FillFailed, Reason: "placed market order on empty book"}
	}
	remaining := order.Quantity
	var fills []FillMetaData
	updateMinAsk := false
	lastTop := e.minAsk

	e.askBook.IterAscending(func(askPrice Price, lvl *priceLevel) bool {
		if updateMinAsk {
			e.minAsk, e.hasMinAsk = askPrice, true
			updateMinAsk = false
		}
		lastTop = askPrice
		processQueue(e.store, order.ID, askPrice, Bid, &remaining, lvl.queue, &fills)
		if remaining > 0 {
			updateMinAsk = true
		}
		return remaining > 0
	})
	if updateMinAsk || remaining == 0 {
		e.refreshMinAsk()
	}
	residual := order.ToLimit(lastTop)
	return e.processBidFills(residual, fills, remaining)
}

func (e *Engine) marketAsk(order MarketOrder) FillResult {
	if !e.hasMaxBid {
		return FillResult{Kind: FillFailed, Reason: "placed market order on empty book"}
	}
	remaining := order.Quantity
	var fills []FillMetaData
	updateMaxBid := false
	lastTop := e.maxBid

	e.bidBook.IterDescending(func(bidPrice Price, lvl *priceLevel) bool {
		if updateMaxBid {
			e.maxBid, e.hasMaxBid = bidPrice, true
			updateMaxBid = false
		}
		lastTop = bidPrice
		processQueue(e.store, order.ID, bidPrice, Ask, &remaining, lvl.queue, &fills)
		if remaining > 0 {
			updateMaxBid = true
		}
		return remaining > 0
	})
	if updateMaxBid || remaining == 0 {
		e.refreshMaxBid()
	}
	residual := order.ToLimit(lastTop)
	return e.processAskFills(residual, fills, remaining)
}

// processQueue drains the FIFO at a single price level, filling the
// taker's remaining quantity against resting makers front-to-back. The
// front order is only popped once it is fully consumed; a partial match
// shrinks it in place and leaves it at the front.
func processQueue(store *Store, takerID ID, price Price, takerSide Side, remaining *Quantity, queue *list.List, fills *[]FillMetaData) {
	for *remaining > 0 {
		front := queue.Front()
		if front == nil {
			break
		}
		slot := front.Value.(Slot)
		maker := store.At(slot)
		if maker.Quantity > *remaining {
			store.SetQuantity(slot, maker.Quantity-*remaining)
			*fills = append(*fills, FillMetaData{
				OrderID: takerID, MatchedOrderID: maker.ID,
				TakerSide: takerSide, Price: price, Quantity: *remaining,
			})
			*remaining = 0
			return
		}
		*fills = append(*fills, FillMetaData{
			OrderID: takerID, MatchedOrderID: maker.ID,
			TakerSide: takerSide, Price: price, Quantity: maker.Quantity,
		})
		*remaining -= maker.Quantity
		store.Delete(maker.ID)
		queue.Remove(front)
	}
}

// processBidFills dispatches the outcome of a bid placement: nothing
// matched (rest the whole order), a partial match (rest the residual),
// or a full match (nothing rests).
func (e *Engine) processBidFills(order LimitOrder, fills []FillMetaData, remaining Quantity) FillResult {
	switch {
	case remaining == order.Quantity:
		slot, err := e.store.Insert(order)
		if err != nil {
			return FillResult{Kind: FillFailed, Reason: err.Error()}
		}
		if !e.hasMaxBid || order.Price > e.maxBid {
			e.maxBid, e.hasMaxBid = order.Price, true
		}
		e.bidBook.PushBack(order.Price, slot)
		return FillResult{Kind: FillCreated, Residual: order}
	case remaining > 0:
		residual := order
		residual.Quantity = remaining
		slot, err := e.store.Insert(residual)
		if err != nil {
			return FillResult{Kind: FillFailed, Reason: err.Error()}
		}
		e.maxBid, e.hasMaxBid = order.Price, true
		e.bidBook.PushBack(order.Price, slot)
		return FillResult{Kind: FillPartiallyFilled, Fills: fills, Residual: residual}
	default:
		if len(fills) > 0 {
			e.lastTradePrice = fills[len(fills)-1].Price
		}
		return FillResult{Kind: FillFilled, Fills: fills}
	}
}

func (e *Engine) processAskFills(order LimitOrder, fills []FillMetaData, remaining Quantity) FillResult {
	switch {
	case remaining == order.Quantity:
		slot, err := e.store.Insert(order)
		if err != nil {
			return FillResult{Kind: FillFailed, Reason: err.Error()}
		}
		if !e.hasMinAsk || order.Price < e.minAsk {
			e.minAsk, e.hasMinAsk = order.Price, true
		}
		e.askBook.PushBack(order.Price, slot)
		return FillResult{Kind: FillCreated, Residual: order}
	case remaining > 0:
		residual := order
		residual.Quantity = remaining
		slot, err := e.store.Insert(residual)
		if err != nil {
			return FillResult{Kind: FillFailed, Reason: err.Error()}
		}
		e.minAsk, e.hasMinAsk = order.Price, true
		e.askBook.PushBack(order.Price, slot)
		return FillResult{Kind: FillPartiallyFilled, Fills: fills, Residual: residual}
	default:
		if len(fills) > 0 {
			e.lastTradePrice = fills[len(fills)-1].Price
		}
		return FillResult{Kind: FillFilled, Fills: fills}
	}
}

// modify relocates or resizes a resting order. The lookup is scoped to
// the side named by the incoming order: an id that resolves to an order
// resting on the other side is treated as not found, never as a
// cross-side mutation.
func (e *Engine) modify(order LimitOrder) ModifyResult {
	existing, slot, ok := e.store.Get(order.ID)
	if !ok || existing.Side != order.Side {
		return ModifyResult{Kind: ModifyFailedKind, Reason: "no modification occurred"}
	}
	if existing.Price == order.Price && existing.Quantity == order.Quantity {
		return ModifyResult{Kind: ModifyFailedKind, Reason: "no modification occurred"}
	}

	if existing.Price != order.Price {
		book := e.bookFor(existing.Side)
		book.Remove(existing.Price, slot)
		e.refreshTop(existing.Side)
		e.store.Delete(existing.ID)
		fill := e.placeLimit(order)
		return ModifyResult{Kind: ModifyCreatedKind, Created: fill}
	}

	e.store.SetQuantity(slot, order.Quantity)
	return ModifyResult{Kind: ModifyModifiedKind, ID: order.ID}
}

// cancel removes a resting order and repairs the affected side's top
// price cache. Rescanning for the new top on every cancel rather than
// only when the top level drains is a cheap, always-correct equivalent.
func (e *Engine) cancel(id ID) bool {
	order, slot, ok := e.store.Get(id)
	if !ok {
		return false
	}
	book := e.bookFor(order.Side)
	book.Remove(order.Price, slot)
	e.refreshTop(order.Side)
	e.store.Delete(id)
	return true
}

// Depth returns the top n non-empty levels on each side, bids
// highest-price-first and asks lowest-price-first.
func (e *Engine) Depth(levels int) Depth {
	return Depth{
		Levels: levels,
		Bids:   e.bidBook.Levels(levels, true, e.store),
		Asks:   e.askBook.Levels(levels, false, e.store),
	}
}

// RFQ evaluates a hypothetical market order against the opposing book
// without mutating store, books, tops or last trade price.
func (e *Engine) RFQ(order MarketOrder) RfqStatus {
	if order.Quantity == 0 {
		return RfqStatus{Kind: RfqNotPossible}
	}
	if order.Side == Bid {
		if !e.hasMinAsk {
			return RfqStatus{Kind: RfqNotPossible}
		}
		return e.rfqWalk(order, e.askBook, false, e.minAsk)
	}
	if !e.hasMaxBid {
		return RfqStatus{Kind: RfqNotPossible}
	}
	return e.rfqWalk(order, e.bidBook, true, e.maxBid)
}

func (e *Engine) rfqWalk(order MarketOrder, book *PriceBook, descending bool, top Price) RfqStatus {
	remaining := order.Quantity
	var spent uint64

	visit := func(price Price, lvl *priceLevel) bool {
		var levelQty Quantity
		for el := lvl.queue.Front(); el != nil; el = el.Next() {
			levelQty += e.store.At(el.Value.(Slot)).Quantity
		}
		if levelQty <= remaining {
			spent += price * levelQty
			remaining -= levelQty
		} else {
			spent += price * remaining
			remaining = 0
		}
		return remaining > 0
	}
	if descending {
		book.IterDescending(visit)
	} else {
		book.IterAscending(visit)
	}

	switch {
	case remaining == order.Quantity:
		return RfqStatus{Kind: RfqConvertToLimit, Price: top, Quantity: order.Quantity}
	case remaining == 0:
		return RfqStatus{Kind: RfqCompleteFill, Price: spent / order.Quantity}
	default:
		filled := order.Quantity - remaining
		return RfqStatus{Kind: RfqPartialFillAndLimitPlaced, Price: spent / filled, Quantity: remaining}
	}
}
