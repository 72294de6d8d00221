// Package matching implements the single-symbol limit order book: the
// order store arena, the two per-side price books, and the matching engine
// that places, modifies, cancels and quotes against them.
package matching

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"
)

// ID is a 128-bit identifier (order id or timestamp), carried as 16 bytes
// big-endian on the wire, matching the reference implementation's
// to_be_bytes convention.
type ID [16]byte

// NewTimestampID packs seconds-since-epoch*1e9+nanos into an ID, the same
// formula the reference implementation's generate_u128_timestamp uses.
func NewTimestampID(t time.Time) ID {
	nanos := uint64(t.UnixNano())
	// 128-bit value with the low 64 bits holding the nanosecond count;
	// the reference never actually needs more than 64 bits of range here,
	// but the wire shape is a full 16-byte big-endian integer.
	var id ID
	binary.BigEndian.PutUint64(id[8:], nanos)
	return id
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id == ID{}
}

func (id ID) String() string {
	return hex.EncodeToString(id[:])
}

// MarshalJSON encodes the id as a hex string, matching the "hex-encoded
// 16 bytes" wire convention for ids everywhere in this module.
func (id ID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + hex.EncodeToString(id[:]) + `"`), nil
}

// UnmarshalJSON decodes a hex-string id produced by MarshalJSON.
func (id *ID) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("matching: ID must be a JSON string")
	}
	decoded, err := hex.DecodeString(string(data[1 : len(data)-1]))
	if err != nil {
		return fmt.Errorf("matching: invalid ID hex: %w", err)
	}
	if len(decoded) != len(id) {
		return fmt.Errorf("matching: ID must decode to %d bytes, got %d", len(id), len(decoded))
	}
	copy(id[:], decoded)
	return nil
}

// ParseID decodes a hex-encoded 16-byte id string (e.g. as received over
// the transport façade).
func ParseID(s string) (ID, error) {
	var id ID
	decoded, err := hex.DecodeString(s)
	if err != nil {
		return id, fmt.Errorf("matching: invalid id %q: %w", s, err)
	}
	if len(decoded) != len(id) {
		return id, fmt.Errorf("matching: id %q must be %d bytes, got %d", s, len(id), len(decoded))
	}
	copy(id[:], decoded)
	return id, nil
}

// NewIDFromUUID packs a UUID's 16 bytes into an ID, big-endian (a UUID's
// wire form already is big-endian, so this is a direct copy).
func NewIDFromUUID(b [16]byte) ID {
	return ID(b)
}

// Side is the bid/ask tag carried by every order.
type Side int

const (
	Bid Side = 0
	Ask Side = 1
)

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// Price and Quantity are integer ticks/units; no floating point anywhere
// in the matching path.
type Price = uint64
type Quantity = uint64

// LimitOrder is a resting or incoming priced order.
type LimitOrder struct {
	ID       ID
	Price    Price
	Quantity Quantity
	Side     Side
}

// MarketOrder carries no price; it takes liquidity at whatever price is
// resting on the opposing side.
type MarketOrder struct {
	ID       ID
	Quantity Quantity
	Side     Side
}

// ToLimit converts a market order's unfilled residual into a resting limit
// order at lastTop, the last-observed opposing top-of-book price. This is
// the documented behaviour of the system this engine reimplements: an
// unfilled market order does not vanish, it becomes a far-touch limit.
func (m MarketOrder) ToLimit(lastTop Price) LimitOrder {
	return LimitOrder{ID: m.ID, Price: lastTop, Quantity: m.Quantity, Side: m.Side}
}

// OpKind tags the four operation variants accepted by Engine.Execute.
type OpKind int

const (
	OpLimit OpKind = iota
	OpMarket
	OpModify
	OpCancel
)

// Operation is the tagged union enqueued onto the dispatch channel and
// consumed one at a time by the executor.
type Operation struct {
	Kind   OpKind
	Limit  LimitOrder  // OpLimit, OpModify
	Market MarketOrder // OpMarket
	Cancel ID          // OpCancel
}

// FillMetaData records one maker/taker match produced while draining a
// price level.
type FillMetaData struct {
	OrderID        ID
	MatchedOrderID ID
	TakerSide      Side
	Price          Price
	Quantity       Quantity
}

// FillResultKind tags the outcome of matching a single placement.
type FillResultKind int

const (
	FillFilled FillResultKind = iota
	FillPartiallyFilled
	FillCreated
	FillFailed
)

// FillResult is the outcome of placing a Limit or Market order.
type FillResult struct {
	Kind     FillResultKind
	Fills    []FillMetaData
	Residual LimitOrder // set for PartiallyFilled (remaining resting qty) and Created
	Reason   string     // set for Failed
}

// ModifyResultKind tags the outcome of a Modify operation.
type ModifyResultKind int

const (
	ModifyCreatedKind ModifyResultKind = iota
	ModifyModifiedKind
	ModifyFailedKind
)

// ModifyResult is the outcome of a Modify operation.
type ModifyResult struct {
	Kind    ModifyResultKind
	Created FillResult // set when Kind == ModifyCreatedKind (price changed: cancel+place)
	ID      ID         // set when Kind == ModifyModifiedKind (in-place quantity update)
	Reason  string     // set when Kind == ModifyFailedKind
}

// ExecutionResultKind tags the outer result of Engine.Execute.
type ExecutionResultKind int

const (
	ResultExecuted ExecutionResultKind = iota
	ResultModified
	ResultCancelled
	ResultFailed
)

// ExecutionResult is returned by Engine.Execute for every operation. Every
// variant carries the engine's symbol and a timestamp assigned by the
// caller (the executor), not by the engine itself.
type ExecutionResult struct {
	Kind      ExecutionResultKind
	Fill      FillResult   // ResultExecuted
	Modify    ModifyResult // ResultModified
	Cancelled ID           // ResultCancelled
	Reason    string       // ResultFailed
	Symbol    string
	Timestamp ID
}

// RfqStatusKind tags the outcome of a request-for-quote evaluation.
type RfqStatusKind int

const (
	RfqCompleteFill RfqStatusKind = iota
	RfqPartialFillAndLimitPlaced
	RfqConvertToLimit
	RfqNotPossible
)

// RfqStatus is the result of Engine.RFQ.
type RfqStatus struct {
	Kind     RfqStatusKind
	Price    Price    // vwap for CompleteFill/PartialFillAndLimitPlaced, top for ConvertToLimit
	Quantity Quantity // remaining quantity for PartialFillAndLimitPlaced/ConvertToLimit
}

// Level is an aggregated {price, quantity} pair in a depth view.
type Level struct {
	Price    Price
	Quantity Quantity
}

// Depth is the top N non-empty price levels on each side.
type Depth struct {
	Levels int
	Bids   []Level
	Asks   []Level
}

// OrderbookData is the full payload pushed by the orderbook stream: the
// depth view plus the engine's cached top-of-book and last trade price.
// MaxBid/MinAsk are nil when the corresponding side of the book is empty.
type OrderbookData struct {
	LastTradePrice Price    `json:"last_trade_price"`
	MaxBid         *Price   `json:"max_bid"`
	MinAsk         *Price   `json:"min_ask"`
	Bids           []Level  `json:"bids"`
	Asks           []Level  `json:"asks"`
}

// OrderbookSnapshot builds the OrderbookData payload for levels of depth
// from the engine's current state.
func (e *Engine) OrderbookSnapshot(levels int) OrderbookData {
	depth := e.Depth(levels)
	data := OrderbookData{
		LastTradePrice: e.LastTradePrice(),
		Bids:           depth.Bids,
		Asks:           depth.Asks,
	}
	if maxBid, ok := e.MaxBid(); ok {
		data.MaxBid = &maxBid
	}
	if minAsk, ok := e.MinAsk(); ok {
		data.MinAsk = &minAsk
	}
	return data
}
