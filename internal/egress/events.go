// Package egress turns ExecutionResults into the five wire event
// variants and publishes them on a message bus, decoupled from the
// matching loop by a bounded worker pool and a circuit breaker.
package egress

import "github.com/orderflow/matchbook/internal/matching"

// Status codes mirror the reference implementation's protobuf status
// field exactly, so a downstream consumer written against the original
// wire format needs no remapping.
const (
	StatusCreate       = 0
	StatusFill         = 1
	StatusPartialFill  = 2
	StatusModified     = 3
	StatusCancelled    = 4
)

// CreateOrderEvent is emitted when a limit order rests without any match.
type CreateOrderEvent struct {
	Status    int          `json:"status"`
	OrderID   matching.ID  `json:"order_id"`
	Price     matching.Price `json:"price"`
	Quantity  matching.Quantity `json:"quantity"`
	Side      matching.Side `json:"side"`
	Symbol    string       `json:"symbol"`
	Timestamp matching.ID  `json:"timestamp"`
}

// FillEntry is one maker/taker match within a FillOrderEvent.
type FillEntry struct {
	OrderID        matching.ID `json:"order_id"`
	MatchedOrderID matching.ID `json:"matched_order_id"`
	TakerSide      matching.Side `json:"taker_side"`
	Price          matching.Price `json:"price"`
	Quantity       matching.Quantity `json:"quantity"`
}

// FillOrderEvent is emitted when an operation fully consumes resting
// liquidity with nothing left resting.
type FillOrderEvent struct {
	Status    int         `json:"status"`
	Filled    []FillEntry `json:"filled"`
	Symbol    string      `json:"symbol"`
	Timestamp matching.ID `json:"timestamp"`
}

// PartialFillOrderEvent is emitted when an operation matches some
// liquidity and leaves a residual resting order; it nests the two
// bodies above, each stamped with status=2.
type PartialFillOrderEvent struct {
	Status        int              `json:"status"`
	PartialCreate CreateOrderEvent `json:"partial_create"`
	PartialFills  FillOrderEvent   `json:"partial_fills"`
	Symbol        string           `json:"symbol"`
	Timestamp     matching.ID      `json:"timestamp"`
}

// CancelModifyOrderEvent is emitted for a successful Modify (status=3) or
// Cancel (status=4).
type CancelModifyOrderEvent struct {
	Status    int         `json:"status"`
	OrderID   matching.ID `json:"order_id"`
	Symbol    string      `json:"symbol"`
	Timestamp matching.ID `json:"timestamp"`
}

// GenericMessageEvent carries every operation-level failure (empty-book
// market order, unknown id, no-op modify) as free text.
type GenericMessageEvent struct {
	Message   string      `json:"message"`
	Symbol    string      `json:"symbol"`
	Timestamp matching.ID `json:"timestamp"`
}

// Event bundles a subject name with its JSON-encodable payload, the unit
// the publisher actually hands to the message bus.
type Event struct {
	Subject string
	Payload interface{}
}

// FromExecutionResult maps an ExecutionResult to its wire event, the Go
// equivalent of the reference's exec_to_proto_encoded.
func FromExecutionResult(r matching.ExecutionResult) Event {
	switch r.Kind {
	case matching.ResultExecuted:
		return fromFillResult(r.Fill, r.Symbol, r.Timestamp)
	case matching.ResultModified:
		return fromModifyResult(r.Modify, r.Symbol, r.Timestamp)
	case matching.ResultCancelled:
		return Event{Subject: SubjectCancelModifyOrder, Payload: CancelModifyOrderEvent{
			Status: StatusCancelled, OrderID: r.Cancelled, Symbol: r.Symbol, Timestamp: r.Timestamp,
		}}
	default: // ResultFailed
		return Event{Subject: SubjectGenericMessage, Payload: GenericMessageEvent{
			Message: r.Reason, Symbol: r.Symbol, Timestamp: r.Timestamp,
		}}
	}
}

func fromFillResult(f matching.FillResult, symbol string, ts matching.ID) Event {
	switch f.Kind {
	case matching.FillCreated:
		return Event{Subject: SubjectCreateOrder, Payload: CreateOrderEvent{
			Status: StatusCreate, OrderID: f.Residual.ID, Price: f.Residual.Price,
			Quantity: f.Residual.Quantity, Side: f.Residual.Side, Symbol: symbol, Timestamp: ts,
		}}
	case matching.FillFilled:
		return Event{Subject: SubjectFillOrder, Payload: FillOrderEvent{
			Status: StatusFill, Filled: toFillEntries(f.Fills), Symbol: symbol, Timestamp: ts,
		}}
	case matching.FillPartiallyFilled:
		create := CreateOrderEvent{
			Status: StatusPartialFill, OrderID: f.Residual.ID, Price: f.Residual.Price,
			Quantity: f.Residual.Quantity, Side: f.Residual.Side, Symbol: symbol, Timestamp: ts,
		}
		fill := FillOrderEvent{Status: StatusPartialFill, Filled: toFillEntries(f.Fills), Symbol: symbol, Timestamp: ts}
		return Event{Subject: SubjectPartialFillOrder, Payload: PartialFillOrderEvent{
			Status: StatusPartialFill, PartialCreate: create, PartialFills: fill, Symbol: symbol, Timestamp: ts,
		}}
	default: // FillFailed
		return Event{Subject: SubjectGenericMessage, Payload: GenericMessageEvent{
			Message: f.Reason, Symbol: symbol, Timestamp: ts,
		}}
	}
}

func fromModifyResult(m matching.ModifyResult, symbol string, ts matching.ID) Event {
	switch m.Kind {
	case matching.ModifyModifiedKind:
		return Event{Subject: SubjectCancelModifyOrder, Payload: CancelModifyOrderEvent{
			Status: StatusModified, OrderID: m.ID, Symbol: symbol, Timestamp: ts,
		}}
	case matching.ModifyCreatedKind:
		return fromFillResult(m.Created, symbol, ts)
	default:
		return Event{Subject: SubjectGenericMessage, Payload: GenericMessageEvent{
			Message: m.Reason, Symbol: symbol, Timestamp: ts,
		}}
	}
}

func toFillEntries(fills []matching.FillMetaData) []FillEntry {
	out := make([]FillEntry, len(fills))
	for i, f := range fills {
		out[i] = FillEntry{
			OrderID: f.OrderID, MatchedOrderID: f.MatchedOrderID,
			TakerSide: f.TakerSide, Price: f.Price, Quantity: f.Quantity,
		}
	}
	return out
}
