// Package dispatch implements the bounded ingress queue and the
// micro-batching executor that drains it into the matching engine.
package dispatch

import (
	"github.com/orderflow/matchbook/internal/matching"
	"github.com/orderflow/matchbook/internal/merrors"
)

// Queue is a bounded, multi-producer single-consumer channel of
// operations. Producers are request handlers; the single consumer is the
// Executor.
type Queue struct {
	ch chan matching.Operation
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	return &Queue{ch: make(chan matching.Operation, capacity)}
}

// TrySend enqueues op without blocking. It returns a CodeQueueFull
// MatchError only when the queue is full, the back-pressure case the
// transport façade maps to HTTP 503. It does not detect a stopped
// consumer: after the executor has returned, a send still succeeds while
// the buffer has room.
func (q *Queue) TrySend(op matching.Operation) error {
	select {
	case q.ch <- op:
		return nil
	default:
		return merrors.New(merrors.CodeQueueFull, "dispatch queue full")
	}
}

// Len reports the number of operations currently buffered, for the
// queue-depth gauge.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Cap reports the queue's configured capacity.
func (q *Queue) Cap() int {
	return cap(q.ch)
}
