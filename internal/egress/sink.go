package egress

import (
	"context"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/orderflow/matchbook/internal/matching"
)

// ExecutedEvent pairs an ExecutionResult with the timestamp the executor
// assigned it, the unit the dispatch pipeline hands to the egress sink.
type ExecutedEvent struct {
	Result    matching.ExecutionResult
	Timestamp matching.ID
}

// Sink dispatches batches of ExecutedEvents onto a bounded goroutine pool
// so a burst of matching activity cannot spawn unbounded goroutines; this
// is the matching engine's analogue of the teacher's worker pool
// factory, sized once at construction rather than per-request.
type Sink struct {
	pool      *ants.Pool
	publisher *Publisher
	logger    *zap.Logger
}

// NewSink builds a Sink backed by a pool of the given size.
func NewSink(poolSize int, publisher *Publisher, logger *zap.Logger) (*Sink, error) {
	pool, err := ants.NewPool(poolSize, ants.WithPanicHandler(func(recovered interface{}) {
		logger.Error("egress worker panicked", zap.Any("recovered", recovered))
	}))
	if err != nil {
		return nil, err
	}
	return &Sink{pool: pool, publisher: publisher, logger: logger}, nil
}

// PublishBatch submits every event's encode+publish work to the pool.
// It returns as soon as submission completes; it does not wait for the
// publishes themselves, matching the reference's "spawn a detached task"
// fire-and-forget egress behaviour.
func (s *Sink) PublishBatch(ctx context.Context, events []ExecutedEvent) {
	for _, ev := range events {
		ev := ev
		wireEvent := FromExecutionResult(stampTimestamp(ev.Result, ev.Timestamp))
		err := s.pool.Submit(func() {
			s.publisher.Publish(ctx, wireEvent)
		})
		if err != nil {
			s.logger.Error("egress pool submit failed, publishing inline", zap.Error(err))
			s.publisher.Publish(ctx, wireEvent)
		}
	}
}

func stampTimestamp(r matching.ExecutionResult, ts matching.ID) matching.ExecutionResult {
	r.Timestamp = ts
	return r
}

// Release closes the worker pool. It does not wait for publishes that are
// already running to finish.
func (s *Sink) Release() {
	s.pool.Release()
}
