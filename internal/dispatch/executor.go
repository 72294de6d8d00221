package dispatch

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/orderflow/matchbook/internal/egress"
	"github.com/orderflow/matchbook/internal/matching"
	"github.com/orderflow/matchbook/internal/metrics"
	"github.com/orderflow/matchbook/internal/snapshot"
)

// ExecutorConfig controls batching behaviour.
type ExecutorConfig struct {
	BatchSize    int
	BatchTimeout time.Duration
}

// DefaultExecutorConfig matches the configuration defaults named in the
// configuration surface: a 1000-operation batch, flushed at least every
// few milliseconds.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{BatchSize: 1000, BatchTimeout: 5 * time.Millisecond}
}

// Executor drains a Queue in micro-batches and applies each operation to
// the snapshot manager's primary engine, in exact dequeue order. It is
// the single writer of primary; nothing else may call Execute on it.
type Executor struct {
	queue   *Queue
	manager *snapshot.Manager
	sink    *egress.Sink
	logger  *zap.Logger
	metrics *metrics.Metrics
	cfg     ExecutorConfig
}

// NewExecutor constructs an Executor. sink may be nil in tests that only
// care about engine state, in which case results are simply discarded.
func NewExecutor(queue *Queue, manager *snapshot.Manager, sink *egress.Sink, logger *zap.Logger, m *metrics.Metrics, cfg ExecutorConfig) *Executor {
	return &Executor{queue: queue, manager: manager, sink: sink, logger: logger, metrics: m, cfg: cfg}
}

// Run drives the batching loop until ctx is cancelled. It accumulates
// operations into a buffer and processes the buffer once it reaches
// BatchSize or the batch timer fires with a non-empty buffer; on
// shutdown it processes whatever remains, then returns.
func (e *Executor) Run(ctx context.Context) {
	buffer := make([]matching.Operation, 0, e.cfg.BatchSize)
	ticker := time.NewTicker(e.cfg.BatchTimeout)
	defer ticker.Stop()

	for {
		e.metrics.QueueDepth.Set(float64(e.queue.Len()))
		select {
		case op := <-e.queue.ch:
			buffer = append(buffer, op)
			if len(buffer) >= e.cfg.BatchSize {
				buffer = e.processBatch(ctx, buffer)
			}
		case <-ticker.C:
			if len(buffer) > 0 {
				buffer = e.processBatch(ctx, buffer)
			}
		case <-ctx.Done():
			if len(buffer) > 0 {
				e.processBatch(ctx, buffer)
			}
			e.drain(ctx)
			return
		}
	}
}

// drain processes whatever is still sitting in the queue at shutdown so
// producers that enqueued just before the signal are not silently lost.
func (e *Executor) drain(ctx context.Context) {
	buffer := make([]matching.Operation, 0, e.cfg.BatchSize)
	for {
		select {
		case op := <-e.queue.ch:
			buffer = append(buffer, op)
		default:
			if len(buffer) > 0 {
				e.processBatch(ctx, buffer)
			}
			return
		}
	}
}

func (e *Executor) processBatch(ctx context.Context, batch []matching.Operation) []matching.Operation {
	e.metrics.BatchSize.Observe(float64(len(batch)))
	primary := e.manager.Primary()

	events := make([]egress.ExecutedEvent, 0, len(batch))
	for _, op := range batch {
		start := time.Now()
		result := primary.Execute(op)
		e.metrics.MatchLatency.Observe(time.Since(start).Seconds())
		e.metrics.OperationsTotal.WithLabelValues(resultLabel(result)).Inc()
		events = append(events, egress.ExecutedEvent{
			Result:    result,
			Timestamp: matching.NewTimestampID(time.Now()),
		})
	}

	if e.sink != nil {
		e.sink.PublishBatch(ctx, events)
	}

	return batch[:0]
}

func resultLabel(r matching.ExecutionResult) string {
	switch r.Kind {
	case matching.ResultExecuted:
		return "executed"
	case matching.ResultModified:
		return "modified"
	case matching.ResultCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}
