package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orderflow/matchbook/internal/matching"
	"github.com/orderflow/matchbook/internal/metrics"
	"github.com/orderflow/matchbook/internal/snapshot"
)

// TestExecutorAppliesInEnqueueOrder sends a long run of modify operations
// for the same resting order, each setting a distinct quantity, and
// asserts the resting quantity after the run reflects the last one sent:
// the executor's batching must never reorder operations relative to the
// order they were enqueued in.
func TestExecutorAppliesInEnqueueOrder(t *testing.T) {
	manager := snapshot.NewManager("test", "XYZ", 64, 8)
	queue := NewQueue(1000)
	logger := zap.NewNop()
	m := metrics.New(prometheus.NewRegistry())
	executor := NewExecutor(queue, manager, nil, logger, m, ExecutorConfig{BatchSize: 16, BatchTimeout: time.Millisecond})

	orderID := matching.ID{15: 1}
	res := manager.Primary().Execute(matching.Operation{
		Kind:  matching.OpLimit,
		Limit: matching.LimitOrder{ID: orderID, Price: 100, Quantity: 1, Side: matching.Bid},
	})
	require.Equal(t, matching.ResultExecuted, res.Kind)

	ctx, cancel := context.WithCancel(context.Background())
	go executor.Run(ctx)

	const n = 500
	for i := 1; i <= n; i++ {
		require.NoError(t, queue.TrySend(matching.Operation{
			Kind:  matching.OpModify,
			Limit: matching.LimitOrder{ID: orderID, Price: 100, Quantity: matching.Quantity(i), Side: matching.Bid},
		}))
	}

	require.Eventually(t, func() bool {
		order, ok := manager.Primary().OrderByID(orderID)
		return ok && order.Quantity == matching.Quantity(n)
	}, 2*time.Second, time.Millisecond)

	cancel()

	order, ok := manager.Primary().OrderByID(orderID)
	require.True(t, ok)
	assert.EqualValues(t, n, order.Quantity)
}
