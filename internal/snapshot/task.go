package snapshot

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/orderflow/matchbook/internal/metrics"
)

// Task ticks on a fixed period and commands Manager to rotate its
// secondary. It exits promptly when ctx is cancelled.
type Task struct {
	manager  *Manager
	interval time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewTask constructs a snapshot task with the given rotation interval.
func NewTask(manager *Manager, interval time.Duration, logger *zap.Logger, m *metrics.Metrics) *Task {
	return &Task{manager: manager, interval: interval, logger: logger, metrics: m}
}

// Run blocks, rotating the snapshot every interval, until ctx is done.
func (t *Task) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.manager.Snapshot()
			t.metrics.SnapshotTotal.Inc()
			t.logger.Debug("snapshot rotated", zap.String("engine_id", t.manager.Primary().ID()))
		case <-ctx.Done():
			t.logger.Debug("snapshot task stopping")
			return
		}
	}
}
