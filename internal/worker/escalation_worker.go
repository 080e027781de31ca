package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/why-platform/buzon-service/internal/service"
)

// EscalationWorker periodically sweeps tracked tickets and advances the
// overdue ones through their escalation chains.
type EscalationWorker struct {
	escalations *service.EscalationService
	interval    time.Duration
	logger      *zap.Logger
}

// NewEscalationWorker constructs the worker.
func NewEscalationWorker(escalations *service.EscalationService, interval time.Duration, logger *zap.Logger) *EscalationWorker {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &EscalationWorker{escalations: escalations, interval: interval, logger: logger}
}

// Run sweeps on a ticker until the context is cancelled.
func (w *EscalationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("escalation worker started", zap.Duration("interval", w.interval))
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("escalation worker stopped")
			return
		case <-ticker.C:
			result, err := w.escalations.Sweep(ctx)
			if err != nil {
				w.logger.Warn("escalation sweep failed", zap.Error(err))
				continue
			}
			if result.Escalated > 0 || result.Failed > 0 {
				w.logger.Info("escalation sweep completed",
					zap.Int("evaluated", result.Evaluated),
					zap.Int("escalated", result.Escalated),
					zap.Int("failed", result.Failed))
			}
		}
	}
}
