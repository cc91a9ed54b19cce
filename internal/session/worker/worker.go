package worker

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// TaskSweepExpired is enqueued on a fixed schedule; the handler walks every
// lapsed active session through the same teardown path as an explicit stop.
const TaskSweepExpired = "multiplayer:sweep_expired"

// Sweeper is the slice of the orchestrator the worker needs.
type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

type SweepWorker struct {
	sweeper Sweeper
	logger  *slog.Logger
}

func NewSweepWorker(sweeper Sweeper, logger *slog.Logger) *SweepWorker {
	return &SweepWorker{
		sweeper: sweeper,
		logger:  logger.With("component", "sweep-worker"),
	}
}

func (w *SweepWorker) HandleSweepExpired(ctx context.Context, task *asynq.Task) error {
	swept, err := w.sweeper.SweepExpired(ctx)
	if err != nil {
		w.logger.Error("Expiry sweep failed", "error", err)
		return err
	}
	if swept > 0 {
		w.logger.Info("Expiry sweep completed", "swept", swept)
	}
	return nil
}
