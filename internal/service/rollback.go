package service

import (
	"context"

	"catalog-service/internal/metrics"
	"catalog-service/pkg/logger"

	"go.uber.org/zap"
)

// undoLog records compensating actions for a multi-step write.
// Steps run in reverse order when a later step fails.
type undoLog struct {
	steps   []undoStep
	metrics *metrics.Metrics
}

type undoStep struct {
	name string
	fn   func(ctx context.Context) error
}

func newUndoLog(m *metrics.Metrics) *undoLog {
	return &undoLog{metrics: m}
}

// push registers the action that reverts the step just completed
func (u *undoLog) push(name string, fn func(ctx context.Context) error) {
	u.steps = append(u.steps, undoStep{name: name, fn: fn})
}

// rollback runs every registered step, newest first. It keeps going after a
// failed step and detaches from ctx cancellation so a dropped request still cleans up.
func (u *undoLog) rollback(ctx context.Context, cause error) {
	log := logger.FromCtx(ctx)
	ctx = context.WithoutCancel(ctx)

	for i := len(u.steps) - 1; i >= 0; i-- {
		step := u.steps[i]
		err := step.fn(ctx)
		u.metrics.RecordCompensation(step.name, err)
		if err != nil {
			log.Error("Compensating action failed",
				zap.String("step", step.name),
				zap.NamedError("cause", cause),
				zap.Error(err))
			continue
		}
		log.Warn("Compensating action applied",
			zap.String("step", step.name),
			zap.NamedError("cause", cause))
	}
	u.steps = nil
}
