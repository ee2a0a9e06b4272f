package service

import (
	"context"
	"testing"

	"catalog-service/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestUndoLog_RunsNewestFirst(t *testing.T) {
	m := metrics.NewMetrics("test", prometheus.NewRegistry())
	undo := newUndoLog(m)

	var order []string
	step := func(name string, err error) func(context.Context) error {
		return func(ctx context.Context) error {
			assert.NoError(t, ctx.Err())
			order = append(order, name)
			return err
		}
	}
	undo.push("first", step("first", nil))
	undo.push("second", step("second", errBoom))
	undo.push("third", step("third", nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	undo.rollback(ctx, errBoom)

	assert.Equal(t, []string{"third", "second", "first"}, order)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompensationsCounter.WithLabelValues("second", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CompensationsCounter.WithLabelValues("first", "ok")))

	// steps are consumed
	order = nil
	undo.rollback(context.Background(), errBoom)
	assert.Empty(t, order)
}
