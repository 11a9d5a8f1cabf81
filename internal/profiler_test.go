package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfiler(t *testing.T) {
	t.Run("one request, one batch", func(t *testing.T) {
		p := NewProfiler()
		assert.False(t, p.take())

		p.Request()
		p.Request()
		assert.True(t, p.take())
		assert.False(t, p.take())
	})

	t.Run("counters", func(t *testing.T) {
		p := NewProfiler()
		batch := &Batch{
			CommitStartTime: epoch,
			LayoutTime:      4 * time.Millisecond,
			DispatchedAt:    epoch.Add(5 * time.Millisecond),
		}
		bp := &batchProfile{batch: batch, runStart: epoch.Add(10 * time.Millisecond)}
		bp.count(OpCreateView)
		bp.count(OpCreateView)
		bp.count(OpUpdateProps)
		bp.count(OpUpdateLayout)

		p.finish(bp, epoch.Add(13*time.Millisecond))

		assert.Equal(t, map[string]int64{
			CounterCommitStartTime:         epoch.UnixMilli(),
			CounterLayoutTime:              4,
			CounterDispatchViewUpdatesTime: epoch.UnixMilli() + 5,
			CounterRunStartTime:            epoch.UnixMilli() + 10,
			CounterRunEndTime:              epoch.UnixMilli() + 13,
			CounterBatchedExecutionTime:    3,
			CounterCreateViewCount:         2,
			CounterUpdatePropsCount:        1,
		}, p.Counters())
	})

	t.Run("nil profile records nothing", func(t *testing.T) {
		p := NewProfiler()
		var bp *batchProfile
		bp.count(OpCreateView)
		p.finish(bp, epoch)

		assert.Empty(t, p.Counters())
	})
}
