package internal

import (
	"maps"
	"sync"
	"sync/atomic"
	"time"
)

// Perf counter names recorded for a profiled batch. Times are milliseconds,
// timestamps are unix milliseconds.
const (
	CounterCommitStartTime         = "CommitStartTime"
	CounterLayoutTime              = "LayoutTime"
	CounterDispatchViewUpdatesTime = "DispatchViewUpdatesTime"
	CounterRunStartTime            = "RunStartTime"
	CounterRunEndTime              = "RunEndTime"
	CounterBatchedExecutionTime    = "BatchedExecutionTime"
	CounterCreateViewCount         = "CreateViewCount"
	CounterUpdatePropsCount        = "UpdatePropsCount"
)

// Profiler records perf counters for the next batch after a request.
type Profiler struct {
	requested atomic.Bool

	mu       sync.Mutex
	counters map[string]int64
}

func NewProfiler() *Profiler {
	return &Profiler{counters: make(map[string]int64)}
}

// Request profiles the next drained batch.
func (p *Profiler) Request() {
	p.requested.Store(true)
}

// take consumes a pending request.
func (p *Profiler) take() bool {
	return p.requested.CompareAndSwap(true, false)
}

// Counters returns a copy of the counters of the last profiled batch, empty
// when nothing was profiled.
func (p *Profiler) Counters() map[string]int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return maps.Clone(p.counters)
}

// batchProfile accumulates counters while one batch is applied.
type batchProfile struct {
	batch    *Batch
	runStart time.Time
	creates  int64
	updates  int64
}

func (bp *batchProfile) count(kind OpKind) {
	if bp == nil {
		return
	}
	switch kind {
	case OpCreateView:
		bp.creates++
	case OpUpdateProps:
		bp.updates++
	}
}

func (p *Profiler) finish(bp *batchProfile, runEnd time.Time) {
	if bp == nil {
		return
	}
	counters := map[string]int64{
		CounterCommitStartTime:         bp.batch.CommitStartTime.UnixMilli(),
		CounterLayoutTime:              bp.batch.LayoutTime.Milliseconds(),
		CounterDispatchViewUpdatesTime: bp.batch.DispatchedAt.UnixMilli(),
		CounterRunStartTime:            bp.runStart.UnixMilli(),
		CounterRunEndTime:              runEnd.UnixMilli(),
		CounterBatchedExecutionTime:    runEnd.Sub(bp.runStart).Milliseconds(),
		CounterCreateViewCount:         bp.creates,
		CounterUpdatePropsCount:        bp.updates,
	}

	p.mu.Lock()
	p.counters = counters
	p.mu.Unlock()
}
