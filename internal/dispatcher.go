package internal

import (
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"
)

// CommitInfo is handed to the layout update listener after a batch applied.
type CommitInfo struct {
	BatchID         int64
	// scheduler frame the batch was applied in, counted from 0
	FrameNumber     int
	CommitStartTime time.Time
	LayoutTime      time.Duration
	Applied         int
	Failed          int
}

type LayoutUpdateListener func(CommitInfo)

type ErrorHandler func(*OperationError)

// FrameStats summarises one call to Dispatcher.Frame.
type FrameStats struct {
	Batches   int
	Applied   int
	Failed    int
	Pending   int
	Animating int
}

// Responder is the view currently holding the JS touch responder.
type Responder struct {
	Tag         Tag
	InitialTag  Tag
	BlockNative bool
}

type DispatcherOptions struct {
	Factory ViewFactory
	Logger  *slog.Logger
	Metrics *Metrics
	OnError ErrorHandler

	// wall time a frame may spend draining batches, 0 drains everything
	FrameBudget time.Duration
	// upper bound of batches per frame, 0 means no bound
	MaxBatchesPerFrame int

	AnimationsEnabled bool

	// called from the producer side when a batch is ready
	RequestFrame func()
}

// Dispatcher applies queued batches to the registry on the ui goroutine.
type Dispatcher struct {
	queue     *OperationQueue
	registry  *Registry
	factory   ViewFactory
	animator  *LayoutAnimator
	scheduler *Scheduler
	profiler  *Profiler
	metrics   *Metrics
	logger    *slog.Logger
	onError   ErrorHandler

	listener atomic.Pointer[LayoutUpdateListener]

	frameBudget time.Duration
	maxBatches  int

	responder *Responder
	closed    atomic.Bool

	// registry contents published for readers off the ui goroutine
	live atomic.Pointer[liveSet]

	// frame time of the batch being applied
	now time.Time
}

type liveSet struct {
	tags  []Tag
	roots int
}

func NewDispatcher(queue *OperationQueue, opts DispatcherOptions) *Dispatcher {
	if opts.Factory == nil {
		opts.Factory = MemoryViewFactory
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	d := &Dispatcher{
		queue:       queue,
		registry:    NewRegistry(),
		factory:     opts.Factory,
		animator:    NewLayoutAnimator(opts.Metrics),
		scheduler:   NewScheduler(opts.RequestFrame),
		profiler:    NewProfiler(),
		metrics:     opts.Metrics,
		logger:      opts.Logger,
		onError:     opts.OnError,
		frameBudget: opts.FrameBudget,
		maxBatches:  opts.MaxBatchesPerFrame,
	}
	d.animator.SetEnabled(opts.AnimationsEnabled)
	d.live.Store(&liveSet{})
	return d
}

func (d *Dispatcher) publish() {
	d.live.Store(&liveSet{
		tags:  slices.Sorted(d.registry.Tags()),
		roots: d.registry.RootCount(),
	})
}

// LiveTags lists the registered tags as of the last commit, ascending.
// Safe from any goroutine.
func (d *Dispatcher) LiveTags() []Tag {
	return slices.Clone(d.live.Load().tags)
}

// RootCount is the number of registered roots as of the last commit.
// Safe from any goroutine.
func (d *Dispatcher) RootCount() int {
	return d.live.Load().roots
}

func (d *Dispatcher) Registry() *Registry             { return d.registry }
func (d *Dispatcher) Animator() *LayoutAnimator       { return d.animator }
func (d *Dispatcher) Profiler() *Profiler             { return d.profiler }
func (d *Dispatcher) Scheduler() *Scheduler           { return d.scheduler }
func (d *Dispatcher) SetErrorHandler(h ErrorHandler) { d.onError = h }

func (d *Dispatcher) SetLayoutUpdateListener(l LayoutUpdateListener) {
	if l == nil {
		d.listener.Store(nil)
		return
	}
	d.listener.Store(&l)
}

func (d *Dispatcher) RemoveLayoutUpdateListener() {
	d.listener.Store(nil)
}

// Responder returns the active JS responder.
func (d *Dispatcher) Responder() (Responder, bool) {
	if d.responder == nil {
		return Responder{}, false
	}
	return *d.responder, true
}

// NeedsFrame reports whether a frame would do any work. ui goroutine only.
func (d *Dispatcher) NeedsFrame() bool {
	return d.scheduler.Scheduled() || !d.queue.IsEmpty() || d.animator.Running() > 0
}

// Frame is the per-frame entry point. It drains pending batches in order,
// each applied completely before the next starts, then advances animations.
// With nothing pending it does nothing.
func (d *Dispatcher) Frame(now time.Time) FrameStats {
	var stats FrameStats
	if d.closed.Load() {
		return stats
	}
	if err := d.registry.thread.check(); err != nil {
		d.logger.Error("frame skipped", "err", err)
		return stats
	}

	d.scheduler.Run(func() {
		start := time.Now()
		for {
			if d.maxBatches > 0 && stats.Batches >= d.maxBatches {
				break
			}
			// the first batch always runs, the budget only stops the next ones
			if stats.Batches > 0 && d.frameBudget > 0 && time.Since(start) >= d.frameBudget {
				break
			}

			batch, ok := d.queue.DrainOneBatch()
			if !ok {
				break
			}

			info := d.applyBatch(batch, now)
			stats.Batches++
			stats.Applied += info.Applied
			stats.Failed += info.Failed
		}

		for _, err := range d.animator.Tick(now) {
			d.logger.Warn("animation failed", "err", err)
		}
	})

	stats.Pending = d.queue.Len()
	stats.Animating = d.animator.Running()
	return stats
}

// deferred operations read geometry, they run once the whole batch applied
func deferred(op Operation) bool {
	switch op.(type) {
	case Measure, MeasureInWindow, FindTargetForTouch:
		return true
	}
	return false
}

func (d *Dispatcher) applyBatch(batch *Batch, now time.Time) CommitInfo {
	start := time.Now()

	var profile *batchProfile
	if d.profiler.take() {
		profile = &batchProfile{batch: batch, runStart: start}
	}

	d.now = now
	info := CommitInfo{
		BatchID:         batch.ID,
		FrameNumber:     d.scheduler.Time(),
		CommitStartTime: batch.CommitStartTime,
		LayoutTime:      batch.LayoutTime,
	}

	outcome := func(op Operation, err error) {
		if err != nil {
			info.Failed++
			d.report(batch.ID, op, err)
			return
		}
		info.Applied++
		d.metrics.applied(op.Kind())
		profile.count(op.Kind())
	}

	reads := make([]Operation, 0)
	for _, op := range batch.Ops {
		if op == nil {
			info.Failed++
			d.logger.Warn("nil operation skipped", "batch", batch.ID)
			continue
		}
		if deferred(op) {
			if err := op.validate(); err != nil {
				outcome(op, err)
				continue
			}
			reads = append(reads, op)
			continue
		}
		outcome(op, d.apply(op))
	}

	// measurements observe the registry as of the end of this batch
	for _, op := range reads {
		outcome(op, d.read(op))
	}

	d.animator.EndBatch()

	end := time.Now()
	d.profiler.finish(profile, end)
	d.metrics.committed(end.Sub(start), d.queue.Len(), d.registry.Len())
	d.logger.Debug("batch committed",
		"batch", batch.ID,
		"applied", info.Applied,
		"failed", info.Failed,
		"elapsed", end.Sub(start),
	)

	d.publish()
	d.notify(info)
	return info
}

func (d *Dispatcher) notify(info CommitInfo) {
	l := d.listener.Load()
	if l == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("layout update listener panicked", "batch", info.BatchID, "panic", r)
		}
	}()
	(*l)(info)
}

func (d *Dispatcher) report(batchID int64, op Operation, err error) {
	opErr := &OperationError{Kind: op.Kind(), Tag: op.Target(), BatchID: batchID, Err: err}

	d.metrics.failed(op.Kind(), err)
	d.logger.Warn("operation failed",
		"batch", batchID,
		"op", op.Kind().String(),
		"tag", int(op.Target()),
		"reason", Reason(err),
		"err", err,
	)
	failFuture(op, opErr)
	d.handleError(opErr)
}

func (d *Dispatcher) handleError(opErr *OperationError) {
	if d.onError == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("error handler panicked", "batch", opErr.BatchID, "panic", r)
		}
	}()
	d.onError(opErr)
}

// failFuture makes sure an operation carrying a result token never leaves it
// pending.
func failFuture(op Operation, err error) {
	switch op := op.(type) {
	case Measure:
		if op.Result != nil {
			op.Result.fail(err)
		}
	case MeasureInWindow:
		if op.Result != nil {
			op.Result.fail(err)
		}
	case FindTargetForTouch:
		if op.Result != nil {
			op.Result.fail(err)
		}
	case ConfigureLayoutAnimation:
		if op.Done != nil {
			op.Done.fail(err)
		}
	}
}

// apply runs one mutation. Panics from native views or ui blocks are turned
// into a failure of that operation only.
func (d *Dispatcher) apply(op Operation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", op.Kind(), r)
		}
	}()

	if err := op.validate(); err != nil {
		return err
	}

	switch op := op.(type) {
	case CreateView:
		return d.createView(op)
	case UpdateProps:
		return d.updateProps(op)
	case UpdateLayout:
		return d.updateLayout(op)
	case ManageChildren:
		dropped, err := d.registry.ManageChildren(op)
		d.forget(dropped)
		return err
	case SetChildren:
		return d.registry.ReparentChildren(op.Tag, op.Children)
	case RemoveRootView:
		removed, err := d.registry.RemoveRoot(op.RootTag)
		d.forget(removed)
		return err
	case DispatchCommand:
		view, err := d.registry.Lookup(op.Tag)
		if err != nil {
			return err
		}
		return view.DispatchCommand(op.CommandID, op.Args)
	case SendAccessibilityEvent:
		view, err := d.registry.Lookup(op.Tag)
		if err != nil {
			return err
		}
		return view.SendAccessibilityEvent(op.EventType)
	case SetJSResponder:
		return d.setResponder(op)
	case ClearJSResponder:
		d.clearResponder()
		return nil
	case ConfigureLayoutAnimation:
		d.animator.Configure(op.Config, op.Done)
		return nil
	case SetLayoutAnimationEnabled:
		d.animator.SetEnabled(op.Enabled)
		return nil
	case UIBlock:
		op.Fn(d.registry)
		return nil
	default:
		return fmt.Errorf("%w: unsupported operation %T", ErrPreconditionViolation, op)
	}
}

func (d *Dispatcher) read(op Operation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", op.Kind(), r)
		}
	}()

	switch op := op.(type) {
	case Measure:
		res, err := d.registry.Measure(op.Tag)
		if err != nil {
			return err
		}
		op.Result.resolve(res, nil)
	case MeasureInWindow:
		res, err := d.registry.Measure(op.Tag)
		if err != nil {
			return err
		}
		res.X, res.Y = res.PageX, res.PageY
		op.Result.resolve(res, nil)
	case FindTargetForTouch:
		target, err := d.registry.FindTarget(op.Tag, op.X, op.Y)
		if err != nil {
			return err
		}
		op.Result.resolve(target, nil)
	}
	return nil
}

func (d *Dispatcher) createView(op CreateView) error {
	isRoot := op.Tag == op.RootTag
	if !isRoot && !d.registry.IsRoot(op.RootTag) {
		return tagError(op.RootTag, ErrUnknownTag, "root view is not registered")
	}
	// no native view is built for a tag that cannot be registered
	if d.registry.Has(op.Tag) {
		return tagError(op.Tag, ErrDuplicateTag, "")
	}

	view, err := d.factory.CreateView(op.TypeName, op.Tag, op.Props)
	if err != nil {
		return err
	}
	if err := d.registry.Create(op.Tag, op.TypeName, view, NoTag, op.RootTag, isRoot); err != nil {
		view.Drop()
		return err
	}
	d.registry.setProps(op.Tag, op.Props)
	return nil
}

// opacityOnly reports whether props change nothing but a numeric opacity.
func opacityOnly(props Props) (float64, bool) {
	if len(props) != 1 {
		return 0, false
	}
	return toFloat(props["opacity"])
}

func (d *Dispatcher) updateProps(op UpdateProps) error {
	view, err := d.registry.Lookup(op.Tag)
	if err != nil {
		return err
	}

	if to, ok := opacityOnly(op.Props); ok && d.animator.ShouldAnimateOpacity() {
		from, running := d.animator.CurrentOpacity(op.Tag)
		if !running {
			from = 1
			if current, ok := toFloat(d.registry.entries[op.Tag].props["opacity"]); ok {
				from = current
			}
		}
		d.registry.setProps(op.Tag, op.Props)
		d.animator.AnimateOpacity(op.Tag, view, from, to, d.now)
		return nil
	}

	if _, ok := op.Props["opacity"]; ok {
		d.animator.InterruptOpacity(op.Tag)
	}
	if err := view.UpdateProps(op.Props); err != nil {
		return err
	}
	d.registry.setProps(op.Tag, op.Props)
	return nil
}

func (d *Dispatcher) updateLayout(op UpdateLayout) error {
	view, err := d.registry.Lookup(op.Tag)
	if err != nil {
		return err
	}
	if op.ParentTag != NoTag {
		if !d.registry.Has(op.ParentTag) {
			return tagError(op.ParentTag, ErrUnknownTag, "layout parent of %d", op.Tag)
		}
		if !d.registry.ownedBy(op.Tag, op.ParentTag) {
			return tagError(op.Tag, ErrPreconditionViolation, "not a child of %d", op.ParentTag)
		}
	}

	if d.animator.ShouldAnimateLayout() && d.registry.hasLayout(op.Tag) {
		from, running := d.animator.CurrentFrame(op.Tag)
		if !running {
			from = d.registry.entries[op.Tag].frame
		}
		d.registry.setLayout(op.Tag, op.Frame, op.Direction)
		d.animator.AnimateLayout(op.Tag, view, from, op.Frame, op.Direction, d.now)
		return nil
	}

	d.animator.InterruptLayout(op.Tag)
	if err := view.UpdateLayout(op.Frame, op.Direction); err != nil {
		return err
	}
	d.registry.setLayout(op.Tag, op.Frame, op.Direction)
	return nil
}

func (d *Dispatcher) setResponder(op SetJSResponder) error {
	view, err := d.registry.Lookup(op.Tag)
	if err != nil {
		return err
	}
	if !d.registry.Has(op.InitialTag) {
		return tagError(op.InitialTag, ErrUnknownTag, "initial responder")
	}

	d.clearResponder()
	d.responder = &Responder{Tag: op.Tag, InitialTag: op.InitialTag, BlockNative: op.BlockNative}
	if rv, ok := view.(ResponderView); ok && op.BlockNative {
		rv.SetResponderBlocking(true)
	}
	return nil
}

func (d *Dispatcher) clearResponder() {
	if d.responder == nil {
		return
	}
	if d.responder.BlockNative {
		if e, ok := d.registry.entries[d.responder.Tag]; ok {
			if rv, ok := e.view.(ResponderView); ok {
				rv.SetResponderBlocking(false)
			}
		}
	}
	d.responder = nil
}

// forget releases ui-side state held for removed views.
func (d *Dispatcher) forget(removed []Tag) {
	if len(removed) == 0 {
		return
	}
	d.animator.Forget(removed)
	if d.responder == nil {
		return
	}
	for _, tag := range removed {
		if tag == d.responder.Tag || tag == d.responder.InitialTag {
			d.responder = nil
			return
		}
	}
}

// AddRootView registers a host container as a root. ui goroutine only.
func (d *Dispatcher) AddRootView(tag Tag, view View) error {
	if view == nil {
		return tagError(tag, ErrPreconditionViolation, "nil root container")
	}
	if err := d.registry.Create(tag, "RootView", view, NoTag, tag, true); err != nil {
		return err
	}
	d.publish()
	d.logger.Debug("root view added", "tag", int(tag))
	return nil
}

// RemoveRootView tears down a root and everything under it right away.
func (d *Dispatcher) RemoveRootView(tag Tag) error {
	removed, err := d.registry.RemoveRoot(tag)
	if err != nil {
		return err
	}
	d.forget(removed)
	d.publish()
	d.logger.Debug("root view removed", "tag", int(tag), "views", len(removed))
	return nil
}

// Close stops the dispatcher. Queued operations are discarded and every
// pending result token fails with ErrClosed. ui goroutine only.
func (d *Dispatcher) Close() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}
	rest := d.queue.Close()
	for _, op := range rest {
		failFuture(op, ErrClosed)
	}
	d.animator.Stop()
	d.responder = nil
	d.publish()
	d.registry.thread.release()
	d.logger.Debug("dispatcher closed", "discarded", len(rest))
}
