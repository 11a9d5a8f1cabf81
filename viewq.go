package viewq

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/AnatoleLucet/viewq/internal"
	"github.com/prometheus/client_golang/prometheus"
)

type (
	Tag       = internal.Tag
	Props     = internal.Props
	Frame     = internal.Frame
	Direction = internal.Direction

	View            = internal.View
	ResponderView   = internal.ResponderView
	ViewFactory     = internal.ViewFactory
	ViewFactoryFunc = internal.ViewFactoryFunc
	FactoryRegistry = internal.FactoryRegistry
	MemoryView      = internal.MemoryView
	ViewReader      = internal.ViewReader
	TreeNode        = internal.TreeNode

	Future[T any] = internal.Future[T]
	Result[T any] = internal.Result[T]
	MeasureResult = internal.MeasureResult

	AnimationConfig = internal.AnimationConfig
	Easing          = internal.Easing

	CommitInfo           = internal.CommitInfo
	FrameStats           = internal.FrameStats
	Responder            = internal.Responder
	LayoutUpdateListener = internal.LayoutUpdateListener
	ErrorHandler         = internal.ErrorHandler
	OperationError       = internal.OperationError
	TagError             = internal.TagError

	Operation                 = internal.Operation
	OpKind                    = internal.OpKind
	CreateView                = internal.CreateView
	UpdateProps               = internal.UpdateProps
	UpdateLayout              = internal.UpdateLayout
	ManageChildren            = internal.ManageChildren
	SetChildren               = internal.SetChildren
	RemoveRootView            = internal.RemoveRootView
	DispatchCommand           = internal.DispatchCommand
	Measure                   = internal.Measure
	MeasureInWindow           = internal.MeasureInWindow
	FindTargetForTouch        = internal.FindTargetForTouch
	SendAccessibilityEvent    = internal.SendAccessibilityEvent
	SetJSResponder            = internal.SetJSResponder
	ClearJSResponder          = internal.ClearJSResponder
	ConfigureLayoutAnimation  = internal.ConfigureLayoutAnimation
	SetLayoutAnimationEnabled = internal.SetLayoutAnimationEnabled
	UIBlock                   = internal.UIBlock
)

const NoTag = internal.NoTag

const (
	DirectionInherit = internal.DirectionInherit
	DirectionLTR     = internal.DirectionLTR
	DirectionRTL     = internal.DirectionRTL
)

var (
	ErrDuplicateTag          = internal.ErrDuplicateTag
	ErrUnknownTag            = internal.ErrUnknownTag
	ErrInvalidChildSet       = internal.ErrInvalidChildSet
	ErrIndexOrder            = internal.ErrIndexOrder
	ErrPreconditionViolation = internal.ErrPreconditionViolation
	ErrWrongThread           = internal.ErrWrongThread
	ErrClosed                = internal.ErrClosed
)

var (
	Linear        Easing = internal.Linear
	EaseInEaseOut Easing = internal.EaseInEaseOut
)

// MemoryViewFactory builds headless views for every type name.
var MemoryViewFactory = internal.MemoryViewFactory

// NewMemoryView creates a headless view, usable as a root container.
func NewMemoryView(typeName string, tag Tag, props Props) *MemoryView {
	return internal.NewMemoryView(typeName, tag, props)
}

// NewFactoryRegistry creates a per-type-name view factory, using fallback for
// unregistered names (nil rejects them).
func NewFactoryRegistry(fallback ViewFactory) *FactoryRegistry {
	return internal.NewFactoryRegistry(fallback)
}

// Validate runs the structural checks applied to op before it executes.
func Validate(op Operation) error {
	return internal.Validate(op)
}

// UIManager turns the operations of a producer into native view mutations on
// the ui goroutine, one batch at a time.
//
// The Enqueue methods, DispatchViewUpdates and Batch may be called from any
// goroutine. AddRootView, RemoveRootView, Frame, Tree and Close belong to the
// ui goroutine, which is the first goroutine calling one of them.
type UIManager struct {
	queue      *internal.OperationQueue
	dispatcher *internal.Dispatcher
	tags       *internal.TagAllocator
	batcher    *internal.Batcher
	metrics    *internal.Metrics
	logger     *slog.Logger

	// fills the zero fields of configured animations
	animation AnimationConfig

	// ids handed to batches closed by Batch
	nextBatchID atomic.Int64
}

// NewTag allocates a fresh view tag.
func (m *UIManager) NewTag() Tag {
	return m.tags.NextTag()
}

// NewRootTag allocates a fresh root tag (1, 11, 21, ...).
func (m *UIManager) NewRootTag() Tag {
	return m.tags.NextRootTag()
}

// Enqueue appends a prebuilt operation to the open batch.
func (m *UIManager) Enqueue(op Operation) error {
	if !m.queue.Enqueue(op) {
		return ErrClosed
	}
	return nil
}

// EnqueueCreateView creates a view of typeName under rootTag. A tag equal to
// rootTag registers a new root.
func (m *UIManager) EnqueueCreateView(tag Tag, typeName string, rootTag Tag, props Props) error {
	return m.Enqueue(internal.NewCreateView(tag, typeName, rootTag, props))
}

// EnqueueUpdateProps merges props into the view; a nil value removes a prop.
func (m *UIManager) EnqueueUpdateProps(tag Tag, props Props) error {
	return m.Enqueue(internal.NewUpdateProps(tag, props))
}

// EnqueueUpdateLayout sets the frame of tag. A non-zero parentTag must be the
// current parent of tag.
func (m *UIManager) EnqueueUpdateLayout(parentTag, tag Tag, x, y, width, height int, dir Direction) error {
	return m.Enqueue(internal.NewUpdateLayout(parentTag, tag, x, y, width, height, dir))
}

// EnqueueManageChildren moves, adds and removes children of tag in one step.
func (m *UIManager) EnqueueManageChildren(tag Tag, moveFrom, moveTo []int, addTags []Tag, addAt, removeFrom []int) error {
	return m.Enqueue(internal.NewManageChildren(tag, moveFrom, moveTo, addTags, addAt, removeFrom))
}

// EnqueueSetChildren replaces the child list of tag.
func (m *UIManager) EnqueueSetChildren(tag Tag, children []Tag) error {
	return m.Enqueue(internal.NewSetChildren(tag, children))
}

// EnqueueRemoveRootView removes a root and every view created under it.
func (m *UIManager) EnqueueRemoveRootView(rootTag Tag) error {
	return m.Enqueue(internal.RemoveRootView{RootTag: rootTag})
}

func (m *UIManager) EnqueueDispatchCommand(tag Tag, commandID string, args ...any) error {
	return m.Enqueue(internal.NewDispatchCommand(tag, commandID, args))
}

func (m *UIManager) EnqueueSendAccessibilityEvent(tag Tag, eventType int) error {
	return m.Enqueue(internal.SendAccessibilityEvent{Tag: tag, EventType: eventType})
}

// EnqueueMeasure reads the geometry of tag as of the end of the batch. The
// future fails if the view is gone or not attached to a root.
func (m *UIManager) EnqueueMeasure(tag Tag) *Future[MeasureResult] {
	f := internal.NewFuture[MeasureResult]()
	if m.Enqueue(internal.Measure{Tag: tag, Result: f}) != nil {
		return internal.FailedFuture[MeasureResult](ErrClosed)
	}
	return f
}

// EnqueueMeasureInWindow is EnqueueMeasure with X and Y relative to the root.
func (m *UIManager) EnqueueMeasureInWindow(tag Tag) *Future[MeasureResult] {
	f := internal.NewFuture[MeasureResult]()
	if m.Enqueue(internal.MeasureInWindow{Tag: tag, Result: f}) != nil {
		return internal.FailedFuture[MeasureResult](ErrClosed)
	}
	return f
}

// EnqueueFindTargetForTouch resolves the deepest view under tag containing
// the point, NoTag when the point is outside tag.
func (m *UIManager) EnqueueFindTargetForTouch(tag Tag, x, y float64) *Future[Tag] {
	f := internal.NewFuture[Tag]()
	if m.Enqueue(internal.FindTargetForTouch{Tag: tag, X: x, Y: y, Result: f}) != nil {
		return internal.FailedFuture[Tag](ErrClosed)
	}
	return f
}

func (m *UIManager) EnqueueSetJSResponder(tag, initialTag Tag, blockNative bool) error {
	return m.Enqueue(internal.SetJSResponder{Tag: tag, InitialTag: initialTag, BlockNative: blockNative})
}

func (m *UIManager) EnqueueClearJSResponder() error {
	return m.Enqueue(internal.ClearJSResponder{})
}

// EnqueueConfigureLayoutAnimation animates the layout changes of the rest of
// the batch. Zero duration and easing take the configured defaults, and a
// config animating neither layout nor opacity animates both. The
// future reports whether every started animation ran to completion.
func (m *UIManager) EnqueueConfigureLayoutAnimation(cfg AnimationConfig) *Future[bool] {
	if cfg.Duration == 0 {
		cfg.Duration = m.animation.Duration
	}
	if cfg.Easing == nil {
		cfg.Easing = m.animation.Easing
	}
	if !cfg.Layout && !cfg.Opacity {
		cfg.Layout, cfg.Opacity = m.animation.Layout, m.animation.Opacity
	}

	done := internal.NewFuture[bool]()
	if m.Enqueue(internal.ConfigureLayoutAnimation{Config: cfg, Done: done}) != nil {
		return internal.FailedFuture[bool](ErrClosed)
	}
	return done
}

func (m *UIManager) EnqueueSetLayoutAnimationEnabled(enabled bool) error {
	return m.Enqueue(internal.SetLayoutAnimationEnabled{Enabled: enabled})
}

// EnqueueUIBlock runs fn on the ui goroutine at its position in the batch.
func (m *UIManager) EnqueueUIBlock(fn func(ViewReader)) error {
	return m.Enqueue(internal.UIBlock{Fn: fn})
}

// PrependUIBlock runs fn before everything else in the open batch.
func (m *UIManager) PrependUIBlock(fn func(ViewReader)) error {
	if !m.queue.Prepend(internal.UIBlock{Fn: fn}) {
		return ErrClosed
	}
	return nil
}

// DispatchViewUpdates closes the open batch and asks the host for a frame.
// The next operations form a new batch.
func (m *UIManager) DispatchViewUpdates(batchID int64, commitStart time.Time, layoutTime time.Duration) error {
	if !m.queue.MarkBatchEnd(batchID, commitStart, layoutTime) {
		return ErrClosed
	}
	m.dispatcher.Scheduler().Schedule()
	return nil
}

// SetLayoutUpdateListener is called on the ui goroutine after every batch.
func (m *UIManager) SetLayoutUpdateListener(l LayoutUpdateListener) {
	m.dispatcher.SetLayoutUpdateListener(l)
}

func (m *UIManager) RemoveLayoutUpdateListener() {
	m.dispatcher.RemoveLayoutUpdateListener()
}

// AddRootView registers a host container under a root tag.
func (m *UIManager) AddRootView(tag Tag, container View) error {
	return m.dispatcher.AddRootView(tag, container)
}

// RemoveRootView removes a root immediately, without going through the queue.
func (m *UIManager) RemoveRootView(tag Tag) error {
	return m.dispatcher.RemoveRootView(tag)
}

// RootViewNum is the number of registered roots as of the last commit.
func (m *UIManager) RootViewNum() int {
	return m.dispatcher.RootCount()
}

// Frame applies the pending batches and advances running animations.
// Call it once per ui frame.
func (m *UIManager) Frame(now time.Time) FrameStats {
	return m.dispatcher.Frame(now)
}

// NeedsFrame reports whether Frame has work to do.
func (m *UIManager) NeedsFrame() bool {
	return m.dispatcher.NeedsFrame()
}

// Tree snapshots the view subtree under tag.
func (m *UIManager) Tree(tag Tag) (*TreeNode, error) {
	return m.dispatcher.Registry().Tree(tag)
}

// Responder returns the active JS responder, if any.
func (m *UIManager) Responder() (Responder, bool) {
	return m.dispatcher.Responder()
}

// ProfileNextBatch records perf counters for the next batch applied.
func (m *UIManager) ProfileNextBatch() {
	m.dispatcher.Profiler().Request()
}

// ProfiledBatchPerfCounters returns the counters of the last profiled batch,
// empty when none was profiled.
func (m *UIManager) ProfiledBatchPerfCounters() map[string]int64 {
	return m.dispatcher.Profiler().Counters()
}

// Tags lists the registered tags as of the last commit.
func (m *UIManager) Tags() []Tag {
	return m.dispatcher.LiveTags()
}

// Metrics exposes the manager's prometheus registry.
func (m *UIManager) Metrics() *prometheus.Registry {
	return m.metrics.Registry
}

// Close discards queued operations and fails their futures with ErrClosed.
// Later enqueues return ErrClosed.
func (m *UIManager) Close() {
	m.dispatcher.Close()
	m.logger.Debug("ui manager closed")
}
