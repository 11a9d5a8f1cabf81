package viewq

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, opts ...Option) *UIManager {
	t.Helper()
	m, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(m.Close)
	return m
}

// mountRoot registers a headless root container.
func mountRoot(t *testing.T, m *UIManager) (Tag, *MemoryView) {
	t.Helper()
	tag := m.NewRootTag()
	root := NewMemoryView("RootView", tag, nil)
	require.NoError(t, m.AddRootView(tag, root))
	return tag, root
}

func TestUIManager(t *testing.T) {
	t.Run("producer and ui goroutines", func(t *testing.T) {
		frames := make(chan struct{}, 1)
		m := newManager(t, WithFrameRequester(func() {
			select {
			case frames <- struct{}{}:
			default:
			}
		}))
		root, container := mountRoot(t, m)

		var measured *Future[MeasureResult]
		go func() {
			m.Batch(func() {
				text := m.NewTag()
				m.EnqueueCreateView(text, "Text", root, Props{"text": "hi"})
				m.EnqueueSetChildren(root, []Tag{text})
				m.EnqueueUpdateLayout(root, text, 4, 2, 40, 10, DirectionLTR)
				measured = m.EnqueueMeasure(text)
			})
		}()

		<-frames
		stats := m.Frame(time.Now())
		assert.Equal(t, 1, stats.Batches)
		assert.Equal(t, 4, stats.Applied)

		res, err := measured.Await(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 40, res.Width)
		assert.Equal(t, 4, res.PageX)

		require.Len(t, container.Children, 1)
		assert.Equal(t, "hi", container.Children[0].Props["text"])
		assert.Equal(t, 1, m.RootViewNum())
		assert.Len(t, m.Tags(), 2)
	})

	t.Run("nested batches dispatch once", func(t *testing.T) {
		m := newManager(t)
		root, _ := mountRoot(t, m)

		var commits []CommitInfo
		m.SetLayoutUpdateListener(func(info CommitInfo) { commits = append(commits, info) })

		m.Batch(func() {
			m.EnqueueCreateView(m.NewTag(), "View", root, nil)
			m.Batch(func() {
				m.EnqueueCreateView(m.NewTag(), "View", root, nil)
			})
			m.EnqueueCreateView(m.NewTag(), "View", root, nil)
		})
		m.Frame(time.Now())

		require.Len(t, commits, 1)
		assert.Equal(t, 3, commits[0].Applied)

		m.RemoveLayoutUpdateListener()
		m.Batch(func() { m.EnqueueCreateView(m.NewTag(), "View", root, nil) })
		m.Frame(time.Now())
		assert.Len(t, commits, 1)
	})

	t.Run("explicit batch ids", func(t *testing.T) {
		m := newManager(t)
		root, _ := mountRoot(t, m)

		var ids []int64
		m.SetLayoutUpdateListener(func(info CommitInfo) { ids = append(ids, info.BatchID) })

		require.NoError(t, m.EnqueueCreateView(m.NewTag(), "View", root, nil))
		require.NoError(t, m.DispatchViewUpdates(42, time.Now(), 0))
		require.NoError(t, m.DispatchViewUpdates(43, time.Now(), 0))
		m.Frame(time.Now())

		assert.Equal(t, []int64{42, 43}, ids)
	})

	t.Run("rejected operations reach the error handler", func(t *testing.T) {
		var errs []*OperationError
		m := newManager(t, WithErrorHandler(func(err *OperationError) { errs = append(errs, err) }))
		root, _ := mountRoot(t, m)

		m.Batch(func() {
			m.EnqueueCreateView(root, "RootView", root, nil)
			m.EnqueueDispatchCommand(404, "focus")
		})
		stats := m.Frame(time.Now())

		assert.Equal(t, 2, stats.Failed)
		require.Len(t, errs, 2)
		assert.ErrorIs(t, errs[0], ErrDuplicateTag)
		assert.ErrorIs(t, errs[1], ErrUnknownTag)
	})

	t.Run("animation defaults come from the config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Animation.Duration = 100 * time.Millisecond
		cfg.Animation.Easing = "linear"
		m := newManager(t, WithConfig(cfg))
		root, _ := mountRoot(t, m)

		box := m.NewTag()
		m.Batch(func() {
			m.EnqueueCreateView(box, "View", root, nil)
			m.EnqueueSetChildren(root, []Tag{box})
			m.EnqueueUpdateLayout(root, box, 0, 0, 10, 10, DirectionLTR)
		})
		start := time.Now()
		m.Frame(start)

		var done *Future[bool]
		m.Batch(func() {
			done = m.EnqueueConfigureLayoutAnimation(AnimationConfig{Layout: true})
			m.EnqueueUpdateLayout(root, box, 100, 0, 10, 10, DirectionLTR)
		})
		m.Frame(start)
		assert.True(t, m.NeedsFrame())

		m.Frame(start.Add(50 * time.Millisecond))
		tree, err := m.Tree(box)
		require.NoError(t, err)
		assert.Equal(t, 100, tree.Frame.X)

		m.Frame(start.Add(100 * time.Millisecond))
		ok, err := done.Await(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.False(t, m.NeedsFrame())
	})

	t.Run("empty animation config animates layout and opacity", func(t *testing.T) {
		m := newManager(t)
		root, _ := mountRoot(t, m)

		box := m.NewTag()
		m.Batch(func() {
			m.EnqueueCreateView(box, "View", root, nil)
			m.EnqueueSetChildren(root, []Tag{box})
			m.EnqueueUpdateLayout(root, box, 0, 0, 10, 10, DirectionLTR)
		})
		start := time.Now()
		m.Frame(start)

		var done *Future[bool]
		m.Batch(func() {
			done = m.EnqueueConfigureLayoutAnimation(AnimationConfig{})
			m.EnqueueUpdateLayout(root, box, 100, 0, 10, 10, DirectionLTR)
			m.EnqueueUpdateProps(box, Props{"opacity": 0.5})
		})
		stats := m.Frame(start)

		assert.Equal(t, 2, stats.Animating)
		assert.False(t, done.Resolved())

		m.Frame(start.Add(time.Minute))
		ok, err := done.Await(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("ui blocks and responder", func(t *testing.T) {
		m := newManager(t)
		root, _ := mountRoot(t, m)

		log := []string{}
		m.Batch(func() {
			require.NoError(t, m.EnqueueUIBlock(func(r ViewReader) { log = append(log, "block") }))
			require.NoError(t, m.PrependUIBlock(func(r ViewReader) { log = append(log, "first") }))
			require.NoError(t, m.EnqueueSetJSResponder(root, root, false))
		})
		m.Frame(time.Now())

		assert.Equal(t, []string{"first", "block"}, log)
		r, ok := m.Responder()
		require.True(t, ok)
		assert.Equal(t, root, r.Tag)

		m.Batch(func() { m.EnqueueClearJSResponder() })
		m.Frame(time.Now())
		_, ok = m.Responder()
		assert.False(t, ok)
	})

	t.Run("profiling", func(t *testing.T) {
		m := newManager(t)
		root, _ := mountRoot(t, m)

		m.ProfileNextBatch()
		m.Batch(func() {
			m.EnqueueCreateView(m.NewTag(), "View", root, nil)
			m.EnqueueCreateView(m.NewTag(), "View", root, nil)
		})
		m.Frame(time.Now())

		assert.Equal(t, int64(2), m.ProfiledBatchPerfCounters()["CreateViewCount"])
	})

	t.Run("snapshots are readable from any goroutine", func(t *testing.T) {
		m := newManager(t)
		root, _ := mountRoot(t, m)
		m.Batch(func() { m.EnqueueCreateView(m.NewTag(), "View", root, nil) })
		m.Frame(time.Now())

		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.Equal(t, 1, m.RootViewNum())
				assert.Len(t, m.Tags(), 2)
			}()
		}
		wg.Wait()
	})

	t.Run("closed manager", func(t *testing.T) {
		m := newManager(t)
		root, _ := mountRoot(t, m)

		pending := m.EnqueueMeasure(root)
		m.Close()

		assert.ErrorIs(t, pending.Result().Err, ErrClosed)
		assert.ErrorIs(t, m.EnqueueUpdateProps(root, Props{"a": 1}), ErrClosed)
		assert.ErrorIs(t, m.PrependUIBlock(func(ViewReader) {}), ErrClosed)
		assert.ErrorIs(t, m.DispatchViewUpdates(1, time.Now(), 0), ErrClosed)
		assert.ErrorIs(t, m.EnqueueFindTargetForTouch(root, 0, 0).Result().Err, ErrClosed)
		assert.ErrorIs(t, m.EnqueueConfigureLayoutAnimation(AnimationConfig{}).Result().Err, ErrClosed)
		assert.Equal(t, FrameStats{}, m.Frame(time.Now()))
		assert.NotPanics(t, func() { m.Batch(func() {}) })
	})
}

func TestNew(t *testing.T) {
	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Animation.Easing = "bounce"
		_, err := New(WithConfig(cfg))
		assert.ErrorContains(t, err, "invalid config")

		cfg = DefaultConfig()
		cfg.Log.Format = "xml"
		_, err = New(WithConfig(cfg))
		assert.ErrorContains(t, err, "invalid config")
	})

	t.Run("logs through the configured output", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Log.Level = "debug"
		var out bytes.Buffer
		m := newManager(t, WithConfig(cfg), WithLogOutput(&out))
		mountRoot(t, m)

		m.Batch(func() { m.EnqueueUpdateProps(999, Props{"a": 1}) })
		m.Frame(time.Now())

		assert.Contains(t, out.String(), "root view added")
		assert.Contains(t, out.String(), "operation failed")
		assert.Contains(t, out.String(), "batch committed")
	})

	t.Run("metrics namespace", func(t *testing.T) {
		m := newManager(t, WithMetricsNamespace("demo"))
		root, _ := mountRoot(t, m)
		m.Batch(func() { m.EnqueueCreateView(m.NewTag(), "View", root, nil) })
		m.Frame(time.Now())

		families, err := m.Metrics().Gather()
		require.NoError(t, err)

		names := make([]string, 0, len(families))
		for _, f := range families {
			names = append(names, f.GetName())
		}
		assert.Contains(t, names, "demo_batches_committed_total")
		assert.Contains(t, names, "demo_operations_applied_total")
	})

	t.Run("custom view factory", func(t *testing.T) {
		created := []string{}
		factories := NewFactoryRegistry(nil)
		factories.Register("Text", ViewFactoryFunc(func(typeName string, tag Tag, props Props) (View, error) {
			created = append(created, typeName)
			return NewMemoryView(typeName, tag, props), nil
		}))

		var errs []*OperationError
		m := newManager(t, WithViewFactory(factories), WithErrorHandler(func(err *OperationError) { errs = append(errs, err) }))
		root, _ := mountRoot(t, m)

		m.Batch(func() {
			m.EnqueueCreateView(m.NewTag(), "Text", root, nil)
			m.EnqueueCreateView(m.NewTag(), "Image", root, nil)
		})
		m.Frame(time.Now())

		assert.Equal(t, []string{"Text"}, created)
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], ErrPreconditionViolation)
	})
}

func TestValidateOperations(t *testing.T) {
	assert.NoError(t, Validate(SetChildren{Tag: 1, Children: []Tag{2, 3}}))
	assert.ErrorIs(t, Validate(ManageChildren{Tag: 1, RemoveFrom: []int{1, 1}}), ErrIndexOrder)
	assert.ErrorIs(t, Validate(nil), ErrPreconditionViolation)
}
