package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/AnatoleLucet/viewq"
)

const (
	maxItems  = 8
	itemWidth = 36
)

// feed is the producer: a list that grows at the top, drops its oldest
// entry and now and then swaps its first two rows.
type feed struct {
	mgr    *viewq.UIManager
	root   viewq.Tag
	logger *slog.Logger

	list  viewq.Tag
	items []viewq.Tag
	steps int

	// newest measurement request, read by the ui
	measured atomic.Pointer[viewq.Future[viewq.MeasureResult]]
}

func newFeed(mgr *viewq.UIManager, root viewq.Tag, logger *slog.Logger) *feed {
	return &feed{mgr: mgr, root: root, logger: logger}
}

func (f *feed) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.step()
		}
	}
}

// step computes one batch of changes.
func (f *feed) step() {
	f.steps++
	f.mgr.Batch(func() {
		if f.list == viewq.NoTag {
			f.mount()
		}

		done := f.mgr.EnqueueConfigureLayoutAnimation(viewq.AnimationConfig{Layout: true, Opacity: true})
		go f.awaitAnimation(done)

		if f.steps%5 == 0 && len(f.items) >= 2 {
			f.check(f.mgr.EnqueueManageChildren(f.list, []int{0, 1}, []int{1, 0}, nil, nil, nil))
			f.items[0], f.items[1] = f.items[1], f.items[0]
		}

		tag := f.mgr.NewTag()
		f.check(f.mgr.EnqueueCreateView(tag, "Item", f.root, viewq.Props{
			"label":   fmt.Sprintf("item %d", f.steps),
			"opacity": 0.0,
		}))

		var remove []int
		if len(f.items) >= maxItems {
			remove = []int{len(f.items) - 1}
			f.items = f.items[:len(f.items)-1]
		}
		f.check(f.mgr.EnqueueManageChildren(f.list, nil, nil, []viewq.Tag{tag}, []int{0}, remove))
		f.items = append([]viewq.Tag{tag}, f.items...)

		for i, item := range f.items {
			f.check(f.mgr.EnqueueUpdateLayout(f.list, item, 0, i, itemWidth, 1, viewq.DirectionLTR))
		}
		f.check(f.mgr.EnqueueUpdateLayout(f.root, f.list, 2, 1, itemWidth, len(f.items), viewq.DirectionLTR))
		f.check(f.mgr.EnqueueUpdateProps(tag, viewq.Props{"opacity": 1.0}))

		f.measured.Store(f.mgr.EnqueueMeasure(tag))
	})
}

func (f *feed) mount() {
	f.list = f.mgr.NewTag()
	f.check(f.mgr.EnqueueCreateView(f.list, "List", f.root, viewq.Props{"title": "feed"}))
	f.check(f.mgr.EnqueueSetChildren(f.root, []viewq.Tag{f.list}))
	f.check(f.mgr.EnqueueUpdateLayout(viewq.NoTag, f.root, 0, 0, itemWidth+4, maxItems+2, viewq.DirectionLTR))
}

func (f *feed) awaitAnimation(done *viewq.Future[bool]) {
	completed, err := done.Await(context.Background())
	if err != nil {
		f.logger.Debug("animation not run", "err", err)
		return
	}
	f.logger.Debug("animation settled", "completed", completed)
}

func (f *feed) check(err error) {
	if err != nil {
		f.logger.Debug("enqueue rejected", "err", err)
	}
}
