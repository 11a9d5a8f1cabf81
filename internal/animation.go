package internal

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
)

type Easing func(t float64) float64

func Linear(t float64) float64 { return t }

func EaseInEaseOut(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}

// EasingByName resolves the easing names accepted in configuration.
func EasingByName(name string) (Easing, error) {
	switch strings.ToLower(name) {
	case "", "linear":
		return Linear, nil
	case "easeineaseout", "ease-in-out", "easeinout":
		return EaseInEaseOut, nil
	default:
		return nil, fmt.Errorf("unknown easing %q", name)
	}
}

// AnimationConfig describes how the layout changes of one batch animate.
type AnimationConfig struct {
	Duration time.Duration
	Easing   Easing
	// animate UpdateLayout on views that already have a frame
	Layout bool
	// animate UpdateProps that only change opacity
	Opacity bool
}

type animKind int

const (
	animLayout animKind = iota
	animOpacity
)

type animKey struct {
	tag  Tag
	kind animKind
}

type animation struct {
	key   animKey
	view  View
	start time.Time
	cfg   AnimationConfig
	group *animationGroup

	fromFrame, toFrame, frame Frame
	direction                 Direction

	fromOpacity, toOpacity, opacity float64
}

// animationGroup tracks the animations started by one configured batch.
type animationGroup struct {
	done        *Future[bool]
	pending     int
	interrupted bool
	// no more animations join once the batch committed
	sealed bool
}

func (g *animationGroup) finish(interrupted bool) {
	g.pending--
	g.interrupted = g.interrupted || interrupted
	g.settle()
}

func (g *animationGroup) settle() {
	if g.sealed && g.pending == 0 && g.done != nil {
		g.done.resolve(!g.interrupted, nil)
	}
}

// LayoutAnimator interpolates layout and opacity changes over several frames
// instead of applying them at once. It lives on the ui goroutine.
type LayoutAnimator struct {
	enabled bool

	// configuration of the batch being applied, nil when not animating
	config *AnimationConfig
	group  *animationGroup

	active map[animKey]*animation

	metrics *Metrics
}

func NewLayoutAnimator(metrics *Metrics) *LayoutAnimator {
	return &LayoutAnimator{
		active:  make(map[animKey]*animation),
		metrics: metrics,
	}
}

func (a *LayoutAnimator) SetEnabled(enabled bool) { a.enabled = enabled }

func (a *LayoutAnimator) Enabled() bool { return a.enabled }

// Configure animates the rest of the current batch. A second call in the
// same batch replaces the first, whose future settles with what it started.
func (a *LayoutAnimator) Configure(cfg AnimationConfig, done *Future[bool]) {
	if cfg.Easing == nil {
		cfg.Easing = Linear
	}
	a.sealGroup()
	a.config = &cfg
	a.group = &animationGroup{done: done}
}

func (a *LayoutAnimator) animating(kind animKind) bool {
	if !a.enabled || a.config == nil {
		return false
	}
	if kind == animLayout {
		return a.config.Layout
	}
	return a.config.Opacity
}

// ShouldAnimateLayout reports whether a layout change is handed to the animator.
func (a *LayoutAnimator) ShouldAnimateLayout() bool { return a.animating(animLayout) }

// ShouldAnimateOpacity reports whether an opacity-only change is handed over.
func (a *LayoutAnimator) ShouldAnimateOpacity() bool { return a.animating(animOpacity) }

// CurrentFrame is the frame on screen for tag, if a layout animation runs.
func (a *LayoutAnimator) CurrentFrame(tag Tag) (Frame, bool) {
	anim, ok := a.active[animKey{tag, animLayout}]
	if !ok {
		return Frame{}, false
	}
	return anim.frame, true
}

// CurrentOpacity is the opacity on screen for tag, if an opacity animation runs.
func (a *LayoutAnimator) CurrentOpacity(tag Tag) (float64, bool) {
	anim, ok := a.active[animKey{tag, animOpacity}]
	if !ok {
		return 0, false
	}
	return anim.opacity, true
}

// AnimateLayout starts moving view from one frame to another. A running
// layout animation on the same tag is interrupted first.
func (a *LayoutAnimator) AnimateLayout(tag Tag, view View, from, to Frame, dir Direction, now time.Time) {
	key := animKey{tag, animLayout}
	a.interrupt(key)
	a.start(&animation{
		key:       key,
		view:      view,
		fromFrame: from,
		toFrame:   to,
		frame:     from,
		direction: dir,
	}, now)
}

// AnimateOpacity starts fading view between two opacities.
func (a *LayoutAnimator) AnimateOpacity(tag Tag, view View, from, to float64, now time.Time) {
	key := animKey{tag, animOpacity}
	a.interrupt(key)
	a.start(&animation{
		key:         key,
		view:        view,
		fromOpacity: from,
		toOpacity:   to,
		opacity:     from,
	}, now)
}

func (a *LayoutAnimator) start(anim *animation, now time.Time) {
	anim.start = now
	anim.cfg = *a.config
	anim.group = a.group
	a.group.pending++
	a.active[anim.key] = anim
	a.metrics.animationStarted()
}

func (a *LayoutAnimator) interrupt(key animKey) bool {
	anim, ok := a.active[key]
	if !ok {
		return false
	}
	delete(a.active, key)
	anim.group.finish(true)
	a.metrics.animationInterrupted()
	return true
}

// InterruptLayout cancels the layout animation of tag, leaving the view where
// it is. The caller applies the new target.
func (a *LayoutAnimator) InterruptLayout(tag Tag) bool {
	return a.interrupt(animKey{tag, animLayout})
}

// InterruptOpacity cancels the opacity animation of tag.
func (a *LayoutAnimator) InterruptOpacity(tag Tag) bool {
	return a.interrupt(animKey{tag, animOpacity})
}

// Forget cancels everything running on removed views.
func (a *LayoutAnimator) Forget(tags []Tag) {
	for _, tag := range tags {
		a.interrupt(animKey{tag, animLayout})
		a.interrupt(animKey{tag, animOpacity})
	}
}

// EndBatch drops the batch configuration; its future resolves once the
// animations it started are done.
func (a *LayoutAnimator) EndBatch() {
	a.sealGroup()
	a.config = nil
	a.group = nil
}

func (a *LayoutAnimator) sealGroup() {
	if a.group == nil {
		return
	}
	a.group.sealed = true
	a.group.settle()
}

// Running is the number of animations in flight.
func (a *LayoutAnimator) Running() int { return len(a.active) }

// Tick advances every animation to now and pushes the interpolated values to
// the native views. Native failures and panics end the animation and are
// returned.
func (a *LayoutAnimator) Tick(now time.Time) []error {
	var errs []error

	// deterministic order keeps native call sequences reproducible
	keys := slices.SortedFunc(maps.Keys(a.active), func(x, y animKey) int {
		if x.tag != y.tag {
			return int(x.tag - y.tag)
		}
		return int(x.kind - y.kind)
	})

	for _, key := range keys {
		anim := a.active[key]

		finished, err := anim.step(now)
		if err != nil {
			errs = append(errs, fmt.Errorf("animate tag %d: %w", key.tag, err))
			delete(a.active, key)
			anim.group.finish(true)
			continue
		}
		if finished {
			delete(a.active, key)
			anim.group.finish(false)
		}
	}

	return errs
}

// step moves one animation to now. A panic from the easing or the native
// view is returned as an error.
func (anim *animation) step(now time.Time) (finished bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("animation panicked: %v", r)
		}
	}()

	progress := 1.0
	if anim.cfg.Duration > 0 {
		progress = float64(now.Sub(anim.start)) / float64(anim.cfg.Duration)
	}
	progress = min(max(progress, 0), 1)
	eased := anim.cfg.Easing(progress)

	switch anim.key.kind {
	case animLayout:
		anim.frame = lerpFrame(anim.fromFrame, anim.toFrame, eased)
		if progress >= 1 {
			anim.frame = anim.toFrame
		}
		err = anim.view.UpdateLayout(anim.frame, anim.direction)
	case animOpacity:
		anim.opacity = anim.fromOpacity + (anim.toOpacity-anim.fromOpacity)*eased
		if progress >= 1 {
			anim.opacity = anim.toOpacity
		}
		err = anim.view.UpdateProps(Props{"opacity": anim.opacity})
	}
	return progress >= 1, err
}

// Stop cancels every running animation, used on shutdown.
func (a *LayoutAnimator) Stop() {
	for key := range a.active {
		a.interrupt(key)
	}
	a.EndBatch()
}

func lerpFrame(from, to Frame, t float64) Frame {
	lerp := func(a, b int) int {
		return a + int(float64(b-a)*t+0.5*sign(b-a))
	}
	return Frame{
		X:      lerp(from.X, to.X),
		Y:      lerp(from.Y, to.Y),
		Width:  lerp(from.Width, to.Width),
		Height: lerp(from.Height, to.Height),
	}
}

func sign(v int) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
