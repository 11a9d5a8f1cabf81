package internal

import (
	"fmt"
	"sync"
)

// View is a native view handle. Every method is called on the ui goroutine.
type View interface {
	UpdateProps(props Props) error
	UpdateLayout(frame Frame, dir Direction) error
	// ReplaceChildren installs the complete ordered child list.
	ReplaceChildren(children []View) error
	DispatchCommand(commandID string, args []any) error
	SendAccessibilityEvent(eventType int) error
	// Drop releases native resources. The view is never used again.
	Drop()
}

// ResponderView is implemented by views that can stop native gesture handling
// while a JS responder is active.
type ResponderView interface {
	SetResponderBlocking(block bool)
}

// ViewFactory builds native views for a type name.
type ViewFactory interface {
	CreateView(typeName string, tag Tag, props Props) (View, error)
}

type ViewFactoryFunc func(typeName string, tag Tag, props Props) (View, error)

func (f ViewFactoryFunc) CreateView(typeName string, tag Tag, props Props) (View, error) {
	return f(typeName, tag, props)
}

// FactoryRegistry dispatches view creation by type name, falling back to a
// default factory when one is set.
type FactoryRegistry struct {
	mu        sync.RWMutex
	factories map[string]ViewFactory
	fallback  ViewFactory
}

func NewFactoryRegistry(fallback ViewFactory) *FactoryRegistry {
	return &FactoryRegistry{
		factories: make(map[string]ViewFactory),
		fallback:  fallback,
	}
}

func (r *FactoryRegistry) Register(typeName string, f ViewFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[typeName] = f
}

func (r *FactoryRegistry) CreateView(typeName string, tag Tag, props Props) (View, error) {
	r.mu.RLock()
	f, ok := r.factories[typeName]
	if !ok {
		f = r.fallback
	}
	r.mu.RUnlock()

	if f == nil {
		return nil, tagError(tag, ErrPreconditionViolation, "no view factory for %q", typeName)
	}
	view, err := f.CreateView(typeName, tag, props)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", typeName, err)
	}
	return view, nil
}

// MemoryView is a headless native view. It records everything it is told,
// which makes it the backend for tests and for terminal hosts.
type MemoryView struct {
	Tag      Tag
	TypeName string

	Props     Props
	Frame     Frame
	Direction Direction
	Children  []*MemoryView

	Commands      []string
	Accessibility []int
	Blocking      bool
	Dropped       bool
}

func NewMemoryView(typeName string, tag Tag, props Props) *MemoryView {
	return &MemoryView{Tag: tag, TypeName: typeName, Props: props.Clone()}
}

// MemoryViewFactory creates MemoryViews for any type name.
var MemoryViewFactory ViewFactory = ViewFactoryFunc(func(typeName string, tag Tag, props Props) (View, error) {
	return NewMemoryView(typeName, tag, props), nil
})

func (v *MemoryView) UpdateProps(props Props) error {
	v.Props = v.Props.merged(props)
	return nil
}

func (v *MemoryView) UpdateLayout(frame Frame, dir Direction) error {
	v.Frame = frame
	v.Direction = dir
	return nil
}

func (v *MemoryView) ReplaceChildren(children []View) error {
	out := make([]*MemoryView, 0, len(children))
	for _, c := range children {
		mv, ok := c.(*MemoryView)
		if !ok {
			return fmt.Errorf("%w: memory view cannot host %T", ErrPreconditionViolation, c)
		}
		out = append(out, mv)
	}
	v.Children = out
	return nil
}

func (v *MemoryView) DispatchCommand(commandID string, args []any) error {
	v.Commands = append(v.Commands, commandID)
	return nil
}

func (v *MemoryView) SendAccessibilityEvent(eventType int) error {
	v.Accessibility = append(v.Accessibility, eventType)
	return nil
}

func (v *MemoryView) SetResponderBlocking(block bool) { v.Blocking = block }

func (v *MemoryView) Drop() {
	v.Dropped = true
	v.Children = nil
}

// Opacity reads the "opacity" prop, defaulting to fully opaque.
func (v *MemoryView) Opacity() float64 {
	if o, ok := toFloat(v.Props["opacity"]); ok {
		return o
	}
	return 1
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
