package internal

import "fmt"

// Structural checks that need no registry access. Registry-dependent checks
// (tag existence, ownership, bounds) happen while applying.

func requireTag(tag Tag) error {
	if tag <= NoTag {
		return tagError(tag, ErrUnknownTag, "tag must be positive")
	}
	return nil
}

func (o CreateView) validate() error {
	if err := requireTag(o.Tag); err != nil {
		return err
	}
	if err := requireTag(o.RootTag); err != nil {
		return err
	}
	if o.TypeName == "" {
		return tagError(o.Tag, ErrPreconditionViolation, "empty type name")
	}
	return nil
}

func (o UpdateProps) validate() error { return requireTag(o.Tag) }

func (o UpdateLayout) validate() error {
	if err := requireTag(o.Tag); err != nil {
		return err
	}
	if o.Frame.Width < 0 || o.Frame.Height < 0 {
		return tagError(o.Tag, ErrPreconditionViolation, "negative size %dx%d", o.Frame.Width, o.Frame.Height)
	}
	return nil
}

func (o ManageChildren) validate() error {
	if err := requireTag(o.Tag); err != nil {
		return err
	}
	if len(o.MoveFrom) != len(o.MoveTo) {
		return tagError(o.Tag, ErrInvalidChildSet, "%d move sources for %d destinations", len(o.MoveFrom), len(o.MoveTo))
	}
	if len(o.AddTags) != len(o.AddAt) {
		return tagError(o.Tag, ErrInvalidChildSet, "%d added tags for %d indices", len(o.AddTags), len(o.AddAt))
	}
	if err := ascending(o.Tag, "moveFrom", o.MoveFrom); err != nil {
		return err
	}
	if err := ascending(o.Tag, "removeFrom", o.RemoveFrom); err != nil {
		return err
	}
	if err := ascending(o.Tag, "addAt", o.AddAt); err != nil {
		return err
	}
	for _, idx := range o.MoveTo {
		if idx < 0 {
			return tagError(o.Tag, ErrInvalidChildSet, "negative destination index %d", idx)
		}
	}
	for _, tag := range o.AddTags {
		if err := requireTag(tag); err != nil {
			return err
		}
	}
	return nil
}

// ascending requires strictly increasing, non-negative indices. Positional
// removal and insertion only work without index drift in that order.
func ascending(tag Tag, name string, idx []int) error {
	for i, v := range idx {
		if v < 0 {
			return tagError(tag, ErrInvalidChildSet, "negative index %d in %s", v, name)
		}
		if i > 0 && v <= idx[i-1] {
			return tagError(tag, ErrIndexOrder, "%s=%v", name, idx)
		}
	}
	return nil
}

func (o SetChildren) validate() error {
	if err := requireTag(o.Tag); err != nil {
		return err
	}
	seen := make(map[Tag]struct{}, len(o.Children))
	for _, child := range o.Children {
		if err := requireTag(child); err != nil {
			return err
		}
		if _, dup := seen[child]; dup {
			return tagError(o.Tag, ErrInvalidChildSet, "child %d listed twice", child)
		}
		seen[child] = struct{}{}
	}
	return nil
}

func (o RemoveRootView) validate() error { return requireTag(o.RootTag) }

func (o DispatchCommand) validate() error {
	if err := requireTag(o.Tag); err != nil {
		return err
	}
	if o.CommandID == "" {
		return tagError(o.Tag, ErrPreconditionViolation, "empty command id")
	}
	return nil
}

func (o Measure) validate() error {
	if o.Result == nil {
		return tagError(o.Tag, ErrPreconditionViolation, "measure without result token")
	}
	return requireTag(o.Tag)
}

func (o MeasureInWindow) validate() error {
	if o.Result == nil {
		return tagError(o.Tag, ErrPreconditionViolation, "measure without result token")
	}
	return requireTag(o.Tag)
}

func (o FindTargetForTouch) validate() error {
	if o.Result == nil {
		return tagError(o.Tag, ErrPreconditionViolation, "touch lookup without result token")
	}
	return requireTag(o.Tag)
}

func (o SendAccessibilityEvent) validate() error { return requireTag(o.Tag) }

func (o SetJSResponder) validate() error {
	if err := requireTag(o.Tag); err != nil {
		return err
	}
	return requireTag(o.InitialTag)
}

func (ClearJSResponder) validate() error { return nil }

func (o ConfigureLayoutAnimation) validate() error {
	if o.Config.Duration <= 0 {
		return fmt.Errorf("%w: animation duration must be positive, got %s", ErrPreconditionViolation, o.Config.Duration)
	}
	return nil
}

func (SetLayoutAnimationEnabled) validate() error { return nil }

func (o UIBlock) validate() error {
	if o.Fn == nil {
		return fmt.Errorf("%w: nil ui block", ErrPreconditionViolation)
	}
	return nil
}

// Validate runs the structural checks of op.
func Validate(op Operation) error {
	if op == nil {
		return fmt.Errorf("%w: nil operation", ErrPreconditionViolation)
	}
	return op.validate()
}
