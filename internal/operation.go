package internal

import (
	"maps"
	"slices"
)

// Props is a snapshot of view properties. Values are treated as immutable.
type Props map[string]any

// Clone deep-copies nested maps and slices so the snapshot can cross goroutines.
func (p Props) Clone() Props {
	if p == nil {
		return nil
	}
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case Props:
		return v.Clone()
	case map[string]any:
		return map[string]any(Props(v).Clone())
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// merged returns p overlaid with update. A nil value in update deletes the key.
func (p Props) merged(update Props) Props {
	out := maps.Clone(p)
	if out == nil {
		out = make(Props, len(update))
	}
	for k, v := range update {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Frame is a layout rectangle relative to the parent view.
type Frame struct {
	X, Y          int
	Width, Height int
}

func (f Frame) Contains(x, y float64) bool {
	return x >= float64(f.X) && x < float64(f.X+f.Width) &&
		y >= float64(f.Y) && y < float64(f.Y+f.Height)
}

type Direction int

const (
	DirectionInherit Direction = iota
	DirectionLTR
	DirectionRTL
)

func (d Direction) String() string {
	switch d {
	case DirectionLTR:
		return "ltr"
	case DirectionRTL:
		return "rtl"
	default:
		return "inherit"
	}
}

type OpKind int

const (
	OpCreateView OpKind = iota
	OpUpdateProps
	OpUpdateLayout
	OpManageChildren
	OpSetChildren
	OpRemoveRootView
	OpDispatchCommand
	OpMeasure
	OpMeasureInWindow
	OpFindTargetForTouch
	OpSendAccessibilityEvent
	OpSetJSResponder
	OpClearJSResponder
	OpConfigureLayoutAnimation
	OpSetLayoutAnimationEnabled
	OpUIBlock
)

var opKindNames = [...]string{
	OpCreateView:                "CreateView",
	OpUpdateProps:               "UpdateProps",
	OpUpdateLayout:              "UpdateLayout",
	OpManageChildren:            "ManageChildren",
	OpSetChildren:               "SetChildren",
	OpRemoveRootView:            "RemoveRootView",
	OpDispatchCommand:           "DispatchCommand",
	OpMeasure:                   "Measure",
	OpMeasureInWindow:           "MeasureInWindow",
	OpFindTargetForTouch:        "FindTargetForTouch",
	OpSendAccessibilityEvent:    "SendAccessibilityEvent",
	OpSetJSResponder:            "SetJSResponder",
	OpClearJSResponder:          "ClearJSResponder",
	OpConfigureLayoutAnimation:  "ConfigureLayoutAnimation",
	OpSetLayoutAnimationEnabled: "SetLayoutAnimationEnabled",
	OpUIBlock:                   "UIBlock",
}

func (k OpKind) String() string {
	if int(k) >= 0 && int(k) < len(opKindNames) {
		return opKindNames[k]
	}
	return "Unknown"
}

// Operation is one queued native-side mutation. The set of variants is closed:
// only types in this package implement it.
type Operation interface {
	Kind() OpKind
	// Target is the tag the operation acts on, NoTag when it has none.
	Target() Tag

	validate() error
}

type CreateView struct {
	Tag      Tag
	TypeName string
	RootTag  Tag
	Props    Props
}

func NewCreateView(tag Tag, typeName string, rootTag Tag, props Props) CreateView {
	return CreateView{Tag: tag, TypeName: typeName, RootTag: rootTag, Props: props.Clone()}
}

func (CreateView) Kind() OpKind  { return OpCreateView }
func (o CreateView) Target() Tag { return o.Tag }

type UpdateProps struct {
	Tag   Tag
	Props Props
}

func NewUpdateProps(tag Tag, props Props) UpdateProps {
	return UpdateProps{Tag: tag, Props: props.Clone()}
}

func (UpdateProps) Kind() OpKind  { return OpUpdateProps }
func (o UpdateProps) Target() Tag { return o.Tag }

type UpdateLayout struct {
	Tag       Tag
	ParentTag Tag
	Frame     Frame
	Direction Direction
}

func NewUpdateLayout(parentTag, tag Tag, x, y, width, height int, dir Direction) UpdateLayout {
	return UpdateLayout{
		Tag:       tag,
		ParentTag: parentTag,
		Frame:     Frame{X: x, Y: y, Width: width, Height: height},
		Direction: dir,
	}
}

func (UpdateLayout) Kind() OpKind  { return OpUpdateLayout }
func (o UpdateLayout) Target() Tag { return o.Tag }

// ManageChildren edits a parent's child list. MoveFrom[i] is relocated to
// MoveTo[i], AddTags[i] is inserted at AddAt[i], RemoveFrom children are
// dropped. All indices refer to the list before the operation, except the
// destinations MoveTo and AddAt which refer to the resulting list.
type ManageChildren struct {
	Tag        Tag
	MoveFrom   []int
	MoveTo     []int
	AddTags    []Tag
	AddAt      []int
	RemoveFrom []int
}

func NewManageChildren(tag Tag, moveFrom, moveTo []int, addTags []Tag, addAt, removeFrom []int) ManageChildren {
	return ManageChildren{
		Tag:        tag,
		MoveFrom:   slices.Clone(moveFrom),
		MoveTo:     slices.Clone(moveTo),
		AddTags:    slices.Clone(addTags),
		AddAt:      slices.Clone(addAt),
		RemoveFrom: slices.Clone(removeFrom),
	}
}

func (ManageChildren) Kind() OpKind  { return OpManageChildren }
func (o ManageChildren) Target() Tag { return o.Tag }

type SetChildren struct {
	Tag      Tag
	Children []Tag
}

func NewSetChildren(tag Tag, children []Tag) SetChildren {
	return SetChildren{Tag: tag, Children: slices.Clone(children)}
}

func (SetChildren) Kind() OpKind  { return OpSetChildren }
func (o SetChildren) Target() Tag { return o.Tag }

type RemoveRootView struct {
	RootTag Tag
}

func (RemoveRootView) Kind() OpKind  { return OpRemoveRootView }
func (o RemoveRootView) Target() Tag { return o.RootTag }

type DispatchCommand struct {
	Tag       Tag
	CommandID string
	Args      []any
}

func NewDispatchCommand(tag Tag, commandID string, args []any) DispatchCommand {
	cloned, _ := cloneValue(args).([]any)
	return DispatchCommand{Tag: tag, CommandID: commandID, Args: cloned}
}

func (DispatchCommand) Kind() OpKind  { return OpDispatchCommand }
func (o DispatchCommand) Target() Tag { return o.Tag }

// MeasureResult is the geometry of a view at the end of the batch that
// measured it. X/Y are relative to the parent, PageX/PageY to the root.
type MeasureResult struct {
	Tag           Tag
	X, Y          int
	Width, Height int
	PageX, PageY  int
}

type Measure struct {
	Tag    Tag
	Result *Future[MeasureResult]
}

func (Measure) Kind() OpKind  { return OpMeasure }
func (o Measure) Target() Tag { return o.Tag }

// MeasureInWindow resolves with X/Y in root coordinates.
type MeasureInWindow struct {
	Tag    Tag
	Result *Future[MeasureResult]
}

func (MeasureInWindow) Kind() OpKind  { return OpMeasureInWindow }
func (o MeasureInWindow) Target() Tag { return o.Tag }

// FindTargetForTouch resolves with the deepest descendant of Tag containing the
// point (X, Y), given in Tag's coordinate space.
type FindTargetForTouch struct {
	Tag    Tag
	X, Y   float64
	Result *Future[Tag]
}

func (FindTargetForTouch) Kind() OpKind  { return OpFindTargetForTouch }
func (o FindTargetForTouch) Target() Tag { return o.Tag }

type SendAccessibilityEvent struct {
	Tag       Tag
	EventType int
}

func (SendAccessibilityEvent) Kind() OpKind  { return OpSendAccessibilityEvent }
func (o SendAccessibilityEvent) Target() Tag { return o.Tag }

type SetJSResponder struct {
	Tag         Tag
	InitialTag  Tag
	BlockNative bool
}

func (SetJSResponder) Kind() OpKind  { return OpSetJSResponder }
func (o SetJSResponder) Target() Tag { return o.Tag }

type ClearJSResponder struct{}

func (ClearJSResponder) Kind() OpKind { return OpClearJSResponder }
func (ClearJSResponder) Target() Tag  { return NoTag }

// ConfigureLayoutAnimation animates the layout changes of the batch it is
// enqueued in. Done resolves true when every animation completed.
type ConfigureLayoutAnimation struct {
	Config AnimationConfig
	Done   *Future[bool]
}

func (ConfigureLayoutAnimation) Kind() OpKind { return OpConfigureLayoutAnimation }
func (ConfigureLayoutAnimation) Target() Tag  { return NoTag }

type SetLayoutAnimationEnabled struct {
	Enabled bool
}

func (SetLayoutAnimationEnabled) Kind() OpKind { return OpSetLayoutAnimationEnabled }
func (SetLayoutAnimationEnabled) Target() Tag  { return NoTag }

// UIBlock runs arbitrary read access against the registry on the ui goroutine.
type UIBlock struct {
	Fn func(ViewReader)
}

func (UIBlock) Kind() OpKind { return OpUIBlock }
func (UIBlock) Target() Tag  { return NoTag }
