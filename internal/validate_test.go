package internal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	for _, tt := range []struct {
		name string
		op   Operation
		want error
	}{
		{"nil", nil, ErrPreconditionViolation},
		{"create without tag", NewCreateView(0, "View", 1, nil), ErrUnknownTag},
		{"create without type", NewCreateView(2, "", 1, nil), ErrPreconditionViolation},
		{"negative size", NewUpdateLayout(1, 2, 0, 0, -1, 5, DirectionLTR), ErrPreconditionViolation},
		{"unpaired moves", NewManageChildren(1, []int{0}, nil, nil, nil, nil), ErrInvalidChildSet},
		{"unpaired adds", NewManageChildren(1, nil, nil, []Tag{2}, nil, nil), ErrInvalidChildSet},
		{"descending removals", NewManageChildren(1, nil, nil, nil, nil, []int{3, 1}), ErrIndexOrder},
		{"descending inserts", NewManageChildren(1, nil, nil, []Tag{2, 3}, []int{1, 0}, nil), ErrIndexOrder},
		{"negative index", NewManageChildren(1, nil, nil, nil, nil, []int{-1}), ErrInvalidChildSet},
		{"negative destination", NewManageChildren(1, []int{0}, []int{-2}, nil, nil, nil), ErrInvalidChildSet},
		{"duplicate child", NewSetChildren(1, []Tag{2, 2}), ErrInvalidChildSet},
		{"empty command", NewDispatchCommand(2, "", nil), ErrPreconditionViolation},
		{"measure without token", Measure{Tag: 2}, ErrPreconditionViolation},
		{"touch without token", FindTargetForTouch{Tag: 2}, ErrPreconditionViolation},
		{"responder without initial", SetJSResponder{Tag: 2}, ErrUnknownTag},
		{"zero duration", ConfigureLayoutAnimation{}, ErrPreconditionViolation},
		{"nil ui block", UIBlock{}, ErrPreconditionViolation},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tt.op), tt.want)
		})
	}

	t.Run("accepts well formed operations", func(t *testing.T) {
		for _, op := range []Operation{
			NewCreateView(1, "RootView", 1, nil),
			NewUpdateProps(2, Props{"a": 1}),
			NewUpdateLayout(NoTag, 2, -5, -5, 0, 0, DirectionRTL),
			NewManageChildren(1, []int{0, 2}, []int{1, 0}, nil, nil, nil),
			NewManageChildren(1, []int{0, 3}, []int{3, 0}, []Tag{5}, []int{1}, []int{1, 2}),
			NewSetChildren(1, nil),
			RemoveRootView{RootTag: 1},
			NewDispatchCommand(2, "focus", []any{1, "a"}),
			Measure{Tag: 2, Result: NewFuture[MeasureResult]()},
			MeasureInWindow{Tag: 2, Result: NewFuture[MeasureResult]()},
			FindTargetForTouch{Tag: 1, Result: NewFuture[Tag]()},
			SendAccessibilityEvent{Tag: 2},
			SetJSResponder{Tag: 2, InitialTag: 2},
			ClearJSResponder{},
			ConfigureLayoutAnimation{Config: AnimationConfig{Duration: time.Millisecond}},
			SetLayoutAnimationEnabled{},
			UIBlock{Fn: func(ViewReader) {}},
		} {
			assert.NoError(t, Validate(op), "%s", op.Kind())
		}
	})
}

func TestOperationSnapshots(t *testing.T) {
	props := Props{"style": map[string]any{"color": "red"}, "items": []any{1, 2}}
	op := NewCreateView(2, "View", 1, props)

	props["style"].(map[string]any)["color"] = "blue"
	props["items"].([]any)[0] = 9
	props["extra"] = true

	assert.Equal(t, Props{"style": map[string]any{"color": "red"}, "items": []any{1, 2}}, op.Props)

	children := []Tag{2, 3}
	set := NewSetChildren(1, children)
	children[0] = 7
	assert.Equal(t, []Tag{2, 3}, set.Children)
}

func TestOpKind(t *testing.T) {
	assert.Equal(t, "ManageChildren", NewManageChildren(1, nil, nil, nil, nil, nil).Kind().String())
	assert.Equal(t, "UIBlock", OpUIBlock.String())
	assert.Equal(t, "Unknown", OpKind(99).String())
	assert.Equal(t, Tag(1), RemoveRootView{RootTag: 1}.Target())
	assert.Equal(t, NoTag, ClearJSResponder{}.Target())
}
