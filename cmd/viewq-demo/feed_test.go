package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnatoleLucet/viewq"
)

func TestFeed(t *testing.T) {
	var errs []*viewq.OperationError
	mgr, err := viewq.New(viewq.WithErrorHandler(func(err *viewq.OperationError) { errs = append(errs, err) }))
	require.NoError(t, err)
	defer mgr.Close()

	root := mgr.NewRootTag()
	require.NoError(t, mgr.AddRootView(root, viewq.NewMemoryView("RootView", root, nil)))

	f := newFeed(mgr, root, discardLogger())
	base := time.Now()
	for i := range 10 {
		f.step()
		mgr.Frame(base.Add(time.Duration(i) * time.Second))
	}
	mgr.Frame(base.Add(time.Minute))

	assert.Empty(t, errs)
	assert.False(t, mgr.NeedsFrame())

	tree, err := mgr.Tree(root)
	require.NoError(t, err)
	require.Len(t, tree.Children, 1)

	list := tree.Children[0]
	assert.Equal(t, f.list, list.Tag)
	require.Len(t, list.Children, maxItems)

	labels := make([]any, 0, 3)
	for _, item := range list.Children[:3] {
		labels = append(labels, item.Props["label"])
	}
	assert.Equal(t, []any{"item 10", "item 8", "item 9"}, labels)
	assert.Equal(t, 1.0, list.Children[0].Props["opacity"])
	assert.Equal(t, f.items, childTags(list))

	// root, list and the visible items
	assert.Len(t, mgr.Tags(), 2+maxItems)

	res, err := f.measured.Load().Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, itemWidth, res.Width)
	assert.Equal(t, 2, res.PageX)
	assert.Equal(t, 1, res.PageY)
}

func childTags(node *viewq.TreeNode) []viewq.Tag {
	tags := make([]viewq.Tag, 0, len(node.Children))
	for _, c := range node.Children {
		tags = append(tags, c.Tag)
	}
	return tags
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
