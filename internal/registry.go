package internal

import (
	"iter"
	"maps"
	"slices"
)

type entry struct {
	tag      Tag
	typeName string
	view     View

	parent   Tag
	root     Tag
	isRoot   bool
	children []Tag

	props     Props
	frame     Frame
	hasFrame  bool
	direction Direction
}

// ViewReader is the read-only registry surface handed to ui blocks.
type ViewReader interface {
	Lookup(tag Tag) (View, error)
	Children(tag Tag) ([]Tag, error)
	Parent(tag Tag) (Tag, error)
	Frame(tag Tag) (Frame, error)
	Props(tag Tag) (Props, error)
	RootCount() int
}

// Registry maps tags to live native views. It is the single source of truth
// for what exists on screen and belongs to the ui goroutine.
type Registry struct {
	thread uiThread

	entries map[Tag]*entry
	roots   map[Tag]struct{}

	// tags that were removed, they never come back
	retired map[Tag]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[Tag]*entry),
		roots:   make(map[Tag]struct{}),
		retired: make(map[Tag]struct{}),
	}
}

func (r *Registry) get(tag Tag) (*entry, error) {
	e, ok := r.entries[tag]
	if !ok {
		if _, gone := r.retired[tag]; gone {
			return nil, tagError(tag, ErrUnknownTag, "view was removed")
		}
		return nil, tagError(tag, ErrUnknownTag, "")
	}
	return e, nil
}

// Create registers a view. parent may be NoTag; a non-root view is then
// detached until a child-list operation adopts it.
func (r *Registry) Create(tag Tag, typeName string, view View, parent, root Tag, isRoot bool) error {
	if err := r.thread.check(); err != nil {
		return err
	}
	if _, ok := r.entries[tag]; ok {
		return tagError(tag, ErrDuplicateTag, "")
	}
	if _, gone := r.retired[tag]; gone {
		return tagError(tag, ErrDuplicateTag, "tag was retired")
	}

	e := &entry{
		tag:      tag,
		typeName: typeName,
		view:     view,
		root:     root,
		isRoot:   isRoot,
		children: make([]Tag, 0),
	}
	if isRoot {
		e.root = tag
		parent = NoTag
	}

	if parent != NoTag {
		p, err := r.get(parent)
		if err != nil {
			return err
		}
		if err := r.syncNative(p, append(slices.Clone(p.children), tag), map[Tag]View{tag: view}); err != nil {
			return err
		}
		p.children = append(p.children, tag)
		e.parent = parent
	}

	r.entries[tag] = e
	if isRoot {
		r.roots[tag] = struct{}{}
	}
	return nil
}

// Lookup returns the native view for tag.
func (r *Registry) Lookup(tag Tag) (View, error) {
	if err := r.thread.check(); err != nil {
		return nil, err
	}
	e, err := r.get(tag)
	if err != nil {
		return nil, err
	}
	return e.view, nil
}

// Has reports whether tag is live.
func (r *Registry) Has(tag Tag) bool {
	_, ok := r.entries[tag]
	return ok
}

func (r *Registry) IsRoot(tag Tag) bool {
	_, ok := r.roots[tag]
	return ok
}

func (r *Registry) RootCount() int {
	return len(r.roots)
}

// Len is the number of live views, roots included.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Tags iterates live tags in no particular order.
func (r *Registry) Tags() iter.Seq[Tag] {
	return maps.Keys(r.entries)
}

func (r *Registry) Children(tag Tag) ([]Tag, error) {
	if err := r.thread.check(); err != nil {
		return nil, err
	}
	e, err := r.get(tag)
	if err != nil {
		return nil, err
	}
	return slices.Clone(e.children), nil
}

func (r *Registry) Parent(tag Tag) (Tag, error) {
	if err := r.thread.check(); err != nil {
		return NoTag, err
	}
	e, err := r.get(tag)
	if err != nil {
		return NoTag, err
	}
	return e.parent, nil
}

func (r *Registry) Frame(tag Tag) (Frame, error) {
	if err := r.thread.check(); err != nil {
		return Frame{}, err
	}
	e, err := r.get(tag)
	if err != nil {
		return Frame{}, err
	}
	return e.frame, nil
}

func (r *Registry) Props(tag Tag) (Props, error) {
	if err := r.thread.check(); err != nil {
		return nil, err
	}
	e, err := r.get(tag)
	if err != nil {
		return nil, err
	}
	return e.props.Clone(), nil
}

// validateChild checks that tag may become a child of parent. owned lists
// the current children of parent that are allowed to stay attached.
func (r *Registry) validateChild(parent *entry, tag Tag, owned map[Tag]bool) (*entry, error) {
	c, err := r.get(tag)
	if err != nil {
		return nil, err
	}
	switch {
	case c.isRoot:
		return nil, tagError(parent.tag, ErrInvalidChildSet, "root %d cannot be a child", tag)
	case tag == parent.tag || r.isAncestor(tag, parent.tag):
		return nil, tagError(parent.tag, ErrInvalidChildSet, "adding %d would create a cycle", tag)
	case c.root != parent.root:
		return nil, tagError(parent.tag, ErrInvalidChildSet, "child %d belongs to root %d, parent to root %d", tag, c.root, parent.root)
	case c.parent != NoTag && c.parent != parent.tag:
		return nil, tagError(parent.tag, ErrInvalidChildSet, "child %d is owned by %d", tag, c.parent)
	case c.parent == parent.tag && !owned[tag]:
		return nil, tagError(parent.tag, ErrInvalidChildSet, "child %d is already attached", tag)
	}
	return c, nil
}

// isAncestor reports whether a is a strict ancestor of b.
func (r *Registry) isAncestor(a, b Tag) bool {
	e, ok := r.entries[b]
	for ok && e.parent != NoTag {
		if e.parent == a {
			return true
		}
		e, ok = r.entries[e.parent]
	}
	return false
}

// ReparentChildren makes children the complete, exclusive child list of
// parent. Former children not in the list are detached, not dropped.
func (r *Registry) ReparentChildren(parent Tag, children []Tag) error {
	if err := r.thread.check(); err != nil {
		return err
	}
	p, err := r.get(parent)
	if err != nil {
		return err
	}

	owned := make(map[Tag]bool, len(p.children))
	for _, c := range p.children {
		owned[c] = true
	}

	seen := make(map[Tag]struct{}, len(children))
	adopted := make([]*entry, 0, len(children))
	for _, tag := range children {
		if _, dup := seen[tag]; dup {
			return tagError(parent, ErrInvalidChildSet, "child %d listed twice", tag)
		}
		seen[tag] = struct{}{}

		c, err := r.validateChild(p, tag, owned)
		if err != nil {
			return err
		}
		adopted = append(adopted, c)
	}

	if err := r.syncNative(p, children, nil); err != nil {
		return err
	}

	for _, old := range p.children {
		if _, keep := seen[old]; !keep {
			r.entries[old].parent = NoTag
		}
	}
	for _, c := range adopted {
		c.parent = parent
	}
	p.children = slices.Clone(children)
	return nil
}

// syncNative pushes a child list to the parent's native view before the
// registry changes, so a native failure leaves the registry untouched.
// pending resolves tags that are not registered yet.
func (r *Registry) syncNative(p *entry, children []Tag, pending map[Tag]View) error {
	views := make([]View, 0, len(children))
	for _, tag := range children {
		if v, ok := pending[tag]; ok {
			views = append(views, v)
			continue
		}
		views = append(views, r.entries[tag].view)
	}
	return p.view.ReplaceChildren(views)
}

// Remove detaches tag from its parent and drops its whole subtree.
// It returns every removed tag, descendants before ancestors.
func (r *Registry) Remove(tag Tag) ([]Tag, error) {
	if err := r.thread.check(); err != nil {
		return nil, err
	}
	e, err := r.get(tag)
	if err != nil {
		return nil, err
	}
	if e.isRoot {
		return r.RemoveRoot(tag)
	}

	if err := r.detach(e); err != nil {
		return nil, err
	}
	removed := make([]Tag, 0)
	r.drop(e, &removed)
	return removed, nil
}

func (r *Registry) detach(e *entry) error {
	if e.parent == NoTag {
		return nil
	}
	p := r.entries[e.parent]
	kept := slices.DeleteFunc(slices.Clone(p.children), func(t Tag) bool { return t == e.tag })
	if err := r.syncNative(p, kept, nil); err != nil {
		return err
	}
	p.children = kept
	e.parent = NoTag
	return nil
}

// drop removes the subtree rooted at e, children first.
func (r *Registry) drop(e *entry, removed *[]Tag) {
	for _, child := range e.children {
		if c, ok := r.entries[child]; ok {
			r.drop(c, removed)
		}
	}
	e.children = nil

	e.view.Drop()
	delete(r.entries, e.tag)
	delete(r.roots, e.tag)
	r.retired[e.tag] = struct{}{}
	*removed = append(*removed, e.tag)
}

// RemoveRoot drops every view that belongs to rootTag, attached or not,
// and then the root itself. Nothing under the root survives.
func (r *Registry) RemoveRoot(rootTag Tag) ([]Tag, error) {
	if err := r.thread.check(); err != nil {
		return nil, err
	}
	root, err := r.get(rootTag)
	if err != nil {
		return nil, err
	}
	if !root.isRoot {
		return nil, tagError(rootTag, ErrPreconditionViolation, "not a root view")
	}

	removed := make([]Tag, 0)
	for _, child := range root.children {
		if c, ok := r.entries[child]; ok {
			r.drop(c, &removed)
		}
	}
	root.children = nil

	// views created under this root but never attached
	orphans := make([]Tag, 0)
	for tag, e := range r.entries {
		if e.root == rootTag && e.parent == NoTag && !e.isRoot {
			orphans = append(orphans, tag)
		}
	}
	slices.Sort(orphans)
	for _, tag := range orphans {
		if e, ok := r.entries[tag]; ok {
			r.drop(e, &removed)
		}
	}

	r.drop(root, &removed)
	return removed, nil
}

// position walks up to the root summing offsets. attached is false when the
// chain does not end at a root.
func (r *Registry) position(tag Tag) (x, y int, attached bool) {
	e, ok := r.entries[tag]
	for ok {
		x += e.frame.X
		y += e.frame.Y
		if e.isRoot {
			return x, y, true
		}
		e, ok = r.entries[e.parent]
	}
	return x, y, false
}

// Measure reads the geometry of a view attached to a root.
func (r *Registry) Measure(tag Tag) (MeasureResult, error) {
	if err := r.thread.check(); err != nil {
		return MeasureResult{}, err
	}
	e, err := r.get(tag)
	if err != nil {
		return MeasureResult{}, err
	}
	pageX, pageY, attached := r.position(tag)
	if !attached {
		return MeasureResult{}, tagError(tag, ErrPreconditionViolation, "view is not attached to a root")
	}
	return MeasureResult{
		Tag:    tag,
		X:      e.frame.X,
		Y:      e.frame.Y,
		Width:  e.frame.Width,
		Height: e.frame.Height,
		PageX:  pageX,
		PageY:  pageY,
	}, nil
}

// FindTarget returns the deepest view under tag containing (x, y), given in
// tag's coordinate space. Later children are on top. NoTag means the point
// is outside tag.
func (r *Registry) FindTarget(tag Tag, x, y float64) (Tag, error) {
	if err := r.thread.check(); err != nil {
		return NoTag, err
	}
	e, err := r.get(tag)
	if err != nil {
		return NoTag, err
	}
	bounds := Frame{Width: e.frame.Width, Height: e.frame.Height}
	if !bounds.Contains(x, y) {
		return NoTag, nil
	}
	return r.hitTest(e, x, y), nil
}

func (r *Registry) hitTest(e *entry, x, y float64) Tag {
	for i := len(e.children) - 1; i >= 0; i-- {
		c, ok := r.entries[e.children[i]]
		if !ok || !c.frame.Contains(x, y) {
			continue
		}
		return r.hitTest(c, x-float64(c.frame.X), y-float64(c.frame.Y))
	}
	return e.tag
}

// TreeNode is a detached copy of a registry subtree.
type TreeNode struct {
	Tag       Tag
	TypeName  string
	Props     Props
	Frame     Frame
	Direction Direction
	Children  []*TreeNode
}

// Tree snapshots the subtree under tag.
func (r *Registry) Tree(tag Tag) (*TreeNode, error) {
	if err := r.thread.check(); err != nil {
		return nil, err
	}
	e, err := r.get(tag)
	if err != nil {
		return nil, err
	}
	return r.snapshot(e), nil
}

func (r *Registry) snapshot(e *entry) *TreeNode {
	node := &TreeNode{
		Tag:       e.tag,
		TypeName:  e.typeName,
		Props:     e.props.Clone(),
		Frame:     e.frame,
		Direction: e.direction,
		Children:  make([]*TreeNode, 0, len(e.children)),
	}
	for _, child := range e.children {
		if c, ok := r.entries[child]; ok {
			node.Children = append(node.Children, r.snapshot(c))
		}
	}
	return node
}
