package internal

// ManageChildren applies op to the parent's child list as one relocation:
// every source (moves and removals) leaves the list at once, moved and added
// children land on their destination indices, and the untouched children
// fill the remaining slots in their previous order. Children removed by
// index are dropped with their subtrees. The whole operation is validated
// before anything changes. It returns the dropped tags.
func (r *Registry) ManageChildren(op ManageChildren) ([]Tag, error) {
	if err := r.thread.check(); err != nil {
		return nil, err
	}
	if err := op.validate(); err != nil {
		return nil, err
	}
	p, err := r.get(op.Tag)
	if err != nil {
		return nil, err
	}

	current := p.children
	sources := make(map[int]bool, len(op.MoveFrom)+len(op.RemoveFrom))
	for _, idx := range op.MoveFrom {
		if idx >= len(current) {
			return nil, tagError(op.Tag, ErrInvalidChildSet, "move index %d out of range for %d children", idx, len(current))
		}
		sources[idx] = true
	}
	for _, idx := range op.RemoveFrom {
		if idx >= len(current) {
			return nil, tagError(op.Tag, ErrInvalidChildSet, "remove index %d out of range for %d children", idx, len(current))
		}
		if sources[idx] {
			return nil, tagError(op.Tag, ErrInvalidChildSet, "index %d both moved and removed", idx)
		}
		sources[idx] = true
	}

	remaining := make([]Tag, 0, len(current))
	for i, tag := range current {
		if !sources[i] {
			remaining = append(remaining, tag)
		}
	}

	size := len(remaining) + len(op.MoveTo) + len(op.AddTags)
	slots := make([]Tag, size)
	filled := make([]bool, size)
	place := func(idx int, tag Tag) error {
		if idx >= size {
			return tagError(op.Tag, ErrInvalidChildSet, "destination %d out of range for %d children", idx, size)
		}
		if filled[idx] {
			return tagError(op.Tag, ErrInvalidChildSet, "destination %d used twice", idx)
		}
		slots[idx] = tag
		filled[idx] = true
		return nil
	}

	for i, from := range op.MoveFrom {
		if err := place(op.MoveTo[i], current[from]); err != nil {
			return nil, err
		}
	}

	added := make([]*entry, 0, len(op.AddTags))
	seen := make(map[Tag]bool, len(op.AddTags))
	for i, tag := range op.AddTags {
		if seen[tag] {
			return nil, tagError(op.Tag, ErrInvalidChildSet, "child %d added twice", tag)
		}
		seen[tag] = true

		// nothing already under the parent may be added again
		c, err := r.validateChild(p, tag, nil)
		if err != nil {
			return nil, err
		}
		if err := place(op.AddAt[i], tag); err != nil {
			return nil, err
		}
		added = append(added, c)
	}

	next := 0
	for i := range slots {
		if filled[i] {
			continue
		}
		slots[i] = remaining[next]
		next++
	}

	if err := r.syncNative(p, slots, nil); err != nil {
		return nil, err
	}

	removed := make([]*entry, 0, len(op.RemoveFrom))
	for _, idx := range op.RemoveFrom {
		removed = append(removed, r.entries[current[idx]])
	}

	p.children = slots
	for _, c := range added {
		c.parent = p.tag
	}

	dropped := make([]Tag, 0)
	for _, e := range removed {
		e.parent = NoTag
		r.drop(e, &dropped)
	}
	return dropped, nil
}

// setProps merges props into the registry's copy of tag's props.
func (r *Registry) setProps(tag Tag, props Props) {
	if e, ok := r.entries[tag]; ok {
		e.props = e.props.merged(props)
	}
}

// setLayout records the authoritative frame of tag.
func (r *Registry) setLayout(tag Tag, frame Frame, dir Direction) {
	if e, ok := r.entries[tag]; ok {
		e.frame = frame
		e.direction = dir
		e.hasFrame = true
	}
}

// hasLayout reports whether tag received a frame before.
func (r *Registry) hasLayout(tag Tag) bool {
	e, ok := r.entries[tag]
	return ok && e.hasFrame
}

// ownedBy reports whether parent is the current parent of tag.
func (r *Registry) ownedBy(tag, parent Tag) bool {
	e, ok := r.entries[tag]
	return ok && e.parent == parent
}
