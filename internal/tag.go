package internal

import "sync/atomic"

// Tag identifies one logical view for its whole lifetime.
type Tag int

// NoTag is the zero tag, used for "no parent".
const NoTag Tag = 0

// root tags end in 1 (1, 11, 21, ...), every other tag skips that residue
const rootTagIncrement = 10

// IsRootTag reports whether the tag was allocated as a root tag.
func IsRootTag(tag Tag) bool {
	return tag > 0 && tag%rootTagIncrement == 1
}

// TagAllocator hands out process-unique tags. Safe for concurrent use.
type TagAllocator struct {
	next     atomic.Int64
	nextRoot atomic.Int64
}

func NewTagAllocator() *TagAllocator {
	a := &TagAllocator{}
	a.next.Store(1)
	a.nextRoot.Store(1 - rootTagIncrement)
	return a
}

// NextTag returns a fresh non-root tag.
func (a *TagAllocator) NextTag() Tag {
	for {
		tag := Tag(a.next.Add(1))
		if !IsRootTag(tag) {
			return tag
		}
	}
}

// NextRootTag returns a fresh root tag.
func (a *TagAllocator) NextRootTag() Tag {
	return Tag(a.nextRoot.Add(rootTagIncrement))
}
