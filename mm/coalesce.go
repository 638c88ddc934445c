package mm

import "github.com/tagheap/tagheap/memutils/metadata"

// coalesce merges the free block p with whichever of its physical neighbors are free and
// returns the payload offset of the merged block, which moves to the previous block's payload
// when that block is absorbed. The prologue and epilogue are always allocated, so the first and
// last real blocks need no special handling.
func (a *Allocator) coalesce(p int) int {
	l := a.layout
	prevAllocated := l.PrevFooterTag(p).Allocated()
	next := l.Next(p)
	nextAllocated := l.IsAllocated(next)
	size := l.Size(p)

	switch {
	case prevAllocated && nextAllocated:
		return p

	case prevAllocated && !nextAllocated:
		size += l.Size(next)
		l.WriteBlock(p, size, metadata.TagFree)
		return p

	case !prevAllocated && nextAllocated:
		prev := l.Prev(p)
		size += l.Size(prev)
		l.WriteBlock(prev, size, metadata.TagFree)
		return prev

	default:
		prev := l.Prev(p)
		size += l.Size(prev) + l.Size(next)
		l.WriteBlock(prev, size, metadata.TagFree)
		return prev
	}
}
