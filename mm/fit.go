package mm

import "github.com/tagheap/tagheap/memutils/metadata"

// findFit returns the first free block, in address order, of at least asize bytes
func (a *Allocator) findFit(asize int) (int, bool) {
	for block := range a.layout.Blocks(a.firstBlock()) {
		if !block.Allocated && block.Size >= asize {
			return block.Payload, true
		}
	}
	return 0, false
}

// place marks asize bytes at the start of the free block p as allocated. The rest of the block
// becomes a new free block when it is large enough to be one; otherwise the whole block is
// handed out.
func (a *Allocator) place(p, asize int) {
	csize := a.layout.Size(p)
	remainder := csize - asize

	if remainder >= metadata.MinBlockSize {
		a.layout.WriteBlock(p, asize, metadata.TagAllocated)
		a.layout.WriteBlock(p+asize, remainder, metadata.TagFree)
		return
	}

	a.layout.WriteBlock(p, csize, metadata.TagAllocated)
}
