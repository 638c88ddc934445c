package mm

import (
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/tagheap/tagheap/memutils"
	"github.com/tagheap/tagheap/memutils/metadata"
)

// extendHeap grows the heap by at least words words, rounded up to an even count so every
// payload stays aligned. The new bytes become a free block that takes over the old epilogue's
// header, a new epilogue is written after it, and the block is merged with a free block that
// ended the heap before the growth. It returns the payload offset of the resulting free block.
func (a *Allocator) extendHeap(words int) (int, error) {
	words = memutils.AlignUp(words, 2)
	size := words * metadata.WordSize

	a.logger.Debug("Allocator::extendHeap", slog.Int("Size", size), slog.Int("HeapSize", a.mem.HeapSize()))

	// Tags describe at most MaxBlockSize bytes, and a merged free block may span the whole heap.
	end := a.mem.HeapSize()
	if uint64(end)+uint64(size) > metadata.MaxBlockSize {
		return 0, errors.Newf("cannot grow the heap by %d bytes: heaps are limited to %d bytes", size, uint64(metadata.MaxBlockSize))
	}

	p, err := a.mem.Sbrk(size)
	if err != nil {
		return 0, errors.Wrapf(err, "growing heap by %d bytes", size)
	}
	if p != end {
		return 0, errors.Newf("memory system returned break %d, but the heap ended at %d", p, end)
	}

	// The old epilogue header becomes the new block's header.
	a.layout.WriteBlock(p, size, metadata.TagFree)
	a.layout.WriteEpilogue(a.layout.Next(p))

	return a.coalesce(p), nil
}
