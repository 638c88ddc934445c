package mm

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/tagheap/tagheap/memutils"
	"github.com/tagheap/tagheap/memutils/metadata"
)

// Validate walks the whole heap and returns an error describing the first broken invariant it
// finds: a malformed prologue, a misaligned or undersized block, a header that disagrees with its
// footer, a block running past the heap, two free blocks in a row, or a missing epilogue. With
// CreateTrackAllocations it also checks the live-allocation registry against the heap. Validate
// reports problems; it never repairs them.
func (a *Allocator) Validate() error {
	if !a.initialized {
		return ErrNotInitialized
	}

	l := a.layout
	heapSize := a.mem.HeapSize()
	if l.Len() != heapSize {
		return errors.Newf("the memory system reports %d heap bytes but exposes %d", heapSize, l.Len())
	}

	if !l.HasRange(a.prologue-metadata.WordSize, metadata.DoubleWordSize) {
		return errors.Newf("the prologue at offset %d lies outside the heap", a.prologue)
	}
	prologueHeader := l.HeaderTag(a.prologue)
	if prologueHeader != metadata.Pack(metadata.PrologueSize, metadata.TagAllocated) {
		return errors.Newf("the prologue header at offset %d is %s", l.Header(a.prologue), prologueHeader)
	}
	if prologueFooter := l.Word(a.prologue); prologueFooter != prologueHeader {
		return errors.Newf("the prologue footer at offset %d is %s, but its header is %s", a.prologue, prologueFooter, prologueHeader)
	}

	var allocCount int
	prevFree := -1
	p := a.firstBlock()
	for {
		if !l.HasRange(p-metadata.WordSize, metadata.WordSize) {
			return errors.Newf("the block chain runs past the end of the heap at offset %d without an epilogue", p)
		}

		header := l.HeaderTag(p)
		if !header.Valid() {
			return errors.Newf("the block at offset %d has reserved header bits set: %#x", p, uint32(header))
		}

		if header.Size() == 0 {
			if !header.Allocated() {
				return errors.Newf("the epilogue at offset %d is not marked allocated", p)
			}
			if l.Header(p) != heapSize-metadata.WordSize {
				return errors.Newf("the epilogue header is at offset %d, but the heap's last word is at %d", l.Header(p), heapSize-metadata.WordSize)
			}
			break
		}

		size := header.Size()
		if !memutils.IsAligned(p, metadata.Alignment) {
			return errors.Newf("the block at offset %d is not aligned to %d bytes", p, metadata.Alignment)
		}
		if size < metadata.MinBlockSize {
			return errors.Newf("the block at offset %d has size %d, below the minimum of %d", p, size, metadata.MinBlockSize)
		}
		if !l.HasRange(l.Header(p), size) {
			return errors.Newf("the block at offset %d has size %d, which runs past the end of the heap at %d", p, size, heapSize)
		}
		if footer := l.Word(p + size - metadata.DoubleWordSize); footer != header {
			return errors.Newf("the block at offset %d has header %s but footer %s", p, header, footer)
		}

		if header.Allocated() {
			allocCount++
			prevFree = -1
		} else {
			if prevFree >= 0 {
				return errors.Newf("the free blocks at offsets %d and %d are adjacent and were not coalesced", prevFree, p)
			}
			prevFree = p
		}

		p += size
	}

	if allocCount != a.allocCount {
		return errors.Newf("the allocator counts %d allocations, but the heap holds %d allocated blocks", a.allocCount, allocCount)
	}

	if a.live != nil {
		return a.validateRegistry(allocCount)
	}

	return nil
}

func (a *Allocator) validateRegistry(allocCount int) error {
	if a.live.Count() != allocCount {
		return errors.Newf("%d allocations are registered, but the heap holds %d allocated blocks", a.live.Count(), allocCount)
	}

	var err error
	a.live.Iter(func(p Pointer, requested int) bool {
		switch {
		case !a.layout.HasRange(int(p)-metadata.WordSize, metadata.WordSize):
			err = errors.Newf("the registered allocation at offset %d lies outside the heap", p)
		case !a.layout.IsAllocated(int(p)):
			err = errors.Newf("the registered allocation at offset %d is not marked allocated", p)
		case a.UsableSize(p) < requested:
			err = errors.Newf("the registered allocation at offset %d holds %d usable bytes but %d were requested", p, a.UsableSize(p), requested)
		}
		return err != nil
	})
	return err
}

// Check runs Validate and reports whether the heap is consistent, logging the violation if not
func (a *Allocator) Check() bool {
	err := a.Validate()
	if err != nil {
		a.logger.LogAttrs(context.Background(), slog.LevelError, "Allocator::Check FAILED", slog.Any("error", err))
		return false
	}
	return true
}
