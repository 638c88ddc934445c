package mm

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/tagheap/tagheap/memutils"
	"github.com/tagheap/tagheap/memutils/memsys"
	"github.com/tagheap/tagheap/memutils/metadata"
)

// Allocator manages a single heap as an implicit list of boundary-tagged blocks. Free blocks are
// found by a first-fit walk of the whole chain, split on placement when the remainder can stand
// as a block of its own, and merged with free neighbors as soon as they are released.
//
// Allocator instances are not safe for concurrent use. Each operation runs to completion and
// leaves the heap consistent before returning.
type Allocator struct {
	logger      *slog.Logger
	mem         memsys.MemorySystem
	layout      metadata.Layout
	createFlags CreateFlags
	chunkSize   int

	initialized bool
	// prologue is the payload offset of the prologue block; the first real block follows it
	prologue   int
	allocCount int

	// live maps payloads to their requested sizes; nil unless CreateTrackAllocations is set
	live *swiss.Map[Pointer, int]
}

var _ metadata.HeapMetadata = &Allocator{}

// Init lays out the boundary blocks and grows the heap by one chunk to create the first free
// block. It must be called exactly once before any other operation. If the memory system cannot
// supply the bytes, the returned error is marked with ErrInitFailed and Init may be retried.
func (a *Allocator) Init() error {
	a.logger.Debug("Allocator::Init")

	if a.initialized {
		return ErrAlreadyInitialized
	}

	base, err := a.mem.Sbrk(metadata.BoundarySize)
	if err != nil {
		return a.initFailed(errors.Wrap(err, "reserving boundary blocks"))
	}
	a.prologue = a.layout.WriteBoundary(base)

	if _, err := a.extendHeap(a.chunkSize / metadata.WordSize); err != nil {
		return a.initFailed(errors.Wrap(err, "creating the first free block"))
	}

	a.initialized = true
	a.allocCount = 0
	if a.live != nil {
		a.live.Clear()
	}

	a.afterMutation("Init")
	return nil
}

func (a *Allocator) initFailed(err error) error {
	a.logger.LogAttrs(context.Background(), slog.LevelError, "Allocator::Init FAILED", slog.Any("error", err))
	return errors.Mark(errors.Wrap(err, "mm: initializing heap"), ErrInitFailed)
}

// Allocate returns the payload offset of a new block with room for at least size bytes. The
// payload is aligned to metadata.Alignment and its contents are unspecified. Allocate returns
// Null for a zero-size request and when the heap cannot grow enough to satisfy the request.
func (a *Allocator) Allocate(size int) Pointer {
	a.logger.Debug("Allocator::Allocate", slog.Int("Size", size))

	if !a.checkInitialized("Allocate") || size == 0 {
		return Null
	}

	adjusted, ok := metadata.AdjustedSize(size)
	if size < 0 || !ok {
		a.logger.LogAttrs(context.Background(), slog.LevelError, "Allocator::Allocate FAILED: unsupported size",
			slog.Int("Size", size))
		return Null
	}

	p, found := a.findFit(adjusted)
	if !found {
		var err error
		p, err = a.extendHeap(max(adjusted, a.chunkSize) / metadata.WordSize)
		if err != nil {
			a.logger.LogAttrs(context.Background(), slog.LevelError, "Allocator::Allocate FAILED",
				slog.Int("Size", size),
				slog.Any("error", err))
			return Null
		}
	}

	a.place(p, adjusted)
	a.allocCount++
	if a.live != nil {
		a.live.Put(Pointer(p), size)
	}

	a.afterMutation("Allocate")
	return Pointer(p)
}

// Release returns the block at p to the heap and merges it with any free neighbors. p must have
// been returned by Allocate or Resize and not released since; anything else corrupts the heap
// unless CreateTrackAllocations is set. Releasing Null does nothing.
func (a *Allocator) Release(p Pointer) {
	a.logger.Debug("Allocator::Release", slog.Int("Pointer", int(p)))

	if !a.checkInitialized("Release") || p == Null || !a.checkLive("Release", p) {
		return
	}

	a.release(p)
	a.afterMutation("Release")
}

func (a *Allocator) release(p Pointer) {
	size := a.layout.Size(int(p))
	a.layout.WriteBlock(int(p), size, metadata.TagFree)
	a.coalesce(int(p))

	a.allocCount--
	if a.live != nil {
		a.live.Delete(p)
	}
}

// Resize returns a block with room for at least size bytes whose payload starts with the first
// min(UsableSize(p), size) bytes of p's payload. A Null p behaves as Allocate(size); a zero size
// behaves as Release(p) and returns Null. The block always moves: a new block is allocated,
// the prefix copied, and p released. If the new block cannot be allocated, Resize returns Null
// and p is left untouched.
func (a *Allocator) Resize(p Pointer, size int) Pointer {
	a.logger.Debug("Allocator::Resize", slog.Int("Pointer", int(p)), slog.Int("Size", size))

	if p == Null {
		return a.Allocate(size)
	}

	if size == 0 {
		a.Release(p)
		return Null
	}

	if !a.checkInitialized("Resize") || !a.checkLive("Resize", p) {
		return Null
	}

	newPtr := a.Allocate(size)
	if newPtr == Null {
		return Null
	}

	// Fetch both payloads after Allocate: growth may have moved the heap's backing slice.
	oldPayload := a.layout.Payload(int(p))
	newPayload := a.layout.Payload(int(newPtr))
	copy(newPayload, oldPayload[:min(len(oldPayload), size)])

	a.release(p)
	a.afterMutation("Resize")
	return newPtr
}

// Payload returns the usable bytes of the allocated block at p, or nil for Null. The slice is
// only valid until the next call that may grow the heap.
func (a *Allocator) Payload(p Pointer) []byte {
	if p == Null || !a.initialized {
		return nil
	}
	return a.layout.Payload(int(p))
}

// UsableSize returns the number of payload bytes in the allocated block at p, which may exceed
// the size originally requested. It returns 0 for Null.
func (a *Allocator) UsableSize(p Pointer) int {
	if p == Null || !a.initialized {
		return 0
	}
	return a.layout.Size(int(p)) - metadata.TagOverhead
}

// RequestedSize returns the size passed to Allocate or Resize for the live block at p. The
// second return value is false when p is not live or the allocator was created without
// CreateTrackAllocations.
func (a *Allocator) RequestedSize(p Pointer) (int, bool) {
	if a.live == nil {
		return 0, false
	}
	return a.live.Get(p)
}

// ChunkSize returns the minimum number of bytes the heap grows by
func (a *Allocator) ChunkSize() int { return a.chunkSize }

// Initialized reports whether Init has completed successfully
func (a *Allocator) Initialized() bool { return a.initialized }

func (a *Allocator) firstBlock() int {
	return a.prologue + metadata.PrologueSize
}

func (a *Allocator) checkInitialized(operation string) bool {
	if !a.initialized {
		a.logger.LogAttrs(context.Background(), slog.LevelError, "Allocator::"+operation+" called before Init")
	}
	return a.initialized
}

func (a *Allocator) checkLive(operation string, p Pointer) bool {
	if a.live == nil || a.live.Has(p) {
		return true
	}

	a.logger.LogAttrs(context.Background(), slog.LevelError, "[INVALID POINTER] Allocator::"+operation+" ignored",
		slog.Int("Pointer", int(p)))
	return false
}

func (a *Allocator) afterMutation(operation string) {
	if a.createFlags&CreateValidateEachOperation != 0 {
		if err := a.Validate(); err != nil {
			a.logger.LogAttrs(context.Background(), slog.LevelError, "[HEAP CORRUPTION] detected after Allocator::"+operation,
				slog.Any("error", err))
		}
	}

	memutils.DebugValidate(a)
}
