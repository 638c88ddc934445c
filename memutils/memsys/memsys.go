// Package memsys provides the memory systems an allocator grows its heap from. A memory system
// owns one contiguous region that starts empty and only grows at its high end, like a process
// break moved with sbrk. Offsets, not pointers, identify bytes within the region.
package memsys

//go:generate mockgen -source=memsys.go -destination=mocks/mocks.go -package=mocks

import "github.com/pkg/errors"

// DefaultMaxHeap is the maximum heap size used when none is provided: 20 MiB
const DefaultMaxHeap = 20 * (1 << 20)

// ErrHeapExhausted is returned from Sbrk when the heap cannot grow by the requested amount
var ErrHeapExhausted = errors.New("memsys: heap exhausted")

// MemorySystem is the primitive an allocator calls into to obtain heap bytes
type MemorySystem interface {
	// Sbrk extends the heap by incr bytes and returns the offset of the first new byte (the old
	// break). It returns ErrHeapExhausted, possibly wrapped, when the heap cannot grow that far.
	// A negative incr is rejected: heaps never shrink.
	Sbrk(incr int) (int, error)
	// HeapLo returns the offset of the first heap byte
	HeapLo() int
	// HeapHi returns the offset of the last heap byte, or HeapLo()-1 when the heap is empty
	HeapHi() int
	// HeapSize returns the number of bytes currently in the heap
	HeapSize() int
	// Bytes returns the heap contents, HeapSize() bytes long. The slice may be replaced by a
	// later call to Sbrk, so callers should not hold it across growth.
	Bytes() []byte
}

// checkIncrement validates an Sbrk request against the current break and the heap maximum
func checkIncrement(brk, maxHeap, incr int) error {
	if incr < 0 {
		return errors.Wrapf(ErrHeapExhausted, "negative increment %d: the heap cannot shrink", incr)
	}
	if incr > maxHeap-brk {
		return errors.Wrapf(ErrHeapExhausted, "growing by %d bytes would pass the %d byte maximum (break at %d)", incr, maxHeap, brk)
	}
	return nil
}
