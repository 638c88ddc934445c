package metadata

import (
	"fmt"
	"math"

	"github.com/tagheap/tagheap/memutils"
)

const (
	// WordSize is the width in bytes of a header or footer tag
	WordSize = 4
	// DoubleWordSize is the payload alignment and the combined width of a header and footer
	DoubleWordSize = 8
	// Alignment is the alignment of every payload offset handed out by the allocator
	Alignment = DoubleWordSize
	// TagOverhead is the number of bytes a block spends on its header and footer
	TagOverhead = 2 * WordSize
	// MinBlockSize is the smallest legal block: header, footer and two words of payload
	MinBlockSize = 2 * DoubleWordSize
	// PrologueSize is the size recorded in the prologue's header and footer
	PrologueSize = DoubleWordSize
	// BoundarySize is the number of bytes reserved at init for the alignment pad, the prologue
	// and the epilogue header
	BoundarySize = 4 * WordSize
	// DefaultChunkSize is the number of bytes the heap grows by when nothing fits
	DefaultChunkSize = 1 << 12
	// MaxBlockSize is the largest block size a tag word can describe
	MaxBlockSize = math.MaxUint32 &^ 0x7
)

// Tag is a header or footer word. The block size lives in the upper 29 bits and the
// allocated flag in bit 0; bits 1 and 2 are always zero because sizes are multiples of 8.
type Tag uint32

const (
	TagFree      Tag = 0
	TagAllocated Tag = 1

	flagMask     Tag = 0x1
	reservedMask Tag = 0x6
	sizeMask     Tag = ^Tag(0x7)
)

// Pack combines a block size and an allocated flag into a single tag word
func Pack(size int, flag Tag) Tag {
	return Tag(size) | flag
}

// Size returns the block size recorded in the tag
func (t Tag) Size() int {
	return int(t & sizeMask)
}

// Flag returns the allocated flag recorded in the tag, either TagFree or TagAllocated
func (t Tag) Flag() Tag {
	return t & flagMask
}

// Allocated reports whether the tag marks its block as allocated
func (t Tag) Allocated() bool {
	return t&flagMask != 0
}

// Valid reports whether the tag's reserved bits are clear. A tag with reserved bits set was not
// written by Pack and indicates a corrupted heap.
func (t Tag) Valid() bool {
	return t&reservedMask == 0
}

func (t Tag) String() string {
	if t.Allocated() {
		return fmt.Sprintf("%d/allocated", t.Size())
	}
	return fmt.Sprintf("%d/free", t.Size())
}

// AdjustedSize converts a requested payload size into a block size: the payload plus
// header and footer, rounded up to the alignment, never below MinBlockSize. The second
// return value is false when the result cannot be described by a tag word.
func AdjustedSize(size int) (int, bool) {
	if size <= DoubleWordSize {
		return MinBlockSize, true
	}
	if uint64(size) > MaxBlockSize-TagOverhead-(DoubleWordSize-1) {
		return 0, false
	}
	return memutils.AlignUp(size+TagOverhead, DoubleWordSize), true
}
