package metadata

import (
	"encoding/binary"
)

// Heap is the byte region a Layout interprets. memsys.MemorySystem implementations satisfy it.
// The returned slice must cover the whole heap and may change identity after the heap grows.
type Heap interface {
	Bytes() []byte
}

// Layout is a typed view over a heap's bytes that reads and writes boundary tags. Block
// positions are payload offsets ("p") from the start of the heap; tag words are stored
// little-endian. Reads outside the heap panic through the slice bounds check, so callers
// that walk untrusted chains (the consistency checker) test offsets with HasRange first.
type Layout struct {
	heap Heap
}

func NewLayout(heap Heap) Layout {
	return Layout{heap: heap}
}

// Len returns the current size of the heap in bytes
func (l Layout) Len() int {
	return len(l.heap.Bytes())
}

// HasRange reports whether the n bytes starting at off lie inside the heap
func (l Layout) HasRange(off, n int) bool {
	if off < 0 || n < 0 {
		return false
	}
	end := off + n
	return end >= off && end <= l.Len()
}

// Word reads the tag word stored at off
func (l Layout) Word(off int) Tag {
	return Tag(binary.LittleEndian.Uint32(l.heap.Bytes()[off : off+WordSize]))
}

// PutWord stores a tag word at off
func (l Layout) PutWord(off int, t Tag) {
	binary.LittleEndian.PutUint32(l.heap.Bytes()[off:off+WordSize], uint32(t))
}

// Header returns the offset of the header tag of the block whose payload starts at p
func (l Layout) Header(p int) int {
	return p - WordSize
}

// Footer returns the offset of the footer tag of the block whose payload starts at p
func (l Layout) Footer(p int) int {
	return l.Header(p) + l.Size(p) - WordSize
}

// HeaderTag returns the header tag of the block at p
func (l Layout) HeaderTag(p int) Tag {
	return l.Word(l.Header(p))
}

// Size returns the size of the block at p, read from its header
func (l Layout) Size(p int) int {
	return l.HeaderTag(p).Size()
}

// IsAllocated reports the allocated flag of the block at p, read from its header
func (l Layout) IsAllocated(p int) bool {
	return l.HeaderTag(p).Allocated()
}

// Next returns the payload offset of the block following p
func (l Layout) Next(p int) int {
	return p + l.Size(p)
}

// PrevFooterTag returns the footer tag of the block preceding p
func (l Layout) PrevFooterTag(p int) Tag {
	return l.Word(p - DoubleWordSize)
}

// Prev returns the payload offset of the block preceding p, found through its footer
func (l Layout) Prev(p int) int {
	return p - l.PrevFooterTag(p).Size()
}

// WriteBlock writes matching header and footer tags for a block of the given size at p
func (l Layout) WriteBlock(p, size int, flag Tag) {
	tag := Pack(size, flag)
	l.PutWord(p-WordSize, tag)
	l.PutWord(p+size-DoubleWordSize, tag)
}

// WriteEpilogue writes the zero-size allocated header that terminates the chain. p is the
// payload offset the epilogue occupies, so its header lives at p - WordSize.
func (l Layout) WriteEpilogue(p int) {
	l.PutWord(p-WordSize, Pack(0, TagAllocated))
}

// WriteBoundary lays out the alignment pad, the prologue and the epilogue in the BoundarySize
// bytes starting at base, and returns the prologue's payload offset.
func (l Layout) WriteBoundary(base int) int {
	l.PutWord(base, 0)
	prologue := base + DoubleWordSize
	l.WriteBlock(prologue, PrologueSize, TagAllocated)
	l.WriteEpilogue(prologue + PrologueSize)
	return prologue
}

// Payload returns the usable bytes of the block at p, between its header and footer
func (l Layout) Payload(p int) []byte {
	return l.heap.Bytes()[p : p+l.Size(p)-TagOverhead]
}

// Block returns the descriptor of the block at p
func (l Layout) Block(p int) Block {
	tag := l.HeaderTag(p)
	return Block{Payload: p, Size: tag.Size(), Allocated: tag.Allocated()}
}
