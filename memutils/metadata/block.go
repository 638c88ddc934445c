package metadata

import "iter"

// Block describes one block of the implicit chain
type Block struct {
	// Payload is the offset of the first payload byte; the header sits one word before it
	Payload int
	// Size is the full block size, header and footer included
	Size int
	// Allocated is the block's allocated flag
	Allocated bool
}

// Header returns the offset of the block's header tag
func (b Block) Header() int { return b.Payload - WordSize }

// Footer returns the offset of the block's footer tag
func (b Block) Footer() int { return b.Payload + b.Size - DoubleWordSize }

// End returns the offset one past the block's last byte
func (b Block) End() int { return b.Header() + b.Size }

// UsableSize returns the number of payload bytes between the header and footer
func (b Block) UsableSize() int { return b.Size - TagOverhead }

// Blocks returns a lazy sequence over the chain, starting with the block at first and
// ending before the zero-size epilogue. The sequence can be ranged over any number of times;
// each pass re-reads the tags, so it observes the heap as it is when the pass runs. A pass
// also stops early if a header would fall outside the heap.
func (l Layout) Blocks(first int) iter.Seq[Block] {
	return func(yield func(Block) bool) {
		for p := first; l.HasRange(p-WordSize, WordSize); {
			block := l.Block(p)
			if block.Size == 0 {
				return
			}
			if !yield(block) {
				return
			}
			p += block.Size
		}
	}
}

// VisitAllBlocks calls handleBlock once for each block in the chain starting at first,
// stopping at the first error it returns
func (l Layout) VisitAllBlocks(first int, handleBlock func(block Block) error) error {
	for block := range l.Blocks(first) {
		if err := handleBlock(block); err != nil {
			return err
		}
	}
	return nil
}
