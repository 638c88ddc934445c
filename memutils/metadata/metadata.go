package metadata

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/tagheap/tagheap/memutils"
)

// HeapMetadata is the read-only bookkeeping surface of a heap managed through boundary tags. It
// allows the chain of blocks to be enumerated, validated and summarized without exposing the
// operations that mutate it.
type HeapMetadata interface {
	// Validate performs internal consistency checks on the heap. These checks walk every block and
	// may be expensive. When the allocator is functioning correctly, it should not be possible
	// for this method to return an error, but this may assist in diagnosing heap corruption.
	Validate() error
	// HeapSize returns the number of bytes currently obtained from the memory system
	HeapSize() int
	// AllocationCount returns the number of allocated blocks, boundary blocks excluded
	AllocationCount() int
	// FreeRegionsCount returns the number of free blocks. Because free neighbors are always merged,
	// this is also the number of maximal free ranges in the heap.
	FreeRegionsCount() int
	// SumFreeSize returns the number of bytes held by free blocks, tags included
	SumFreeSize() int

	// VisitAllBlocks calls the provided callback once for each block between the prologue and the
	// epilogue, in address order, stopping at the first error it returns.
	VisitAllBlocks(handleBlock func(block Block) error) error

	// AddDetailedStatistics sums this heap's statistics into the provided memutils.DetailedStatistics
	AddDetailedStatistics(stats *memutils.DetailedStatistics)
	// AddStatistics sums this heap's statistics into the provided memutils.Statistics
	AddStatistics(stats *memutils.Statistics)

	// HeapJsonData populates a json object with summary information about this heap
	HeapJsonData(json *jwriter.ObjectState)
}

// HeapJsonSummary writes the summary fields shared by HeapMetadata implementations
func HeapJsonSummary(json *jwriter.ObjectState, stats *memutils.DetailedStatistics) {
	json.Name("TotalBytes").Int(stats.HeapBytes)
	json.Name("UnusedBytes").Int(stats.UnusedBytes)
	json.Name("Blocks").Int(stats.BlockCount)
	json.Name("Allocations").Int(stats.AllocationCount)
	json.Name("AllocatedBytes").Int(stats.AllocationBytes)
	json.Name("UnusedRanges").Int(stats.UnusedRangeCount)
}

// BlockJsonData writes a single block as a json object
func BlockJsonData(json *jwriter.ObjectState, block Block) {
	json.Name("Offset").Int(block.Payload)
	json.Name("Size").Int(block.Size)
	if block.Allocated {
		json.Name("Type").String("ALLOCATED")
		json.Name("Usable").Int(block.UsableSize())
	} else {
		json.Name("Type").String("FREE")
	}
}
