package mm

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/tagheap/tagheap/memutils"
	"github.com/tagheap/tagheap/memutils/metadata"
)

// HeapSize returns the number of bytes currently obtained from the memory system
func (a *Allocator) HeapSize() int {
	return a.mem.HeapSize()
}

// AllocationCount returns the number of live allocations
func (a *Allocator) AllocationCount() int {
	return a.allocCount
}

// FreeRegionsCount returns the number of free blocks in the heap
func (a *Allocator) FreeRegionsCount() int {
	var stats memutils.DetailedStatistics
	stats.Clear()
	a.AddDetailedStatistics(&stats)
	return stats.UnusedRangeCount
}

// SumFreeSize returns the number of bytes held by free blocks, tags included
func (a *Allocator) SumFreeSize() int {
	var stats memutils.DetailedStatistics
	stats.Clear()
	a.AddDetailedStatistics(&stats)
	return stats.UnusedBytes
}

// VisitAllBlocks calls handleBlock once for each block between the prologue and the epilogue,
// in address order. It does nothing before Init.
func (a *Allocator) VisitAllBlocks(handleBlock func(block metadata.Block) error) error {
	if !a.initialized {
		return nil
	}
	return a.layout.VisitAllBlocks(a.firstBlock(), handleBlock)
}

// AddStatistics sums this heap's statistics into stats
func (a *Allocator) AddStatistics(stats *memutils.Statistics) {
	stats.HeapBytes += a.mem.HeapSize()
	_ = a.VisitAllBlocks(func(block metadata.Block) error {
		stats.BlockCount++
		if block.Allocated {
			stats.AllocationCount++
			stats.AllocationBytes += block.Size
		}
		return nil
	})
}

// AddDetailedStatistics sums this heap's statistics, including block size ranges, into stats
func (a *Allocator) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	stats.HeapBytes += a.mem.HeapSize()
	_ = a.VisitAllBlocks(func(block metadata.Block) error {
		if block.Allocated {
			stats.AddAllocation(block.Size)
		} else {
			stats.AddUnusedRange(block.Size)
		}
		return nil
	})
}

// HeapJsonData populates a json object with summary information about this heap
func (a *Allocator) HeapJsonData(json *jwriter.ObjectState) {
	var stats memutils.DetailedStatistics
	stats.Clear()
	a.AddDetailedStatistics(&stats)
	metadata.HeapJsonSummary(json, &stats)
}

// PrintDetailedMap writes a json object describing the heap and every block in it to writer
func (a *Allocator) PrintDetailedMap(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	a.HeapJsonData(&obj)

	blocks := obj.Name("BlockMap").Array()
	defer blocks.End()

	_ = a.VisitAllBlocks(func(block metadata.Block) error {
		blockObj := blocks.Object()
		defer blockObj.End()

		metadata.BlockJsonData(&blockObj, block)
		return nil
	})
}

// BuildStatsString returns a json document with the heap's statistics. When detailedMap is
// true, it also lists every block.
func (a *Allocator) BuildStatsString(detailedMap bool) string {
	var stats memutils.DetailedStatistics
	stats.Clear()
	a.AddDetailedStatistics(&stats)

	writer := jwriter.NewWriter()
	obj := writer.Object()

	total := obj.Name("Total").Object()
	metadata.HeapJsonSummary(&total, &stats)
	if stats.AllocationCount > 0 {
		total.Name("AllocationSizeMin").Int(stats.AllocationSizeMin)
		total.Name("AllocationSizeMax").Int(stats.AllocationSizeMax)
	}
	if stats.UnusedRangeCount > 0 {
		total.Name("UnusedRangeSizeMin").Int(stats.UnusedRangeSizeMin)
		total.Name("UnusedRangeSizeMax").Int(stats.UnusedRangeSizeMax)
	}
	total.Name("Utilization").Float64(stats.Utilization())
	total.End()

	obj.Name("ChunkSize").Int(a.chunkSize)
	obj.Name("Flags").String(a.createFlags.String())

	if detailedMap {
		a.PrintDetailedMap(obj.Name("DetailedMap"))
	}

	obj.End()
	return string(writer.Bytes())
}
