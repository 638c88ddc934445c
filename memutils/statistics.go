package memutils

import "math"

// Statistics summarizes the bytes a heap currently owns and how many of them are handed out
type Statistics struct {
	// HeapBytes is the number of bytes obtained from the memory system, boundary blocks included
	HeapBytes int
	// BlockCount is the number of blocks between the prologue and the epilogue, free or allocated
	BlockCount int
	// AllocationCount is the number of allocated blocks
	AllocationCount int
	// AllocationBytes is the sum of allocated block sizes, tags and padding included
	AllocationBytes int
}

func (s *Statistics) Clear() {
	s.HeapBytes = 0
	s.BlockCount = 0
	s.AllocationCount = 0
	s.AllocationBytes = 0
}

func (s *Statistics) AddStatistics(other *Statistics) {
	s.HeapBytes += other.HeapBytes
	s.BlockCount += other.BlockCount
	s.AllocationCount += other.AllocationCount
	s.AllocationBytes += other.AllocationBytes
}

// Utilization is the fraction of heap bytes held by allocated blocks, or 0 for an empty heap
func (s *Statistics) Utilization() float64 {
	if s.HeapBytes == 0 {
		return 0
	}
	return float64(s.AllocationBytes) / float64(s.HeapBytes)
}

type DetailedStatistics struct {
	Statistics
	UnusedRangeCount   int
	UnusedBytes        int
	AllocationSizeMin  int
	AllocationSizeMax  int
	UnusedRangeSizeMin int
	UnusedRangeSizeMax int
}

func (s *DetailedStatistics) Clear() {
	s.Statistics.Clear()
	s.UnusedRangeCount = 0
	s.UnusedBytes = 0
	s.AllocationSizeMin = math.MaxInt
	s.AllocationSizeMax = 0
	s.UnusedRangeSizeMin = math.MaxInt
	s.UnusedRangeSizeMax = 0
}

func (s *DetailedStatistics) AddUnusedRange(size int) {
	s.BlockCount++
	s.UnusedRangeCount++
	s.UnusedBytes += size

	if size < s.UnusedRangeSizeMin {
		s.UnusedRangeSizeMin = size
	}

	if size > s.UnusedRangeSizeMax {
		s.UnusedRangeSizeMax = size
	}
}

func (s *DetailedStatistics) AddAllocation(size int) {
	s.BlockCount++
	s.AllocationCount++
	s.AllocationBytes += size

	if size < s.AllocationSizeMin {
		s.AllocationSizeMin = size
	}

	if size > s.AllocationSizeMax {
		s.AllocationSizeMax = size
	}
}

func (s *DetailedStatistics) AddDetailedStatistics(other *DetailedStatistics) {
	s.Statistics.AddStatistics(&other.Statistics)
	s.UnusedRangeCount += other.UnusedRangeCount
	s.UnusedBytes += other.UnusedBytes

	if other.UnusedRangeSizeMin < s.UnusedRangeSizeMin {
		s.UnusedRangeSizeMin = other.UnusedRangeSizeMin
	}

	if other.UnusedRangeSizeMax > s.UnusedRangeSizeMax {
		s.UnusedRangeSizeMax = other.UnusedRangeSizeMax
	}

	if other.AllocationSizeMin < s.AllocationSizeMin {
		s.AllocationSizeMin = other.AllocationSizeMin
	}

	if other.AllocationSizeMax > s.AllocationSizeMax {
		s.AllocationSizeMax = other.AllocationSizeMax
	}
}
