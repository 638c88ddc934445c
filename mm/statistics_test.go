package mm

import (
	"encoding/json"
	"testing"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/tagheap/tagheap/memutils"
	"github.com/tagheap/tagheap/memutils/memsys"
)

func TestStatistics(t *testing.T) {
	allocator, _ := readyAllocator(t, 0, CreateOptions{})
	allocator.Allocate(100)
	allocator.Allocate(200)

	var stats memutils.Statistics
	allocator.AddStatistics(&stats)
	require.Equal(t, memutils.Statistics{
		HeapBytes:       initialHeapSize,
		BlockCount:      3,
		AllocationCount: 2,
		AllocationBytes: 320,
	}, stats)
	require.InDelta(t, 320.0/initialHeapSize, stats.Utilization(), 1e-9)

	var detailed memutils.DetailedStatistics
	detailed.Clear()
	allocator.AddDetailedStatistics(&detailed)
	require.Equal(t, stats, detailed.Statistics)
	require.Equal(t, 1, detailed.UnusedRangeCount)
	require.Equal(t, 3776, detailed.UnusedBytes)
	require.Equal(t, 112, detailed.AllocationSizeMin)
	require.Equal(t, 208, detailed.AllocationSizeMax)
	require.Equal(t, 3776, detailed.UnusedRangeSizeMin)
	require.Equal(t, 3776, detailed.UnusedRangeSizeMax)

	require.Equal(t, 1, allocator.FreeRegionsCount())
	require.Equal(t, 3776, allocator.SumFreeSize())
}

type statsDocument struct {
	Total struct {
		TotalBytes         int
		UnusedBytes        int
		Blocks             int
		Allocations        int
		AllocatedBytes     int
		UnusedRanges       int
		AllocationSizeMin  int
		AllocationSizeMax  int
		UnusedRangeSizeMin int
		UnusedRangeSizeMax int
		Utilization        float64
	}
	ChunkSize   int
	Flags       string
	DetailedMap *struct {
		TotalBytes int
		Blocks     int
		BlockMap   []struct {
			Offset int
			Size   int
			Type   string
			Usable int
		}
	}
}

func TestBuildStatsString(t *testing.T) {
	allocator, _ := readyAllocator(t, 0, CreateOptions{Flags: CreateTrackAllocations})
	a := allocator.Allocate(100)
	allocator.Allocate(200)
	allocator.Release(a)

	var doc statsDocument
	require.NoError(t, json.Unmarshal([]byte(allocator.BuildStatsString(false)), &doc))
	require.Nil(t, doc.DetailedMap)
	require.Equal(t, initialHeapSize, doc.Total.TotalBytes)
	require.Equal(t, 3, doc.Total.Blocks)
	require.Equal(t, 1, doc.Total.Allocations)
	require.Equal(t, 208, doc.Total.AllocatedBytes)
	require.Equal(t, 2, doc.Total.UnusedRanges)
	require.Equal(t, 112+3776, doc.Total.UnusedBytes)
	require.Equal(t, 112, doc.Total.UnusedRangeSizeMin)
	require.Equal(t, 3776, doc.Total.UnusedRangeSizeMax)
	require.InDelta(t, 208.0/initialHeapSize, doc.Total.Utilization, 1e-9)
	require.Equal(t, 4096, doc.ChunkSize)
	require.Equal(t, "CreateTrackAllocations", doc.Flags)

	doc = statsDocument{}
	require.NoError(t, json.Unmarshal([]byte(allocator.BuildStatsString(true)), &doc))
	require.NotNil(t, doc.DetailedMap)
	require.Equal(t, initialHeapSize, doc.DetailedMap.TotalBytes)
	require.Len(t, doc.DetailedMap.BlockMap, 3)

	first := doc.DetailedMap.BlockMap[0]
	require.Equal(t, 16, first.Offset)
	require.Equal(t, 112, first.Size)
	require.Equal(t, "FREE", first.Type)

	second := doc.DetailedMap.BlockMap[1]
	require.Equal(t, 128, second.Offset)
	require.Equal(t, "ALLOCATED", second.Type)
	require.Equal(t, 200, second.Usable)
}

func TestPrintDetailedMapBeforeInit(t *testing.T) {
	allocator, err := New(nil, memsys.NewSimulated(0), CreateOptions{})
	require.NoError(t, err)

	writer := jwriter.NewWriter()
	allocator.PrintDetailedMap(&writer)
	require.NoError(t, writer.Error())
	require.JSONEq(t, `{"TotalBytes":0,"UnusedBytes":0,"Blocks":0,"Allocations":0,"AllocatedBytes":0,"UnusedRanges":0,"BlockMap":[]}`,
		string(writer.Bytes()))
}
