package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tagheap/tagheap/memutils/memsys"
	"github.com/tagheap/tagheap/mm"
)

func loadTestTrace(t *testing.T, name string) *Trace {
	trace, err := LoadTrace(filepath.Join("testdata", name))
	require.NoError(t, err)
	return trace
}

func TestRunTraceTestdata(t *testing.T) {
	for _, name := range []string{"short1.rep", "short2.rep", "realloc.rep", "coalesce.rep"} {
		for _, mapped := range []bool{false, true} {
			result := RunTrace(loadTestTrace(t, name), ReplayOptions{Mapped: mapped, ValidateEach: true})
			require.NoError(t, result.Err, name)
			require.True(t, result.Valid())
			require.Greater(t, result.PeakPayload, 0)
			require.GreaterOrEqual(t, result.HeapSize, result.PeakPayload)
			require.Greater(t, result.Utilization(), 0.0)
			require.LessOrEqual(t, result.Utilization(), 1.0)
		}
	}
}

func TestRunTraceKeepsStats(t *testing.T) {
	result := RunTrace(loadTestTrace(t, "short1.rep"), ReplayOptions{DetailedMap: true})
	require.NoError(t, result.Err)
	require.Contains(t, result.Stats, `"DetailedMap"`)
	require.Contains(t, result.Stats, `"Allocations":0`)
}

func TestRunTraceHeapExhausted(t *testing.T) {
	result := RunTrace(loadTestTrace(t, "realloc.rep"), ReplayOptions{MaxHeap: 16384})
	require.False(t, result.Valid())
	require.ErrorContains(t, result.Err, "resizing to 9000 bytes failed")
}

func parseInline(t *testing.T, input string) *Trace {
	trace, err := ParseTrace("inline.rep", strings.NewReader(input))
	require.NoError(t, err)
	return trace
}

func newTestAllocator(t *testing.T) (*mm.Allocator, *memsys.Simulated) {
	mem := memsys.NewSimulated(0)
	allocator, err := mm.New(nil, mem, mm.CreateOptions{})
	require.NoError(t, err)
	require.NoError(t, allocator.Init())
	return allocator, mem
}

// reusingAllocator hands out its first payload to every allocation
type reusingAllocator struct {
	*mm.Allocator
	first mm.Pointer
}

func (a *reusingAllocator) Allocate(size int) mm.Pointer {
	if a.first == mm.Null {
		a.first = a.Allocator.Allocate(size)
	}
	return a.first
}

// forgetfulAllocator clears payloads when it moves them
type forgetfulAllocator struct {
	*mm.Allocator
}

func (a *forgetfulAllocator) Resize(p mm.Pointer, size int) mm.Pointer {
	q := a.Allocator.Resize(p, size)
	clear(a.Payload(q))
	return q
}

// misalignedAllocator returns payload offsets four bytes past the real ones
type misalignedAllocator struct {
	*mm.Allocator
}

func (a *misalignedAllocator) Allocate(size int) mm.Pointer {
	return a.Allocator.Allocate(size) + 4
}

func TestReplayDetectsBrokenAllocators(t *testing.T) {
	testCases := map[string]struct {
		wrap    func(a *mm.Allocator) heapAllocator
		trace   string
		message string
	}{
		"Overlap": {
			wrap:    func(a *mm.Allocator) heapAllocator { return &reusingAllocator{Allocator: a} },
			trace:   "100\n2\n2\n1\na 0 16\na 1 16\n",
			message: "overlaps block id 0",
		},
		"LostContents": {
			wrap:    func(a *mm.Allocator) heapAllocator { return &forgetfulAllocator{Allocator: a} },
			trace:   "100\n1\n2\n1\na 0 16\nr 0 64\n",
			message: "resize lost payload contents",
		},
		"Misaligned": {
			wrap:    func(a *mm.Allocator) heapAllocator { return &misalignedAllocator{Allocator: a} },
			trace:   "100\n1\n1\n1\na 0 16\n",
			message: "is not aligned to 8 bytes",
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			allocator, mem := newTestAllocator(t)
			trace := parseInline(t, testCase.trace)

			err := newReplayer(trace, mem, testCase.wrap(allocator), false).run()
			require.ErrorContains(t, err, testCase.message)
		})
	}
}

func TestReplayDetectsOverwrittenPayload(t *testing.T) {
	allocator, mem := newTestAllocator(t)
	trace := parseInline(t, "100\n1\n2\n1\na 0 16\nf 0\n")

	replay := newReplayer(trace, mem, allocator, true)
	require.NoError(t, replay.apply(trace.Ops[0]))
	allocator.Payload(replay.live[0].p)[3]++

	require.ErrorContains(t, replay.apply(trace.Ops[1]), "payload byte 3 of block id 0 was overwritten")
}

func TestReplayZeroSizeRequests(t *testing.T) {
	allocator, mem := newTestAllocator(t)
	trace := parseInline(t, "100\n2\n4\n1\na 0 0\na 1 40\nr 1 0\nf 0\n")

	replay := newReplayer(trace, mem, allocator, true)
	require.NoError(t, replay.run())
	require.Equal(t, 40, replay.peak)
	require.Zero(t, replay.payload)
	require.Equal(t, 0, allocator.AllocationCount())
}
