package mm

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tagheap/tagheap/memutils/metadata"
)

func TestValidateDetectsCorruption(t *testing.T) {
	testCases := map[string]struct {
		corrupt func(a *Allocator)
		message string
	}{
		"FooterMismatch": {
			corrupt: func(a *Allocator) {
				p := int(a.Allocate(32))
				a.layout.PutWord(a.layout.Footer(p), metadata.Pack(48, metadata.TagAllocated))
			},
			message: "has header 40/allocated but footer 48/allocated",
		},
		"AdjacentFree": {
			corrupt: func(a *Allocator) {
				a.Allocate(16)
				p := int(a.Allocate(16))
				a.layout.WriteBlock(p, 24, metadata.TagFree)
			},
			message: "are adjacent and were not coalesced",
		},
		"PrologueHeader": {
			corrupt: func(a *Allocator) {
				a.layout.PutWord(a.layout.Header(a.prologue), metadata.Pack(16, metadata.TagAllocated))
			},
			message: "the prologue header",
		},
		"PrologueFooter": {
			corrupt: func(a *Allocator) {
				a.layout.PutWord(a.prologue, metadata.Pack(metadata.PrologueSize, metadata.TagFree))
			},
			message: "the prologue footer",
		},
		"EpilogueFree": {
			corrupt: func(a *Allocator) {
				a.layout.PutWord(a.HeapSize()-metadata.WordSize, metadata.Pack(0, metadata.TagFree))
			},
			message: "is not marked allocated",
		},
		"EpilogueMisplaced": {
			corrupt: func(a *Allocator) {
				a.layout.WriteBlock(16, metadata.DefaultChunkSize-8, metadata.TagFree)
				a.layout.WriteEpilogue(16 + metadata.DefaultChunkSize - 8)
			},
			message: "the epilogue header is at offset 4100",
		},
		"ReservedBits": {
			corrupt: func(a *Allocator) {
				a.layout.PutWord(a.layout.Header(16), a.layout.HeaderTag(16)|2)
			},
			message: "reserved header bits",
		},
		"Undersized": {
			corrupt: func(a *Allocator) {
				a.layout.PutWord(a.layout.Header(16), metadata.Pack(8, metadata.TagFree))
			},
			message: "below the minimum",
		},
		"RunsPastHeap": {
			corrupt: func(a *Allocator) {
				a.layout.PutWord(a.layout.Header(16), metadata.Pack(2*metadata.DefaultChunkSize, metadata.TagFree))
			},
			message: "runs past the end of the heap",
		},
		"AllocationCount": {
			corrupt: func(a *Allocator) {
				a.Allocate(16)
				a.allocCount++
			},
			message: "the allocator counts 2 allocations, but the heap holds 1",
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			allocator, _ := readyAllocator(t, 0, CreateOptions{})
			testCase.corrupt(allocator)

			err := allocator.Validate()
			require.Error(t, err)
			require.ErrorContains(t, err, testCase.message)
			require.False(t, allocator.Check())
		})
	}
}

func TestValidateChecksRegistry(t *testing.T) {
	testCases := map[string]struct {
		corrupt func(a *Allocator, p Pointer)
		message string
	}{
		"MissingEntry": {
			corrupt: func(a *Allocator, p Pointer) { a.live.Delete(p) },
			message: "0 allocations are registered, but the heap holds 1",
		},
		"FreeEntry": {
			corrupt: func(a *Allocator, p Pointer) {
				a.live.Delete(p)
				a.live.Put(Pointer(a.layout.Next(int(p))), 8)
			},
			message: "is not marked allocated",
		},
		"OutsideHeap": {
			corrupt: func(a *Allocator, p Pointer) {
				a.live.Delete(p)
				a.live.Put(Pointer(1<<20), 8)
			},
			message: "lies outside the heap",
		},
		"RequestTooLarge": {
			corrupt: func(a *Allocator, p Pointer) { a.live.Put(p, 1000) },
			message: "holds 32 usable bytes but 1000 were requested",
		},
	}

	for name, testCase := range testCases {
		t.Run(name, func(t *testing.T) {
			allocator, _ := readyAllocator(t, 0, CreateOptions{Flags: CreateTrackAllocations})
			p := allocator.Allocate(30)
			require.NoError(t, allocator.Validate())

			testCase.corrupt(allocator, p)
			require.ErrorContains(t, allocator.Validate(), testCase.message)
		})
	}
}

func TestValidateEachOperationLogsCorruption(t *testing.T) {
	allocator, logs := readyLoggedAllocator(t, CreateOptions{Flags: CreateValidateEachOperation})
	require.Empty(t, logs.String())

	p := allocator.Allocate(16)
	allocator.Release(p)
	require.Empty(t, logs.String())

	allocator.allocCount += 3
	allocator.Allocate(16)
	require.Contains(t, logs.String(), "[HEAP CORRUPTION] detected after Allocator::Allocate")
}

func TestCheckLogsViolation(t *testing.T) {
	allocator, logs := readyLoggedAllocator(t, CreateOptions{})
	require.True(t, allocator.Check())
	require.Empty(t, logs.String())

	allocator.allocCount--
	require.False(t, allocator.Check())
	require.Contains(t, logs.String(), "Allocator::Check FAILED")
}
