package mm

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tagheap/tagheap/memutils/memsys"
	"github.com/tagheap/tagheap/memutils/metadata"
)

// initialHeapSize is the heap size right after Init with the default chunk size
const initialHeapSize = metadata.BoundarySize + metadata.DefaultChunkSize

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func readyAllocator(t *testing.T, maxHeap int, options CreateOptions) (*Allocator, *memsys.Simulated) {
	mem := memsys.NewSimulated(maxHeap)
	allocator, err := New(discardLogger(), mem, options)
	require.NoError(t, err)
	require.NoError(t, allocator.Init())
	require.NoError(t, allocator.Validate())
	return allocator, mem
}

func readyLoggedAllocator(t *testing.T, options CreateOptions) (*Allocator, *bytes.Buffer) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelError}))
	allocator, err := New(logger, memsys.NewSimulated(0), options)
	require.NoError(t, err)
	require.NoError(t, allocator.Init())
	return allocator, &logs
}

func listBlocks(t *testing.T, allocator *Allocator) []metadata.Block {
	var blocks []metadata.Block
	err := allocator.VisitAllBlocks(func(block metadata.Block) error {
		blocks = append(blocks, block)
		return nil
	})
	require.NoError(t, err)
	return blocks
}

func fillPattern(payload []byte, seed byte) {
	for i := range payload {
		payload[i] = seed + byte(i*7)
	}
}

func requirePattern(t *testing.T, payload []byte, seed byte) {
	for i := range payload {
		require.Equal(t, seed+byte(i*7), payload[i], "byte %d", i)
	}
}

func requireNoAdjacentFree(t *testing.T, allocator *Allocator) {
	prevFree := false
	for _, block := range listBlocks(t, allocator) {
		require.False(t, prevFree && !block.Allocated, "adjacent free blocks ending at %d", block.Payload)
		prevFree = !block.Allocated
	}
}
