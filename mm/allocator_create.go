package mm

import (
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/tagheap/tagheap/memutils"
	"github.com/tagheap/tagheap/memutils/memsys"
	"github.com/tagheap/tagheap/memutils/metadata"
)

// CreateFlags indicate specific allocator behaviors to activate or deactivate
type CreateFlags int32

const (
	// CreateTrackAllocations keeps a registry of live payloads. Release and Resize calls that name
	// an address the allocator did not hand out (or already took back) are logged and ignored
	// instead of corrupting the heap, and Validate cross-checks the registry against the heap.
	CreateTrackAllocations CreateFlags = 1 << iota
	// CreateValidateEachOperation runs Validate after every operation that changes the heap and
	// logs any violation it finds. This is expensive: every check walks the whole heap.
	CreateValidateEachOperation
)

var createFlagsMapping = map[CreateFlags]string{
	CreateTrackAllocations:      "CreateTrackAllocations",
	CreateValidateEachOperation: "CreateValidateEachOperation",
}

func (f CreateFlags) String() string {
	var names []string
	for flag := CreateTrackAllocations; flag <= CreateValidateEachOperation; flag <<= 1 {
		if f&flag != 0 {
			names = append(names, createFlagsMapping[flag])
		}
	}
	return strings.Join(names, "|")
}

// CreateOptions contains optional settings when creating an allocator
type CreateOptions struct {
	// Flags indicates specific allocator behaviors to activate or deactivate
	Flags CreateFlags
	// ChunkSize is the minimum number of bytes the heap grows by when no free block fits a
	// request, and the size of the first free block created by Init. It must be a power of two
	// no smaller than metadata.MinBlockSize. Zero selects metadata.DefaultChunkSize.
	ChunkSize int
}

// New creates a new Allocator over the provided memory system. The memory system must be
// empty; Init lays out the heap and must be called before any other operation.
//
// logger - Receives debug records for each operation and error records for failures. It may
// be nil, in which case nothing is logged.
//
// mem - The memory system the heap is carved from.
//
// options - Optional parameters: it is valid to leave all the fields blank
func New(logger *slog.Logger, mem memsys.MemorySystem, options CreateOptions) (*Allocator, error) {
	if mem == nil {
		return nil, errors.New("mm: a memory system is required")
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	allocator := &Allocator{
		logger:      logger,
		mem:         mem,
		layout:      metadata.NewLayout(mem),
		createFlags: options.Flags,
		chunkSize:   options.ChunkSize,
	}

	if allocator.chunkSize == 0 {
		allocator.chunkSize = metadata.DefaultChunkSize
	}

	if err := memutils.CheckPow2(allocator.chunkSize, "CreateOptions.ChunkSize"); err != nil {
		return nil, err
	}
	if allocator.chunkSize < metadata.MinBlockSize || uint64(allocator.chunkSize) > metadata.MaxBlockSize {
		return nil, errors.Newf("CreateOptions.ChunkSize must be between %d and %d, but it was %d",
			metadata.MinBlockSize, metadata.MaxBlockSize, allocator.chunkSize)
	}

	if options.Flags&CreateTrackAllocations != 0 {
		allocator.live = swiss.NewMap[Pointer, int](64)
	}

	logger.Debug("Allocator::New",
		slog.Int("ChunkSize", allocator.chunkSize),
		slog.String("Flags", options.Flags.String()))

	return allocator, nil
}
