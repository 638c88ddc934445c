package main

import (
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tagheap/tagheap/memutils"
	"github.com/tagheap/tagheap/memutils/memsys"
	"github.com/tagheap/tagheap/memutils/metadata"
	"github.com/tagheap/tagheap/mm"
)

// ReplayOptions controls how traces are replayed
type ReplayOptions struct {
	Logger *slog.Logger
	// Mapped grows heaps inside an anonymous memory mapping instead of a Go slice
	Mapped bool
	// MaxHeap is the largest heap a trace may use; zero selects memsys.DefaultMaxHeap
	MaxHeap int
	// ValidateEach runs the heap checker after every request
	ValidateEach bool
	// DetailedMap keeps the final heap's statistics document in Result.Stats
	DetailedMap bool
}

// Result is the outcome of replaying one trace
type Result struct {
	Name   string
	Ops    int
	Weight int
	// Err is the first correctness failure, nil when the trace replayed cleanly
	Err error
	// PeakPayload is the largest number of payload bytes live at once
	PeakPayload int
	// HeapSize is the size of the heap once every request has run
	HeapSize int
	// Elapsed is the time spent in allocator calls during an unchecked second replay
	Elapsed time.Duration
	Stats   string
}

func (r *Result) Valid() bool {
	return r.Err == nil
}

// Utilization is the peak live payload over the final heap size
func (r *Result) Utilization() float64 {
	if r.HeapSize == 0 {
		return 0
	}
	return float64(r.PeakPayload) / float64(r.HeapSize)
}

// Throughput is the number of requests served per second
func (r *Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Ops) / r.Elapsed.Seconds()
}

// heapAllocator is the part of mm.Allocator a replay drives
type heapAllocator interface {
	Allocate(size int) mm.Pointer
	Release(p mm.Pointer)
	Resize(p mm.Pointer, size int) mm.Pointer
	Payload(p mm.Pointer) []byte
	Validate() error
}

// RunTrace replays trace twice on fresh heaps: once with every payload checked, then once
// unchecked to measure throughput
func RunTrace(trace *Trace, options ReplayOptions) *Result {
	result := &Result{Name: trace.Name, Ops: len(trace.Ops), Weight: trace.Weight}

	flags := mm.CreateFlags(0)
	if options.ValidateEach {
		flags = mm.CreateTrackAllocations
	}

	err := withHeap(options, flags, func(mem memsys.MemorySystem, allocator *mm.Allocator) error {
		replay := newReplayer(trace, mem, allocator, options.ValidateEach)
		if err := replay.run(); err != nil {
			return err
		}

		result.PeakPayload = replay.peak
		result.HeapSize = mem.HeapSize()
		if options.DetailedMap {
			result.Stats = allocator.BuildStatsString(true)
		}
		return nil
	})
	if err != nil {
		result.Err = err
		return result
	}

	result.Elapsed, result.Err = timeTrace(trace, options)
	return result
}

func withHeap(options ReplayOptions, flags mm.CreateFlags, fn func(mem memsys.MemorySystem, allocator *mm.Allocator) error) error {
	var mem memsys.MemorySystem
	if options.Mapped {
		mapped, err := memsys.NewMapped(options.MaxHeap)
		if err != nil {
			return errors.Wrap(err, "mapping heap")
		}
		defer func() {
			if err := mapped.Close(); err != nil && options.Logger != nil {
				options.Logger.Warn("unmapping heap failed", slog.Any("error", err))
			}
		}()
		mem = mapped
	} else {
		mem = memsys.NewSimulated(options.MaxHeap)
	}

	allocator, err := mm.New(options.Logger, mem, mm.CreateOptions{Flags: flags})
	if err != nil {
		return err
	}
	if err := allocator.Init(); err != nil {
		return err
	}

	return fn(mem, allocator)
}

func timeTrace(trace *Trace, options ReplayOptions) (time.Duration, error) {
	var elapsed time.Duration

	err := withHeap(options, 0, func(_ memsys.MemorySystem, allocator *mm.Allocator) error {
		ptrs := make([]mm.Pointer, trace.NumIDs)

		start := time.Now()
		for _, op := range trace.Ops {
			switch op.Kind {
			case OpAllocate:
				ptrs[op.ID] = allocator.Allocate(op.Size)
			case OpResize:
				ptrs[op.ID] = allocator.Resize(ptrs[op.ID], op.Size)
			case OpRelease:
				allocator.Release(ptrs[op.ID])
				ptrs[op.ID] = mm.Null
			}
		}
		elapsed = time.Since(start)
		return nil
	})

	return elapsed, errors.Wrap(err, "timing replay")
}

type liveRange struct {
	p    mm.Pointer
	size int
}

// replayer runs a trace against an allocator and checks each payload it hands out: aligned,
// inside the heap, disjoint from every other live payload, and holding the bytes written to
// it until it is released or resized
type replayer struct {
	trace        *Trace
	mem          memsys.MemorySystem
	allocator    heapAllocator
	validateEach bool

	live    []liveRange
	payload int
	peak    int
}

func newReplayer(trace *Trace, mem memsys.MemorySystem, allocator heapAllocator, validateEach bool) *replayer {
	return &replayer{
		trace:        trace,
		mem:          mem,
		allocator:    allocator,
		validateEach: validateEach,
		live:         make([]liveRange, trace.NumIDs),
	}
}

func (r *replayer) run() error {
	for i, op := range r.trace.Ops {
		if err := r.apply(op); err != nil {
			return errors.Wrapf(err, "%s:%d: request %d (%s %d)", r.trace.Name, op.Line, i, op.Kind, op.ID)
		}

		if r.validateEach {
			if err := r.allocator.Validate(); err != nil {
				return errors.Wrapf(err, "%s:%d: heap inconsistent after request %d", r.trace.Name, op.Line, i)
			}
		}
	}
	return nil
}

func (r *replayer) apply(op Op) error {
	switch op.Kind {
	case OpAllocate:
		if !r.live[op.ID].p.IsNull() {
			return errors.Newf("block id %d is already allocated", op.ID)
		}

		p := r.allocator.Allocate(op.Size)
		if op.Size == 0 {
			if p != mm.Null {
				return errors.Newf("a zero-size allocation returned %d", p)
			}
			return nil
		}
		if p == mm.Null {
			return errors.Newf("allocating %d bytes failed", op.Size)
		}
		if err := r.addRange(op.ID, p, op.Size); err != nil {
			return err
		}
		r.fill(op.ID, 0)

	case OpResize:
		old := r.live[op.ID]
		if err := r.checkContents(op.ID, old.size); err != nil {
			return err
		}

		p := r.allocator.Resize(old.p, op.Size)
		r.removeRange(op.ID)
		if op.Size == 0 {
			if p != mm.Null {
				return errors.Newf("a zero-size resize returned %d", p)
			}
			return nil
		}
		if p == mm.Null {
			return errors.Newf("resizing to %d bytes failed", op.Size)
		}
		if err := r.addRange(op.ID, p, op.Size); err != nil {
			return err
		}

		kept := min(old.size, op.Size)
		if err := r.checkContents(op.ID, kept); err != nil {
			return errors.Wrap(err, "resize lost payload contents")
		}
		r.fill(op.ID, kept)

	case OpRelease:
		if err := r.checkContents(op.ID, r.live[op.ID].size); err != nil {
			return err
		}
		r.allocator.Release(r.live[op.ID].p)
		r.removeRange(op.ID)
	}

	return nil
}

func (r *replayer) addRange(id int, p mm.Pointer, size int) error {
	if !memutils.IsAligned(int(p), metadata.Alignment) {
		return errors.Newf("payload %d is not aligned to %d bytes", p, metadata.Alignment)
	}

	lo, hi := int(p), int(p)+size-1
	if lo < r.mem.HeapLo() || hi > r.mem.HeapHi() {
		return errors.Newf("payload [%d, %d] lies outside the heap [%d, %d]", lo, hi, r.mem.HeapLo(), r.mem.HeapHi())
	}
	if len(r.allocator.Payload(p)) < size {
		return errors.Newf("payload %d holds %d bytes, but %d were requested", p, len(r.allocator.Payload(p)), size)
	}

	for other, live := range r.live {
		if live.p.IsNull() || other == id {
			continue
		}
		otherLo, otherHi := int(live.p), int(live.p)+live.size-1
		if lo <= otherHi && otherLo <= hi {
			return errors.Newf("payload [%d, %d] overlaps block id %d at [%d, %d]", lo, hi, other, otherLo, otherHi)
		}
	}

	r.live[id] = liveRange{p: p, size: size}
	r.payload += size
	r.peak = max(r.peak, r.payload)
	return nil
}

func (r *replayer) removeRange(id int) {
	r.payload -= r.live[id].size
	r.live[id] = liveRange{}
}

func patternByte(id, i int) byte {
	return byte(id*31 + i)
}

func (r *replayer) fill(id, from int) {
	live := r.live[id]
	payload := r.allocator.Payload(live.p)
	for i := from; i < live.size; i++ {
		payload[i] = patternByte(id, i)
	}
}

func (r *replayer) checkContents(id, n int) error {
	live := r.live[id]
	if live.p.IsNull() {
		return nil
	}

	payload := r.allocator.Payload(live.p)
	for i := 0; i < n; i++ {
		if payload[i] != patternByte(id, i) {
			return errors.Newf("payload byte %d of block id %d was overwritten", i, id)
		}
	}
	return nil
}
