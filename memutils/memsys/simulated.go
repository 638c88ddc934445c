package memsys

// Simulated is a MemorySystem backed by an ordinary Go byte slice with a fixed maximum size.
// Growth appends to the slice, so the slice returned by Bytes may move after Sbrk while
// offsets stay valid.
type Simulated struct {
	maxHeap int
	heap    []byte
}

var _ MemorySystem = &Simulated{}

// NewSimulated creates an empty simulated heap that can grow to maxHeap bytes. A maxHeap of
// zero or less selects DefaultMaxHeap.
func NewSimulated(maxHeap int) *Simulated {
	if maxHeap <= 0 {
		maxHeap = DefaultMaxHeap
	}
	return &Simulated{maxHeap: maxHeap}
}

func (s *Simulated) Sbrk(incr int) (int, error) {
	brk := len(s.heap)
	if err := checkIncrement(brk, s.maxHeap, incr); err != nil {
		return -1, err
	}

	s.heap = append(s.heap, make([]byte, incr)...)
	return brk, nil
}

func (s *Simulated) HeapLo() int   { return 0 }
func (s *Simulated) HeapHi() int   { return len(s.heap) - 1 }
func (s *Simulated) HeapSize() int { return len(s.heap) }
func (s *Simulated) Bytes() []byte { return s.heap }

// MaxHeap returns the size the heap may grow to
func (s *Simulated) MaxHeap() int { return s.maxHeap }

// Reset rewinds the break to the start of the heap, discarding its contents
func (s *Simulated) Reset() {
	s.heap = s.heap[:0]
}
