//go:build !unix

package memsys

// Mapped falls back to a simulated heap where anonymous mappings are unavailable
type Mapped struct {
	Simulated
}

var _ MemorySystem = &Mapped{}

// NewMapped creates a slice-backed heap of maxHeap bytes. A maxHeap of zero or less selects
// DefaultMaxHeap.
func NewMapped(maxHeap int) (*Mapped, error) {
	return &Mapped{Simulated: *NewSimulated(maxHeap)}, nil
}

// Close releases the heap contents
func (m *Mapped) Close() error {
	m.Reset()
	return nil
}
