//go:build unix

package memsys

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Mapped is a MemorySystem that reserves its whole maximum heap up front as an anonymous
// private mapping and hands it out by moving a break inside the reservation. Pages are only
// backed by physical memory once touched, and the heap never moves in memory.
type Mapped struct {
	maxHeap int
	brk     int
	region  []byte
}

var _ MemorySystem = &Mapped{}

// NewMapped reserves maxHeap bytes of address space. A maxHeap of zero or less selects
// DefaultMaxHeap. The reservation is released with Close.
func NewMapped(maxHeap int) (*Mapped, error) {
	if maxHeap <= 0 {
		maxHeap = DefaultMaxHeap
	}

	region, err := unix.Mmap(-1, 0, maxHeap, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, errors.Wrapf(err, "memsys: reserving %d bytes", maxHeap)
	}

	return &Mapped{maxHeap: maxHeap, region: region}, nil
}

func (m *Mapped) Sbrk(incr int) (int, error) {
	if m.region == nil {
		return -1, errors.Wrap(ErrHeapExhausted, "memsys: mapping is closed")
	}
	if err := checkIncrement(m.brk, m.maxHeap, incr); err != nil {
		return -1, err
	}

	old := m.brk
	m.brk += incr
	return old, nil
}

func (m *Mapped) HeapLo() int   { return 0 }
func (m *Mapped) HeapHi() int   { return m.brk - 1 }
func (m *Mapped) HeapSize() int { return m.brk }
func (m *Mapped) Bytes() []byte { return m.region[:m.brk] }

// MaxHeap returns the size of the reservation
func (m *Mapped) MaxHeap() int { return m.maxHeap }

// Close unmaps the reservation. Closing twice is a no-op.
func (m *Mapped) Close() error {
	if m.region == nil {
		return nil
	}

	err := unix.Munmap(m.region)
	m.region = nil
	m.brk = 0
	if errors.Is(err, unix.EINVAL) {
		return nil
	}
	return err
}
