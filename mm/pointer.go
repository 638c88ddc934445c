package mm

// Pointer identifies a payload by its offset from the start of the heap
type Pointer int

// Null is the pointer returned for zero-size requests and failed allocations. Offset 0 holds the
// heap's alignment padding, so no payload can ever live there.
const Null Pointer = 0

// IsNull reports whether p is Null
func (p Pointer) IsNull() bool { return p == Null }
