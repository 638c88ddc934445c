package mm

import "github.com/cockroachdb/errors"

var (
	// ErrInitFailed marks errors returned from Init when the memory system could not supply the
	// boundary blocks or the first chunk
	ErrInitFailed = errors.New("mm: heap initialization failed")
	// ErrAlreadyInitialized is returned from Init when the heap has already been initialized
	ErrAlreadyInitialized = errors.New("mm: heap is already initialized")
	// ErrNotInitialized is returned from Validate before a successful Init
	ErrNotInitialized = errors.New("mm: heap is not initialized")
)
