package memory

import "errors"

// MemoryError implements errors unique to a replay memory.
type MemoryError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *MemoryError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the wrapped error
func (e *MemoryError) Unwrap() error {
	return e.Err
}

var errEmptyBuffer error = errors.New("buffer empty")

// IsEmptyBuffer returns whether or not an error reports that a replay
// memory was sampled before any record was memorized.
func IsEmptyBuffer(err error) bool {
	if memErr, ok := err.(*MemoryError); ok {
		err = memErr.Err
	}
	return err == errEmptyBuffer
}
