package contact

import (
	"errors"
	"fmt"
)

var (
	// ErrRead indicates the backing file is missing, unreadable, or not a
	// valid contact list.
	ErrRead = errors.New("contact: read failure")

	// ErrWrite indicates the backing file could not be replaced.
	ErrWrite = errors.New("contact: write failure")
)

// ReadError reports a failed load of the backing file.
// It matches ErrRead with errors.Is.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("contact: reading %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// Is reports whether target is ErrRead.
func (e *ReadError) Is(target error) bool { return target == ErrRead }

// WriteError reports a failed save of the backing file.
// It matches ErrWrite with errors.Is.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("contact: writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Is reports whether target is ErrWrite.
func (e *WriteError) Is(target error) bool { return target == ErrWrite }
