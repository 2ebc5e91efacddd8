package vsfs

import (
	"fmt"
	"syscall"
)

// DriverError is a wrapper around a POSIX errno code, with an optional
// customized message. The kernel bridge (§6, §7) only ever sees the negated
// numeric value of ErrnoCode; Error() exists so the formatter and tests can
// print something readable.
type DriverError struct {
	ErrnoCode syscall.Errno
	message   string
}

// Error implements the `error` interface.
func (e *DriverError) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.ErrnoCode.Error()
}

// Errno returns the negated POSIX error number the kernel bridge's contract
// (§6) requires operations to return on failure.
func (e *DriverError) Errno() int {
	return -int(e.ErrnoCode)
}

func (e *DriverError) Unwrap() error {
	return e.ErrnoCode
}

// NewDriverError creates a DriverError with the default message derived from
// the errno code.
func NewDriverError(errnoCode syscall.Errno) *DriverError {
	return &DriverError{ErrnoCode: errnoCode, message: errnoCode.Error()}
}

// NewDriverErrorWithMessage creates a DriverError from an errno code with a
// custom, more specific message.
func NewDriverErrorWithMessage(errnoCode syscall.Errno, message string) *DriverError {
	return &DriverError{
		ErrnoCode: errnoCode,
		message:   fmt.Sprintf("%s: %s", errnoCode.Error(), message),
	}
}

// The five error kinds §7 names, mapped onto the POSIX errno values closest
// in meaning (see SPEC_FULL.md's Errors section for the table).
const (
	// ErrNameTooLong is returned when a path exceeds the admissible length
	// bounds (§4.4 getattr).
	ErrNameTooLong = syscall.ENAMETOOLONG
	// ErrNotFound is returned when a path resolves to no directory entry.
	ErrNotFound = syscall.ENOENT
	// ErrNoSpace is returned when the inode or data bitmap has no free slot.
	ErrNoSpace = syscall.ENOSPC
	// ErrTooLarge is returned when a requested size would exceed
	// MaxFileBlocks*BlockSize.
	ErrTooLarge = syscall.EFBIG
	// ErrOutOfMemory is returned when the readdir sink reports it is full.
	ErrOutOfMemory = syscall.ENOMEM
)
