package vsfs_test

import (
	"syscall"
	"testing"

	"github.com/dargueta/vsfs"
	"github.com/stretchr/testify/assert"
)

func TestDriverErrorDefaultMessage(t *testing.T) {
	err := vsfs.NewDriverError(vsfs.ErrNotFound)
	assert.Equal(t, syscall.ENOENT.Error(), err.Error())
	assert.ErrorIs(t, err, syscall.ENOENT)
}

func TestDriverErrorWithMessage(t *testing.T) {
	err := vsfs.NewDriverErrorWithMessage(vsfs.ErrNoSpace, "inode table full")
	assert.Contains(t, err.Error(), "inode table full")
	assert.ErrorIs(t, err, syscall.ENOSPC)
}

func TestDriverErrorErrno(t *testing.T) {
	err := vsfs.NewDriverError(vsfs.ErrTooLarge)
	assert.Equal(t, -int(syscall.EFBIG), err.Errno())
}
