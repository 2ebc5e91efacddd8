// Package image is the image mapper (§2 item 1, §5): it opens an image file
// of a whole number of blocks and exposes it as a single contiguous mapped
// byte region, released on Close. Grounded on the rest of the example pack's
// use of golang.org/x/sys/unix (distr1-distri, gcsfuse) rather than the
// teacher's own blockcache/basicstream abstraction, because spec.md
// specifically calls for a real memory map, not a seek-and-cache layer over
// an io.ReadWriteSeeker.
package image

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/dargueta/vsfs"
	"golang.org/x/sys/unix"
)

// Mapped is a scoped acquisition of an image file's contents (§5): the
// mapping is acquired when Open returns successfully and must be released
// with Close exactly once.
type Mapped struct {
	file  *os.File
	Bytes []byte
}

// Open maps the whole of the file at path into memory read/write. The file's
// size must already be a whole number of vsfs.BlockSize-byte blocks; Open
// does not create, grow, or shrink the file (image-file creation is an
// external collaborator's job, §1).
func Open(path string) (*Mapped, *vsfs.DriverError) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, vsfs.NewDriverErrorWithMessage(errnoFromOSError(err), err.Error())
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, vsfs.NewDriverErrorWithMessage(errnoFromOSError(err), err.Error())
	}

	size := info.Size()
	if size == 0 || size%vsfs.BlockSize != 0 {
		f.Close()
		return nil, vsfs.NewDriverErrorWithMessage(
			vsfs.ErrTooLarge,
			fmt.Sprintf("image size %d is not a nonzero multiple of %d", size, vsfs.BlockSize),
		)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, vsfs.NewDriverErrorWithMessage(errnoFromOSError(err), "mmap failed")
	}

	return &Mapped{file: f, Bytes: data}, nil
}

// Close releases the mapping and closes the underlying file descriptor.
// Writes made through Bytes are flushed to the backing file by the
// operating system's page cache; VSFS provides no explicit barrier (§5).
func (m *Mapped) Close() *vsfs.DriverError {
	var firstErr error
	if m.Bytes != nil {
		if err := unix.Munmap(m.Bytes); err != nil {
			firstErr = err
		}
		m.Bytes = nil
	}
	if err := m.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if firstErr != nil {
		return vsfs.NewDriverErrorWithMessage(errnoFromOSError(firstErr), firstErr.Error())
	}
	return nil
}

// TotalBlocks returns the number of BlockSize-sized blocks in the mapping.
func (m *Mapped) TotalBlocks() int {
	return len(m.Bytes) / vsfs.BlockSize
}

// Block returns the slice of the mapping corresponding to block number n.
func (m *Mapped) Block(n uint32) []byte {
	start := int(n) * vsfs.BlockSize
	return m.Bytes[start : start+vsfs.BlockSize]
}

// Raw returns the entire mapped region, for callers that need a byte range
// spanning multiple consecutive blocks (e.g. the whole inode table).
func (m *Mapped) Raw() []byte {
	return m.Bytes
}

// errnoFromOSError unwraps an *os.PathError or a bare syscall.Errno (as
// returned by unix.Mmap/unix.Munmap) down to the errno value; anything else
// becomes EIO, matching §7's "input/output error" catch-all.
func errnoFromOSError(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return syscall.EIO
}
