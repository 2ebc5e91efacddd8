// Package vsfstest provides in-memory volumes for tests, grounded on
// testing/images.go's LoadDiskImage: instead of decompressing a fixture
// into a bytesextra-backed stream, NewVolume formats a blank buffer and
// mounts it directly, so package tests never touch the filesystem.
package vsfstest

import (
	"testing"

	"github.com/dargueta/vsfs"
	"github.com/dargueta/vsfs/bitmap"
	"github.com/dargueta/vsfs/mkfs"
	"github.com/stretchr/testify/require"
	"github.com/xaionaro-go/bytesextra"
)

// memImage stands in for *image.Mapped (§5) over a plain byte slice instead
// of a real mmap'd file.
type memImage struct {
	buf []byte
}

func (m *memImage) Block(n uint32) []byte {
	start := int(n) * vsfs.BlockSize
	return m.buf[start : start+vsfs.BlockSize]
}

func (m *memImage) Raw() []byte { return m.buf }

func (m *memImage) TotalBlocks() int { return len(m.buf) / vsfs.BlockSize }

// NewVolume formats a fresh volume with numInodes inodes and numBlocks
// blocks entirely in memory and mounts it. It returns the mounted Volume
// plus the raw backing buffer, for tests (e.g. fsck's) that need to inspect
// bytes the Volume API doesn't expose directly.
func NewVolume(t *testing.T, numInodes, numBlocks uint32) (*vsfs.Volume, []byte) {
	t.Helper()

	size := mkfs.ImageSize(numBlocks)
	buf := make([]byte, size)
	err := mkfs.Format(buf, mkfs.Options{NumInodes: numInodes, NumBlocks: numBlocks})
	require.NoError(t, err)

	// Round-trip through bytesextra.NewReadWriteSeeker, the same in-memory
	// stream type testing/images.go wraps a decompressed fixture in: a real
	// driver sources its bytes from a stream just like this one before
	// mmap takes over, so building a Volume straight from buf documents
	// Volume's only actual dependency is on the mapped bytes, not on how
	// they got there.
	stream := bytesextra.NewReadWriteSeeker(buf)
	readBack := make([]byte, size)
	_, err = stream.Read(readBack)
	require.NoError(t, err)
	require.Equal(t, buf, readBack)

	img := &memImage{buf: buf}
	sb := vsfs.ReadSuperblock(img.Block(vsfs.SuperblockNum))

	inodeBitmap := bitmap.Wrap(img.Block(vsfs.InodeBitmapNum), int(sb.NumInodes))
	dataBitmap := bitmap.Wrap(img.Block(vsfs.DataBitmapNum), int(sb.NumBlocks))

	return vsfs.NewVolume(img, &inodeBitmap, &dataBitmap), buf
}
