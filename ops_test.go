package vsfs_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/dargueta/vsfs"
	"github.com/dargueta/vsfs/vsfstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nameSink struct {
	names []string
}

func (s *nameSink) Add(name string) bool {
	s.names = append(s.names, name)
	return true
}

func TestCreateAndGetattr(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 16, 64)

	ino, err := vol.Create("/hello.txt", vsfs.S_IFREG|vsfs.S_IRUSR|vsfs.S_IWUSR)
	require.Nil(t, err)
	assert.NotEqual(t, uint32(vsfs.RootIno), ino)

	stat, err := vol.Getattr("/hello.txt")
	require.Nil(t, err)
	assert.Equal(t, ino, stat.InodeNumber)
	assert.Equal(t, int64(0), stat.Size)
	assert.Equal(t, uint32(1), stat.Nlink)
	assert.True(t, stat.IsRegular())
}

func TestGetattrRootDirectory(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 16, 64)

	stat, err := vol.Getattr("/")
	require.Nil(t, err)
	assert.Equal(t, int64(vsfs.BlockSize), stat.Size)
	assert.Equal(t, uint32(2), stat.Nlink)
	assert.True(t, stat.IsDir())
}

func TestCreateDuplicateNameStillSucceedsAtBitmapLevel(t *testing.T) {
	// VSFS itself does not reject duplicate names; the kernel bridge is
	// expected to have already checked the name doesn't exist before
	// calling create (§4.4 preconditions). This test documents that
	// Create doesn't second-guess the bridge.
	vol, _ := vsfstest.NewVolume(t, 16, 64)

	_, err := vol.Create("/a", vsfs.S_IFREG)
	require.Nil(t, err)
	_, err = vol.Create("/a", vsfs.S_IFREG)
	assert.Nil(t, err)
}

func TestGetattrNotFound(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 16, 64)
	_, err := vol.Getattr("/nope")
	require.NotNil(t, err)
	assert.Equal(t, vsfs.ErrNotFound, err.Unwrap())
}

func TestCreateNoSpaceWhenInodesExhausted(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 1, 64) // only the root inode exists

	_, err := vol.Create("/a", vsfs.S_IFREG)
	require.NotNil(t, err)
	assert.Equal(t, vsfs.ErrNoSpace, err.Unwrap())
}

func TestReaddirHidesDotEntries(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 16, 64)
	_, err := vol.Create("/a", vsfs.S_IFREG)
	require.Nil(t, err)
	_, err = vol.Create("/b", vsfs.S_IFREG)
	require.Nil(t, err)

	sink := &nameSink{}
	require.Nil(t, vol.Readdir("/", sink))
	assert.ElementsMatch(t, []string{"a", "b"}, sink.names)
}

func TestWriteThenRead(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 16, 64)
	_, err := vol.Create("/data", vsfs.S_IFREG)
	require.Nil(t, err)

	payload := []byte("hello, vsfs")
	n, err := vol.Write("/data", 0, payload)
	require.Nil(t, err)
	assert.Equal(t, len(payload), n)

	stat, err := vol.Getattr("/data")
	require.Nil(t, err)
	assert.Equal(t, int64(len(payload)), stat.Size)

	buf := make([]byte, 64)
	n, err = vol.Read("/data", 0, buf)
	require.Nil(t, err)
	assert.Equal(t, payload, buf[:n])
}

func TestWriteSpanningMultipleBlocks(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 16, 512)
	_, err := vol.Create("/big", vsfs.S_IFREG)
	require.Nil(t, err)

	payload := make([]byte, vsfs.BlockSize*3+17)
	for i := range payload {
		payload[i] = byte(i)
	}

	n, err := vol.Write("/big", 0, payload)
	require.Nil(t, err)
	assert.Equal(t, len(payload), n)

	readBack := make([]byte, len(payload))
	n, err = vol.Read("/big", 0, readBack)
	require.Nil(t, err)
	assert.Equal(t, len(payload), n)
	assert.Equal(t, payload, readBack)
}

func TestWriteOffsetPastEndOfFileFails(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 16, 64)
	_, err := vol.Create("/f", vsfs.S_IFREG)
	require.Nil(t, err)

	_, err = vol.Write("/f", 100, []byte("gap"))
	require.NotNil(t, err)
	assert.Equal(t, vsfs.ErrTooLarge, err.Unwrap())
}

func TestTruncateShrinkThenGrowZeroesStaleTail(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 16, 64)
	_, err := vol.Create("/f", vsfs.S_IFREG)
	require.Nil(t, err)

	_, err = vol.Write("/f", 0, bytes.Repeat([]byte{'x'}, vsfs.BlockSize))
	require.Nil(t, err)

	require.Nil(t, vol.Truncate("/f", 100))
	require.Nil(t, vol.Truncate("/f", vsfs.BlockSize))

	buf := make([]byte, vsfs.BlockSize)
	n, err := vol.Read("/f", 0, buf)
	require.Nil(t, err)
	require.Equal(t, vsfs.BlockSize, n)
	for i := 100; i < vsfs.BlockSize; i++ {
		assert.Equal(t, byte(0), buf[i], "byte %d should have been zeroed", i)
	}
}

func TestReadPastEndOfFileReturnsZero(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 16, 64)
	_, err := vol.Create("/empty", vsfs.S_IFREG)
	require.Nil(t, err)

	buf := make([]byte, 10)
	n, err := vol.Read("/empty", 0, buf)
	require.Nil(t, err)
	assert.Equal(t, 0, n)
}

func TestTruncateGrowAndShrink(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 16, 64)
	_, err := vol.Create("/f", vsfs.S_IFREG)
	require.Nil(t, err)

	require.Nil(t, vol.Truncate("/f", int64(vsfs.BlockSize)*2))
	stat, err := vol.Getattr("/f")
	require.Nil(t, err)
	assert.Equal(t, int64(vsfs.BlockSize)*2, stat.Size)

	require.Nil(t, vol.Truncate("/f", 5))
	stat, err = vol.Getattr("/f")
	require.Nil(t, err)
	assert.Equal(t, int64(5), stat.Size)
}

func TestTruncateBeyondMaxFileSizeFails(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 16, 64)
	_, err := vol.Create("/f", vsfs.S_IFREG)
	require.Nil(t, err)

	err = vol.Truncate("/f", int64(vsfs.MaxFileBlocks+1)*vsfs.BlockSize)
	require.NotNil(t, err)
	assert.Equal(t, vsfs.ErrTooLarge, err.Unwrap())
}

func TestTruncateUsesIndirectBlockPastDirectLimit(t *testing.T) {
	// Needs enough data blocks for Direct+a few indirect entries, plus the
	// indirect block itself.
	vol, _ := vsfstest.NewVolume(t, 16, vsfs.Direct+32)
	_, err := vol.Create("/f", vsfs.S_IFREG)
	require.Nil(t, err)

	size := int64(vsfs.Direct+5) * vsfs.BlockSize
	require.Nil(t, vol.Truncate("/f", size))

	stat, err := vol.Getattr("/f")
	require.Nil(t, err)
	assert.Equal(t, size, stat.Size)

	payload := []byte("past the direct blocks")
	offset := int64(vsfs.Direct) * vsfs.BlockSize
	n, err := vol.Write("/f", offset, payload)
	require.Nil(t, err)
	assert.Equal(t, len(payload), n)

	buf := make([]byte, len(payload))
	n, err = vol.Read("/f", offset, buf)
	require.Nil(t, err)
	assert.Equal(t, payload, buf[:n])
}

func TestUnlinkFreesInodeAndBlocks(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 4, 64)
	_, err := vol.Create("/f", vsfs.S_IFREG)
	require.Nil(t, err)
	require.Nil(t, vol.Truncate("/f", int64(vsfs.BlockSize)))

	statBefore := vol.Statfs("/")

	require.Nil(t, vol.Unlink("/f"))

	_, err = vol.Getattr("/f")
	require.NotNil(t, err)
	assert.Equal(t, vsfs.ErrNotFound, err.Unwrap())

	statAfter := vol.Statfs("/")
	assert.Equal(t, statBefore.InodesFree+1, statAfter.InodesFree)
	assert.Equal(t, statBefore.BlocksFree+1, statAfter.BlocksFree)
}

func TestUnlinkUnknownNameFails(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 4, 64)
	err := vol.Unlink("/nope")
	require.NotNil(t, err)
	assert.Equal(t, vsfs.ErrNotFound, err.Unwrap())
}

func TestUtimensExplicitAndNow(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 4, 64)
	_, err := vol.Create("/f", vsfs.S_IFREG)
	require.Nil(t, err)

	explicit := time.Unix(1_000_000, 0)
	require.Nil(t, vol.Utimens("/f", vsfs.UtimensSpec{Time: vsfs.TimeSpecFromTime(explicit)}))
	stat, err := vol.Getattr("/f")
	require.Nil(t, err)
	assert.Equal(t, explicit.Unix(), stat.ModTime.Unix())

	require.Nil(t, vol.Utimens("/f", vsfs.UtimensSpec{Now: true}))
	stat, err = vol.Getattr("/f")
	require.Nil(t, err)
	assert.WithinDuration(t, time.Now(), stat.ModTime, 5*time.Second)
}

func TestUtimensOmitLeavesTimeUnchanged(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 4, 64)
	_, err := vol.Create("/f", vsfs.S_IFREG)
	require.Nil(t, err)

	before, err := vol.Getattr("/f")
	require.Nil(t, err)

	require.Nil(t, vol.Utimens("/f", vsfs.UtimensSpec{Omit: true}))
	after, err := vol.Getattr("/f")
	require.Nil(t, err)
	assert.Equal(t, before.ModTime.Unix(), after.ModTime.Unix())
}

func TestStatfsReflectsAllocations(t *testing.T) {
	vol, _ := vsfstest.NewVolume(t, 4, 64)
	before := vol.Statfs("/")

	_, err := vol.Create("/f", vsfs.S_IFREG)
	require.Nil(t, err)

	after := vol.Statfs("/")
	assert.Equal(t, before.InodesFree-1, after.InodesFree)
	assert.Equal(t, before.TotalBlocks, after.TotalBlocks)
	assert.Equal(t, int64(vsfs.BlockSize), after.BlockSize)
}
