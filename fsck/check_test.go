package fsck_test

import (
	"testing"

	"github.com/dargueta/vsfs"
	"github.com/dargueta/vsfs/bitmap"
	"github.com/dargueta/vsfs/fsck"
	"github.com/dargueta/vsfs/vsfstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckPassesOnFreshlyFormattedVolume(t *testing.T) {
	_, buf := vsfstest.NewVolume(t, 16, 64)
	err := fsck.Check(fsck.New(buf))
	assert.NoError(t, err)
}

func TestCheckPassesAfterCreateWriteUnlink(t *testing.T) {
	vol, buf := vsfstest.NewVolume(t, 16, 128)

	_, err := vol.Create("/a", vsfs.S_IFREG)
	require.Nil(t, err)
	_, err = vol.Write("/a", 0, []byte("some bytes"))
	require.Nil(t, err)

	_, err = vol.Create("/b", vsfs.S_IFREG)
	require.Nil(t, err)
	require.Nil(t, vol.Unlink("/a"))

	assert.NoError(t, fsck.Check(fsck.New(buf)))
}

func TestCheckCatchesBadMagic(t *testing.T) {
	_, buf := vsfstest.NewVolume(t, 16, 64)
	buf[0] ^= 0xFF // corrupt the superblock magic

	err := fsck.Check(fsck.New(buf))
	assert.Error(t, err)
}

func TestCheckCatchesInodeBitmapMismatch(t *testing.T) {
	vol, buf := vsfstest.NewVolume(t, 16, 64)
	ino, err := vol.Create("/a", vsfs.S_IFREG)
	require.Nil(t, err)

	// Flip the just-allocated inode's bit back to free without touching its
	// record: bitmap and record now disagree.
	inodeBitmapBlock := buf[vsfs.InodeBitmapNum*vsfs.BlockSize : (vsfs.InodeBitmapNum+1)*vsfs.BlockSize]
	bm := bitmap.Wrap(inodeBitmapBlock, 16)
	bm.Free(int(ino))

	assert.Error(t, fsck.Check(fsck.New(buf)))
}
