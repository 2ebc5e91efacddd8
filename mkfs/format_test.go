package mkfs_test

import (
	"testing"

	"github.com/dargueta/vsfs"
	"github.com/dargueta/vsfs/mkfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsZeroInodes(t *testing.T) {
	err := mkfs.Validate(mkfs.Options{NumInodes: 0, NumBlocks: 64})
	assert.Error(t, err)
}

func TestValidateRejectsTooFewBlocks(t *testing.T) {
	err := mkfs.Validate(mkfs.Options{NumInodes: 32, NumBlocks: vsfs.BlkMin - 1})
	assert.Error(t, err)
}

func TestValidateRejectsInodeTableLargerThanImage(t *testing.T) {
	// 10,000 inodes need a 313-block inode table (32 inodes per block), so
	// together with blocks 0-2 and the root directory's data block the layout
	// needs 317 blocks; 8 blocks total leaves no room.
	err := mkfs.Validate(mkfs.Options{NumInodes: 10_000, NumBlocks: vsfs.BlkMin})
	assert.Error(t, err)
}

func TestValidateAcceptsReasonableSize(t *testing.T) {
	err := mkfs.Validate(mkfs.Options{NumInodes: 64, NumBlocks: 256})
	assert.NoError(t, err)
}

func TestFormatProducesValidSuperblock(t *testing.T) {
	opts := mkfs.Options{NumInodes: 64, NumBlocks: 256}
	buf := make([]byte, mkfs.ImageSize(opts.NumBlocks))
	require.NoError(t, mkfs.Format(buf, opts))

	sb := vsfs.ReadSuperblock(buf[0:vsfs.BlockSize])
	assert.True(t, sb.Present())
	assert.Equal(t, opts.NumInodes, sb.NumInodes)
	assert.Equal(t, opts.NumInodes-1, sb.FreeInodes)
	assert.Equal(t, opts.NumBlocks, sb.NumBlocks)

	tableBlocks := vsfs.InodeTableBlocks(opts.NumInodes)
	dataStart := vsfs.DataRegionStart(tableBlocks)
	assert.Equal(t, dataStart, sb.DataRegion)
	assert.Equal(t, opts.NumBlocks-dataStart-1, sb.FreeBlocks)
}

func TestFormatRootDirectoryHasDotEntries(t *testing.T) {
	opts := mkfs.Options{NumInodes: 64, NumBlocks: 256}
	buf := make([]byte, mkfs.ImageSize(opts.NumBlocks))
	require.NoError(t, mkfs.Format(buf, opts))

	sb := vsfs.ReadSuperblock(buf[0:vsfs.BlockSize])
	dirBlock := buf[int(sb.DataRegion)*vsfs.BlockSize : int(sb.DataRegion+1)*vsfs.BlockSize]

	dot := vsfs.ReadDirent(dirBlock[0:vsfs.DirentSize])
	dotdot := vsfs.ReadDirent(dirBlock[vsfs.DirentSize : 2*vsfs.DirentSize])
	assert.Equal(t, ".", dot.Name)
	assert.Equal(t, uint32(vsfs.RootIno), dot.Ino)
	assert.Equal(t, "..", dotdot.Name)
	assert.Equal(t, uint32(vsfs.RootIno), dotdot.Ino)

	third := vsfs.ReadDirent(dirBlock[2*vsfs.DirentSize : 3*vsfs.DirentSize])
	assert.True(t, third.Free())
}

func TestFormatRejectsWrongBufferSize(t *testing.T) {
	opts := mkfs.Options{NumInodes: 64, NumBlocks: 256}
	buf := make([]byte, mkfs.ImageSize(opts.NumBlocks)-vsfs.BlockSize)
	assert.Error(t, mkfs.Format(buf, opts))
}
