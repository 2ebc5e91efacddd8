// Package mkfs implements the formatter (§4.5): it lays out a fresh,
// empty, valid volume across an already-sized buffer. It never opens or
// creates the image file itself; that is cmd/mkvsfs's job, grounded on
// file_systems/unixv1/format.go's split between "compute and validate the
// layout" and "write it into an already-resized image."
package mkfs

import (
	"fmt"
	"time"

	"github.com/dargueta/vsfs"
	"github.com/dargueta/vsfs/bitmap"
	"github.com/hashicorp/go-multierror"
	"github.com/noxer/bytewriter"
)

// Options are the formatter's parameters, one-to-one with mkvsfs's -i
// (inode count), -b (block count), and -z flags.
type Options struct {
	NumInodes uint32
	NumBlocks uint32

	// Zero, if set, clears the whole buffer before laying anything out
	// (mkvsfs -z). Without it, only the bytes Format actually defines are
	// written; stale bytes elsewhere in a reused buffer are left alone.
	Zero bool
}

// Validate checks opts against §3's invariants without writing anything. It
// aggregates every violation instead of stopping at the first, the same way
// file_systems/unixv1/format.go's Format checks inode count and disk size
// up front, generalized here into a *multierror.Error so a single run
// reports everything wrong with a requested size at once.
func Validate(opts Options) error {
	var result *multierror.Error

	if opts.NumInodes == 0 {
		result = multierror.Append(result, fmt.Errorf("number of inodes must be nonzero"))
	}
	if opts.NumInodes > vsfs.InoMax {
		result = multierror.Append(result, fmt.Errorf(
			"number of inodes %d exceeds the maximum of %d", opts.NumInodes, vsfs.InoMax))
	}
	if opts.NumInodes > vsfs.MaxBitmapBits {
		result = multierror.Append(result, fmt.Errorf(
			"number of inodes %d exceeds %d, the most a single-block inode bitmap can address",
			opts.NumInodes, vsfs.MaxBitmapBits))
	}
	if opts.NumBlocks < vsfs.BlkMin {
		result = multierror.Append(result, fmt.Errorf(
			"image must be at least %d blocks, got %d", vsfs.BlkMin, opts.NumBlocks))
	}
	if opts.NumBlocks > vsfs.BlkMax {
		result = multierror.Append(result, fmt.Errorf(
			"image may be at most %d blocks, got %d", vsfs.BlkMax, opts.NumBlocks))
	}
	if opts.NumBlocks > vsfs.MaxBitmapBits {
		result = multierror.Append(result, fmt.Errorf(
			"image of %d blocks exceeds %d, the most a single-block data bitmap can address",
			opts.NumBlocks, vsfs.MaxBitmapBits))
	}

	if opts.NumInodes > 0 && opts.NumBlocks >= vsfs.BlkMin {
		tableBlocks := vsfs.InodeTableBlocks(opts.NumInodes)
		dataStart := vsfs.DataRegionStart(tableBlocks)
		// dataStart itself must exist (it's the root directory's block), so
		// the image needs at least dataStart+1 blocks.
		if opts.NumBlocks <= dataStart {
			result = multierror.Append(result, fmt.Errorf(
				"the superblock, bitmaps, and a %d-inode table need %d blocks,"+
					" leaving no room for the root directory's data block in a"+
					" %d-block image",
				opts.NumInodes, dataStart+1, opts.NumBlocks))
		}
	}

	return result.ErrorOrNil()
}

// ImageSize returns the number of bytes Format expects its buffer to be for
// the given block count.
func ImageSize(numBlocks uint32) int64 {
	return int64(numBlocks) * vsfs.BlockSize
}

// Format writes a fresh, empty VSFS volume into buf, which must be exactly
// ImageSize(opts.NumBlocks) bytes. The root directory it writes is empty:
// just the "." and ".." entries I5 requires, not yet counted by Readdir
// (§9 Open Questions).
func Format(buf []byte, opts Options) error {
	if err := Validate(opts); err != nil {
		return err
	}
	want := ImageSize(opts.NumBlocks)
	if int64(len(buf)) != want {
		return fmt.Errorf("buffer is %d bytes, expected %d for a %d-block image",
			len(buf), want, opts.NumBlocks)
	}

	if opts.Zero {
		zeroBuffer(buf)
	}

	tableBlocks := vsfs.InodeTableBlocks(opts.NumInodes)
	dataStart := vsfs.DataRegionStart(tableBlocks)

	formatInodeBitmap(blockAt(buf, vsfs.InodeBitmapNum), opts.NumInodes)
	formatDataBitmap(blockAt(buf, vsfs.DataBitmapNum), opts.NumBlocks, dataStart)

	if err := writeInodeTable(buf, opts.NumInodes, tableBlocks, dataStart); err != nil {
		return err
	}

	writeRootDirectory(blockAt(buf, dataStart))

	sb := vsfs.Superblock{
		Magic:      vsfs.Magic,
		Size:       uint64(want),
		NumInodes:  opts.NumInodes,
		FreeInodes: opts.NumInodes - 1,
		NumBlocks:  opts.NumBlocks,
		FreeBlocks: opts.NumBlocks - dataStart - 1,
		DataRegion: dataStart,
	}
	vsfs.PutSuperblock(blockAt(buf, vsfs.SuperblockNum), sb)
	return nil
}

func zeroBuffer(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}

func blockAt(buf []byte, n uint32) []byte {
	start := int(n) * vsfs.BlockSize
	return buf[start : start+vsfs.BlockSize]
}

// formatInodeBitmap marks every bit [0, numInodes) free except inode 0, the
// root directory, which Format allocates unconditionally (I6).
func formatInodeBitmap(block []byte, numInodes uint32) {
	fillOnes(block)
	bm := bitmap.Wrap(block, int(numInodes))
	bm.Init(int(numInodes))
	bm.Set(vsfs.RootIno, true)
}

// formatDataBitmap marks every block up to and including dataStart
// allocated (superblock, both bitmaps, the inode table, and the root
// directory's own data block), and everything past it free.
func formatDataBitmap(block []byte, numBlocks uint32, dataStart uint32) {
	fillOnes(block)
	bm := bitmap.Wrap(block, int(numBlocks))
	bm.Init(int(numBlocks))
	for i := uint32(0); i <= dataStart; i++ {
		bm.Set(int(i), true)
	}
}

func fillOnes(block []byte) {
	for i := range block {
		block[i] = 0xFF
	}
}

// writeInodeTable emits the inode table sequentially, one InodeSize record
// at a time, mirroring file_systems/unixv1/format.go's use of bytewriter to
// stream records into a pre-sliced region of the image rather than
// addressing each inode's bytes directly.
func writeInodeTable(buf []byte, numInodes uint32, tableBlocks uint32, dataStart uint32) error {
	tableStart := int(vsfs.InodeTableNum) * vsfs.BlockSize
	tableEnd := int(dataStart) * vsfs.BlockSize
	writer := bytewriter.New(buf[tableStart:tableEnd])

	root := vsfs.Inode{
		Mode:   vsfs.S_IFDIR | vsfs.S_IRWXU | vsfs.S_IRWXG | vsfs.S_IRWXO,
		Nlink:  2,
		Size:   uint64(vsfs.BlockSize),
		Blocks: 1,
		Mtime:  vsfs.TimeSpecFromTime(time.Now()),
	}
	root.Direct[0] = dataStart

	rootBytes := make([]byte, vsfs.InodeSize)
	vsfs.PutInode(rootBytes, root)
	if _, err := writer.Write(rootBytes); err != nil {
		return fmt.Errorf("writing root inode: %w", err)
	}

	zeroInode := make([]byte, vsfs.InodeSize)
	for i := uint32(1); i < numInodes; i++ {
		if _, err := writer.Write(zeroInode); err != nil {
			return fmt.Errorf("writing inode %d: %w", i, err)
		}
	}
	return nil
}

// writeRootDirectory clears every slot in the root directory's block and
// writes "." and ".." pointing at inode 0, per I5. Both entries referring
// to the root is not a bug: there is no parent to point ".." at in a
// single-directory namespace.
func writeRootDirectory(block []byte) {
	for i := 0; i < vsfs.DirentsPerBlock; i++ {
		off := i * vsfs.DirentSize
		vsfs.ClearDirent(block[off : off+vsfs.DirentSize])
	}
	vsfs.PutDirent(block[0:vsfs.DirentSize], vsfs.Dirent{Ino: vsfs.RootIno, Name: "."})
	vsfs.PutDirent(block[vsfs.DirentSize:2*vsfs.DirentSize], vsfs.Dirent{Ino: vsfs.RootIno, Name: ".."})
}
