// Package fsck is a consistency checker for a VSFS image (§8's testable
// properties, promoted here into a standalone tool rather than just test
// assertions). It never repairs anything; it only reports every violation
// it finds, aggregated with github.com/hashicorp/go-multierror so a single
// run surfaces the whole list instead of stopping at the first mismatch.
package fsck

import (
	"encoding/binary"
	"fmt"

	"github.com/dargueta/vsfs"
	"github.com/dargueta/vsfs/bitmap"
	"github.com/hashicorp/go-multierror"
)

// Image is the minimal read-only surface Check needs over a mapped volume:
// the raw bytes plus the derived views Check uses repeatedly. *vsfs.Volume
// does not expose this itself (its methods are the POSIX operations, not
// raw block access), so callers (the tests) build an Image with New from
// the same mapped bytes a Volume would use.
type Image struct {
	Raw         []byte
	Superblock  vsfs.Superblock
	InodeBitmap []byte
	DataBitmap  []byte
	InodeTable  []byte
	RootDir     []byte
}

// New derives an Image's views from raw, a fully mapped volume's bytes.
func New(raw []byte) Image {
	sb := vsfs.ReadSuperblock(raw[vsfs.SuperblockNum*vsfs.BlockSize : (vsfs.SuperblockNum+1)*vsfs.BlockSize])
	tableBlocks := vsfs.InodeTableBlocks(sb.NumInodes)
	tableStart := vsfs.InodeTableNum * vsfs.BlockSize
	tableEnd := tableStart + int(tableBlocks)*vsfs.BlockSize

	return Image{
		Raw:         raw,
		Superblock:  sb,
		InodeBitmap: blockAt(raw, vsfs.InodeBitmapNum),
		DataBitmap:  blockAt(raw, vsfs.DataBitmapNum),
		InodeTable:  raw[tableStart:tableEnd],
		RootDir:     blockAt(raw, sb.DataRegion),
	}
}

func blockAt(raw []byte, n uint32) []byte {
	start := int(n) * vsfs.BlockSize
	return raw[start : start+vsfs.BlockSize]
}

// Check runs every invariant and property check against img and returns
// nil if the volume is fully consistent, or a *multierror.Error listing
// every violation otherwise.
func Check(img Image) error {
	var result *multierror.Error

	if !img.Superblock.Present() {
		// Nothing past this point is trustworthy without a valid magic.
		result = multierror.Append(result, fmt.Errorf(
			"superblock magic is 0x%08x, expected 0x%08x", img.Superblock.Magic, vsfs.Magic))
		return result.ErrorOrNil()
	}

	checkInodeAccounting(img, &result)
	checkDataAccounting(img, &result)
	checkRootDirectory(img, &result)
	checkInodeBlockOwnership(img, &result)

	return result.ErrorOrNil()
}

// checkInodeAccounting verifies I1 (every inode bit matches its record's
// allocation state) and P1 (free_inodes matches the bitmap's free count).
func checkInodeAccounting(img Image, result **multierror.Error) {
	nInodes := int(img.Superblock.NumInodes)
	bm := bitmap.Wrap(img.InodeBitmap, nInodes)

	for i := 0; i < nInodes; i++ {
		off := i * vsfs.InodeSize
		node := vsfs.ReadInode(img.InodeTable[off : off+vsfs.InodeSize])
		if node.Allocated() != bm.IsSet(i) {
			*result = multierror.Append(*result, fmt.Errorf(
				"inode %d: bitmap says allocated=%v but nlink=%d", i, bm.IsSet(i), node.Nlink))
		}
	}

	if !bm.IsSet(vsfs.RootIno) {
		*result = multierror.Append(*result, fmt.Errorf(
			"root inode %d is marked free in the inode bitmap", vsfs.RootIno))
	}

	free := uint32(bm.CountFree())
	if free != img.Superblock.FreeInodes {
		*result = multierror.Append(*result, fmt.Errorf(
			"superblock free_inodes=%d but the bitmap has %d free bits", img.Superblock.FreeInodes, free))
	}
}

// checkDataAccounting verifies P2 (free_blocks matches the data bitmap's
// free count) and that the metadata region is never reported free.
func checkDataAccounting(img Image, result **multierror.Error) {
	nBlocks := int(img.Superblock.NumBlocks)
	bm := bitmap.Wrap(img.DataBitmap, nBlocks)

	for i := uint32(0); i <= img.Superblock.DataRegion; i++ {
		if !bm.IsSet(int(i)) {
			*result = multierror.Append(*result, fmt.Errorf(
				"block %d is part of the superblock/bitmap/inode-table/root-dir region but is marked free", i))
		}
	}

	free := uint32(bm.CountFree())
	if free != img.Superblock.FreeBlocks {
		*result = multierror.Append(*result, fmt.Errorf(
			"superblock free_blocks=%d but the bitmap has %d free bits", img.Superblock.FreeBlocks, free))
	}
}

// checkRootDirectory verifies I6 (the root directory occupies exactly one
// block, never an indirect one) and that every non-free entry names a
// unique, allocated inode (P7-adjacent: no dangling or duplicate names).
func checkRootDirectory(img Image, result **multierror.Error) {
	root := vsfs.ReadInode(img.InodeTable[0:vsfs.InodeSize])
	if root.Blocks != 1 || root.Indirect != 0 {
		*result = multierror.Append(*result, fmt.Errorf(
			"root directory has %d blocks and indirect=%d, expected exactly one direct block",
			root.Blocks, root.Indirect))
	}

	seen := map[string]bool{}
	for i := 0; i < vsfs.DirentsPerBlock; i++ {
		off := i * vsfs.DirentSize
		ent := vsfs.ReadDirent(img.RootDir[off : off+vsfs.DirentSize])
		if ent.Free() {
			continue
		}
		if ent.Name != "." && ent.Name != ".." {
			if seen[ent.Name] {
				*result = multierror.Append(*result, fmt.Errorf("duplicate directory entry %q", ent.Name))
			}
			seen[ent.Name] = true
		}
		if ent.Ino >= img.Superblock.NumInodes {
			*result = multierror.Append(*result, fmt.Errorf(
				"entry %q references out-of-range inode %d", ent.Name, ent.Ino))
			continue
		}
		inoOff := int(ent.Ino) * vsfs.InodeSize
		node := vsfs.ReadInode(img.InodeTable[inoOff : inoOff+vsfs.InodeSize])
		if !node.Allocated() {
			*result = multierror.Append(*result, fmt.Errorf(
				"entry %q references inode %d, which is not allocated", ent.Name, ent.Ino))
		}
	}
}

// checkInodeBlockOwnership verifies I3 (no two inodes, nor an inode and the
// metadata region, ever claim the same data block).
func checkInodeBlockOwnership(img Image, result **multierror.Error) {
	owner := map[uint32]int{}
	for i := uint32(0); i < img.Superblock.DataRegion; i++ {
		owner[i] = -1 // -1 marks metadata, never a conflict source worth naming an inode for
	}

	nInodes := int(img.Superblock.NumInodes)
	for i := 0; i < nInodes; i++ {
		off := i * vsfs.InodeSize
		node := vsfs.ReadInode(img.InodeTable[off : off+vsfs.InodeSize])
		if !node.Allocated() {
			continue
		}
		blocks := listOwnedBlocks(img, node)
		for _, b := range blocks {
			if prev, ok := owner[b]; ok {
				*result = multierror.Append(*result, fmt.Errorf(
					"block %d is claimed by both inode %d and inode %d", b, prev, i))
				continue
			}
			owner[b] = i
		}
	}
}

// listOwnedBlocks returns every data block node claims, including the
// indirect block itself and every block number stored in it.
func listOwnedBlocks(img Image, node vsfs.Inode) []uint32 {
	var blocks []uint32
	n := int64(node.Blocks)

	for b := int64(0); b < n && b < vsfs.Direct; b++ {
		blocks = append(blocks, node.Direct[b])
	}

	if node.Indirect != 0 {
		blocks = append(blocks, node.Indirect)
		indirectBlock := blockAt(img.Raw, node.Indirect)
		for b := int64(vsfs.Direct); b < n; b++ {
			off := int(b-vsfs.Direct) * 4
			blocks = append(blocks, binary.LittleEndian.Uint32(indirectBlock[off:off+4]))
		}
	}

	return blocks
}
