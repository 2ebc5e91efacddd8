// Package bitmap implements the fixed-size, bit-indexed free maps used for
// both of VSFS's allocators (§4.1): the inode bitmap and the data-block
// bitmap. Each wraps one BlockSize-byte block of the mapped image directly,
// so setting a bit here is setting a byte in the image.
package bitmap

import (
	"fmt"

	gobitmap "github.com/boljen/go-bitmap"
	"github.com/dargueta/vsfs"
)

// Bitmap is a view over one block of the mapped image, addressed as a
// sequence of bits. Bit 0 means free, 1 means allocated (§4.1). It is
// grounded on disko's drivers/common/allocatormap.go Allocator type, which
// wraps the same go-bitmap library with the same smallest-index allocation
// policy.
type Bitmap struct {
	bits  gobitmap.Bitmap
	nbits int
}

// Wrap returns a Bitmap backed directly by block, which must be at least
// nbits/8 bytes long. Mutations through the returned Bitmap are mutations of
// block.
func Wrap(block []byte, nbits int) Bitmap {
	return Bitmap{bits: gobitmap.Bitmap(block), nbits: nbits}
}

// Init clears bits [0, nbits) of the bitmap. The caller must have already
// filled the whole backing block with 1 bits (e.g. with bytes.Repeat) so
// that bits outside [0, nbits) stay marked allocated and can never be
// chosen by Alloc (§4.1).
func (bm *Bitmap) Init(nbits int) {
	bm.nbits = nbits
	for i := 0; i < nbits; i++ {
		bm.bits.Set(i, false)
	}
}

// NBits returns the number of addressable bits in this bitmap.
func (bm *Bitmap) NBits() int {
	return bm.nbits
}

// IsSet reports whether bit index is currently allocated.
func (bm *Bitmap) IsSet(index int) bool {
	return bm.bits.Get(index)
}

// Set unconditionally sets or clears bit index.
func (bm *Bitmap) Set(index int, val bool) {
	bm.bits.Set(index, val)
}

// Alloc finds the smallest clear bit in [0, nbits), sets it, and returns its
// index. It returns (0, false) if every bit is already set. The
// smallest-index rule is part of the contract (§4.1): it's what makes
// allocation order reproducible.
func (bm *Bitmap) Alloc() (int, bool) {
	for i := 0; i < bm.nbits; i++ {
		if !bm.bits.Get(i) {
			bm.bits.Set(i, true)
			return i, true
		}
	}
	return 0, false
}

// Free clears bit index. index must be in [0, nbits) and currently set;
// Free panics otherwise, since callers are expected to already know an
// index they are freeing was one they (or the formatter) allocated.
func (bm *Bitmap) Free(index int) {
	if index < 0 || index >= bm.nbits {
		panic(fmt.Sprintf("bitmap: index %d out of range [0, %d)", index, bm.nbits))
	}
	if !bm.bits.Get(index) {
		panic(fmt.Sprintf("bitmap: index %d is already free", index))
	}
	bm.bits.Set(index, false)
}

// CountFree returns the number of clear bits in [0, nbits), used by fsck to
// check free_inodes/free_blocks against the bitmaps (I2/I3).
func (bm *Bitmap) CountFree() int {
	free := 0
	for i := 0; i < bm.nbits; i++ {
		if !bm.bits.Get(i) {
			free++
		}
	}
	return free
}

// NoSpace is returned by Alloc's callers (bitmap itself never returns an
// error value; ok==false is its failure signal) wrapped as a DriverError for
// §7's NO-SPACE kind.
func NoSpace() *vsfs.DriverError {
	return vsfs.NewDriverError(vsfs.ErrNoSpace)
}
