package vsfs

import "encoding/binary"

// Superblock is the copy form of block 0 (§3). Fields are read out of, and
// written back into, the mapped image with encoding/binary rather than by
// reinterpreting the block as a Go struct (untyped-byte-view design note,
// §9): the wire layout is nailed down here once and for all, independent of
// how the Go compiler would lay the struct out in memory.
type Superblock struct {
	Magic      uint32
	Size       uint64
	NumInodes  uint32
	FreeInodes uint32
	NumBlocks  uint32
	FreeBlocks uint32
	DataRegion uint32
}

// Present reports whether a superblock has the magic value a formatted
// volume must carry (§4.5).
func (sb *Superblock) Present() bool {
	return sb.Magic == Magic
}

// ReadSuperblock is the copy form: it decodes the superblock out of block
// 0's bytes without retaining any reference to buf.
func ReadSuperblock(block []byte) Superblock {
	var sb Superblock
	sb.Magic = binary.LittleEndian.Uint32(block[0:4])
	sb.Size = binary.LittleEndian.Uint64(block[4:12])
	sb.NumInodes = binary.LittleEndian.Uint32(block[12:16])
	sb.FreeInodes = binary.LittleEndian.Uint32(block[16:20])
	sb.NumBlocks = binary.LittleEndian.Uint32(block[20:24])
	sb.FreeBlocks = binary.LittleEndian.Uint32(block[24:28])
	sb.DataRegion = binary.LittleEndian.Uint32(block[28:32])
	return sb
}

// PutSuperblock is the view form: it encodes sb directly into block 0's
// bytes in place, so subsequent mapped reads see the update immediately.
func PutSuperblock(block []byte, sb Superblock) {
	binary.LittleEndian.PutUint32(block[0:4], sb.Magic)
	binary.LittleEndian.PutUint64(block[4:12], sb.Size)
	binary.LittleEndian.PutUint32(block[12:16], sb.NumInodes)
	binary.LittleEndian.PutUint32(block[16:20], sb.FreeInodes)
	binary.LittleEndian.PutUint32(block[20:24], sb.NumBlocks)
	binary.LittleEndian.PutUint32(block[24:28], sb.FreeBlocks)
	binary.LittleEndian.PutUint32(block[28:32], sb.DataRegion)
}
