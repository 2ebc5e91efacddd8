package vsfs

import "encoding/binary"

// blockNumberAt returns the block number that holds byte offset's data in
// node, consulting the direct array or the single indirect block (§4.2).
func (v *Volume) blockNumberAt(node *Inode, offset int64) uint32 {
	b := offset / BlockSize
	if b < Direct {
		return node.Direct[b]
	}

	indirectBlock := v.image.Block(node.Indirect)
	entryOffset := int(b-Direct) * 4
	return binary.LittleEndian.Uint32(indirectBlock[entryOffset : entryOffset+4])
}

// setBlockNumberAt records blockNum as the b-th block of node (direct array
// or indirect block), used while growing a file in Truncate.
func (v *Volume) setBlockNumberAt(node *Inode, b int64, blockNum uint32) {
	if b < Direct {
		node.Direct[b] = blockNum
		return
	}
	indirectBlock := v.image.Block(node.Indirect)
	entryOffset := int(b-Direct) * 4
	binary.LittleEndian.PutUint32(indirectBlock[entryOffset:entryOffset+4], blockNum)
}

// blockBytesAt returns the slice of the mapped image covering byte offset
// of node, for a range [offset, offset+size) guaranteed by the bridge to lie
// within a single block (§4.2).
func (v *Volume) blockBytesAt(node *Inode, offset int64, size int) []byte {
	blockNum := v.blockNumberAt(node, offset)
	r := int(offset % BlockSize)
	block := v.image.Block(blockNum)
	return block[r : r+size]
}
