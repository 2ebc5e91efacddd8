package vsfs

import "encoding/binary"

// Inode is the copy form of a fixed-size inode-table record (§3). Byte
// layout (InodeSize == 128 bytes total):
//
//	offset  size  field
//	0       4     i_mode
//	4       4     i_nlink
//	8       8     i_size
//	16      4     i_blocks
//	20      8     i_mtime (seconds)
//	28      8     i_mtime (nanoseconds)
//	36      88    i_direct[Direct]   (Direct * 4 bytes)
//	124     4     i_indirect
type Inode struct {
	Mode     uint32
	Nlink    uint32
	Size     uint64
	Blocks   uint32
	Mtime    TimeSpec
	Direct   [Direct]uint32
	Indirect uint32
}

// Allocated reports whether this inode record currently describes a live
// file or directory. It is a convenience over checking the inode bitmap
// directly; the two must always agree (I1).
func (ino *Inode) Allocated() bool {
	return ino.Nlink > 0
}

// ReadInode is the copy form: it decodes one inode record out of buf, which
// must be exactly InodeSize bytes long.
func ReadInode(buf []byte) Inode {
	var ino Inode
	ino.Mode = binary.LittleEndian.Uint32(buf[0:4])
	ino.Nlink = binary.LittleEndian.Uint32(buf[4:8])
	ino.Size = binary.LittleEndian.Uint64(buf[8:16])
	ino.Blocks = binary.LittleEndian.Uint32(buf[16:20])
	ino.Mtime.Sec = int64(binary.LittleEndian.Uint64(buf[20:28]))
	ino.Mtime.Nsec = int64(binary.LittleEndian.Uint64(buf[28:36]))
	for i := 0; i < Direct; i++ {
		off := 36 + i*4
		ino.Direct[i] = binary.LittleEndian.Uint32(buf[off : off+4])
	}
	ino.Indirect = binary.LittleEndian.Uint32(buf[124:128])
	return ino
}

// PutInode is the view form: it encodes ino directly into buf, which must be
// exactly InodeSize bytes long and is normally a slice of the mapped image.
func PutInode(buf []byte, ino Inode) {
	binary.LittleEndian.PutUint32(buf[0:4], ino.Mode)
	binary.LittleEndian.PutUint32(buf[4:8], ino.Nlink)
	binary.LittleEndian.PutUint64(buf[8:16], ino.Size)
	binary.LittleEndian.PutUint32(buf[16:20], ino.Blocks)
	binary.LittleEndian.PutUint64(buf[20:28], uint64(ino.Mtime.Sec))
	binary.LittleEndian.PutUint64(buf[28:36], uint64(ino.Mtime.Nsec))
	for i := 0; i < Direct; i++ {
		off := 36 + i*4
		binary.LittleEndian.PutUint32(buf[off:off+4], ino.Direct[i])
	}
	binary.LittleEndian.PutUint32(buf[124:128], ino.Indirect)
}
