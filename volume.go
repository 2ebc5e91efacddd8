package vsfs

// mappedImage is the minimal surface Volume needs from the image mapper
// (package image's *Mapped), expressed as an interface so this file and
// addr.go/ops_*.go don't import package image directly (that would be a
// cycle: image imports vsfs for DriverError). cmd/vsfsmount's mountVolume
// binds a concrete *image.Mapped to it.
type mappedImage interface {
	Block(n uint32) []byte
	Raw() []byte
	TotalBlocks() int
}

// Volume is the mounted-volume handle (§2 item 4, "Context"): the mapped
// region plus derived views into it. It uses the mapping but does not
// release it: whoever opened the image (cmd/vsfsmount) closes it. Every file
// operation in ops_*.go is a method on *Volume. There is
// deliberately no process-wide static state (§9 Design Notes): every
// operation receives its Volume explicitly, either as the receiver here or
// threaded through by the caller (fuseadapter.Root, mounted by
// cmd/vsfsmount, holds exactly one *Volume for the lifetime of the mount).
type Volume struct {
	image mappedImage

	superblockBlock []byte
	inodeBitmapRaw  []byte
	dataBitmapRaw   []byte
	inodeTable      []byte

	inodeBitmap freeMap
	dataBitmap  freeMap

	sb Superblock
}

// freeMap is the subset of bitmap.Bitmap's behavior Volume depends on; defined
// here instead of importing package bitmap, because bitmap imports vsfs (for
// its "NoSpace" helper) and importing it back would be a cycle. The concrete
// type, github.com/dargueta/vsfs/bitmap.Bitmap, satisfies this.
type freeMap interface {
	IsSet(index int) bool
	Set(index int, val bool)
	Alloc() (int, bool)
	Free(index int)
	CountFree() int
}

// NewVolume wires up the derived views (superblock, both bitmaps, inode
// table) over an already-mapped image. It does not itself validate the
// superblock; call ReadSuperblock on block 0 first and check Present().
func NewVolume(img mappedImage, inodeBitmap, dataBitmap freeMap) *Volume {
	v := &Volume{
		image:           img,
		superblockBlock: img.Block(SuperblockNum),
		inodeBitmapRaw:  img.Block(InodeBitmapNum),
		dataBitmapRaw:   img.Block(DataBitmapNum),
		inodeBitmap:     inodeBitmap,
		dataBitmap:      dataBitmap,
	}
	v.reloadSuperblock()
	tableBlocks := InodeTableBlocks(v.sb.NumInodes)
	tableStart := InodeTableNum * BlockSize
	tableEnd := tableStart + int(tableBlocks)*BlockSize
	v.inodeTable = img.Raw()[tableStart:tableEnd]
	return v
}

// reloadSuperblock refreshes the in-Go copy of the superblock from the
// mapped bytes. Every operation that changes a counter calls
// commitSuperblock afterward to write the copy back out.
func (v *Volume) reloadSuperblock() {
	v.sb = ReadSuperblock(v.superblockBlock)
}

func (v *Volume) commitSuperblock() {
	PutSuperblock(v.superblockBlock, v.sb)
}

// inodeBytes returns the InodeSize-byte slice of the mapped image holding
// inode number ino's record.
func (v *Volume) inodeBytes(ino uint32) []byte {
	off := int(ino) * InodeSize
	return v.inodeTable[off : off+InodeSize]
}

func (v *Volume) readInode(ino uint32) Inode {
	return ReadInode(v.inodeBytes(ino))
}

func (v *Volume) writeInode(ino uint32, node Inode) {
	PutInode(v.inodeBytes(ino), node)
}

// rootDirBlock returns the single data block backing the root directory
// (I6): inode 0's first and only direct pointer.
func (v *Volume) rootDirBlock() []byte {
	root := v.readInode(RootIno)
	return v.image.Block(root.Direct[0])
}

func (v *Volume) touchMtime(ino uint32, now func() TimeSpec) {
	node := v.readInode(ino)
	node.Mtime = now()
	v.writeInode(ino, node)
}
