package vsfs

import "strings"

// resolve implements the path resolver (§4.3): "/" resolves to the root
// inode, and any other path must be exactly "/NAME" with no further
// slashes. It scans the root directory's data block linearly, comparing
// NAME against each non-free entry's stored name byte-for-byte, and returns
// the inode number of the first match.
func (v *Volume) resolve(path string) (uint32, *DriverError) {
	if path == "/" {
		return RootIno, nil
	}

	if len(path) == 0 || path[0] != '/' {
		return 0, NewDriverErrorWithMessage(ErrNotFound, "path must be absolute")
	}

	name := path[1:]
	if strings.Contains(name, "/") {
		return 0, NewDriverErrorWithMessage(ErrNotFound, "only one path component is supported")
	}
	if len(name) > NameMax {
		return 0, NewDriverError(ErrNameTooLong)
	}

	dirBlock := v.rootDirBlock()
	for i := 0; i < DirentsPerBlock; i++ {
		slot := dirBlock[i*DirentSize : (i+1)*DirentSize]
		ent := ReadDirent(slot)
		if ent.Free() {
			continue
		}
		if ent.Name == name {
			return ent.Ino, nil
		}
	}

	return 0, NewDriverError(ErrNotFound)
}

// findDirentSlot returns the byte offset within the root directory block of
// the entry named name, or -1 if none matches.
func (v *Volume) findDirentSlot(name string) int {
	dirBlock := v.rootDirBlock()
	for i := 0; i < DirentsPerBlock; i++ {
		off := i * DirentSize
		ent := ReadDirent(dirBlock[off : off+DirentSize])
		if !ent.Free() && ent.Name == name {
			return off
		}
	}
	return -1
}

// findFreeDirentSlot returns the byte offset of the first free directory
// entry slot in the root block, or -1 if the block is full.
func (v *Volume) findFreeDirentSlot() int {
	dirBlock := v.rootDirBlock()
	for i := 0; i < DirentsPerBlock; i++ {
		off := i * DirentSize
		ent := ReadDirent(dirBlock[off : off+DirentSize])
		if ent.Free() {
			return off
		}
	}
	return -1
}

// baseName returns the final component of an absolute, single-component
// path ("/hello" -> "hello"), as create (§4.4) needs for the new entry's
// name.
func baseName(path string) string {
	return strings.TrimPrefix(path, "/")
}
