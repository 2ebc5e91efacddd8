package vsfs

// Create implements create (§4.4): it allocates a fresh inode and links it
// into the root directory under the path's final (and only) component.
//
// The free-inode count and the directory-entry slot are both checked before
// anything is mutated, so the common no-space cases never allocate an inode
// that has to be rolled back.
func (v *Volume) Create(path string, mode uint32) (uint32, *DriverError) {
	name := baseName(path)
	if len(name) > NameMax {
		return 0, NewDriverError(ErrNameTooLong)
	}
	if v.sb.FreeInodes == 0 {
		return 0, NewDriverError(ErrNoSpace)
	}

	slot := v.findFreeDirentSlot()
	if slot == -1 {
		return 0, NewDriverError(ErrNoSpace)
	}

	idx, ok := v.inodeBitmap.Alloc()
	if !ok {
		return 0, NewDriverError(ErrNoSpace)
	}
	ino := uint32(idx)

	node := Inode{
		Mode:  mode,
		Nlink: 1,
		Mtime: now(),
	}
	v.writeInode(ino, node)

	v.sb.FreeInodes--
	v.commitSuperblock()

	dirBlock := v.rootDirBlock()
	PutDirent(dirBlock[slot:slot+DirentSize], Dirent{Ino: ino, Name: name})

	v.touchMtime(RootIno, now)
	return ino, nil
}

// Unlink implements unlink (§4.4): it removes the directory entry and, once
// the inode's link count reaches zero, returns its blocks and inode slot to
// the free pools (I7, I8).
func (v *Volume) Unlink(path string) *DriverError {
	name := baseName(path)
	slot := v.findDirentSlot(name)
	if slot == -1 {
		return NewDriverError(ErrNotFound)
	}

	dirBlock := v.rootDirBlock()
	ent := ReadDirent(dirBlock[slot : slot+DirentSize])
	ino := ent.Ino

	node := v.readInode(ino)
	node.Nlink--
	if node.Nlink == 0 {
		v.freeAllBlocks(&node)
		v.inodeBitmap.Free(int(ino))
		v.sb.FreeInodes++
	}
	v.writeInode(ino, node)

	ClearDirent(dirBlock[slot : slot+DirentSize])
	v.commitSuperblock()
	v.touchMtime(RootIno, now)
	return nil
}
