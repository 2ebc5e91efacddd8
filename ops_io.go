package vsfs

// zeroBlock clears a freshly allocated data block; the bitmap only
// guarantees the block is unused, not that it is zero-filled (I4).
func zeroBlock(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// freeAllBlocks returns every block owned by node, direct and indirect, to
// the data bitmap and zeroes node's size and block count. The caller is
// responsible for writing node back out.
func (v *Volume) freeAllBlocks(node *Inode) {
	blocks := int64(node.Blocks)
	for b := int64(0); b < blocks; b++ {
		bn := v.blockNumberAt(node, b*BlockSize)
		v.dataBitmap.Free(int(bn))
		v.sb.FreeBlocks++
	}
	if node.Indirect != 0 {
		v.dataBitmap.Free(int(node.Indirect))
		v.sb.FreeBlocks++
		node.Indirect = 0
	}
	node.Blocks = 0
	node.Size = 0
}

// Truncate implements truncate (§4.4): it grows or shrinks a file to
// exactly newSize bytes, allocating or freeing whole blocks (and the single
// indirect block, as its need appears or disappears) to match.
func (v *Volume) Truncate(path string, newSize int64) *DriverError {
	ino, err := v.resolve(path)
	if err != nil {
		return err
	}
	return v.truncateIno(ino, newSize)
}

func (v *Volume) truncateIno(ino uint32, newSize int64) *DriverError {
	if newSize < 0 || newSize > int64(MaxFileBlocks)*BlockSize {
		return NewDriverError(ErrTooLarge)
	}

	node := v.readInode(ino)
	oldSize := int64(node.Size)
	oldBlocks := int64(node.Blocks)
	newBlocks := (newSize + BlockSize - 1) / BlockSize

	switch {
	case newBlocks > oldBlocks:
		if err := v.growBlocks(&node, oldBlocks, newBlocks); err != nil {
			return err
		}
	case newBlocks < oldBlocks:
		v.shrinkBlocks(&node, oldBlocks, newBlocks)
	case newSize > oldSize:
		// Same block count, file grew within the last retained block: the
		// bytes past the old size were never zeroed on a prior shrink, so
		// clear them now rather than exposing stale data to Read.
		gap := v.blockBytesAt(&node, oldSize, int(newSize-oldSize))
		zeroBlock(gap)
	}

	node.Size = uint64(newSize)
	node.Blocks = uint32(newBlocks)
	node.Mtime = now()
	v.writeInode(ino, node)
	v.commitSuperblock()
	return nil
}

// growBlocks allocates the data blocks (and indirect block, if newly
// needed) to take node from oldBlocks to newBlocks blocks. On NO-SPACE it
// rolls back every block it allocated in this call, leaving node and the
// bitmaps exactly as they were (§4.4 rollback requirement).
func (v *Volume) growBlocks(node *Inode, oldBlocks, newBlocks int64) *DriverError {
	var allocated []uint32
	rollback := func() {
		for _, bn := range allocated {
			v.dataBitmap.Free(int(bn))
			v.sb.FreeBlocks++
		}
	}

	needIndirect := newBlocks > Direct && node.Indirect == 0
	if needIndirect {
		idx, ok := v.dataBitmap.Alloc()
		if !ok {
			return NewDriverError(ErrNoSpace)
		}
		node.Indirect = uint32(idx)
		v.sb.FreeBlocks--
		allocated = append(allocated, node.Indirect)
		zeroBlock(v.image.Block(node.Indirect))
	}

	for b := oldBlocks; b < newBlocks; b++ {
		idx, ok := v.dataBitmap.Alloc()
		if !ok {
			// rollback also frees a newly allocated indirect block, since it
			// is the first entry of allocated.
			rollback()
			if needIndirect {
				node.Indirect = 0
			}
			v.commitSuperblock()
			return NewDriverError(ErrNoSpace)
		}
		bn := uint32(idx)
		zeroBlock(v.image.Block(bn))
		v.setBlockNumberAt(node, b, bn)
		v.sb.FreeBlocks--
		allocated = append(allocated, bn)
	}
	return nil
}

// shrinkBlocks frees the blocks beyond newBlocks, and the indirect block
// itself once nothing beyond the direct array remains.
func (v *Volume) shrinkBlocks(node *Inode, oldBlocks, newBlocks int64) {
	for b := newBlocks; b < oldBlocks; b++ {
		bn := v.blockNumberAt(node, b*BlockSize)
		v.dataBitmap.Free(int(bn))
		v.sb.FreeBlocks++
		if b < Direct {
			node.Direct[b] = 0
		}
	}
	if newBlocks <= Direct && node.Indirect != 0 {
		v.dataBitmap.Free(int(node.Indirect))
		v.sb.FreeBlocks++
		node.Indirect = 0
	}
}

// Read implements read (§4.4): it copies up to len(buf) bytes starting at
// offset, stopping at end-of-file, and returns how many bytes it copied.
func (v *Volume) Read(path string, offset int64, buf []byte) (int, *DriverError) {
	ino, err := v.resolve(path)
	if err != nil {
		return 0, err
	}

	node := v.readInode(ino)
	if offset >= int64(node.Size) {
		return 0, nil
	}

	avail := int64(node.Size) - offset
	n := int64(len(buf))
	if n > avail {
		n = avail
	}

	var done int64
	for done < n {
		cur := offset + done
		blockRem := BlockSize - cur%BlockSize
		chunk := n - done
		if chunk > blockRem {
			chunk = blockRem
		}
		src := v.blockBytesAt(&node, cur, int(chunk))
		copy(buf[done:done+chunk], src)
		done += chunk
	}
	return int(done), nil
}

// Write implements write (§4.4). When the write extends past the current
// end of file it grows the file first by delegating to Truncate, so i_size
// is only ever updated by that one code path (§9 Open Questions).
func (v *Volume) Write(path string, offset int64, data []byte) (int, *DriverError) {
	ino, err := v.resolve(path)
	if err != nil {
		return 0, err
	}

	node := v.readInode(ino)
	if offset > int64(node.Size) {
		return 0, NewDriverError(ErrTooLarge)
	}

	end := offset + int64(len(data))
	if end > int64(MaxFileBlocks)*BlockSize {
		return 0, NewDriverError(ErrTooLarge)
	}

	if end > int64(node.Size) {
		if terr := v.truncateIno(ino, end); terr != nil {
			return 0, terr
		}
		node = v.readInode(ino)
	}

	var done int64
	n := int64(len(data))
	for done < n {
		cur := offset + done
		blockRem := BlockSize - cur%BlockSize
		chunk := n - done
		if chunk > blockRem {
			chunk = blockRem
		}
		dst := v.blockBytesAt(&node, cur, int(chunk))
		copy(dst, data[done:done+chunk])
		done += chunk
	}

	node.Mtime = now()
	v.writeInode(ino, node)
	return int(done), nil
}
