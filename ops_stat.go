package vsfs

import "time"

// Statfs reports filesystem-wide statistics (§4.4). It ignores path and
// never fails.
func (v *Volume) Statfs(path string) FSStat {
	return FSStat{
		BlockSize:     BlockSize,
		TotalBlocks:   uint64(v.sb.NumBlocks),
		BlocksFree:    uint64(v.sb.FreeBlocks),
		TotalInodes:   uint64(v.sb.NumInodes),
		InodesFree:    uint64(v.sb.FreeInodes),
		MaxNameLength: NameMax,
	}
}

// Getattr implements stat (§4.4).
func (v *Volume) Getattr(path string) (FileStat, *DriverError) {
	if len(path) > NameMax+1 {
		return FileStat{}, NewDriverError(ErrNameTooLong)
	}

	ino, err := v.resolve(path)
	if err != nil {
		return FileStat{}, err
	}

	node := v.readInode(ino)
	return FileStat{
		InodeNumber: ino,
		Mode:        node.Mode,
		Nlink:       node.Nlink,
		Size:        int64(node.Size),
		Blocks:      (int64(node.Size) + 511) / 512,
		ModTime:     node.Mtime.Time(),
	}, nil
}

// Readdir implements readdir (§4.4). Its precondition is that path is "/".
// It yields every entry in the root directory's data block that is not
// free, except "." and "..": those are written by the formatter to satisfy
// I5 but are not entries any create call produced, and S2 establishes that
// this driver hides them from readdir (§9 Open Questions).
func (v *Volume) Readdir(path string, sink DirSink) *DriverError {
	dirBlock := v.rootDirBlock()
	for i := 0; i < DirentsPerBlock; i++ {
		off := i * DirentSize
		ent := ReadDirent(dirBlock[off : off+DirentSize])
		if ent.Free() || ent.Name == "." || ent.Name == ".." {
			continue
		}
		if !sink.Add(ent.Name) {
			return NewDriverError(ErrOutOfMemory)
		}
	}
	return nil
}

// now is a package-level hook so utimens' NOW behavior and the mtime stamps
// everywhere else can be substituted in tests; it is not process-wide mount
// state (§9), just a clock.
var now = func() TimeSpec {
	return TimeSpecFromTime(time.Now())
}
