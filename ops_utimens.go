package vsfs

// Utimens implements utimens (§4.4): it sets a file's modification time
// from spec, honoring the OMIT and NOW sentinels a kernel bridge passes for
// UTIME_OMIT and UTIME_NOW.
func (v *Volume) Utimens(path string, spec UtimensSpec) *DriverError {
	ino, err := v.resolve(path)
	if err != nil {
		return err
	}
	if spec.Omit {
		return nil
	}

	node := v.readInode(ino)
	if spec.Now {
		node.Mtime = now()
	} else {
		node.Mtime = spec.Time
	}
	v.writeInode(ino, node)
	return nil
}
