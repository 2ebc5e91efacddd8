package vsfs

import (
	"bytes"
	"encoding/binary"
)

// Dirent is the copy form of a directory-entry record (§3): a 4-byte inode
// number followed by a NUL-terminated name occupying the rest of the
// DirentSize-byte slot. An entry whose Ino equals InoMax is free.
type Dirent struct {
	Ino  uint32
	Name string
}

// Free reports whether this slot is unused.
func (d *Dirent) Free() bool {
	return d.Ino == InoMax
}

// ReadDirent is the copy form: it decodes one directory entry out of buf,
// which must be exactly DirentSize bytes long.
func ReadDirent(buf []byte) Dirent {
	ino := binary.LittleEndian.Uint32(buf[0:4])
	nameBytes := buf[4:DirentSize]
	if nul := bytes.IndexByte(nameBytes, 0); nul >= 0 {
		nameBytes = nameBytes[:nul]
	}
	return Dirent{Ino: ino, Name: string(nameBytes)}
}

// PutDirent is the view form: it encodes d directly into buf, which must be
// exactly DirentSize bytes long. It panics if len(d.Name) > NameMax, which
// callers must have already checked (callers resolve this with
// ErrNameTooLong instead of letting it panic).
func PutDirent(buf []byte, d Dirent) {
	if len(d.Name) > NameMax {
		panic("vsfs: directory entry name longer than NameMax")
	}
	for i := range buf {
		buf[i] = 0
	}
	binary.LittleEndian.PutUint32(buf[0:4], d.Ino)
	copy(buf[4:DirentSize], d.Name)
}

// ClearDirent marks a directory-entry slot free and zeroes its name bytes,
// as unlink (§4.4) requires.
func ClearDirent(buf []byte) {
	PutDirent(buf, Dirent{Ino: InoMax})
}
