// Package fuseadapter is the kernel bridge (§1, §2 item 5): a thin
// github.com/hanwen/go-fuse/v2 tree that translates FUSE callbacks into
// calls on a single *vsfs.Volume. Every method here does argument
// marshaling and nothing else; the algorithms live in the ops_*.go files of
// package vsfs. Grounded on the fs.InodeEmbedder/NodeXxxer method shapes
// used throughout the example pack's go-fuse consumers (most directly
// grailbio-base's cmd/grail/fuse/gfs), simplified down to VSFS's flat,
// single-directory tree: there is exactly one directory node (root) and
// every other node is a leaf, so there is no Mkdir/Rmdir/multi-level
// Lookup to implement.
package fuseadapter

import (
	"context"
	"syscall"

	"github.com/dargueta/vsfs"
	"github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// Root is the filesystem's sole directory node.
type Root struct {
	fs.Inode
	vol *vsfs.Volume
}

// NewRoot returns the InodeEmbedder go-fuse mounts as the tree's root.
func NewRoot(vol *vsfs.Volume) *Root {
	return &Root{vol: vol}
}

var (
	_ fs.NodeLookuper  = (*Root)(nil)
	_ fs.NodeReaddirer = (*Root)(nil)
	_ fs.NodeCreater   = (*Root)(nil)
	_ fs.NodeUnlinker  = (*Root)(nil)
	_ fs.NodeGetattrer = (*Root)(nil)
	_ fs.NodeStatfser  = (*Root)(nil)
)

func errnoOf(err *vsfs.DriverError) syscall.Errno {
	if err == nil {
		return 0
	}
	return syscall.Errno(-err.Errno())
}

func attrFromStat(stat vsfs.FileStat, out *fuse.Attr) {
	out.Ino = uint64(stat.InodeNumber)
	out.Mode = stat.Mode
	out.Nlink = stat.Nlink
	out.Size = uint64(stat.Size)
	out.Blocks = uint64(stat.Blocks)
	out.SetTimes(nil, &stat.ModTime, nil)
}

func (r *Root) Getattr(_ context.Context, _ fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	stat, err := r.vol.Getattr("/")
	if err != nil {
		return errnoOf(err)
	}
	attrFromStat(stat, &out.Attr)
	return 0
}

func (r *Root) Statfs(_ context.Context, out *fuse.StatfsOut) syscall.Errno {
	st := r.vol.Statfs("/")
	out.Bsize = uint32(st.BlockSize)
	out.Blocks = st.TotalBlocks
	out.Bfree = st.BlocksFree
	out.Bavail = st.BlocksFree
	out.Files = st.TotalInodes
	out.Ffree = st.InodesFree
	out.NameLen = uint32(st.MaxNameLength)
	return 0
}

func (r *Root) childPath(name string) string {
	return "/" + name
}

func (r *Root) Lookup(_ context.Context, name string, out *fuse.EntryOut) (*fs.Inode, syscall.Errno) {
	stat, err := r.vol.Getattr(r.childPath(name))
	if err != nil {
		return nil, errnoOf(err)
	}
	attrFromStat(stat, &out.Attr)
	child := &File{vol: r.vol, name: name}
	return r.NewInode(context.Background(), child, fs.StableAttr{
		Mode: stat.Mode,
		Ino:  uint64(stat.InodeNumber),
	}), 0
}

// sliceSink implements vsfs.DirSink over an in-memory slice, so Readdir (the
// POSIX operation) never has to know it's feeding a FUSE DirStream.
type sliceSink struct {
	names []string
}

func (s *sliceSink) Add(name string) bool {
	s.names = append(s.names, name)
	return true
}

func (r *Root) Readdir(_ context.Context) (fs.DirStream, syscall.Errno) {
	sink := &sliceSink{}
	if err := r.vol.Readdir("/", sink); err != nil {
		return nil, errnoOf(err)
	}

	entries := make([]fuse.DirEntry, 0, len(sink.names))
	for _, name := range sink.names {
		stat, err := r.vol.Getattr(r.childPath(name))
		if err != nil {
			continue
		}
		entries = append(entries, fuse.DirEntry{
			Name: name,
			Ino:  uint64(stat.InodeNumber),
			Mode: stat.Mode,
		})
	}
	return fs.NewListDirStream(entries), 0
}

func (r *Root) Create(
	ctx context.Context, name string, _ uint32, mode uint32, out *fuse.EntryOut,
) (*fs.Inode, fs.FileHandle, uint32, syscall.Errno) {
	ino, err := r.vol.Create(r.childPath(name), mode)
	if err != nil {
		return nil, nil, 0, errnoOf(err)
	}

	stat, _ := r.vol.Getattr(r.childPath(name))
	attrFromStat(stat, &out.Attr)

	child := &File{vol: r.vol, name: name}
	childInode := r.NewInode(ctx, child, fs.StableAttr{Mode: mode, Ino: uint64(ino)})
	return childInode, nil, 0, 0
}

func (r *Root) Unlink(_ context.Context, name string) syscall.Errno {
	return errnoOf(r.vol.Unlink(r.childPath(name)))
}

// File is a leaf node: a single regular file. It implements reads, writes,
// and attribute changes directly on the node (no separate FileHandle type),
// since VSFS has no per-open-file state of its own (§2: Context is the
// mounted volume, not an open-file table).
type File struct {
	fs.Inode
	vol  *vsfs.Volume
	name string
}

var (
	_ fs.NodeGetattrer = (*File)(nil)
	_ fs.NodeSetattrer = (*File)(nil)
	_ fs.NodeOpener    = (*File)(nil)
	_ fs.NodeReader    = (*File)(nil)
	_ fs.NodeWriter    = (*File)(nil)
)

func (f *File) path() string {
	return "/" + f.name
}

func (f *File) Getattr(_ context.Context, _ fs.FileHandle, out *fuse.AttrOut) syscall.Errno {
	stat, err := f.vol.Getattr(f.path())
	if err != nil {
		return errnoOf(err)
	}
	attrFromStat(stat, &out.Attr)
	return 0
}

func (f *File) Setattr(_ context.Context, _ fs.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	if size, ok := in.GetSize(); ok {
		if err := f.vol.Truncate(f.path(), int64(size)); err != nil {
			return errnoOf(err)
		}
	}
	if mtime, ok := in.GetMTime(); ok {
		spec := vsfs.UtimensSpec{Time: vsfs.TimeSpecFromTime(mtime)}
		if err := f.vol.Utimens(f.path(), spec); err != nil {
			return errnoOf(err)
		}
	}

	stat, err := f.vol.Getattr(f.path())
	if err != nil {
		return errnoOf(err)
	}
	attrFromStat(stat, &out.Attr)
	return 0
}

func (f *File) Open(_ context.Context, _ uint32) (fs.FileHandle, uint32, syscall.Errno) {
	return nil, 0, 0
}

func (f *File) Read(_ context.Context, _ fs.FileHandle, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	n, err := f.vol.Read(f.path(), off, dest)
	if err != nil {
		return nil, errnoOf(err)
	}
	return fuse.ReadResultData(dest[:n]), 0
}

func (f *File) Write(_ context.Context, _ fs.FileHandle, data []byte, off int64) (uint32, syscall.Errno) {
	n, err := f.vol.Write(f.path(), off, data)
	if err != nil {
		return 0, errnoOf(err)
	}
	return uint32(n), 0
}
