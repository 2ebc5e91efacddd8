package vsfs

import "time"

// FileStat is the result of getattr (§4.4), a platform-independent form of
// [syscall.Stat_t] trimmed to the fields VSFS actually tracks. There is no
// uid/gid (Non-goals, §1).
type FileStat struct {
	InodeNumber uint32
	Mode        uint32
	Nlink       uint32
	Size        int64
	// Blocks is the file's size expressed in 512-byte units
	// (ceil(i_size/512)), the unit st_blocks uses.
	Blocks  int64
	ModTime time.Time
}

func (stat *FileStat) IsDir() bool {
	return IsDir(stat.Mode)
}

func (stat *FileStat) IsRegular() bool {
	return IsRegular(stat.Mode)
}

// FSStat is the result of statfs (§4.4), a platform-independent form of
// [syscall.Statfs_t].
type FSStat struct {
	BlockSize     int64
	TotalBlocks   uint64
	BlocksFree    uint64
	TotalInodes   uint64
	InodesFree    uint64
	MaxNameLength int64
}

// TimeSpec is a (seconds, nanoseconds) pair, the on-disk representation of
// i_mtime (§3) and the wire format utimens (§4.4) accepts for explicit
// timestamps.
type TimeSpec struct {
	Sec  int64
	Nsec int64
}

func (t TimeSpec) Time() time.Time {
	return time.Unix(t.Sec, t.Nsec)
}

func TimeSpecFromTime(t time.Time) TimeSpec {
	return TimeSpec{Sec: t.Unix(), Nsec: int64(t.Nanosecond())}
}

// UtimensSpec describes the three ways utimens (§4.4) may be asked to set a
// timestamp.
type UtimensSpec struct {
	// Omit means leave i_mtime unchanged.
	Omit bool
	// Now means set i_mtime to the current wall-clock time.
	Now bool
	// Time is used when neither Omit nor Now is set.
	Time TimeSpec
}

// DirSink receives names yielded by Readdir (§4.4). It returns false once it
// can no longer accept further names, at which point Readdir fails with
// ErrOutOfMemory.
type DirSink interface {
	Add(name string) (ok bool)
}
