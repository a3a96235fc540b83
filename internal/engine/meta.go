package engine

import (
	"time"

	"github.com/qfind/qfind/internal/perm"
)

// FileID is the 64-bit file identifier used across the engine. The all-
// ones value is reserved to mean "no file" and is never assigned.
type FileID = uint64

// InvalidFileID is the reserved sentinel for "no file".
const InvalidFileID FileID = ^uint64(0)

// FileMeta is the per-file metadata record (§3). A tombstoned record
// has its Path cleared; the zero value of Path is how the query stage
// recognizes a dead id without touching the posting lists that still
// reference it.
type FileMeta struct {
	ID    FileID
	Path  string
	Mode  uint32
	Uid   uint32
	Gid   uint32
	Mtime time.Time
}

// Tombstoned reports whether this record has been deleted.
func (m FileMeta) Tombstoned() bool { return m.Path == "" }

// permMeta adapts a FileMeta to the perm package's predicate input.
func (m FileMeta) permMeta() perm.Meta {
	return perm.Meta{Uid: m.Uid, Gid: m.Gid, Mode: m.Mode}
}
