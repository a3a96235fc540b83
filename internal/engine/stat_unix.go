//go:build !windows

package engine

import (
	"os"
	"syscall"
	"time"
)

// statPath stats path and extracts the mode/uid/gid/mtime FileMeta
// needs; stat_windows.go holds the variant for platforms without a
// native uid/gid.
func statPath(path string) (mode, uid, gid uint32, mtime time.Time, err error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return 0, 0, 0, time.Time{}, err
	}
	mode = uint32(fi.Mode().Perm())
	mtime = fi.ModTime()
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		uid = st.Uid
		gid = st.Gid
	}
	return mode, uid, gid, mtime, nil
}
