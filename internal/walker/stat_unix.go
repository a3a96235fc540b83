//go:build !windows

package walker

import (
	"os"
	"syscall"
	"time"
)

func statInfo(info os.FileInfo) (mode, uid, gid uint32, mtime time.Time) {
	mode = uint32(info.Mode().Perm())
	mtime = info.ModTime()
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		uid = st.Uid
		gid = st.Gid
	}
	return mode, uid, gid, mtime
}
