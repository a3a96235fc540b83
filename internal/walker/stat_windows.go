//go:build windows

package walker

import (
	"os"
	"time"
)

func statInfo(info os.FileInfo) (mode, uid, gid uint32, mtime time.Time) {
	return uint32(info.Mode().Perm()), 0, 0, info.ModTime()
}
