//go:build windows

package engine

import (
	"os"
	"time"
)

// statPath stats path on a platform with no native uid/gid concept;
// Uid and Gid come back zero and permission checks fall through to the
// "other" bits of Mode, matching the rest of the OS's own access model.
func statPath(path string) (mode, uid, gid uint32, mtime time.Time, err error) {
	fi, err := os.Lstat(path)
	if err != nil {
		return 0, 0, 0, time.Time{}, err
	}
	return uint32(fi.Mode().Perm()), 0, 0, fi.ModTime(), nil
}
