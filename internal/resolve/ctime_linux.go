//go:build linux

package resolve

import (
	"os"
	"syscall"
	"time"
)

// creationTime returns the best available creation timestamp. Linux
// stat carries no birth time, so the inode change time stands in; it is
// only used as a relative ordering key, never as wall-clock truth.
func creationTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return info.ModTime()
}
