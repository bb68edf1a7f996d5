//go:build windows

package resolve

import (
	"os"
	"syscall"
	"time"
)

// creationTime returns the NTFS creation timestamp.
func creationTime(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return time.Unix(0, st.CreationTime.Nanoseconds())
	}
	return info.ModTime()
}
