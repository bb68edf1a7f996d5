//go:build !linux && !darwin && !windows

package resolve

import (
	"os"
	"time"
)

func creationTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
