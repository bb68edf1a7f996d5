// Package fsys is the filesystem port used by the resolver, prober, and
// engine, so tests can inject failing or phantom entries.
package fsys

import (
	"io"
	"os"
)

// FS is the narrow filesystem surface the reconciliation core touches.
type FS interface {
	ReadDir(dir string) ([]os.DirEntry, error)
	Stat(path string) (os.FileInfo, error)
	Open(path string) (io.ReadCloser, error)
	Rename(oldPath, newPath string) error
}

type osFS struct{}

// OS returns the real-filesystem implementation.
func OS() FS { return osFS{} }

func (osFS) ReadDir(dir string) ([]os.DirEntry, error) { return os.ReadDir(dir) }
func (osFS) Stat(path string) (os.FileInfo, error)     { return os.Stat(path) }
func (osFS) Rename(oldPath, newPath string) error      { return os.Rename(oldPath, newPath) }

func (osFS) Open(path string) (io.ReadCloser, error) {
	return os.Open(path)
}
