package fsys

import (
	"bytes"
	"io"
	iofs "io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// FakeFile is one entry in a Fake filesystem. OpenErr simulates a
// ghost entry: the file stats fine but cannot be read.
type FakeFile struct {
	Size    int64
	ModTime time.Time
	Dir     bool
	StatErr error
	OpenErr error
}

// Fake is an in-memory FS for tests. Paths are plain strings; no
// normalization beyond filepath.Dir/Base is applied.
type Fake struct {
	mu        sync.Mutex
	files     map[string]*FakeFile
	renameErr func(oldPath, newPath string) error
	renames   [][2]string
}

func NewFake() *Fake {
	return &Fake{files: make(map[string]*FakeFile)}
}

// Put adds or replaces a file.
func (f *Fake) Put(path string, file FakeFile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := file
	f.files[path] = &cp
}

// Remove deletes a file if present.
func (f *Fake) Remove(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
}

// FailRenames installs a hook consulted before every rename; a non-nil
// return aborts that rename.
func (f *Fake) FailRenames(hook func(oldPath, newPath string) error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.renameErr = hook
}

// Renames returns the ordered (old, new) pairs applied so far.
func (f *Fake) Renames() [][2]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]string(nil), f.renames...)
}

// Names returns the base names of all files directly under dir, sorted.
func (f *Fake) Names(dir string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var names []string
	for path := range f.files {
		if filepath.Dir(path) == dir {
			names = append(names, filepath.Base(path))
		}
	}
	sort.Strings(names)
	return names
}

func (f *Fake) ReadDir(dir string) ([]os.DirEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var entries []os.DirEntry
	for path, file := range f.files {
		if filepath.Dir(path) == dir {
			entries = append(entries, &fakeDirEntry{name: filepath.Base(path), file: file})
		}
	}
	if entries == nil {
		return nil, &os.PathError{Op: "readdir", Path: dir, Err: os.ErrNotExist}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

func (f *Fake) Stat(path string) (os.FileInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[path]
	if !ok {
		return nil, &os.PathError{Op: "stat", Path: path, Err: os.ErrNotExist}
	}
	if file.StatErr != nil {
		return nil, file.StatErr
	}
	return &fakeFileInfo{name: filepath.Base(path), file: file}, nil
}

func (f *Fake) Open(path string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[path]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: path, Err: os.ErrNotExist}
	}
	if file.OpenErr != nil {
		return nil, file.OpenErr
	}
	return io.NopCloser(bytes.NewReader(make([]byte, file.Size))), nil
}

func (f *Fake) Rename(oldPath, newPath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.renameErr != nil {
		if err := f.renameErr(oldPath, newPath); err != nil {
			return err
		}
	}
	file, ok := f.files[oldPath]
	if !ok {
		return &os.LinkError{Op: "rename", Old: oldPath, New: newPath, Err: os.ErrNotExist}
	}
	delete(f.files, oldPath)
	f.files[newPath] = file
	f.renames = append(f.renames, [2]string{oldPath, newPath})
	return nil
}

type fakeFileInfo struct {
	name string
	file *FakeFile
}

func (fi *fakeFileInfo) Name() string       { return fi.name }
func (fi *fakeFileInfo) Size() int64        { return fi.file.Size }
func (fi *fakeFileInfo) ModTime() time.Time { return fi.file.ModTime }
func (fi *fakeFileInfo) IsDir() bool        { return fi.file.Dir }
func (fi *fakeFileInfo) Sys() any           { return nil }

func (fi *fakeFileInfo) Mode() iofs.FileMode {
	if fi.file.Dir {
		return iofs.ModeDir | 0755
	}
	return 0644
}

type fakeDirEntry struct {
	name string
	file *FakeFile
}

func (de *fakeDirEntry) Name() string { return de.name }
func (de *fakeDirEntry) IsDir() bool  { return de.file.Dir }

func (de *fakeDirEntry) Type() iofs.FileMode {
	if de.file.Dir {
		return iofs.ModeDir
	}
	return 0
}

func (de *fakeDirEntry) Info() (iofs.FileInfo, error) {
	if de.file.StatErr != nil {
		return nil, de.file.StatErr
	}
	return &fakeFileInfo{name: de.name, file: de.file}, nil
}
