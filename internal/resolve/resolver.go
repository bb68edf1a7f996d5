// Package resolve produces the authoritative list of accessible image
// files in the watched directory, ordered by creation time.
package resolve

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BBlackMMan/Renamer/internal/fsys"
	"github.com/BBlackMMan/Renamer/internal/logging"
	"github.com/BBlackMMan/Renamer/internal/model"
)

type Resolver struct {
	fs     fsys.FS
	logger *logging.Logger
}

func New(fs fsys.FS, logger *logging.Logger) *Resolver {
	return &Resolver{fs: fs, logger: logger}
}

// Resolve enumerates dir and returns every image file that survives the
// access gauntlet, sorted by creation time ascending (name breaks ties,
// keeping the ordering deterministic). Individual files that are
// missing, empty, irregular, or unreadable are skipped, never reported
// as errors; only a directory-level failure is returned.
//
// Entries are listed directly rather than glob-matched: some
// filesystems keep stale "ghost" entries visible to pattern matching
// right after a rename or delete. Such an entry may even stat
// successfully, so each survivor must additionally prove itself with a
// one-byte read before it is trusted.
func (r *Resolver) Resolve(dir string) ([]model.ImageFile, error) {
	entries, err := r.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read watch dir: %w", err)
	}

	var files []model.ImageFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !model.IsImageExt(name) {
			continue
		}

		path := filepath.Join(dir, name)
		info, err := r.fs.Stat(path)
		if err != nil {
			r.logger.Debugf("skip %s: %v", name, err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if info.Size() <= 0 {
			r.logger.Debugf("skip %s: empty", name)
			continue
		}
		if !r.readable(path) {
			r.logger.Debugf("skip %s: not readable (ghost entry?)", name)
			continue
		}

		files = append(files, model.ImageFile{
			Path:      path,
			Name:      name,
			Ext:       strings.ToLower(filepath.Ext(name)),
			Size:      info.Size(),
			CreatedAt: creationTime(info),
		})
	}

	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].CreatedAt.Equal(files[j].CreatedAt) {
			return files[i].CreatedAt.Before(files[j].CreatedAt)
		}
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// readable proves the file is not an exclusively locked or phantom
// entry by reading a single byte.
func (r *Resolver) readable(path string) bool {
	f, err := r.fs.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	var buf [1]byte
	n, _ := f.Read(buf[:])
	return n == 1
}
