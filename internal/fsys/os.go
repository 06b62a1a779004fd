package fsys

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/karrick/godirwalk"
)

// scratchPool recycles godirwalk scratch buffers across listings. The
// non-blocking driver reads many directories at once, so buffers cannot be
// owned by a single walker.
var scratchPool = sync.Pool{
	New: func() any {
		b := make([]byte, godirwalk.MinimumScratchBufferSize)
		return &b
	},
}

// OS is the local operating system file system.
type OS struct{}

// ReadDir lists dir using godirwalk, which reports entry types straight from
// the directory stream on platforms that support it.
func (OS) ReadDir(dir string) ([]Entry, error) {
	dir = orDot(dir)

	buf := scratchPool.Get().(*[]byte)
	defer scratchPool.Put(buf)

	dirents, err := godirwalk.ReadDirents(dir, *buf)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		entries = append(entries, Entry{
			Name: de.Name(),
			Kind: kindOf(de.ModeType()),
			Dir:  dir,
		})
	}
	return entries, nil
}

// RealPath evaluates every symlink in path and returns an absolute result.
func (OS) RealPath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(orDot(path))
	if err != nil {
		return "", err
	}
	return filepath.Abs(resolved)
}

// Stat follows symlinks.
func (OS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(orDot(path))
}
