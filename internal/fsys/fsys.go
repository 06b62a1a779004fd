// Package fsys is the file-system access layer consumed by the crawler.
//
// A backend implements FS with blocking calls. The crawler's non-blocking
// driver talks to an AsyncFS instead; Async adapts any FS by running each
// request on its own goroutine, so a backend only needs to provide AsyncFS
// itself when it has a genuinely asynchronous transport.
package fsys

import "io/fs"

// EntryKind classifies a directory entry without an extra stat call.
type EntryKind uint8

const (
	KindOther EntryKind = iota // sockets, devices, pipes
	KindFile
	KindDir
	KindSymlink
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "directory"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// Entry is a single object returned by a directory listing.
type Entry struct {
	Name string    // Base name
	Kind EntryKind // Type as reported by the listing (symlinks are not followed)
	Dir  string    // Directory the entry was listed from
}

// FS lists directories and resolves paths with blocking calls.
type FS interface {
	// ReadDir lists dir in the order the backend returns entries.
	ReadDir(dir string) ([]Entry, error)
	// RealPath returns the canonical, symlink-free absolute form of path.
	RealPath(path string) (string, error)
	// Stat returns file info for path, following symlinks.
	Stat(path string) (fs.FileInfo, error)
}

// AsyncFS is the non-blocking variant of FS. Each method invokes done exactly
// once, on any goroutine. A backend may call done before the method returns.
type AsyncFS interface {
	ReadDirAsync(dir string, done func([]Entry, error))
	RealPathAsync(path string, done func(string, error))
	StatAsync(path string, done func(fs.FileInfo, error))
}

// Async returns the non-blocking view of f. Backends that already implement
// AsyncFS are returned unchanged.
func Async(f FS) AsyncFS {
	if a, ok := f.(AsyncFS); ok {
		return a
	}
	return dispatcher{fs: f}
}

// dispatcher issues every request on a fresh goroutine. There is no cap on
// the number of requests in flight.
type dispatcher struct {
	fs FS
}

func (d dispatcher) ReadDirAsync(dir string, done func([]Entry, error)) {
	go func() { done(d.fs.ReadDir(dir)) }()
}

func (d dispatcher) RealPathAsync(path string, done func(string, error)) {
	go func() { done(d.fs.RealPath(path)) }()
}

func (d dispatcher) StatAsync(path string, done func(fs.FileInfo, error)) {
	go func() { done(d.fs.Stat(path)) }()
}

// kindOf maps a mode type to an EntryKind.
func kindOf(mode fs.FileMode) EntryKind {
	switch {
	case mode&fs.ModeSymlink != 0:
		return KindSymlink
	case mode.IsDir():
		return KindDir
	case mode.IsRegular():
		return KindFile
	default:
		return KindOther
	}
}

func orDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
