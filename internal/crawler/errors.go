package crawler

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// Error taxonomy. File system failures are reported as *CrawlError values
// that match one of these through errors.Is.
var (
	ErrPermissionDenied  = errors.New("crawler: permission denied")
	ErrNotFound          = errors.New("crawler: no such file or directory")
	ErrNotADirectory     = errors.New("crawler: not a directory")
	ErrSymlinkResolution = errors.New("crawler: symlink resolution failed")

	// ErrAborted describes a crawl truncated by its abort signal. Drivers
	// never return it: an aborted crawl hands back its partial output with a
	// nil error.
	ErrAborted = errors.New("crawler: aborted")

	ErrEmptyRoot      = errors.New("crawler: root path is empty")
	ErrNoGlobFunction = errors.New("crawler: glob requested without a glob function")
	ErrIteratorOutput = errors.New("crawler: iterator only supports path output")
)

// Operations recorded in CrawlError.Op.
const (
	OpReadDir  = "readdir"
	OpRealPath = "realpath"
	OpStat     = "stat"
)

// CrawlError records the file system operation and path that failed.
type CrawlError struct {
	Op   string
	Path string
	Err  error
}

func (e *CrawlError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *CrawlError) Unwrap() error { return e.Err }

// Is matches the taxonomy sentinels against the underlying OS error.
func (e *CrawlError) Is(target error) bool {
	switch target {
	case ErrPermissionDenied:
		return errors.Is(e.Err, fs.ErrPermission)
	case ErrNotFound:
		return errors.Is(e.Err, fs.ErrNotExist)
	case ErrNotADirectory:
		return errors.Is(e.Err, syscall.ENOTDIR)
	case ErrSymlinkResolution:
		return e.Op == OpRealPath || e.Op == OpStat
	}
	return false
}
