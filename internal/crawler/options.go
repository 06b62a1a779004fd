// Package crawler implements a configurable recursive directory crawler.
//
// A Builder collects options and freezes them against a root path. The
// resulting API runs the crawl with one of three drivers: a blocking walk
// (Sync), an event-driven walk whose listings run concurrently
// (WithCallback, Await), or a lazy pull-based walk (Iterator, All).
package crawler

import (
	"context"
	"math"
	"os"

	"github.com/TFMV/fcrawl/internal/fsys"
	"github.com/TFMV/fcrawl/internal/glob"
	"go.uber.org/zap"
)

// FilterFunc decides whether an entry is part of the output. Directory paths
// end with the path separator.
type FilterFunc func(path string, isDir bool) bool

// ExcludeFunc decides whether the crawler descends into a directory. dirPath
// ends with the path separator.
type ExcludeFunc func(dirName, dirPath string) bool

// LogLevel defines the verbosity of logging.
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// SymlinkOptions configures symlink resolution.
type SymlinkOptions struct {
	// UseRealPaths reports entries below a symlinked directory under their
	// canonical path instead of the path through the link.
	UseRealPaths bool
}

// Options holds every crawl setting. Use DefaultOptions as the starting
// point; the zero value limits the crawl to the root directory.
type Options struct {
	IncludeBasePath bool // Prefix file paths with the root
	IncludeDirs     bool // Emit directories as well as files
	ExcludeFiles    bool // Omit files from the output
	ExcludeSymlinks bool // Ignore symlinks entirely

	MaxDepth int // Levels below the root to descend; negative yields nothing
	// Stop after this many emitted entries; 0 is unlimited. With OnlyCounts
	// only files are limited and the directory tally keeps every directory
	// entered before the crawl stops.
	MaxFiles int

	ResolveSymlinks bool // Follow symlinks
	UseRealPaths    bool // Report followed entries under their real path

	Filters []FilterFunc // All must accept an entry
	Exclude ExcludeFunc  // Skip descending into matching directories

	RelativePaths bool // Output paths relative to the root
	ResolvePaths  bool // Make the root absolute
	NormalizePath bool // Clean the root
	PathSeparator rune // Separator used in output paths

	Group      bool // Output files grouped per directory
	OnlyCounts bool // Output file and directory counts only

	SuppressErrors bool            // Skip unreadable branches instead of failing
	Signal         context.Context // Cancels the crawl when done

	GlobFunc glob.Func // Matcher factory used by Glob
	FS       fsys.FS   // File system to crawl; nil is the OS

	Logger   *zap.Logger
	LogLevel LogLevel // Used when Logger is nil
}

// DefaultOptions returns an unbounded crawl of files only, reported as names
// relative to their directory, with errors suppressed.
func DefaultOptions() Options {
	return Options{
		MaxDepth:       math.MaxInt,
		PathSeparator:  os.PathSeparator,
		SuppressErrors: true,
		GlobFunc:       glob.Gobwas,
	}
}

// outputMode is selected once per configuration.
type outputMode int

const (
	outputPaths outputMode = iota
	outputCounts
	outputGroups
)

func (m outputMode) String() string {
	switch m {
	case outputCounts:
		return "counts"
	case outputGroups:
		return "groups"
	default:
		return "paths"
	}
}

func (o *Options) outputMode() outputMode {
	switch {
	case o.OnlyCounts:
		return outputCounts
	case o.Group:
		return outputGroups
	default:
		return outputPaths
	}
}
