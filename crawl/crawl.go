package crawl

import (
	"context"

	"github.com/TFMV/fcrawl/internal/crawler"
	"github.com/TFMV/fcrawl/internal/fsys"
	"github.com/TFMV/fcrawl/internal/glob"
	"github.com/TFMV/fcrawl/internal/watch"
	"github.com/pkg/sftp"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Re-export the crawler types
type (
	// Builder collects options and freezes them against a root.
	Builder = crawler.Builder

	// API runs crawls of one frozen configuration.
	API = crawler.API

	// Options holds every crawl setting.
	Options = crawler.Options

	// Iterator is a lazy crawl of paths.
	Iterator = crawler.Iterator

	// Output is the result of a crawl: Paths, Counts or Groups.
	Output = crawler.Output
	Paths  = crawler.Paths
	Counts = crawler.Counts
	Group  = crawler.Group
	Groups = crawler.Groups

	FilterFunc     = crawler.FilterFunc
	ExcludeFunc    = crawler.ExcludeFunc
	SymlinkOptions = crawler.SymlinkOptions
	LogLevel       = crawler.LogLevel

	// CrawlError describes a failed file system operation.
	CrawlError = crawler.CrawlError

	// File system access
	FS      = fsys.FS
	AsyncFS = fsys.AsyncFS
	Entry   = fsys.Entry

	// Glob matching
	GlobFunc    = glob.Func
	GlobOptions = glob.Options
	Matcher     = glob.Matcher

	// Watch mode
	WatchEvent   = watch.Event
	WatchOptions = watch.Options
	WatchMessage = watch.Message
	WatchResult  = watch.Result
	WatchHandler = watch.Handler
)

// Re-export the constants
const (
	LogLevelError = crawler.LogLevelError
	LogLevelWarn  = crawler.LogLevelWarn
	LogLevelInfo  = crawler.LogLevelInfo
	LogLevelDebug = crawler.LogLevelDebug

	OpReadDir  = crawler.OpReadDir
	OpRealPath = crawler.OpRealPath
	OpStat     = crawler.OpStat

	EventCreate = watch.EventCreate
	EventModify = watch.EventModify
	EventDelete = watch.EventDelete
	EventRename = watch.EventRename
	EventChmod  = watch.EventChmod
)

// Re-export the errors
var (
	ErrPermissionDenied  = crawler.ErrPermissionDenied
	ErrNotFound          = crawler.ErrNotFound
	ErrNotADirectory     = crawler.ErrNotADirectory
	ErrSymlinkResolution = crawler.ErrSymlinkResolution
	ErrAborted           = crawler.ErrAborted
	ErrEmptyRoot         = crawler.ErrEmptyRoot
	ErrNoGlobFunction    = crawler.ErrNoGlobFunction
	ErrIteratorOutput    = crawler.ErrIteratorOutput
	ErrNoPatterns        = glob.ErrNoPatterns
)

// Matcher factories
var (
	Gobwas GlobFunc = glob.Gobwas
	Zglob  GlobFunc = glob.Zglob
)

// New returns a builder holding DefaultOptions.
func New() *Builder {
	return crawler.New()
}

// DefaultOptions returns the options New starts from.
func DefaultOptions() Options {
	return crawler.DefaultOptions()
}

// Crawl freezes opts against root.
func Crawl(root string, opts Options) *API {
	return crawler.New().CrawlWithOptions(root, opts)
}

// NewLogger builds the logger used when Options.Logger is nil.
func NewLogger(level LogLevel) *zap.Logger {
	return crawler.NewLogger(level)
}

// OSFS returns the local file system.
func OSFS() FS {
	return fsys.OS{}
}

// AferoFS crawls an afero file system.
func AferoFS(fs afero.Fs) FS {
	return fsys.NewAfero(fs)
}

// SFTPFS crawls a remote file system over an established SFTP session.
func SFTPFS(client *sftp.Client) FS {
	return fsys.NewSFTP(client)
}

// Watch reports changes below root until ctx is done.
func Watch(ctx context.Context, root string, opts WatchOptions, handler WatchHandler) error {
	return watch.Watch(ctx, root, opts, handler)
}

// WatchDirs returns the directories Watch would register for root.
func WatchDirs(ctx context.Context, root string, opts WatchOptions) ([]string, error) {
	return watch.Dirs(ctx, root, opts)
}
