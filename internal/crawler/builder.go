package crawler

import (
	"context"
	"slices"

	"github.com/TFMV/fcrawl/internal/fsys"
	"github.com/TFMV/fcrawl/internal/glob"
	"go.uber.org/zap"
)

// Builder collects crawl options. Every method returns the builder so calls
// can be chained; nothing touches the file system until the API returned by
// Crawl is run.
type Builder struct {
	opts Options
	// Matchers compiled by Glob, shared by every API this builder creates.
	globs *glob.Cache
	err   error
}

// New returns a builder holding DefaultOptions.
func New() *Builder {
	return &Builder{opts: DefaultOptions()}
}

// WithBasePath prefixes file paths with the root.
func (b *Builder) WithBasePath() *Builder {
	b.opts.IncludeBasePath = true
	return b
}

// WithDirs includes directories in the output.
func (b *Builder) WithDirs() *Builder {
	b.opts.IncludeDirs = true
	return b
}

// OnlyDirs outputs directories and no files.
func (b *Builder) OnlyDirs() *Builder {
	b.opts.IncludeDirs = true
	b.opts.ExcludeFiles = true
	return b
}

// ExcludeFiles omits files from the output.
func (b *Builder) ExcludeFiles() *Builder {
	b.opts.ExcludeFiles = true
	return b
}

// WithMaxDepth limits how many levels below the root are walked.
func (b *Builder) WithMaxDepth(depth int) *Builder {
	b.opts.MaxDepth = depth
	return b
}

// WithMaxFiles stops the crawl once n entries have been emitted.
func (b *Builder) WithMaxFiles(n int) *Builder {
	b.opts.MaxFiles = n
	return b
}

// WithSymlinks follows symlinks.
func (b *Builder) WithSymlinks(opts SymlinkOptions) *Builder {
	b.opts.ResolveSymlinks = true
	b.opts.UseRealPaths = opts.UseRealPaths
	return b
}

// ExcludeSymlinks ignores symlinks entirely, whether or not they would be
// followed.
func (b *Builder) ExcludeSymlinks() *Builder {
	b.opts.ExcludeSymlinks = true
	return b
}

// Filter adds an inclusion predicate. Entries must pass every filter.
func (b *Builder) Filter(f FilterFunc) *Builder {
	b.opts.Filters = append(b.opts.Filters, f)
	return b
}

// Exclude sets the predicate deciding which directories are not descended.
func (b *Builder) Exclude(f ExcludeFunc) *Builder {
	b.opts.Exclude = f
	return b
}

// WithRelativePaths outputs paths relative to the root.
func (b *Builder) WithRelativePaths() *Builder {
	b.opts.RelativePaths = true
	return b
}

// WithFullPaths makes the root absolute and prefixes every path with it.
func (b *Builder) WithFullPaths() *Builder {
	b.opts.ResolvePaths = true
	b.opts.IncludeBasePath = true
	return b
}

// Normalize cleans the root before crawling.
func (b *Builder) Normalize() *Builder {
	b.opts.NormalizePath = true
	return b
}

// WithPathSeparator sets the separator used in output paths.
func (b *Builder) WithPathSeparator(sep rune) *Builder {
	b.opts.PathSeparator = sep
	return b
}

// Group outputs files grouped by the directory containing them.
func (b *Builder) Group() *Builder {
	b.opts.Group = true
	return b
}

// OnlyCounts outputs the number of files and directories only.
func (b *Builder) OnlyCounts() *Builder {
	b.opts.OnlyCounts = true
	return b
}

// WithErrors stops the crawl on the first file system error instead of
// skipping the failing branch.
func (b *Builder) WithErrors() *Builder {
	b.opts.SuppressErrors = false
	return b
}

// WithAbortSignal stops the crawl once ctx is done.
func (b *Builder) WithAbortSignal(ctx context.Context) *Builder {
	b.opts.Signal = ctx
	return b
}

// WithGlobFunc sets the matcher factory used by later Glob calls. Filters
// added by earlier Glob calls stay in place; only the compiled matcher cache
// is reset.
func (b *Builder) WithGlobFunc(fn glob.Func) *Builder {
	b.opts.GlobFunc = fn
	b.globs = nil
	return b
}

// Glob keeps entries whose output path matches any of patterns.
func (b *Builder) Glob(patterns ...string) *Builder {
	return b.GlobWithOptions(glob.Options{}, patterns...)
}

// GlobWithOptions is Glob with options passed through to the factory.
func (b *Builder) GlobWithOptions(opts glob.Options, patterns ...string) *Builder {
	if b.opts.GlobFunc == nil {
		b.setErr(ErrNoGlobFunction)
		return b
	}
	if b.globs == nil {
		b.globs = glob.NewCache(b.opts.GlobFunc)
	}

	match, err := b.globs.Get(patterns, opts)
	if err != nil {
		b.setErr(err)
		return b
	}
	return b.Filter(func(path string, _ bool) bool { return match(path) })
}

// WithFS crawls fs instead of the local file system.
func (b *Builder) WithFS(fs fsys.FS) *Builder {
	b.opts.FS = fs
	return b
}

// WithLogger logs through logger.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.opts.Logger = logger
	return b
}

// Options returns a copy of the collected options.
func (b *Builder) Options() Options {
	opts := b.opts
	opts.Filters = slices.Clone(opts.Filters)
	return opts
}

// Crawl freezes the options against root.
func (b *Builder) Crawl(root string) *API {
	return b.CrawlWithOptions(root, b.opts)
}

// CrawlWithOptions freezes opts, instead of the builder's options, against
// root. Errors recorded by the builder still apply.
func (b *Builder) CrawlWithOptions(root string, opts Options) *API {
	if b.err != nil {
		return &API{root: root, err: b.err}
	}
	cfg, err := freeze(root, opts)
	return &API{root: root, cfg: cfg, err: err}
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

