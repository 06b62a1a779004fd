package crawler

import (
	"path/filepath"

	"github.com/TFMV/fcrawl/internal/fsys"
	"go.uber.org/zap"
)

// strategies holds the behaviour chosen once per configuration. The walk
// loops call through these fields and never inspect Options per entry.
type strategies struct {
	joinFile  joinFunc
	formatDir dirFunc

	pushFile func(st *walkerState, name, dir string, files *[]string)
	pushDir  func(st *walkerState, dir string)
	pushRoot func(st *walkerState, dir string)
	fileSlot func(st *walkerState, dir string) *[]string

	onLink     func(w *walker, d driver, j job, name string, files *[]string)
	linkTarget func(j job, name, resolved string) (string, string)
	linkDir    func(link, resolvedDir string) string
	isCyclic   func(st *walkerState, link, resolved string) bool
	crawlRoot  func(fs fsys.FS, root string) string
	claim      func(st *walkerState, crawl string) bool

	exclude ExcludeFunc
	fail    func(st *walkerState, op, path string, err error)
	report  func(st *walkerState) Output
}

func specialize(cfg *config) *strategies {
	o := cfg.opts
	s := &strategies{}

	// Path shape
	switch {
	case o.RelativePaths:
		s.joinFile = joinRelative(cfg.root, cfg.absRoot)
		s.formatDir = formatRelative(cfg.root, cfg.absRoot)
	case o.IncludeBasePath:
		s.joinFile = joinWithBase
		s.formatDir = formatFull
	default:
		s.joinFile = joinName
		s.formatDir = formatFull
	}
	s.joinFile, s.formatDir = withSeparator(o.PathSeparator, s.joinFile, s.formatDir)

	// Files
	join := s.joinFile
	switch {
	case o.ExcludeFiles:
		s.pushFile = pushFileNoop
	case cfg.mode == outputCounts && len(o.Filters) > 0:
		s.pushFile = pushFileFilterCount(join, o.Filters)
	case cfg.mode == outputCounts:
		s.pushFile = pushFileCount
	case len(o.Filters) > 0:
		s.pushFile = pushFileFilterRecord(join, o.Filters)
	default:
		s.pushFile = pushFileRecord(join)
	}

	// Directories
	format := s.formatDir
	switch {
	case cfg.mode == outputCounts:
		s.pushDir = pushDirCount
		s.pushRoot = pushDirNoop
	case cfg.mode == outputGroups || !o.IncludeDirs:
		s.pushDir = pushDirNoop
		s.pushRoot = pushDirNoop
	case len(o.Filters) > 0:
		s.pushDir = pushDirFilterRecord(format, o.Filters)
		s.pushRoot = s.pushDir
	default:
		s.pushDir = pushDirRecord(format)
		s.pushRoot = s.pushDir
	}

	// Output
	switch cfg.mode {
	case outputCounts:
		s.fileSlot = slotPaths
		s.report = reportCounts
	case outputGroups:
		s.fileSlot = slotGroup(format)
		s.report = reportGroups
	default:
		s.fileSlot = slotPaths
		s.report = reportPaths
	}

	// Symlinks
	switch {
	case o.ExcludeSymlinks:
		s.onLink = linkSkip
	case !o.ResolveSymlinks:
		s.onLink = linkAsFile
	default:
		s.onLink = linkResolve
	}
	if o.ResolveSymlinks && o.UseRealPaths {
		s.linkTarget = linkTargetReal
		s.linkDir = linkDirReal
		s.isCyclic = isCyclicReal
		s.crawlRoot = crawlRootReal
		s.claim = claimOnce
	} else {
		s.linkTarget = linkTargetVirtual
		s.linkDir = linkDirVirtual
		s.isCyclic = isCyclicVirtual(cfg.rootClean)
		s.crawlRoot = crawlRootAsIs
		s.claim = claimAlways
	}

	s.exclude = o.Exclude
	if s.exclude == nil {
		s.exclude = func(string, string) bool { return false }
	}

	if o.SuppressErrors {
		s.fail = failSuppressed
	} else {
		s.fail = failFirst
	}
	return s
}

// --------------------------------------------------------------------------
// File acceptors
// --------------------------------------------------------------------------

func accepts(filters []FilterFunc, path string, isDir bool) bool {
	for _, f := range filters {
		if !f(path, isDir) {
			return false
		}
	}
	return true
}

func pushFileNoop(*walkerState, string, string, *[]string) {}

func pushFileCount(st *walkerState, _, _ string, _ *[]string) {
	if st.halted() {
		return
	}
	st.counts.Files++
	st.emitted++
}

func pushFileFilterCount(join joinFunc, filters []FilterFunc) func(*walkerState, string, string, *[]string) {
	return func(st *walkerState, name, dir string, _ *[]string) {
		if st.halted() || !accepts(filters, join(name, dir), false) {
			return
		}
		st.counts.Files++
		st.emitted++
	}
}

func pushFileFilterRecord(join joinFunc, filters []FilterFunc) func(*walkerState, string, string, *[]string) {
	return func(st *walkerState, name, dir string, files *[]string) {
		if st.halted() {
			return
		}
		path := join(name, dir)
		if !accepts(filters, path, false) {
			return
		}
		*files = append(*files, path)
		st.emitted++
	}
}

func pushFileRecord(join joinFunc) func(*walkerState, string, string, *[]string) {
	return func(st *walkerState, name, dir string, files *[]string) {
		if st.halted() {
			return
		}
		*files = append(*files, join(name, dir))
		st.emitted++
	}
}

// --------------------------------------------------------------------------
// Directory acceptors
// --------------------------------------------------------------------------

func pushDirNoop(*walkerState, string) {}

// pushDirCount tallies walked directories. The result limit does not apply
// to the tally.
func pushDirCount(st *walkerState, _ string) {
	st.counts.Directories++
}

func pushDirFilterRecord(format dirFunc, filters []FilterFunc) func(*walkerState, string) {
	return func(st *walkerState, dir string) {
		if st.halted() {
			return
		}
		path := format(dir)
		if !accepts(filters, path, true) {
			return
		}
		st.paths = append(st.paths, path)
		st.emitted++
	}
}

func pushDirRecord(format dirFunc) func(*walkerState, string) {
	return func(st *walkerState, dir string) {
		if st.halted() {
			return
		}
		st.paths = append(st.paths, format(dir))
		st.emitted++
	}
}

// --------------------------------------------------------------------------
// Output slots
// --------------------------------------------------------------------------

func slotPaths(st *walkerState, _ string) *[]string {
	return &st.paths
}

func slotGroup(format dirFunc) func(*walkerState, string) *[]string {
	return func(st *walkerState, dir string) *[]string {
		g := &Group{Directory: format(dir)}
		st.groups = append(st.groups, g)
		return &g.Files
	}
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

func failSuppressed(st *walkerState, op, path string, err error) {
	st.logger.Debug("skipping path",
		zap.String("op", op),
		zap.String("path", path),
		zap.Error(err),
	)
}

// failFirst keeps the first error and stops the crawl.
func failFirst(st *walkerState, op, path string, err error) {
	if st.err == nil {
		st.err = &CrawlError{Op: op, Path: path, Err: err}
		st.logger.Warn("crawl stopped on error",
			zap.String("op", op),
			zap.String("path", path),
			zap.Error(err),
		)
	}
	st.abort.abort()
}

// --------------------------------------------------------------------------
// Root
// --------------------------------------------------------------------------

func crawlRootAsIs(_ fsys.FS, root string) string { return root }

// crawlRootReal crawls the root by its real path so that links back to it
// are recognized. The given root is used if it cannot be resolved; listing
// it will then report the error.
func crawlRootReal(fs fsys.FS, root string) string {
	resolved, err := fs.RealPath(filepath.Clean(root))
	if err != nil {
		return root
	}
	return withSep(resolved)
}
