package crawler

import (
	"io/fs"
	"time"

	"github.com/TFMV/fcrawl/internal/fsys"
	"go.uber.org/zap"
)

// walkerState is the mutable state of a single crawl. Only one goroutine
// touches it at a time: the caller for Sync and Iterator, the event loop for
// the asynchronous driver.
type walkerState struct {
	paths    []string
	groups   []*Group
	counts   Counts
	emitted  int
	limit    int
	visited  map[string]struct{} // walked crawl paths, real-path mode only
	symlinks map[string]string   // virtual link path -> resolved target
	abort    *aborter
	err      error
	logger   *zap.Logger
}

// halted reports whether no further results may be emitted.
func (st *walkerState) halted() bool {
	return st.emitted >= st.limit || st.abort.aborted()
}

// job is a directory waiting to be walked.
type job struct {
	crawl string // path handed to the file system, ends with sep
	dir   string // logical path used for output, ends with sep
	depth int    // levels still allowed below this directory
	root  bool
}

// driver schedules the work a directory listing discovers.
type driver interface {
	descend(j job)
	resolve(j job, name string, files *[]string)
}

// walker binds a frozen config to fresh state for one crawl.
type walker struct {
	cfg    *config
	s      *strategies
	st     *walkerState
	fs     fsys.FS
	logger *zap.Logger
	start  time.Time
}

func newWalker(cfg *config) *walker {
	return &walker{
		cfg: cfg,
		s:   cfg.s,
		st: &walkerState{
			limit:    cfg.limit,
			visited:  make(map[string]struct{}),
			symlinks: make(map[string]string),
			abort:    newAborter(cfg.opts.Signal),
			logger:   cfg.logger,
		},
		fs:     cfg.fs,
		logger: cfg.logger,
	}
}

func (w *walker) begin(driver string) {
	w.start = time.Now()
	w.logger.Debug("starting crawl",
		zap.String("root", w.cfg.root),
		zap.String("driver", driver),
		zap.Stringer("output", w.cfg.mode),
		zap.Int("max_depth", w.cfg.opts.MaxDepth),
		zap.Bool("resolve_symlinks", w.cfg.opts.ResolveSymlinks),
		zap.Bool("real_paths", w.cfg.opts.UseRealPaths),
	)
}

func (w *walker) finish() (Output, error) {
	out := w.s.report(w.st)
	w.logger.Debug("crawl finished",
		zap.String("root", w.cfg.root),
		zap.Int("results", out.Len()),
		zap.Int("files", w.st.counts.Files),
		zap.Int("directories", w.st.counts.Directories),
		zap.Bool("aborted", w.st.abort.aborted()),
		zap.Duration("elapsed", time.Since(w.start)),
	)
	return out, w.st.err
}

func (w *walker) rootJob() job {
	return job{
		crawl: w.s.crawlRoot(w.fs, w.cfg.root),
		dir:   w.cfg.root,
		depth: w.cfg.opts.MaxDepth,
		root:  true,
	}
}

// claim reports whether j should be listed.
func (w *walker) claim(j job) bool {
	return j.depth >= 0 && w.s.claim(w.st, j.crawl)
}

// enter emits a listed directory and returns where its files go.
func (w *walker) enter(j job) *[]string {
	if j.root {
		w.s.pushRoot(w.st, j.dir)
	} else {
		w.s.pushDir(w.st, j.dir)
	}
	return w.s.fileSlot(w.st, j.dir)
}

// visit handles one entry of the listing of j.
func (w *walker) visit(j job, e fsys.Entry, files *[]string, d driver) {
	switch e.Kind {
	case fsys.KindFile:
		w.s.pushFile(w.st, e.Name, j.dir, files)
	case fsys.KindDir:
		if j.depth < 1 {
			return
		}
		dir := j.dir + e.Name + sep
		if w.s.exclude(e.Name, dir) {
			return
		}
		d.descend(job{crawl: j.crawl + e.Name + sep, dir: dir, depth: j.depth - 1})
	case fsys.KindSymlink:
		w.s.onLink(w, d, j, e.Name, files)
	}
}

// linked continues with a symlink of j once its target is known.
func (w *walker) linked(j job, name, resolved string, info fs.FileInfo, files *[]string, d driver) {
	if !info.IsDir() {
		fname, fdir := w.s.linkTarget(j, name, resolved)
		w.s.pushFile(w.st, fname, fdir, files)
		return
	}

	link := j.dir + name
	if w.s.isCyclic(w.st, link, resolved) {
		w.logger.Debug("skipping symlink cycle", zap.String("link", link), zap.String("target", resolved))
		return
	}

	resolvedDir := withSep(resolved)
	dir := w.s.linkDir(link, resolvedDir)
	if w.s.exclude(name, dir) || j.depth < 1 {
		return
	}
	d.descend(job{crawl: resolvedDir, dir: dir, depth: j.depth - 1})
}

// resolveLink resolves a symlink of j with blocking calls.
func (w *walker) resolveLink(j job, name string) (string, fs.FileInfo, bool) {
	path := j.crawl + name
	resolved, err := w.fs.RealPath(path)
	if err != nil {
		w.s.fail(w.st, OpRealPath, path, err)
		return "", nil, false
	}
	info, err := w.fs.Stat(resolved)
	if err != nil {
		w.s.fail(w.st, OpStat, resolved, err)
		return "", nil, false
	}
	return resolved, info, true
}

// list reads the directory of j, reporting a failure through the error
// strategy. A failed listing still counts as walked.
func (w *walker) list(j job) []fsys.Entry {
	entries, err := w.fs.ReadDir(j.crawl)
	if err != nil {
		w.s.fail(w.st, OpReadDir, j.crawl, err)
		return nil
	}
	return entries
}
