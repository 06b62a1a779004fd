// Package watch reports file system changes below a directory tree.
//
// The set of directories to watch is discovered with a crawl, so the same
// depth, exclusion and symlink rules apply to watching as to listing.
// Directories created while watching are crawled and added as they appear.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/TFMV/fcrawl/internal/crawler"
	"github.com/TFMV/fcrawl/internal/glob"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Event is a file system event type.
type Event string

const (
	EventCreate Event = "create"
	EventModify Event = "modify"
	EventDelete Event = "delete"
	EventRename Event = "rename"
	EventChmod  Event = "chmod"
)

// Options configures Watch.
type Options struct {
	// Events to report. Empty reports all of them.
	Events []Event

	// Recursive watches every directory below the root, not just the root.
	Recursive bool

	// MaxDepth limits recursion below the root; 0 is unlimited.
	MaxDepth int

	// FollowSymlinks watches the targets of symlinked directories.
	FollowSymlinks bool

	// IncludeHidden watches and reports entries whose name starts with '.'.
	IncludeHidden bool

	// Pattern keeps events whose base name matches; IgnorePattern drops
	// them. Both are globs.
	Pattern       string
	IgnorePattern string

	// Timeout ends the watch after this long; 0 watches until ctx is done.
	Timeout time.Duration

	// Ready is called once the initial directories are registered.
	Ready func()

	Logger *zap.Logger
}

// Message describes one event.
type Message struct {
	Path  string    `json:"path"`
	Name  string    `json:"name"`
	Dir   string    `json:"dir"`
	Size  int64     `json:"size"`
	Time  time.Time `json:"time"`
	IsDir bool      `json:"is_dir"`
	Event Event     `json:"event"`
}

// Result carries either a Message or an error raised while watching.
type Result struct {
	Message Message
	Error   error
}

// Handler processes watch results. Returning an error reports it back to the
// handler as a Result; watching continues.
type Handler func(ctx context.Context, result Result) error

// PrintHandler writes one line per event to w.
func PrintHandler(w io.Writer) Handler {
	return func(_ context.Context, result Result) error {
		if result.Error != nil {
			return result.Error
		}
		_, err := fmt.Fprintf(w, "%s: %s\n", strings.ToUpper(string(result.Message.Event)), result.Message.Path)
		return err
	}
}

// Dirs returns the directories Watch would register for root.
func Dirs(ctx context.Context, root string, opts Options) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("watch root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watch root %s: %w", root, crawler.ErrNotADirectory)
	}

	b := crawler.New().
		OnlyDirs().
		WithFullPaths().
		WithAbortSignal(ctx)
	if opts.Logger != nil {
		b.WithLogger(opts.Logger)
	}
	switch {
	case !opts.Recursive:
		b.WithMaxDepth(0)
	case opts.MaxDepth > 0:
		b.WithMaxDepth(opts.MaxDepth)
	}
	if opts.FollowSymlinks {
		b.WithSymlinks(crawler.SymlinkOptions{UseRealPaths: true})
	}
	if !opts.IncludeHidden {
		b.Exclude(func(name, _ string) bool { return isHidden(name) })
	}

	out, err := b.Crawl(root).Sync()
	if err != nil {
		return nil, err
	}
	paths, _ := out.(crawler.Paths)

	dirs := make([]string, 0, len(paths))
	for _, p := range paths {
		dirs = append(dirs, filepath.Clean(p))
	}
	return dirs, nil
}

// Watch monitors root until ctx is done or the timeout expires.
func Watch(ctx context.Context, root string, opts Options, handler Handler) error {
	if handler == nil {
		handler = PrintHandler(os.Stdout)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	logger := opts.Logger
	if logger == nil {
		logger = crawler.NewLogger(crawler.LogLevelError)
		defer logger.Sync()
	}

	filter, err := newNameFilter(opts)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	defer watcher.Close()

	dirs, err := Dirs(ctx, root, opts)
	if err != nil {
		return err
	}
	if err := register(watcher, dirs); err != nil {
		logger.Warn("some directories are not watched", zap.Error(err))
		handler(ctx, Result{Error: err})
	}
	logger.Debug("watching", zap.String("root", root), zap.Int("directories", len(dirs)))

	if opts.Ready != nil {
		opts.Ready()
	}

	w := &watch{
		opts:    opts,
		root:    root,
		watcher: watcher,
		wanted:  wantedOps(opts.Events),
		filter:  filter,
		handler: handler,
		logger:  logger,
	}
	return w.run(ctx)
}

// register adds every directory, collecting failures.
func register(watcher *fsnotify.Watcher, dirs []string) error {
	var errs []error
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			errs = append(errs, fmt.Errorf("error watching directory %s: %w", dir, err))
		}
	}
	return errors.Join(errs...)
}

type watch struct {
	opts    Options
	root    string
	watcher *fsnotify.Watcher
	wanted  map[fsnotify.Op]Event
	filter  *nameFilter
	handler Handler
	logger  *zap.Logger
}

func (w *watch) run(ctx context.Context) error {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
			w.handler(ctx, Result{Error: fmt.Errorf("watcher error: %w", err)})

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *watch) handle(ctx context.Context, event fsnotify.Event) {
	kind, ok := classify(event.Op, w.wanted)
	if !ok {
		return
	}

	var info os.FileInfo
	if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		var err error
		info, err = os.Stat(event.Name)
		if err != nil {
			w.handler(ctx, Result{Error: fmt.Errorf("error getting file info for %s: %w", event.Name, err)})
			return
		}
		if w.opts.Recursive && info.IsDir() && event.Has(fsnotify.Create) {
			w.addTree(ctx, event.Name)
		}
	}

	if !w.filter.keep(event.Name) {
		return
	}

	msg := Message{
		Path:  event.Name,
		Name:  filepath.Base(event.Name),
		Dir:   filepath.Dir(event.Name),
		Time:  time.Now(),
		Event: kind,
	}
	if info != nil {
		msg.Size = info.Size()
		msg.IsDir = info.IsDir()
		msg.Time = info.ModTime()
	}

	if err := w.handler(ctx, Result{Message: msg}); err != nil {
		w.handler(ctx, Result{Error: fmt.Errorf("error handling event: %w", err)})
	}
}

// addTree registers a directory created while watching together with any
// directories already inside it.
func (w *watch) addTree(ctx context.Context, dir string) {
	if !w.opts.IncludeHidden && isHidden(filepath.Base(dir)) {
		return
	}

	opts := w.opts
	if opts.MaxDepth > 0 {
		rel, err := filepath.Rel(w.root, dir)
		if err != nil {
			return
		}
		remaining := opts.MaxDepth - (strings.Count(rel, string(filepath.Separator)) + 1)
		if remaining < 0 {
			return
		}
		if remaining == 0 {
			opts.Recursive = false
		} else {
			opts.MaxDepth = remaining
		}
	}

	dirs, err := Dirs(ctx, dir, opts)
	if err != nil {
		w.handler(ctx, Result{Error: fmt.Errorf("error watching new directory %s: %w", dir, err)})
		return
	}
	if err := register(w.watcher, dirs); err != nil {
		w.handler(ctx, Result{Error: err})
	}
}

// wantedOps maps requested events to fsnotify operations.
func wantedOps(events []Event) map[fsnotify.Op]Event {
	all := map[fsnotify.Op]Event{
		fsnotify.Create: EventCreate,
		fsnotify.Write:  EventModify,
		fsnotify.Remove: EventDelete,
		fsnotify.Rename: EventRename,
		fsnotify.Chmod:  EventChmod,
	}
	if len(events) == 0 {
		return all
	}

	wanted := make(map[fsnotify.Op]Event, len(events))
	for op, e := range all {
		for _, want := range events {
			if e == want {
				wanted[op] = e
			}
		}
	}
	return wanted
}

// classify picks the event type of op, preferring create over modify over
// delete over rename over chmod.
func classify(op fsnotify.Op, wanted map[fsnotify.Op]Event) (Event, bool) {
	for _, candidate := range []fsnotify.Op{fsnotify.Create, fsnotify.Write, fsnotify.Remove, fsnotify.Rename, fsnotify.Chmod} {
		if !op.Has(candidate) {
			continue
		}
		if e, ok := wanted[candidate]; ok {
			return e, true
		}
	}
	return "", false
}

// nameFilter applies the pattern options to event paths.
type nameFilter struct {
	include       glob.Matcher
	ignore        glob.Matcher
	includeHidden bool
}

func newNameFilter(opts Options) (*nameFilter, error) {
	f := &nameFilter{includeHidden: opts.IncludeHidden}
	// Hidden names are handled separately, so patterns may match them.
	matchOpts := glob.Options{Basename: true, Dot: true}

	if opts.Pattern != "" {
		m, err := glob.Gobwas([]string{opts.Pattern}, matchOpts)
		if err != nil {
			return nil, fmt.Errorf("error matching pattern: %w", err)
		}
		f.include = m
	}
	if opts.IgnorePattern != "" {
		m, err := glob.Gobwas([]string{opts.IgnorePattern}, matchOpts)
		if err != nil {
			return nil, fmt.Errorf("error matching ignore pattern: %w", err)
		}
		f.ignore = m
	}
	return f, nil
}

func (f *nameFilter) keep(path string) bool {
	if f.include != nil && !f.include(path) {
		return false
	}
	if f.ignore != nil && f.ignore(path) {
		return false
	}
	if !f.includeHidden && isHidden(filepath.Base(path)) {
		return false
	}
	return true
}

func isHidden(name string) bool {
	return len(name) > 1 && name[0] == '.' && name != ".."
}
