package crawler

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"

	"github.com/TFMV/fcrawl/internal/fsys"
	"go.uber.org/zap"
)

const sep = string(filepath.Separator)

// config is the frozen form of Options bound to a root. It is never mutated
// after freeze returns, so one config can back any number of crawls.
type config struct {
	opts      Options
	root      string // normalized root, always ends with sep
	rootClean string // root without the trailing separator
	absRoot   string // absolute root, used to relativize paths outside it
	mode      outputMode
	limit     int
	fs        fsys.FS
	logger    *zap.Logger
	s         *strategies
}

// freeze validates opts against root and selects the crawl strategies.
func freeze(root string, opts Options) (*config, error) {
	root, err := normalizeRoot(root, opts)
	if err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = filepath.Clean(root)
	}

	opts.Filters = slices.Clone(opts.Filters)
	if opts.PathSeparator == 0 {
		opts.PathSeparator = os.PathSeparator
	}

	limit := math.MaxInt
	if opts.MaxFiles > 0 {
		limit = opts.MaxFiles
	}

	backend := opts.FS
	if backend == nil {
		backend = osFS
	}

	logger := opts.Logger
	if logger == nil {
		logger = createLogger(opts.LogLevel)
	}

	cfg := &config{
		opts:      opts,
		root:      root,
		rootClean: filepath.Clean(root),
		absRoot:   absRoot,
		mode:      opts.outputMode(),
		limit:     limit,
		fs:        backend,
		logger:    logger,
	}
	cfg.s = specialize(cfg)
	return cfg, nil
}

var osFS fsys.FS = fsys.OS{}

// normalizeRoot shapes the root the way every output path will start.
func normalizeRoot(root string, opts Options) (string, error) {
	if root == "" {
		return "", ErrEmptyRoot
	}
	if opts.ResolvePaths {
		abs, err := filepath.Abs(root)
		if err != nil {
			return "", fmt.Errorf("resolving root %q: %w", root, err)
		}
		root = abs
	}
	if opts.NormalizePath {
		root = filepath.Clean(root)
	}
	return withSep(root), nil
}

func withSep(p string) string {
	if len(p) > 0 && os.IsPathSeparator(p[len(p)-1]) {
		return p
	}
	return p + sep
}
