package crawl

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/TFMV/fcrawl/internal/glob"
	"github.com/spf13/viper"
)

// Configuration keys read by LoadOptions.
const (
	KeyBasePath        = "base-path"
	KeyDirs            = "dirs"
	KeyOnlyDirs        = "only-dirs"
	KeyExcludeFiles    = "exclude-files"
	KeyExcludeSymlinks = "exclude-symlinks"
	KeyMaxDepth        = "max-depth"
	KeyMaxFiles        = "max-files"
	KeyFollowSymlinks  = "follow-symlinks"
	KeyRealPaths       = "real-paths"
	KeyRelative        = "relative"
	KeyFullPaths       = "full-paths"
	KeyNormalize       = "normalize"
	KeySeparator       = "separator"
	KeyGroup           = "group"
	KeyCounts          = "counts"
	KeyErrors          = "errors"
	KeyGlob            = "glob"
	KeyGlobEngine      = "glob-engine"
	KeyGlobDot         = "glob-dot"
	KeyExcludeDir      = "exclude-dir"
	KeyLogLevel        = "log-level"
)

// GlobEngines maps glob-engine values to matcher factories.
var GlobEngines = map[string]GlobFunc{
	"gobwas": glob.Gobwas,
	"zglob":  glob.Zglob,
}

// LoadOptions builds Options from v, starting from DefaultOptions. Unset keys
// keep their defaults, so an empty viper instance yields DefaultOptions.
func LoadOptions(v *viper.Viper) (Options, error) {
	opts := DefaultOptions()
	if v == nil {
		return opts, nil
	}

	opts.IncludeBasePath = v.GetBool(KeyBasePath)
	opts.IncludeDirs = v.GetBool(KeyDirs)
	opts.ExcludeFiles = v.GetBool(KeyExcludeFiles)
	if v.GetBool(KeyOnlyDirs) {
		opts.IncludeDirs = true
		opts.ExcludeFiles = true
	}
	opts.ExcludeSymlinks = v.GetBool(KeyExcludeSymlinks)

	if v.IsSet(KeyMaxDepth) {
		opts.MaxDepth = v.GetInt(KeyMaxDepth)
	}
	opts.MaxFiles = v.GetInt(KeyMaxFiles)
	if opts.MaxFiles < 0 {
		return opts, fmt.Errorf("invalid %s value: %d", KeyMaxFiles, opts.MaxFiles)
	}

	opts.ResolveSymlinks = v.GetBool(KeyFollowSymlinks) || v.GetBool(KeyRealPaths)
	opts.UseRealPaths = v.GetBool(KeyRealPaths)

	opts.RelativePaths = v.GetBool(KeyRelative)
	if v.GetBool(KeyFullPaths) {
		opts.ResolvePaths = true
		opts.IncludeBasePath = true
	}
	opts.NormalizePath = v.GetBool(KeyNormalize)

	if s := v.GetString(KeySeparator); s != "" {
		r, size := utf8.DecodeRuneInString(s)
		if size != len(s) || r == utf8.RuneError {
			return opts, fmt.Errorf("invalid %s value: %q (must be a single character)", KeySeparator, s)
		}
		opts.PathSeparator = r
	}

	opts.Group = v.GetBool(KeyGroup)
	opts.OnlyCounts = v.GetBool(KeyCounts)
	opts.SuppressErrors = !v.GetBool(KeyErrors)

	if engine := v.GetString(KeyGlobEngine); engine != "" {
		fn, ok := GlobEngines[strings.ToLower(engine)]
		if !ok {
			return opts, fmt.Errorf("invalid %s: %s", KeyGlobEngine, engine)
		}
		opts.GlobFunc = fn
	}
	if patterns := v.GetStringSlice(KeyGlob); len(patterns) > 0 {
		match, err := opts.GlobFunc(patterns, GlobOptions{Dot: v.GetBool(KeyGlobDot)})
		if err != nil {
			return opts, fmt.Errorf("invalid %s: %w", KeyGlob, err)
		}
		opts.Filters = append(opts.Filters, func(path string, _ bool) bool { return match(path) })
	}

	if names := v.GetStringSlice(KeyExcludeDir); len(names) > 0 {
		exclude, err := ExcludeDirs(names...)
		if err != nil {
			return opts, fmt.Errorf("invalid %s: %w", KeyExcludeDir, err)
		}
		opts.Exclude = exclude
	}

	if level := v.GetString(KeyLogLevel); level != "" {
		l, err := ParseLogLevel(level)
		if err != nil {
			return opts, err
		}
		opts.LogLevel = l
	}

	return opts, nil
}

// ExcludeDirs returns an ExcludeFunc skipping directories whose name matches
// any of patterns.
func ExcludeDirs(patterns ...string) (ExcludeFunc, error) {
	match, err := glob.Gobwas(patterns, GlobOptions{Dot: true, Basename: true})
	if err != nil {
		return nil, err
	}
	return func(name, _ string) bool { return match(name) }, nil
}

// ParseLogLevel parses error, warn, info or debug.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToLower(s) {
	case "error":
		return LogLevelError, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "info":
		return LogLevelInfo, nil
	case "debug":
		return LogLevelDebug, nil
	}
	return LogLevelError, fmt.Errorf("invalid %s: %s", KeyLogLevel, s)
}
