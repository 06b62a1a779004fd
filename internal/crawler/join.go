package crawler

import (
	"os"
	"path/filepath"
	"strings"
)

// joinFunc builds the output path of a file named name found in dir. dir is
// a logical directory path ending with the separator.
type joinFunc func(name, dir string) string

// dirFunc builds the output path of a walked directory.
type dirFunc func(dir string) string

func joinName(name, _ string) string { return name }

func joinWithBase(name, dir string) string { return dir + name }

// joinRelative strips the root from dir. Directories outside the root, which
// real-path symlink resolution can reach, are expressed with "..".
func joinRelative(root, absRoot string) joinFunc {
	return func(name, dir string) string {
		if strings.HasPrefix(dir, root) {
			return dir[len(root):] + name
		}
		return relativeTo(absRoot, dir) + name
	}
}

func formatFull(dir string) string { return dir }

func formatRelative(root, absRoot string) dirFunc {
	return func(dir string) string {
		var rel string
		if strings.HasPrefix(dir, root) {
			rel = dir[len(root):]
		} else {
			rel = relativeTo(absRoot, dir)
		}
		if rel == "" {
			return "."
		}
		return rel
	}
}

// relativeTo returns dir relative to absRoot with a trailing separator, or ""
// when they are the same directory. dir is returned unchanged if no relative
// form exists.
func relativeTo(absRoot, dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	rel, err := filepath.Rel(absRoot, abs)
	if err != nil {
		return dir
	}
	if rel == "." {
		return ""
	}
	return rel + sep
}

// separatorConverter rewrites both '/' and '\' to the configured separator.
func separatorConverter(to rune) func(string) string {
	return func(p string) string {
		return strings.Map(func(r rune) rune {
			if r == '/' || r == '\\' {
				return to
			}
			return r
		}, p)
	}
}

// withSeparator wraps the joiners when output uses a foreign separator.
func withSeparator(to rune, join joinFunc, format dirFunc) (joinFunc, dirFunc) {
	if to == os.PathSeparator {
		return join, format
	}
	convert := separatorConverter(to)
	convertedJoin := func(name, dir string) string {
		return convert(join(name, dir))
	}
	convertedFormat := func(dir string) string {
		return convert(format(dir))
	}
	return convertedJoin, convertedFormat
}
