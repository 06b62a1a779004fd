package fsys

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/afero"
)

// maxLinkHops bounds symlink chains during real path evaluation.
const maxLinkHops = 255

// Afero exposes an afero file system (memory maps, base-path jails,
// read-only overlays) to the crawler.
type Afero struct {
	Fs afero.Fs
}

// NewAfero wraps fsys.
func NewAfero(fsys afero.Fs) *Afero {
	return &Afero{Fs: fsys}
}

// ReadDir keeps the order of the underlying Readdir call.
func (a *Afero) ReadDir(dir string) ([]Entry, error) {
	dir = orDot(dir)

	f, err := a.Fs.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	infos, err := f.Readdir(-1)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{
			Name: info.Name(),
			Kind: kindOf(info.Mode()),
			Dir:  dir,
		})
	}
	return entries, nil
}

// RealPath resolves symlinks when the wrapped file system can report them.
// File systems without link support only have canonical paths, so the
// cleaned absolute path is returned once it is known to exist.
func (a *Afero) RealPath(path string) (string, error) {
	path = orDot(path)

	if _, ok := a.Fs.(*afero.OsFs); ok {
		return OS{}.RealPath(path)
	}

	lstater, okL := a.Fs.(afero.Lstater)
	reader, okR := a.Fs.(afero.LinkReader)
	if !okL || !okR {
		if _, err := a.Fs.Stat(path); err != nil {
			return "", err
		}
		return rooted(path), nil
	}
	return evalLinks(lstater, reader, path)
}

// Stat follows symlinks.
func (a *Afero) Stat(path string) (fs.FileInfo, error) {
	return a.Fs.Stat(orDot(path))
}

// rooted anchors a virtual path at the file system root. Virtual file
// systems have no working directory.
func rooted(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(string(filepath.Separator), path)
}

// evalLinks walks path one component at a time, splicing link targets into
// the remaining components.
func evalLinks(lstater afero.Lstater, reader afero.LinkReader, path string) (string, error) {
	sep := string(filepath.Separator)
	resolved := sep
	rest := splitPath(rooted(path))

	hops := 0
	for len(rest) > 0 {
		name := rest[0]
		rest = rest[1:]

		next := filepath.Join(resolved, name)
		info, _, err := lstater.LstatIfPossible(next)
		if err != nil {
			return "", err
		}
		if info.Mode()&os.ModeSymlink == 0 {
			resolved = next
			continue
		}

		hops++
		if hops > maxLinkHops {
			return "", &fs.PathError{Op: "realpath", Path: path, Err: syscall.ELOOP}
		}

		target, err := reader.ReadlinkIfPossible(next)
		if err != nil {
			return "", fmt.Errorf("reading link %s: %w", next, err)
		}
		if filepath.IsAbs(target) {
			resolved = sep
		}
		rest = append(splitPath(target), rest...)
	}
	return resolved, nil
}

func splitPath(p string) []string {
	parts := strings.Split(filepath.Clean(p), string(filepath.Separator))
	out := parts[:0]
	for _, part := range parts {
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return out
}
