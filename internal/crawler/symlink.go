package crawler

import (
	"path/filepath"
	"strings"
)

// Symlink policies selected by specialize.

func linkSkip(*walker, driver, job, string, *[]string) {}

// linkAsFile reports an unresolved link like a regular file.
func linkAsFile(w *walker, _ driver, j job, name string, files *[]string) {
	w.s.pushFile(w.st, name, j.dir, files)
}

// linkResolve hands the link to the driver, which resolves it blocking or
// asynchronously and then calls walker.linked.
func linkResolve(_ *walker, d driver, j job, name string, files *[]string) {
	d.resolve(j, name, files)
}

// linkTargetVirtual reports a linked file under the link's own path.
func linkTargetVirtual(j job, name, _ string) (string, string) {
	return name, j.dir
}

// linkTargetReal reports a linked file under its canonical path.
func linkTargetReal(_ job, _ string, resolved string) (string, string) {
	return filepath.Base(resolved), withSep(filepath.Dir(resolved))
}

func linkDirVirtual(link, _ string) string { return link + sep }

func linkDirReal(_, resolvedDir string) string { return resolvedDir }

// --------------------------------------------------------------------------
// Cycle detection
// --------------------------------------------------------------------------

// isCyclicReal reports whether the link target was already walked. Crawl
// paths are canonical in real-path mode, so any cycle leads back to a
// visited directory.
func isCyclicReal(st *walkerState, _, resolved string) bool {
	_, seen := st.visited[withSep(resolved)]
	return seen
}

// isCyclicVirtual walks the ancestors of the link's virtual path up to the
// root. The link is cyclic if an ancestor is itself a link whose target
// overlaps this one. Every link is memoized, cyclic or not.
func isCyclicVirtual(root string) func(*walkerState, string, string) bool {
	return func(st *walkerState, link, resolved string) bool {
		link = filepath.Clean(link)

		cyclic := false
		for parent := filepath.Dir(link); parent != root; {
			if target, ok := st.symlinks[parent]; ok && (within(target, resolved) || within(resolved, target)) {
				cyclic = true
				break
			}
			next := filepath.Dir(parent)
			if next == parent {
				break
			}
			parent = next
		}

		st.symlinks[link] = resolved
		return cyclic
	}
}

// within reports whether path is dir or lies below it, comparing whole path
// elements.
func within(path, dir string) bool {
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, withSep(dir))
}

// --------------------------------------------------------------------------
// Walked set
// --------------------------------------------------------------------------

// claimOnce records crawl as walked and rejects directories seen before, so
// each real directory is listed once.
func claimOnce(st *walkerState, crawl string) bool {
	if _, seen := st.visited[crawl]; seen {
		return false
	}
	st.visited[crawl] = struct{}{}
	return true
}

// claimAlways is used when crawl paths are not canonical and the walked set
// is never consulted.
func claimAlways(*walkerState, string) bool { return true }
