package fsys

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(entries []Entry) map[string]EntryKind {
	out := make(map[string]EntryKind, len(entries))
	for _, e := range entries {
		out[e.Name] = e.Kind
	}
	return out
}

func TestOSReadDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "file.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(root, "file.txt"), filepath.Join(root, "link")))

	entries, err := OS{}.ReadDir(root)
	require.NoError(t, err)

	assert.Equal(t, map[string]EntryKind{
		"file.txt": KindFile,
		"sub":      KindDir,
		"link":     KindSymlink,
	}, kinds(entries))
	for _, e := range entries {
		assert.Equal(t, root, e.Dir)
	}
}

func TestOSReadDirMissing(t *testing.T) {
	_, err := OS{}.ReadDir(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestOSRealPath(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "target")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.Symlink(target, filepath.Join(root, "alias")))

	got, err := OS{}.RealPath(filepath.Join(root, "alias"))
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := OS{}.Stat(filepath.Join(root, "alias"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestAferoReadDir(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/data/nested", 0o755))
	require.NoError(t, afero.WriteFile(mem, "/data/a.txt", []byte("a"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/data/b.txt", []byte("b"), 0o644))

	a := NewAfero(mem)
	entries, err := a.ReadDir("/data")
	require.NoError(t, err)

	assert.Equal(t, map[string]EntryKind{
		"a.txt":  KindFile,
		"b.txt":  KindFile,
		"nested": KindDir,
	}, kinds(entries))

	got, err := a.RealPath("/data/nested")
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/data/nested"), got)

	_, err = a.RealPath("/data/missing")
	assert.Error(t, err)

	info, err := a.Stat("/data/a.txt")
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestAferoOsFsRealPath(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "real")
	require.NoError(t, os.Mkdir(target, 0o755))
	require.NoError(t, os.Symlink(target, filepath.Join(root, "alias")))

	got, err := NewAfero(afero.NewOsFs()).RealPath(filepath.Join(root, "alias"))
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(target)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// linkFs is an in-memory file system with symlink support layered on top
// of afero's MemMapFs.
type linkFs struct {
	afero.Fs
	links map[string]string
}

func (l *linkFs) LstatIfPossible(name string) (os.FileInfo, bool, error) {
	if _, ok := l.links[filepath.Clean(name)]; ok {
		return fakeInfo{name: filepath.Base(name), mode: os.ModeSymlink}, true, nil
	}
	info, err := l.Fs.Stat(name)
	return info, true, err
}

func (l *linkFs) ReadlinkIfPossible(name string) (string, error) {
	target, ok := l.links[filepath.Clean(name)]
	if !ok {
		return "", &fs.PathError{Op: "readlink", Path: name, Err: fs.ErrInvalid}
	}
	return target, nil
}

func TestAferoRealPathFollowsLinks(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/srv/real/inner", 0o755))

	lfs := &linkFs{Fs: mem, links: map[string]string{
		filepath.FromSlash("/srv/abs"):   filepath.FromSlash("/srv/real"),
		filepath.FromSlash("/srv/rel"):   "real",
		filepath.FromSlash("/srv/chain"): "abs",
		filepath.FromSlash("/srv/loop1"): "loop2",
		filepath.FromSlash("/srv/loop2"): "loop1",
	}}
	a := NewAfero(lfs)

	for _, tc := range []struct {
		in   string
		want string
	}{
		{"/srv/abs", "/srv/real"},
		{"/srv/rel/inner", "/srv/real/inner"},
		{"/srv/chain/inner", "/srv/real/inner"},
		{"/srv/real", "/srv/real"},
	} {
		got, err := a.RealPath(filepath.FromSlash(tc.in))
		require.NoError(t, err, tc.in)
		assert.Equal(t, filepath.FromSlash(tc.want), got, tc.in)
	}

	_, err := a.RealPath(filepath.FromSlash("/srv/loop1"))
	require.Error(t, err)
	var pathErr *fs.PathError
	require.True(t, errors.As(err, &pathErr))
	assert.Equal(t, "realpath", pathErr.Op)
}

type fakeInfo struct {
	name string
	mode fs.FileMode
}

func (f fakeInfo) Name() string       { return f.name }
func (f fakeInfo) Size() int64        { return 0 }
func (f fakeInfo) Mode() fs.FileMode  { return f.mode }
func (f fakeInfo) ModTime() time.Time { return time.Time{} }
func (f fakeInfo) IsDir() bool        { return f.mode.IsDir() }
func (f fakeInfo) Sys() any           { return nil }

type fakeSFTP struct {
	dirs  map[string][]os.FileInfo
	real  map[string]string
	stats map[string]os.FileInfo
}

func (f *fakeSFTP) ReadDir(p string) ([]os.FileInfo, error) {
	infos, ok := f.dirs[p]
	if !ok {
		return nil, os.ErrNotExist
	}
	return infos, nil
}

func (f *fakeSFTP) RealPath(p string) (string, error) {
	if r, ok := f.real[p]; ok {
		return r, nil
	}
	return "", os.ErrNotExist
}

func (f *fakeSFTP) Stat(p string) (os.FileInfo, error) {
	if info, ok := f.stats[p]; ok {
		return info, nil
	}
	return nil, os.ErrNotExist
}

func TestSFTPAdapter(t *testing.T) {
	client := &fakeSFTP{
		dirs: map[string][]os.FileInfo{
			"/home/user": {
				fakeInfo{name: "notes.md", mode: 0o644},
				fakeInfo{name: "src", mode: fs.ModeDir | 0o755},
				fakeInfo{name: "latest", mode: fs.ModeSymlink | 0o777},
				fakeInfo{name: "sock", mode: fs.ModeSocket},
			},
		},
		real:  map[string]string{"/home/user/latest": "/home/user/src"},
		stats: map[string]os.FileInfo{"/home/user/latest": fakeInfo{name: "latest", mode: fs.ModeDir}},
	}
	s := &SFTP{client: client}

	entries, err := s.ReadDir("/home/user")
	require.NoError(t, err)
	assert.Equal(t, map[string]EntryKind{
		"notes.md": KindFile,
		"src":      KindDir,
		"latest":   KindSymlink,
		"sock":     KindOther,
	}, kinds(entries))

	real, err := s.RealPath("/home/user/latest")
	require.NoError(t, err)
	assert.Equal(t, "/home/user/src", real)

	info, err := s.Stat("/home/user/latest")
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = s.ReadDir("/missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAsyncDispatcher(t *testing.T) {
	mem := afero.NewMemMapFs()
	require.NoError(t, mem.MkdirAll("/x/y", 0o755))
	require.NoError(t, afero.WriteFile(mem, "/x/f", nil, 0o644))

	async := Async(NewAfero(mem))

	type listing struct {
		entries []Entry
		err     error
	}
	done := make(chan listing, 1)
	async.ReadDirAsync("/x", func(entries []Entry, err error) {
		done <- listing{entries, err}
	})

	select {
	case got := <-done:
		require.NoError(t, got.err)
		names := make([]string, 0, len(got.entries))
		for _, e := range got.entries {
			names = append(names, e.Name)
		}
		sort.Strings(names)
		assert.Equal(t, []string{"f", "y"}, names)
	case <-time.After(5 * time.Second):
		t.Fatal("ReadDirAsync never completed")
	}

	statDone := make(chan error, 1)
	async.StatAsync("/nope", func(_ fs.FileInfo, err error) { statDone <- err })
	assert.Error(t, <-statDone)

	realDone := make(chan string, 1)
	async.RealPathAsync("/x/y", func(p string, _ error) { realDone <- p })
	assert.Equal(t, filepath.FromSlash("/x/y"), <-realDone)
}

type nativeAsync struct {
	OS
	dispatcher
}

func TestAsyncKeepsNativeBackend(t *testing.T) {
	n := &nativeAsync{}
	assert.Same(t, n, Async(n).(*nativeAsync))
}

func TestEntryKindString(t *testing.T) {
	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "directory", KindDir.String())
	assert.Equal(t, "symlink", KindSymlink.String())
	assert.Equal(t, "other", KindOther.String())
}
