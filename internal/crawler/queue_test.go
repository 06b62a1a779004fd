package crawler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

// TestQueueFiresOnEmpty tests that completion fires once when the count
// returns to zero
func TestQueueFiresOnEmpty(t *testing.T) {
	fired := 0
	q := newQueue(func(err error) {
		fired++
		if err != nil {
			t.Errorf("Unexpected error %v", err)
		}
	})

	q.enqueue()
	q.enqueue()
	q.dequeue(nil)
	if fired != 0 {
		t.Fatalf("Fired with %d pending", q.pending())
	}
	q.dequeue(nil)
	if fired != 1 {
		t.Fatalf("Expected 1 completion, got %d", fired)
	}

	q.enqueue()
	q.dequeue(nil)
	if fired != 1 {
		t.Errorf("Completion fired again")
	}
}

// TestQueueFiresOnError tests that an error fires completion early and only
// once, while the count keeps tracking late completions
func TestQueueFiresOnError(t *testing.T) {
	boom := errors.New("boom")
	var got []error
	q := newQueue(func(err error) { got = append(got, err) })

	q.enqueue()
	q.enqueue()
	q.enqueue()
	q.dequeue(boom)
	q.dequeue(boom)
	q.dequeue(nil)

	if len(got) != 1 || !errors.Is(got[0], boom) {
		t.Errorf("Expected a single completion with boom, got %v", got)
	}
	if q.pending() != 0 {
		t.Errorf("Expected nothing pending, got %d", q.pending())
	}
}

// TestAborter tests that aborts latch from either source
func TestAborter(t *testing.T) {
	a := newAborter(nil)
	if a.aborted() {
		t.Fatal("New aborter must not be aborted")
	}
	a.abort()
	if !a.aborted() {
		t.Fatal("Expected aborted after abort")
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := newAborter(ctx)
	if b.aborted() {
		t.Fatal("Aborted before the signal")
	}
	cancel()
	if !b.aborted() || !b.flag.Load() {
		t.Fatal("Expected the signal to latch the flag")
	}
}

// TestCrawlErrorIs tests matching file system errors against the taxonomy
func TestCrawlErrorIs(t *testing.T) {
	cases := []struct {
		err  *CrawlError
		want error
	}{
		{&CrawlError{Op: OpReadDir, Path: "/x", Err: &fs.PathError{Op: "open", Path: "/x", Err: syscall.EACCES}}, ErrPermissionDenied},
		{&CrawlError{Op: OpReadDir, Path: "/x", Err: os.ErrNotExist}, ErrNotFound},
		{&CrawlError{Op: OpReadDir, Path: "/x", Err: syscall.ENOTDIR}, ErrNotADirectory},
		{&CrawlError{Op: OpRealPath, Path: "/x", Err: syscall.ELOOP}, ErrSymlinkResolution},
		{&CrawlError{Op: OpStat, Path: "/x", Err: syscall.EIO}, ErrSymlinkResolution},
	}
	for _, c := range cases {
		if !errors.Is(c.err, c.want) {
			t.Errorf("%v does not match %v", c.err, c.want)
		}
	}

	readErr := &CrawlError{Op: OpReadDir, Path: "/x", Err: syscall.EIO}
	if errors.Is(readErr, ErrSymlinkResolution) {
		t.Error("A listing failure is not a symlink failure")
	}
	if !errors.Is(readErr, syscall.EIO) {
		t.Error("Expected the OS error to be unwrapped")
	}

	wrapped := fmt.Errorf("crawl: %w", readErr)
	var ce *CrawlError
	if !errors.As(wrapped, &ce) || ce.Path != "/x" {
		t.Errorf("Expected errors.As to find the CrawlError")
	}
}

// TestJoiners tests output path shapes
func TestJoiners(t *testing.T) {
	root := filepath.FromSlash("/base/")
	absRoot := filepath.FromSlash("/base")

	if got := joinName("f", root); got != "f" {
		t.Errorf("joinName: %s", got)
	}
	if got := joinWithBase("f", root); got != filepath.FromSlash("/base/f") {
		t.Errorf("joinWithBase: %s", got)
	}

	rel := joinRelative(root, absRoot)
	if got := rel("f", root); got != "f" {
		t.Errorf("relative at root: %s", got)
	}
	if got := rel("f", filepath.FromSlash("/base/sub/")); got != filepath.FromSlash("sub/f") {
		t.Errorf("relative below root: %s", got)
	}
	if got := rel("f", filepath.FromSlash("/elsewhere/")); got != filepath.FromSlash("../elsewhere/f") {
		t.Errorf("relative outside root: %s", got)
	}

	format := formatRelative(root, absRoot)
	if got := format(root); got != "." {
		t.Errorf("root dir: %s", got)
	}
	if got := format(filepath.FromSlash("/base/sub/")); got != filepath.FromSlash("sub/") {
		t.Errorf("sub dir: %s", got)
	}

	convert := separatorConverter('|')
	if got := convert(`a/b\c`); got != "a|b|c" {
		t.Errorf("converter: %s", got)
	}
}

// TestNormalizeRoot tests root shaping
func TestNormalizeRoot(t *testing.T) {
	if _, err := normalizeRoot("", Options{}); !errors.Is(err, ErrEmptyRoot) {
		t.Errorf("Expected ErrEmptyRoot, got %v", err)
	}

	got, err := normalizeRoot(filepath.FromSlash("/a/b/../c"), Options{NormalizePath: true})
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.FromSlash("/a/c/"); got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}

	got, err = normalizeRoot("rel", Options{ResolvePaths: true})
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(got) || got[len(got)-1] != filepath.Separator {
		t.Errorf("Expected an absolute root ending in a separator, got %s", got)
	}
}
