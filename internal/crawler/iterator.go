package crawler

import (
	"iter"

	"github.com/TFMV/fcrawl/internal/fsys"
)

// Iterator walks lazily: each call to Next does only the work needed to
// produce one more path. An Iterator is not safe for concurrent use.
type Iterator struct {
	w       *walker
	d       *syncDriver
	stack   []job
	cur     job
	entries []fsys.Entry
	idx     int
	head    int // next unread index of w.st.paths
	started bool
	done    bool
}

func newIterator(w *walker) *Iterator {
	return &Iterator{w: w, d: &syncDriver{w: w}}
}

// Next returns the next accepted path. It reports false once the crawl is
// exhausted, stopped, aborted or has failed; Err tells the last case apart.
func (it *Iterator) Next() (string, bool) {
	if it.done {
		return "", false
	}
	if !it.started {
		it.started = true
		it.w.begin("iterator")
		it.stack = append(it.stack, it.w.rootJob())
	}

	st := it.w.st
	for {
		if st.abort.aborted() {
			it.release()
			return "", false
		}

		if it.head < len(st.paths) {
			p := st.paths[it.head]
			st.paths[it.head] = ""
			it.head++
			if it.head == len(st.paths) {
				st.paths = st.paths[:0]
				it.head = 0
			}
			return p, true
		}

		if it.idx < len(it.entries) && !st.halted() {
			e := it.entries[it.idx]
			it.idx++
			it.w.visit(it.cur, e, &st.paths, it.d)
			continue
		}

		if !it.advance() {
			it.release()
			return "", false
		}
	}
}

// advance lists the next directory on the stack.
func (it *Iterator) advance() bool {
	st := it.w.st
	it.stack = it.d.flush(it.stack)
	it.entries, it.idx = nil, 0

	for len(it.stack) > 0 && !st.halted() {
		j := it.stack[len(it.stack)-1]
		it.stack = it.stack[:len(it.stack)-1]

		if !it.w.claim(j) {
			continue
		}
		entries := it.w.list(j)
		if st.halted() {
			return false
		}
		it.w.enter(j)
		it.cur, it.entries = j, entries
		return true
	}
	return false
}

// Stop ends the crawl and releases everything the iterator holds. Further
// calls to Next report false.
func (it *Iterator) Stop() {
	it.w.st.abort.abort()
	it.release()
}

// Err returns the error that ended the crawl, if any. Stopping or aborting
// is not an error.
func (it *Iterator) Err() error {
	return it.w.st.err
}

func (it *Iterator) release() {
	if it.done {
		return
	}
	it.done = true
	if it.started {
		it.w.finish()
	}
	it.stack = nil
	it.entries = nil
	it.d.found = nil
	it.w.st.paths = nil
	it.w.st.visited = nil
	it.w.st.symlinks = nil
}

// seq adapts the iterator to a range-over-func sequence. Breaking out of the
// loop stops the crawl. A crawl error is yielded last with an empty path.
func (it *Iterator) seq() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		defer it.Stop()
		for {
			p, ok := it.Next()
			if !ok {
				break
			}
			if !yield(p, nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield("", err)
		}
	}
}
