package crawler

import (
	"io/fs"
	"sync"

	"github.com/TFMV/fcrawl/internal/fsys"
)

// asyncDriver issues every listing and symlink resolution without blocking.
// Completions are posted to the mailbox and run on the single goroutine
// executing walkAsync, which owns the walker state.
type asyncDriver struct {
	w    *walker
	fs   fsys.AsyncFS
	q    *queue
	mail *mailbox
}

// mailbox collects completions from any goroutine. Posting never blocks, so a
// backend may call done before its Async method returns.
type mailbox struct {
	mu      sync.Mutex
	pending []func()
	wake    chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{wake: make(chan struct{}, 1)}
}

func (m *mailbox) post(event func()) {
	m.mu.Lock()
	m.pending = append(m.pending, event)
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// take returns the posted events, waiting for one if none are pending.
func (m *mailbox) take() []func() {
	for {
		m.mu.Lock()
		events := m.pending
		m.pending = nil
		m.mu.Unlock()
		if len(events) > 0 {
			return events
		}
		<-m.wake
	}
}

// walkAsync runs the crawl and calls done exactly once. It returns after
// every request it issued has completed, including those finishing after an
// error already ended the crawl.
func (w *walker) walkAsync(done func(Output, error)) {
	w.begin("async")

	d := &asyncDriver{
		w:    w,
		fs:   fsys.Async(w.fs),
		mail: newMailbox(),
	}
	d.q = newQueue(func(error) {
		done(w.finish())
	})

	// Hold the queue open while the root is dispatched.
	d.q.enqueue()
	d.descend(w.rootJob())
	d.q.dequeue(nil)

	for d.q.pending() > 0 {
		for _, event := range d.mail.take() {
			event()
		}
	}
}

func (d *asyncDriver) descend(j job) {
	if d.w.st.halted() || !d.w.claim(j) {
		return
	}
	d.q.enqueue()
	d.fs.ReadDirAsync(j.crawl, func(entries []fsys.Entry, err error) {
		d.mail.post(func() { d.listed(j, entries, err) })
	})
}

func (d *asyncDriver) listed(j job, entries []fsys.Entry, err error) {
	w, st := d.w, d.w.st
	if st.halted() {
		d.q.dequeue(nil)
		return
	}
	if err != nil {
		w.s.fail(st, OpReadDir, j.crawl, err)
	}
	if !st.abort.aborted() {
		files := w.enter(j)
		for _, e := range entries {
			w.visit(j, e, files, d)
		}
	}
	d.q.dequeue(st.err)
}

func (d *asyncDriver) resolve(j job, name string, files *[]string) {
	path := j.crawl + name
	d.q.enqueue()
	d.fs.RealPathAsync(path, func(resolved string, err error) {
		d.mail.post(func() {
			st := d.w.st
			switch {
			case st.abort.aborted():
			case err != nil:
				d.w.s.fail(st, OpRealPath, path, err)
			default:
				d.stat(j, name, resolved, files)
			}
			d.q.dequeue(st.err)
		})
	})
}

func (d *asyncDriver) stat(j job, name, resolved string, files *[]string) {
	d.q.enqueue()
	d.fs.StatAsync(resolved, func(info fs.FileInfo, err error) {
		d.mail.post(func() {
			st := d.w.st
			switch {
			case st.abort.aborted():
			case err != nil:
				d.w.s.fail(st, OpStat, resolved, err)
			default:
				d.w.linked(j, name, resolved, info, files, d)
			}
			d.q.dequeue(st.err)
		})
	})
}
