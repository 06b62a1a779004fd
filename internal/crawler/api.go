package crawler

import (
	"context"
	"iter"
)

// API runs crawls of one frozen configuration. Each call starts a new crawl
// with its own state, so an API may be run repeatedly and concurrently.
type API struct {
	root string
	cfg  *config
	err  error
}

// Root returns the root the configuration was frozen against, as given.
func (a *API) Root() string { return a.root }

// Sync crawls on the calling goroutine. On a file system error with errors
// not suppressed, the partial output is returned along with the error.
func (a *API) Sync() (Output, error) {
	if a.err != nil {
		return nil, a.err
	}
	return newWalker(a.cfg).walkSync()
}

// WithCallback crawls in the background and calls cb exactly once with the
// output. Listings run concurrently; cb runs on the crawl's goroutine.
func (a *API) WithCallback(cb func(Output, error)) {
	if a.err != nil {
		go cb(nil, a.err)
		return
	}
	go newWalker(a.cfg).walkAsync(cb)
}

// Await runs the crawl like WithCallback and waits for it. Cancelling ctx
// aborts the crawl; the partial output is returned with ctx's error.
func (a *API) Await(ctx context.Context) (Output, error) {
	if a.err != nil {
		return nil, a.err
	}

	type result struct {
		out Output
		err error
	}
	results := make(chan result, 1)

	w := newWalker(a.cfg)
	stop := context.AfterFunc(ctx, w.st.abort.abort)
	defer stop()

	go w.walkAsync(func(out Output, err error) {
		results <- result{out, err}
	})

	r := <-results
	if r.err == nil && ctx.Err() != nil {
		return r.out, ctx.Err()
	}
	return r.out, r.err
}

// Iterator returns a lazy crawl of paths. Counts and groups outputs need the
// whole tree and are rejected with ErrIteratorOutput.
func (a *API) Iterator() (*Iterator, error) {
	if a.err != nil {
		return nil, a.err
	}
	if a.cfg.mode != outputPaths {
		return nil, ErrIteratorOutput
	}
	return newIterator(newWalker(a.cfg)), nil
}

// All returns the lazy crawl as a sequence for range loops. A configuration
// or crawl error is yielded with an empty path.
func (a *API) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		it, err := a.Iterator()
		if err != nil {
			yield("", err)
			return
		}
		it.seq()(yield)
	}
}
