package crawler

import (
	"context"
	"sync/atomic"
)

// aborter reports whether a crawl should stop. It latches: once aborted it
// stays aborted, whether the cause was an error, an explicit stop or the
// signal context finishing.
type aborter struct {
	flag   atomic.Bool
	signal context.Context
}

func newAborter(signal context.Context) *aborter {
	return &aborter{signal: signal}
}

func (a *aborter) abort() {
	a.flag.Store(true)
}

func (a *aborter) aborted() bool {
	if a.flag.Load() {
		return true
	}
	if a.signal != nil && a.signal.Err() != nil {
		a.flag.Store(true)
		return true
	}
	return false
}
