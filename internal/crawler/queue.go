package crawler

// queue counts outstanding asynchronous requests of one crawl. onEmpty fires
// exactly once: when the count drops to zero, or on the first error.
//
// A queue is not safe for concurrent use. The event-driven driver only
// touches it from its event loop.
type queue struct {
	count   int
	onEmpty func(error)
}

func newQueue(onEmpty func(error)) *queue {
	return &queue{onEmpty: onEmpty}
}

func (q *queue) enqueue() {
	q.count++
}

func (q *queue) dequeue(err error) {
	q.count--
	if q.onEmpty == nil || (q.count > 0 && err == nil) {
		return
	}
	fire := q.onEmpty
	q.onEmpty = nil
	fire(err)
}

// pending reports requests still in flight, including those completing
// after onEmpty fired.
func (q *queue) pending() int {
	return q.count
}
