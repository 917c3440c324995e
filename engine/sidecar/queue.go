package sidecar

import "sync"

// commandQueue buffers commands issued before the engine signals readiness.
// Insertion order is the only key: flush forwards commands in the exact
// order enqueued.
//
// enqueue is safe to call concurrently with flush. flush itself is called
// only from the session run loop; a command is removed from the queue only
// after its forward succeeds, so a retried flush resumes from the first
// unsent item.
type commandQueue struct {
	mu    sync.Mutex
	items []command
}

// enqueue appends c to the queue.
func (q *commandQueue) enqueue(c command) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, c)
}

// len reports the number of buffered commands.
func (q *commandQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// drain removes and returns every buffered command.
func (q *commandQueue) drain() []command {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// flush drains the queue, forwarding each command through send in FIFO
// order. On a send failure it stops immediately without dropping the failed
// command or anything behind it, and returns the error.
func (q *commandQueue) flush(send func(command) error) error {
	for {
		q.mu.Lock()
		if len(q.items) == 0 {
			q.mu.Unlock()
			return nil
		}
		next := q.items[0]
		q.mu.Unlock()

		if err := send(next); err != nil {
			return err
		}

		q.mu.Lock()
		q.items = q.items[1:]
		q.mu.Unlock()
	}
}
