package console

import (
	"sync"
	"time"
)

// taskQueue is the console's foreground task queue: the single-consumer
// delivery mechanism that marshals worker results and stream notifications
// onto the foreground. Posting never blocks; draining happens only on the
// foreground via Pump.
type taskQueue struct {
	mu    sync.Mutex
	tasks []func()
	wake  chan struct{} // capacity 1, pending-task notification
}

func newTaskQueue() *taskQueue {
	return &taskQueue{wake: make(chan struct{}, 1)}
}

// post schedules fn. Safe from any goroutine.
func (q *taskQueue) post(fn func()) {
	q.mu.Lock()
	q.tasks = append(q.tasks, fn)
	q.mu.Unlock()
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// pop removes the oldest pending task.
func (q *taskQueue) pop() (func(), bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.tasks) == 0 {
		return nil, false
	}
	fn := q.tasks[0]
	q.tasks = q.tasks[1:]
	return fn, true
}

// drain runs every pending task, including ones posted while draining, and
// returns how many ran. Reentrant: a task may itself drain the queue.
func (q *taskQueue) drain() int {
	n := 0
	for {
		fn, ok := q.pop()
		if !ok {
			return n
		}
		fn()
		n++
	}
}

// waitDrain drains pending tasks, waiting up to d for one to arrive first when
// the queue is empty.
func (q *taskQueue) waitDrain(d time.Duration) int {
	if n := q.drain(); n > 0 {
		return n
	}
	select {
	case <-q.wake:
	case <-time.After(d):
	}
	return q.drain()
}
