package console

import (
	"fmt"
	"sync"

	"github.com/itsmostafa/goconsole/internal/interp"
	"github.com/itsmostafa/goconsole/internal/stream"
)

// Mode selects where submitted source runs.
type Mode string

const (
	// ModeForeground runs submissions inline on the calling goroutine.
	// Running code cannot be cancelled.
	ModeForeground Mode = "foreground"

	// ModeQueued defers submissions to a later iteration of the host loop
	// (the console's Pump). Single-threaded; running code cannot be cancelled.
	ModeQueued Mode = "queued"

	// ModeThreaded runs submissions on a dedicated worker goroutine and
	// supports best-effort asynchronous cancellation.
	ModeThreaded Mode = "threaded"
)

// ValidateMode parses a mode name.
func ValidateMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeForeground, ModeQueued, ModeThreaded:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown execution mode %q (want foreground, queued or threaded)", s)
}

// Result reports the outcome of one submission. Value carries the formatted
// result when HasValue is set; printed output travels through the stdout
// stream instead.
type Result struct {
	Executed bool
	Value    string
	HasValue bool
}

// Executor runs complete source snippets against the worker context.
// Implementations differ in where the work happens; all report completion
// through the done callback given at construction, which always runs on the
// foreground.
type Executor interface {
	// RunSource dispatches one complete source snippet. It may run inline or
	// asynchronously.
	RunSource(source string)

	// Cancel delivers a best-effort interrupt to the running submission. A
	// no-op when nothing is running, when the running submission can no
	// longer be identified safely, or when the model does not support
	// cancelling running code.
	Cancel()

	// Exit tears down any worker resources. Idempotent and safe when no
	// worker was ever started.
	Exit()
}

// ExecutorFactory builds a custom executor wired to the console's worker
// context, stdin stream, foreground post function and completion callback.
// Lets an embedder drive execution from an external scheduler.
type ExecutorFactory func(it *interp.Interpreter, stdin *stream.Stream, post func(func()), done func(Result)) Executor

// foregroundExecutor runs submissions inline during dispatch.
type foregroundExecutor struct {
	interp *interp.Interpreter
	done   func(Result)
}

func newForegroundExecutor(it *interp.Interpreter, done func(Result)) *foregroundExecutor {
	return &foregroundExecutor{interp: it, done: done}
}

func (e *foregroundExecutor) RunSource(source string) {
	executed, value, hasValue := e.interp.RunSource(source)
	e.done(Result{Executed: executed, Value: value, HasValue: hasValue})
}

func (e *foregroundExecutor) Cancel() {}

func (e *foregroundExecutor) Exit() {}

// queuedExecutor posts the run onto the foreground task queue; it executes on
// a later Pump iteration. Nothing yields control mid-statement, so Cancel
// cannot stop running code in this model either.
type queuedExecutor struct {
	interp *interp.Interpreter
	post   func(func())
	done   func(Result)
}

func newQueuedExecutor(it *interp.Interpreter, post func(func()), done func(Result)) *queuedExecutor {
	return &queuedExecutor{interp: it, post: post, done: done}
}

func (e *queuedExecutor) RunSource(source string) {
	e.post(func() {
		executed, value, hasValue := e.interp.RunSource(source)
		e.done(Result{Executed: executed, Value: value, HasValue: hasValue})
	})
}

func (e *queuedExecutor) Cancel() {}

func (e *queuedExecutor) Exit() {}

type job struct {
	id     uint64
	source string
}

// threadedExecutor owns a dedicated worker goroutine, created lazily on the
// first submission. Jobs carry a monotonically increasing identity so that a
// cancel can verify, immediately before delivery, that the submission it
// targets is still the one running.
type threadedExecutor struct {
	interp *interp.Interpreter
	stdin  *stream.Stream
	post   func(func())
	done   func(Result)

	mu      sync.Mutex
	jobs    chan job
	nextID  uint64
	current uint64 // id of the job the worker owns, 0 when idle
	started bool
	exited  bool
	wg      sync.WaitGroup
}

func newThreadedExecutor(it *interp.Interpreter, stdin *stream.Stream, post func(func()), done func(Result)) *threadedExecutor {
	return &threadedExecutor{
		interp: it,
		stdin:  stdin,
		post:   post,
		done:   done,
		jobs:   make(chan job, 1),
	}
}

func (e *threadedExecutor) RunSource(source string) {
	e.mu.Lock()
	if e.exited {
		e.mu.Unlock()
		return
	}
	e.nextID++
	j := job{id: e.nextID, source: source}
	e.current = j.id
	if !e.started {
		e.started = true
		e.wg.Add(1)
		go e.loop()
	}
	e.mu.Unlock()
	e.jobs <- j
}

func (e *threadedExecutor) loop() {
	defer e.wg.Done()
	for j := range e.jobs {
		executed, value, hasValue := e.interp.RunSource(j.source)

		// Release ownership before clearing interrupts: once current is 0 a
		// late Cancel is a no-op, so any interrupt still pending was aimed at
		// this job and is safe to discard.
		e.mu.Lock()
		e.current = 0
		e.mu.Unlock()
		e.interp.ClearInterrupt()
		e.stdin.ClearInterrupt()

		e.post(func() {
			e.done(Result{Executed: executed, Value: value, HasValue: hasValue})
		})
	}
}

func (e *threadedExecutor) Cancel() {
	e.cancelJob(e.currentJob())
}

func (e *threadedExecutor) currentJob() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// cancelJob interrupts job id if it still owns the worker. The identity check
// runs under the same lock as the delivery, so an interrupt can never land on
// a submission other than the one it was aimed at. Fire-and-forget: the
// worker's eventual failure arrives through the normal completion path.
func (e *threadedExecutor) cancelJob(id uint64) {
	if id == 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.exited || e.current != id {
		return
	}
	e.interp.Interrupt("console interrupt")
	// Interrupt delivery alone cannot break a blocking stream read; force the
	// wait to unblock as well.
	e.stdin.Interrupt()
}

func (e *threadedExecutor) Exit() {
	e.mu.Lock()
	if e.exited {
		e.mu.Unlock()
		return
	}
	e.exited = true
	started := e.started
	if e.current != 0 {
		e.interp.Interrupt("console exit")
		e.stdin.Interrupt()
	}
	e.mu.Unlock()
	if started {
		close(e.jobs)
		e.wg.Wait()
	}
}
