// Package stream provides a thread-safe line-buffered text channel standing in
// for the stdin/stdout of code running in a worker context.
package stream

import (
	"errors"
	"io"
	"strings"
	"sync"
	"time"
)

var (
	// ErrTimeout indicates a blocking ReadLine exceeded its deadline.
	ErrTimeout = errors.New("stream: read timed out")

	// ErrInterrupted indicates a blocked ReadLine was force-woken by Interrupt.
	ErrInterrupted = errors.New("stream: read interrupted")
)

// Stream buffers written text until a reader consumes it line by line.
// Writers never block. Readers may block until a full line, EOF or an
// interrupt arrives; with a Yield callback configured, a blocking read
// cooperatively re-enters the host loop instead of parking the goroutine.
type Stream struct {
	mu     sync.Mutex
	buf    string
	wake   chan struct{} // closed to wake blocked readers, then replaced
	closed bool
	intr   bool

	// Yield, when set, is called repeatedly while a blocking ReadLine waits
	// for data. Only valid when reader and writer run on the same thread of
	// control and writes are delivered through that loop.
	Yield func()

	// OnWrite observes every Write. Called outside the internal lock.
	OnWrite func(data string)

	// OnFlush observes every Flush with the drained content.
	OnFlush func(data string)
}

// New returns an open, empty stream.
func New() *Stream {
	return &Stream{wake: make(chan struct{})}
}

// Write appends data to the backlog and wakes any blocked reader. It never
// blocks and may be called from any goroutine. Writes after Close are
// discarded without notifying the observer.
func (s *Stream) Write(data string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.buf += data
	s.wakeAll()
	onWrite := s.OnWrite
	s.mu.Unlock()
	if onWrite != nil {
		onWrite(data)
	}
}

// ReadLine pops and returns the content up to (excluding) the next line break.
//
// With block false it returns ("", nil) immediately when no full line is
// buffered. With block true it waits until a line break is buffered, the
// stream is closed (io.EOF), the wait is force-woken (ErrInterrupted), or the
// timeout elapses (ErrTimeout). A timeout of 0 waits indefinitely.
func (s *Stream) ReadLine(block bool, timeout time.Duration) (string, error) {
	var deadline <-chan time.Time
	if block && timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		deadline = t.C
	}
	for {
		s.mu.Lock()
		if i := strings.IndexByte(s.buf, '\n'); i >= 0 {
			line := s.buf[:i]
			s.buf = s.buf[i+1:]
			s.mu.Unlock()
			return line, nil
		}
		if s.closed {
			s.mu.Unlock()
			return "", io.EOF
		}
		if !block {
			s.mu.Unlock()
			return "", nil
		}
		if s.intr {
			s.intr = false
			s.mu.Unlock()
			return "", ErrInterrupted
		}
		yield := s.Yield
		wake := s.wake
		s.mu.Unlock()

		if yield != nil {
			select {
			case <-deadline:
				return "", ErrTimeout
			default:
			}
			yield()
			continue
		}
		select {
		case <-wake:
		case <-deadline:
			return "", ErrTimeout
		}
	}
}

// Flush atomically drains and returns all buffered content not yet consumed,
// including any trailing text without a line break.
func (s *Stream) Flush() string {
	s.mu.Lock()
	data := s.buf
	s.buf = ""
	s.wakeAll()
	onFlush := s.OnFlush
	s.mu.Unlock()
	if onFlush != nil {
		onFlush(data)
	}
	return data
}

// Close signals permanent EOF and releases any blocked reader. Idempotent.
// Reads after Close return ("", io.EOF) immediately.
func (s *Stream) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.buf = ""
	s.wakeAll()
	s.mu.Unlock()
}

// Interrupt force-wakes a reader blocked in ReadLine. The wake is one-shot: it
// is consumed by the first blocking read that finds no line, so a stale
// interrupt must be removed with ClearInterrupt before the next submission.
func (s *Stream) Interrupt() {
	s.mu.Lock()
	s.intr = true
	s.wakeAll()
	s.mu.Unlock()
}

// ClearInterrupt removes a pending interrupt that no reader consumed.
func (s *Stream) ClearInterrupt() {
	s.mu.Lock()
	s.intr = false
	s.mu.Unlock()
}

// wakeAll releases every blocked reader. Callers hold mu.
func (s *Stream) wakeAll() {
	close(s.wake)
	s.wake = make(chan struct{})
}
