// Package bytequeue implements the fixed-capacity FIFO byte buffer shared
// between session loops, the record pipeline and the controller.
package bytequeue

import (
	"errors"
	"sync"
)

// ErrUnderflow is returned when more bytes are requested than are queued.
var ErrUnderflow = errors.New("bytequeue: dequeue exceeds queued length")

// Queue is a bounded FIFO of bytes. All methods are safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	data     []byte
	capacity int
}

// New returns an empty queue holding at most capacity bytes.
func New(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{
		data:     make([]byte, 0, capacity),
		capacity: capacity,
	}
}

// Enqueue appends p only if all of it fits. It reports false and leaves the
// queue untouched otherwise.
func (q *Queue) Enqueue(p []byte) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.data)+len(p) > q.capacity {
		return false
	}
	q.data = append(q.data, p...)
	return true
}

// Dequeue removes and returns exactly n bytes from the front.
func (q *Queue) Dequeue(n int) ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if n < 0 || n > len(q.data) {
		return nil, ErrUnderflow
	}

	out := make([]byte, n)
	copy(out, q.data[:n])

	// Shift in place so the backing array never grows past capacity
	remaining := copy(q.data, q.data[n:])
	q.data = q.data[:remaining]
	return out, nil
}

// MustDequeue is Dequeue for callers that checked Len first. An underflow
// here means that discipline was broken, so it panics.
func (q *Queue) MustDequeue(n int) []byte {
	out, err := q.Dequeue(n)
	if err != nil {
		panic(err)
	}
	return out
}

// Flush discards everything queued.
func (q *Queue) Flush() {
	q.mu.Lock()
	q.data = q.data[:0]
	q.mu.Unlock()
}

// Len returns the number of queued bytes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.data)
}

// Cap returns the capacity given to New.
func (q *Queue) Cap() int {
	return q.capacity
}

// Free returns how many more bytes Enqueue would accept.
func (q *Queue) Free() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.capacity - len(q.data)
}
