package logging

import (
	"strings"
	"sync"
)

// RingBuffer is an io.Writer that keeps the most recent log lines in memory.
// The GUI log view attaches one as a logger output and polls Lines.
type RingBuffer struct {
	mu       sync.Mutex
	lines    []string
	capacity int
	partial  strings.Builder
	onAppend func(line string)
}

// NewRingBuffer creates a buffer holding at most capacity lines
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 500
	}
	return &RingBuffer{
		capacity: capacity,
	}
}

// SetNotify registers a callback invoked for every completed line.
// The callback runs while the buffer lock is held; keep it cheap.
func (rb *RingBuffer) SetNotify(fn func(line string)) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.onAppend = fn
}

// Write implements io.Writer. Input is split on newlines; incomplete
// trailing fragments are held until the next write completes them.
func (rb *RingBuffer) Write(p []byte) (int, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	rb.partial.Write(p)
	for {
		s := rb.partial.String()
		idx := strings.IndexByte(s, '\n')
		if idx < 0 {
			break
		}
		rb.appendLine(s[:idx])
		rb.partial.Reset()
		rb.partial.WriteString(s[idx+1:])
	}

	return len(p), nil
}

func (rb *RingBuffer) appendLine(line string) {
	rb.lines = append(rb.lines, line)
	if len(rb.lines) > rb.capacity {
		rb.lines = rb.lines[len(rb.lines)-rb.capacity:]
	}
	if rb.onAppend != nil {
		rb.onAppend(line)
	}
}

// Lines returns a copy of the buffered lines, oldest first
func (rb *RingBuffer) Lines() []string {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	out := make([]string, len(rb.lines))
	copy(out, rb.lines)
	return out
}

// Len returns the number of buffered lines
func (rb *RingBuffer) Len() int {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	return len(rb.lines)
}
