package core

import "sync"

// DefaultCapacity is the buffer capacity used when none is configured.
const DefaultCapacity = 500

// Buffer is a bounded, ordered sequence of log lines with strict FIFO
// eviction. Capacity is fixed at construction. Snapshot returns a copy,
// so readers never observe a torn state while appends continue.
type Buffer struct {
	mu    sync.RWMutex
	lines []LogLine
	cap   int
}

// NewBuffer creates a buffer holding at most capacity lines. A
// non-positive capacity falls back to DefaultCapacity.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		lines: make([]LogLine, 0, capacity),
		cap:   capacity,
	}
}

// Append adds a line, evicting from the oldest end first if the buffer
// is full. Relative order of survivors is preserved.
func (b *Buffer) Append(line LogLine) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.lines) >= b.cap {
		drop := len(b.lines) - b.cap + 1
		b.lines = append(b.lines[:0], b.lines[drop:]...)
	}
	b.lines = append(b.lines, line)
}

// Reset discards all lines. Capacity is unchanged.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = b.lines[:0]
}

// Snapshot returns a copy of the current contents, oldest first.
func (b *Buffer) Snapshot() []LogLine {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]LogLine, len(b.lines))
	copy(out, b.lines)
	return out
}

// Len returns the current number of buffered lines.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.lines)
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return b.cap
}
