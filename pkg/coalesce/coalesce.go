// Package coalesce batches bursts of incoming log lines so that a fast
// stream does not force one buffer mutation and UI refresh per line.
package coalesce

import (
	"sync"
	"time"

	"github.com/lanternhq/lantern/pkg/core"
)

const (
	// DefaultWindow is the trailing-edge quiescence window.
	DefaultWindow = 50 * time.Millisecond

	// DefaultMaxDelay bounds how long a continuous burst can suppress
	// delivery. Pure trailing-edge debounce would starve the display
	// whenever lines arrive faster than the window; the ceiling forces
	// a flush of the latest pending line once a burst has run this
	// long. Zero disables the ceiling.
	DefaultMaxDelay = time.Second
)

// Flush receives the single pending line when the debounce fires.
type Flush func(core.LogLine)

// Coalescer debounces submissions with latest-wins semantics: each
// Submit replaces the pending line and resets the timer, and only the
// most recently submitted line is delivered per flush. A Coalescer is
// scoped to one connection session; after CancelPending it never
// flushes again.
type Coalescer struct {
	mu         sync.Mutex
	window     time.Duration
	maxDelay   time.Duration
	flush      Flush
	timer      *time.Timer
	pending    core.LogLine
	hasPending bool
	burstStart time.Time
	cancelled  bool
}

// New creates a coalescer. A non-positive window falls back to
// DefaultWindow; maxDelay zero disables the burst ceiling.
func New(window, maxDelay time.Duration, flush Flush) *Coalescer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Coalescer{
		window:   window,
		maxDelay: maxDelay,
		flush:    flush,
	}
}

// Submit schedules line for delivery, superseding any pending line.
func (c *Coalescer) Submit(line core.LogLine) {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}

	c.pending = line
	c.hasPending = true
	now := time.Now()
	if c.burstStart.IsZero() {
		c.burstStart = now
	}

	// Burst ceiling: deliver immediately instead of resetting the
	// timer yet again.
	if c.maxDelay > 0 && now.Sub(c.burstStart) >= c.maxDelay {
		if c.timer != nil {
			c.timer.Stop()
		}
		out := c.takeLocked()
		c.mu.Unlock()
		c.flush(out)
		return
	}

	if c.timer == nil {
		c.timer = time.AfterFunc(c.window, c.fire)
	} else {
		c.timer.Stop()
		c.timer.Reset(c.window)
	}
	c.mu.Unlock()
}

// CancelPending discards any scheduled flush and permanently disables
// the coalescer. Used on session teardown so a late flush can never run
// against a buffer that belongs to a newer source.
func (c *Coalescer) CancelPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled = true
	c.hasPending = false
	if c.timer != nil {
		c.timer.Stop()
	}
}

func (c *Coalescer) fire() {
	c.mu.Lock()
	if c.cancelled || !c.hasPending {
		c.mu.Unlock()
		return
	}
	out := c.takeLocked()
	c.mu.Unlock()
	c.flush(out)
}

func (c *Coalescer) takeLocked() core.LogLine {
	out := c.pending
	c.hasPending = false
	c.burstStart = time.Time{}
	return out
}
