package agentcore

import (
	"sync"
	"sync/atomic"
)

// InterruptController is the cooperative cancellation signal for one engine
// instance. It is level-triggered and idempotent: the first Interrupt()
// requests a graceful abort observed by both the stream reader and the tool
// coordinator; a second Interrupt() while the first is outstanding escalates
// to terminate, which front ends treat as "give up and exit".
//
// Scope is per engine, not per process: concurrent sessions each own their
// controller and never contend.
type InterruptController struct {
	interrupted atomic.Bool
	terminate   atomic.Bool

	mu   sync.Mutex
	done chan struct{}
	term chan struct{}
}

// NewInterruptController creates a controller in the clear state.
func NewInterruptController() *InterruptController {
	return &InterruptController{
		done: make(chan struct{}),
		term: make(chan struct{}),
	}
}

// Interrupt requests cancellation. The first call trips the graceful flag;
// any further call while it is still set escalates to terminate. Safe to
// call from any goroutine, including signal handlers' dispatch goroutine.
func (c *InterruptController) Interrupt() {
	if c.interrupted.Swap(true) {
		if !c.terminate.Swap(true) {
			c.mu.Lock()
			close(c.term)
			c.mu.Unlock()
		}
		return
	}
	c.mu.Lock()
	close(c.done)
	c.mu.Unlock()
}

// Interrupted reports whether a graceful abort has been requested.
func (c *InterruptController) Interrupted() bool {
	return c.interrupted.Load()
}

// ShouldTerminate reports whether a second signal escalated to terminate.
func (c *InterruptController) ShouldTerminate() bool {
	return c.terminate.Load()
}

// Done returns a channel closed when a graceful abort is requested.
// Select against it alongside stream reads and tool completion.
func (c *InterruptController) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Terminated returns a channel closed on second-signal escalation.
// The engine ignores it; front ends use it to force an exit.
func (c *InterruptController) Terminated() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.term
}

// Reset clears both flags between turns. Must not be called while a turn
// is still draining.
func (c *InterruptController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.interrupted.Load() {
		c.done = make(chan struct{})
	}
	if c.terminate.Load() {
		c.term = make(chan struct{})
	}
	c.interrupted.Store(false)
	c.terminate.Store(false)
}
