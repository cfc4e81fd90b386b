package hal

import (
	"math/bits"
	"sync"
	"sync/atomic"
)

// Controller is a level-latched interrupt controller with up to 32 sources.
// A raised source stays pending until acknowledged; raising it again before
// the ack is absorbed. Disabled sources still latch but are not reported.
type Controller struct {
	mu      sync.Mutex
	enabled uint32
	pending uint32
	sig     chan struct{}

	raised atomic.Uint64
}

func NewController() *Controller {
	return &Controller{sig: make(chan struct{}, 1)}
}

func (c *Controller) Enable(src int) {
	if !validIRQ(src) {
		return
	}
	c.mu.Lock()
	c.enabled |= 1 << uint(src)
	fire := c.pending&c.enabled != 0
	c.mu.Unlock()
	if fire {
		c.notify()
	}
}

func (c *Controller) Disable(src int) {
	if !validIRQ(src) {
		return
	}
	c.mu.Lock()
	c.enabled &^= 1 << uint(src)
	c.mu.Unlock()
}

// Raise marks src pending and wakes anyone waiting on Signal.
func (c *Controller) Raise(src int) {
	if !validIRQ(src) {
		return
	}
	c.raised.Add(1)
	c.mu.Lock()
	c.pending |= 1 << uint(src)
	fire := c.enabled&(1<<uint(src)) != 0
	c.mu.Unlock()
	if fire {
		c.notify()
	}
}

// Pending returns the lowest numbered source that is both pending and
// enabled.
func (c *Controller) Pending() (int, bool) {
	c.mu.Lock()
	p := c.pending & c.enabled
	c.mu.Unlock()
	if p == 0 {
		return 0, false
	}
	return bits.TrailingZeros32(p), true
}

// Ack clears src.
func (c *Controller) Ack(src int) {
	if !validIRQ(src) {
		return
	}
	c.mu.Lock()
	c.pending &^= 1 << uint(src)
	c.mu.Unlock()
}

// Signal has a value whenever an enabled source was raised since it was last
// read.
func (c *Controller) Signal() <-chan struct{} { return c.sig }

// Raised counts every Raise call, including absorbed ones.
func (c *Controller) Raised() uint64 { return c.raised.Load() }

func (c *Controller) notify() {
	select {
	case c.sig <- struct{}{}:
	default:
	}
}

func validIRQ(src int) bool { return src >= 0 && src < 32 }
