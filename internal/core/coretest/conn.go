// Package coretest provides an in-memory SignalConnection for tests.
package coretest

import (
	"sync"

	"github.com/dkeye/Garden/internal/core"
)

// Conn records every frame and ping it is asked to deliver.
type Conn struct {
	mu     sync.Mutex
	frames []core.Frame
	pings  int
	fail   bool
	closed bool
}

func NewConn() *Conn { return &Conn{} }

func (c *Conn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	if c.fail {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, append(core.Frame(nil), f...))
	return nil
}

func (c *Conn) TryPing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	if c.fail {
		return core.ErrBackpressure
	}
	c.pings++
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Fail makes every later send and ping return ErrBackpressure.
func (c *Conn) Fail() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = true
}

func (c *Conn) Frames() []core.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Frame(nil), c.frames...)
}

func (c *Conn) Pings() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pings
}
