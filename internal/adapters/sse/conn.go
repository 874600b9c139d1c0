// Package sse streams room messages to subscribers as Server-Sent Events.
package sse

import (
	"context"
	"io"
	"sync"

	"github.com/dkeye/Garden/internal/core"
	"github.com/gin-contrib/sse"
)

const DefaultSendBuffer = 64

type outbound struct {
	frame core.Frame
	ping  bool
}

// Conn is a SignalConnection backed by a buffered queue that WritePump
// drains onto the response stream.
type Conn struct {
	send chan outbound

	mu     sync.RWMutex
	closed bool
}

func NewConn(buffer int) *Conn {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	return &Conn{send: make(chan outbound, buffer)}
}

func (c *Conn) TrySend(f core.Frame) error {
	return c.enqueue(outbound{frame: f})
}

func (c *Conn) TryPing() error {
	return c.enqueue(outbound{ping: true})
}

func (c *Conn) enqueue(o outbound) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- o:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// WritePump writes queued messages to w until the queue is closed, either
// context is done, or a write fails. flush runs after every message.
func (c *Conn) WritePump(ctx, appCtx context.Context, w io.Writer, flush func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-appCtx.Done():
			return nil
		case o, ok := <-c.send:
			if !ok {
				return nil
			}
			var err error
			if o.ping {
				err = WriteComment(w, "ping")
			} else {
				err = WriteFrame(w, o.frame)
			}
			if err != nil {
				return err
			}
			flush()
		}
	}
}

// WriteFrame encodes one JSON message as a "data:" event.
func WriteFrame(w io.Writer, f core.Frame) error {
	return sse.Encode(w, sse.Event{Data: string(f)})
}

// WriteComment writes an SSE comment line, which clients ignore.
func WriteComment(w io.Writer, text string) error {
	_, err := io.WriteString(w, ": "+text+"\n\n")
	return err
}
