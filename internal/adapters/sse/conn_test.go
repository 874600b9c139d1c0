package sse

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dkeye/Garden/internal/core"
)

func TestConnBackpressure(t *testing.T) {
	c := NewConn(2)
	if err := c.TrySend(core.Frame(`{"a":1}`)); err != nil {
		t.Fatal(err)
	}
	if err := c.TryPing(); err != nil {
		t.Fatal(err)
	}
	if err := c.TrySend(core.Frame(`{"a":2}`)); !errors.Is(err, core.ErrBackpressure) {
		t.Fatalf("full buffer: err = %v, want ErrBackpressure", err)
	}
}

func TestConnClosed(t *testing.T) {
	c := NewConn(1)
	c.Close()
	c.Close()
	if err := c.TrySend(core.Frame(`{}`)); !errors.Is(err, core.ErrConnClosed) {
		t.Fatalf("err = %v, want ErrConnClosed", err)
	}
}

func TestWritePumpEncodesFramesAndPings(t *testing.T) {
	c := NewConn(4)
	_ = c.TrySend(core.Frame(`{"type":"paint"}`))
	_ = c.TryPing()
	c.Close()

	var buf bytes.Buffer
	flushes := 0
	err := c.WritePump(context.Background(), context.Background(), &buf, func() { flushes++ })
	if err != nil {
		t.Fatal(err)
	}
	want := "data:{\"type\":\"paint\"}\n\n: ping\n\n"
	if buf.String() != want {
		t.Fatalf("stream = %q, want %q", buf.String(), want)
	}
	if flushes != 2 {
		t.Fatalf("flushes = %d, want 2", flushes)
	}
}

func TestWritePumpStopsOnAppShutdown(t *testing.T) {
	c := NewConn(1)
	appCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		var buf bytes.Buffer
		done <- c.WritePump(context.Background(), appCtx, &buf, func() {})
	}()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("pump did not stop")
	}
}

func TestWriteComment(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteComment(&buf, "connected"); err != nil {
		t.Fatal(err)
	}
	if buf.String() != ": connected\n\n" {
		t.Fatalf("comment = %q", buf.String())
	}
}
