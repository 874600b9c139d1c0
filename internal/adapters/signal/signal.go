// Package signal serves the room stream over WebSocket. Text messages from
// the client are submitted to the subscribed room.
package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Garden/internal/app/orch"
	"github.com/dkeye/Garden/internal/core"
	"github.com/dkeye/Garden/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	transportName     = "ws"
	defaultSendBuffer = 64
	writeWait         = 5 * time.Second
)

type SignalWSController struct {
	Orch       *orch.Orchestrator
	SendBuffer int
	// PingPeriod sizes the read deadline; pongs extend it.
	PingPeriod time.Duration
	// ReadLimit caps a single inbound message.
	ReadLimit int64
}

func NewSignalWSController(o *orch.Orchestrator, sendBuffer int, pingPeriod time.Duration, readLimit int64) *SignalWSController {
	return &SignalWSController{
		Orch:       o,
		SendBuffer: sendBuffer,
		PingPeriod: pingPeriod,
		ReadLimit:  readLimit,
	}
}

type wsOutbound struct {
	frame core.Frame
	ping  bool
}

// WsSignalConn is a SignalConnection over a WebSocket. writePump owns the
// socket writes; Close only stops the queue.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan wsOutbound

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, buffer int) *WsSignalConn {
	if buffer <= 0 {
		buffer = defaultSendBuffer
	}
	return &WsSignalConn{conn: ws, send: make(chan wsOutbound, buffer)}
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	return c.enqueue(wsOutbound{frame: f})
}

func (c *WsSignalConn) TryPing() error {
	return c.enqueue(wsOutbound{ping: true})
}

func (c *WsSignalConn) enqueue(o wsOutbound) error {
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

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(appCtx context.Context, c *gin.Context) {
	logger := logging.Ctx(c.Request.Context())

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(appCtx)
	defer cancel()

	conn := newWsSignalConn(ws, ctl.SendBuffer)
	defer conn.Close()

	sub, err := ctl.Orch.Subscribe(c.Query("room"), conn, transportName, c.ClientIP(), cancel)
	if err != nil {
		logger.Error().Err(err).Str("module", "signal").Msg("subscribe failed")
		return
	}
	defer ctl.Orch.Unsubscribe(sub.ID)

	logger.Info().Str("module", "signal").Str("room", string(sub.Room)).Uint64("conn", uint64(sub.ID)).Msg("new WS connection")

	go ctl.writePump(ctx, cancel, conn)
	ctl.readPump(ctx, sub, conn)
}
