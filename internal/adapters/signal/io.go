package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Garden/internal/app/orch"
	"github.com/dkeye/Garden/internal/logging"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// writePump drains the queue onto the socket. On exit it closes the socket,
// which unblocks readPump.
func (ctl *SignalWSController) writePump(ctx context.Context, cancel context.CancelFunc, c *WsSignalConn) {
	defer func() {
		cancel()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		case o, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			var err error
			if o.ping {
				err = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, o.frame)
			}
			if err != nil {
				log.Info().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, sub orch.Subscription, c *WsSignalConn) {
	if ctl.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.ReadLimit)
	}
	if ctl.PingPeriod > 0 {
		wait := 3 * ctl.PingPeriod
		_ = c.conn.SetReadDeadline(time.Now().Add(wait))
		c.conn.SetPongHandler(func(string) error {
			return c.conn.SetReadDeadline(time.Now().Add(wait))
		})
	}

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Info().Err(err).Str("module", "signal").Uint64("conn", uint64(sub.ID)).Msg("readPump read error")
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		ctl.handleMessage(ctx, sub, c, data)
	}
}

func (ctl *SignalWSController) handleMessage(ctx context.Context, sub orch.Subscription, c *WsSignalConn, data []byte) {
	reqCtx := logging.WithLogger(ctx, log.With().Uint64("conn", uint64(sub.ID)).Logger())
	if _, err := ctl.Orch.Submit(reqCtx, string(sub.Room), data); err != nil {
		ctl.sendJSON(c, errorMessage{Type: "error", Error: err.Error()})
	}
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}
