package sse

import (
	"context"
	"net/http"

	"github.com/dkeye/Garden/internal/app/orch"
	"github.com/dkeye/Garden/internal/logging"
	"github.com/gin-gonic/gin"
)

const transportName = "sse"

// Controller serves the join stream: a connectivity comment, the room
// snapshot, then live messages and pings until either side goes away.
type Controller struct {
	Orch       *orch.Orchestrator
	SendBuffer int
}

func NewController(o *orch.Orchestrator, sendBuffer int) *Controller {
	return &Controller{Orch: o, SendBuffer: sendBuffer}
}

func (ctl *Controller) HandleEvents(appCtx context.Context, c *gin.Context) {
	logger := logging.Ctx(c.Request.Context())

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	h := c.Writer.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	if err := WriteComment(c.Writer, "connected"); err != nil {
		return
	}
	c.Writer.Flush()

	conn := NewConn(ctl.SendBuffer)
	defer conn.Close()

	sub, err := ctl.Orch.Subscribe(c.Query("room"), conn, transportName, c.ClientIP(), cancel)
	if err != nil {
		logger.Error().Err(err).Str("module", "adapters.sse").Msg("subscribe failed")
		return
	}
	defer ctl.Orch.Unsubscribe(sub.ID)

	logger.Info().Str("module", "adapters.sse").Str("room", string(sub.Room)).Uint64("conn", uint64(sub.ID)).Msg("stream opened")
	if err := conn.WritePump(ctx, appCtx, c.Writer, c.Writer.Flush); err != nil {
		logger.Info().Err(err).Str("module", "adapters.sse").Uint64("conn", uint64(sub.ID)).Msg("stream write failed")
	}
	logger.Info().Str("module", "adapters.sse").Uint64("conn", uint64(sub.ID)).Msg("stream closed")
}
