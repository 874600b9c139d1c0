package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/dkeye/Garden/internal/app/orch"
	"github.com/dkeye/Garden/internal/domain"
	"github.com/dkeye/Garden/internal/logging"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	orch    *orch.Orchestrator
	limiter *SubmitRateLimiter
	maxBody int64
}

func (h *handlers) maxBodyBytes() int64 {
	if h.maxBody > 0 {
		return h.maxBody
	}
	return orch.DefaultMaxBodyBytes
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// submit reads at most maxBody bytes; anything longer is rejected without
// reading the rest.
func (h *handlers) submit(c *gin.Context) {
	if !h.limiter.Allow(c.ClientIP()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
		return
	}

	limit := h.maxBodyBytes()
	if c.Request.ContentLength > limit {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrPayloadTooLarge.Error()})
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, limit))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrPayloadTooLarge.Error()})
			return
		}
		logging.Ctx(c.Request.Context()).Warn().Err(err).Str("module", "adapters.http").Msg("read body")
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrInvalidPayload.Error()})
		return
	}

	if _, err := h.orch.Submit(c.Request.Context(), c.Query("room"), body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) snapshot(c *gin.Context) {
	frame, err := h.orch.Snapshot(domain.SanitizeRoomName(c.Query("room")))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot failed"})
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", frame)
}

func (h *handlers) rooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.Overview()})
}
