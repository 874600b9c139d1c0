package http

import (
	"context"
	"net/http"

	"github.com/dkeye/Garden/internal/adapters/signal"
	"github.com/dkeye/Garden/internal/adapters/sse"
	"github.com/dkeye/Garden/internal/app/orch"
	"github.com/dkeye/Garden/internal/config"
	"github.com/dkeye/Garden/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// CORSMiddleware allows any origin to call the API and answers preflights.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// SetupRouter wires HTTP routes with the orchestrator and transports.
//   - Static files are served from cfg.StaticPath.
//   - The API lives under /api/*.
//   - ctx ends long-lived streams at shutdown.
func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, limiter *SubmitRateLimiter) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(logging.GinMiddleware(log.Logger))
	r.Use(CORSMiddleware())

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := &handlers{
		orch:    o,
		limiter: limiter,
		maxBody: int64(cfg.MaxBodyBytes),
	}
	events := sse.NewController(o, cfg.SendBuffer)
	ws := signal.NewSignalWSController(o, cfg.SendBuffer, cfg.PingPeriod, 2*h.maxBodyBytes())

	api := r.Group("/api")
	api.GET("/health", h.health)
	api.GET("/events", func(c *gin.Context) {
		events.HandleEvents(ctx, c)
	})
	api.GET("/ws", func(c *gin.Context) {
		ws.HandleSignal(ctx, c)
	})
	api.POST("/ops", h.submit)
	api.GET("/snapshot", h.snapshot)
	api.GET("/rooms", h.rooms)

	return r
}
