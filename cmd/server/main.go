package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	router "github.com/dkeye/Garden/internal/adapters/http"
	"github.com/dkeye/Garden/internal/app"
	"github.com/dkeye/Garden/internal/app/orch"
	"github.com/dkeye/Garden/internal/config"
	"github.com/dkeye/Garden/internal/logging"
	"github.com/dkeye/Garden/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Console logger until config says otherwise.
	logging.Init(logging.Config{Level: "info", Pretty: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	logging.Init(cfg.Log)

	st := store.NewStore(cfg.OpLog)
	backend, err := store.NewBackend(ctx, cfg.Persist.BackendConfig)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Persist.Driver).Msg("failed to open persistence backend")
	}
	if c, ok := backend.(io.Closer); ok {
		defer c.Close()
	}
	st.Load(ctx, backend)
	persister := store.NewPersister(st, backend, cfg.Persist.Debounce)

	o := &orch.Orchestrator{
		Registry:     app.NewRegistry(),
		Rooms:        app.NewRoomManager(),
		Policy:       app.SimplePolicy{},
		Log:          st,
		MaxBodyBytes: cfg.MaxBodyBytes,
	}
	limiter := router.NewSubmitRateLimiter(cfg.RateLimit.Limit, cfg.RateLimit.Interval)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: router.SetupRouter(ctx, cfg, o, limiter),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Str("persist", backend.Name()).Msg("Garden server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return o.RunPinger(gctx, cfg.PingPeriod)
	})
	g.Go(func() error {
		return limiter.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdown(srv, persister, cfg.ShutdownTimeout)
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}

// shutdown stops the HTTP server and then writes the world once more. The
// final save gets its own deadline, so a slow drain cannot starve it.
func shutdown(srv *http.Server, persister *store.Persister, timeout time.Duration) {
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	flushCtx, flushCancel := context.WithTimeout(context.Background(), timeout)
	defer flushCancel()
	if err := persister.FlushNow(flushCtx); err != nil {
		log.Error().Err(err).Msg("final save failed")
	}
}
