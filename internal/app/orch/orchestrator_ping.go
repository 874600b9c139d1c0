package orch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// PingAll writes a liveness frame to every subscriber in every room. Failed
// pings go through the same policy as failed broadcasts.
func (o *Orchestrator) PingAll() int {
	sent := 0
	for _, r := range o.Rooms.All() {
		name := r.Name()
		unlock := o.locks.Lock(name)
		if live, ok := o.Rooms.Get(name); ok {
			res := live.Ping()
			o.handleDropped(live, res)
			sent += res.SendTo
		}
		unlock()
	}
	return sent
}

// RunPinger calls PingAll every period until ctx is done.
func (o *Orchestrator) RunPinger(ctx context.Context, period time.Duration) error {
	if period <= 0 {
		period = DefaultPingPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	log.Info().Str("module", "app.orch").Dur("period", period).Msg("pinger started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.orch").Msg("pinger stopped")
			return nil
		case <-ticker.C:
			n := o.PingAll()
			log.Debug().Str("module", "app.orch").Int("pinged", n).Msg("ping round")
		}
	}
}
