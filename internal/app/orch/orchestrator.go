// Package orch sequences the room pipeline: ingress writes to the op log and
// then fans out, and a joining connection gets its snapshot before any live
// update. Both run under the room's lock.
package orch

import (
	"time"

	"github.com/dkeye/Garden/internal/app"
	"github.com/dkeye/Garden/internal/core"
	"github.com/dkeye/Garden/internal/store"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxBodyBytes = 48 * 1024
	DefaultPingPeriod   = 15 * time.Second
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Log      *store.Store

	// MaxBodyBytes caps accepted submissions; zero means DefaultMaxBodyBytes.
	MaxBodyBytes int
	// Now stamps serverTs; nil means time.Now.
	Now func() time.Time

	locks app.RoomLocks
}

func (o *Orchestrator) maxBody() int {
	if o.MaxBodyBytes > 0 {
		return o.MaxBodyBytes
	}
	return DefaultMaxBodyBytes
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// handleDropped applies the policy to members whose send failed.
// Caller holds the room lock.
func (o *Orchestrator) handleDropped(room core.RoomService, res core.PublishResult) {
	if len(res.Dropped) == 0 {
		return
	}
	for _, slow := range res.Dropped {
		action := app.KickMember
		if o.Policy != nil {
			action = o.Policy.OnBackPressure(room, slow)
		}
		switch action {
		case app.KickMember:
			log.Warn().Str("module", "app.orch").Str("room", string(room.Name())).Uint64("conn", uint64(slow.Meta().ID)).Msg("send failed, kicking member")
			o.unsubscribeLocked(room.Name(), slow.Meta().ID)
		case app.NoAction:
		}
	}
}
