package orch

import (
	"context"

	"github.com/dkeye/Garden/internal/core"
	"github.com/dkeye/Garden/internal/domain"
	"github.com/dkeye/Garden/internal/logging"
)

// Submit validates and stamps body, appends it to the room's op log and then
// broadcasts it, all under the room lock. Rejected bodies have no effect.
// The write to stable storage happens later, off this path.
func (o *Orchestrator) Submit(ctx context.Context, rawRoom string, body []byte) (domain.Op, error) {
	room := domain.SanitizeRoomName(rawRoom)
	logger := logging.Ctx(ctx)

	if len(body) > o.maxBody() {
		logger.Warn().Str("module", "app.orch").Str("room", string(room)).Int("bytes", len(body)).Msg("submit rejected: too large")
		return domain.Op{}, domain.ErrPayloadTooLarge
	}

	// serverTs is taken under the lock so it never runs backwards in the log.
	unlock := o.locks.Lock(room)
	defer unlock()

	op, err := domain.ParseOp(body, room, o.now().UnixMilli())
	if err != nil {
		logger.Warn().Err(err).Str("module", "app.orch").Str("room", string(room)).Msg("submit rejected")
		return domain.Op{}, err
	}

	o.Log.Apply(op)
	res := o.publishLocked(room, core.Frame(op.Raw))

	logger.Debug().Str("module", "app.orch").Str("room", string(room)).Str("type", op.Type).Int("sent_to", res.SendTo).Msg("op accepted")
	return op, nil
}
