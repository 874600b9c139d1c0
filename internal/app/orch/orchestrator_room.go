package orch

import (
	"context"
	"encoding/json"

	"github.com/dkeye/Garden/internal/core"
	"github.com/dkeye/Garden/internal/domain"
	"github.com/rs/zerolog/log"
)

// SnapshotMessage is the first message every subscriber receives.
type SnapshotMessage struct {
	Type     string            `json:"type"`
	Room     domain.RoomName   `json:"room"`
	ServerTs int64             `json:"serverTs"`
	Ops      []json.RawMessage `json:"ops"`
}

const snapshotType = "snapshot"

// Snapshot builds the encoded snapshot message for room.
func (o *Orchestrator) Snapshot(room domain.RoomName) (core.Frame, error) {
	return json.Marshal(SnapshotMessage{
		Type:     snapshotType,
		Room:     room,
		ServerTs: o.now().UnixMilli(),
		Ops:      o.Log.Snapshot(room),
	})
}

// Subscription is what a transport adapter gets back from Subscribe.
type Subscription struct {
	ID   domain.ConnID
	Room domain.RoomName
}

// Subscribe sanitises rawRoom, sends the snapshot to conn and registers it,
// all under the room lock, so no broadcast can reach conn before the
// snapshot. cancel is invoked when the hub drops the connection.
func (o *Orchestrator) Subscribe(rawRoom string, conn core.SignalConnection, transport, addr string, cancel context.CancelFunc) (Subscription, error) {
	room := domain.SanitizeRoomName(rawRoom)
	id := o.Registry.NextID()
	sess := core.NewMemberSession(domain.NewMember(id, room, transport, addr), conn)

	unlock := o.locks.Lock(room)
	defer unlock()

	frame, err := o.Snapshot(room)
	if err != nil {
		return Subscription{}, err
	}
	if err := conn.TrySend(frame); err != nil {
		return Subscription{}, err
	}
	o.Rooms.GetOrCreate(room).AddMember(sess)
	o.Registry.BindSession(id, room, sess, cancel)

	log.Info().Str("module", "app.orch").Str("room", string(room)).Uint64("conn", uint64(id)).Str("transport", transport).Msg("subscribed")
	return Subscription{ID: id, Room: room}, nil
}

// Unsubscribe is idempotent; unknown ids are ignored.
func (o *Orchestrator) Unsubscribe(id domain.ConnID) {
	room, _, ok := o.Registry.RoomOf(id)
	if !ok {
		return
	}
	unlock := o.locks.Lock(room)
	defer unlock()
	o.unsubscribeLocked(room, id)
}

func (o *Orchestrator) unsubscribeLocked(room domain.RoomName, id domain.ConnID) {
	if r, ok := o.Rooms.Get(room); ok {
		r.RemoveMember(id)
		o.Rooms.StopRoomIfEmpty(room)
	}
	cancel, ok := o.Registry.Unbind(id)
	if ok && cancel != nil {
		cancel()
	}
}

// Broadcast delivers frame to every subscriber of room.
func (o *Orchestrator) Broadcast(room domain.RoomName, frame core.Frame) core.PublishResult {
	unlock := o.locks.Lock(room)
	defer unlock()
	return o.publishLocked(room, frame)
}

func (o *Orchestrator) publishLocked(room domain.RoomName, frame core.Frame) core.PublishResult {
	r, ok := o.Rooms.Get(room)
	if !ok {
		return core.PublishResult{}
	}
	res := r.Broadcast(frame)
	o.handleDropped(r, res)
	return res
}

// RoomOverview merges live subscribers with op log sizes.
type RoomOverview struct {
	Name        domain.RoomName  `json:"name"`
	MemberCount int              `json:"client_count"`
	Members     []core.MemberDTO `json:"members"`
	FurOps      int              `json:"fur_ops"`
	FlowerOps   int              `json:"flower_ops"`
}

func (o *Orchestrator) Overview() []RoomOverview {
	live := make(map[domain.RoomName][]core.MemberDTO)
	for _, room := range o.Rooms.All() {
		live[room.Name()] = room.MembersSnapshot()
	}
	stats := o.Log.Stats()
	out := make([]RoomOverview, 0, len(stats))
	for _, st := range stats {
		members := live[st.Name]
		if members == nil {
			members = []core.MemberDTO{}
		}
		out = append(out, RoomOverview{
			Name:        st.Name,
			MemberCount: len(members),
			Members:     members,
			FurOps:      st.FurOps,
			FlowerOps:   st.FlowerOps,
		})
	}
	return out
}
