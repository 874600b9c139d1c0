package core

import (
	"sort"
	"sync"

	"github.com/dkeye/Garden/internal/domain"
	"github.com/rs/zerolog/log"
)

// roomImpl is a threadsafe in-memory subscriber set.
// It never closes adapter-owned resources.
type roomImpl struct {
	name domain.RoomName
	mu   sync.RWMutex
	byID map[domain.ConnID]MemberSession
}

func NewRoomService(name domain.RoomName) RoomService {
	return &roomImpl{
		name: name,
		byID: make(map[domain.ConnID]MemberSession),
	}
}

func (r *roomImpl) Name() domain.RoomName { return r.name }

func (r *roomImpl) MemberCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func (r *roomImpl) AddMember(ms MemberSession) {
	id := ms.Meta().ID
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[id] = ms
	log.Info().Str("module", "core.room").Str("room", string(r.name)).Uint64("conn", uint64(id)).Msg("member added")
}

func (r *roomImpl) RemoveMember(id domain.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	log.Info().Str("module", "core.room").Str("room", string(r.name)).Uint64("conn", uint64(id)).Msg("member removed")
	return true
}

func (r *roomImpl) Broadcast(data Frame) PublishResult {
	res := r.each(func(c SignalConnection) error { return c.TrySend(data) })
	log.Debug().Str("module", "core.room").Str("room", string(r.name)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) Ping() PublishResult {
	return r.each(func(c SignalConnection) error { return c.TryPing() })
}

func (r *roomImpl) each(send func(SignalConnection) error) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for _, m := range r.byID {
		if err := send(m.Signal()); err != nil {
			res.Dropped = append(res.Dropped, m)
			continue
		}
		res.SendTo++
	}
	return res
}

func (r *roomImpl) MembersSnapshot() []MemberDTO {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]MemberDTO, 0, len(r.byID))
	for _, ms := range r.byID {
		m := ms.Meta()
		out = append(out, MemberDTO{ID: m.ID, Transport: m.Transport, JoinedAt: m.JoinedAt})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
