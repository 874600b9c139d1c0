package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dkeye/Garden/internal/core"
	"github.com/dkeye/Garden/internal/domain"
	"github.com/rs/zerolog/log"
)

type sessionEntry struct {
	RoomName domain.RoomName
	Session  core.MemberSession
	Cancel   context.CancelFunc
}

// Registry maps live connection ids to their room and session.
// Ids come from a process-lifetime counter and are never reused.
type Registry struct {
	nextID   atomic.Uint64
	mu       sync.RWMutex
	sessions map[domain.ConnID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.ConnID]*sessionEntry),
	}
}

func (r *Registry) NextID() domain.ConnID {
	return domain.ConnID(r.nextID.Add(1))
}

func (r *Registry) BindSession(
	id domain.ConnID,
	roomName domain.RoomName,
	sess core.MemberSession,
	cancel context.CancelFunc,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[id] = &sessionEntry{
		RoomName: roomName,
		Session:  sess,
		Cancel:   cancel,
	}
	log.Info().Str("module", "app.registry").Uint64("conn", uint64(id)).Str("room", string(roomName)).Msg("bound session")
}

func (r *Registry) RoomOf(id domain.ConnID) (domain.RoomName, core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.sessions[id]
	if !ok {
		return "", nil, false
	}
	return entry.RoomName, entry.Session, true
}

// Unbind removes the entry and returns its cancel func, if it was bound.
func (r *Registry) Unbind(id domain.ConnID) (context.CancelFunc, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.sessions[id]
	if !ok {
		return nil, false
	}
	delete(r.sessions, id)
	log.Info().Str("module", "app.registry").Uint64("conn", uint64(id)).Msg("unbind session")
	return entry.Cancel, true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
