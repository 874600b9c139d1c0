package app

import (
	"sync"

	"github.com/dkeye/Garden/internal/domain"
)

// RoomLocks hands out one mutex per room name. Entries are never removed,
// matching the op log, which never forgets a room either.
// The zero value is ready to use.
type RoomLocks struct {
	mu    sync.Mutex
	locks map[domain.RoomName]*sync.Mutex
}

// Lock acquires the room's mutex and returns its unlock func.
func (l *RoomLocks) Lock(name domain.RoomName) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[domain.RoomName]*sync.Mutex)
	}
	m, ok := l.locks[name]
	if !ok {
		m = &sync.Mutex{}
		l.locks[name] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
