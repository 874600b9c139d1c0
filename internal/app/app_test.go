package app

import (
	"sync"
	"testing"
	"time"

	"github.com/dkeye/Garden/internal/core"
	"github.com/dkeye/Garden/internal/core/coretest"
	"github.com/dkeye/Garden/internal/domain"
)

func TestRegistryIDsNeverReused(t *testing.T) {
	r := NewRegistry()
	seen := make(map[domain.ConnID]bool)
	for i := 0; i < 100; i++ {
		id := r.NextID()
		if seen[id] {
			t.Fatalf("id %d reused", id)
		}
		seen[id] = true
	}
}

func TestRegistryBindUnbind(t *testing.T) {
	r := NewRegistry()
	id := r.NextID()
	sess := core.NewMemberSession(domain.NewMember(id, "a", "sse", "127.0.0.1"), coretest.NewConn())
	cancelled := false
	r.BindSession(id, "a", sess, func() { cancelled = true })

	room, got, ok := r.RoomOf(id)
	if !ok || room != "a" || got != sess {
		t.Fatalf("RoomOf = %q %v %v", room, got, ok)
	}
	if r.Count() != 1 {
		t.Fatalf("Count = %d", r.Count())
	}

	cancel, ok := r.Unbind(id)
	if !ok {
		t.Fatal("Unbind missed a bound id")
	}
	cancel()
	if !cancelled {
		t.Fatal("Unbind returned the wrong cancel func")
	}
	if _, ok := r.Unbind(id); ok {
		t.Fatal("second Unbind should be a no-op")
	}
	if r.Count() != 0 {
		t.Fatalf("Count = %d", r.Count())
	}
}

func TestRoomLocksSerialiseSameRoom(t *testing.T) {
	var locks RoomLocks
	unlock := locks.Lock("a")

	acquired := make(chan struct{})
	go func() {
		u := locks.Lock("a")
		close(acquired)
		u()
	}()

	other := make(chan struct{})
	go func() {
		u := locks.Lock("b")
		close(other)
		u()
	}()
	select {
	case <-other:
	case <-time.After(time.Second):
		t.Fatal("lock on another room blocked")
	}

	select {
	case <-acquired:
		t.Fatal("same room acquired twice")
	case <-time.After(20 * time.Millisecond):
	}
	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock")
	}
}

func TestRoomLocksConcurrent(t *testing.T) {
	var locks RoomLocks
	var wg sync.WaitGroup
	counter := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("a")
			counter++
			unlock()
		}()
	}
	wg.Wait()
	if counter != 50 {
		t.Fatalf("counter = %d", counter)
	}
}

func TestRoomManagerLifecycle(t *testing.T) {
	m := NewRoomManager()
	if _, ok := m.Get("a"); ok {
		t.Fatal("room exists before creation")
	}
	room := m.GetOrCreate("a")
	if again := m.GetOrCreate("a"); again != room {
		t.Fatal("GetOrCreate returned a different room")
	}

	sess := core.NewMemberSession(domain.NewMember(1, "a", "sse", ""), coretest.NewConn())
	room.AddMember(sess)
	if m.StopRoomIfEmpty("a") {
		t.Fatal("stopped a room with a member")
	}
	all := m.All()
	if len(all) != 1 || all[0].Name() != "a" || all[0].MemberCount() != 1 {
		t.Fatalf("All = %+v", all)
	}

	room.RemoveMember(1)
	if !m.StopRoomIfEmpty("a") {
		t.Fatal("empty room not stopped")
	}
	if len(m.All()) != 0 {
		t.Fatal("room still listed")
	}
}

func TestSimplePolicyKicks(t *testing.T) {
	if got := (SimplePolicy{}).OnBackPressure(nil, nil); got != KickMember {
		t.Fatalf("action = %v, want KickMember", got)
	}
}
