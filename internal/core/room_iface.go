package core

import (
	"time"

	"github.com/dkeye/Garden/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// MemberDTO is a read-only view for APIs (no transport fields).
type MemberDTO struct {
	ID        domain.ConnID `json:"id"`
	Transport string        `json:"transport"`
	JoinedAt  time.Time     `json:"joined_at"`
}

// RoomService is the core-facing API of a room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	Name() domain.RoomName
	MemberCount() int
	MembersSnapshot() []MemberDTO

	AddMember(ms MemberSession)
	// RemoveMember reports whether the member was present.
	RemoveMember(id domain.ConnID) bool
	Broadcast(data Frame) PublishResult
	Ping() PublishResult
}

// RoomManager tracks rooms that currently have subscribers.
type RoomManager interface {
	Get(name domain.RoomName) (RoomService, bool)
	GetOrCreate(name domain.RoomName) RoomService
	All() []RoomService
	// StopRoomIfEmpty drops the room entry when no members remain.
	StopRoomIfEmpty(name domain.RoomName) bool
}
