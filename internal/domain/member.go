package domain

import "time"

// ConnID identifies a live subscriber connection for the lifetime of the process.
type ConnID uint64

// Member is the subscriber's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	ID        ConnID
	Room      RoomName
	Transport string
	Addr      string
	JoinedAt  time.Time
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(id ConnID, room RoomName, transport, addr string) *Member {
	return &Member{
		ID:        id,
		Room:      room,
		Transport: transport,
		Addr:      addr,
		JoinedAt:  time.Now(),
	}
}
