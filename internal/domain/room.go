package domain

const (
	DefaultRoom    RoomName = "main"
	MaxRoomNameLen          = 32
)

// RoomName partitions both the op log and the live subscriber set.
type RoomName string

// SanitizeRoomName keeps [A-Za-z0-9_-], truncates to MaxRoomNameLen and
// falls back to DefaultRoom when nothing usable is left.
func SanitizeRoomName(raw string) RoomName {
	buf := make([]byte, 0, min(len(raw), MaxRoomNameLen))
	for i := 0; i < len(raw) && len(buf) < MaxRoomNameLen; i++ {
		if isRoomByte(raw[i]) {
			buf = append(buf, raw[i])
		}
	}
	if len(buf) == 0 {
		return DefaultRoom
	}
	return RoomName(buf)
}

func isRoomByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '_' || b == '-':
		return true
	}
	return false
}
