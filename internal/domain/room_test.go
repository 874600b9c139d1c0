package domain

import (
	"strings"
	"testing"
)

func TestSanitizeRoomName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want RoomName
	}{
		{"strips punctuation and spaces", "Room 1!", "Room1"},
		{"empty falls back", "", DefaultRoom},
		{"whitespace only falls back", "   \t", DefaultRoom},
		{"only invalid falls back", "!!!", DefaultRoom},
		{"keeps dash and underscore", "a-b_c", "a-b_c"},
		{"case sensitive", "MiXeD", "MiXeD"},
		{"drops non ascii", "café", "caf"},
		{"truncates", strings.Repeat("x", 40), RoomName(strings.Repeat("x", 32))},
		{"truncates after filtering", strings.Repeat("a b", 20), RoomName(strings.Repeat("ab", 16))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeRoomName(tt.in); got != tt.want {
				t.Errorf("SanitizeRoomName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
