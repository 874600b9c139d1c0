// Package store holds the per-room operation logs and writes them to stable
// storage.
//
// Each room keeps two independent append logs: fur ops and flower ops. Both
// are bounded; appends past the bound evict the oldest entries. A snapshot is
// always the fur log followed by the flower log, since clients replay it
// positionally.
package store

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/dkeye/Garden/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxFurOps    = 50000
	DefaultMaxFlowerOps = 12000
)

// Limits bounds the length of each per-room log.
type Limits struct {
	MaxFurOps    int `mapstructure:"max_fur_ops"`
	MaxFlowerOps int `mapstructure:"max_flower_ops"`
}

func (l Limits) withDefaults() Limits {
	if l.MaxFurOps <= 0 {
		l.MaxFurOps = DefaultMaxFurOps
	}
	if l.MaxFlowerOps <= 0 {
		l.MaxFlowerOps = DefaultMaxFlowerOps
	}
	return l
}

// RoomState is the persisted shape of one room.
type RoomState struct {
	FurOps    []json.RawMessage `json:"furOps"`
	FlowerOps []json.RawMessage `json:"flowerOps"`
}

func newRoomState() *RoomState {
	return &RoomState{
		FurOps:    make([]json.RawMessage, 0),
		FlowerOps: make([]json.RawMessage, 0),
	}
}

// World is the persisted document: every room ever referenced.
type World struct {
	Rooms map[domain.RoomName]*RoomState `json:"rooms"`
}

// Saver is notified after every persisted mutation.
type Saver interface {
	ScheduleSave()
}

// Store owns the world state. Rooms are created on first reference and never
// removed.
type Store struct {
	mu     sync.RWMutex
	world  World
	limits Limits
	saver  Saver
}

func NewStore(limits Limits) *Store {
	return &Store{
		world:  World{Rooms: make(map[domain.RoomName]*RoomState)},
		limits: limits.withDefaults(),
	}
}

// AttachSaver wires the persistence scheduler. Must be called before the
// store is shared.
func (s *Store) AttachSaver(sv Saver) {
	s.saver = sv
}

func (s *Store) Limits() Limits { return s.limits }

// room returns the state for name, creating it. Caller holds s.mu.
func (s *Store) room(name domain.RoomName) *RoomState {
	st, ok := s.world.Rooms[name]
	if !ok {
		st = newRoomState()
		s.world.Rooms[name] = st
	}
	return st
}

// Apply dispatches op on its kind. Pass-through ops touch nothing but the
// room's existence; they report false.
func (s *Store) Apply(op domain.Op) bool {
	s.mu.Lock()
	st := s.room(op.Room)
	switch op.Kind {
	case domain.KindFurAppend:
		st.FurOps = appendBounded(st.FurOps, op.Raw, s.limits.MaxFurOps)
	case domain.KindFurClear:
		st.FurOps = make([]json.RawMessage, 0)
	case domain.KindFlowerAppend:
		st.FlowerOps = appendBounded(st.FlowerOps, op.Raw, s.limits.MaxFlowerOps)
	case domain.KindFlowerClear:
		st.FlowerOps = make([]json.RawMessage, 0)
	default:
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	log.Debug().Str("module", "store").Str("room", string(op.Room)).Str("kind", op.Kind.String()).Msg("op applied")
	if s.saver != nil {
		s.saver.ScheduleSave()
	}
	return true
}

// appendBounded appends and then drops the oldest entries over limit.
func appendBounded(ops []json.RawMessage, op json.RawMessage, limit int) []json.RawMessage {
	ops = append(ops, op)
	if over := len(ops) - limit; over > 0 {
		clear(ops[:over])
		ops = ops[over:]
	}
	return ops
}

// Snapshot returns fur ops followed by flower ops for the room.
func (s *Store) Snapshot(name domain.RoomName) []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.room(name)
	out := make([]json.RawMessage, 0, len(st.FurOps)+len(st.FlowerOps))
	out = append(out, st.FurOps...)
	out = append(out, st.FlowerOps...)
	return out
}

// RoomStats is a read-only view of one room's log sizes.
type RoomStats struct {
	Name      domain.RoomName `json:"name"`
	FurOps    int             `json:"fur_ops"`
	FlowerOps int             `json:"flower_ops"`
}

// Stats lists every known room, sorted by name.
func (s *Store) Stats() []RoomStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RoomStats, 0, len(s.world.Rooms))
	for name, st := range s.world.Rooms {
		out = append(out, RoomStats{Name: name, FurOps: len(st.FurOps), FlowerOps: len(st.FlowerOps)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Encode serialises the whole world as it is right now.
func (s *Store) Encode() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return json.Marshal(&s.world)
}

// Restore replaces the world with a decoded document, trimming every room to
// the current limits. Room keys are sanitised the same way ingress does; keys
// that collapse to one name are merged in key order.
func (s *Store) Restore(data []byte) error {
	var w World
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	keys := make([]domain.RoomName, 0, len(w.Rooms))
	for name := range w.Rooms {
		keys = append(keys, name)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rooms := make(map[domain.RoomName]*RoomState, len(w.Rooms))
	for _, name := range keys {
		clean := domain.SanitizeRoomName(string(name))
		st, ok := rooms[clean]
		if !ok {
			st = newRoomState()
			rooms[clean] = st
		} else {
			log.Warn().Str("module", "store").Str("room", string(clean)).Str("key", string(name)).Msg("merging persisted rooms with the same name")
		}
		if src := w.Rooms[name]; src != nil {
			st.FurOps = append(st.FurOps, src.FurOps...)
			st.FlowerOps = append(st.FlowerOps, src.FlowerOps...)
		}
	}
	for _, st := range rooms {
		st.FurOps = tail(st.FurOps, s.limits.MaxFurOps)
		st.FlowerOps = tail(st.FlowerOps, s.limits.MaxFlowerOps)
	}

	s.mu.Lock()
	s.world = World{Rooms: rooms}
	s.mu.Unlock()
	return nil
}

func tail(ops []json.RawMessage, limit int) []json.RawMessage {
	if len(ops) > limit {
		ops = ops[len(ops)-limit:]
	}
	out := make([]json.RawMessage, 0, len(ops))
	for _, op := range ops {
		if len(op) > 0 {
			out = append(out, op)
		}
	}
	return out
}
