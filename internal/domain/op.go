// Package domain contains room names, operation kinds and the ingress decoder.
package domain

import (
	"encoding/json"
	"errors"
	"strconv"
)

// Operation discriminators recognised by the op log.
const (
	OpPaint           = "paint"
	OpClearFur        = "clear_fur"
	OpSeed            = "seed"
	OpCheeseSeed      = "cheese_seed"
	OpRosePick        = "rose_pick"
	OpRosePlaceBall   = "rose_place_ball"
	OpRosePlaceFlower = "rose_place_flower"
	OpClearFlowers    = "clear_flowers"
)

var (
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrInvalidJSON     = errors.New("invalid JSON")
	ErrInvalidPayload  = errors.New("invalid payload")
)

// OpKind is the closed set of ways the op log reacts to an operation.
type OpKind int

const (
	// KindPassThrough ops are broadcast but never persisted.
	KindPassThrough OpKind = iota
	KindFurAppend
	KindFurClear
	KindFlowerAppend
	KindFlowerClear
)

func (k OpKind) String() string {
	switch k {
	case KindFurAppend:
		return "fur_append"
	case KindFurClear:
		return "fur_clear"
	case KindFlowerAppend:
		return "flower_append"
	case KindFlowerClear:
		return "flower_clear"
	default:
		return "pass_through"
	}
}

// Persisted reports whether the op log keeps any trace of this kind.
func (k OpKind) Persisted() bool { return k != KindPassThrough }

// ClassifyOp maps a wire discriminator onto its OpKind.
func ClassifyOp(typ string) OpKind {
	switch typ {
	case OpPaint:
		return KindFurAppend
	case OpClearFur:
		return KindFurClear
	case OpSeed, OpCheeseSeed, OpRosePick, OpRosePlaceBall, OpRosePlaceFlower:
		return KindFlowerAppend
	case OpClearFlowers:
		return KindFlowerClear
	default:
		return KindPassThrough
	}
}

// Op is a stamped client operation. Raw is the exact JSON that is persisted
// and broadcast; the store never looks inside it.
type Op struct {
	Type     string
	Kind     OpKind
	Room     RoomName
	ServerTs int64
	Raw      json.RawMessage
}

// ParseOp decodes a client body and stamps room and serverTs over whatever
// the client sent for those two fields.
func ParseOp(body []byte, room RoomName, serverTs int64) (Op, error) {
	if !json.Valid(body) {
		return Op{}, ErrInvalidJSON
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return Op{}, ErrInvalidPayload
	}

	var typ string
	if raw, ok := fields["type"]; ok {
		// a non-string type is treated as unknown
		_ = json.Unmarshal(raw, &typ)
	}

	roomJSON, err := json.Marshal(string(room))
	if err != nil {
		return Op{}, err
	}
	fields["room"] = roomJSON
	fields["serverTs"] = json.RawMessage(strconv.FormatInt(serverTs, 10))

	raw, err := json.Marshal(fields)
	if err != nil {
		return Op{}, err
	}
	return Op{
		Type:     typ,
		Kind:     ClassifyOp(typ),
		Room:     room,
		ServerTs: serverTs,
		Raw:      raw,
	}, nil
}
