package core

import "errors"

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Frame is one encoded JSON message for a subscriber.
type Frame []byte

// SignalConnection abstracts a push transport to one subscriber.
// Owned by the adapter; the adapter must Close() it.
// TrySend and TryPing never block: a full buffer is ErrBackpressure.
type SignalConnection interface {
	TrySend(Frame) error
	TryPing() error
	Close()
}
