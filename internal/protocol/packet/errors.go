package packet

import (
	"errors"
	"fmt"

	"github.com/danmuck/skirmish/internal/protocol/stream"
)

var (
	ErrDuplicateKind = errors.New("packet: kind already registered")
	ErrTooManyKinds  = errors.New("packet: more kinds than one-byte tags")
	ErrNilDecoder    = errors.New("packet: nil decoder")
	ErrUnregistered  = errors.New("packet: kind not registered")
	ErrUnknownTag    = errors.New("packet: unknown tag")
	ErrNilPacket     = errors.New("packet: nil packet")
)

// DecodeError describes why one packet could not be decoded.
type DecodeError struct {
	Direction Direction
	Offset    int
	// Tag is -1 when the tag byte itself could not be read.
	Tag  int
	Kind Kind
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Tag < 0 {
		return fmt.Sprintf("packet: %s decode at offset %d: %v", e.Direction, e.Offset, e.Err)
	}
	if e.Kind == 0 {
		return fmt.Sprintf("packet: %s decode tag=%d at offset %d: %v", e.Direction, e.Tag, e.Offset, e.Err)
	}
	return fmt.Sprintf("packet: %s decode %s (tag=%d) at offset %d: %v", e.Direction, e.Kind, e.Tag, e.Offset, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Reason is a short label for metrics.
func (e *DecodeError) Reason() string {
	switch {
	case errors.Is(e.Err, ErrUnknownTag):
		return "unknown_tag"
	case errors.Is(e.Err, stream.ErrOutOfBounds):
		return "truncated"
	default:
		return "malformed"
	}
}
