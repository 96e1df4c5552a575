package stream

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds   = errors.New("stream: out of bounds")
	ErrOutOfRange    = errors.New("stream: value out of range")
	ErrInvalidRange  = errors.New("stream: invalid quantization range")
	ErrTooManyFlags  = errors.New("stream: boolean group holds at most 8 flags")
	ErrNegativeIndex = errors.New("stream: negative index")
)

// BoundsError reports an access that would cross the end of the buffer.
type BoundsError struct {
	Op    string
	Index int
	Need  int
	Left  int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("stream: %s at index %d needs %d bytes, %d left", e.Op, e.Index, e.Need, e.Left)
}

func (e *BoundsError) Unwrap() error {
	return ErrOutOfBounds
}
