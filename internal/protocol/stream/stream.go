// Package stream owns byte-level encoding for the game wire format.
//
// Ownership boundary:
// - fixed-width integer and float primitives (big-endian)
// - quantized 8/16 bit floats over a known range
// - zero-terminated UTF-8 strings with a byte budget
// - bit-packed boolean groups
package stream

import (
	"encoding/binary"
	"math"
)

// Stream is a byte buffer paired with a read/write cursor.
// A Stream is not safe for concurrent use.
type Stream struct {
	buf      []byte
	index    int
	growable bool
}

// New returns a write stream with a fixed capacity. Reuse it across sends
// by calling Reset before each encode.
func New(capacity int) *Stream {
	if capacity < 0 {
		capacity = 0
	}
	return &Stream{buf: make([]byte, capacity)}
}

// NewGrowable returns a write stream that extends its buffer on demand.
func NewGrowable(initial int) *Stream {
	if initial < 0 {
		initial = 0
	}
	return &Stream{buf: make([]byte, 0, initial), growable: true}
}

// Wrap returns a stream positioned at the start of b. The stream reads and
// writes b in place and never grows past it.
func Wrap(b []byte) *Stream {
	return &Stream{buf: b}
}

// BytesLeft returns the number of bytes between the cursor and the end of
// the buffer.
func (s *Stream) BytesLeft() int {
	return len(s.buf) - s.index
}

// Bytes returns the bytes written so far, buf[0:cursor]. The slice aliases
// the stream buffer and is only valid until the next write.
func (s *Stream) Bytes() []byte {
	return s.buf[:s.index]
}

func (s *Stream) Index() int {
	return s.index
}

func (s *Stream) Cap() int {
	return len(s.buf)
}

// Seek moves the cursor to i.
func (s *Stream) Seek(i int) error {
	if i < 0 {
		return ErrNegativeIndex
	}
	if i > len(s.buf) {
		return &BoundsError{Op: "Seek", Index: s.index, Need: i - s.index, Left: s.BytesLeft()}
	}
	s.index = i
	return nil
}

// Reset rewinds the cursor to 0 without touching the buffer.
func (s *Stream) Reset() {
	s.index = 0
}

func (s *Stream) reserve(op string, n int) error {
	left := len(s.buf) - s.index
	if left >= n {
		return nil
	}
	if !s.growable {
		return &BoundsError{Op: op, Index: s.index, Need: n, Left: left}
	}
	s.buf = append(s.buf, make([]byte, n-left)...)
	return nil
}

func (s *Stream) take(op string, n int) ([]byte, error) {
	if left := len(s.buf) - s.index; left < n {
		return nil, &BoundsError{Op: op, Index: s.index, Need: n, Left: left}
	}
	b := s.buf[s.index : s.index+n]
	s.index += n
	return b, nil
}

func (s *Stream) put(op string, n int) ([]byte, error) {
	if err := s.reserve(op, n); err != nil {
		return nil, err
	}
	b := s.buf[s.index : s.index+n]
	s.index += n
	return b, nil
}

func (s *Stream) WriteUint8(v uint8) error {
	b, err := s.put("WriteUint8", 1)
	if err != nil {
		return err
	}
	b[0] = v
	return nil
}

func (s *Stream) WriteInt8(v int8) error {
	b, err := s.put("WriteInt8", 1)
	if err != nil {
		return err
	}
	b[0] = uint8(v)
	return nil
}

func (s *Stream) WriteUint16(v uint16) error {
	b, err := s.put("WriteUint16", 2)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(b, v)
	return nil
}

func (s *Stream) WriteInt16(v int16) error {
	b, err := s.put("WriteInt16", 2)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint16(b, uint16(v))
	return nil
}

func (s *Stream) WriteUint32(v uint32) error {
	b, err := s.put("WriteUint32", 4)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(b, v)
	return nil
}

func (s *Stream) WriteInt32(v int32) error {
	b, err := s.put("WriteInt32", 4)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(b, uint32(v))
	return nil
}

func (s *Stream) WriteFloat32(v float32) error {
	b, err := s.put("WriteFloat32", 4)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint32(b, math.Float32bits(v))
	return nil
}

func (s *Stream) WriteFloat64(v float64) error {
	b, err := s.put("WriteFloat64", 8)
	if err != nil {
		return err
	}
	binary.BigEndian.PutUint64(b, math.Float64bits(v))
	return nil
}

func (s *Stream) ReadUint8() (uint8, error) {
	b, err := s.take("ReadUint8", 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *Stream) ReadInt8() (int8, error) {
	b, err := s.take("ReadInt8", 1)
	if err != nil {
		return 0, err
	}
	return int8(b[0]), nil
}

func (s *Stream) ReadUint16() (uint16, error) {
	b, err := s.take("ReadUint16", 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (s *Stream) ReadInt16() (int16, error) {
	b, err := s.take("ReadInt16", 2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func (s *Stream) ReadUint32() (uint32, error) {
	b, err := s.take("ReadUint32", 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (s *Stream) ReadInt32() (int32, error) {
	b, err := s.take("ReadInt32", 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (s *Stream) ReadFloat32() (float32, error) {
	b, err := s.take("ReadFloat32", 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

func (s *Stream) ReadFloat64() (float64, error) {
	b, err := s.take("ReadFloat64", 8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}
