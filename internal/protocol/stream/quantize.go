package stream

import (
	"fmt"
	"math"
)

const (
	float8Steps  = 1<<8 - 1
	float16Steps = 1<<16 - 1
)

// WriteFloat8 writes v, which must lie in [min, max], as one byte.
func (s *Stream) WriteFloat8(v, min, max float64) error {
	code, err := quantize(v, min, max, float8Steps)
	if err != nil {
		return err
	}
	return s.WriteUint8(uint8(code))
}

// ReadFloat8 reads a value written by WriteFloat8 with the same range.
func (s *Stream) ReadFloat8(min, max float64) (float64, error) {
	if err := checkRange(min, max); err != nil {
		return 0, err
	}
	code, err := s.ReadUint8()
	if err != nil {
		return 0, err
	}
	return dequantize(float64(code), min, max, float8Steps), nil
}

// WriteFloat16 writes v, which must lie in [min, max], as two bytes.
func (s *Stream) WriteFloat16(v, min, max float64) error {
	code, err := quantize(v, min, max, float16Steps)
	if err != nil {
		return err
	}
	return s.WriteUint16(uint16(code))
}

// ReadFloat16 reads a value written by WriteFloat16 with the same range.
func (s *Stream) ReadFloat16(min, max float64) (float64, error) {
	if err := checkRange(min, max); err != nil {
		return 0, err
	}
	code, err := s.ReadUint16()
	if err != nil {
		return 0, err
	}
	return dequantize(float64(code), min, max, float16Steps), nil
}

func checkRange(min, max float64) error {
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) || min >= max {
		return fmt.Errorf("%w: [%v, %v]", ErrInvalidRange, min, max)
	}
	return nil
}

func quantize(v, min, max float64, steps float64) (float64, error) {
	if err := checkRange(min, max); err != nil {
		return 0, err
	}
	if math.IsNaN(v) || v < min || v > max {
		return 0, fmt.Errorf("%w: %v not in [%v, %v]", ErrOutOfRange, v, min, max)
	}
	code := math.Floor((v-min)/(max-min)*steps + 0.5)
	return math.Min(code, steps), nil
}

func dequantize(code, min, max float64, steps float64) float64 {
	return min + code/steps*(max-min)
}
