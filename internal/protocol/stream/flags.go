package stream

import "fmt"

// WriteBooleanGroup packs up to 8 flags into one byte, flag i at bit 1<<i.
func (s *Stream) WriteBooleanGroup(flags ...bool) error {
	if len(flags) > 8 {
		return fmt.Errorf("%w: got %d", ErrTooManyFlags, len(flags))
	}
	var v uint8
	for i, set := range flags {
		if set {
			v |= 1 << i
		}
	}
	return s.WriteUint8(v)
}

// ReadBooleanGroup always returns 8 flags. Callers track how many of them
// the writer meant.
func (s *Stream) ReadBooleanGroup() ([8]bool, error) {
	var flags [8]bool
	v, err := s.ReadUint8()
	if err != nil {
		return flags, err
	}
	for i := range flags {
		flags[i] = v&(1<<i) != 0
	}
	return flags, nil
}
