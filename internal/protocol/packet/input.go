package packet

import (
	"github.com/danmuck/skirmish/internal/protocol"
	"github.com/danmuck/skirmish/internal/protocol/stream"
)

// Input carries one frame of player controls: a boolean group
// (up, down, left, right, attack) and the aim angle as a float16 over
// [AimMin, AimMax] radians.
type Input struct {
	Up     bool
	Down   bool
	Left   bool
	Right  bool
	Attack bool
	Aim    float64
}

func (Input) Kind() Kind { return KindInput }

func (p Input) Serialize(s *stream.Stream) error {
	if err := s.WriteBooleanGroup(p.Up, p.Down, p.Left, p.Right, p.Attack); err != nil {
		return err
	}
	return s.WriteFloat16(p.Aim, protocol.AimMin, protocol.AimMax)
}

func decodeInput(s *stream.Stream) (Packet, error) {
	flags, err := s.ReadBooleanGroup()
	if err != nil {
		return nil, err
	}
	aim, err := s.ReadFloat16(protocol.AimMin, protocol.AimMax)
	if err != nil {
		return nil, err
	}
	return Input{
		Up:     flags[0],
		Down:   flags[1],
		Left:   flags[2],
		Right:  flags[3],
		Attack: flags[4],
		Aim:    aim,
	}, nil
}
