package packet

import "github.com/danmuck/skirmish/internal/protocol/stream"

// Joined acknowledges an accepted handshake.
type Joined struct {
	PlayerID uint16
	TickRate uint8
}

func (Joined) Kind() Kind { return KindJoined }

func (p Joined) Serialize(s *stream.Stream) error {
	if err := s.WriteUint16(p.PlayerID); err != nil {
		return err
	}
	return s.WriteUint8(p.TickRate)
}

func decodeJoined(s *stream.Stream) (Packet, error) {
	id, err := s.ReadUint16()
	if err != nil {
		return nil, err
	}
	rate, err := s.ReadUint8()
	if err != nil {
		return nil, err
	}
	return Joined{PlayerID: id, TickRate: rate}, nil
}
