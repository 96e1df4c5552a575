package packet

import (
	"github.com/danmuck/skirmish/internal/protocol"
	"github.com/danmuck/skirmish/internal/protocol/stream"
)

// Connect is the handshake a client sends first. Its body is
// protocol:uint32 followed by name:string(MaxNameLength).
type Connect struct {
	Protocol uint32
	Name     string
}

// NewConnect returns a handshake for the current protocol version.
func NewConnect(name string) Connect {
	return Connect{Protocol: protocol.Version, Name: name}
}

func (Connect) Kind() Kind { return KindConnect }

func (p Connect) Serialize(s *stream.Stream) error {
	if err := s.WriteUint32(p.Protocol); err != nil {
		return err
	}
	return s.WriteString(p.Name, protocol.MaxNameLength)
}

func decodeConnect(s *stream.Stream) (Packet, error) {
	version, err := s.ReadUint32()
	if err != nil {
		return nil, err
	}
	name, err := s.ReadString(protocol.MaxNameLength)
	if err != nil {
		return nil, err
	}
	return Connect{Protocol: version, Name: name}, nil
}
