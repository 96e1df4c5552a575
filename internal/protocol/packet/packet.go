// Package packet owns tag dispatch for game messages.
//
// Ownership boundary:
// - packet kinds and their body codecs
// - per-direction tag tables (client->server, server->client)
// - best-effort multi-packet decoding
//
// Wire layout per direction:
//
//	packet := tag:uint8, body
//	stream := packet*
package packet

import (
	"fmt"

	"github.com/danmuck/skirmish/internal/protocol/stream"
)

// Kind identifies a packet variant independently of its wire tag. Tags are
// assigned per direction by registration order; kinds never change.
type Kind uint16

const (
	KindConnect Kind = iota + 1
	KindInput
	KindJoined
)

func (k Kind) String() string {
	switch k {
	case KindConnect:
		return "connect"
	case KindInput:
		return "input"
	case KindJoined:
		return "joined"
	default:
		return fmt.Sprintf("kind(%d)", uint16(k))
	}
}

// Packet is one message value. Serialize writes the body only; the
// registry writes the tag.
type Packet interface {
	Kind() Kind
	Serialize(s *stream.Stream) error
}

// Decoder builds a complete packet from the body at the stream cursor. It
// returns an error instead of a partially populated value.
type Decoder func(s *stream.Stream) (Packet, error)

// Entry binds a kind to its body decoder.
type Entry struct {
	Kind   Kind
	Decode Decoder
}

// Direction names the tag namespace a registry serves.
type Direction uint8

const (
	ClientToServerDirection Direction = iota
	ServerToClientDirection
)

func (d Direction) String() string {
	switch d {
	case ClientToServerDirection:
		return "client_to_server"
	case ServerToClientDirection:
		return "server_to_client"
	default:
		return fmt.Sprintf("direction(%d)", uint8(d))
	}
}
