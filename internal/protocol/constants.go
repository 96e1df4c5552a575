package protocol

import (
	"fmt"
	"math"
)

const (
	// Version must match between client and server; a mismatch ends the
	// connection with DisconnectInvalidProtocol.
	Version uint32 = 1

	// MaxNameLength is the byte budget of a player name on the wire,
	// terminator included.
	MaxNameLength = 24

	// DefaultTickRate is the server simulation rate in ticks per second.
	DefaultTickRate = 30

	// DefaultSendBufferSize is the capacity of the reusable encode stream.
	DefaultSendBufferSize = 1024
)

// Aim angles travel as quantized float16 over [AimMin, AimMax].
const (
	AimMin = -math.Pi
	AimMax = math.Pi
)

// DisconnectReason explains why an endpoint dropped the connection.
type DisconnectReason uint8

const (
	DisconnectInvalidProtocol DisconnectReason = iota
	DisconnectInvalidPacket
)

// closeCodeBase is the start of the WebSocket private close code range.
const closeCodeBase = 4000

func (r DisconnectReason) String() string {
	switch r {
	case DisconnectInvalidProtocol:
		return "InvalidProtocol"
	case DisconnectInvalidPacket:
		return "InvalidPacket"
	default:
		return fmt.Sprintf("DisconnectReason(%d)", uint8(r))
	}
}

// CloseCode maps r into the WebSocket private close code range.
func (r DisconnectReason) CloseCode() int {
	return closeCodeBase + int(r)
}

// ReasonFromCloseCode inverts CloseCode. ok is false for codes outside the
// range this package assigns.
func ReasonFromCloseCode(code int) (DisconnectReason, bool) {
	if code < closeCodeBase || code > DisconnectInvalidPacket.CloseCode() {
		return 0, false
	}
	return DisconnectReason(code - closeCodeBase), true
}
