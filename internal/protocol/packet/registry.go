package packet

import (
	"errors"
	"fmt"

	"github.com/danmuck/skirmish/internal/observability"
	"github.com/danmuck/skirmish/internal/protocol/stream"
	"github.com/rs/zerolog/log"
)

// MaxKinds is the number of distinct tags a one-byte discriminant allows.
const MaxKinds = 1 << 8

// Registry maps packet kinds to sequential one-byte tags for one direction.
// It is immutable after construction and safe for concurrent use.
type Registry struct {
	direction Direction
	entries   []Entry
	tags      map[Kind]uint8
}

// NewRegistry assigns tags 0, 1, 2, ... to entries in order.
func NewRegistry(direction Direction, entries ...Entry) (*Registry, error) {
	if len(entries) > MaxKinds {
		return nil, fmt.Errorf("%w: %d", ErrTooManyKinds, len(entries))
	}
	r := &Registry{
		direction: direction,
		entries:   make([]Entry, 0, len(entries)),
		tags:      make(map[Kind]uint8, len(entries)),
	}
	for _, e := range entries {
		if e.Decode == nil {
			return nil, fmt.Errorf("%w: %s", ErrNilDecoder, e.Kind)
		}
		if _, dup := r.tags[e.Kind]; dup {
			return nil, fmt.Errorf("%w: %s in %s", ErrDuplicateKind, e.Kind, direction)
		}
		r.tags[e.Kind] = uint8(len(r.entries))
		r.entries = append(r.entries, e)
	}
	return r, nil
}

// MustNewRegistry is NewRegistry for package-level tables built at startup.
func MustNewRegistry(direction Direction, entries ...Entry) *Registry {
	r, err := NewRegistry(direction, entries...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) Direction() Direction {
	return r.direction
}

func (r *Registry) Len() int {
	return len(r.entries)
}

// Tag returns the wire tag assigned to kind.
func (r *Registry) Tag(kind Kind) (uint8, bool) {
	tag, ok := r.tags[kind]
	return tag, ok
}

// Kind returns the kind registered under tag.
func (r *Registry) Kind(tag uint8) (Kind, bool) {
	if int(tag) >= len(r.entries) {
		return 0, false
	}
	return r.entries[tag].Kind, true
}

// SerializePacket writes the tag of p followed by its body. An unregistered
// kind is a programming error and is returned as ErrUnregistered. On any
// failure the cursor is restored.
func (r *Registry) SerializePacket(s *stream.Stream, p Packet) error {
	if p == nil {
		return ErrNilPacket
	}
	kind := p.Kind()
	tag, ok := r.tags[kind]
	if !ok {
		return fmt.Errorf("%w: %s in %s", ErrUnregistered, kind, r.direction)
	}
	start := s.Index()
	if err := s.WriteUint8(tag); err != nil {
		return err
	}
	if err := p.Serialize(s); err != nil {
		_ = s.Seek(start)
		return fmt.Errorf("packet: serialize %s: %w", kind, err)
	}
	observability.RecordPacketEncoded(r.direction.String(), kind.String())
	return nil
}

// Marshal encodes p into a freshly allocated slice.
func (r *Registry) Marshal(p Packet) ([]byte, error) {
	s := stream.NewGrowable(32)
	if err := r.SerializePacket(s, p); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

// DecodePacket reads one tag and body. Failures come back as *DecodeError
// with the cursor restored to the tag boundary.
func (r *Registry) DecodePacket(s *stream.Stream) (Packet, error) {
	start := s.Index()
	fail := func(tag int, kind Kind, err error) (Packet, error) {
		_ = s.Seek(start)
		return nil, &DecodeError{Direction: r.direction, Offset: start, Tag: tag, Kind: kind, Err: err}
	}

	tag, err := s.ReadUint8()
	if err != nil {
		return fail(-1, 0, err)
	}
	if int(tag) >= len(r.entries) {
		return fail(int(tag), 0, ErrUnknownTag)
	}
	entry := r.entries[tag]
	p, err := entry.Decode(s)
	if err != nil {
		return fail(int(tag), entry.Kind, err)
	}
	if p == nil {
		return fail(int(tag), entry.Kind, ErrNilPacket)
	}
	observability.RecordPacketDecoded(r.direction.String(), entry.Kind.String())
	return p, nil
}

// DeserializePacket is DecodePacket for untrusted input: the cause of a
// failure is logged and counted, and the caller only sees ok=false.
func (r *Registry) DeserializePacket(s *stream.Stream) (Packet, bool) {
	p, err := r.DecodePacket(s)
	if err != nil {
		reason := "malformed"
		var decodeErr *DecodeError
		if errors.As(err, &decodeErr) {
			reason = decodeErr.Reason()
		}
		observability.RecordPacketDropped(r.direction.String(), reason)
		log.Warn().
			Err(err).
			Str("direction", r.direction.String()).
			Str("reason", reason).
			Msg("failed to deserialize packet")
		return nil, false
	}
	return p, true
}

// DeserializeAllPackets decodes packets until the stream is exhausted or
// one fails. Packets decoded before a failure are returned in order.
func (r *Registry) DeserializeAllPackets(s *stream.Stream) []Packet {
	var packets []Packet
	for s.BytesLeft() > 0 {
		p, ok := r.DeserializePacket(s)
		if !ok {
			break
		}
		packets = append(packets, p)
	}
	return packets
}
