// Package game owns server-side session state.
//
// Ownership boundary:
// - handshake gating (a socket joins only after a valid Connect)
// - per-player latest input
// - the fixed-rate update loop
//
// Transport lifecycle belongs to internal/server; game only sees Conn.
package game

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/danmuck/skirmish/internal/observability"
	"github.com/danmuck/skirmish/internal/protocol"
	"github.com/danmuck/skirmish/internal/protocol/packet"
	"github.com/danmuck/skirmish/internal/protocol/stream"
	"github.com/rs/zerolog/log"
)

var ErrInvalidTickRate = errors.New("game: tick rate must be between 1 and 255")

// Conn is the transport handle of one connected socket.
type Conn interface {
	ID() uint64
	RemoteAddr() string
	Send(data []byte) error
	Close(reason protocol.DisconnectReason) error
}

// Player is an admitted socket.
type Player struct {
	ID       uint16
	Name     string
	Input    packet.Input
	JoinedAt time.Time
}

type Config struct {
	TickRate int
}

func DefaultConfig() Config {
	return Config{TickRate: protocol.DefaultTickRate}
}

// Game tracks admitted players and runs the update loop.
type Game struct {
	cfg      Config
	inbound  *packet.Registry
	outbound *packet.Registry
	now      func() time.Time

	mu         sync.Mutex
	players    map[uint64]*Player
	nextID     uint16
	tick       uint64
	lastUpdate time.Time
	deltaTime  float64
}

// New builds a game reading inbound packets with inbound and replying with
// outbound.
func New(cfg Config, inbound, outbound *packet.Registry) (*Game, error) {
	if cfg.TickRate <= 0 || cfg.TickRate > 255 {
		return nil, ErrInvalidTickRate
	}
	return &Game{
		cfg:      cfg,
		inbound:  inbound,
		outbound: outbound,
		now:      time.Now,
		players:  make(map[uint64]*Player),
	}, nil
}

// Run ticks the game at the configured rate until ctx is done.
func (g *Game) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(g.cfg.TickRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	g.mu.Lock()
	g.lastUpdate = g.now()
	g.mu.Unlock()

	log.Info().Int("tick_rate", g.cfg.TickRate).Msg("game loop started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Uint64("ticks", g.Tick()).Msg("game loop stopped")
			return nil
		case now := <-ticker.C:
			g.Update(now)
		}
	}
}

// Update advances the simulation to now. Delta time is in seconds so that
// speeds read as units per second.
func (g *Game) Update(now time.Time) {
	start := time.Now()
	g.mu.Lock()
	if !g.lastUpdate.IsZero() {
		g.deltaTime = now.Sub(g.lastUpdate).Seconds()
	}
	g.lastUpdate = now
	g.tick++
	g.mu.Unlock()
	observability.RecordTick(time.Since(start))
}

// OnMessage handles one binary message from c.
func (g *Game) OnMessage(c Conn, data []byte) {
	packets := g.inbound.DeserializeAllPackets(stream.Wrap(data))
	for _, p := range packets {
		if !g.Joined(c) {
			connect, ok := p.(packet.Connect)
			if !ok {
				break
			}
			if !g.admit(c, connect) {
				return
			}
			continue
		}
		g.dispatch(c, p)
	}
	if !g.Joined(c) {
		log.Warn().
			Uint64("conn", c.ID()).
			Str("remote", c.RemoteAddr()).
			Int("packets", len(packets)).
			Msg("message before handshake")
		g.Disconnect(c, protocol.DisconnectInvalidPacket)
	}
}

// OnDisconnect forgets the player bound to c, if any.
func (g *Game) OnDisconnect(c Conn) {
	g.mu.Lock()
	player, ok := g.players[c.ID()]
	delete(g.players, c.ID())
	g.mu.Unlock()
	if ok {
		log.Info().Uint16("player", player.ID).Str("name", player.Name).Msg("player disconnected")
	}
}

// Disconnect closes c with reason.
func (g *Game) Disconnect(c Conn, reason protocol.DisconnectReason) {
	observability.RecordDisconnect(reason.String())
	if err := c.Close(reason); err != nil {
		log.Debug().Err(err).Uint64("conn", c.ID()).Msg("close failed")
	}
}

func (g *Game) admit(c Conn, connect packet.Connect) bool {
	if connect.Protocol != protocol.Version {
		log.Warn().
			Uint64("conn", c.ID()).
			Uint32("protocol", connect.Protocol).
			Uint32("want", protocol.Version).
			Msg("protocol mismatch")
		g.Disconnect(c, protocol.DisconnectInvalidProtocol)
		return false
	}

	g.mu.Lock()
	id := g.allocateID()
	player := &Player{ID: id, Name: connect.Name, JoinedAt: g.now()}
	g.players[c.ID()] = player
	g.mu.Unlock()

	log.Info().Uint16("player", id).Str("name", connect.Name).Msg("player connected")

	joined, err := g.outbound.Marshal(packet.Joined{PlayerID: id, TickRate: uint8(g.cfg.TickRate)})
	if err != nil {
		log.Error().Err(err).Msg("encode joined")
		return true
	}
	if err := c.Send(joined); err != nil {
		log.Warn().Err(err).Uint16("player", id).Msg("send joined")
	}
	return true
}

func (g *Game) dispatch(c Conn, p packet.Packet) {
	switch msg := p.(type) {
	case packet.Input:
		g.mu.Lock()
		if player, ok := g.players[c.ID()]; ok {
			player.Input = msg
		}
		g.mu.Unlock()
	default:
		log.Debug().Str("kind", p.Kind().String()).Uint64("conn", c.ID()).Msg("ignored packet")
	}
}

// allocateID must be called with g.mu held.
func (g *Game) allocateID() uint16 {
	for {
		g.nextID++
		if g.nextID == 0 {
			continue
		}
		if !g.idInUse(g.nextID) {
			return g.nextID
		}
	}
}

func (g *Game) idInUse(id uint16) bool {
	for _, p := range g.players {
		if p.ID == id {
			return true
		}
	}
	return false
}

// Joined reports whether c has completed the handshake.
func (g *Game) Joined(c Conn) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.players[c.ID()]
	return ok
}

// Player returns a copy of the player bound to c.
func (g *Game) Player(c Conn) (Player, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.players[c.ID()]
	if !ok {
		return Player{}, false
	}
	return *p, true
}

// Players returns a snapshot of admitted players ordered by id.
func (g *Game) Players() []Player {
	g.mu.Lock()
	out := make([]Player, 0, len(g.players))
	for _, p := range g.players {
		out = append(out, *p)
	}
	g.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (g *Game) PlayerCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.players)
}

func (g *Game) Tick() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tick
}

// DeltaTime returns the seconds elapsed between the last two updates.
func (g *Game) DeltaTime() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.deltaTime
}
