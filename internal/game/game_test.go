package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/skirmish/internal/protocol"
	"github.com/danmuck/skirmish/internal/protocol/packet"
	"github.com/danmuck/skirmish/internal/protocol/stream"
	"github.com/danmuck/skirmish/internal/testutil/testlog"
)

type fakeConn struct {
	id uint64

	mu      sync.Mutex
	sent    [][]byte
	closed  bool
	reason  protocol.DisconnectReason
	sendErr error
}

func (c *fakeConn) ID() uint64         { return c.id }
func (c *fakeConn) RemoteAddr() string { return "test" }

func (c *fakeConn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) Close(reason protocol.DisconnectReason) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.reason = reason
	return nil
}

func newTestGame(t *testing.T) *Game {
	t.Helper()
	g, err := New(DefaultConfig(), packet.ClientToServer(), packet.ServerToClient())
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	return g
}

func encode(t *testing.T, packets ...packet.Packet) []byte {
	t.Helper()
	reg := packet.ClientToServer()
	s := stream.NewGrowable(64)
	for _, p := range packets {
		if err := reg.SerializePacket(s, p); err != nil {
			t.Fatalf("serialize %s: %v", p.Kind(), err)
		}
	}
	return append([]byte(nil), s.Bytes()...)
}

func TestNewRejectsInvalidTickRate(t *testing.T) {
	testlog.Start(t)
	for _, rate := range []int{0, -1, 256} {
		_, err := New(Config{TickRate: rate}, packet.ClientToServer(), packet.ServerToClient())
		if !errors.Is(err, ErrInvalidTickRate) {
			t.Fatalf("tick rate %d: expected ErrInvalidTickRate, got %v", rate, err)
		}
	}
}

func TestConnectAdmitsPlayerAndSendsJoined(t *testing.T) {
	testlog.Start(t)
	g := newTestGame(t)
	conn := &fakeConn{id: 1}

	g.OnMessage(conn, encode(t, packet.NewConnect("alice")))

	if conn.closed {
		t.Fatalf("expected connection to stay open, closed with %s", conn.reason)
	}
	player, ok := g.Player(conn)
	if !ok {
		t.Fatalf("expected player to be admitted")
	}
	if player.Name != "alice" || player.ID == 0 {
		t.Fatalf("unexpected player: %+v", player)
	}
	if len(conn.sent) != 1 {
		t.Fatalf("expected one reply, got %d", len(conn.sent))
	}

	packets := packet.ServerToClient().DeserializeAllPackets(stream.Wrap(conn.sent[0]))
	if len(packets) != 1 {
		t.Fatalf("expected one packet in reply, got %d", len(packets))
	}
	joined, ok := packets[0].(packet.Joined)
	if !ok {
		t.Fatalf("expected joined, got %T", packets[0])
	}
	if joined.PlayerID != player.ID || int(joined.TickRate) != protocol.DefaultTickRate {
		t.Fatalf("unexpected joined: %+v", joined)
	}
}

func TestProtocolMismatchClosesWithInvalidProtocol(t *testing.T) {
	testlog.Start(t)
	g := newTestGame(t)
	conn := &fakeConn{id: 1}

	g.OnMessage(conn, encode(t, packet.Connect{Protocol: protocol.Version + 1, Name: "old"}))

	if !conn.closed || conn.reason != protocol.DisconnectInvalidProtocol {
		t.Fatalf("expected InvalidProtocol close, got closed=%v reason=%s", conn.closed, conn.reason)
	}
	if g.PlayerCount() != 0 {
		t.Fatalf("expected no players, got %d", g.PlayerCount())
	}
	if len(conn.sent) != 0 {
		t.Fatalf("expected nothing sent, got %d messages", len(conn.sent))
	}
}

func TestMessageBeforeHandshakeClosesWithInvalidPacket(t *testing.T) {
	testlog.Start(t)
	cases := map[string][]byte{
		"garbage": {0xff, 0xff, 0xff},
		"empty":   {},
		"input":   encode(t, packet.Input{Up: true}),
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			g := newTestGame(t)
			conn := &fakeConn{id: 7}
			g.OnMessage(conn, data)
			if !conn.closed || conn.reason != protocol.DisconnectInvalidPacket {
				t.Fatalf("expected InvalidPacket close, got closed=%v reason=%s", conn.closed, conn.reason)
			}
			if g.Joined(conn) {
				t.Fatalf("expected socket to stay unjoined")
			}
		})
	}
}

func TestInputAfterJoinUpdatesPlayer(t *testing.T) {
	testlog.Start(t)
	g := newTestGame(t)
	conn := &fakeConn{id: 3}

	g.OnMessage(conn, encode(t, packet.NewConnect("bob"), packet.Input{Left: true}))
	player, ok := g.Player(conn)
	if !ok || !player.Input.Left {
		t.Fatalf("expected connect and input in one message to apply, got %+v ok=%v", player, ok)
	}

	g.OnMessage(conn, encode(t, packet.Input{Right: true, Attack: true, Aim: 1}))
	player, _ = g.Player(conn)
	if player.Input.Left || !player.Input.Right || !player.Input.Attack {
		t.Fatalf("expected latest input to replace previous, got %+v", player.Input)
	}
	if conn.closed {
		t.Fatalf("expected connection to stay open")
	}
}

func TestJoinedSocketIgnoresGarbage(t *testing.T) {
	testlog.Start(t)
	g := newTestGame(t)
	conn := &fakeConn{id: 4}
	g.OnMessage(conn, encode(t, packet.NewConnect("carol")))

	g.OnMessage(conn, []byte{0xff, 0x00})
	if conn.closed {
		t.Fatalf("expected joined socket to survive a malformed message")
	}
}

func TestPlayerIDsAreUnique(t *testing.T) {
	testlog.Start(t)
	g := newTestGame(t)
	a := &fakeConn{id: 1}
	b := &fakeConn{id: 2}
	g.OnMessage(a, encode(t, packet.NewConnect("a")))
	g.OnMessage(b, encode(t, packet.NewConnect("b")))

	pa, _ := g.Player(a)
	pb, _ := g.Player(b)
	if pa.ID == pb.ID {
		t.Fatalf("expected distinct player ids, got %d twice", pa.ID)
	}
	if g.PlayerCount() != 2 {
		t.Fatalf("expected 2 players, got %d", g.PlayerCount())
	}
}

func TestOnDisconnectRemovesPlayer(t *testing.T) {
	testlog.Start(t)
	g := newTestGame(t)
	conn := &fakeConn{id: 9}
	g.OnMessage(conn, encode(t, packet.NewConnect("dave")))
	g.OnDisconnect(conn)
	if g.Joined(conn) || g.PlayerCount() != 0 {
		t.Fatalf("expected player to be removed")
	}
	g.OnDisconnect(conn)
}

func TestSendFailureKeepsPlayer(t *testing.T) {
	testlog.Start(t)
	g := newTestGame(t)
	conn := &fakeConn{id: 5, sendErr: errors.New("queue full")}
	g.OnMessage(conn, encode(t, packet.NewConnect("eve")))
	if !g.Joined(conn) {
		t.Fatalf("expected player admitted even when reply is not delivered")
	}
}

func TestUpdateTracksDeltaTime(t *testing.T) {
	testlog.Start(t)
	g := newTestGame(t)
	start := time.Unix(100, 0)
	g.Update(start)
	g.Update(start.Add(250 * time.Millisecond))
	if g.Tick() != 2 {
		t.Fatalf("expected 2 ticks, got %d", g.Tick())
	}
	if got := g.DeltaTime(); got != 0.25 {
		t.Fatalf("expected delta 0.25s, got %v", got)
	}
}

func TestRunTicksUntilCancelled(t *testing.T) {
	testlog.Start(t)
	g, err := New(Config{TickRate: 200}, packet.ClientToServer(), packet.ServerToClient())
	if err != nil {
		t.Fatalf("new game: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for g.Tick() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected ticks, got %d", g.Tick())
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("run did not stop after cancel")
	}
}

func TestPlayersSnapshotOrderedByID(t *testing.T) {
	testlog.Start(t)
	g := newTestGame(t)
	for i := uint64(1); i <= 3; i++ {
		g.OnMessage(&fakeConn{id: i}, encode(t, packet.NewConnect("p")))
	}
	players := g.Players()
	if len(players) != 3 {
		t.Fatalf("expected 3 players, got %d", len(players))
	}
	for i := 1; i < len(players); i++ {
		if players[i-1].ID >= players[i].ID {
			t.Fatalf("expected ascending ids, got %d then %d", players[i-1].ID, players[i].ID)
		}
	}
}
