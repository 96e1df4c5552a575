// Package client is the player-side websocket session.
//
// Ownership boundary:
// - dialing and the Connect handshake
// - serializing outbound packets through one reusable buffer
// - decoding inbound messages onto the Packets channel
// - reconnecting with backoff
package client

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/danmuck/skirmish/internal/protocol"
	"github.com/danmuck/skirmish/internal/protocol/packet"
	"github.com/danmuck/skirmish/internal/protocol/stream"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotConnected = errors.New("client: not connected")
	ErrClosed       = errors.New("client: closed")
	ErrRejected     = errors.New("client: rejected by server")
)

type Config struct {
	URL              string
	Name             string
	BufferSize       int
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	Backoff          BackoffConfig
	// MaxAttempts bounds consecutive failed reconnects; 0 retries forever.
	MaxAttempts      int
}

func DefaultConfig() Config {
	return Config{
		URL:              "ws://127.0.0.1:8000/play",
		Name:             "player",
		BufferSize:       protocol.DefaultSendBufferSize,
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     5 * time.Second,
		Backoff:          DefaultBackoffConfig(),
	}
}

// CloseError reports a close frame received from the server.
type CloseError struct {
	Code   int
	Text   string
	Reason protocol.DisconnectReason
	// Known is set when Code maps to a DisconnectReason.
	Known  bool
}

func (e *CloseError) Error() string {
	if e.Known {
		return fmt.Sprintf("client: closed by server: %s (code %d)", e.Reason, e.Code)
	}
	return fmt.Sprintf("client: closed by server: code %d %q", e.Code, e.Text)
}

// session is one dialed websocket and its read loop.
type session struct {
	ws   *websocket.Conn
	done chan struct{}
	err  error
}

func (s *session) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

type Client struct {
	cfg      Config
	outbound *packet.Registry
	inbound  *packet.Registry
	packets  chan packet.Packet

	closeOnce sync.Once
	done      chan struct{}

	mu   sync.Mutex
	sess *session
	out  *stream.Stream
}

func New(cfg Config) *Client {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = protocol.DefaultSendBufferSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &Client{
		cfg:      cfg,
		outbound: packet.ClientToServer(),
		inbound:  packet.ServerToClient(),
		packets:  make(chan packet.Packet, 64),
		done:     make(chan struct{}),
		out:      stream.New(cfg.BufferSize),
	}
}

// Packets delivers decoded server packets across reconnects.
func (c *Client) Packets() <-chan packet.Packet {
	return c.packets
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess != nil && !c.sess.closed()
}

// Connect dials the server and sends the handshake.
func (c *Client) Connect(ctx context.Context) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	dialer := websocket.Dialer{HandshakeTimeout: c.cfg.HandshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return fmt.Errorf("client: dial %s: %w", c.cfg.URL, err)
	}

	sess := &session{ws: ws, done: make(chan struct{})}
	c.mu.Lock()
	prev := c.sess
	c.sess = sess
	c.mu.Unlock()
	if prev != nil {
		_ = prev.ws.Close()
	}

	go c.readLoop(sess)
	log.Info().Str("url", c.cfg.URL).Str("name", c.cfg.Name).Msg("connected")

	if err := c.SendPacket(packet.NewConnect(c.cfg.Name)); err != nil {
		_ = ws.Close()
		return err
	}
	return nil
}

// SendPacket serializes p into the reusable buffer and sends it as one
// binary message.
func (c *Client) SendPacket(p packet.Packet) error {
	return c.SendPackets(p)
}

// SendPackets sends ps concatenated in a single message.
func (c *Client) SendPackets(ps ...packet.Packet) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.closed() {
		return ErrNotConnected
	}
	c.out.Reset()
	for _, p := range ps {
		if err := c.outbound.SerializePacket(c.out, p); err != nil {
			return err
		}
	}
	_ = c.sess.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	if err := c.sess.ws.WriteMessage(websocket.BinaryMessage, c.out.Bytes()); err != nil {
		return fmt.Errorf("client: send: %w", err)
	}
	return nil
}

// Wait blocks until the current session ends and returns its cause.
func (c *Client) Wait(ctx context.Context) error {
	c.mu.Lock()
	sess := c.sess
	c.mu.Unlock()
	if sess == nil {
		return ErrNotConnected
	}
	select {
	case <-sess.done:
		return sess.err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

// Run keeps a session open until ctx is done, reconnecting with backoff.
// It stops early when the server rejects the protocol version or
// MaxAttempts consecutive attempts fail.
func (c *Client) Run(ctx context.Context) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	attempt := 0
	for {
		err := c.Connect(ctx)
		if err == nil {
			attempt = 0
			err = c.Wait(ctx)
			var closeErr *CloseError
			if errors.As(err, &closeErr) && closeErr.Known && closeErr.Reason == protocol.DisconnectInvalidProtocol {
				c.Close()
				return fmt.Errorf("%w: %w", ErrRejected, err)
			}
		}
		if ctx.Err() != nil || errors.Is(err, ErrClosed) {
			c.Close()
			return nil
		}

		attempt++
		if c.cfg.MaxAttempts > 0 && attempt > c.cfg.MaxAttempts {
			c.Close()
			return fmt.Errorf("client: giving up after %d attempts: %w", c.cfg.MaxAttempts, err)
		}
		delay := NextBackoffDelay(c.cfg.Backoff, attempt, rng)
		log.Warn().Err(err).Int("attempt", attempt).Dur("delay", delay).Msg("reconnecting")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.Close()
			return nil
		case <-c.done:
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Close ends the current session with a normal close and stops Run.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		sess := c.sess
		c.mu.Unlock()
		if sess == nil || sess.closed() {
			return
		}
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = sess.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.cfg.WriteTimeout))
		_ = sess.ws.Close()
	})
}

func (c *Client) readLoop(sess *session) {
	defer close(sess.done)
	for {
		kind, data, err := sess.ws.ReadMessage()
		if err != nil {
			sess.err = closeCause(err)
			_ = sess.ws.Close()
			return
		}
		if kind != websocket.BinaryMessage {
			log.Warn().Int("frame", kind).Msg("ignoring non-binary message")
			continue
		}
		for _, p := range c.inbound.DeserializeAllPackets(stream.Wrap(data)) {
			select {
			case c.packets <- p:
			case <-c.done:
				sess.err = ErrClosed
				_ = sess.ws.Close()
				return
			}
		}
	}
}

func closeCause(err error) error {
	var wsClose *websocket.CloseError
	if !errors.As(err, &wsClose) {
		log.Warn().Err(err).Msg("connection lost")
		return err
	}
	out := &CloseError{Code: wsClose.Code, Text: wsClose.Text}
	out.Reason, out.Known = protocol.ReasonFromCloseCode(wsClose.Code)
	event := log.Info()
	if out.Known {
		event = log.Warn().Str("reason", out.Reason.String())
	}
	event.Int("code", wsClose.Code).Str("text", wsClose.Text).Msg("connection closed")
	return out
}
