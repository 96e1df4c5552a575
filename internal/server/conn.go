package server

import (
	"errors"
	"sync"
	"time"

	"github.com/danmuck/skirmish/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	ErrConnClosed    = errors.New("server: connection closed")
	ErrSendQueueFull = errors.New("server: send queue full")
)

// connection is one upgraded websocket. Reads happen on the pool worker
// running serveConn; writes are serialized through the send queue.
type connection struct {
	id           uint64
	ws           *websocket.Conn
	send         chan []byte
	writeTimeout time.Duration

	stopOnce sync.Once
	done     chan struct{}
}

func newConnection(id uint64, ws *websocket.Conn, cfg Config) *connection {
	return &connection{
		id:           id,
		ws:           ws,
		send:         make(chan []byte, cfg.SendQueueSize),
		writeTimeout: cfg.WriteTimeout,
		done:         make(chan struct{}),
	}
}

func (c *connection) ID() uint64 {
	return c.id
}

func (c *connection) RemoteAddr() string {
	return c.ws.RemoteAddr().String()
}

// Send queues one binary message. It never blocks.
func (c *connection) Send(data []byte) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrConnClosed
	default:
		return ErrSendQueueFull
	}
}

func (c *connection) Close(reason protocol.DisconnectReason) error {
	return c.closeWith(reason.CloseCode(), reason.String())
}

// closeWith sends a close frame and drops the socket if the peer does not
// finish the close handshake within the write timeout.
func (c *connection) closeWith(code int, text string) error {
	if !c.stop() {
		return ErrConnClosed
	}
	msg := websocket.FormatCloseMessage(code, text)
	err := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
	time.AfterFunc(c.writeTimeout, func() {
		_ = c.ws.Close()
	})
	return err
}

func (c *connection) stop() bool {
	stopped := false
	c.stopOnce.Do(func() {
		close(c.done)
		stopped = true
	})
	return stopped
}

func (c *connection) release() {
	c.stop()
	_ = c.ws.Close()
}

func (c *connection) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.ws.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				log.Debug().Err(err).Uint64("conn", c.id).Msg("write failed")
				c.release()
				return
			}
		}
	}
}
