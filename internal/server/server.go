// Package server exposes the game over websocket.
//
// Ownership boundary:
// - HTTP surface (health, readiness, metrics, play endpoint)
// - websocket upgrade and binary-frame transport
// - bounded reader workers
//
// Packet semantics and player state belong to internal/game.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/skirmish/internal/game"
	"github.com/danmuck/skirmish/internal/observability"
	"github.com/danmuck/skirmish/internal/protocol"
	"github.com/danmuck/skirmish/internal/protocol/packet"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"
)

type Config struct {
	ID              string
	Addr            string
	Path            string
	CorsOrigins     []string
	TickRate        int
	MaxConnections  int
	MaxMessageBytes int64
	WriteTimeout    time.Duration
	SendQueueSize   int
	ShutdownTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		ID:              "gameserver",
		Addr:            "127.0.0.1:8000",
		Path:            "/play",
		CorsOrigins:     []string{"http://localhost:5173"},
		TickRate:        protocol.DefaultTickRate,
		MaxConnections:  256,
		MaxMessageBytes: 4096,
		WriteTimeout:    5 * time.Second,
		SendQueueSize:   64,
		ShutdownTimeout: 5 * time.Second,
	}
}

type Server struct {
	cfg      Config
	game     *game.Game
	router   *gin.Engine
	upgrader websocket.Upgrader
	pool     *ants.Pool
	started  time.Time
	nextConn atomic.Uint64

	mu    sync.Mutex
	conns map[uint64]*connection
}

func New(cfg Config) (*Server, error) {
	observability.RegisterMetrics()

	g, err := game.New(game.Config{TickRate: cfg.TickRate}, packet.ClientToServer(), packet.ServerToClient())
	if err != nil {
		return nil, err
	}
	pool, err := ants.NewPool(max(cfg.MaxConnections, 1), ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(cfg.ID))
	r.Use(cors.New(corsConfig(cfg.CorsOrigins)))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		cfg:     cfg,
		game:    g,
		router:  r,
		pool:    pool,
		started: time.Now(),
		conns:   make(map[uint64]*connection),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
		CheckOrigin:     s.checkOrigin,
	}
	s.RegisterRoutes()
	return s, nil
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) Game() *game.Game {
	return s.game
}

// Run serves HTTP and ticks the game until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	gameCtx, stopGame := context.WithCancel(ctx)
	defer stopGame()
	go func() {
		_ = s.game.Run(gameCtx)
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.cfg.Addr).Str("path", s.cfg.Path).Msg("game server listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	err := httpServer.Shutdown(shutdownCtx)
	s.Close()
	return err
}

// Close sends going-away to every open socket and releases the worker pool.
func (s *Server) Close() {
	s.mu.Lock()
	conns := make([]*connection, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	for _, c := range conns {
		_ = c.closeWith(websocket.CloseGoingAway, "server shutting down")
	}
	s.pool.Release()
}

func (s *Server) handlePlay(c *gin.Context) {
	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("remote", c.ClientIP()).Msg("websocket upgrade failed")
		return
	}
	conn := newConnection(s.nextConn.Add(1), ws, s.cfg)

	if err := s.pool.Submit(func() { s.serveConn(conn) }); err != nil {
		log.Warn().Err(err).Str("remote", conn.RemoteAddr()).Msg("connection rejected")
		observability.RecordDisconnect("overloaded")
		_ = conn.closeWith(websocket.CloseTryAgainLater, "server full")
	}
}

func (s *Server) serveConn(c *connection) {
	s.track(c)
	observability.RecordConnectionOpened()
	log.Debug().Uint64("conn", c.id).Str("remote", c.RemoteAddr()).Msg("connection opened")
	defer func() {
		s.game.OnDisconnect(c)
		s.untrack(c)
		c.release()
		observability.RecordConnectionClosed()
	}()

	go c.writeLoop()
	c.ws.SetReadLimit(s.cfg.MaxMessageBytes)

	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			logReadError(c, err)
			return
		}
		if kind != websocket.BinaryMessage {
			log.Warn().Uint64("conn", c.id).Int("frame", kind).Msg("non-binary message")
			s.game.Disconnect(c, protocol.DisconnectInvalidPacket)
			continue
		}
		s.game.OnMessage(c, data)
	}
}

func logReadError(c *connection, err error) {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		event := log.Debug()
		if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			event = log.Info()
		}
		event.Uint64("conn", c.id).Int("code", closeErr.Code).Str("reason", closeErr.Text).Msg("connection closed")
		return
	}
	log.Debug().Err(err).Uint64("conn", c.id).Msg("connection dropped")
}

func (s *Server) track(c *connection) {
	s.mu.Lock()
	s.conns[c.id] = c
	s.mu.Unlock()
}

func (s *Server) untrack(c *connection) {
	s.mu.Lock()
	delete(s.conns, c.id)
	s.mu.Unlock()
}

// ConnectionCount reports sockets currently served by the pool.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range normalizeOrigins(s.cfg.CorsOrigins) {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}
	normalized := normalizeOrigins(origins)
	for _, o := range normalized {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = normalized
	return cfg
}

func normalizeOrigins(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return []string{"http://localhost:5173"}
	}
	return out
}
