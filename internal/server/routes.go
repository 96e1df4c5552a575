package server

import (
	"net/http"
	"time"

	"github.com/danmuck/skirmish/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"uptime":   time.Since(s.started).String(),
			"service":  s.cfg.ID,
			"protocol": protocol.Version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":       true,
			"players":     s.game.PlayerCount(),
			"connections": s.ConnectionCount(),
			"capacity":    s.pool.Cap(),
			"tick":        s.game.Tick(),
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET(s.playPath(), s.handlePlay)
}

func (s *Server) playPath() string {
	if s.cfg.Path == "" {
		return "/play"
	}
	return s.cfg.Path
}
