package admin

import (
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/battleboats/internal/auth"
	"github.com/danmuck/battleboats/internal/display"
	"github.com/danmuck/battleboats/internal/peer"
	"github.com/danmuck/battleboats/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.started).String(),
			"peer":    s.ctl.Name(),
			"version": version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/ready", func(c *gin.Context) {
		linked := s.ctl.Linked()
		status := http.StatusOK
		if !linked {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":   linked,
			"uptime":  time.Since(s.started).String(),
			"peer":    s.ctl.Name(),
			"version": version,
		})
	})

	s.router.GET("/state", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.ctl.Snapshot())
	})

	s.router.GET("/fields", func(c *gin.Context) {
		snap := s.ctl.Snapshot()
		c.String(http.StatusOK, "%s\n%s", display.StatusLine(snap), display.Boards(snap))
	})

	control := s.router.Group("/")
	if s.cfg.Token != "" {
		control.Use(auth.Require(auth.StaticToken{Token: s.cfg.Token}))
	}
	control.POST("/start", s.trigger(protocol.EventStart))
	control.POST("/reset", s.trigger(protocol.EventReset))
}

func (s *Server) trigger(t protocol.EventType) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.ctl.Trigger(protocol.Event{Type: t}); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, peer.ErrTriggerQueueFull) {
				status = http.StatusServiceUnavailable
			}
			log.Warn().Str("peer", s.ctl.Name()).Stringer("event", t).Err(err).Msg("admin.Server.trigger")
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "event": t.String()})
	}
}
