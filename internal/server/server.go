package server

import (
	"net/http"

	"github.com/leocostarj22/happiness/internal/config"

	"github.com/gin-gonic/gin"
)

// Server wires the fact store, the room registry and the session
// tracker. All mutating traffic arrives over the websocket; the REST
// surface only exposes read-only snapshots and liveness.
type Server struct {
	store    Store
	cfg      config.Config
	hub      *hub
	sessions *sessionTracker
}

func New(store Store, cfg config.Config) *Server {
	return &Server{
		store:    store,
		cfg:      cfg,
		hub:      newHub(),
		sessions: newSessionTracker(),
	}
}

func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), corsMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/api/games/:id", s.handleGetGameState)
	router.GET("/ws", func(c *gin.Context) {
		s.serveWS(c.Writer, c.Request)
	})
	return router
}

// handleGetGameState serves the projected snapshot over plain HTTP for
// dashboard bootstrap and as a polling fallback.
func (s *Server) handleGetGameState(c *gin.Context) {
	state, err := s.currentState(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load game state"})
		return
	}
	if state == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found"})
		return
	}
	c.JSON(http.StatusOK, state)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
