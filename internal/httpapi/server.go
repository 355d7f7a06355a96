// Package httpapi exposes a read-only JSON view of the live server
// directory for browsers and dashboards. It never writes to the directory.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"dpmaster/internal/servers"
	"dpmaster/internal/util"
)

// Server is the HTTP API server over a shared directory.
type Server struct {
	dir        *servers.Directory
	log        zerolog.Logger
	httpServer *http.Server
}

// NewServer creates an API server reading from dir.
func NewServer(dir *servers.Directory) *Server {
	gin.SetMode(gin.ReleaseMode)
	return &Server{
		dir: dir,
		log: util.ComponentLogger("httpapi"),
	}
}

// Start serves the API on the given port until ctx is cancelled.
func (s *Server) Start(ctx context.Context, port int) error {
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.buildRouter(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	s.log.Info().Int("port", port).Msg("http api listening")

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http api: %w", err)
	}
	return nil
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	api := router.Group("/api")
	api.GET("/ping", s.handlePing)
	api.GET("/servers", s.handleServers)
	return router
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "dpmaster",
	})
}

// handleServers responds with the live server list, busiest first.
func (s *Server) handleServers(c *gin.Context) {
	list := s.dir.List(time.Now())
	c.JSON(http.StatusOK, gin.H{
		"count":   len(list),
		"servers": list,
	})
}
