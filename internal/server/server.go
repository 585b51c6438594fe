// Package server exposes a parser over an HTTP JSON API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/net/netutil"

	"github.com/happyhackingspace/pcfg"
)

// Config holds server settings.
type Config struct {
	Addr           string
	MaxConnections int // 0 means unlimited
	MaxBatch       int // 0 means unlimited
}

// Server serves parse requests for a single grammar.
type Server struct {
	parser *pcfg.Parser
	config Config
	router *gin.Engine
}

// New creates a server for parser.
func New(parser *pcfg.Parser, config Config) *Server {
	s := &Server{parser: parser, config: config}
	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "healthy",
			})
		})
		v1.POST("/parse", s.parse)
		v1.POST("/parse/batch", s.parseBatch)
		v1.GET("/grammar/check", s.check)
		v1.GET("/grammar/ambiguous", s.ambiguous)
		v1.GET("/grammar/most-likely", s.mostLikely)
	}
	return router
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Addr, err)
	}
	if s.config.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.config.MaxConnections)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	slog.Info("Serving", "addr", ln.Addr().String(), "max-connections", s.config.MaxConnections)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	slog.Info("Shutting down")
	return srv.Shutdown(shutdownCtx)
}
