// Package health runs the small Gin HTTP server every binary exposes for
// orchestrator liveness/readiness probes.
package health

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server reports two independent signals, each flipped by the owning
// binary through MarkAlive and MarkReady. Both start false. evm-indexer and
// evm-parser mark Alive once the RPC peer pool has at least one peer;
// evm-indexer marks Ready after the first sync pass, while the other
// binaries mark Ready (and the fetchers Alive) right after startup.
type Server struct {
	addr   string
	logger *zap.Logger
	alive  atomic.Bool
	ready  atomic.Bool
	srv    *http.Server
}

// New builds a Server listening on addr (e.g. ":8080").
func New(addr string, logger *zap.Logger) *Server {
	return &Server{addr: addr, logger: logger}
}

// MarkAlive flips the liveness probe to healthy.
func (s *Server) MarkAlive() { s.alive.Store(true) }

// MarkReady flips the readiness probe to healthy.
func (s *Server) MarkReady() { s.ready.Store(true) }

// Run starts the server and blocks until ctx is cancelled, at which point
// it shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		if s.alive.Load() {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusServiceUnavailable)
	})
	router.GET("/readyz", func(c *gin.Context) {
		if s.ready.Load() {
			c.Status(http.StatusOK)
			return
		}
		c.Status(http.StatusServiceUnavailable)
	})

	s.srv = &http.Server{
		Addr:         s.addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("health server listening", zap.String("addr", s.addr))
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("health: listen: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
