// Package server exposes the optional debug endpoint: Prometheus metrics,
// a health probe, and a read-only view of the live stack. It is off unless
// an address is configured, since most installs run the client headless.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/soniferous/riftgate/client/internal/infrastructure/monitoring"
	"github.com/soniferous/riftgate/client/internal/loop"
)

// Options configures a debug Server.
type Options struct {
	Addr        string
	Stack       func() *loop.Snapshot
	Metrics     *monitoring.Metrics
	Logger      *zap.Logger
	Development bool
}

// Server is the debug HTTP listener.
type Server struct {
	srv     *http.Server
	stack   func() *loop.Snapshot
	metrics *monitoring.Metrics
	log     *zap.Logger
}

// New builds the server but does not start listening.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if !opts.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		stack:   opts.Stack,
		metrics: opts.Metrics,
		log:     opts.Logger,
	}

	router := gin.New()
	router.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	router.Use(cors.New(corsCfg))

	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/debug/stack", s.debugStack)

	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Run blocks serving requests until Shutdown is called.
func (s *Server) Run() error {
	s.log.Info("debug server listening", zap.String("addr", s.srv.Addr))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"uptime": s.metrics.Uptime().String(),
	})
}

// debugStack reports what the last completed tick rendered. It reads the
// published snapshot, never the controllers, so it is safe off the
// rendering goroutine.
func (s *Server) debugStack(c *gin.Context) {
	snap := s.stack()
	if snap == nil {
		c.JSON(http.StatusOK, gin.H{"keys": []string{}, "ticked": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"keys":      snap.Keys,
		"ticked":    true,
		"ticked_at": snap.TickedAt,
	})
}
