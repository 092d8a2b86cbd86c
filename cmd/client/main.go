package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/soniferous/riftgate/client/internal/infrastructure/config"
	"github.com/soniferous/riftgate/client/internal/infrastructure/logging"
	"github.com/soniferous/riftgate/client/internal/infrastructure/monitoring"
	"github.com/soniferous/riftgate/client/internal/infrastructure/server"
	"github.com/soniferous/riftgate/client/internal/loop"
	"github.com/soniferous/riftgate/client/internal/transport"
	"github.com/soniferous/riftgate/client/internal/transport/httpapi"
	"github.com/soniferous/riftgate/client/internal/transport/stream"
	"github.com/soniferous/riftgate/client/internal/ui/controller"
	"github.com/soniferous/riftgate/client/internal/ui/services"
	"github.com/soniferous/riftgate/client/internal/ui/stack"
	"github.com/soniferous/riftgate/client/internal/ui/toolkit/headless"
)

func main() {
	configPath := flag.String("config", "", "Path to TOML config file")
	serverURL := flag.String("server", "", "Override the server URL")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *serverURL != "" {
		cfg.Server.URL = *serverURL
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Client exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// cancel doubles as the shutdown hook the server can pull through the
	// service channel.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	metrics := monitoring.NewMetrics()

	client, err := dialTransport(ctx, cfg, metrics, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	tk := headless.New()
	engine := stack.New(stack.Options{
		Snapshots: client,
		Factory:   controller.NewFactory(),
		Deps: controller.Deps{
			Toolkit: tk,
			Actions: transport.Actions{Client: client, Timeout: cfg.Server.Timeout},
			Logger:  logger,
		},
		Metrics: metrics,
	})

	dispatcher := services.NewDispatcher(
		client,
		services.LogSpeaker{Logger: logger},
		cancel,
		metrics,
		logger,
	)

	l := loop.New(loop.Options{
		Reconciler:  engine,
		SideChannel: dispatcher,
		Interval:    cfg.Loop.TickInterval,
		TickTimeout: cfg.Server.Timeout,
		Metrics:     metrics,
		Logger:      logger,
	})

	if cfg.Debug.Addr != "" {
		debug := server.New(server.Options{
			Addr:        cfg.Debug.Addr,
			Stack:       l.Published,
			Metrics:     metrics,
			Logger:      logger,
			Development: cfg.Logging.Development,
		})
		go func() {
			if err := debug.Run(); err != nil {
				logger.Error("Debug server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()
			debug.Shutdown(shutdownCtx)
		}()
	}

	logger.Info("Client starting",
		zap.String("server", cfg.Server.URL),
		zap.String("transport", cfg.Server.Transport),
		zap.Duration("tick_interval", cfg.Loop.TickInterval),
	)

	// Run consumes ticks on this goroutine, which owns the toolkit.
	if err := l.Run(ctx); err != nil {
		return err
	}
	logger.Info("Client stopped")
	return nil
}

func dialTransport(ctx context.Context, cfg *config.Config, metrics *monitoring.Metrics, logger *zap.Logger) (transport.Client, error) {
	switch cfg.Server.Transport {
	case config.TransportStream:
		return stream.Dial(ctx, stream.Options{
			URL:          cfg.Server.StreamURL,
			WriteTimeout: cfg.Server.Timeout,
			Metrics:      metrics,
			Logger:       logger,
		})
	default:
		return httpapi.New(httpapi.Options{
			BaseURL:           cfg.Server.URL,
			Timeout:           cfg.Server.Timeout,
			RequestsPerSecond: cfg.Server.RequestsPerSecond,
			Metrics:           metrics,
		}), nil
	}
}
