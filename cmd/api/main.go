package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/mapboot/internal/adapters/http"
	natsadapter "github.com/samirrijal/mapboot/internal/adapters/nats"
	"github.com/samirrijal/mapboot/internal/adapters/temporal"
	"github.com/samirrijal/mapboot/internal/app"
	"github.com/samirrijal/mapboot/internal/pkg/config"
	"github.com/samirrijal/mapboot/internal/pkg/logging"
	"github.com/samirrijal/mapboot/internal/pkg/metrics"
	"github.com/samirrijal/mapboot/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("mapboot-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, os.Getenv("LOG_FORMAT"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	stack, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("build services: %v", err)
	}
	defer stack.Close()
	slog.Info("storage ready", "driver", cfg.Storage.Driver, "containers", stack.Surface.Names())

	deps := &http.Dependencies{
		Maps:        stack.Maps,
		Projections: stack.Projections,
		WarmRadius:  cfg.Tiles.WarmRadius,
		StaticDir:   cfg.Server.StaticDir,
		DB:          stack.DB,
		Cache:       stack.Cache,
	}

	// Raw NATS connection for the WebSocket relay
	if cfg.NATS.Enabled {
		natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats ws conn unavailable", "error", err)
		} else {
			defer natsConn.Drain()
			deps.NATS = natsConn
		}
	}

	// Tile warming is scheduled directly when no broker carries the
	// created events to the tilewarmer.
	if !cfg.NATS.Enabled && cfg.Temporal.HostPort != "" {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
			Logger:    slog.Default(),
		})
		if err != nil {
			slog.Warn("temporal unavailable, tiles will not be warmed", "error", err)
		} else {
			defer tc.Close()
			deps.Warmer = temporal.NewWarmer(tc, cfg.Temporal.TaskQueue)
		}
	}

	if stack.DB != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					metrics.UpdateDBPoolMetrics(stack.DB.Pool.Stat())
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	fapp := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024,
		AppName:      "mapboot API",
	})
	fapp.Use(recover.New())
	fapp.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, If-None-Match",
		MaxAge:       3600,
	}))

	http.SetupRoutes(fapp, deps)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := fapp.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := fapp.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
