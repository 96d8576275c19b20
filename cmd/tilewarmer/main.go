package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	natsadapter "github.com/samirrijal/mapboot/internal/adapters/nats"
	"github.com/samirrijal/mapboot/internal/adapters/temporal"
	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/core/usecases"
	"github.com/samirrijal/mapboot/internal/pkg/config"
	"github.com/samirrijal/mapboot/internal/pkg/logging"
	"github.com/samirrijal/mapboot/internal/workflows"
)

func main() {
	cfg, err := config.Load("mapboot-tilewarmer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logging.Setup(logLevel, os.Getenv("LOG_FORMAT"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    slog.Default(),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.TileWarmWorkflow)
	w.RegisterActivity(workflows.NewTileActivities(cfg.Tiles.UserAgent, cfg.Tiles.FetchTimeoutDuration()))

	// Created views arrive over NATS; without a broker the API schedules
	// warms itself and this process only runs the worker.
	if cfg.NATS.Enabled {
		sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "tilewarmer", natsadapter.EventSubject(domain.ViewCreated))
		if err != nil {
			log.Fatalf("nats: %v", err)
		}
		defer sub.Close()

		warmer := temporal.NewWarmer(c, cfg.Temporal.TaskQueue)
		if err := usecases.WarmCreatedViews(ctx, sub, warmer, cfg.Tiles.WarmRadius); err != nil {
			log.Fatalf("subscribe: %v", err)
		}
		slog.Info("listening for created views", "subject", natsadapter.EventSubject(domain.ViewCreated))
	}

	slog.Info("tile warmer worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
