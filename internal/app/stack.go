// Package app assembles the core services from configuration. Every binary
// builds the same stack; only the optional backends differ.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samirrijal/mapboot/internal/adapters/memory"
	natsadapter "github.com/samirrijal/mapboot/internal/adapters/nats"
	"github.com/samirrijal/mapboot/internal/adapters/postgres"
	"github.com/samirrijal/mapboot/internal/adapters/valkey"
	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/core/mapview"
	"github.com/samirrijal/mapboot/internal/core/ports"
	"github.com/samirrijal/mapboot/internal/core/usecases"
	"github.com/samirrijal/mapboot/internal/pkg/config"
	"github.com/samirrijal/mapboot/internal/pkg/projection"
)

// Stack holds the core services and the backends behind them.
type Stack struct {
	Registry    *projection.Registry
	Surface     *mapview.Containers
	Maps        *usecases.MapService
	Projections *usecases.ProjectionService

	// Optional backends; nil when disabled or unreachable.
	DB        *postgres.DB
	Cache     *valkey.Cache
	Publisher *natsadapter.Publisher

	closers []func()
}

// BootstrapConfig translates the map and tiles sections into a bootstrap
// configuration.
func BootstrapConfig(cfg *config.Config) usecases.BootstrapConfig {
	return usecases.BootstrapConfig{
		Container:   cfg.Map.Container,
		Projection:  cfg.Map.Projection,
		Center:      domain.NewGeoPoint(cfg.Map.Lon, cfg.Map.Lat, domain.CRSWGS84),
		Zoom:        cfg.Map.Zoom,
		MarkerLayer: cfg.Map.MarkerLayer,
		MarkerLabel: cfg.Map.MarkerLabel,
		TileLayer: mapview.TileLayerConfig{
			Name:        cfg.Tiles.Name,
			URLTemplate: cfg.Tiles.URLTemplate,
			Subdomains:  cfg.Tiles.Subdomains,
			Attribution: cfg.Tiles.Attribution,
			MaxZoom:     cfg.Tiles.MaxZoom,
		},
	}
}

// Surface returns the containers views may be bound to. The default
// container is always present.
func Surface(cfg *config.Config) *mapview.Containers {
	s := mapview.NewContainers(cfg.Map.Containers...)
	s.Add(cfg.Map.Container)
	return s
}

// Build wires the stack. The storage driver is required; the cache and the
// event publisher degrade to disabled with a warning when unreachable.
func Build(ctx context.Context, cfg *config.Config) (*Stack, error) {
	s := &Stack{
		Registry: projection.NewRegistry(),
		Surface:  Surface(cfg),
	}

	views, err := s.openViews(ctx, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}

	var cache ports.CacheService
	if cfg.Valkey.Enabled {
		c, err := valkey.New(cfg.Valkey.Addr, cfg.Valkey.Prefix)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			s.Cache = c
			s.closers = append(s.closers, c.Close)
			cache = c
		}
	}

	var events ports.EventPublisher
	if cfg.NATS.Enabled {
		p, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			s.Publisher = p
			s.closers = append(s.closers, p.Close)
			events = p
		}
	}

	boot := usecases.NewBootstrapper(s.Registry, s.Surface, BootstrapConfig(cfg))
	s.Maps = usecases.NewMapService(boot, views, s.Registry, s.Surface, events)
	s.Projections = usecases.NewProjectionService(s.Registry, cache)
	return s, nil
}

func (s *Stack) openViews(ctx context.Context, cfg *config.Config) (ports.ViewRepository, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		db, err := postgres.New(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		s.DB = db
		s.closers = append(s.closers, db.Close)
		return postgres.NewViewRepo(db), nil
	default:
		repo, err := memory.NewViewRepo(cfg.Storage.MemorySize)
		if err != nil {
			return nil, fmt.Errorf("memory store: %w", err)
		}
		return repo, nil
	}
}

// Close releases the backends in reverse order of opening.
func (s *Stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
