package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapboot/internal/adapters/postgres"
	"github.com/samirrijal/mapboot/internal/adapters/valkey"
	"github.com/samirrijal/mapboot/internal/core/ports"
	"github.com/samirrijal/mapboot/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Maps        *usecases.MapService
	Projections *usecases.ProjectionService
	Warmer      ports.TileWarmer
	WarmRadius  int
	StaticDir   string
	NATS        *nats.Conn
	DB          *postgres.DB
	Cache       *valkey.Cache
}
