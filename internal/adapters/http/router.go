package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/mapboot/internal/pkg/metrics"
)

const requestTimeout = 15 * time.Second

// SetupRoutes registers the pages, REST, GraphQL and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())

	// 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", APIVersion)
		return c.Next()
	})

	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())

	// Health & readiness (no timeout)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Map pages
	app.Get("/", IndexPageHandler(deps))
	app.Get("/maps/:id", ViewPageHandler(deps))
	if deps.StaticDir != "" {
		app.Static("/static", deps.StaticDir, fiber.Static{
			Compress: true,
			MaxAge:   3600,
		})
	}

	v1 := app.Group("/v1")
	v1.Post("/views", timeout.NewWithContext(CreateViewHandler(deps), requestTimeout))
	v1.Get("/views", timeout.NewWithContext(ListViewsHandler(deps), requestTimeout))
	v1.Get("/views/:id", timeout.NewWithContext(GetViewHandler(deps), requestTimeout))
	v1.Post("/views/:id/markers", timeout.NewWithContext(AddMarkerHandler(deps), requestTimeout))
	v1.Get("/views/:id/markers.geojson", timeout.NewWithContext(MarkersGeoJSONHandler(deps), requestTimeout))
	v1.Get("/views/:id/markers/nearby", timeout.NewWithContext(NearbyMarkersHandler(deps), requestTimeout))
	v1.Put("/views/:id/center", timeout.NewWithContext(SetCenterHandler(deps), requestTimeout))
	v1.Get("/views/:id/tiles", timeout.NewWithContext(ViewTilesHandler(deps), requestTimeout))
	v1.Get("/views/:id/viewport", timeout.NewWithContext(ViewportHandler(deps), requestTimeout))

	v1.Get("/projections", ListProjectionsHandler(deps))
	v1.Get("/transform", timeout.NewWithContext(TransformHandler(deps), requestTimeout))

	app.Post("/graphql", GraphQLHandler(deps))

	SetupDocs(app)

	// View events need a broker; without NATS the upgrade is refused.
	app.Use("/ws", func(c *fiber.Ctx) error {
		if deps.NATS == nil {
			return errUnavailable(c, "live updates are not enabled")
		}
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}
