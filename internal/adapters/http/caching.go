package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// cacheControl picks the default Cache-Control for a GET path.
// View state changes whenever a marker is added or the view is recentred,
// so views are revalidated through their ETag.
func cacheControl(path string) string {
	switch {
	case path == "/v1/health" || path == "/v1/ready":
		return "public, max-age=10"
	case path == "/metrics":
		return "no-cache"
	case path == "/v1/projections" || path == "/v1/transform":
		return "public, max-age=86400"
	case strings.HasPrefix(path, "/v1/views/") && strings.HasSuffix(path, "/tiles"):
		return "public, max-age=60"
	case strings.HasPrefix(path, "/v1/views"):
		return "no-cache"
	case path == "/" || strings.HasPrefix(path, "/maps/"):
		return "no-store"
	case strings.HasPrefix(path, "/docs"):
		return "public, max-age=3600"
	case strings.HasPrefix(path, "/v1/"):
		return "public, max-age=300"
	}
	return ""
}

// CachingMiddleware sets Cache-Control on GET responses the handler left
// without one.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet {
			return err
		}
		if existing := c.GetRespHeader(fiber.HeaderCacheControl); existing != "" {
			return err
		}

		if ttl := cacheControl(c.Path()); ttl != "" {
			c.Set(fiber.HeaderCacheControl, ttl)
		}
		return err
	}
}
