package http

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// accessLevel maps a response status to a log level.
func accessLevel(status int, err error) slog.Level {
	switch {
	case err != nil || status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case status == fiber.StatusNotModified:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// AccessLogMiddleware logs each request with structured slog output.
func AccessLogMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method := c.Method()
		path := c.Path()

		err := c.Next()

		status := c.Response().StatusCode()
		attrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
			slog.Int("bytes_out", len(c.Response().Body())),
			slog.String("ip", c.IP()),
		}
		if rid := RequestIDFromCtx(c.UserContext()); rid != "" {
			attrs = append(attrs, slog.String("request_id", rid))
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}

		slog.LogAttrs(c.UserContext(), accessLevel(status, err), method+" "+path, attrs...)
		return err
	}
}
