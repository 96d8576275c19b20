package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/pkg/metrics"
)

// FetchResult counts the outcome of one tile batch.
type FetchResult struct {
	Fetched int
	Failed  int
	Bytes   int
}

// TileActivities holds the activity implementations for the tile warm workflow.
type TileActivities struct {
	Client    *fasthttp.Client
	UserAgent string
	Timeout   time.Duration
}

// NewTileActivities creates activities with a pooled fasthttp client.
func NewTileActivities(userAgent string, timeout time.Duration) *TileActivities {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TileActivities{
		Client: &fasthttp.Client{
			Name:                userAgent,
			MaxConnsPerHost:     8,
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxIdleConnDuration: time.Minute,
		},
		UserAgent: userAgent,
		Timeout:   timeout,
	}
}

// FetchTiles downloads every tile in the batch and discards the body.
// Individual failures are counted, not returned.
func (a *TileActivities) FetchTiles(ctx context.Context, tiles []domain.TileRef) (FetchResult, error) {
	var res FetchResult
	for _, t := range tiles {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		n, err := a.fetch(t.URL)
		if err != nil {
			slog.Debug("tile fetch failed", "url", t.URL, "error", err)
			metrics.TilesWarmed.WithLabelValues("failed").Inc()
			res.Failed++
			continue
		}
		metrics.TilesWarmed.WithLabelValues("ok").Inc()
		res.Fetched++
		res.Bytes += n
	}
	return res, nil
}

func (a *TileActivities) fetch(url string) (int, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(a.UserAgent)

	start := time.Now()
	err := a.Client.DoTimeout(req, resp, a.Timeout)
	metrics.TileFetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return 0, err
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		return 0, &StatusError{URL: url, Code: code}
	}
	return len(resp.Body()), nil
}

// RecordWarmResult logs the outcome of a warm run.
func (a *TileActivities) RecordWarmResult(ctx context.Context, result TileWarmResult) error {
	slog.InfoContext(ctx, "tiles warmed", "view_id", result.ViewID, "fetched", result.Fetched, "failed", result.Failed)
	return nil
}

// StatusError reports a non-200 tile response.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tile %s: unexpected status %d", e.URL, e.Code)
}
