package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/pkg/geospatial"
)

// TaskQueue is the default queue the tile warmer worker listens on.
const TaskQueue = "tile-warming"

// TileWarmResult summarises a warm run.
type TileWarmResult struct {
	ViewID  string
	Fetched int
	Failed  int
}

// PlanTiles lists the tiles to warm for req, one batch per zoom level.
func PlanTiles(req domain.TileWarmRequest) [][]domain.TileRef {
	var batches [][]domain.TileRef
	for z := req.MinZoom; z <= req.MaxZoom; z++ {
		tiles := geospatial.TilesAround(req.Center.Lon, req.Center.Lat, z, req.Radius)
		batch := make([]domain.TileRef, 0, len(tiles))
		for _, t := range tiles {
			batch = append(batch, domain.TileRef{
				Z:   t.Z,
				X:   t.X,
				Y:   t.Y,
				URL: geospatial.TileURL(req.URLTemplate, req.Subdomains, t),
			})
		}
		batches = append(batches, batch)
	}
	return batches
}

// TileWarmWorkflow fetches the tiles around a view centre. Zoom levels are
// fetched in parallel; a failing level does not stop the others.
func TileWarmWorkflow(ctx workflow.Context, req domain.TileWarmRequest) (TileWarmResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting tile warm workflow", "viewID", req.ViewID, "minZoom", req.MinZoom, "maxZoom", req.MaxZoom)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	batches := PlanTiles(req)
	futures := make([]workflow.Future, 0, len(batches))
	for _, batch := range batches {
		futures = append(futures, workflow.ExecuteActivity(ctx, "FetchTiles", batch))
	}

	result := TileWarmResult{ViewID: req.ViewID}
	for i, f := range futures {
		var fr FetchResult
		if err := f.Get(ctx, &fr); err != nil {
			logger.Warn("tile batch failed", "zoom", req.MinZoom+i, "error", err)
			result.Failed += len(batches[i])
			continue
		}
		result.Fetched += fr.Fetched
		result.Failed += fr.Failed
	}

	if err := workflow.ExecuteActivity(ctx, "RecordWarmResult", result).Get(ctx, nil); err != nil {
		logger.Warn("recording warm result failed", "error", err)
	}

	logger.Info("Tile warm finished", "fetched", result.Fetched, "failed", result.Failed)
	return result, nil
}
