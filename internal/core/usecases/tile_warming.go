package usecases

import (
	"context"
	"log/slog"

	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/core/ports"
)

// ScheduleWarm asks warmer to prefetch the tiles around state. It returns
// an empty run id when the view has no base layer.
func ScheduleWarm(ctx context.Context, warmer ports.TileWarmer, state *domain.MapViewState, radius int) (string, error) {
	req, ok := WarmRequest(state, radius)
	if !ok {
		return "", nil
	}
	return warmer.WarmTiles(ctx, req)
}

// WarmOnCreate returns an event handler scheduling a warm for every created
// view. Other events are acknowledged and ignored.
func WarmOnCreate(warmer ports.TileWarmer, radius int) func(ctx context.Context, event *domain.ViewEvent) error {
	return func(ctx context.Context, event *domain.ViewEvent) error {
		if event.Type != domain.ViewCreated || event.State == nil {
			return nil
		}
		runID, err := ScheduleWarm(ctx, warmer, event.State, radius)
		if err != nil {
			slog.Warn("tile warm not scheduled", "view_id", event.ViewID, "error", err)
			return err
		}
		if runID != "" {
			slog.Info("tile warm scheduled", "view_id", event.ViewID, "run_id", runID)
		}
		return nil
	}
}

// WarmCreatedViews subscribes warmer to created-view events on sub.
func WarmCreatedViews(ctx context.Context, sub ports.EventSubscriber, warmer ports.TileWarmer, radius int) error {
	return sub.SubscribeViewEvents(ctx, WarmOnCreate(warmer, radius))
}
