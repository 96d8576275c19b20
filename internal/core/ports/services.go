package ports

import (
	"context"

	"github.com/samirrijal/mapboot/internal/core/domain"
)

// EventPublisher publishes view events to a message broker.
type EventPublisher interface {
	PublishViewEvent(ctx context.Context, event *domain.ViewEvent) error
}

// EventSubscriber subscribes to view events from a message broker.
type EventSubscriber interface {
	SubscribeViewEvents(ctx context.Context, handler func(ctx context.Context, event *domain.ViewEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// TileWarmer schedules tile prefetching and returns a run identifier.
type TileWarmer interface {
	WarmTiles(ctx context.Context, req domain.TileWarmRequest) (string, error)
}
