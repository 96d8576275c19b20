package ports

import (
	"context"

	"github.com/samirrijal/mapboot/internal/core/domain"
)

// ViewRepository persists map view snapshots.
type ViewRepository interface {
	// Save inserts or replaces the view and its markers.
	Save(ctx context.Context, view *domain.MapViewState) error
	// Get returns domain.ErrViewNotFound when id is unknown.
	Get(ctx context.Context, id string) (*domain.MapViewState, error)
	// List returns a page of views, newest first, and the total count.
	List(ctx context.Context, offset, limit int) ([]domain.MapViewState, int, error)
}
