// Package memory keeps map views in process memory, bounded by an LRU.
package memory

import (
	"context"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/samirrijal/mapboot/internal/core/domain"
)

// ViewRepo implements ports.ViewRepository. The least recently used views
// are evicted once size is reached.
type ViewRepo struct {
	views *lru.Cache[string, domain.MapViewState]
}

// NewViewRepo creates a repository holding at most size views.
func NewViewRepo(size int) (*ViewRepo, error) {
	c, err := lru.New[string, domain.MapViewState](size)
	if err != nil {
		return nil, fmt.Errorf("view cache: %w", err)
	}
	return &ViewRepo{views: c}, nil
}

func (r *ViewRepo) Save(ctx context.Context, s *domain.MapViewState) error {
	r.views.Add(s.ID, clone(s))
	return nil
}

func (r *ViewRepo) Get(ctx context.Context, id string) (*domain.MapViewState, error) {
	s, ok := r.views.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrViewNotFound, id)
	}
	out := clone(&s)
	return &out, nil
}

// List returns views newest first.
func (r *ViewRepo) List(ctx context.Context, offset, limit int) ([]domain.MapViewState, int, error) {
	all := r.views.Values()
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	total := len(all)
	if offset >= total {
		return []domain.MapViewState{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page := make([]domain.MapViewState, 0, end-offset)
	for i := offset; i < end; i++ {
		page = append(page, clone(&all[i]))
	}
	return page, total, nil
}

// Len reports how many views are held.
func (r *ViewRepo) Len() int {
	return r.views.Len()
}

// clone copies the layer and marker slices so callers cannot mutate
// stored state.
func clone(s *domain.MapViewState) domain.MapViewState {
	out := *s
	out.Layers = make([]domain.LayerState, len(s.Layers))
	for i, l := range s.Layers {
		l.Subdomains = append([]string(nil), l.Subdomains...)
		l.Markers = append([]domain.MarkerState(nil), l.Markers...)
		out.Layers[i] = l
	}
	return out
}
