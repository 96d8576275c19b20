package mapview

import (
	"fmt"

	"github.com/samirrijal/mapboot/internal/core/domain"
)

// Restore rebuilds a live view from a snapshot so it can be mutated again.
// The container must still exist on surface.
func Restore(state *domain.MapViewState, projections Projector, surface Surface) (*MapView, error) {
	proj, err := projections.Lookup(state.Projection)
	if err != nil {
		return nil, err
	}
	v, err := New(surface, state.ID, state.Container, proj)
	if err != nil {
		return nil, err
	}
	if !state.CreatedAt.IsZero() {
		v.createdAt = state.CreatedAt
	}

	for _, ls := range state.Layers {
		switch ls.Kind {
		case domain.LayerKindTile:
			v.AddLayer(NewTileLayer(TileLayerConfig{
				Name:        ls.Name,
				URLTemplate: ls.URLTemplate,
				Subdomains:  ls.Subdomains,
				Attribution: ls.Attribution,
				MaxZoom:     ls.MaxZoom,
			}))
		case domain.LayerKindMarker:
			ml := NewMarkerLayer(ls.Name)
			v.AddLayer(ml)
			for _, ms := range ls.Markers {
				m := &Marker{id: ms.ID, position: ms.Position, label: ms.Label}
				if err := ml.AddMarker(m); err != nil {
					return nil, fmt.Errorf("restore marker %s: %w", ms.ID, err)
				}
			}
		default:
			return nil, fmt.Errorf("restore layer %q: unsupported kind %q", ls.Name, ls.Kind)
		}
	}

	if state.Center.CRS != "" {
		if err := v.SetCenter(state.Center, state.Zoom); err != nil {
			return nil, fmt.Errorf("restore center: %w", err)
		}
	}
	if !state.UpdatedAt.IsZero() {
		v.updatedAt = state.UpdatedAt
	}
	return v, nil
}
