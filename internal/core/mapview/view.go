// Package mapview models a map widget: a view bound to a display container,
// the layers attached to it, and its visible centre and zoom.
package mapview

import (
	"fmt"
	"sync"
	"time"

	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/pkg/geospatial"
	"github.com/samirrijal/mapboot/internal/pkg/projection"
)

// Projector resolves projection codes. *projection.Registry implements it.
type Projector interface {
	Lookup(code string) (projection.Projection, error)
}

// MapView is a map bound to a display container. It is safe for concurrent use.
type MapView struct {
	id         string
	container  string
	projection projection.Projection
	createdAt  time.Time

	mu        sync.RWMutex
	layers    []Layer
	center    domain.ProjectedPoint
	zoom      int
	hasCenter bool
	updatedAt time.Time
}

// New binds a view to container on surface using proj as display projection.
func New(surface Surface, id, container string, proj projection.Projection) (*MapView, error) {
	if surface == nil || !surface.HasContainer(container) {
		return nil, fmt.Errorf("%w: %q", domain.ErrContainerNotFound, container)
	}
	if proj == nil {
		return nil, fmt.Errorf("%w: nil projection", domain.ErrUnknownProjection)
	}
	now := time.Now().UTC()
	return &MapView{
		id:         id,
		container:  container,
		projection: proj,
		createdAt:  now,
		updatedAt:  now,
	}, nil
}

func (v *MapView) ID() string                        { return v.id }
func (v *MapView) Container() string                 { return v.container }
func (v *MapView) Projection() projection.Projection { return v.projection }

// AddLayer attaches l on top of the existing layers.
func (v *MapView) AddLayer(l Layer) {
	if b, ok := l.(projectionBinder); ok {
		b.bind(v.projection.Code())
	}
	v.mu.Lock()
	v.layers = append(v.layers, l)
	v.updatedAt = time.Now().UTC()
	v.mu.Unlock()
}

// Layers returns the attached layers, bottom first.
func (v *MapView) Layers() []Layer {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]Layer(nil), v.layers...)
}

// MarkerLayers returns the attached marker layers.
func (v *MapView) MarkerLayers() []*MarkerLayer {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var out []*MarkerLayer
	for _, l := range v.layers {
		if ml, ok := l.(*MarkerLayer); ok {
			out = append(out, ml)
		}
	}
	return out
}

// BaseLayer returns the first base tile layer, or nil.
func (v *MapView) BaseLayer() *TileLayer {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, l := range v.layers {
		if tl, ok := l.(*TileLayer); ok && tl.IsBaseLayer() {
			return tl
		}
	}
	return nil
}

// MaxZoom is the deepest zoom the base layer serves.
func (v *MapView) MaxZoom() int {
	if bl := v.BaseLayer(); bl != nil {
		return bl.MaxZoom()
	}
	return geospatial.MaxZoom
}

// SetCenter moves the visible centre to p at zoom. p must already be in the
// view projection.
func (v *MapView) SetCenter(p domain.ProjectedPoint, zoom int) error {
	if p.CRS != v.projection.Code() {
		return fmt.Errorf("%w: center in %s, view in %s", domain.ErrProjectionMismatch, p.CRS, v.projection.Code())
	}
	if limit := v.MaxZoom(); zoom < 0 || zoom > limit {
		return fmt.Errorf("%w: %d not in [0, %d]", domain.ErrInvalidZoom, zoom, limit)
	}

	v.mu.Lock()
	v.center = p
	v.zoom = zoom
	v.hasCenter = true
	v.updatedAt = time.Now().UTC()
	v.mu.Unlock()
	return nil
}

// Center returns the visible centre and whether one has been set.
func (v *MapView) Center() (domain.ProjectedPoint, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.center, v.hasCenter
}

// Zoom returns the current zoom level.
func (v *MapView) Zoom() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.zoom
}

// State snapshots the view. Geographic positions are filled in with geo when
// it is non-nil.
func (v *MapView) State(geo *projection.Registry) domain.MapViewState {
	v.mu.RLock()
	layers := make([]domain.LayerState, 0, len(v.layers))
	for _, l := range v.layers {
		layers = append(layers, l.State())
	}
	state := domain.MapViewState{
		ID:         v.id,
		Container:  v.container,
		Projection: v.projection.Code(),
		Center:     v.center,
		Zoom:       v.zoom,
		Layers:     layers,
		CreatedAt:  v.createdAt,
		UpdatedAt:  v.updatedAt,
	}
	v.mu.RUnlock()

	if geo == nil {
		return state
	}
	if c, err := geo.Inverse(state.Center, domain.CRSWGS84); err == nil {
		state.CenterGeo = c
	}
	for i := range state.Layers {
		for j := range state.Layers[i].Markers {
			m := &state.Layers[i].Markers[j]
			if loc, err := geo.Inverse(m.Position, domain.CRSWGS84); err == nil {
				m.Location = loc
			}
		}
	}
	return state
}
