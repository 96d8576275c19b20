package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/core/mapview"
	"github.com/samirrijal/mapboot/internal/core/ports"
	"github.com/samirrijal/mapboot/internal/pkg/geospatial"
	"github.com/samirrijal/mapboot/internal/pkg/metrics"
	"github.com/samirrijal/mapboot/internal/pkg/projection"
	"github.com/samirrijal/mapboot/internal/pkg/telemetry"
)

// MapService owns bootstrapped views: it creates them, persists their state
// and applies later changes.
type MapService struct {
	boot        *Bootstrapper
	views       ports.ViewRepository
	projections *projection.Registry
	surface     mapview.Surface
	events      ports.EventPublisher

	// serialises read-modify-write cycles on stored views
	mu sync.Mutex
}

// NewMapService creates a new MapService. events may be nil.
func NewMapService(boot *Bootstrapper, views ports.ViewRepository, projections *projection.Registry, surface mapview.Surface, events ports.EventPublisher) *MapService {
	return &MapService{
		boot:        boot,
		views:       views,
		projections: projections,
		surface:     surface,
		events:      events,
	}
}

// Defaults returns the bootstrap configuration new views start from.
func (s *MapService) Defaults() BootstrapConfig {
	return s.boot.Config()
}

// CreateViewOptions overrides parts of the default bootstrap configuration.
type CreateViewOptions struct {
	Container string
	Center    *domain.GeoPoint
	Zoom      *int
	Label     string
}

// Create bootstraps a new view and stores it.
func (s *MapService) Create(ctx context.Context, opts CreateViewOptions) (*domain.MapViewState, error) {
	cfg := s.boot.Config()
	if opts.Container != "" {
		cfg.Container = opts.Container
	}
	if opts.Center != nil {
		cfg.Center = *opts.Center
	}
	if opts.Zoom != nil {
		cfg.Zoom = *opts.Zoom
	}
	if opts.Label != "" {
		cfg.MarkerLabel = opts.Label
	}

	session, err := s.boot.BootstrapWith(ctx, cfg)
	if err != nil {
		metrics.ViewsBootstrapped.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	metrics.ViewsBootstrapped.WithLabelValues("ok").Inc()

	state := session.View.State(s.projections)
	if err := s.views.Save(ctx, &state); err != nil {
		return nil, fmt.Errorf("save view: %w", err)
	}

	s.publish(ctx, &domain.ViewEvent{Type: domain.ViewCreated, ViewID: state.ID, State: &state})
	return &state, nil
}

// Get returns a stored view.
func (s *MapService) Get(ctx context.Context, id string) (*domain.MapViewState, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", domain.ErrViewNotFound)
	}
	return s.views.Get(ctx, id)
}

// List returns a page of stored views and the total count.
func (s *MapService) List(ctx context.Context, offset, limit int) ([]domain.MapViewState, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.views.List(ctx, offset, limit)
}

// AddMarker projects pt into the view projection and adds a marker there.
// The marker goes onto the view's first marker layer, which is created if
// missing.
func (s *MapService) AddMarker(ctx context.Context, viewID string, pt domain.GeoPoint, label string) (*domain.MarkerState, error) {
	ctx, span := telemetry.Tracer("usecases").Start(ctx, "MapService.AddMarker")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	view, err := s.load(ctx, viewID)
	if err != nil {
		return nil, err
	}

	p, err := s.projections.Transform(pt, view.Projection())
	if err != nil {
		return nil, err
	}

	layers := view.MarkerLayers()
	var layer *mapview.MarkerLayer
	if len(layers) > 0 {
		layer = layers[0]
	} else {
		layer = mapview.NewMarkerLayer(DefaultMarkerLayer)
		view.AddLayer(layer)
	}

	marker := mapview.NewMarker(p, label)
	if err := layer.AddMarker(marker); err != nil {
		return nil, err
	}

	state := view.State(s.projections)
	if err := s.views.Save(ctx, &state); err != nil {
		return nil, fmt.Errorf("save view: %w", err)
	}
	metrics.MarkersAdded.Inc()

	ms := findMarker(&state, marker.ID())
	s.publish(ctx, &domain.ViewEvent{Type: domain.ViewMarkerAdded, ViewID: state.ID, Marker: ms})
	return ms, nil
}

// SetCenter recentres a stored view on pt at zoom.
func (s *MapService) SetCenter(ctx context.Context, viewID string, pt domain.GeoPoint, zoom int) (*domain.MapViewState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	view, err := s.load(ctx, viewID)
	if err != nil {
		return nil, err
	}

	p, err := s.projections.Transform(pt, view.Projection())
	if err != nil {
		return nil, err
	}
	if err := view.SetCenter(p, zoom); err != nil {
		return nil, err
	}

	state := view.State(s.projections)
	if err := s.views.Save(ctx, &state); err != nil {
		return nil, fmt.Errorf("save view: %w", err)
	}

	s.publish(ctx, &domain.ViewEvent{Type: domain.ViewCentered, ViewID: state.ID, State: &state})
	return &state, nil
}

// Tiles lists the base layer tiles around the view centre at its zoom.
func (s *MapService) Tiles(ctx context.Context, viewID string, radius int) ([]domain.TileRef, error) {
	if radius < 0 || radius > 5 {
		radius = 1
	}
	state, err := s.Get(ctx, viewID)
	if err != nil {
		return nil, err
	}
	base := state.BaseLayer()
	if base == nil {
		return nil, nil
	}

	c := state.CenterGeo
	tiles := geospatial.TilesAround(c.Lon, c.Lat, state.Zoom, radius)
	refs := make([]domain.TileRef, 0, len(tiles))
	for _, t := range tiles {
		refs = append(refs, domain.TileRef{
			Z:   t.Z,
			X:   t.X,
			Y:   t.Y,
			URL: geospatial.TileURL(base.URLTemplate, base.Subdomains, t),
		})
	}
	return refs, nil
}

// MarkersNear returns the markers of a view within radiusMeters of pt,
// nearest first.
func (s *MapService) MarkersNear(ctx context.Context, viewID string, pt domain.GeoPoint, radiusMeters float64) ([]domain.MarkerState, error) {
	if radiusMeters <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", domain.ErrInvalidCoordinate)
	}
	state, err := s.Get(ctx, viewID)
	if err != nil {
		return nil, err
	}
	if pt.CRS != "" && pt.CRS != domain.CRSWGS84 {
		p, err := s.projections.TransformTo(pt, domain.CRSWGS84)
		if err != nil {
			return nil, err
		}
		pt = domain.NewGeoPoint(p.X, p.Y, domain.CRSWGS84)
	}

	minLat, minLon, maxLat, maxLon := geospatial.BoundingBox(pt.Lat, pt.Lon, radiusMeters)
	type hit struct {
		marker domain.MarkerState
		dist   float64
	}
	var hits []hit
	for _, m := range state.Markers() {
		loc := m.Location
		if loc.Lat < minLat || loc.Lat > maxLat || loc.Lon < minLon || loc.Lon > maxLon {
			continue
		}
		d := geospatial.Haversine(pt.Lat, pt.Lon, loc.Lat, loc.Lon)
		if d <= radiusMeters {
			hits = append(hits, hit{marker: m, dist: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]domain.MarkerState, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.marker)
	}
	return out, nil
}

// Viewport returns the extent visible in a width x height pixel container
// at the view's centre and zoom, in the view projection.
func (s *MapService) Viewport(ctx context.Context, viewID string, width, height int) (domain.Bounds, error) {
	if width <= 0 || height <= 0 {
		return domain.Bounds{}, fmt.Errorf("%w: viewport %dx%d", domain.ErrInvalidCoordinate, width, height)
	}
	state, err := s.Get(ctx, viewID)
	if err != nil {
		return domain.Bounds{}, err
	}
	proj, err := s.projections.Lookup(state.Projection)
	if err != nil {
		return domain.Bounds{}, err
	}

	res := geospatial.Resolution(state.Zoom)
	if proj.Geographic() {
		// degrees per pixel at the equator
		res = 360 / (geospatial.TileSize * math.Exp2(float64(state.Zoom)))
	}
	halfW := res * float64(width) / 2
	halfH := res * float64(height) / 2
	return domain.Bounds{
		MinX: state.Center.X - halfW,
		MinY: state.Center.Y - halfH,
		MaxX: state.Center.X + halfW,
		MaxY: state.Center.Y + halfH,
		CRS:  state.Projection,
	}, nil
}

// WarmRequest builds the tile prefetch request for a view: its centre zoom
// and the two levels either side, clipped to the base layer range.
func WarmRequest(state *domain.MapViewState, radius int) (domain.TileWarmRequest, bool) {
	base := state.BaseLayer()
	if base == nil {
		return domain.TileWarmRequest{}, false
	}
	minZoom := state.Zoom - 2
	if minZoom < 0 {
		minZoom = 0
	}
	maxZoom := state.Zoom + 2
	if base.MaxZoom > 0 && maxZoom > base.MaxZoom {
		maxZoom = base.MaxZoom
	}
	return domain.TileWarmRequest{
		ViewID:      state.ID,
		URLTemplate: base.URLTemplate,
		Subdomains:  base.Subdomains,
		Center:      state.CenterGeo,
		MinZoom:     minZoom,
		MaxZoom:     maxZoom,
		Radius:      radius,
	}, true
}

func (s *MapService) load(ctx context.Context, id string) (*mapview.MapView, error) {
	state, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapview.Restore(state, s.projections, s.surface)
}

func (s *MapService) publish(ctx context.Context, event *domain.ViewEvent) {
	if s.events == nil {
		return
	}
	event.Time = time.Now().UTC()
	if err := s.events.PublishViewEvent(ctx, event); err != nil {
		slog.WarnContext(ctx, "publish view event failed", "type", event.Type, "view_id", event.ViewID, "error", err)
		return
	}
	metrics.EventsPublished.WithLabelValues(string(event.Type)).Inc()
}

func findMarker(state *domain.MapViewState, id string) *domain.MarkerState {
	for _, m := range state.Markers() {
		if m.ID == id {
			m := m
			return &m
		}
	}
	return nil
}
