package usecases

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/core/mapview"
	"github.com/samirrijal/mapboot/internal/pkg/projection"
	"github.com/samirrijal/mapboot/internal/pkg/telemetry"
)

// Defaults for the bootstrap sequence.
const (
	DefaultLon         = 10.9689
	DefaultLat         = 52.13695
	DefaultZoom        = 13
	DefaultMarkerLayer = "Markers"
)

// BootstrapConfig parameterises a bootstrap run.
type BootstrapConfig struct {
	Container   string
	Projection  string // display projection of the view
	Center      domain.GeoPoint
	Zoom        int
	MarkerLayer string
	MarkerLabel string
	TileLayer   mapview.TileLayerConfig
}

// DefaultBootstrapConfig centres an OSM map on the fixed point at zoom 13.
func DefaultBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		Container:   mapview.DefaultContainer,
		Projection:  domain.CRSSphericalMercator,
		Center:      domain.NewGeoPoint(DefaultLon, DefaultLat, domain.CRSWGS84),
		Zoom:        DefaultZoom,
		MarkerLayer: DefaultMarkerLayer,
	}
}

// Session is the result of a bootstrap: the view and the layers the
// sequence created, owned by the caller.
type Session struct {
	ID          string
	View        *mapview.MapView
	BaseLayer   *mapview.TileLayer
	MarkerLayer *mapview.MarkerLayer
	Marker      *mapview.Marker
	Origin      domain.GeoPoint
	Center      domain.ProjectedPoint
}

// Bootstrapper runs the map initialisation sequence.
type Bootstrapper struct {
	projections *projection.Registry
	surface     mapview.Surface
	cfg         BootstrapConfig
	newID       func() string
}

// NewBootstrapper creates a Bootstrapper with cfg as its default configuration.
func NewBootstrapper(projections *projection.Registry, surface mapview.Surface, cfg BootstrapConfig) *Bootstrapper {
	return &Bootstrapper{
		projections: projections,
		surface:     surface,
		cfg:         cfg,
		newID:       uuid.NewString,
	}
}

// Config returns the default configuration.
func (b *Bootstrapper) Config() BootstrapConfig {
	return b.cfg
}

// Bootstrap runs the sequence with the default configuration.
func (b *Bootstrapper) Bootstrap(ctx context.Context) (*Session, error) {
	return b.BootstrapWith(ctx, b.cfg)
}

// BootstrapWith builds a view, attaches the base layer, projects the centre
// into the view projection, places a marker there and centres the view.
func (b *Bootstrapper) BootstrapWith(ctx context.Context, cfg BootstrapConfig) (*Session, error) {
	_, span := telemetry.Tracer("usecases").Start(ctx, "Bootstrapper.Bootstrap")
	defer span.End()

	s, err := b.run(cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(
		attribute.String(telemetry.AttrViewID, s.ID),
		attribute.String(telemetry.AttrContainer, cfg.Container),
		attribute.String(telemetry.AttrProjection, s.Center.CRS),
		attribute.Int(telemetry.AttrZoom, cfg.Zoom),
	)
	return s, nil
}

func (b *Bootstrapper) run(cfg BootstrapConfig) (*Session, error) {
	proj, err := b.projections.Lookup(cfg.Projection)
	if err != nil {
		return nil, fmt.Errorf("view projection: %w", err)
	}

	id := b.newID()
	view, err := mapview.New(b.surface, id, cfg.Container, proj)
	if err != nil {
		return nil, err
	}

	base := mapview.NewTileLayer(cfg.TileLayer)
	view.AddLayer(base)

	origin := cfg.Center
	if origin.CRS == "" {
		origin.CRS = domain.CRSWGS84
	}
	center, err := b.projections.Transform(origin, view.Projection())
	if err != nil {
		return nil, fmt.Errorf("project center %s: %w", origin, err)
	}

	markers := mapview.NewMarkerLayer(cfg.MarkerLayer)
	view.AddLayer(markers)

	marker := mapview.NewMarker(center, cfg.MarkerLabel)
	if err := markers.AddMarker(marker); err != nil {
		return nil, err
	}

	if err := view.SetCenter(center, cfg.Zoom); err != nil {
		return nil, err
	}

	return &Session{
		ID:          id,
		View:        view,
		BaseLayer:   base,
		MarkerLayer: markers,
		Marker:      marker,
		Origin:      origin,
		Center:      center,
	}, nil
}
