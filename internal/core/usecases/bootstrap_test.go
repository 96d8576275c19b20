package usecases_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/core/mapview"
	"github.com/samirrijal/mapboot/internal/core/usecases"
	"github.com/samirrijal/mapboot/internal/pkg/projection"
)

const (
	wantX = 1221052.3625623384
	wantY = 6824925.750258669
)

func newBootstrapper() *usecases.Bootstrapper {
	return usecases.NewBootstrapper(projection.NewRegistry(), mapview.NewContainers(mapview.DefaultContainer), usecases.DefaultBootstrapConfig())
}

func TestBootstrap_CentersOnProjectedPoint(t *testing.T) {
	s, err := newBootstrapper().Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	center, ok := s.View.Center()
	if !ok {
		t.Fatal("expected center to be set")
	}
	if center != s.Center {
		t.Errorf("center %v, want %v", center, s.Center)
	}
	if center.CRS != domain.CRSSphericalMercator {
		t.Errorf("expected EPSG:3857, got %s", center.CRS)
	}
	if math.Abs(center.X-wantX) > 1e-6 || math.Abs(center.Y-wantY) > 1e-6 {
		t.Errorf("center (%f, %f), want (%f, %f)", center.X, center.Y, wantX, wantY)
	}
	if s.View.Zoom() != 13 {
		t.Errorf("expected zoom 13, got %d", s.View.Zoom())
	}
	if s.Origin != domain.NewGeoPoint(10.9689, 52.13695, "EPSG:4326") {
		t.Errorf("unexpected origin %v", s.Origin)
	}
}

func TestBootstrap_LayerOrder(t *testing.T) {
	s, err := newBootstrapper().Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	layers := s.View.Layers()
	if len(layers) != 2 {
		t.Fatalf("expected 2 layers, got %d", len(layers))
	}
	if layers[0].Kind() != domain.LayerKindTile || !layers[0].IsBaseLayer() {
		t.Errorf("first layer should be the base tile layer, got %s", layers[0].Kind())
	}
	if layers[1].Kind() != domain.LayerKindMarker || layers[1].Name() != "Markers" {
		t.Errorf("second layer should be the Markers layer, got %s %q", layers[1].Kind(), layers[1].Name())
	}
	if s.BaseLayer.URLTemplate() != mapview.OSMURLTemplate {
		t.Errorf("expected OSM tiles, got %s", s.BaseLayer.URLTemplate())
	}
}

func TestBootstrap_SingleMarkerAtCenter(t *testing.T) {
	s, err := newBootstrapper().Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mls := s.View.MarkerLayers()
	if len(mls) != 1 {
		t.Fatalf("expected 1 marker layer, got %d", len(mls))
	}
	markers := mls[0].Markers()
	if len(markers) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(markers))
	}
	if markers[0].Position() != s.Center {
		t.Errorf("marker at %v, want %v", markers[0].Position(), s.Center)
	}
	if markers[0].ID() != s.Marker.ID() {
		t.Errorf("marker id mismatch")
	}
}

func TestBootstrap_IndependentViews(t *testing.T) {
	b := newBootstrapper()
	a, err := b.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := b.Config()
	cfg.Center = domain.NewGeoPoint(-2.935, 43.263, "")
	cfg.Zoom = 10
	c, err := b.BootstrapWith(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.ID == c.ID {
		t.Error("expected distinct view ids")
	}
	if a.View.Zoom() != 13 || c.View.Zoom() != 10 {
		t.Errorf("zooms %d/%d, want 13/10", a.View.Zoom(), c.View.Zoom())
	}
	if a.MarkerLayer.Len() != 1 || c.MarkerLayer.Len() != 1 {
		t.Errorf("marker counts %d/%d, want 1/1", a.MarkerLayer.Len(), c.MarkerLayer.Len())
	}
	ac, _ := a.View.Center()
	if math.Abs(ac.X-wantX) > 1e-6 || math.Abs(ac.Y-wantY) > 1e-6 {
		t.Errorf("first view moved to %v", ac)
	}
}

func TestBootstrap_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*usecases.BootstrapConfig)
		want   error
	}{
		{"missing container", func(c *usecases.BootstrapConfig) { c.Container = "sidebar" }, domain.ErrContainerNotFound},
		{"unknown projection", func(c *usecases.BootstrapConfig) { c.Projection = "EPSG:27700" }, domain.ErrUnknownProjection},
		{"unknown source crs", func(c *usecases.BootstrapConfig) { c.Center.CRS = "EPSG:2056" }, domain.ErrUnknownProjection},
		{"invalid coordinate", func(c *usecases.BootstrapConfig) { c.Center.Lat = 95 }, domain.ErrInvalidCoordinate},
		{"invalid zoom", func(c *usecases.BootstrapConfig) { c.Zoom = 25 }, domain.ErrInvalidZoom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBootstrapper()
			cfg := b.Config()
			tt.mutate(&cfg)
			_, err := b.BootstrapWith(context.Background(), cfg)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}
