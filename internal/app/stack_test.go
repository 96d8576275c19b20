package app_test

import (
	"context"
	"testing"

	"github.com/samirrijal/mapboot/internal/app"
	"github.com/samirrijal/mapboot/internal/core/usecases"
	"github.com/samirrijal/mapboot/internal/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Map: config.MapConfig{
			Containers:  []string{"inset"},
			Container:   "map",
			Projection:  "EPSG:3857",
			Lon:         10.9689,
			Lat:         52.13695,
			Zoom:        13,
			MarkerLayer: "Markers",
		},
		Tiles: config.TilesConfig{
			Name:        "OpenStreetMap",
			URLTemplate: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Subdomains:  []string{"a", "b", "c"},
			MaxZoom:     19,
		},
		Storage: config.StorageConfig{Driver: "memory", MemorySize: 16},
	}
}

func TestBootstrapConfig(t *testing.T) {
	got := app.BootstrapConfig(testConfig())
	want := usecases.DefaultBootstrapConfig()

	if got.Container != want.Container || got.Projection != want.Projection {
		t.Errorf("container/projection = %s/%s, want %s/%s", got.Container, got.Projection, want.Container, want.Projection)
	}
	if got.Center != want.Center {
		t.Errorf("center = %v, want %v", got.Center, want.Center)
	}
	if got.Zoom != want.Zoom {
		t.Errorf("zoom = %d, want %d", got.Zoom, want.Zoom)
	}
	if got.TileLayer.MaxZoom != 19 || len(got.TileLayer.Subdomains) != 3 {
		t.Errorf("unexpected tile layer %+v", got.TileLayer)
	}
}

func TestSurface_IncludesDefaultContainer(t *testing.T) {
	s := app.Surface(testConfig())
	for _, name := range []string{"map", "inset"} {
		if !s.HasContainer(name) {
			t.Errorf("expected container %q", name)
		}
	}
}

func TestBuild_MemoryStack(t *testing.T) {
	stack, err := app.Build(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	defer stack.Close()

	if stack.DB != nil || stack.Cache != nil || stack.Publisher != nil {
		t.Fatal("expected no optional backends")
	}

	state, err := stack.Maps.Create(context.Background(), usecases.CreateViewOptions{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := stack.Maps.Get(context.Background(), state.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Zoom != 13 {
		t.Errorf("zoom = %d, want 13", got.Zoom)
	}
	if len(stack.Projections.List()) == 0 {
		t.Error("expected registered projections")
	}
}
