//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/mapboot/internal/adapters/postgres"
	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/pkg/config"
)

func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("mapboot-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 4)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := db.Migrate(ctx, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func sampleState() *domain.MapViewState {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.MapViewState{
		ID:         uuid.NewString(),
		Container:  "map",
		Projection: domain.CRSSphericalMercator,
		Center:     domain.ProjectedPoint{X: 1221052.3625623384, Y: 6824925.750258669, CRS: domain.CRSSphericalMercator},
		CenterGeo:  domain.GeoPoint{Lon: 10.9689, Lat: 52.13695, CRS: domain.CRSWGS84},
		Zoom:       13,
		Layers: []domain.LayerState{
			{Name: "OpenStreetMap", Kind: domain.LayerKindTile, BaseLayer: true, URLTemplate: "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png", Subdomains: []string{"a", "b", "c"}, MaxZoom: 19},
			{Name: "Markers", Kind: domain.LayerKindMarker, Markers: []domain.MarkerState{{
				ID:       uuid.NewString(),
				Position: domain.ProjectedPoint{X: 1221052.3625623384, Y: 6824925.750258669, CRS: domain.CRSSphericalMercator},
				Location: domain.GeoPoint{Lon: 10.9689, Lat: 52.13695, CRS: domain.CRSWGS84},
			}}},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestViewRepo_SaveGet(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewViewRepo(db)
	ctx := context.Background()

	state := sampleState()
	if err := repo.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := repo.Get(ctx, state.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Center != state.Center || got.Zoom != 13 {
		t.Errorf("centre %v zoom %d, want %v zoom 13", got.Center, got.Zoom, state.Center)
	}
	if len(got.Markers()) != 1 || got.Markers()[0].ID != state.Markers()[0].ID {
		t.Errorf("unexpected markers %+v", got.Markers())
	}
	if got.BaseLayer() == nil || got.BaseLayer().MaxZoom != 19 {
		t.Errorf("base layer not restored: %+v", got.Layers)
	}
}

func TestViewRepo_SaveTwiceKeepsMarkers(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewViewRepo(db)
	ctx := context.Background()

	state := sampleState()
	_ = repo.Save(ctx, state)

	state.Zoom = 10
	state.Layers[1].Markers = append(state.Layers[1].Markers, domain.MarkerState{
		ID:       uuid.NewString(),
		Position: domain.ProjectedPoint{X: 0, Y: 0, CRS: domain.CRSSphericalMercator},
		Location: domain.GeoPoint{CRS: domain.CRSWGS84},
		Label:    "null island",
	})
	if err := repo.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, _ := repo.Get(ctx, state.ID)
	if got.Zoom != 10 {
		t.Errorf("expected zoom 10, got %d", got.Zoom)
	}
	if n := len(got.Markers()); n != 2 {
		t.Fatalf("expected 2 markers, got %d", n)
	}
	if got.Markers()[1].Label != "null island" {
		t.Errorf("markers out of order: %+v", got.Markers())
	}
}

func TestViewRepo_GetMissing(t *testing.T) {
	repo := postgres.NewViewRepo(setupTestDB(t))
	_, err := repo.Get(context.Background(), uuid.NewString())
	if !errors.Is(err, domain.ErrViewNotFound) {
		t.Errorf("expected ErrViewNotFound, got %v", err)
	}
}

func TestViewRepo_GetMalformedID(t *testing.T) {
	repo := postgres.NewViewRepo(setupTestDB(t))
	_, err := repo.Get(context.Background(), "foo")
	if !errors.Is(err, domain.ErrViewNotFound) {
		t.Errorf("expected ErrViewNotFound, got %v", err)
	}
}

func TestViewRepo_List(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewViewRepo(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := repo.Save(ctx, sampleState()); err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	views, total, err := repo.List(ctx, 0, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total < 3 || len(views) != 2 {
		t.Errorf("expected 2 of >=3 views, got %d of %d", len(views), total)
	}
}
