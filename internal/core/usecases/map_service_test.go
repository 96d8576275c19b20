package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/core/mapview"
	"github.com/samirrijal/mapboot/internal/core/usecases"
	"github.com/samirrijal/mapboot/internal/pkg/projection"
)

// --- Mock ViewRepository ---

type mockViewRepo struct {
	mu     sync.Mutex
	views  map[string]domain.MapViewState
	saveFn func(ctx context.Context, state *domain.MapViewState) error
	listFn func(ctx context.Context, offset, limit int) ([]domain.MapViewState, int, error)
}

func newMockViewRepo() *mockViewRepo {
	return &mockViewRepo{views: make(map[string]domain.MapViewState)}
}

func (m *mockViewRepo) Save(ctx context.Context, state *domain.MapViewState) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, state)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views[state.ID] = *state
	return nil
}

func (m *mockViewRepo) Get(ctx context.Context, id string) (*domain.MapViewState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.views[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrViewNotFound, id)
	}
	return &s, nil
}

func (m *mockViewRepo) List(ctx context.Context, offset, limit int) ([]domain.MapViewState, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, offset, limit)
	}
	return nil, 0, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.ViewEvent
	err    error
}

func (m *mockPublisher) PublishViewEvent(ctx context.Context, event *domain.ViewEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, *event)
	return nil
}

func (m *mockPublisher) types() []domain.ViewEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ViewEventType
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

func newMapService(repo *mockViewRepo, pub *mockPublisher) *usecases.MapService {
	reg := projection.NewRegistry()
	surface := mapview.NewContainers(mapview.DefaultContainer, "inset")
	boot := usecases.NewBootstrapper(reg, surface, usecases.DefaultBootstrapConfig())
	if pub == nil {
		return usecases.NewMapService(boot, repo, reg, surface, nil)
	}
	return usecases.NewMapService(boot, repo, reg, surface, pub)
}

// --- Tests ---

func TestMapService_Create(t *testing.T) {
	repo := newMockViewRepo()
	pub := &mockPublisher{}
	svc := newMapService(repo, pub)

	state, err := svc.Create(context.Background(), usecases.CreateViewOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Zoom != 13 || state.Container != "map" || state.Projection != domain.CRSSphericalMercator {
		t.Errorf("unexpected state: %+v", state)
	}
	if len(state.Markers()) != 1 {
		t.Fatalf("expected 1 marker, got %d", len(state.Markers()))
	}
	loc := state.Markers()[0].Location
	if d := loc.Lon - 10.9689; d > 1e-6 || d < -1e-6 {
		t.Errorf("marker lon %f", loc.Lon)
	}
	if _, err := repo.Get(context.Background(), state.ID); err != nil {
		t.Errorf("view not stored: %v", err)
	}
	if got := pub.types(); len(got) != 1 || got[0] != domain.ViewCreated {
		t.Errorf("expected one created event, got %v", got)
	}
}

func TestMapService_Create_Overrides(t *testing.T) {
	svc := newMapService(newMockViewRepo(), nil)
	zoom := 8
	center := domain.NewGeoPoint(-2.935, 43.263, "")

	state, err := svc.Create(context.Background(), usecases.CreateViewOptions{
		Container: "inset",
		Center:    &center,
		Zoom:      &zoom,
		Label:     "Bilbao",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.Container != "inset" || state.Zoom != 8 {
		t.Errorf("overrides not applied: %+v", state)
	}
	if state.Markers()[0].Label != "Bilbao" {
		t.Errorf("expected label Bilbao, got %q", state.Markers()[0].Label)
	}
}

func TestMapService_Create_UnknownContainer(t *testing.T) {
	svc := newMapService(newMockViewRepo(), nil)
	_, err := svc.Create(context.Background(), usecases.CreateViewOptions{Container: "nope"})
	if !errors.Is(err, domain.ErrContainerNotFound) {
		t.Errorf("expected ErrContainerNotFound, got %v", err)
	}
}

func TestMapService_Create_SaveError(t *testing.T) {
	repo := newMockViewRepo()
	repo.saveFn = func(ctx context.Context, state *domain.MapViewState) error {
		return errors.New("disk full")
	}
	pub := &mockPublisher{}
	svc := newMapService(repo, pub)

	if _, err := svc.Create(context.Background(), usecases.CreateViewOptions{}); err == nil {
		t.Fatal("expected error")
	}
	if len(pub.types()) != 0 {
		t.Error("no event should be published when the save fails")
	}
}

func TestMapService_PublishErrorIgnored(t *testing.T) {
	svc := newMapService(newMockViewRepo(), &mockPublisher{err: errors.New("nats down")})
	if _, err := svc.Create(context.Background(), usecases.CreateViewOptions{}); err != nil {
		t.Fatalf("publish failures must not fail the request: %v", err)
	}
}

func TestMapService_AddMarker(t *testing.T) {
	repo := newMockViewRepo()
	pub := &mockPublisher{}
	svc := newMapService(repo, pub)
	ctx := context.Background()

	state, err := svc.Create(ctx, usecases.CreateViewOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, err := svc.AddMarker(ctx, state.ID, domain.NewGeoPoint(11.0, 52.2, ""), "second")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m == nil || m.Label != "second" || m.Position.CRS != domain.CRSSphericalMercator {
		t.Fatalf("unexpected marker: %+v", m)
	}

	got, _ := svc.Get(ctx, state.ID)
	if len(got.Markers()) != 2 {
		t.Errorf("expected 2 markers, got %d", len(got.Markers()))
	}
	if got.Markers()[0].ID != state.Markers()[0].ID {
		t.Error("existing marker id changed")
	}
	if types := pub.types(); len(types) != 2 || types[1] != domain.ViewMarkerAdded {
		t.Errorf("unexpected events %v", types)
	}
}

func TestMapService_AddMarker_NotFound(t *testing.T) {
	svc := newMapService(newMockViewRepo(), nil)
	_, err := svc.AddMarker(context.Background(), "missing", domain.NewGeoPoint(0, 0, ""), "")
	if !errors.Is(err, domain.ErrViewNotFound) {
		t.Errorf("expected ErrViewNotFound, got %v", err)
	}
}

func TestMapService_SetCenter(t *testing.T) {
	svc := newMapService(newMockViewRepo(), nil)
	ctx := context.Background()
	state, _ := svc.Create(ctx, usecases.CreateViewOptions{})

	got, err := svc.SetCenter(ctx, state.ID, domain.NewGeoPoint(-2.935, 43.263, ""), 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Zoom != 15 {
		t.Errorf("expected zoom 15, got %d", got.Zoom)
	}
	if d := got.CenterGeo.Lat - 43.263; d > 1e-6 || d < -1e-6 {
		t.Errorf("center lat %f", got.CenterGeo.Lat)
	}

	if _, err := svc.SetCenter(ctx, state.ID, domain.NewGeoPoint(0, 0, ""), 20); !errors.Is(err, domain.ErrInvalidZoom) {
		t.Errorf("expected ErrInvalidZoom, got %v", err)
	}
}

func TestMapService_List_ClampLimit(t *testing.T) {
	var gotOffset, gotLimit int
	repo := newMockViewRepo()
	repo.listFn = func(ctx context.Context, offset, limit int) ([]domain.MapViewState, int, error) {
		gotOffset, gotLimit = offset, limit
		return nil, 0, nil
	}
	svc := newMapService(repo, nil)

	_, _, _ = svc.List(context.Background(), -5, 1000)
	if gotOffset != 0 || gotLimit != 20 {
		t.Errorf("expected offset 0 limit 20, got %d/%d", gotOffset, gotLimit)
	}
}

func TestMapService_Tiles(t *testing.T) {
	svc := newMapService(newMockViewRepo(), nil)
	ctx := context.Background()
	state, _ := svc.Create(ctx, usecases.CreateViewOptions{})

	tiles, err := svc.Tiles(ctx, state.ID, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tiles) != 9 {
		t.Fatalf("expected 9 tiles, got %d", len(tiles))
	}
	found := false
	for _, tr := range tiles {
		if tr.Z == 13 && tr.X == 4345 && tr.Y == 2700 {
			found = true
			if tr.URL != "https://b.tile.openstreetmap.org/13/4345/2700.png" {
				t.Errorf("unexpected url %s", tr.URL)
			}
		}
	}
	if !found {
		t.Error("centre tile 13/4345/2700 missing")
	}
}

func TestMapService_MarkersNear(t *testing.T) {
	svc := newMapService(newMockViewRepo(), nil)
	ctx := context.Background()
	state, _ := svc.Create(ctx, usecases.CreateViewOptions{})
	if _, err := svc.AddMarker(ctx, state.ID, domain.NewGeoPoint(10.98, 52.14, ""), "near"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.AddMarker(ctx, state.ID, domain.NewGeoPoint(13.4, 52.5, ""), "berlin"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.MarkersNear(ctx, state.ID, domain.NewGeoPoint(10.97, 52.137, ""), 2000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 markers, got %d", len(got))
	}
	if got[1].Label != "near" {
		t.Errorf("expected nearest first, got %q last", got[1].Label)
	}
}

func TestMapService_Viewport(t *testing.T) {
	svc := newMapService(newMockViewRepo(), nil)
	ctx := context.Background()
	state, _ := svc.Create(ctx, usecases.CreateViewOptions{})

	b, err := svc.Viewport(ctx, state.ID, 512, 256)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.MinX >= state.Center.X || b.MaxX <= state.Center.X {
		t.Errorf("centre outside viewport: %+v", b)
	}
	w, h := b.MaxX-b.MinX, b.MaxY-b.MinY
	if d := w - 2*h; d > 1e-6 || d < -1e-6 {
		t.Errorf("expected 2:1 aspect, got %f x %f", w, h)
	}

	if _, err := svc.Viewport(ctx, state.ID, 0, 10); !errors.Is(err, domain.ErrInvalidCoordinate) {
		t.Errorf("expected ErrInvalidCoordinate, got %v", err)
	}
}

func TestWarmRequest(t *testing.T) {
	svc := newMapService(newMockViewRepo(), nil)
	state, _ := svc.Create(context.Background(), usecases.CreateViewOptions{})

	req, ok := usecases.WarmRequest(state, 2)
	if !ok {
		t.Fatal("expected a request")
	}
	if req.MinZoom != 11 || req.MaxZoom != 15 || req.Radius != 2 {
		t.Errorf("unexpected request %+v", req)
	}
	if req.ViewID != state.ID || len(req.Subdomains) != 3 {
		t.Errorf("unexpected request %+v", req)
	}
}
