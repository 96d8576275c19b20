//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"math"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samirrijal/mapboot/internal/adapters/http"
	"github.com/samirrijal/mapboot/internal/adapters/postgres"
	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/core/mapview"
	"github.com/samirrijal/mapboot/internal/core/usecases"
	"github.com/samirrijal/mapboot/internal/pkg/config"
	"github.com/samirrijal/mapboot/internal/pkg/projection"
)

// setupTestDB connects to the test database and applies the migrations.
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
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// setupTestDeps creates dependencies backed by PostgreSQL, no cache.
func setupTestDeps(t *testing.T, db *postgres.DB) *http.Dependencies {
	reg := projection.NewRegistry()
	surface := mapview.NewContainers(mapview.DefaultContainer)
	boot := usecases.NewBootstrapper(reg, surface, usecases.DefaultBootstrapConfig())

	return &http.Dependencies{
		Maps:        usecases.NewMapService(boot, postgres.NewViewRepo(db), reg, surface, nil),
		Projections: usecases.NewProjectionService(reg, nil),
		DB:          db,
	}
}

// TestCreateAndGetView_Integration round-trips a bootstrapped view through
// PostGIS.
func TestCreateAndGetView_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(t, db))
	created := createView(t, app)

	req := httptest.NewRequest("GET", "/v1/views/"+created.ID, nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var state domain.MapViewState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if state.Zoom != 13 {
		t.Errorf("expected zoom 13, got %d", state.Zoom)
	}
	if math.Abs(state.Center.X-wantX) > 1e-3 || math.Abs(state.Center.Y-wantY) > 1e-3 {
		t.Errorf("unexpected center %v", state.Center)
	}
	if n := len(state.Markers()); n != 1 {
		t.Errorf("expected 1 marker, got %d", n)
	}
}

// TestAddMarker_Integration checks markers persist across requests.
func TestAddMarker_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(t, db))
	view := createView(t, app)

	status, body := doJSON(t, app, "POST", "/v1/views/"+view.ID+"/markers", `{"lon":10.97,"lat":52.14,"label":"integration"}`)
	if status != 201 {
		t.Fatalf("expected 201, got %d: %s", status, body)
	}

	status, body = doJSON(t, app, "GET", "/v1/views/"+view.ID+"/markers/nearby?lat=52.14&lon=10.97&radius=50", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var markers []domain.MarkerState
	if err := json.Unmarshal(body, &markers); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(markers) != 1 || markers[0].Label != "integration" {
		t.Errorf("unexpected nearby markers %+v", markers)
	}
}

// TestReady_Integration reports the database as reachable.
func TestReady_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(t, db))
	status, body := doJSON(t, app, "GET", "/v1/ready", "")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
}
