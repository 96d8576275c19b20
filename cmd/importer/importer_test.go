package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/core/usecases"
)

type fakeMaps struct {
	created []usecases.CreateViewOptions
	markers []string
	failOn  string
}

func (f *fakeMaps) Create(ctx context.Context, opts usecases.CreateViewOptions) (*domain.MapViewState, error) {
	f.created = append(f.created, opts)
	return &domain.MapViewState{ID: "view-1"}, nil
}

func (f *fakeMaps) AddMarker(ctx context.Context, viewID string, pt domain.GeoPoint, label string) (*domain.MarkerState, error) {
	if label == f.failOn {
		return nil, errors.New("rejected")
	}
	f.markers = append(f.markers, label)
	return &domain.MarkerState{Label: label}, nil
}

const sampleCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [10.0, 52.0]}, "properties": {"name": "west"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [12.0, 54.0]}, "properties": {"name": "east"}},
    {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]}, "properties": {}}
  ]
}`

func writeSample(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "points.geojson")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestImport_CreatesCentredView(t *testing.T) {
	maps := &fakeMaps{}
	zoom := 9
	imp := newImporter(maps, time.Second)

	res, err := imp.Import(context.Background(), Dataset{
		Slug:          "stations",
		Path:          writeSample(t, sampleCollection),
		LabelProperty: "name",
		Zoom:          &zoom,
	})
	require.NoError(t, err)

	assert.Equal(t, "view-1", res.ViewID)
	assert.Equal(t, 2, res.Markers)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 0, res.Failed)
	assert.Equal(t, []string{"west", "east"}, maps.markers)

	require.Len(t, maps.created, 1)
	opts := maps.created[0]
	assert.Equal(t, "stations", opts.Label)
	require.NotNil(t, opts.Center)
	assert.InDelta(t, 11.0, opts.Center.Lon, 1e-9)
	assert.InDelta(t, 53.0, opts.Center.Lat, 1e-9)
	require.NotNil(t, opts.Zoom)
	assert.Equal(t, 9, *opts.Zoom)
}

func TestImport_CountsRejectedMarkers(t *testing.T) {
	maps := &fakeMaps{failOn: "east"}
	imp := newImporter(maps, time.Second)

	res, err := imp.Import(context.Background(), Dataset{Slug: "s", Path: writeSample(t, sampleCollection), LabelProperty: "name"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Markers)
	assert.Equal(t, 1, res.Failed)
}

func TestImport_Errors(t *testing.T) {
	imp := newImporter(&fakeMaps{}, time.Second)
	ctx := context.Background()

	_, err := imp.Import(ctx, Dataset{Slug: "none"})
	assert.Error(t, err)

	_, err = imp.Import(ctx, Dataset{Slug: "missing", Path: filepath.Join(t.TempDir(), "nope.geojson")})
	assert.Error(t, err)

	_, err = imp.Import(ctx, Dataset{Slug: "empty", Path: writeSample(t, `{"type":"FeatureCollection","features":[]}`)})
	assert.Error(t, err)
}
