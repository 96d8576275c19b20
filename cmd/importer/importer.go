package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/samirrijal/mapboot/internal/adapters/geojson"
	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/core/usecases"
)

// viewCreator is the part of MapService the importer drives.
type viewCreator interface {
	Create(ctx context.Context, opts usecases.CreateViewOptions) (*domain.MapViewState, error)
	AddMarker(ctx context.Context, viewID string, pt domain.GeoPoint, label string) (*domain.MarkerState, error)
}

// Result summarises one imported dataset.
type Result struct {
	ViewID  string
	Markers int
	Skipped int
	Failed  int
}

type importer struct {
	maps    viewCreator
	client  *fasthttp.Client
	timeout time.Duration
}

func newImporter(maps viewCreator, timeout time.Duration) *importer {
	return &importer{
		maps:    maps,
		client:  &fasthttp.Client{Name: "mapboot-importer"},
		timeout: timeout,
	}
}

// Import creates a view centred on the dataset's points and places one
// marker per point. The bootstrap marker carries the dataset slug.
func (i *importer) Import(ctx context.Context, ds Dataset) (Result, error) {
	data, err := i.load(ds)
	if err != nil {
		return Result{}, err
	}

	points, skipped, err := geojson.Points(data, ds.LabelProperty)
	if err != nil {
		return Result{}, err
	}
	center, ok := geojson.Center(points)
	if !ok {
		return Result{}, errors.New("no point features")
	}

	state, err := i.maps.Create(ctx, usecases.CreateViewOptions{
		Container: ds.Container,
		Center:    &center,
		Zoom:      ds.Zoom,
		Label:     ds.Slug,
	})
	if err != nil {
		return Result{}, fmt.Errorf("create view: %w", err)
	}

	res := Result{ViewID: state.ID, Skipped: skipped}
	for _, p := range points {
		if _, err := i.maps.AddMarker(ctx, state.ID, p.Location, p.Label); err != nil {
			res.Failed++
			continue
		}
		res.Markers++
	}
	return res, nil
}

func (i *importer) load(ds Dataset) ([]byte, error) {
	switch {
	case ds.Path != "":
		data, err := os.ReadFile(ds.Path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", ds.Path, err)
		}
		return data, nil
	case ds.URL != "":
		return i.download(ds.URL)
	}
	return nil, errors.New("dataset has neither path nor url")
}

func (i *importer) download(url string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.Set(fasthttp.HeaderAccept, "application/geo+json, application/json")

	if err := i.client.DoTimeout(req, resp, i.timeout); err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode(), url)
	}
	return append([]byte(nil), resp.Body()...), nil
}
