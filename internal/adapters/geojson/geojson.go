// Package geojson converts between map view markers and GeoJSON.
package geojson

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/mapboot/internal/core/domain"
)

// Markers renders every marker of a view as a Point feature in EPSG:4326,
// which is the only CRS GeoJSON allows.
func Markers(state *domain.MapViewState) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, l := range state.Layers {
		if l.Kind != domain.LayerKindMarker {
			continue
		}
		for _, m := range l.Markers {
			f := geojson.NewFeature(orb.Point{m.Location.Lon, m.Location.Lat})
			f.ID = m.ID
			f.Properties["layer"] = l.Name
			f.Properties["label"] = m.Label
			f.Properties["x"] = m.Position.X
			f.Properties["y"] = m.Position.Y
			f.Properties["crs"] = m.Position.CRS
			fc.Append(f)
		}
	}
	if len(fc.Features) > 0 {
		fc.BBox = geojson.NewBBox(fc.Features[0].Geometry.Bound())
		for _, f := range fc.Features[1:] {
			fc.BBox = geojson.NewBBox(fc.BBox.Bound().Union(f.Geometry.Bound()))
		}
	}
	return fc
}

// Point is a labelled location read from GeoJSON.
type Point struct {
	Location domain.GeoPoint
	Label    string
}

// Points extracts the point features of a FeatureCollection. Labels come
// from the labelProp property; MultiPoints contribute every point. Other
// geometries are skipped and counted.
func Points(data []byte, labelProp string) ([]Point, int, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, 0, fmt.Errorf("parse feature collection: %w", err)
	}

	var (
		out     []Point
		skipped int
	)
	for _, f := range fc.Features {
		label := f.Properties.MustString(labelProp, "")
		switch g := f.Geometry.(type) {
		case orb.Point:
			out = append(out, Point{Location: domain.NewGeoPoint(g.Lon(), g.Lat(), domain.CRSWGS84), Label: label})
		case orb.MultiPoint:
			for _, p := range g {
				out = append(out, Point{Location: domain.NewGeoPoint(p.Lon(), p.Lat(), domain.CRSWGS84), Label: label})
			}
		default:
			skipped++
		}
	}
	return out, skipped, nil
}

// Center returns the centre of the bounding box of points.
func Center(points []Point) (domain.GeoPoint, bool) {
	if len(points) == 0 {
		return domain.GeoPoint{}, false
	}
	mp := make(orb.MultiPoint, len(points))
	for i, p := range points {
		mp[i] = orb.Point{p.Location.Lon, p.Location.Lat}
	}
	c := mp.Bound().Center()
	return domain.NewGeoPoint(c.Lon(), c.Lat(), domain.CRSWGS84), true
}
