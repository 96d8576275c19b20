package projection

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/samirrijal/mapboot/internal/core/domain"
)

// Registry resolves projection codes and aliases. It is safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	byCode map[string]Projection
}

// NewRegistry returns a registry holding the built-in projections.
func NewRegistry() *Registry {
	r := &Registry{byCode: make(map[string]Projection)}
	r.Register(WGS84{}, "CRS:84", "WGS84", "EPSG:4979")
	r.Register(SphericalMercator{}, "EPSG:900913", "EPSG:102100", "EPSG:102113", "GOOGLE")
	return r
}

func normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Register adds p under its own code and any aliases, replacing earlier entries.
func (r *Registry) Register(p Projection, aliases ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCode[normalize(p.Code())] = p
	for _, a := range aliases {
		r.byCode[normalize(a)] = p
	}
}

// Lookup returns the projection registered under code.
func (r *Registry) Lookup(code string) (Projection, error) {
	r.mu.RLock()
	p, ok := r.byCode[normalize(code)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownProjection, code)
	}
	return p, nil
}

// Codes lists the canonical codes of all registered projections.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	var codes []string
	for _, p := range r.byCode {
		if !seen[p.Code()] {
			seen[p.Code()] = true
			codes = append(codes, p.Code())
		}
	}
	sort.Strings(codes)
	return codes
}

// Transform converts a geographic point into the target projection. The
// source system is taken from the point's CRS tag.
func (r *Registry) Transform(pt domain.GeoPoint, target Projection) (domain.ProjectedPoint, error) {
	src, err := r.Lookup(pt.CRS)
	if err != nil {
		return domain.ProjectedPoint{}, err
	}

	lon, lat, err := src.Inverse(pt.Lon, pt.Lat)
	if err != nil {
		return domain.ProjectedPoint{}, fmt.Errorf("from %s: %w", src.Code(), err)
	}
	x, y, err := target.Forward(lon, lat)
	if err != nil {
		return domain.ProjectedPoint{}, fmt.Errorf("to %s: %w", target.Code(), err)
	}
	return domain.ProjectedPoint{X: x, Y: y, CRS: target.Code()}, nil
}

// TransformTo is Transform with the target given by code.
func (r *Registry) TransformTo(pt domain.GeoPoint, targetCode string) (domain.ProjectedPoint, error) {
	target, err := r.Lookup(targetCode)
	if err != nil {
		return domain.ProjectedPoint{}, err
	}
	return r.Transform(pt, target)
}

// Inverse converts a projected point back into a geographic system
// (normally EPSG:4326).
func (r *Registry) Inverse(pt domain.ProjectedPoint, geoCode string) (domain.GeoPoint, error) {
	src, err := r.Lookup(pt.CRS)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	dst, err := r.Lookup(geoCode)
	if err != nil {
		return domain.GeoPoint{}, err
	}

	lon, lat, err := src.Inverse(pt.X, pt.Y)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("from %s: %w", src.Code(), err)
	}
	u, v, err := dst.Forward(lon, lat)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("to %s: %w", dst.Code(), err)
	}
	return domain.GeoPoint{Lon: u, Lat: v, CRS: dst.Code()}, nil
}
