// Package projection converts coordinates between the reference systems a
// map view can be configured with.
package projection

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/project"

	"github.com/samirrijal/mapboot/internal/core/domain"
)

// Projection converts between WGS 84 longitude/latitude (degrees) and the
// projection's own coordinate space.
type Projection interface {
	// Code is the canonical identifier, e.g. "EPSG:3857".
	Code() string
	// Units of the projected coordinates: "degrees" or "m".
	Units() string
	// Geographic reports whether coordinates are angular lon/lat.
	Geographic() bool
	// Forward projects WGS 84 lon/lat into this projection.
	Forward(lon, lat float64) (x, y float64, err error)
	// Inverse maps projected coordinates back to WGS 84 lon/lat.
	Inverse(x, y float64) (lon, lat float64, err error)
}

func validLonLat(lon, lat float64) error {
	if math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return fmt.Errorf("%w: non-finite value", domain.ErrInvalidCoordinate)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %.6f outside [-180, 180]", domain.ErrInvalidCoordinate, lon)
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %.6f outside [-90, 90]", domain.ErrInvalidCoordinate, lat)
	}
	return nil
}

// WGS84 is the geographic EPSG:4326 system; its transforms are the identity.
type WGS84 struct{}

func (WGS84) Code() string     { return domain.CRSWGS84 }
func (WGS84) Units() string    { return "degrees" }
func (WGS84) Geographic() bool { return true }

func (WGS84) Forward(lon, lat float64) (float64, float64, error) {
	if err := validLonLat(lon, lat); err != nil {
		return 0, 0, err
	}
	return lon, lat, nil
}

func (WGS84) Inverse(x, y float64) (float64, float64, error) {
	if err := validLonLat(x, y); err != nil {
		return 0, 0, err
	}
	return x, y, nil
}

const (
	// EarthRadius is the WGS 84 semi-major axis used by the spherical model.
	EarthRadius = orb.EarthRadius
	// MaxMercatorLat is the latitude at which the Web Mercator square ends.
	MaxMercatorLat = 85.0511287798066
	// OriginShift is half the width of the projected world in metres.
	OriginShift = math.Pi * EarthRadius
)

// SphericalMercator is EPSG:3857, the projection slippy-map tiles use.
type SphericalMercator struct{}

func (SphericalMercator) Code() string     { return domain.CRSSphericalMercator }
func (SphericalMercator) Units() string    { return "m" }
func (SphericalMercator) Geographic() bool { return false }

// Forward clamps latitudes to the Web Mercator limit.
func (SphericalMercator) Forward(lon, lat float64) (float64, float64, error) {
	if err := validLonLat(lon, lat); err != nil {
		return 0, 0, err
	}
	lat = math.Max(-MaxMercatorLat, math.Min(MaxMercatorLat, lat))

	p := project.WGS84.ToMercator(orb.Point{lon, lat})
	return p.X(), p.Y(), nil
}

func (SphericalMercator) Inverse(x, y float64) (float64, float64, error) {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return 0, 0, fmt.Errorf("%w: non-finite value", domain.ErrInvalidCoordinate)
	}
	if math.Abs(x) > OriginShift*(1+1e-9) || math.Abs(y) > OriginShift*(1+1e-9) {
		return 0, 0, fmt.Errorf("%w: (%.2f, %.2f) outside the mercator square", domain.ErrInvalidCoordinate, x, y)
	}

	p := project.Mercator.ToWGS84(orb.Point{x, y})
	return p.Lon(), p.Lat(), nil
}
