package domain

import "fmt"

// Well-known coordinate reference system codes.
const (
	CRSWGS84             = "EPSG:4326"
	CRSSphericalMercator = "EPSG:3857"
)

// GeoPoint is a geographic coordinate tagged with its reference system.
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
	CRS string  `json:"crs"`
}

// NewGeoPoint returns a point in the given CRS. An empty CRS means WGS 84.
func NewGeoPoint(lon, lat float64, crs string) GeoPoint {
	if crs == "" {
		crs = CRSWGS84
	}
	return GeoPoint{Lon: lon, Lat: lat, CRS: crs}
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%s(%.6f, %.6f)", p.CRS, p.Lon, p.Lat)
}

// ProjectedPoint is a coordinate in a map's display projection.
type ProjectedPoint struct {
	X   float64 `json:"x"`
	Y   float64 `json:"y"`
	CRS string  `json:"crs"`
}

func (p ProjectedPoint) String() string {
	return fmt.Sprintf("%s(%.2f, %.2f)", p.CRS, p.X, p.Y)
}

// Bounds is an axis-aligned box in a single CRS.
type Bounds struct {
	MinX float64 `json:"min_x"`
	MinY float64 `json:"min_y"`
	MaxX float64 `json:"max_x"`
	MaxY float64 `json:"max_y"`
	CRS  string  `json:"crs"`
}

// ProjectionInfo describes a registered projection.
type ProjectionInfo struct {
	Code       string `json:"code"`
	Units      string `json:"units"`
	Geographic bool   `json:"geographic"`
}
