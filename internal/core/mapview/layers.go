package mapview

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/pkg/geospatial"
)

// Layer is anything that can be attached to a MapView.
type Layer interface {
	Name() string
	Kind() domain.LayerKind
	IsBaseLayer() bool
	State() domain.LayerState
}

// projectionBinder is implemented by layers that validate their content
// against the view projection once attached.
type projectionBinder interface {
	bind(crs string)
}

// OpenStreetMap defaults.
const (
	OSMURLTemplate = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	OSMAttribution = "© OpenStreetMap contributors"
	OSMMaxZoom     = 19
)

// OSMSubdomains are the mirror hosts the public OSM tile service exposes.
var OSMSubdomains = []string{"a", "b", "c"}

// TileLayer is a raster base layer backed by a z/x/y tile service.
type TileLayer struct {
	name        string
	urlTemplate string
	subdomains  []string
	attribution string
	maxZoom     int
}

// TileLayerConfig configures a TileLayer. Zero values fall back to OSM.
type TileLayerConfig struct {
	Name        string
	URLTemplate string
	Subdomains  []string
	Attribution string
	MaxZoom     int
}

// NewTileLayer builds a tile layer, defaulting to the public OSM service.
func NewTileLayer(cfg TileLayerConfig) *TileLayer {
	l := &TileLayer{
		name:        cfg.Name,
		urlTemplate: cfg.URLTemplate,
		subdomains:  append([]string(nil), cfg.Subdomains...),
		attribution: cfg.Attribution,
		maxZoom:     cfg.MaxZoom,
	}
	if l.name == "" {
		l.name = "OpenStreetMap"
	}
	if l.urlTemplate == "" {
		l.urlTemplate = OSMURLTemplate
		if len(l.subdomains) == 0 {
			l.subdomains = append([]string(nil), OSMSubdomains...)
		}
		if l.attribution == "" {
			l.attribution = OSMAttribution
		}
	}
	if l.maxZoom <= 0 || l.maxZoom > geospatial.MaxZoom {
		l.maxZoom = OSMMaxZoom
	}
	return l
}

// NewOSMLayer returns the default OpenStreetMap base layer.
func NewOSMLayer() *TileLayer {
	return NewTileLayer(TileLayerConfig{})
}

func (l *TileLayer) Name() string           { return l.name }
func (l *TileLayer) Kind() domain.LayerKind { return domain.LayerKindTile }
func (l *TileLayer) IsBaseLayer() bool      { return true }
func (l *TileLayer) MaxZoom() int           { return l.maxZoom }
func (l *TileLayer) URLTemplate() string    { return l.urlTemplate }
func (l *TileLayer) Subdomains() []string   { return append([]string(nil), l.subdomains...) }

// TileURL returns the URL of tile z/x/y.
func (l *TileLayer) TileURL(z, x, y int) string {
	return geospatial.TileURL(l.urlTemplate, l.subdomains, geospatial.Tile{Z: z, X: x, Y: y})
}

func (l *TileLayer) State() domain.LayerState {
	return domain.LayerState{
		Name:        l.name,
		Kind:        domain.LayerKindTile,
		BaseLayer:   true,
		URLTemplate: l.urlTemplate,
		Subdomains:  l.Subdomains(),
		Attribution: l.attribution,
		MaxZoom:     l.maxZoom,
	}
}

// Marker is a point overlay at a projected position.
type Marker struct {
	id       string
	position domain.ProjectedPoint
	label    string
}

// NewMarker creates a marker at p with a fresh ID.
func NewMarker(p domain.ProjectedPoint, label string) *Marker {
	return &Marker{id: uuid.NewString(), position: p, label: label}
}

func (m *Marker) ID() string                      { return m.id }
func (m *Marker) Position() domain.ProjectedPoint { return m.position }
func (m *Marker) Label() string                   { return m.label }

// MarkerLayer is an overlay holding markers. Markers are only ever added.
type MarkerLayer struct {
	name string

	mu      sync.RWMutex
	crs     string
	markers []*Marker
}

// NewMarkerLayer creates an empty, unattached marker layer.
func NewMarkerLayer(name string) *MarkerLayer {
	if name == "" {
		name = "Markers"
	}
	return &MarkerLayer{name: name}
}

func (l *MarkerLayer) Name() string           { return l.name }
func (l *MarkerLayer) Kind() domain.LayerKind { return domain.LayerKindMarker }
func (l *MarkerLayer) IsBaseLayer() bool      { return false }

func (l *MarkerLayer) bind(crs string) {
	l.mu.Lock()
	l.crs = crs
	l.mu.Unlock()
}

// AddMarker appends m. Once the layer is attached to a view, markers must be
// in the view projection.
func (l *MarkerLayer) AddMarker(m *Marker) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.crs != "" && m.position.CRS != l.crs {
		return fmt.Errorf("%w: marker in %s, layer bound to %s",
			domain.ErrProjectionMismatch, m.position.CRS, l.crs)
	}
	l.markers = append(l.markers, m)
	return nil
}

// Markers returns a copy of the layer's markers in insertion order.
func (l *MarkerLayer) Markers() []*Marker {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*Marker(nil), l.markers...)
}

// Len returns the number of markers.
func (l *MarkerLayer) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.markers)
}

func (l *MarkerLayer) State() domain.LayerState {
	l.mu.RLock()
	defer l.mu.RUnlock()

	markers := make([]domain.MarkerState, 0, len(l.markers))
	for _, m := range l.markers {
		markers = append(markers, domain.MarkerState{ID: m.id, Position: m.position, Label: m.label})
	}
	return domain.LayerState{
		Name:    l.name,
		Kind:    domain.LayerKindMarker,
		Markers: markers,
	}
}
