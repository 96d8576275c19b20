package domain

import (
	"time"
)

// LayerKind distinguishes the layer capabilities a map view can hold.
type LayerKind string

const (
	LayerKindTile   LayerKind = "tile"
	LayerKindMarker LayerKind = "marker"
)

// LayerState is the serialisable form of a layer attached to a view.
type LayerState struct {
	Name        string        `json:"name"`
	Kind        LayerKind     `json:"kind"`
	BaseLayer   bool          `json:"base_layer"`
	URLTemplate string        `json:"url_template,omitempty"`
	Subdomains  []string      `json:"subdomains,omitempty"`
	Attribution string        `json:"attribution,omitempty"`
	MaxZoom     int           `json:"max_zoom,omitempty"`
	Markers     []MarkerState `json:"markers,omitempty"`
}

// MarkerState is a marker placed on a marker layer.
type MarkerState struct {
	ID       string         `json:"id"`
	Position ProjectedPoint `json:"position"`
	Location GeoPoint       `json:"location"` // position expressed in EPSG:4326
	Label    string         `json:"label,omitempty"`
}

// MapViewState is a snapshot of a bootstrapped map view.
type MapViewState struct {
	ID         string         `json:"id"`
	Container  string         `json:"container"`
	Projection string         `json:"projection"`
	Center     ProjectedPoint `json:"center"`
	CenterGeo  GeoPoint       `json:"center_geo"`
	Zoom       int            `json:"zoom"`
	Layers     []LayerState   `json:"layers"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Markers returns every marker across all marker layers, in layer order.
func (s *MapViewState) Markers() []MarkerState {
	var out []MarkerState
	for _, l := range s.Layers {
		if l.Kind == LayerKindMarker {
			out = append(out, l.Markers...)
		}
	}
	return out
}

// BaseLayer returns the first base tile layer, or nil.
func (s *MapViewState) BaseLayer() *LayerState {
	for i := range s.Layers {
		if s.Layers[i].Kind == LayerKindTile && s.Layers[i].BaseLayer {
			return &s.Layers[i]
		}
	}
	return nil
}

// ViewEventType names the events published for a map view.
type ViewEventType string

const (
	ViewCreated     ViewEventType = "created"
	ViewCentered    ViewEventType = "centered"
	ViewMarkerAdded ViewEventType = "marker_added"
)

// ViewEvent is published whenever a view changes.
type ViewEvent struct {
	Type   ViewEventType `json:"type"`
	ViewID string        `json:"view_id"`
	Time   time.Time     `json:"time"`
	State  *MapViewState `json:"state,omitempty"`
	Marker *MarkerState  `json:"marker,omitempty"`
}

// TileRef addresses a single slippy-map tile.
type TileRef struct {
	Z   int    `json:"z"`
	X   int    `json:"x"`
	Y   int    `json:"y"`
	URL string `json:"url,omitempty"`
}

// TileWarmRequest asks the warmer to prefetch the tiles around a view centre.
type TileWarmRequest struct {
	ViewID      string   `json:"view_id"`
	URLTemplate string   `json:"url_template"`
	Subdomains  []string `json:"subdomains"`
	Center      GeoPoint `json:"center"`
	MinZoom     int      `json:"min_zoom"`
	MaxZoom     int      `json:"max_zoom"`
	Radius      int      `json:"radius"` // tiles on each side of the centre tile
}
