package telemetry

// Span attribute keys.
const (
	AttrViewID     = "mapboot.view.id"
	AttrProjection = "mapboot.projection"
	AttrZoom       = "mapboot.zoom"
	AttrContainer  = "mapboot.container"
)
