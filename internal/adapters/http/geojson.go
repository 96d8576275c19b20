package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapboot/internal/adapters/geojson"
)

// MarkersGeoJSONHandler returns the markers of a view as a GeoJSON
// FeatureCollection.
func MarkersGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state, err := deps.Maps.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}

		data, err := geojson.Markers(state).MarshalJSON()
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}
