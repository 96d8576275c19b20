package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/core/usecases"
)

// CreateViewHandler bootstraps a new map view. The body may override the
// container, centre, zoom and marker label.
func CreateViewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createViewRequest
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, err.Error())
		}
		if (req.Lon == nil) != (req.Lat == nil) {
			return errBadRequest(c, "lon and lat must be given together")
		}

		opts := usecases.CreateViewOptions{
			Container: req.Container,
			Zoom:      req.Zoom,
			Label:     req.Label,
		}
		if req.Lon != nil {
			center := domain.NewGeoPoint(*req.Lon, *req.Lat, domain.CRSWGS84)
			opts.Center = &center
		}

		state, err := deps.Maps.Create(c.UserContext(), opts)
		if err != nil {
			return errFromDomain(c, err)
		}

		if deps.Warmer != nil {
			logger := LoggerFromCtx(c.UserContext())
			if runID, err := usecases.ScheduleWarm(c.UserContext(), deps.Warmer, state, deps.WarmRadius); err != nil {
				logger.Warn("tile warm not scheduled", "view_id", state.ID, "error", err)
			} else if runID != "" {
				logger.Debug("tile warm scheduled", "view_id", state.ID, "run_id", runID)
			}
		}

		c.Location("/v1/views/" + state.ID)
		return c.Status(fiber.StatusCreated).JSON(state)
	}
}

// ListViewsHandler returns a page of views, newest first.
func ListViewsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset := c.QueryInt("offset", 0)
		limit := c.QueryInt("limit", 20)
		if offset < 0 {
			offset = 0
		}
		if limit <= 0 || limit > 100 {
			limit = 20
		}

		views, total, err := deps.Maps.List(c.UserContext(), offset, limit)
		if err != nil {
			return errFromDomain(c, err)
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: views, Pagination: pg})
	}
}

// GetViewHandler returns a single view.
func GetViewHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state, err := deps.Maps.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(state)
	}
}

// AddMarkerHandler places a marker on a view.
func AddMarkerHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req pointRequest
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, err.Error())
		}

		marker, err := deps.Maps.AddMarker(c.UserContext(), c.Params("id"), req.geoPoint(), req.Label)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(marker)
	}
}

// SetCenterHandler recentres a view.
func SetCenterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req centerRequest
		if err := parseBody(c, &req); err != nil {
			return errBadRequest(c, err.Error())
		}

		pt := domain.NewGeoPoint(*req.Lon, *req.Lat, req.CRS)
		state, err := deps.Maps.SetCenter(c.UserContext(), c.Params("id"), pt, *req.Zoom)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(state)
	}
}

// ViewTilesHandler lists the base layer tiles around the view centre.
func ViewTilesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q tilesQuery
		if err := parseQuery(c, &q); err != nil {
			return errBadRequest(c, err.Error())
		}
		radius := intOr(q.Radius, 1)

		tiles, err := deps.Maps.Tiles(c.UserContext(), c.Params("id"), radius)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(tiles)
	}
}

// NearbyMarkersHandler returns the markers of a view near a point.
func NearbyMarkersHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q nearbyQuery
		if err := parseQuery(c, &q); err != nil {
			return errBadRequest(c, err.Error())
		}
		pt := domain.NewGeoPoint(*q.Lon, *q.Lat, "")

		markers, err := deps.Maps.MarkersNear(c.UserContext(), c.Params("id"), pt, floatOr(q.Radius, 500))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(markers)
	}
}

// ViewportHandler returns the extent visible in a container of the given
// pixel size.
func ViewportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q viewportQuery
		if err := parseQuery(c, &q); err != nil {
			return errBadRequest(c, err.Error())
		}

		b, err := deps.Maps.Viewport(c.UserContext(), c.Params("id"), intOr(q.Width, 1024), intOr(q.Height, 768))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(b)
	}
}

// ListProjectionsHandler describes the supported projections.
func ListProjectionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(deps.Projections.List())
	}
}

// TransformHandler converts a point between projections.
// Query: lon, lat, from (default EPSG:4326), to (default EPSG:3857).
func TransformHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var q transformQuery
		if err := parseQuery(c, &q); err != nil {
			return errBadRequest(c, err.Error())
		}
		to := q.To
		if to == "" {
			to = domain.CRSSphericalMercator
		}

		pt := domain.NewGeoPoint(*q.Lon, *q.Lat, q.From)
		out, err := deps.Projections.Transform(c.UserContext(), pt, to)
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(fiber.Map{
			"source": pt,
			"result": out,
		})
	}
}
