package http

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/mapboot/internal/core/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// createViewRequest is the body of POST /v1/views. Every field is optional.
type createViewRequest struct {
	Container string   `json:"container" validate:"omitempty,max=64"`
	Lon       *float64 `json:"lon" validate:"omitempty,gte=-180,lte=180"`
	Lat       *float64 `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Zoom      *int     `json:"zoom" validate:"omitempty,gte=0,lte=22"`
	Label     string   `json:"label" validate:"omitempty,max=200"`
}

// pointRequest is a geographic point with an optional CRS.
type pointRequest struct {
	Lon   *float64 `json:"lon" validate:"required"`
	Lat   *float64 `json:"lat" validate:"required"`
	CRS   string   `json:"crs" validate:"omitempty,max=32"`
	Label string   `json:"label" validate:"omitempty,max=200"`
}

func (p pointRequest) geoPoint() domain.GeoPoint {
	return domain.NewGeoPoint(*p.Lon, *p.Lat, p.CRS)
}

// centerRequest is the body of PUT /v1/views/:id/center.
type centerRequest struct {
	Lon  *float64 `json:"lon" validate:"required"`
	Lat  *float64 `json:"lat" validate:"required"`
	CRS  string   `json:"crs" validate:"omitempty,max=32"`
	Zoom *int     `json:"zoom" validate:"required,gte=0,lte=22"`
}

type nearbyQuery struct {
	Lat    *float64 `query:"lat" validate:"required"`
	Lon    *float64 `query:"lon" validate:"required"`
	Radius *float64 `query:"radius" validate:"omitempty,gt=0,lte=50000"`
}

type transformQuery struct {
	Lon  *float64 `query:"lon" validate:"required"`
	Lat  *float64 `query:"lat" validate:"required"`
	From string   `query:"from" validate:"omitempty,max=32"`
	To   string   `query:"to" validate:"omitempty,max=32"`
}

type tilesQuery struct {
	Radius *int `query:"radius" validate:"omitempty,gte=0,lte=5"`
}

type viewportQuery struct {
	Width  *int `query:"width" validate:"omitempty,gt=0,lte=8192"`
	Height *int `query:"height" validate:"omitempty,gt=0,lte=8192"`
}

// parseQuery decodes and validates the query string into dst. Values that
// are not numbers where numbers are expected are rejected.
func parseQuery(c *fiber.Ctx, dst interface{}) error {
	if err := c.QueryParser(dst); err != nil {
		return errors.New("invalid query parameters")
	}
	if err := validate.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return nil
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// parseBody decodes and validates the request body into dst.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(dst); err != nil {
			return errors.New("invalid request body")
		}
	}
	if err := validate.Struct(dst); err != nil {
		return validationMessage(err)
	}
	return nil
}

func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		default:
			msgs = append(msgs, fmt.Sprintf("%s fails %s=%s", field, fe.Tag(), fe.Param()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
