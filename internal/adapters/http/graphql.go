package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/mapboot/internal/core/domain"
	"github.com/samirrijal/mapboot/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lon": &graphql.Field{Type: graphql.Float},
			"lat": &graphql.Field{Type: graphql.Float},
			"crs": &graphql.Field{Type: graphql.String},
		},
	})

	projectedPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProjectedPoint",
		Fields: graphql.Fields{
			"x":   &graphql.Field{Type: graphql.Float},
			"y":   &graphql.Field{Type: graphql.Float},
			"crs": &graphql.Field{Type: graphql.String},
		},
	})

	markerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Marker",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"label":    &graphql.Field{Type: graphql.String},
			"position": &graphql.Field{Type: projectedPointType},
			"location": &graphql.Field{Type: geoPointType},
		},
	})

	layerType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Layer",
		Fields: graphql.Fields{
			"name":         &graphql.Field{Type: graphql.String},
			"kind":         &graphql.Field{Type: graphql.String},
			"base_layer":   &graphql.Field{Type: graphql.Boolean},
			"url_template": &graphql.Field{Type: graphql.String},
			"subdomains":   &graphql.Field{Type: graphql.NewList(graphql.String)},
			"attribution":  &graphql.Field{Type: graphql.String},
			"max_zoom":     &graphql.Field{Type: graphql.Int},
			"markers":      &graphql.Field{Type: graphql.NewList(markerType)},
		},
	})

	viewType := graphql.NewObject(graphql.ObjectConfig{
		Name: "MapView",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"container":  &graphql.Field{Type: graphql.String},
			"projection": &graphql.Field{Type: graphql.String},
			"center":     &graphql.Field{Type: projectedPointType},
			"center_geo": &graphql.Field{Type: geoPointType},
			"zoom":       &graphql.Field{Type: graphql.Int},
			"layers":     &graphql.Field{Type: graphql.NewList(layerType)},
			"markers": &graphql.Field{
				Type:        graphql.NewList(markerType),
				Description: "Markers across all marker layers",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if s, ok := p.Source.(*domain.MapViewState); ok {
						return s.Markers(), nil
					}
					return nil, nil
				},
			},
			"created_at": &graphql.Field{Type: graphql.DateTime},
			"updated_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	projectionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Projection",
		Fields: graphql.Fields{
			"code":       &graphql.Field{Type: graphql.String},
			"units":      &graphql.Field{Type: graphql.String},
			"geographic": &graphql.Field{Type: graphql.Boolean},
		},
	})

	tileType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Tile",
		Fields: graphql.Fields{
			"z":   &graphql.Field{Type: graphql.Int},
			"x":   &graphql.Field{Type: graphql.Int},
			"y":   &graphql.Field{Type: graphql.Int},
			"url": &graphql.Field{Type: graphql.String},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"view": &graphql.Field{
				Type:        viewType,
				Description: "Get a map view by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Maps.Get(p.Context, p.Args["id"].(string))
				},
			},
			"views": &graphql.Field{
				Type:        graphql.NewList(viewType),
				Description: "List map views, newest first",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					views, _, err := deps.Maps.List(p.Context, p.Args["offset"].(int), p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					out := make([]*domain.MapViewState, len(views))
					for i := range views {
						out[i] = &views[i]
					}
					return out, nil
				},
			},
			"projections": &graphql.Field{
				Type:        graphql.NewList(projectionType),
				Description: "Supported projections",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Projections.List(), nil
				},
			},
			"transform": &graphql.Field{
				Type:        projectedPointType,
				Description: "Convert a point between projections",
				Args: graphql.FieldConfigArgument{
					"lon":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"from": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: domain.CRSWGS84},
					"to":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: domain.CRSSphericalMercator},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt := domain.NewGeoPoint(p.Args["lon"].(float64), p.Args["lat"].(float64), p.Args["from"].(string))
					return deps.Projections.Transform(p.Context, pt, p.Args["to"].(string))
				},
			},
			"tiles": &graphql.Field{
				Type:        graphql.NewList(tileType),
				Description: "Base layer tiles around a view centre",
				Args: graphql.FieldConfigArgument{
					"view_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"radius":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 1},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Maps.Tiles(p.Context, p.Args["view_id"].(string), p.Args["radius"].(int))
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createView": &graphql.Field{
				Type:        viewType,
				Description: "Bootstrap a new map view",
				Args: graphql.FieldConfigArgument{
					"container": &graphql.ArgumentConfig{Type: graphql.String},
					"lon":       &graphql.ArgumentConfig{Type: graphql.Float},
					"lat":       &graphql.ArgumentConfig{Type: graphql.Float},
					"zoom":      &graphql.ArgumentConfig{Type: graphql.Int},
					"label":     &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var opts usecases.CreateViewOptions
					opts.Container, _ = p.Args["container"].(string)
					opts.Label, _ = p.Args["label"].(string)
					if z, ok := p.Args["zoom"].(int); ok {
						opts.Zoom = &z
					}
					lon, lonOK := p.Args["lon"].(float64)
					lat, latOK := p.Args["lat"].(float64)
					if lonOK && latOK {
						c := domain.NewGeoPoint(lon, lat, domain.CRSWGS84)
						opts.Center = &c
					}
					return deps.Maps.Create(p.Context, opts)
				},
			},
			"addMarker": &graphql.Field{
				Type:        markerType,
				Description: "Place a marker on a view",
				Args: graphql.FieldConfigArgument{
					"view_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lon":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"crs":     &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: domain.CRSWGS84},
					"label":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt := domain.NewGeoPoint(p.Args["lon"].(float64), p.Args["lat"].(float64), p.Args["crs"].(string))
					return deps.Maps.AddMarker(p.Context, p.Args["view_id"].(string), pt, p.Args["label"].(string))
				},
			},
			"setCenter": &graphql.Field{
				Type:        viewType,
				Description: "Recentre a view",
				Args: graphql.FieldConfigArgument{
					"view_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"lon":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lat":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"zoom":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					pt := domain.NewGeoPoint(p.Args["lon"].(float64), p.Args["lat"].(float64), domain.CRSWGS84)
					return deps.Maps.SetCenter(p.Context, p.Args["view_id"].(string), pt, p.Args["zoom"].(int))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
