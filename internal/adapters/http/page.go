package http

import (
	"bytes"
	"html/template"

	"github.com/gofiber/fiber/v2"
)

var mapPage = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/ol@v9.2.4/ol.css">
  <style>html,body{margin:0;height:100%}#{{.Container}}{width:100%;height:100%}</style>
</head>
<body>
  <div id="{{.Container}}"></div>
  <script src="https://cdn.jsdelivr.net/npm/ol@v9.2.4/dist/ol.js"></script>
  <script>
    (async function () {
      const res = await fetch({{.StateURL}}, {method: {{.Method}}});
      const view = await res.json();
      if (!res.ok) { document.body.textContent = view.message || 'failed to load map'; return; }
      if ({{.Redirect}}) { history.replaceState(null, '', '/maps/' + view.id); }

      const layers = view.layers.map(function (l) {
        if (l.kind === 'tile') {
          const subs = l.subdomains || [];
          let url = l.url_template;
          if (subs.length) { url = url.replace('{s}', '{' + subs[0] + '-' + subs[subs.length - 1] + '}'); }
          return new ol.layer.Tile({source: new ol.source.XYZ({url: url, attributions: l.attribution, maxZoom: l.max_zoom})});
        }
        const features = (l.markers || []).map(function (m) {
          return new ol.Feature({geometry: new ol.geom.Point([m.position.x, m.position.y]), name: m.label});
        });
        return new ol.layer.Vector({source: new ol.source.Vector({features: features})});
      });

      new ol.Map({
        target: view.container,
        layers: layers,
        view: new ol.View({
          projection: view.projection,
          center: [view.center.x, view.center.y],
          zoom: view.zoom,
        }),
      });
    })();
  </script>
</body>
</html>`))

type mapPageData struct {
	Title     string
	Container string
	StateURL  string
	Method    string
	Redirect  bool
}

func renderMapPage(c *fiber.Ctx, data mapPageData) error {
	var buf bytes.Buffer
	if err := mapPage.Execute(&buf, data); err != nil {
		return errInternal(c, err.Error())
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(buf.Bytes())
}

// IndexPageHandler serves a page that bootstraps a fresh view and renders it.
func IndexPageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return renderMapPage(c, mapPageData{
			Title:     "mapboot",
			Container: deps.Maps.Defaults().Container,
			StateURL:  "/v1/views",
			Method:    fiber.MethodPost,
			Redirect:  true,
		})
	}
}

// ViewPageHandler renders an existing view.
func ViewPageHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		state, err := deps.Maps.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return renderMapPage(c, mapPageData{
			Title:     "mapboot: " + state.ID,
			Container: state.Container,
			StateURL:  "/v1/views/" + state.ID,
			Method:    fiber.MethodGet,
		})
	}
}
