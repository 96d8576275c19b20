package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"github.com/samirrijal/mapboot/internal/core/domain"
)

// CLI output formatters
var (
	headerColor = color.New(color.FgBlue, color.Bold)
	labelColor  = color.New(color.FgCyan)
	valueColor  = color.New(color.FgGreen)
)

// render writes v in the selected output format. table is used for the
// human readable form.
func render(w io.Writer, v any, table func(p *printer)) error {
	switch outputFormat {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		return writeYAML(w, v)
	}
	table(&printer{w: w})
	return nil
}

// writeYAML goes through JSON so the field names match the API's.
func writeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}

type printer struct {
	w io.Writer
}

func (p *printer) header(title string) {
	headerColor.Fprintln(p.w, title)
	headerColor.Fprintln(p.w, strings.Repeat("=", 72))
}

func (p *printer) field(name string, value any) {
	labelColor.Fprintf(p.w, "  %-14s", name+":")
	valueColor.Fprintf(p.w, " %v\n", value)
}

func (p *printer) view(s domain.MapViewState) {
	p.header("VIEW " + s.ID)
	p.field("Container", s.Container)
	p.field("Projection", s.Projection)
	p.field("Center", s.Center)
	p.field("Center (geo)", s.CenterGeo)
	p.field("Zoom", s.Zoom)
	fmt.Fprintln(p.w)

	fmt.Fprintf(p.w, "%-20s %-8s %-6s %s\n", "LAYER", "KIND", "BASE", "DETAIL")
	fmt.Fprintln(p.w, strings.Repeat("-", 72))
	for _, l := range s.Layers {
		detail := l.URLTemplate
		if l.Kind == domain.LayerKindMarker {
			detail = fmt.Sprintf("%d markers", len(l.Markers))
		}
		fmt.Fprintf(p.w, "%-20s %-8s %-6t %s\n", l.Name, l.Kind, l.BaseLayer, detail)
	}

	markers := s.Markers()
	if len(markers) == 0 {
		return
	}
	fmt.Fprintln(p.w)
	fmt.Fprintf(p.w, "%-38s %-28s %s\n", "MARKER", "POSITION", "LABEL")
	fmt.Fprintln(p.w, strings.Repeat("-", 72))
	for _, m := range markers {
		fmt.Fprintf(p.w, "%-38s %-28s %s\n", m.ID, m.Position, m.Label)
	}
}

func (p *printer) projected(pt domain.ProjectedPoint) {
	p.header("PROJECTED POINT")
	p.field("CRS", pt.CRS)
	p.field("X", fmt.Sprintf("%.6f", pt.X))
	p.field("Y", fmt.Sprintf("%.6f", pt.Y))
}

func (p *printer) geo(pt domain.GeoPoint) {
	p.header("GEOGRAPHIC POINT")
	p.field("CRS", pt.CRS)
	p.field("Lon", fmt.Sprintf("%.8f", pt.Lon))
	p.field("Lat", fmt.Sprintf("%.8f", pt.Lat))
}

func (p *printer) projections(list []domain.ProjectionInfo) {
	p.header("PROJECTIONS")
	fmt.Fprintf(p.w, "%-14s %-10s %s\n", "CODE", "UNITS", "GEOGRAPHIC")
	fmt.Fprintln(p.w, strings.Repeat("-", 72))
	for _, info := range list {
		fmt.Fprintf(p.w, "%-14s %-10s %t\n", info.Code, info.Units, info.Geographic)
	}
}

func (p *printer) tiles(tiles []domain.TileRef) {
	p.header(fmt.Sprintf("TILES (%d)", len(tiles)))
	fmt.Fprintf(p.w, "%-14s %s\n", "Z/X/Y", "URL")
	fmt.Fprintln(p.w, strings.Repeat("-", 72))
	for _, t := range tiles {
		fmt.Fprintf(p.w, "%-14s %s\n", fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y), t.URL)
	}
}
