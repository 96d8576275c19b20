package geospatial

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// TileSize is the edge length of a slippy-map tile in pixels.
const TileSize = 256

// MaxZoom is the deepest zoom level tile services commonly serve.
const MaxZoom = 22

// Resolution returns metres per pixel at the equator for a zoom level in
// Spherical Mercator.
func Resolution(zoom int) float64 {
	return 2 * math.Pi * orb.EarthRadius / (TileSize * math.Exp2(float64(zoom)))
}

// TileXY returns the tile column and row containing lon/lat at zoom.
// Points beyond the Web Mercator latitude limit or on the antimeridian land
// on the edge tiles.
func TileXY(lon, lat float64, zoom int) (x, y int) {
	t := maptile.At(orb.Point{lon, lat}, maptile.Zoom(zoom))
	n := 1 << zoom
	return clampTile(int(t.X), n), clampTile(int(t.Y), n)
}

func clampTile(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n-1 {
		return n - 1
	}
	return v
}

// Tile is a z/x/y address.
type Tile struct {
	Z, X, Y int
}

func (t Tile) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Z, t.X, t.Y)
}

// TilesAround returns the tiles in a (2*radius+1)² block centred on the tile
// containing lon/lat. Rows are clipped at the poles, columns wrap around the
// antimeridian.
func TilesAround(lon, lat float64, zoom, radius int) []Tile {
	cx, cy := TileXY(lon, lat, zoom)
	n := 1 << zoom
	if radius < 0 {
		radius = 0
	}

	seen := make(map[Tile]bool)
	tiles := make([]Tile, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		y := cy + dy
		if y < 0 || y >= n {
			continue
		}
		for dx := -radius; dx <= radius; dx++ {
			x := ((cx+dx)%n + n) % n
			t := Tile{Z: zoom, X: x, Y: y}
			if seen[t] {
				continue
			}
			seen[t] = true
			tiles = append(tiles, t)
		}
	}
	return tiles
}

// TileURL expands a {z}/{x}/{y} template. {s} is replaced with a subdomain
// chosen deterministically from the tile address.
func TileURL(template string, subdomains []string, t Tile) string {
	url := template
	if len(subdomains) > 0 {
		idx := (t.X + t.Y) % len(subdomains)
		url = strings.ReplaceAll(url, "{s}", subdomains[idx])
	}
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(t.Z),
		"{x}", strconv.Itoa(t.X),
		"{y}", strconv.Itoa(t.Y),
	)
	return r.Replace(url)
}
