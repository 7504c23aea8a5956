package basemap

import (
	"math"
)

// TileSize is the pixel edge length of standard XYZ raster tiles.
const TileSize = 256

// TileRange is an inclusive rectangle of XYZ tile indices at one zoom level.
type TileRange struct {
	Zoom                   int
	MinX, MinY, MaxX, MaxY int
}

// Cols returns the number of tile columns in the range.
func (r TileRange) Cols() int { return r.MaxX - r.MinX + 1 }

// Rows returns the number of tile rows in the range.
func (r TileRange) Rows() int { return r.MaxY - r.MinY + 1 }

// Count returns the total number of tiles in the range.
func (r TileRange) Count() int { return r.Cols() * r.Rows() }

// tileAt returns fractional XYZ tile coordinates for a lon/lat at a zoom,
// per the Web-Mercator slippy-map scheme.
func tileAt(lon, lat float64, zoom int) (x, y float64) {
	n := math.Exp2(float64(zoom))
	x = (lon + 180) / 360 * n
	latRad := lat * math.Pi / 180
	y = (1 - math.Log(math.Tan(latRad)+1/math.Cos(latRad))/math.Pi) / 2 * n
	return x, y
}

// RangeForExtent returns the tile range covering a lon/lat bounding box at
// the given zoom. Latitudes are clamped to the Web-Mercator limit.
func RangeForExtent(minLon, minLat, maxLon, maxLat float64, zoom int) TileRange {
	minLat = clampLat(minLat)
	maxLat = clampLat(maxLat)

	x0, y1 := tileAt(minLon, minLat, zoom)
	x1, y0 := tileAt(maxLon, maxLat, zoom)

	max := int(math.Exp2(float64(zoom))) - 1
	return TileRange{
		Zoom: zoom,
		MinX: clampTile(int(math.Floor(x0)), max),
		MinY: clampTile(int(math.Floor(y0)), max),
		MaxX: clampTile(int(math.Floor(x1)), max),
		MaxY: clampTile(int(math.Floor(y1)), max),
	}
}

// webMercatorLatLimit is the latitude beyond which the projection diverges.
const webMercatorLatLimit = 85.0511

func clampLat(lat float64) float64 {
	return math.Max(-webMercatorLatLimit, math.Min(webMercatorLatLimit, lat))
}

func clampTile(v, max int) int {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
