// Package render draws the output maps and the zonal summary table.
package render

import (
	"math"

	"github.com/fogleman/gg"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/image/font/basicfont"

	"github.com/bluewater-labs/aquasite-cli/internal/basemap"
	"github.com/bluewater-labs/aquasite-cli/internal/raster"
	"github.com/bluewater-labs/aquasite-cli/internal/vector"
	"github.com/bluewater-labs/aquasite-cli/internal/zonal"
)

// SuitabilityMap renders the suitable cells of a geographic grid over the
// basemap mosaic and writes a PNG. The grid is expected in lon/lat, with
// unsuitable cells already recoded to missing.
func SuitabilityMap(mosaic *basemap.Mosaic, suitable *raster.Grid, path string) error {
	dc := gg.NewContextForImage(mosaic.Image)

	dc.SetRGBA(0.85, 0.25, 0.1, 0.85)
	markSuitableCells(dc, mosaic, suitable)

	if err := dc.SavePNG(path); err != nil {
		return eris.Wrapf(err, "render: save suitability map %s", path)
	}
	zap.L().Info("render: wrote suitability map",
		zap.String("path", path),
		zap.Int("suitable_cells", suitable.CountValid()),
	)
	return nil
}

// ChoroplethMap renders zones colored by their total suitable area over the
// basemap, with the suitable-cell overlay and zone-name labels, and writes
// a PNG. Zones and grid are expected in lon/lat; area totals are looked up
// by folded zone name, and a zone with no matching total is drawn hollow
// and logged rather than dropped.
func ChoroplethMap(mosaic *basemap.Mosaic, zones []vector.Zone, areaByZone map[string]float64, suitable *raster.Grid, path string) error {
	areas := make([]float64, 0, len(zones))
	for _, z := range zones {
		if a, ok := areaByZone[zonal.FoldName(z.Name)]; ok {
			areas = append(areas, a)
		}
	}
	breaks := Breaks(areas)

	dc := gg.NewContextForImage(mosaic.Image)

	for _, z := range zones {
		area, ok := areaByZone[zonal.FoldName(z.Name)]
		if !ok {
			zap.L().Warn("render: zone has no area total", zap.String("zone", z.Name))
		}

		tracePolygons(dc, mosaic, z)
		if ok {
			r, g, b := classColor(BinIndex(area, breaks), len(breaks))
			dc.SetRGBA(r, g, b, 0.65)
			dc.FillPreserve()
		}
		dc.SetRGBA(0.1, 0.1, 0.1, 1)
		dc.SetLineWidth(1.5)
		dc.Stroke()
	}

	dc.SetRGBA(0.85, 0.25, 0.1, 0.9)
	markSuitableCells(dc, mosaic, suitable)

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetRGBA(0, 0, 0, 1)
	for _, z := range zones {
		lon, lat := labelPoint(z)
		px, py := mosaic.PixelAt(lon, lat)
		dc.DrawStringAnchored(z.Name, px, py, 0.5, 0.5)
	}

	if err := dc.SavePNG(path); err != nil {
		return eris.Wrapf(err, "render: save choropleth %s", path)
	}
	zap.L().Info("render: wrote choropleth", zap.String("path", path), zap.Int("zones", len(zones)))
	return nil
}

// markSuitableCells draws a filled marker at every non-missing cell center.
func markSuitableCells(dc *gg.Context, mosaic *basemap.Mosaic, g *raster.Grid) {
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			if math.IsNaN(g.At(col, row)) {
				continue
			}
			lon, lat := g.CellCenter(col, row)
			px, py := mosaic.PixelAt(lon, lat)
			dc.DrawCircle(px, py, 2.5)
			dc.Fill()
		}
	}
}

// tracePolygons adds every ring of a zone's polygons to the current path.
func tracePolygons(dc *gg.Context, mosaic *basemap.Mosaic, z vector.Zone) {
	for i := 0; i < z.Geom.NumPolygons(); i++ {
		poly := z.Geom.Polygon(i)
		for r := 0; r < poly.NumLinearRings(); r++ {
			flat := poly.LinearRing(r).FlatCoords()
			for j := 0; j < len(flat); j += 2 {
				px, py := mosaic.PixelAt(flat[j], flat[j+1])
				if j == 0 {
					dc.MoveTo(px, py)
				} else {
					dc.LineTo(px, py)
				}
			}
			dc.ClosePath()
		}
	}
}

// labelPoint returns the vertex mean of the first outer ring, a cheap
// interior-ish label anchor for compact zones.
func labelPoint(z vector.Zone) (lon, lat float64) {
	if z.Geom.NumPolygons() == 0 || z.Geom.Polygon(0).NumLinearRings() == 0 {
		return 0, 0
	}
	flat := z.Geom.Polygon(0).LinearRing(0).FlatCoords()
	n := float64(len(flat) / 2)
	for j := 0; j < len(flat); j += 2 {
		lon += flat[j]
		lat += flat[j+1]
	}
	return lon / n, lat / n
}

// classColor interpolates a light-to-dark teal ramp across the classes.
func classColor(idx, classes int) (r, g, b float64) {
	if classes <= 1 {
		return 0.2, 0.55, 0.55
	}
	f := float64(idx) / float64(classes-1)
	r = 0.85 - 0.65*f
	g = 0.93 - 0.45*f
	b = 0.90 - 0.35*f
	return r, g, b
}
