package zonal

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/bluewater-labs/aquasite-cli/internal/raster"
	"github.com/bluewater-labs/aquasite-cli/internal/vector"
)

// ZoneNoData marks cells that fall outside every zone in a rasterized zone
// grid.
const ZoneNoData = -1

// MaskToZones returns a copy of the grid with every cell whose center falls
// outside all zone polygons set to missing.
func MaskToZones(g *raster.Grid, zones []vector.Zone) *raster.Grid {
	out := g.Clone()
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			x, y := g.CellCenter(col, row)
			if zoneAt(zones, x, y) == nil {
				out.Set(col, row, math.NaN())
			}
		}
	}
	return out
}

// RasterizeZones burns each zone's region id into the cells whose centers
// its polygons enclose, on the template's grid geometry. Cells outside any
// zone get ZoneNoData. Earlier zones win where polygons overlap.
func RasterizeZones(zones []vector.Zone, template *raster.Grid) *raster.Grid {
	out := raster.NewGrid(template.Width, template.Height, template.Bounds, template.CRS)
	for row := 0; row < out.Height; row++ {
		for col := 0; col < out.Width; col++ {
			x, y := out.CellCenter(col, row)
			if z := zoneAt(zones, x, y); z != nil {
				out.Set(col, row, float64(z.RegionID))
			} else {
				out.Set(col, row, ZoneNoData)
			}
		}
	}
	return out
}

// zoneAt returns the first zone containing the point, or nil.
func zoneAt(zones []vector.Zone, x, y float64) *vector.Zone {
	for i := range zones {
		if multiPolygonContains(zones[i].Geom, x, y) {
			return &zones[i]
		}
	}
	return nil
}

// multiPolygonContains tests point-in-polygon with ring 0 as the shell and
// any further rings as holes, per shapefile convention.
func multiPolygonContains(mp *geom.MultiPolygon, x, y float64) bool {
	pt := geom.Coord{x, y}
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		if poly.NumLinearRings() == 0 {
			continue
		}
		if !xy.IsPointInRing(geom.XY, pt, poly.LinearRing(0).FlatCoords()) {
			continue
		}
		inHole := false
		for r := 1; r < poly.NumLinearRings(); r++ {
			if xy.IsPointInRing(geom.XY, pt, poly.LinearRing(r).FlatCoords()) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}
