// Package zonal reprojects the suitability mask into an equal-area CRS and
// aggregates suitable area per administrative zone.
package zonal

import (
	"math"

	"github.com/ctessum/geom/proj"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/bluewater-labs/aquasite-cli/internal/raster"
	"github.com/bluewater-labs/aquasite-cli/internal/vector"
)

// edgeSamples is the number of points sampled along each extent edge when
// projecting a bounding box, to capture curvature of the projected edges.
const edgeSamples = 32

// Transform builds a coordinate transform between two reference systems.
func Transform(src, dst raster.CRS) (proj.Transformer, error) {
	srcSR, err := proj.Parse(src.Proj4)
	if err != nil {
		return nil, eris.Wrapf(err, "zonal: parse proj4 %q", src.Proj4)
	}
	dstSR, err := proj.Parse(dst.Proj4)
	if err != nil {
		return nil, eris.Wrapf(err, "zonal: parse proj4 %q", dst.Proj4)
	}
	t, err := srcSR.NewTransform(dstSR)
	if err != nil {
		return nil, eris.Wrap(err, "zonal: build transform")
	}
	return t, nil
}

// ReprojectGrid resamples a grid into the destination CRS at the given cell
// size, using nearest-neighbor lookup. A non-positive cell size derives one
// from the projected extent so the output keeps the source cell count.
// Area summation requires an equal-area destination; this function does not
// check that.
func ReprojectGrid(g *raster.Grid, dst raster.CRS, resX, resY float64) (*raster.Grid, error) {
	fwd, err := Transform(g.CRS, dst)
	if err != nil {
		return nil, err
	}
	bounds, err := projectBounds(g.Bounds, fwd)
	if err != nil {
		return nil, err
	}
	if resX <= 0 {
		resX = (bounds.MaxX - bounds.MinX) / float64(g.Width)
	}
	if resY <= 0 {
		resY = (bounds.MaxY - bounds.MinY) / float64(g.Height)
	}
	template := raster.GridTemplate(bounds, resX, resY, dst)
	return raster.ResampleNearest(g, template)
}

// ReprojectZones transforms every zone polygon into the destination CRS.
func ReprojectZones(zones []vector.Zone, src, dst raster.CRS) ([]vector.Zone, error) {
	t, err := Transform(src, dst)
	if err != nil {
		return nil, err
	}

	out := make([]vector.Zone, 0, len(zones))
	for _, z := range zones {
		mp, err := transformMultiPolygon(z.Geom, t)
		if err != nil {
			return nil, eris.Wrapf(err, "zonal: reproject zone %q", z.Name)
		}
		out = append(out, vector.Zone{Name: z.Name, RegionID: z.RegionID, Geom: mp})
	}
	return out, nil
}

func transformMultiPolygon(mp *geom.MultiPolygon, t proj.Transformer) (*geom.MultiPolygon, error) {
	out := geom.NewMultiPolygon(geom.XY)
	for i := 0; i < mp.NumPolygons(); i++ {
		src := mp.Polygon(i)
		dst := geom.NewPolygon(geom.XY)
		for r := 0; r < src.NumLinearRings(); r++ {
			flat := src.LinearRing(r).FlatCoords()
			projected := make([]float64, len(flat))
			for j := 0; j < len(flat); j += 2 {
				x, y, err := t(flat[j], flat[j+1])
				if err != nil {
					return nil, eris.Wrap(err, "transform vertex")
				}
				projected[j] = x
				projected[j+1] = y
			}
			if err := dst.Push(geom.NewLinearRingFlat(geom.XY, projected)); err != nil {
				return nil, eris.Wrap(err, "push ring")
			}
		}
		if err := out.Push(dst); err != nil {
			return nil, eris.Wrap(err, "push polygon")
		}
	}
	return out, nil
}

// projectBounds returns the bounding box of an extent after transformation,
// sampling along the edges rather than only the corners.
func projectBounds(b raster.Bounds, t proj.Transformer) (raster.Bounds, error) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	sample := func(x, y float64) error {
		px, py, err := t(x, y)
		if err != nil {
			return eris.Wrap(err, "zonal: project extent point")
		}
		minX = math.Min(minX, px)
		minY = math.Min(minY, py)
		maxX = math.Max(maxX, px)
		maxY = math.Max(maxY, py)
		return nil
	}

	for i := 0; i <= edgeSamples; i++ {
		fx := b.MinX + (b.MaxX-b.MinX)*float64(i)/edgeSamples
		fy := b.MinY + (b.MaxY-b.MinY)*float64(i)/edgeSamples
		for _, pt := range [][2]float64{
			{fx, b.MinY}, {fx, b.MaxY}, {b.MinX, fy}, {b.MaxX, fy},
		} {
			if err := sample(pt[0], pt[1]); err != nil {
				return raster.Bounds{}, err
			}
		}
	}
	return raster.Bounds{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}, nil
}
