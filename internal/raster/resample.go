package raster

import (
	"math"

	"github.com/ctessum/geom/proj"
	"github.com/rotisserie/eris"
)

// Crop restricts a grid to the cells whose centers fall inside the given
// bounds. The result's extent snaps to the kept cell edges.
func Crop(g *Grid, b Bounds) (*Grid, error) {
	minCol, maxCol := g.Width, -1
	minRow, maxRow := g.Height, -1
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			x, y := g.CellCenter(col, row)
			if !b.Contains(x, y) {
				continue
			}
			if col < minCol {
				minCol = col
			}
			if col > maxCol {
				maxCol = col
			}
			if row < minRow {
				minRow = row
			}
			if row > maxRow {
				maxRow = row
			}
		}
	}
	if maxCol < minCol || maxRow < minRow {
		return nil, eris.New("raster: crop bounds share no cells with grid")
	}

	width := maxCol - minCol + 1
	height := maxRow - minRow + 1
	out := NewGrid(width, height, Bounds{
		MinX: g.Bounds.MinX + float64(minCol)*g.ResX(),
		MaxX: g.Bounds.MinX + float64(maxCol+1)*g.ResX(),
		MinY: g.Bounds.MaxY - float64(maxRow+1)*g.ResY(),
		MaxY: g.Bounds.MaxY - float64(minRow)*g.ResY(),
	}, g.CRS)
	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			out.Set(col, row, g.At(minCol+col, minRow+row))
		}
	}
	return out, nil
}

// ResampleNearest resamples src onto the template's grid geometry using
// nearest-neighbor lookup, which preserves categorical-like values such as
// depth classes instead of interpolating them. When the template's CRS
// differs from the source's, cell centers are transformed through proj
// before the lookup. Template cells with no source cell become missing.
func ResampleNearest(src, template *Grid) (*Grid, error) {
	var transform proj.Transformer
	if !src.CRS.Equal(template.CRS) {
		srcSR, err := proj.Parse(src.CRS.Proj4)
		if err != nil {
			return nil, eris.Wrapf(err, "raster: parse source proj4 %q", src.CRS.Proj4)
		}
		dstSR, err := proj.Parse(template.CRS.Proj4)
		if err != nil {
			return nil, eris.Wrapf(err, "raster: parse template proj4 %q", template.CRS.Proj4)
		}
		// Template cell centers are mapped back into source coordinates.
		transform, err = dstSR.NewTransform(srcSR)
		if err != nil {
			return nil, eris.Wrap(err, "raster: build transform")
		}
	}

	out := NewGrid(template.Width, template.Height, template.Bounds, template.CRS)
	for row := 0; row < template.Height; row++ {
		for col := 0; col < template.Width; col++ {
			x, y := template.CellCenter(col, row)
			if transform != nil {
				var err error
				x, y, err = transform(x, y)
				if err != nil {
					// Outside the projection's valid domain.
					continue
				}
			}
			srcCol, srcRow, ok := src.CellAt(x, y)
			if !ok {
				continue
			}
			out.Set(col, row, src.At(srcCol, srcRow))
		}
	}
	return out, nil
}

// GridTemplate builds an empty grid covering bounds at the given resolution,
// for use as a resampling target. The extent expands to a whole number of
// cells.
func GridTemplate(bounds Bounds, resX, resY float64, crs CRS) *Grid {
	width := int(math.Ceil((bounds.MaxX - bounds.MinX) / resX))
	height := int(math.Ceil((bounds.MaxY - bounds.MinY) / resY))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return NewGrid(width, height, Bounds{
		MinX: bounds.MinX,
		MinY: bounds.MaxY - float64(height)*resY,
		MaxX: bounds.MinX + float64(width)*resX,
		MaxY: bounds.MaxY,
	}, crs)
}
