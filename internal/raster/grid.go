// Package raster provides the grid model and spatial operations for the
// siting analysis: NetCDF I/O, temporal stacking, cropping, nearest-neighbor
// resampling, and structural alignment checks.
package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// CRS identifies a coordinate reference system by EPSG code with its proj4
// definition for transforms.
type CRS struct {
	EPSG  int
	Proj4 string
}

// Equal reports whether two reference systems have the same EPSG code.
func (c CRS) Equal(o CRS) bool {
	return c.EPSG == o.EPSG
}

// WGS84 is the geographic CRS the source rasters ship in.
var WGS84 = CRS{EPSG: 4326, Proj4: "+proj=longlat +datum=WGS84 +no_defs"}

// Bounds is a spatial extent in CRS units.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Contains reports whether the point (x, y) falls within the extent.
func (b Bounds) Contains(x, y float64) bool {
	return x >= b.MinX && x <= b.MaxX && y >= b.MinY && y <= b.MaxY
}

// Grid is a regularly spaced 2D array of float64 cell values tied to a CRS
// and extent. Data is row-major with row 0 at the northern edge. Missing
// cells are NaN.
type Grid struct {
	Width  int
	Height int
	Bounds Bounds
	CRS    CRS
	Data   []float64
}

// NewGrid allocates a grid of the given shape with every cell missing.
func NewGrid(width, height int, bounds Bounds, crs CRS) *Grid {
	data := make([]float64, width*height)
	for i := range data {
		data[i] = math.NaN()
	}
	return &Grid{Width: width, Height: height, Bounds: bounds, CRS: crs, Data: data}
}

// ResX returns the cell width in CRS units.
func (g *Grid) ResX() float64 {
	return (g.Bounds.MaxX - g.Bounds.MinX) / float64(g.Width)
}

// ResY returns the cell height in CRS units.
func (g *Grid) ResY() float64 {
	return (g.Bounds.MaxY - g.Bounds.MinY) / float64(g.Height)
}

// At returns the value at (col, row).
func (g *Grid) At(col, row int) float64 {
	return g.Data[row*g.Width+col]
}

// Set stores a value at (col, row).
func (g *Grid) Set(col, row int, v float64) {
	g.Data[row*g.Width+col] = v
}

// CellCenter returns the CRS coordinates of the center of cell (col, row).
func (g *Grid) CellCenter(col, row int) (x, y float64) {
	x = g.Bounds.MinX + (float64(col)+0.5)*g.ResX()
	y = g.Bounds.MaxY - (float64(row)+0.5)*g.ResY()
	return x, y
}

// CellAt returns the (col, row) of the cell containing (x, y), or ok=false
// when the point is outside the extent.
func (g *Grid) CellAt(x, y float64) (col, row int, ok bool) {
	if !g.Bounds.Contains(x, y) {
		return 0, 0, false
	}
	col = int((x - g.Bounds.MinX) / g.ResX())
	row = int((g.Bounds.MaxY - y) / g.ResY())
	if col >= g.Width {
		col = g.Width - 1
	}
	if row >= g.Height {
		row = g.Height - 1
	}
	return col, row, true
}

// Clone returns a deep copy sharing no data with the receiver.
func (g *Grid) Clone() *Grid {
	data := make([]float64, len(g.Data))
	copy(data, g.Data)
	return &Grid{Width: g.Width, Height: g.Height, Bounds: g.Bounds, CRS: g.CRS, Data: data}
}

// Apply returns a new grid with fn applied to every cell value.
func (g *Grid) Apply(fn func(float64) float64) *Grid {
	out := g.Clone()
	for i, v := range out.Data {
		out.Data[i] = fn(v)
	}
	return out
}

// CountValid returns the number of non-missing cells.
func (g *Grid) CountValid() int {
	var n int
	for _, v := range g.Data {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}

// KelvinToCelsius converts every cell from Kelvin to Celsius. Missing cells
// stay missing.
func KelvinToCelsius(g *Grid) *Grid {
	return g.Apply(func(v float64) float64 { return v - 273.15 })
}

// CellAreas returns a grid whose cells hold the area of each cell in squared
// CRS units. Only meaningful in a projected, equal-area CRS.
func CellAreas(g *Grid) (*Grid, error) {
	if g.CRS.EPSG == WGS84.EPSG {
		return nil, eris.New("raster: cell areas requested in a geographic CRS")
	}
	out := NewGrid(g.Width, g.Height, g.Bounds, g.CRS)
	area := g.ResX() * g.ResY()
	for i := range out.Data {
		out.Data[i] = area
	}
	return out, nil
}
