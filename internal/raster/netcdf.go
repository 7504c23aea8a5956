package raster

import (
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/rotisserie/eris"
)

// fillValue marks missing cells in rasters written by this package.
const fillValue = -9999.0

// ReadNetCDF reads a 2D variable (or the first time step of a 3D variable)
// from a NetCDF raster file. The grid extent is derived from the lat/lon
// coordinate variables, and missing_value/_FillValue cells become NaN.
// scale_factor and add_offset attributes are applied when present, as packed
// SST products use them.
func ReadNetCDF(path, varName string) (*Grid, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: open %s", path)
	}
	defer func() { _ = fh.Close() }()

	f, err := cdf.Open(fh)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: parse netcdf %s", path)
	}

	dims := f.Header.Dimensions(varName)
	lengths := f.Header.Lengths(varName)
	if len(dims) < 2 {
		return nil, eris.Errorf("raster: variable %s has %d dimensions, want at least 2", varName, len(dims))
	}
	latDim := dims[len(dims)-2]
	lonDim := dims[len(dims)-1]
	height := lengths[len(lengths)-2]
	width := lengths[len(lengths)-1]

	lats, err := readCoord(f, latDim)
	if err != nil {
		return nil, err
	}
	lons, err := readCoord(f, lonDim)
	if err != nil {
		return nil, err
	}
	if len(lats) != height || len(lons) != width {
		return nil, eris.Errorf("raster: coordinate lengths (%d, %d) disagree with %s shape (%d, %d)",
			len(lats), len(lons), varName, height, width)
	}

	raw, err := readValues(f, varName)
	if err != nil {
		return nil, err
	}
	// 3D (time, lat, lon) files carry one step per file; keep the first.
	if len(raw) > width*height {
		raw = raw[:width*height]
	}
	if len(raw) != width*height {
		return nil, eris.Errorf("raster: %s has %d values, want %d", varName, len(raw), width*height)
	}

	missing := attrFloat(f, varName, "missing_value", attrFloat(f, varName, "_FillValue", math.NaN()))
	scale := attrFloat(f, varName, "scale_factor", 1)
	offset := attrFloat(f, varName, "add_offset", 0)

	resY := coordStep(lats)
	resX := coordStep(lons)
	bounds := Bounds{
		MinX: math.Min(lons[0], lons[len(lons)-1]) - resX/2,
		MaxX: math.Max(lons[0], lons[len(lons)-1]) + resX/2,
		MinY: math.Min(lats[0], lats[len(lats)-1]) - resY/2,
		MaxY: math.Max(lats[0], lats[len(lats)-1]) + resY/2,
	}

	g := NewGrid(width, height, bounds, WGS84)
	latAscending := lats[len(lats)-1] > lats[0]
	for row := 0; row < height; row++ {
		srcRow := row
		if latAscending {
			// Row 0 of the grid is the northern edge.
			srcRow = height - 1 - row
		}
		for col := 0; col < width; col++ {
			v := raw[srcRow*width+col]
			if !math.IsNaN(missing) && v == missing {
				continue
			}
			g.Set(col, row, v*scale+offset)
		}
	}
	return g, nil
}

// WriteNetCDF writes a grid as a 2D variable with lat/lon coordinate
// variables. Missing cells are stored as the fill value.
func WriteNetCDF(path, varName, units string, g *Grid) error {
	lats := make([]float64, g.Height)
	for row := range lats {
		_, lats[row] = g.CellCenter(0, row)
	}
	lons := make([]float64, g.Width)
	for col := range lons {
		lons[col], _ = g.CellCenter(col, 0)
	}

	h := cdf.NewHeader([]string{"lat", "lon"}, []int{g.Height, g.Width})
	h.AddVariable("lat", []string{"lat"}, []float64{0})
	h.AddAttribute("lat", "units", "degrees_north")
	h.AddVariable("lon", []string{"lon"}, []float64{0})
	h.AddAttribute("lon", "units", "degrees_east")
	h.AddVariable(varName, []string{"lat", "lon"}, []float32{0})
	h.AddAttribute(varName, "units", units)
	h.AddAttribute(varName, "_FillValue", []float32{fillValue})
	h.Define()

	fh, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "raster: create %s", path)
	}
	defer func() { _ = fh.Close() }()

	f, err := cdf.Create(fh, h)
	if err != nil {
		return eris.Wrapf(err, "raster: write netcdf header %s", path)
	}

	if err := writeVar(f, "lat", lats); err != nil {
		return err
	}
	if err := writeVar(f, "lon", lons); err != nil {
		return err
	}

	data := make([]float32, len(g.Data))
	for i, v := range g.Data {
		if math.IsNaN(v) {
			data[i] = fillValue
		} else {
			data[i] = float32(v)
		}
	}
	if err := writeVar(f, varName, data); err != nil {
		return err
	}

	return eris.Wrapf(cdf.UpdateNumRecs(fh), "raster: finalize %s", path)
}

func readCoord(f *cdf.File, name string) ([]float64, error) {
	vals, err := readValues(f, name)
	if err != nil {
		return nil, eris.Wrapf(err, "raster: read coordinate %s", name)
	}
	if len(vals) < 2 {
		return nil, eris.Errorf("raster: coordinate %s has %d values, want at least 2", name, len(vals))
	}
	return vals, nil
}

func readValues(f *cdf.File, name string) ([]float64, error) {
	r := f.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, eris.Wrapf(err, "raster: read variable %s", name)
	}
	return toFloat64(buf, name)
}

func toFloat64(buf interface{}, name string) ([]float64, error) {
	switch v := buf.(type) {
	case []float64:
		return v, nil
	case []float32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	default:
		return nil, eris.Errorf("raster: variable %s has unsupported type %T", name, buf)
	}
}

func writeVar(f *cdf.File, name string, data interface{}) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	if _, err := w.Write(data); err != nil {
		return eris.Wrapf(err, "raster: write variable %s", name)
	}
	return nil
}

// attrFloat fetches a numeric attribute scalar, returning def when absent.
func attrFloat(f *cdf.File, varName, attr string, def float64) float64 {
	a := f.Header.GetAttribute(varName, attr)
	if a == nil {
		return def
	}
	switch v := a.(type) {
	case []float64:
		if len(v) > 0 {
			return v[0]
		}
	case []float32:
		if len(v) > 0 {
			return float64(v[0])
		}
	case []int32:
		if len(v) > 0 {
			return float64(v[0])
		}
	case []int16:
		if len(v) > 0 {
			return float64(v[0])
		}
	}
	return def
}

func coordStep(coords []float64) float64 {
	return math.Abs(coords[1] - coords[0])
}
