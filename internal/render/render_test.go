package render

import (
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"github.com/twpayne/go-geom"

	"github.com/bluewater-labs/aquasite-cli/internal/basemap"
	"github.com/bluewater-labs/aquasite-cli/internal/raster"
	"github.com/bluewater-labs/aquasite-cli/internal/vector"
	"github.com/bluewater-labs/aquasite-cli/internal/zonal"
)

func TestBreaks(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []float64
	}{
		{
			name:   "distinct values",
			values: []float64{5, 2, 9},
			want:   []float64{2, 5, 9, 10},
		},
		{
			name:   "duplicates collapse to one edge",
			values: []float64{3, 3, 7, 3},
			want:   []float64{3, 7, 8},
		},
		{
			name:   "single value",
			values: []float64{0},
			want:   []float64{0, 1},
		},
		{
			name:   "empty",
			values: nil,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Breaks(tt.values))
		})
	}
}

func TestBinIndex(t *testing.T) {
	breaks := []float64{0, 3, 7, 8}

	assert.Equal(t, 0, BinIndex(0, breaks))
	assert.Equal(t, 1, BinIndex(3, breaks))
	assert.Equal(t, 2, BinIndex(7, breaks))
	assert.Equal(t, 1, BinIndex(5, breaks))
	assert.Equal(t, 0, BinIndex(-1, breaks))
}

func testMosaic() *basemap.Mosaic {
	// Zoom 3 over the western Atlantic: a couple of tiles.
	tr := basemap.RangeForExtent(-76, 34, -71, 39, 3)
	return &basemap.Mosaic{
		Image: image.NewRGBA(image.Rect(0, 0, tr.Cols()*basemap.TileSize, tr.Rows()*basemap.TileSize)),
		Range: tr,
	}
}

func testSuitableGrid() *raster.Grid {
	g := raster.NewGrid(3, 3, raster.Bounds{MinX: -75, MinY: 35, MaxX: -72, MaxY: 38}, raster.WGS84)
	g.Set(0, 0, 1)
	g.Set(2, 2, 1)
	return g
}

func testZone(name string, region int) vector.Zone {
	ring := geom.NewLinearRingFlat(geom.XY, []float64{
		-75, 35, -73, 35, -73, 37, -75, 37, -75, 35,
	})
	poly := geom.NewPolygon(geom.XY)
	if err := poly.Push(ring); err != nil {
		panic(err)
	}
	mp := geom.NewMultiPolygon(geom.XY)
	if err := mp.Push(poly); err != nil {
		panic(err)
	}
	return vector.Zone{Name: name, RegionID: region, Geom: mp}
}

func TestSuitabilityMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suitable.png")

	require.NoError(t, SuitabilityMap(testMosaic(), testSuitableGrid(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestChoroplethMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "choropleth.png")
	zones := []vector.Zone{testZone("North Sound", 1), testZone("South Sound", 2)}
	areas := zonal.AreaByZone([]zonal.Summary{
		{Zone: "North Sound", AreaKM2: 4},
		{Zone: "South Sound", AreaKM2: 0},
	})

	require.NoError(t, ChoroplethMap(testMosaic(), zones, areas, testSuitableGrid(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestChoroplethMapUnmatchedZone(t *testing.T) {
	// A zone missing from the totals is still rendered.
	path := filepath.Join(t.TempDir(), "choropleth.png")
	zones := []vector.Zone{testZone("Unmatched", 9)}

	require.NoError(t, ChoroplethMap(testMosaic(), zones, map[string]float64{}, testSuitableGrid(), path))
	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestSummaryXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	summaries := []zonal.Summary{
		{Zone: "North Sound", RegionID: 1, AreaKM2: 12.5},
		{Zone: "South Sound", RegionID: 2, AreaKM2: 0},
	}

	require.NoError(t, SummaryXLSX(summaries, path))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	sheet := f.Sheets[0]
	require.Len(t, sheet.Rows, 3)

	assert.Equal(t, "Zone", sheet.Rows[0].Cells[0].String())
	assert.Equal(t, "North Sound", sheet.Rows[1].Cells[0].String())
	v, err := sheet.Rows[1].Cells[1].Float()
	require.NoError(t, err)
	assert.InDelta(t, 12.5, v, 1e-9)
	v, err = sheet.Rows[2].Cells[1].Float()
	require.NoError(t, err)
	assert.InDelta(t, 0.0, v, 1e-9)
}

func TestLabelPoint(t *testing.T) {
	z := testZone("z", 1)
	lon, lat := labelPoint(z)
	assert.False(t, math.IsNaN(lon))
	assert.InDelta(t, -74.2, lon, 0.5)
	assert.InDelta(t, 35.8, lat, 0.5)
}
