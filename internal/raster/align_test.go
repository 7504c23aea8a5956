package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckAlignment(t *testing.T) {
	base := func() *Grid { return NewGrid(3, 3, testBounds, WGS84) }

	tests := []struct {
		name   string
		mutate func(*Grid)
		want   AlignStatus
	}{
		{
			name:   "identical grids",
			mutate: func(*Grid) {},
			want:   Aligned,
		},
		{
			name: "different CRS",
			mutate: func(g *Grid) {
				g.CRS = CRS{EPSG: 5070, Proj4: "+proj=aea"}
			},
			want: CRSMismatch,
		},
		{
			name: "shifted extent",
			mutate: func(g *Grid) {
				g.Bounds.MinX += 0.5
				g.Bounds.MaxX += 0.5
			},
			want: ExtentMismatch,
		},
		{
			name: "same extent, different shape",
			mutate: func(g *Grid) {
				g.Width = 6
				g.Data = make([]float64, 6*g.Height)
			},
			want: ResolutionMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other := base()
			tt.mutate(other)
			assert.Equal(t, tt.want, CheckAlignment(base(), other))
		})
	}
}

func TestAlignStatusString(t *testing.T) {
	assert.Equal(t, "aligned", Aligned.String())
	assert.Equal(t, "crs-mismatch", CRSMismatch.String())
	assert.Equal(t, "extent-mismatch", ExtentMismatch.String())
	assert.Equal(t, "resolution-mismatch", ResolutionMismatch.String())
}

func TestSameCRS(t *testing.T) {
	albers := CRS{EPSG: 5070}
	assert.True(t, SameCRS(WGS84, WGS84, WGS84))
	assert.False(t, SameCRS(WGS84, albers, WGS84))
	assert.True(t, SameCRS(WGS84))
}
