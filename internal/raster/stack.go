package raster

import (
	"math"

	"github.com/rotisserie/eris"
)

// MeanStack stacks grids along a temporal dimension and reduces by per-cell
// arithmetic mean, ignoring missing values. A cell that is missing in every
// member stays missing. Every member must be aligned with the first; a
// mismatch fails the whole aggregation rather than producing a partial mean.
func MeanStack(grids []*Grid) (*Grid, error) {
	if len(grids) == 0 {
		return nil, eris.New("raster: mean of empty stack")
	}
	base := grids[0]
	for i, g := range grids[1:] {
		if status := CheckAlignment(base, g); status != Aligned {
			return nil, eris.Errorf("raster: stack member %d not stackable: %s", i+1, status)
		}
	}

	sum := make([]float64, len(base.Data))
	count := make([]int, len(base.Data))
	for _, g := range grids {
		for i, v := range g.Data {
			if math.IsNaN(v) {
				continue
			}
			sum[i] += v
			count[i]++
		}
	}

	out := NewGrid(base.Width, base.Height, base.Bounds, base.CRS)
	for i := range sum {
		if count[i] > 0 {
			out.Data[i] = sum[i] / float64(count[i])
		}
	}
	return out, nil
}
