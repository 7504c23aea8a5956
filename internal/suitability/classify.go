// Package suitability derives binary siting masks from threshold criteria.
package suitability

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/bluewater-labs/aquasite-cli/internal/raster"
)

// Criterion is a closed-interval suitability test: a value is suitable iff
// Min <= value <= Max.
type Criterion struct {
	Min float64
	Max float64
}

// Suitable reports whether v satisfies the criterion. Both endpoints are
// included.
func (c Criterion) Suitable(v float64) bool {
	return v >= c.Min && v <= c.Max
}

// Classify thresholds a grid into a binary mask: 1 where the criterion
// holds, 0 where it does not. Missing input cells stay missing rather than
// being coerced to unsuitable, so no-data areas can be told apart from
// rejected ones downstream.
func Classify(g *raster.Grid, c Criterion) *raster.Grid {
	return g.Apply(func(v float64) float64 {
		if math.IsNaN(v) {
			return v
		}
		if c.Suitable(v) {
			return 1
		}
		return 0
	})
}

// Combine multiplies two binary masks elementwise, the logical AND of the
// two criteria. A missing cell in either input is missing in the output.
// The grids must be structurally aligned.
func Combine(a, b *raster.Grid) (*raster.Grid, error) {
	if status := raster.CheckAlignment(a, b); status != raster.Aligned {
		return nil, eris.Errorf("suitability: cannot combine masks: %s", status)
	}
	out := a.Clone()
	for i, v := range b.Data {
		out.Data[i] *= v
	}
	return out, nil
}

// RecodeZeroMissing maps unsuitable (zero) cells to missing so that area
// summation and rendering only ever see truly suitable cells.
func RecodeZeroMissing(g *raster.Grid) *raster.Grid {
	return g.Apply(func(v float64) float64 {
		if v == 0 {
			return math.NaN()
		}
		return v
	})
}
