package raster

import "math"

// AlignStatus classifies why two grids can or cannot be combined cellwise.
type AlignStatus int

const (
	Aligned AlignStatus = iota
	CRSMismatch
	ExtentMismatch
	ResolutionMismatch
)

// String returns the status name for logging.
func (s AlignStatus) String() string {
	switch s {
	case Aligned:
		return "aligned"
	case CRSMismatch:
		return "crs-mismatch"
	case ExtentMismatch:
		return "extent-mismatch"
	case ResolutionMismatch:
		return "resolution-mismatch"
	default:
		return "unknown"
	}
}

// alignEps is the tolerance for extent and resolution comparison, in CRS
// units. Source grids are quarter-degree so this is comfortably sub-cell.
const alignEps = 1e-6

// CheckAlignment structurally compares two grids and reports the first
// mismatch found, checking CRS, then extent, then resolution and shape.
// Grids that report Aligned are safe to combine cellwise.
func CheckAlignment(a, b *Grid) AlignStatus {
	if !a.CRS.Equal(b.CRS) {
		return CRSMismatch
	}
	if !closeEnough(a.Bounds.MinX, b.Bounds.MinX) ||
		!closeEnough(a.Bounds.MinY, b.Bounds.MinY) ||
		!closeEnough(a.Bounds.MaxX, b.Bounds.MaxX) ||
		!closeEnough(a.Bounds.MaxY, b.Bounds.MaxY) {
		return ExtentMismatch
	}
	if a.Width != b.Width || a.Height != b.Height ||
		!closeEnough(a.ResX(), b.ResX()) || !closeEnough(a.ResY(), b.ResY()) {
		return ResolutionMismatch
	}
	return Aligned
}

// SameCRS reports whether every given CRS matches the first. This is the
// coarse pairwise pass/fail the analysis logs before resampling.
func SameCRS(crs ...CRS) bool {
	for _, c := range crs[1:] {
		if !crs[0].Equal(c) {
			return false
		}
	}
	return true
}

func closeEnough(a, b float64) bool {
	return math.Abs(a-b) <= alignEps
}
