package zonal

import (
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"gonum.org/v1/gonum/floats"

	"github.com/bluewater-labs/aquasite-cli/internal/raster"
	"github.com/bluewater-labs/aquasite-cli/internal/vector"
)

// Summary is one output row: total suitable area for a zone.
type Summary struct {
	Zone     string  `json:"zone"`
	RegionID int     `json:"region_id"`
	AreaKM2  float64 `json:"area_km2"`
}

// Aggregate groups the per-cell area grid by the zone-id raster, summing
// area over cells that are suitable (non-missing in the mask), and returns
// one row per input zone joined by region id. Zones with no overlapping
// suitable cells report zero, never missing. The three grids must be
// aligned.
func Aggregate(suitable, zoneIDs, areas *raster.Grid, zones []vector.Zone) ([]Summary, error) {
	if status := raster.CheckAlignment(suitable, zoneIDs); status != raster.Aligned {
		return nil, eris.Errorf("zonal: suitability and zone grids: %s", status)
	}
	if status := raster.CheckAlignment(suitable, areas); status != raster.Aligned {
		return nil, eris.Errorf("zonal: suitability and area grids: %s", status)
	}

	byRegion := make(map[int][]float64)
	for i, v := range suitable.Data {
		if math.IsNaN(v) {
			continue
		}
		region := int(zoneIDs.Data[i])
		if region == ZoneNoData {
			continue
		}
		byRegion[region] = append(byRegion[region], areas.Data[i])
	}

	// One row per input zone, joined explicitly on region id.
	out := make([]Summary, 0, len(zones))
	for _, z := range zones {
		total := floats.Sum(byRegion[z.RegionID])
		out = append(out, Summary{
			Zone:     z.Name,
			RegionID: z.RegionID,
			AreaKM2:  total / 1e6, // m² to km²
		})
		delete(byRegion, z.RegionID)
	}

	// Region ids burned into the raster but absent from the zone list would
	// mean the rasterization and the vector source disagree.
	for region := range byRegion {
		zap.L().Warn("zonal: suitable cells in unknown region", zap.Int("region_id", region))
	}

	return out, nil
}

// AreaByZone indexes summaries by case-folded zone name for joining totals
// back onto zone polygons when rendering. Unmatched zones are the caller's
// concern; the map simply has no entry.
func AreaByZone(summaries []Summary) map[string]float64 {
	folder := cases.Fold()
	out := make(map[string]float64, len(summaries))
	for _, s := range summaries {
		out[folder.String(s.Zone)] = s.AreaKM2
	}
	return out
}

// FoldName normalizes a zone name the same way AreaByZone keys are built.
func FoldName(name string) string {
	return cases.Fold().String(name)
}
