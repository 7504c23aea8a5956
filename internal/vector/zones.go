// Package vector loads the zone boundary polygons from a shapefile.
package vector

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/bluewater-labs/aquasite-cli/internal/raster"
)

// Zone is one administrative boundary polygon with its identifying
// attributes. Immutable once loaded.
type Zone struct {
	Name     string
	RegionID int
	Geom     *geom.MultiPolygon
}

// LoadZones reads a polygon shapefile and returns one Zone per feature that
// carries a name, a numeric region id, and a usable geometry. The required
// attribute fields are matched case-insensitively. The CRS is classified
// from the .prj sidecar next to the shapefile.
func LoadZones(shpPath string) ([]Zone, raster.CRS, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, raster.CRS{}, eris.Wrapf(err, "vector: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	nameIdx := fieldIndex(reader, "name")
	regionIdx := fieldIndex(reader, "region_id")
	if nameIdx < 0 || regionIdx < 0 {
		return nil, raster.CRS{}, eris.Errorf("vector: shapefile %s lacks required fields name/region_id", shpPath)
	}

	crs, err := readPRJ(shpPath)
	if err != nil {
		return nil, raster.CRS{}, err
	}

	var zones []Zone
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()

		name := strings.TrimSpace(strings.TrimRight(reader.Attribute(nameIdx), "\x00"))
		regionRaw := strings.TrimSpace(strings.TrimRight(reader.Attribute(regionIdx), "\x00"))
		if name == "" || regionRaw == "" {
			skipped++
			continue
		}
		regionID, convErr := strconv.Atoi(regionRaw)
		if convErr != nil {
			return nil, raster.CRS{}, eris.Wrapf(convErr, "vector: region_id %q for zone %q", regionRaw, name)
		}

		poly, ok := shape.(*shp.Polygon)
		if !ok || poly == nil {
			skipped++
			continue
		}
		mp := polygonToMultiPolygon(poly)
		if mp == nil {
			skipped++
			continue
		}

		zones = append(zones, Zone{Name: name, RegionID: regionID, Geom: mp})
	}

	if skipped > 0 {
		zap.L().Debug("vector: skipped shapefile records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}
	if len(zones) == 0 {
		return nil, raster.CRS{}, eris.Errorf("vector: shapefile %s yielded no usable zones", shpPath)
	}

	return zones, crs, nil
}

// fieldIndex returns the index of a named field in the shapefile, or -1 if not found.
func fieldIndex(reader *shp.Reader, name string) int {
	for i, f := range reader.Fields() {
		if strings.EqualFold(strings.TrimRight(f.String(), "\x00"), name) {
			return i
		}
	}
	return -1
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Shapefile parts carry their role in the ring winding: clockwise parts are
// exterior shells, counter-clockwise parts are holes cut from the preceding
// shell. Each shell starts a new polygon and collects the holes that follow
// it.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	var poly *geom.Polygon

	flush := func() {
		if poly == nil || poly.NumLinearRings() == 0 {
			poly = nil
			return
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("vector: skipping malformed polygon", zap.Error(err))
		}
		poly = nil
	}

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		ring := geom.NewLinearRingFlat(geom.XY, flat)

		// A hole part before any shell is promoted to a shell rather
		// than dropped; some producers emit sloppy winding.
		if signedArea(flat) <= 0 || poly == nil {
			flush()
			poly = geom.NewPolygon(geom.XY)
		}
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("vector: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}

// signedArea computes the shoelace area of a flat XY ring: negative for
// clockwise rings, positive for counter-clockwise.
func signedArea(flat []float64) float64 {
	n := len(flat)
	if n < 6 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i += 2 {
		j := (i + 2) % n
		sum += flat[i]*flat[j+1] - flat[j]*flat[i+1]
	}
	return sum / 2
}

// readPRJ classifies the CRS recorded in the shapefile's .prj sidecar.
// Only the geographic WGS84 family is expected from boundary products; a
// missing sidecar falls back to EPSG:4326 with a warning.
func readPRJ(shpPath string) (raster.CRS, error) {
	prjPath := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj"
	wkt, err := os.ReadFile(prjPath)
	if err != nil {
		if os.IsNotExist(err) {
			zap.L().Warn("vector: no .prj sidecar, assuming EPSG:4326", zap.String("path", prjPath))
			return raster.WGS84, nil
		}
		return raster.CRS{}, eris.Wrapf(err, "vector: read %s", prjPath)
	}

	s := strings.ToUpper(string(wkt))
	switch {
	case strings.Contains(s, "WGS_1984") || strings.Contains(s, "WGS 84"):
		return raster.WGS84, nil
	default:
		return raster.CRS{}, eris.Errorf("vector: unrecognized CRS in %s", prjPath)
	}
}
