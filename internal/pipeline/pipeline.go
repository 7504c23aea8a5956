// Package pipeline runs the full suitability analysis: raster ingest,
// temporal mean, harmonization, classification, equal-area aggregation,
// and artifact rendering.
package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bluewater-labs/aquasite-cli/internal/basemap"
	"github.com/bluewater-labs/aquasite-cli/internal/config"
	"github.com/bluewater-labs/aquasite-cli/internal/model"
	"github.com/bluewater-labs/aquasite-cli/internal/raster"
	"github.com/bluewater-labs/aquasite-cli/internal/render"
	"github.com/bluewater-labs/aquasite-cli/internal/store"
	"github.com/bluewater-labs/aquasite-cli/internal/suitability"
	"github.com/bluewater-labs/aquasite-cli/internal/vector"
	"github.com/bluewater-labs/aquasite-cli/internal/zonal"
)

// Pipeline executes suitability runs against the configured datasets.
type Pipeline struct {
	cfg   *config.Config
	store store.Store
	tiles *basemap.Client
	log   *zap.Logger
}

// New creates a Pipeline. The store may be nil, in which case runs are not
// recorded.
func New(cfg *config.Config, st store.Store) *Pipeline {
	tiles := basemap.NewClient(
		cfg.Basemap.URLTemplate,
		cfg.Basemap.UserAgent,
		time.Duration(cfg.Basemap.TimeoutSecs)*time.Second,
		cfg.Basemap.RatePerSec,
	)
	return &Pipeline{
		cfg:   cfg,
		store: st,
		tiles: tiles,
		log:   zap.L().With(zap.String("component", "pipeline")),
	}
}

// Run executes the analysis, records the run in the store, and returns the
// result.
func (p *Pipeline) Run(ctx context.Context) (*model.RunResult, error) {
	params := model.RunParams{
		BathymetryPath:  p.cfg.Data.BathymetryPath,
		TemperatureGlob: p.cfg.Data.TemperatureGlob,
		BoundaryPath:    p.cfg.Data.BoundaryPath,
		TempMinC:        p.cfg.Criteria.TempMinC,
		TempMaxC:        p.cfg.Criteria.TempMaxC,
		DepthMinM:       p.cfg.Criteria.DepthMinM,
		DepthMaxM:       p.cfg.Criteria.DepthMaxM,
		OutputDir:       p.cfg.Output.Dir,
	}

	var run *model.Run
	if p.store != nil {
		var err error
		run, err = p.store.CreateRun(ctx, params)
		if err != nil {
			return nil, err
		}
		p.log.Info("run created", zap.String("run_id", run.ID))
	}

	result, err := p.execute(ctx, run)
	if p.store != nil && run != nil {
		if err != nil {
			if failErr := p.store.FailRun(ctx, run.ID, err.Error()); failErr != nil {
				p.log.Error("failed to record run failure", zap.Error(failErr))
			}
		} else if completeErr := p.store.CompleteRun(ctx, run.ID, result); completeErr != nil {
			p.log.Error("failed to record run completion", zap.Error(completeErr))
		}
	}
	return result, err
}

func (p *Pipeline) execute(ctx context.Context, run *model.Run) (*model.RunResult, error) {
	outDir := p.cfg.Output.Dir
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, eris.Wrap(err, "pipeline: create output dir")
	}

	// Ingest.
	bathy, err := raster.ReadNetCDF(p.cfg.Data.BathymetryPath, p.cfg.Data.BathymetryVar)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: read bathymetry")
	}
	p.log.Info("bathymetry loaded",
		zap.Int("width", bathy.Width), zap.Int("height", bathy.Height),
		zap.Int("epsg", bathy.CRS.EPSG),
	)

	meanK, err := p.meanTemperature(ctx)
	if err != nil {
		return nil, err
	}

	zones, zoneCRS, err := vector.LoadZones(p.cfg.Data.BoundaryPath)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load boundary")
	}
	p.log.Info("boundary loaded", zap.Int("zones", len(zones)), zap.Int("epsg", zoneCRS.EPSG))

	// Persist the temporal mean before unit conversion so the artifact
	// matches the source series' units.
	outputs := model.RunOutputs{
		MeanTemperature: filepath.Join(outDir, "mean_sst.nc"),
		SuitabilityMap:  filepath.Join(outDir, "suitability.png"),
		ChoroplethMap:   filepath.Join(outDir, "choropleth.png"),
		SummaryTable:    filepath.Join(outDir, "summary.xlsx"),
		Manifest:        filepath.Join(outDir, "run.yaml"),
	}
	if err := raster.WriteNetCDF(outputs.MeanTemperature, p.cfg.Data.TemperatureVar, "K", meanK); err != nil {
		return nil, eris.Wrap(err, "pipeline: write mean temperature")
	}

	meanC := raster.KelvinToCelsius(meanK)

	// CRS agreement across the three sources is reported, not enforced:
	// the crop and resample below harmonize the grids either way.
	analysis := raster.CRS{
		EPSG:  p.cfg.Projection.AnalysisEPSG,
		Proj4: p.cfg.Projection.AnalysisProj4,
	}
	if !raster.SameCRS(analysis, bathy.CRS, meanC.CRS, zoneCRS) {
		p.log.Warn("input reference systems differ",
			zap.Int("analysis_epsg", analysis.EPSG),
			zap.Int("bathymetry_epsg", bathy.CRS.EPSG),
			zap.Int("temperature_epsg", meanC.CRS.EPSG),
			zap.Int("boundary_epsg", zoneCRS.EPSG),
		)
	}

	depthOnTemp, status, err := p.harmonize(bathy, meanC)
	if err != nil {
		return nil, err
	}

	// Classify and combine on the temperature grid template.
	tempMask := suitability.Classify(meanC, suitability.Criterion{
		Min: p.cfg.Criteria.TempMinC, Max: p.cfg.Criteria.TempMaxC,
	})
	depthMask := suitability.Classify(depthOnTemp, suitability.Criterion{
		Min: p.cfg.Criteria.DepthMinM, Max: p.cfg.Criteria.DepthMaxM,
	})
	combined, err := suitability.Combine(tempMask, depthMask)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: combine masks")
	}
	suitable := suitability.RecodeZeroMissing(combined)
	p.log.Info("suitability classified", zap.Int("suitable_cells", suitable.CountValid()))

	// Equal-area aggregation.
	equalArea := raster.CRS{
		EPSG:  p.cfg.Projection.EqualAreaEPSG,
		Proj4: p.cfg.Projection.EqualAreaProj4,
	}
	summaries, suitableCells, err := p.aggregate(suitable, zones, zoneCRS, equalArea)
	if err != nil {
		return nil, err
	}

	// Render artifacts.
	if err := p.render(ctx, suitable, zones, summaries, outputs); err != nil {
		return nil, err
	}

	result := &model.RunResult{
		Alignment:     status.String(),
		SuitableCells: suitableCells,
		Zones:         summariesToModel(summaries),
		Outputs:       outputs,
	}

	runID := ""
	if run != nil {
		runID = run.ID
	}
	if err := writeManifest(outputs.Manifest, runID, p.cfg, result); err != nil {
		return nil, err
	}

	return result, nil
}

// meanTemperature reads every file matching the temperature glob and reduces
// the series to its per-cell temporal mean. Reads run concurrently, bounded
// by the configured worker count.
func (p *Pipeline) meanTemperature(ctx context.Context) (*raster.Grid, error) {
	files, err := filepath.Glob(p.cfg.Data.TemperatureGlob)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: bad temperature glob %q", p.cfg.Data.TemperatureGlob)
	}
	if len(files) == 0 {
		return nil, eris.Errorf("pipeline: no temperature files match %q", p.cfg.Data.TemperatureGlob)
	}
	p.log.Info("reading temperature series", zap.Int("files", len(files)))

	grids := make([]*raster.Grid, len(files))
	g, gctx := errgroup.WithContext(ctx)
	workers := p.cfg.Pipeline.Workers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			grid, err := raster.ReadNetCDF(path, p.cfg.Data.TemperatureVar)
			if err != nil {
				return eris.Wrapf(err, "pipeline: read temperature %s", path)
			}
			grids[i] = grid
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mean, err := raster.MeanStack(grids)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: temporal mean")
	}
	return mean, nil
}

// harmonize reports how the bathymetry and temperature grids differ, then
// crops the bathymetry to the temperature extent and resamples it onto the
// temperature grid template with nearest-neighbor lookup. The reported status
// describes the raw inputs; the crop and resample repair any mismatch, so the
// status is diagnostic unless strict alignment is configured, in which case a
// mismatch aborts the run.
func (p *Pipeline) harmonize(bathy, temp *raster.Grid) (*raster.Grid, raster.AlignStatus, error) {
	status := raster.CheckAlignment(bathy, temp)
	if status != raster.Aligned {
		if p.cfg.Pipeline.StrictAlignment {
			return nil, status, eris.Errorf("pipeline: input grids misaligned: %s", status)
		}
		p.log.Warn("input grids misaligned, harmonizing", zap.String("status", status.String()))
	} else {
		p.log.Info("input grids aligned", zap.String("status", status.String()))
	}

	cropped, err := raster.Crop(bathy, temp.Bounds)
	if err != nil {
		return nil, status, eris.Wrap(err, "pipeline: crop bathymetry")
	}
	resampled, err := raster.ResampleNearest(cropped, temp)
	if err != nil {
		return nil, status, eris.Wrap(err, "pipeline: resample bathymetry")
	}
	return resampled, status, nil
}

// aggregate reprojects the mask and zones into the equal-area CRS, masks to
// the zones, and sums suitable area per zone.
func (p *Pipeline) aggregate(suitable *raster.Grid, zones []vector.Zone, zoneCRS, equalArea raster.CRS) ([]zonal.Summary, int, error) {
	projected, err := zonal.ReprojectGrid(suitable, equalArea, 0, 0)
	if err != nil {
		return nil, 0, eris.Wrap(err, "pipeline: reproject mask")
	}
	projZones, err := zonal.ReprojectZones(zones, zoneCRS, equalArea)
	if err != nil {
		return nil, 0, eris.Wrap(err, "pipeline: reproject zones")
	}

	masked := zonal.MaskToZones(projected, projZones)
	zoneIDs := zonal.RasterizeZones(projZones, projected)
	areas, err := raster.CellAreas(projected)
	if err != nil {
		return nil, 0, eris.Wrap(err, "pipeline: cell areas")
	}

	summaries, err := zonal.Aggregate(masked, zoneIDs, areas, projZones)
	if err != nil {
		return nil, 0, eris.Wrap(err, "pipeline: zonal aggregation")
	}
	return summaries, masked.CountValid(), nil
}

// render fetches the basemap for the mask extent and writes the three
// artifacts.
func (p *Pipeline) render(ctx context.Context, suitable *raster.Grid, zones []vector.Zone, summaries []zonal.Summary, outputs model.RunOutputs) error {
	b := suitable.Bounds
	mosaic, err := p.tiles.FetchExtent(ctx, b.MinX, b.MinY, b.MaxX, b.MaxY, p.cfg.Basemap.Zoom)
	if err != nil {
		return eris.Wrap(err, "pipeline: fetch basemap")
	}

	if err := render.SuitabilityMap(mosaic, suitable, outputs.SuitabilityMap); err != nil {
		return err
	}
	areaByZone := zonal.AreaByZone(summaries)
	if err := render.ChoroplethMap(mosaic, zones, areaByZone, suitable, outputs.ChoroplethMap); err != nil {
		return err
	}
	if err := render.SummaryXLSX(summaries, outputs.SummaryTable); err != nil {
		return err
	}
	return nil
}

func summariesToModel(summaries []zonal.Summary) []model.ZoneArea {
	out := make([]model.ZoneArea, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, model.ZoneArea{Zone: s.Zone, RegionID: s.RegionID, AreaKM2: s.AreaKM2})
	}
	return out
}
