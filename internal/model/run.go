// Package model defines the persisted records of the suitability pipeline.
package model

import "time"

// RunStatus tracks lifecycle of an analysis run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// RunParams records the inputs a run was launched with.
type RunParams struct {
	BathymetryPath  string  `json:"bathymetry_path"`
	TemperatureGlob string  `json:"temperature_glob"`
	BoundaryPath    string  `json:"boundary_path"`
	TempMinC        float64 `json:"temp_min_c"`
	TempMaxC        float64 `json:"temp_max_c"`
	DepthMinM       float64 `json:"depth_min_m"`
	DepthMaxM       float64 `json:"depth_max_m"`
	OutputDir       string  `json:"output_dir"`
}

// ZoneArea is one row of the zonal summary: suitable area per zone.
type ZoneArea struct {
	Zone     string  `json:"zone" yaml:"zone"`
	RegionID int     `json:"region_id" yaml:"region_id"`
	AreaKM2  float64 `json:"area_km2" yaml:"area_km2"`
}

// RunOutputs lists the artifact paths a completed run produced.
type RunOutputs struct {
	MeanTemperature string `json:"mean_temperature" yaml:"mean_temperature"`
	SuitabilityMap  string `json:"suitability_map" yaml:"suitability_map"`
	ChoroplethMap   string `json:"choropleth_map" yaml:"choropleth_map"`
	SummaryTable    string `json:"summary_table" yaml:"summary_table"`
	Manifest        string `json:"manifest" yaml:"manifest"`
}

// RunResult is the outcome of a completed run.
type RunResult struct {
	Alignment     string     `json:"alignment"`
	SuitableCells int        `json:"suitable_cells"`
	Zones         []ZoneArea `json:"zones"`
	Outputs       RunOutputs `json:"outputs"`
}

// Run is a single execution of the suitability pipeline.
type Run struct {
	ID        string     `json:"id"`
	Params    RunParams  `json:"params"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
