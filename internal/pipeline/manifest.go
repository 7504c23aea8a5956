package pipeline

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/bluewater-labs/aquasite-cli/internal/config"
	"github.com/bluewater-labs/aquasite-cli/internal/model"
)

// Manifest is the YAML record written next to each run's artifacts so a
// result directory stays interpretable without the store.
type Manifest struct {
	RunID       string           `yaml:"run_id,omitempty"`
	GeneratedAt time.Time        `yaml:"generated_at"`
	Inputs      ManifestInputs   `yaml:"inputs"`
	Criteria    ManifestCriteria `yaml:"criteria"`
	Alignment   string           `yaml:"alignment"`
	SuitableKM2 float64          `yaml:"suitable_km2"`
	Zones       []model.ZoneArea `yaml:"zones"`
	Outputs     model.RunOutputs `yaml:"outputs"`
}

type ManifestInputs struct {
	Bathymetry  string `yaml:"bathymetry"`
	Temperature string `yaml:"temperature"`
	Boundary    string `yaml:"boundary"`
}

type ManifestCriteria struct {
	TempMinC  float64 `yaml:"temp_min_c"`
	TempMaxC  float64 `yaml:"temp_max_c"`
	DepthMinM float64 `yaml:"depth_min_m"`
	DepthMaxM float64 `yaml:"depth_max_m"`
}

func writeManifest(path, runID string, cfg *config.Config, result *model.RunResult) error {
	var total float64
	for _, z := range result.Zones {
		total += z.AreaKM2
	}

	m := Manifest{
		RunID:       runID,
		GeneratedAt: time.Now().UTC(),
		Inputs: ManifestInputs{
			Bathymetry:  cfg.Data.BathymetryPath,
			Temperature: cfg.Data.TemperatureGlob,
			Boundary:    cfg.Data.BoundaryPath,
		},
		Criteria: ManifestCriteria{
			TempMinC:  cfg.Criteria.TempMinC,
			TempMaxC:  cfg.Criteria.TempMaxC,
			DepthMinM: cfg.Criteria.DepthMinM,
			DepthMaxM: cfg.Criteria.DepthMaxM,
		},
		Alignment:   result.Alignment,
		SuitableKM2: total,
		Zones:       result.Zones,
		Outputs:     result.Outputs,
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return eris.Wrap(err, "pipeline: marshal manifest")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "pipeline: write manifest %s", path)
	}
	return nil
}
