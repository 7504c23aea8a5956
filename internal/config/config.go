package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Data       DataConfig       `yaml:"data" mapstructure:"data"`
	Criteria   CriteriaConfig   `yaml:"criteria" mapstructure:"criteria"`
	Projection ProjectionConfig `yaml:"projection" mapstructure:"projection"`
	Basemap    BasemapConfig    `yaml:"basemap" mapstructure:"basemap"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Output     OutputConfig     `yaml:"output" mapstructure:"output"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Fetch      FetchConfig      `yaml:"fetch" mapstructure:"fetch"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// DataConfig locates the input datasets on local storage.
type DataConfig struct {
	Dir             string `yaml:"dir" mapstructure:"dir"`
	BoundaryPath    string `yaml:"boundary_path" mapstructure:"boundary_path"`
	BathymetryPath  string `yaml:"bathymetry_path" mapstructure:"bathymetry_path"`
	TemperatureGlob string `yaml:"temperature_glob" mapstructure:"temperature_glob"`
	// NetCDF variable names inside the raster files.
	BathymetryVar  string `yaml:"bathymetry_var" mapstructure:"bathymetry_var"`
	TemperatureVar string `yaml:"temperature_var" mapstructure:"temperature_var"`
}

// CriteriaConfig holds the closed-interval siting criteria.
type CriteriaConfig struct {
	TempMinC  float64 `yaml:"temp_min_c" mapstructure:"temp_min_c"`
	TempMaxC  float64 `yaml:"temp_max_c" mapstructure:"temp_max_c"`
	DepthMinM float64 `yaml:"depth_min_m" mapstructure:"depth_min_m"`
	DepthMaxM float64 `yaml:"depth_max_m" mapstructure:"depth_max_m"`
}

// ProjectionConfig holds the coordinate systems used by the analysis.
type ProjectionConfig struct {
	AnalysisEPSG   int    `yaml:"analysis_epsg" mapstructure:"analysis_epsg"`
	EqualAreaEPSG  int    `yaml:"equal_area_epsg" mapstructure:"equal_area_epsg"`
	AnalysisProj4  string `yaml:"analysis_proj4" mapstructure:"analysis_proj4"`
	EqualAreaProj4 string `yaml:"equal_area_proj4" mapstructure:"equal_area_proj4"`
}

// BasemapConfig configures the upstream XYZ tile source.
type BasemapConfig struct {
	URLTemplate string  `yaml:"url_template" mapstructure:"url_template"`
	Zoom        int     `yaml:"zoom" mapstructure:"zoom"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// StoreConfig configures the results store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// OutputConfig configures where rendered artifacts are written.
type OutputConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// PipelineConfig configures pipeline behavior.
type PipelineConfig struct {
	// StrictAlignment makes a mismatch between the bathymetry and
	// temperature grids fatal instead of a warning before harmonization.
	StrictAlignment bool `yaml:"strict_alignment" mapstructure:"strict_alignment"`
	// Workers bounds concurrent temperature raster reads.
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// FetchConfig configures source dataset downloads.
type FetchConfig struct {
	BathymetryURL  string `yaml:"bathymetry_url" mapstructure:"bathymetry_url"`
	TemperatureURL string `yaml:"temperature_url" mapstructure:"temperature_url"`
	BoundaryURL    string `yaml:"boundary_url" mapstructure:"boundary_url"`
	TimeoutSecs    int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("AQUASITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("data.dir", "data")
	v.SetDefault("data.boundary_path", "data/eez_east_coast.shp")
	v.SetDefault("data.bathymetry_path", "data/gebco_bathymetry.nc")
	v.SetDefault("data.temperature_glob", "data/sst.day.mean.*.nc")
	v.SetDefault("data.bathymetry_var", "elevation")
	v.SetDefault("data.temperature_var", "sst")
	v.SetDefault("criteria.temp_min_c", 3.0)
	v.SetDefault("criteria.temp_max_c", 19.0)
	v.SetDefault("criteria.depth_min_m", -360.0)
	v.SetDefault("criteria.depth_max_m", 0.0)
	v.SetDefault("projection.analysis_epsg", 4326)
	v.SetDefault("projection.equal_area_epsg", 5070)
	v.SetDefault("projection.analysis_proj4", "+proj=longlat +datum=WGS84 +no_defs")
	v.SetDefault("projection.equal_area_proj4",
		"+proj=aea +lat_1=29.5 +lat_2=45.5 +lat_0=23 +lon_0=-96 +x_0=0 +y_0=0 +datum=NAD83 +units=m +no_defs")
	v.SetDefault("basemap.url_template", "https://tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("basemap.zoom", 6)
	v.SetDefault("basemap.timeout_secs", 30)
	v.SetDefault("basemap.rate_per_sec", 2.0)
	v.SetDefault("basemap.user_agent", "aquasite-cli/1.0")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "aquasite.db")
	v.SetDefault("output.dir", "out")
	v.SetDefault("pipeline.strict_alignment", false)
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("fetch.timeout_secs", 120)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
