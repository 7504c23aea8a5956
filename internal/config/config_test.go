package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.InDelta(t, 3.0, cfg.Criteria.TempMinC, 0.001)
	assert.InDelta(t, 19.0, cfg.Criteria.TempMaxC, 0.001)
	assert.InDelta(t, -360.0, cfg.Criteria.DepthMinM, 0.001)
	assert.InDelta(t, 0.0, cfg.Criteria.DepthMaxM, 0.001)
	assert.Equal(t, 4326, cfg.Projection.AnalysisEPSG)
	assert.Equal(t, 5070, cfg.Projection.EqualAreaEPSG)
	assert.Contains(t, cfg.Projection.EqualAreaProj4, "+proj=aea")
	assert.Equal(t, "elevation", cfg.Data.BathymetryVar)
	assert.Equal(t, "sst", cfg.Data.TemperatureVar)
	assert.Equal(t, 6, cfg.Basemap.Zoom)
	assert.Equal(t, 30, cfg.Basemap.TimeoutSecs)
	assert.False(t, cfg.Pipeline.StrictAlignment)
	assert.Equal(t, 4, cfg.Pipeline.Workers)
	assert.Equal(t, "out", cfg.Output.Dir)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/aquasite
criteria:
  temp_max_c: 21.5
pipeline:
  strict_alignment: true
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/aquasite", cfg.Store.DatabaseURL)
	assert.InDelta(t, 21.5, cfg.Criteria.TempMaxC, 0.001)
	assert.True(t, cfg.Pipeline.StrictAlignment)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Unset keys keep their defaults.
	assert.InDelta(t, 3.0, cfg.Criteria.TempMinC, 0.001)
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	require.Error(t, err)
}
