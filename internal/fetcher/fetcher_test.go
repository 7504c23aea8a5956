package fetcher

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluewater-labs/aquasite-cli/internal/config"
)

func TestParseFTPURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		wantHost string
		wantPath string
		wantErr  bool
	}{
		{
			name:     "default port added",
			url:      "ftp://ftp.cdc.noaa.gov/Datasets/noaa.oisst.v2.highres/sst.day.mean.2023.nc",
			wantHost: "ftp.cdc.noaa.gov:21",
			wantPath: "/Datasets/noaa.oisst.v2.highres/sst.day.mean.2023.nc",
		},
		{
			name:     "explicit port kept",
			url:      "ftp://mirror.example.org:2121/gebco/GEBCO_2023.nc",
			wantHost: "mirror.example.org:2121",
			wantPath: "/gebco/GEBCO_2023.nc",
		},
		{
			name:    "wrong scheme",
			url:     "https://example.com/file.nc",
			wantErr: true,
		},
		{
			name:    "empty path",
			url:     "ftp://example.com",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, path, err := parseFTPURL(tt.url)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPath, path)
		})
	}
}

func TestDownloadFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("netcdf-bytes")) //nolint:errcheck
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "bathy.nc")
	err := downloadFile(context.Background(), srv.Client(), srv.URL+"/bathy.nc", dest)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "netcdf-bytes", string(data))
}

func TestDownloadFile_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "missing.nc")
	err := downloadFile(context.Background(), srv.Client(), srv.URL, dest)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func writeTestZIP(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func TestExtractZIP_FlattensEntries(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "boundary.zip")
	writeTestZIP(t, zipPath, map[string]string{
		"nested/eez.shp": "shp-data",
		"nested/eez.dbf": "dbf-data",
		"nested/eez.prj": "GEOGCS[\"WGS 84\"]",
	})

	extractDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(extractDir, 0o755))
	require.NoError(t, extractZIP(zipPath, extractDir))

	shpPath, err := findFileByExt(extractDir, ".shp")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(extractDir, "eez.shp"), shpPath)

	data, err := os.ReadFile(filepath.Join(extractDir, "eez.dbf"))
	require.NoError(t, err)
	assert.Equal(t, "dbf-data", string(data))
}

func TestFindFileByExt_Missing(t *testing.T) {
	_, err := findFileByExt(t.TempDir(), ".shp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no .shp file")
}

func TestFetch_HTTPAndZip(t *testing.T) {
	var zipBuf bytes.Buffer
	zw := zip.NewWriter(&zipBuf)
	w, err := zw.Create("eez_east_coast.shp")
	require.NoError(t, err)
	_, err = w.Write([]byte("shapefile"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(zipBuf.Bytes()) //nolint:errcheck
	}))
	defer srv.Close()

	dataDir := t.TempDir()
	f := New(config.FetchConfig{TimeoutSecs: 5}, dataDir)
	f.httpClient = srv.Client()

	require.NoError(t, f.Fetch(context.Background(), "boundary", srv.URL+"/eez.zip"))

	_, err = os.Stat(filepath.Join(dataDir, "eez_east_coast.shp"))
	require.NoError(t, err)
}

func TestFetch_UnsupportedScheme(t *testing.T) {
	f := New(config.FetchConfig{}, t.TempDir())
	err := f.Fetch(context.Background(), "boundary", "gopher://example.com/eez.zip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported url scheme")
}

func TestFetchAll_SkipsEmptyURLs(t *testing.T) {
	f := New(config.FetchConfig{}, t.TempDir())
	require.NoError(t, f.FetchAll(context.Background(), config.FetchConfig{}))
}
