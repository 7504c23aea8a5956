package fetcher

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bluewater-labs/aquasite-cli/internal/config"
)

// Fetcher downloads the configured source datasets into the local data
// directory using whichever transport each URL names.
type Fetcher struct {
	httpClient *http.Client
	ftp        *FTPFetcher
	dataDir    string
	log        *zap.Logger
}

// New creates a Fetcher writing into dataDir.
func New(cfg config.FetchConfig, dataDir string) *Fetcher {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		ftp:        NewFTPFetcher(FTPOptions{Timeout: timeout}),
		dataDir:    dataDir,
		log:        zap.L().With(zap.String("component", "fetcher")),
	}
}

// FetchAll downloads every configured dataset. URLs left empty are skipped.
func (f *Fetcher) FetchAll(ctx context.Context, cfg config.FetchConfig) error {
	if err := os.MkdirAll(f.dataDir, 0o755); err != nil {
		return eris.Wrap(err, "fetcher: create data dir")
	}

	for _, d := range []struct {
		name string
		url  string
	}{
		{"bathymetry", cfg.BathymetryURL},
		{"temperature", cfg.TemperatureURL},
		{"boundary", cfg.BoundaryURL},
	} {
		if d.url == "" {
			f.log.Debug("no url configured, skipping", zap.String("dataset", d.name))
			continue
		}
		if err := f.Fetch(ctx, d.name, d.url); err != nil {
			return eris.Wrapf(err, "fetcher: %s", d.name)
		}
	}
	return nil
}

// Fetch downloads one dataset URL into the data directory. ZIP archives
// (boundary shapefiles ship zipped) are extracted in place.
func (f *Fetcher) Fetch(ctx context.Context, name, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return eris.Wrap(err, "parse url")
	}

	dest := filepath.Join(f.dataDir, filepath.Base(u.Path))
	f.log.Info("downloading dataset",
		zap.String("dataset", name),
		zap.String("url", rawURL),
		zap.String("dest", dest),
	)

	switch u.Scheme {
	case "ftp":
		if _, err := f.ftp.DownloadToFile(ctx, rawURL, dest); err != nil {
			return err
		}
	case "http", "https":
		if err := downloadFile(ctx, f.httpClient, rawURL, dest); err != nil {
			return err
		}
	default:
		return eris.Errorf("unsupported url scheme %q", u.Scheme)
	}

	if strings.EqualFold(filepath.Ext(dest), ".zip") {
		if err := extractZIP(dest, f.dataDir); err != nil {
			return err
		}
		shpPath, err := findFileByExt(f.dataDir, ".shp")
		if err != nil {
			return err
		}
		f.log.Info("archive extracted", zap.String("shapefile", shpPath))
	}

	return nil
}
