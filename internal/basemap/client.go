// Package basemap fetches and stitches XYZ raster tiles into a background
// image for the analysis extent.
package basemap

import (
	"bytes"
	"context"
	"image"
	"image/draw"
	// Tiles arrive as PNG or JPEG depending on the upstream source.
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Client fetches basemap raster tiles from an upstream XYZ tile server.
type Client struct {
	urlTemplate string
	userAgent   string
	client      *http.Client
	limiter     *rate.Limiter
}

// NewClient creates a basemap tile client. urlTemplate must contain {z},
// {x}, and {y} placeholders. ratePerSec throttles tile requests, as public
// tile servers require.
func NewClient(urlTemplate, userAgent string, timeout time.Duration, ratePerSec float64) *Client {
	if ratePerSec <= 0 {
		ratePerSec = 2
	}
	return &Client{
		urlTemplate: urlTemplate,
		userAgent:   userAgent,
		client:      &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(rate.Limit(ratePerSec), 1),
	}
}

// Mosaic is a stitched basemap image with enough georeference to place
// lon/lat points on it.
type Mosaic struct {
	Image *image.RGBA
	Range TileRange
}

// PixelAt maps a lon/lat to pixel coordinates inside the mosaic. Points
// outside the stitched area map outside the image dimensions.
func (m *Mosaic) PixelAt(lon, lat float64) (px, py float64) {
	x, y := tileAt(lon, clampLat(lat), m.Range.Zoom)
	px = (x - float64(m.Range.MinX)) * TileSize
	py = (y - float64(m.Range.MinY)) * TileSize
	return px, py
}

// FetchExtent fetches every tile covering the lon/lat bounding box at the
// given zoom and stitches them into a single image. Any failed tile fails
// the whole fetch.
func (c *Client) FetchExtent(ctx context.Context, minLon, minLat, maxLon, maxLat float64, zoom int) (*Mosaic, error) {
	tr := RangeForExtent(minLon, minLat, maxLon, maxLat, zoom)
	zap.L().Debug("basemap: fetching extent",
		zap.Int("zoom", zoom),
		zap.Int("tiles", tr.Count()),
	)

	out := image.NewRGBA(image.Rect(0, 0, tr.Cols()*TileSize, tr.Rows()*TileSize))
	for ty := tr.MinY; ty <= tr.MaxY; ty++ {
		for tx := tr.MinX; tx <= tr.MaxX; tx++ {
			img, err := c.fetchTile(ctx, zoom, tx, ty)
			if err != nil {
				return nil, err
			}
			origin := image.Pt((tx-tr.MinX)*TileSize, (ty-tr.MinY)*TileSize)
			draw.Draw(out, image.Rectangle{Min: origin, Max: origin.Add(image.Pt(TileSize, TileSize))},
				img, img.Bounds().Min, draw.Src)
		}
	}
	return &Mosaic{Image: out, Range: tr}, nil
}

// fetchTile retrieves and decodes one tile, waiting on the rate limiter
// first.
func (c *Client) fetchTile(ctx context.Context, z, x, y int) (image.Image, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "basemap: rate limiter")
	}

	url := c.tileURL(z, x, y)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "basemap: create tile request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "basemap: fetch tile")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("basemap: upstream returned %d for %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "basemap: read tile body")
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, eris.Wrapf(err, "basemap: decode tile %s", url)
	}
	return img, nil
}

func (c *Client) tileURL(z, x, y int) string {
	r := strings.NewReplacer(
		"{z}", strconv.Itoa(z),
		"{x}", strconv.Itoa(x),
		"{y}", strconv.Itoa(y),
	)
	return r.Replace(c.urlTemplate)
}
