package catalog

import (
	"context"
	"encoding/json"
	"encoding/xml"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/s2tools/safefetch/pkg/errors"
	"github.com/s2tools/safefetch/pkg/model"
)

// Transport tuning for the metadata mirror. Lookups are many small GETs
// against a single host, so connection reuse matters more than raw
// parallelism.
const (
	maxIdleConns        = 100
	maxIdleConnsPerHost = 20
	idleConnTimeout     = 30 * time.Second
)

// maxTileIndexScan bounds the sequential index scan; more than a handful
// of acquisitions of one tile on one day does not occur in the archive.
const maxTileIndexScan = 10

// HTTPCatalog looks up product and tile metadata over plain HTTPS GETs
// against the public mirror.
type HTTPCatalog struct {
	client    *http.Client
	baseURL   string
	bucket    string
	userAgent string
}

// Options configure an HTTPCatalog.
type Options struct {
	BaseURL   string
	Bucket    string
	Timeout   time.Duration
	UserAgent string
}

// NewHTTPCatalog creates a catalog client for the given metadata endpoint.
func NewHTTPCatalog(opts Options) *HTTPCatalog {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConnsPerHost,
		IdleConnTimeout:     idleConnTimeout,
	}
	_ = http2.ConfigureTransport(transport)

	return &HTTPCatalog{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		baseURL:   opts.BaseURL,
		bucket:    opts.Bucket,
		userAgent: opts.UserAgent,
	}
}

// ObjectURL returns the absolute metadata-mirror URL for a bucket-relative
// key.
func (c *HTTPCatalog) ObjectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, c.bucket, key)
}

// ProductInfo fetches and decodes productInfo.json for the given product.
func (c *HTTPCatalog) ProductInfo(ctx context.Context, productID string) (*ProductInfo, error) {
	date, err := model.ProductSensingDate(productID)
	if err != nil {
		return nil, err
	}
	url := c.ObjectURL(ProductPath(productID, date) + "/productInfo.json")

	var info ProductInfo
	if err := c.getJSON(ctx, url, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// TileInfo fetches and decodes tileInfo.json for the given tile occurrence.
func (c *HTTPCatalog) TileInfo(ctx context.Context, ref TileRef) (*TileInfo, error) {
	url := c.ObjectURL(TilePath(ref.Name, ref.Date, ref.Index) + "/tileInfo.json")

	var info TileInfo
	if err := c.getJSON(ctx, url, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// FindTileIndices walks ascending storage indices of a tile/date pair until
// the first missing one. The archive assigns indices densely from zero, so
// the scan is complete.
func (c *HTTPCatalog) FindTileIndices(ctx context.Context, name string, date time.Time) ([]int, error) {
	var indices []int
	for index := 0; index < maxTileIndexScan; index++ {
		_, err := c.TileInfo(ctx, TileRef{Name: name, Date: date, Index: index})
		if stderrors.Is(err, errors.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		indices = append(indices, index)
	}
	return indices, nil
}

// TileID fetches the tile metadata XML and extracts the TILE_ID element.
// Early L2A products store it as TILE_ID_2A; both spellings are accepted.
func (c *HTTPCatalog) TileID(ctx context.Context, ref TileRef) (string, error) {
	url := c.ObjectURL(TilePath(ref.Name, ref.Date, ref.Index) + "/metadata.xml")

	body, err := c.get(ctx, url, "application/xml")
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	decoder := xml.NewDecoder(body)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrapf(errors.ErrCatalogResponse, "cannot decode %s: %v", url, err)
		}
		start, ok := token.(xml.StartElement)
		if !ok || (start.Name.Local != "TILE_ID" && start.Name.Local != "TILE_ID_2A") {
			continue
		}
		var tileID string
		if err := decoder.DecodeElement(&tileID, &start); err != nil {
			return "", errors.Wrapf(errors.ErrCatalogResponse, "cannot decode %s: %v", url, err)
		}
		return strings.TrimSpace(tileID), nil
	}
	return "", errors.Wrapf(errors.ErrCatalogResponse, "no TILE_ID element in %s", url)
}

func (c *HTTPCatalog) get(ctx context.Context, url, accept string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "metadata request to %s failed", url)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		_ = resp.Body.Close()
		return nil, errors.Wrapf(errors.ErrNotFound, "%s", url)
	case resp.StatusCode != http.StatusOK:
		_ = resp.Body.Close()
		return nil, errors.Wrapf(errors.ErrCatalogResponse, "unexpected status %d from %s", resp.StatusCode, url)
	}
	return resp.Body, nil
}

func (c *HTTPCatalog) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "metadata request to %s failed", url)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.Wrapf(errors.ErrNotFound, "%s", url)
	case resp.StatusCode != http.StatusOK:
		return errors.Wrapf(errors.ErrCatalogResponse, "unexpected status %d from %s", resp.StatusCode, url)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(errors.ErrCatalogResponse, "cannot decode %s: %v", url, err)
	}
	return nil
}
