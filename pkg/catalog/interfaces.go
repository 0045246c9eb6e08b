//go:generate mockgen -destination=./mocks/catalog.go -package=mocks . Catalog

// Package catalog talks to the public metadata mirror of the Sentinel-2
// archive. It resolves product and tile identifiers to the JSON info files
// that describe where the actual data objects live in the flat bucket
// layout.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// TileRef addresses one tile occurrence in the archive. Tile name and date
// alone are not unique; Index disambiguates multiple acquisitions of the
// same tile on the same day.
type TileRef struct {
	Name  string
	Date  time.Time
	Index int
}

// Datastrip is a datastrip entry of a product info file.
type Datastrip struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// TileEntry is a tile entry of a product info file.
type TileEntry struct {
	Path         string    `json:"path"`
	UTMZone      int       `json:"utmZone"`
	LatitudeBand string    `json:"latitudeBand"`
	GridSquare   string    `json:"gridSquare"`
	Datastrip    Datastrip `json:"datastrip"`
}

// ProductInfo is the productInfo.json document of one product.
type ProductInfo struct {
	Name       string      `json:"name"`
	ID         string      `json:"id"`
	Path       string      `json:"path"`
	Timestamp  string      `json:"timestamp"`
	Tiles      []TileEntry `json:"tiles"`
	Datastrips []Datastrip `json:"datastrips"`
}

// TileInfo is the tileInfo.json document of one tile occurrence.
type TileInfo struct {
	Path        string    `json:"path"`
	Timestamp   string    `json:"timestamp"`
	ProductName string    `json:"productName"`
	ProductPath string    `json:"productPath"`
	Datastrip   Datastrip `json:"datastrip"`
}

// Catalog is the metadata lookup surface the resolver depends on.
type Catalog interface {
	// ProductInfo fetches the product info document for a product ID.
	ProductInfo(ctx context.Context, productID string) (*ProductInfo, error)
	// TileInfo fetches the tile info document for a tile occurrence.
	TileInfo(ctx context.Context, ref TileRef) (*TileInfo, error)
	// FindTileIndices lists the storage indices present for a tile name and
	// date, in ascending order. An empty result means the tile is unknown.
	FindTileIndices(ctx context.Context, name string, date time.Time) ([]int, error)
	// TileID reads the ESA tile identifier from the tile metadata document,
	// e.g. "S2A_OPER_MSI_L1C_TL_MTI__20170414T060811_A009451_T54HVH_N02.04".
	TileID(ctx context.Context, ref TileRef) (string, error)
}

// ProductPath returns the bucket-relative path of a product directory,
// e.g. "products/2017/4/14/S2A_MSIL1C_...". Month and day carry no leading
// zeros in the archive layout.
func ProductPath(productID string, date time.Time) string {
	return fmt.Sprintf("products/%d/%d/%d/%s", date.Year(), int(date.Month()), date.Day(), productID)
}

// TilePath returns the bucket-relative path of a tile directory,
// e.g. "tiles/54/H/VH/2017/4/14/0" for tile "54HVH".
func TilePath(name string, date time.Time, index int) string {
	utm := strings.TrimLeft(name[0:2], "0")
	return fmt.Sprintf("tiles/%s/%s/%s/%d/%d/%d/%d",
		utm, name[2:3], name[3:5], date.Year(), int(date.Month()), date.Day(), index)
}

// TileFromPath extracts tile name, date and storage index from a tile path
// like "tiles/54/H/VH/2017/4/14/0".
func TileFromPath(path string) (string, time.Time, int, error) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) < 8 {
		return "", time.Time{}, 0, fmt.Errorf("malformed tile path %q", path)
	}
	parts = parts[len(parts)-7:]
	utm := parts[0]
	if len(utm) == 1 {
		utm = "0" + utm
	}
	name := utm + parts[1] + parts[2]

	var year, month, day, index int
	if _, err := fmt.Sscanf(strings.Join(parts[3:], "/"), "%d/%d/%d/%d", &year, &month, &day, &index); err != nil {
		return "", time.Time{}, 0, fmt.Errorf("malformed tile path %q: %w", path, err)
	}
	return name, time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), index, nil
}
