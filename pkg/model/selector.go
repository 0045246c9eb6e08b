package model

import (
	"strings"
	"time"

	"github.com/s2tools/safefetch/pkg/errors"
)

// Selector identifies the data a caller wants: either a full product by its
// ESA ID or a single tile by name and sensing date. Exactly one of the two
// forms is set; dispatch happens once at resolution entry.
type Selector struct {
	productID string
	tileName  string
	date      time.Time
}

// NewProductSelector builds a selector from an ESA product identification
// string, e.g. "S2A_MSIL1C_20170414T003551_N0204_R016_T54HVH_20170414T003551".
// A trailing ".SAFE" suffix is tolerated and stripped.
func NewProductSelector(productID string) (Selector, error) {
	productID = strings.TrimSuffix(strings.TrimSpace(productID), ".SAFE")
	if _, err := ProductLayout(productID); err != nil {
		return Selector{}, err
	}
	return Selector{productID: productID}, nil
}

// NewTileSelector builds a selector from a tile name (e.g. "T54HVH") and a
// sensing date in ISO8601 date form (e.g. "2017-04-14").
func NewTileSelector(tileName, date string) (Selector, error) {
	name, err := NormalizeTileName(tileName)
	if err != nil {
		return Selector{}, err
	}
	parsed, err := time.Parse("2006-01-02", date)
	if err != nil {
		return Selector{}, errors.Wrapf(errors.ErrInvalidTileName, "cannot parse date %q", date)
	}
	return Selector{tileName: name, date: parsed}, nil
}

// IsProduct reports whether the selector names a full product.
func (s Selector) IsProduct() bool { return s.productID != "" }

// ProductID returns the product ID of a product selector, or "" for a tile
// selector.
func (s Selector) ProductID() string { return s.productID }

// Tile returns the normalized tile name and sensing date of a tile selector.
func (s Selector) Tile() (string, time.Time) { return s.tileName, s.date }

// String renders the selector for logs and error messages.
func (s Selector) String() string {
	if s.IsProduct() {
		return s.productID
	}
	return "T" + s.tileName + " " + s.date.Format("2006-01-02")
}

// NormalizeTileName parses and verifies a tile name. Leading "T" and zeros
// are stripped; 4-character names gain a leading zero so every valid name
// is exactly 5 characters (e.g. "T01ABC" -> "01ABC", "9XYZ" -> "09XYZ").
func NormalizeTileName(name string) (string, error) {
	tileName := strings.TrimLeft(strings.TrimSpace(name), "T0")
	if len(tileName) == 4 {
		tileName = "0" + tileName
	}
	if len(tileName) != 5 {
		return "", errors.Wrapf(errors.ErrInvalidTileName, "%q", name)
	}
	return tileName, nil
}

// ProductLayout classifies a product ID as legacy or compact from its type
// field. MSI* products use the compact layout, OPER and USER products the
// legacy one.
func ProductLayout(productID string) (LayoutKind, error) {
	parts := strings.Split(productID, "_")
	if len(parts) < 2 {
		return "", errors.Wrapf(errors.ErrInvalidProductID, "%q", productID)
	}
	productType := parts[1]
	switch {
	case strings.HasPrefix(productType, "MSI"):
		return LayoutCompact, nil
	case productType == "OPER" || productType == "USER":
		return LayoutLegacy, nil
	}
	return "", errors.Wrapf(errors.ErrInvalidProductID, "unrecognized product type of %q", productID)
}

// CompactBaseline extracts the processing baseline from a compact product ID
// in "NN.NN" form, e.g. "..._N0204_..." -> "02.04".
func CompactBaseline(productID string) (string, error) {
	parts := strings.Split(productID, "_")
	if len(parts) < 4 {
		return "", errors.Wrapf(errors.ErrInvalidProductID, "%q", productID)
	}
	baseline := strings.TrimPrefix(parts[3], "N")
	if len(baseline) != 4 {
		return "", errors.Wrapf(errors.ErrInvalidProductID, "unable to recognize baseline number in %q", productID)
	}
	return baseline[:2] + "." + baseline[2:], nil
}

// ProductSensingDate extracts the sensing date encoded in a product ID.
func ProductSensingDate(productID string) (time.Time, error) {
	layout, err := ProductLayout(productID)
	if err != nil {
		return time.Time{}, err
	}
	parts := strings.Split(productID, "_")
	var raw string
	if layout == LayoutLegacy {
		// e.g. ..._V20160103T171947_20160103T171947 -> second to last field
		if len(parts) < 2 {
			return time.Time{}, errors.Wrapf(errors.ErrInvalidProductID, "%q", productID)
		}
		raw = strings.TrimPrefix(parts[len(parts)-2], "V")
	} else {
		if len(parts) < 3 {
			return time.Time{}, errors.Wrapf(errors.ErrInvalidProductID, "%q", productID)
		}
		raw = parts[2]
	}
	if len(raw) < 8 {
		return time.Time{}, errors.Wrapf(errors.ErrInvalidProductID, "no sensing date in %q", productID)
	}
	date, err := time.Parse("20060102", raw[:8])
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrInvalidProductID, "bad sensing date in %q", productID)
	}
	return date, nil
}
