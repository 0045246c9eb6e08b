package safe

import (
	"strings"

	"github.com/s2tools/safefetch/pkg/errors"
	"github.com/s2tools/safefetch/pkg/model"
)

// editName rewrites an ESA identifier by replacing its third field with
// code, optionally replacing the fourth field and dropping the last one.
// This is how legacy .SAFE file names are derived from product and tile IDs.
func editName(name, code, addCode string, deleteEnd bool) string {
	parts := strings.Split(name, "_")
	if len(parts) > 2 {
		parts[2] = code
	}
	if addCode != "" && len(parts) > 3 {
		parts[3] = addCode
	}
	if deleteEnd && len(parts) > 0 {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, "_")
}

// datatake extracts the datatake sensing time from a compact product ID,
// e.g. "S2A_MSIL1C_20170414T003551_N0204_..." yields "20170414T003551".
func datatake(productID string) (string, error) {
	parts := strings.Split(productID, "_")
	if len(parts) < 3 {
		return "", errors.Wrapf(errors.ErrInvalidProductID, "%q", productID)
	}
	return parts[2], nil
}

// compactTileName extracts the "T54HVH" style tile name from a compact
// granule folder like "L1C_T54HVH_A009451_20170414T003551".
func compactTileName(folder string) (string, error) {
	parts := strings.Split(folder, "_")
	if len(parts) < 2 || !strings.HasPrefix(parts[1], "T") {
		return "", errors.Wrapf(errors.ErrInvalidPath, "malformed granule folder %q", folder)
	}
	return parts[1], nil
}

// productMetadataName returns the .SAFE file name of the product metadata.
func productMetadataName(productID string, layout model.LayoutKind) string {
	if layout == model.LayoutCompact {
		return "MTD_MSIL1C.xml"
	}
	return editName(productID, "MTD", "SAFL1C", false) + ".xml"
}

// tileMetadataName returns the .SAFE file name of the tile metadata. Legacy
// granule folders are the raw tile ID, which the name is derived from.
func tileMetadataName(folder string, layout model.LayoutKind) string {
	if layout == model.LayoutCompact {
		return "MTD_TL.xml"
	}
	return editName(folder, "MTD", "", true) + ".xml"
}

// bandImageName returns the IMG_DATA file name of a band raster.
func bandImageName(productID, folder, band string, layout model.LayoutKind) (string, error) {
	if layout == model.LayoutLegacy {
		base := folder
		if i := strings.LastIndex(base, "_"); i >= 0 {
			base = base[:i]
		}
		return base + "_" + band + ".jp2", nil
	}
	tile, err := compactTileName(folder)
	if err != nil {
		return "", err
	}
	take, err := datatake(productID)
	if err != nil {
		return "", err
	}
	return tile + "_" + take + "_" + band + ".jp2", nil
}

// maskName returns the QI_DATA file name of a quality mask. The logical
// name pairs the mask kind with a band, e.g. "CLOUDS_B00" or "DETFOO_B8A".
func maskName(folder, name string, layout model.LayoutKind) (string, error) {
	if layout == model.LayoutCompact {
		return "MSK_" + name + ".gml", nil
	}
	kind, band, ok := strings.Cut(name, "_")
	if !ok {
		return "", errors.Wrapf(errors.ErrInvalidPath, "malformed mask name %q", name)
	}
	base := editName(folder, "MSK", "", true)
	return strings.Replace(base, "L1C_TL", kind, 1) + "_" + band + "_MSIL1C.gml", nil
}

// datastripMetadataName returns the metadata file name inside a DATASTRIP
// subfolder. Legacy datastrip folders are the raw datastrip ID, which the
// name is derived from.
func datastripMetadataName(folder string, layout model.LayoutKind) string {
	if layout == model.LayoutCompact {
		return "MTD_DS.xml"
	}
	return editName(folder, "MTD", "", true) + ".xml"
}

// productPreviewName returns the name of the product-level browse image
// that only legacy products carry.
func productPreviewName(productID string) string {
	return editName(productID, "BWI", "", false) + ".png"
}

// previewName returns the QI_DATA file name of the preview image.
func previewName(productID, folder string, layout model.LayoutKind) (string, error) {
	if layout == model.LayoutLegacy {
		return editName(folder, "PVI", "", true) + ".jp2", nil
	}
	tile, err := compactTileName(folder)
	if err != nil {
		return "", err
	}
	take, err := datatake(productID)
	if err != nil {
		return "", err
	}
	return tile + "_" + take + "_PVI.jp2", nil
}
