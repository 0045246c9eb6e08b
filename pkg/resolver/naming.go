package resolver

import (
	"strings"
	"time"

	"github.com/hashicorp/go-version"

	"github.com/s2tools/safefetch/pkg/errors"
	"github.com/s2tools/safefetch/pkg/model"
)

// l1cBands is the full Sentinel-2 L1C band list in spectral order.
var l1cBands = []string{
	"B01", "B02", "B03", "B04", "B05", "B06", "B07",
	"B08", "B8A", "B09", "B10", "B11", "B12",
}

// qualityReports are the per-granule QI report names. Some products are
// known to lack them, so the corresponding objects are never required.
var qualityReports = []string{
	"FORMAT_CORRECTNESS",
	"GENERAL_QUALITY",
	"GEOMETRIC_QUALITY",
	"SENSOR_QUALITY",
}

// qiMaskTypes are the per-band quality mask kinds published as GML vector
// files next to the rasters.
var qiMaskTypes = []string{"DEFECT", "DETFOO", "NODATA", "SATURA", "TECQUA"}

// reportsSinceDate is the sensing date from which baseline 02.05 products
// carry quality reports.
var reportsSinceDate = time.Date(2017, 10, 12, 0, 0, 0, 0, time.UTC)

// normalizeBands validates a band selection against the L1C band list and
// returns it in canonical upper-case form. An empty selection means all
// bands.
func normalizeBands(bands []string) ([]string, error) {
	if len(bands) == 0 {
		return l1cBands, nil
	}
	known := make(map[string]struct{}, len(l1cBands))
	for _, band := range l1cBands {
		known[band] = struct{}{}
	}
	normalized := make([]string, 0, len(bands))
	for _, band := range bands {
		name := strings.ToUpper(strings.TrimSpace(band))
		if _, ok := known[name]; !ok {
			return nil, errors.Wrapf(errors.ErrUnknownBand, "%q", band)
		}
		normalized = append(normalized, name)
	}
	return normalized, nil
}

// legacyBaseline extracts the processing baseline from a datastrip ID, e.g.
// "S2A_OPER_MSI_L1C_DS_MTI__20170414T060811_S20170414T003551_N02.04"
// yields "02.04". Legacy product IDs do not carry the baseline themselves.
func legacyBaseline(datastripID string) (string, error) {
	if len(datastripID) < 5 {
		return "", errors.Wrapf(errors.ErrInvalidProductID, "no baseline in datastrip %q", datastripID)
	}
	return datastripID[len(datastripID)-5:], nil
}

// baselineAtLeast reports whether the baseline is greater than or equal to
// the given threshold, both in "NN.NN" form.
func baselineAtLeast(baseline, threshold string) (bool, error) {
	have, err := version.NewVersion(baseline)
	if err != nil {
		return false, errors.Wrapf(errors.ErrInvalidProductID, "bad baseline %q", baseline)
	}
	want, err := version.NewVersion(threshold)
	if err != nil {
		return false, err
	}
	return have.GreaterThanOrEqual(want), nil
}

// hasQualityReports reports whether a product of the given baseline and
// sensing date ships QI report files. ESA added them with baseline 02.05
// part way through its lifetime, so that baseline needs the date check.
func hasQualityReports(baseline string, sensingDate time.Time) (bool, error) {
	have, err := version.NewVersion(baseline)
	if err != nil {
		return false, errors.Wrapf(errors.ErrInvalidProductID, "bad baseline %q", baseline)
	}
	threshold := version.Must(version.NewVersion("02.05"))
	if have.GreaterThan(threshold) {
		return true, nil
	}
	if have.Equal(threshold) {
		return !sensingDate.Before(reportsSinceDate), nil
	}
	return false, nil
}

// datastripFolder derives the DATASTRIP subfolder name from a datastrip ID.
// Legacy products use the raw ID, compact products keep only the middle
// fields, e.g. "S2A_OPER_MSI_L1C_DS_MTI__20170414T060811_S20170414T003551_N02.04"
// yields "DS_MTI__20170414T060811_S20170414T003551".
func datastripFolder(layout model.LayoutKind, datastripID string) (string, error) {
	if layout == model.LayoutLegacy {
		return datastripID, nil
	}
	parts := strings.Split(datastripID, "_")
	if len(parts) < 6 {
		return "", errors.Wrapf(errors.ErrCatalogResponse, "malformed datastrip ID %q", datastripID)
	}
	return strings.Join(parts[4:len(parts)-1], "_"), nil
}

// granuleFolder derives the GRANULE subfolder name of a tile. Legacy
// products use the raw tile ID. Compact products join the processing level,
// tile name and absolute orbit from the tile ID with a timestamp whose
// source changed with baseline 02.07.
func granuleFolder(layout model.LayoutKind, tileID, baseline, datastripID, tileTimestamp string) (string, error) {
	if layout == model.LayoutLegacy {
		return tileID, nil
	}
	parts := strings.Split(tileID, "_")
	if len(parts) < 6 {
		return "", errors.Wrapf(errors.ErrInvalidProductID, "malformed tile ID %q", tileID)
	}
	useDatastrip, err := baselineAtLeast(baseline, "02.07")
	if err != nil {
		return "", err
	}
	var stamp string
	if useDatastrip {
		stamp, err = datastripTime(datastripID)
	} else {
		stamp, err = sensingTime(tileTimestamp)
	}
	if err != nil {
		return "", err
	}
	return strings.Join([]string{parts[3], parts[len(parts)-2], parts[len(parts)-3], stamp}, "_"), nil
}

// datastripTime extracts the "20170414T003551" style timestamp from a
// datastrip ID. The ID carries a doubled underscore before the processing
// time, which is collapsed before splitting.
func datastripTime(datastripID string) (string, error) {
	parts := strings.Split(strings.ReplaceAll(datastripID, "__", "_"), "_")
	if len(parts) < 8 {
		return "", errors.Wrapf(errors.ErrInvalidProductID, "malformed datastrip ID %q", datastripID)
	}
	return strings.TrimPrefix(parts[7], "S"), nil
}

// sensingTime converts a tile info timestamp like "2017-04-14T00:35:51.456Z"
// to the compact "20170414T003551" form used in folder names.
func sensingTime(timestamp string) (string, error) {
	stamp, _, _ := strings.Cut(timestamp, ".")
	stamp = strings.TrimSuffix(stamp, "Z")
	stamp = strings.ReplaceAll(strings.ReplaceAll(stamp, "-", ""), ":", "")
	if len(stamp) != len("20170414T003551") {
		return "", errors.Wrapf(errors.ErrCatalogResponse, "malformed tile timestamp %q", timestamp)
	}
	return stamp, nil
}
