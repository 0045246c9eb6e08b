// Package safe maps remote objects to their places in an ESA .SAFE archive
// and finalizes the archive structure on disk after a download. It knows
// both the legacy and the compact naming scheme.
package safe

import (
	"path"

	"github.com/s2tools/safefetch/pkg/errors"
	"github.com/s2tools/safefetch/pkg/model"
)

// Placeholder directories every .SAFE archive contains even though no
// remote object is downloaded into them.
var placeholderDirs = []string{"HTML", "rep_info"}

// BuildPaths computes the destination path of every object and assembles
// them into a download plan rooted at rootFolder. Destinations are relative
// to the root and always start with "<PRODUCT_ID>.SAFE". A duplicate
// destination means the object list was constructed wrong and fails the
// whole plan.
func BuildPaths(objects []model.RemoteObject, rootFolder string) (*model.DownloadPlan, error) {
	if len(objects) == 0 {
		return nil, errors.ErrEmptyPlan
	}
	plan := model.NewDownloadPlan(rootFolder)
	for _, object := range objects {
		destination, err := destinationFor(object)
		if err != nil {
			return nil, err
		}
		if err := plan.AddTask(object, destination); err != nil {
			return nil, err
		}
		safeRoot := object.ProductID + ".SAFE"
		for _, dir := range placeholderDirs {
			plan.AddPlaceholderDir(path.Join(safeRoot, dir))
		}
	}
	return plan, nil
}

// destinationFor maps one remote object to its root-relative .SAFE path.
func destinationFor(object model.RemoteObject) (string, error) {
	safeRoot := object.ProductID + ".SAFE"
	granule := path.Join(safeRoot, "GRANULE", object.TileFolder)

	switch object.Role {
	case model.RoleProductInfo:
		return path.Join(safeRoot, "productInfo.json"), nil
	case model.RoleProductMetadata:
		return path.Join(safeRoot, productMetadataName(object.ProductID, object.Layout)), nil
	case model.RoleManifest:
		return path.Join(safeRoot, "manifest.safe"), nil
	case model.RoleInspire:
		return path.Join(safeRoot, "INSPIRE.xml"), nil
	case model.RoleTileInfo:
		return path.Join(granule, "tileInfo.json"), nil
	case model.RoleTileMetadata:
		return path.Join(granule, tileMetadataName(object.TileFolder, object.Layout)), nil
	case model.RoleBand:
		name, err := bandImageName(object.ProductID, object.TileFolder, object.Name, object.Layout)
		if err != nil {
			return "", err
		}
		return path.Join(granule, "IMG_DATA", name), nil
	case model.RoleTrueColor:
		name, err := bandImageName(object.ProductID, object.TileFolder, "TCI", object.Layout)
		if err != nil {
			return "", err
		}
		return path.Join(granule, "IMG_DATA", name), nil
	case model.RoleMask:
		name, err := maskName(object.TileFolder, object.Name, object.Layout)
		if err != nil {
			return "", err
		}
		return path.Join(granule, "QI_DATA", name), nil
	case model.RoleDatastripMetadata:
		return path.Join(safeRoot, "DATASTRIP", object.TileFolder,
			datastripMetadataName(object.TileFolder, object.Layout)), nil
	case model.RoleDatastripReport:
		return path.Join(safeRoot, "DATASTRIP", object.TileFolder, "QI_DATA", object.Name+".xml"), nil
	case model.RoleProductPreview:
		return path.Join(safeRoot, productPreviewName(object.ProductID)), nil
	case model.RoleAuxiliaryECMWF:
		// The remote key differs between layouts but the archive name is
		// always the canonical AUX_ECMWFT.
		return path.Join(granule, "AUX_DATA", "AUX_ECMWFT"), nil
	case model.RoleQualityReport:
		return path.Join(granule, "QI_DATA", object.Name+".xml"), nil
	case model.RolePreview:
		name, err := previewName(object.ProductID, object.TileFolder, object.Layout)
		if err != nil {
			return "", err
		}
		return path.Join(granule, "QI_DATA", name), nil
	}
	return "", errors.Wrapf(errors.ErrInvalidPath, "no layout rule for role %q", object.Role)
}
