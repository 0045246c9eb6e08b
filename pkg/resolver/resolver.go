// Package resolver turns a product or tile selector into the list of remote
// objects that make up the requested data. It consults the metadata catalog
// for product structure and derives for every object the source URL plus the
// naming facts the layout builder needs.
package resolver

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/s2tools/safefetch/internal/logger"
	"github.com/s2tools/safefetch/pkg/catalog"
	"github.com/s2tools/safefetch/pkg/errors"
	"github.com/s2tools/safefetch/pkg/model"
)

// Options control what a selector resolves to.
type Options struct {
	// Bands restricts which band rasters are included. Empty means all L1C
	// bands.
	Bands []string
	// EntireProduct expands a tile selector to the whole owning product.
	EntireProduct bool
	// MetadataOnly drops rasters so only the structural files remain.
	MetadataOnly bool
}

// Resolver resolves selectors against a metadata catalog.
type Resolver struct {
	catalog catalog.Catalog
	baseURL string
	bucket  string
}

// New creates a resolver that builds object URLs under the given metadata
// endpoint and bucket.
func New(cat catalog.Catalog, baseURL, bucket string) *Resolver {
	return &Resolver{
		catalog: cat,
		baseURL: baseURL,
		bucket:  bucket,
	}
}

// Resolve expands a selector into the remote objects it denotes. Structural
// files are always included; band rasters honor the band filter. The order
// of the returned objects is deterministic for a given catalog state.
func (r *Resolver) Resolve(ctx context.Context, sel model.Selector, opts Options) ([]model.RemoteObject, error) {
	bands, err := normalizeBands(opts.Bands)
	if err != nil {
		return nil, err
	}
	if opts.MetadataOnly {
		bands = nil
	}
	if sel.IsProduct() {
		return r.resolveProduct(ctx, sel.ProductID(), bands, !opts.MetadataOnly)
	}
	return r.resolveTile(ctx, sel, opts, bands)
}

func (r *Resolver) resolveProduct(ctx context.Context, productID string, bands []string, includeRasters bool) ([]model.RemoteObject, error) {
	info, err := r.catalog.ProductInfo(ctx, productID)
	if err != nil {
		return nil, err
	}
	layout, err := model.ProductLayout(productID)
	if err != nil {
		return nil, err
	}
	date, err := model.ProductSensingDate(productID)
	if err != nil {
		return nil, err
	}
	var datastripID string
	if len(info.Datastrips) > 0 {
		datastripID = info.Datastrips[0].ID
	}
	baseline, err := r.productBaseline(productID, layout, datastripID)
	if err != nil {
		return nil, err
	}

	productPath := catalog.ProductPath(productID, date)
	objects := []model.RemoteObject{
		r.productObject(productID, layout, model.RoleProductInfo, "productInfo.json", productPath+"/productInfo.json", true),
		r.productObject(productID, layout, model.RoleProductMetadata, "metadata.xml", productPath+"/metadata.xml", true),
		r.productObject(productID, layout, model.RoleManifest, "manifest.safe", productPath+"/manifest.safe", true),
		r.productObject(productID, layout, model.RoleInspire, "inspire.xml", productPath+"/inspire.xml", true),
	}

	// Legacy products carry a product-level browse image, except those built
	// with baseline 02.02.
	if includeRasters && layout == model.LayoutLegacy && baseline != "02.02" {
		objects = append(objects,
			r.productObject(productID, layout, model.RoleProductPreview, "preview.png", productPath+"/preview.png", false))
	}

	withReports, err := hasQualityReports(baseline, date)
	if err != nil {
		return nil, err
	}
	for _, ds := range info.Datastrips {
		dsObjects, err := r.datastripObjects(productID, layout, ds, withReports)
		if err != nil {
			return nil, err
		}
		objects = append(objects, dsObjects...)
	}

	for _, entry := range info.Tiles {
		name, tileDate, index, err := catalog.TileFromPath(entry.Path)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCatalogResponse, "product %s: %v", productID, err)
		}
		ref := catalog.TileRef{Name: name, Date: tileDate, Index: index}
		tileInfo, err := r.catalog.TileInfo(ctx, ref)
		if err != nil {
			return nil, err
		}
		tileObjects, err := r.tileObjects(ctx, productID, layout, baseline, ref, tileInfo, bands, includeRasters)
		if err != nil {
			return nil, err
		}
		objects = append(objects, tileObjects...)
	}
	return objects, nil
}

func (r *Resolver) resolveTile(ctx context.Context, sel model.Selector, opts Options, bands []string) ([]model.RemoteObject, error) {
	name, date := sel.Tile()
	indices, err := r.catalog.FindTileIndices(ctx, name, date)
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, errors.Wrapf(errors.ErrNotFound, "%s", sel.String())
	}

	infos := make([]*catalog.TileInfo, 0, len(indices))
	products := make([]string, 0, len(indices))
	for _, index := range indices {
		info, err := r.catalog.TileInfo(ctx, catalog.TileRef{Name: name, Date: date, Index: index})
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
		if !slices.Contains(products, info.ProductName) {
			products = append(products, info.ProductName)
		}
	}

	if opts.EntireProduct {
		if len(products) > 1 {
			return nil, errors.Wrapf(errors.ErrAmbiguousSelector,
				"%s matches %s", sel.String(), strings.Join(products, ", "))
		}
		return r.resolveProduct(ctx, products[0], bands, !opts.MetadataOnly)
	}

	if len(indices) > 1 {
		logger.Warn("tile and date match multiple acquisitions, taking the lowest index", logger.Fields{
			"tile":     sel.String(),
			"indices":  len(indices),
			"products": strings.Join(products, ", "),
		})
	}
	ref := catalog.TileRef{Name: name, Date: date, Index: indices[0]}
	info := infos[0]

	layout, err := model.ProductLayout(info.ProductName)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCatalogResponse, "tile %s names product %q: %v", sel.String(), info.ProductName, err)
	}
	baseline, err := r.productBaseline(info.ProductName, layout, info.Datastrip.ID)
	if err != nil {
		return nil, err
	}
	return r.tileObjects(ctx, info.ProductName, layout, baseline, ref, info, bands, !opts.MetadataOnly)
}

// datastripObjects lists the DATASTRIP subtree of one datastrip entry: its
// metadata document and, when the baseline ships them, the QI reports. The
// mirror stores datastrip reports under a "_report" suffix.
func (r *Resolver) datastripObjects(productID string, layout model.LayoutKind, ds catalog.Datastrip, withReports bool) ([]model.RemoteObject, error) {
	folder, err := datastripFolder(layout, ds.ID)
	if err != nil {
		return nil, err
	}
	objects := []model.RemoteObject{
		r.tileObject(productID, layout, folder, model.RoleDatastripMetadata, "metadata.xml", ds.Path+"/metadata.xml", true),
	}
	if withReports {
		for _, report := range qualityReports {
			objects = append(objects,
				r.tileObject(productID, layout, folder, model.RoleDatastripReport, report, ds.Path+"/qi/"+report+"_report.xml", false))
		}
	}
	return objects, nil
}

// tileObjects lists the objects of one tile occurrence: the info and
// metadata documents, the selected band rasters plus the true-color
// composite, the ECMWF auxiliary file, the QI reports and masks, and the
// preview image.
func (r *Resolver) tileObjects(ctx context.Context, productID string, layout model.LayoutKind, baseline string,
	ref catalog.TileRef, info *catalog.TileInfo, bands []string, includeRasters bool,
) ([]model.RemoteObject, error) {
	tileID, err := r.catalog.TileID(ctx, ref)
	if err != nil {
		return nil, err
	}
	folder, err := granuleFolder(layout, tileID, baseline, info.Datastrip.ID, info.Timestamp)
	if err != nil {
		return nil, err
	}
	tilePath := catalog.TilePath(ref.Name, ref.Date, ref.Index)

	objects := []model.RemoteObject{
		r.tileObject(productID, layout, folder, model.RoleTileInfo, "tileInfo.json", tilePath+"/tileInfo.json", true),
		r.tileObject(productID, layout, folder, model.RoleTileMetadata, "metadata.xml", tilePath+"/metadata.xml", true),
	}
	for _, band := range bands {
		objects = append(objects,
			r.tileObject(productID, layout, folder, model.RoleBand, band, tilePath+"/"+band+".jp2", true))
	}
	// Only compact products publish the true-color composite.
	if includeRasters && layout == model.LayoutCompact {
		objects = append(objects,
			r.tileObject(productID, layout, folder, model.RoleTrueColor, "TCI", tilePath+"/TCI.jp2", false))
	}

	// Baseline 02.04 L1C products were published without the ECMWF file.
	if baseline != "02.04" {
		key := "auxiliary/ECMWFT"
		if layout == model.LayoutCompact {
			key = "auxiliary/AUX_ECMWFT"
		}
		objects = append(objects,
			r.tileObject(productID, layout, folder, model.RoleAuxiliaryECMWF, "AUX_ECMWFT", tilePath+"/"+key, true))
	}

	withReports, err := hasQualityReports(baseline, ref.Date)
	if err != nil {
		return nil, err
	}
	if withReports {
		for _, report := range qualityReports {
			objects = append(objects,
				r.tileObject(productID, layout, folder, model.RoleQualityReport, report, tilePath+"/qi/"+report+".xml", false))
		}
	}

	if includeRasters {
		objects = append(objects,
			r.tileObject(productID, layout, folder, model.RoleMask, "CLOUDS_B00", tilePath+"/qi/MSK_CLOUDS_B00.gml", false))
		for _, kind := range qiMaskTypes {
			for _, band := range l1cBands {
				name := kind + "_" + band
				objects = append(objects,
					r.tileObject(productID, layout, folder, model.RoleMask, name, tilePath+"/qi/MSK_"+name+".gml", false))
			}
		}
		objects = append(objects,
			r.tileObject(productID, layout, folder, model.RolePreview, "preview.jpg", tilePath+"/preview.jpg", false))
	}
	return objects, nil
}

func (r *Resolver) productBaseline(productID string, layout model.LayoutKind, datastripID string) (string, error) {
	if layout == model.LayoutCompact {
		return model.CompactBaseline(productID)
	}
	return legacyBaseline(datastripID)
}

func (r *Resolver) productObject(productID string, layout model.LayoutKind, role model.Role, name, key string, required bool) model.RemoteObject {
	return model.RemoteObject{
		URL:       r.objectURL(key),
		ProductID: productID,
		Layout:    layout,
		Role:      role,
		Name:      name,
		Required:  required,
	}
}

func (r *Resolver) tileObject(productID string, layout model.LayoutKind, folder string, role model.Role, name, key string, required bool) model.RemoteObject {
	return model.RemoteObject{
		URL:        r.objectURL(key),
		ProductID:  productID,
		Layout:     layout,
		Role:       role,
		Name:       name,
		TileFolder: folder,
		Required:   required,
	}
}

func (r *Resolver) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", r.baseURL, r.bucket, key)
}
