package resolver

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/s2tools/safefetch/pkg/catalog"
	"github.com/s2tools/safefetch/pkg/catalog/mocks"
	"github.com/s2tools/safefetch/pkg/errors"
	"github.com/s2tools/safefetch/pkg/model"
)

const (
	testBaseURL = "https://metadata.test"
	testBucket  = "sentinel-s2-l1c"

	compactProductID = "S2A_MSIL1C_20170414T003551_N0204_R016_T54HVH_20170414T003551"
	compactTileID    = "S2A_OPER_MSI_L1C_TL_MTI__20170414T060811_A009451_T54HVH_N02.04"
	compactDatastrip = "S2A_OPER_MSI_L1C_DS_MTI__20170414T060811_S20170414T003551_N02.04"

	newerProductID = "S2B_MSIL1C_20180402T101019_N0207_R022_T33UUU_20180402T121101"
	newerTileID    = "S2B_OPER_MSI_L1C_TL_MTI__20180402T121101_A005577_T33UUU_N02.07"
	newerDatastrip = "S2B_OPER_MSI_L1C_DS_MTI__20180402T121101_S20180402T101021_N02.07"

	legacyProductID = "S2A_OPER_PRD_MSIL1C_PDMC_20160121T043931_R069_V20160103T171947_20160103T171947"
	legacyTileID    = "S2A_OPER_MSI_L1C_TL_MTI__20160103T201002_A002815_T54HVH_N02.01"
	legacyDatastrip = "S2A_OPER_MSI_L1C_DS_MTI__20160103T201002_S20160103T171947_N02.01"

	compactDatastripPath = "products/2017/4/14/" + compactProductID + "/datastrip/0"
	newerDatastripPath   = "products/2018/4/2/" + newerProductID + "/datastrip/0"
	legacyDatastripPath  = "products/2016/1/3/" + legacyProductID + "/datastrip/0"
)

func newTestResolver(t *testing.T) (*Resolver, *mocks.MockCatalog) {
	t.Helper()
	ctrl := gomock.NewController(t)
	cat := mocks.NewMockCatalog(ctrl)
	return New(cat, testBaseURL, testBucket), cat
}

func objectURLs(objects []model.RemoteObject) []string {
	urls := make([]string, 0, len(objects))
	for _, object := range objects {
		urls = append(urls, object.URL)
	}
	return urls
}

func objectsByRole(objects []model.RemoteObject, role model.Role) []model.RemoteObject {
	var matched []model.RemoteObject
	for _, object := range objects {
		if object.Role == role {
			matched = append(matched, object)
		}
	}
	return matched
}

// withoutMasks drops the per-band quality masks, which would otherwise bury
// the interesting objects in exact-list assertions.
func withoutMasks(objects []model.RemoteObject) []model.RemoteObject {
	var kept []model.RemoteObject
	for _, object := range objects {
		if object.Role != model.RoleMask {
			kept = append(kept, object)
		}
	}
	return kept
}

func TestResolve_CompactProduct(t *testing.T) {
	r, cat := newTestResolver(t)
	tileRef := catalog.TileRef{Name: "54HVH", Date: time.Date(2017, 4, 14, 0, 0, 0, 0, time.UTC)}

	cat.EXPECT().ProductInfo(gomock.Any(), compactProductID).Return(&catalog.ProductInfo{
		Name:       compactProductID,
		Tiles:      []catalog.TileEntry{{Path: "tiles/54/H/VH/2017/4/14/0", Datastrip: catalog.Datastrip{ID: compactDatastrip}}},
		Datastrips: []catalog.Datastrip{{ID: compactDatastrip, Path: compactDatastripPath}},
	}, nil)
	cat.EXPECT().TileInfo(gomock.Any(), tileRef).Return(&catalog.TileInfo{
		ProductName: compactProductID,
		Timestamp:   "2017-04-14T00:35:51.456Z",
		Datastrip:   catalog.Datastrip{ID: compactDatastrip},
	}, nil)
	cat.EXPECT().TileID(gomock.Any(), tileRef).Return(compactTileID, nil)

	sel, err := model.NewProductSelector(compactProductID)
	require.NoError(t, err)

	objects, err := r.Resolve(context.Background(), sel, Options{Bands: []string{"B08", "B11"}})

	require.NoError(t, err)
	productBase := testBaseURL + "/" + testBucket + "/products/2017/4/14/" + compactProductID
	tileBase := testBaseURL + "/" + testBucket + "/tiles/54/H/VH/2017/4/14/0"
	assert.Equal(t, []string{
		productBase + "/productInfo.json",
		productBase + "/metadata.xml",
		productBase + "/manifest.safe",
		productBase + "/inspire.xml",
		productBase + "/datastrip/0/metadata.xml",
		tileBase + "/tileInfo.json",
		tileBase + "/metadata.xml",
		tileBase + "/B08.jp2",
		tileBase + "/B11.jp2",
		tileBase + "/TCI.jp2",
		tileBase + "/preview.jpg",
	}, objectURLs(withoutMasks(objects)))

	// One CLOUDS mask plus five mask kinds for each of the 13 bands.
	masks := objectsByRole(objects, model.RoleMask)
	require.Len(t, masks, 66)
	assert.Equal(t, tileBase+"/qi/MSK_CLOUDS_B00.gml", masks[0].URL)
	assert.Equal(t, "CLOUDS_B00", masks[0].Name)
	for _, mask := range masks {
		assert.False(t, mask.Required)
	}

	// Baseline 02.04 predates the datastrip naming switch, so the granule
	// folder carries the tile sensing time.
	for _, object := range objects {
		assert.Equal(t, compactProductID, object.ProductID)
		assert.Equal(t, model.LayoutCompact, object.Layout)
		switch object.Role {
		case model.RoleDatastripMetadata, model.RoleDatastripReport:
			assert.Equal(t, "DS_MTI__20170414T060811_S20170414T003551", object.TileFolder)
		default:
			if object.TileFolder != "" {
				assert.Equal(t, "L1C_T54HVH_A009451_20170414T003551", object.TileFolder)
			}
		}
	}
	assert.Empty(t, objectsByRole(objects, model.RoleAuxiliaryECMWF), "baseline 02.04 has no ECMWF file")
	assert.Empty(t, objectsByRole(objects, model.RoleQualityReport))
	assert.Empty(t, objectsByRole(objects, model.RoleDatastripReport))
	assert.Empty(t, objectsByRole(objects, model.RoleProductPreview), "only legacy products have a browse image")
	assert.False(t, objectsByRole(objects, model.RolePreview)[0].Required)
	assert.False(t, objectsByRole(objects, model.RoleTrueColor)[0].Required)
}

func TestResolve_NewerBaselineProduct(t *testing.T) {
	r, cat := newTestResolver(t)
	tileRef := catalog.TileRef{Name: "33UUU", Date: time.Date(2018, 4, 2, 0, 0, 0, 0, time.UTC)}

	cat.EXPECT().ProductInfo(gomock.Any(), newerProductID).Return(&catalog.ProductInfo{
		Name:       newerProductID,
		Tiles:      []catalog.TileEntry{{Path: "tiles/33/U/UU/2018/4/2/0", Datastrip: catalog.Datastrip{ID: newerDatastrip}}},
		Datastrips: []catalog.Datastrip{{ID: newerDatastrip, Path: newerDatastripPath}},
	}, nil)
	cat.EXPECT().TileInfo(gomock.Any(), tileRef).Return(&catalog.TileInfo{
		ProductName: newerProductID,
		Timestamp:   "2018-04-02T10:10:21.026Z",
		Datastrip:   catalog.Datastrip{ID: newerDatastrip},
	}, nil)
	cat.EXPECT().TileID(gomock.Any(), tileRef).Return(newerTileID, nil)

	sel, err := model.NewProductSelector(newerProductID)
	require.NoError(t, err)

	objects, err := r.Resolve(context.Background(), sel, Options{Bands: []string{"B02"}})

	require.NoError(t, err)
	// From baseline 02.07 the granule folder time comes from the datastrip.
	bands := objectsByRole(objects, model.RoleBand)
	require.Len(t, bands, 1)
	assert.Equal(t, "L1C_T33UUU_A005577_20180402T101021", bands[0].TileFolder)

	aux := objectsByRole(objects, model.RoleAuxiliaryECMWF)
	require.Len(t, aux, 1)
	assert.Equal(t, testBaseURL+"/"+testBucket+"/tiles/33/U/UU/2018/4/2/0/auxiliary/AUX_ECMWFT", aux[0].URL)
	assert.True(t, aux[0].Required)

	reports := objectsByRole(objects, model.RoleQualityReport)
	require.Len(t, reports, 4)
	for _, report := range reports {
		assert.False(t, report.Required)
		assert.Contains(t, report.URL, "/qi/"+report.Name+".xml")
	}

	dsMeta := objectsByRole(objects, model.RoleDatastripMetadata)
	require.Len(t, dsMeta, 1)
	assert.Equal(t, testBaseURL+"/"+testBucket+"/"+newerDatastripPath+"/metadata.xml", dsMeta[0].URL)
	assert.Equal(t, "DS_MTI__20180402T121101_S20180402T101021", dsMeta[0].TileFolder)
	assert.True(t, dsMeta[0].Required)

	// Datastrip reports live under mirror-specific "_report" names.
	dsReports := objectsByRole(objects, model.RoleDatastripReport)
	require.Len(t, dsReports, 4)
	for _, report := range dsReports {
		assert.False(t, report.Required)
		assert.Equal(t, testBaseURL+"/"+testBucket+"/"+newerDatastripPath+"/qi/"+report.Name+"_report.xml", report.URL)
	}

	trueColor := objectsByRole(objects, model.RoleTrueColor)
	require.Len(t, trueColor, 1)
	assert.Equal(t, testBaseURL+"/"+testBucket+"/tiles/33/U/UU/2018/4/2/0/TCI.jp2", trueColor[0].URL)
}

func TestResolve_LegacyProduct(t *testing.T) {
	r, cat := newTestResolver(t)
	tileRef := catalog.TileRef{Name: "54HVH", Date: time.Date(2016, 1, 3, 0, 0, 0, 0, time.UTC)}

	cat.EXPECT().ProductInfo(gomock.Any(), legacyProductID).Return(&catalog.ProductInfo{
		Name:       legacyProductID,
		Tiles:      []catalog.TileEntry{{Path: "tiles/54/H/VH/2016/1/3/0", Datastrip: catalog.Datastrip{ID: legacyDatastrip}}},
		Datastrips: []catalog.Datastrip{{ID: legacyDatastrip, Path: legacyDatastripPath}},
	}, nil)
	cat.EXPECT().TileInfo(gomock.Any(), tileRef).Return(&catalog.TileInfo{
		ProductName: legacyProductID,
		Timestamp:   "2016-01-03T17:19:47.462Z",
		Datastrip:   catalog.Datastrip{ID: legacyDatastrip},
	}, nil)
	cat.EXPECT().TileID(gomock.Any(), tileRef).Return(legacyTileID, nil)

	sel, err := model.NewProductSelector(legacyProductID)
	require.NoError(t, err)

	objects, err := r.Resolve(context.Background(), sel, Options{Bands: []string{"B01"}})

	require.NoError(t, err)
	bands := objectsByRole(objects, model.RoleBand)
	require.Len(t, bands, 1)
	// Legacy granule folders are the raw tile ID.
	assert.Equal(t, legacyTileID, bands[0].TileFolder)
	assert.Equal(t, model.LayoutLegacy, bands[0].Layout)

	aux := objectsByRole(objects, model.RoleAuxiliaryECMWF)
	require.Len(t, aux, 1)
	assert.Equal(t, testBaseURL+"/"+testBucket+"/tiles/54/H/VH/2016/1/3/0/auxiliary/ECMWFT", aux[0].URL)

	assert.Empty(t, objectsByRole(objects, model.RoleQualityReport))
	assert.Empty(t, objectsByRole(objects, model.RoleTrueColor), "legacy products have no true-color composite")

	// Legacy products keep the raw datastrip ID as their DATASTRIP folder.
	dsMeta := objectsByRole(objects, model.RoleDatastripMetadata)
	require.Len(t, dsMeta, 1)
	assert.Equal(t, legacyDatastrip, dsMeta[0].TileFolder)

	browse := objectsByRole(objects, model.RoleProductPreview)
	require.Len(t, browse, 1)
	assert.False(t, browse[0].Required)
	assert.Equal(t, testBaseURL+"/"+testBucket+"/products/2016/1/3/"+legacyProductID+"/preview.png", browse[0].URL)
}

func TestResolve_UnknownBand(t *testing.T) {
	r, _ := newTestResolver(t)
	sel, err := model.NewProductSelector(compactProductID)
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), sel, Options{Bands: []string{"B42"}})
	assert.ErrorIs(t, err, errors.ErrUnknownBand)
}

func TestResolve_AllBandsByDefault(t *testing.T) {
	r, cat := newTestResolver(t)
	tileRef := catalog.TileRef{Name: "54HVH", Date: time.Date(2017, 4, 14, 0, 0, 0, 0, time.UTC)}

	cat.EXPECT().FindTileIndices(gomock.Any(), "54HVH", tileRef.Date).Return([]int{0}, nil)
	cat.EXPECT().TileInfo(gomock.Any(), tileRef).Return(&catalog.TileInfo{
		ProductName: compactProductID,
		Timestamp:   "2017-04-14T00:35:51.456Z",
		Datastrip:   catalog.Datastrip{ID: compactDatastrip},
	}, nil)
	cat.EXPECT().TileID(gomock.Any(), tileRef).Return(compactTileID, nil)

	sel, err := model.NewTileSelector("T54HVH", "2017-04-14")
	require.NoError(t, err)

	objects, err := r.Resolve(context.Background(), sel, Options{})

	require.NoError(t, err)
	assert.Len(t, objectsByRole(objects, model.RoleBand), 13)
}

func TestResolve_MetadataOnly(t *testing.T) {
	r, cat := newTestResolver(t)
	tileRef := catalog.TileRef{Name: "54HVH", Date: time.Date(2017, 4, 14, 0, 0, 0, 0, time.UTC)}

	cat.EXPECT().FindTileIndices(gomock.Any(), "54HVH", tileRef.Date).Return([]int{0}, nil)
	cat.EXPECT().TileInfo(gomock.Any(), tileRef).Return(&catalog.TileInfo{
		ProductName: compactProductID,
		Timestamp:   "2017-04-14T00:35:51.456Z",
		Datastrip:   catalog.Datastrip{ID: compactDatastrip},
	}, nil)
	cat.EXPECT().TileID(gomock.Any(), tileRef).Return(compactTileID, nil)

	sel, err := model.NewTileSelector("T54HVH", "2017-04-14")
	require.NoError(t, err)

	objects, err := r.Resolve(context.Background(), sel, Options{MetadataOnly: true})

	require.NoError(t, err)
	assert.Empty(t, objectsByRole(objects, model.RoleBand))
	assert.Empty(t, objectsByRole(objects, model.RoleTrueColor))
	assert.Empty(t, objectsByRole(objects, model.RoleMask))
	assert.Empty(t, objectsByRole(objects, model.RolePreview))
	assert.NotEmpty(t, objectsByRole(objects, model.RoleTileMetadata))
}

func TestResolve_TileNotFound(t *testing.T) {
	r, cat := newTestResolver(t)
	date := time.Date(2017, 4, 14, 0, 0, 0, 0, time.UTC)

	cat.EXPECT().FindTileIndices(gomock.Any(), "54HVH", date).Return(nil, nil)

	sel, err := model.NewTileSelector("T54HVH", "2017-04-14")
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), sel, Options{})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestResolve_TilePicksLowestIndex(t *testing.T) {
	r, cat := newTestResolver(t)
	date := time.Date(2017, 4, 14, 0, 0, 0, 0, time.UTC)
	otherProductID := "S2A_MSIL1C_20170414T003551_N0204_R016_T54HVH_20170414T021618"

	cat.EXPECT().FindTileIndices(gomock.Any(), "54HVH", date).Return([]int{0, 1}, nil)
	cat.EXPECT().TileInfo(gomock.Any(), catalog.TileRef{Name: "54HVH", Date: date, Index: 0}).Return(&catalog.TileInfo{
		ProductName: compactProductID,
		Timestamp:   "2017-04-14T00:35:51.456Z",
		Datastrip:   catalog.Datastrip{ID: compactDatastrip},
	}, nil)
	cat.EXPECT().TileInfo(gomock.Any(), catalog.TileRef{Name: "54HVH", Date: date, Index: 1}).Return(&catalog.TileInfo{
		ProductName: otherProductID,
		Timestamp:   "2017-04-14T02:16:18.871Z",
		Datastrip:   catalog.Datastrip{ID: compactDatastrip},
	}, nil)
	cat.EXPECT().TileID(gomock.Any(), catalog.TileRef{Name: "54HVH", Date: date, Index: 0}).Return(compactTileID, nil)

	sel, err := model.NewTileSelector("54HVH", "2017-04-14")
	require.NoError(t, err)

	objects, err := r.Resolve(context.Background(), sel, Options{Bands: []string{"B08"}})

	require.NoError(t, err)
	require.NotEmpty(t, objects)
	for _, object := range objects {
		assert.Equal(t, compactProductID, object.ProductID)
		assert.Contains(t, object.URL, "/tiles/54/H/VH/2017/4/14/0/")
	}
}

func TestResolve_TileAmbiguousWithEntireProduct(t *testing.T) {
	r, cat := newTestResolver(t)
	date := time.Date(2017, 4, 14, 0, 0, 0, 0, time.UTC)
	otherProductID := "S2A_MSIL1C_20170414T003551_N0204_R016_T54HVH_20170414T021618"

	cat.EXPECT().FindTileIndices(gomock.Any(), "54HVH", date).Return([]int{0, 1}, nil)
	cat.EXPECT().TileInfo(gomock.Any(), catalog.TileRef{Name: "54HVH", Date: date, Index: 0}).Return(&catalog.TileInfo{
		ProductName: compactProductID,
	}, nil)
	cat.EXPECT().TileInfo(gomock.Any(), catalog.TileRef{Name: "54HVH", Date: date, Index: 1}).Return(&catalog.TileInfo{
		ProductName: otherProductID,
	}, nil)

	sel, err := model.NewTileSelector("54HVH", "2017-04-14")
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), sel, Options{EntireProduct: true})
	assert.ErrorIs(t, err, errors.ErrAmbiguousSelector)
}

func TestResolve_TileExpandsToEntireProduct(t *testing.T) {
	r, cat := newTestResolver(t)
	date := time.Date(2017, 4, 14, 0, 0, 0, 0, time.UTC)
	tileRef := catalog.TileRef{Name: "54HVH", Date: date}

	cat.EXPECT().FindTileIndices(gomock.Any(), "54HVH", date).Return([]int{0}, nil)
	// First lookup identifies the owning product, second one happens during
	// product expansion.
	cat.EXPECT().TileInfo(gomock.Any(), tileRef).Return(&catalog.TileInfo{
		ProductName: compactProductID,
		Timestamp:   "2017-04-14T00:35:51.456Z",
		Datastrip:   catalog.Datastrip{ID: compactDatastrip},
	}, nil).Times(2)
	cat.EXPECT().ProductInfo(gomock.Any(), compactProductID).Return(&catalog.ProductInfo{
		Name:       compactProductID,
		Tiles:      []catalog.TileEntry{{Path: "tiles/54/H/VH/2017/4/14/0", Datastrip: catalog.Datastrip{ID: compactDatastrip}}},
		Datastrips: []catalog.Datastrip{{ID: compactDatastrip}},
	}, nil)
	cat.EXPECT().TileID(gomock.Any(), tileRef).Return(compactTileID, nil)

	sel, err := model.NewTileSelector("54HVH", "2017-04-14")
	require.NoError(t, err)

	objects, err := r.Resolve(context.Background(), sel, Options{EntireProduct: true, Bands: []string{"B08"}})

	require.NoError(t, err)
	assert.NotEmpty(t, objectsByRole(objects, model.RoleProductInfo))
	assert.NotEmpty(t, objectsByRole(objects, model.RoleManifest))
	assert.NotEmpty(t, objectsByRole(objects, model.RoleInspire))
}

func TestResolve_ProductNotFound(t *testing.T) {
	r, cat := newTestResolver(t)

	cat.EXPECT().ProductInfo(gomock.Any(), compactProductID).Return(nil, errors.ErrNotFound)

	sel, err := model.NewProductSelector(compactProductID)
	require.NoError(t, err)

	_, err = r.Resolve(context.Background(), sel, Options{})
	assert.ErrorIs(t, err, errors.ErrNotFound)
}
