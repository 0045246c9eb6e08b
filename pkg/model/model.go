// Package model provides the data structures shared between the resolver,
// the layout builder and the download engine: selectors, remote objects,
// fetch tasks and download plans.
package model

// LayoutKind classifies the .SAFE naming scheme of a product. ESA changed
// the product structure and naming in 2016, so every product is either the
// old (legacy) layout or the newer compact layout. The classification is
// derived once from the product ID and never changes afterwards.
type LayoutKind string

const (
	// LayoutLegacy is the pre-2016 .SAFE naming scheme (OPER/USER products).
	LayoutLegacy LayoutKind = "legacy"
	// LayoutCompact is the current .SAFE naming scheme (MSI* products).
	LayoutCompact LayoutKind = "compact"
)

// Role classifies a remote object by its place in the target archive layout.
type Role string

const (
	RoleProductInfo       Role = "productInfo"
	RoleTileInfo          Role = "tileInfo"
	RoleProductMetadata   Role = "productMetadata"
	RoleTileMetadata      Role = "tileMetadata"
	RoleManifest          Role = "manifest"
	RoleInspire           Role = "inspire"
	RoleBand              Role = "band"
	RoleTrueColor         Role = "trueColor"
	RoleMask              Role = "mask"
	RoleAuxiliaryECMWF    Role = "auxiliaryECMWF"
	RoleQualityReport     Role = "qualityReport"
	RolePreview           Role = "preview"
	RoleProductPreview    Role = "productPreview"
	RoleDatastripMetadata Role = "datastripMetadata"
	RoleDatastripReport   Role = "datastripReport"
)

// RemoteObject is a single fetchable unit, fully described so that the
// layout builder can compute its destination without further lookups.
// Objects are derived once per invocation and are read-only afterwards.
type RemoteObject struct {
	// URL is the absolute source location of the object.
	URL string
	// ProductID is the ESA product the object belongs to.
	ProductID string
	// Layout is the naming scheme of the owning product.
	Layout LayoutKind
	// Role classifies the object in the archive layout.
	Role Role
	// Name is the logical data name, e.g. a band name ("B08"), a quality
	// report name ("FORMAT_CORRECTNESS"), a mask name ("CLOUDS_B00") or a
	// metadata file name.
	Name string
	// TileFolder is the GRANULE subfolder name for tile-scoped objects, the
	// DATASTRIP subfolder name for datastrip objects and empty for
	// product-level objects.
	TileFolder string
	// Required marks objects whose absence is an error. Quality reports are
	// known to be missing for some products and are tolerated.
	Required bool
}

// TaskStatus is the lifecycle state of a fetch task.
type TaskStatus string

const (
	StatusPending  TaskStatus = "pending"
	StatusInFlight TaskStatus = "in_flight"
	StatusDone     TaskStatus = "done"
	StatusFailed   TaskStatus = "failed"
	StatusSkipped  TaskStatus = "skipped"
)

// FetchTask pairs a RemoteObject with a destination path. Task state is
// mutated only by the download engine once the plan is handed off.
type FetchTask struct {
	ID          int
	Object      RemoteObject
	Destination string // path relative to the plan's root folder
	Status      TaskStatus
	Bytes       int64
	Err         error
}

// TaskOutcome is the settled result of one fetch task.
type TaskOutcome struct {
	TaskID int
	Status TaskStatus
	Bytes  int64
	Err    error
}

// DownloadResult aggregates per-task outcomes for one plan execution.
type DownloadResult struct {
	PlanID   string
	Outcomes []TaskOutcome
	Done     int
	Failed   int
	Skipped  int
	// FailedURLs lists the source URLs of required tasks that ended failed,
	// so a caller can target a narrower re-run.
	FailedURLs []string
}
