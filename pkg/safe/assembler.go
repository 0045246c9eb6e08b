package safe

import (
	"path/filepath"

	"github.com/s2tools/safefetch/internal/logger"
	"github.com/s2tools/safefetch/pkg/fsutil"
	"github.com/s2tools/safefetch/pkg/model"
)

// Assembler completes the on-disk archive structure after a download run.
type Assembler struct{}

// NewAssembler creates a new Assembler instance.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Finalize creates every placeholder directory of the plan under its root
// folder. It is idempotent and runs regardless of how many downloads
// succeeded, so a partially fetched archive still has a valid shape.
func (a *Assembler) Finalize(plan *model.DownloadPlan) error {
	for _, dir := range plan.PlaceholderDirs {
		target := filepath.Join(plan.RootFolder, filepath.FromSlash(dir))
		if err := fsutil.EnsureDir(target); err != nil {
			return err
		}
		logger.Debug("ensured placeholder directory", logger.Fields{
			"plan": plan.ID,
			"dir":  dir,
		})
	}
	return nil
}
