package model

import (
	"github.com/google/uuid"

	"github.com/s2tools/safefetch/pkg/errors"
)

// DownloadPlan is the ordered collection of fetch tasks for one invocation,
// plus the placeholder directories the archive layout requires even though
// no remote content exists for them. Destination paths are unique within a
// plan; a collision is a construction defect, not a runtime condition.
type DownloadPlan struct {
	// ID correlates log lines and results of one invocation.
	ID string
	// RootFolder is the directory all destinations are relative to.
	RootFolder string
	Tasks      []FetchTask
	// PlaceholderDirs are root-relative directories to create empty.
	PlaceholderDirs []string

	destinations map[string]struct{}
}

// NewDownloadPlan creates an empty plan rooted at rootFolder.
func NewDownloadPlan(rootFolder string) *DownloadPlan {
	return &DownloadPlan{
		ID:           uuid.NewString(),
		RootFolder:   rootFolder,
		destinations: make(map[string]struct{}),
	}
}

// AddTask appends a fetch task for obj writing to the root-relative
// destination. It fails on a duplicate destination.
func (p *DownloadPlan) AddTask(obj RemoteObject, destination string) error {
	if destination == "" {
		return errors.Wrap(errors.ErrInvalidPath, "empty destination")
	}
	if _, exists := p.destinations[destination]; exists {
		return errors.Wrapf(errors.ErrDuplicateDestination, "%s", destination)
	}
	p.destinations[destination] = struct{}{}
	p.Tasks = append(p.Tasks, FetchTask{
		ID:          len(p.Tasks),
		Object:      obj,
		Destination: destination,
		Status:      StatusPending,
	})
	return nil
}

// AddPlaceholderDir registers a root-relative directory that must exist in
// the final archive even though nothing is downloaded into it.
func (p *DownloadPlan) AddPlaceholderDir(dir string) {
	for _, existing := range p.PlaceholderDirs {
		if existing == dir {
			return
		}
	}
	p.PlaceholderDirs = append(p.PlaceholderDirs, dir)
}
