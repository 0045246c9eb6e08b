// Package orchestrator ties the resolver, the layout builder, the download
// engine and the assembler together into the operations the CLI exposes.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/s2tools/safefetch/pkg/download"
	"github.com/s2tools/safefetch/pkg/hook"
	"github.com/s2tools/safefetch/pkg/model"
	"github.com/s2tools/safefetch/pkg/resolver"
	"github.com/s2tools/safefetch/pkg/safe"
)

// ObjectResolver is the subset of the resolver used by the orchestrator.
type ObjectResolver interface {
	Resolve(ctx context.Context, sel model.Selector, opts resolver.Options) ([]model.RemoteObject, error)
}

// PlanExecutor is the subset of the download engine used by the orchestrator.
type PlanExecutor interface {
	Execute(ctx context.Context, plan *model.DownloadPlan, opts download.Options) (*model.DownloadResult, error)
}

// Finalizer completes the archive structure after a download run.
type Finalizer interface {
	Finalize(plan *model.DownloadPlan) error
}

// Archiver packages a finished .SAFE directory.
type Archiver interface {
	Export(ctx context.Context, safeDir, archivePath string) error
}

// HookRunner executes user scripts around a download run.
type HookRunner interface {
	HasScript(hookType hook.Type) bool
	Execute(hookType hook.Type, ctx hook.Context) error
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // resolving|planning|downloading|finalizing|done
	ID    string // plan ID once one exists
	Msg   string
}

// Hooks carries callbacks for progress events.
type Hooks struct {
	OnEvent func(Event)
}

// Orchestrator wires the collaborators of one fetch run together.
type Orchestrator struct {
	Resolver   ObjectResolver
	Engine     PlanExecutor
	Assembler  Finalizer
	Exporter   Archiver
	HookRunner HookRunner
	Hooks      Hooks
}

// FetchOptions control one orchestrated fetch.
type FetchOptions struct {
	// Folder is the root directory the .SAFE tree is built under.
	Folder   string
	Resolve  resolver.Options
	Download download.Options
	// Archive packages every fetched .SAFE directory into a .tar.gz next
	// to it after a fully successful run.
	Archive bool
}

// FetchResult is the aggregate outcome of one orchestrated fetch.
type FetchResult struct {
	Plan     *model.DownloadPlan
	Result   *model.DownloadResult
	Products []string
	Archives []string
}

// Fetch resolves the selector, builds the plan, downloads everything and
// finalizes the archive structure. Finalize and the post-download hook run
// even when some required downloads failed, so a partial tree is still
// well-formed and observable.
func (o *Orchestrator) Fetch(ctx context.Context, sel model.Selector, opts FetchOptions) (*FetchResult, error) {
	if o.Resolver == nil || o.Engine == nil || o.Assembler == nil {
		return nil, fmt.Errorf("orchestrator is not fully configured")
	}

	emit(o.Hooks, Event{Phase: "resolving", Msg: sel.String()})
	objects, err := o.Resolver.Resolve(ctx, sel, opts.Resolve)
	if err != nil {
		return nil, err
	}

	emit(o.Hooks, Event{Phase: "planning", Msg: sel.String()})
	plan, err := safe.BuildPaths(objects, opts.Folder)
	if err != nil {
		return nil, err
	}
	products := planProducts(plan)

	if o.HookRunner != nil && o.HookRunner.HasScript(hook.PreDownload) {
		for _, productID := range products {
			if err := o.HookRunner.Execute(hook.PreDownload, hook.Context{
				ProductID: productID,
				Folder:    safeDir(opts.Folder, productID),
			}); err != nil {
				return nil, err
			}
		}
	}

	emit(o.Hooks, Event{Phase: "downloading", ID: plan.ID, Msg: fmt.Sprintf("%d objects", len(plan.Tasks))})
	result, execErr := o.Engine.Execute(ctx, plan, opts.Download)

	emit(o.Hooks, Event{Phase: "finalizing", ID: plan.ID})
	if err := o.Assembler.Finalize(plan); err != nil {
		return nil, err
	}

	fetchResult := &FetchResult{Plan: plan, Result: result, Products: products}

	if o.HookRunner != nil && o.HookRunner.HasScript(hook.PostDownload) && result != nil {
		for _, productID := range products {
			if err := o.HookRunner.Execute(hook.PostDownload, hook.Context{
				ProductID: productID,
				Folder:    safeDir(opts.Folder, productID),
				Done:      result.Done,
				Failed:    result.Failed,
				Skipped:   result.Skipped,
			}); err != nil {
				return fetchResult, err
			}
		}
	}

	if execErr != nil {
		return fetchResult, execErr
	}

	if opts.Archive {
		if o.Exporter == nil {
			return fetchResult, fmt.Errorf("archive export requested but no exporter is configured")
		}
		for _, productID := range products {
			archivePath := filepath.Join(opts.Folder, productID+".SAFE.tar.gz")
			if err := o.Exporter.Export(ctx, safeDir(opts.Folder, productID), archivePath); err != nil {
				return fetchResult, err
			}
			fetchResult.Archives = append(fetchResult.Archives, archivePath)
		}
	}

	emit(o.Hooks, Event{Phase: "done", ID: plan.ID})
	return fetchResult, nil
}

// Describe resolves the selector and builds the plan without downloading
// anything, for structure inspection.
func (o *Orchestrator) Describe(ctx context.Context, sel model.Selector, folder string, opts resolver.Options) (*model.DownloadPlan, error) {
	if o.Resolver == nil {
		return nil, fmt.Errorf("orchestrator is not fully configured")
	}
	emit(o.Hooks, Event{Phase: "resolving", Msg: sel.String()})
	objects, err := o.Resolver.Resolve(ctx, sel, opts)
	if err != nil {
		return nil, err
	}
	emit(o.Hooks, Event{Phase: "planning", Msg: sel.String()})
	return safe.BuildPaths(objects, folder)
}

func emit(h Hooks, e Event) {
	if h.OnEvent != nil {
		h.OnEvent(e)
	}
}

func safeDir(folder, productID string) string {
	return filepath.Join(folder, productID+".SAFE")
}

// planProducts lists the distinct product IDs of a plan in task order.
func planProducts(plan *model.DownloadPlan) []string {
	var products []string
	seen := make(map[string]struct{})
	for _, task := range plan.Tasks {
		if _, ok := seen[task.Object.ProductID]; ok {
			continue
		}
		seen[task.Object.ProductID] = struct{}{}
		products = append(products, task.Object.ProductID)
	}
	return products
}
