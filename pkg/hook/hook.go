// Package hook runs user supplied Tengo scripts around download runs, so a
// pipeline can react to a finished product without wrapping the binary.
package hook

import (
	"os"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/s2tools/safefetch/pkg/errors"
)

// Type identifies the lifecycle point a script is attached to.
type Type string

const (
	// PreDownload runs after planning, before the first fetch.
	PreDownload Type = "pre-download"
	// PostDownload runs after finalize, with the outcome counts.
	PostDownload Type = "post-download"
)

// Context carries the values exposed to a script as global variables.
type Context struct {
	ProductID string
	Folder    string
	Done      int
	Failed    int
	Skipped   int
	Vars      map[string]interface{}
}

// TengoExecutor holds scripts per hook type and runs them on demand.
type TengoExecutor struct {
	scripts map[Type]string
	mutex   sync.RWMutex
}

// NewTengoExecutor creates an executor with no scripts attached.
func NewTengoExecutor() *TengoExecutor {
	return &TengoExecutor{
		scripts: make(map[Type]string),
	}
}

// AddScript adds or replaces the script for a hook type.
func (e *TengoExecutor) AddScript(hookType Type, script string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.scripts[hookType] = script
}

// AddScriptFile loads a script from disk and attaches it to a hook type.
func (e *TengoExecutor) AddScriptFile(hookType Type, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(errors.ErrHookScript, "cannot read %s", path)
	}
	e.AddScript(hookType, string(content))
	return nil
}

// HasScript checks whether a script is attached to a hook type.
func (e *TengoExecutor) HasScript(hookType Type) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	_, exists := e.scripts[hookType]
	return exists
}

// Execute runs the script attached to the hook type, if any. A script can
// signal failure by setting a non-empty "err" variable.
func (e *TengoExecutor) Execute(hookType Type, ctx Context) error {
	e.mutex.RLock()
	script, exists := e.scripts[hookType]
	e.mutex.RUnlock()
	if !exists {
		return nil
	}

	instance := tengo.NewScript([]byte(script))
	instance.SetImports(stdlib.GetModuleMap("fmt", "os", "text", "times"))

	_ = instance.Add("productID", ctx.ProductID)
	_ = instance.Add("folder", ctx.Folder)
	_ = instance.Add("done", ctx.Done)
	_ = instance.Add("failed", ctx.Failed)
	_ = instance.Add("skipped", ctx.Skipped)
	for k, v := range ctx.Vars {
		_ = instance.Add(k, v)
	}

	compiled, err := instance.Run()
	if err != nil {
		return errors.Wrapf(errors.ErrHookExecution, "%s: %v", hookType, err)
	}

	if errVar := compiled.Get("err"); errVar != nil {
		switch v := errVar.Value().(type) {
		case error:
			return errors.Wrap(errors.ErrHookScript, v.Error())
		case string:
			if v != "" {
				return errors.Wrap(errors.ErrHookScript, v)
			}
		}
	}
	return nil
}
