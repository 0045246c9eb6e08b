// Package errors defines the common error values shared across safefetch
// packages, together with small helpers for wrapping errors with context.
package errors

import "fmt"

// Common error types.
var (
	// Selector errors.
	ErrNotFound          = fmt.Errorf("selector matches no known product or tile")
	ErrAmbiguousSelector = fmt.Errorf("tile and date match more than one product")
	ErrInvalidProductID  = fmt.Errorf("invalid product ID")
	ErrInvalidTileName   = fmt.Errorf("invalid tile name")
	ErrUnknownBand       = fmt.Errorf("unknown band name")

	// Plan errors.
	ErrDuplicateDestination = fmt.Errorf("duplicate destination path in download plan")
	ErrEmptyPlan            = fmt.Errorf("download plan contains no tasks")
	ErrPlanFailed           = fmt.Errorf("required downloads failed")

	// Download errors.
	ErrDownloadFailed = fmt.Errorf("download failed")
	ErrInvalidPath    = fmt.Errorf("invalid path")

	// Config errors.
	ErrEmptyConfigPath  = fmt.Errorf("config file path cannot be empty")
	ErrConfigParse      = fmt.Errorf("failed to parse config")
	ErrConfigValidation = fmt.Errorf("invalid configuration")

	// Catalog errors.
	ErrCatalogResponse = fmt.Errorf("unexpected catalog response")

	// Hook errors.
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
)

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
