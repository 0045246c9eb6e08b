// Package cli implements the safefetch command surface on top of the
// library packages.
package cli

import (
	"fmt"

	"github.com/s2tools/safefetch/pkg/catalog"
	"github.com/s2tools/safefetch/pkg/config"
	"github.com/s2tools/safefetch/pkg/download"
	"github.com/s2tools/safefetch/pkg/hook"
	"github.com/s2tools/safefetch/pkg/model"
	"github.com/s2tools/safefetch/pkg/orchestrator"
	"github.com/s2tools/safefetch/pkg/resolver"
	"github.com/s2tools/safefetch/pkg/safe"
)

// These variables will be set by the main package.
var (
	ConfigPath *string
	Verbose    *bool
)

// loadConfig loads the configuration from the --config flag or the default
// location, applying flag overrides.
func loadConfig() (*config.Config, error) {
	configPath := ""
	if ConfigPath != nil {
		configPath = *ConfigPath
	}
	if configPath == "" {
		defaultPath, err := config.GetDefaultConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get default config path: %w", err)
		}
		configPath = defaultPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if Verbose != nil && *Verbose {
		cfg.Settings.LogLevel = "debug"
	}
	return cfg, nil
}

// buildOrchestrator assembles the component stack from the configuration.
func buildOrchestrator(cfg *config.Config, hookRunner orchestrator.HookRunner) *orchestrator.Orchestrator {
	cat := catalog.NewHTTPCatalog(catalog.Options{
		BaseURL:   cfg.Endpoints.MetadataBaseURL,
		Bucket:    cfg.Endpoints.L1CBucketName,
		Timeout:   cfg.Settings.DownloadTimeout,
		UserAgent: cfg.Settings.UserAgent,
	})
	engine := download.NewEngine(download.EngineOptions{
		Timeout:           cfg.Settings.DownloadTimeout,
		MaxAttempts:       cfg.Settings.MaxAttempts,
		RetryDelay:        cfg.Settings.RetryDelay,
		RequestsPerSecond: cfg.Settings.RequestsPerSecond,
		UserAgent:         cfg.Settings.UserAgent,
	})
	if hookRunner == nil {
		hookRunner = hook.NewTengoExecutor()
	}

	return &orchestrator.Orchestrator{
		Resolver:   resolver.New(cat, cfg.Endpoints.MetadataBaseURL, cfg.Endpoints.L1CBucketName),
		Engine:     engine,
		Assembler:  safe.NewAssembler(),
		Exporter:   safe.NewExporter(),
		HookRunner: hookRunner,
		Hooks: orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
			if e.ID != "" {
				fmt.Printf("%s: %s (%s)\n", e.Phase, e.Msg, e.ID)
			} else {
				fmt.Printf("%s: %s\n", e.Phase, e.Msg)
			}
		}},
	}
}

// parseSelector builds a selector from the mutually exclusive --product and
// --tile flags.
func parseSelector(product string, tile []string) (model.Selector, error) {
	switch {
	case product != "" && len(tile) > 0:
		return model.Selector{}, fmt.Errorf("--product and --tile are mutually exclusive")
	case product != "":
		return model.NewProductSelector(product)
	case len(tile) == 2:
		return model.NewTileSelector(tile[0], tile[1])
	case len(tile) > 0:
		return model.Selector{}, fmt.Errorf("--tile takes exactly NAME and DATE")
	}
	return model.Selector{}, fmt.Errorf("either --product or --tile NAME DATE is required")
}
