package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s2tools/safefetch/internal/logger"
	"github.com/s2tools/safefetch/pkg/download"
	"github.com/s2tools/safefetch/pkg/hook"
	"github.com/s2tools/safefetch/pkg/orchestrator"
	"github.com/s2tools/safefetch/pkg/resolver"
)

// fetchFlags holds the flag values of one fetch invocation.
type fetchFlags struct {
	product      string
	tile         []string
	folder       string
	bands        []string
	entire       bool
	redownload   bool
	threads      int
	archive      bool
	hookScript   string
	metadataOnly bool
}

// NewFetchCmd creates the fetch command.
func NewFetchCmd() *cobra.Command {
	var flags fetchFlags

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download Sentinel-2 data as a .SAFE archive",
		Long: `Download a product or a single tile from the public Sentinel-2 archive
and reconstruct the ESA .SAFE folder structure on disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetch(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.product, "product", "", "ESA product ID to download")
	cmd.Flags().StringSliceVar(&flags.tile, "tile", nil, "tile NAME,DATE to download (e.g. T54HVH,2017-04-14)")
	cmd.Flags().StringVar(&flags.folder, "folder", ".", "root folder the .SAFE tree is built under")
	cmd.Flags().StringSliceVar(&flags.bands, "bands", nil, "bands to download (default: all)")
	cmd.Flags().BoolVar(&flags.entire, "entire", false, "expand a tile selector to its whole product")
	cmd.Flags().BoolVar(&flags.redownload, "redownload", false, "download even if the destination exists")
	cmd.Flags().IntVar(&flags.threads, "threads", 0, "parallel downloads (0 = from config)")
	cmd.Flags().BoolVar(&flags.archive, "archive", false, "package the .SAFE directory into a .tar.gz afterwards")
	cmd.Flags().StringVar(&flags.hookScript, "hook", "", "Tengo script to run after the download")
	cmd.Flags().BoolVar(&flags.metadataOnly, "metadata-only", false, "skip band rasters, fetch structural files only")

	return cmd
}

func runFetch(ctx context.Context, flags fetchFlags) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.InitLogger(cfg.Settings.LogLevel)

	sel, err := parseSelector(flags.product, flags.tile)
	if err != nil {
		return err
	}

	hookRunner := hook.NewTengoExecutor()
	if flags.hookScript != "" {
		if err := hookRunner.AddScriptFile(hook.PostDownload, flags.hookScript); err != nil {
			return err
		}
	}

	threads := flags.threads
	if threads == 0 {
		threads = cfg.Settings.MaxThreads
	}

	orch := buildOrchestrator(cfg, hookRunner)
	result, err := orch.Fetch(ctx, sel, orchestrator.FetchOptions{
		Folder: flags.folder,
		Resolve: resolver.Options{
			Bands:         flags.bands,
			EntireProduct: flags.entire,
			MetadataOnly:  flags.metadataOnly,
		},
		Download: download.Options{
			Redownload: flags.redownload,
			MaxThreads: threads,
		},
		Archive: flags.archive,
	})
	if result != nil && result.Result != nil {
		fmt.Printf("downloaded %d, skipped %d, failed %d\n",
			result.Result.Done, result.Result.Skipped, result.Result.Failed)
		for _, url := range result.Result.FailedURLs {
			fmt.Printf("failed: %s\n", url)
		}
	}
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	return nil
}
