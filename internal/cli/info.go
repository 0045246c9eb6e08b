package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/s2tools/safefetch/internal/logger"
	"github.com/s2tools/safefetch/pkg/resolver"
)

// NewInfoCmd creates the info command.
func NewInfoCmd() *cobra.Command {
	var (
		product      string
		tile         []string
		folder       string
		bands        []string
		entire       bool
		metadataOnly bool
	)

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the .SAFE structure a fetch would produce",
		Long:  "Resolve a product or tile and print the file tree without downloading anything.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInfo(cmd.Context(), product, tile, folder, bands, entire, metadataOnly)
		},
	}

	cmd.Flags().StringVar(&product, "product", "", "ESA product ID to inspect")
	cmd.Flags().StringSliceVar(&tile, "tile", nil, "tile NAME,DATE to inspect (e.g. T54HVH,2017-04-14)")
	cmd.Flags().StringVar(&folder, "folder", ".", "root folder the paths are shown relative to")
	cmd.Flags().StringSliceVar(&bands, "bands", nil, "bands to include (default: all)")
	cmd.Flags().BoolVar(&entire, "entire", false, "expand a tile selector to its whole product")
	cmd.Flags().BoolVar(&metadataOnly, "metadata-only", false, "show structural files only")

	return cmd
}

func runInfo(ctx context.Context, product string, tile []string, folder string, bands []string, entire, metadataOnly bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger.InitLogger(cfg.Settings.LogLevel)

	sel, err := parseSelector(product, tile)
	if err != nil {
		return err
	}

	orch := buildOrchestrator(cfg, nil)
	plan, err := orch.Describe(ctx, sel, folder, resolver.Options{
		Bands:         bands,
		EntireProduct: entire,
		MetadataOnly:  metadataOnly,
	})
	if err != nil {
		return err
	}

	paths := make([]string, 0, len(plan.Tasks)+len(plan.PlaceholderDirs))
	for _, task := range plan.Tasks {
		paths = append(paths, task.Destination)
	}
	for _, dir := range plan.PlaceholderDirs {
		paths = append(paths, dir+"/")
	}
	sort.Strings(paths)

	fmt.Printf("%d objects under %s:\n", len(plan.Tasks), folder)
	for _, path := range paths {
		fmt.Println(path)
	}
	return nil
}
