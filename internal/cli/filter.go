package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/contrastlens/internal/config"
	"github.com/jmylchreest/contrastlens/internal/contrast"
	"github.com/jmylchreest/contrastlens/internal/image"
	httputil "github.com/jmylchreest/contrastlens/internal/util/http"
)

var (
	// Filter command flags
	filterFormat      string
	filterOverlay     string
	filterImage       string
	filterLabels      bool
	filterShowPreview bool
)

// filterCmd represents the filter command
var filterCmd = &cobra.Command{
	Use:   "filter <report>",
	Short: "Re-filter a saved report without rescanning",
	Long: `Load a report saved with "scan --output" and show it at a new threshold.

Blocks with a ratio at or above --threshold are shown. Raising the threshold
shows more of the failing blocks; 1 shows them all and 3 shows none.

Examples:
  # Show every failing block from a saved report
  contrastlens filter report.json.xz

  # Redraw the overlay for the mildest failures only
  contrastlens filter -t 2.5 --image screenshot.png --overlay mild.png report.json`,
	Args: cobra.ExactArgs(1),
	RunE: runFilter,
}

func init() {
	filterCmd.Flags().StringVarP(&filterFormat, "format", "f", formatTable, "output format (table, hex, json, yaml)")
	filterCmd.Flags().StringVar(&filterOverlay, "overlay", "", "write a PNG with shown blocks highlighted (needs --image)")
	filterCmd.Flags().StringVar(&filterImage, "image", "", "the image the report was made from")
	filterCmd.Flags().BoolVar(&filterLabels, "labels", false, "draw contrast ratios on the overlay")
	filterCmd.Flags().BoolVar(&filterShowPreview, "preview", false, "show colour previews in terminal")
	filterCmd.Flags().Float64P("threshold", "t", config.DefaultThreshold, "show blocks with ratio at or above this value (1-21)")
	filterCmd.Flags().String("overlay-color", "#ff3b30", "overlay highlight colour")
}

// runFilter executes the filter command.
func runFilter(cmd *cobra.Command, args []string) error {
	if filterOverlay != "" && filterImage == "" {
		return fmt.Errorf("--overlay requires --image")
	}

	verbosef("Loading report: %s\n", args[0])
	report, err := contrast.LoadReport(args[0], appConfig.MaxImageBytes)
	if err != nil {
		return err
	}

	filtered := report.Filtered(appConfig.Threshold)
	verbosef("Showing %d of %d failing blocks\n", len(filtered.Results), filtered.Total)

	if filterOverlay != "" {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		loader := image.NewSmartLoader(httputil.FetchOptions{
			Timeout:  appConfig.FetchTimeout,
			MaxBytes: appConfig.MaxImageBytes,
		})
		bm, err := loader.Load(ctx, filterImage)
		if err != nil {
			return fmt.Errorf("failed to load image: %w", err)
		}
		if bm.Width != report.Width || bm.Height != report.Height {
			return fmt.Errorf("image is %dx%d but the report is for %dx%d",
				bm.Width, bm.Height, report.Width, report.Height)
		}
		if err := writeOverlay(filterOverlay, bm, filtered, filterLabels); err != nil {
			return err
		}
	}

	if globalQuiet {
		return nil
	}
	out, err := formatReport(filtered, filterFormat, filterShowPreview)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}
