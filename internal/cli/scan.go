package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/contrastlens/internal/capture"
	"github.com/jmylchreest/contrastlens/internal/config"
	"github.com/jmylchreest/contrastlens/internal/contrast"
	"github.com/jmylchreest/contrastlens/internal/image"
	"github.com/jmylchreest/contrastlens/internal/overlay"
	httputil "github.com/jmylchreest/contrastlens/internal/util/http"
	pkgcapture "github.com/jmylchreest/contrastlens/pkg/capture"
)

var (
	// Scan command flags
	scanFormat       string
	scanOutput       string
	scanOverlay      string
	scanLabels       bool
	scanProgress     bool
	scanShowPreview  bool
	scanStrict       bool
	scanSourcePlugin string
	scanTarget       string
	scanPluginArgs   string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan [image|directory|url|-]",
	Short: "Scan a screenshot for low-contrast regions",
	Long: `Scan an image for grid blocks whose two dominant colours fail WCAG AA.

The image may be a local file, a directory of images, an HTTP(S) URL, or "-"
for stdin. With --source-plugin the image is captured by a plugin instead.

--threshold only changes which blocks are shown: a block is shown when its
ratio is at least the threshold, so a higher threshold shows more blocks.
The failing-block total is always reported.

Supported image formats: JPEG, PNG, GIF, WebP, BMP

Examples:
  # Scan a screenshot
  contrastlens scan screenshot.png

  # Show every failing block with colour swatches
  contrastlens scan --preview screenshot.png

  # Show only the mildest failures
  contrastlens scan --threshold 2.5 screenshot.png

  # Save a compressed report and a highlight overlay
  contrastlens scan -o report.json.xz --overlay highlighted.png screenshot.png

  # Scan every image in a directory as YAML
  contrastlens scan -f yaml ./screenshots

  # Capture a browser tab through a plugin
  contrastlens scan --source-plugin ./tab-capture --target https://example.com

  # Scan a generated test page
  contrastlens scan --source-plugin ./pattern --plugin-args '{"seed":42}'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	// Define flags for the scan command
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", formatTable, "output format (table, hex, json, yaml)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "save the full report (.json, .yaml, optionally .xz)")
	scanCmd.Flags().StringVar(&scanOverlay, "overlay", "", "write a PNG with failing blocks highlighted")
	scanCmd.Flags().BoolVar(&scanLabels, "labels", false, "draw contrast ratios on the overlay")
	scanCmd.Flags().BoolVar(&scanProgress, "progress", false, "show a progress bar")
	scanCmd.Flags().BoolVar(&scanShowPreview, "preview", false, "show colour previews in terminal")
	scanCmd.Flags().BoolVar(&scanStrict, "strict", false, "exit non-zero when any block fails")
	scanCmd.Flags().StringVar(&scanSourcePlugin, "source-plugin", "", "capture the image with this plugin binary")
	scanCmd.Flags().StringVar(&scanTarget, "target", "", "capture target passed to the source plugin")
	scanCmd.Flags().StringVar(&scanPluginArgs, "plugin-args", "", "JSON object of source plugin arguments")

	scanCmd.Flags().Float64P("threshold", "t", config.DefaultThreshold, "show blocks with ratio at or above this value (1-21)")
	scanCmd.Flags().IntP("block-size", "b", contrast.DefaultBlockSize, "grid block size in pixels")
	scanCmd.Flags().Int("workers", 0, "parallel row workers (default: number of CPUs)")
	scanCmd.Flags().Int64("max-image-bytes", 20*1024*1024, "maximum encoded image size")
	scanCmd.Flags().String("overlay-color", "#ff3b30", "overlay highlight colour")
}

// runScan executes the scan command.
func runScan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if scanSourcePlugin != "" {
		if len(args) > 0 {
			return fmt.Errorf("an image argument cannot be combined with --source-plugin")
		}
		return scanCaptured(ctx)
	}

	if len(args) == 0 {
		return fmt.Errorf("an image, directory, URL or - is required")
	}
	input := args[0]

	// Validate the image path
	if err := image.ValidateImagePath(input); err != nil {
		return fmt.Errorf("invalid image path: %w", err)
	}

	inputs := []string{input}
	if info, err := os.Stat(input); err == nil && info.IsDir() {
		if scanOutput != "" || scanOverlay != "" {
			return fmt.Errorf("--output and --overlay need a single image, not a directory")
		}
		inputs, err = image.ScanDirectoryForImages(input)
		if err != nil {
			return err
		}
		verbosef("Found %d images in %s\n", len(inputs), input)
	}

	loader := image.NewSmartLoader(httputil.FetchOptions{
		Timeout:  appConfig.FetchTimeout,
		MaxBytes: appConfig.MaxImageBytes,
	})

	violations := 0
	for i, path := range inputs {
		verbosef("Loading image: %s\n", path)
		bm, err := loader.Load(ctx, path)
		if err != nil {
			return fmt.Errorf("failed to load image %s: %w", path, err)
		}
		verbosef("Image loaded: %dx%d\n", bm.Width, bm.Height)

		if i > 0 {
			fmt.Println()
		}
		name := path
		if len(inputs) > 1 {
			name = filepath.Base(path)
		}
		n, err := scanBitmap(ctx, bm, name)
		if err != nil {
			return err
		}
		violations += n
	}

	if scanStrict && violations > 0 {
		return fmt.Errorf("%w: %d failing blocks", ErrViolationsFound, violations)
	}
	return nil
}

// scanCaptured analyses an image produced by a capture plugin.
func scanCaptured(ctx context.Context) error {
	opts := pkgcapture.CaptureOptions{Target: scanTarget}
	if scanPluginArgs != "" {
		if err := json.Unmarshal([]byte(scanPluginArgs), &opts.PluginArgs); err != nil {
			return fmt.Errorf("invalid --plugin-args: %w", err)
		}
	}

	executor, err := capture.New(scanSourcePlugin, appLogger)
	if err != nil {
		return fmt.Errorf("invalid source plugin: %w", err)
	}
	defer executor.Close()
	executor.WithMaxBytes(appConfig.MaxImageBytes)

	captureCtx, cancel := context.WithTimeout(ctx, appConfig.FetchTimeout)
	defer cancel()

	verbosef("Capturing with plugin: %s\n", scanSourcePlugin)
	bm, err := executor.Capture(captureCtx, opts)
	if err != nil {
		return err
	}
	verbosef("Captured: %dx%d\n", bm.Width, bm.Height)

	name := scanTarget
	if name == "" {
		name = filepath.Base(scanSourcePlugin)
	}
	n, err := scanBitmap(ctx, bm, name)
	if err != nil {
		return err
	}
	if scanStrict && n > 0 {
		return fmt.Errorf("%w: %d failing blocks", ErrViolationsFound, n)
	}
	return nil
}

// scanBitmap analyses bm, prints the filtered report and writes any requested
// files. It returns the number of failing blocks.
func scanBitmap(ctx context.Context, bm *image.Bitmap, source string) (int, error) {
	analyzer := &contrast.Analyzer{
		BlockSize: appConfig.BlockSize,
		Workers:   appConfig.Workers,
		Logger:    appLogger.Named("analyzer"),
	}

	var bar *progressbar.ProgressBar
	if scanProgress && !globalQuiet {
		analyzer.Progress = func(done, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionSetDescription("scanning rows"),
					progressbar.OptionShowCount(),
					progressbar.OptionClearOnFinish(),
				)
			}
			_ = bar.Set(done)
		}
	}

	analysisCtx, cancel := context.WithTimeout(ctx, appConfig.AnalysisTimeout)
	defer cancel()

	verbosef("Analysing with %dpx blocks...\n", appConfig.BlockSize)
	report, err := analyzer.Analyze(analysisCtx, bm)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return 0, fmt.Errorf("analysis failed: %w", err)
	}
	report.Source = source
	verbosef("Found %d failing blocks\n", report.Total)

	if scanOutput != "" {
		verbosef("Writing report to: %s\n", scanOutput)
		if err := contrast.SaveReport(scanOutput, report); err != nil {
			return 0, err
		}
	}

	filtered := report.Filtered(appConfig.Threshold)

	if scanOverlay != "" {
		if err := writeOverlay(scanOverlay, bm, filtered, scanLabels); err != nil {
			return 0, err
		}
	}

	if !globalQuiet {
		out, err := formatReport(filtered, scanFormat, scanShowPreview)
		if err != nil {
			return 0, err
		}
		fmt.Print(out)
	}

	return report.Total, nil
}

// writeOverlay renders the filtered results over bm and saves a PNG.
func writeOverlay(path string, bm *image.Bitmap, r *contrast.Report, labels bool) error {
	verbosef("Writing overlay to: %s\n", path)

	img := overlay.Render(bm, r.Results, r.BlockSize, overlay.Options{
		Color:  appConfig.Overlay(),
		Labels: labels,
	})

	f, err := os.Create(path) // #nosec G304 - User-specified output path
	if err != nil {
		return fmt.Errorf("failed to create overlay file: %w", err)
	}
	defer f.Close()

	if err := overlay.EncodePNG(f, img); err != nil {
		return err
	}
	return f.Close()
}
