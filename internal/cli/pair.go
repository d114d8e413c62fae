package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/contrastlens/internal/colour"
	"github.com/jmylchreest/contrastlens/internal/contrast"
)

var (
	// Pair command flags
	pairFormat      string
	pairX           int
	pairY           int
	pairShowPreview bool
	pairStrict      bool
)

// pairCmd represents the pair command
var pairCmd = &cobra.Command{
	Use:   "pair <background> <text>",
	Short: "Check the contrast of a background/text colour pair",
	Long: `Compute the WCAG contrast ratio and severity score of two colours.

Colours are hex codes (#rrggbb or #rgb, the '#' is optional). This is the
same evaluation applied to each scanned block, without sampling or
clustering, for colours read directly from a page's styles.

Examples:
  contrastlens pair '#ffffff' '#767676'
  contrastlens pair --preview 808080 646464
  contrastlens pair -f json fff 999`,
	Args: cobra.ExactArgs(2),
	RunE: runPair,
}

func init() {
	pairCmd.Flags().StringVarP(&pairFormat, "format", "f", formatTable, "output format (table, json, yaml)")
	pairCmd.Flags().IntVar(&pairX, "x", 0, "x position recorded in the result")
	pairCmd.Flags().IntVar(&pairY, "y", 0, "y position recorded in the result")
	pairCmd.Flags().BoolVar(&pairShowPreview, "preview", false, "show the pair rendered in the terminal")
	pairCmd.Flags().BoolVar(&pairStrict, "strict", false, "exit non-zero when the pair fails AA")
}

// runPair executes the pair command.
func runPair(_ *cobra.Command, args []string) error {
	bg, err := colour.ParseHex(args[0])
	if err != nil {
		return fmt.Errorf("invalid background: %w", err)
	}
	text, err := colour.ParseHex(args[1])
	if err != nil {
		return fmt.Errorf("invalid text colour: %w", err)
	}

	res := contrast.EvaluatePair(bg, text, pairX, pairY)

	if !globalQuiet {
		switch pairFormat {
		case formatTable, "":
			fmt.Print(formatPair(res, pairShowPreview))
		case formatJSON:
			if err := writeJSON(os.Stdout, res); err != nil {
				return err
			}
		case formatYAML, "yml":
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			if err := enc.Encode(res); err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			if err := enc.Close(); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unsupported format: %s (supported: table, json, yaml)", pairFormat)
		}
	}

	if pairStrict && !res.Compliant {
		return fmt.Errorf("%w: ratio %.2f:1", ErrViolationsFound, res.Ratio)
	}
	return nil
}
