package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jmylchreest/contrastlens/internal/colour"
	"github.com/jmylchreest/contrastlens/internal/contrast"
)

// Output formats accepted by scan and filter.
const (
	formatTable = "table"
	formatHex   = "hex"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

var (
	passColour = colour.RGB{R: 52, G: 199, B: 89}
	failColour = colour.RGB{R: 255, G: 59, B: 48}
)

// formatReport renders a filtered report in the requested format.
func formatReport(r *contrast.Report, format string, showPreview bool) (string, error) {
	switch format {
	case formatTable, "":
		return formatReportTable(r, showPreview), nil
	case formatHex:
		return formatReportHex(r), nil
	case formatJSON, formatYAML, "yml":
		f, err := contrast.ParseFormat(format)
		if err != nil {
			return "", err
		}
		var sb strings.Builder
		if err := contrast.WriteReport(&sb, r, f); err != nil {
			return "", fmt.Errorf("failed to encode report: %w", err)
		}
		return sb.String(), nil
	default:
		return "", fmt.Errorf("unsupported format: %s (supported: table, hex, json, yaml)", format)
	}
}

// formatReportTable renders a human-readable summary and results table.
func formatReportTable(r *contrast.Report, showPreview bool) string {
	var sb strings.Builder

	source := r.Source
	if source == "" {
		source = "<bitmap>"
	}
	fmt.Fprintf(&sb, "Source: %s (%dx%d, block %dpx)\n", source, r.Width, r.Height, r.BlockSize)
	fmt.Fprintf(&sb, "Failing blocks: %d (WCAG AA < %.1f:1), showing %d at threshold %.2f\n",
		r.Total, colour.AAThreshold, len(r.Results), r.Threshold)

	if len(r.Results) == 0 {
		return sb.String()
	}

	fmt.Fprintf(&sb, "Mean ratio %.2f:1, median %.2f:1, max severity %.2f\n\n",
		r.Summary.MeanRatio, r.Summary.MedianRatio, r.Summary.MaxScore)

	table := NewTable([]string{"X", "Y", "RATIO", "SCORE", "COLOURS"})
	for col := range 4 {
		table.SetAlignRight(col)
	}
	for _, res := range r.Results {
		table.AddRow([]string{
			strconv.Itoa(res.X),
			strconv.Itoa(res.Y),
			fmt.Sprintf("%.2f:1", res.Ratio),
			fmt.Sprintf("%.2f", res.Score),
			formatColours(res.Colors, showPreview),
		})
	}
	sb.WriteString(table.Render())
	return sb.String()
}

// formatReportHex renders one "x,y ratio colours" line per result.
func formatReportHex(r *contrast.Report) string {
	var sb strings.Builder
	for _, res := range r.Results {
		fmt.Fprintf(&sb, "%d,%d %.2f %s\n", res.X, res.Y, res.Ratio, formatColours(res.Colors, false))
	}
	return sb.String()
}

// formatColours joins hex codes, with swatches when showPreview is set.
func formatColours(colors []colour.RGB, showPreview bool) string {
	parts := make([]string, len(colors))
	for i, c := range colors {
		if showPreview {
			parts[i] = colour.FormatColourWithPreview(c, 2)
		} else {
			parts[i] = c.Hex()
		}
	}
	return strings.Join(parts, " ")
}

// formatPair renders a single pair evaluation.
func formatPair(res contrast.Result, showPreview bool) string {
	var sb strings.Builder

	status := colour.ColourString(passColour, "pass")
	if !res.Compliant {
		status = colour.ColourString(failColour, "FAIL")
	}

	table := NewTable([]string{"BACKGROUND", "TEXT", "RATIO", "SCORE", "AA"})
	table.AddRow([]string{
		res.Colors[0].Hex(),
		res.Colors[1].Hex(),
		fmt.Sprintf("%.2f:1", res.Ratio),
		fmt.Sprintf("%.2f", res.Score),
		status,
	})
	sb.WriteString(table.Render())

	if showPreview {
		sb.WriteString("\n")
		sb.WriteString(colour.PairPreview(res.Colors[0], res.Colors[1], "The quick brown fox"))
		sb.WriteString("\n")
	}
	return sb.String()
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
