package contrast

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/ulikunitz/xz"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/contrastlens/internal/security"
)

// Format is a report serialisation format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrUnsupportedFormat is returned for unknown report formats.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// Summary aggregates the ratios and scores of a result set.
type Summary struct {
	Count       int     `json:"count" yaml:"count"`
	MeanRatio   float64 `json:"mean_ratio" yaml:"mean_ratio"`
	MedianRatio float64 `json:"median_ratio" yaml:"median_ratio"`
	MeanScore   float64 `json:"mean_score" yaml:"mean_score"`
	MaxScore    float64 `json:"max_score" yaml:"max_score"`
}

// Report is the outcome of analysing one bitmap. Total always counts every
// failing block; Results and Summary may be narrowed by Filtered.
type Report struct {
	Source      string    `json:"source,omitempty" yaml:"source,omitempty"`
	Width       int       `json:"width" yaml:"width"`
	Height      int       `json:"height" yaml:"height"`
	BlockSize   int       `json:"block_size" yaml:"block_size"`
	Total       int       `json:"total" yaml:"total"`
	Threshold   float64   `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Results     []Result  `json:"results" yaml:"results"`
	Summary     Summary   `json:"summary" yaml:"summary"`
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}

// NewReport builds a report and its summary from analysis results.
func NewReport(width, height, blockSize int, results []Result) *Report {
	if results == nil {
		results = make([]Result, 0)
	}
	return &Report{
		Width:       width,
		Height:      height,
		BlockSize:   blockSize,
		Total:       len(results),
		Results:     results,
		Summary:     Summarize(results),
		GeneratedAt: time.Now().UTC(),
	}
}

// Filtered returns a copy of the report keeping only results at or above
// threshold. Total is left unchanged.
func (r *Report) Filtered(threshold float64) *Report {
	out := *r
	out.Threshold = threshold
	out.Results = Filter(r.Results, threshold)
	out.Summary = Summarize(out.Results)
	return &out
}

// Summarize computes aggregate statistics. An empty input yields a zero Summary.
func Summarize(results []Result) Summary {
	if len(results) == 0 {
		return Summary{}
	}

	ratios := make([]float64, len(results))
	scores := make([]float64, len(results))
	for i, r := range results {
		ratios[i] = r.Ratio
		scores[i] = r.Score
	}

	sorted := slices.Clone(ratios)
	slices.Sort(sorted)

	return Summary{
		Count:       len(results),
		MeanRatio:   stat.Mean(ratios, nil),
		MedianRatio: median(sorted),
		MeanScore:   stat.Mean(scores, nil),
		MaxScore:    floats.Max(scores),
	}
}

// median returns the middle of sorted, averaging the two middle values for
// an even count. stat.Quantile picks one of them instead.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return stat.Mean(sorted[n/2-1:n/2+1], nil)
}

// ParseFormat parses a format name. "yml" is accepted as YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// FormatFromPath picks a format from a file name, ignoring a trailing .xz.
// Anything that is not .yaml or .yml is JSON.
func FormatFromPath(path string) Format {
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(strings.ToLower(path), ".xz")))
	if ext == ".yaml" || ext == ".yml" {
		return FormatYAML
	}
	return FormatJSON
}

// WriteReport encodes r to w.
func WriteReport(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ReadReport decodes a report from r.
func ReadReport(r io.Reader, format Format) (*Report, error) {
	var report Report
	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&report); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&report); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if report.Results == nil {
		report.Results = make([]Result, 0)
	}
	return &report, nil
}

// SaveReport writes r to path. Paths ending in .xz are xz-compressed.
func SaveReport(path string, r *Report) error {
	f, err := os.Create(path) // #nosec G304 - User-specified output path
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	format := FormatFromPath(path)
	if !strings.HasSuffix(strings.ToLower(path), ".xz") {
		if err := WriteReport(f, r, format); err != nil {
			return err
		}
		return f.Close()
	}

	xw, err := xz.NewWriter(f)
	if err != nil {
		return fmt.Errorf("failed to create xz writer: %w", err)
	}
	if err := WriteReport(xw, r, format); err != nil {
		return err
	}
	if err := xw.Close(); err != nil {
		return fmt.Errorf("failed to finish xz stream: %w", err)
	}
	return f.Close()
}

// LoadReport reads a report written by SaveReport. At most maxBytes of
// decoded data are read.
func LoadReport(path string, maxBytes int64) (*Report, error) {
	f, err := os.Open(path) // #nosec G304 - User-specified report path
	if err != nil {
		return nil, fmt.Errorf("failed to open report file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open xz stream: %w", err)
		}
		r = xr
	}

	return ReadReport(security.NewLimitedReader(r, maxBytes), FormatFromPath(path))
}
