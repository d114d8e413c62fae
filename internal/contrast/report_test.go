package contrast

import (
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestSummarize(t *testing.T) {
	if got := Summarize(nil); got != (Summary{}) {
		t.Errorf("Summarize(nil) = %+v, want zero", got)
	}

	results := []Result{
		{Ratio: 4, Score: 0.1},
		{Ratio: 1, Score: 0.9},
		{Ratio: 2, Score: 0.5},
	}
	got := Summarize(results)

	if got.Count != 3 {
		t.Errorf("Count = %d, want 3", got.Count)
	}
	if math.Abs(got.MeanRatio-7.0/3.0) > 1e-9 {
		t.Errorf("MeanRatio = %v, want %v", got.MeanRatio, 7.0/3.0)
	}
	if got.MedianRatio != 2 {
		t.Errorf("MedianRatio = %v, want 2", got.MedianRatio)
	}
	if math.Abs(got.MeanScore-0.5) > 1e-9 {
		t.Errorf("MeanScore = %v, want 0.5", got.MeanScore)
	}
	if got.MaxScore != 0.9 {
		t.Errorf("MaxScore = %v, want 0.9", got.MaxScore)
	}
	if results[0].Ratio != 4 {
		t.Error("Summarize modified its input")
	}
}

func TestSummarizeMedian(t *testing.T) {
	tests := []struct {
		name   string
		ratios []float64
		want   float64
	}{
		{"single", []float64{2.2}, 2.2},
		{"even pair", []float64{2.5, 1.5}, 2.0},
		{"odd", []float64{2.9, 1.1, 2.0}, 2.0},
		{"even unsorted", []float64{2.8, 1.2, 2.4, 1.6}, 2.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make([]Result, len(tt.ratios))
			for i, r := range tt.ratios {
				results[i] = Result{Ratio: r}
			}
			if got := Summarize(results).MedianRatio; math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("MedianRatio = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReportFiltered(t *testing.T) {
	r := NewReport(32, 32, 16, []Result{{Ratio: 1.2, Score: 0.9}, {Ratio: 2.5, Score: 0.2}})

	got := r.Filtered(2.0)
	if got.Total != 2 {
		t.Errorf("Filtered(2.0) Total = %d, want 2", got.Total)
	}
	if len(got.Results) != 1 || got.Summary.Count != 1 {
		t.Errorf("Filtered(2.0) kept %d results, Count = %d, want 1 and 1", len(got.Results), got.Summary.Count)
	}
	if got.Threshold != 2.0 {
		t.Errorf("Threshold = %v, want 2.0", got.Threshold)
	}
	if len(r.Results) != 2 || r.Threshold != 0 {
		t.Error("Filtered modified the original report")
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "json", want: FormatJSON},
		{in: "YAML", want: FormatYAML},
		{in: " yml ", want: FormatYAML},
		{in: "xml", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"report.json":    FormatJSON,
		"report.yaml":    FormatYAML,
		"report.YML":     FormatYAML,
		"report.yaml.xz": FormatYAML,
		"report.json.xz": FormatJSON,
		"report":         FormatJSON,
	}

	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestWriteReportYAML(t *testing.T) {
	var sb strings.Builder
	r := NewReport(16, 16, 16, Analyze(stripes(16, 16), 16))
	if err := WriteReport(&sb, r, FormatYAML); err != nil {
		t.Fatalf("WriteReport() error = %v", err)
	}

	out := sb.String()
	for _, want := range []string{"block_size: 16", "results:", "mean_ratio:"} {
		if !strings.Contains(out, want) {
			t.Errorf("YAML output missing %q:\n%s", want, out)
		}
	}
}

func TestSaveLoadReport(t *testing.T) {
	report := NewReport(38, 38, 16, Analyze(stripes(38, 38), 16))
	report.Source = "stripes.png"

	for _, name := range []string{"report.json", "report.yaml", "report.json.xz", "report.yaml.xz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			if err := SaveReport(path, report); err != nil {
				t.Fatalf("SaveReport() error = %v", err)
			}

			loaded, err := LoadReport(path, 1<<20)
			if err != nil {
				t.Fatalf("LoadReport() error = %v", err)
			}
			if loaded.Source != report.Source || loaded.Total != report.Total {
				t.Errorf("loaded Source=%q Total=%d, want %q %d", loaded.Source, loaded.Total, report.Source, report.Total)
			}
			if !reflect.DeepEqual(loaded.Results, report.Results) {
				t.Error("loaded results differ")
			}
			if !loaded.GeneratedAt.Equal(report.GeneratedAt) {
				t.Errorf("GeneratedAt = %v, want %v", loaded.GeneratedAt, report.GeneratedAt)
			}
		})
	}
}

func TestLoadReportSizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := SaveReport(path, NewReport(38, 38, 16, Analyze(stripes(38, 38), 16))); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	if info, err := os.Stat(path); err != nil || info.Size() < 64 {
		t.Fatalf("unexpected report file: %v", err)
	}

	if _, err := LoadReport(path, 32); err == nil {
		t.Error("LoadReport() with tiny limit succeeded, want error")
	}
}
