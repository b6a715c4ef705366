package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/LeonardoBeccarini/agrisense/internal/services/efficiency"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

var scoreArgs = []string{"--farm-area", "10", "--fertilizer", "500", "--pesticide", "50", "--water", "50000", "--yield", "2"}

func TestScoreJSON(t *testing.T) {
	out, err := run(t, append([]string{"score", "-o", "json"}, scoreArgs...)...)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Final  float64 `json:"final_efficiency_score"`
		Rating string  `json:"performance_rating"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	want := efficiency.NewEngine(efficiency.DefaultBenchmarks()).Evaluate(efficiency.Input{
		FarmArea: 10, FertilizerUsed: 500, PesticideUsed: 50, WaterUsage: 50000, Yield: 2,
	}).Result
	if got.Final != want.FinalScore || got.Rating != string(want.PerformanceRating) {
		t.Errorf("score = %v/%s, want %v/%s", got.Final, got.Rating, want.FinalScore, want.PerformanceRating)
	}
}

func TestScoreText(t *testing.T) {
	out, err := run(t, append([]string{"score"}, scoreArgs...)...)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Score:", "Metrics:", "water_efficiency", "Normalized:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestScoreRejects(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing area", []string{"score", "--water", "1"}, "farm-area"},
		{"zero area", []string{"score", "--farm-area", "0"}, "invalid farm_area"},
		{"negative", []string{"score", "--farm-area", "1", "--water", "-1"}, "non-negative"},
		{"bad format", []string{"score", "--farm-area", "1", "-o", "xml"}, "invalid output format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

const historyYAML = `
- {farm_area: 1, fertilizer_used: 100, pesticide_used: 10, water_usage: 1000, yield: 0.05}
- {farm_area: 1, fertilizer_used: 100, pesticide_used: 10, water_usage: 1000, yield: 0.05}
- {farm_area: 1, fertilizer_used: 100, pesticide_used: 10, water_usage: 1000, yield: 0.05}
- {farm_area: 1, fertilizer_used: 100, pesticide_used: 10, water_usage: 1000, yield: 0.15}
- {farm_area: 1, fertilizer_used: 100, pesticide_used: 10, water_usage: 1000, yield: 0.15}
- {farm_area: 1, fertilizer_used: 100, pesticide_used: 10, water_usage: 1000, yield: 0.15}
`

func TestTrend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.yaml")
	if err := os.WriteFile(path, []byte(historyYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "trend", "-f", path, "-o", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Trend  string    `yaml:"trend"`
		Scores []float64 `yaml:"efficiency_scores"`
	}
	if err := yaml.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got.Trend != string(efficiency.TrendImproving) || len(got.Scores) != 6 {
		t.Errorf("trend = %+v", got)
	}

	if _, err := run(t, "trend", "-f", filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestBenchmarks(t *testing.T) {
	out, err := run(t, "benchmarks")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Source:  "+efficiency.SourceDefaults) || !strings.Contains(out, "yield_per_acre") {
		t.Errorf("output:\n%s", out)
	}

	csv := filepath.Join(t.TempDir(), "bench.csv")
	data := "Yield_per_Acre,Water_Efficiency,Fertilizer_Efficiency,Pesticide_Efficiency,Input_Efficiency\n0.3,0.001,6,12,0.0002\n"
	if err := os.WriteFile(csv, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "benchmarks", "-f", csv, "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Source     string             `json:"source"`
		Benchmarks map[string]float64 `json:"benchmarks"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if got.Source != csv || got.Benchmarks["yield_per_acre"] != 0.3 {
		t.Errorf("benchmarks = %+v", got)
	}
}

func TestCompare(t *testing.T) {
	out, err := run(t, "compare", "--farm-area", "1", "--fertilizer", "100", "--pesticide", "10", "--water", "1000", "--yield", "0.3", "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]efficiency.Comparison
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if y := got["yield_per_acre"]; y.Performance != "above" || y.Benchmark != 0.15 {
		t.Errorf("yield comparison = %+v", y)
	}

	text, err := run(t, "compare", "--farm-area", "1", "--yield", "0.3")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "yield_per_acre") || !strings.Contains(text, "above") {
		t.Errorf("text output:\n%s", text)
	}
}
