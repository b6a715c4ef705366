package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/LeonardoBeccarini/agrisense/internal/services/efficiency"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// render scrive v nel formato richiesto; text delega a fn.
func render(w io.Writer, format string, v any, text func(*printer)) error {
	switch strings.ToLower(format) {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		// passa da JSON per riusare i nomi e i MarshalJSON dei tipi
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(b, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	case formatText, "":
		p := &printer{w: w}
		text(p)
		return p.err
	default:
		return fmt.Errorf("invalid output format %q (text|json|yaml)", format)
	}
}

type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) values(title string, v efficiency.Values) {
	p.printf("%s:\n", title)
	for _, m := range v.Keys() {
		p.printf("  %-22s %.6g\n", m, v[m])
	}
}

func (p *printer) result(r efficiency.Result) {
	p.printf("Score:   %.3f (%s)\n", r.FinalScore, r.PerformanceRating)
	if r.Error != "" {
		p.printf("Error:   %s\n", r.Error)
	}
	if len(r.RawMetrics) > 0 {
		p.values("Metrics", r.RawMetrics)
		p.values("Normalized", r.NormalizedScores)
	}
	if len(r.Recommendations) > 0 {
		p.printf("Recommendations:\n")
		for _, rec := range r.Recommendations {
			p.printf("  - %s\n", rec)
		}
	}
}

func (p *printer) trend(t efficiency.Trend) {
	p.printf("Trend:   %s\n", t.Trend)
	if t.Message != "" {
		p.printf("Message: %s\n", t.Message)
		return
	}
	p.printf("Recent:  %.3f\n", t.RecentAverage)
	p.printf("Earlier: %.3f\n", t.EarlierAverage)
	p.printf("Change:  %+.1f%%\n", t.ImprovementPercentage)
	scores := make([]string, len(t.EfficiencyScores))
	for i, s := range t.EfficiencyScores {
		scores[i] = fmt.Sprintf("%.3f", s)
	}
	p.printf("Scores:  %s\n", strings.Join(scores, " "))
}

func (p *printer) benchmarks(b efficiency.Benchmarks) {
	p.printf("Source:  %s\n", b.Source())
	p.values("Benchmarks", b.Values())
}

func (p *printer) comparison(c map[efficiency.Metric]efficiency.Comparison) {
	metrics := make([]efficiency.Metric, 0, len(c))
	for m := range c {
		metrics = append(metrics, m)
	}
	sort.Slice(metrics, func(i, j int) bool { return metrics[i] < metrics[j] })
	for _, m := range metrics {
		cmp := c[m]
		p.printf("%-22s %10.6g vs %-10.6g %6.1f%%  %s\n", m, cmp.FarmValue, cmp.Benchmark, cmp.PercentageOfBenchmark, cmp.Performance)
	}
}
