package efficiency

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Metric identifica una metrica di efficienza. L'insieme è chiuso.
type Metric int

const (
	YieldPerAcre Metric = iota
	WaterEfficiency
	FertilizerEfficiency
	PesticideEfficiency
	InputEfficiency
	FertilizerPerAcre
	PesticidePerAcre
	WaterPerAcre

	numMetrics
)

// kind decide la regola di normalizzazione.
type kind int

const (
	kindBenchmarked kind = iota
	kindUsage
)

var metricTable = [numMetrics]struct {
	name   string
	kind   kind
	weight float64
}{
	YieldPerAcre:         {"yield_per_acre", kindBenchmarked, 0.25},
	WaterEfficiency:      {"water_efficiency", kindBenchmarked, 0.20},
	FertilizerEfficiency: {"fertilizer_efficiency", kindBenchmarked, 0.20},
	PesticideEfficiency:  {"pesticide_efficiency", kindBenchmarked, 0.15},
	InputEfficiency:      {"input_efficiency", kindBenchmarked, 0.20},
	FertilizerPerAcre:    {"fertilizer_per_acre", kindUsage, 0},
	PesticidePerAcre:     {"pesticide_per_acre", kindUsage, 0},
	WaterPerAcre:         {"water_per_acre", kindUsage, 0},
}

// AllMetrics in the order they are computed and reported.
func AllMetrics() []Metric {
	out := make([]Metric, numMetrics)
	for i := range out {
		out[i] = Metric(i)
	}
	return out
}

// BenchmarkedMetrics returns the five efficiency metrics that carry a benchmark.
func BenchmarkedMetrics() []Metric {
	return []Metric{YieldPerAcre, WaterEfficiency, FertilizerEfficiency, PesticideEfficiency, InputEfficiency}
}

func (m Metric) valid() bool { return m >= 0 && m < numMetrics }

func (m Metric) String() string {
	if !m.valid() {
		return fmt.Sprintf("metric(%d)", int(m))
	}
	return metricTable[m].name
}

// Benchmarked reports whether m is normalized against the benchmark set.
func (m Metric) Benchmarked() bool {
	return m.valid() && metricTable[m].kind == kindBenchmarked
}

// Weight is the metric's share of the final score; 0 for unweighted metrics.
func (m Metric) Weight() float64 {
	if !m.valid() {
		return 0
	}
	return metricTable[m].weight
}

func ParseMetric(s string) (Metric, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, row := range metricTable {
		if row.name == s {
			return Metric(i), nil
		}
	}
	return 0, fmt.Errorf("invalid metric %q", s)
}

func (m Metric) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, fmt.Errorf("invalid metric %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *Metric) UnmarshalText(b []byte) error {
	v, err := ParseMetric(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Values associa metriche a valori (metriche grezze o punteggi normalizzati).
// In JSON le chiavi sono i nomi snake_case.
type Values map[Metric]float64

// Keys returns the metrics present, in enumeration order.
func (v Values) Keys() []Metric {
	keys := make([]Metric, 0, len(v))
	for m := range v {
		keys = append(keys, m)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func (v Values) MarshalJSON() ([]byte, error) {
	out := make(map[string]float64, len(v))
	for m, x := range v {
		out[m.String()] = x
	}
	return json.Marshal(out)
}

func (v *Values) UnmarshalJSON(b []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(Values, len(raw))
	for k, x := range raw {
		m, err := ParseMetric(k)
		if err != nil {
			return err
		}
		out[m] = x
	}
	*v = out
	return nil
}
