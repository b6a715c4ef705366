package efficiency

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/LeonardoBeccarini/agrisense/internal/logging"
)

// Benchmarks è il valore di riferimento per metrica. Immutabile: si costruisce
// una volta all'avvio e si passa per valore all'Engine.
type Benchmarks struct {
	values [numMetrics]float64
	source string
}

const SourceDefaults = "defaults"

// colonne del dataset storico
var benchmarkColumns = map[string]Metric{
	"Yield_per_Acre":        YieldPerAcre,
	"Water_Efficiency":      WaterEfficiency,
	"Fertilizer_Efficiency": FertilizerEfficiency,
	"Pesticide_Efficiency":  PesticideEfficiency,
	"Input_Efficiency":      InputEfficiency,
}

func DefaultBenchmarks() Benchmarks {
	var b Benchmarks
	b.values[YieldPerAcre] = 0.15
	b.values[WaterEfficiency] = 0.0005
	b.values[FertilizerEfficiency] = 5.0
	b.values[PesticideEfficiency] = 10.0
	b.values[InputEfficiency] = 0.0001
	b.source = SourceDefaults
	return b
}

// NewBenchmarks builds a set from explicit values. Non-benchmarked metrics are rejected.
func NewBenchmarks(values map[Metric]float64, source string) (Benchmarks, error) {
	var b Benchmarks
	for m, v := range values {
		if !m.Benchmarked() {
			return Benchmarks{}, fmt.Errorf("invalid benchmark metric %s", m)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Benchmarks{}, fmt.Errorf("invalid benchmark for %s: %v", m, v)
		}
		b.values[m] = v
	}
	b.source = source
	return b, nil
}

// Get returns the benchmark for m; ok is false for metrics outside the set.
func (b Benchmarks) Get(m Metric) (float64, bool) {
	if !m.Benchmarked() {
		return 0, false
	}
	return b.values[m], true
}

func (b Benchmarks) Source() string { return b.source }

func (b Benchmarks) Values() Values {
	out := make(Values, 5)
	for _, m := range BenchmarkedMetrics() {
		out[m] = b.values[m]
	}
	return out
}

func (b Benchmarks) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Values())
}

// ReadBenchmarks calcola la media di ogni colonna del dataset.
// Celle vuote o non numeriche vengono saltate.
func ReadBenchmarks(r io.Reader, source string) (Benchmarks, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return Benchmarks{}, fmt.Errorf("read benchmark header: %w", err)
	}
	idx := make(map[Metric]int, len(benchmarkColumns))
	for i, col := range header {
		if m, ok := benchmarkColumns[strings.TrimSpace(col)]; ok {
			idx[m] = i
		}
	}
	for col, m := range benchmarkColumns {
		if _, ok := idx[m]; !ok {
			return Benchmarks{}, fmt.Errorf("benchmark dataset missing column %s", col)
		}
	}

	var sum [numMetrics]float64
	var n [numMetrics]int
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Benchmarks{}, fmt.Errorf("read benchmark row: %w", err)
		}
		for m, i := range idx {
			if i >= len(rec) {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			sum[m] += v
			n[m]++
		}
	}

	vals := make(map[Metric]float64, len(idx))
	for m := range idx {
		if n[m] == 0 {
			return Benchmarks{}, fmt.Errorf("benchmark column %s has no numeric rows", m)
		}
		vals[m] = sum[m] / float64(n[m])
	}
	return NewBenchmarks(vals, source)
}

// LoadBenchmarks carica il dataset da path; se manca o è illeggibile usa i default.
func LoadBenchmarks(path string) Benchmarks {
	log := logging.Component("efficiency")
	if strings.TrimSpace(path) == "" {
		return DefaultBenchmarks()
	}
	f, err := os.Open(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("efficiency: benchmark dataset unavailable, using defaults")
		return DefaultBenchmarks()
	}
	defer f.Close()

	b, err := ReadBenchmarks(f, path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("efficiency: could not load benchmarks, using defaults")
		return DefaultBenchmarks()
	}
	log.Info().Str("path", path).Msg("efficiency: benchmarks loaded")
	return b
}
