package efficiency

type Comparison struct {
	FarmValue             float64 `json:"farm_value"`
	Benchmark             float64 `json:"benchmark"`
	PercentageOfBenchmark float64 `json:"percentage_of_benchmark"`
	Performance           string  `json:"performance"` // above|below
}

// CompareWithBenchmarks reports each benchmarked metric in raw against its
// reference. Metrics without a positive benchmark are left out.
func CompareWithBenchmarks(raw Values, bench Benchmarks) map[Metric]Comparison {
	out := make(map[Metric]Comparison)
	for m, v := range raw {
		b, ok := bench.Get(m)
		if !ok || b <= 0 {
			continue
		}
		pct := v / b * 100
		perf := "below"
		if pct > 100 {
			perf = "above"
		}
		out[m] = Comparison{FarmValue: v, Benchmark: b, PercentageOfBenchmark: pct, Performance: perf}
	}
	return out
}
