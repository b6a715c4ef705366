package efficiency

import "math"

// scala fissa per le metriche d'uso *_per_acre
const usageScale = 10.0

// Normalize maps each raw metric onto [0,1].
//
// Benchmarked metrics are divided by their benchmark (0 when the benchmark is
// not positive). Usage metrics are divided by a fixed scale of 10 and, like the
// others, read "higher is better". Anything else is capped at 1 as is.
func Normalize(raw Values, bench Benchmarks) Values {
	out := make(Values, len(raw))
	for m, v := range raw {
		out[m] = normalizeOne(m, v, bench)
	}
	return out
}

func normalizeOne(m Metric, v float64, bench Benchmarks) float64 {
	if b, ok := bench.Get(m); ok {
		if b > 0 {
			return math.Min(1, v/b)
		}
		return 0
	}
	if m.valid() && metricTable[m].kind == kindUsage {
		return math.Min(1, v/usageScale)
	}
	return math.Min(1, v)
}
