// Package efficiency valuta l'efficienza delle risorse di una fattoria:
// metriche grezze, normalizzazione rispetto ai benchmark, punteggio pesato,
// rating e raccomandazioni.
package efficiency

import (
	"fmt"
	"math"
)

const DegradedMarker = "Fallback calculation used"

// Result è la valutazione completa.
type Result struct {
	RawMetrics        Values     `json:"efficiency_metrics"`
	NormalizedScores  Values     `json:"normalized_scores"`
	FinalScore        float64    `json:"final_efficiency_score"`
	PerformanceRating Rating     `json:"performance_rating"`
	Recommendations   []string   `json:"recommendations"`
	Benchmarks        Benchmarks `json:"benchmarks"`
	// Error è valorizzato solo nel risultato degradato.
	Error string `json:"error,omitempty"`
}

// Outcome carries either a full Result or the degraded one together with the
// reason. Callers branch on Degraded(); the Result is always safe to serialize.
type Outcome struct {
	Result Result
	Reason error
}

func (o Outcome) Degraded() bool { return o.Reason != nil }

// Engine è puro: nessuno stato mutabile oltre ai benchmark iniettati.
type Engine struct {
	bench Benchmarks
}

func NewEngine(bench Benchmarks) *Engine {
	return &Engine{bench: bench}
}

func (e *Engine) Benchmarks() Benchmarks { return e.bench }

// Evaluate scores one input. Non-finite fields are coerced to 0 first; if any
// derived value is still non-finite (overflow) the degraded result is returned.
func (e *Engine) Evaluate(in Input) Outcome {
	in = in.Sanitize()

	raw := Calculate(in)
	if m, bad := nonFinite(raw); bad {
		return e.degraded(fmt.Errorf("non-finite raw metric %s", m))
	}
	scores := Normalize(raw, e.bench)
	if m, bad := nonFinite(scores); bad {
		return e.degraded(fmt.Errorf("non-finite score for %s", m))
	}

	final := FinalScore(scores)
	return Outcome{Result: Result{
		RawMetrics:        raw,
		NormalizedScores:  scores,
		FinalScore:        final,
		PerformanceRating: RatingFor(final),
		Recommendations:   Recommend(raw, scores),
		Benchmarks:        e.bench,
	}}
}

// Trends scores every record and classifies the series.
// A degraded record contributes a score of 0.
func (e *Engine) Trends(history []Input) Trend {
	scores := make([]float64, 0, len(history))
	for _, in := range history {
		scores = append(scores, e.Evaluate(in).Result.FinalScore)
	}
	return AnalyzeScores(scores)
}

// Compare computes the raw metrics of in and compares them with the benchmarks.
func (e *Engine) Compare(in Input) map[Metric]Comparison {
	return CompareWithBenchmarks(Calculate(in.Sanitize()), e.bench)
}

func (e *Engine) degraded(reason error) Outcome {
	return Outcome{
		Result: Result{
			RawMetrics:        Values{},
			NormalizedScores:  Values{},
			FinalScore:        0,
			PerformanceRating: RatingUnknown,
			Recommendations:   []string{AdviceDegraded},
			Benchmarks:        e.bench,
			Error:             DegradedMarker,
		},
		Reason: reason,
	}
}

func nonFinite(v Values) (Metric, bool) {
	for _, m := range v.Keys() {
		if x := v[m]; math.IsNaN(x) || math.IsInf(x, 0) {
			return m, true
		}
	}
	return 0, false
}
