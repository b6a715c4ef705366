package efficiency

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestCalculateZeroGuards(t *testing.T) {
	raw := Calculate(Input{FarmArea: 5, Yield: 10})

	want := map[Metric]float64{
		YieldPerAcre:         2.0,
		WaterEfficiency:      0,
		FertilizerEfficiency: 0,
		PesticideEfficiency:  0,
		InputEfficiency:      0,
		FertilizerPerAcre:    0,
		PesticidePerAcre:     0,
		WaterPerAcre:         0,
	}
	for m, w := range want {
		if got := raw[m]; got != w {
			t.Errorf("%s = %v, want %v", m, got, w)
		}
	}
	if len(raw) != len(AllMetrics()) {
		t.Errorf("len(raw) = %d, want %d", len(raw), len(AllMetrics()))
	}
}

func TestCalculateZeroArea(t *testing.T) {
	raw := Calculate(Input{FarmArea: 0, FertilizerUsed: 3, PesticideUsed: 2, WaterUsage: 100, Yield: 10})
	for _, m := range []Metric{YieldPerAcre, FertilizerPerAcre, PesticidePerAcre, WaterPerAcre} {
		if raw[m] != 0 {
			t.Errorf("%s = %v with zero area, want 0", m, raw[m])
		}
	}
	if raw[FertilizerEfficiency] == 0 {
		t.Error("fertilizer_efficiency should not depend on farm area")
	}
}

func TestCalculateCompositeInput(t *testing.T) {
	raw := Calculate(Input{FarmArea: 10, FertilizerUsed: 2, PesticideUsed: 5, WaterUsage: 50000, Yield: 4})
	// 2 + 5/1000 + 50000/10000 = 7.005
	if want := 4 / 7.005; !approx(raw[InputEfficiency], want) {
		t.Errorf("input_efficiency = %v, want %v", raw[InputEfficiency], want)
	}
	if !approx(raw[WaterPerAcre], 5000) {
		t.Errorf("water_per_acre = %v, want 5000", raw[WaterPerAcre])
	}
}

func TestNormalizeCapsAtOne(t *testing.T) {
	scores := Normalize(Values{YieldPerAcre: 100}, DefaultBenchmarks())
	if scores[YieldPerAcre] != 1.0 {
		t.Errorf("normalized yield_per_acre = %v, want exactly 1.0", scores[YieldPerAcre])
	}
}

func TestNormalizeRules(t *testing.T) {
	bench, err := NewBenchmarks(map[Metric]float64{
		YieldPerAcre:    0.2,
		WaterEfficiency: 0,
	}, "test")
	if err != nil {
		t.Fatal(err)
	}
	scores := Normalize(Values{
		YieldPerAcre:         0.1,
		WaterEfficiency:      5,
		FertilizerEfficiency: 3, // benchmark missing -> 0
		FertilizerPerAcre:    4,
		WaterPerAcre:         250,
		Metric(99):           0.4,
	}, bench)

	tests := []struct {
		m    Metric
		want float64
	}{
		{YieldPerAcre, 0.5},
		{WaterEfficiency, 0},
		{FertilizerEfficiency, 0},
		{FertilizerPerAcre, 0.4},
		{WaterPerAcre, 1},
		{Metric(99), 0.4},
	}
	for _, tt := range tests {
		if got := scores[tt.m]; !approx(got, tt.want) {
			t.Errorf("normalized %s = %v, want %v", tt.m, got, tt.want)
		}
	}
}

func TestFinalScoreWorkedExample(t *testing.T) {
	scores := Values{
		YieldPerAcre:         1.0,
		WaterEfficiency:      0.5,
		FertilizerEfficiency: 0.5,
		PesticideEfficiency:  0.5,
		InputEfficiency:      0.5,
		WaterPerAcre:         1.0, // unweighted, ignored
	}
	got := FinalScore(scores)
	if got != 0.625 {
		t.Errorf("FinalScore = %v, want 0.625", got)
	}
	if r := RatingFor(got); r != RatingGood {
		t.Errorf("RatingFor(%v) = %q, want Good", got, r)
	}
}

func TestFinalScorePartialAndEmpty(t *testing.T) {
	if got := FinalScore(Values{}); got != 0 {
		t.Errorf("FinalScore(empty) = %v, want 0", got)
	}
	if got := FinalScore(Values{WaterPerAcre: 1}); got != 0 {
		t.Errorf("FinalScore(unweighted only) = %v, want 0", got)
	}
	// only yield (0.25) and pesticide (0.15) present: (0.25*0.8 + 0.15*0.4)/0.4 = 0.65
	if got := FinalScore(Values{YieldPerAcre: 0.8, PesticideEfficiency: 0.4}); got != 0.65 {
		t.Errorf("FinalScore(partial) = %v, want 0.65", got)
	}
}

func TestRatingBoundaries(t *testing.T) {
	tests := []struct {
		score float64
		want  Rating
	}{
		{1.0, RatingExcellent},
		{0.8, RatingExcellent},
		{0.799, RatingGood},
		{0.6, RatingGood},
		{0.4, RatingModerate},
		{0.2, RatingPoor},
		{0.199, RatingVeryPoor},
		{0, RatingVeryPoor},
	}
	for _, tt := range tests {
		if got := RatingFor(tt.score); got != tt.want {
			t.Errorf("RatingFor(%v) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestEvaluate(t *testing.T) {
	e := NewEngine(DefaultBenchmarks())

	out := e.Evaluate(Input{FarmArea: 10, FertilizerUsed: 2, PesticideUsed: 5, WaterUsage: 50000, Yield: 4})
	if out.Degraded() {
		t.Fatalf("Evaluate degraded: %v", out.Reason)
	}
	r := out.Result
	if r.FinalScore != 0.574 {
		t.Errorf("FinalScore = %v, want 0.574", r.FinalScore)
	}
	if r.PerformanceRating != RatingModerate {
		t.Errorf("PerformanceRating = %q, want Moderate", r.PerformanceRating)
	}
	wantRecs := []string{
		AdviceDripIrrigation,
		AdviceSoilMoisture,
		AdviceSoilTesting,
		AdviceReduceFertilizer,
		AdviceIPM,
	}
	if diff := cmp.Diff(wantRecs, r.Recommendations); diff != "" {
		t.Errorf("Recommendations mismatch (-want +got):\n%s", diff)
	}
	if r.Error != "" {
		t.Errorf("Error = %q on a full result", r.Error)
	}
}

func TestEvaluateExcellent(t *testing.T) {
	e := NewEngine(DefaultBenchmarks())
	r := e.Evaluate(Input{FarmArea: 1, FertilizerUsed: 0.1, PesticideUsed: 0.01, WaterUsage: 100, Yield: 10}).Result
	if r.FinalScore != 1.0 || r.PerformanceRating != RatingExcellent {
		t.Errorf("got score %v rating %q, want 1 Excellent", r.FinalScore, r.PerformanceRating)
	}
	if diff := cmp.Diff([]string{AdviceMaintain}, r.Recommendations); diff != "" {
		t.Errorf("Recommendations mismatch (-want +got):\n%s", diff)
	}
}

func TestEvaluateIdempotent(t *testing.T) {
	e := NewEngine(DefaultBenchmarks())
	in := Input{FarmArea: 3.3, FertilizerUsed: 0.7, PesticideUsed: 12, WaterUsage: 9100, Yield: 1.9}

	a, err := json.Marshal(e.Evaluate(in).Result)
	if err != nil {
		t.Fatal(err)
	}
	b, err := json.Marshal(e.Evaluate(in).Result)
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Errorf("Evaluate not idempotent:\n%s\n%s", a, b)
	}
}

func TestEvaluateBounds(t *testing.T) {
	e := NewEngine(DefaultBenchmarks())
	inputs := []Input{
		{FarmArea: 1},
		{FarmArea: 0.01, Yield: 1000},
		{FarmArea: 500, FertilizerUsed: 90, PesticideUsed: 4000, WaterUsage: 1e7, Yield: 3},
		{FarmArea: 2, FertilizerUsed: 1e-6, PesticideUsed: 1e-6, WaterUsage: 1e-6, Yield: 50},
	}
	for _, in := range inputs {
		r := e.Evaluate(in).Result
		for m, s := range r.NormalizedScores {
			if s < 0 || s > 1 {
				t.Errorf("%+v: normalized %s = %v out of [0,1]", in, m, s)
			}
		}
		if r.FinalScore < 0 || r.FinalScore > 1 {
			t.Errorf("%+v: final score %v out of [0,1]", in, r.FinalScore)
		}
	}
}

func TestEvaluateDegradedOnOverflow(t *testing.T) {
	e := NewEngine(DefaultBenchmarks())
	out := e.Evaluate(Input{FarmArea: 1, FertilizerUsed: 1, PesticideUsed: 1, WaterUsage: 1e-300, Yield: 1e308})
	if !out.Degraded() {
		t.Fatal("Degraded() = false, want true")
	}
	r := out.Result
	if r.PerformanceRating != RatingUnknown || r.FinalScore != 0 {
		t.Errorf("got rating %q score %v, want Unknown 0", r.PerformanceRating, r.FinalScore)
	}
	if len(r.RawMetrics) != 0 || len(r.NormalizedScores) != 0 {
		t.Errorf("degraded result should carry empty metrics, got %v / %v", r.RawMetrics, r.NormalizedScores)
	}
	if diff := cmp.Diff([]string{AdviceDegraded}, r.Recommendations); diff != "" {
		t.Errorf("Recommendations mismatch (-want +got):\n%s", diff)
	}
	if r.Error != DegradedMarker {
		t.Errorf("Error = %q, want %q", r.Error, DegradedMarker)
	}
}

func TestEvaluateSanitizesNonFinite(t *testing.T) {
	e := NewEngine(DefaultBenchmarks())
	out := e.Evaluate(Input{FarmArea: 5, WaterUsage: math.NaN(), FertilizerUsed: math.Inf(1), Yield: 10})
	if out.Degraded() {
		t.Fatalf("Evaluate degraded: %v", out.Reason)
	}
	if got := out.Result.RawMetrics[YieldPerAcre]; got != 2 {
		t.Errorf("yield_per_acre = %v, want 2", got)
	}
	if got := out.Result.RawMetrics[WaterEfficiency]; got != 0 {
		t.Errorf("water_efficiency = %v, want 0", got)
	}
}

func TestResultJSONShape(t *testing.T) {
	e := NewEngine(DefaultBenchmarks())
	b, err := json.Marshal(e.Evaluate(Input{FarmArea: 5, Yield: 10}).Result)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]json.RawMessage
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"efficiency_metrics", "normalized_scores", "final_efficiency_score", "performance_rating", "recommendations", "benchmarks"} {
		if _, ok := got[k]; !ok {
			t.Errorf("missing key %q in %s", k, b)
		}
	}
	if _, ok := got["error"]; ok {
		t.Errorf("unexpected error key in full result: %s", b)
	}

	var metrics map[string]float64
	if err := json.Unmarshal(got["efficiency_metrics"], &metrics); err != nil {
		t.Fatal(err)
	}
	if metrics["yield_per_acre"] != 2 || len(metrics) != 8 {
		t.Errorf("efficiency_metrics = %v", metrics)
	}
	var bench map[string]float64
	if err := json.Unmarshal(got["benchmarks"], &bench); err != nil {
		t.Fatal(err)
	}
	if len(bench) != 5 || bench["water_efficiency"] != 0.0005 {
		t.Errorf("benchmarks = %v", bench)
	}
}

func TestCompare(t *testing.T) {
	e := NewEngine(DefaultBenchmarks())
	cmpRes := e.Compare(Input{FarmArea: 10, FertilizerUsed: 2, PesticideUsed: 5, WaterUsage: 50000, Yield: 4})

	if len(cmpRes) != 5 {
		t.Fatalf("len = %d, want 5 benchmarked metrics", len(cmpRes))
	}
	y := cmpRes[YieldPerAcre]
	if y.Performance != "above" || !approx(y.PercentageOfBenchmark, 0.4/0.15*100) {
		t.Errorf("yield comparison = %+v", y)
	}
	f := cmpRes[FertilizerEfficiency]
	if f.Performance != "below" || !approx(f.PercentageOfBenchmark, 40) {
		t.Errorf("fertilizer comparison = %+v", f)
	}
	if _, ok := cmpRes[WaterPerAcre]; ok {
		t.Error("usage metrics must not be compared")
	}
}

func TestCompareSkipsZeroBenchmark(t *testing.T) {
	bench, _ := NewBenchmarks(map[Metric]float64{YieldPerAcre: 0, WaterEfficiency: 0.001}, "test")
	got := CompareWithBenchmarks(Values{YieldPerAcre: 2, WaterEfficiency: 0.001}, bench)
	if _, ok := got[YieldPerAcre]; ok {
		t.Error("metric with zero benchmark should be skipped")
	}
	if w := got[WaterEfficiency]; w.Performance != "below" || !approx(w.PercentageOfBenchmark, 100) {
		t.Errorf("water comparison = %+v, want 100%% below", w)
	}
}
