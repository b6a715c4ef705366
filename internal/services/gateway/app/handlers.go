package app

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/LeonardoBeccarini/agrisense/internal/logging"
	"github.com/LeonardoBeccarini/agrisense/internal/metrics"
	"github.com/LeonardoBeccarini/agrisense/internal/services/crop"
	"github.com/LeonardoBeccarini/agrisense/internal/services/efficiency"
)

func (g *Gateway) handleCalculateEfficiency(w http.ResponseWriter, r *http.Request) {
	var req EfficiencyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	out := g.deps.Engine.Evaluate(req.Input())
	metrics.EfficiencyScore.Observe(out.Result.FinalScore)
	if out.Degraded() {
		metrics.EfficiencyDegradedTotal.Inc()
		logging.Component("gateway").Warn().Err(out.Reason).Msg("gateway: degraded efficiency result")
	}
	respond(w, http.StatusOK, "Farm efficiency calculated", out.Result)
}

type benchmarkComparison struct {
	EfficiencyMetrics efficiency.Values                           `json:"efficiency_metrics"`
	Comparison        map[efficiency.Metric]efficiency.Comparison `json:"comparison"`
	BenchmarkSource   string                                      `json:"benchmark_source"`
}

func (g *Gateway) handleCompareBenchmarks(w http.ResponseWriter, r *http.Request) {
	var req EfficiencyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	in := req.Input()
	respond(w, http.StatusOK, "Benchmark comparison completed", benchmarkComparison{
		EfficiencyMetrics: efficiency.Calculate(in.Sanitize()),
		Comparison:        g.deps.Engine.Compare(in),
		BenchmarkSource:   g.deps.Engine.Benchmarks().Source(),
	})
}

func (g *Gateway) handleBenchmarks(w http.ResponseWriter, _ *http.Request) {
	b := g.deps.Engine.Benchmarks()
	respond(w, http.StatusOK, "Benchmarks retrieved", map[string]any{
		"benchmarks": b,
		"source":     b.Source(),
	})
}

func (g *Gateway) handleRecommendCrop(w http.ResponseWriter, r *http.Request) {
	var req CropRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	rec := g.deps.Crops.Recommend(r.Context(), req.Conditions())
	respond(w, http.StatusOK, "Crop recommendation generated", rec)
}

func (g *Gateway) handleCropRequirements(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "crop")))
	respond(w, http.StatusOK, "Crop requirements retrieved", map[string]any{
		"crop":         name,
		"requirements": crop.RequirementsFor(name),
	})
}

func (g *Gateway) handlePredictYield(w http.ResponseWriter, r *http.Request) {
	var req YieldRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	respond(w, http.StatusOK, "Yield prediction generated", g.deps.Yields.Predict(r.Context(), req.Input()))
}

func (g *Gateway) handleYieldPotential(w http.ResponseWriter, r *http.Request) {
	var req YieldPotentialRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	p := g.deps.Yields.Potential(r.Context(), req.Crop, req.input(req.Crop))
	respond(w, http.StatusOK, "Yield potential calculated", p)
}

func (g *Gateway) handleWorkflow(w http.ResponseWriter, r *http.Request) {
	var req WorkflowRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	res, err := g.deps.Workflow.Run(r.Context(), req.Request())
	if err != nil {
		respondError(w, r, err)
		return
	}
	metrics.EfficiencyScore.Observe(res.EfficiencyMetrics.FinalScore)
	respond(w, http.StatusOK, "Complete farmer workflow executed", res)
}
