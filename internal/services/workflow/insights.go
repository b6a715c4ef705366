package workflow

import (
	"fmt"

	"github.com/LeonardoBeccarini/agrisense/internal/services/crop"
	"github.com/LeonardoBeccarini/agrisense/internal/services/efficiency"
	"github.com/LeonardoBeccarini/agrisense/internal/services/market"
	"github.com/LeonardoBeccarini/agrisense/internal/services/yield"
)

const (
	InsightYieldExcellent = "Excellent yield potential predicted"
	InsightYieldGood      = "Good yield potential predicted"
	InsightYieldOptimize  = "Consider optimizing inputs for better yield"
	InsightEfficiencyHigh = "Excellent farm efficiency score"
	InsightEfficiencyGood = "Good farm efficiency, room for improvement"
	InsightEfficiencyLow  = "Consider optimizing resource usage"
	InsightWaterLow       = "Water usage efficiency is low - consider irrigation optimization"
	InsightFertilizerLow  = "Fertilizer efficiency can be improved - consider soil testing"

	highConfidence   = 0.9
	excellentYield   = 20.0
	goodYield        = 10.0
	highRevenue      = 100000.0
	highEfficiency   = 0.7
	goodEfficiency   = 0.5
	lowResourceScore = 0.5
)

type Insight struct {
	Type   string
	Title  string
	Text   string
	Impact string // low|medium|high
}

// Insights derives the farmer-facing insights, in a fixed order: crop,
// yield, revenue, efficiency, water, fertilizer.
func Insights(rec crop.Recommendation, pred yield.Prediction, rev market.Revenue, eff efficiency.Result, currency string) []Insight {
	var out []Insight

	if rec.Confidence > highConfidence {
		out = append(out, Insight{
			Type: "crop", Title: "Crop recommendation", Impact: "low",
			Text: fmt.Sprintf("High confidence (%.1f%%) in %s recommendation", rec.Confidence*100, rec.RecommendedCrop),
		})
	}

	y := Insight{Type: "yield", Title: "Yield potential"}
	switch {
	case pred.PredictedYield > excellentYield:
		y.Text, y.Impact = InsightYieldExcellent, "low"
	case pred.PredictedYield > goodYield:
		y.Text, y.Impact = InsightYieldGood, "medium"
	default:
		y.Text, y.Impact = InsightYieldOptimize, "high"
	}
	out = append(out, y)

	if rev.NetRevenue > highRevenue {
		out = append(out, Insight{
			Type: "revenue", Title: "Revenue potential", Impact: "low",
			Text: fmt.Sprintf("High revenue potential: %s %s", groupThousands(rev.NetRevenue), currency),
		})
	}

	e := Insight{Type: "efficiency", Title: "Farm efficiency"}
	switch {
	case eff.FinalScore > highEfficiency:
		e.Text, e.Impact = InsightEfficiencyHigh, "low"
	case eff.FinalScore > goodEfficiency:
		e.Text, e.Impact = InsightEfficiencyGood, "medium"
	default:
		e.Text, e.Impact = InsightEfficiencyLow, "high"
	}
	out = append(out, e)

	// punteggi normalizzati; assenti (risultato degradato) contano come 0
	if eff.NormalizedScores[efficiency.WaterEfficiency] < lowResourceScore {
		out = append(out, Insight{Type: "water", Title: "Water efficiency", Impact: "high", Text: InsightWaterLow})
	}
	if eff.NormalizedScores[efficiency.FertilizerEfficiency] < lowResourceScore {
		out = append(out, Insight{Type: "fertilizer", Title: "Fertilizer efficiency", Impact: "medium", Text: InsightFertilizerLow})
	}
	return out
}
